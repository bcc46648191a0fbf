// Package stamp renders the batch date onto the overlay base asset.
//
// The overlay is a PNG with alpha supplied by the operator. Composing draws
// the date token in opaque black on a transparent layer, centered
// horizontally with its top edge at the vertical midpoint of the asset, then
// alpha-composites the layer over the base. The result is written as a
// transient PNG owned by the item being processed.
package stamp

import (
	"context"
	"fmt"
	"image"
	"image/draw"
	"image/png"
	"log/slog"
	"os"
	"path/filepath"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"

	"platen/internal/logging"
	"platen/internal/services"
)

// Fallback candidates when no usable font is configured.
var systemFontPaths = []string{
	"/usr/share/fonts/truetype/dejavu/DejaVuSans.ttf",
	"/usr/share/fonts/truetype/liberation/LiberationSans-Regular.ttf",
	"/usr/share/fonts/truetype/freefont/FreeSans.ttf",
	"/usr/share/fonts/TTF/DejaVuSans.ttf",
}

// Composer builds date-stamped overlay assets.
type Composer struct {
	logger   *slog.Logger
	fontPath string
	fontSize float64
}

// NewComposer returns a Composer. fontPath may be empty to rely on system
// fonts; fontSize is in points at 72 DPI.
func NewComposer(logger *slog.Logger, fontPath string, fontSize float64) *Composer {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Composer{
		logger:   logging.NewComponentLogger(logger, "stamp"),
		fontPath: fontPath,
		fontSize: fontSize,
	}
}

// Compose renders dateToken onto the base asset and writes the result to
// destPath. The returned path equals destPath on success.
func (c *Composer) Compose(ctx context.Context, baseAssetPath, dateToken, destPath string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", services.Wrap(services.ErrAssetMissing, "compose", "compose", "compose cancelled", err)
	}
	if _, err := os.Stat(baseAssetPath); err != nil {
		return "", services.Wrap(services.ErrAssetMissing, "compose", "stat_base", fmt.Sprintf("overlay base asset %s", baseAssetPath), err)
	}

	base, err := loadImage(baseAssetPath)
	if err != nil {
		return "", services.Wrap(services.ErrAssetMissing, "compose", "decode_base", "decode overlay base asset", err)
	}

	face := c.loadFace()
	layer := renderDateLayer(base.Bounds(), face, dateToken)

	combined := image.NewRGBA(base.Bounds())
	draw.Draw(combined, combined.Bounds(), base, base.Bounds().Min, draw.Src)
	draw.Draw(combined, combined.Bounds(), layer, layer.Bounds().Min, draw.Over)

	if err := writePNG(destPath, combined); err != nil {
		return "", services.Wrap(services.ErrAssetMissing, "compose", "write_overlay", "write dated overlay", err)
	}

	c.logger.Debug("dated overlay composed",
		logging.String("date", dateToken),
		logging.String("overlay", filepath.Base(destPath)),
	)
	return destPath, nil
}

// loadFace resolves the font chain: configured file, then system fonts, then
// the built-in bitmap face. Rendering always succeeds with some face.
func (c *Composer) loadFace() font.Face {
	if c.fontPath != "" {
		face, err := loadFontFace(c.fontPath, c.fontSize)
		if err == nil {
			return face
		}
		logging.WarnWithContext(c.logger, "configured stamp font unusable; trying system fonts", "stamp_font_fallback",
			logging.String("font_path", c.fontPath),
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check stamp.font_path in the config"),
		)
	}
	for _, candidate := range systemFontPaths {
		face, err := loadFontFace(candidate, c.fontSize)
		if err != nil {
			continue
		}
		c.logger.Debug("stamp font selected", logging.String("font_path", candidate))
		return face
	}
	logging.WarnWithContext(c.logger, "no scalable font available; using built-in bitmap font", "stamp_font_fallback",
		logging.String(logging.FieldImpact, "date text renders at a small fixed size"),
	)
	return basicfont.Face7x13
}

func loadFontFace(path string, size float64) (font.Face, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	parsed, err := opentype.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("parse font %s: %w", filepath.Base(path), err)
	}
	face, err := opentype.NewFace(parsed, &opentype.FaceOptions{
		Size:    size,
		DPI:     72,
		Hinting: font.HintingFull,
	})
	if err != nil {
		return nil, fmt.Errorf("build face for %s: %w", filepath.Base(path), err)
	}
	return face, nil
}

// renderDateLayer draws the token in opaque black on a transparent layer,
// centered horizontally with the text top at the vertical midpoint.
func renderDateLayer(bounds image.Rectangle, face font.Face, text string) *image.RGBA {
	layer := image.NewRGBA(bounds)
	drawer := &font.Drawer{
		Dst:  layer,
		Src:  image.Black,
		Face: face,
	}
	textWidth := drawer.MeasureString(text)
	x := (fixed.I(bounds.Dx()) - textWidth) / 2
	if x < 0 {
		x = 0
	}
	y := fixed.I(bounds.Dy()/2) + face.Metrics().Ascent
	drawer.Dot = fixed.Point26_6{X: fixed.I(bounds.Min.X) + x, Y: fixed.I(bounds.Min.Y) + y}
	drawer.DrawString(text)
	return layer
}

func loadImage(path string) (image.Image, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()
	img, err := png.Decode(file)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filepath.Base(path), err)
	}
	return img, nil
}

func writePNG(path string, img image.Image) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := png.Encode(file, img); err != nil {
		_ = file.Close()
		return err
	}
	return file.Close()
}
