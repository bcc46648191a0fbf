// Package transform applies the overlay asset to extracted page images.
package transform

import (
	"context"
	"fmt"
	"image"
	"image/draw"
	"image/png"
	"log/slog"
	"os"
	"path/filepath"

	_ "image/jpeg"

	"platen/internal/extract"
	"platen/internal/logging"
	"platen/internal/services"
)

// Transformer stamps the overlay onto every page of a document.
type Transformer struct {
	logger *slog.Logger
}

func NewTransformer(logger *slog.Logger) *Transformer {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Transformer{logger: logging.NewComponentLogger(logger, "transform")}
}

// ApplyStamp composites overlayPath onto each page of doc at 1:1 scale, flush
// to the bottom-right corner inset by margin pixels on both axes. Stamped
// pages are written as PNG under destDir in page order. The returned document
// references the stamped copies; any page failure fails the whole document.
func (t *Transformer) ApplyStamp(ctx context.Context, doc extract.Document, overlayPath string, margin int, destDir string) (extract.Document, error) {
	overlay, err := loadImage(overlayPath)
	if err != nil {
		return extract.Document{}, services.Wrap(services.ErrStamp, "stamp", "load_overlay", "load overlay asset", err)
	}
	if err := os.MkdirAll(destDir, 0o755); err != nil {
		return extract.Document{}, services.Wrap(services.ErrStamp, "stamp", "create_dest", "create stamped directory", err)
	}

	stamped := extract.Document{Name: doc.Name, Pages: make([]string, 0, len(doc.Pages))}
	for i, pagePath := range doc.Pages {
		if err := ctx.Err(); err != nil {
			return extract.Document{}, services.Wrap(services.ErrStamp, "stamp", "apply", "stamping cancelled", err)
		}
		destPath := filepath.Join(destDir, fmt.Sprintf("%s_%04d.png", doc.Name, i+1))
		if err := stampPage(pagePath, overlay, margin, destPath); err != nil {
			return extract.Document{}, services.Wrap(services.ErrStamp, "stamp", "apply",
				fmt.Sprintf("page %d of %s", i+1, doc.Name), err)
		}
		stamped.Pages = append(stamped.Pages, destPath)
	}

	t.logger.Debug("document stamped",
		logging.String("document", doc.Name),
		logging.Int("pages", len(stamped.Pages)),
	)
	return stamped, nil
}

// stampPage composites the overlay over one page and writes the result.
// Overlay regions extending past the page edge are clipped.
func stampPage(pagePath string, overlay image.Image, margin int, destPath string) error {
	page, err := loadImage(pagePath)
	if err != nil {
		return err
	}

	bounds := page.Bounds()
	canvas := image.NewRGBA(bounds)
	draw.Draw(canvas, bounds, page, bounds.Min, draw.Src)

	overlaySize := overlay.Bounds().Size()
	target := image.Rect(
		bounds.Max.X-overlaySize.X-margin,
		bounds.Max.Y-overlaySize.Y-margin,
		bounds.Max.X-margin,
		bounds.Max.Y-margin,
	)
	draw.Draw(canvas, target, overlay, overlay.Bounds().Min, draw.Over)

	file, err := os.Create(destPath)
	if err != nil {
		return err
	}
	if err := png.Encode(file, canvas); err != nil {
		_ = file.Close()
		return err
	}
	return file.Close()
}

func loadImage(path string) (image.Image, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()
	img, _, err := image.Decode(file)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filepath.Base(path), err)
	}
	return img, nil
}
