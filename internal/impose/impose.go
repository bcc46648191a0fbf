// Package impose lays out stamped pages two-up on landscape sheets and
// assembles the result into a single PDF.
//
// Pages from all documents are concatenated into one sequence (document
// order, then in-document page order). Sheet k carries page 2k in its left
// half and page 2k+1, when present, in its right half; each page is
// stretched to exactly fill its half. Sheets are rendered as rasters at the
// configured DPI and imported into a PDF whose page size is the sheet size
// in points.
package impose

import (
	"context"
	"fmt"
	"image"
	"log/slog"
	"math"
	"os"
	"path/filepath"

	_ "image/jpeg"
	"image/png"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"
	xdraw "golang.org/x/image/draw"

	"platen/internal/extract"
	"platen/internal/logging"
	"platen/internal/services"
)

// Options describe one imposition run. Sheet dimensions are in points for a
// single page of the source material; the output sheet is twice as wide.
type Options struct {
	SheetWidth  float64
	SheetHeight float64
	RenderDPI   int
	OutputPath  string
}

// Engine renders and assembles imposed sheets.
type Engine struct {
	logger *slog.Logger
}

func NewEngine(logger *slog.Logger) *Engine {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Engine{logger: logging.NewComponentLogger(logger, "impose")}
}

// SheetCount returns the number of sheets needed for pageCount pages.
func SheetCount(pageCount int) int {
	return (pageCount + 1) / 2
}

// Impose builds the two-up PDF at opts.OutputPath from all pages of docs.
// Existing output is overwritten.
func (e *Engine) Impose(ctx context.Context, docs []extract.Document, opts Options) (string, error) {
	var pages []string
	for _, doc := range docs {
		pages = append(pages, doc.Pages...)
	}
	if len(pages) == 0 {
		return "", services.Wrap(services.ErrImposition, "impose", "collect_pages", "no pages to impose", nil)
	}

	outDir := filepath.Dir(opts.OutputPath)
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return "", services.Wrap(services.ErrImposition, "impose", "create_output_dir", "create output directory", err)
	}
	sheetDir, err := os.MkdirTemp(outDir, "sheets-")
	if err != nil {
		return "", services.Wrap(services.ErrImposition, "impose", "create_sheet_dir", "create sheet directory", err)
	}
	defer os.RemoveAll(sheetDir)

	halfWidthPx := pixels(opts.SheetWidth, opts.RenderDPI)
	heightPx := pixels(opts.SheetHeight, opts.RenderDPI)

	sheetCount := SheetCount(len(pages))
	sheetPaths := make([]string, 0, sheetCount)
	for k := 0; k < sheetCount; k++ {
		if err := ctx.Err(); err != nil {
			return "", services.Wrap(services.ErrImposition, "impose", "render_sheet", "imposition cancelled", err)
		}
		left := pages[2*k]
		right := ""
		if 2*k+1 < len(pages) {
			right = pages[2*k+1]
		}
		sheetPath := filepath.Join(sheetDir, fmt.Sprintf("sheet_%04d.png", k+1))
		if err := renderSheet(left, right, halfWidthPx, heightPx, sheetPath); err != nil {
			return "", services.Wrap(services.ErrImposition, "impose", "render_sheet",
				fmt.Sprintf("sheet %d", k+1), err)
		}
		sheetPaths = append(sheetPaths, sheetPath)
	}

	if err := assemblePDF(sheetPaths, opts); err != nil {
		return "", err
	}

	e.logger.Debug("imposition complete",
		logging.Int("pages", len(pages)),
		logging.Int("sheets", sheetCount),
		logging.String("output", filepath.Base(opts.OutputPath)),
	)
	return opts.OutputPath, nil
}

// renderSheet stretches the left and right page images into their half-rects
// on a white canvas and writes the sheet PNG. An absent right page leaves
// its half blank.
func renderSheet(leftPath, rightPath string, halfWidthPx, heightPx int, destPath string) error {
	canvas := image.NewRGBA(image.Rect(0, 0, 2*halfWidthPx, heightPx))
	xdraw.Draw(canvas, canvas.Bounds(), image.White, image.Point{}, xdraw.Src)

	leftRect := image.Rect(0, 0, halfWidthPx, heightPx)
	if err := stretchInto(canvas, leftRect, leftPath); err != nil {
		return err
	}
	if rightPath != "" {
		rightRect := image.Rect(halfWidthPx, 0, 2*halfWidthPx, heightPx)
		if err := stretchInto(canvas, rightRect, rightPath); err != nil {
			return err
		}
	}

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

func stretchInto(canvas *image.RGBA, target image.Rectangle, pagePath string) error {
	file, err := os.Open(pagePath)
	if err != nil {
		return err
	}
	defer file.Close()
	page, _, err := image.Decode(file)
	if err != nil {
		return fmt.Errorf("%s: %w", filepath.Base(pagePath), err)
	}
	xdraw.ApproxBiLinear.Scale(canvas, target, page, page.Bounds(), xdraw.Over, nil)
	return nil
}

// assemblePDF imports the sheet rasters into a PDF with the exact sheet
// dimensions in points, then validates and optimizes the result.
func assemblePDF(sheetPaths []string, opts Options) error {
	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed

	description := fmt.Sprintf("dim:%g %g, pos:full", opts.SheetWidth*2, opts.SheetHeight)
	imp, err := pdfcpu.ParseImportDetails(description, types.POINTS)
	if err != nil {
		return services.Wrap(services.ErrImposition, "impose", "assemble_pdf", "build import description", err)
	}

	// ImportImagesFile appends when the target exists, so clear any remnant
	// of an interrupted attempt first.
	rawPath := opts.OutputPath + ".tmp"
	_ = os.Remove(rawPath)
	defer os.Remove(rawPath)
	if err := api.ImportImagesFile(sheetPaths, rawPath, imp, conf); err != nil {
		return services.Wrap(services.ErrImposition, "impose", "assemble_pdf", "import sheet images", err)
	}
	if err := api.ValidateFile(rawPath, conf); err != nil {
		return services.Wrap(services.ErrImposition, "impose", "validate_pdf", "validate assembled document", err)
	}
	if err := api.OptimizeFile(rawPath, opts.OutputPath, conf); err != nil {
		return services.Wrap(services.ErrImposition, "impose", "optimize_pdf", "optimize assembled document", err)
	}
	return nil
}

func pixels(points float64, dpi int) int {
	return int(math.Round(points * float64(dpi) / 72.0))
}
