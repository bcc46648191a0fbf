package workflow

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"

	"platen/internal/config"
	"platen/internal/deps"
	"platen/internal/extract"
	"platen/internal/fileutil"
	"platen/internal/impose"
	"platen/internal/logging"
	"platen/internal/printing"
	"platen/internal/services"
	"platen/internal/stage"
	"platen/internal/stamp"
	"platen/internal/transform"
)

// extractStage unpacks the source archive and groups its page images into
// documents.
type extractStage struct {
	cfg    *config.Config
	logger *slog.Logger
}

func (s *extractStage) SetLogger(logger *slog.Logger) { s.logger = logger }

func (s *extractStage) Prepare(ctx context.Context, item *stage.Item) error {
	if _, err := os.Stat(item.ArchivePath); err != nil {
		return services.Wrap(services.ErrExtraction, "extract", "stat_archive", fmt.Sprintf("archive %s unavailable", item.ArchiveName), err)
	}
	return nil
}

func (s *extractStage) Execute(ctx context.Context, item *stage.Item) error {
	docs, err := extract.NewExtractor(s.logger).Extract(ctx, item.ArchivePath, item.Paths.ExtractDir)
	if err != nil {
		return err
	}
	count := extract.PageCount(docs)
	if count == 0 {
		return services.Wrap(services.ErrExtraction, "extract", "scan_pages", fmt.Sprintf("archive %s contains no page images", item.ArchiveName), nil)
	}
	item.Documents = docs
	item.PageCount = count
	return nil
}

func (s *extractStage) HealthCheck(ctx context.Context) stage.Health {
	info, err := os.Stat(s.cfg.Paths.InboxDir)
	if err != nil {
		return stage.Unhealthy("extract", fmt.Sprintf("inbox unavailable: %v", err))
	}
	if !info.IsDir() {
		return stage.Unhealthy("extract", "inbox path is not a directory")
	}
	return stage.Healthy("extract")
}

// composeStage renders the item's date token onto the base overlay asset.
// With stamping disabled the base asset is passed through unmodified.
type composeStage struct {
	cfg    *config.Config
	logger *slog.Logger
}

func (s *composeStage) SetLogger(logger *slog.Logger) { s.logger = logger }

func (s *composeStage) Prepare(ctx context.Context, item *stage.Item) error {
	if _, err := os.Stat(s.cfg.Paths.OverlayAsset); err != nil {
		return services.Wrap(services.ErrAssetMissing, "compose", "stat_asset", fmt.Sprintf("overlay asset %s", s.cfg.Paths.OverlayAsset), err)
	}
	return nil
}

func (s *composeStage) Execute(ctx context.Context, item *stage.Item) error {
	if !s.cfg.Stamp.Enabled {
		item.OverlayPath = s.cfg.Paths.OverlayAsset
		s.logger.Debug("date stamping disabled; using overlay asset unmodified")
		return nil
	}
	composer := stamp.NewComposer(s.logger, s.cfg.Stamp.FontPath, s.cfg.Stamp.FontSize)
	overlayPath, err := composer.Compose(ctx, s.cfg.Paths.OverlayAsset, item.DateToken, item.Paths.OverlayPNG)
	if err != nil {
		return err
	}
	item.OverlayPath = overlayPath
	return nil
}

func (s *composeStage) HealthCheck(ctx context.Context) stage.Health {
	if _, err := os.Stat(s.cfg.Paths.OverlayAsset); err != nil {
		return stage.Unhealthy("compose", fmt.Sprintf("overlay asset unavailable: %v", err))
	}
	return stage.Healthy("compose")
}

// stampStage applies the overlay to every page of every extracted document.
type stampStage struct {
	cfg    *config.Config
	logger *slog.Logger
}

func (s *stampStage) SetLogger(logger *slog.Logger) { s.logger = logger }

func (s *stampStage) Prepare(ctx context.Context, item *stage.Item) error { return nil }

func (s *stampStage) Execute(ctx context.Context, item *stage.Item) error {
	transformer := transform.NewTransformer(s.logger)
	stamped := make([]extract.Document, 0, len(item.Documents))
	for _, doc := range item.Documents {
		out, err := transformer.ApplyStamp(ctx, doc, item.OverlayPath, s.cfg.Stamp.Margin, item.Paths.StampDir)
		if err != nil {
			return err
		}
		stamped = append(stamped, out)
	}
	item.Documents = stamped
	return nil
}

func (s *stampStage) HealthCheck(ctx context.Context) stage.Health {
	return stage.Healthy("stamp")
}

// imposeStage lays stamped pages two-up onto sheets and publishes the
// resulting document to the output directory.
type imposeStage struct {
	cfg    *config.Config
	logger *slog.Logger
}

func (s *imposeStage) SetLogger(logger *slog.Logger) { s.logger = logger }

func (s *imposeStage) Prepare(ctx context.Context, item *stage.Item) error {
	if err := os.MkdirAll(s.cfg.Paths.OutputDir, 0o755); err != nil {
		return services.Wrap(services.ErrImposition, "impose", "create_output_dir", s.cfg.Paths.OutputDir, err)
	}
	return nil
}

func (s *imposeStage) Execute(ctx context.Context, item *stage.Item) error {
	opts := impose.Options{
		SheetWidth:  s.cfg.Imposition.SheetWidth,
		SheetHeight: s.cfg.Imposition.SheetHeight,
		RenderDPI:   s.cfg.Imposition.RenderDPI,
		OutputPath:  item.Paths.ImposedPDF,
	}
	if _, err := impose.NewEngine(s.logger).Impose(ctx, item.Documents, opts); err != nil {
		return err
	}
	if err := fileutil.CopyFileVerified(item.Paths.ImposedPDF, item.Paths.OutputPDF); err != nil {
		return services.Wrap(services.ErrImposition, "impose", "publish_output", fmt.Sprintf("publish %s", filepath.Base(item.Paths.OutputPDF)), err)
	}
	item.OutputPath = item.Paths.OutputPDF
	return nil
}

func (s *imposeStage) HealthCheck(ctx context.Context) stage.Health {
	if _, err := os.Stat(s.cfg.Paths.OutputDir); err != nil {
		return stage.Unhealthy("impose", fmt.Sprintf("output directory unavailable: %v", err))
	}
	return stage.Healthy("impose")
}

// printStage hands the published document to the configured print command.
// Disabled printing is success by definition.
type printStage struct {
	cfg     *config.Config
	printer printing.Printer
	logger  *slog.Logger
}

func (s *printStage) SetLogger(logger *slog.Logger) { s.logger = logger }

func (s *printStage) Prepare(ctx context.Context, item *stage.Item) error { return nil }

func (s *printStage) Execute(ctx context.Context, item *stage.Item) error {
	if !s.cfg.Printing.AutoPrint {
		s.logger.Debug("auto-print disabled; leaving document unprinted",
			logging.String("output", filepath.Base(item.OutputPath)),
		)
		return nil
	}
	return s.printer.Print(ctx, item.OutputPath)
}

func (s *printStage) HealthCheck(ctx context.Context) stage.Health {
	if !s.cfg.Printing.AutoPrint {
		return stage.Healthy("print")
	}
	binary := deps.CommandBinary(s.cfg.Printing.Command)
	if binary == "" {
		return stage.Unhealthy("print", "printing.command is empty")
	}
	if _, err := exec.LookPath(binary); err != nil {
		return stage.Unhealthy("print", fmt.Sprintf("print command unavailable: %v", err))
	}
	return stage.Healthy("print")
}

// archiveStage retires the source archive into the processed directory. This
// is the only stage with side effects on the source archive, and it runs
// last so a crash earlier in the pipeline leaves the inbox untouched.
type archiveStage struct {
	cfg    *config.Config
	logger *slog.Logger
}

func (s *archiveStage) SetLogger(logger *slog.Logger) { s.logger = logger }

func (s *archiveStage) Prepare(ctx context.Context, item *stage.Item) error {
	if err := os.MkdirAll(s.cfg.ProcessedDir(), 0o755); err != nil {
		return services.Wrap(services.ErrMove, "archive", "create_processed_dir", s.cfg.ProcessedDir(), err)
	}
	return nil
}

func (s *archiveStage) Execute(ctx context.Context, item *stage.Item) error {
	dest := filepath.Join(s.cfg.ProcessedDir(), item.ArchiveName)
	if err := fileutil.MoveFile(item.ArchivePath, dest); err != nil {
		return services.Wrap(services.ErrMove, "archive", "move_archive", fmt.Sprintf("move %s to processed", item.ArchiveName), err)
	}
	item.ArchivePath = dest
	s.logger.Debug("archive retired",
		logging.String("archive", item.ArchiveName),
		logging.String("destination", dest),
	)
	return nil
}

func (s *archiveStage) HealthCheck(ctx context.Context) stage.Health {
	return stage.Healthy("archive")
}

var (
	_ stage.Handler     = (*extractStage)(nil)
	_ stage.Handler     = (*composeStage)(nil)
	_ stage.Handler     = (*stampStage)(nil)
	_ stage.Handler     = (*imposeStage)(nil)
	_ stage.Handler     = (*printStage)(nil)
	_ stage.Handler     = (*archiveStage)(nil)
	_ stage.LoggerAware = (*extractStage)(nil)
	_ stage.LoggerAware = (*archiveStage)(nil)
)
