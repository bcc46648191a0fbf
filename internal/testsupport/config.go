package testsupport

import (
	"os"
	"path/filepath"
	"testing"

	"platen/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config seeded with unique temp directories per test.
// Polling and retry delays are shortened, auto-print is off, and a small
// overlay asset is written so the compose stage has something to work with.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Paths.InboxDir = filepath.Join(base, "inbox")
	cfgVal.Paths.OutputDir = filepath.Join(base, "output")
	cfgVal.Paths.LibraryDir = filepath.Join(base, "library")
	cfgVal.Paths.LogDir = filepath.Join(base, "logs")
	cfgVal.Paths.OverlayAsset = filepath.Join(base, "assets", "overlay.png")
	cfgVal.Processing.PollInterval = 1
	cfgVal.Processing.RetryDelay = 0
	cfgVal.Imposition.RenderDPI = 72
	cfgVal.Printing.AutoPrint = false

	if err := os.MkdirAll(cfgVal.Paths.InboxDir, 0o755); err != nil {
		t.Fatalf("mkdir inbox: %v", err)
	}
	if err := os.MkdirAll(cfgVal.Paths.OutputDir, 0o755); err != nil {
		t.Fatalf("mkdir output: %v", err)
	}
	if err := os.MkdirAll(cfgVal.Paths.LogDir, 0o755); err != nil {
		t.Fatalf("mkdir logs: %v", err)
	}
	WritePNG(t, cfgVal.Paths.OverlayAsset, 120, 48)

	builder := &configBuilder{
		t:       t,
		baseDir: base,
		cfg:     &cfgVal,
	}

	for _, opt := range opts {
		opt(builder)
	}

	return builder.cfg
}

// WithStampDisabled turns off date stamping on the test config.
func WithStampDisabled() ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Stamp.Enabled = false
	}
}

// WithAutoPrint enables the print stage with the provided command line.
func WithAutoPrint(command string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Printing.AutoPrint = true
		b.cfg.Printing.Command = command
	}
}

// WithRetryPolicy overrides the attempt budget and the delay between
// attempts, in seconds.
func WithRetryPolicy(maxAttempts, retryDelay int) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Processing.MaxAttempts = maxAttempts
		b.cfg.Processing.RetryDelay = retryDelay
	}
}

// WithRetention overrides the working directory sweep age in days.
func WithRetention(days int) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Processing.RetentionDays = days
	}
}

// WithStubbedBinaries writes stub executables for the provided names and
// prepends them to PATH. If names is empty, the default print command is
// stubbed.
func WithStubbedBinaries(names ...string) ConfigOption {
	return func(b *configBuilder) {
		if len(names) == 0 {
			names = []string{"lp"}
		}
		binDir := filepath.Join(b.baseDir, "bin")
		if err := os.MkdirAll(binDir, 0o755); err != nil {
			b.t.Fatalf("mkdir bin dir: %v", err)
		}
		script := []byte("#!/bin/sh\nexit 0\n")
		for _, name := range names {
			target := filepath.Join(binDir, name)
			if err := os.WriteFile(target, script, 0o755); err != nil {
				b.t.Fatalf("write stub %s: %v", name, err)
			}
		}

		oldPath := os.Getenv("PATH")
		if err := os.Setenv("PATH", binDir+string(os.PathListSeparator)+oldPath); err != nil {
			b.t.Fatalf("set PATH: %v", err)
		}
		b.t.Cleanup(func() {
			_ = os.Setenv("PATH", oldPath)
		})
	}
}

// BaseDir returns the root temp directory backing the generated config.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.Paths.LibraryDir)
}
