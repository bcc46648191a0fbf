package config_test

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pelletier/go-toml/v2"

	"platen/internal/config"
	"platen/internal/services"
)

func TestLoadDefaultConfigExpandsPaths(t *testing.T) {
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)

	cfg, resolved, exists, err := config.Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if resolved == "" {
		t.Fatal("expected resolved path")
	}
	if exists {
		t.Fatal("expected config file to be absent in temp HOME")
	}

	if cfg.Paths.InboxDir != filepath.Join(tempHome, "platen", "inbox") {
		t.Fatalf("unexpected inbox dir: %q", cfg.Paths.InboxDir)
	}
	if cfg.Paths.OutputDir != filepath.Join(tempHome, "platen", "output") {
		t.Fatalf("unexpected output dir: %q", cfg.Paths.OutputDir)
	}
	wantLibrary := filepath.Join(tempHome, ".local", "share", "platen", "library")
	if cfg.Paths.LibraryDir != wantLibrary {
		t.Fatalf("unexpected library dir: got %q want %q", cfg.Paths.LibraryDir, wantLibrary)
	}
	if cfg.Paths.OverlayAsset != filepath.Join(tempHome, ".config", "platen", "overlay.png") {
		t.Fatalf("unexpected overlay asset: %q", cfg.Paths.OverlayAsset)
	}
	if cfg.Processing.PollInterval != 60 {
		t.Fatalf("unexpected poll interval: %d", cfg.Processing.PollInterval)
	}
	if cfg.Processing.RetentionDays != 7 {
		t.Fatalf("unexpected retention days: %d", cfg.Processing.RetentionDays)
	}
	if cfg.Processing.MaxAttempts != 3 {
		t.Fatalf("unexpected max attempts: %d", cfg.Processing.MaxAttempts)
	}
	if !cfg.Stamp.Enabled {
		t.Fatal("expected stamping enabled by default")
	}
	if cfg.Stamp.FontSize != 18 {
		t.Fatalf("unexpected font size: %v", cfg.Stamp.FontSize)
	}
	if cfg.Imposition.SheetWidth != 595 || cfg.Imposition.SheetHeight != 842 {
		t.Fatalf("unexpected sheet size: %v x %v", cfg.Imposition.SheetWidth, cfg.Imposition.SheetHeight)
	}
	if cfg.Imposition.OutputSuffix != "2up" {
		t.Fatalf("unexpected output suffix: %q", cfg.Imposition.OutputSuffix)
	}
	if !cfg.Printing.AutoPrint {
		t.Fatal("expected auto print enabled by default")
	}
	if cfg.Printing.Command != "lp" {
		t.Fatalf("unexpected print command: %q", cfg.Printing.Command)
	}
	if cfg.Logging.Format != "console" || cfg.Logging.Level != "info" {
		t.Fatalf("unexpected logging defaults: %q %q", cfg.Logging.Format, cfg.Logging.Level)
	}

	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories failed: %v", err)
	}
	dirs := []string{cfg.Paths.LibraryDir, cfg.Paths.LogDir, cfg.ProcessedDir()}
	dirs = append(dirs, cfg.WorkDirs()...)
	for _, dir := range dirs {
		info, err := os.Stat(dir)
		if err != nil {
			t.Fatalf("expected directory %q to exist: %v", dir, err)
		}
		if !info.IsDir() {
			t.Fatalf("expected %q to be directory", dir)
		}
	}
}

func TestLoadCustomPath(t *testing.T) {
	tempDir := t.TempDir()
	configPath := filepath.Join(tempDir, "platen.toml")

	type payload struct {
		Paths struct {
			InboxDir     string `toml:"inbox_dir"`
			OutputDir    string `toml:"output_dir"`
			LibraryDir   string `toml:"library_dir"`
			OverlayAsset string `toml:"overlay_asset"`
		} `toml:"paths"`
		Processing struct {
			PollInterval int `toml:"poll_interval"`
			MaxAttempts  int `toml:"max_attempts"`
		} `toml:"processing"`
		Printing struct {
			AutoPrint bool `toml:"auto_print"`
		} `toml:"printing"`
	}
	custom := payload{}
	custom.Paths.InboxDir = filepath.Join(tempDir, "inbox")
	custom.Paths.OutputDir = filepath.Join(tempDir, "output")
	custom.Paths.LibraryDir = filepath.Join(tempDir, "library")
	custom.Paths.OverlayAsset = filepath.Join(tempDir, "overlay.png")
	custom.Processing.PollInterval = 15
	custom.Processing.MaxAttempts = 5
	data, err := toml.Marshal(custom)
	if err != nil {
		t.Fatalf("marshal custom config: %v", err)
	}
	if err := os.WriteFile(configPath, data, 0o644); err != nil {
		t.Fatalf("write custom config: %v", err)
	}

	cfg, resolved, exists, err := config.Load(configPath)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if !exists {
		t.Fatal("expected exists to be true")
	}
	if resolved != configPath {
		t.Fatalf("unexpected resolved path: got %q want %q", resolved, configPath)
	}
	if cfg.Paths.InboxDir != custom.Paths.InboxDir {
		t.Fatalf("unexpected inbox dir: %q", cfg.Paths.InboxDir)
	}
	if cfg.Processing.PollInterval != 15 {
		t.Fatalf("expected poll interval 15, got %d", cfg.Processing.PollInterval)
	}
	if cfg.Processing.MaxAttempts != 5 {
		t.Fatalf("expected max attempts 5, got %d", cfg.Processing.MaxAttempts)
	}
	if cfg.Printing.AutoPrint {
		t.Fatal("expected auto print disabled by override")
	}
	if cfg.Processing.RetryDelay != config.Default().Processing.RetryDelay {
		t.Fatalf("expected retry delay default, got %d", cfg.Processing.RetryDelay)
	}
}

func TestLoadKeepsNetworkInboxUnresolved(t *testing.T) {
	tempDir := t.TempDir()
	configPath := filepath.Join(tempDir, "platen.toml")

	body := strings.Join([]string{
		"[paths]",
		`inbox_dir = '\\scanner\drop'`,
		`output_dir = "` + filepath.Join(tempDir, "output") + `"`,
		`library_dir = "` + filepath.Join(tempDir, "library") + `"`,
		`overlay_asset = "` + filepath.Join(tempDir, "overlay.png") + `"`,
	}, "\n")
	if err := os.WriteFile(configPath, []byte(body), 0o644); err != nil {
		t.Fatalf("write custom config: %v", err)
	}

	cfg, _, _, err := config.Load(configPath)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Paths.InboxDir != "//scanner/drop" {
		t.Fatalf("expected UNC inbox preserved, got %q", cfg.Paths.InboxDir)
	}
}

func TestCreateSampleLoads(t *testing.T) {
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)

	path := filepath.Join(t.TempDir(), "sample.toml")
	if err := config.CreateSample(path); err != nil {
		t.Fatalf("CreateSample failed: %v", err)
	}

	contents, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read sample: %v", err)
	}
	for _, section := range []string{"[paths]", "[processing]", "[stamp]", "[imposition]", "[printing]", "[logging]"} {
		if !strings.Contains(string(contents), section) {
			t.Fatalf("sample config missing %s section", section)
		}
	}

	cfg, _, exists, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load of sample failed: %v", err)
	}
	if !exists {
		t.Fatal("expected sample to exist")
	}
	if cfg.Processing.PollInterval != config.Default().Processing.PollInterval {
		t.Fatalf("sample drifted from defaults: poll interval %d", cfg.Processing.PollInterval)
	}
	if cfg.Imposition.OutputSuffix != config.Default().Imposition.OutputSuffix {
		t.Fatalf("sample drifted from defaults: output suffix %q", cfg.Imposition.OutputSuffix)
	}
}

func TestValidateDetectsInvalidValues(t *testing.T) {
	cfg := config.Default()
	cfg.Processing.PollInterval = 0
	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected error for non-positive poll interval")
	}
	if !errors.Is(err, services.ErrValidation) {
		t.Fatalf("error = %v, want validation marker", err)
	}
	if !strings.Contains(err.Error(), "processing.poll_interval") {
		t.Fatalf("error should name the field, got %v", err)
	}

	cfg = config.Default()
	cfg.Processing.MaxAttempts = 0
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for zero max attempts")
	}

	cfg = config.Default()
	cfg.Stamp.FontSize = 0
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for zero font size while stamping enabled")
	}

	cfg = config.Default()
	cfg.Stamp.Enabled = false
	cfg.Stamp.FontSize = 0
	if err := cfg.Validate(); err != nil {
		t.Fatalf("expected font size to be ignored while stamping disabled: %v", err)
	}

	cfg = config.Default()
	cfg.Imposition.SheetWidth = 0
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for zero sheet width")
	}

	cfg = config.Default()
	cfg.Imposition.OutputSuffix = "a/b"
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for suffix with path separator")
	}

	cfg = config.Default()
	cfg.Printing.Timeout = 0
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for zero print timeout")
	}

	cfg = config.Default()
	cfg.Printing.AutoPrint = false
	cfg.Printing.Timeout = 0
	if err := cfg.Validate(); err != nil {
		t.Fatalf("expected timeout to be ignored while printing disabled: %v", err)
	}
}
