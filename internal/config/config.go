package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"

	"platen/internal/pathspec"
	"platen/internal/services"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory and asset locations.
type Paths struct {
	InboxDir     string `toml:"inbox_dir"`
	OutputDir    string `toml:"output_dir"`
	LibraryDir   string `toml:"library_dir"`
	OverlayAsset string `toml:"overlay_asset"`
	LogDir       string `toml:"log_dir"`
}

// Processing contains monitor loop timing and retry policy.
type Processing struct {
	PollInterval  int `toml:"poll_interval"`
	RetentionDays int `toml:"retention_days"`
	MaxAttempts   int `toml:"max_attempts"`
	RetryDelay    int `toml:"retry_delay"`
}

// Stamp contains date-stamp rendering settings.
type Stamp struct {
	Enabled  bool    `toml:"enabled"`
	FontPath string  `toml:"font_path"`
	FontSize float64 `toml:"font_size"`
	Margin   int     `toml:"margin"`
}

// Imposition contains output sheet geometry.
type Imposition struct {
	SheetWidth   float64 `toml:"sheet_width"`
	SheetHeight  float64 `toml:"sheet_height"`
	RenderDPI    int     `toml:"render_dpi"`
	OutputSuffix string  `toml:"output_suffix"`
}

// Printing contains print sink settings.
type Printing struct {
	AutoPrint bool   `toml:"auto_print"`
	Command   string `toml:"command"`
	Timeout   int    `toml:"timeout"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format        string `toml:"format"`
	Level         string `toml:"level"`
	RetentionDays int    `toml:"retention_days"`
}

// Config encapsulates all configuration values for platen.
//
// Configuration sections by subsystem:
//   - Paths: drop folder, output folder, working library, overlay asset, logs
//   - Processing: poll interval, retention sweep age, retry policy
//   - Stamp: date-stamp rendering (font, size, placement margin)
//   - Imposition: sheet dimensions in points, render DPI, output suffix
//   - Printing: external print command, timeout, auto-print toggle
//   - Logging: log format, level, and retention
type Config struct {
	Paths      Paths      `toml:"paths"`
	Processing Processing `toml:"processing"`
	Stamp      Stamp      `toml:"stamp"`
	Imposition Imposition `toml:"imposition"`
	Printing   Printing   `toml:"printing"`
	Logging    Logging    `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/platen/config.toml")
}

// Load locates, parses, and validates a configuration file. The returned config
// has all path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, services.Wrap(services.ErrConfiguration, "config", "open", resolvedPath, err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, services.Wrap(services.ErrConfiguration, "config", "parse", resolvedPath, err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := expandPath("~/.config/platen/config.toml")
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("platen.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// ExtractedDir returns the working directory holding extracted page images.
func (c *Config) ExtractedDir() string {
	return filepath.Join(c.Paths.LibraryDir, "extracted")
}

// StampedDir returns the working directory holding stamped page images.
func (c *Config) StampedDir() string {
	return filepath.Join(c.Paths.LibraryDir, "stamped")
}

// ImposedDir returns the working directory holding imposed sheet documents.
func (c *Config) ImposedDir() string {
	return filepath.Join(c.Paths.LibraryDir, "imposed")
}

// ProcessedDir returns the terminal archive directory. It is never swept.
func (c *Config) ProcessedDir() string {
	return filepath.Join(c.Paths.LibraryDir, "processed")
}

// WorkDirs returns the transient working directories in sweep order.
func (c *Config) WorkDirs() []string {
	return []string{c.ExtractedDir(), c.StampedDir(), c.ImposedDir()}
}

// EnsureDirectories creates required directories for daemon operation. Inbox
// and output directories are created on a best-effort basis so the daemon can
// run when a network share is temporarily unavailable.
func (c *Config) EnsureDirectories() error {
	dirs := []string{c.Paths.LibraryDir, c.Paths.LogDir}
	dirs = append(dirs, c.WorkDirs()...)
	dirs = append(dirs, c.ProcessedDir())
	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	for _, dir := range []string{c.Paths.InboxDir, c.Paths.OutputDir} {
		if strings.TrimSpace(dir) != "" {
			_ = os.MkdirAll(dir, 0o755)
		}
	}
	return nil
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	resolved, err := pathspec.Resolve(pathValue)
	if err != nil {
		return "", err
	}
	return resolved.Value, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	sample := sampleConfig

	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sample), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
