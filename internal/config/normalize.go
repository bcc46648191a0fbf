package config

import (
	"fmt"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	if err := c.normalizeStamp(); err != nil {
		return err
	}
	c.normalizeImposition()
	c.normalizePrinting()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if c.Paths.InboxDir, err = expandPath(c.Paths.InboxDir); err != nil {
		return fmt.Errorf("paths.inbox_dir: %w", err)
	}
	if c.Paths.OutputDir, err = expandPath(c.Paths.OutputDir); err != nil {
		return fmt.Errorf("paths.output_dir: %w", err)
	}
	if c.Paths.LibraryDir, err = expandPath(c.Paths.LibraryDir); err != nil {
		return fmt.Errorf("paths.library_dir: %w", err)
	}
	if c.Paths.OverlayAsset, err = expandPath(c.Paths.OverlayAsset); err != nil {
		return fmt.Errorf("paths.overlay_asset: %w", err)
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		c.Paths.LogDir = defaultLogDir
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeStamp() error {
	var err error
	c.Stamp.FontPath = strings.TrimSpace(c.Stamp.FontPath)
	if c.Stamp.FontPath == "" {
		return nil
	}
	if c.Stamp.FontPath, err = expandPath(c.Stamp.FontPath); err != nil {
		return fmt.Errorf("stamp.font_path: %w", err)
	}
	return nil
}

func (c *Config) normalizeImposition() {
	c.Imposition.OutputSuffix = strings.TrimSpace(c.Imposition.OutputSuffix)
	if c.Imposition.OutputSuffix == "" {
		c.Imposition.OutputSuffix = defaultOutputSuffix
	}
}

func (c *Config) normalizePrinting() {
	c.Printing.Command = strings.TrimSpace(c.Printing.Command)
	if c.Printing.Command == "" {
		c.Printing.Command = defaultPrintCommand
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	switch c.Logging.Format {
	case "", "console":
		c.Logging.Format = "console"
	case "json":
	default:
		c.Logging.Format = "console"
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
	if c.Logging.RetentionDays < 0 {
		c.Logging.RetentionDays = 0
	}
}
