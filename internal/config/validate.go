package config

import (
	"errors"
	"fmt"
	"strings"

	"platen/internal/services"
)

// Validate ensures the configuration is usable. Failures carry the
// validation marker and name the offending field.
func (c *Config) Validate() error {
	if err := c.validate(); err != nil {
		return fmt.Errorf("%w: %s", services.ErrValidation, err)
	}
	return nil
}

func (c *Config) validate() error {
	if err := c.validatePaths(); err != nil {
		return err
	}
	if err := c.validateProcessing(); err != nil {
		return err
	}
	if err := c.validateStamp(); err != nil {
		return err
	}
	if err := c.validateImposition(); err != nil {
		return err
	}
	if err := c.validatePrinting(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validatePaths() error {
	if strings.TrimSpace(c.Paths.InboxDir) == "" {
		return errors.New("paths.inbox_dir must be set")
	}
	if strings.TrimSpace(c.Paths.OutputDir) == "" {
		return errors.New("paths.output_dir must be set")
	}
	if strings.TrimSpace(c.Paths.LibraryDir) == "" {
		return errors.New("paths.library_dir must be set")
	}
	if strings.TrimSpace(c.Paths.OverlayAsset) == "" {
		return errors.New("paths.overlay_asset must be set")
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		return errors.New("paths.log_dir must be set")
	}
	return nil
}

func (c *Config) validateProcessing() error {
	if err := ensurePositiveMap(map[string]int{
		"processing.poll_interval": c.Processing.PollInterval,
	}); err != nil {
		return err
	}
	if c.Processing.RetentionDays < 0 {
		return errors.New("processing.retention_days must be >= 0")
	}
	if c.Processing.MaxAttempts < 1 {
		return errors.New("processing.max_attempts must be at least 1")
	}
	if c.Processing.RetryDelay < 0 {
		return errors.New("processing.retry_delay must be >= 0")
	}
	return nil
}

func (c *Config) validateStamp() error {
	if c.Stamp.Margin < 0 {
		return errors.New("stamp.margin must be >= 0")
	}
	if !c.Stamp.Enabled {
		return nil
	}
	if c.Stamp.FontSize <= 0 {
		return errors.New("stamp.font_size must be positive when stamp.enabled is true")
	}
	return nil
}

func (c *Config) validateImposition() error {
	if c.Imposition.SheetWidth <= 0 {
		return errors.New("imposition.sheet_width must be positive")
	}
	if c.Imposition.SheetHeight <= 0 {
		return errors.New("imposition.sheet_height must be positive")
	}
	if err := ensurePositiveMap(map[string]int{
		"imposition.render_dpi": c.Imposition.RenderDPI,
	}); err != nil {
		return err
	}
	if strings.ContainsAny(c.Imposition.OutputSuffix, `/\`) {
		return errors.New("imposition.output_suffix must not contain path separators")
	}
	return nil
}

func (c *Config) validatePrinting() error {
	if !c.Printing.AutoPrint {
		return nil
	}
	if strings.TrimSpace(c.Printing.Command) == "" {
		return errors.New("printing.command must be set when printing.auto_print is true")
	}
	if c.Printing.Timeout <= 0 {
		return errors.New("printing.timeout must be positive (seconds)")
	}
	return nil
}

func ensurePositiveMap(values map[string]int) error {
	for key, value := range values {
		if value <= 0 {
			return fmt.Errorf("%s must be positive", key)
		}
	}
	return nil
}
