package config

const (
	defaultInboxDir         = "~/platen/inbox"
	defaultOutputDir        = "~/platen/output"
	defaultLibraryDir       = "~/.local/share/platen/library"
	defaultOverlayAsset     = "~/.config/platen/overlay.png"
	defaultLogDir           = "~/.local/share/platen/logs"
	defaultPollInterval     = 60
	defaultRetentionDays    = 7
	defaultMaxAttempts      = 3
	defaultRetryDelay       = 5
	defaultStampEnabled     = true
	defaultFontSize         = 18
	defaultMargin           = 10
	defaultSheetWidth       = 595
	defaultSheetHeight      = 842
	defaultRenderDPI        = 150
	defaultOutputSuffix     = "2up"
	defaultAutoPrint        = true
	defaultPrintCommand     = "lp"
	defaultPrintTimeout     = 60
	defaultLogFormat        = "console"
	defaultLogLevel         = "info"
	defaultLogRetentionDays = 60
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			InboxDir:     defaultInboxDir,
			OutputDir:    defaultOutputDir,
			LibraryDir:   defaultLibraryDir,
			OverlayAsset: defaultOverlayAsset,
			LogDir:       defaultLogDir,
		},
		Processing: Processing{
			PollInterval:  defaultPollInterval,
			RetentionDays: defaultRetentionDays,
			MaxAttempts:   defaultMaxAttempts,
			RetryDelay:    defaultRetryDelay,
		},
		Stamp: Stamp{
			Enabled:  defaultStampEnabled,
			FontSize: defaultFontSize,
			Margin:   defaultMargin,
		},
		Imposition: Imposition{
			SheetWidth:   defaultSheetWidth,
			SheetHeight:  defaultSheetHeight,
			RenderDPI:    defaultRenderDPI,
			OutputSuffix: defaultOutputSuffix,
		},
		Printing: Printing{
			AutoPrint: defaultAutoPrint,
			Command:   defaultPrintCommand,
			Timeout:   defaultPrintTimeout,
		},
		Logging: Logging{
			Format:        defaultLogFormat,
			Level:         defaultLogLevel,
			RetentionDays: defaultLogRetentionDays,
		},
	}
}
