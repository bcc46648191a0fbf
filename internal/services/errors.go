package services

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrExtraction    = errors.New("extraction error")
	ErrAssetMissing  = errors.New("overlay asset missing")
	ErrStamp         = errors.New("stamp error")
	ErrImposition    = errors.New("imposition error")
	ErrPrintTimeout  = errors.New("print timeout")
	ErrPrintFailure  = errors.New("print failure")
	ErrMove          = errors.New("archive move error")
	ErrValidation    = errors.New("validation error")
	ErrConfiguration = errors.New("configuration error")
	ErrDatabase      = errors.New("database error")
	ErrTransient     = errors.New("transient failure")
)

// Wrap builds an error message that includes stage context while tagging it
// with the provided marker for later outcome classification. The marker should
// be one of the exported sentinel errors above.
func Wrap(marker error, stage, operation, message string, err error) error {
	detail := buildDetail(stage, operation, message)
	if marker == nil {
		marker = ErrTransient
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

// FailureStage maps a pipeline error to the stage name recorded in attempt
// outcomes and the history ledger.
func FailureStage(err error) string {
	switch {
	case errors.Is(err, ErrExtraction):
		return "extract"
	case errors.Is(err, ErrAssetMissing):
		return "compose"
	case errors.Is(err, ErrStamp):
		return "stamp"
	case errors.Is(err, ErrImposition):
		return "impose"
	case errors.Is(err, ErrPrintTimeout), errors.Is(err, ErrPrintFailure):
		return "print"
	case errors.Is(err, ErrMove):
		return "archive"
	default:
		return "pipeline"
	}
}

func buildDetail(stage, operation, message string) string {
	parts := make([]string, 0, 3)
	if stage = strings.TrimSpace(stage); stage != "" {
		parts = append(parts, stage)
	}
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "service failure"
	}
	return strings.Join(parts, ": ")
}
