// Package printing submits imposed documents to an external print command.
package printing

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os/exec"
	"strings"
	"sync"
	"time"

	"platen/internal/logging"
	"platen/internal/services"
)

var commandContext = exec.CommandContext

// One physical printer: submissions are serialized process-wide.
var printerMu sync.Mutex

// Printer submits a finished document for printing.
type Printer interface {
	Print(ctx context.Context, documentPath string) error
}

// Option configures the command printer.
type Option func(*CommandPrinter)

// WithTimeout bounds a single print submission. Zero disables the bound.
func WithTimeout(timeout time.Duration) Option {
	return func(p *CommandPrinter) {
		p.timeout = timeout
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(p *CommandPrinter) {
		if logger != nil {
			p.logger = logging.NewComponentLogger(logger, "print")
		}
	}
}

// CommandPrinter shells out to a configured command, `lp` by default. The
// command may reference the document with a %s placeholder; otherwise the
// document path is appended as the final argument.
type CommandPrinter struct {
	command string
	timeout time.Duration
	logger  *slog.Logger
}

func NewCommandPrinter(command string, opts ...Option) *CommandPrinter {
	printer := &CommandPrinter{
		command: strings.TrimSpace(command),
		logger:  logging.NewNop(),
	}
	for _, opt := range opts {
		opt(printer)
	}
	return printer
}

// Print runs the configured command against documentPath and waits for it to
// finish. Exceeding the timeout yields the print-timeout marker; a non-zero
// exit yields the print-failure marker.
func (p *CommandPrinter) Print(ctx context.Context, documentPath string) error {
	name, args, err := p.commandLine(documentPath)
	if err != nil {
		return services.Wrap(services.ErrPrintFailure, "print", "build_command", "print command not configured", err)
	}

	printerMu.Lock()
	defer printerMu.Unlock()

	runCtx := ctx
	cancel := context.CancelFunc(func() {})
	if p.timeout > 0 {
		runCtx, cancel = context.WithTimeout(ctx, p.timeout)
	}
	defer cancel()

	started := time.Now()
	cmd := commandContext(runCtx, name, args...) //nolint:gosec
	output, err := cmd.CombinedOutput()
	if err != nil {
		if errors.Is(runCtx.Err(), context.DeadlineExceeded) && ctx.Err() == nil {
			return services.Wrap(services.ErrPrintTimeout, "print", "run",
				fmt.Sprintf("%s exceeded %s", name, p.timeout), err)
		}
		detail := firstLine(output)
		msg := fmt.Sprintf("%s failed", name)
		if detail != "" {
			msg = fmt.Sprintf("%s failed: %s", name, detail)
		}
		return services.Wrap(services.ErrPrintFailure, "print", "run", msg, err)
	}

	p.logger.Debug("document submitted to printer",
		logging.String("command", name),
		logging.String("document", documentPath),
		logging.Duration("elapsed", time.Since(started)),
	)
	return nil
}

// commandLine splits the configured command and binds the document path,
// replacing a %s token when present.
func (p *CommandPrinter) commandLine(documentPath string) (string, []string, error) {
	fields := strings.Fields(p.command)
	if len(fields) == 0 {
		return "", nil, errors.New("empty command")
	}
	substituted := false
	args := make([]string, 0, len(fields))
	for _, field := range fields[1:] {
		if strings.Contains(field, "%s") {
			field = strings.ReplaceAll(field, "%s", documentPath)
			substituted = true
		}
		args = append(args, field)
	}
	if !substituted {
		args = append(args, documentPath)
	}
	return fields[0], args, nil
}

func firstLine(output []byte) string {
	text := strings.TrimSpace(string(output))
	if i := strings.IndexByte(text, '\n'); i >= 0 {
		text = text[:i]
	}
	return strings.TrimSpace(text)
}

var _ Printer = (*CommandPrinter)(nil)
