package printing

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"testing"
	"time"

	"platen/internal/services"
)

func setHelperCommand(t *testing.T, mode string) *[]string {
	t.Helper()
	captured := &[]string{}
	original := commandContext
	commandContext = func(ctx context.Context, name string, args ...string) *exec.Cmd {
		*captured = append([]string{name}, args...)
		cmd := exec.CommandContext(ctx, os.Args[0], "-test.run=TestHelperProcess")
		cmd.Env = append(os.Environ(), "GO_WANT_HELPER_PROCESS=1", fmt.Sprintf("PRINT_HELPER_MODE=%s", mode))
		return cmd
	}
	t.Cleanup(func() {
		commandContext = original
	})
	return captured
}

func TestHelperProcess(t *testing.T) {
	if os.Getenv("GO_WANT_HELPER_PROCESS") != "1" {
		return
	}
	switch os.Getenv("PRINT_HELPER_MODE") {
	case "success":
		fmt.Println("request id is office-42 (1 file(s))")
		os.Exit(0)
	case "failure":
		fmt.Fprintln(os.Stderr, "lp: The printer is not responding.")
		os.Exit(1)
	case "hang":
		time.Sleep(10 * time.Second)
		os.Exit(0)
	default:
		os.Exit(0)
	}
}

func TestPrintAppendsDocumentPath(t *testing.T) {
	captured := setHelperCommand(t, "success")

	printer := NewCommandPrinter("lp -d office")
	if err := printer.Print(context.Background(), "/library/out/batch_2up.pdf"); err != nil {
		t.Fatalf("Print returned error: %v", err)
	}

	want := []string{"lp", "-d", "office", "/library/out/batch_2up.pdf"}
	if len(*captured) != len(want) {
		t.Fatalf("command = %v, want %v", *captured, want)
	}
	for i, arg := range want {
		if (*captured)[i] != arg {
			t.Fatalf("command = %v, want %v", *captured, want)
		}
	}
}

func TestPrintSubstitutesPlaceholder(t *testing.T) {
	captured := setHelperCommand(t, "success")

	printer := NewCommandPrinter("lpr -P office %s -#1")
	if err := printer.Print(context.Background(), "/tmp/doc.pdf"); err != nil {
		t.Fatalf("Print returned error: %v", err)
	}

	args := *captured
	if len(args) != 5 {
		t.Fatalf("command = %v, want 5 elements", args)
	}
	if args[3] != "/tmp/doc.pdf" {
		t.Fatalf("placeholder not substituted: %v", args)
	}
	if args[4] != "-#1" {
		t.Fatalf("trailing argument lost: %v", args)
	}
}

func TestPrintFailureCarriesMarkerAndDetail(t *testing.T) {
	setHelperCommand(t, "failure")

	printer := NewCommandPrinter("lp")
	err := printer.Print(context.Background(), "/tmp/doc.pdf")
	if err == nil {
		t.Fatal("expected print failure")
	}
	if !errors.Is(err, services.ErrPrintFailure) {
		t.Fatalf("error = %v, want ErrPrintFailure", err)
	}
	if !strings.Contains(err.Error(), "not responding") {
		t.Fatalf("error should carry command output, got %v", err)
	}
}

func TestPrintTimeout(t *testing.T) {
	setHelperCommand(t, "hang")

	printer := NewCommandPrinter("lp", WithTimeout(200*time.Millisecond))
	start := time.Now()
	err := printer.Print(context.Background(), "/tmp/doc.pdf")
	if err == nil {
		t.Fatal("expected timeout error")
	}
	if !errors.Is(err, services.ErrPrintTimeout) {
		t.Fatalf("error = %v, want ErrPrintTimeout", err)
	}
	if elapsed := time.Since(start); elapsed > 5*time.Second {
		t.Fatalf("print did not abort on timeout, took %s", elapsed)
	}
}

func TestPrintEmptyCommand(t *testing.T) {
	printer := NewCommandPrinter("   ")
	err := printer.Print(context.Background(), "/tmp/doc.pdf")
	if !errors.Is(err, services.ErrPrintFailure) {
		t.Fatalf("error = %v, want ErrPrintFailure", err)
	}
}

func TestCommandLine(t *testing.T) {
	cases := []struct {
		command  string
		document string
		wantName string
		wantArgs []string
	}{
		{"lp", "/d.pdf", "lp", []string{"/d.pdf"}},
		{"lp -d office", "/d.pdf", "lp", []string{"-d", "office", "/d.pdf"}},
		{"print-doc %s --wait", "/d.pdf", "print-doc", []string{"/d.pdf", "--wait"}},
	}
	for _, tc := range cases {
		printer := NewCommandPrinter(tc.command)
		name, args, err := printer.commandLine(tc.document)
		if err != nil {
			t.Errorf("commandLine(%q): %v", tc.command, err)
			continue
		}
		if name != tc.wantName {
			t.Errorf("commandLine(%q) name = %s, want %s", tc.command, name, tc.wantName)
		}
		if len(args) != len(tc.wantArgs) {
			t.Errorf("commandLine(%q) args = %v, want %v", tc.command, args, tc.wantArgs)
			continue
		}
		for i := range args {
			if args[i] != tc.wantArgs[i] {
				t.Errorf("commandLine(%q) args = %v, want %v", tc.command, args, tc.wantArgs)
				break
			}
		}
	}
}
