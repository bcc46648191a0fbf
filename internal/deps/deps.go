// Package deps reports availability of the external binaries platen invokes.
// The only hard dependency is the print command, and only when auto-print is
// on; everything else in the pipeline is in-process.
package deps

import (
	"fmt"
	"os/exec"
	"strings"
)

// Requirement names one external binary and why platen wants it.
type Requirement struct {
	Name        string
	Command     string
	Description string
	Optional    bool
}

// Status is the check outcome for one Requirement.
type Status struct {
	Name        string
	Command     string
	Description string
	Optional    bool
	Available   bool
	Detail      string
}

// Check resolves a single requirement against PATH.
func Check(req Requirement) Status {
	status := Status{
		Name:        req.Name,
		Command:     strings.TrimSpace(req.Command),
		Description: strings.TrimSpace(req.Description),
		Optional:    req.Optional,
	}
	switch {
	case status.Command == "":
		status.Detail = "command not configured"
	default:
		if _, err := exec.LookPath(status.Command); err != nil {
			status.Detail = fmt.Sprintf("binary %q not found", status.Command)
		} else {
			status.Available = true
		}
	}
	return status
}

// CheckBinaries resolves every requirement, preserving order.
func CheckBinaries(requirements []Requirement) []Status {
	results := make([]Status, len(requirements))
	for i, req := range requirements {
		results[i] = Check(req)
	}
	return results
}

// CommandBinary extracts the binary token from a configured command line.
// The print command may carry flags and a %s placeholder; only the first
// field names the executable.
func CommandBinary(command string) string {
	fields := strings.Fields(command)
	if len(fields) == 0 {
		return ""
	}
	return fields[0]
}

// PrintRequirement describes the configured print command as a dependency.
// It is optional when auto-print is disabled.
func PrintRequirement(command string, autoPrint bool) Requirement {
	return Requirement{
		Name:        "Print command",
		Command:     CommandBinary(command),
		Description: "Sends imposed PDFs to the printer",
		Optional:    !autoPrint,
	}
}
