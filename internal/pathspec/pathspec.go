// Package pathspec classifies and resolves configured filesystem paths.
//
// Configured paths fall into three kinds: network shares in UNC syntax
// (//server/share or \\server\share), absolute paths, and relative paths.
// Classification happens once at configuration-load time so the rest of the
// system never branches on path syntax.
package pathspec

import (
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"
)

// Kind classifies a configured filesystem path.
type Kind int

const (
	KindRelative Kind = iota
	KindAbsolute
	KindNetwork
)

func (k Kind) String() string {
	switch k {
	case KindAbsolute:
		return "absolute"
	case KindNetwork:
		return "network"
	default:
		return "relative"
	}
}

// Path couples a raw configured value with its resolved form.
type Path struct {
	Raw   string
	Value string
	Kind  Kind
}

// Classify reports how a configured path should be interpreted. Tilde paths
// count as absolute since they expand to one.
func Classify(raw string) Kind {
	trimmed := strings.TrimSpace(raw)
	switch {
	case strings.HasPrefix(trimmed, `\\`) || strings.HasPrefix(trimmed, "//"):
		return KindNetwork
	case strings.HasPrefix(trimmed, "~"):
		return KindAbsolute
	case filepath.IsAbs(trimmed):
		return KindAbsolute
	default:
		return KindRelative
	}
}

// Resolve expands and normalizes a configured path. Network paths keep their
// UNC form with forward slashes and are never resolved against the working
// directory; relative paths are made absolute.
func Resolve(raw string) (Path, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return Path{Raw: raw}, nil
	}
	kind := Classify(trimmed)
	if kind == KindNetwork {
		return Path{Raw: raw, Value: normalizeNetwork(trimmed), Kind: kind}, nil
	}

	expanded, err := expandHome(trimmed)
	if err != nil {
		return Path{}, err
	}
	cleaned := filepath.Clean(expanded)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return Path{}, fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return Path{Raw: raw, Value: absolute, Kind: kind}, nil
}

func normalizeNetwork(value string) string {
	unified := strings.ReplaceAll(value, `\`, "/")
	trimmed := strings.TrimLeft(unified, "/")
	cleaned := path.Clean("/" + trimmed)
	if cleaned == "/" {
		return "//"
	}
	return "/" + cleaned
}

func expandHome(value string) (string, error) {
	if !strings.HasPrefix(value, "~") {
		return value, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home directory: %w", err)
	}
	if value == "~" {
		return home, nil
	}
	if len(value) > 1 && (value[1] == '/' || value[1] == '\\') {
		return filepath.Join(home, value[2:]), nil
	}
	return value, nil
}
