// Package ident derives stable item identifiers and date tokens from archive
// file names. Scanner batches arrive as P_YYYYMMDD_<serial>.zip, sometimes
// with full-width digits when the upstream system runs in a CJK locale.
package ident

import (
	"path/filepath"
	"strings"
	"time"

	"golang.org/x/text/unicode/norm"
	"golang.org/x/text/width"
)

const dateLayout = "20060102"

// Identifier returns the archive's base name without its extension,
// NFC-normalized so the same name always keys the same working artifacts.
func Identifier(archivePath string) string {
	base := filepath.Base(archivePath)
	stem := strings.TrimSuffix(base, filepath.Ext(base))
	return norm.NFC.String(stem)
}

// DateToken extracts the eight-digit date embedded in an identifier. The
// second underscore-separated field must parse as YYYYMMDD; otherwise the
// current date is used. Full-width digits and separators are folded before
// matching.
func DateToken(identifier string) string {
	return dateTokenAt(identifier, time.Now())
}

// HasEmbeddedDate reports whether the identifier carries a parseable date
// field, letting callers log when DateToken fell back to the current date.
func HasEmbeddedDate(identifier string) bool {
	_, ok := embeddedDate(identifier)
	return ok
}

func dateTokenAt(identifier string, now time.Time) string {
	if token, ok := embeddedDate(identifier); ok {
		return token
	}
	return now.Format(dateLayout)
}

func embeddedDate(identifier string) (string, bool) {
	folded := width.Fold.String(norm.NFC.String(identifier))
	parts := strings.Split(folded, "_")
	if len(parts) >= 2 && len(parts[1]) == 8 {
		if _, err := time.Parse(dateLayout, parts[1]); err == nil {
			return parts[1], true
		}
	}
	return "", false
}
