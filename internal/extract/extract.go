// Package extract unpacks input archives and groups their members into
// ordered page documents.
//
// Scanner batches arrive as flat zip archives of raster page images. Members
// that share a stem and differ only by a trailing page number (scan_1.png,
// scan_2.png; also "-2" and " (2)" forms) belong to one multi-page document;
// every other image is a single-page document. Non-image members are
// extracted alongside but never counted as pages.
package extract

import (
	"archive/zip"
	"context"
	"fmt"
	"image"
	"io"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"

	_ "image/jpeg"
	_ "image/png"

	"golang.org/x/sync/errgroup"
	"golang.org/x/text/unicode/norm"
	"golang.org/x/text/width"

	"platen/internal/logging"
	"platen/internal/services"
)

// validateConcurrency bounds parallel page-image header checks.
const validateConcurrency = 4

var (
	parenNumber = regexp.MustCompile(`^(.*) \((\d+)\)$`)
	sepNumber   = regexp.MustCompile(`^(.*)[_-](\d+)$`)
)

var pageExtensions = map[string]struct{}{
	".png":  {},
	".jpg":  {},
	".jpeg": {},
}

// Document is an ordered sequence of extracted page image paths.
type Document struct {
	Name  string
	Pages []string
}

// PageCount reports the total pages across the provided documents.
func PageCount(docs []Document) int {
	total := 0
	for _, doc := range docs {
		total += len(doc.Pages)
	}
	return total
}

// Extractor unpacks archives into working directories.
type Extractor struct {
	logger *slog.Logger
}

// NewExtractor returns an Extractor logging through the provided logger.
func NewExtractor(logger *slog.Logger) *Extractor {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Extractor{logger: logging.NewComponentLogger(logger, "extract")}
}

// Extract unpacks archivePath into destDir and returns the grouped page
// documents in processing order. destDir is recreated from scratch so a
// retried attempt never sees leftovers from an earlier one.
func (e *Extractor) Extract(ctx context.Context, archivePath, destDir string) ([]Document, error) {
	reader, err := zip.OpenReader(archivePath)
	if err != nil {
		return nil, services.Wrap(services.ErrExtraction, "extract", "open_archive", fmt.Sprintf("open %s", filepath.Base(archivePath)), err)
	}
	defer reader.Close()

	if err := os.RemoveAll(destDir); err != nil {
		return nil, services.Wrap(services.ErrExtraction, "extract", "reset_dest", "clear destination directory", err)
	}
	if err := os.MkdirAll(destDir, 0o755); err != nil {
		return nil, services.Wrap(services.ErrExtraction, "extract", "create_dest", "create destination directory", err)
	}

	var members []string
	for _, file := range reader.File {
		if err := ctx.Err(); err != nil {
			return nil, services.Wrap(services.ErrExtraction, "extract", "unpack", "extraction cancelled", err)
		}
		if file.FileInfo().IsDir() {
			continue
		}
		name := norm.NFC.String(path.Base(file.Name))
		if name == "" || name == "." {
			continue
		}
		target := filepath.Join(destDir, name)
		if err := writeMember(file, target); err != nil {
			return nil, services.Wrap(services.ErrExtraction, "extract", "write_member", fmt.Sprintf("write %s", name), err)
		}
		members = append(members, name)
	}

	docs := groupDocuments(destDir, members)

	if err := validatePages(ctx, docs); err != nil {
		return nil, services.Wrap(services.ErrExtraction, "extract", "validate_pages", "validate page images", err)
	}

	e.logger.Debug("archive extracted",
		logging.String("archive", filepath.Base(archivePath)),
		logging.Int("members", len(members)),
		logging.Int("documents", len(docs)),
		logging.Int("pages", PageCount(docs)),
	)
	return docs, nil
}

func writeMember(file *zip.File, target string) error {
	rc, err := file.Open()
	if err != nil {
		return err
	}
	defer rc.Close()

	out, err := os.OpenFile(target, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, rc); err != nil {
		_ = out.Close()
		return err
	}
	return out.Close()
}

type pageEntry struct {
	name   string
	number int
}

// groupDocuments arranges image members into documents. Grouping compares
// width-folded names so full-width digits from CJK scanner firmware pair up
// with their ASCII siblings.
func groupDocuments(destDir string, members []string) []Document {
	groups := make(map[string][]pageEntry)

	for _, name := range members {
		folded := width.Fold.String(name)
		ext := strings.ToLower(path.Ext(folded))
		if _, ok := pageExtensions[ext]; !ok {
			continue
		}
		stem := strings.TrimSuffix(folded, path.Ext(folded))

		base, number, numbered := splitPageNumber(stem)
		if !numbered {
			base = stem
			number = 0
		}
		groups[base] = append(groups[base], pageEntry{name: name, number: number})
	}

	docs := make([]Document, 0, len(groups))
	for base, entries := range groups {
		sort.Slice(entries, func(i, j int) bool {
			if entries[i].number != entries[j].number {
				return entries[i].number < entries[j].number
			}
			return entries[i].name < entries[j].name
		})
		pages := make([]string, len(entries))
		for i, page := range entries {
			pages[i] = filepath.Join(destDir, page.name)
		}
		docs = append(docs, Document{Name: base, Pages: pages})
	}

	sort.Slice(docs, func(i, j int) bool {
		return filepath.Base(docs[i].Pages[0]) < filepath.Base(docs[j].Pages[0])
	})
	return docs
}

func splitPageNumber(stem string) (string, int, bool) {
	if m := parenNumber.FindStringSubmatch(stem); m != nil {
		if n, err := strconv.Atoi(m[2]); err == nil {
			return m[1], n, true
		}
	}
	if m := sepNumber.FindStringSubmatch(stem); m != nil {
		if n, err := strconv.Atoi(m[2]); err == nil {
			return m[1], n, true
		}
	}
	return "", 0, false
}

func validatePages(ctx context.Context, docs []Document) error {
	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(validateConcurrency)
	for _, doc := range docs {
		for _, page := range doc.Pages {
			group.Go(func() error {
				if err := groupCtx.Err(); err != nil {
					return err
				}
				return validatePageImage(page)
			})
		}
	}
	return group.Wait()
}

func validatePageImage(pagePath string) error {
	file, err := os.Open(pagePath)
	if err != nil {
		return err
	}
	defer file.Close()
	if _, _, err := image.DecodeConfig(file); err != nil {
		return fmt.Errorf("%s: %w", filepath.Base(pagePath), err)
	}
	return nil
}
