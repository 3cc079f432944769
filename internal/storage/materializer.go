package storage

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gardena/parser/internal/domain"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/afero"
)

const (
	ImageFileName  = "image.png"
	RecordFileName = "data.csv"

	recordHeader = "Link,Image,Name EN,Name RU,Article Number"
)

var (
	ErrDirectoryExists  = errors.New("product directory already exists")
	ErrInvalidDirectory = errors.New("product directory escapes output root")
)

// ImageFetcher returns the raw image body, or nil when there was no response
type ImageFetcher interface {
	FetchImage(ctx context.Context, url string) ([]byte, error)
}

// Result describes what was written for a single record
type Result struct {
	Record     domain.ProductRecord
	Dir        string
	ImagePath  string
	ImageSaved bool
}

// Materializer writes one directory per product under a freshly recreated root
type Materializer struct {
	fs     afero.Fs
	root   string
	images ImageFetcher
}

func NewMaterializer(fs afero.Fs, root string, images ImageFetcher) *Materializer {
	return &Materializer{
		fs:     fs,
		root:   root,
		images: images,
	}
}

// Materialize wipes the output root and writes every record in order.
func (m *Materializer) Materialize(ctx context.Context, records []domain.ProductRecord) ([]Result, error) {
	if err := m.resetRoot(); err != nil {
		return nil, err
	}

	results := make([]Result, 0, len(records))
	for i, record := range records {
		if err := ctx.Err(); err != nil {
			return results, err
		}

		result, err := m.materializeOne(ctx, record)
		if err != nil {
			return results, fmt.Errorf("failed to materialize product %d (%s): %w", i, record.ArticleNumber, err)
		}
		results = append(results, result)
	}

	log.Infof("💾 Materialized %d products into %s", len(results), m.root)
	return results, nil
}

func (m *Materializer) resetRoot() error {
	if err := m.fs.RemoveAll(m.root); err != nil {
		return fmt.Errorf("failed to remove output root %s: %w", m.root, err)
	}
	if err := m.fs.MkdirAll(m.root, 0o755); err != nil {
		return fmt.Errorf("failed to create output root %s: %w", m.root, err)
	}
	return nil
}

func (m *Materializer) materializeOne(ctx context.Context, record domain.ProductRecord) (Result, error) {
	dir, err := m.productDir(record)
	if err != nil {
		return Result{}, err
	}

	exists, err := afero.DirExists(m.fs, dir)
	if err != nil {
		return Result{}, fmt.Errorf("failed to stat %s: %w", dir, err)
	}
	if exists {
		return Result{}, fmt.Errorf("%w: %s", ErrDirectoryExists, dir)
	}
	if err := m.fs.Mkdir(dir, 0o755); err != nil {
		if errors.Is(err, os.ErrExist) {
			return Result{}, fmt.Errorf("%w: %s", ErrDirectoryExists, dir)
		}
		return Result{}, fmt.Errorf("failed to create %s: %w", dir, err)
	}

	result := Result{
		Record:    record,
		Dir:       dir,
		ImagePath: filepath.Join(dir, ImageFileName),
	}

	if record.HasAbsoluteImage() {
		saved, err := m.saveImage(ctx, record.Image, result.ImagePath)
		if err != nil {
			return Result{}, err
		}
		result.ImageSaved = saved
	}

	// The Image column always names the intended local path.
	if err := afero.WriteFile(m.fs, filepath.Join(dir, RecordFileName), []byte(FormatRecord(record, result.ImagePath)), 0o644); err != nil {
		return Result{}, fmt.Errorf("failed to write %s: %w", RecordFileName, err)
	}

	log.WithFields(log.Fields{
		"dir":   dir,
		"image": result.ImageSaved,
	}).Debug("Product materialized")

	return result, nil
}

// productDir resolves the record directory, which must be a direct child of the root.
func (m *Materializer) productDir(record domain.ProductRecord) (string, error) {
	name := record.DirName()
	if name == "." || name == ".." || strings.ContainsAny(name, `/\`) {
		return "", fmt.Errorf("%w: %q", ErrInvalidDirectory, name)
	}

	dir := filepath.Join(m.root, name)
	if filepath.Dir(dir) != filepath.Clean(m.root) {
		return "", fmt.Errorf("%w: %q", ErrInvalidDirectory, name)
	}
	return dir, nil
}

func (m *Materializer) saveImage(ctx context.Context, url, path string) (bool, error) {
	data, err := m.images.FetchImage(ctx, url)
	if err != nil {
		if ctx.Err() != nil {
			return false, ctx.Err()
		}
		log.WithField("url", url).Warnf("⚠️ Image download failed, skipping: %v", err)
		return false, nil
	}
	if data == nil {
		return false, nil
	}

	if err := afero.WriteFile(m.fs, path, data, 0o644); err != nil {
		return false, fmt.Errorf("failed to write image %s: %w", path, err)
	}
	return true, nil
}

// FormatRecord renders the two-line data.csv body, with no trailing newline.
func FormatRecord(record domain.ProductRecord, imagePath string) string {
	fields := []string{record.Link, imagePath, record.NameEn, record.NameRu, record.ArticleNumber}
	for i, f := range fields {
		fields[i] = `"` + strings.ReplaceAll(f, `"`, `""`) + `"`
	}
	return recordHeader + "\n" + strings.Join(fields, ",")
}
