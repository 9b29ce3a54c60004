// Package upload implements the intake validator: size/type enforcement and
// persistence of accepted files into the flat content directory.
package upload

import (
	"errors"
	"fmt"
	"io"
	"math/rand/v2"
	"mime/multipart"
	"os"
	"path/filepath"
	"strings"
	"time"

	"invoiceapi/internal/config"
)

var (
	// ErrValidation is the base class for every intake rejection.
	ErrValidation = errors.New("invalid upload")

	ErrFileTooLarge        = fmt.Errorf("%w: file exceeds size limit", ErrValidation)
	ErrUnsupportedFileType = fmt.Errorf("%w: only pdf, jpg, jpeg and png files are accepted", ErrValidation)
)

var allowedExtensions = map[string]bool{
	".pdf":  true,
	".jpg":  true,
	".jpeg": true,
	".png":  true,
}

var allowedContentTypes = map[string]bool{
	"application/pdf": true,
	"image/jpeg":      true,
	"image/jpg":       true,
	"image/png":       true,
}

// Artifact describes an accepted file persisted to the content directory.
type Artifact struct {
	StoredName   string
	OriginalName string
	Path         string
	FileType     string
	Size         int64
}

// Validator enforces intake constraints and writes accepted files to disk.
type Validator struct {
	dir     string
	maxSize int64
}

// NewValidator constructs a Validator from upload configuration.
func NewValidator(cfg config.UploadConfig) *Validator {
	return &Validator{dir: cfg.Dir, maxSize: cfg.MaxSizeBytes}
}

// Accept validates the upload and, if every constraint holds, persists its
// bytes under a collision-resistant, filesystem-safe name. The extension and
// the declared content type must both be in the allowed set; a mismatch
// between the two rejects the file. The content directory is created on
// first use. On any failure no partial file is left behind.
func (v *Validator) Accept(fh *multipart.FileHeader) (*Artifact, error) {
	if fh == nil {
		return nil, fmt.Errorf("%w: missing file", ErrValidation)
	}
	if fh.Size > v.maxSize {
		return nil, ErrFileTooLarge
	}

	ext := strings.ToLower(filepath.Ext(fh.Filename))
	if !allowedExtensions[ext] {
		return nil, ErrUnsupportedFileType
	}
	ct := strings.ToLower(strings.TrimSpace(strings.Split(fh.Header.Get("Content-Type"), ";")[0]))
	if !allowedContentTypes[ct] {
		return nil, ErrUnsupportedFileType
	}

	if err := os.MkdirAll(v.dir, 0o755); err != nil {
		return nil, fmt.Errorf("create content dir: %w", err)
	}

	storedName := fmt.Sprintf("%d-%d-%s", time.Now().UnixMilli(), rand.Int64N(1_000_000_000), NormalizeFilename(fh.Filename))
	path := filepath.Join(v.dir, storedName)

	size, err := v.write(fh, path)
	if err != nil {
		return nil, err
	}

	return &Artifact{
		StoredName:   storedName,
		OriginalName: fh.Filename,
		Path:         path,
		FileType:     ext,
		Size:         size,
	}, nil
}

// write copies the upload into a temp file and renames it into place, so a
// failed copy never leaves a partial artifact under the final name.
func (v *Validator) write(fh *multipart.FileHeader, path string) (int64, error) {
	src, err := fh.Open()
	if err != nil {
		return 0, fmt.Errorf("%w: cannot open file", ErrValidation)
	}
	defer src.Close()

	tmp, err := os.CreateTemp(v.dir, ".intake-*")
	if err != nil {
		return 0, fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	// The declared size was already checked; guard the actual bytes too.
	n, err := io.Copy(tmp, io.LimitReader(src, v.maxSize+1))
	if err != nil {
		tmp.Close()
		return 0, fmt.Errorf("write file: %w", err)
	}
	if n > v.maxSize {
		tmp.Close()
		return 0, ErrFileTooLarge
	}
	if err := tmp.Close(); err != nil {
		return 0, fmt.Errorf("close temp file: %w", err)
	}

	if err := os.Rename(tmp.Name(), path); err != nil {
		return 0, fmt.Errorf("store file: %w", err)
	}
	return n, nil
}
