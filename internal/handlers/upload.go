package handlers

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/sbilibin2017/gw-user-account/internal/apierror"
	"github.com/sbilibin2017/gw-user-account/internal/logger"
	"github.com/sbilibin2017/gw-user-account/internal/models"
)

// UploadOptions controls how multipart files are staged on local disk.
type UploadOptions struct {
	Dir      string // Directory for temporary files, os.TempDir() when empty
	MaxBytes int64  // Maximum request body size
}

const defaultMaxUploadBytes = 10 << 20

var (
	errInvalidForm  = apierror.Validation("Invalid multipart form.")
	errFileTooLarge = apierror.New(apierror.KindValidation, http.StatusRequestEntityTooLarge, "Uploaded file is too large.")
)

func (o UploadOptions) maxBytes() int64 {
	if o.MaxBytes <= 0 {
		return defaultMaxUploadBytes
	}
	return o.MaxBytes
}

// parseMultipart limits the body and parses the multipart form.
func parseMultipart(w http.ResponseWriter, r *http.Request, opts UploadOptions) error {
	r.Body = http.MaxBytesReader(w, r.Body, opts.maxBytes())
	if err := r.ParseMultipartForm(opts.maxBytes()); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return errFileTooLarge
		}
		logger.FromContext(r.Context()).Infow("invalid multipart form", "error", err)
		return errInvalidForm
	}
	return nil
}

// saveFormFile copies the multipart file field to a temporary file. It returns
// nil without error when the field is absent.
func saveFormFile(r *http.Request, field string, opts UploadOptions) (*models.LocalFile, error) {
	src, header, err := r.FormFile(field)
	if errors.Is(err, http.ErrMissingFile) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read form file %s: %w", field, err)
	}
	defer src.Close()

	ext := strings.ToLower(filepath.Ext(header.Filename))
	dst, err := os.CreateTemp(opts.Dir, "upload-*"+ext)
	if err != nil {
		return nil, fmt.Errorf("create temp file: %w", err)
	}
	defer dst.Close()

	if _, err := io.Copy(dst, src); err != nil {
		os.Remove(dst.Name())
		return nil, fmt.Errorf("write temp file: %w", err)
	}

	return &models.LocalFile{
		Path:        dst.Name(),
		Filename:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
	}, nil
}

// removeLocalFiles deletes staged files that are still on disk. The media
// manager removes files it uploads; this covers paths that exit earlier.
func removeLocalFiles(r *http.Request, files ...*models.LocalFile) {
	for _, f := range files {
		if f == nil || f.Path == "" {
			continue
		}
		if err := os.Remove(f.Path); err != nil && !errors.Is(err, os.ErrNotExist) {
			logger.FromContext(r.Context()).Warnw("failed to remove temp file", "path", f.Path, "error", err)
		}
	}
}
