package media

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/sbilibin2017/gw-user-account/internal/logger"
	"github.com/sbilibin2017/gw-user-account/internal/models"
)

//go:generate mockgen -source=manager.go -destination=manager_mock.go -package=media

// ErrNoFile is returned by Upload when no local file is given.
var ErrNoFile = errors.New("no local file")

const sniffLen = 512

// ObjectStore is a remote blob store addressed by key.
type ObjectStore interface {
	Put(ctx context.Context, key string, body io.Reader, size int64, contentType string) (string, error)
	Delete(ctx context.Context, key string) error
	KeyFromURL(url string) (string, bool)
}

// Manager moves local temp files to the object store.
type Manager struct {
	store  ObjectStore
	prefix string
}

// NewManager creates a Manager that stores objects under prefix.
func NewManager(store ObjectStore, prefix string) *Manager {
	return &Manager{store: store, prefix: strings.Trim(prefix, "/")}
}

// Upload sends the file to the store under a random key. The local file is
// removed whether or not the upload succeeds.
func (m *Manager) Upload(ctx context.Context, file models.LocalFile) (*models.Asset, error) {
	if file.Path == "" {
		return nil, ErrNoFile
	}
	defer removeLocal(ctx, file.Path)

	f, err := os.Open(file.Path)
	if err != nil {
		return nil, fmt.Errorf("open local file: %w", err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("stat local file: %w", err)
	}

	contentType, err := detectContentType(f, file.ContentType)
	if err != nil {
		return nil, err
	}

	key := m.newKey(file.Filename)
	url, err := m.store.Put(ctx, key, f, info.Size(), contentType)
	if err != nil {
		return nil, fmt.Errorf("upload %s: %w", file.Filename, err)
	}

	logger.FromContext(ctx).Infow("media uploaded", "key", key, "size", info.Size(), "content_type", contentType)
	return &models.Asset{URL: url, PublicID: key}, nil
}

// Delete removes the object behind url. Empty and foreign URLs are ignored.
func (m *Manager) Delete(ctx context.Context, url string) error {
	if url == "" {
		return nil
	}

	key, ok := m.store.KeyFromURL(url)
	if !ok {
		logger.FromContext(ctx).Debugw("skipping delete of foreign media url", "url", url)
		return nil
	}

	if err := m.store.Delete(ctx, key); err != nil {
		return err
	}
	logger.FromContext(ctx).Infow("media deleted", "key", key)
	return nil
}

func (m *Manager) newKey(filename string) string {
	key := uuid.NewString() + strings.ToLower(filepath.Ext(filename))
	if m.prefix == "" {
		return key
	}
	return path.Join(m.prefix, key)
}

// detectContentType trusts a specific declared type and sniffs otherwise,
// leaving f positioned at the start.
func detectContentType(f io.ReadSeeker, declared string) (string, error) {
	if declared != "" && declared != "application/octet-stream" {
		return declared, nil
	}

	buf := make([]byte, sniffLen)
	n, err := io.ReadFull(f, buf)
	if err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, io.ErrUnexpectedEOF) {
		return "", fmt.Errorf("read local file: %w", err)
	}
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return "", fmt.Errorf("rewind local file: %w", err)
	}
	return http.DetectContentType(buf[:n]), nil
}

func removeLocal(ctx context.Context, p string) {
	if err := os.Remove(p); err != nil && !errors.Is(err, os.ErrNotExist) {
		logger.FromContext(ctx).Warnw("failed to remove local file", "path", p, "error", err)
	}
}
