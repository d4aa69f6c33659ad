package fingerprint

import (
	"context"
	"os"
	"path/filepath"
	"strings"
)

// Store is one readable/writable digest slot per gateway.
type Store interface {
	Load(ctx context.Context, gatewayID string) (string, error)
	Save(ctx context.Context, gatewayID, digest string) error
}

// FileStore keeps one fingerprint file per gateway under a directory.
// Gateway-scoped file names keep concurrent gateway runs from colliding.
type FileStore struct {
	Dir string
}

func NewFileStore(dir string) *FileStore {
	return &FileStore{Dir: dir}
}

func (s *FileStore) path(gatewayID string) string {
	return filepath.Join(s.Dir, safeName(gatewayID)+".fingerprint")
}

// Load returns the stored digest, or "" when no fingerprint exists yet.
func (s *FileStore) Load(_ context.Context, gatewayID string) (string, error) {
	data, err := os.ReadFile(s.path(gatewayID))
	if os.IsNotExist(err) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(data)), nil
}

// Save writes the digest atomically via a temp file and rename, so a reader
// never observes a partially-written fingerprint.
func (s *FileStore) Save(_ context.Context, gatewayID, digest string) error {
	if err := os.MkdirAll(s.Dir, 0o755); err != nil {
		return err
	}
	name := safeName(gatewayID) + ".fingerprint"
	tmpPath := filepath.Join(s.Dir, ".tmp-"+name)

	f, err := os.OpenFile(tmpPath, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}
	defer os.Remove(tmpPath)

	if _, err := f.WriteString(digest + "\n"); err != nil {
		f.Close()
		return err
	}
	if err := f.Sync(); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	return os.Rename(tmpPath, filepath.Join(s.Dir, name))
}

func safeName(name string) string {
	replacer := strings.NewReplacer("/", "_", " ", "_", "<", "", ">", "", ":", "_")
	return replacer.Replace(name)
}
