package tokenstore

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	apperrors "github.com/jrsteele09/go-session-client/internal/errors"
	"github.com/pkg/errors"
)

var _ Repo = (*FileStore)(nil)

type fileRecord struct {
	Token   string    `json:"token"`
	SavedAt time.Time `json:"saved_at"`
}

// FileStore keeps the token in a JSON file readable only by the current user.
type FileStore struct {
	path string
	mu   sync.Mutex
}

// NewFileStore stores the token at <folder>/<name>.json.
func NewFileStore(folder, name string) *FileStore {
	return &FileStore{path: filepath.Join(folder, name+".json")}
}

func (fs *FileStore) Path() string {
	return fs.path
}

func (fs *FileStore) Read(ctx context.Context) (string, error) {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	data, err := os.ReadFile(fs.path)
	if os.IsNotExist(err) {
		return "", apperrors.ErrTokenNotFound
	}
	if err != nil {
		return "", errors.Wrap(err, "[FileStore.Read]")
	}

	var rec fileRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return "", errors.Wrapf(err, "[FileStore.Read] corrupt token file %s", fs.path)
	}
	if strings.TrimSpace(rec.Token) == "" {
		return "", apperrors.ErrTokenNotFound
	}
	return rec.Token, nil
}

func (fs *FileStore) Write(ctx context.Context, token string) error {
	if token == "" {
		return errors.New("[FileStore.Write] token is required")
	}

	fs.mu.Lock()
	defer fs.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(fs.path), 0o700); err != nil {
		return errors.Wrap(err, "[FileStore.Write] create folder")
	}

	data, err := json.Marshal(fileRecord{Token: token, SavedAt: time.Now().UTC()})
	if err != nil {
		return errors.Wrap(err, "[FileStore.Write]")
	}

	// Write then rename so a crash never leaves a half written token behind
	tmp := fs.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return errors.Wrap(err, "[FileStore.Write]")
	}
	if err := os.Rename(tmp, fs.path); err != nil {
		os.Remove(tmp)
		return errors.Wrap(err, "[FileStore.Write]")
	}
	return nil
}

func (fs *FileStore) Clear(ctx context.Context) error {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	if err := os.Remove(fs.path); err != nil && !os.IsNotExist(err) {
		return errors.Wrap(err, "[FileStore.Clear]")
	}
	return nil
}
