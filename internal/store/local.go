package store

import (
	"context"
	"os"
	"path/filepath"

	"github.com/rotisserie/eris"
	"github.com/spf13/afero"
)

// LocalStore implements Store on a filesystem directory. It is built
// on afero so tests run against an in-memory filesystem with identical
// semantics.
type LocalStore struct {
	fs      afero.Fs
	baseDir string
}

// NewLocal creates a filesystem-backed store rooted at baseDir.
func NewLocal(baseDir string) *LocalStore {
	return &LocalStore{fs: afero.NewOsFs(), baseDir: baseDir}
}

// NewLocalWithFs creates a store over an explicit afero filesystem.
func NewLocalWithFs(fs afero.Fs, baseDir string) *LocalStore {
	return &LocalStore{fs: fs, baseDir: baseDir}
}

func (s *LocalStore) path(key string) string {
	return filepath.Join(s.baseDir, filepath.FromSlash(key))
}

func (s *LocalStore) Upload(_ context.Context, key string, data []byte) error {
	path := s.path(key)
	if err := s.fs.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return eris.Wrapf(err, "store: mkdir for %s", key)
	}
	if err := afero.WriteFile(s.fs, path, data, 0o644); err != nil {
		return eris.Wrapf(err, "store: write %s", key)
	}
	return nil
}

func (s *LocalStore) Download(_ context.Context, key string) ([]byte, error) {
	data, err := afero.ReadFile(s.fs, s.path(key))
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrapf(err, "store: read %s", key)
	}
	return data, nil
}

func (s *LocalStore) Exists(_ context.Context, key string) (bool, error) {
	ok, err := afero.Exists(s.fs, s.path(key))
	if err != nil {
		return false, eris.Wrapf(err, "store: stat %s", key)
	}
	return ok, nil
}
