package filestore

import (
	"context"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"

	"github.com/seatech/enthusiasm/core"
)

// PublicPrefix is the URL path local uploads are served under.
const PublicPrefix = "/uploads/"

// LocalStorage keeps uploaded files in a directory served as static files.
type LocalStorage struct {
	dir string
}

var _ core.FileStorage = (*LocalStorage)(nil)

func NewLocalStorage(dir string) (*LocalStorage, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, errors.Wrap(err, "creating upload directory")
	}
	return &LocalStorage{dir: dir}, nil
}

func (s *LocalStorage) Dir() string { return s.dir }

func (s *LocalStorage) Save(ctx context.Context, name string, r io.Reader) (string, error) {
	name = path.Base(filepath.ToSlash(name))
	if name == "." || name == "/" || name == ".." {
		return "", errors.New("invalid file name")
	}

	fp := filepath.Join(s.dir, name)
	f, err := os.OpenFile(fp, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return "", errors.Wrap(err, "creating file")
	}
	if _, err := io.Copy(f, r); err != nil {
		_ = f.Close()
		_ = os.Remove(fp)
		return "", errors.Wrap(err, "writing file")
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(fp)
		return "", errors.Wrap(err, "closing file")
	}
	return PublicPrefix + name, nil
}

func (s *LocalStorage) Delete(ctx context.Context, ref string) error {
	name := strings.TrimPrefix(ref, PublicPrefix)
	if name == ref || name == "" || strings.ContainsAny(name, `/\`) || name == ".." {
		return core.ErrFileNotFound
	}
	if err := os.Remove(filepath.Join(s.dir, name)); err != nil {
		if os.IsNotExist(err) {
			return core.ErrFileNotFound
		}
		return errors.Wrap(err, "removing file")
	}
	return nil
}
