package blobs

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/dmitrijs2005/gophguard/internal/common"
	"github.com/dmitrijs2005/gophguard/internal/filex"
	"github.com/dmitrijs2005/gophguard/internal/models"
)

// DiskStore keeps files at <root>/<uid>/<name>. Uploads land in a dot-named
// temporary file first, which List ignores.
type DiskStore struct {
	root string
}

func NewDiskStore(root string) (*DiskStore, error) {
	dir, err := filex.EnsureDir(root)
	if err != nil {
		return nil, err
	}
	return &DiskStore{root: dir}, nil
}

func (s *DiskStore) dir(uid string) string {
	return filepath.Join(s.root, uid)
}

func (s *DiskStore) path(uid, name string) string {
	return filepath.Join(s.root, uid, name)
}

func (s *DiskStore) List(ctx context.Context, uid string) ([]models.StoredFile, error) {
	entries, err := os.ReadDir(s.dir(uid))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("list %s: %w", uid, err)
	}

	files := make([]models.StoredFile, 0, len(entries))
	for _, e := range entries {
		if !e.Type().IsRegular() || strings.HasPrefix(e.Name(), ".") {
			continue
		}
		info, err := e.Info()
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return nil, fmt.Errorf("stat %s/%s: %w", uid, e.Name(), err)
		}
		files = append(files, models.StoredFile{Name: e.Name(), Size: info.Size()})
	}

	sort.Slice(files, func(i, j int) bool { return files[i].Name < files[j].Name })
	return files, nil
}

func (s *DiskStore) Exists(ctx context.Context, uid, name string) (bool, error) {
	_, err := os.Stat(s.path(uid, name))
	if err == nil {
		return true, nil
	}
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	return false, fmt.Errorf("stat %s/%s: %w", uid, name, err)
}

func (s *DiskStore) Open(ctx context.Context, uid, name string) (io.ReadCloser, int64, error) {
	f, err := os.Open(s.path(uid, name))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, 0, common.ErrorNotFound
		}
		return nil, 0, fmt.Errorf("open %s/%s: %w", uid, name, err)
	}
	info, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return nil, 0, fmt.Errorf("stat %s/%s: %w", uid, name, err)
	}
	return f, info.Size(), nil
}

func (s *DiskStore) Put(ctx context.Context, uid, name string, r io.Reader, size int64) error {
	if _, err := filex.EnsureDir(s.dir(uid)); err != nil {
		return err
	}
	src := &sourceReader{r: r}
	if err := filex.CopyAtomic(s.path(uid, name), src, size); err != nil {
		return putError(src, uid, name, err)
	}
	return nil
}

func (s *DiskStore) Delete(ctx context.Context, uid, name string) error {
	err := os.Remove(s.path(uid, name))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return common.ErrorNotFound
		}
		return fmt.Errorf("delete %s/%s: %w", uid, name, err)
	}
	return nil
}

// RemoveAll deletes each file and then the identity directory. It is not
// atomic: a failure midway leaves the remaining files in place.
func (s *DiskStore) RemoveAll(ctx context.Context, uid string) error {
	dir := s.dir(uid)
	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return common.ErrorNotFound
		}
		return fmt.Errorf("list %s: %w", uid, err)
	}

	for _, e := range entries {
		if err := os.RemoveAll(filepath.Join(dir, e.Name())); err != nil {
			return fmt.Errorf("remove %s/%s: %w", uid, e.Name(), err)
		}
	}
	if err := os.Remove(dir); err != nil {
		return fmt.Errorf("remove %s: %w", uid, err)
	}
	return nil
}
