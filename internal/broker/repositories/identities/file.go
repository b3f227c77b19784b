package identities

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/dmitrijs2005/gophguard/internal/common"
	"github.com/dmitrijs2005/gophguard/internal/filex"
	"github.com/dmitrijs2005/gophguard/internal/lockx"
	"github.com/dmitrijs2005/gophguard/internal/models"
)

const recordFile = "record.json"

// FileRepository keeps one directory per identity under root holding a
// JSON record. Records are replaced by rename, so readers never observe a
// partial write; writers serialize on <root>/<uid>.lock.
type FileRepository struct {
	root string
}

func NewFileRepository(root string) (*FileRepository, error) {
	dir, err := filex.EnsureDir(root)
	if err != nil {
		return nil, err
	}
	return &FileRepository{root: dir}, nil
}

func (r *FileRepository) recordPath(uid string) string {
	return filepath.Join(r.root, uid, recordFile)
}

func (r *FileRepository) lockPath(uid string) string {
	return filepath.Join(r.root, uid+".lock")
}

func (r *FileRepository) Get(ctx context.Context, uid string) (*models.Record, error) {
	data, err := os.ReadFile(r.recordPath(uid))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("read record %s: %w", uid, err)
	}

	rec := &models.Record{}
	if err := json.Unmarshal(data, rec); err != nil {
		return nil, fmt.Errorf("decode record %s: %w", uid, err)
	}
	return rec, nil
}

func (r *FileRepository) Update(ctx context.Context, uid string, fn UpdateFunc) error {
	lock, err := lockx.Acquire(ctx, r.lockPath(uid))
	if err != nil {
		return err
	}
	defer lock.Release()

	current, err := r.Get(ctx, uid)
	if err != nil && !errors.Is(err, common.ErrorNotFound) {
		return err
	}

	next, err := fn(current)
	if err != nil {
		return err
	}

	if next == nil {
		if current == nil {
			return nil
		}
		if err := os.RemoveAll(filepath.Join(r.root, uid)); err != nil {
			return fmt.Errorf("remove record %s: %w", uid, err)
		}
		return nil
	}

	data, err := json.Marshal(next)
	if err != nil {
		return fmt.Errorf("encode record %s: %w", uid, err)
	}
	if _, err := filex.EnsureDir(filepath.Join(r.root, uid)); err != nil {
		return err
	}
	return filex.WriteFileAtomic(r.recordPath(uid), data)
}
