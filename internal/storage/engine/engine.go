// Package engine implements the storage operations. Every operation first
// has its transaction re-validated by the broker; the engine itself never
// decides who may do what.
package engine

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"

	"github.com/dmitrijs2005/gophguard/internal/common"
	"github.com/dmitrijs2005/gophguard/internal/filex"
	"github.com/dmitrijs2005/gophguard/internal/lockx"
	"github.com/dmitrijs2005/gophguard/internal/logging"
	"github.com/dmitrijs2005/gophguard/internal/models"
	"github.com/dmitrijs2005/gophguard/internal/storage/blobs"
)

// Validator resolves a transaction id into what it authorizes.
type Validator interface {
	Validate(ctx context.Context, uid, tid string) (models.Grant, error)
}

type Engine struct {
	store     blobs.Store
	validator Validator
	lockDir   string
	quota     int
	logger    logging.Logger
}

func New(store blobs.Store, v Validator, lockDir string, logger logging.Logger) (*Engine, error) {
	dir, err := filex.EnsureDir(lockDir)
	if err != nil {
		return nil, err
	}
	return &Engine{
		store:     store,
		validator: v,
		lockDir:   dir,
		quota:     common.FileQuota,
		logger:    logger.With("module", "engine"),
	}, nil
}

// authorize checks that tid is a confirmed transaction of uid for exactly
// op on filename.
func (e *Engine) authorize(ctx context.Context, uid, tid string, op models.Operation, filename string) error {
	grant, err := e.validator.Validate(ctx, uid, tid)
	if err != nil {
		if errors.Is(err, common.ErrInvalidTransaction) {
			return err
		}
		return fmt.Errorf("%w: %v", common.ErrInvalidTransaction, err)
	}
	if !grant.Permits(op, filename) {
		e.logger.Warn(ctx, "transaction used for another operation",
			"uid", uid, "tid", tid, "granted", grant.Operation.String(), "requested", op.String())
		return common.ErrTransactionMismatch
	}
	return nil
}

func (e *Engine) lock(ctx context.Context, uid string) (*lockx.Lock, error) {
	return lockx.Acquire(ctx, filepath.Join(e.lockDir, uid+".lock"))
}

// List returns the files of uid in name order, or common.ErrEmpty.
func (e *Engine) List(ctx context.Context, uid, tid string) ([]models.StoredFile, error) {
	if err := e.authorize(ctx, uid, tid, models.OpList, ""); err != nil {
		return nil, err
	}

	files, err := e.store.List(ctx, uid)
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, common.ErrEmpty
	}
	return files, nil
}

// Retrieve opens a stored file for streaming. The caller closes it.
func (e *Engine) Retrieve(ctx context.Context, uid, tid, name string) (io.ReadCloser, int64, error) {
	if err := e.authorize(ctx, uid, tid, models.OpRetrieve, name); err != nil {
		return nil, 0, err
	}
	return e.store.Open(ctx, uid, name)
}

// Upload stores exactly size bytes read from r as name. Policy failures
// (invalid transaction, duplicate, quota) return before r is read.
func (e *Engine) Upload(ctx context.Context, uid, tid, name string, r io.Reader, size int64) error {
	if err := e.authorize(ctx, uid, tid, models.OpUpload, name); err != nil {
		return err
	}

	l, err := e.lock(ctx, uid)
	if err != nil {
		return err
	}
	defer l.Release()

	exists, err := e.store.Exists(ctx, uid, name)
	if err != nil {
		return err
	}
	if exists {
		return common.ErrDuplicate
	}

	files, err := e.store.List(ctx, uid)
	if err != nil {
		return err
	}
	if len(files) >= e.quota {
		return common.ErrQuotaExceeded
	}

	if err := e.store.Put(ctx, uid, name, r, size); err != nil {
		return err
	}
	e.logger.Info(ctx, "file stored", "uid", uid, "file", name, "size", size)
	return nil
}

// Delete removes one file, or returns common.ErrorNotFound.
func (e *Engine) Delete(ctx context.Context, uid, tid, name string) error {
	if err := e.authorize(ctx, uid, tid, models.OpDelete, name); err != nil {
		return err
	}

	l, err := e.lock(ctx, uid)
	if err != nil {
		return err
	}
	defer l.Release()

	if err := e.store.Delete(ctx, uid, name); err != nil {
		return err
	}
	e.logger.Info(ctx, "file deleted", "uid", uid, "file", name)
	return nil
}

// RemoveIdentity deletes every file of uid and its footprint. It returns
// common.ErrorNotFound when uid has nothing stored.
func (e *Engine) RemoveIdentity(ctx context.Context, uid, tid string) error {
	if err := e.authorize(ctx, uid, tid, models.OpRemoveIdentity, ""); err != nil {
		return err
	}

	l, err := e.lock(ctx, uid)
	if err != nil {
		return err
	}
	defer l.Release()

	if err := e.store.RemoveAll(ctx, uid); err != nil {
		return err
	}
	e.logger.Info(ctx, "identity removed", "uid", uid)
	return nil
}
