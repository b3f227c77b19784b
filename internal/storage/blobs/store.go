// Package blobs stores the files of each identity. Every backend exposes
// the same flat per-identity namespace: names are valid stored file names,
// never paths.
package blobs

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/dmitrijs2005/gophguard/internal/common"
	"github.com/dmitrijs2005/gophguard/internal/models"
)

// Store is a per-identity file namespace.
//
// Open, Delete and RemoveAll return common.ErrorNotFound when there is
// nothing to act on. Put writes exactly size bytes from r or nothing at all;
// a short source yields common.ErrTransportFailure.
type Store interface {
	List(ctx context.Context, uid string) ([]models.StoredFile, error)
	Exists(ctx context.Context, uid, name string) (bool, error)
	Open(ctx context.Context, uid, name string) (io.ReadCloser, int64, error)
	Put(ctx context.Context, uid, name string, r io.Reader, size int64) error
	Delete(ctx context.Context, uid, name string) error
	RemoveAll(ctx context.Context, uid string) error
}

// sourceReader remembers the first error of the upload source, so a failed
// copy can be blamed on the client or on the local write side.
type sourceReader struct {
	r   io.Reader
	err error
}

func (s *sourceReader) Read(p []byte) (int, error) {
	n, err := s.r.Read(p)
	if err != nil && s.err == nil {
		s.err = err
	}
	return n, err
}

// putError classifies a failed copy of an upload. Source failures are
// transport failures; anything else is a local storage error.
func putError(src *sourceReader, uid, name string, err error) error {
	if src.err == nil {
		return fmt.Errorf("store %s/%s: %w", uid, name, err)
	}
	if errors.Is(src.err, io.EOF) || errors.Is(src.err, io.ErrUnexpectedEOF) {
		return fmt.Errorf("%w: upload of %s/%s cut short", common.ErrTransportFailure, uid, name)
	}
	return fmt.Errorf("%w: upload of %s/%s: %v", common.ErrTransportFailure, uid, name, src.err)
}
