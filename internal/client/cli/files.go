package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/dmitrijs2005/gophguard/internal/common"
	"github.com/dmitrijs2005/gophguard/internal/filex"
	"github.com/dmitrijs2005/gophguard/internal/protocol"
)

// errNotRetrieved aborts a local write when storage answered with a
// failure status.
var errNotRetrieved = errors.New("file not retrieved")

func (a *App) filename(args []string, usage string) (string, bool) {
	if len(args) != 1 {
		printlnFn("Usage:", usage)
		return "", false
	}
	if !protocol.IsFilename(args[0]) {
		printlnFn("Error: File name must be up to 20 characters of [A-Za-z0-9_-] followed by a 3-letter extension.")
		return "", false
	}
	return args[0], true
}

func (a *App) storageFailed(ctx context.Context, cmd string, err error) {
	a.logger.Debug(ctx, "storage exchange failed", "command", cmd, "error", err)
	printlnFn(errorMessage(err))
}

// List handles "list".
func (a *App) List(ctx context.Context, args []string) error {
	uid, tid, ok := a.transaction()
	if !ok {
		return common.ErrInvalidTransaction
	}

	files, status, err := a.storage.List(ctx, uid, tid)
	if err != nil {
		a.storageFailed(ctx, protocol.CmdList, err)
		return err
	}
	if status != protocol.StatusOK {
		printlnFn(replyMessage(protocol.ReplyList, status))
		return nil
	}

	printlnFn(fmt.Sprintf("User %s has %d file(s):", uid, len(files)))
	for i, f := range files {
		printlnFn(fmt.Sprintf("%d. %s | %d bytes", i+1, f.Name, f.Size))
	}
	return nil
}

// Retrieve handles "retrieve fname", saving the file into the files
// directory. A failed transfer leaves any existing local copy untouched.
func (a *App) Retrieve(ctx context.Context, args []string) error {
	name, ok := a.filename(args, "retrieve <filename>")
	if !ok {
		return common.ErrMalformedRequest
	}
	uid, tid, ok := a.transaction()
	if !ok {
		return common.ErrInvalidTransaction
	}

	var (
		status string
		size   int64
	)
	path := filepath.Join(a.config.FilesDir, name)
	err := filex.WriteAtomic(path, func(w io.Writer) error {
		var err error
		status, size, err = a.storage.Retrieve(ctx, uid, tid, name, w)
		if err != nil {
			return err
		}
		if status != protocol.StatusOK {
			return errNotRetrieved
		}
		return nil
	})

	switch {
	case err == nil:
		printlnFn(fmt.Sprintf("Retrieved %s (%d bytes) to %s", name, size, path))
	case errors.Is(err, errNotRetrieved):
		printlnFn(replyMessage(protocol.ReplyRetrieve, status))
		return nil
	case status != "":
		// the transfer succeeded but the local write did not
		printlnFn("Error: could not save", path+":", err)
	default:
		a.storageFailed(ctx, protocol.CmdRetrieve, err)
	}
	return err
}

// Upload handles "upload fname", sending the file of that name from the
// files directory.
func (a *App) Upload(ctx context.Context, args []string) error {
	name, ok := a.filename(args, "upload <filename>")
	if !ok {
		return common.ErrMalformedRequest
	}
	uid, tid, ok := a.transaction()
	if !ok {
		return common.ErrInvalidTransaction
	}

	path := filepath.Join(a.config.FilesDir, name)
	f, err := os.Open(path)
	if err != nil {
		printlnFn("Error: could not open", path+":", err)
		return err
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		printlnFn("Error: could not stat", path+":", err)
		return err
	}
	if !info.Mode().IsRegular() {
		printlnFn("Error:", path, "is not a regular file.")
		return common.ErrMalformedRequest
	}

	status, err := a.storage.Upload(ctx, uid, tid, name, f, info.Size())
	if err != nil {
		a.storageFailed(ctx, protocol.CmdUpload, err)
		return err
	}
	printlnFn(replyMessage(protocol.ReplyUpload, status))
	return nil
}

// Delete handles "delete fname".
func (a *App) Delete(ctx context.Context, args []string) error {
	name, ok := a.filename(args, "delete <filename>")
	if !ok {
		return common.ErrMalformedRequest
	}
	uid, tid, ok := a.transaction()
	if !ok {
		return common.ErrInvalidTransaction
	}

	status, err := a.storage.Delete(ctx, uid, tid, name)
	if err != nil {
		a.storageFailed(ctx, protocol.CmdDelete, err)
		return err
	}
	printlnFn(replyMessage(protocol.ReplyDelete, status))
	return nil
}

// Remove handles "remove". Only the storage footprint goes; the broker
// identity and session stay as they are.
func (a *App) Remove(ctx context.Context, args []string) error {
	uid, tid, ok := a.transaction()
	if !ok {
		return common.ErrInvalidTransaction
	}

	status, err := a.storage.Remove(ctx, uid, tid)
	if err != nil {
		a.storageFailed(ctx, protocol.CmdRemove, err)
		return err
	}
	printlnFn(replyMessage(protocol.ReplyRemove, status))
	return nil
}
