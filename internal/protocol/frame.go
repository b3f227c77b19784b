package protocol

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"

	"github.com/dmitrijs2005/gophguard/internal/common"
)

// WriteFrame writes "header size ", exactly size bytes read from r, and a
// trailing '\n'. A source shorter than size is a transport failure.
func WriteFrame(w io.Writer, header string, size int64, r io.Reader) error {
	if _, err := io.WriteString(w, header+" "+strconv.FormatInt(size, 10)+" "); err != nil {
		return fmt.Errorf("%w: %v", common.ErrTransportFailure, err)
	}
	if _, err := io.CopyN(w, r, size); err != nil {
		return fmt.Errorf("%w: payload: %v", common.ErrTransportFailure, err)
	}
	if _, err := io.WriteString(w, "\n"); err != nil {
		return fmt.Errorf("%w: %v", common.ErrTransportFailure, err)
	}
	return nil
}

// ReadPayload copies exactly size bytes from r to w and then consumes the
// single framing byte that follows. Excess bytes are never copied to w; a
// short read is a transport failure.
func ReadPayload(r *bufio.Reader, w io.Writer, size int64) error {
	n, err := io.CopyN(w, r, size)
	if err != nil {
		if errors.Is(err, io.EOF) {
			return fmt.Errorf("%w: payload ended after %d of %d bytes", common.ErrTransportFailure, n, size)
		}
		return fmt.Errorf("%w: %v", common.ErrTransportFailure, err)
	}
	// trailing '\n'; absent at EOF is tolerated
	if _, err := r.ReadByte(); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("%w: %v", common.ErrTransportFailure, err)
	}
	return nil
}

// ReadFramedReply reads a reply that is either "CMD STATUS\n" or
// "CMD OK size <bytes>\n". On OK the payload is copied to w and its size
// returned; otherwise status carries the failure token and w is untouched.
func ReadFramedReply(r *bufio.Reader, cmd string, w io.Writer) (status string, size int64, err error) {
	tok, delim, err := ReadToken(r, MaxTokenLength)
	if err != nil {
		return "", 0, fmt.Errorf("%w: %v", common.ErrTransportFailure, err)
	}
	if tok == ReplyError && delim == '\n' {
		return "", 0, ErrServerError
	}
	if tok != cmd || delim != ' ' {
		return "", 0, fmt.Errorf("%w: want %s, got %q", ErrUnexpectedReply, cmd, tok)
	}

	status, delim, err = ReadToken(r, MaxTokenLength)
	if err != nil {
		return "", 0, fmt.Errorf("%w: %v", common.ErrTransportFailure, err)
	}
	if status != StatusOK {
		if delim != '\n' {
			return "", 0, fmt.Errorf("%w: status %q not terminated", ErrUnexpectedReply, status)
		}
		return status, 0, nil
	}
	if delim != ' ' {
		return "", 0, fmt.Errorf("%w: OK without size", ErrUnexpectedReply)
	}

	sizeTok, delim, err := ReadToken(r, MaxTokenLength)
	if err != nil {
		return "", 0, fmt.Errorf("%w: %v", common.ErrTransportFailure, err)
	}
	if delim != ' ' {
		return "", 0, fmt.Errorf("%w: size %q not followed by payload", ErrUnexpectedReply, sizeTok)
	}
	size, err = ParseSize(sizeTok)
	if err != nil {
		return "", 0, err
	}
	if err := ReadPayload(r, w, size); err != nil {
		return "", 0, err
	}
	return StatusOK, size, nil
}
