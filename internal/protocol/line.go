package protocol

import (
	"bufio"
	"fmt"
	"strings"
)

// ReadLine reads bytes up to and including '\n' and returns the line
// without the terminator. Lines longer than max bytes fail with
// ErrLineTooLong; a missing terminator before EOF is an error.
func ReadLine(r *bufio.Reader, max int) (string, error) {
	var b strings.Builder
	for {
		c, err := r.ReadByte()
		if err != nil {
			return "", err
		}
		if c == '\n' {
			return b.String(), nil
		}
		if b.Len() >= max {
			return "", ErrLineTooLong
		}
		b.WriteByte(c)
	}
}

// ReadToken reads one token terminated by a space or '\n' and returns it
// along with the delimiter that ended it.
func ReadToken(r *bufio.Reader, max int) (string, byte, error) {
	var b strings.Builder
	for {
		c, err := r.ReadByte()
		if err != nil {
			return "", 0, err
		}
		if c == ' ' || c == '\n' {
			return b.String(), c, nil
		}
		if b.Len() >= max {
			return "", 0, ErrLineTooLong
		}
		b.WriteByte(c)
	}
}

// ReadFields reads n space-terminated tokens, as found in the header of a
// declared-length frame. Any token ended by '\n' instead is malformed.
func ReadFields(r *bufio.Reader, n int) ([]string, error) {
	fields := make([]string, 0, n)
	for i := 0; i < n; i++ {
		tok, delim, err := ReadToken(r, MaxTokenLength)
		if err != nil {
			return nil, err
		}
		if delim != ' ' || tok == "" {
			return nil, fmt.Errorf("%w: frame header field %d", ErrMalformed, i+1)
		}
		fields = append(fields, tok)
	}
	return fields, nil
}

// Split breaks a line into tokens separated by single spaces. Empty
// tokens (double spaces, leading or trailing space) are malformed.
func Split(line string) ([]string, error) {
	if line == "" {
		return nil, fmt.Errorf("%w: empty line", ErrMalformed)
	}
	tokens := strings.Split(line, " ")
	for _, t := range tokens {
		if t == "" {
			return nil, fmt.Errorf("%w: empty token", ErrMalformed)
		}
	}
	return tokens, nil
}

// Format joins a command and its arguments into a wire line.
func Format(cmd string, args ...string) string {
	if len(args) == 0 {
		return cmd + "\n"
	}
	return cmd + " " + strings.Join(args, " ") + "\n"
}
