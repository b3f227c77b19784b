package client

import (
	"bufio"
	"bytes"
	"context"
	"io"
	"net"
	"strings"
	"testing"
	"time"

	"github.com/dmitrijs2005/gophguard/internal/common"
	"github.com/dmitrijs2005/gophguard/internal/models"
	"github.com/dmitrijs2005/gophguard/internal/protocol"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// lineServer accepts connections and answers each request line with
// handle(line). An empty answer closes the connection.
func lineServer(t *testing.T, handle func(line string) string) string {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	t.Cleanup(func() { _ = ln.Close() })

	go func() {
		for {
			conn, err := ln.Accept()
			if err != nil {
				return
			}
			go func() {
				defer conn.Close()
				r := bufio.NewReader(conn)
				for {
					line, err := r.ReadString('\n')
					if err != nil {
						return
					}
					out := handle(strings.TrimSuffix(line, "\n"))
					if out == "" {
						return
					}
					if _, err := io.WriteString(conn, out); err != nil {
						return
					}
				}
			}()
		}
	}()
	return ln.Addr().String()
}

func TestBrokerSession(t *testing.T) {
	addr := lineServer(t, func(line string) string {
		switch {
		case line == "LOG 12345 abcd1234":
			return "RLO OK\n"
		case strings.HasPrefix(line, "LOG "):
			return "RLO NOK\n"
		case line == "REQ 12345 1111 U a.txt":
			return "RRQ OK\n"
		case line == "AUT 12345 1111 4821":
			return "RAU 7777\n"
		case strings.HasPrefix(line, "AUT "):
			return "RAU 0\n"
		}
		return "ERR\n"
	})

	s := NewBrokerSession(addr, time.Second)
	defer s.Close()
	ctx := context.Background()

	_, err := s.Request(ctx, protocol.OperationRequest{UID: "12345", RID: "1111", Operation: models.OpList})
	assert.ErrorIs(t, err, ErrSessionClosed, "no session before login")

	st, err := s.Login(ctx, protocol.LoginRequest{UID: "12345", Secret: "wrong999"})
	require.NoError(t, err)
	assert.Equal(t, protocol.StatusNOK, st)

	st, err = s.Login(ctx, protocol.LoginRequest{UID: "12345", Secret: "abcd1234"})
	require.NoError(t, err)
	assert.Equal(t, protocol.StatusOK, st)

	st, err = s.Request(ctx, protocol.OperationRequest{UID: "12345", RID: "1111", Operation: models.OpUpload, Filename: "a.txt"})
	require.NoError(t, err)
	assert.Equal(t, protocol.StatusOK, st)

	tid, err := s.Authenticate(ctx, protocol.AuthenticateRequest{UID: "12345", RID: "1111", Code: "1000"})
	require.NoError(t, err)
	assert.Equal(t, protocol.AuthFailedTID, tid)

	tid, err = s.Authenticate(ctx, protocol.AuthenticateRequest{UID: "12345", RID: "1111", Code: "4821"})
	require.NoError(t, err)
	assert.Equal(t, "7777", tid)

	// ERR ends the session
	_, err = s.Request(ctx, protocol.OperationRequest{UID: "12345", RID: "2222", Operation: models.OpList})
	assert.ErrorIs(t, err, protocol.ErrServerError)
	_, err = s.Request(ctx, protocol.OperationRequest{UID: "12345", RID: "2222", Operation: models.OpList})
	assert.ErrorIs(t, err, ErrSessionClosed)
}

func TestBrokerSession_Unreachable(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := ln.Addr().String()
	require.NoError(t, ln.Close())

	s := NewBrokerSession(addr, time.Second)
	_, err = s.Login(context.Background(), protocol.LoginRequest{UID: "12345", Secret: "abcd1234"})
	assert.ErrorIs(t, err, ErrUnavailable)
}

func TestBrokerSession_PeerHangsUp(t *testing.T) {
	addr := lineServer(t, func(string) string { return "" })

	s := NewBrokerSession(addr, time.Second)
	_, err := s.Login(context.Background(), protocol.LoginRequest{UID: "12345", Secret: "abcd1234"})
	assert.ErrorIs(t, err, ErrUnavailable)
}

func TestStorageClient_SimpleReplies(t *testing.T) {
	addr := lineServer(t, func(line string) string {
		switch line {
		case "LST 12345 1000":
			return "RLS 2 a.txt 3 b.txt 10\n"
		case "LST 12345 1001":
			return "RLS EOF\n"
		case "DEL 12345 1000 a.txt":
			return "RDL OK\n"
		case "REM 12345 1000":
			return "RRM INV\n"
		}
		return "ERR\n"
	})
	c := NewStorageClient(addr, time.Second)
	ctx := context.Background()

	files, st, err := c.List(ctx, "12345", "1000")
	require.NoError(t, err)
	assert.Equal(t, protocol.StatusOK, st)
	assert.Equal(t, []models.StoredFile{{Name: "a.txt", Size: 3}, {Name: "b.txt", Size: 10}}, files)

	files, st, err = c.List(ctx, "12345", "1001")
	require.NoError(t, err)
	assert.Equal(t, protocol.StatusEOF, st)
	assert.Nil(t, files)

	st, err = c.Delete(ctx, "12345", "1000", "a.txt")
	require.NoError(t, err)
	assert.Equal(t, protocol.StatusOK, st)

	st, err = c.Remove(ctx, "12345", "1000")
	require.NoError(t, err)
	assert.Equal(t, protocol.StatusInvalid, st)

	_, err = c.Delete(ctx, "12345", "9999", "a.txt")
	assert.ErrorIs(t, err, protocol.ErrServerError)
}

// frameServer reads one UPL frame or RTV line and answers it.
func frameServer(t *testing.T, content string, got chan<- string) string {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	t.Cleanup(func() { _ = ln.Close() })

	go func() {
		for {
			conn, err := ln.Accept()
			if err != nil {
				return
			}
			r := bufio.NewReader(conn)
			cmd, _, _ := protocol.ReadToken(r, protocol.MaxTokenLength)
			switch cmd {
			case protocol.CmdUpload:
				fields, _ := protocol.ReadFields(r, 4)
				size, _ := protocol.ParseSize(fields[3])
				var buf bytes.Buffer
				_ = protocol.ReadPayload(r, &buf, size)
				got <- strings.Join(fields[:3], " ") + ":" + buf.String()
				_, _ = io.WriteString(conn, "RUP OK\n")
			case protocol.CmdRetrieve:
				_, _ = protocol.ReadLine(r, protocol.MaxRequestLength)
				_ = protocol.WriteFrame(conn, "RRT OK", int64(len(content)), strings.NewReader(content))
			}
			conn.Close()
		}
	}()
	return ln.Addr().String()
}

func TestStorageClient_UploadRetrieve(t *testing.T) {
	content := "line one\nline two\n\n"
	got := make(chan string, 1)
	addr := frameServer(t, content, got)
	c := NewStorageClient(addr, time.Second)
	ctx := context.Background()

	st, err := c.Upload(ctx, "12345", "1000", "a.txt", strings.NewReader(content), int64(len(content)))
	require.NoError(t, err)
	assert.Equal(t, protocol.StatusOK, st)
	assert.Equal(t, "12345 1000 a.txt:"+content, <-got)

	var buf bytes.Buffer
	st, n, err := c.Retrieve(ctx, "12345", "1000", "a.txt", &buf)
	require.NoError(t, err)
	assert.Equal(t, protocol.StatusOK, st)
	assert.EqualValues(t, len(content), n)
	assert.Equal(t, content, buf.String())
}

func TestStorageClient_UploadShortSource(t *testing.T) {
	got := make(chan string, 1)
	addr := frameServer(t, "", got)
	c := NewStorageClient(addr, time.Second)

	_, err := c.Upload(context.Background(), "12345", "1000", "a.txt", strings.NewReader("abc"), 10)
	assert.ErrorIs(t, err, common.ErrTransportFailure)
}
