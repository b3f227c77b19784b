package protocol

import (
	"bufio"
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/dmitrijs2005/gophguard/internal/common"
	"github.com/dmitrijs2005/gophguard/internal/models"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func reader(s string) *bufio.Reader {
	return bufio.NewReader(strings.NewReader(s))
}

func TestValidators(t *testing.T) {
	assert.True(t, IsUID("12345"))
	assert.False(t, IsUID("1234"))
	assert.False(t, IsUID("1234a"))

	assert.True(t, IsSecret("abcd1234"))
	assert.False(t, IsSecret("abcd123"))
	assert.False(t, IsSecret("abcd123!"))

	assert.True(t, IsFourDigits("0042"))
	assert.False(t, IsFourDigits("42"))

	assert.True(t, IsIPv4("127.0.0.1"))
	assert.False(t, IsIPv4("::1"))
	assert.False(t, IsIPv4("localhost"))

	assert.True(t, IsPort("58046"))
	assert.False(t, IsPort("0"))
	assert.False(t, IsPort("65536"))
	assert.False(t, IsPort("-1"))
}

func TestIsFilename(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want bool
	}{
		{"simple", "notes.txt", true},
		{"dash underscore", "my-file_1.pdf", true},
		{"base of 20", strings.Repeat("a", 20) + ".txt", true},
		{"base of 21", strings.Repeat("a", 21) + ".txt", false},
		{"empty base", ".txt", false},
		{"no extension", "notes", false},
		{"short extension", "notes.tx", false},
		{"digit extension", "notes.tx1", false},
		{"path", "../a.txt", false},
		{"two dots", "a.b.txt", false},
		{"space", "a b.txt", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsFilename(tt.in))
		})
	}
}

func TestReadLine(t *testing.T) {
	r := reader("LOG 12345 abcd1234\nREQ")
	line, err := ReadLine(r, MaxRequestLength)
	require.NoError(t, err)
	assert.Equal(t, "LOG 12345 abcd1234", line)

	_, err = ReadLine(r, MaxRequestLength)
	assert.Error(t, err, "unterminated line")

	_, err = ReadLine(reader(strings.Repeat("x", 10)+"\n"), 5)
	assert.ErrorIs(t, err, ErrLineTooLong)
}

func TestSplit(t *testing.T) {
	tokens, err := Split("VLD 12345 1000")
	require.NoError(t, err)
	assert.Equal(t, []string{"VLD", "12345", "1000"}, tokens)

	for _, bad := range []string{"", "VLD  12345", " VLD", "VLD "} {
		_, err := Split(bad)
		assert.ErrorIs(t, err, ErrMalformed, bad)
	}
}

func TestParseOperationRequest(t *testing.T) {
	r, err := ParseOperationRequest([]string{"12345", "0001", "R", "a.txt"})
	require.NoError(t, err)
	assert.Equal(t, OperationRequest{UID: "12345", RID: "0001", Operation: models.OpRetrieve, Filename: "a.txt"}, r)
	assert.Equal(t, "REQ 12345 0001 R a.txt\n", r.Encode())

	_, err = ParseOperationRequest([]string{"12345", "0001", "Q"})
	assert.ErrorIs(t, err, ErrUnknownOperation)

	_, err = ParseOperationRequest([]string{"12345", "0001", "L", "a.txt"})
	assert.ErrorIs(t, err, ErrMalformed)

	_, err = ParseOperationRequest([]string{"12345", "0001", "U"})
	assert.ErrorIs(t, err, ErrMalformed)

	_, err = ParseOperationRequest([]string{"12345", "01", "L"})
	assert.ErrorIs(t, err, ErrMalformed)
}

func TestParseRegister(t *testing.T) {
	r, err := ParseRegister([]string{"12345", "abcd1234", "127.0.0.1", "57046"})
	require.NoError(t, err)
	assert.Equal(t, "127.0.0.1:57046", r.Relay.Address())
	assert.Equal(t, "REG 12345 abcd1234 127.0.0.1 57046\n", r.Encode())

	_, err = ParseRegister([]string{"12345", "abcd1234", "host", "57046"})
	assert.ErrorIs(t, err, common.ErrMalformedRequest)

	_, err = ParseRegister([]string{"12345", "abcd1234", "127.0.0.1"})
	assert.ErrorIs(t, err, common.ErrMalformedRequest)
}

func TestParseChallenge(t *testing.T) {
	r, err := ParseChallenge([]string{"12345", "4821", "X"})
	require.NoError(t, err)
	assert.Equal(t, models.OpRemoveIdentity, r.Operation)
	assert.Equal(t, "VLC 12345 4821 X\n", r.Encode())

	_, err = ParseChallenge([]string{"12345", "4821", "D"})
	assert.ErrorIs(t, err, ErrMalformed)
}

func TestParseStorageRequest(t *testing.T) {
	tests := []struct {
		name    string
		cmd     string
		args    []string
		want    StorageRequest
		wantErr bool
	}{
		{
			name: "list",
			cmd:  CmdList,
			args: []string{"12345", "1000"},
			want: StorageRequest{Operation: models.OpList, UID: "12345", TID: "1000"},
		},
		{
			name: "upload",
			cmd:  CmdUpload,
			args: []string{"12345", "1000", "a.txt", "42"},
			want: StorageRequest{Operation: models.OpUpload, UID: "12345", TID: "1000", Filename: "a.txt", Size: 42},
		},
		{name: "retrieve without file", cmd: CmdRetrieve, args: []string{"12345", "1000"}, wantErr: true},
		{name: "delete bad file", cmd: CmdDelete, args: []string{"12345", "1000", "a"}, wantErr: true},
		{name: "upload bad size", cmd: CmdUpload, args: []string{"12345", "1000", "a.txt", "-1"}, wantErr: true},
		{name: "unknown", cmd: "ZZZ", args: []string{"12345", "1000"}, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseStorageRequest(tt.cmd, tt.args)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrMalformed)
				return
			}
			require.NoError(t, err)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("ParseStorageRequest mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestStorageRequest_Encode(t *testing.T) {
	assert.Equal(t, "LST 12345 1000\n", StorageRequest{Operation: models.OpList, UID: "12345", TID: "1000"}.Encode())
	assert.Equal(t, "DEL 12345 1000 a.txt\n", StorageRequest{Operation: models.OpDelete, UID: "12345", TID: "1000", Filename: "a.txt"}.Encode())
	assert.Equal(t, "UPL 12345 1000 a.txt", StorageRequest{Operation: models.OpUpload, UID: "12345", TID: "1000", Filename: "a.txt"}.Encode())
	assert.Equal(t, "RRM", StorageReply(models.OpRemoveIdentity))
}

func TestValidateReply(t *testing.T) {
	tests := []struct {
		name  string
		reply ValidateReply
		line  string
	}{
		{"list", ValidateReply{UID: "12345", TID: "1000", Valid: true, Grant: models.Grant{Operation: models.OpList}}, "CNF 12345 1000 L\n"},
		{"upload", ValidateReply{UID: "12345", TID: "1000", Valid: true, Grant: models.Grant{Operation: models.OpUpload, Filename: "a.txt"}}, "CNF 12345 1000 U a.txt\n"},
		{"rejected", ValidateReply{UID: "12345", TID: "1000"}, "CNF 12345 1000 E\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.line, tt.reply.Encode())
			got, err := ParseValidateReply(strings.TrimSuffix(tt.line, "\n"))
			require.NoError(t, err)
			assert.Equal(t, tt.reply, got)
		})
	}

	_, err := ParseValidateReply("CNF 12345 1000 R")
	assert.ErrorIs(t, err, ErrUnexpectedReply)

	_, err = ParseValidateReply("ERR")
	assert.ErrorIs(t, err, ErrServerError)
}

func TestParseChallengeReply(t *testing.T) {
	uid, status, err := ParseChallengeReply("RVC 12345 OK")
	require.NoError(t, err)
	assert.Equal(t, "12345", uid)
	assert.Equal(t, StatusOK, status)

	_, _, err = ParseChallengeReply("RVC 12345 MAYBE")
	assert.ErrorIs(t, err, ErrUnexpectedReply)

	_, _, err = ParseChallengeReply("RRG OK")
	assert.ErrorIs(t, err, ErrUnexpectedReply)
}

func TestListReply(t *testing.T) {
	files := []models.StoredFile{{Name: "a.txt", Size: 0}, {Name: "b.bin", Size: 10000}}
	line := EncodeList(files)
	assert.Equal(t, "RLS 2 a.txt 0 b.bin 10000\n", line)

	got, status, err := ParseListReply(strings.TrimSuffix(line, "\n"))
	require.NoError(t, err)
	assert.Equal(t, StatusOK, status)
	assert.Equal(t, files, got)

	got, status, err = ParseListReply("RLS EOF")
	require.NoError(t, err)
	assert.Nil(t, got)
	assert.Equal(t, StatusEOF, status)

	_, _, err = ParseListReply("RLS 2 a.txt 0")
	assert.ErrorIs(t, err, ErrUnexpectedReply)
}

func TestParseStatus(t *testing.T) {
	status, err := ParseStatus("RUP FULL", ReplyUpload)
	require.NoError(t, err)
	assert.Equal(t, StatusFull, status)

	_, err = ParseStatus("RDL OK", ReplyUpload)
	assert.ErrorIs(t, err, ErrUnexpectedReply)
}

func TestFrame_RoundTrip(t *testing.T) {
	for _, size := range []int{0, 1, 10000} {
		payload := bytes.Repeat([]byte{'\n'}, size)

		var wire bytes.Buffer
		require.NoError(t, WriteFrame(&wire, "RRT OK", int64(size), bytes.NewReader(payload)))

		var out bytes.Buffer
		status, n, err := ReadFramedReply(bufio.NewReader(&wire), ReplyRetrieve, &out)
		require.NoError(t, err)
		assert.Equal(t, StatusOK, status)
		assert.EqualValues(t, size, n)
		assert.Equal(t, payload, out.Bytes())
		assert.Zero(t, wire.Len(), "frame fully consumed")
	}
}

func TestReadFramedReply_Status(t *testing.T) {
	var out bytes.Buffer
	status, _, err := ReadFramedReply(reader("RRT EOF\n"), ReplyRetrieve, &out)
	require.NoError(t, err)
	assert.Equal(t, StatusEOF, status)
	assert.Zero(t, out.Len())

	_, _, err = ReadFramedReply(reader("ERR\n"), ReplyRetrieve, &out)
	assert.ErrorIs(t, err, ErrServerError)
}

func TestReadPayload_Short(t *testing.T) {
	var out bytes.Buffer
	err := ReadPayload(reader("abc"), &out, 10)
	assert.True(t, errors.Is(err, common.ErrTransportFailure))
}

func TestReadPayload_StopsAtSize(t *testing.T) {
	r := reader("hello\nLST 12345 1000\n")
	var out bytes.Buffer
	require.NoError(t, ReadPayload(r, &out, 5))
	assert.Equal(t, "hello", out.String())

	line, err := ReadLine(r, MaxRequestLength)
	require.NoError(t, err)
	assert.Equal(t, "LST 12345 1000", line)
}

func TestReadFields(t *testing.T) {
	fields, err := ReadFields(reader("12345 1000 a.txt 3 abc\n"), 4)
	require.NoError(t, err)
	assert.Equal(t, []string{"12345", "1000", "a.txt", "3"}, fields)

	_, err = ReadFields(reader("12345 1000\n"), 4)
	assert.ErrorIs(t, err, ErrMalformed)
}
