package protocol

import (
	"fmt"
	"strconv"

	"github.com/dmitrijs2005/gophguard/internal/models"
)

// ParseReply splits a reply line and checks that it answers cmd. A bare
// ERR reply yields ErrServerError.
func ParseReply(line, cmd string) ([]string, error) {
	if line == ReplyError {
		return nil, ErrServerError
	}
	tokens, err := Split(line)
	if err != nil {
		return nil, err
	}
	if tokens[0] != cmd {
		return nil, fmt.Errorf("%w: want %s, got %q", ErrUnexpectedReply, cmd, line)
	}
	return tokens[1:], nil
}

// ParseStatus decodes a "CMD STATUS" reply and returns STATUS.
func ParseStatus(line, cmd string) (string, error) {
	args, err := ParseReply(line, cmd)
	if err != nil {
		return "", err
	}
	if len(args) != 1 {
		return "", fmt.Errorf("%w: %q", ErrUnexpectedReply, line)
	}
	return args[0], nil
}

// ValidateReply is CNF uid tid op [fname], or CNF uid tid E when the
// transaction was rejected.
type ValidateReply struct {
	UID   string
	TID   string
	Valid bool
	Grant models.Grant
}

func (r ValidateReply) Encode() string {
	if !r.Valid {
		return Format(ReplyValidate, r.UID, r.TID, StatusValidationFailed)
	}
	if r.Grant.Filename == "" {
		return Format(ReplyValidate, r.UID, r.TID, string(r.Grant.Operation))
	}
	return Format(ReplyValidate, r.UID, r.TID, string(r.Grant.Operation), r.Grant.Filename)
}

func ParseValidateReply(line string) (ValidateReply, error) {
	args, err := ParseReply(line, ReplyValidate)
	if err != nil {
		return ValidateReply{}, err
	}
	if len(args) != 3 && len(args) != 4 {
		return ValidateReply{}, fmt.Errorf("%w: %q", ErrUnexpectedReply, line)
	}
	r := ValidateReply{UID: args[0], TID: args[1]}
	if args[2] == StatusValidationFailed {
		if len(args) != 3 {
			return ValidateReply{}, fmt.Errorf("%w: %q", ErrUnexpectedReply, line)
		}
		return r, nil
	}
	op, err := models.ParseOperation(args[2])
	if err != nil {
		return ValidateReply{}, fmt.Errorf("%w: %v", ErrUnexpectedReply, err)
	}
	r.Grant.Operation = op
	if len(args) == 4 {
		r.Grant.Filename = args[3]
	}
	if err := CheckTarget(op, r.Grant.Filename); err != nil {
		return ValidateReply{}, fmt.Errorf("%w: %v", ErrUnexpectedReply, err)
	}
	r.Valid = true
	return r, nil
}

// ParseChallengeReply decodes RVC uid OK|NOK.
func ParseChallengeReply(line string) (uid, status string, err error) {
	args, err := ParseReply(line, ReplyChallenge)
	if err != nil {
		return "", "", err
	}
	if len(args) != 2 || (args[1] != StatusOK && args[1] != StatusNOK) {
		return "", "", fmt.Errorf("%w: %q", ErrUnexpectedReply, line)
	}
	return args[0], args[1], nil
}

// EncodeList formats a successful list reply: RLS N name size ...
func EncodeList(files []models.StoredFile) string {
	args := make([]string, 0, 1+2*len(files))
	args = append(args, strconv.Itoa(len(files)))
	for _, f := range files {
		args = append(args, f.Name, strconv.FormatInt(f.Size, 10))
	}
	return Format(ReplyList, args...)
}

// ParseListReply decodes an RLS reply. On a status reply (EOF, NOK, INV,
// ERR) files is nil and status is set; on success status is StatusOK.
func ParseListReply(line string) (files []models.StoredFile, status string, err error) {
	args, err := ParseReply(line, ReplyList)
	if err != nil {
		return nil, "", err
	}
	if len(args) == 0 {
		return nil, "", fmt.Errorf("%w: %q", ErrUnexpectedReply, line)
	}
	if !isDigits(args[0]) {
		if len(args) != 1 {
			return nil, "", fmt.Errorf("%w: %q", ErrUnexpectedReply, line)
		}
		return nil, args[0], nil
	}
	n, _ := strconv.Atoi(args[0])
	if len(args) != 1+2*n {
		return nil, "", fmt.Errorf("%w: list of %d entries has %d fields", ErrUnexpectedReply, n, len(args)-1)
	}
	files = make([]models.StoredFile, 0, n)
	for i := 0; i < n; i++ {
		size, err := strconv.ParseInt(args[2+2*i], 10, 64)
		if err != nil {
			return nil, "", fmt.Errorf("%w: bad size %q", ErrUnexpectedReply, args[2+2*i])
		}
		files = append(files, models.StoredFile{Name: args[1+2*i], Size: size})
	}
	return files, StatusOK, nil
}
