package protocol

import (
	"fmt"
	"strconv"

	"github.com/dmitrijs2005/gophguard/internal/models"
)

func arity(cmd string, args []string, allowed ...int) error {
	for _, n := range allowed {
		if len(args) == n {
			return nil
		}
	}
	return fmt.Errorf("%w: %s takes %v arguments, got %d", ErrMalformed, cmd, allowed, len(args))
}

func field(ok bool, cmd, name, value string) error {
	if ok {
		return nil
	}
	return fmt.Errorf("%w: %s: bad %s %q", ErrMalformed, cmd, name, value)
}

// LoginRequest is LOG uid pass.
type LoginRequest struct {
	UID    string
	Secret string
}

func ParseLogin(args []string) (LoginRequest, error) {
	if err := arity(CmdLogin, args, 2); err != nil {
		return LoginRequest{}, err
	}
	r := LoginRequest{UID: args[0], Secret: args[1]}
	if err := field(IsUID(r.UID), CmdLogin, "uid", r.UID); err != nil {
		return LoginRequest{}, err
	}
	if err := field(IsSecret(r.Secret), CmdLogin, "secret", r.Secret); err != nil {
		return LoginRequest{}, err
	}
	return r, nil
}

func (r LoginRequest) Encode() string {
	return Format(CmdLogin, r.UID, r.Secret)
}

// OperationRequest is REQ uid rid op [fname].
type OperationRequest struct {
	UID       string
	RID       string
	Operation models.Operation
	Filename  string
}

// ParseOperationRequest validates arity and fields. An operation letter
// outside the known set fails with ErrUnknownOperation; a filename that is
// missing, superfluous or invalid fails with ErrMalformed.
func ParseOperationRequest(args []string) (OperationRequest, error) {
	if err := arity(CmdRequest, args, 3, 4); err != nil {
		return OperationRequest{}, err
	}
	r := OperationRequest{UID: args[0], RID: args[1]}
	if err := field(IsUID(r.UID), CmdRequest, "uid", r.UID); err != nil {
		return OperationRequest{}, err
	}
	if err := field(IsFourDigits(r.RID), CmdRequest, "rid", r.RID); err != nil {
		return OperationRequest{}, err
	}
	op, err := models.ParseOperation(args[2])
	if err != nil {
		return OperationRequest{}, fmt.Errorf("%w: %v", ErrUnknownOperation, err)
	}
	r.Operation = op
	if len(args) == 4 {
		r.Filename = args[3]
	}
	if err := CheckTarget(op, r.Filename); err != nil {
		return OperationRequest{}, err
	}
	return r, nil
}

// CheckTarget enforces the operation/filename combination: list and remove
// carry no filename, retrieve, upload and delete carry a valid one.
func CheckTarget(op models.Operation, filename string) error {
	if op.NeedsFilename() {
		if !IsFilename(filename) {
			return fmt.Errorf("%w: %s needs a valid filename, got %q", ErrMalformed, op, filename)
		}
		return nil
	}
	if filename != "" {
		return fmt.Errorf("%w: %s takes no filename", ErrMalformed, op)
	}
	return nil
}

func (r OperationRequest) Encode() string {
	if r.Filename == "" {
		return Format(CmdRequest, r.UID, r.RID, string(r.Operation))
	}
	return Format(CmdRequest, r.UID, r.RID, string(r.Operation), r.Filename)
}

// AuthenticateRequest is AUT uid rid code.
type AuthenticateRequest struct {
	UID  string
	RID  string
	Code string
}

func ParseAuthenticate(args []string) (AuthenticateRequest, error) {
	if err := arity(CmdAuthenticate, args, 3); err != nil {
		return AuthenticateRequest{}, err
	}
	r := AuthenticateRequest{UID: args[0], RID: args[1], Code: args[2]}
	if err := field(IsUID(r.UID), CmdAuthenticate, "uid", r.UID); err != nil {
		return AuthenticateRequest{}, err
	}
	if err := field(IsFourDigits(r.RID), CmdAuthenticate, "rid", r.RID); err != nil {
		return AuthenticateRequest{}, err
	}
	if err := field(IsFourDigits(r.Code), CmdAuthenticate, "code", r.Code); err != nil {
		return AuthenticateRequest{}, err
	}
	return r, nil
}

func (r AuthenticateRequest) Encode() string {
	return Format(CmdAuthenticate, r.UID, r.RID, r.Code)
}

// RegisterRequest is REG uid pass relayIP relayPort.
type RegisterRequest struct {
	UID    string
	Secret string
	Relay  models.Endpoint
}

func ParseRegister(args []string) (RegisterRequest, error) {
	if err := arity(CmdRegister, args, 4); err != nil {
		return RegisterRequest{}, err
	}
	r := RegisterRequest{UID: args[0], Secret: args[1], Relay: models.Endpoint{Host: args[2], Port: args[3]}}
	if err := field(IsUID(r.UID), CmdRegister, "uid", r.UID); err != nil {
		return RegisterRequest{}, err
	}
	if err := field(IsSecret(r.Secret), CmdRegister, "secret", r.Secret); err != nil {
		return RegisterRequest{}, err
	}
	if err := field(IsIPv4(r.Relay.Host), CmdRegister, "relay ip", r.Relay.Host); err != nil {
		return RegisterRequest{}, err
	}
	if err := field(IsPort(r.Relay.Port), CmdRegister, "relay port", r.Relay.Port); err != nil {
		return RegisterRequest{}, err
	}
	return r, nil
}

func (r RegisterRequest) Encode() string {
	return Format(CmdRegister, r.UID, r.Secret, r.Relay.Host, r.Relay.Port)
}

// UnregisterRequest is UNR uid pass.
type UnregisterRequest struct {
	UID    string
	Secret string
}

func ParseUnregister(args []string) (UnregisterRequest, error) {
	if err := arity(CmdUnregister, args, 2); err != nil {
		return UnregisterRequest{}, err
	}
	r := UnregisterRequest{UID: args[0], Secret: args[1]}
	if err := field(IsUID(r.UID), CmdUnregister, "uid", r.UID); err != nil {
		return UnregisterRequest{}, err
	}
	if err := field(IsSecret(r.Secret), CmdUnregister, "secret", r.Secret); err != nil {
		return UnregisterRequest{}, err
	}
	return r, nil
}

func (r UnregisterRequest) Encode() string {
	return Format(CmdUnregister, r.UID, r.Secret)
}

// ValidateRequest is VLD uid tid.
type ValidateRequest struct {
	UID string
	TID string
}

func ParseValidate(args []string) (ValidateRequest, error) {
	if err := arity(CmdValidate, args, 2); err != nil {
		return ValidateRequest{}, err
	}
	r := ValidateRequest{UID: args[0], TID: args[1]}
	if err := field(IsUID(r.UID), CmdValidate, "uid", r.UID); err != nil {
		return ValidateRequest{}, err
	}
	if err := field(IsFourDigits(r.TID), CmdValidate, "tid", r.TID); err != nil {
		return ValidateRequest{}, err
	}
	return r, nil
}

func (r ValidateRequest) Encode() string {
	return Format(CmdValidate, r.UID, r.TID)
}

// ChallengeRequest is VLC uid code op [fname], sent to a relay device.
type ChallengeRequest struct {
	UID       string
	Code      string
	Operation models.Operation
	Filename  string
}

func ParseChallenge(args []string) (ChallengeRequest, error) {
	if err := arity(CmdChallenge, args, 3, 4); err != nil {
		return ChallengeRequest{}, err
	}
	r := ChallengeRequest{UID: args[0], Code: args[1]}
	if err := field(IsUID(r.UID), CmdChallenge, "uid", r.UID); err != nil {
		return ChallengeRequest{}, err
	}
	if err := field(IsFourDigits(r.Code), CmdChallenge, "code", r.Code); err != nil {
		return ChallengeRequest{}, err
	}
	op, err := models.ParseOperation(args[2])
	if err != nil {
		return ChallengeRequest{}, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	r.Operation = op
	if len(args) == 4 {
		r.Filename = args[3]
	}
	if err := CheckTarget(op, r.Filename); err != nil {
		return ChallengeRequest{}, err
	}
	return r, nil
}

func (r ChallengeRequest) Encode() string {
	if r.Filename == "" {
		return Format(CmdChallenge, r.UID, r.Code, string(r.Operation))
	}
	return Format(CmdChallenge, r.UID, r.Code, string(r.Operation), r.Filename)
}

var storageCommands = map[string]models.Operation{
	CmdList:     models.OpList,
	CmdRetrieve: models.OpRetrieve,
	CmdUpload:   models.OpUpload,
	CmdDelete:   models.OpDelete,
	CmdRemove:   models.OpRemoveIdentity,
}

var storageReplies = map[models.Operation]string{
	models.OpList:           ReplyList,
	models.OpRetrieve:       ReplyRetrieve,
	models.OpUpload:         ReplyUpload,
	models.OpDelete:         ReplyDelete,
	models.OpRemoveIdentity: ReplyRemove,
}

// StorageOperation maps a storage command to the operation it performs.
func StorageOperation(cmd string) (models.Operation, bool) {
	op, ok := storageCommands[cmd]
	return op, ok
}

// StorageCommand maps an operation to its storage command.
func StorageCommand(op models.Operation) string {
	for cmd, o := range storageCommands {
		if o == op {
			return cmd
		}
	}
	return ""
}

// StorageReply maps an operation to the reply command of its storage request.
func StorageReply(op models.Operation) string {
	return storageReplies[op]
}

// StorageRequest is any of LST, RTV, UPL, DEL, REM. For UPL, Size carries
// the declared payload length; the payload itself follows on the wire.
type StorageRequest struct {
	Operation models.Operation
	UID       string
	TID       string
	Filename  string
	Size      int64
}

// ParseStorageRequest decodes the arguments of a storage command. For UPL
// args holds the four header fields: uid, tid, fname, size.
func ParseStorageRequest(cmd string, args []string) (StorageRequest, error) {
	op, ok := StorageOperation(cmd)
	if !ok {
		return StorageRequest{}, fmt.Errorf("%w: unknown storage command %q", ErrMalformed, cmd)
	}
	want := 2
	switch op {
	case models.OpRetrieve, models.OpDelete:
		want = 3
	case models.OpUpload:
		want = 4
	}
	if err := arity(cmd, args, want); err != nil {
		return StorageRequest{}, err
	}

	r := StorageRequest{Operation: op, UID: args[0], TID: args[1]}
	if err := field(IsUID(r.UID), cmd, "uid", r.UID); err != nil {
		return StorageRequest{}, err
	}
	if err := field(IsFourDigits(r.TID), cmd, "tid", r.TID); err != nil {
		return StorageRequest{}, err
	}
	if want >= 3 {
		r.Filename = args[2]
		if err := field(IsFilename(r.Filename), cmd, "filename", r.Filename); err != nil {
			return StorageRequest{}, err
		}
	}
	if op == models.OpUpload {
		size, err := ParseSize(args[3])
		if err != nil {
			return StorageRequest{}, err
		}
		r.Size = size
	}
	return r, nil
}

// Encode formats the request line. For UPL it returns only the frame header
// (without the trailing space), to be passed to WriteFrame.
func (r StorageRequest) Encode() string {
	cmd := StorageCommand(r.Operation)
	switch r.Operation {
	case models.OpRetrieve, models.OpDelete:
		return Format(cmd, r.UID, r.TID, r.Filename)
	case models.OpUpload:
		return cmd + " " + r.UID + " " + r.TID + " " + r.Filename
	}
	return Format(cmd, r.UID, r.TID)
}

// ParseSize decodes a declared payload size.
func ParseSize(s string) (int64, error) {
	if len(s) > MaxSizeDigits || !isDigits(s) {
		return 0, fmt.Errorf("%w: bad size %q", ErrMalformed, s)
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: bad size %q", ErrMalformed, s)
	}
	return n, nil
}
