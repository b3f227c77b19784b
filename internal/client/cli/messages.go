package cli

import (
	"errors"
	"fmt"

	"github.com/dmitrijs2005/gophguard/internal/client/client"
	"github.com/dmitrijs2005/gophguard/internal/common"
	"github.com/dmitrijs2005/gophguard/internal/protocol"
)

// replyMessages holds the text printed for each reply status, per reply
// command. Successful list, retrieve and authenticate replies carry data
// and are formatted by their handlers.
var replyMessages = map[string]map[string]string{
	protocol.ReplyLogin: {
		protocol.StatusOK:  "You are now logged in!",
		protocol.StatusNOK: "Error: Login failed, unknown user or wrong password. Try again!",
	},
	protocol.ReplyRequest: {
		protocol.StatusOK:           "Request accepted. Enter the code shown on your relay device with: val <code>",
		protocol.StatusNotLoggedIn:  "Error: No user is logged in. Try again!",
		protocol.StatusRelayDown:    "Error: Relay device could not be reached. Check that it is running and registered.",
		protocol.StatusUnknownUser:  "Error: User is not registered with the broker.",
		protocol.StatusBadOperation: "Error: Invalid operation or file name.",
		protocol.StatusError:        "Error: Broker rejected the request as malformed. Log in again.",
	},
	protocol.ReplyList: {
		protocol.StatusEOF:     "No files stored for this user.",
		protocol.StatusNOK:     "Error: User has no content in storage.",
		protocol.StatusInvalid: "Error: Transaction is not valid for list. Request and validate again.",
		protocol.StatusError:   "Error: Storage rejected the list request as malformed.",
	},
	protocol.ReplyRetrieve: {
		protocol.StatusEOF:     "Error: File is not available in the user directory.",
		protocol.StatusNOK:     "Error: User has no content in storage.",
		protocol.StatusInvalid: "Error: Transaction is not valid for this retrieve. Request and validate again.",
		protocol.StatusError:   "Error: Storage rejected the retrieve request as malformed.",
	},
	protocol.ReplyUpload: {
		protocol.StatusOK:      "Upload successful!",
		protocol.StatusDup:     "Error: A file with this name is already stored.",
		protocol.StatusFull:    "Error: File quota reached. Delete a file first.",
		protocol.StatusNOK:     "Error: Upload failed.",
		protocol.StatusInvalid: "Error: Transaction is not valid for this upload. Request and validate again.",
		protocol.StatusError:   "Error: Storage rejected the upload request as malformed.",
	},
	protocol.ReplyDelete: {
		protocol.StatusOK:      "File deleted.",
		protocol.StatusEOF:     "Error: File is not available in the user directory.",
		protocol.StatusNOK:     "Error: User has no content in storage.",
		protocol.StatusInvalid: "Error: Transaction is not valid for this delete. Request and validate again.",
		protocol.StatusError:   "Error: Storage rejected the delete request as malformed.",
	},
	protocol.ReplyRemove: {
		protocol.StatusOK:      "All files removed.",
		protocol.StatusNOK:     "Error: User has no content in storage.",
		protocol.StatusInvalid: "Error: Transaction is not valid for remove. Request and validate again.",
		protocol.StatusError:   "Error: Storage rejected the remove request as malformed.",
	},
}

func replyMessage(cmd, status string) string {
	if m, ok := replyMessages[cmd][status]; ok {
		return m
	}
	return fmt.Sprintf("Error: Unexpected reply %s %s. Might not have performed operation.", cmd, status)
}

// errorMessage describes a failed exchange that produced no status.
func errorMessage(err error) string {
	switch {
	case errors.Is(err, client.ErrSessionClosed):
		return "Error: No session with the broker. Log in first."
	case errors.Is(err, protocol.ErrServerError):
		return "Error: Server answered ERR, request not understood."
	case errors.Is(err, common.ErrTransportFailure):
		return "Error: Transfer interrupted. Might not have performed operation."
	case errors.Is(err, client.ErrUnavailable):
		return "Error: Server unavailable. Try again later!"
	case errors.Is(err, protocol.ErrUnexpectedReply):
		return "Error: Unexpected protocol message. Might not have performed operation."
	}
	return fmt.Sprintf("Error: %v", err)
}

// endsSession reports whether a broker failure leaves the user logged out.
func endsSession(err error) bool {
	return errors.Is(err, client.ErrSessionClosed) || errors.Is(err, client.ErrUnavailable) ||
		errors.Is(err, protocol.ErrServerError)
}
