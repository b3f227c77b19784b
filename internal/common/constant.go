package common

// Field widths and limits of the line protocol.
const (
	UIDLength    = 5
	SecretLength = 8
	CodeLength   = 4

	// MaxBaseNameLength and ExtensionLength bound a stored file name:
	// up to 20 base characters, a dot and a 3-letter extension.
	MaxBaseNameLength = 20
	ExtensionLength   = 3

	// FileQuota is the maximum number of files one identity may store.
	FileQuota = 15
)

// Default ports of the three services.
const (
	DefaultBrokerPort  = "58046"
	DefaultStoragePort = "59046"
	DefaultRelayPort   = "57046"
)
