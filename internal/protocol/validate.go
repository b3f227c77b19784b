package protocol

import (
	"net/netip"
	"strconv"
	"strings"

	"github.com/dmitrijs2005/gophguard/internal/common"
)

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

func isLetter(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isAlphanumeric(s string) bool {
	for i := 0; i < len(s); i++ {
		if !isLetter(s[i]) && (s[i] < '0' || s[i] > '9') {
			return false
		}
	}
	return true
}

// IsUID reports whether s is a 5-digit user id.
func IsUID(s string) bool {
	return len(s) == common.UIDLength && isDigits(s)
}

// IsSecret reports whether s is an 8-character alphanumeric secret.
func IsSecret(s string) bool {
	return len(s) == common.SecretLength && isAlphanumeric(s)
}

// IsFourDigits reports whether s is a 4-digit field (rid, tid, code).
func IsFourDigits(s string) bool {
	return len(s) == common.CodeLength && isDigits(s)
}

// IsFilename reports whether s is a valid stored file name: 1 to 20
// characters of letters, digits, '-' or '_', a dot, and a 3-letter extension.
func IsFilename(s string) bool {
	dot := strings.LastIndexByte(s, '.')
	if dot < 1 || dot > common.MaxBaseNameLength {
		return false
	}
	base, ext := s[:dot], s[dot+1:]
	if len(ext) != common.ExtensionLength {
		return false
	}
	for i := 0; i < len(ext); i++ {
		if !isLetter(ext[i]) {
			return false
		}
	}
	for i := 0; i < len(base); i++ {
		c := base[i]
		if !isLetter(c) && (c < '0' || c > '9') && c != '-' && c != '_' {
			return false
		}
	}
	return true
}

// IsIPv4 reports whether s is a dotted-quad IPv4 address.
func IsIPv4(s string) bool {
	addr, err := netip.ParseAddr(s)
	return err == nil && addr.Is4()
}

// IsPort reports whether s is a decimal port number in 1..65535.
func IsPort(s string) bool {
	if len(s) > 5 || !isDigits(s) {
		return false
	}
	n, err := strconv.Atoi(s)
	return err == nil && n > 0 && n <= 65535
}
