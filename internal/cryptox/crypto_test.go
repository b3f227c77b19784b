package cryptox

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDeriveKey_Deterministic(t *testing.T) {
	secret := []byte("abcd1234")
	salt := []byte("fixed-salt")

	key1 := DeriveKey(secret, salt)
	key2 := DeriveKey(secret, salt)

	// same inputs, same key
	if !bytes.Equal(key1, key2) {
		t.Errorf("expected same result for same inputs, got different")
	}
	assert.Len(t, key1, KeySize)
}

func TestDeriveKey_DifferentInputs(t *testing.T) {
	secret := []byte("abcd1234")

	key1 := DeriveKey(secret, []byte("salt-1"))
	key2 := DeriveKey(secret, []byte("salt-2"))

	if bytes.Equal(key1, key2) {
		t.Errorf("expected different results for different salts, got same")
	}
}

func TestCredential(t *testing.T) {
	salt, verifier := NewCredential("abcd1234")
	assert.Len(t, salt, SaltSize)
	assert.Len(t, verifier, 32)

	assert.True(t, Verify("abcd1234", salt, verifier))
	assert.False(t, Verify("abcd1235", salt, verifier))
	assert.False(t, Verify("abcd1234", []byte("other-salt"), verifier))
}

func TestNewCredential_SaltsDiffer(t *testing.T) {
	salt1, v1 := NewCredential("abcd1234")
	salt2, v2 := NewCredential("abcd1234")
	assert.NotEqual(t, salt1, salt2)
	assert.NotEqual(t, v1, v2)
}
