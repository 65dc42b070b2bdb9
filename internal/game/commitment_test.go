package game

import (
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCommitmentHashFormat(t *testing.T) {
	nonce, err := NewNonce()
	require.NoError(t, err)

	h := CommitmentHash("iron-man", nonce)
	assert.Len(t, h, 64, "sha256 hex digest is 64 chars")
	_, err = hex.DecodeString(h)
	assert.NoError(t, err, "digest must be valid lowercase hex")
	assert.Equal(t, h, CommitmentHash("iron-man", nonce), "digest must be deterministic")
}

func TestVerifyCommitment(t *testing.T) {
	nonce := "00112233445566778899aabbccddeeff"
	h := CommitmentHash("thor", nonce)

	assert.True(t, VerifyCommitment(h, "thor", nonce))

	// any alteration to secret or nonce must fail verification
	assert.False(t, VerifyCommitment(h, "thos", nonce))
	assert.False(t, VerifyCommitment(h, "thor", "00112233445566778899aabbccddeefe"))
	assert.False(t, VerifyCommitment(h, "Thor", nonce))
	assert.False(t, VerifyCommitment(h, "", ""))

	// the separator is part of the preimage, not the inputs
	assert.False(t, VerifyCommitment(h, "thor:"+nonce, ""))
}

func TestNewNonce(t *testing.T) {
	a, err := NewNonce()
	require.NoError(t, err)
	b, err := NewNonce()
	require.NoError(t, err)

	assert.Len(t, a, NonceBytes*2)
	raw, err := hex.DecodeString(a)
	require.NoError(t, err)
	assert.Len(t, raw, NonceBytes)
	assert.NotEqual(t, a, b, "nonces must not repeat")
}
