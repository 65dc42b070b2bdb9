package game

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
)

// NonceBytes is the entropy behind each commitment nonce. The secret
// domain is small and enumerable, so the nonce alone makes the
// commitment hiding; 128 bits keeps it out of brute-force range.
const NonceBytes = 16

// CommitmentHash computes the canonical commitment digest: lowercase
// hex SHA-256 over the UTF-8 bytes of "<secretId>:<nonceHex>".
func CommitmentHash(secretID, nonceHex string) string {
	sum := sha256.Sum256([]byte(secretID + ":" + nonceHex))
	return hex.EncodeToString(sum[:])
}

// VerifyCommitment recomputes the digest for a revealed (secret, nonce)
// pair and compares it against the stored commitment in constant time.
func VerifyCommitment(commit, secretID, nonceHex string) bool {
	want := CommitmentHash(secretID, nonceHex)
	return subtle.ConstantTimeCompare([]byte(want), []byte(commit)) == 1
}

// NewNonce returns a fresh lowercase-hex nonce from crypto/rand.
func NewNonce() (string, error) {
	buf := make([]byte, NonceBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}
