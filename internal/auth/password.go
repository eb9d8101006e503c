package auth

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/hex"

	"golang.org/x/crypto/sha3"
)

// HashPassword digests password and salt in a single pass. The concatenation
// order is fixed; changing it invalidates every stored credential.
func HashPassword(pw, salt string) string {
	sum := sha3.Sum256([]byte(pw + salt))
	return hex.EncodeToString(sum[:])
}

// GenerateSalt returns a random per-credential salt, hex-encoded.
func GenerateSalt() string {
	return randomHex(16)
}

// GenerateToken returns an opaque bearer token for a session, hex-encoded.
func GenerateToken() string {
	return randomHex(32)
}

// CheckPassword compares a candidate password against a stored digest in
// constant time.
func CheckPassword(hash, pw, salt string) bool {
	return subtle.ConstantTimeCompare([]byte(hash), []byte(HashPassword(pw, salt))) == 1
}

func randomHex(n int) string {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		// Exhaustion of the system randomness source is not recoverable.
		panic("auth: random source unavailable: " + err.Error())
	}
	return hex.EncodeToString(b)
}
