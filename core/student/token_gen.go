package student

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"time"
)

const resetTokenBytes = 20

var NowFunc = time.Now // mockable

// MakeResetToken generates a random password reset token.
// The plain token is sent to the student; only its digest is stored.
func MakeResetToken() (token, digest string, err error) {
	b := make([]byte, resetTokenBytes)
	if _, err = rand.Read(b); err != nil {
		return "", "", err
	}
	token = hex.EncodeToString(b)
	return token, HashResetToken(token), nil
}

// HashResetToken returns the digest under which a reset token is stored.
func HashResetToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}
