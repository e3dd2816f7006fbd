package util

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"math/big"
)

const otpDigits = "0123456789"

// GenerateOTP generates a cryptographically random numeric code of the
// given length
func GenerateOTP(length int) (string, error) {
	code := make([]byte, length)
	max := big.NewInt(int64(len(otpDigits)))
	for i := range code {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		code[i] = otpDigits[n.Int64()]
	}
	return string(code), nil
}

// HashOTP returns the hex-encoded sha256 digest of a code. Only the digest
// is ever persisted, never the plaintext code.
func HashOTP(code string) string {
	sum := sha256.Sum256([]byte(code))
	return hex.EncodeToString(sum[:])
}

// VerifyOTP reports whether the submitted code matches the stored digest
func VerifyOTP(code, codeHash string) bool {
	digest := HashOTP(code)
	return subtle.ConstantTimeCompare([]byte(digest), []byte(codeHash)) == 1
}
