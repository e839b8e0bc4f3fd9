package auth

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"math/big"
)

const OTPDigits = 6

// GenerateOTP returns a six digit code in [100000, 999999].
func GenerateOTP() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(900000))
	if err != nil {
		return "", err
	}
	return big.NewInt(0).Add(n, big.NewInt(100000)).String(), nil
}

// HashOTP returns the hex SHA-256 of otp. Only hashes are persisted.
func HashOTP(otp string) string {
	h := sha256.Sum256([]byte(otp))
	return hex.EncodeToString(h[:])
}

// OTPEqual compares provided against a stored hash in constant time.
func OTPEqual(provided, storedHash string) bool {
	if provided == "" || storedHash == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(HashOTP(provided)), []byte(storedHash)) == 1
}
