package utils

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"time"
)

// OTPLength is the number of digits in every one-time password
const OTPLength = 6

var otpSpace = big.NewInt(1_000_000)

// GenerateSecureOTP generates a cryptographically secure 6-digit OTP
func GenerateSecureOTP() (string, error) {
	n, err := rand.Int(rand.Reader, otpSpace)
	if err != nil {
		return "", fmt.Errorf("failed to generate random number: %w", err)
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}

// GenerateSecureID generates a human-readable order reference
func GenerateSecureID(prefix string) (string, error) {
	n, err := rand.Int(rand.Reader, otpSpace)
	if err != nil {
		return "", fmt.Errorf("failed to generate random number: %w", err)
	}
	// timestamp + random for uniqueness
	return fmt.Sprintf("%s%d%06d", prefix, time.Now().Unix(), n.Int64()), nil
}
