package services

import (
	"fmt"

	"golang.org/x/crypto/bcrypt"

	"github.com/Ananth-NQI/washpe-backend/internal/utils"
)

// OTPService issues one-time passwords and keeps only their bcrypt hashes
type OTPService struct {
	cost int
}

func NewOTPService(cost int) *OTPService {
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	return &OTPService{cost: cost}
}

// Generate returns a fresh code and the hash to store in its place
func (s *OTPService) Generate() (code, hash string, err error) {
	code, err = utils.GenerateSecureOTP()
	if err != nil {
		return "", "", err
	}
	h, err := bcrypt.GenerateFromPassword([]byte(code), s.cost)
	if err != nil {
		return "", "", fmt.Errorf("failed to hash OTP: %w", err)
	}
	return code, string(h), nil
}

// Matches reports whether code is the one hash was generated from
func (s *OTPService) Matches(hash, code string) bool {
	if hash == "" || len(code) != utils.OTPLength {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(code)) == nil
}
