package security

import (
	"crypto/rand"
	"crypto/subtle"
	"fmt"
	"math/big"
	"time"
)

const otpDigits = 6

// OTP is a short numeric one-time code and the instant it stops being valid.
type OTP struct {
	Code      string
	ExpiresAt time.Time
}

// OTPManager generates and validates one-time verification codes.
type OTPManager struct {
	ttl time.Duration
	now func() time.Time
}

// NewOTPManager creates an OTPManager whose codes live for ttl.
func NewOTPManager(ttl time.Duration) *OTPManager {
	return &OTPManager{
		ttl: ttl,
		now: time.Now,
	}
}

// TTL returns how long generated codes stay valid.
func (m *OTPManager) TTL() time.Duration {
	return m.ttl
}

// Generate returns a fresh 6-digit code expiring ttl from now.
func (m *OTPManager) Generate() (OTP, error) {
	max := big.NewInt(1)
	for range otpDigits {
		max.Mul(max, big.NewInt(10))
	}

	n, err := rand.Int(rand.Reader, max)
	if err != nil {
		return OTP{}, fmt.Errorf("generate otp: %w", err)
	}

	return OTP{
		Code:      fmt.Sprintf("%0*d", otpDigits, n.Int64()),
		ExpiresAt: m.now().Add(m.ttl),
	}, nil
}

// Validate reports whether supplied matches storedCode and now is strictly before storedExpiry.
// An empty stored code never validates.
func (m *OTPManager) Validate(storedCode string, storedExpiry time.Time, supplied string, now time.Time) bool {
	if storedCode == "" || supplied == "" {
		return false
	}

	if subtle.ConstantTimeCompare([]byte(storedCode), []byte(supplied)) != 1 {
		return false
	}

	return now.Before(storedExpiry)
}
