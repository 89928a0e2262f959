package orders

import (
	"crypto/rand"
	"time"
)

const otpDigits = 6

// OTPValidity bounds how long a generated delivery code stays usable.
const OTPValidity = 5 * time.Minute

// GenerateOTP returns a 6-digit numeric code from a cryptographically strong
// source. Leading zeros are kept (the code is a string, not a number).
func GenerateOTP() (string, error) {
	const digits = "0123456789"
	buf := make([]byte, otpDigits)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	for i := range buf {
		buf[i] = digits[int(buf[i])%len(digits)]
	}
	return string(buf), nil
}
