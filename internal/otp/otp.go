// Package otp generates and checks the one-time codes used for email
// verification.
package otp

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"time"
)

const DefaultLength = 6

// Generate returns a zero-padded numeric code of the given length, drawn
// uniformly from 0..10^length-1.
func Generate(length int) (string, error) {
	if length <= 0 {
		length = DefaultLength
	}

	max := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(length)), nil)
	n, err := rand.Int(rand.Reader, max)
	if err != nil {
		return "", fmt.Errorf("failed to generate otp: %w", err)
	}

	return fmt.Sprintf("%0*d", length, n), nil
}

// Expiry computes the expiry instant for a code issued at now. The result is
// always in UTC so stored timestamps and comparisons never drift with the
// server's local zone.
func Expiry(now time.Time, window time.Duration) time.Time {
	return now.UTC().Add(window)
}

// Expired reports whether a code has expired at the given instant. The
// boundary is inclusive: a code checked exactly at its expiry is expired.
// Both instants are normalized to UTC before comparison.
func Expired(now, expiresAt time.Time) bool {
	return !now.UTC().Before(expiresAt.UTC())
}
