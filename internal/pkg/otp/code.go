package otp

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"strings"
)

// NumericCode returns a random numeric code of the given length using
// crypto/rand. Lengths below one fall back to six digits.
func NumericCode(length int) (string, error) {
	if length < 1 {
		length = 6
	}

	var b strings.Builder
	b.Grow(length)

	max := big.NewInt(10)
	for range length {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", fmt.Errorf("otp: random digit: %w", err)
		}
		b.WriteByte(byte('0' + n.Int64()))
	}

	return b.String(), nil
}
