package domain

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"strings"
	"time"
)

const ReferencePrefix = "GPY"

const referenceLetters = "ABCDEFGHIJKLMNOPQRSTUVWXYZ"

// NewReference builds an intent reference: GPY, the last eight digits of the
// unix millisecond clock and three random uppercase letters.
func NewReference(now time.Time) (string, error) {
	var b strings.Builder
	b.WriteString(ReferencePrefix)
	b.WriteString(fmt.Sprintf("%08d", now.UnixMilli()%100_000_000))

	max := big.NewInt(int64(len(referenceLetters)))
	for i := 0; i < 3; i++ {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", fmt.Errorf("failed to generate reference: %w", err)
		}
		b.WriteByte(referenceLetters[n.Int64()])
	}

	return b.String(), nil
}
