package payhero

import (
	"math"
	"strings"
)

// NormalizePhone converts the accepted input forms of a Kenyan mobile number
// to the local 0XXXXXXXXX form the gateway expects. Unrecognised input is
// returned with only '+' and whitespace removed.
func NormalizePhone(phone string) string {
	cleaned := strings.Map(func(r rune) rune {
		if r == '+' || r == ' ' || r == '\t' || r == '\n' || r == '\r' {
			return -1
		}
		return r
	}, phone)

	switch {
	case strings.HasPrefix(cleaned, "254"):
		return "0" + cleaned[3:]
	case len(cleaned) == 9 && (cleaned[0] == '7' || cleaned[0] == '1'):
		return "0" + cleaned
	}
	return cleaned
}

// RoundAmount rounds to the nearest whole shilling, halves away from zero.
func RoundAmount(amount float64) int64 {
	return int64(math.Round(amount))
}
