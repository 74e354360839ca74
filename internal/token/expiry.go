package token

import (
	"math"
	"strconv"
	"strings"
	"time"
)

// IsExpired reports whether expiresAt (epoch seconds) is strictly before
// now. A value with no leading integer never expires.
func IsExpired(expiresAt string, now time.Time) bool {
	expiry := ParseInt(expiresAt)
	current := float64(now.UnixMilli()) / 1000
	// NaN compares false.
	return expiry < current
}

// ParseInt reads the leading integer of s the way JavaScript's parseInt
// does without a radix: leading whitespace is skipped, a sign and a 0x
// prefix are accepted, and parsing stops at the first non-digit. It
// returns NaN when no digits are found.
func ParseInt(s string) float64 {
	s = strings.TrimLeft(s, " \t\n\v\f\r\u00a0\ufeff")

	sign := 1.0
	if s != "" && (s[0] == '+' || s[0] == '-') {
		if s[0] == '-' {
			sign = -1
		}
		s = s[1:]
	}

	base := 10
	if len(s) >= 2 && s[0] == '0' && (s[1] == 'x' || s[1] == 'X') {
		base = 16
		s = s[2:]
	}

	end := 0
	for end < len(s) && isDigit(s[end], base) {
		end++
	}
	if end == 0 {
		return math.NaN()
	}

	digits := s[:end]
	if base == 10 {
		// ParseFloat keeps very long digit runs finite, as JavaScript does.
		v, err := strconv.ParseFloat(digits, 64)
		if err != nil {
			return sign * math.Inf(1)
		}
		return sign * v
	}

	v := 0.0
	for i := 0; i < len(digits); i++ {
		v = v*16 + float64(hexValue(digits[i]))
	}
	return sign * v
}

func isDigit(c byte, base int) bool {
	if c >= '0' && c <= '9' {
		return true
	}
	if base == 16 {
		return (c >= 'a' && c <= 'f') || (c >= 'A' && c <= 'F')
	}
	return false
}

func hexValue(c byte) int {
	switch {
	case c >= '0' && c <= '9':
		return int(c - '0')
	case c >= 'a' && c <= 'f':
		return int(c-'a') + 10
	default:
		return int(c-'A') + 10
	}
}
