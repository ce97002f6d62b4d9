package correlation

import (
	"math"

	"github.com/MtnBiker/convert-apple-health-export/pkg/common/models"
)

// resolveHeartRate picks the resting value when it is numerically larger
// than the heart-rate value. An absent reading ranks below every present
// one, so whichever side is present wins when the other is missing.
func resolveHeartRate(heart, resting models.Reading) models.Reading {
	if rank(heart) < rank(resting) {
		return resting
	}
	return heart
}

func rank(r models.Reading) int64 {
	if !r.Present {
		return math.MinInt64
	}
	return LenientInt(r.Value)
}

// LenientInt reads the leading integer of s the way a forgiving numeric
// parser would: optional leading whitespace and sign, then digits up to
// the first non-digit ("72.5" is 72). Text without leading digits is 0.
// Values past the int64 range saturate.
func LenientInt(s string) int64 {
	i := 0
	for i < len(s) && isSpace(s[i]) {
		i++
	}

	negative := false
	if i < len(s) && (s[i] == '+' || s[i] == '-') {
		negative = s[i] == '-'
		i++
	}

	var n int64
	for ; i < len(s); i++ {
		c := s[i]
		if c == '_' && i > 0 && isDigit(s[i-1]) && i+1 < len(s) && isDigit(s[i+1]) {
			continue
		}
		if !isDigit(c) {
			break
		}
		d := int64(c - '0')
		if n > (math.MaxInt64-d)/10 {
			if negative {
				return math.MinInt64 + 1
			}
			return math.MaxInt64
		}
		n = n*10 + d
	}

	if negative {
		return -n
	}
	return n
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}

func isSpace(c byte) bool {
	switch c {
	case ' ', '\t', '\n', '\v', '\f', '\r':
		return true
	}
	return false
}
