// Package keys derives cache and store keys from coordinates and
// user-supplied location keys.
package keys

import (
	"fmt"
	"math"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/cespare/xxhash/v2"
)

// Coord returns the forecast cache key for a coordinate, rounded to
// three decimals so nearby requests share an entry.
func Coord(lat, lon float64) string {
	return fmt.Sprintf("%.3f:%.3f", round3(lat), round3(lon))
}

func round3(v float64) float64 {
	return math.Round(v*1000) / 1000
}

// Signal returns the persisted-signal store key for a location key.
// Location keys are free-form user input; the sanitized form keeps the
// key readable and the hash keeps distinct inputs distinct.
func Signal(locationKey string) string {
	raw := strings.TrimSpace(locationKey)
	safe := truncate(sanitize(raw), maxKeyTextLen)

	sum := xxhash.Sum64String(raw)
	return fmt.Sprintf("sig:%s:%016x", safe, sum)
}

// Samples returns the catch-sample list key for a location key. The
// suffix matches Signal so the two stay adjacent in keyspace scans.
func Samples(locationKey string) string {
	raw := strings.TrimSpace(locationKey)
	safe := truncate(sanitize(raw), maxKeyTextLen)

	sum := xxhash.Sum64String(raw)
	return fmt.Sprintf("samples:%s:%016x", safe, sum)
}

// Angler returns the profile document key for a user ID.
func Angler(userID string) string {
	return "angler:" + sanitize(strings.TrimSpace(userID))
}

const maxKeyTextLen = 96

// truncate caps s at max bytes without splitting a rune: sanitize
// passes through non-ASCII digits, so a byte cut could leave invalid
// UTF-8 in the readable prefix.
func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	for max > 0 && !utf8.RuneStart(s[max]) {
		max--
	}
	return s[:max]
}

func sanitize(s string) string {
	if s == "" {
		return ""
	}
	var b strings.Builder
	b.Grow(len(s))
	var prev rune
	for _, r := range strings.ToLower(s) {
		var out rune
		switch {
		case isASCIIWhitespace(r):
			out = '_'
		case isAlphaNum(r) || r == '_' || r == '-' || r == '.':
			out = r
		default:
			out = '-'
		}
		if (out == '_' || out == '-') && out == prev {
			continue
		}
		b.WriteRune(out)
		prev = out
	}
	return b.String()
}

func isASCIIWhitespace(r rune) bool {
	return r == ' ' || r == '\t' || r == '\n' || r == '\r' || r == '\v' || r == '\f'
}

func isAlphaNum(r rune) bool {
	return (r >= 'a' && r <= 'z') ||
		(r >= 'A' && r <= 'Z') ||
		unicode.IsDigit(r)
}
