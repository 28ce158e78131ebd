package keys

import (
	"regexp"
	"strings"
	"testing"
	"unicode"
	"unicode/utf8"
)

func TestCoord_RoundsToThreeDecimals(t *testing.T) {
	k1 := Coord(59.32932, 18.06858)
	k2 := Coord(59.32931, 18.06858)
	if k1 != k2 {
		t.Fatalf("coordinates differing past 3 decimals must share a key:\n k1=%s\n k2=%s", k1, k2)
	}
	if k1 != "59.329:18.069" {
		t.Fatalf("Coord = %s, want 59.329:18.069", k1)
	}
	if k3 := Coord(59.330, 18.069); k3 == k1 {
		t.Fatalf("distinct rounded coordinates must differ")
	}
}

func TestSignal_Deterministic(t *testing.T) {
	k1 := Signal("Lake Vättern / north shore")
	k2 := Signal("Lake Vättern / north shore")
	if k1 != k2 {
		t.Fatalf("determinism failed:\n k1=%s\n k2=%s", k1, k2)
	}
}

func TestSignal_DistinctInputsDistinctKeys(t *testing.T) {
	// Sanitization collapses both to the same text; the hash suffix must
	// still split them.
	k1 := Signal("spot/a b")
	k2 := Signal("spot+a b")
	if k1 == k2 {
		t.Fatalf("distinct location keys collided: %s", k1)
	}
}

func TestSignal_TruncationKeepsValidUTF8(t *testing.T) {
	// Sanitize passes non-ASCII digits through, and the text cap lands
	// mid-rune here: 95 ASCII bytes then two-byte Arabic-Indic digits.
	long := strings.Repeat("a", 95) + "٣٣٣"
	k := Signal(long)
	if !utf8.ValidString(k) {
		t.Fatalf("truncation produced invalid UTF-8: %q", k)
	}

	text := strings.TrimPrefix(k, "sig:")
	text = text[:strings.LastIndex(text, ":")]
	if len(text) > 96 {
		t.Fatalf("text prefix is %d bytes, want <= 96", len(text))
	}

	if k != Signal(long) {
		t.Fatalf("truncated key not deterministic")
	}
}

func TestSignal_ASCIIOnlyWithHashSuffix(t *testing.T) {
	k := Signal("Mörrumsån pool 雪 12  ")
	for _, r := range k {
		if r > unicode.MaxASCII {
			t.Fatalf("non-ASCII rune leaked into key: %q in %s", r, k)
		}
	}
	if !regexp.MustCompile(`^sig:[a-z0-9:_\-.]*:[0-9a-f]{16}$`).MatchString(k) {
		t.Fatalf("unexpected key shape: %s", k)
	}
}
