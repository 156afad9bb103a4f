package sixbit

import (
	"fmt"
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// TextChar returns the character for a six-bit text value.
func TextChar(v byte) byte {
	v &= 0x3f
	if v < 32 {
		return v + 64
	}
	return v
}

// TextValue returns the six-bit value of a text character. Only upper case letters, digits,
// space, '@' and a small set of punctuation are representable.
func TextValue(c byte) (byte, error) {
	switch {
	case c >= 64 && c < 96:
		return c - 64, nil
	case c >= 32 && c < 64:
		return c, nil
	default:
		return 0, fmt.Errorf("%w in text: %q", ErrInvalidCharacter, c)
	}
}

// ValidText reports whether every character of s is representable in six-bit text.
func ValidText(s string) bool {
	for i := 0; i < len(s); i++ {
		if _, err := TextValue(s[i]); err != nil {
			return false
		}
	}
	return true
}

var upper = cases.Upper(language.Und)

// Sanitize brings arbitrary text into the six-bit alphabet: diacritics are stripped, letters are
// converted to upper case and any remaining unrepresentable character is replaced by a space.
func Sanitize(s string) string {
	stripped, _, err := transform.String(transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC), s)
	if err != nil {
		stripped = s
	}
	stripped = upper.String(stripped)

	var result strings.Builder
	for _, r := range stripped {
		if r < 128 && ValidText(string(r)) {
			result.WriteRune(r)
		} else {
			result.WriteByte(' ')
		}
	}
	return result.String()
}

// normalizeText cuts decoded text at the first '@' and removes trailing spaces.
func normalizeText(s string) string {
	if i := strings.IndexByte(s, '@'); i >= 0 {
		s = s[:i]
	}
	return strings.TrimRight(s, " ")
}
