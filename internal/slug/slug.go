// Package slug turns titles into URL path segments.
package slug

import (
	"strconv"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

const MaxLength = 96

// Make lowercases s, strips diacritics and joins runs of letters and digits
// with single dashes. "Crème Brûlée (2024)" becomes "creme-brulee-2024".
func Make(s string) string {
	t := transform.Chain(norm.NFKD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, s)
	if err != nil {
		folded = s
	}

	var b strings.Builder
	pendingDash := false
	n := 0
	for _, r := range strings.ToLower(folded) {
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) {
			pendingDash = b.Len() > 0
			continue
		}
		if n >= MaxLength {
			break
		}
		if pendingDash {
			if n+1 >= MaxLength {
				break
			}
			b.WriteByte('-')
			n++
			pendingDash = false
		}
		b.WriteRune(r)
		n++
	}
	return b.String()
}

// WithSuffix returns base with a numeric suffix, keeping the result within
// MaxLength runes.
func WithSuffix(base string, n int) string {
	suffix := "-" + strconv.Itoa(n)
	r := []rune(base)
	if len(r)+len(suffix) > MaxLength {
		r = r[:MaxLength-len(suffix)]
	}
	return strings.TrimRight(string(r), "-") + suffix
}
