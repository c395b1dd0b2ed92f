package recipe

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// NormalizeName trims and case-folds an item name so that "Classic Burger",
// " classic burger " and "CLASSIC BURGER" share one key.
func NormalizeName(name string) string {
	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		return ""
	}
	// Casers are stateful and must not be shared between goroutines
	return norm.NFKC.String(cases.Fold().String(trimmed))
}

// Slugify turns an item name into an inventory SKU: diacritics stripped,
// runs of anything that is not a letter or digit collapsed into one dash.
func Slugify(name string) string {
	normalized := NormalizeName(name)
	if normalized == "" {
		return ""
	}

	stripper := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	plain, _, err := transform.String(stripper, normalized)
	if err != nil {
		plain = normalized
	}

	var b strings.Builder
	b.Grow(len(plain))
	pendingDash := false
	for _, r := range plain {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			if pendingDash && b.Len() > 0 {
				b.WriteByte('-')
			}
			pendingDash = false
			b.WriteRune(r)
			continue
		}
		pendingDash = true
	}
	return b.String()
}
