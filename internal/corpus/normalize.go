package corpus

import (
	"strings"

	"github.com/samber/lo"
)

// foldTable maps Polish diacritics to their ASCII base letter.
var foldTable = map[rune]rune{
	'ą': 'a', 'Ą': 'a',
	'ć': 'c', 'Ć': 'c',
	'ę': 'e', 'Ę': 'e',
	'ł': 'l', 'Ł': 'l',
	'ń': 'n', 'Ń': 'n',
	'ó': 'o', 'Ó': 'o',
	'ś': 's', 'Ś': 's',
	'ź': 'z', 'Ź': 'z',
	'ż': 'z', 'Ż': 'z',
}

// Fold replaces accented letters with their unaccented base.
func Fold(s string) string {
	return strings.Map(func(r rune) rune {
		if base, ok := foldTable[r]; ok {
			return base
		}
		return r
	}, s)
}

// Normalize returns the accepted spellings of a phrase: lowercase, lowercase
// without spaces, and the folded form of both.
func Normalize(phrase string) []string {
	low := strings.ToLower(phrase)
	folded := Fold(low)
	return lo.Uniq([]string{
		low,
		strings.ReplaceAll(low, " ", ""),
		folded,
		strings.ReplaceAll(folded, " ", ""),
	})
}

// NormalizeGuess trims and lowercases raw chat text for answer lookup.
func NormalizeGuess(text string) string {
	return strings.ToLower(strings.TrimSpace(text))
}
