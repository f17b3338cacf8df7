// Package hint builds partial-reveal patterns and matches words against them.
//
// A pattern has one character per letter of its target word: a revealed
// letter, '_' for a hidden non-space character, or ' ' for a literal space.
package hint

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/samber/lo"

	"wordrill/internal/corpus"
)

const (
	Hidden = '_'
	Space  = ' '
)

// Pattern is a hint string; its length counts characters, not bytes.
type Pattern string

// Len returns the number of characters in the pattern.
func (p Pattern) Len() int { return utf8.RuneCountInString(string(p)) }

// Build reveals the characters of word at the revealed indexes. Spaces are
// always revealed.
func Build(word string, revealed map[int]struct{}) Pattern {
	var b strings.Builder
	for i, r := range []rune(word) {
		_, show := revealed[i]
		if r == Space || show {
			b.WriteRune(r)
			continue
		}
		b.WriteRune(Hidden)
	}
	return Pattern(b.String())
}

// Single returns a pattern of the given length with only letter revealed at pos.
func Single(length, pos int, letter rune) Pattern {
	runes := []rune(strings.Repeat(string(Hidden), length))
	runes[pos] = letter
	return Pattern(runes)
}

// Matches reports whether word is consistent with p.
func Matches(p Pattern, word string) bool {
	pr, wr := []rune(string(p)), []rune(word)
	if len(pr) != len(wr) {
		return false
	}
	for i, hc := range pr {
		wc := wr[i]
		switch hc {
		case Hidden:
			if wc == Space {
				return false
			}
		case Space:
			if wc != Space {
				return false
			}
		default:
			if unicode.ToLower(hc) != unicode.ToLower(wc) {
				return false
			}
		}
	}
	return true
}

// Match returns the candidates consistent with p, in their original order.
func Match(p Pattern, candidates []string) []string {
	return lo.Filter(candidates, func(w string, _ int) bool {
		return Matches(p, w)
	})
}

// ParseStart resolves an optional starting hint into a sweep cursor. The
// first character that is neither hidden nor a space sets the position, and
// its alphabet index sets the letter when it is a known letter. Hints of the
// wrong length are ignored.
func ParseStart(startHint string, length int, alphabet corpus.Alphabet) (pos, letterIndex int) {
	if startHint == "" || utf8.RuneCountInString(startHint) != length {
		return 0, 0
	}
	for i, r := range []rune(startHint) {
		if r == Hidden || r == Space {
			continue
		}
		if li := alphabet.Index(r); li >= 0 {
			return i, li
		}
		return i, 0
	}
	return 0, 0
}

// Display renders a pattern for a monospace chat block.
func Display(p Pattern) string {
	var b strings.Builder
	for _, r := range string(p) {
		switch r {
		case Hidden:
			b.WriteString("_ ")
		case Space:
			b.WriteString("    ")
		default:
			b.WriteRune(unicode.ToUpper(r))
			b.WriteByte(' ')
		}
	}
	return b.String()
}
