package corpus

import "unicode"

// Alphabet is the ordered letter set a memorize session sweeps.
type Alphabet struct {
	letters []rune
	index   map[rune]int
}

func newAlphabet(letters string) Alphabet {
	a := Alphabet{letters: []rune(letters), index: make(map[rune]int)}
	for i, r := range a.letters {
		a.index[r] = i
	}
	return a
}

var (
	English = newAlphabet("abcdefghijklmnopqrstuvwxyz")
	Polish  = newAlphabet("aąbcćdeęfghijklłmnńoópqrsśtuvwxyzźż")
)

// AlphabetFor returns the alphabet used for lang.
func AlphabetFor(lang string) (Alphabet, bool) {
	switch lang {
	case LangEnglish:
		return English, true
	case LangPolish:
		return Polish, true
	}
	return Alphabet{}, false
}

// Size is the number of letters.
func (a Alphabet) Size() int { return len(a.letters) }

// Letter returns the letter at i.
func (a Alphabet) Letter(i int) rune { return a.letters[i] }

// Index returns the position of r (case-insensitive), or -1.
func (a Alphabet) Index(r rune) int {
	if i, ok := a.index[unicode.ToLower(r)]; ok {
		return i
	}
	return -1
}
