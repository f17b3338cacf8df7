package corpus

import (
	"fmt"
	"sort"
	"strings"

	"github.com/samber/lo"
)

// Lint reports entries that load but cannot be played as intended:
// repeated primary headwords and headwords with characters outside their
// language's alphabet. Repeated secondary headwords are separate senses and
// are not reported.
func (c *Corpus) Lint() []string {
	var problems []string

	primary := Headwords(c.Entries(LangEnglish))
	dupes := lo.FindDuplicates(lo.Map(primary, func(w string, _ int) string { return strings.ToLower(w) }))
	sort.Strings(dupes)
	for _, w := range dupes {
		problems = append(problems, fmt.Sprintf("%s: duplicate headword %q", LangEnglish, w))
	}

	for _, lang := range []string{LangEnglish, LangPolish} {
		alphabet, _ := AlphabetFor(lang)
		for _, e := range c.Entries(lang) {
			for _, r := range e.Headword {
				if r == ' ' || alphabet.Index(r) >= 0 {
					continue
				}
				problems = append(problems, fmt.Sprintf("%s: %q has %q, which is not in the alphabet", lang, e.Headword, r))
				break
			}
		}
	}
	return problems
}

// LengthCounts counts a language's entries per headword length.
func (c *Corpus) LengthCounts(lang string) map[int]int {
	return lo.CountValuesBy(c.Entries(lang), WordEntry.Len)
}
