// Package corpus loads the immutable word lists drills are played over.
package corpus

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"unicode/utf8"

	"github.com/samber/lo"
)

const (
	LangEnglish = "en"
	LangPolish  = "pl"
)

// Difficulty buckets by headword length.
const (
	Easy   = "easy"
	Medium = "medium"
	Hard   = "hard"
	Normal = "normal"
)

// WordEntry is a target word and every spelling that counts as guessing it.
type WordEntry struct {
	Headword string
	Answers  map[string]struct{}
	// Paired is the primary-language word a secondary entry translates.
	Paired string
	Lang   string
}

// Len returns the headword length in characters.
func (e WordEntry) Len() int { return utf8.RuneCountInString(e.Headword) }

// Accepts reports whether a normalized guess names this entry.
func (e WordEntry) Accepts(guess string) bool {
	_, ok := e.Answers[guess]
	return ok
}

// Tag is the display form of a dual-language sense, e.g. "kot(cat)".
func (e WordEntry) Tag() string {
	if e.Paired == "" {
		return e.Headword
	}
	return e.Headword + "(" + e.Paired + ")"
}

// Corpus is the loaded word lists, partitioned by difficulty for the primary
// language and kept whole for the secondary one. It is never mutated after Load.
type Corpus struct {
	byDifficulty map[string][]WordEntry
	secondary    []WordEntry
}

// LoadError is returned for malformed corpus input.
type LoadError struct {
	Source string
	Err    error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("corpus: load %s: %v", e.Source, e.Err)
}

func (e *LoadError) Unwrap() error { return e.Err }

type rawTranslation struct {
	Translation string `json:"translation"`
}

type rawMultiword struct {
	Multiword string `json:"multiword"`
}

type rawEntry struct {
	Theme        string                    `json:"theme"`
	Shortcut     string                    `json:"shortcut"`
	Translations map[string]rawTranslation `json:"translations"`
	Multiwords   []rawMultiword            `json:"multiwords"`
}

// LoadFile reads a corpus from a words.json file.
func LoadFile(path string) (*Corpus, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, &LoadError{Source: path, Err: err}
	}
	defer f.Close()
	return load(path, f)
}

// Load reads a corpus from r.
func Load(r io.Reader) (*Corpus, error) {
	return load("reader", r)
}

func load(source string, r io.Reader) (*Corpus, error) {
	var raw []rawEntry
	if err := json.NewDecoder(r).Decode(&raw); err != nil {
		return nil, &LoadError{Source: source, Err: err}
	}

	c := &Corpus{byDifficulty: map[string][]WordEntry{Easy: {}, Medium: {}, Hard: {}}}
	for i, re := range raw {
		theme := strings.TrimSpace(re.Theme)
		if theme == "" {
			return nil, &LoadError{Source: source, Err: fmt.Errorf("entry %d: empty theme", i)}
		}

		extras := []string{re.Shortcut}
		extras = append(extras, lo.Map(re.Multiwords, func(m rawMultiword, _ int) string { return m.Multiword })...)

		primary := WordEntry{Headword: theme, Lang: LangEnglish, Answers: make(map[string]struct{})}
		primary.accept(theme)
		for _, t := range re.Translations {
			primary.accept(t.Translation)
		}
		primary.accept(extras...)
		bucket := DifficultyFor(primary.Len())
		c.byDifficulty[bucket] = append(c.byDifficulty[bucket], primary)

		pl := strings.TrimSpace(re.Translations[LangPolish].Translation)
		if pl == "" {
			continue
		}
		secondary := WordEntry{Headword: pl, Paired: theme, Lang: LangPolish, Answers: make(map[string]struct{})}
		secondary.accept(pl, theme)
		secondary.accept(extras...)
		c.secondary = append(c.secondary, secondary)
	}
	return c, nil
}

func (e *WordEntry) accept(phrases ...string) {
	for _, p := range phrases {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		for _, v := range Normalize(p) {
			e.Answers[v] = struct{}{}
		}
	}
}

// DifficultyFor returns the bucket a word of length n belongs to. Anything
// outside 3-8 lands in hard.
func DifficultyFor(n int) string {
	switch {
	case n >= 3 && n <= 5:
		return Easy
	case n >= 6 && n <= 8:
		return Medium
	default:
		return Hard
	}
}

// Bucket returns the primary-language entries for a difficulty. Normal is
// every bucket in easy, medium, hard order.
func (c *Corpus) Bucket(difficulty string) ([]WordEntry, bool) {
	if difficulty == Normal {
		return c.Entries(LangEnglish), true
	}
	entries, ok := c.byDifficulty[difficulty]
	return entries, ok
}

// Entries returns every entry of a language.
func (c *Corpus) Entries(lang string) []WordEntry {
	switch lang {
	case LangEnglish:
		return lo.Flatten([][]WordEntry{c.byDifficulty[Easy], c.byDifficulty[Medium], c.byDifficulty[Hard]})
	case LangPolish:
		return c.secondary
	}
	return nil
}

// OfLength returns the entries of a language whose headword has n characters.
func (c *Corpus) OfLength(lang string, n int) []WordEntry {
	return lo.Filter(c.Entries(lang), func(e WordEntry, _ int) bool {
		return e.Len() == n
	})
}

// Has reports whether any entries were loaded for lang.
func (c *Corpus) Has(lang string) bool {
	return len(c.Entries(lang)) > 0
}

// Stats counts entries per difficulty bucket and per secondary language.
func (c *Corpus) Stats() map[string]int {
	return map[string]int{
		Easy:       len(c.byDifficulty[Easy]),
		Medium:     len(c.byDifficulty[Medium]),
		Hard:       len(c.byDifficulty[Hard]),
		LangPolish: len(c.secondary),
	}
}

// Headwords returns the literal forms of entries, in order.
func Headwords(entries []WordEntry) []string {
	return lo.Map(entries, func(e WordEntry, _ int) string { return e.Headword })
}

// Provider is the boundary the corpus is loaded through.
type Provider interface {
	LoadCorpus() (*Corpus, error)
}

// FileProvider loads the corpus from a words.json path.
type FileProvider struct {
	Path string
}

// LoadCorpus implements Provider.
func (p FileProvider) LoadCorpus() (*Corpus, error) {
	return LoadFile(p.Path)
}
