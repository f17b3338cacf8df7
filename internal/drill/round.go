package drill

import (
	"slices"
	"sort"

	"github.com/samber/lo"

	"wordrill/internal/corpus"
	"wordrill/internal/hint"
)

// round is one hint and the targets that must all be named before its deadline.
type round struct {
	pattern hint.Pattern
	// targets are the distinct headwords matching the pattern, in corpus order.
	targets []string
	// answers maps a normalized answer to every target it can name.
	answers  map[string][]string
	senses   map[string][]string
	credited map[string]struct{}
	// spent are answers that already credited a target.
	spent map[string]struct{}
}

func newRound(p hint.Pattern, entries []corpus.WordEntry) *round {
	r := &round{
		pattern:  p,
		answers:  make(map[string][]string),
		senses:   make(map[string][]string),
		credited: make(map[string]struct{}),
		spent:    make(map[string]struct{}),
	}
	matched := lo.Filter(entries, func(e corpus.WordEntry, _ int) bool {
		return hint.Matches(p, e.Headword)
	})
	for _, e := range matched {
		base := e.Headword
		if _, seen := r.senses[base]; !seen {
			r.targets = append(r.targets, base)
		}
		r.senses[base] = append(r.senses[base], e.Tag())
		for a := range e.Answers {
			if !slices.Contains(r.answers[a], base) {
				r.answers[a] = append(r.answers[a], base)
			}
		}
	}
	return r
}

func (r *round) empty() bool { return len(r.targets) == 0 }

// claimable reports whether guess would credit a target.
func (r *round) claimable(guess string) bool {
	if _, used := r.spent[guess]; used {
		return false
	}
	return lo.SomeBy(r.answers[guess], func(t string) bool {
		_, done := r.credited[t]
		return !done
	})
}

// credit marks the first uncredited target named by guess. An answer credits
// at most one target per round, even when it names several.
func (r *round) credit(guess string) (string, bool) {
	if _, used := r.spent[guess]; used {
		return "", false
	}
	for _, t := range r.answers[guess] {
		if _, done := r.credited[t]; !done {
			r.credited[t] = struct{}{}
			r.spent[guess] = struct{}{}
			return t, true
		}
	}
	return "", false
}

func (r *round) complete() bool { return len(r.credited) == len(r.targets) }

func (r *round) progress() (got, need int) { return len(r.credited), len(r.targets) }

func (r *round) missed() []string {
	return lo.Filter(r.targets, func(t string, _ int) bool {
		_, done := r.credited[t]
		return !done
	})
}

// key lists every sense consistent with the hint.
func (r *round) key() []string {
	out := lo.FlatMap(r.targets, func(t string, _ int) []string { return r.senses[t] })
	sort.Strings(out)
	return lo.Uniq(out)
}
