package drill

import (
	"context"
	"fmt"
	"math/rand/v2"
	"strings"
	"time"
	"unicode"

	"github.com/samber/lo"

	"wordrill/internal/corpus"
	"wordrill/internal/hint"
	"wordrill/internal/types"
)

// runSingle plays continuous single rounds: one random word, one revealed
// letter, up to MaxHints escalating hints. It only returns when cancelled.
func (c *Controller) runSingle(ctx context.Context, s *Session, p plan) error {
	words := corpus.Headwords(p.entries)
	for {
		if ctx.Err() != nil {
			return errCancelled
		}
		entry := lo.Sample(p.entries)
		word := []rune(entry.Headword)
		letters := lo.Filter(lo.Range(len(word)), func(i, _ int) bool { return word[i] != hint.Space })
		revealed := map[int]struct{}{lo.Sample(letters): {}}
		initial := hint.Build(entry.Headword, revealed)
		current := initial

		solved := false
		for n := 1; n <= c.timings.MaxHints; n++ {
			if n > 1 {
				left := lo.Filter(letters, func(i, _ int) bool {
					_, shown := revealed[i]
					return !shown
				})
				if len(left) > 0 {
					revealed[lo.Sample(left)] = struct{}{}
				}
				current = hint.Build(entry.Headword, revealed)
			}

			deadline := time.Now().Add(c.timings.HintTimeout)
			s.openRound(current, deadline)
			text := fmt.Sprintf("Hint %d:\n%s", n, hint.Display(current))
			if n == 1 {
				text = fmt.Sprintf("New word! Length: %d. %s", len(word), text)
			}
			c.notify(s, types.Notice{Kind: types.NoticeHint, Text: text, Hint: string(current), Deadline: deadline, Need: 1})

			ev, out := c.awaitEvent(ctx, s.events, func(ev types.Event) bool {
				return entry.Accepts(corpus.NormalizeGuess(ev.Text))
			}, deadline)
			if out == Cancelled {
				return errCancelled
			}
			if out == Matched {
				s.addGuessed(entry.Headword)
				c.notify(s, types.Notice{
					Kind:  types.NoticeCorrect,
					Text:  fmt.Sprintf("%s guessed the word %s!", ev.ParticipantID, entry.Headword),
					Words: []string{entry.Headword},
					Got:   1,
					Need:  1,
				})
				solved = true
				break
			}
		}

		if !solved {
			c.notify(s, types.Notice{
				Kind:  types.NoticeReveal,
				Text:  fmt.Sprintf("No one guessed the word. It was %s.", entry.Headword),
				Words: []string{entry.Headword},
			})
		}
		key := hint.Match(initial, words)
		c.notify(s, types.Notice{
			Kind:  types.NoticeAnswerKey,
			Text:  "Words that matched the initial hint:\n" + strings.Join(key, ", "),
			Hint:  string(initial),
			Words: key,
		})
	}
}

// runExhaustive sweeps every (position, letter) cell from the session's start
// cursor. A failed round is retried until it is completed or the session is
// stopped.
func (c *Controller) runExhaustive(ctx context.Context, s *Session, p plan) error {
	start := s.Cursor()
	first := start.LetterIndex
	for pos := start.Position; pos < s.Length; pos++ {
		for li := first; li < p.alphabet.Size(); {
			if ctx.Err() != nil {
				return errCancelled
			}
			cur := Cursor{Position: pos, LetterIndex: li}
			s.setCursor(cur)
			r := newRound(hint.Single(s.Length, pos, p.alphabet.Letter(li)), p.entries)
			if r.empty() {
				li++
				continue
			}

			done, err := c.playRound(ctx, s, r, c.cellLabel(s, p, cur))
			if err != nil {
				return err
			}
			if done {
				if err := c.succeed(s, cur); err != nil {
					return err
				}
				c.notify(s, types.Notice{Kind: types.NoticeComplete, Text: "All words for this hint guessed! Moving on."})
				li++
				continue
			}

			s.setState(StateRetrying)
			if err := c.ledger.EndRun(s.Owner, s.Lang, s.Length); err != nil {
				return err
			}
			key := r.key()
			c.notify(s, types.Notice{
				Kind:  types.NoticeFailed,
				Text:  "Time's up or some words were missed!\nHere are all correct words:\n" + strings.Join(key, ", "),
				Hint:  string(r.pattern),
				Words: key,
			})
			if err := c.pause(ctx, s, c.timings.RetryPause); err != nil {
				return err
			}
			c.notify(s, types.Notice{
				Kind: types.NoticeRetry,
				Text: "Let's retry the same hint:\n" + hint.Display(r.pattern),
				Hint: string(r.pattern),
			})
		}
		first = 0
	}
	c.notify(s, types.Notice{Kind: types.NoticeFinished, Text: "Finished all hints."})
	return nil
}

// runRandom plays independent random cells until a round is failed.
func (c *Controller) runRandom(ctx context.Context, s *Session, p plan) error {
	for {
		if ctx.Err() != nil {
			return errCancelled
		}
		entry := lo.Sample(p.drawable)
		positions := drawPositions(entry.Headword, p.alphabet)
		pos := positions[rand.IntN(len(positions))]
		letter := unicode.ToLower([]rune(entry.Headword)[pos])
		cur := Cursor{Position: pos, LetterIndex: p.alphabet.Index(letter)}
		s.setCursor(cur)

		r := newRound(hint.Single(s.Length, pos, letter), p.entries)
		done, err := c.playRound(ctx, s, r, "Random hint")
		if err != nil {
			return err
		}
		if done {
			if err := c.succeed(s, cur); err != nil {
				return err
			}
			c.notify(s, types.Notice{Kind: types.NoticeComplete, Text: "All words for this hint guessed! Next random hint."})
			continue
		}

		if err := c.ledger.EndRun(s.Owner, s.Lang, s.Length); err != nil {
			return err
		}
		missed := r.missed()
		c.notify(s, types.Notice{
			Kind:  types.NoticeFailed,
			Text:  "Time's up or miss detected! Missed:\n" + strings.Join(missed, ", "),
			Hint:  string(r.pattern),
			Words: missed,
		})
		c.notify(s, types.Notice{Kind: types.NoticeFinished, Text: "Session over."})
		return nil
	}
}

// playRound opens r and credits guesses until every target is named or the
// deadline passes.
func (c *Controller) playRound(ctx context.Context, s *Session, r *round, label string) (bool, error) {
	_, need := r.progress()
	deadline := time.Now().Add(c.timings.RoundBase + time.Duration(need)*c.timings.RoundPerMatch)
	s.openRound(r.pattern, deadline)
	c.notify(s, types.Notice{
		Kind: types.NoticeHint,
		Text: fmt.Sprintf("%s\nHint:\n%s\nGuess all %d word(s) in %s. Type %s to stop.",
			label, hint.Display(r.pattern), need, time.Until(deadline).Round(time.Second), c.stopKeyword),
		Hint:     string(r.pattern),
		Need:     need,
		Deadline: deadline,
	})

	for !r.complete() {
		ev, out := c.awaitEvent(ctx, s.events, func(ev types.Event) bool {
			return r.claimable(corpus.NormalizeGuess(ev.Text))
		}, deadline)
		switch out {
		case Cancelled:
			return false, errCancelled
		case TimedOut:
			return false, nil
		}

		target, _ := r.credit(corpus.NormalizeGuess(ev.Text))
		s.addGuessed(target)
		got, need := r.progress()
		c.notify(s, types.Notice{
			Kind:  types.NoticeProgress,
			Text:  fmt.Sprintf("%s guessed! (%s) Progress: %d/%d", target, strings.Join(r.senses[target], ", "), got, need),
			Words: r.senses[target],
			Got:   got,
			Need:  need,
		})
	}
	return true, nil
}

// succeed records a completed cell in the ledger.
func (c *Controller) succeed(s *Session, cur Cursor) error {
	s.setState(StateAdvancing)
	if err := c.ledger.BumpRepetition(s.Owner, s.Lang, s.Length, cur.Position, cur.LetterIndex); err != nil {
		return err
	}
	return c.ledger.AdvanceOnSuccess(s.Owner, s.Lang, s.Length, cur.Position, cur.LetterIndex, time.Now())
}

func (c *Controller) cellLabel(s *Session, p plan, cur Cursor) string {
	return fmt.Sprintf("Memorize: position %d/%d, letter %c", cur.Position+1, s.Length,
		unicode.ToUpper(p.alphabet.Letter(cur.LetterIndex)))
}

// drawPositions lists the indexes of word holding a letter of the alphabet.
func drawPositions(word string, alphabet corpus.Alphabet) []int {
	var out []int
	for i, r := range []rune(word) {
		if r != hint.Space && alphabet.Index(r) >= 0 {
			out = append(out, i)
		}
	}
	return out
}
