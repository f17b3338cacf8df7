package drill

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wordrill/internal/corpus"
	"wordrill/internal/hint"
	"wordrill/internal/ledger"
	"wordrill/internal/types"
)

const waitFor = 3 * time.Second

// recorder collects notices and lets tests wait for a given kind.
type recorder struct {
	mu      sync.Mutex
	notices []types.Notice
	ch      chan types.Notice
}

func newRecorder() *recorder {
	return &recorder{ch: make(chan types.Notice, 1024)}
}

func (r *recorder) Notify(n types.Notice) {
	r.mu.Lock()
	r.notices = append(r.notices, n)
	r.mu.Unlock()
	select {
	case r.ch <- n:
	default:
	}
}

// next returns the next notice of kind, skipping others.
func (r *recorder) next(t *testing.T, kind types.NoticeKind) types.Notice {
	t.Helper()
	timeout := time.After(waitFor)
	for {
		select {
		case n := <-r.ch:
			if n.Kind == kind {
				return n
			}
		case <-timeout:
			t.Fatalf("no %s notice within %v", kind, waitFor)
			return types.Notice{}
		}
	}
}

func (r *recorder) count(kind types.NoticeKind) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, x := range r.notices {
		if x.Kind == kind {
			n++
		}
	}
	return n
}

const testWords = `[
  {"theme": "cat", "translations": {"pl": {"translation": "kot"}}},
  {"theme": "car"},
  {"theme": "dog", "shortcut": "dg"},
  {"theme": "garden"}
]`

func loadCorpus(t *testing.T, js string) *corpus.Corpus {
	t.Helper()
	c, err := corpus.Load(strings.NewReader(js))
	require.NoError(t, err)
	return c
}

func fastTimings(round time.Duration) Timings {
	return Timings{
		HintTimeout:   round,
		MaxHints:      3,
		RoundBase:     round,
		RoundPerMatch: 0,
		RetryPause:    10 * time.Millisecond,
	}
}

type fixture struct {
	ctl    *Controller
	ledger *ledger.Ledger
	store  *ledger.MemoryStore
	rec    *recorder
}

func newFixture(t *testing.T, js string, timings Timings) *fixture {
	t.Helper()
	store := &ledger.MemoryStore{}
	l, err := ledger.New(store, ledger.WithPersistAttempts(1))
	require.NoError(t, err)
	rec := newRecorder()
	ctl := New(loadCorpus(t, js), l, rec, WithTimings(timings))
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), waitFor)
		defer cancel()
		_ = ctl.Shutdown(ctx)
	})
	return &fixture{ctl: ctl, ledger: l, store: store, rec: rec}
}

func (f *fixture) say(t *testing.T, scope, who, text string) {
	t.Helper()
	require.True(t, f.ctl.Deliver(context.Background(), types.Event{ScopeID: scope, ParticipantID: who, Text: text}))
}

func waitDone(t *testing.T, s *Session) {
	t.Helper()
	select {
	case <-s.Done():
	case <-time.After(waitFor):
		t.Fatal("session did not terminate")
	}
}

func TestStart_AlreadyActive(t *testing.T) {
	f := newFixture(t, testWords, fastTimings(time.Minute))
	first, err := f.ctl.Start(context.Background(), types.StartRequest{
		ScopeID: "chan-1", UserID: "u1", Mode: "exhaustive", Language: "en", Length: 3, StartingHint: "_a_",
	})
	require.NoError(t, err)
	f.rec.next(t, types.NoticeHint)
	before := first.View()

	_, err = f.ctl.Start(context.Background(), types.StartRequest{
		ScopeID: "chan-1", UserID: "u2", Mode: "random", Language: "en", Length: 3,
	})
	require.ErrorIs(t, err, ErrAlreadyActive)

	s, ok := f.ctl.Session("chan-1")
	require.True(t, ok)
	assert.Same(t, first, s)
	after := first.View()
	assert.Equal(t, before.Position, after.Position)
	assert.Equal(t, before.LetterIndex, after.LetterIndex)
	assert.Equal(t, before.Hint, after.Hint)
	assert.Equal(t, "u1", after.Owner)
	assert.Equal(t, ledger.RunState{}, f.ledger.Run("u2", "en", 3), "rejected start touches no ledger entry")

	// Another scope is independent.
	other, err := f.ctl.Start(context.Background(), types.StartRequest{
		ScopeID: "chan-2", UserID: "u2", Mode: "exhaustive", Language: "en", Length: 3,
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"chan-1", "chan-2"}, f.ctl.Active())
	require.True(t, f.ctl.Stop("chan-2"))
	waitDone(t, other)
}

func TestStart_Validation(t *testing.T) {
	f := newFixture(t, testWords, fastTimings(time.Minute))
	tests := []struct {
		name string
		req  types.StartRequest
		want error
	}{
		{"missing scope", types.StartRequest{Mode: "random", Language: "en", Length: 3}, ErrMissingScope},
		{"unknown mode", types.StartRequest{ScopeID: "c", Mode: "blitz"}, ErrUnknownMode},
		{"unknown language", types.StartRequest{ScopeID: "c", Mode: "random", Language: "xx", Length: 3}, ErrUnknownLanguage},
		{"no words", types.StartRequest{ScopeID: "c", Mode: "exhaustive", Language: "en", Length: 11}, ErrNoWords},
		{"zero length", types.StartRequest{ScopeID: "c", Mode: "exhaustive", Language: "en"}, ErrNoWords},
		{"bad difficulty", types.StartRequest{ScopeID: "c", Mode: "single", Difficulty: "insane"}, ErrBadDifficulty},
		{"single is english only", types.StartRequest{ScopeID: "c", Mode: "single", Language: "pl"}, ErrUnknownLanguage},
		{"empty bucket", types.StartRequest{ScopeID: "c", Mode: "single", Difficulty: "hard"}, ErrNoWords},
		{"random needs an owner", types.StartRequest{ScopeID: "c", Mode: "random", Language: "en", Length: 3}, ErrMissingUser},
		{"exhaustive needs an owner", types.StartRequest{ScopeID: "c", Mode: "exhaustive", Language: "en", Length: 3, UserID: "  "}, ErrMissingUser},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.ctl.Start(context.Background(), tt.req)
			require.ErrorIs(t, err, tt.want)
			assert.Empty(t, f.ctl.Active())
		})
	}
}

func TestStart_CorpusUnavailable(t *testing.T) {
	f := newFixture(t, `[{"theme": "cat"}]`, fastTimings(time.Minute))
	_, err := f.ctl.Start(context.Background(), types.StartRequest{ScopeID: "c", Mode: "exhaustive", Language: "pl", Length: 3})
	require.ErrorIs(t, err, ErrCorpusUnavailable)

	ctl := New(nil, f.ledger, f.rec)
	_, err = ctl.Start(context.Background(), types.StartRequest{ScopeID: "c", Mode: "random", Language: "en", Length: 3})
	require.ErrorIs(t, err, ErrCorpusUnavailable)
}

func TestExhaustive_FullSweep(t *testing.T) {
	f := newFixture(t, testWords, fastTimings(2*time.Second))
	s, err := f.ctl.Start(context.Background(), types.StartRequest{
		ScopeID: "c", UserID: "owner", Mode: "exhaustive", Language: "en", Length: 3,
	})
	require.NoError(t, err)
	assert.True(t, f.ledger.Run("owner", "en", 3).CountsTowardRecord)

	words := []string{"cat", "car", "dog"}
	rounds := 0
	for {
		n := f.rec.next(t, types.NoticeHint)
		targets := hint.Match(hint.Pattern(n.Hint), words)
		require.NotEmpty(t, targets, "empty cells are skipped")
		assert.Equal(t, len(targets), n.Need)
		for _, w := range targets {
			f.say(t, "c", "p1", strings.ToUpper(w))
		}
		f.rec.next(t, types.NoticeComplete)
		rounds++
		if rounds == 7 {
			break
		}
	}
	f.rec.next(t, types.NoticeFinished)
	waitDone(t, s)

	_, ok := f.ctl.Session("c")
	assert.False(t, ok, "occupancy is released")

	stats := f.ledger.UserStats("owner")["en"][3]
	assert.Equal(t, 7, stats.Record.Value)
	assert.Equal(t, map[string]int{
		"0-2": 1, "0-3": 1, // c, d
		"1-0": 1, "1-14": 1, // a, o
		"2-6": 1, "2-17": 1, "2-19": 1, // g, r, t
	}, stats.Repetitions)
	require.NotNil(t, stats.Record.LastPosition)
	assert.Equal(t, 2, *stats.Record.LastPosition)
	assert.Equal(t, 19, *stats.Record.LastLetterIndex)
}

func TestExhaustive_FailureRetriesSameCell(t *testing.T) {
	f := newFixture(t, `[{"theme": "cat"}, {"theme": "cot"}]`, fastTimings(300*time.Millisecond))
	s, err := f.ctl.Start(context.Background(), types.StartRequest{
		ScopeID: "c", UserID: "owner", Mode: "exhaustive", Language: "en", Length: 3,
	})
	require.NoError(t, err)

	first := f.rec.next(t, types.NoticeHint)
	assert.Equal(t, "c__", first.Hint)
	f.say(t, "c", "p1", "cat")
	f.rec.next(t, types.NoticeProgress)

	failed := f.rec.next(t, types.NoticeFailed)
	assert.Equal(t, []string{"cat", "cot"}, failed.Words)
	assert.False(t, f.ledger.Run("owner", "en", 3).CountsTowardRecord, "failure ends the run")

	retry := f.rec.next(t, types.NoticeRetry)
	assert.Equal(t, "c__", retry.Hint)
	again := f.rec.next(t, types.NoticeHint)
	assert.Equal(t, "c__", again.Hint, "the same cell is played again")
	assert.Equal(t, Cursor{Position: 0, LetterIndex: 2}, s.Cursor())
	assert.Empty(t, s.View().Guessed, "a retry starts with nothing credited")

	f.say(t, "c", "p1", "cat")
	f.say(t, "c", "p2", "cot")
	f.rec.next(t, types.NoticeComplete)

	f.say(t, "c", "p1", "EndMemorize")
	f.rec.next(t, types.NoticeCancelled)
	waitDone(t, s)

	stats := f.ledger.UserStats("owner")["en"][3]
	assert.Equal(t, 0, stats.Record.Value, "successes after a failure do not count toward the record")
	assert.Equal(t, 1, stats.Repetitions["0-2"])
	assert.Equal(t, 1, f.ledger.Run("owner", "en", 3).Length)
}

func TestExhaustive_StartingHint(t *testing.T) {
	f := newFixture(t, testWords, fastTimings(time.Minute))
	s, err := f.ctl.Start(context.Background(), types.StartRequest{
		ScopeID: "c", UserID: "owner", Mode: "exhaustive", Language: "en", Length: 3, StartingHint: "_O_",
	})
	require.NoError(t, err)

	n := f.rec.next(t, types.NoticeHint)
	assert.Equal(t, "_o_", n.Hint)
	assert.Equal(t, Cursor{Position: 1, LetterIndex: 14}, s.Cursor())
	assert.False(t, f.ledger.Run("owner", "en", 3).CountsTowardRecord)
}

func TestExhaustive_StartingHintAtOriginIsStillIneligible(t *testing.T) {
	f := newFixture(t, testWords, fastTimings(time.Minute))
	s, err := f.ctl.Start(context.Background(), types.StartRequest{
		ScopeID: "c", UserID: "owner", Mode: "exhaustive", Language: "en", Length: 3, StartingHint: "a__",
	})
	require.NoError(t, err)
	assert.Equal(t, Cursor{}, s.Cursor())
	assert.False(t, f.ledger.Run("owner", "en", 3).CountsTowardRecord)
}

func TestRandom_FailureTerminates(t *testing.T) {
	f := newFixture(t, `[{"theme": "cat"}]`, fastTimings(100*time.Millisecond))
	s, err := f.ctl.Start(context.Background(), types.StartRequest{
		ScopeID: "c", UserID: "owner", Mode: "random", Language: "en", Length: 3,
	})
	require.NoError(t, err)

	n := f.rec.next(t, types.NoticeHint)
	require.True(t, hint.Matches(hint.Pattern(n.Hint), "cat"))
	f.say(t, "c", "p1", "cat")
	f.rec.next(t, types.NoticeComplete)

	f.rec.next(t, types.NoticeHint)
	failed := f.rec.next(t, types.NoticeFailed)
	assert.Equal(t, []string{"cat"}, failed.Words)
	f.rec.next(t, types.NoticeFinished)
	waitDone(t, s)

	stats := f.ledger.UserStats("owner")["en"][3]
	assert.Equal(t, 1, stats.Record.Value)
	assert.Equal(t, 1, total(stats.Repetitions))
	assert.Equal(t, ledger.RunState{}, f.ledger.Run("owner", "en", 3))
	assert.Zero(t, f.rec.count(types.NoticeRetry), "random mode never retries")
}

func total(m map[string]int) int {
	n := 0
	for _, v := range m {
		n += v
	}
	return n
}

func TestDualLanguage_AnswerCreditsOneBase(t *testing.T) {
	js := `[
	  {"theme": "cat", "shortcut": "zz", "translations": {"pl": {"translation": "kot"}}},
	  {"theme": "blanket", "shortcut": "zz", "translations": {"pl": {"translation": "koc"}}}
	]`
	f := newFixture(t, js, fastTimings(2*time.Second))
	s, err := f.ctl.Start(context.Background(), types.StartRequest{
		ScopeID: "c", UserID: "owner", Mode: "exhaustive", Language: "pl", Length: 3,
	})
	require.NoError(t, err)

	// "k" is the first polish letter with matches at position 0.
	n := f.rec.next(t, types.NoticeHint)
	assert.Equal(t, "k__", n.Hint)
	assert.Equal(t, 2, n.Need)

	f.say(t, "c", "p1", "zz")
	p := f.rec.next(t, types.NoticeProgress)
	assert.Equal(t, 1, p.Got, "an ambiguous guess completes at most one target")
	assert.Equal(t, 2, p.Need)

	f.say(t, "c", "p1", "zz")
	f.say(t, "c", "p2", "koc")
	p = f.rec.next(t, types.NoticeProgress)
	assert.Equal(t, 2, p.Got)
	assert.Equal(t, []string{"koc(blanket)"}, p.Words, "a repeated answer credits nothing")
	f.rec.next(t, types.NoticeComplete)
	assert.Equal(t, 2, f.rec.count(types.NoticeProgress))

	f.say(t, "c", "p1", "endmemorize")
	waitDone(t, s)
}

func TestDualLanguage_SensesShareABase(t *testing.T) {
	js := `[
	  {"theme": "castle", "translations": {"pl": {"translation": "zamek"}}},
	  {"theme": "lock", "translations": {"pl": {"translation": "zamek"}}}
	]`
	f := newFixture(t, js, fastTimings(2*time.Second))
	s, err := f.ctl.Start(context.Background(), types.StartRequest{
		ScopeID: "c", UserID: "owner", Mode: "exhaustive", Language: "pl", Length: 5,
	})
	require.NoError(t, err)

	n := f.rec.next(t, types.NoticeHint)
	assert.Equal(t, "z____", n.Hint)
	assert.Equal(t, 1, n.Need)

	f.say(t, "c", "p1", "lock")
	p := f.rec.next(t, types.NoticeProgress)
	assert.ElementsMatch(t, []string{"zamek(castle)", "zamek(lock)"}, p.Words)
	f.rec.next(t, types.NoticeComplete)

	f.say(t, "c", "p1", "endmemorize")
	waitDone(t, s)
}

func TestCredit_IgnoresRepeatsAndUnknown(t *testing.T) {
	f := newFixture(t, `[{"theme": "cat"}, {"theme": "cot"}]`, fastTimings(2*time.Second))
	s, err := f.ctl.Start(context.Background(), types.StartRequest{
		ScopeID: "c", UserID: "owner", Mode: "exhaustive", Language: "en", Length: 3,
	})
	require.NoError(t, err)
	f.rec.next(t, types.NoticeHint)

	f.say(t, "c", "p1", "cat")
	f.say(t, "c", "p2", "cat")
	f.say(t, "c", "p2", "horse")
	f.say(t, "c", "p2", " Cot ")
	f.rec.next(t, types.NoticeComplete)
	assert.Equal(t, 2, f.rec.count(types.NoticeProgress))

	f.say(t, "c", "p1", "endmemorize")
	waitDone(t, s)
}

func TestAwaitEvent_PastDeadlineIgnoresQueuedGuesses(t *testing.T) {
	ctl := New(nil, nil, newRecorder())
	always := func(types.Event) bool { return true }
	events := make(chan types.Event, 1)

	for i := 0; i < 50; i++ {
		events <- types.Event{Text: "cat"}
		_, out := ctl.awaitEvent(context.Background(), events, always, time.Now().Add(-time.Second))
		require.Equal(t, TimedOut, out)
		require.Len(t, events, 1, "a late event is left unread")
		<-events
	}

	events <- types.Event{Text: "cat"}
	ev, out := ctl.awaitEvent(context.Background(), events, always, time.Now().Add(time.Second))
	assert.Equal(t, Matched, out)
	assert.Equal(t, "cat", ev.Text)
}

func TestCancel_StopKeywordReleasesScope(t *testing.T) {
	f := newFixture(t, testWords, fastTimings(time.Minute))
	s, err := f.ctl.Start(context.Background(), types.StartRequest{
		ScopeID: "c", UserID: "owner", Mode: "exhaustive", Language: "en", Length: 3,
	})
	require.NoError(t, err)
	f.rec.next(t, types.NoticeHint)
	saves := f.store.Saves()

	f.say(t, "c", "anyone", "  ENDMEMORIZE ")
	f.rec.next(t, types.NoticeCancelled)
	waitDone(t, s)

	assert.Equal(t, saves, f.store.Saves(), "cancelling writes nothing")
	assert.False(t, f.ctl.Deliver(context.Background(), types.Event{ScopeID: "c", Text: "cat"}))

	_, err = f.ctl.Start(context.Background(), types.StartRequest{
		ScopeID: "c", UserID: "owner", Mode: "exhaustive", Language: "en", Length: 3,
	})
	require.NoError(t, err, "scope is free again")
}

func TestStop(t *testing.T) {
	f := newFixture(t, testWords, fastTimings(time.Minute))
	s, err := f.ctl.Start(context.Background(), types.StartRequest{ScopeID: "c", Mode: "single"})
	require.NoError(t, err)
	assert.False(t, f.ctl.Stop("other"))
	assert.True(t, f.ctl.Stop("c"))
	f.rec.next(t, types.NoticeCancelled)
	waitDone(t, s)
}

// failingLedger fails one operation.
type failingLedger struct {
	Ledger
	failOn string
}

func (l failingLedger) BumpRepetition(user, lang string, length, pos, li int) error {
	if l.failOn == "bump" {
		return &ledger.PersistenceError{Op: "bump_repetition", Err: errors.New("disk full")}
	}
	if l.failOn == "panic" {
		panic("bump: corrupted cell index")
	}
	return l.Ledger.BumpRepetition(user, lang, length, pos, li)
}

func (l failingLedger) StartRun(user, lang string, length, pos, li int, eligible bool) error {
	if l.failOn == "start" {
		return &ledger.PersistenceError{Op: "start_run", Err: errors.New("disk full")}
	}
	return l.Ledger.StartRun(user, lang, length, pos, li, eligible)
}

func TestFault_PersistenceErrorTerminates(t *testing.T) {
	store := &ledger.MemoryStore{}
	l, err := ledger.New(store)
	require.NoError(t, err)
	rec := newRecorder()
	ctl := New(loadCorpus(t, testWords), failingLedger{Ledger: l, failOn: "bump"}, rec, WithTimings(fastTimings(2*time.Second)))

	s, err := ctl.Start(context.Background(), types.StartRequest{
		ScopeID: "c", UserID: "owner", Mode: "random", Language: "en", Length: 3,
	})
	require.NoError(t, err)
	n := rec.next(t, types.NoticeHint)
	for _, w := range hint.Match(hint.Pattern(n.Hint), []string{"cat", "car", "dog"}) {
		require.True(t, ctl.Deliver(context.Background(), types.Event{ScopeID: "c", Text: w}))
	}

	fault := rec.next(t, types.NoticeFault)
	assert.NotContains(t, fault.Text, "disk full", "fault notices stay generic")
	waitDone(t, s)
	assert.Empty(t, ctl.Active())
	assert.True(t, l.Run("owner", "en", 3).CountsTowardRecord, "committed state is not rolled back")
}

func TestFault_PanicEndsSession(t *testing.T) {
	l, err := ledger.New(&ledger.MemoryStore{})
	require.NoError(t, err)
	rec := newRecorder()
	ctl := New(loadCorpus(t, testWords), failingLedger{Ledger: l, failOn: "panic"}, rec, WithTimings(fastTimings(2*time.Second)))

	s, err := ctl.Start(context.Background(), types.StartRequest{
		ScopeID: "c", UserID: "owner", Mode: "exhaustive", Language: "en", Length: 3, StartingHint: "c__",
	})
	require.NoError(t, err)
	rec.next(t, types.NoticeHint)
	for _, w := range []string{"cat", "car"} {
		require.True(t, ctl.Deliver(context.Background(), types.Event{ScopeID: "c", Text: w}))
	}

	fault := rec.next(t, types.NoticeFault)
	assert.NotContains(t, fault.Text, "corrupted")
	waitDone(t, s)
	assert.Equal(t, StateTerminated, s.View().State)
	assert.Empty(t, ctl.Active())

	_, err = ctl.Start(context.Background(), types.StartRequest{ScopeID: "c", Mode: "single"})
	require.NoError(t, err, "scope is free again")
	require.True(t, ctl.Stop("c"))
}

func TestStart_LedgerFailureReleasesScope(t *testing.T) {
	l, err := ledger.New(&ledger.MemoryStore{})
	require.NoError(t, err)
	ctl := New(loadCorpus(t, testWords), failingLedger{Ledger: l, failOn: "start"}, newRecorder())

	_, err = ctl.Start(context.Background(), types.StartRequest{
		ScopeID: "c", UserID: "owner", Mode: "exhaustive", Language: "en", Length: 3,
	})
	var pe *ledger.PersistenceError
	require.ErrorAs(t, err, &pe)
	assert.Empty(t, ctl.Active())
}

func TestSingle_CorrectGuess(t *testing.T) {
	f := newFixture(t, `[{"theme": "cat"}, {"theme": "cab"}]`, fastTimings(2*time.Second))
	s, err := f.ctl.Start(context.Background(), types.StartRequest{ScopeID: "c", Mode: "single", Difficulty: "easy"})
	require.NoError(t, err)

	n := f.rec.next(t, types.NoticeHint)
	assert.Equal(t, 3, hint.Pattern(n.Hint).Len())
	assert.Equal(t, 2, strings.Count(n.Hint, "_"), "exactly one letter is revealed at first")

	// Only the drawn word is accepted.
	f.say(t, "c", "p1", "CAT")
	f.say(t, "c", "p1", "CAB")
	correct := f.rec.next(t, types.NoticeCorrect)
	assert.Contains(t, correct.Text, "p1")
	require.Len(t, correct.Words, 1)
	key := f.rec.next(t, types.NoticeAnswerKey)
	assert.Contains(t, key.Words, correct.Words[0])
	assert.Equal(t, hint.Match(hint.Pattern(key.Hint), []string{"cat", "cab"}), key.Words)

	// The game continues with a fresh word.
	f.rec.next(t, types.NoticeHint)
	require.True(t, f.ctl.Stop("c"))
	waitDone(t, s)
}

func TestSingle_EscalatesThenReveals(t *testing.T) {
	f := newFixture(t, `[{"theme": "ice cream"}]`, fastTimings(60*time.Millisecond))
	s, err := f.ctl.Start(context.Background(), types.StartRequest{ScopeID: "c", Mode: "single", Difficulty: "hard"})
	require.NoError(t, err)

	h1 := f.rec.next(t, types.NoticeHint)
	h2 := f.rec.next(t, types.NoticeHint)
	h3 := f.rec.next(t, types.NoticeHint)
	hidden := func(n types.Notice) int { return strings.Count(n.Hint, "_") }
	assert.Equal(t, 7, hidden(h1), "space plus one letter revealed")
	assert.Equal(t, 6, hidden(h2))
	assert.Equal(t, 5, hidden(h3))
	assert.Equal(t, byte(' '), h1.Hint[3])

	reveal := f.rec.next(t, types.NoticeReveal)
	assert.Equal(t, []string{"ice cream"}, reveal.Words)
	key := f.rec.next(t, types.NoticeAnswerKey)
	assert.Equal(t, h1.Hint, key.Hint, "the answer key is for the initial hint")
	assert.Equal(t, []string{"ice cream"}, key.Words)

	f.rec.next(t, types.NoticeHint)
	f.say(t, "c", "p1", "endmemorize")
	f.rec.next(t, types.NoticeCancelled)
	waitDone(t, s)
}

func TestShutdown(t *testing.T) {
	f := newFixture(t, testWords, fastTimings(time.Minute))
	a, err := f.ctl.Start(context.Background(), types.StartRequest{ScopeID: "a", Mode: "single"})
	require.NoError(t, err)
	b, err := f.ctl.Start(context.Background(), types.StartRequest{ScopeID: "b", UserID: "u", Mode: "exhaustive", Language: "en", Length: 3})
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), waitFor)
	defer cancel()
	require.NoError(t, f.ctl.Shutdown(ctx))
	waitDone(t, a)
	waitDone(t, b)
	assert.Empty(t, f.ctl.Active())
}

func TestDeliver_NoSession(t *testing.T) {
	f := newFixture(t, testWords, fastTimings(time.Minute))
	assert.False(t, f.ctl.Deliver(context.Background(), types.Event{ScopeID: "nobody", Text: "cat"}))
}

func TestDeliver_EndedSessionRefusesEvents(t *testing.T) {
	ctl := New(nil, nil, newRecorder())
	ended := &Session{Scope: "c", events: make(chan types.Event, 1), done: make(chan struct{})}
	close(ended.done)
	ctl.sessions["c"] = ended

	for i := 0; i < 50; i++ {
		require.False(t, ctl.Deliver(context.Background(), types.Event{ScopeID: "c", Text: "cat"}))
	}
	assert.Empty(t, ended.events)
}

func TestParseMode(t *testing.T) {
	m, err := ParseMode(" Random ")
	require.NoError(t, err)
	assert.Equal(t, ModeRandom, m)
	_, err = ParseMode("")
	assert.ErrorIs(t, err, ErrUnknownMode)
}
