// Package ledger tracks per-user memorize progress: the current contiguous
// run, the best run ever recorded and how often each cell was completed.
//
// Every mutation runs under one lock and is persisted before it returns.
package ledger

import (
	"fmt"
	"log/slog"
	"maps"
	"strconv"
	"sync"
	"time"
)

// Entry is the state kept for one (user, language, word length) key.
type Entry struct {
	RunActive          bool
	RunLength          int
	CountsTowardRecord bool
	Record             Record
	Repetitions        map[string]int
}

func newEntry() *Entry {
	return &Entry{Repetitions: make(map[string]int)}
}

func (e *Entry) clone() *Entry {
	c := *e
	c.Record = e.Record.clone()
	c.Repetitions = maps.Clone(e.Repetitions)
	return &c
}

func (r Record) clone() Record {
	c := r
	if r.LastPosition != nil {
		v := *r.LastPosition
		c.LastPosition = &v
	}
	if r.LastLetterIndex != nil {
		v := *r.LastLetterIndex
		c.LastLetterIndex = &v
	}
	return c
}

// RunState is the process-local part of an entry.
type RunState struct {
	Active             bool `json:"active"`
	Length             int  `json:"length"`
	CountsTowardRecord bool `json:"countsTowardRecord"`
}

// Stats is the read-only view of one key returned by UserStats.
type Stats struct {
	Record      Record         `json:"record"`
	Repetitions map[string]int `json:"repetitions"`
}

// UserStats is language -> word length -> stats.
type UserStats map[string]map[int]Stats

// PersistenceError is returned when a mutation could not be written. The
// in-memory ledger is left as it was before the mutation.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("ledger: %s: persist: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }

// RepetitionKey is the repetitions map key for a cell.
func RepetitionKey(pos, letterIndex int) string {
	return strconv.Itoa(pos) + "-" + strconv.Itoa(letterIndex)
}

type key struct {
	user   string
	lang   string
	length int
}

// Ledger is the progress service. The zero value is not usable; call New.
type Ledger struct {
	mu       sync.Mutex
	store    Store
	entries  map[key]*Entry
	attempts int
	logger   *slog.Logger
}

// Option configures a Ledger.
type Option func(*Ledger)

// WithPersistAttempts sets how many times a save is tried before a mutation fails.
func WithPersistAttempts(n int) Option {
	return func(l *Ledger) {
		if n > 0 {
			l.attempts = n
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(l *Ledger) { l.logger = logger }
}

// New loads the ledger from store.
func New(store Store, opts ...Option) (*Ledger, error) {
	l := &Ledger{
		store:    store,
		entries:  make(map[key]*Entry),
		attempts: 2,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(l)
	}

	doc, err := store.Load()
	if err != nil {
		return nil, fmt.Errorf("ledger: load: %w", err)
	}
	for user, langs := range doc {
		for lang, lengths := range langs {
			for lengthStr, stored := range lengths {
				length, err := strconv.Atoi(lengthStr)
				if err != nil {
					return nil, fmt.Errorf("ledger: load: user %s lang %s: bad length %q", user, lang, lengthStr)
				}
				e := newEntry()
				e.Record = stored.Record.clone()
				maps.Copy(e.Repetitions, stored.Repetitions)
				l.entries[key{user, lang, length}] = e
			}
		}
	}
	return l, nil
}

// entry returns the entry for k, creating it on first access. Callers hold mu.
func (l *Ledger) entry(k key) *Entry {
	e, ok := l.entries[k]
	if !ok {
		e = newEntry()
		l.entries[k] = e
	}
	return e
}

// mutate applies fn to the entry for k and persists. If persisting fails the
// entry is restored.
func (l *Ledger) mutate(op string, k key, fn func(*Entry)) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	prev, existed := l.entries[k]
	var backup *Entry
	if existed {
		backup = prev.clone()
	}
	fn(l.entry(k))

	if err := l.persist(); err != nil {
		if existed {
			l.entries[k] = backup
		} else {
			delete(l.entries, k)
		}
		l.logger.Error("ledger mutation rolled back", "op", op, "user", k.user, "lang", k.lang, "length", k.length, "error", err)
		return &PersistenceError{Op: op, Err: err}
	}
	return nil
}

func (l *Ledger) persist() error {
	doc := l.document()
	var err error
	for i := 0; i < l.attempts; i++ {
		if err = l.store.Save(doc); err == nil {
			return nil
		}
		l.logger.Warn("ledger save failed", "attempt", i+1, "error", err)
	}
	return err
}

func (l *Ledger) document() Document {
	doc := Document{}
	for k, e := range l.entries {
		langs, ok := doc[k.user]
		if !ok {
			langs = make(map[string]map[string]StoredEntry)
			doc[k.user] = langs
		}
		lengths, ok := langs[k.lang]
		if !ok {
			lengths = make(map[string]StoredEntry)
			langs[k.lang] = lengths
		}
		lengths[strconv.Itoa(k.length)] = StoredEntry{
			Record:      e.Record.clone(),
			Repetitions: maps.Clone(e.Repetitions),
		}
	}
	return doc
}

// StartRun resets the current run. The run counts toward the record only
// when recordEligible is set; the resolved start cursor is not consulted.
func (l *Ledger) StartRun(user, lang string, length, startPos, startLetterIndex int, recordEligible bool) error {
	return l.mutate("start_run", key{user, lang, length}, func(e *Entry) {
		e.RunLength = 0
		e.RunActive = recordEligible
		e.CountsTowardRecord = recordEligible
	})
}

// AdvanceOnSuccess extends the current run by one completed cell and raises
// the record when the run is eligible and longer than it.
func (l *Ledger) AdvanceOnSuccess(user, lang string, length, pos, letterIndex int, at time.Time) error {
	return l.mutate("advance_on_success", key{user, lang, length}, func(e *Entry) {
		e.RunLength++
		if e.CountsTowardRecord && e.RunLength > e.Record.Value {
			p, li := pos, letterIndex
			e.Record = Record{
				Value:           e.RunLength,
				UpdatedAt:       at.UTC(),
				LastPosition:    &p,
				LastLetterIndex: &li,
			}
		}
	})
}

// BumpRepetition counts one more completion of the cell (pos, letterIndex).
func (l *Ledger) BumpRepetition(user, lang string, length, pos, letterIndex int) error {
	return l.mutate("bump_repetition", key{user, lang, length}, func(e *Entry) {
		e.Repetitions[RepetitionKey(pos, letterIndex)]++
	})
}

// EndRun stops the current run. It is idempotent.
func (l *Ledger) EndRun(user, lang string, length int) error {
	return l.mutate("end_run", key{user, lang, length}, func(e *Entry) {
		e.RunActive = false
		e.CountsTowardRecord = false
		e.RunLength = 0
	})
}

// Run returns the current run state for a key without creating it.
func (l *Ledger) Run(user, lang string, length int) RunState {
	l.mu.Lock()
	defer l.mu.Unlock()
	e, ok := l.entries[key{user, lang, length}]
	if !ok {
		return RunState{}
	}
	return RunState{Active: e.RunActive, Length: e.RunLength, CountsTowardRecord: e.CountsTowardRecord}
}

// UserStats returns a copy of every record and repetition count of user.
func (l *Ledger) UserStats(user string) UserStats {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := UserStats{}
	for k, e := range l.entries {
		if k.user != user {
			continue
		}
		lengths, ok := out[k.lang]
		if !ok {
			lengths = make(map[int]Stats)
			out[k.lang] = lengths
		}
		lengths[k.length] = Stats{Record: e.Record.clone(), Repetitions: maps.Clone(e.Repetitions)}
	}
	return out
}
