package drill

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"wordrill/internal/hint"
	"wordrill/internal/types"
)

// Mode selects how a session walks the corpus.
type Mode string

const (
	ModeSingle     Mode = "single"
	ModeExhaustive Mode = "exhaustive"
	ModeRandom     Mode = "random"
)

// ParseMode accepts a mode name case-insensitively.
func ParseMode(s string) (Mode, error) {
	switch m := Mode(strings.ToLower(strings.TrimSpace(s))); m {
	case ModeSingle, ModeExhaustive, ModeRandom:
		return m, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownMode, s)
}

func (m Mode) memorize() bool { return m == ModeExhaustive || m == ModeRandom }

// State is where a session is in its lifecycle.
type State string

const (
	StateActive     State = "active"
	StateAdvancing  State = "advancing"
	StateRetrying   State = "retrying"
	StateTerminated State = "terminated"
)

// Cursor is a cell of the (position, letter) sweep.
type Cursor struct {
	Position    int `json:"position"`
	LetterIndex int `json:"letterIndex"`
}

// Session is the live drill of one scope.
type Session struct {
	ID           string
	Scope        string
	Owner        string
	Mode         Mode
	Lang         string
	Length       int
	Difficulty   string
	StartingHint string
	StartedAt    time.Time

	events chan types.Event
	cancel context.CancelFunc
	done   chan struct{}

	mu       sync.Mutex
	state    State
	cursor   Cursor
	pattern  hint.Pattern
	deadline time.Time
	guessed  []string
}

// View is a point-in-time copy of a session.
type View struct {
	ID          string    `json:"id"`
	Scope       string    `json:"scope"`
	Owner       string    `json:"owner"`
	Mode        Mode      `json:"mode"`
	Language    string    `json:"language"`
	Length      int       `json:"length,omitempty"`
	Difficulty  string    `json:"difficulty,omitempty"`
	State       State     `json:"state"`
	Position    int       `json:"position"`
	LetterIndex int       `json:"letterIndex"`
	Hint        string    `json:"hint,omitempty"`
	Deadline    time.Time `json:"deadline,omitzero"`
	Guessed     []string  `json:"guessed"`
	StartedAt   time.Time `json:"startedAt"`
}

// View returns a snapshot of the session.
func (s *Session) View() View {
	s.mu.Lock()
	defer s.mu.Unlock()
	return View{
		ID:          s.ID,
		Scope:       s.Scope,
		Owner:       s.Owner,
		Mode:        s.Mode,
		Language:    s.Lang,
		Length:      s.Length,
		Difficulty:  s.Difficulty,
		State:       s.state,
		Position:    s.cursor.Position,
		LetterIndex: s.cursor.LetterIndex,
		Hint:        string(s.pattern),
		Deadline:    s.deadline,
		Guessed:     slices.Clone(s.guessed),
		StartedAt:   s.StartedAt,
	}
}

// Done is closed once the session has terminated and released its scope.
func (s *Session) Done() <-chan struct{} { return s.done }

func (s *Session) Cursor() Cursor {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cursor
}

func (s *Session) setCursor(c Cursor) {
	s.mu.Lock()
	s.cursor = c
	s.mu.Unlock()
}

func (s *Session) setState(st State) {
	s.mu.Lock()
	s.state = st
	s.mu.Unlock()
}

func (s *Session) openRound(p hint.Pattern, deadline time.Time) {
	s.mu.Lock()
	s.state = StateActive
	s.pattern = p
	s.deadline = deadline
	s.guessed = nil
	s.mu.Unlock()
}

func (s *Session) addGuessed(target string) {
	s.mu.Lock()
	s.guessed = append(s.guessed, target)
	s.mu.Unlock()
}
