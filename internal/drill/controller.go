// Package drill runs word-guessing sessions, one per chat scope.
//
// A session is started by a StartRequest and then fed chat events through
// Deliver. Its loop runs on its own goroutine and only ever blocks waiting
// for the next qualifying event, bounded by a deadline. Memorize modes write
// every round outcome to the progress ledger.
package drill

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"wordrill/internal/corpus"
	"wordrill/internal/hint"
	"wordrill/internal/types"
)

// Ledger is the progress store the controller reports round outcomes to.
type Ledger interface {
	StartRun(user, lang string, length, startPos, startLetterIndex int, recordEligible bool) error
	AdvanceOnSuccess(user, lang string, length, pos, letterIndex int, at time.Time) error
	BumpRepetition(user, lang string, length, pos, letterIndex int) error
	EndRun(user, lang string, length int) error
}

// Notifier receives the session's outbound notices. It must not block.
type Notifier interface {
	Notify(n types.Notice)
}

// Timings are the round clocks.
type Timings struct {
	// HintTimeout is how long each single-round hint stays open.
	HintTimeout time.Duration
	// MaxHints is how many escalating hints a single round gets.
	MaxHints int
	// RoundBase and RoundPerMatch give a memorize round's deadline:
	// RoundBase + RoundPerMatch*targets.
	RoundBase     time.Duration
	RoundPerMatch time.Duration
	// RetryPause is the gap between a failed exhaustive round and its retry.
	RetryPause time.Duration
}

// DefaultTimings are the timings the chat bot has always used.
func DefaultTimings() Timings {
	return Timings{
		HintTimeout:   10 * time.Second,
		MaxHints:      3,
		RoundBase:     10 * time.Second,
		RoundPerMatch: 3 * time.Second,
		RetryPause:    10 * time.Second,
	}
}

const (
	// DefaultStopKeyword ends a session when any participant sends it.
	DefaultStopKeyword = "endmemorize"
	defaultEventBuffer = 64
)

// Option configures a Controller.
type Option func(*Controller)

// WithTimings overrides DefaultTimings.
func WithTimings(t Timings) Option { return func(c *Controller) { c.timings = t } }

// WithStopKeyword sets the stop keyword. Blank keywords are ignored.
func WithStopKeyword(k string) Option {
	return func(c *Controller) {
		if k = strings.TrimSpace(k); k != "" {
			c.stopKeyword = k
		}
	}
}

// WithLogger sets the logger session events go to.
func WithLogger(l *slog.Logger) Option { return func(c *Controller) { c.logger = l } }

// Controller owns scope occupancy and the session loops.
type Controller struct {
	corpus      *corpus.Corpus
	ledger      Ledger
	notifier    Notifier
	timings     Timings
	stopKeyword string
	logger      *slog.Logger

	mu       sync.Mutex
	sessions map[string]*Session
	wg       sync.WaitGroup
}

// New builds a controller over a loaded corpus.
func New(c *corpus.Corpus, ledger Ledger, notifier Notifier, opts ...Option) *Controller {
	ctl := &Controller{
		corpus:      c,
		ledger:      ledger,
		notifier:    notifier,
		timings:     DefaultTimings(),
		stopKeyword: DefaultStopKeyword,
		logger:      slog.Default(),
		sessions:    make(map[string]*Session),
	}
	for _, opt := range opts {
		opt(ctl)
	}
	if ctl.timings.MaxHints < 1 {
		ctl.timings.MaxHints = 1
	}
	return ctl
}

// StopKeyword is the message that ends a session.
func (c *Controller) StopKeyword() string { return c.stopKeyword }

// plan is what a session draws its rounds from.
type plan struct {
	entries  []corpus.WordEntry
	alphabet corpus.Alphabet
	// drawable are the entries random mode may pick a cell from.
	drawable []corpus.WordEntry
}

func (c *Controller) plan(req types.StartRequest, mode Mode) (string, plan, error) {
	lang := strings.ToLower(strings.TrimSpace(req.Language))
	if mode == ModeSingle {
		if lang == "" {
			lang = corpus.LangEnglish
		}
		if lang != corpus.LangEnglish {
			return "", plan{}, fmt.Errorf("%w: single rounds are %s only", ErrUnknownLanguage, corpus.LangEnglish)
		}
		if c.corpus == nil || !c.corpus.Has(lang) {
			return "", plan{}, fmt.Errorf("%w: %s", ErrCorpusUnavailable, lang)
		}
		difficulty := strings.ToLower(strings.TrimSpace(req.Difficulty))
		if difficulty == "" {
			difficulty = corpus.Normal
		}
		entries, ok := c.corpus.Bucket(difficulty)
		if !ok {
			return "", plan{}, ErrBadDifficulty
		}
		if len(entries) == 0 {
			return "", plan{}, fmt.Errorf("%w: difficulty %s", ErrNoWords, difficulty)
		}
		return lang, plan{entries: entries}, nil
	}

	alphabet, ok := corpus.AlphabetFor(lang)
	if !ok {
		return "", plan{}, fmt.Errorf("%w: %q", ErrUnknownLanguage, req.Language)
	}
	if c.corpus == nil || !c.corpus.Has(lang) {
		return "", plan{}, fmt.Errorf("%w: %s", ErrCorpusUnavailable, lang)
	}
	entries := c.corpus.OfLength(lang, req.Length)
	if req.Length <= 0 || len(entries) == 0 {
		return "", plan{}, fmt.Errorf("%w: %s length %d", ErrNoWords, lang, req.Length)
	}
	p := plan{entries: entries, alphabet: alphabet}
	for _, e := range entries {
		if len(drawPositions(e.Headword, alphabet)) > 0 {
			p.drawable = append(p.drawable, e)
		}
	}
	if mode == ModeRandom && len(p.drawable) == 0 {
		return "", plan{}, fmt.Errorf("%w: %s length %d", ErrNoWords, lang, req.Length)
	}
	return lang, p, nil
}

// Start opens a session in req.ScopeID. It fails with ErrAlreadyActive when
// the scope is occupied, leaving the existing session untouched. The session
// loop keeps running after ctx ends; use Stop or Shutdown to end it.
func (c *Controller) Start(ctx context.Context, req types.StartRequest) (*Session, error) {
	if strings.TrimSpace(req.ScopeID) == "" {
		return nil, ErrMissingScope
	}
	mode, err := ParseMode(req.Mode)
	if err != nil {
		return nil, err
	}
	lang, p, err := c.plan(req, mode)
	if err != nil {
		return nil, err
	}
	if mode.memorize() && strings.TrimSpace(req.UserID) == "" {
		return nil, ErrMissingUser
	}

	runCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	s := &Session{
		ID:           uuid.NewString(),
		Scope:        req.ScopeID,
		Owner:        req.UserID,
		Mode:         mode,
		Lang:         lang,
		Length:       req.Length,
		Difficulty:   req.Difficulty,
		StartingHint: req.StartingHint,
		StartedAt:    time.Now().UTC(),
		events:       make(chan types.Event, defaultEventBuffer),
		cancel:       cancel,
		done:         make(chan struct{}),
		state:        StateActive,
	}
	if mode == ModeSingle {
		s.Length = 0
	}

	if !c.claim(s) {
		cancel()
		return nil, ErrAlreadyActive
	}

	if mode.memorize() {
		eligible := true
		if mode == ModeExhaustive {
			pos, li := hint.ParseStart(req.StartingHint, req.Length, p.alphabet)
			s.setCursor(Cursor{Position: pos, LetterIndex: li})
			eligible = req.StartingHint == ""
		}
		start := s.Cursor()
		if err := c.ledger.StartRun(s.Owner, s.Lang, s.Length, start.Position, start.LetterIndex, eligible); err != nil {
			c.release(s)
			cancel()
			return nil, fmt.Errorf("drill: start run: %w", err)
		}
	}

	c.logger.Info("session started", "scope", s.Scope, "session_id", s.ID, "mode", s.Mode, "lang", s.Lang, "length", s.Length, "owner", s.Owner)
	c.wg.Add(1)
	go c.run(runCtx, s, p)
	return s, nil
}

// claim registers s as the occupant of its scope unless one exists.
func (c *Controller) claim(s *Session) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, busy := c.sessions[s.Scope]; busy {
		return false
	}
	c.sessions[s.Scope] = s
	return true
}

func (c *Controller) release(s *Session) {
	c.mu.Lock()
	if cur, ok := c.sessions[s.Scope]; ok && cur == s {
		delete(c.sessions, s.Scope)
	}
	c.mu.Unlock()
	s.setState(StateTerminated)
	close(s.done)
}

func (c *Controller) lookup(scope string) *Session {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sessions[scope]
}

// Session returns the session occupying scope, if any.
func (c *Controller) Session(scope string) (*Session, bool) {
	s := c.lookup(scope)
	return s, s != nil
}

// Active lists the occupied scopes, sorted.
func (c *Controller) Active() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	scopes := make([]string, 0, len(c.sessions))
	for scope := range c.sessions {
		scopes = append(scopes, scope)
	}
	sort.Strings(scopes)
	return scopes
}

// Deliver hands a chat event to the session of its scope. Events for one
// scope are processed in the order they are delivered. It returns false when
// no session accepted the event.
func (c *Controller) Deliver(ctx context.Context, ev types.Event) bool {
	s := c.lookup(ev.ScopeID)
	if s == nil {
		return false
	}
	select {
	case <-s.done:
		return false
	default:
	}
	select {
	case s.events <- ev:
		return true
	case <-s.done:
		return false
	case <-ctx.Done():
		return false
	}
}

// Stop cancels the session in scope. It returns false if there is none.
func (c *Controller) Stop(scope string) bool {
	s := c.lookup(scope)
	if s == nil {
		return false
	}
	s.cancel()
	return true
}

// Shutdown cancels every session and waits for their loops to exit.
func (c *Controller) Shutdown(ctx context.Context) error {
	c.mu.Lock()
	for _, s := range c.sessions {
		s.cancel()
	}
	c.mu.Unlock()

	idle := make(chan struct{})
	go func() {
		c.wg.Wait()
		close(idle)
	}()
	select {
	case <-idle:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (c *Controller) run(ctx context.Context, s *Session, p plan) {
	defer c.wg.Done()
	defer s.cancel()
	defer c.release(s)
	defer func() {
		if r := recover(); r != nil {
			c.fault(s, fmt.Errorf("panic: %v", r))
		}
	}()

	c.notify(s, types.Notice{Kind: types.NoticeStarted, Text: c.startText(s)})

	var err error
	switch s.Mode {
	case ModeSingle:
		err = c.runSingle(ctx, s, p)
	case ModeExhaustive:
		err = c.runExhaustive(ctx, s, p)
	case ModeRandom:
		err = c.runRandom(ctx, s, p)
	}

	switch {
	case err == nil:
		c.logger.Info("session finished", "scope", s.Scope, "session_id", s.ID)
	case errors.Is(err, errCancelled):
		c.logger.Info("session cancelled", "scope", s.Scope, "session_id", s.ID)
		c.notify(s, types.Notice{Kind: types.NoticeCancelled, Text: "Session ended early."})
	default:
		c.fault(s, err)
	}
}

// fault ends a session after an unexpected error. Whatever the ledger already
// committed stays committed.
func (c *Controller) fault(s *Session, err error) {
	c.logger.Error("session fault", "scope", s.Scope, "session_id", s.ID, "mode", s.Mode, "error", err)
	c.notify(s, types.Notice{Kind: types.NoticeFault, Text: "Something went wrong. The session has ended."})
}

func (c *Controller) notify(s *Session, n types.Notice) {
	n.Scope = s.Scope
	n.SessionID = s.ID
	n.At = time.Now().UTC()
	c.notifier.Notify(n)
}

func (c *Controller) startText(s *Session) string {
	switch s.Mode {
	case ModeSingle:
		d := s.Difficulty
		if d == "" {
			d = corpus.Normal
		}
		return fmt.Sprintf("Starting continuous guessing. Difficulty: %s.", d)
	case ModeRandom:
		return fmt.Sprintf("Starting random %s memorization for %d-letter words. Type %s to stop.", s.Lang, s.Length, c.stopKeyword)
	default:
		return fmt.Sprintf("Starting %s memorization for %d-letter words. Type %s to stop.", s.Lang, s.Length, c.stopKeyword)
	}
}
