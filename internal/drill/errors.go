package drill

import "errors"

var (
	// ErrAlreadyActive rejects a start on a scope that already has a session.
	ErrAlreadyActive = errors.New("a session is already active in this scope")

	ErrUnknownMode       = errors.New("unknown mode")
	ErrUnknownLanguage   = errors.New("unknown language")
	ErrBadDifficulty     = errors.New("invalid difficulty: choose easy, medium, hard or normal")
	ErrCorpusUnavailable = errors.New("no corpus loaded for language")
	ErrNoWords           = errors.New("no words of that length")
	ErrMissingScope      = errors.New("scope id is required")
	// ErrMissingUser rejects a memorize start with no participant to own the
	// ledger entries.
	ErrMissingUser = errors.New("memorize modes need a user id")

	errCancelled = errors.New("session cancelled")
)
