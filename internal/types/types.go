package types

import "time"

// Event is one chat message seen in a scope.
type Event struct {
	ScopeID       string `json:"scopeId"`
	ParticipantID string `json:"participantId"`
	Text          string `json:"text"`
	IsPrivileged  bool   `json:"isPrivileged"`
}

// StartRequest asks for a drill session in a scope. UserID owns the
// session's ledger progress.
type StartRequest struct {
	ScopeID      string `json:"scopeId"`
	UserID       string `json:"userId"`
	Mode         string `json:"mode"`
	Language     string `json:"language"`
	Length       int    `json:"length,omitempty"`
	Difficulty   string `json:"difficulty,omitempty"`
	StartingHint string `json:"startingHint,omitempty"`
}

type NoticeKind string

const (
	NoticeStarted   NoticeKind = "started"
	NoticeHint      NoticeKind = "hint"
	NoticeReveal    NoticeKind = "reveal"
	NoticeCorrect   NoticeKind = "correct"
	NoticeProgress  NoticeKind = "progress"
	NoticeComplete  NoticeKind = "round_complete"
	NoticeFailed    NoticeKind = "round_failed"
	NoticeRetry     NoticeKind = "retry"
	NoticeAnswerKey NoticeKind = "answer_key"
	NoticeFinished  NoticeKind = "finished"
	NoticeCancelled NoticeKind = "cancelled"
	NoticeFault     NoticeKind = "fault"
)

// Notice is an outbound notification. Text is a plain rendering; the other
// fields carry the same content for clients that format it themselves.
type Notice struct {
	Scope     string     `json:"scope"`
	SessionID string     `json:"sessionId"`
	Kind      NoticeKind `json:"kind"`
	Text      string     `json:"text"`
	Hint      string     `json:"hint,omitempty"`
	Words     []string   `json:"words,omitempty"`
	Got       int        `json:"got,omitempty"`
	Need      int        `json:"need,omitempty"`
	Deadline  time.Time  `json:"deadline,omitzero"`
	At        time.Time  `json:"at"`
}
