package main

import (
	"wordrill/internal/ledger"
	"wordrill/internal/types"
)

// StartBody is the JSON body of a session start. The scope comes from the path.
type StartBody struct {
	UserID       string `json:"userId"`
	Mode         string `json:"mode"`
	Language     string `json:"language"`
	Length       int    `json:"length"`
	Difficulty   string `json:"difficulty"`
	StartingHint string `json:"startingHint"`
}

// EventBody is a chat message posted to a scope.
type EventBody struct {
	ParticipantID string `json:"participantId"`
	Text          string `json:"text"`
}

// ErrorResponse is the body of every non-2xx reply.
type ErrorResponse struct {
	Error string `json:"error"`
}

// NoticesResponse lists the recent notices of a scope.
type NoticesResponse struct {
	Scope   string         `json:"scope"`
	Notices []types.Notice `json:"notices"`
}

// StatsResponse is a user's ledger snapshot.
type StatsResponse struct {
	User  string           `json:"user"`
	Stats ledger.UserStats `json:"stats"`
}

// HealthResponse reports process status.
type HealthResponse struct {
	Status         string         `json:"status"`
	Env            string         `json:"env"`
	Words          map[string]int `json:"words"`
	ActiveSessions int            `json:"active_sessions"`
	Subscribers    int            `json:"subscribers"`
	Uptime         string         `json:"uptime"`
	Timestamp      string         `json:"timestamp"`
}
