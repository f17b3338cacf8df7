package main

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"wordrill/internal/drill"
	"wordrill/internal/types"
)

// startSessionHandler opens a drill session in the path's scope.
func (app *App) startSessionHandler(c *gin.Context) {
	var body StartBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: ErrorBadRequest})
		return
	}
	req := types.StartRequest{
		ScopeID:      c.Param("scope"),
		UserID:       body.UserID,
		Mode:         body.Mode,
		Language:     body.Language,
		Length:       body.Length,
		Difficulty:   body.Difficulty,
		StartingHint: body.StartingHint,
	}
	if req.UserID == "" {
		req.UserID = participantID(c, "")
	}

	s, err := app.Drills.Start(c.Request.Context(), req)
	if err != nil {
		status := startErrorStatus(err)
		msg := err.Error()
		if status == http.StatusInternalServerError {
			app.Logger.Error("start session", "scope", req.ScopeID, "request_id", requestID(c.Request.Context()), "error", err)
			msg = ErrorInternal
		}
		c.JSON(status, ErrorResponse{Error: msg})
		return
	}
	logInfo("Session %s started in scope %s by %q", s.ID, s.Scope, s.Owner)
	c.JSON(http.StatusCreated, s.View())
}

// startErrorStatus maps a Start failure to an HTTP status. Ledger write
// failures fall through to 500.
func startErrorStatus(err error) int {
	switch {
	case errors.Is(err, drill.ErrAlreadyActive):
		return http.StatusConflict
	case errors.Is(err, drill.ErrMissingScope),
		errors.Is(err, drill.ErrUnknownMode),
		errors.Is(err, drill.ErrUnknownLanguage),
		errors.Is(err, drill.ErrBadDifficulty),
		errors.Is(err, drill.ErrMissingUser):
		return http.StatusBadRequest
	case errors.Is(err, drill.ErrNoWords):
		return http.StatusNotFound
	case errors.Is(err, drill.ErrCorpusUnavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// sessionHandler returns a snapshot of the scope's session.
func (app *App) sessionHandler(c *gin.Context) {
	s, ok := app.Drills.Session(c.Param("scope"))
	if !ok {
		c.JSON(http.StatusNotFound, ErrorResponse{Error: ErrorNoSession})
		return
	}
	c.JSON(http.StatusOK, s.View())
}

// stopSessionHandler cancels the scope's session. Only privileged callers
// may do this; participants use the stop keyword instead.
func (app *App) stopSessionHandler(c *gin.Context) {
	if !privileged(c) {
		c.JSON(http.StatusForbidden, ErrorResponse{Error: ErrorNotPrivileged})
		return
	}
	scope := c.Param("scope")
	if !app.Drills.Stop(scope) {
		c.JSON(http.StatusNotFound, ErrorResponse{Error: ErrorNoSession})
		return
	}
	logInfo("Session in scope %s stopped by %q", scope, participantID(c, "operator"))
	c.JSON(http.StatusAccepted, gin.H{"scope": scope, "stopping": true})
}

func privileged(c *gin.Context) bool {
	return strings.EqualFold(strings.TrimSpace(c.GetHeader(HeaderPrivileged)), "true")
}

// participantID is the caller's id header, or fallback when absent.
func participantID(c *gin.Context, fallback string) string {
	if id := strings.TrimSpace(c.GetHeader(HeaderParticipant)); id != "" {
		return id
	}
	return fallback
}
