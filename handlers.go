package main

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"wordrill/internal/types"
)

// eventHandler delivers one chat message to the scope's session.
func (app *App) eventHandler(c *gin.Context) {
	var body EventBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: ErrorBadRequest})
		return
	}
	if strings.TrimSpace(body.Text) == "" {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: ErrorMissingText})
		return
	}
	if body.ParticipantID == "" {
		body.ParticipantID = participantID(c, c.ClientIP())
	}
	ev := types.Event{
		ScopeID:       c.Param("scope"),
		ParticipantID: body.ParticipantID,
		Text:          body.Text,
		IsPrivileged:  privileged(c),
	}
	if !app.Drills.Deliver(c.Request.Context(), ev) {
		c.JSON(http.StatusNotFound, ErrorResponse{Error: ErrorNoSession})
		return
	}
	c.Status(http.StatusAccepted)
}

// noticesHandler returns the scope's recent notices, oldest first.
func (app *App) noticesHandler(c *gin.Context) {
	scope := c.Param("scope")
	notices := app.Hub.Recent(scope)
	if notices == nil {
		notices = []types.Notice{}
	}
	c.JSON(http.StatusOK, NoticesResponse{Scope: scope, Notices: notices})
}

// statsHandler returns every record and repetition count of a user.
func (app *App) statsHandler(c *gin.Context) {
	user := c.Param("user")
	c.JSON(http.StatusOK, StatsResponse{User: user, Stats: app.Ledger.UserStats(user)})
}

func (app *App) healthHandler(c *gin.Context) {
	c.JSON(http.StatusOK, HealthResponse{
		Status:         "ok",
		Env:            map[bool]string{true: "production", false: "development"}[app.Config.IsProduction()],
		Words:          app.Corpus.Stats(),
		ActiveSessions: len(app.Drills.Active()),
		Subscribers:    app.Hub.Subscribers(),
		Uptime:         formatUptime(time.Since(app.StartTime)),
		Timestamp:      time.Now().UTC().Format(time.RFC3339),
	})
}
