package main

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/gin-gonic/gin"

	"wordrill/internal/types"
)

const socketWriteTimeout = 5 * time.Second

// socketHandler streams the scope's notices to a websocket client, replaying
// the recent history first. Messages the client sends are delivered to the
// scope's session as chat events.
func (app *App) socketHandler(c *gin.Context) {
	scope := c.Param("scope")
	fallbackID := participantID(c, c.ClientIP())
	isPrivileged := privileged(c)

	conn, err := websocket.Accept(c.Writer, c.Request, &websocket.AcceptOptions{
		OriginPatterns: []string{"*"},
	})
	if err != nil {
		logWarn("Failed to accept websocket for scope %s: %v", scope, err)
		return
	}
	defer func() {
		if err := conn.Close(websocket.StatusNormalClosure, "bye"); err != nil {
			app.Logger.Debug("websocket close", "scope", scope, "error", err)
		}
	}()

	ctx, cancel := context.WithCancel(c.Request.Context())
	defer cancel()

	history, notices, unsubscribe := app.Hub.Subscribe(scope)
	defer unsubscribe()

	go func() {
		defer cancel()
		app.readEvents(ctx, conn, scope, fallbackID, isPrivileged)
	}()

	for _, n := range history {
		if err := writeNotice(ctx, conn, n); err != nil {
			return
		}
	}
	for {
		select {
		case <-ctx.Done():
			return
		case n, ok := <-notices:
			if !ok {
				return
			}
			if err := writeNotice(ctx, conn, n); err != nil {
				return
			}
		}
	}
}

// readEvents delivers client messages until the connection closes.
func (app *App) readEvents(ctx context.Context, conn *websocket.Conn, scope, fallbackID string, isPrivileged bool) {
	for {
		var body EventBody
		if err := wsjson.Read(ctx, conn, &body); err != nil {
			if websocket.CloseStatus(err) == -1 && !errors.Is(err, context.Canceled) {
				app.Logger.Debug("websocket read", "scope", scope, "error", err)
			}
			return
		}
		if strings.TrimSpace(body.Text) == "" {
			continue
		}
		if body.ParticipantID == "" {
			body.ParticipantID = fallbackID
		}
		app.Drills.Deliver(ctx, types.Event{
			ScopeID:       scope,
			ParticipantID: body.ParticipantID,
			Text:          body.Text,
			IsPrivileged:  isPrivileged,
		})
	}
}

func writeNotice(ctx context.Context, conn *websocket.Conn, n types.Notice) error {
	ctx, cancel := context.WithTimeout(ctx, socketWriteTimeout)
	defer cancel()
	return wsjson.Write(ctx, conn, n)
}
