package hub

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"ctchen222/tictactoe/internal/bot"
	"ctchen222/tictactoe/internal/events"
	"ctchen222/tictactoe/internal/hub/types"
	"ctchen222/tictactoe/internal/player"
	"ctchen222/tictactoe/internal/session"
	"ctchen222/tictactoe/pkg/proto"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

func (h *Hub) handleRegistration(ctx context.Context, req *types.RegistrationRequest) {
	ctx, span := tracer.Start(ctx, "hub.handleRegistration", trace.WithAttributes(
		attribute.String("player.id", req.Player.ID),
		attribute.String("session.id", req.SessionID),
	))
	defer span.End()

	sessionID := req.SessionID
	if sessionID == "" {
		sessionID = h.lastSessionOf(ctx, req.Player.ID)
	}

	s, ok := h.sessions[sessionID]
	switch {
	case !ok:
		s = h.createSession(ctx, sessionID, req)
	case !s.CanJoin(req.Player.ID):
		slog.WarnContext(ctx, "Player tried to join a foreign session", "player.id", req.Player.ID, "session.id", s.ID)
		span.SetStatus(codes.Error, "Foreign session")
		refuse(req.Player, "session belongs to another player")
		return
	default:
		h.cancelIdle(s.ID)
		slog.InfoContext(ctx, "Player attached to running session", "player.id", req.Player.ID, "session.id", s.ID)
	}
	span.SetAttributes(attribute.String("session.id", s.ID))

	if err := s.AddPlayer(req.Player); err != nil {
		slog.ErrorContext(ctx, "Could not attach player", "player.id", req.Player.ID, "session.id", s.ID, "error", err)
		span.RecordError(err)
		span.SetStatus(codes.Error, "Could not attach player")
		_ = req.Player.Conn.Close()
		return
	}
	h.addConnection(req.Player.ID, 1)
	go s.ReadPump(req.Player, h.leave(s.ID))

	if h.presence != nil {
		if err := h.presence.SetOnline(ctx, req.Player.ID, s.ID); err != nil {
			slog.WarnContext(ctx, "Failed to record player presence", "player.id", req.Player.ID, "error", err)
		}
	}
}

// refuse tells a connection why it was not attached and closes it.
func refuse(p *player.Player, reason string) {
	data, err := json.Marshal(proto.RejectedMessage{Type: proto.TypeRejected, Reason: reason})
	if err == nil {
		_ = p.Send(websocket.TextMessage, data)
	}
	_ = p.Conn.Close()
}

// lastSessionOf returns the session a reconnecting player left, if it is
// still running here (possibly waiting out its reconnect grace period).
func (h *Hub) lastSessionOf(ctx context.Context, playerID string) string {
	if h.presence == nil {
		return ""
	}
	sessionID, status, err := h.presence.FindSession(ctx, playerID)
	if err != nil {
		slog.WarnContext(ctx, "Failed to look up player presence", "player.id", playerID, "error", err)
		return ""
	}
	if sessionID == "" {
		return ""
	}
	if _, ok := h.sessions[sessionID]; !ok {
		slog.DebugContext(ctx, "Last session is gone", "player.id", playerID, "session.id", sessionID, "player.status", status)
		return ""
	}
	slog.InfoContext(ctx, "Resuming last session", "player.id", playerID, "session.id", sessionID, "player.status", status)
	return sessionID
}

func (h *Hub) createSession(ctx context.Context, sessionID string, req *types.RegistrationRequest) *session.Session {
	ctx, span := tracer.Start(ctx, "hub.createSession")
	defer span.End()

	difficulty := h.settings.DefaultDifficulty
	if req.Difficulty != "" {
		difficulty = req.Difficulty
	}
	difficulty = bot.ParseDifficulty(difficulty)
	automated := h.settings.AutomatedByDefault
	if req.Automated != nil {
		automated = *req.Automated
	}

	opts := []session.Option{
		session.WithOwner(req.Player.ID),
		session.WithThinkDelay(h.settings.ThinkDelay),
		session.WithDifficulty(difficulty),
		session.WithAutomation(automated),
	}

	if sessionID == "" {
		sessionID = uuid.NewString()
	} else if h.deps.Scores != nil {
		// A known id from an earlier visit gets its tally back.
		scores, err := h.deps.Scores.Get(ctx, sessionID)
		if err != nil {
			slog.WarnContext(ctx, "Could not restore scores", "session.id", sessionID, "error", err)
			span.RecordError(err)
		} else {
			opts = append(opts, session.WithScores(scores))
		}
	}

	s := session.New(sessionID, h.deps, opts...)
	s.Start(ctx)
	h.sessions[sessionID] = s
	h.setActiveSessions(len(h.sessions))

	slog.InfoContext(ctx, "Session created", "session.id", sessionID, "player.id", req.Player.ID)
	h.publish(ctx, events.TypeSessionStarted, events.SessionStartedPayload{
		SessionID:  sessionID,
		PlayerID:   req.Player.ID,
		Automated:  automated,
		Difficulty: difficulty,
	})

	return s
}

func (h *Hub) handleDeparture(ctx context.Context, d *types.Departure) {
	ctx, span := tracer.Start(ctx, "hub.handleDeparture", trace.WithAttributes(
		attribute.String("player.id", d.Player.ID),
		attribute.String("session.id", d.SessionID),
	))
	defer span.End()

	// Other tabs of the same player keep it online.
	if left := h.addConnection(d.Player.ID, -1); left == 0 && h.presence != nil {
		if err := h.presence.SetOffline(ctx, d.Player.ID); err != nil {
			slog.WarnContext(ctx, "Failed to set player offline", "player.id", d.Player.ID, "error", err)
		}
	}

	s, ok := h.sessions[d.SessionID]
	if !ok {
		return
	}
	remaining, removed := s.RemovePlayer(d.Player)
	if !removed {
		return
	}
	if remaining > 0 {
		slog.InfoContext(ctx, "Player left session", "player.id", d.Player.ID, "session.id", s.ID, "remaining", remaining)
		return
	}

	if h.settings.ReconnectGrace > 0 {
		h.scheduleIdle(d.SessionID)
		slog.InfoContext(ctx, "Session waiting for reconnect", "session.id", d.SessionID, "grace", h.settings.ReconnectGrace)
		return
	}
	h.closeSession(ctx, d.SessionID)
}

func (h *Hub) scheduleIdle(sessionID string) {
	h.cancelIdle(sessionID)

	h.idleSeq++
	exp := idleExpiry{sessionID: sessionID, seq: h.idleSeq}
	timer := time.AfterFunc(h.settings.ReconnectGrace, func() {
		select {
		case h.expired <- exp:
		case <-h.done:
		}
	})
	h.idle[sessionID] = idleTimer{timer: timer, seq: exp.seq}
}

func (h *Hub) cancelIdle(sessionID string) {
	if t, ok := h.idle[sessionID]; ok {
		t.timer.Stop()
		delete(h.idle, sessionID)
	}
}

func (h *Hub) handleIdleExpiry(ctx context.Context, exp idleExpiry) {
	t, ok := h.idle[exp.sessionID]
	if !ok || t.seq != exp.seq {
		return
	}
	delete(h.idle, exp.sessionID)

	s, ok := h.sessions[exp.sessionID]
	if !ok || s.PlayerCount() > 0 {
		return
	}
	h.closeSession(ctx, exp.sessionID)
}

func (h *Hub) closeSession(ctx context.Context, sessionID string) {
	s, ok := h.sessions[sessionID]
	if !ok {
		return
	}
	s.Close()
	delete(h.sessions, sessionID)
	h.setActiveSessions(len(h.sessions))

	slog.InfoContext(ctx, "Session closed due to no players", "session.id", sessionID)
	h.publish(ctx, events.TypeSessionClosed, events.SessionClosedPayload{SessionID: sessionID})
}

func (h *Hub) publish(ctx context.Context, eventType string, payload any) {
	if h.deps.Publisher == nil {
		return
	}
	if err := h.deps.Publisher.Publish(ctx, eventType, payload); err != nil {
		slog.ErrorContext(ctx, "Failed to publish event", "event.type", eventType, "error", err)
	}
}
