package session

import (
	"context"
	"encoding/json"
	"log/slog"

	"ctchen222/tictactoe/internal/game"
	"ctchen222/tictactoe/internal/player"
	"ctchen222/tictactoe/pkg/proto"

	"github.com/gorilla/websocket"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// StateChanged implements game.Listener.
func (s *Session) StateChanged(state game.State) {
	msg := proto.NewState(s.ID, state, s.opponent.Difficulty(), s.sound)
	s.Broadcast(msg.Type, msg)
}

// GameEnded implements game.Listener.
func (s *Session) GameEnded(state game.State) {
	msg := proto.NewGameEnded(s.gameID, state)
	s.Broadcast(msg.Type, msg)
	s.recordFinishedGame(state)
}

// Broadcast sends a message to all players attached to the session.
func (s *Session) Broadcast(messageType string, message any) {
	ctx := context.Background()
	_, span := tracer.Start(ctx, "session.Broadcast", trace.WithAttributes(
		attribute.String("session.id", s.ID),
		attribute.String("message.type", messageType),
	))
	defer span.End()

	data, err := json.Marshal(message)
	if err != nil {
		slog.ErrorContext(ctx, "error marshalling message", "error", err)
		span.RecordError(err)
		span.SetStatus(codes.Error, "Error marshalling message")
		return
	}

	for _, p := range s.snapshotPlayers() {
		if err := p.Send(websocket.TextMessage, data); err != nil {
			slog.ErrorContext(ctx, "error writing message to player", "player.id", p.ID, "error", err)
			span.RecordError(err)
			span.SetStatus(codes.Error, "Error writing message to player")
		}
	}
}

func (s *Session) sendTo(p *player.Player, message any) {
	data, err := json.Marshal(message)
	if err != nil {
		slog.Error("error marshalling message", "error", err)
		return
	}
	if err := p.Send(websocket.TextMessage, data); err != nil {
		slog.Error("error writing message to player", "player.id", p.ID, "session.id", s.ID, "error", err)
	}
}

func (s *Session) reject(p *player.Player, reason string) {
	s.sendTo(p, proto.RejectedMessage{Type: proto.TypeRejected, Reason: reason})
}

func (s *Session) greet(p *player.Player) {
	s.sendTo(p, proto.WelcomeMessage{
		Type:      proto.TypeWelcome,
		SessionID: s.ID,
		PlayerID:  p.ID,
		Mark:      s.botMark.Opponent(),
	})
	s.sendTo(p, proto.NewState(s.ID, s.engine.State(), s.opponent.Difficulty(), s.sound))
}

// ReadPump forwards frames from p to the session loop until the connection
// fails. leave is called once the player is gone.
func (s *Session) ReadPump(p *player.Player, leave func(*player.Player)) {
	ctx, span := tracer.Start(context.Background(), "session.ReadPump", trace.WithAttributes(
		attribute.String("player.id", p.ID),
		attribute.String("session.id", s.ID),
	))
	defer span.End()

	defer func() {
		_ = p.Conn.Close()
		slog.InfoContext(ctx, "Player disconnected", "player.id", p.ID, "session.id", s.ID)
		if leave != nil {
			leave(p)
		}
	}()

	for {
		_, msg, err := p.Conn.ReadMessage()
		if err != nil {
			slog.WarnContext(ctx, "Player connection error", "player.id", p.ID, "session.id", s.ID, "error", err)
			span.RecordError(err)
			span.SetStatus(codes.Error, "Player connection error")
			return
		}
		if !s.Submit(p, msg) {
			return
		}
	}
}
