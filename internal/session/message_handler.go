package session

import (
	"context"
	"encoding/json"
	"log/slog"

	"ctchen222/tictactoe/internal/player"
	"ctchen222/tictactoe/internal/validator"
	"ctchen222/tictactoe/pkg/proto"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// HandleMessage decodes a client message and dispatches it. It must run on
// the session loop.
func (s *Session) HandleMessage(ctx context.Context, p *player.Player, rawMessage []byte) {
	ctx, span := tracer.Start(ctx, "session.HandleMessage", trace.WithAttributes(
		attribute.String("player.id", p.ID),
		attribute.String("session.id", s.ID),
	))
	defer span.End()

	var message proto.ClientToServerMessage
	if err := json.Unmarshal(rawMessage, &message); err != nil {
		slog.ErrorContext(ctx, "error unmarshalling message", "error", err)
		span.RecordError(err)
		span.SetStatus(codes.Error, "Error unmarshalling message")
		return
	}

	if err := validator.GetValidator().Struct(message); err != nil {
		slog.WarnContext(ctx, "invalid message from player", "player.id", p.ID, "error", err)
		span.RecordError(err)
		span.SetStatus(codes.Error, "Invalid message format")
		return
	}

	span.SetAttributes(attribute.String("message.type", message.Type))

	switch message.Type {
	case proto.TypeMove:
		s.handleMove(ctx, p, &message)
	case proto.TypeReset:
		s.reset()
	case proto.TypeToggleAI:
		on := s.engine.ToggleAutomation()
		slog.InfoContext(ctx, "automation toggled", "session.id", s.ID, "ai", on)
		s.reset()
	case proto.TypeToggleSound:
		s.sound = !s.sound
		s.StateChanged(s.engine.State())
	case proto.TypeDifficulty:
		if message.Difficulty == "" {
			s.reject(p, "difficulty is required")
			return
		}
		s.opponent.SetDifficulty(message.Difficulty)
		s.reset()
	}
}

func (s *Session) handleMove(ctx context.Context, p *player.Player, message *proto.ClientToServerMessage) {
	if message.Index == nil {
		s.reject(p, "index is required")
		return
	}
	index := *message.Index

	ctx, span := tracer.Start(ctx, "session.handleMove", trace.WithAttributes(
		attribute.String("player.id", p.ID),
		attribute.String("session.id", s.ID),
		attribute.Int("move.index", index),
	))
	defer span.End()

	if s.engine.Automated() && s.engine.Turn() == s.botMark && !s.engine.Phase().IsTerminal() {
		span.SetAttributes(attribute.Bool("move.valid", false))
		s.reject(p, "waiting for the opponent")
		return
	}

	if err := s.engine.ApplyMove(index, s.engine.Turn()); err != nil {
		slog.DebugContext(ctx, "invalid move from player", "player.id", p.ID, "error", err)
		span.SetAttributes(attribute.Bool("move.valid", false))
		s.reject(p, err.Error())
		return
	}
	span.SetAttributes(attribute.Bool("move.valid", true))

	s.scheduleAutomatedMove()
}
