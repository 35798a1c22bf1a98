package session

import (
	"context"
	"log/slog"
	"time"

	"ctchen222/tictactoe/internal/events"
	"ctchen222/tictactoe/internal/game"
	"ctchen222/tictactoe/internal/repository"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

// recordFinishedGame reports a terminal state to the score store, the
// archive, the event bus and the games counter. Failures are logged; the
// game itself is already over.
func (s *Session) recordFinishedGame(state game.State) {
	ctx, cancel := context.WithTimeout(context.Background(), persistTimeout)
	defer cancel()

	result := events.ResultOf(state.Phase)
	ctx, span := tracer.Start(ctx, "session.recordFinishedGame", trace.WithAttributes(
		attribute.String("session.id", s.ID),
		attribute.String("game.id", s.gameID),
		attribute.String("game.result", result),
	))
	defer span.End()

	if s.gamesFinished != nil {
		s.gamesFinished.Add(ctx, 1, metric.WithAttributes(attribute.String("result", result)))
	}

	if s.deps.Scores != nil && state.Phase.Kind == game.Won {
		if _, err := s.deps.Scores.Increment(ctx, s.ID, state.Phase.Winner); err != nil {
			slog.ErrorContext(ctx, "failed to store score", "session.id", s.ID, "error", err)
			span.RecordError(err)
			span.SetStatus(codes.Error, "Failed to store score")
		}
	}

	if s.deps.Archive != nil {
		record := &repository.GameRecord{
			ID:         s.gameID,
			SessionID:  s.ID,
			Result:     result,
			Moves:      state.Moves,
			History:    s.engine.History(),
			Scores:     state.Scores,
			FinishedAt: time.Now().UTC(),
		}
		if err := s.deps.Archive.Save(ctx, record); err != nil {
			slog.ErrorContext(ctx, "failed to archive game", "session.id", s.ID, "game.id", s.gameID, "error", err)
			span.RecordError(err)
			span.SetStatus(codes.Error, "Failed to archive game")
		}
	}

	if s.deps.Publisher != nil {
		err := s.deps.Publisher.Publish(ctx, events.TypeGameEnded, events.GameEndedPayload{
			SessionID: s.ID,
			GameID:    s.gameID,
			Result:    result,
			Moves:     state.Moves,
			Scores:    state.Scores,
		})
		if err != nil {
			slog.ErrorContext(ctx, "failed to publish game_ended event", "session.id", s.ID, "error", err)
			span.RecordError(err)
			span.SetStatus(codes.Error, "Failed to publish game_ended event")
		}
	}

	slog.InfoContext(ctx, "game finished", "session.id", s.ID, "game.id", s.gameID, "result", result, "moves", state.Moves)
}
