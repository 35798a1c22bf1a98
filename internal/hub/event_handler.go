package hub

import (
	"context"
	"encoding/json"
	"log/slog"

	"ctchen222/tictactoe/internal/events"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

func (h *Hub) handleEvent(ctx context.Context, event events.Event) {
	ctx, span := tracer.Start(ctx, "hub.handleEvent", trace.WithAttributes(
		attribute.String("event.channel", events.EventsChannel),
		attribute.String("event.type", event.Type),
	))
	defer span.End()

	switch event.Type {
	case events.TypeGameEnded:
		var payload events.GameEndedPayload
		if err := json.Unmarshal(event.Payload, &payload); err != nil {
			slog.ErrorContext(ctx, "Could not unmarshal game_ended payload", "error", err)
			span.RecordError(err)
			span.SetStatus(codes.Error, "Could not unmarshal game_ended payload")
			return
		}
		h.recordResult(payload.Result)

	case events.TypeSessionStarted, events.TypeSessionClosed:
		slog.DebugContext(ctx, "Received session event", "event.type", event.Type)

	default:
		slog.DebugContext(ctx, "Ignoring unknown event", "event.type", event.Type)
	}
}

func (h *Hub) recordResult(result string) {
	h.statsMu.Lock()
	defer h.statsMu.Unlock()

	switch result {
	case events.ResultX:
		h.stats.GamesWonX++
	case events.ResultO:
		h.stats.GamesWonO++
	case events.ResultDraw:
		h.stats.GamesDrawn++
	}
}
