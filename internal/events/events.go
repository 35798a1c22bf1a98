package events

//go:generate mockgen -source=events.go -destination=mocks/events.go -package=mocks

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"ctchen222/tictactoe/internal/game"

	"github.com/go-redis/redis/v8"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// Pub/Sub channel constants
const (
	EventsChannel = "channel:events"
)

// Event types
const (
	TypeSessionStarted = "session_started"
	TypeGameEnded      = "game_ended"
	TypeSessionClosed  = "session_closed"
)

// Game results as stored in payloads and in the archive.
const (
	ResultX    = "X"
	ResultO    = "O"
	ResultDraw = "draw"
)

var tracer = otel.Tracer("events")

// Event represents a global message published via Pub/Sub.
type Event struct {
	Type    string          `json:"event"`
	Payload json.RawMessage `json:"payload"`
}

// SessionStartedPayload is the payload for the "session_started" event.
type SessionStartedPayload struct {
	SessionID  string `json:"session_id"`
	PlayerID   string `json:"player_id"`
	Automated  bool   `json:"automated"`
	Difficulty string `json:"difficulty"`
}

// GameEndedPayload is the payload for the "game_ended" event.
type GameEndedPayload struct {
	SessionID string      `json:"session_id"`
	GameID    string      `json:"game_id"`
	Result    string      `json:"result"`
	Moves     int         `json:"moves"`
	Scores    game.Scores `json:"scores"`
}

// SessionClosedPayload is the payload for the "session_closed" event.
type SessionClosedPayload struct {
	SessionID string `json:"session_id"`
}

// ResultOf maps a terminal phase to its result string.
func ResultOf(p game.Phase) string {
	if p.Kind == game.Won {
		return string(p.Winner)
	}
	return ResultDraw
}

// New wraps payload into an Event of the given type.
func New(eventType string, payload any) (Event, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return Event{}, fmt.Errorf("marshal %s payload: %w", eventType, err)
	}
	return Event{Type: eventType, Payload: raw}, nil
}

// Publisher publishes events to every server instance.
type Publisher interface {
	Publish(ctx context.Context, eventType string, payload any) error
}

type RedisPublisher struct {
	rdb *redis.Client
}

func NewRedisPublisher(rdb *redis.Client) *RedisPublisher {
	return &RedisPublisher{rdb: rdb}
}

func (p *RedisPublisher) Publish(ctx context.Context, eventType string, payload any) error {
	ctx, span := tracer.Start(ctx, "events.Publish", trace.WithAttributes(
		attribute.String("event.type", eventType),
	))
	defer span.End()

	event, err := New(eventType, payload)
	if err != nil {
		return err
	}
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	if err := p.rdb.Publish(ctx, EventsChannel, data).Err(); err != nil {
		span.RecordError(err)
		return fmt.Errorf("publish %s event: %w", eventType, err)
	}
	return nil
}

// Subscribe listens on EventsChannel and delivers decoded events until ctx
// is done. Undecodable messages are logged and skipped.
func Subscribe(ctx context.Context, rdb *redis.Client) <-chan Event {
	out := make(chan Event)
	pubsub := rdb.Subscribe(ctx, EventsChannel)

	go func() {
		defer close(out)
		defer pubsub.Close()

		ch := pubsub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				var event Event
				if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
					slog.ErrorContext(ctx, "Could not unmarshal global event", "error", err)
					continue
				}
				select {
				case out <- event:
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	return out
}
