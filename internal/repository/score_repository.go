package repository

//go:generate mockgen -source=score_repository.go -destination=mocks/score_repository.go -package=mocks

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"ctchen222/tictactoe/internal/game"

	"github.com/go-redis/redis/v8"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var tracer = otel.Tracer("repository")

const (
	fieldScoreX = "x"
	fieldScoreO = "o"
)

// ScoreRepository keeps the running tally of a session so that it survives
// reconnects and server restarts.
type ScoreRepository interface {
	Get(ctx context.Context, sessionID string) (game.Scores, error)
	Increment(ctx context.Context, sessionID string, mark game.Mark) (game.Scores, error)
}

type redisScoreRepository struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewScoreRepository creates a new Redis-based ScoreRepository. Every
// increment pushes the key's expiry ttl into the future.
func NewScoreRepository(rdb *redis.Client, ttl time.Duration) ScoreRepository {
	return &redisScoreRepository{rdb: rdb, ttl: ttl}
}

func scoreKey(sessionID string) string {
	return fmt.Sprintf("scores:%s", sessionID)
}

func (r *redisScoreRepository) Get(ctx context.Context, sessionID string) (game.Scores, error) {
	ctx, span := tracer.Start(ctx, "ScoreRepository.Get", trace.WithAttributes(
		attribute.String("session.id", sessionID),
	))
	defer span.End()

	data, err := r.rdb.HGetAll(ctx, scoreKey(sessionID)).Result()
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to get scores")
		return game.Scores{}, fmt.Errorf("failed to get scores from redis: %w", err)
	}
	return parseScores(data)
}

func (r *redisScoreRepository) Increment(ctx context.Context, sessionID string, mark game.Mark) (game.Scores, error) {
	ctx, span := tracer.Start(ctx, "ScoreRepository.Increment", trace.WithAttributes(
		attribute.String("session.id", sessionID),
		attribute.String("mark", string(mark)),
	))
	defer span.End()

	var field string
	switch mark {
	case game.X:
		field = fieldScoreX
	case game.O:
		field = fieldScoreO
	default:
		return game.Scores{}, fmt.Errorf("cannot score mark %q", mark)
	}

	key := scoreKey(sessionID)
	pipe := r.rdb.TxPipeline()
	pipe.HIncrBy(ctx, key, field, 1)
	if r.ttl > 0 {
		pipe.Expire(ctx, key, r.ttl)
	}
	all := pipe.HGetAll(ctx, key)

	if _, err := pipe.Exec(ctx); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to increment score")
		return game.Scores{}, fmt.Errorf("failed to increment score in redis: %w", err)
	}
	return parseScores(all.Val())
}

func parseScores(data map[string]string) (game.Scores, error) {
	var scores game.Scores
	for field, dst := range map[string]*int{fieldScoreX: &scores.X, fieldScoreO: &scores.O} {
		raw, ok := data[field]
		if !ok {
			continue
		}
		n, err := strconv.Atoi(raw)
		if err != nil {
			return game.Scores{}, fmt.Errorf("malformed score %s=%q: %w", field, raw, err)
		}
		*dst = n
	}
	return scores, nil
}
