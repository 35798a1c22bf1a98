package repository

//go:generate mockgen -source=player_repository.go -destination=mocks/player_repository.go -package=mocks

import (
	"context"
	"fmt"
	"time"

	"ctchen222/tictactoe/internal/player"

	"github.com/go-redis/redis/v8"
)

// PresenceRepository remembers which session a player was last attached to,
// so a reconnecting browser without a session id lands back in its game.
type PresenceRepository interface {
	SetOnline(ctx context.Context, playerID, sessionID string) error
	SetOffline(ctx context.Context, playerID string) error
	FindSession(ctx context.Context, playerID string) (sessionID string, status player.Status, err error)
}

type redisPresenceRepository struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewPresenceRepository creates a new Redis-based PresenceRepository.
func NewPresenceRepository(rdb *redis.Client, ttl time.Duration) PresenceRepository {
	return &redisPresenceRepository{
		rdb: rdb,
		ttl: ttl,
	}
}

func playerKey(id string) string {
	return fmt.Sprintf("player:%s", id)
}

// SetOnline records the player as connected to sessionID.
func (r *redisPresenceRepository) SetOnline(ctx context.Context, playerID, sessionID string) error {
	ctx, span := tracer.Start(ctx, "PresenceRepository.SetOnline")
	defer span.End()

	key := playerKey(playerID)
	pipe := r.rdb.Pipeline()
	pipe.HSet(ctx, key, "session_id", sessionID, "connection_status", string(player.StatusConnected))
	if r.ttl > 0 {
		pipe.Expire(ctx, key, r.ttl)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to set player %s online: %w", playerID, err)
	}
	return nil
}

// SetOffline keeps the session id for reconnection and marks the player
// disconnected.
func (r *redisPresenceRepository) SetOffline(ctx context.Context, playerID string) error {
	ctx, span := tracer.Start(ctx, "PresenceRepository.SetOffline")
	defer span.End()

	if err := r.rdb.HSet(ctx, playerKey(playerID), "connection_status", string(player.StatusDisconnected)).Err(); err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to set player %s offline: %w", playerID, err)
	}
	return nil
}

// FindSession returns an empty session id when the player is unknown.
func (r *redisPresenceRepository) FindSession(ctx context.Context, playerID string) (string, player.Status, error) {
	ctx, span := tracer.Start(ctx, "PresenceRepository.FindSession")
	defer span.End()

	data, err := r.rdb.HGetAll(ctx, playerKey(playerID)).Result()
	if err != nil {
		span.RecordError(err)
		return "", "", err
	}
	return data["session_id"], player.Status(data["connection_status"]), nil
}
