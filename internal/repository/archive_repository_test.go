package repository_test

import (
	"context"
	"testing"
	"time"

	"ctchen222/tictactoe/internal/db"
	"ctchen222/tictactoe/internal/game"
	"ctchen222/tictactoe/internal/repository"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openDB(t *testing.T) *sqlx.DB {
	t.Helper()
	conn, err := db.OpenMemory()
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func TestArchiveRepository_SaveAndFind(t *testing.T) {
	ctx := context.Background()
	repo := repository.NewArchiveRepository(openDB(t))

	finished := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	record := &repository.GameRecord{
		ID:        "g1",
		SessionID: "s1",
		Result:    "X",
		Moves:     3,
		History: []game.Board{
			{game.X},
			{game.X, game.O},
			{game.X, game.O, game.X},
		},
		Scores:     game.Scores{X: 4, O: 2},
		FinishedAt: finished,
	}

	require.NoError(t, repo.Save(ctx, record))

	got, err := repo.FindByID(ctx, "g1")
	require.NoError(t, err)
	assert.Equal(t, record, got)
}

func TestArchiveRepository_SaveDefaultsFinishedAt(t *testing.T) {
	ctx := context.Background()
	repo := repository.NewArchiveRepository(openDB(t))

	record := &repository.GameRecord{ID: "g1", SessionID: "s1", Result: "draw", Moves: 9}
	require.NoError(t, repo.Save(ctx, record))

	assert.WithinDuration(t, time.Now(), record.FinishedAt, time.Minute)
}

func TestArchiveRepository_DuplicateID(t *testing.T) {
	ctx := context.Background()
	repo := repository.NewArchiveRepository(openDB(t))

	require.NoError(t, repo.Save(ctx, &repository.GameRecord{ID: "g1", SessionID: "s1", Result: "O"}))
	assert.Error(t, repo.Save(ctx, &repository.GameRecord{ID: "g1", SessionID: "s1", Result: "O"}))
}

func TestArchiveRepository_FindByID_NotFound(t *testing.T) {
	repo := repository.NewArchiveRepository(openDB(t))

	_, err := repo.FindByID(context.Background(), "missing")

	assert.ErrorIs(t, err, repository.ErrGameNotFound)
}

func TestArchiveRepository_ListBySession(t *testing.T) {
	ctx := context.Background()
	repo := repository.NewArchiveRepository(openDB(t))

	base := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	for i, id := range []string{"a", "b", "c"} {
		require.NoError(t, repo.Save(ctx, &repository.GameRecord{
			ID:         id,
			SessionID:  "s1",
			Result:     "draw",
			FinishedAt: base.Add(time.Duration(i) * time.Minute),
		}))
	}
	require.NoError(t, repo.Save(ctx, &repository.GameRecord{ID: "other", SessionID: "s2", Result: "X", FinishedAt: base}))

	records, err := repo.ListBySession(ctx, "s1", 2)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "c", records[0].ID)
	assert.Equal(t, "b", records[1].ID)

	records, err = repo.ListBySession(ctx, "s1", 0)
	require.NoError(t, err)
	assert.Len(t, records, 3)

	records, err = repo.ListBySession(ctx, "nobody", 10)
	require.NoError(t, err)
	assert.Empty(t, records)
}
