package repository

//go:generate mockgen -source=archive_repository.go -destination=mocks/archive_repository.go -package=mocks

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"ctchen222/tictactoe/internal/game"

	"github.com/jmoiron/sqlx"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const defaultListLimit = 20

// ArchiveRepository stores finished games with their move-by-move history.
type ArchiveRepository interface {
	Save(ctx context.Context, record *GameRecord) error
	FindByID(ctx context.Context, id string) (*GameRecord, error)
	ListBySession(ctx context.Context, sessionID string, limit int) ([]GameRecord, error)
}

// gameRow is the sqlite representation of a GameRecord.
type gameRow struct {
	ID         string `db:"id"`
	SessionID  string `db:"session_id"`
	Result     string `db:"result"`
	Moves      int    `db:"moves"`
	History    string `db:"history"`
	ScoreX     int    `db:"score_x"`
	ScoreO     int    `db:"score_o"`
	FinishedAt int64  `db:"finished_at"`
}

func (row gameRow) record() (GameRecord, error) {
	var history []game.Board
	if err := json.Unmarshal([]byte(row.History), &history); err != nil {
		return GameRecord{}, fmt.Errorf("failed to unmarshal history of game %s: %w", row.ID, err)
	}
	return GameRecord{
		ID:         row.ID,
		SessionID:  row.SessionID,
		Result:     row.Result,
		Moves:      row.Moves,
		History:    history,
		Scores:     game.Scores{X: row.ScoreX, O: row.ScoreO},
		FinishedAt: time.UnixMilli(row.FinishedAt).UTC(),
	}, nil
}

type sqliteArchiveRepository struct {
	db *sqlx.DB
}

// NewArchiveRepository creates a new SQLite-based ArchiveRepository.
func NewArchiveRepository(db *sqlx.DB) ArchiveRepository {
	return &sqliteArchiveRepository{db: db}
}

func (r *sqliteArchiveRepository) Save(ctx context.Context, record *GameRecord) error {
	ctx, span := tracer.Start(ctx, "ArchiveRepository.Save", trace.WithAttributes(
		attribute.String("game.id", record.ID),
		attribute.String("session.id", record.SessionID),
	))
	defer span.End()

	history, err := json.Marshal(record.History)
	if err != nil {
		return fmt.Errorf("failed to marshal history: %w", err)
	}
	if record.FinishedAt.IsZero() {
		record.FinishedAt = time.Now().UTC()
	}

	query := `INSERT INTO games (id, session_id, result, moves, history, score_x, score_o, finished_at)
		VALUES (:id, :session_id, :result, :moves, :history, :score_x, :score_o, :finished_at)`
	_, err = r.db.NamedExecContext(ctx, query, gameRow{
		ID:         record.ID,
		SessionID:  record.SessionID,
		Result:     record.Result,
		Moves:      record.Moves,
		History:    string(history),
		ScoreX:     record.Scores.X,
		ScoreO:     record.Scores.O,
		FinishedAt: record.FinishedAt.UnixMilli(),
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to save game")
		return fmt.Errorf("failed to save game %s: %w", record.ID, err)
	}
	return nil
}

func (r *sqliteArchiveRepository) FindByID(ctx context.Context, id string) (*GameRecord, error) {
	ctx, span := tracer.Start(ctx, "ArchiveRepository.FindByID", trace.WithAttributes(
		attribute.String("game.id", id),
	))
	defer span.End()

	var row gameRow
	query := `SELECT id, session_id, result, moves, history, score_x, score_o, finished_at FROM games WHERE id = ?`
	if err := r.db.GetContext(ctx, &row, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrGameNotFound
		}
		span.RecordError(err)
		return nil, fmt.Errorf("failed to get game %s: %w", id, err)
	}

	record, err := row.record()
	if err != nil {
		return nil, err
	}
	return &record, nil
}

// ListBySession returns the most recent games of a session, newest first.
func (r *sqliteArchiveRepository) ListBySession(ctx context.Context, sessionID string, limit int) ([]GameRecord, error) {
	ctx, span := tracer.Start(ctx, "ArchiveRepository.ListBySession", trace.WithAttributes(
		attribute.String("session.id", sessionID),
	))
	defer span.End()

	if limit <= 0 {
		limit = defaultListLimit
	}

	var rows []gameRow
	query := `SELECT id, session_id, result, moves, history, score_x, score_o, finished_at
		FROM games WHERE session_id = ? ORDER BY finished_at DESC, rowid DESC LIMIT ?`
	if err := r.db.SelectContext(ctx, &rows, query, sessionID, limit); err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to list games of session %s: %w", sessionID, err)
	}

	records := make([]GameRecord, 0, len(rows))
	for _, row := range rows {
		record, err := row.record()
		if err != nil {
			return nil, err
		}
		records = append(records, record)
	}
	return records, nil
}
