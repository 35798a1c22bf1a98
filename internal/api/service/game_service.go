package service

import (
	"context"

	"ctchen222/tictactoe/internal/api/models"
	"ctchen222/tictactoe/internal/game"
	"ctchen222/tictactoe/internal/hub"
	"ctchen222/tictactoe/internal/repository"
)

// StatsProvider is satisfied by *hub.Hub.
type StatsProvider interface {
	Stats() hub.Stats
}

// GameService exposes stored scores, archived games and global statistics.
type GameService interface {
	Scores(ctx context.Context, sessionID string) (game.Scores, error)
	Games(ctx context.Context, sessionID string, limit int) ([]models.GameSummary, error)
	Game(ctx context.Context, id string) (*repository.GameRecord, error)
	Stats() hub.Stats
}

type gameService struct {
	scores  repository.ScoreRepository
	archive repository.ArchiveRepository
	stats   StatsProvider
}

func NewGameService(scores repository.ScoreRepository, archive repository.ArchiveRepository, stats StatsProvider) GameService {
	return &gameService{scores: scores, archive: archive, stats: stats}
}

func (s *gameService) Scores(ctx context.Context, sessionID string) (game.Scores, error) {
	return s.scores.Get(ctx, sessionID)
}

func (s *gameService) Games(ctx context.Context, sessionID string, limit int) ([]models.GameSummary, error) {
	records, err := s.archive.ListBySession(ctx, sessionID, limit)
	if err != nil {
		return nil, err
	}

	summaries := make([]models.GameSummary, 0, len(records))
	for _, r := range records {
		summaries = append(summaries, models.GameSummary{
			ID:         r.ID,
			Result:     r.Result,
			Moves:      r.Moves,
			Scores:     r.Scores,
			FinishedAt: r.FinishedAt,
		})
	}
	return summaries, nil
}

func (s *gameService) Game(ctx context.Context, id string) (*repository.GameRecord, error) {
	return s.archive.FindByID(ctx, id)
}

func (s *gameService) Stats() hub.Stats {
	return s.stats.Stats()
}
