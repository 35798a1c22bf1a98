package session

import (
	"context"
	"errors"
	"log/slog"
	"math/rand/v2"
	"sync"
	"time"

	"ctchen222/tictactoe/internal/bot"
	"ctchen222/tictactoe/internal/events"
	"ctchen222/tictactoe/internal/game"
	"ctchen222/tictactoe/internal/player"
	"ctchen222/tictactoe/internal/repository"
	"ctchen222/tictactoe/internal/scheduler"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

const (
	DefaultThinkDelay = 800 * time.Millisecond
	persistTimeout    = 3 * time.Second
)

var (
	tracer = otel.Tracer("session")
	meter  = otel.Meter("session")
)

// ErrClosed is returned when a request reaches a session whose loop has stopped.
var ErrClosed = errors.New("session closed")

// Dependencies are the stores a session reports finished games to. Any of
// them may be nil.
type Dependencies struct {
	Scores    repository.ScoreRepository
	Archive   repository.ArchiveRepository
	Publisher events.Publisher
}

type Option func(*Session)

func WithThinkDelay(d time.Duration) Option {
	return func(s *Session) {
		if d >= 0 {
			s.thinkDelay = d
		}
	}
}

func WithDifficulty(difficulty string) Option {
	return func(s *Session) {
		s.opponent.SetDifficulty(difficulty)
	}
}

// WithRand makes the opponent's random choices reproducible.
func WithRand(rng *rand.Rand) Option {
	return func(s *Session) {
		s.opponent = bot.NewOpponent(s.opponent.Difficulty(), rng)
	}
}

func WithAutomation(on bool) Option {
	return func(s *Session) {
		s.engineOpts = append(s.engineOpts, game.WithAutomation(on))
	}
}

// WithOwner restricts the session to connections of one player id.
func WithOwner(playerID string) Option {
	return func(s *Session) {
		s.Owner = playerID
	}
}

// WithScores seeds the tally restored from the score store.
func WithScores(scores game.Scores) Option {
	return func(s *Session) {
		s.engineOpts = append(s.engineOpts, game.WithScores(scores))
	}
}

// Session binds browser connections to one engine. The engine, the sound
// flag and the current game id are only touched from the loop goroutine.
type Session struct {
	ID    string
	Owner string

	loop       *scheduler.Loop
	engine     *game.Engine
	engineOpts []game.Option
	opponent   *bot.Opponent
	botMark    game.Mark
	thinkDelay time.Duration
	sound      bool
	gameID     string

	deps          Dependencies
	gamesFinished metric.Int64Counter

	mu      sync.Mutex
	players map[string]*player.Player
}

func New(id string, deps Dependencies, opts ...Option) *Session {
	s := &Session{
		ID:         id,
		loop:       scheduler.New(0),
		opponent:   bot.NewOpponent(bot.Hard, nil),
		botMark:    game.O,
		thinkDelay: DefaultThinkDelay,
		sound:      true,
		gameID:     uuid.NewString(),
		deps:       deps,
		players:    make(map[string]*player.Player),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.engine = game.NewEngine(append(s.engineOpts, game.WithListener(s))...)

	counter, err := meter.Int64Counter("tictactoe.games.finished",
		metric.WithDescription("Number of finished games by result"),
	)
	if err != nil {
		slog.Warn("failed to create games counter", "error", err)
	}
	s.gamesFinished = counter

	return s
}

// Start runs the session loop until ctx is done or Close is called.
func (s *Session) Start(ctx context.Context) {
	go s.loop.Run(ctx)
}

// Close stops the loop, drops pending automated moves and closes every
// attached connection.
func (s *Session) Close() {
	s.loop.Stop()

	s.mu.Lock()
	defer s.mu.Unlock()
	for id, p := range s.players {
		if p.Conn != nil {
			_ = p.Conn.Close()
		}
		delete(s.players, id)
	}
}

func (s *Session) Done() <-chan struct{} {
	return s.loop.Done()
}

// AddPlayer attaches p and sends it the welcome and the current state. The
// same player id may be attached more than once, e.g. from two tabs.
func (s *Session) AddPlayer(p *player.Player) error {
	s.mu.Lock()
	s.players[p.ConnID] = p
	s.mu.Unlock()

	if !s.loop.Post(func() { s.greet(p) }) {
		s.RemovePlayer(p)
		return ErrClosed
	}
	return nil
}

// RemovePlayer detaches this connection of the player. It returns how many
// connections remain and whether p was attached at all.
func (s *Session) RemovePlayer(p *player.Player) (int, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.players[p.ConnID]
	if !ok || current != p {
		return len(s.players), false
	}
	delete(s.players, p.ConnID)
	return len(s.players), true
}

// CanJoin reports whether a connection of playerID may attach.
func (s *Session) CanJoin(playerID string) bool {
	return s.Owner == "" || s.Owner == playerID
}

func (s *Session) PlayerCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return len(s.players)
}

func (s *Session) snapshotPlayers() []*player.Player {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]*player.Player, 0, len(s.players))
	for _, p := range s.players {
		out = append(out, p)
	}
	return out
}

// State returns the engine state as seen by the loop.
func (s *Session) State(ctx context.Context) (game.State, error) {
	result := make(chan game.State, 1)
	if !s.loop.Post(func() { result <- s.engine.State() }) {
		return game.State{}, ErrClosed
	}

	select {
	case state := <-result:
		return state, nil
	case <-s.loop.Done():
		return game.State{}, ErrClosed
	case <-ctx.Done():
		return game.State{}, ctx.Err()
	}
}

// Submit hands a raw client message to the loop.
func (s *Session) Submit(p *player.Player, raw []byte) bool {
	return s.loop.Post(func() {
		s.HandleMessage(context.Background(), p, raw)
	})
}

func (s *Session) reset() {
	s.gameID = uuid.NewString()
	s.engine.Reset()
	s.scheduleAutomatedMove()
}

// scheduleAutomatedMove arms the thinking timer when the opponent is due.
func (s *Session) scheduleAutomatedMove() {
	if !s.engine.Automated() || s.engine.Phase().IsTerminal() || s.engine.Turn() != s.botMark {
		return
	}
	s.loop.After(s.thinkDelay, s.playAutomatedMove)
}

// playAutomatedMove runs on the loop when the thinking timer fires. The
// board may have changed since the timer was armed.
func (s *Session) playAutomatedMove() {
	ctx, span := tracer.Start(context.Background(), "session.playAutomatedMove")
	defer span.End()

	if !s.engine.Automated() || s.engine.Phase().IsTerminal() || s.engine.Turn() != s.botMark {
		return
	}

	cell, err := s.opponent.SelectMove(s.engine.Board(), s.botMark)
	if err != nil {
		slog.ErrorContext(ctx, "opponent could not select a move", "session.id", s.ID, "error", err)
		span.RecordError(err)
		return
	}

	if err := s.engine.ApplyMove(cell, s.botMark); err != nil {
		if errors.Is(err, game.ErrInvalidMove) {
			slog.DebugContext(ctx, "stale automated move ignored", "session.id", s.ID, "cell", cell, "error", err)
			return
		}
		slog.ErrorContext(ctx, "automated move failed", "session.id", s.ID, "error", err)
		span.RecordError(err)
	}
}
