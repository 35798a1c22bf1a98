package hub

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"ctchen222/tictactoe/internal/config"
	"ctchen222/tictactoe/internal/events"
	"ctchen222/tictactoe/internal/hub/types"
	"ctchen222/tictactoe/internal/player"
	"ctchen222/tictactoe/internal/repository"
	"ctchen222/tictactoe/internal/session"

	"go.opentelemetry.io/otel"
)

var tracer = otel.Tracer("hub")

// EventSource yields the global events of every server instance.
type EventSource func(ctx context.Context) <-chan events.Event

// Stats aggregates finished games across all instances. The active counts
// are local to this instance.
type Stats struct {
	GamesWonX         int `json:"games_won_x"`
	GamesWonO         int `json:"games_won_o"`
	GamesDrawn        int `json:"games_drawn"`
	ActiveSessions    int `json:"active_sessions"`
	ActiveConnections int `json:"active_connections"`
}

// idleTimer closes a session that nobody reconnected to. seq tells a fired
// timer apart from the one that replaced it.
type idleTimer struct {
	timer *time.Timer
	seq   uint64
}

type idleExpiry struct {
	sessionID string
	seq       uint64
}

// Hub owns the sessions of this server instance. The sessions, connections
// and idle maps are only touched by the Run goroutine.
type Hub struct {
	sessions    map[string]*session.Session
	connections map[string]int
	idle        map[string]idleTimer
	idleSeq     uint64
	register    chan *types.RegistrationRequest
	unregister  chan *types.Departure
	expired     chan idleExpiry
	done        chan struct{}

	deps     session.Dependencies
	presence repository.PresenceRepository
	source   EventSource
	settings config.Game

	statsMu sync.Mutex
	stats   Stats
}

type Option func(*Hub)

func WithDependencies(deps session.Dependencies) Option {
	return func(h *Hub) { h.deps = deps }
}

func WithPresence(presence repository.PresenceRepository) Option {
	return func(h *Hub) { h.presence = presence }
}

func WithEventSource(source EventSource) Option {
	return func(h *Hub) { h.source = source }
}

// NewHub creates a new hub.
func NewHub(settings config.Game, opts ...Option) *Hub {
	h := &Hub{
		sessions:    make(map[string]*session.Session),
		connections: make(map[string]int),
		idle:        make(map[string]idleTimer),
		register:    make(chan *types.RegistrationRequest),
		unregister:  make(chan *types.Departure),
		expired:     make(chan idleExpiry),
		done:        make(chan struct{}),
		settings:    settings,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Run starts the hub. It returns when ctx is done, after closing every session.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)

	var incoming <-chan events.Event
	if h.source != nil {
		incoming = h.source(ctx)
		slog.InfoContext(ctx, "Event subscriber started", "channel", events.EventsChannel)
	}

	for {
		select {
		case <-ctx.Done():
			for id, t := range h.idle {
				t.timer.Stop()
				delete(h.idle, id)
			}
			for id, s := range h.sessions {
				s.Close()
				delete(h.sessions, id)
			}
			h.setActiveSessions(0)
			slog.Info("Hub stopped")
			return

		case req := <-h.register:
			h.handleRegistration(ctx, req)

		case d := <-h.unregister:
			h.handleDeparture(ctx, d)

		case exp := <-h.expired:
			h.handleIdleExpiry(ctx, exp)

		case event, ok := <-incoming:
			if !ok {
				incoming = nil
				continue
			}
			h.handleEvent(ctx, event)
		}
	}
}

// Register hands a player to the hub. It reports false once the hub has stopped.
func (h *Hub) Register(req *types.RegistrationRequest) bool {
	select {
	case h.register <- req:
		return true
	case <-h.done:
		return false
	}
}

func (h *Hub) leave(sessionID string) func(*player.Player) {
	return func(p *player.Player) {
		select {
		case h.unregister <- &types.Departure{SessionID: sessionID, Player: p}:
		case <-h.done:
		}
	}
}

// Stats returns a snapshot of the aggregated statistics.
func (h *Hub) Stats() Stats {
	h.statsMu.Lock()
	defer h.statsMu.Unlock()

	return h.stats
}

func (h *Hub) setActiveSessions(n int) {
	h.statsMu.Lock()
	defer h.statsMu.Unlock()

	h.stats.ActiveSessions = n
}

func (h *Hub) addConnection(playerID string, delta int) int {
	n := h.connections[playerID] + delta
	if n <= 0 {
		delete(h.connections, playerID)
		n = 0
	} else {
		h.connections[playerID] = n
	}

	h.statsMu.Lock()
	h.stats.ActiveConnections += delta
	h.statsMu.Unlock()

	return n
}
