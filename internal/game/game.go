package game

import (
	"errors"
	"fmt"
)

// ErrInvalidMove is returned by ApplyMove when a precondition fails.
// The engine state is left untouched.
var ErrInvalidMove = errors.New("invalid move")

type PhaseKind string

const (
	InProgress PhaseKind = "in_progress"
	Won        PhaseKind = "won"
	Drawn      PhaseKind = "drawn"
)

// Phase is the status of a single game. Winner is set only when Kind is Won.
type Phase struct {
	Kind   PhaseKind `json:"kind"`
	Winner Mark      `json:"winner,omitempty"`
}

func (p Phase) IsTerminal() bool {
	return p.Kind == Won || p.Kind == Drawn
}

func (p Phase) String() string {
	if p.Kind == Won {
		return fmt.Sprintf("%s(%s)", p.Kind, p.Winner)
	}
	return string(p.Kind)
}

// Scores is the per-mark tally of won games within a session.
type Scores struct {
	X int `json:"x"`
	O int `json:"o"`
}

// Of returns the tally for mark.
func (s Scores) Of(mark Mark) int {
	switch mark {
	case X:
		return s.X
	case O:
		return s.O
	default:
		return 0
	}
}

func (s *Scores) increment(mark Mark) {
	switch mark {
	case X:
		s.X++
	case O:
		s.O++
	}
}

// State is a value snapshot of the engine, safe to hand to other goroutines.
type State struct {
	Board       Board  `json:"board"`
	Turn        Mark   `json:"turn"`
	Phase       Phase  `json:"phase"`
	Scores      Scores `json:"scores"`
	Automated   bool   `json:"automated"`
	WinningLine []int  `json:"winning_line,omitempty"`
	Moves       int    `json:"moves"`
}

// Listener receives engine notifications. Calls are made synchronously from
// the goroutine that mutated the engine.
type Listener interface {
	StateChanged(state State)
	GameEnded(state State)
}

type noopListener struct{}

func (noopListener) StateChanged(State) {}
func (noopListener) GameEnded(State)    {}

type Option func(*Engine)

// WithListener registers the receiver of state notifications.
func WithListener(l Listener) Option {
	return func(e *Engine) {
		if l != nil {
			e.listener = l
		}
	}
}

// WithScores seeds the tally, e.g. one restored from storage.
func WithScores(s Scores) Option {
	return func(e *Engine) {
		e.scores = s
	}
}

// WithAutomation sets the initial automated-opponent flag.
func WithAutomation(on bool) Option {
	return func(e *Engine) {
		e.automated = on
	}
}

// Engine owns one board. It is not safe for concurrent use; callers
// serialize access (see the scheduler package).
type Engine struct {
	board     Board
	turn      Mark
	phase     Phase
	scores    Scores
	automated bool
	history   []Board
	listener  Listener
}

func NewEngine(opts ...Option) *Engine {
	e := &Engine{
		turn:     X,
		phase:    Phase{Kind: InProgress},
		listener: noopListener{},
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// ApplyMove places mark on index and evaluates the result.
func (e *Engine) ApplyMove(index int, mark Mark) error {
	if e.phase.Kind != InProgress {
		return fmt.Errorf("%w: game is %s", ErrInvalidMove, e.phase)
	}
	if !InBounds(index) {
		return fmt.Errorf("%w: cell %d out of range", ErrInvalidMove, index)
	}
	if mark != e.turn {
		return fmt.Errorf("%w: not %s's turn", ErrInvalidMove, mark)
	}
	if e.board[index] != Empty {
		return fmt.Errorf("%w: cell %d is occupied", ErrInvalidMove, index)
	}

	e.board[index] = mark
	e.history = append(e.history, e.board)

	switch {
	case e.board.HasLine(mark):
		e.phase = Phase{Kind: Won, Winner: mark}
		e.scores.increment(mark)
	case e.board.IsFull():
		e.phase = Phase{Kind: Drawn}
	default:
		e.turn = mark.Opponent()
	}

	state := e.State()
	e.listener.StateChanged(state)
	if e.phase.IsTerminal() {
		e.listener.GameEnded(state)
	}

	return nil
}

// Reset starts a new game. Scores and the automation flag survive.
func (e *Engine) Reset() {
	e.board = Board{}
	e.turn = X
	e.phase = Phase{Kind: InProgress}
	e.history = nil
	e.listener.StateChanged(e.State())
}

// ToggleAutomation flips the automated-opponent flag and returns the new
// value. Callers are expected to Reset afterwards.
func (e *Engine) ToggleAutomation() bool {
	e.automated = !e.automated
	return e.automated
}

func (e *Engine) State() State {
	state := State{
		Board:     e.board,
		Turn:      e.turn,
		Phase:     e.phase,
		Scores:    e.scores,
		Automated: e.automated,
		Moves:     len(e.history),
	}
	if e.phase.Kind == Won {
		if line, ok := e.board.WinningLine(e.phase.Winner); ok {
			state.WinningLine = line[:]
		}
	}
	return state
}

func (e *Engine) Board() Board    { return e.board }
func (e *Engine) Turn() Mark      { return e.turn }
func (e *Engine) Phase() Phase    { return e.phase }
func (e *Engine) Scores() Scores  { return e.scores }
func (e *Engine) Automated() bool { return e.automated }

// History returns the board snapshots recorded after each move, oldest first.
func (e *Engine) History() []Board {
	out := make([]Board, len(e.history))
	copy(out, e.history)
	return out
}
