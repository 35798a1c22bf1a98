package player

import (
	"sync"

	"github.com/google/uuid"
)

// Connection is an interface that abstracts the websocket connection.
type Connection interface {
	WriteMessage(messageType int, data []byte) error
	ReadMessage() (int, []byte, error)
	Close() error
}

// Status is the connection state of a player.
type Status string

const (
	StatusConnected    Status = "connected"
	StatusDisconnected Status = "disconnected"
)

// Player represents one browser connection attached to a session. ID is
// the account or guest id from the token and is shared by every tab of the
// same user; ConnID is unique per connection.
type Player struct {
	ID     string
	ConnID string
	Conn   Connection

	mu sync.Mutex
}

func New(id string, conn Connection) *Player {
	return &Player{ID: id, ConnID: uuid.NewString(), Conn: conn}
}

// Send writes a single frame. Writes are serialized because gorilla
// connections support only one concurrent writer.
func (p *Player) Send(messageType int, data []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	return p.Conn.WriteMessage(messageType, data)
}
