// Package playertest provides an in-memory player.Connection for tests.
package playertest

import (
	"errors"
	"sync"
)

// ErrConnectionClosed is returned by a FakeConnection after Close.
var ErrConnectionClosed = errors.New("connection closed")

// FakeConnection records everything written to it in order. Incoming
// frames are queued with Push.
type FakeConnection struct {
	mu      sync.Mutex
	written [][]byte
	inbox   chan []byte
	closed  chan struct{}
	once    sync.Once
}

func NewFakeConnection() *FakeConnection {
	return &FakeConnection{
		inbox:  make(chan []byte, 16),
		closed: make(chan struct{}),
	}
}

// Push queues a frame to be returned by ReadMessage.
func (f *FakeConnection) Push(data []byte) {
	f.inbox <- data
}

func (f *FakeConnection) WriteMessage(_ int, data []byte) error {
	select {
	case <-f.closed:
		return ErrConnectionClosed
	default:
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.written = append(f.written, append([]byte(nil), data...))
	return nil
}

func (f *FakeConnection) ReadMessage() (int, []byte, error) {
	select {
	case data := <-f.inbox:
		return 1, data, nil
	case <-f.closed:
		return 0, nil, ErrConnectionClosed
	}
}

func (f *FakeConnection) Close() error {
	f.once.Do(func() { close(f.closed) })
	return nil
}

// Written returns a copy of every frame written so far.
func (f *FakeConnection) Written() [][]byte {
	f.mu.Lock()
	defer f.mu.Unlock()

	out := make([][]byte, len(f.written))
	copy(out, f.written)
	return out
}

func (f *FakeConnection) IsClosed() bool {
	select {
	case <-f.closed:
		return true
	default:
		return false
	}
}
