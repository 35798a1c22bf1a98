package player

import (
	"testing"

	"ctchen222/tictactoe/internal/player/playertest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPlayer_Send(t *testing.T) {
	conn := playertest.NewFakeConnection()
	p := New("p1", conn)

	require.NoError(t, p.Send(1, []byte("hello")))
	require.NoError(t, p.Send(1, []byte("world")))

	assert.Equal(t, [][]byte{[]byte("hello"), []byte("world")}, conn.Written())
}

func TestNew_ConnectionIDsAreUnique(t *testing.T) {
	first := New("p1", playertest.NewFakeConnection())
	second := New("p1", playertest.NewFakeConnection())

	assert.NotEmpty(t, first.ConnID)
	assert.NotEqual(t, first.ConnID, second.ConnID)
	assert.Equal(t, first.ID, second.ID)
}
