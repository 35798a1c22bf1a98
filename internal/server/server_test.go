package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"ctchen222/tictactoe/internal/api/controller"
	"ctchen222/tictactoe/internal/api/service"
	"ctchen222/tictactoe/internal/game"
	"ctchen222/tictactoe/internal/hub"
	"ctchen222/tictactoe/internal/hub/types"
	"ctchen222/tictactoe/internal/repository/mocks"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

type recordingHub struct {
	requests chan *types.RegistrationRequest
	accept   bool
}

func (h *recordingHub) Register(req *types.RegistrationRequest) bool {
	h.requests <- req
	return h.accept
}

func (h *recordingHub) Stats() hub.Stats { return hub.Stats{} }

func newTestServer(t *testing.T, h *recordingHub, opts ...Option) (*httptest.Server, *service.TokenManager) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	ctrl := gomock.NewController(t)

	tokens := service.NewTokenManager("secret", time.Hour)
	ac := controller.NewAccountController(service.NewAccountService(mocks.NewMockAccountRepository(ctrl), tokens))
	gc := controller.NewGameController(service.NewGameService(mocks.NewMockScoreRepository(ctrl), mocks.NewMockArchiveRepository(ctrl), h))

	ts := httptest.NewServer(NewServer(h, tokens, ac, gc, opts...).Engine())
	t.Cleanup(ts.Close)
	return ts, tokens
}

func wsURL(ts *httptest.Server, query string) string {
	return "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws?" + query
}

func TestWebSocket_RequiresToken(t *testing.T) {
	h := &recordingHub{requests: make(chan *types.RegistrationRequest, 1), accept: true}
	ts, _ := newTestServer(t, h)

	_, resp, err := websocket.DefaultDialer.Dial(wsURL(ts, "token=bogus"), nil)

	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Empty(t, h.requests)
}

func TestWebSocket_RegistersPlayer(t *testing.T) {
	h := &recordingHub{requests: make(chan *types.RegistrationRequest, 1), accept: true}
	ts, tokens := newTestServer(t, h)

	token, err := tokens.Issue(service.Identity{PlayerID: "p1", Guest: true})
	require.NoError(t, err)

	conn, _, err := websocket.DefaultDialer.Dial(wsURL(ts, "token="+token+"&session=s1&difficulty=easy&ai=false"), nil)
	require.NoError(t, err)
	defer conn.Close()

	var req *types.RegistrationRequest
	select {
	case req = <-h.requests:
	case <-time.After(time.Second):
		t.Fatal("no registration")
	}

	assert.Equal(t, "p1", req.Player.ID)
	assert.Equal(t, "s1", req.SessionID)
	assert.Equal(t, "easy", req.Difficulty)
	require.NotNil(t, req.Automated)
	assert.False(t, *req.Automated)

	// The registered connection talks to the dialing client.
	require.NoError(t, req.Player.Send(websocket.TextMessage, []byte(`{"type":"welcome"}`)))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"welcome"}`, string(data))
}

func TestWebSocket_InvalidAIFlag(t *testing.T) {
	h := &recordingHub{requests: make(chan *types.RegistrationRequest, 1), accept: true}
	ts, tokens := newTestServer(t, h)
	token, err := tokens.Issue(service.Identity{PlayerID: "p1"})
	require.NoError(t, err)

	_, resp, err := websocket.DefaultDialer.Dial(wsURL(ts, "token="+token+"&ai=maybe"), nil)

	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestSessionHistory_RequiresToken(t *testing.T) {
	gin.SetMode(gin.TestMode)
	ctrl := gomock.NewController(t)
	scores := mocks.NewMockScoreRepository(ctrl)
	scores.EXPECT().Get(gomock.Any(), "s1").Return(game.Scores{X: 1}, nil)

	h := &recordingHub{requests: make(chan *types.RegistrationRequest, 1)}
	tokens := service.NewTokenManager("secret", time.Hour)
	ac := controller.NewAccountController(service.NewAccountService(mocks.NewMockAccountRepository(ctrl), tokens))
	gc := controller.NewGameController(service.NewGameService(scores, mocks.NewMockArchiveRepository(ctrl), h))
	ts := httptest.NewServer(NewServer(h, tokens, ac, gc).Engine())
	t.Cleanup(ts.Close)

	for _, path := range []string{"/api/sessions/s1/scores", "/api/sessions/s1/games", "/api/games/g1"} {
		resp, err := http.Get(ts.URL + path)
		require.NoError(t, err)
		resp.Body.Close()
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode, path)
	}

	token, err := tokens.Issue(service.Identity{PlayerID: "p1", Guest: true})
	require.NoError(t, err)
	req, err := http.NewRequest(http.MethodGet, ts.URL+"/api/sessions/s1/scores", nil)
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	stats, err := http.Get(ts.URL + "/api/stats")
	require.NoError(t, err)
	stats.Body.Close()
	assert.Equal(t, http.StatusOK, stats.StatusCode, "stats stay public")
}

func TestHealth(t *testing.T) {
	h := &recordingHub{requests: make(chan *types.RegistrationRequest, 1)}

	ts, _ := newTestServer(t, h, WithHealthCheck("redis", func(context.Context) error { return nil }))
	resp, err := http.Get(ts.URL + "/healthz")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	ts, _ = newTestServer(t, h, WithHealthCheck("sqlite", func(context.Context) error { return errors.New("locked") }))
	resp, err = http.Get(ts.URL + "/healthz")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)

	var body struct {
		Extras map[string]string `json:"extras"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "locked", body.Extras["sqlite"])
}

func TestStaticFallback(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "index.html"), []byte("<h1>tic-tac-toe</h1>"), 0o644))
	h := &recordingHub{requests: make(chan *types.RegistrationRequest, 1)}
	ts, _ := newTestServer(t, h, WithStaticDir(dir))

	resp, err := http.Get(ts.URL + "/")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}
