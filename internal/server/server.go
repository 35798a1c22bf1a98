package server

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"ctchen222/tictactoe/internal/api/controller"
	"ctchen222/tictactoe/internal/api/response"
	"ctchen222/tictactoe/internal/api/service"
	"ctchen222/tictactoe/internal/hub/types"
	"ctchen222/tictactoe/internal/player"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var tracer = otel.Tracer("server")

// Registrar accepts websocket players; *hub.Hub satisfies it.
type Registrar interface {
	Register(req *types.RegistrationRequest) bool
}

// HealthCheck reports whether a backing store is reachable.
type HealthCheck func(ctx context.Context) error

type Server struct {
	hub               Registrar
	tokens            *service.TokenManager
	accountController *controller.AccountController
	gameController    *controller.GameController
	staticDir         string
	checks            map[string]HealthCheck
	upgrader          websocket.Upgrader
}

type Option func(*Server)

func WithStaticDir(dir string) Option {
	return func(s *Server) { s.staticDir = dir }
}

func WithHealthCheck(name string, check HealthCheck) Option {
	return func(s *Server) { s.checks[name] = check }
}

func NewServer(h Registrar, tokens *service.TokenManager, ac *controller.AccountController, gc *controller.GameController, opts ...Option) *Server {
	s := &Server{
		hub:               h,
		tokens:            tokens,
		accountController: ac,
		gameController:    gc,
		checks:            make(map[string]HealthCheck),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Engine builds the gin router.
func (s *Server) Engine() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), requestLogger())

	r.GET("/healthz", s.handleHealth)
	r.GET("/ws", s.handleWebSocket)

	api := r.Group("/api")
	{
		accounts := api.Group("/accounts")
		accounts.POST("/register", s.accountController.Register)
		accounts.POST("/login", s.accountController.Login)
		accounts.POST("/guest", s.accountController.GuestLogin)

		api.GET("/stats", s.gameController.Stats)

		// Session history is readable by any signed-in player who knows the id.
		history := api.Group("", s.requireToken())
		history.GET("/sessions/:id/scores", s.gameController.Scores)
		history.GET("/sessions/:id/games", s.gameController.Games)
		history.GET("/games/:id", s.gameController.Game)
	}

	if s.staticDir != "" {
		r.NoRoute(gin.WrapH(http.FileServer(http.Dir(s.staticDir))))
	}

	return r
}

func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		slog.DebugContext(c.Request.Context(), "http request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"duration", time.Since(start),
		)
	}
}

// tokenFrom reads the JWT from the Authorization header or, for browsers
// opening a websocket, from the token query parameter.
func tokenFrom(c *gin.Context) string {
	if header := c.GetHeader("Authorization"); strings.HasPrefix(header, "Bearer ") {
		return strings.TrimPrefix(header, "Bearer ")
	}
	return c.Query("token")
}

// requireToken rejects requests without a valid token.
func (s *Server) requireToken() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, err := s.tokens.Verify(tokenFrom(c)); err != nil {
			response.ErrorResponse(c, http.StatusUnauthorized, err.Error())
			return
		}
		c.Next()
	}
}

func (s *Server) handleHealth(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	status := make(map[string]string, len(s.checks))
	healthy := true
	for name, check := range s.checks {
		if err := check(ctx); err != nil {
			status[name] = err.Error()
			healthy = false
			continue
		}
		status[name] = "ok"
	}

	if !healthy {
		c.JSON(http.StatusServiceUnavailable, response.NewResponse(false, http.StatusServiceUnavailable, status))
		return
	}
	response.SuccessResponse(c, status)
}

// handleWebSocket verifies the bearer token, upgrades the connection and
// passes a registration request to the hub. It does not distinguish between
// new and reconnecting players.
func (s *Server) handleWebSocket(c *gin.Context) {
	r := c.Request
	_, span := tracer.Start(r.Context(), "server.handleWebSocket", trace.WithAttributes(
		attribute.String("http.url", r.URL.String()),
		attribute.String("http.method", r.Method),
	))
	defer span.End()

	identity, err := s.tokens.Verify(tokenFrom(c))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Invalid token")
		response.ErrorResponse(c, http.StatusUnauthorized, err.Error())
		return
	}
	span.SetAttributes(attribute.String("player.id", identity.PlayerID))

	req := &types.RegistrationRequest{
		SessionID:  c.Query("session"),
		Difficulty: c.Query("difficulty"),
	}
	if raw := c.Query("ai"); raw != "" {
		on, err := strconv.ParseBool(raw)
		if err != nil {
			response.ErrorResponse(c, http.StatusBadRequest, "ai must be a boolean")
			return
		}
		req.Automated = &on
	}
	span.SetAttributes(
		attribute.String("session.id", req.SessionID),
		attribute.String("game.difficulty", req.Difficulty),
	)

	conn, err := s.upgrader.Upgrade(c.Writer, r, nil)
	if err != nil {
		slog.Error("Failed to upgrade connection", "error", err)
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to upgrade connection")
		return
	}

	req.Player = player.New(identity.PlayerID, conn)
	if !s.hub.Register(req) {
		_ = conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down"))
		_ = conn.Close()
	}
}
