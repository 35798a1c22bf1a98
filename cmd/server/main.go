package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"ctchen222/tictactoe/internal/api/controller"
	"ctchen222/tictactoe/internal/api/service"
	"ctchen222/tictactoe/internal/config"
	"ctchen222/tictactoe/internal/db"
	"ctchen222/tictactoe/internal/events"
	"ctchen222/tictactoe/internal/hub"
	"ctchen222/tictactoe/internal/logger"
	"ctchen222/tictactoe/internal/repository"
	"ctchen222/tictactoe/internal/server"
	"ctchen222/tictactoe/internal/session"
	"ctchen222/tictactoe/internal/telemetry"
)

func main() {
	configPath := flag.String("config", envOr("CONFIG_PATH", "config.yml"), "path to the yml config file")
	flag.Parse()

	conf := config.MustLoad(*configPath)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Initialize telemetry
	shutdown, err := telemetry.InitOtel(ctx, conf.Telemetry)
	if err != nil {
		fatal("failed to initialize telemetry", err)
	}
	defer func() {
		if err := shutdown(context.Background()); err != nil {
			slog.Error("Error shutting down telemetry", "error", err)
		}
	}()

	logger.Init(conf.LogLevel, conf.Telemetry.Enabled)

	// Initialize Redis
	rdb, err := db.NewRedisClient(ctx, conf.Redis.GetRedisAddr())
	if err != nil {
		fatal("failed to initialize redis", err)
	}
	defer rdb.Close()

	// Initialize SQLite DB
	sqlDB, err := db.Open(conf.SQLite.Path)
	if err != nil {
		fatal("failed to open sqlite db", err)
	}
	defer sqlDB.Close()
	if err := db.InitializeDB(sqlDB); err != nil {
		fatal("failed to initialize sqlite db", err)
	}

	// Create repositories
	scoreRepo := repository.NewScoreRepository(rdb, conf.Redis.ScoreTTL)
	presenceRepo := repository.NewPresenceRepository(rdb, conf.Redis.ScoreTTL)
	archiveRepo := repository.NewArchiveRepository(sqlDB)
	accountRepo := repository.NewAccountRepository(sqlDB)
	publisher := events.NewRedisPublisher(rdb)

	// Create hub
	h := hub.NewHub(conf.Game,
		hub.WithDependencies(session.Dependencies{
			Scores:    scoreRepo,
			Archive:   archiveRepo,
			Publisher: publisher,
		}),
		hub.WithPresence(presenceRepo),
		hub.WithEventSource(func(ctx context.Context) <-chan events.Event {
			return events.Subscribe(ctx, rdb)
		}),
	)
	hubDone := make(chan struct{})
	go func() {
		h.Run(ctx)
		close(hubDone)
	}()

	// Create services and controllers
	tokens := service.NewTokenManager(conf.Auth.JWTSecret, conf.Auth.TokenTTL)
	accountController := controller.NewAccountController(service.NewAccountService(accountRepo, tokens))
	gameController := controller.NewGameController(service.NewGameService(scoreRepo, archiveRepo, h))

	// Create the Gin-based server
	srv := server.NewServer(h, tokens, accountController, gameController,
		server.WithStaticDir(conf.StaticDir),
		server.WithHealthCheck("redis", func(ctx context.Context) error { return rdb.Ping(ctx).Err() }),
		server.WithHealthCheck("sqlite", sqlDB.PingContext),
	)

	httpServer := &http.Server{
		Addr:              conf.HTTPAddr,
		Handler:           srv.Engine(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		slog.Info("http server started", "addr", conf.HTTPAddr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			fatal("ListenAndServe", err)
		}
	}()

	<-ctx.Done()

	slog.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		slog.Error("Server forced to shutdown", "error", err)
	}
	<-hubDone

	slog.Info("Server exiting")
}

func envOr(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

func fatal(msg string, err error) {
	slog.Error(msg, "error", err)
	os.Exit(1)
}
