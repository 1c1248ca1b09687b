package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/rocketscienceinc/neon-tictactoe/internal/config"
	"github.com/rocketscienceinc/neon-tictactoe/internal/repository"
	"github.com/rocketscienceinc/neon-tictactoe/internal/repository/storage"
	"github.com/rocketscienceinc/neon-tictactoe/internal/service"
	"github.com/rocketscienceinc/neon-tictactoe/internal/tictactoe"
	"github.com/rocketscienceinc/neon-tictactoe/internal/usecase"
	"github.com/rocketscienceinc/neon-tictactoe/transport/rest"
	"github.com/rocketscienceinc/neon-tictactoe/transport/websocket"
)

var ErrAddrNotFound = errors.New("redis address string is empty")

// RunApp - runs the application.
func RunApp(logger *slog.Logger, conf *config.Config) error {
	log := logger.With("component", "app")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigs
		log.Info("Received signal, shutting down", "signal", sig)
		cancel()
	}()

	redisAddrString := conf.Redis.GetRedisAddr()
	if redisAddrString == "" {
		return ErrAddrNotFound
	}

	redisStorage, err := storage.New(ctx, redisAddrString)
	if err != nil {
		return fmt.Errorf("could not connect to redis storage: %w", err)
	}

	defer func() {
		if err = redisStorage.Close(); err != nil {
			log.Error("could not close redis storage", "error", err)
		}
	}()

	sessionRepo := repository.NewSessionRepository(redisStorage)
	gameManager := usecase.NewGameManager(
		logger,
		sessionRepo,
		clock.New(),
		conf.Game.Engine(),
		conf.Game.SessionTTL,
		newOpponent,
	)
	defer gameManager.Close(context.WithoutCancel(ctx))

	// run HTTP server
	httpErrCh := make(chan error, 1)
	go func() {
		log.Info("Starting HTTP server", "port", conf.HTTPPort)
		if httpErr := rest.Start(ctx, conf.HTTPPort, rest.NewRouter(logger, gameManager)); httpErr != nil {
			log.Error("HTTP server error", "error", httpErr)
			httpErrCh <- httpErr
		}
	}()

	// run Websocket server
	wsErrCh := make(chan error, 1)
	go func() {
		log.Info("Starting WebSocket server", "port", conf.SocketPort)
		wsServer := websocket.New(logger, gameManager)
		if wsErr := wsServer.Start(ctx, conf.SocketPort); wsErr != nil {
			log.Error("WebSocket server error", "error", wsErr)
			wsErrCh <- wsErr
		}
	}()

	select {
	case err = <-httpErrCh:
		return fmt.Errorf("HTTP server error: %w", err)
	case err = <-wsErrCh:
		return fmt.Errorf("WebSocket server error: %w", err)
	case <-ctx.Done():
		log.Info("Application context canceled, shutting down")
		return nil
	}
}

// newOpponent - every session gets its own source, rand.Rand is not safe for concurrent use.
func newOpponent() tictactoe.Opponent {
	return service.NewBotService(rand.New(rand.NewSource(time.Now().UnixNano())))
}
