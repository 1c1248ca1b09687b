package websocket

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	"github.com/rocketscienceinc/neon-tictactoe/internal/tictactoe"
)

const (
	readLimit       = 4096
	writeTimeout    = 5 * time.Second
	pongWait        = 60 * time.Second
	shutdownTimeout = 5 * time.Second
)

type uGame interface {
	Connect(ctx context.Context, id string, sub tictactoe.Notifier) (string, tictactoe.Session, error)
	Disconnect(ctx context.Context, id string, sub tictactoe.Notifier)

	StartSession(ctx context.Context, id, mode string) error
	MakeTurn(ctx context.Context, id string, cell int) (bool, error)
	NextRound(ctx context.Context, id string) (bool, error)
	RestartRound(ctx context.Context, id string) (bool, error)
	ResetSession(ctx context.Context, id string) (bool, error)
	BackToMenu(ctx context.Context, id string) error
}

type handlerFunc func(ctx context.Context, message *Message, client *client) error

type Server struct {
	logger   *slog.Logger
	uGame    uGame
	upgrader websocket.Upgrader

	// a connection silent for pongWait is dropped, pings go out every pingPeriod
	pongWait   time.Duration
	pingPeriod time.Duration

	handlers map[string]handlerFunc
}

func New(logger *slog.Logger, uGame uGame) *Server {
	server := &Server{
		logger: logger.With("component", "websocket"),
		uGame:  uGame,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
		pongWait:   pongWait,
		pingPeriod: pongWait * 9 / 10,

		handlers: make(map[string]handlerFunc),
	}

	server.handlers[actionConnect] = server.handleConnect
	server.handlers["session:start"] = server.handleStartSession
	server.handlers["game:move"] = server.handleMove
	server.handlers["round:next"] = server.handleNextRound
	server.handlers["round:restart"] = server.handleRestartRound
	server.handlers["session:reset"] = server.handleResetSession
	server.handlers["session:menu"] = server.handleBackToMenu

	return server
}

// Handler - returns the router serving the websocket endpoint.
func (that *Server) Handler(ctx context.Context) http.Handler {
	router := chi.NewRouter()
	router.Get("/ws", func(w http.ResponseWriter, r *http.Request) {
		that.upgradeToWebSocket(ctx, w, r)
	})

	return router
}

// Start - starts WebSocket server and stops it when ctx is done.
func (that *Server) Start(ctx context.Context, port string) error {
	srv := &http.Server{
		Addr:        ":" + port,
		Handler:     that.Handler(ctx),
		ReadTimeout: 10 * time.Second,
		IdleTimeout: 30 * time.Second,
	}

	go func() {
		<-ctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			that.logger.Error("failed to shut down server", "error", err)
		}
	}()

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("failed to start server: %w", err)
	}

	return nil
}

// upgradeToWebSocket - upgrades the connection to WebSocket and serves it until it closes.
func (that *Server) upgradeToWebSocket(ctx context.Context, writer http.ResponseWriter, req *http.Request) {
	log := that.logger.With("method", "upgradeToWebSocket")

	conn, err := that.upgrader.Upgrade(writer, req, nil)
	if err != nil {
		log.Error("failed to upgrade connection", "error", err)
		return
	}

	conn.SetReadLimit(readLimit)
	c := newClient(that.logger, conn)

	stopKeepalive := make(chan struct{})
	go that.keepalive(c, stopKeepalive)

	defer func() {
		close(stopKeepalive)

		if c.sessionID != "" {
			that.uGame.Disconnect(context.WithoutCancel(ctx), c.sessionID, c)
		}

		if err = conn.Close(); err != nil {
			log.Debug("failed to close connection", "error", err)
		}
	}()

	log.Info("WebSocket connection established", "remote", req.RemoteAddr)

	if err = that.handleMessages(ctx, c); err != nil {
		log.Info("connection closed", "reason", err)
	}
}

// handleMessages - processes messages from the client.
func (that *Server) handleMessages(ctx context.Context, c *client) error {
	log := that.logger.With("method", "handleMessages")

	if err := c.conn.SetReadDeadline(time.Now().Add(that.pongWait)); err != nil {
		return fmt.Errorf("failed to set read deadline: %w", err)
	}

	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(that.pongWait))
	})

	for {
		_, reqBody, err := c.conn.ReadMessage()
		if err != nil {
			return fmt.Errorf("failed to read message: %w", err)
		}

		if err = c.conn.SetReadDeadline(time.Now().Add(that.pongWait)); err != nil {
			return fmt.Errorf("failed to set read deadline: %w", err)
		}

		var message Message
		if err = json.Unmarshal(reqBody, &message); err != nil {
			log.Warn("failed to unmarshal message", "error", err)
			c.sendError("", errMalformedMessage)
			continue
		}

		handler, ok := that.handlers[message.Action]
		if !ok {
			log.Warn("unknown action", "action", message.Action)
			c.sendError(message.Action, errUnknownAction)
			continue
		}

		if err = handler(ctx, &message, c); err != nil {
			log.Error("error processing message", "action", message.Action, "error", err)
		}
	}
}

// keepalive - pings the client until stop is closed or a ping cannot be written.
func (that *Server) keepalive(c *client, stop <-chan struct{}) {
	ticker := time.NewTicker(that.pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if err := c.ping(); err != nil {
				that.logger.Debug("keepalive stopped", "error", err)
				return
			}
		case <-stop:
			return
		}
	}
}
