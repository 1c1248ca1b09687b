package websocket

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rocketscienceinc/neon-tictactoe/internal/tictactoe"
)

const (
	actionConnect = "connect"
	actionError   = "error"
)

var (
	errUnknownAction    = errors.New("unknown action")
	errMalformedMessage = errors.New("malformed message")
	errNotConnected     = errors.New("connect first")
	errCellRequired     = errors.New("cell is required")
)

// Message is the envelope of every frame in both directions.
type Message struct {
	Action  string          `json:"action"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

type ConnectRequest struct {
	SessionID string `json:"session_id,omitempty"`
}

type ConnectResponse struct {
	SessionID string            `json:"session_id"`
	Session   tictactoe.Session `json:"session"`
}

type StartRequest struct {
	Mode string `json:"mode"`
}

type MoveRequest struct {
	Cell *int `json:"cell"`
}

type ErrorResponse struct {
	Action string `json:"action,omitempty"`
	Error  string `json:"error"`
}

// client is one websocket connection. Writes come from the reader goroutine,
// the keepalive and the session's engine, so they are serialized. While held,
// engine events are queued and delivered on release.
type client struct {
	logger *slog.Logger
	conn   *websocket.Conn
	mu     sync.Mutex

	held    bool
	backlog []Message

	sessionID string
}

func newClient(logger *slog.Logger, conn *websocket.Conn) *client {
	return &client{
		logger: logger,
		conn:   conn,
	}
}

// Notify - forwards an engine event to the browser.
func (that *client) Notify(event tictactoe.Event) {
	message, err := encode(event.EventName(), event)
	if err != nil {
		that.logger.Warn("failed to encode event", "event", event.EventName(), "error", err)
		return
	}

	that.mu.Lock()
	defer that.mu.Unlock()

	if that.held {
		that.backlog = append(that.backlog, message)
		return
	}

	if err = that.write(message); err != nil {
		that.logger.Warn("failed to deliver event", "event", event.EventName(), "error", err)
	}
}

// hold - queues engine events until release.
func (that *client) hold() {
	that.mu.Lock()
	that.held = true
	that.mu.Unlock()
}

// release - delivers queued events and resumes direct delivery.
func (that *client) release() {
	that.mu.Lock()
	defer that.mu.Unlock()

	that.held = false
	backlog := that.backlog
	that.backlog = nil

	for _, message := range backlog {
		if err := that.write(message); err != nil {
			that.logger.Warn("failed to deliver event", "event", message.Action, "error", err)
			return
		}
	}
}

func (that *client) send(action string, payload any) error {
	message, err := encode(action, payload)
	if err != nil {
		return err
	}

	that.mu.Lock()
	defer that.mu.Unlock()

	return that.write(message)
}

func (that *client) ping() error {
	that.mu.Lock()
	defer that.mu.Unlock()

	if err := that.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeTimeout)); err != nil {
		return fmt.Errorf("failed to write ping: %w", err)
	}

	return nil
}

// write - must be called with mu held.
func (that *client) write(message Message) error {
	if err := that.conn.SetWriteDeadline(time.Now().Add(writeTimeout)); err != nil {
		return fmt.Errorf("failed to set write deadline: %w", err)
	}

	if err := that.conn.WriteJSON(message); err != nil {
		return fmt.Errorf("failed to write message: %w", err)
	}

	return nil
}

func (that *client) sendError(action string, cause error) {
	if err := that.send(actionError, ErrorResponse{Action: action, Error: cause.Error()}); err != nil {
		that.logger.Warn("failed to send error", "error", err)
	}
}

func encode(action string, payload any) (Message, error) {
	payloadJSON, err := json.Marshal(payload)
	if err != nil {
		return Message{}, fmt.Errorf("failed to marshal payload: %w", err)
	}

	return Message{Action: action, Payload: payloadJSON}, nil
}
