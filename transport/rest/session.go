package rest

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rocketscienceinc/neon-tictactoe/internal/apperror"
)

type SessionHandler interface {
	GetSession(w http.ResponseWriter, r *http.Request)
}

type sessionHandler struct {
	logger   *slog.Logger
	uSession uSession
}

func NewSessionHandler(logger *slog.Logger, uSession uSession) SessionHandler {
	return &sessionHandler{
		logger:   logger.With("component", "rest"),
		uSession: uSession,
	}
}

// GetSession - writes the snapshot of the session named in the path.
func (that *sessionHandler) GetSession(w http.ResponseWriter, r *http.Request) {
	log := that.logger.With("method", "GetSession")

	session, err := that.uSession.GetSession(r.Context(), chi.URLParam(r, "id"))
	if errors.Is(err, apperror.ErrSessionNotFound) {
		http.Error(w, "session not found", http.StatusNotFound)
		return
	}

	if err != nil {
		log.Error("failed to get session", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err = json.NewEncoder(w).Encode(session); err != nil {
		log.Error("failed to write session", "error", err)
	}
}
