package rest

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/rocketscienceinc/neon-tictactoe/internal/apperror"
	"github.com/rocketscienceinc/neon-tictactoe/internal/entity"
	"github.com/rocketscienceinc/neon-tictactoe/internal/tictactoe"
)

type mockSessions struct {
	mock.Mock
}

func (that *mockSessions) GetSession(ctx context.Context, id string) (tictactoe.Session, error) {
	args := that.Called(ctx, id)
	return args.Get(0).(tictactoe.Session), args.Error(1)
}

func newTestRouter(sessions *mockSessions) http.Handler {
	return NewRouter(slog.New(slog.NewTextHandler(io.Discard, nil)), sessions)
}

func TestPing(t *testing.T) {
	recorder := httptest.NewRecorder()

	newTestRouter(&mockSessions{}).ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/ping", nil))

	assert.Equal(t, http.StatusOK, recorder.Code)
	assert.Equal(t, "pong", recorder.Body.String())
}

func TestGetSession(t *testing.T) {
	t.Run("Returns the snapshot", func(t *testing.T) {
		// Given: a running session
		session := tictactoe.NewSession()
		session.Mode = entity.ModeCPU
		session.Scores = entity.Scores{X: 1}

		sessions := &mockSessions{}
		sessions.On("GetSession", mock.Anything, "abc").Return(session, nil).Once()

		// When: it is requested
		recorder := httptest.NewRecorder()
		newTestRouter(sessions).ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/sessions/abc", nil))

		// Then: the JSON snapshot is returned
		require.Equal(t, http.StatusOK, recorder.Code)
		assert.Equal(t, "application/json", recorder.Header().Get("Content-Type"))

		var body tictactoe.Session
		require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &body))
		assert.Equal(t, session, body)
	})

	t.Run("Unknown session is 404", func(t *testing.T) {
		sessions := &mockSessions{}
		sessions.On("GetSession", mock.Anything, "nope").
			Return(tictactoe.Session{}, apperror.ErrSessionNotFound).
			Once()

		recorder := httptest.NewRecorder()
		newTestRouter(sessions).ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/sessions/nope", nil))

		assert.Equal(t, http.StatusNotFound, recorder.Code)
	})

	t.Run("Storage failure is 500", func(t *testing.T) {
		sessions := &mockSessions{}
		sessions.On("GetSession", mock.Anything, "abc").
			Return(tictactoe.Session{}, errors.New("redis down")).
			Once()

		recorder := httptest.NewRecorder()
		newTestRouter(sessions).ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/sessions/abc", nil))

		assert.Equal(t, http.StatusInternalServerError, recorder.Code)
	})
}
