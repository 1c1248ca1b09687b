package usecase

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/rocketscienceinc/neon-tictactoe/internal/apperror"
	"github.com/rocketscienceinc/neon-tictactoe/internal/tictactoe"
)

const storeTimeout = 2 * time.Second

// persister writes the latest snapshot of a session in the background. Older
// snapshots still waiting are replaced by newer ones.
type persister struct {
	logger *slog.Logger
	repo   sessionRepo
	id     string
	ttl    time.Duration

	latest   chan tictactoe.Session
	done     chan struct{}
	finished chan struct{}
	once     sync.Once
}

func newPersister(logger *slog.Logger, repo sessionRepo, id string, ttl time.Duration) *persister {
	return &persister{
		logger: logger.With("component", "persister"),
		repo:   repo,
		id:     id,
		ttl:    ttl,

		latest:   make(chan tictactoe.Session, 1),
		done:     make(chan struct{}),
		finished: make(chan struct{}),
	}
}

// offer - queues session for storing. Must be called from a single goroutine.
func (that *persister) offer(session tictactoe.Session) {
	select {
	case <-that.latest:
	default:
	}

	that.latest <- session
}

func (that *persister) run() {
	defer close(that.finished)

	for {
		select {
		case session := <-that.latest:
			that.store(session)
		case <-that.done:
			select {
			case session := <-that.latest:
				that.store(session)
			default:
			}
			return
		}
	}
}

// stop - flushes the last offered snapshot and waits for the writer to exit.
func (that *persister) stop() {
	that.once.Do(func() {
		close(that.done)
	})

	<-that.finished
}

func (that *persister) store(session tictactoe.Session) {
	ctx, cancel := context.WithTimeout(context.Background(), storeTimeout)
	defer cancel()

	if !session.IsActive() {
		err := that.repo.DeleteByID(ctx, that.id)
		if err != nil && !errors.Is(err, apperror.ErrSessionNotFound) {
			that.logger.Error("failed to delete session", "error", err)
		}
		return
	}

	if err := that.repo.Save(ctx, that.id, session, that.ttl); err != nil {
		that.logger.Error("failed to save session", "error", err)
	}
}
