package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/google/uuid"
	"github.com/rocketscienceinc/neon-tictactoe/internal/apperror"
	"github.com/rocketscienceinc/neon-tictactoe/internal/entity"
	"github.com/rocketscienceinc/neon-tictactoe/internal/scheduler"
	"github.com/rocketscienceinc/neon-tictactoe/internal/tictactoe"
)

type sessionRepo interface {
	Save(ctx context.Context, id string, session tictactoe.Session, ttl time.Duration) error
	GetByID(ctx context.Context, id string) (tictactoe.Session, error)
	DeleteByID(ctx context.Context, id string) error
}

// OpponentFactory builds the computer player of one session.
type OpponentFactory func() tictactoe.Opponent

// GameManager runs one engine per connected session.
type GameManager struct {
	logger      *slog.Logger
	sessionRepo sessionRepo
	clock       clock.Clock
	cfg         tictactoe.Config
	ttl         time.Duration
	newOpponent OpponentFactory

	mu     sync.Mutex
	tables map[string]*table
}

func NewGameManager(
	logger *slog.Logger,
	sessionRepo sessionRepo,
	clk clock.Clock,
	cfg tictactoe.Config,
	ttl time.Duration,
	newOpponent OpponentFactory,
) *GameManager {
	return &GameManager{
		logger:      logger.With("component", "game_manager"),
		sessionRepo: sessionRepo,
		clock:       clk,
		cfg:         cfg,
		ttl:         ttl,
		newOpponent: newOpponent,

		tables: make(map[string]*table),
	}
}

// Connect - attaches sub to the session with id, restoring it from storage
// when it is not running. An empty id starts a new session. Returns the id in use.
// sub must be comparable, Disconnect matches it by identity.
func (that *GameManager) Connect(ctx context.Context, id string, sub tictactoe.Notifier) (string, tictactoe.Session, error) {
	log := that.logger.With("method", "Connect")

	if id == "" {
		id = uuid.NewString()
	}

	for {
		existing, err := that.getOrOpenTable(ctx, id)
		if err != nil {
			return "", tictactoe.Session{}, fmt.Errorf("failed to open session %s: %w", id, err)
		}

		var (
			session  tictactoe.Session
			attached bool
		)
		err = existing.loop.Do(ctx, func() {
			if existing.closing {
				return
			}
			existing.relay.subscriber = sub
			session = existing.engine.Snapshot()
			attached = true
		})
		if err != nil && !errors.Is(err, scheduler.ErrLoopClosed) {
			return "", tictactoe.Session{}, fmt.Errorf("failed to attach to session %s: %w", id, err)
		}

		if attached {
			log.Info("session connected", "session", id, "phase", session.Phase)
			return id, session, nil
		}

		// the table is being torn down by a disconnect, open a fresh one
		that.forget(id, existing)
	}
}

// Disconnect - detaches sub from the session and stops the session's timers
// if sub was still its subscriber. The snapshot stays in storage until it expires.
func (that *GameManager) Disconnect(ctx context.Context, id string, sub tictactoe.Notifier) {
	that.mu.Lock()
	existing, ok := that.tables[id]
	that.mu.Unlock()

	if !ok {
		return
	}

	var owner bool
	err := existing.loop.Do(ctx, func() {
		if existing.closing || existing.relay.subscriber != sub {
			return
		}
		existing.relay.subscriber = nil
		existing.closing = true
		owner = true
	})
	if err != nil || !owner {
		return
	}

	that.forget(id, existing)
	existing.close(ctx)
	that.logger.Info("session disconnected", "session", id)
}

// Close - stops every session.
func (that *GameManager) Close(ctx context.Context) {
	that.mu.Lock()
	tables := that.tables
	that.tables = make(map[string]*table)
	that.mu.Unlock()

	for _, existing := range tables {
		existing.close(ctx)
	}
}

// StartSession - starts a new session in the mode named by rawMode.
func (that *GameManager) StartSession(ctx context.Context, id, rawMode string) error {
	mode, err := entity.ParseMode(rawMode)
	if err != nil {
		return err
	}

	var startErr error
	if err = that.run(ctx, id, func(engine *tictactoe.Engine) {
		startErr = engine.StartSession(mode)
	}); err != nil {
		return err
	}

	return startErr
}

// MakeTurn - places the current mark at cell. Reports false for an ignored move.
func (that *GameManager) MakeTurn(ctx context.Context, id string, cell int) (bool, error) {
	var accepted bool
	err := that.run(ctx, id, func(engine *tictactoe.Engine) {
		accepted = engine.AttemptMove(cell)
	})

	return accepted, err
}

func (that *GameManager) NextRound(ctx context.Context, id string) (bool, error) {
	return that.request(ctx, id, (*tictactoe.Engine).RequestNextRound)
}

func (that *GameManager) RestartRound(ctx context.Context, id string) (bool, error) {
	return that.request(ctx, id, (*tictactoe.Engine).RequestRestartRound)
}

func (that *GameManager) ResetSession(ctx context.Context, id string) (bool, error) {
	return that.request(ctx, id, (*tictactoe.Engine).RequestReset)
}

func (that *GameManager) BackToMenu(ctx context.Context, id string) error {
	return that.run(ctx, id, (*tictactoe.Engine).RequestBackToMenu)
}

// GetSession - returns the live state of a running session, or its stored snapshot.
func (that *GameManager) GetSession(ctx context.Context, id string) (tictactoe.Session, error) {
	var session tictactoe.Session
	err := that.run(ctx, id, func(engine *tictactoe.Engine) {
		session = engine.Snapshot()
	})
	if err == nil {
		return session, nil
	}

	if !errors.Is(err, apperror.ErrSessionNotFound) {
		return tictactoe.Session{}, err
	}

	session, err = that.sessionRepo.GetByID(ctx, id)
	if err != nil {
		return tictactoe.Session{}, fmt.Errorf("failed to get session: %w", err)
	}

	return session, nil
}

func (that *GameManager) request(ctx context.Context, id string, command func(*tictactoe.Engine) bool) (bool, error) {
	var accepted bool
	err := that.run(ctx, id, func(engine *tictactoe.Engine) {
		accepted = command(engine)
	})

	return accepted, err
}

func (that *GameManager) run(ctx context.Context, id string, fn func(engine *tictactoe.Engine)) error {
	that.mu.Lock()
	existing, ok := that.tables[id]
	that.mu.Unlock()

	if !ok {
		return fmt.Errorf("%w: %s", apperror.ErrSessionNotFound, id)
	}

	if err := existing.loop.Do(ctx, func() { fn(existing.engine) }); err != nil {
		return fmt.Errorf("session %s: %w", id, err)
	}

	return nil
}

// getOrOpenTable - returns the running table for id or opens one. Storage is
// read without holding the lock; when two connects race, the first insert wins.
func (that *GameManager) getOrOpenTable(ctx context.Context, id string) (*table, error) {
	that.mu.Lock()
	existing, ok := that.tables[id]
	that.mu.Unlock()

	if ok {
		return existing, nil
	}

	created, err := that.openTable(ctx, id)
	if err != nil {
		return nil, err
	}

	that.mu.Lock()
	winner, raced := that.tables[id]
	if !raced {
		that.tables[id] = created
	}
	that.mu.Unlock()

	if raced {
		created.close(ctx)
		return winner, nil
	}

	return created, nil
}

func (that *GameManager) forget(id string, existing *table) {
	that.mu.Lock()
	if that.tables[id] == existing {
		delete(that.tables, id)
	}
	that.mu.Unlock()
}

func (that *GameManager) openTable(ctx context.Context, id string) (*table, error) {
	log := that.logger.With("session", id)

	saver := newPersister(log, that.sessionRepo, id, that.ttl)
	go saver.run()

	rel := &relay{saver: saver}

	loop := scheduler.NewLoop(that.clock)
	engine := tictactoe.NewEngine(log, loop, that.newOpponent(), rel, that.cfg)
	rel.snapshot = engine.Snapshot

	created := &table{loop: loop, engine: engine, relay: rel, saver: saver}

	stored, err := that.sessionRepo.GetByID(ctx, id)
	switch {
	case err == nil:
		var restoreErr error
		if err = loop.Do(ctx, func() { restoreErr = engine.Restore(stored) }); err != nil {
			created.close(ctx)
			return nil, err
		}
		if restoreErr != nil {
			log.Warn("stored session discarded", "error", restoreErr)
		}
	case errors.Is(err, apperror.ErrSessionNotFound):
	default:
		log.Error("failed to load stored session", "error", err)
	}

	return created, nil
}

type table struct {
	loop   *scheduler.Loop
	engine *tictactoe.Engine
	relay  *relay
	saver  *persister

	// closing is only touched on the loop goroutine
	closing bool
}

func (that *table) close(ctx context.Context) {
	err := that.loop.Do(ctx, func() {
		that.closing = true
		that.engine.Close()
	})
	if err != nil {
		that.saver.logger.Warn("engine close interrupted", "error", err)
	}

	that.loop.Close()
	that.saver.stop()
}

// relay forwards engine events to the connected client and hands every state
// change to the persister. It is only used on the loop goroutine.
type relay struct {
	subscriber tictactoe.Notifier
	snapshot   func() tictactoe.Session
	saver      *persister
}

func (that *relay) Notify(event tictactoe.Event) {
	if that.subscriber != nil {
		that.subscriber.Notify(event)
	}

	if _, tick := event.(tictactoe.TimerTicked); tick {
		return
	}

	that.saver.offer(that.snapshot())
}
