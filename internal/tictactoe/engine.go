package tictactoe

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/rocketscienceinc/neon-tictactoe/internal/apperror"
	"github.com/rocketscienceinc/neon-tictactoe/internal/entity"
	"github.com/rocketscienceinc/neon-tictactoe/internal/scheduler"
)

// Config holds the engine timings.
type Config struct {
	TimerMax        int
	TickInterval    time.Duration
	OpponentDelay   time.Duration
	WinRevealDelay  time.Duration
	DrawRevealDelay time.Duration
}

func DefaultConfig() Config {
	return Config{
		TimerMax:        10,
		TickInterval:    time.Second,
		OpponentDelay:   550 * time.Millisecond,
		WinRevealDelay:  700 * time.Millisecond,
		DrawRevealDelay: 600 * time.Millisecond,
	}
}

func (that Config) validate() error {
	if that.TimerMax <= 0 {
		return fmt.Errorf("%w: max %d", apperror.ErrInvalidTimer, that.TimerMax)
	}

	if that.TickInterval <= 0 {
		return fmt.Errorf("%w: tick interval %s", apperror.ErrInvalidTimer, that.TickInterval)
	}

	return nil
}

// Opponent chooses the computer's cell.
type Opponent interface {
	SelectMove(board entity.Board, mark entity.Mark) (int, error)
}

// Engine drives a Session: it runs transitions, executes their effects on the
// scheduler and publishes their events. It is not safe for concurrent use; all
// calls must come from the scheduler's goroutine.
type Engine struct {
	logger   *slog.Logger
	sched    scheduler.Scheduler
	opponent Opponent
	notifier Notifier
	cfg      Config

	session Session
	ticker  scheduler.Timer
	pending scheduler.Timer
}

func NewEngine(logger *slog.Logger, sched scheduler.Scheduler, opponent Opponent, notifier Notifier, cfg Config) *Engine {
	if notifier == nil {
		notifier = NotifierFunc(func(Event) {})
	}

	return &Engine{
		logger:   logger.With("component", "engine"),
		sched:    sched,
		opponent: opponent,
		notifier: notifier,
		cfg:      cfg,
		session:  NewSession(),
	}
}

// StartSession - starts a new session in mode. Scores and round are reset.
func (that *Engine) StartSession(mode entity.Mode) error {
	if err := that.cfg.validate(); err != nil {
		return fmt.Errorf("failed to start session: %w", err)
	}

	next, out, err := StartSession(that.session, mode, that.cfg.TimerMax)
	if err != nil {
		return fmt.Errorf("failed to start session: %w", err)
	}

	that.apply(next, out)
	that.logger.Info("session started", "mode", mode)

	return nil
}

// AttemptMove - places the current mark at index. Invalid moves are ignored
// and reported as false.
func (that *Engine) AttemptMove(index int) bool {
	next, out, err := Move(that.session, index)
	if err != nil {
		that.logger.Debug("move ignored", "cell", index, "error", err)
		return false
	}

	that.apply(next, out)

	return true
}

// RequestNextRound - advances to the next round after a finished one.
func (that *Engine) RequestNextRound() bool {
	return that.command("next round", NextRound)
}

// RequestRestartRound - replays the current round from an empty board.
func (that *Engine) RequestRestartRound() bool {
	return that.command("restart round", RestartRound)
}

// RequestReset - resets scores, round, board and turn of the running session.
func (that *Engine) RequestReset() bool {
	return that.command("reset session", ResetSession)
}

// RequestBackToMenu - stops every timer and returns to the start menu.
func (that *Engine) RequestBackToMenu() {
	next, out := BackToMenu(that.session)
	that.apply(next, out)
}

// Restore - replaces the state with a saved session and re-arms its timers.
func (that *Engine) Restore(s Session) error {
	if err := validateSession(s); err != nil {
		return fmt.Errorf("failed to restore session: %w", err)
	}

	that.stopTimer()
	that.cancelPending()
	that.apply(s, Resume(s))

	return nil
}

// Close - stops all scheduled callbacks.
func (that *Engine) Close() {
	that.stopTimer()
	that.cancelPending()
}

func (that *Engine) Board() entity.Board      { return that.session.Board }
func (that *Engine) CurrentMark() entity.Mark { return that.session.Current }
func (that *Engine) Scores() entity.Scores    { return that.session.Scores }
func (that *Engine) Round() int               { return that.session.Round }
func (that *Engine) IsLocked() bool           { return that.session.IsLocked() }
func (that *Engine) Phase() Phase             { return that.session.Phase }
func (that *Engine) Remaining() int           { return that.session.Remaining }
func (that *Engine) Snapshot() Session        { return that.session }

func (that *Engine) command(name string, transition func(Session) (Session, Outcome, error)) bool {
	next, out, err := transition(that.session)
	if err != nil {
		that.logger.Debug("command ignored", "command", name, "error", err)
		return false
	}

	that.apply(next, out)

	return true
}

func (that *Engine) apply(next Session, out Outcome) {
	that.session = next

	for _, effect := range out.Effects {
		that.execute(effect)
	}

	for _, event := range out.Events {
		that.notifier.Notify(event)
	}
}

func (that *Engine) execute(effect Effect) {
	switch effect {
	case EffectStartTimer:
		that.stopTimer()
		that.ticker = that.sched.Every(that.cfg.TickInterval, that.onTick)
	case EffectStopTimer:
		that.stopTimer()
	case EffectScheduleOpponent:
		that.cancelPending()
		that.pending = that.sched.AfterFunc(that.cfg.OpponentDelay, that.onOpponentTurn)
	case EffectScheduleReveal:
		that.cancelPending()
		delay := that.cfg.WinRevealDelay
		if that.session.Result.IsDraw() {
			delay = that.cfg.DrawRevealDelay
		}
		that.pending = that.sched.AfterFunc(delay, that.onReveal)
	case EffectCancelPending:
		that.cancelPending()
	}
}

func (that *Engine) onTick() {
	next, out := Tick(that.session)
	if next.Current != that.session.Current {
		that.logger.Debug("turn timed out", "mark", that.session.Current)
	}

	that.apply(next, out)
}

func (that *Engine) onOpponentTurn() {
	that.pending = nil
	log := that.logger.With("method", "onOpponentTurn")

	cell, err := that.opponent.SelectMove(that.session.Board, that.session.Current)
	if err != nil {
		log.Error("opponent failed to select a move", "error", err)

		empty := that.session.Board.EmptyCells()
		if len(empty) == 0 {
			return
		}
		cell = empty[0]
	}

	next, out, err := OpponentMove(that.session, cell)
	if err != nil {
		log.Error("opponent move rejected", "cell", cell, "error", err)
		return
	}

	that.apply(next, out)
}

func (that *Engine) onReveal() {
	that.pending = nil

	next, out := Reveal(that.session)
	that.apply(next, out)
}

func (that *Engine) stopTimer() {
	if that.ticker != nil {
		that.ticker.Stop()
		that.ticker = nil
	}
}

func (that *Engine) cancelPending() {
	if that.pending != nil {
		that.pending.Stop()
		that.pending = nil
	}
}

func validateSession(s Session) error {
	if !s.IsActive() {
		return nil
	}

	if !s.Mode.IsValid() {
		return fmt.Errorf("%w: %q", apperror.ErrInvalidMode, s.Mode)
	}

	if s.TimerMax <= 0 {
		return fmt.Errorf("%w: max %d", apperror.ErrInvalidTimer, s.TimerMax)
	}

	if !s.Current.IsValid() {
		return fmt.Errorf("%w: %q", entity.ErrInvalidMark, s.Current)
	}

	switch s.Phase {
	case PhaseAwaitingMove, PhaseOpponentThinking, PhaseRoundOver:
		return nil
	case PhaseMenu:
	}

	return fmt.Errorf("%w: unknown phase %q", apperror.ErrCorruptedSession, s.Phase)
}
