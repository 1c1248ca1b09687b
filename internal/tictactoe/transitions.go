package tictactoe

import (
	"fmt"

	"github.com/rocketscienceinc/neon-tictactoe/internal/apperror"
	"github.com/rocketscienceinc/neon-tictactoe/internal/entity"
)

// Effect is a scheduling request produced by a transition.
type Effect int

const (
	// EffectStartTimer re-arms the turn countdown, replacing any running one.
	EffectStartTimer Effect = iota + 1
	EffectStopTimer
	EffectScheduleOpponent
	EffectScheduleReveal
	// EffectCancelPending drops a scheduled opponent move or result reveal.
	EffectCancelPending
)

// Outcome is what a transition asks the engine to do: events to publish and
// effects to run, both in order.
type Outcome struct {
	Events  []Event
	Effects []Effect
}

func (that *Outcome) emit(events ...Event) {
	that.Events = append(that.Events, events...)
}

func (that *Outcome) schedule(effects ...Effect) {
	that.Effects = append(that.Effects, effects...)
}

// Has reports whether effect was requested.
func (that Outcome) Has(effect Effect) bool {
	for _, candidate := range that.Effects {
		if candidate == effect {
			return true
		}
	}
	return false
}

// StartSession - begins a new session in mode with scores and round reset.
func StartSession(s Session, mode entity.Mode, timerMax int) (Session, Outcome, error) {
	var out Outcome

	if !mode.IsValid() {
		return s, out, fmt.Errorf("%w: %q", apperror.ErrInvalidMode, mode)
	}

	if timerMax <= 0 {
		return s, out, fmt.Errorf("%w: max %d", apperror.ErrInvalidTimer, timerMax)
	}

	next := Session{
		Mode:     mode,
		Round:    1,
		TimerMax: timerMax,
		Screen:   ScreenGame,
	}

	out.schedule(EffectCancelPending)
	out.emit(
		SessionStarted{Mode: mode},
		ScreenChanged{Screen: ScreenGame},
		ScoresChanged{Scores: next.Scores},
	)

	return beginRound(next, &out), out, nil
}

// Move - applies a player's move to the current mark.
func Move(s Session, index int) (Session, Outcome, error) {
	switch s.Phase {
	case PhaseMenu:
		return s, Outcome{}, apperror.ErrNoActiveSession
	case PhaseRoundOver:
		return s, Outcome{}, apperror.ErrRoundOver
	case PhaseOpponentThinking:
		return s, Outcome{}, apperror.ErrGameLocked
	case PhaseAwaitingMove:
	}

	if s.IsComputerTurn() {
		return s, Outcome{}, apperror.ErrNotYourTurn
	}

	return place(s, index)
}

// OpponentMove - applies the computer's move. The lock is released before the
// move is placed.
func OpponentMove(s Session, index int) (Session, Outcome, error) {
	if s.Phase != PhaseOpponentThinking {
		return s, Outcome{}, apperror.ErrNotYourTurn
	}

	s.Phase = PhaseAwaitingMove

	next, out, err := place(s, index)
	if err != nil {
		return s, out, err
	}

	return next, out, nil
}

// Tick - counts the turn timer down by one. When it reaches zero on an
// unlocked turn, the turn passes to the other mark without a move.
func Tick(s Session) (Session, Outcome) {
	var out Outcome

	if s.Phase != PhaseAwaitingMove && s.Phase != PhaseOpponentThinking {
		return s, out
	}

	if s.Remaining > 0 {
		s.Remaining--
	}
	out.emit(TimerTicked{Remaining: s.Remaining, Max: s.TimerMax})

	if s.Remaining > 0 {
		return s, out
	}

	out.schedule(EffectStopTimer)

	// a pending opponent move owns the turn, the timeout is dropped
	if s.Phase != PhaseAwaitingMove {
		return s, out
	}

	out.emit(TurnTimedOut{Mark: s.Current})
	s.Current = s.Current.Other()

	return armTurn(s, &out), out
}

// Reveal - switches to the result screen after the end-of-round feedback.
func Reveal(s Session) (Session, Outcome) {
	var out Outcome

	if s.Phase != PhaseRoundOver || s.Screen == ScreenGameOver {
		return s, out
	}

	s.Screen = ScreenGameOver
	out.emit(
		ResultRevealed{Result: s.Result, Scores: s.Scores},
		ScreenChanged{Screen: ScreenGameOver},
	)

	return s, out
}

// NextRound - starts the following round of a finished one.
func NextRound(s Session) (Session, Outcome, error) {
	var out Outcome

	if !s.IsActive() {
		return s, out, apperror.ErrNoActiveSession
	}

	if s.Phase != PhaseRoundOver {
		return s, out, apperror.ErrRoundInProgress
	}

	s.Round++
	out.schedule(EffectCancelPending)
	s = showGame(s, &out)

	return beginRound(s, &out), out, nil
}

// RestartRound - clears the board of the current round, keeping scores and round number.
func RestartRound(s Session) (Session, Outcome, error) {
	var out Outcome

	if !s.IsActive() {
		return s, out, apperror.ErrNoActiveSession
	}

	out.schedule(EffectCancelPending)
	s = showGame(s, &out)

	return beginRound(s, &out), out, nil
}

// ResetSession - full reset: scores, round counter, board and turn.
func ResetSession(s Session) (Session, Outcome, error) {
	var out Outcome

	if !s.IsActive() {
		return s, out, apperror.ErrNoActiveSession
	}

	s.Scores = entity.Scores{}
	s.Round = 1

	out.schedule(EffectCancelPending)
	out.emit(ScoresChanged{Scores: s.Scores})
	s = showGame(s, &out)

	return beginRound(s, &out), out, nil
}

// BackToMenu - leaves the session for the start menu. Mode selection is kept.
func BackToMenu(s Session) (Session, Outcome) {
	var out Outcome

	next := NewSession()
	next.Mode = s.Mode
	next.TimerMax = s.TimerMax

	out.schedule(EffectStopTimer, EffectCancelPending)
	out.emit(
		ScoresChanged{Scores: next.Scores},
		ScreenChanged{Screen: ScreenStart},
	)

	return next, out
}

// Resume - effects that bring timers back for a restored session.
func Resume(s Session) Outcome {
	var out Outcome

	switch s.Phase {
	case PhaseAwaitingMove:
		out.schedule(EffectStartTimer)
	case PhaseOpponentThinking:
		out.schedule(EffectStartTimer, EffectScheduleOpponent)
	case PhaseRoundOver:
		if s.Screen != ScreenGameOver {
			out.schedule(EffectScheduleReveal)
		}
	case PhaseMenu:
	}

	return out
}

func place(s Session, index int) (Session, Outcome, error) {
	var out Outcome

	board := s.Board
	if err := board.PlaceMark(index, s.Current); err != nil {
		return s, out, fmt.Errorf("invalid move: %w", err)
	}

	s.Board = board
	out.emit(CellPlaced{Index: index, Mark: s.Current})

	if winner, line, ok := s.Board.DetectWinner(); ok {
		return finishRound(s, entity.ResultFor(winner), line[:], &out), out, nil
	}

	if s.Board.IsFull() {
		return finishRound(s, entity.ResultDraw, nil, &out), out, nil
	}

	s.Current = s.Current.Other()

	return armTurn(s, &out), out, nil
}

func finishRound(s Session, result entity.Result, line []int, out *Outcome) Session {
	s.Phase = PhaseRoundOver
	s.Result = result
	s.WinLine = append([]int(nil), line...)
	s.Scores.Record(result)

	out.schedule(EffectStopTimer, EffectScheduleReveal)

	if result.IsDraw() {
		out.emit(RoundDrawn{})
	} else {
		out.emit(RoundWon{Mark: result.Winner(), Line: [3]int{line[0], line[1], line[2]}})
	}

	out.emit(ScoresChanged{Scores: s.Scores})

	return s
}

func beginRound(s Session, out *Outcome) Session {
	s.Board = entity.Board{}
	s.Current = entity.PlayerX
	s.Result = entity.ResultNone
	s.WinLine = nil

	out.emit(RoundReset{Round: s.Round})

	return armTurn(s, out)
}

// armTurn - hands the turn to s.Current with a full countdown.
func armTurn(s Session, out *Outcome) Session {
	s.Remaining = s.TimerMax
	s.Phase = PhaseAwaitingMove

	out.schedule(EffectStartTimer)
	out.emit(
		TurnChanged{Mark: s.Current},
		TimerTicked{Remaining: s.Remaining, Max: s.TimerMax},
	)

	if s.IsComputerTurn() {
		s.Phase = PhaseOpponentThinking
		out.schedule(EffectScheduleOpponent)
	}

	return s
}

func showGame(s Session, out *Outcome) Session {
	if s.Screen != ScreenGame {
		s.Screen = ScreenGame
		out.emit(ScreenChanged{Screen: ScreenGame})
	}

	return s
}
