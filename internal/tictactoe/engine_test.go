package tictactoe

import (
	"errors"
	"io"
	"log/slog"
	"math/rand"
	"testing"
	"time"

	"github.com/rocketscienceinc/neon-tictactoe/internal/apperror"
	"github.com/rocketscienceinc/neon-tictactoe/internal/entity"
	"github.com/rocketscienceinc/neon-tictactoe/internal/scheduler"
	"github.com/rocketscienceinc/neon-tictactoe/internal/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recorder struct {
	events []Event
}

func (that *recorder) Notify(event Event) {
	that.events = append(that.events, event)
}

func (that *recorder) count(name string) int {
	n := 0
	for _, event := range that.events {
		if event.EventName() == name {
			n++
		}
	}
	return n
}

func (that *recorder) reset() {
	that.events = nil
}

type opponentFunc func(board entity.Board, mark entity.Mark) (int, error)

func (that opponentFunc) SelectMove(board entity.Board, mark entity.Mark) (int, error) {
	return that(board, mark)
}

func newTestEngine(t *testing.T, cfg Config, opponent Opponent) (*Engine, *scheduler.Manual, *recorder) {
	t.Helper()

	if opponent == nil {
		opponent = service.NewBotService(rand.New(rand.NewSource(1)))
	}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	sched := scheduler.NewManual()
	events := &recorder{}

	return NewEngine(logger, sched, opponent, events, cfg), sched, events
}

func moves(t *testing.T, engine *Engine, cells ...int) {
	t.Helper()

	for _, cell := range cells {
		require.True(t, engine.AttemptMove(cell), "cell %d", cell)
	}
}

func TestEngine_StartSession(t *testing.T) {
	t.Run("Rejects unknown mode", func(t *testing.T) {
		engine, sched, events := newTestEngine(t, DefaultConfig(), nil)

		err := engine.StartSession(entity.Mode("online"))

		require.ErrorIs(t, err, apperror.ErrInvalidMode)
		assert.Equal(t, PhaseMenu, engine.Phase())
		assert.Empty(t, events.events)
		assert.Zero(t, sched.Pending())
	})

	t.Run("Rejects timer misconfiguration", func(t *testing.T) {
		noMax := DefaultConfig()
		noMax.TimerMax = 0
		noTick := DefaultConfig()
		noTick.TickInterval = 0

		engineNoMax, _, _ := newTestEngine(t, noMax, nil)
		engineNoTick, _, _ := newTestEngine(t, noTick, nil)

		require.ErrorIs(t, engineNoMax.StartSession(entity.ModePvP), apperror.ErrInvalidTimer)
		require.ErrorIs(t, engineNoTick.StartSession(entity.ModePvP), apperror.ErrInvalidTimer)
	})

	t.Run("Arms a single ticker", func(t *testing.T) {
		engine, sched, events := newTestEngine(t, DefaultConfig(), nil)

		require.NoError(t, engine.StartSession(entity.ModePvP))

		assert.Equal(t, 1, sched.Pending())
		assert.False(t, engine.IsLocked())
		assert.Equal(t, 1, engine.Round())
		assert.Equal(t, entity.PlayerX, engine.CurrentMark())
		assert.Equal(t, 1, events.count("session:started"))
	})
}

func TestEngine_Timer(t *testing.T) {
	t.Run("Timeout skips to the other mark", func(t *testing.T) {
		// Given: a pvp session with X to move
		engine, sched, events := newTestEngine(t, DefaultConfig(), nil)
		require.NoError(t, engine.StartSession(entity.ModePvP))

		// When: nine seconds pass
		sched.Advance(9 * time.Second)

		// Then: X still has one tick left
		assert.Equal(t, entity.PlayerX, engine.CurrentMark())
		assert.Equal(t, 1, engine.Remaining())

		// When: the last tick fires
		sched.Advance(time.Second)

		// Then: O is to move, nothing was placed or scored
		assert.Equal(t, entity.PlayerO, engine.CurrentMark())
		assert.Equal(t, 10, engine.Remaining())
		assert.Equal(t, entity.Board{}, engine.Board())
		assert.Equal(t, entity.Scores{}, engine.Scores())
		assert.Equal(t, 1, events.count("turn:timeout"))
		assert.Equal(t, 1, sched.Pending())
	})

	t.Run("Move restarts the countdown", func(t *testing.T) {
		engine, sched, _ := newTestEngine(t, DefaultConfig(), nil)
		require.NoError(t, engine.StartSession(entity.ModePvP))

		sched.Advance(5 * time.Second)
		moves(t, engine, 0)
		sched.Advance(9 * time.Second)

		assert.Equal(t, entity.PlayerO, engine.CurrentMark())
		assert.Equal(t, 1, engine.Remaining())

		sched.Advance(time.Second)

		assert.Equal(t, entity.PlayerX, engine.CurrentMark())
	})

	t.Run("One tick stream across turn changes", func(t *testing.T) {
		engine, sched, events := newTestEngine(t, DefaultConfig(), nil)
		require.NoError(t, engine.StartSession(entity.ModePvP))
		moves(t, engine, 0, 1, 2)
		events.reset()

		sched.Advance(time.Second)

		assert.Equal(t, 1, sched.Pending())
		assert.Equal(t, 1, events.count("timer:tick"))
		assert.Equal(t, 9, engine.Remaining())
	})
}

func TestEngine_RoundEnd(t *testing.T) {
	t.Run("Win reveals the result after the win delay", func(t *testing.T) {
		// Given: X is about to win
		engine, sched, events := newTestEngine(t, DefaultConfig(), nil)
		require.NoError(t, engine.StartSession(entity.ModePvP))
		moves(t, engine, 0, 3, 1, 4)

		// When: X completes the top row
		moves(t, engine, 2)

		// Then: input is locked, only the reveal is scheduled
		assert.True(t, engine.IsLocked())
		assert.False(t, engine.AttemptMove(5))
		assert.Equal(t, entity.Scores{X: 1}, engine.Scores())
		assert.Equal(t, 1, sched.Pending())

		sched.Advance(699 * time.Millisecond)
		assert.Zero(t, events.count("result:revealed"))

		sched.Advance(time.Millisecond)
		assert.Equal(t, 1, events.count("result:revealed"))
		assert.Equal(t, ScreenGameOver, engine.Snapshot().Screen)
		assert.Zero(t, sched.Pending())

		// And: the stopped timer never ticks again
		events.reset()
		sched.Advance(time.Minute)
		assert.Empty(t, events.events)
	})

	t.Run("Draw reveals the result after the draw delay", func(t *testing.T) {
		engine, sched, events := newTestEngine(t, DefaultConfig(), nil)
		require.NoError(t, engine.StartSession(entity.ModePvP))

		moves(t, engine, 0, 1, 2, 4, 3, 5, 7, 6, 8)

		assert.Equal(t, 1, events.count("round:drawn"))
		assert.False(t, engine.AttemptMove(8))

		sched.Advance(600 * time.Millisecond)
		assert.Equal(t, 1, events.count("result:revealed"))
		assert.Equal(t, 1, events.count("round:drawn"))
	})

	t.Run("Scoreboard, round counter and reset", func(t *testing.T) {
		engine, sched, _ := newTestEngine(t, DefaultConfig(), nil)
		require.NoError(t, engine.StartSession(entity.ModePvP))

		assert.False(t, engine.RequestNextRound())

		for i, cells := range [][]int{
			{0, 3, 1, 4, 2},
			{0, 3, 1, 4, 2},
			{0, 1, 2, 4, 3, 5, 7, 6, 8},
			{0, 3, 1, 4, 8, 5},
		} {
			moves(t, engine, cells...)
			sched.Advance(time.Second)
			if i < 3 {
				require.True(t, engine.RequestNextRound())
			}
		}

		assert.Equal(t, entity.Scores{X: 2, O: 1, D: 1}, engine.Scores())
		assert.Equal(t, 4, engine.Round())

		// When: the session is reset
		require.True(t, engine.RequestReset())

		// Then: everything starts over with X
		assert.Equal(t, entity.Scores{}, engine.Scores())
		assert.Equal(t, 1, engine.Round())
		assert.Equal(t, entity.Board{}, engine.Board())
		assert.Equal(t, entity.PlayerX, engine.CurrentMark())
		assert.False(t, engine.IsLocked())
		assert.Equal(t, 1, sched.Pending())
	})

	t.Run("Next round cancels a pending reveal", func(t *testing.T) {
		engine, sched, events := newTestEngine(t, DefaultConfig(), nil)
		require.NoError(t, engine.StartSession(entity.ModePvP))
		moves(t, engine, 0, 3, 1, 4, 2)

		require.True(t, engine.RequestNextRound())
		sched.Advance(time.Second)

		assert.Zero(t, events.count("result:revealed"))
		assert.Equal(t, ScreenGame, engine.Snapshot().Screen)
		assert.Equal(t, 2, engine.Round())
	})
}

func TestEngine_Computer(t *testing.T) {
	t.Run("Opponent plays after the delay", func(t *testing.T) {
		// Given: a cpu session
		engine, sched, events := newTestEngine(t, DefaultConfig(), nil)
		require.NoError(t, engine.StartSession(entity.ModeCPU))

		// When: X takes a corner
		moves(t, engine, 0)

		// Then: the board is locked until the opponent moves
		assert.True(t, engine.IsLocked())
		assert.False(t, engine.AttemptMove(4))

		sched.Advance(549 * time.Millisecond)
		assert.Equal(t, entity.EmptyCell, engine.Board()[entity.CenterCell])

		sched.Advance(time.Millisecond)
		assert.Equal(t, entity.PlayerO, engine.Board()[entity.CenterCell])
		assert.False(t, engine.IsLocked())
		assert.Equal(t, entity.PlayerX, engine.CurrentMark())
		assert.Equal(t, 2, events.count("cell:placed"))
	})

	t.Run("Opponent blocks a line", func(t *testing.T) {
		engine, sched, _ := newTestEngine(t, DefaultConfig(), nil)
		require.NoError(t, engine.StartSession(entity.ModeCPU))

		moves(t, engine, 0)
		sched.Advance(time.Second)
		moves(t, engine, 1)
		sched.Advance(time.Second)

		assert.Equal(t, entity.PlayerO, engine.Board()[2])
	})

	t.Run("Timeout of X hands the turn to the opponent", func(t *testing.T) {
		engine, sched, _ := newTestEngine(t, DefaultConfig(), nil)
		require.NoError(t, engine.StartSession(entity.ModeCPU))

		sched.Advance(10 * time.Second)
		assert.Equal(t, PhaseOpponentThinking, engine.Phase())

		sched.Advance(550 * time.Millisecond)
		assert.Equal(t, entity.PlayerO, engine.Board()[entity.CenterCell])
		assert.Equal(t, entity.PlayerX, engine.CurrentMark())
	})

	t.Run("Timeout while the opponent is thinking is dropped", func(t *testing.T) {
		// Given: an opponent slower than the turn timer
		cfg := DefaultConfig()
		cfg.OpponentDelay = 15 * time.Second
		engine, sched, events := newTestEngine(t, cfg, nil)
		require.NoError(t, engine.StartSession(entity.ModeCPU))
		moves(t, engine, 0)

		// When: the turn timer runs out
		sched.Advance(10 * time.Second)

		// Then: the turn stays with the pending opponent
		assert.Equal(t, PhaseOpponentThinking, engine.Phase())
		assert.Equal(t, entity.PlayerO, engine.CurrentMark())
		assert.Zero(t, events.count("turn:timeout"))
		assert.Equal(t, 1, sched.Pending())

		// When: the opponent finally moves
		sched.Advance(5 * time.Second)

		// Then: X gets a fresh countdown
		assert.Equal(t, entity.PlayerX, engine.CurrentMark())
		assert.Equal(t, 10, engine.Remaining())
		assert.False(t, engine.IsLocked())
	})

	t.Run("Failing opponent falls back to the first empty cell", func(t *testing.T) {
		failing := opponentFunc(func(entity.Board, entity.Mark) (int, error) {
			return -1, errors.New("no idea")
		})
		engine, sched, _ := newTestEngine(t, DefaultConfig(), failing)
		require.NoError(t, engine.StartSession(entity.ModeCPU))

		moves(t, engine, 0)
		sched.Advance(time.Second)

		assert.Equal(t, entity.PlayerO, engine.Board()[1])
		assert.False(t, engine.IsLocked())
	})
}

func TestEngine_BackToMenu(t *testing.T) {
	// Given: a cpu session with the opponent pending
	engine, sched, events := newTestEngine(t, DefaultConfig(), nil)
	require.NoError(t, engine.StartSession(entity.ModeCPU))
	moves(t, engine, 0)

	// When: the player leaves to the menu
	engine.RequestBackToMenu()

	// Then: nothing is scheduled and the board does not accept moves
	assert.Zero(t, sched.Pending())
	assert.Equal(t, PhaseMenu, engine.Phase())
	assert.Equal(t, entity.Scores{}, engine.Scores())
	assert.False(t, engine.AttemptMove(4))
	assert.False(t, engine.RequestReset())

	events.reset()
	sched.Advance(time.Minute)
	assert.Empty(t, events.events)
}

func TestEngine_Restore(t *testing.T) {
	t.Run("Re-arms the pending opponent", func(t *testing.T) {
		// Given: a snapshot taken while the opponent was thinking
		source, _, _ := newTestEngine(t, DefaultConfig(), nil)
		require.NoError(t, source.StartSession(entity.ModeCPU))
		moves(t, source, 0)
		snapshot := source.Snapshot()
		source.Close()

		// When: a fresh engine restores it
		engine, sched, _ := newTestEngine(t, DefaultConfig(), nil)
		require.NoError(t, engine.Restore(snapshot))

		// Then: the timer and the opponent are scheduled again
		assert.Equal(t, 2, sched.Pending())
		sched.Advance(550 * time.Millisecond)
		assert.Equal(t, entity.PlayerO, engine.Board()[entity.CenterCell])
	})

	t.Run("Rejects a corrupted snapshot", func(t *testing.T) {
		engine, sched, _ := newTestEngine(t, DefaultConfig(), nil)
		corrupted := Session{Mode: entity.ModePvP, Current: entity.PlayerX, Phase: Phase("paused"), TimerMax: 10, Round: 1}

		err := engine.Restore(corrupted)

		require.ErrorIs(t, err, apperror.ErrCorruptedSession)
		assert.Equal(t, PhaseMenu, engine.Phase())
		assert.Zero(t, sched.Pending())
	})
}
