package service

import (
	"math/rand"
	"testing"

	"github.com/rocketscienceinc/neon-tictactoe/internal/apperror"
	"github.com/rocketscienceinc/neon-tictactoe/internal/entity"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	x = entity.PlayerX
	o = entity.PlayerO
	e = entity.EmptyCell
)

func newTestBot(seed int64) BotService {
	return NewBotService(rand.New(rand.NewSource(seed))) //nolint: gosec // deterministic tests
}

func TestBotService_SelectMove(t *testing.T) {
	t.Run("Win-now outranks block", func(t *testing.T) {
		// Given: X threatens the top row and O has two on the middle row
		board := entity.Board{
			x, x, e,
			o, o, e,
			e, e, e,
		}

		// When: the bot plays O
		cell, err := newTestBot(1).SelectMove(board, o)

		// Then: it completes its own row instead of blocking
		require.NoError(t, err)
		assert.Equal(t, 5, cell)
	})

	t.Run("Blocks opponent threat", func(t *testing.T) {
		// Given: X threatens the first column
		board := entity.Board{
			x, e, e,
			x, e, e,
			e, e, e,
		}

		// When: the bot plays O with no winning move
		cell, err := newTestBot(1).SelectMove(board, o)

		// Then: it blocks at index 6
		require.NoError(t, err)
		assert.Equal(t, 6, cell)
	})

	t.Run("Uses first matching triple for ties", func(t *testing.T) {
		// Given: O can win on the top row and on the first column
		board := entity.Board{
			o, o, e,
			o, x, x,
			e, x, e,
		}

		cell, err := newTestBot(1).SelectMove(board, o)

		// Then: the row comes first in the fixed order
		require.NoError(t, err)
		assert.Equal(t, 2, cell)
	})

	t.Run("Takes the center when free", func(t *testing.T) {
		board := entity.Board{x}

		cell, err := newTestBot(1).SelectMove(board, o)

		require.NoError(t, err)
		assert.Equal(t, entity.CenterCell, cell)
	})

	t.Run("Falls back to a random empty cell", func(t *testing.T) {
		// Given: center taken and no threats
		board := entity.Board{
			e, e, e,
			e, x, e,
			e, e, e,
		}

		for seed := int64(0); seed < 50; seed++ {
			// When: the bot picks with different seeds
			cell, err := newTestBot(seed).SelectMove(board, o)

			// Then: the choice is always an empty cell
			require.NoError(t, err)
			assert.Contains(t, board.EmptyCells(), cell)
		}
	})

	t.Run("Error on full board", func(t *testing.T) {
		board := entity.Board{
			x, o, x,
			o, x, o,
			o, x, o,
		}

		_, err := newTestBot(1).SelectMove(board, o)

		require.ErrorIs(t, err, apperror.ErrNoAvailableMoves)
	})

	t.Run("Error on invalid mark", func(t *testing.T) {
		_, err := newTestBot(1).SelectMove(entity.Board{}, e)

		require.ErrorIs(t, err, entity.ErrInvalidMark)
	})
}
