package service

import (
	"fmt"
	"math/rand"

	"github.com/rocketscienceinc/neon-tictactoe/internal/apperror"
	"github.com/rocketscienceinc/neon-tictactoe/internal/entity"
)

// BotService picks cells for the computer opponent.
type BotService interface {
	SelectMove(board entity.Board, mark entity.Mark) (int, error)
}

// botService is a one-ply heuristic: win, block, center, then random.
type botService struct {
	rnd *rand.Rand
}

func NewBotService(rnd *rand.Rand) BotService {
	return &botService{
		rnd: rnd,
	}
}

func (that *botService) SelectMove(board entity.Board, mark entity.Mark) (int, error) {
	if !mark.IsValid() {
		return -1, fmt.Errorf("%w: %q", entity.ErrInvalidMark, mark)
	}

	availableCells := board.EmptyCells()
	if len(availableCells) == 0 {
		return -1, apperror.ErrNoAvailableMoves
	}

	if cell := findWinOrBlock(board, mark); cell != -1 {
		return cell, nil
	}

	if cell := findWinOrBlock(board, mark.Other()); cell != -1 {
		return cell, nil
	}

	if board[entity.CenterCell] == entity.EmptyCell {
		return entity.CenterCell, nil
	}

	return availableCells[that.rnd.Intn(len(availableCells))], nil
}

// findWinOrBlock - returns the empty cell of the first triple holding two of mark, or -1.
func findWinOrBlock(board entity.Board, mark entity.Mark) int {
	for _, combo := range entity.WinCombos {
		countMark, emptyCell := 0, -1

		for _, idx := range combo {
			switch board[idx] {
			case mark:
				countMark++
			case entity.EmptyCell:
				emptyCell = idx
			}
		}

		if countMark == 2 && emptyCell != -1 {
			return emptyCell
		}
	}

	return -1
}
