package entity

import (
	"fmt"
	"strings"

	"github.com/rocketscienceinc/neon-tictactoe/internal/apperror"
)

const (
	ModePvP Mode = "pvp"
	ModeCPU Mode = "cpu"
)

// Mode is selected before a session starts and fixed for its duration.
type Mode string

func (that Mode) IsValid() bool {
	return that == ModePvP || that == ModeCPU
}

// IsWithBot reports whether O is played by the computer.
func (that Mode) IsWithBot() bool {
	return that == ModeCPU
}

// ParseMode - converts client input into a Mode.
func ParseMode(raw string) (Mode, error) {
	mode := Mode(strings.ToLower(strings.TrimSpace(raw)))
	if !mode.IsValid() {
		return "", fmt.Errorf("%w: %q", apperror.ErrInvalidMode, raw)
	}

	return mode, nil
}
