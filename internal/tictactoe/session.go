package tictactoe

import "github.com/rocketscienceinc/neon-tictactoe/internal/entity"

const (
	PhaseMenu             Phase = "menu"
	PhaseAwaitingMove     Phase = "awaiting_move"
	PhaseOpponentThinking Phase = "opponent_thinking"
	PhaseRoundOver        Phase = "round_over"
)

const (
	ScreenStart    Screen = "start"
	ScreenGame     Screen = "game"
	ScreenGameOver Screen = "over"
)

// Phase is the state of the turn controller. Only PhaseAwaitingMove accepts moves.
type Phase string

// Screen is the view the presentation layer should show.
type Screen string

// Session is the whole game state owned by one player session.
type Session struct {
	Mode      entity.Mode   `json:"mode"`
	Board     entity.Board  `json:"board"`
	Current   entity.Mark   `json:"current"`
	Scores    entity.Scores `json:"scores"`
	Round     int           `json:"round"`
	Phase     Phase         `json:"phase"`
	Screen    Screen        `json:"screen"`
	Result    entity.Result `json:"result,omitempty"`
	WinLine   []int         `json:"win_line,omitempty"`
	Remaining int           `json:"remaining"`
	TimerMax  int           `json:"timer_max"`
}

// NewSession returns the state shown on the start menu.
func NewSession() Session {
	return Session{
		Board:   entity.Board{},
		Current: entity.PlayerX,
		Round:   1,
		Phase:   PhaseMenu,
		Screen:  ScreenStart,
	}
}

// IsLocked reports whether moves are currently rejected.
func (that Session) IsLocked() bool {
	return that.Phase != PhaseAwaitingMove
}

// IsActive reports whether a session has been started and not left.
func (that Session) IsActive() bool {
	return that.Phase != PhaseMenu
}

// IsComputerTurn reports whether the current mark belongs to the bot.
func (that Session) IsComputerTurn() bool {
	return that.Mode.IsWithBot() && that.Current == entity.PlayerO
}
