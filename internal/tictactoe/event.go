package tictactoe

import "github.com/rocketscienceinc/neon-tictactoe/internal/entity"

// Event is a state-change notification for the presentation layer.
type Event interface {
	EventName() string
}

// Notifier receives events in the order they happen.
type Notifier interface {
	Notify(event Event)
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(event Event)

func (that NotifierFunc) Notify(event Event) {
	that(event)
}

type SessionStarted struct {
	Mode entity.Mode `json:"mode"`
}

type CellPlaced struct {
	Index int         `json:"index"`
	Mark  entity.Mark `json:"mark"`
}

type TurnChanged struct {
	Mark entity.Mark `json:"mark"`
}

// TurnTimedOut is sent when Mark lost its turn to the countdown.
type TurnTimedOut struct {
	Mark entity.Mark `json:"mark"`
}

type RoundWon struct {
	Mark entity.Mark `json:"mark"`
	Line [3]int      `json:"line"`
}

type RoundDrawn struct{}

type TimerTicked struct {
	Remaining int `json:"remaining"`
	Max       int `json:"max"`
}

type RoundReset struct {
	Round int `json:"round"`
}

type ScoresChanged struct {
	Scores entity.Scores `json:"scores"`
}

// ResultRevealed is sent once the end-of-round feedback has played.
type ResultRevealed struct {
	Result entity.Result `json:"result"`
	Scores entity.Scores `json:"scores"`
}

type ScreenChanged struct {
	Screen Screen `json:"screen"`
}

func (SessionStarted) EventName() string { return "session:started" }
func (CellPlaced) EventName() string     { return "cell:placed" }
func (TurnChanged) EventName() string    { return "turn:changed" }
func (TurnTimedOut) EventName() string   { return "turn:timeout" }
func (RoundWon) EventName() string       { return "round:won" }
func (RoundDrawn) EventName() string     { return "round:drawn" }
func (TimerTicked) EventName() string    { return "timer:tick" }
func (RoundReset) EventName() string     { return "round:reset" }
func (ScoresChanged) EventName() string  { return "scores:changed" }
func (ResultRevealed) EventName() string { return "result:revealed" }
func (ScreenChanged) EventName() string  { return "screen:changed" }
