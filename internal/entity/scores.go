package entity

const (
	ResultNone Result = ""
	ResultX    Result = "X"
	ResultO    Result = "O"
	ResultDraw Result = "D"
)

// Result is the outcome of a finished round.
type Result string

// ResultFor returns the winning result for mark.
func ResultFor(mark Mark) Result {
	return Result(mark)
}

func (that Result) IsDraw() bool {
	return that == ResultDraw
}

// Winner returns the winning mark, or EmptyCell for a draw or no result.
func (that Result) Winner() Mark {
	if that == ResultX || that == ResultO {
		return Mark(that)
	}
	return EmptyCell
}

// Scores is the scoreboard of a session.
type Scores struct {
	X int `json:"x"`
	O int `json:"o"`
	D int `json:"d"`
}

// Record - increments the counter matching result.
func (that *Scores) Record(result Result) {
	switch result {
	case ResultX:
		that.X++
	case ResultO:
		that.O++
	case ResultDraw:
		that.D++
	case ResultNone:
	}
}

// Total returns the number of rounds played since the last reset.
func (that Scores) Total() int {
	return that.X + that.O + that.D
}
