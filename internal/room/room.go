// Package room holds the mirrored game-state model: the room snapshot as the
// authority delivers it, the 5x5 board, and the change-notification envelope.
// The authority owns this data; the client only mirrors it.
package room

// BoardSize is the fixed board dimension. The board is always 5x5 regardless
// of word length.
const BoardSize = 5

// Status is the room lifecycle state. Transitions are monotonic:
// waiting -> active -> finished, or waiting -> cancelled. Never backwards.
type Status string

const (
	StatusWaiting   Status = "waiting"
	StatusActive    Status = "active"
	StatusFinished  Status = "finished"
	StatusCancelled Status = "cancelled"
)

// rank orders statuses along the allowed transition path. A higher rank never
// regresses to a lower one.
func (s Status) rank() int {
	switch s {
	case StatusWaiting:
		return 1
	case StatusActive:
		return 2
	case StatusFinished, StatusCancelled:
		return 3
	default:
		return 0
	}
}

// Terminal reports whether no further transitions are possible.
func (s Status) Terminal() bool {
	return s == StatusFinished || s == StatusCancelled
}

// Cell is one board position. Letter stays empty until the cell is revealed;
// once revealed it is never un-set.
type Cell struct {
	Row      int    `json:"row"`
	Col      int    `json:"col"`
	Letter   string `json:"letter,omitempty"`
	Revealed bool   `json:"revealed"`
}

// Board is the fixed 5x5 grid. The array is comparable, which the bridge
// relies on for change detection.
type Board struct {
	Cells [BoardSize][BoardSize]Cell
}

// At returns the cell at (row, col). Callers validate coordinates first.
func (b *Board) At(row, col int) Cell {
	return b.Cells[row][col]
}

// RevealedCount returns how many cells are revealed.
func (b *Board) RevealedCount() int {
	n := 0
	for r := range b.Cells {
		for c := range b.Cells[r] {
			if b.Cells[r][c].Revealed {
				n++
			}
		}
	}
	return n
}

// Equal reports whether two boards have identical content.
func (b *Board) Equal(other *Board) bool {
	if b == nil || other == nil {
		return b == other
	}
	return b.Cells == other.Cells
}

// Room is one point-in-time snapshot of a game room.
type Room struct {
	ID            string
	Status        Status
	WordLength    int
	Player1ID     string
	Player2ID     string // empty until the second player joins
	CurrentPlayer int    // 1 or 2
	Player1Score  int
	Player2Score  int
	Board         *Board // nil when the snapshot carried no recognizable board
	BoardShape    BoardShape
	Winner        string // player id, empty until finished
	Word          string // revealed word, populated only at finish
}

// HasBoard reports whether the snapshot carried a board in any recognized
// shape. Snapshots without one are anomalies the reconciler degrades on
// instead of crashing.
func (r *Room) HasBoard() bool {
	return r != nil && r.Board != nil
}

// HasSecondPlayer reports whether the second seat is taken.
func (r *Room) HasSecondPlayer() bool {
	return r != nil && r.Player2ID != ""
}

// PlayerNumber maps a user identity to its seat (1 or 2), or 0 when the user
// is not in this room. Identity comparison, never position: a client resuming
// mid-game after reload must land on the same seat.
func (r *Room) PlayerNumber(userID string) int {
	if r == nil || userID == "" {
		return 0
	}
	switch userID {
	case r.Player1ID:
		return 1
	case r.Player2ID:
		return 2
	default:
		return 0
	}
}

// Clone returns a deep copy of the room.
func (r *Room) Clone() *Room {
	if r == nil {
		return nil
	}
	out := *r
	if r.Board != nil {
		board := *r.Board
		out.Board = &board
	}
	return &out
}

// Merge folds snapshot next into prev under the model invariants: status
// never regresses, a revealed cell stays revealed and keeps its letter.
// Everything else is overwritten idempotently, so applying the same snapshot
// twice is harmless. The inputs are not mutated.
func Merge(prev, next *Room) *Room {
	if prev == nil {
		return next.Clone()
	}
	if next == nil {
		return prev.Clone()
	}
	merged := next.Clone()
	if next.Status.rank() < prev.Status.rank() {
		// The stale snapshot predates prev entirely, so the turn and score
		// block travels with the status: a finished room must not report the
		// stale snapshot's current player or scores.
		merged.Status = prev.Status
		merged.Winner = prev.Winner
		merged.Word = prev.Word
		merged.CurrentPlayer = prev.CurrentPlayer
		merged.Player1Score = prev.Player1Score
		merged.Player2Score = prev.Player2Score
	}
	if merged.Board != nil && prev.Board != nil {
		for r := range prev.Board.Cells {
			for c := range prev.Board.Cells[r] {
				old := prev.Board.Cells[r][c]
				if old.Revealed && !merged.Board.Cells[r][c].Revealed {
					merged.Board.Cells[r][c] = old
				}
			}
		}
	} else if merged.Board == nil {
		merged.Board = prev.Clone().Board
		merged.BoardShape = prev.BoardShape
	}
	return merged
}
