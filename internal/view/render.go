// Package view renders derived game facts as terminal text. It is a pure
// consumer of the reconciler's output: no state, no I/O, strings in and out.
package view

import (
	"fmt"
	"strings"

	"wordduel/internal/reconcile"
	"wordduel/internal/room"
)

const hiddenCell = "·"

// Board renders the 5x5 grid with revealed letters.
func Board(v reconcile.View) string {
	if v.Room == nil || v.Room.Board == nil {
		return "(no board yet)\n"
	}
	var b strings.Builder
	b.WriteString("    0 1 2 3 4\n")
	for r := range v.Room.Board.Cells {
		fmt.Fprintf(&b, "  %d", r)
		for c := range v.Room.Board.Cells[r] {
			cell := v.Room.Board.At(r, c)
			if cell.Revealed && cell.Letter != "" {
				b.WriteString(" " + cell.Letter)
			} else {
				b.WriteString(" " + hiddenCell)
			}
		}
		b.WriteByte('\n')
	}
	return b.String()
}

// StatusLine summarizes turn, scores and room state in one line.
func StatusLine(v reconcile.View) string {
	if v.Room == nil {
		return "waiting for game state"
	}
	score := fmt.Sprintf("you %d : %d opponent", v.MyScore, v.OpponentScore)
	switch v.Room.Status {
	case room.StatusWaiting:
		return "waiting for an opponent to join | " + score
	case room.StatusActive:
		if v.IsMyTurn {
			return "your turn | " + score
		}
		return "opponent's turn | " + score
	case room.StatusFinished:
		return "game over | " + score
	case room.StatusCancelled:
		return "game cancelled | " + score
	default:
		return string(v.Room.Status) + " | " + score
	}
}

// GameOver renders the final results screen from a finish notice.
func GameOver(n reconcile.Notice) string {
	var b strings.Builder
	b.WriteString("=== GAME OVER ===\n")
	if n.WonByMe {
		b.WriteString("You won!\n")
	} else if n.Winner != "" {
		b.WriteString("Your opponent won.\n")
	}
	if n.Word != "" {
		fmt.Fprintf(&b, "The word was: %s\n", n.Word)
	}
	if n.Room != nil {
		fmt.Fprintf(&b, "Final score: %d : %d\n", n.Room.Player1Score, n.Room.Player2Score)
	}
	return b.String()
}

// ShareLink renders the room-sharable URL for direct join.
func ShareLink(baseURL, roomID string) string {
	return fmt.Sprintf("%s/?room=%s", strings.TrimRight(baseURL, "/"), roomID)
}
