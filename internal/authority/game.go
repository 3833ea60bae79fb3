package authority

import (
	"math/rand"
	"time"

	"wordduel/internal/room"
)

// gameRoom is the authority's full truth for one room: every board letter and
// the hidden word. Snapshots sent to clients mask everything unrevealed.
type gameRoom struct {
	ID            string                                    `json:"id"`
	Status        room.Status                               `json:"status"`
	Word          string                                    `json:"word"`
	WordLength    int                                       `json:"word_length"`
	Player1ID     string                                    `json:"player1_id"`
	Player2ID     string                                    `json:"player2_id"`
	CurrentPlayer int                                       `json:"current_player"`
	Player1Score  int                                       `json:"player1_score"`
	Player2Score  int                                       `json:"player2_score"`
	Letters       [room.BoardSize][room.BoardSize]string    `json:"letters"`
	Revealed      [room.BoardSize][room.BoardSize]bool      `json:"revealed"`
	Winner        string                                    `json:"winner"`
	CreatedAt     time.Time                                 `json:"created_at"`
	UpdatedAt     time.Time                                 `json:"updated_at"`
}

// fillBoard scatters the word's letters over distinct cells and fills the
// rest from the alphabet.
func (g *gameRoom) fillBoard(rng *rand.Rand) {
	for r := 0; r < room.BoardSize; r++ {
		for c := 0; c < room.BoardSize; c++ {
			g.Letters[r][c] = randomLetter(rng)
		}
	}
	positions := rng.Perm(room.BoardSize * room.BoardSize)
	for i, letter := range []rune(g.Word) {
		pos := positions[i]
		g.Letters[pos/room.BoardSize][pos%room.BoardSize] = string(letter)
	}
}

// snapshot renders the client-visible view: letters only where revealed, the
// word only once finished.
func (g *gameRoom) snapshot() *room.Room {
	snap := &room.Room{
		ID:            g.ID,
		Status:        g.Status,
		WordLength:    g.WordLength,
		Player1ID:     g.Player1ID,
		Player2ID:     g.Player2ID,
		CurrentPlayer: g.CurrentPlayer,
		Player1Score:  g.Player1Score,
		Player2Score:  g.Player2Score,
		Winner:        g.Winner,
		BoardShape:    room.ShapeCurrent,
		Board:         &room.Board{},
	}
	for r := 0; r < room.BoardSize; r++ {
		for c := 0; c < room.BoardSize; c++ {
			cell := room.Cell{Row: r, Col: c, Revealed: g.Revealed[r][c]}
			if cell.Revealed {
				cell.Letter = g.Letters[r][c]
			}
			snap.Board.Cells[r][c] = cell
		}
	}
	if g.Status == room.StatusFinished {
		snap.Word = g.Word
	}
	return snap
}

func (g *gameRoom) playerNumber(playerID string) int {
	switch playerID {
	case g.Player1ID:
		return 1
	case g.Player2ID:
		return 2
	default:
		return 0
	}
}

func (g *gameRoom) passTurn() {
	if g.CurrentPlayer == 1 {
		g.CurrentPlayer = 2
	} else {
		g.CurrentPlayer = 1
	}
}

func (g *gameRoom) addScore(playerNumber, points int) {
	if playerNumber == 1 {
		g.Player1Score += points
	} else {
		g.Player2Score += points
	}
}

func (g *gameRoom) revealedCount() int {
	n := 0
	for r := range g.Revealed {
		for c := range g.Revealed[r] {
			if g.Revealed[r][c] {
				n++
			}
		}
	}
	return n
}
