package room

import (
	"encoding/json"
	"fmt"
)

// BoardShape tags which wire shape a snapshot's board arrived in. The backend
// schema has evolved; all historical shapes are resolved here, once, at the
// boundary, so nothing downstream ever guesses field names again.
type BoardShape string

const (
	// ShapeNone means no recognizable board field was present.
	ShapeNone BoardShape = ""
	// ShapeCurrent is the current schema: "board_state" holding a flat cell list.
	ShapeCurrent BoardShape = "board_state"
	// ShapeLegacyNested is the old "board" field: a 5x5 nested array of cells
	// without row/col attributes.
	ShapeLegacyNested BoardShape = "board"
	// ShapeLegacyFlat is the oldest "field_state" field: a flat cell list.
	ShapeLegacyFlat BoardShape = "field_state"
)

type rawSnapshot struct {
	ID            string          `json:"id"`
	Status        string          `json:"status"`
	WordLength    int             `json:"word_length"`
	Player1ID     string          `json:"player1_id"`
	Player2ID     *string         `json:"player2_id"`
	CurrentPlayer int             `json:"current_player"`
	Player1Score  int             `json:"player1_score"`
	Player2Score  int             `json:"player2_score"`
	BoardState    json.RawMessage `json:"board_state,omitempty"`
	Board         json.RawMessage `json:"board,omitempty"`
	FieldState    json.RawMessage `json:"field_state,omitempty"`
	Winner        *string         `json:"winner"`
	Word          *string         `json:"word"`
}

type rawBoardState struct {
	Cells []Cell `json:"cells"`
}

type rawNestedCell struct {
	Letter   string `json:"letter,omitempty"`
	Revealed bool   `json:"revealed"`
}

// DecodeSnapshot parses a wire snapshot into a Room, resolving whichever
// board shape the payload carries. A payload with no board under any
// recognized key still decodes; the result reports HasBoard() == false and
// the caller decides how to degrade.
func DecodeSnapshot(data []byte) (*Room, error) {
	var raw rawSnapshot
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("decode snapshot: %w", err)
	}
	r := &Room{
		ID:            raw.ID,
		Status:        Status(raw.Status),
		WordLength:    raw.WordLength,
		Player1ID:     raw.Player1ID,
		CurrentPlayer: raw.CurrentPlayer,
		Player1Score:  raw.Player1Score,
		Player2Score:  raw.Player2Score,
	}
	if raw.Player2ID != nil {
		r.Player2ID = *raw.Player2ID
	}
	if raw.Winner != nil {
		r.Winner = *raw.Winner
	}
	if raw.Word != nil {
		r.Word = *raw.Word
	}
	board, shape, err := resolveBoard(raw)
	if err != nil {
		return nil, err
	}
	r.Board = board
	r.BoardShape = shape
	return r, nil
}

func resolveBoard(raw rawSnapshot) (*Board, BoardShape, error) {
	if len(raw.BoardState) > 0 && string(raw.BoardState) != "null" {
		board, err := decodeFlatCells(raw.BoardState, true)
		if err != nil {
			return nil, ShapeNone, fmt.Errorf("decode board_state: %w", err)
		}
		return board, ShapeCurrent, nil
	}
	if len(raw.Board) > 0 && string(raw.Board) != "null" {
		board, err := decodeNestedCells(raw.Board)
		if err != nil {
			return nil, ShapeNone, fmt.Errorf("decode legacy board: %w", err)
		}
		return board, ShapeLegacyNested, nil
	}
	if len(raw.FieldState) > 0 && string(raw.FieldState) != "null" {
		board, err := decodeFlatCells(raw.FieldState, false)
		if err != nil {
			return nil, ShapeNone, fmt.Errorf("decode legacy field_state: %w", err)
		}
		return board, ShapeLegacyFlat, nil
	}
	return nil, ShapeNone, nil
}

// decodeFlatCells reads a flat cell list carrying explicit row/col. The
// current shape wraps the list in an object; the legacy flat shape is bare.
func decodeFlatCells(data json.RawMessage, wrapped bool) (*Board, error) {
	var cells []Cell
	if wrapped {
		var bs rawBoardState
		if err := json.Unmarshal(data, &bs); err != nil {
			return nil, err
		}
		cells = bs.Cells
	} else if err := json.Unmarshal(data, &cells); err != nil {
		return nil, err
	}
	board := &Board{}
	for _, cell := range cells {
		if cell.Row < 0 || cell.Row >= BoardSize || cell.Col < 0 || cell.Col >= BoardSize {
			return nil, fmt.Errorf("cell out of range: (%d,%d)", cell.Row, cell.Col)
		}
		board.Cells[cell.Row][cell.Col] = cell
	}
	normalizeCoords(board)
	return board, nil
}

func decodeNestedCells(data json.RawMessage) (*Board, error) {
	var rows [][]rawNestedCell
	if err := json.Unmarshal(data, &rows); err != nil {
		return nil, err
	}
	if len(rows) != BoardSize {
		return nil, fmt.Errorf("legacy board has %d rows, want %d", len(rows), BoardSize)
	}
	board := &Board{}
	for r, row := range rows {
		if len(row) != BoardSize {
			return nil, fmt.Errorf("legacy board row %d has %d cells, want %d", r, len(row), BoardSize)
		}
		for c, cell := range row {
			board.Cells[r][c] = Cell{Row: r, Col: c, Letter: cell.Letter, Revealed: cell.Revealed}
		}
	}
	return board, nil
}

// normalizeCoords makes every cell carry its own position even when the wire
// payload omitted unrevealed cells.
func normalizeCoords(board *Board) {
	for r := range board.Cells {
		for c := range board.Cells[r] {
			board.Cells[r][c].Row = r
			board.Cells[r][c].Col = c
		}
	}
}

// EncodeSnapshot renders a Room into the current wire shape. The client never
// sends snapshots upstream; this exists for the development authority and
// round-trip tests.
func EncodeSnapshot(r *Room) ([]byte, error) {
	raw := rawSnapshot{
		ID:            r.ID,
		Status:        string(r.Status),
		WordLength:    r.WordLength,
		Player1ID:     r.Player1ID,
		CurrentPlayer: r.CurrentPlayer,
		Player1Score:  r.Player1Score,
		Player2Score:  r.Player2Score,
	}
	if r.Player2ID != "" {
		raw.Player2ID = &r.Player2ID
	}
	if r.Winner != "" {
		raw.Winner = &r.Winner
	}
	if r.Word != "" {
		raw.Word = &r.Word
	}
	if r.Board != nil {
		cells := make([]Cell, 0, BoardSize*BoardSize)
		for row := range r.Board.Cells {
			for col := range r.Board.Cells[row] {
				cells = append(cells, r.Board.Cells[row][col])
			}
		}
		bs, err := json.Marshal(rawBoardState{Cells: cells})
		if err != nil {
			return nil, fmt.Errorf("encode board_state: %w", err)
		}
		raw.BoardState = bs
	}
	data, err := json.Marshal(raw)
	if err != nil {
		return nil, fmt.Errorf("encode snapshot: %w", err)
	}
	return data, nil
}
