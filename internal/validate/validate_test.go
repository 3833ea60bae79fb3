package validate

import (
	"testing"

	"wordduel/internal/apperr"
)

func TestWordLengthBounds(t *testing.T) {
	for n := -1; n <= 10; n++ {
		err := WordLength(n)
		if n >= MinWordLength && n <= MaxWordLength {
			if err != nil {
				t.Fatalf("WordLength(%d) unexpectedly invalid: %v", n, err)
			}
			continue
		}
		if err == nil {
			t.Fatalf("WordLength(%d) unexpectedly valid", n)
		}
		if apperr.KindOf(err) != apperr.KindInvalidInput {
			t.Fatalf("WordLength(%d) kind = %v, want invalid input", n, apperr.KindOf(err))
		}
	}
}

func TestCellCoordinates(t *testing.T) {
	cases := []struct {
		row, col int
		valid    bool
	}{
		{0, 0, true},
		{4, 4, true},
		{2, 3, true},
		{-1, 0, false},
		{0, -1, false},
		{5, 0, false},
		{0, 5, false},
	}
	for _, tc := range cases {
		err := CellCoordinates(tc.row, tc.col)
		if tc.valid && err != nil {
			t.Fatalf("CellCoordinates(%d,%d) unexpectedly invalid: %v", tc.row, tc.col, err)
		}
		if !tc.valid && err == nil {
			t.Fatalf("CellCoordinates(%d,%d) unexpectedly valid", tc.row, tc.col)
		}
	}
}

func TestGuessInputNormalizes(t *testing.T) {
	got, err := GuessInput("  победа ")
	if err != nil {
		t.Fatalf("GuessInput error: %v", err)
	}
	if got != "ПОБЕДА" {
		t.Fatalf("normalized = %q, want ПОБЕДА", got)
	}
}

func TestGuessInputIdempotent(t *testing.T) {
	once, err := GuessInput("солнце")
	if err != nil {
		t.Fatalf("first normalization error: %v", err)
	}
	twice, err := GuessInput(once)
	if err != nil {
		t.Fatalf("second normalization error: %v", err)
	}
	if once != twice {
		t.Fatalf("normalization not idempotent: %q then %q", once, twice)
	}
}

func TestGuessInputRejects(t *testing.T) {
	cases := []string{
		"",
		"   ",
		"срок",       // too short
		"переулочек", // too long
		"slovo",      // latin
		"сло4о",      // digit
		"сло-во",     // punctuation
	}
	for _, word := range cases {
		if _, err := GuessInput(word); err == nil {
			t.Fatalf("GuessInput(%q) unexpectedly valid", word)
		}
	}
}

func TestRoomID(t *testing.T) {
	valid := "a3bb1890-9d2c-4f7a-8c11-0de9f3a41b22"
	if err := RoomID(valid); err != nil {
		t.Fatalf("RoomID(%q) unexpectedly invalid: %v", valid, err)
	}
	invalid := []string{
		"",
		"not-a-uuid",
		"a3bb18909d2c4f7a8c110de9f3a41b22",                      // no hyphens
		"a3bb1890-9d2c-1f7a-8c11-0de9f3a41b22",                  // version 1
		"a3bb1890-9d2c-4f7a-0c11-0de9f3a41b22",                  // wrong variant
		"{a3bb1890-9d2c-4f7a-8c11-0de9f3a41b22}",                // braced
		"a3bb1890-9d2c-4f7a-8c11-0de9f3a41b22ff",                // too long
	}
	for _, id := range invalid {
		if err := RoomID(id); err == nil {
			t.Fatalf("RoomID(%q) unexpectedly valid", id)
		}
	}
}
