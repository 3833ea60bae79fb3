// Package validate holds the pure input checks that run before anything
// leaves the client. No I/O, no side effects: callers branch on the returned
// error instead of catching anything.
package validate

import (
	"strings"
	"unicode"

	"github.com/google/uuid"

	"wordduel/internal/apperr"
)

const (
	// MinWordLength and MaxWordLength bound the playable word sizes.
	MinWordLength = 5
	MaxWordLength = 8
)

// WordLength reports whether n is a playable word length.
func WordLength(n int) error {
	if n < MinWordLength || n > MaxWordLength {
		return apperr.Invalidf("word length must be between %d and %d, got %d", MinWordLength, MaxWordLength, n)
	}
	return nil
}

// CellCoordinates reports whether (row, col) addresses a board cell.
func CellCoordinates(row, col int) error {
	if row < 0 || row > 4 || col < 0 || col > 4 {
		return apperr.Invalidf("cell coordinates must be in [0,4], got (%d,%d)", row, col)
	}
	return nil
}

// GuessInput normalizes a guess for transmission: trims surrounding
// whitespace and upper-cases it, then checks the length bounds and that every
// rune is a Cyrillic letter. The transform is idempotent, so normalizing an
// already-normalized word returns the identical string.
func GuessInput(word string) (string, error) {
	normalized := strings.ToUpper(strings.TrimSpace(word))
	if normalized == "" {
		return "", apperr.Invalid("guess is empty")
	}
	length := 0
	for _, r := range normalized {
		if !unicode.Is(unicode.Cyrillic, r) || !unicode.IsLetter(r) {
			return "", apperr.Invalidf("guess contains non-Cyrillic character %q", r)
		}
		length++
	}
	if length < MinWordLength || length > MaxWordLength {
		return "", apperr.Invalidf("guess must be %d-%d letters, got %d", MinWordLength, MaxWordLength, length)
	}
	return normalized, nil
}

// RoomID reports whether id has the canonical room identifier shape: the
// 36-character hyphenated 8-4-4-4-12 form, RFC 4122 variant, version 4.
// uuid.Parse alone is too lenient here (it accepts braced and bare hex
// encodings), so the shape is checked explicitly first.
func RoomID(id string) error {
	if len(id) != 36 {
		return apperr.Invalidf("room id must be 36 characters, got %d", len(id))
	}
	if id[8] != '-' || id[13] != '-' || id[18] != '-' || id[23] != '-' {
		return apperr.Invalid("room id is not in 8-4-4-4-12 form")
	}
	u, err := uuid.Parse(id)
	if err != nil {
		return apperr.Invalidf("room id is not a valid identifier: %v", err)
	}
	if u.Variant() != uuid.RFC4122 || u.Version() != 4 {
		return apperr.Invalid("room id has the wrong version/variant bits")
	}
	return nil
}
