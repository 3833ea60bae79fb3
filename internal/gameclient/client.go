// Package gameclient is the remote game gateway: it translates validated
// intents into calls against the external game authority and normalizes every
// failure into the apperr taxonomy. Transient failures retry with linear
// backoff; domain rejections and invalid input return on first occurrence.
package gameclient

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/jonboulle/clockwork"

	"wordduel/internal/room"
	"wordduel/internal/validate"
)

// Config holds gateway tunables.
type Config struct {
	BaseURL string
	// Timeout is the per-request upper bound; exceeding it classifies as
	// Transient and retries.
	Timeout time.Duration
	// MaxAttempts is the retry ceiling for Transient failures, counting the
	// first attempt.
	MaxAttempts int
	// RetryDelay is the backoff base; attempt n waits RetryDelay * n.
	RetryDelay time.Duration
}

// DefaultConfig returns the gateway defaults for the given authority URL.
func DefaultConfig(baseURL string) Config {
	return Config{
		BaseURL:     baseURL,
		Timeout:     10 * time.Second,
		MaxAttempts: 3,
		RetryDelay:  500 * time.Millisecond,
	}
}

// Client is the remote game gateway.
type Client struct {
	base  *baseClient
	cfg   Config
	clock clockwork.Clock
}

// New builds a gateway for the acting user. The user identity rides every
// request; the authority trusts it the way the real backend trusts its
// anonymous-auth token.
func New(cfg Config, userID string, clock clockwork.Clock) *Client {
	if cfg.MaxAttempts < 1 {
		cfg.MaxAttempts = 1
	}
	base := newBaseClient(cfg.BaseURL, cfg.Timeout)
	base.setHeader("X-Player-ID", userID)
	return &Client{base: base, cfg: cfg, clock: clock}
}

// CreateResult is the createGame response.
type CreateResult struct {
	RoomID     string `json:"room_id"`
	WordLength int    `json:"word_length"`
}

// JoinResult is the joinGame response.
type JoinResult struct {
	Success     bool `json:"success"`
	FirstPlayer int  `json:"first_player"`
}

// RevealResult is the revealCell response.
type RevealResult struct {
	Success       bool      `json:"success"`
	Cell          room.Cell `json:"cell"`
	RevealedCells int       `json:"revealed_cells"`
}

// GuessResult is the validateGuess response. Winner, Word and NextPlayer are
// populated only when the authority reports them.
type GuessResult struct {
	Success    bool   `json:"success"`
	Correct    bool   `json:"correct"`
	Winner     string `json:"winner,omitempty"`
	Word       string `json:"word,omitempty"`
	NextPlayer int    `json:"next_player,omitempty"`
}

// SkipResult is the skipTurn response.
type SkipResult struct {
	Skipped bool `json:"skipped"`
}

// CreateGame creates a new room for the given word length. The length is
// validated before any round-trip: client-detectable errors never reach the
// wire.
func (c *Client) CreateGame(ctx context.Context, wordLength int) (*CreateResult, error) {
	if err := validate.WordLength(wordLength); err != nil {
		return nil, err
	}
	var out CreateResult
	err := c.withRetry(ctx, "create_game", func(ctx context.Context) error {
		return c.base.doJSON(ctx, http.MethodPost, "/api/games",
			map[string]int{"word_length": wordLength}, &out)
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// JoinGame joins an existing room as the second player.
func (c *Client) JoinGame(ctx context.Context, roomID string) (*JoinResult, error) {
	if err := validate.RoomID(roomID); err != nil {
		return nil, err
	}
	var out JoinResult
	err := c.withRetry(ctx, "join_game", func(ctx context.Context) error {
		return c.base.doJSON(ctx, http.MethodPost, "/api/games/"+roomID+"/join", nil, &out)
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// RevealCell reveals the board cell at (row, col).
func (c *Client) RevealCell(ctx context.Context, roomID string, row, col int) (*RevealResult, error) {
	if err := validate.RoomID(roomID); err != nil {
		return nil, err
	}
	if err := validate.CellCoordinates(row, col); err != nil {
		return nil, err
	}
	var out RevealResult
	err := c.withRetry(ctx, "reveal_cell", func(ctx context.Context) error {
		return c.base.doJSON(ctx, http.MethodPost, "/api/games/"+roomID+"/reveal",
			map[string]int{"row": row, "col": col}, &out)
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// ValidateGuess submits a word guess. The word is normalized before
// transmission.
func (c *Client) ValidateGuess(ctx context.Context, roomID, word string) (*GuessResult, error) {
	if err := validate.RoomID(roomID); err != nil {
		return nil, err
	}
	normalized, err := validate.GuessInput(word)
	if err != nil {
		return nil, err
	}
	var out GuessResult
	err = c.withRetry(ctx, "validate_guess", func(ctx context.Context) error {
		return c.base.doJSON(ctx, http.MethodPost, "/api/games/"+roomID+"/guess",
			map[string]string{"word": normalized}, &out)
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// SkipTurn passes the turn to the opponent.
func (c *Client) SkipTurn(ctx context.Context, roomID string) (*SkipResult, error) {
	if err := validate.RoomID(roomID); err != nil {
		return nil, err
	}
	var out SkipResult
	err := c.withRetry(ctx, "skip_turn", func(ctx context.Context) error {
		return c.base.doJSON(ctx, http.MethodPost, "/api/games/"+roomID+"/skip", nil, &out)
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// GetGameState fetches the full room snapshot.
func (c *Client) GetGameState(ctx context.Context, roomID string) (*room.Room, error) {
	if err := validate.RoomID(roomID); err != nil {
		return nil, err
	}
	var raw rawJSON
	err := c.withRetry(ctx, "get_game_state", func(ctx context.Context) error {
		return c.base.doJSON(ctx, http.MethodGet, "/api/games/"+roomID, nil, &raw)
	})
	if err != nil {
		return nil, err
	}
	snap, err := room.DecodeSnapshot(raw)
	if err != nil {
		return nil, fmt.Errorf("get_game_state: %w", err)
	}
	return snap, nil
}

// rawJSON defers snapshot decoding to the room package so the legacy board
// shapes resolve in exactly one place.
type rawJSON []byte

func (r *rawJSON) UnmarshalJSON(data []byte) error {
	*r = append((*r)[:0], data...)
	return nil
}
