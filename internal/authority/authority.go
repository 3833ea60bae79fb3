// Package authority is the development game authority: an implementation of
// the remote-procedure contract the client consumes, used for local play and
// end-to-end tests. It enforces the rules the client treats as opaque: turn
// alternation, reveal/guess/skip legality, word selection and scoring. The
// production backend it stands in for is out of scope for this repository.
package authority

import (
	"context"
	"errors"
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"

	"wordduel/internal/apperr"
	"wordduel/internal/room"
	"wordduel/internal/validate"
)

const (
	revealPoints  = 1
	victoryPoints = 5
)

// Authority owns room truth and publishes change notifications for every
// mutation.
type Authority struct {
	store    Store
	clock    clockwork.Clock
	watchers *watchers

	// mu serializes the read-modify-write cycle of mutations. The store
	// alone cannot, since two concurrent reveals would both read the same
	// base state.
	mu        sync.Mutex
	rng       *rand.Rand
	notifiers []Notifier
}

// New builds an authority over the given store.
func New(store Store, clock clockwork.Clock, seed int64) *Authority {
	return &Authority{
		store:    store,
		clock:    clock,
		watchers: newWatchers(),
		rng:      rand.New(rand.NewSource(seed)),
	}
}

// AddNotifier attaches a downstream notification transport (e.g. NATS).
func (a *Authority) AddNotifier(n Notifier) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.notifiers = append(a.notifiers, n)
}

// Watch subscribes to a room's change stream in-process. The returned cancel
// function must be called to release the subscription.
func (a *Authority) Watch(roomID string) (<-chan room.Change, func()) {
	return a.watchers.watch(roomID)
}

func (a *Authority) publish(change *room.Change) {
	a.watchers.publish(change)
	for _, n := range a.notifiers {
		n.Publish(change)
	}
}

// CreateGame mints a room in waiting state with the caller as first player.
func (a *Authority) CreateGame(ctx context.Context, playerID string, wordLength int) (*room.Room, error) {
	if err := validate.WordLength(wordLength); err != nil {
		return nil, err
	}
	if playerID == "" {
		return nil, apperr.Invalid("player identity is required")
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	word, err := pickWord(a.rng, wordLength)
	if err != nil {
		return nil, apperr.Unknown("pick word", err)
	}
	now := a.clock.Now()
	g := &gameRoom{
		ID:            uuid.NewString(),
		Status:        room.StatusWaiting,
		Word:          word,
		WordLength:    runeCount(word),
		Player1ID:     playerID,
		CurrentPlayer: 1,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	g.fillBoard(a.rng)
	if err := a.store.Put(ctx, g); err != nil {
		return nil, apperr.Unknown("save room", err)
	}
	snap := g.snapshot()
	a.publish(&room.Change{Type: room.ChangeInsert, New: snap})
	log.Info().Str("room_id", g.ID).Int("word_length", g.WordLength).Msg("room created")
	return snap, nil
}

// JoinGame seats the caller as second player and activates the game.
func (a *Authority) JoinGame(ctx context.Context, playerID, roomID string) (*room.Room, error) {
	return a.mutate(ctx, roomID, func(g *gameRoom) error {
		if g.Player1ID == playerID || g.Player2ID == playerID {
			return apperr.Domain(apperr.ReasonAlreadyJoined, "you are already in this room")
		}
		if g.Status != room.StatusWaiting || g.Player2ID != "" {
			return apperr.Domain(apperr.ReasonRoomFull, "the room already has two players")
		}
		g.Player2ID = playerID
		g.Status = room.StatusActive
		return nil
	})
}

// RevealCell opens one cell for the caller, scores it, and passes the turn.
// Re-revealing an already-open cell is rejected as a benign domain error, so
// a network-retried reveal cannot double-apply.
func (a *Authority) RevealCell(ctx context.Context, playerID, roomID string, row, col int) (*room.Room, error) {
	if err := validate.CellCoordinates(row, col); err != nil {
		return nil, err
	}
	return a.mutate(ctx, roomID, func(g *gameRoom) error {
		if err := requireTurn(g, playerID); err != nil {
			return err
		}
		if g.Revealed[row][col] {
			return apperr.Domain(apperr.ReasonAlreadyRevealed, "that cell is already revealed")
		}
		g.Revealed[row][col] = true
		g.addScore(g.playerNumber(playerID), revealPoints)
		g.passTurn()
		return nil
	})
}

// Guess checks the caller's word. A correct guess finishes the game; a wrong
// one passes the turn.
func (a *Authority) Guess(ctx context.Context, playerID, roomID, word string) (*room.Room, bool, error) {
	normalized, err := validate.GuessInput(word)
	if err != nil {
		return nil, false, err
	}
	correct := false
	snap, err := a.mutate(ctx, roomID, func(g *gameRoom) error {
		if err := requireTurn(g, playerID); err != nil {
			return err
		}
		if normalized == g.Word {
			correct = true
			g.Status = room.StatusFinished
			g.Winner = playerID
			g.addScore(g.playerNumber(playerID), victoryPoints)
			return nil
		}
		g.passTurn()
		return nil
	})
	return snap, correct, err
}

// SkipTurn passes the caller's turn.
func (a *Authority) SkipTurn(ctx context.Context, playerID, roomID string) (*room.Room, error) {
	return a.mutate(ctx, roomID, func(g *gameRoom) error {
		if err := requireTurn(g, playerID); err != nil {
			return err
		}
		g.passTurn()
		return nil
	})
}

// CancelGame cancels a room still waiting for an opponent.
func (a *Authority) CancelGame(ctx context.Context, playerID, roomID string) (*room.Room, error) {
	return a.mutate(ctx, roomID, func(g *gameRoom) error {
		if g.Player1ID != playerID {
			return apperr.Domain(apperr.ReasonNotYourTurn, "only the room creator can cancel")
		}
		if g.Status != room.StatusWaiting {
			return apperr.Domain(apperr.ReasonGameNotActive, "only waiting rooms can be cancelled")
		}
		g.Status = room.StatusCancelled
		return nil
	})
}

// RemoveRoom deletes a room and publishes the deletion so subscribers
// unsubscribe.
func (a *Authority) RemoveRoom(ctx context.Context, roomID string) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	g, err := a.store.Get(ctx, roomID)
	if err != nil {
		return mapStoreErr(err)
	}
	if err := a.store.Delete(ctx, roomID); err != nil {
		return apperr.Unknown("delete room", err)
	}
	a.publish(&room.Change{Type: room.ChangeDelete, Old: g.snapshot()})
	return nil
}

// GetGameState returns the client-visible snapshot.
func (a *Authority) GetGameState(ctx context.Context, roomID string) (*room.Room, error) {
	if err := validate.RoomID(roomID); err != nil {
		return nil, err
	}
	g, err := a.store.Get(ctx, roomID)
	if err != nil {
		return nil, mapStoreErr(err)
	}
	return g.snapshot(), nil
}

// mutate runs fn over the room's truth under the authority lock, persists
// the result, and publishes an update notification carrying both the old and
// new snapshots.
func (a *Authority) mutate(ctx context.Context, roomID string, fn func(g *gameRoom) error) (*room.Room, error) {
	if err := validate.RoomID(roomID); err != nil {
		return nil, err
	}
	a.mu.Lock()
	defer a.mu.Unlock()

	g, err := a.store.Get(ctx, roomID)
	if err != nil {
		return nil, mapStoreErr(err)
	}
	old := g.snapshot()
	if err := fn(g); err != nil {
		return nil, err
	}
	g.UpdatedAt = a.clock.Now()
	if err := a.store.Put(ctx, g); err != nil {
		return nil, apperr.Unknown("save room", err)
	}
	snap := g.snapshot()
	a.publish(&room.Change{Type: room.ChangeUpdate, Old: old, New: snap})
	return snap, nil
}

// SweepStale cancels waiting rooms nobody joined within maxIdle and removes
// terminal rooms idle longer than maxIdle. Returns how many rooms changed.
func (a *Authority) SweepStale(ctx context.Context, maxIdle time.Duration) (int, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	rooms, err := a.store.List(ctx)
	if err != nil {
		return 0, apperr.Unknown("list rooms", err)
	}
	cutoff := a.clock.Now().Add(-maxIdle)
	swept := 0
	for _, g := range rooms {
		if !g.UpdatedAt.Before(cutoff) {
			continue
		}
		switch {
		case g.Status == room.StatusWaiting:
			old := g.snapshot()
			g.Status = room.StatusCancelled
			g.UpdatedAt = a.clock.Now()
			if err := a.store.Put(ctx, g); err != nil {
				return swept, apperr.Unknown("save room", err)
			}
			a.publish(&room.Change{Type: room.ChangeUpdate, Old: old, New: g.snapshot()})
			swept++
		case g.Status.Terminal():
			if err := a.store.Delete(ctx, g.ID); err != nil {
				return swept, apperr.Unknown("delete room", err)
			}
			a.publish(&room.Change{Type: room.ChangeDelete, Old: g.snapshot()})
			swept++
		}
	}
	if swept > 0 {
		log.Info().Int("rooms", swept).Msg("swept stale rooms")
	}
	return swept, nil
}

func requireTurn(g *gameRoom, playerID string) error {
	if g.Status != room.StatusActive {
		return apperr.Domain(apperr.ReasonGameNotActive, "the game is not active")
	}
	seat := g.playerNumber(playerID)
	if seat == 0 {
		return apperr.Domain(apperr.ReasonNotYourTurn, "you are not a player in this room")
	}
	if g.CurrentPlayer != seat {
		return apperr.Domain(apperr.ReasonNotYourTurn, "it is not your turn")
	}
	return nil
}

func mapStoreErr(err error) error {
	if errors.Is(err, errRoomNotFound) {
		return apperr.Domain(apperr.ReasonRoomNotFound, "room not found")
	}
	return apperr.Unknown("load room", err)
}
