// Package reconcile owns the authoritative local copy of game state. It is
// the single client-side writer of the current snapshot: gateway responses
// (pull) and bridge events (push) both land here, in whatever order the
// network produced them, and come out as derived facts and one-shot notices.
//
// Applying a snapshot is idempotent and monotonic-safe, so duplicate or
// stale deliveries are re-applied harmlessly rather than rejected. One-shot
// notices de-duplicate on the semantic transition itself, never on sequence
// numbers, because the stream has none.
package reconcile

import (
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"

	"wordduel/internal/bridge"
	"wordduel/internal/room"
)

// DefaultCreateGuard bounds how long a create-game request suppresses
// duplicate creates when no response ever arrives.
const DefaultCreateGuard = 15 * time.Second

// Session identifies the acting user within one client run.
type Session struct {
	UserID string
	RoomID string
}

// Reconciler applies snapshots and derives UI-facing facts.
type Reconciler struct {
	clock       clockwork.Clock
	createGuard time.Duration

	mu       sync.Mutex
	session  Session
	current  *room.Room
	previous *room.Room

	joinShown      bool
	finishReported bool

	creating   bool
	createDone chan struct{}

	viewFns   []func(View)
	noticeFns []func(Notice)
}

// New builds a reconciler for the given session.
func New(session Session, clock clockwork.Clock) *Reconciler {
	return &Reconciler{
		clock:       clock,
		createGuard: DefaultCreateGuard,
		session:     session,
	}
}

// SetCreateGuard overrides the create in-flight ceiling.
func (r *Reconciler) SetCreateGuard(d time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.createGuard = d
}

// OnView registers a listener for derived view updates.
func (r *Reconciler) OnView(fn func(View)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.viewFns = append(r.viewFns, fn)
}

// OnNotice registers a listener for one-shot notices.
func (r *Reconciler) OnNotice(fn func(Notice)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.noticeFns = append(r.noticeFns, fn)
}

// Session returns the local session.
func (r *Reconciler) Session() Session {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.session
}

// BindRoom points the session at a room. Called after create or join.
func (r *Reconciler) BindRoom(roomID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.session.RoomID != roomID {
		r.session.RoomID = roomID
		r.current = nil
		r.previous = nil
		r.joinShown = false
		r.finishReported = false
	}
}

// View returns the current derived facts.
func (r *Reconciler) View() View {
	r.mu.Lock()
	defer r.mu.Unlock()
	return buildView(r.current, r.session.UserID)
}

// HandleEvent consumes a bridge event. Only the generic update mutates
// state: the reconciler re-derives the specialized transitions from snapshot
// content itself, which is what makes duplicated or reordered specialized
// events harmless.
func (r *Reconciler) HandleEvent(ev bridge.Event) {
	switch ev.Type {
	case bridge.EventGameUpdate:
		r.Apply(ev.Room)
	case bridge.EventSubscriptionError:
		log.Error().Err(ev.Err).Str("room_id", ev.RoomID).Msg("room subscription lost")
	default:
		// PlayerJoined / CellRevealed / GameFinished are additive signals;
		// the generic update that accompanies them carries the state.
		log.Debug().Str("type", string(ev.Type)).Str("room_id", ev.RoomID).Msg("bridge event")
	}
}

// Apply folds snapshot snap into the local state and notifies listeners.
// Every apply is safe: fields overwrite idempotently under the monotonic
// merge, and one-shot notices fire only on their semantic transition.
func (r *Reconciler) Apply(snap *room.Room) {
	if snap == nil {
		return
	}
	r.mu.Lock()

	if r.session.RoomID != "" && snap.ID != "" && snap.ID != r.session.RoomID {
		r.mu.Unlock()
		log.Warn().Str("room_id", snap.ID).Str("bound", r.session.RoomID).Msg("ignoring snapshot for foreign room")
		return
	}

	// The backend schema has evolved; a snapshot with no discoverable board
	// under any recognized key is reported and dropped rather than crashing
	// or rendering corrupt state.
	if !snap.HasBoard() && (r.current == nil || !r.current.HasBoard()) {
		r.mu.Unlock()
		log.Error().Str("room_id", snap.ID).Msg("snapshot has no recognizable board, ignoring")
		return
	}

	merged := room.Merge(r.current, snap)
	r.previous = r.current
	r.current = merged

	view := buildView(merged, r.session.UserID)
	notices := r.collectNotices(view, merged)

	viewFns := make([]func(View), len(r.viewFns))
	copy(viewFns, r.viewFns)
	noticeFns := make([]func(Notice), len(r.noticeFns))
	copy(noticeFns, r.noticeFns)
	r.mu.Unlock()

	for _, fn := range viewFns {
		fn(view)
	}
	for _, notice := range notices {
		for _, fn := range noticeFns {
			fn(notice)
		}
	}
}

// collectNotices decides which one-shots fire for this apply. Caller holds
// the lock.
func (r *Reconciler) collectNotices(view View, merged *room.Room) []Notice {
	var notices []Notice

	// "Opponent joined" fires only when: not yet shown this room session,
	// the local session is the first player, and the second player identity
	// went absent -> present. Redundant snapshot delivery can satisfy the
	// last condition at most once because previous is updated first.
	if !r.joinShown && view.IsFirstPlayer && merged.HasSecondPlayer() &&
		(r.previous == nil || !r.previous.HasSecondPlayer()) {
		r.joinShown = true
		notices = append(notices, Notice{Type: NoticeOpponentJoined, Room: merged})
	}

	if merged.Status == room.StatusFinished && !r.finishReported {
		r.finishReported = true
		notices = append(notices, Notice{
			Type:    NoticeGameFinished,
			Room:    merged,
			Winner:  merged.Winner,
			Word:    merged.Word,
			WonByMe: merged.Winner != "" && merged.Winner == r.session.UserID,
		})
	}
	return notices
}
