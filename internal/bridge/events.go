package bridge

import "wordduel/internal/room"

// EventType enumerates the semantic events the bridge derives from raw
// change notifications.
type EventType string

const (
	// EventPlayerJoined fires when the second-player identity transitions
	// from absent to present.
	EventPlayerJoined EventType = "PlayerJoined"
	// EventCellRevealed fires when board content changes between snapshots.
	EventCellRevealed EventType = "CellRevealed"
	// EventGameFinished fires when status transitions from active to finished.
	EventGameFinished EventType = "GameFinished"
	// EventGameUpdate fires for every update, carrying the full new snapshot.
	// Specialized events are additive signals, not replacements.
	EventGameUpdate EventType = "GameUpdate"
	// EventSubscriptionError reports a broken subscription. The bridge does
	// not retry itself; the surrounding application decides.
	EventSubscriptionError EventType = "SubscriptionError"
)

// Event is one classified notification delivered to consumers. Room carries
// the new snapshot for game events and is nil for subscription errors.
type Event struct {
	Type   EventType
	RoomID string
	Room   *room.Room
	Err    error
}

// State is the per-room subscription lifecycle.
type State string

const (
	StateUnsubscribed State = "unsubscribed"
	StateSubscribing  State = "subscribing"
	StateActive       State = "active"
	StateError        State = "error"
	StateClosed       State = "closed"
)
