// Package bridge consumes the raw change-notification stream for one room
// and classifies each notification into semantic events. Delivery to
// consumers is at-least-once and may repeat or reorder what the network
// delivered; ordering and staleness are the reconciler's concern, not ours.
package bridge

import (
	"context"
	"fmt"
	"sync"

	"github.com/rs/zerolog/log"

	"wordduel/internal/room"
)

// Source is a transport that can deliver change notifications for a room.
type Source interface {
	Subscribe(ctx context.Context, roomID string) (Subscription, error)
}

// Subscription is one live change stream. Changes closes when the stream
// ends; Err delivers at most one transport failure.
type Subscription interface {
	Changes() <-chan room.Change
	Err() <-chan error
	Unsubscribe() error
}

// Bridge classifies one room's notifications into events.
type Bridge struct {
	source Source
	roomID string

	mu    sync.Mutex
	state State
	prev  *room.Room
	sub   Subscription

	events chan Event
	done   chan struct{}
}

// New builds a bridge for roomID over the given source.
func New(source Source, roomID string) *Bridge {
	return &Bridge{
		source: source,
		roomID: roomID,
		state:  StateUnsubscribed,
		events: make(chan Event, 32),
		done:   make(chan struct{}),
	}
}

// Events is the classified event stream. It closes when the subscription
// ends for any reason.
func (b *Bridge) Events() <-chan Event { return b.events }

// State returns the current subscription state.
func (b *Bridge) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

// Start subscribes and begins classifying. It is an error to start a bridge
// that is not unsubscribed.
func (b *Bridge) Start(ctx context.Context) error {
	b.mu.Lock()
	if b.state != StateUnsubscribed {
		state := b.state
		b.mu.Unlock()
		return fmt.Errorf("bridge for room %s already started (state %s)", b.roomID, state)
	}
	b.state = StateSubscribing
	b.mu.Unlock()

	sub, err := b.source.Subscribe(ctx, b.roomID)
	if err != nil {
		b.setState(StateError)
		return fmt.Errorf("subscribe room %s: %w", b.roomID, err)
	}

	b.mu.Lock()
	b.sub = sub
	b.state = StateActive
	b.mu.Unlock()

	log.Debug().Str("room_id", b.roomID).Msg("room subscription active")
	go b.run(ctx, sub)
	return nil
}

// Stop tears the subscription down. Safe to call more than once.
func (b *Bridge) Stop() {
	b.mu.Lock()
	sub := b.sub
	b.sub = nil
	if b.state == StateActive || b.state == StateSubscribing {
		b.state = StateUnsubscribed
	}
	select {
	case <-b.done:
	default:
		close(b.done)
	}
	b.mu.Unlock()
	if sub != nil {
		if err := sub.Unsubscribe(); err != nil {
			log.Warn().Err(err).Str("room_id", b.roomID).Msg("unsubscribe failed")
		}
	}
}

func (b *Bridge) setState(s State) {
	b.mu.Lock()
	b.state = s
	b.mu.Unlock()
}

func (b *Bridge) run(ctx context.Context, sub Subscription) {
	defer close(b.events)
	for {
		select {
		case <-ctx.Done():
			b.Stop()
			return
		case <-b.done:
			return
		case err, ok := <-sub.Err():
			if !ok {
				continue
			}
			log.Error().Err(err).Str("room_id", b.roomID).Msg("room subscription failed")
			b.setState(StateError)
			b.emit(ctx, Event{Type: EventSubscriptionError, RoomID: b.roomID, Err: err})
			return
		case ch, ok := <-sub.Changes():
			if !ok {
				// A failing transport may close the change stream and report
				// the cause on Err concurrently; prefer the cause.
				select {
				case err := <-sub.Err():
					if err != nil {
						log.Error().Err(err).Str("room_id", b.roomID).Msg("room subscription failed")
						b.setState(StateError)
						b.emit(ctx, Event{Type: EventSubscriptionError, RoomID: b.roomID, Err: err})
						return
					}
				default:
				}
				b.setState(StateClosed)
				return
			}
			if !b.handleChange(ctx, ch) {
				return
			}
		}
	}
}

// handleChange classifies one raw notification. Returns false when the
// bridge should stop (room deleted).
func (b *Bridge) handleChange(ctx context.Context, ch room.Change) bool {
	if ch.Type == room.ChangeDelete {
		log.Info().Str("room_id", b.roomID).Msg("room deleted, unsubscribing")
		b.Stop()
		return false
	}
	if ch.New == nil {
		log.Warn().Str("room_id", b.roomID).Str("type", string(ch.Type)).Msg("change without new row, skipping")
		return true
	}

	// The comparison base is the notification's own old row when present,
	// otherwise the last snapshot this bridge saw.
	b.mu.Lock()
	prev := ch.Old
	if prev == nil {
		prev = b.prev
	}
	b.prev = ch.New
	b.mu.Unlock()

	// All applicable specialized events fire, then the generic update, in a
	// fixed order: join, cell reveal, finish, update.
	for _, ev := range classify(prev, ch.New) {
		ev.RoomID = b.roomID
		if !b.emit(ctx, ev) {
			return false
		}
	}
	return b.emit(ctx, Event{Type: EventGameUpdate, RoomID: b.roomID, Room: ch.New})
}

func classify(prev, next *room.Room) []Event {
	var events []Event
	if next.HasSecondPlayer() && (prev == nil || !prev.HasSecondPlayer()) {
		events = append(events, Event{Type: EventPlayerJoined, Room: next})
	}
	if prev != nil && boardChanged(prev, next) {
		events = append(events, Event{Type: EventCellRevealed, Room: next})
	}
	if prev != nil && prev.Status == room.StatusActive && next.Status == room.StatusFinished {
		events = append(events, Event{Type: EventGameFinished, Room: next})
	}
	return events
}

func boardChanged(prev, next *room.Room) bool {
	if next.Board == nil {
		return false
	}
	if prev.Board == nil {
		return true
	}
	return !prev.Board.Equal(next.Board)
}

func (b *Bridge) emit(ctx context.Context, ev Event) bool {
	select {
	case b.events <- ev:
		return true
	case <-b.done:
		return false
	case <-ctx.Done():
		return false
	}
}
