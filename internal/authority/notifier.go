package authority

import (
	"fmt"
	"sync"

	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog/log"

	"wordduel/internal/room"
)

// Notifier delivers a change notification to one downstream transport.
type Notifier interface {
	Publish(change *room.Change)
}

// NATSNotifier publishes change envelopes on rooms.<room_id>.
type NATSNotifier struct {
	nc *nats.Conn
}

// NewNATSNotifier connects to url and returns a notifier over the connection.
func NewNATSNotifier(url string) (*NATSNotifier, error) {
	nc, err := nats.Connect(url, nats.MaxReconnects(-1))
	if err != nil {
		return nil, fmt.Errorf("connect to NATS: %w", err)
	}
	return &NATSNotifier{nc: nc}, nil
}

func (n *NATSNotifier) Publish(change *room.Change) {
	data, err := room.EncodeChange(change)
	if err != nil {
		log.Error().Err(err).Msg("encode change for NATS")
		return
	}
	if err := n.nc.Publish("rooms."+change.RoomID(), data); err != nil {
		log.Error().Err(err).Str("room_id", change.RoomID()).Msg("publish change to NATS")
	}
}

// Close shuts the connection down.
func (n *NATSNotifier) Close() {
	n.nc.Close()
}

// watchers is the in-process fan-out: the websocket feed and tests subscribe
// here. Slow watchers drop notifications rather than block the game; clients
// reconverge from the next full snapshot fetch.
type watchers struct {
	mu   sync.Mutex
	next int
	subs map[string]map[int]chan room.Change
}

func newWatchers() *watchers {
	return &watchers{subs: make(map[string]map[int]chan room.Change)}
}

func (w *watchers) watch(roomID string) (<-chan room.Change, func()) {
	w.mu.Lock()
	defer w.mu.Unlock()
	id := w.next
	w.next++
	ch := make(chan room.Change, 64)
	if w.subs[roomID] == nil {
		w.subs[roomID] = make(map[int]chan room.Change)
	}
	w.subs[roomID][id] = ch
	cancel := func() {
		w.mu.Lock()
		defer w.mu.Unlock()
		if sub, ok := w.subs[roomID][id]; ok {
			delete(w.subs[roomID], id)
			close(sub)
		}
	}
	return ch, cancel
}

func (w *watchers) publish(change *room.Change) {
	roomID := change.RoomID()
	w.mu.Lock()
	defer w.mu.Unlock()
	for _, ch := range w.subs[roomID] {
		select {
		case ch <- *change:
		default:
			log.Warn().Str("room_id", roomID).Msg("watcher channel full, dropping notification")
		}
	}
}
