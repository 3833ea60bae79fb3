package room

import (
	"encoding/json"
	"fmt"
)

// ChangeType is the notification kind the change stream delivers.
type ChangeType string

const (
	ChangeInsert ChangeType = "insert"
	ChangeUpdate ChangeType = "update"
	ChangeDelete ChangeType = "delete"
)

// Change is one row-level notification for a room: the previous and new
// snapshots, either of which may be absent (inserts have no old row, deletes
// no new one).
type Change struct {
	Type ChangeType
	Old  *Room
	New  *Room
}

type rawChange struct {
	EventType string          `json:"event_type"`
	Old       json.RawMessage `json:"old,omitempty"`
	New       json.RawMessage `json:"new,omitempty"`
}

// DecodeChange parses a wire notification envelope.
func DecodeChange(data []byte) (*Change, error) {
	var raw rawChange
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("decode change: %w", err)
	}
	ch := &Change{Type: ChangeType(raw.EventType)}
	switch ch.Type {
	case ChangeInsert, ChangeUpdate, ChangeDelete:
	default:
		return nil, fmt.Errorf("unknown change event type %q", raw.EventType)
	}
	if len(raw.Old) > 0 && string(raw.Old) != "null" {
		old, err := DecodeSnapshot(raw.Old)
		if err != nil {
			return nil, fmt.Errorf("decode change old row: %w", err)
		}
		ch.Old = old
	}
	if len(raw.New) > 0 && string(raw.New) != "null" {
		next, err := DecodeSnapshot(raw.New)
		if err != nil {
			return nil, fmt.Errorf("decode change new row: %w", err)
		}
		ch.New = next
	}
	return ch, nil
}

// EncodeChange renders a notification envelope for the wire.
func EncodeChange(ch *Change) ([]byte, error) {
	raw := rawChange{EventType: string(ch.Type)}
	if ch.Old != nil {
		data, err := EncodeSnapshot(ch.Old)
		if err != nil {
			return nil, err
		}
		raw.Old = data
	}
	if ch.New != nil {
		data, err := EncodeSnapshot(ch.New)
		if err != nil {
			return nil, err
		}
		raw.New = data
	}
	data, err := json.Marshal(raw)
	if err != nil {
		return nil, fmt.Errorf("encode change: %w", err)
	}
	return data, nil
}

// RoomID returns the room the change refers to, from whichever row is present.
func (ch *Change) RoomID() string {
	if ch.New != nil {
		return ch.New.ID
	}
	if ch.Old != nil {
		return ch.Old.ID
	}
	return ""
}
