package bridge

import (
	"context"
	"testing"
	"time"

	"wordduel/internal/room"
)

func activeRoom() *room.Room {
	r := &room.Room{
		ID:            "r1",
		Status:        room.StatusActive,
		Player1ID:     "p1",
		Player2ID:     "p2",
		CurrentPlayer: 1,
		Board:         &room.Board{},
	}
	return r
}

func startBridge(t *testing.T) (*Bridge, chan room.Change) {
	t.Helper()
	changes := make(chan room.Change, 16)
	b := New(NewChanSource(changes, nil), "r1")
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	if err := b.Start(ctx); err != nil {
		t.Fatalf("Start error: %v", err)
	}
	t.Cleanup(b.Stop)
	return b, changes
}

func collect(t *testing.T, b *Bridge, n int) []Event {
	t.Helper()
	var events []Event
	timeout := time.After(2 * time.Second)
	for len(events) < n {
		select {
		case ev, ok := <-b.Events():
			if !ok {
				t.Fatalf("event stream closed after %d of %d events", len(events), n)
			}
			events = append(events, ev)
		case <-timeout:
			t.Fatalf("timed out after %d of %d events", len(events), n)
		}
	}
	return events
}

func TestGenericUpdateAlwaysFires(t *testing.T) {
	b, changes := startBridge(t)
	next := activeRoom()
	changes <- room.Change{Type: room.ChangeUpdate, Old: next.Clone(), New: next}

	events := collect(t, b, 1)
	if events[0].Type != EventGameUpdate {
		t.Fatalf("event = %v, want generic update", events[0].Type)
	}
	if events[0].Room == nil || events[0].Room.ID != "r1" {
		t.Fatal("generic update must carry the full new snapshot")
	}
}

func TestPlayerJoinedClassification(t *testing.T) {
	b, changes := startBridge(t)
	old := activeRoom()
	old.Player2ID = ""
	old.Status = room.StatusWaiting
	next := activeRoom()
	changes <- room.Change{Type: room.ChangeUpdate, Old: old, New: next}

	events := collect(t, b, 2)
	if events[0].Type != EventPlayerJoined {
		t.Fatalf("first event = %v, want PlayerJoined", events[0].Type)
	}
	if events[1].Type != EventGameUpdate {
		t.Fatalf("second event = %v, want GameUpdate", events[1].Type)
	}
}

func TestCellRevealedClassification(t *testing.T) {
	b, changes := startBridge(t)
	old := activeRoom()
	next := activeRoom()
	next.Board.Cells[2][3] = room.Cell{Row: 2, Col: 3, Letter: "О", Revealed: true}
	changes <- room.Change{Type: room.ChangeUpdate, Old: old, New: next}

	events := collect(t, b, 2)
	if events[0].Type != EventCellRevealed {
		t.Fatalf("first event = %v, want CellRevealed", events[0].Type)
	}
}

func TestGameFinishedClassification(t *testing.T) {
	b, changes := startBridge(t)
	old := activeRoom()
	next := activeRoom()
	next.Status = room.StatusFinished
	next.Winner = "p1"
	changes <- room.Change{Type: room.ChangeUpdate, Old: old, New: next}

	events := collect(t, b, 2)
	if events[0].Type != EventGameFinished {
		t.Fatalf("first event = %v, want GameFinished", events[0].Type)
	}
}

func TestMultipleEventsFixedOrder(t *testing.T) {
	b, changes := startBridge(t)
	// One raw update that seats the second player, reveals a cell and
	// finishes the game all at once.
	old := activeRoom()
	old.Player2ID = ""
	next := activeRoom()
	next.Board.Cells[0][0] = room.Cell{Letter: "К", Revealed: true}
	next.Status = room.StatusFinished
	changes <- room.Change{Type: room.ChangeUpdate, Old: old, New: next}

	events := collect(t, b, 4)
	want := []EventType{EventPlayerJoined, EventCellRevealed, EventGameFinished, EventGameUpdate}
	for i, ev := range events {
		if ev.Type != want[i] {
			t.Fatalf("event %d = %v, want %v", i, ev.Type, want[i])
		}
	}
}

func TestFallsBackToLastSeenSnapshot(t *testing.T) {
	b, changes := startBridge(t)
	first := activeRoom()
	first.Player2ID = ""
	first.Status = room.StatusWaiting
	changes <- room.Change{Type: room.ChangeInsert, New: first}
	collect(t, b, 1) // a fresh waiting room classifies as a generic update only

	// The second notification has no old row; the bridge compares against
	// the last snapshot it saw.
	next := activeRoom()
	changes <- room.Change{Type: room.ChangeUpdate, New: next}
	events := collect(t, b, 2)
	if events[0].Type != EventPlayerJoined {
		t.Fatalf("first event = %v, want PlayerJoined", events[0].Type)
	}
}

func TestDeleteAutoUnsubscribes(t *testing.T) {
	b, changes := startBridge(t)
	gone := activeRoom()
	changes <- room.Change{Type: room.ChangeDelete, Old: gone}

	select {
	case _, ok := <-b.Events():
		if ok {
			t.Fatal("expected no events after room deletion")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("event stream did not close after deletion")
	}
	if got := b.State(); got != StateUnsubscribed {
		t.Fatalf("state = %v, want unsubscribed", got)
	}
}

func TestSubscriptionErrorSurfacesOnce(t *testing.T) {
	changes := make(chan room.Change)
	errs := make(chan error, 1)
	src := &fakeSource{changes: changes, errs: errs}
	b := New(src, "r1")
	if err := b.Start(context.Background()); err != nil {
		t.Fatalf("Start error: %v", err)
	}
	t.Cleanup(b.Stop)

	errs <- context.DeadlineExceeded
	events := collect(t, b, 1)
	if events[0].Type != EventSubscriptionError {
		t.Fatalf("event = %v, want SubscriptionError", events[0].Type)
	}
	if events[0].Err == nil {
		t.Fatal("subscription error event must carry the cause")
	}
	if got := b.State(); got != StateError {
		t.Fatalf("state = %v, want error", got)
	}
}

func TestStartTwiceFails(t *testing.T) {
	b, _ := startBridge(t)
	if err := b.Start(context.Background()); err == nil {
		t.Fatal("second Start unexpectedly succeeded")
	}
}

type fakeSource struct {
	changes chan room.Change
	errs    chan error
}

func (s *fakeSource) Subscribe(ctx context.Context, roomID string) (Subscription, error) {
	return s, nil
}

func (s *fakeSource) Changes() <-chan room.Change { return s.changes }
func (s *fakeSource) Err() <-chan error           { return s.errs }
func (s *fakeSource) Unsubscribe() error          { return nil }
