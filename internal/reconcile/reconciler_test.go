package reconcile

import (
	"context"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"

	"wordduel/internal/bridge"
	"wordduel/internal/room"
)

func snapshot(status room.Status, player2 string, currentPlayer int) *room.Room {
	return &room.Room{
		ID:            "r1",
		Status:        status,
		WordLength:    6,
		Player1ID:     "alice",
		Player2ID:     player2,
		CurrentPlayer: currentPlayer,
		Board:         &room.Board{},
	}
}

func newTestReconciler(userID string) (*Reconciler, *recorder) {
	rec := New(Session{UserID: userID, RoomID: "r1"}, clockwork.NewFakeClock())
	r := &recorder{}
	rec.OnView(r.view)
	rec.OnNotice(r.notice)
	return rec, r
}

type recorder struct {
	views   []View
	notices []Notice
}

func (r *recorder) view(v View)     { r.views = append(r.views, v) }
func (r *recorder) notice(n Notice) { r.notices = append(r.notices, n) }

func (r *recorder) noticesOf(t NoticeType) []Notice {
	var out []Notice
	for _, n := range r.notices {
		if n.Type == t {
			out = append(out, n)
		}
	}
	return out
}

func TestDerivesTurnByIdentity(t *testing.T) {
	rec, _ := newTestReconciler("alice")
	rec.Apply(snapshot(room.StatusActive, "bob", 1))
	v := rec.View()
	if !v.IsMyTurn || !v.IsActive || !v.BoardInteractive || !v.InputEnabled {
		t.Fatalf("expected interactive view for player 1 on turn 1: %+v", v)
	}

	rec.Apply(snapshot(room.StatusActive, "bob", 2))
	v = rec.View()
	if v.IsMyTurn || v.BoardInteractive || v.InputEnabled {
		t.Fatalf("expected passive view for player 1 on turn 2: %+v", v)
	}
}

func TestSecondPlayerSeatSurvivesReload(t *testing.T) {
	// A client resuming mid-game must map itself by identity, not by the
	// order it learned about players.
	rec, _ := newTestReconciler("bob")
	rec.Apply(snapshot(room.StatusActive, "bob", 2))
	v := rec.View()
	if v.PlayerNumber != 2 || !v.IsMyTurn {
		t.Fatalf("expected seat 2 on turn: %+v", v)
	}
	if v.IsFirstPlayer {
		t.Fatal("bob is not the first player")
	}
}

func TestOpponentJoinedFiresOnce(t *testing.T) {
	rec, r := newTestReconciler("alice")
	rec.Apply(snapshot(room.StatusWaiting, "", 1))
	joined := snapshot(room.StatusActive, "bob", 1)
	rec.Apply(joined)
	// Redundant delivery of the same snapshot must not re-fire the one-shot.
	rec.Apply(joined)
	rec.Apply(joined.Clone())

	if got := len(r.noticesOf(NoticeOpponentJoined)); got != 1 {
		t.Fatalf("opponent-joined fired %d times, want once", got)
	}
}

func TestOpponentJoinedOnlyForFirstPlayer(t *testing.T) {
	rec, r := newTestReconciler("bob")
	rec.Apply(snapshot(room.StatusWaiting, "", 1))
	rec.Apply(snapshot(room.StatusActive, "bob", 1))
	if got := len(r.noticesOf(NoticeOpponentJoined)); got != 0 {
		t.Fatalf("joining player saw %d join notices, want none", got)
	}
}

func TestOpponentJoinedWithUnknownPrevious(t *testing.T) {
	// First snapshot ever seen already carries the opponent (e.g. resume
	// after reload): previous is unknown, the notice still fires once.
	rec, r := newTestReconciler("alice")
	rec.Apply(snapshot(room.StatusActive, "bob", 1))
	if got := len(r.noticesOf(NoticeOpponentJoined)); got != 1 {
		t.Fatalf("opponent-joined fired %d times, want once", got)
	}
}

func TestOutOfOrderSnapshotsConvergeOnContent(t *testing.T) {
	rec, _ := newTestReconciler("alice")
	finished := snapshot(room.StatusFinished, "bob", 2)
	finished.Winner = "alice"
	finished.Word = "ПОБЕДА"
	finished.Player1Score = 9
	finished.Player2Score = 4
	active := snapshot(room.StatusActive, "bob", 1)
	active.Player1Score = 4
	active.Player2Score = 4

	// The logically-later snapshot arrives first; the stale one after.
	rec.Apply(finished)
	rec.Apply(active)

	v := rec.View()
	if v.Room.Status != room.StatusFinished {
		t.Fatalf("status regressed to %q under out-of-order delivery", v.Room.Status)
	}
	if v.IsMyTurn || v.BoardInteractive || v.InputEnabled {
		t.Fatalf("interactivity derived after finish: %+v", v)
	}
	if v.Room.Winner != "alice" || v.Room.Word != "ПОБЕДА" {
		t.Fatalf("final results lost: %+v", v.Room)
	}
	if v.MyScore != 9 || v.OpponentScore != 4 {
		t.Fatalf("final scores regressed: %d:%d", v.MyScore, v.OpponentScore)
	}
}

func TestFinishReportedOnce(t *testing.T) {
	rec, r := newTestReconciler("alice")
	rec.Apply(snapshot(room.StatusActive, "bob", 1))
	finished := snapshot(room.StatusFinished, "bob", 2)
	finished.Winner = "alice"
	finished.Word = "СОЛНЦЕ"
	rec.Apply(finished)
	rec.Apply(finished)
	rec.Apply(snapshot(room.StatusFinished, "bob", 2))

	notices := r.noticesOf(NoticeGameFinished)
	if len(notices) != 1 {
		t.Fatalf("finish reported %d times, want once", len(notices))
	}
	if !notices[0].WonByMe || notices[0].Word != "СОЛНЦЕ" {
		t.Fatalf("unexpected finish notice: %+v", notices[0])
	}
}

func TestMalformedSnapshotIgnored(t *testing.T) {
	rec, r := newTestReconciler("alice")
	rec.Apply(&room.Room{ID: "r1", Status: room.StatusActive, Player1ID: "alice"})
	if len(r.views) != 0 {
		t.Fatalf("boardless snapshot produced %d view updates, want none", len(r.views))
	}
	if rec.View().Room != nil {
		t.Fatal("boardless snapshot became current state")
	}
}

func TestBoardlessUpdateAfterGoodSnapshotStillApplies(t *testing.T) {
	// Once a board is known, later snapshots missing the field reuse it
	// instead of being dropped.
	rec, r := newTestReconciler("alice")
	good := snapshot(room.StatusWaiting, "", 1)
	good.Board.Cells[1][1] = room.Cell{Row: 1, Col: 1, Letter: "К", Revealed: true}
	rec.Apply(good)

	bare := snapshot(room.StatusActive, "bob", 1)
	bare.Board = nil
	rec.Apply(bare)

	v := rec.View()
	if v.Room.Status != room.StatusActive {
		t.Fatalf("status = %q, want active", v.Room.Status)
	}
	if cell := v.Room.Board.At(1, 1); !cell.Revealed {
		t.Fatal("known board lost on boardless update")
	}
	if len(r.views) != 2 {
		t.Fatalf("view updates = %d, want 2", len(r.views))
	}
}

func TestForeignRoomSnapshotIgnored(t *testing.T) {
	rec, r := newTestReconciler("alice")
	foreign := snapshot(room.StatusActive, "bob", 1)
	foreign.ID = "other-room"
	rec.Apply(foreign)
	if len(r.views) != 0 {
		t.Fatal("snapshot for a different room was applied")
	}
}

func TestHandleEventAppliesOnlyGenericUpdate(t *testing.T) {
	rec, r := newTestReconciler("alice")
	snap := snapshot(room.StatusActive, "bob", 1)
	rec.HandleEvent(bridge.Event{Type: bridge.EventPlayerJoined, RoomID: "r1", Room: snap})
	if len(r.views) != 0 {
		t.Fatal("specialized event mutated state")
	}
	rec.HandleEvent(bridge.Event{Type: bridge.EventGameUpdate, RoomID: "r1", Room: snap})
	if len(r.views) != 1 {
		t.Fatalf("generic update produced %d views, want 1", len(r.views))
	}
}

func TestCreateGuardSuppressesDoubleSubmission(t *testing.T) {
	clock := clockwork.NewFakeClock()
	rec := New(Session{UserID: "alice"}, clock)
	rec.SetCreateGuard(5 * time.Second)

	if !rec.BeginCreate() {
		t.Fatal("first BeginCreate refused")
	}
	if rec.BeginCreate() {
		t.Fatal("second BeginCreate allowed while in flight")
	}
	rec.EndCreate()
	if rec.CreateInFlight() {
		t.Fatal("EndCreate did not clear the flag")
	}
	if !rec.BeginCreate() {
		t.Fatal("BeginCreate refused after EndCreate")
	}
	rec.EndCreate()
}

func TestCreateGuardExpiresAtCeiling(t *testing.T) {
	clock := clockwork.NewFakeClock()
	rec := New(Session{UserID: "alice"}, clock)
	rec.SetCreateGuard(5 * time.Second)

	if !rec.BeginCreate() {
		t.Fatal("BeginCreate refused")
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := clock.BlockUntilContext(ctx, 1); err != nil {
		t.Fatalf("guard timer never armed: %v", err)
	}
	clock.Advance(5 * time.Second)

	deadline := time.Now().Add(2 * time.Second)
	for rec.CreateInFlight() {
		if time.Now().After(deadline) {
			t.Fatal("guard did not clear after the ceiling")
		}
		time.Sleep(5 * time.Millisecond)
	}
}
