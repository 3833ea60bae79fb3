package authority

import (
	"context"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"

	"wordduel/internal/apperr"
	"wordduel/internal/bridge"
	"wordduel/internal/gameclient"
	"wordduel/internal/reconcile"
	"wordduel/internal/room"
)

func waitNotice(t *testing.T, ch <-chan reconcile.Notice, want reconcile.NoticeType) reconcile.Notice {
	t.Helper()
	deadline := time.After(3 * time.Second)
	for {
		select {
		case n := <-ch:
			if n.Type == want {
				return n
			}
		case <-deadline:
			t.Fatalf("timed out waiting for %s notice", want)
		}
	}
}

// TestFullDuelFlow drives a complete game through the real HTTP surface:
// alice creates and watches the room, bob joins and wins, and alice's
// reconciler tracks the whole thing from change notifications alone.
func TestFullDuelFlow(t *testing.T) {
	clock := clockwork.NewRealClock()
	auth := New(NewMemStore(), clock, 7)
	srv := httptest.NewServer(NewServer(auth).Handler())
	defer srv.Close()

	alice := gameclient.New(gameclient.DefaultConfig(srv.URL), "alice-id", clock)
	bob := gameclient.New(gameclient.DefaultConfig(srv.URL), "bob-id", clock)
	ctx := context.Background()

	created, err := alice.CreateGame(ctx, 6)
	if err != nil {
		t.Fatalf("CreateGame: %v", err)
	}
	if created.WordLength != 6 {
		t.Fatalf("word length = %d, want 6", created.WordLength)
	}
	roomID := created.RoomID

	// Alice's realtime pipeline: change feed -> bridge -> reconciler.
	changes, cancel := auth.Watch(roomID)
	b := bridge.New(bridge.NewChanSource(changes, cancel), roomID)
	rec := reconcile.New(reconcile.Session{UserID: "alice-id", RoomID: roomID}, clock)
	notices := make(chan reconcile.Notice, 8)
	rec.OnNotice(func(n reconcile.Notice) { notices <- n })
	if err := b.Start(ctx); err != nil {
		t.Fatalf("bridge start: %v", err)
	}
	defer b.Stop()
	go func() {
		for ev := range b.Events() {
			rec.HandleEvent(ev)
		}
	}()

	snap, err := alice.GetGameState(ctx, roomID)
	if err != nil {
		t.Fatalf("GetGameState: %v", err)
	}
	rec.Apply(snap)
	v := rec.View()
	if v.Room.Status != room.StatusWaiting || !v.IsFirstPlayer {
		t.Fatalf("creator's initial view wrong: %+v", v)
	}
	if v.BoardInteractive {
		t.Fatal("board interactive before the opponent joined")
	}

	join, err := bob.JoinGame(ctx, roomID)
	if err != nil {
		t.Fatalf("JoinGame: %v", err)
	}
	if !join.Success {
		t.Fatal("join reported failure")
	}
	waitNotice(t, notices, reconcile.NoticeOpponentJoined)
	v = rec.View()
	if !v.IsActive || !v.IsMyTurn || !v.BoardInteractive {
		t.Fatalf("creator's view after join wrong: %+v", v)
	}

	rev, err := alice.RevealCell(ctx, roomID, 2, 3)
	if err != nil {
		t.Fatalf("RevealCell: %v", err)
	}
	if !rev.Cell.Revealed || rev.RevealedCells != 1 {
		t.Fatalf("unexpected reveal result: %+v", rev)
	}

	// The same cell again, from the other player: a domain rejection that the
	// gateway must not retry.
	_, err = bob.RevealCell(ctx, roomID, 2, 3)
	if apperr.KindOf(err) != apperr.KindDomainRejection {
		t.Fatalf("re-reveal kind = %v, want domain rejection: %v", apperr.KindOf(err), err)
	}
	if apperr.ReasonOf(err) != apperr.ReasonAlreadyRevealed {
		t.Fatalf("re-reveal reason = %q", apperr.ReasonOf(err))
	}

	// Bob wins with the hidden word, read from the authority's own truth.
	guess, err := bob.ValidateGuess(ctx, roomID, hiddenWord(t, auth, roomID))
	if err != nil {
		t.Fatalf("ValidateGuess: %v", err)
	}
	if !guess.Correct || guess.Winner != "bob-id" || guess.Word == "" {
		t.Fatalf("unexpected guess result: %+v", guess)
	}

	n := waitNotice(t, notices, reconcile.NoticeGameFinished)
	if n.WonByMe {
		t.Fatal("alice reported as the winner of bob's game")
	}
	if n.Winner != "bob-id" || n.Word != guess.Word {
		t.Fatalf("finish notice carries wrong results: %+v", n)
	}

	v = rec.View()
	if v.Room.Status != room.StatusFinished {
		t.Fatalf("final status = %q, want finished", v.Room.Status)
	}
	if v.IsActive || v.BoardInteractive || v.InputEnabled {
		t.Fatalf("interactivity survived the finish: %+v", v)
	}
	if cell := v.Room.Board.At(2, 3); !cell.Revealed || cell.Letter == "" {
		t.Fatal("revealed cell lost along the pipeline")
	}
}
