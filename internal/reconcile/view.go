package reconcile

import "wordduel/internal/room"

// View is the complete set of derived facts the presentation layer consumes.
// Presentation components never look at raw snapshots.
type View struct {
	Room *room.Room

	// PlayerNumber is the local user's seat (1 or 2), 0 when unknown.
	PlayerNumber  int
	IsFirstPlayer bool

	IsMyTurn bool
	IsActive bool
	// BoardInteractive and InputEnabled are both IsMyTurn && IsActive; once
	// the game finishes they stay false forever.
	BoardInteractive bool
	InputEnabled     bool

	MyScore       int
	OpponentScore int
}

// NoticeType enumerates the one-shot notifications the reconciler emits.
type NoticeType string

const (
	// NoticeOpponentJoined fires at most once per room session, on the
	// absent-to-present transition of the second player, and only for the
	// first player.
	NoticeOpponentJoined NoticeType = "OpponentJoined"
	// NoticeGameFinished fires exactly once per finish transition, carrying
	// the final results.
	NoticeGameFinished NoticeType = "GameFinished"
)

// Notice is a one-shot notification.
type Notice struct {
	Type NoticeType
	Room *room.Room

	// Final results, populated for NoticeGameFinished.
	Winner  string
	Word    string
	WonByMe bool
}

func buildView(current *room.Room, userID string) View {
	v := View{Room: current}
	if current == nil {
		return v
	}
	v.PlayerNumber = current.PlayerNumber(userID)
	v.IsFirstPlayer = v.PlayerNumber == 1
	v.IsActive = current.Status == room.StatusActive
	// Turn ownership comes from identity, never seat order, so a client
	// resuming mid-game after reload lands correctly.
	v.IsMyTurn = v.PlayerNumber != 0 && current.CurrentPlayer == v.PlayerNumber
	v.BoardInteractive = v.IsMyTurn && v.IsActive
	v.InputEnabled = v.IsMyTurn && v.IsActive
	switch v.PlayerNumber {
	case 1:
		v.MyScore, v.OpponentScore = current.Player1Score, current.Player2Score
	case 2:
		v.MyScore, v.OpponentScore = current.Player2Score, current.Player1Score
	}
	return v
}
