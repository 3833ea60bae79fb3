package apperr

import (
	"errors"
	"fmt"
	"testing"
)

func TestClassificationSurvivesWrapping(t *testing.T) {
	base := Domain(ReasonNotYourTurn, "it is not your turn")
	wrapped := fmt.Errorf("reveal cell: %w", base)

	if KindOf(wrapped) != KindDomainRejection {
		t.Fatalf("kind lost through wrapping: %v", KindOf(wrapped))
	}
	if ReasonOf(wrapped) != ReasonNotYourTurn {
		t.Fatalf("reason lost through wrapping: %q", ReasonOf(wrapped))
	}
	if UserMessage(wrapped) != "it is not your turn" {
		t.Fatalf("user message = %q", UserMessage(wrapped))
	}
}

func TestOnlyTransientRetries(t *testing.T) {
	tests := []struct {
		err  error
		want bool
	}{
		{Transient(ReasonTimeout, "request timed out", nil), true},
		{Transient(ReasonNetwork, "connection refused", errors.New("dial tcp")), true},
		{Invalid("word too short"), false},
		{Domain(ReasonRoomFull, "room full"), false},
		{Unknown("something broke", nil), false},
		{errors.New("foreign error"), false},
	}
	for _, tt := range tests {
		if got := Retryable(tt.err); got != tt.want {
			t.Fatalf("Retryable(%v) = %v, want %v", tt.err, got, tt.want)
		}
	}
}

func TestIsMatchesByKindAndReason(t *testing.T) {
	err := Domain(ReasonAlreadyRevealed, "cell already open")

	if !errors.Is(err, &Error{ErrKind: KindDomainRejection}) {
		t.Fatal("kind-only sentinel should match")
	}
	if !errors.Is(err, &Error{ErrKind: KindDomainRejection, Reason: ReasonAlreadyRevealed}) {
		t.Fatal("kind+reason sentinel should match")
	}
	if errors.Is(err, &Error{ErrKind: KindDomainRejection, Reason: ReasonRoomFull}) {
		t.Fatal("different reason must not match")
	}
	if errors.Is(err, &Error{ErrKind: KindTransient}) {
		t.Fatal("different kind must not match")
	}
}

func TestUnknownPreservesCause(t *testing.T) {
	cause := errors.New("disk on fire")
	err := Unknown("save state", cause)
	if !errors.Is(err, cause) {
		t.Fatal("cause not reachable through Unwrap")
	}
}
