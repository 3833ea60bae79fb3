// Package apperr defines the error taxonomy shared by the gateway, the
// reconciler and the UI. Every failure that crosses the gateway boundary is
// normalized into one of four kinds before anything else sees it:
//
//   - InvalidInput: detectable on the client, never sent, never retried.
//   - DomainRejection: a rule the authority enforced (not your turn, room
//     full, cell already revealed). Never retried, shown to the user as-is.
//   - Transient: network or timeout trouble. Retried with bounded backoff.
//   - Unknown: anything unclassified, with the original message preserved.
package apperr

import (
	"errors"
	"fmt"
)

// Kind classifies an error for retry and presentation decisions.
type Kind int

const (
	KindUnknown Kind = iota
	KindInvalidInput
	KindDomainRejection
	KindTransient
)

func (k Kind) String() string {
	switch k {
	case KindInvalidInput:
		return "invalid_input"
	case KindDomainRejection:
		return "domain_rejection"
	case KindTransient:
		return "transient"
	default:
		return "unknown"
	}
}

// Stable machine reason codes. The authority reports these in error bodies;
// the client mints the rest locally.
const (
	ReasonInvalidInput    = "invalid_input"
	ReasonRoomNotFound    = "room_not_found"
	ReasonRoomFull        = "room_full"
	ReasonAlreadyJoined   = "already_joined"
	ReasonNotYourTurn     = "not_your_turn"
	ReasonAlreadyRevealed = "already_revealed"
	ReasonGameNotActive   = "game_not_active"
	ReasonNetwork         = "network"
	ReasonTimeout         = "timeout"
	ReasonUnknown         = "unknown"
)

// Error is the one error type gateway operations return.
type Error struct {
	ErrKind Kind
	Reason  string
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s (%s): %s: %v", e.ErrKind, e.Reason, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s (%s): %s", e.ErrKind, e.Reason, e.Message)
}

func (e *Error) Unwrap() error { return e.Cause }

// Is lets callers match by kind sentinel, e.g. errors.Is(err, apperr.Transient()).
func (e *Error) Is(target error) bool {
	var ae *Error
	if !errors.As(target, &ae) {
		return false
	}
	if ae.ErrKind != e.ErrKind {
		return false
	}
	return ae.Reason == "" || ae.Reason == e.Reason
}

// Invalid reports client-detectable bad input.
func Invalid(message string) *Error {
	return &Error{ErrKind: KindInvalidInput, Reason: ReasonInvalidInput, Message: message}
}

// Invalidf is Invalid with formatting.
func Invalidf(format string, args ...any) *Error {
	return Invalid(fmt.Sprintf(format, args...))
}

// Domain reports an authority-enforced rule violation.
func Domain(reason, message string) *Error {
	return &Error{ErrKind: KindDomainRejection, Reason: reason, Message: message}
}

// Transient reports a retryable network-class failure.
func Transient(reason, message string, cause error) *Error {
	return &Error{ErrKind: KindTransient, Reason: reason, Message: message, Cause: cause}
}

// Unknown wraps an unclassified failure, preserving the original for diagnostics.
func Unknown(message string, cause error) *Error {
	return &Error{ErrKind: KindUnknown, Reason: ReasonUnknown, Message: message, Cause: cause}
}

// KindOf returns the kind of err, or KindUnknown for foreign errors.
func KindOf(err error) Kind {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.ErrKind
	}
	return KindUnknown
}

// ReasonOf returns the machine reason code of err, or ReasonUnknown.
func ReasonOf(err error) string {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Reason
	}
	return ReasonUnknown
}

// Retryable reports whether err may be retried. Only Transient qualifies:
// retrying a domain rejection would corrupt turn semantics, and invalid input
// stays invalid.
func Retryable(err error) bool {
	return KindOf(err) == KindTransient
}

// UserMessage returns the human-readable text to show for err.
func UserMessage(err error) string {
	var ae *Error
	if errors.As(err, &ae) && ae.Message != "" {
		return ae.Message
	}
	return err.Error()
}
