package bridge

import (
	"context"

	"wordduel/internal/room"
)

// ChanSource adapts an in-process change channel to the Source interface.
// The development authority hands out per-room channels, and tests feed
// notifications directly.
type ChanSource struct {
	changes <-chan room.Change
	cancel  func()
}

// NewChanSource wraps an existing change channel. cancel, when non-nil, runs
// on unsubscribe.
func NewChanSource(changes <-chan room.Change, cancel func()) *ChanSource {
	return &ChanSource{changes: changes, cancel: cancel}
}

func (s *ChanSource) Subscribe(ctx context.Context, roomID string) (Subscription, error) {
	return &chanSubscription{source: s, errs: make(chan error)}, nil
}

type chanSubscription struct {
	source *ChanSource
	errs   chan error
}

func (s *chanSubscription) Changes() <-chan room.Change { return s.source.changes }
func (s *chanSubscription) Err() <-chan error           { return s.errs }

func (s *chanSubscription) Unsubscribe() error {
	if s.source.cancel != nil {
		s.source.cancel()
	}
	return nil
}
