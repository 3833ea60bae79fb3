package bridge

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog/log"

	"wordduel/internal/room"
)

// roomSubjectPrefix scopes notification subjects per room: rooms.<room_id>.
const roomSubjectPrefix = "rooms."

// NATSSource delivers change notifications over a NATS subject per room.
// Connection-level failures are routed to the affected subscriptions' error
// channels so the bridge can surface them instead of waiting on a silent
// reconnect loop forever.
type NATSSource struct {
	nc *nats.Conn

	mu   sync.Mutex
	errs map[*nats.Subscription]chan error
}

// ConnectNATS dials the NATS server with the reconnect behavior the rest of
// the system expects and returns a source over the connection.
func ConnectNATS(url string) (*NATSSource, error) {
	s := &NATSSource{errs: make(map[*nats.Subscription]chan error)}
	opts := []nats.Option{
		nats.MaxReconnects(-1),
		nats.DisconnectErrHandler(func(nc *nats.Conn, err error) {
			log.Error().Err(err).Msg("NATS disconnected")
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			log.Info().Str("url", nc.ConnectedUrl()).Msg("NATS reconnected")
		}),
		nats.ErrorHandler(func(nc *nats.Conn, sub *nats.Subscription, err error) {
			log.Error().Err(err).Msg("NATS error")
			s.dispatch(sub, err)
		}),
		nats.ClosedHandler(func(nc *nats.Conn) {
			s.dispatch(nil, errors.New("NATS connection closed"))
		}),
	}
	nc, err := nats.Connect(url, opts...)
	if err != nil {
		return nil, fmt.Errorf("connect to NATS: %w", err)
	}
	s.nc = nc
	return s, nil
}

// NewNATSSource wraps an existing connection, taking over its error and
// closed handlers.
func NewNATSSource(nc *nats.Conn) *NATSSource {
	s := &NATSSource{nc: nc, errs: make(map[*nats.Subscription]chan error)}
	nc.SetErrorHandler(func(nc *nats.Conn, sub *nats.Subscription, err error) {
		log.Error().Err(err).Msg("NATS error")
		s.dispatch(sub, err)
	})
	nc.SetClosedHandler(func(nc *nats.Conn) {
		s.dispatch(nil, errors.New("NATS connection closed"))
	})
	return s
}

// dispatch routes an async failure to its subscription's error channel, or to
// every subscription when the failure has no subscription (connection closed).
func (s *NATSSource) dispatch(sub *nats.Subscription, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for key, ch := range s.errs {
		if sub != nil && key != sub {
			continue
		}
		select {
		case ch <- err:
		default:
		}
	}
}

func (s *NATSSource) Subscribe(ctx context.Context, roomID string) (Subscription, error) {
	changes := make(chan room.Change, 32)
	errs := make(chan error, 1)
	sub, err := s.nc.Subscribe(roomSubjectPrefix+roomID, func(msg *nats.Msg) {
		ch, err := room.DecodeChange(msg.Data)
		if err != nil {
			// A malformed notification is dropped, not fatal: the next full
			// snapshot fetch reconverges.
			log.Warn().Err(err).Str("subject", msg.Subject).Msg("dropping malformed change notification")
			return
		}
		select {
		case changes <- *ch:
		case <-ctx.Done():
		}
	})
	if err != nil {
		return nil, fmt.Errorf("subscribe %s%s: %w", roomSubjectPrefix, roomID, err)
	}
	s.mu.Lock()
	s.errs[sub] = errs
	s.mu.Unlock()
	return &natsSubscription{source: s, sub: sub, changes: changes, errs: errs}, nil
}

// Close shuts the underlying connection down.
func (s *NATSSource) Close() {
	s.nc.Close()
}

type natsSubscription struct {
	source  *NATSSource
	sub     *nats.Subscription
	changes chan room.Change
	errs    chan error
}

func (s *natsSubscription) Changes() <-chan room.Change { return s.changes }
func (s *natsSubscription) Err() <-chan error           { return s.errs }

func (s *natsSubscription) Unsubscribe() error {
	s.source.mu.Lock()
	delete(s.source.errs, s.sub)
	s.source.mu.Unlock()
	return s.sub.Unsubscribe()
}
