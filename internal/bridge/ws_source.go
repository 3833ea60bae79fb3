package bridge

import (
	"context"
	"fmt"
	"net/url"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"wordduel/internal/room"
)

// WebsocketSource dials the authority's realtime feed and reads one change
// notification per message.
type WebsocketSource struct {
	baseURL string
	dialer  *websocket.Dialer
}

// NewWebsocketSource builds a source for the authority at baseURL
// (ws://host:port or wss://...).
func NewWebsocketSource(baseURL string) *WebsocketSource {
	return &WebsocketSource{baseURL: baseURL, dialer: websocket.DefaultDialer}
}

func (s *WebsocketSource) Subscribe(ctx context.Context, roomID string) (Subscription, error) {
	endpoint := fmt.Sprintf("%s/realtime?room=%s", s.baseURL, url.QueryEscape(roomID))
	conn, _, err := s.dialer.DialContext(ctx, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("dial realtime feed: %w", err)
	}

	sub := &wsSubscription{
		conn:    conn,
		changes: make(chan room.Change, 32),
		errs:    make(chan error, 1),
	}
	go sub.readLoop(ctx, roomID)
	return sub, nil
}

type wsSubscription struct {
	conn    *websocket.Conn
	changes chan room.Change
	errs    chan error
}

func (s *wsSubscription) Changes() <-chan room.Change { return s.changes }
func (s *wsSubscription) Err() <-chan error           { return s.errs }

func (s *wsSubscription) Unsubscribe() error {
	return s.conn.Close()
}

func (s *wsSubscription) readLoop(ctx context.Context, roomID string) {
	defer close(s.changes)
	for {
		_, data, err := s.conn.ReadMessage()
		if err != nil {
			if ctx.Err() == nil && !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				select {
				case s.errs <- fmt.Errorf("realtime feed closed: %w", err):
				default:
				}
			}
			return
		}
		ch, err := room.DecodeChange(data)
		if err != nil {
			log.Warn().Err(err).Str("room_id", roomID).Msg("dropping malformed realtime message")
			continue
		}
		select {
		case s.changes <- *ch:
		case <-ctx.Done():
			return
		}
	}
}
