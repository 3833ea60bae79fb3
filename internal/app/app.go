// Package app assembles the client: configuration, logging, clock, gateway,
// bridge and reconciler live on one explicit App value constructed at
// startup and passed to whoever needs it. Nothing in this repository holds
// state in package globals.
package app

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"

	"wordduel/internal/bridge"
	"wordduel/internal/config"
	"wordduel/internal/gameclient"
	"wordduel/internal/reconcile"
	"wordduel/internal/validate"
)

// App is the explicit application context.
type App struct {
	Cfg        *config.Config
	Clock      clockwork.Clock
	Client     *gameclient.Client
	Reconciler *reconcile.Reconciler

	source bridge.Source
	bridge *bridge.Bridge
}

// New wires the client together. The user identity is minted once per run,
// standing in for the anonymous-auth identity the real backend assigns.
func New(cfg *config.Config) (*App, error) {
	clock := clockwork.NewRealClock()
	session := reconcile.Session{UserID: uuid.NewString()}

	clientCfg := gameclient.DefaultConfig(cfg.Server.URL)
	clientCfg.Timeout = time.Duration(cfg.Client.TimeoutSec) * time.Second
	clientCfg.MaxAttempts = cfg.Client.MaxAttempts
	clientCfg.RetryDelay = time.Duration(cfg.Client.RetryDelayMS) * time.Millisecond

	rec := reconcile.New(session, clock)
	rec.SetCreateGuard(time.Duration(cfg.Client.CreateGuardSec) * time.Second)

	source, err := buildSource(cfg)
	if err != nil {
		return nil, err
	}

	return &App{
		Cfg:        cfg,
		Clock:      clock,
		Client:     gameclient.New(clientCfg, session.UserID, clock),
		Reconciler: rec,
		source:     source,
	}, nil
}

func buildSource(cfg *config.Config) (bridge.Source, error) {
	switch cfg.Realtime.Mode {
	case "nats":
		return bridge.ConnectNATS(cfg.Realtime.NATSURL)
	case "websocket", "":
		wsURL := strings.Replace(cfg.Server.URL, "http", "ws", 1)
		return bridge.NewWebsocketSource(wsURL), nil
	default:
		return nil, fmt.Errorf("unknown realtime mode %q", cfg.Realtime.Mode)
	}
}

// WatchRoom binds the session to roomID, fetches the initial snapshot, and
// pumps bridge events into the reconciler until ctx ends or the
// subscription breaks.
func (a *App) WatchRoom(ctx context.Context, roomID string) error {
	if err := validate.RoomID(roomID); err != nil {
		return err
	}
	a.Reconciler.BindRoom(roomID)

	b := bridge.New(a.source, roomID)
	if err := b.Start(ctx); err != nil {
		return err
	}
	a.bridge = b

	// The initial fetch and the subscription race each other; the reconciler
	// is idempotent either way.
	snap, err := a.Client.GetGameState(ctx, roomID)
	if err != nil {
		b.Stop()
		return fmt.Errorf("fetch initial state: %w", err)
	}
	a.Reconciler.Apply(snap)

	go func() {
		for ev := range b.Events() {
			a.Reconciler.HandleEvent(ev)
		}
		log.Debug().Str("room_id", roomID).Msg("bridge event stream ended")
	}()
	return nil
}

// Shutdown tears down the active subscription.
func (a *App) Shutdown() {
	if a.bridge != nil {
		a.bridge.Stop()
		a.bridge = nil
	}
}

// RoomIDFromLink extracts a room identifier from either a bare id or a
// shared game URL carrying it as the room query parameter.
func RoomIDFromLink(link string) (string, error) {
	candidate := strings.TrimSpace(link)
	if u, err := url.Parse(candidate); err == nil {
		if fromQuery := u.Query().Get("room"); fromQuery != "" {
			candidate = fromQuery
		}
	}
	if err := validate.RoomID(candidate); err != nil {
		return "", err
	}
	return candidate, nil
}
