package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"wordduel/internal/authority"
)

const sweepInterval = 5 * time.Minute

func main() {
	if err := godotenv.Load(); err != nil {
		log.Debug().Err(err).Msg("no .env file loaded")
	}
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	addr := getEnv("AUTHORITY_ADDR", ":8080")
	clock := clockwork.NewRealClock()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, cleanup, err := buildStore(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("initialize store")
	}
	defer cleanup()

	auth := authority.New(store, clock, time.Now().UnixNano())

	if natsURL := os.Getenv("AUTHORITY_NATS_URL"); natsURL != "" {
		notifier, err := authority.NewNATSNotifier(natsURL)
		if err != nil {
			log.Fatal().Err(err).Msg("connect NATS notifier")
		}
		defer notifier.Close()
		auth.AddNotifier(notifier)
		log.Info().Str("url", natsURL).Msg("publishing changes to NATS")
	}

	go runSweeper(ctx, auth, clock)

	srv := &http.Server{
		Addr:    addr,
		Handler: authority.NewServer(auth).Handler(),
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("server shutdown")
		}
	}()

	log.Info().Str("addr", addr).Msg("game authority listening")
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatal().Err(err).Msg("server failed")
	}
}

func buildStore(ctx context.Context) (authority.Store, func(), error) {
	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		return authority.NewMemStore(), func() {}, nil
	}
	pg, err := authority.NewPGStore(ctx, dsn)
	if err != nil {
		return nil, nil, err
	}
	log.Info().Msg("using postgres room store")
	return pg, pg.Close, nil
}

func runSweeper(ctx context.Context, auth *authority.Authority, clock clockwork.Clock) {
	ticker := clock.NewTicker(sweepInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.Chan():
			if _, err := auth.SweepStale(ctx, time.Hour); err != nil {
				log.Error().Err(err).Msg("sweep stale rooms")
			}
		}
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
