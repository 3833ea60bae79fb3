package gameclient

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"wordduel/internal/apperr"
)

// withRetry runs fn, retrying only Transient failures up to the configured
// ceiling with linearly increasing backoff (delay x attempt number). Domain
// rejections and invalid input return on the first occurrence: retrying a
// "not your turn" would only waste the user's time, while retried reveals are
// naturally rejected server-side as benign domain errors if already applied.
func (c *Client) withRetry(ctx context.Context, op string, fn func(context.Context) error) error {
	var err error
	for attempt := 1; attempt <= c.cfg.MaxAttempts; attempt++ {
		err = fn(ctx)
		if err == nil || !apperr.Retryable(err) {
			return err
		}
		if attempt == c.cfg.MaxAttempts {
			break
		}
		delay := c.cfg.RetryDelay * time.Duration(attempt)
		log.Warn().
			Str("op", op).
			Int("attempt", attempt).
			Dur("delay", delay).
			Err(err).
			Msg("transient failure, retrying")
		select {
		case <-c.clock.After(delay):
		case <-ctx.Done():
			return apperr.Transient(apperr.ReasonTimeout, "retry wait interrupted", ctx.Err())
		}
	}
	log.Error().
		Str("op", op).
		Int("attempts", c.cfg.MaxAttempts).
		Err(err).
		Msg("transient failure exhausted retries")
	return err
}
