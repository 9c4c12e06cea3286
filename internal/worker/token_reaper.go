package worker

// token_reaper.go
// Background goroutine that periodically deletes expired refresh tokens.

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
)

// TokenReaper is satisfied by service.AuthService.
type TokenReaper interface {
	ReapExpired(ctx context.Context) (int64, error)
}

// StartTokenReaper runs one pass immediately, then one per interval until
// ctx is cancelled.
func StartTokenReaper(ctx context.Context, reaper TokenReaper, interval time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		log.Info().Dur("interval", interval).Msg("token_reaper: started")
		reapOnce(ctx, reaper)

		for {
			select {
			case <-ctx.Done():
				log.Info().Msg("token_reaper: shutting down")
				return
			case <-ticker.C:
				reapOnce(ctx, reaper)
			}
		}
	}()
}

func reapOnce(ctx context.Context, reaper TokenReaper) {
	n, err := reaper.ReapExpired(ctx)
	if err != nil {
		log.Error().Err(err).Msg("token_reaper: reap failed")
		return
	}
	if n > 0 {
		log.Info().Int64("deleted", n).Msg("token_reaper: expired refresh tokens deleted")
	}
}
