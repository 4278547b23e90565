package cache

import (
	"context"
	"log/slog"
	"time"
)

// Cleaner removes expired entries
type Cleaner interface {
	CleanupExpired(ctx context.Context) (int64, error)
}

// RunJanitor purges expired entries every interval until ctx is cancelled
func RunJanitor(ctx context.Context, c Cleaner, interval time.Duration, logger *slog.Logger) {
	if interval <= 0 {
		return
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			removed, err := c.CleanupExpired(ctx)
			if err != nil {
				if ctx.Err() != nil {
					return
				}
				logger.Warn("cache cleanup failed", "error", err)
				continue
			}
			if removed > 0 {
				logger.Debug("cache cleanup", "removed", removed)
			}
		}
	}
}
