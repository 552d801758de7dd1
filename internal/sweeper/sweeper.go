// Package sweeper periodically closes auctions that nobody has read since
// their end time passed.
package sweeper

import (
	"context"
	"time"

	"produce-auction/utils"
)

// Sweeper is the part of the auction service the loop drives
type Sweeper interface {
	Sweep(ctx context.Context) (int, error)
}

// Runner calls Sweep on a fixed interval
type Runner struct {
	target   Sweeper
	interval time.Duration
}

// NewRunner creates a Runner. A non-positive interval defaults to 30s.
func NewRunner(target Sweeper, interval time.Duration) *Runner {
	if interval <= 0 {
		interval = 30 * time.Second
	}
	return &Runner{target: target, interval: interval}
}

// Run sweeps once immediately, then on every tick until ctx is done
func (r *Runner) Run(ctx context.Context) {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		r.sweep(ctx)

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

func (r *Runner) sweep(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}

	start := time.Now()
	n, err := r.target.Sweep(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return
		}
		utils.Error("sweep failed", map[string]any{
			"transitions": n,
			"error":       err.Error(),
		})
		return
	}
	if n > 0 {
		utils.Info("sweep closed auctions", map[string]any{
			"transitions": n,
			"took":        time.Since(start).String(),
		})
	}
}
