package network

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
)

// Backoff controls ConnectRetry delays
type Backoff struct {
	Initial time.Duration
	Max     time.Duration
}

// DefaultBackoff starts at one second and doubles up to thirty
func DefaultBackoff() Backoff {
	return Backoff{Initial: time.Second, Max: 30 * time.Second}
}

// next returns the delay after cur. A non-positive Initial uses the default.
func (b Backoff) next(cur time.Duration) time.Duration {
	if cur <= 0 {
		cur = b.Initial
		if cur <= 0 {
			cur = DefaultBackoff().Initial
		}
	} else {
		cur *= 2
	}
	if b.Max > 0 && cur > b.Max {
		cur = b.Max
	}
	return cur
}

// ConnectRetry connects in mode, retrying with exponential backoff until it
// succeeds or ctx is done. Each attempt uses fresh keys.
func (c *Client) ConnectRetry(ctx context.Context, addr string, mode Mode, b Backoff) error {
	var delay time.Duration
	for attempt := 1; ; attempt++ {
		err := c.connect(ctx, addr, mode)
		if err == nil || errors.Is(err, ErrAlreadyConnected) {
			return err
		}

		delay = b.next(delay)
		c.cfg.logger.Warn("Connect failed, retrying",
			zap.String("addr", addr),
			zap.Int("attempt", attempt),
			zap.Duration("backoff", delay),
			zap.Error(err))

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return errors.Join(err, ctx.Err())
		case <-timer.C:
		}
	}
}
