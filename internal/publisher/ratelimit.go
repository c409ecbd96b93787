package publisher

import (
	"context"

	"golang.org/x/time/rate"

	"aprstoot/internal/config"
)

// RateLimitedPublisher paces status posts so a burst of replayed frames
// after a reconnect cannot trip the instance's API limits.
type RateLimitedPublisher struct {
	inner   Publisher
	limiter *rate.Limiter
}

func NewRateLimitedPublisher(inner Publisher, cfg config.RateLimitConfig) *RateLimitedPublisher {
	if !cfg.Enabled || cfg.RPS <= 0 {
		return &RateLimitedPublisher{inner: inner}
	}

	burst := cfg.Burst
	if burst < 1 {
		burst = 1
	}

	return &RateLimitedPublisher{
		inner:   inner,
		limiter: rate.NewLimiter(rate.Limit(cfg.RPS), burst),
	}
}

func (p *RateLimitedPublisher) Publish(ctx context.Context, status string) error {
	if p.limiter != nil {
		if err := p.limiter.Wait(ctx); err != nil {
			return err
		}
	}
	return p.inner.Publish(ctx, status)
}
