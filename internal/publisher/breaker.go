package publisher

import (
	"context"
	"fmt"

	"github.com/sony/gobreaker"

	"aprstoot/internal/config"
	"aprstoot/pkg/circuitbreaker"
)

// CircuitBreakerPublisher trips open after repeated publish failures so the
// pipeline stops burning its publish timeout on an instance that is down.
// Messages published while open are still recorded as processed; the ack
// path is unaffected.
type CircuitBreakerPublisher struct {
	inner Publisher
	cb    *circuitbreaker.Wrapper
}

func NewCircuitBreakerPublisher(inner Publisher, cfg config.CircuitBreakerConfig) *CircuitBreakerPublisher {
	if !cfg.Enabled {
		return &CircuitBreakerPublisher{inner: inner}
	}

	cbConfig := circuitbreaker.DefaultConfig("mastodon-publish")
	if cfg.MaxRequests > 0 {
		cbConfig.MaxRequests = cfg.MaxRequests
	}
	if cfg.Interval > 0 {
		cbConfig.Interval = cfg.Interval
	}
	if cfg.Timeout > 0 {
		cbConfig.Timeout = cfg.Timeout
	}
	if cfg.FailureRatio > 0 && cfg.MinRequests > 0 {
		cbConfig.ReadyToTrip = func(counts gobreaker.Counts) bool {
			if counts.Requests < cfg.MinRequests {
				return false
			}
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return failureRatio >= cfg.FailureRatio
		}
	}

	return &CircuitBreakerPublisher{
		inner: inner,
		cb:    circuitbreaker.NewWrapper(cbConfig),
	}
}

func (p *CircuitBreakerPublisher) Publish(ctx context.Context, status string) error {
	if p.cb == nil {
		return p.inner.Publish(ctx, status)
	}

	_, err := p.cb.ExecuteWithContext(ctx, func() (interface{}, error) {
		return nil, p.inner.Publish(ctx, status)
	})
	if err != nil {
		if p.cb.IsOpen() {
			return &PublishError{Err: fmt.Errorf("circuit breaker is open for mastodon-publish: %w", err)}
		}
		return err
	}
	return nil
}
