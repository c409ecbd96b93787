package dedup

import (
	"context"
	"time"

	"aprstoot/internal/logger"
	"aprstoot/pkg/metrics"
)

// Service ties the fingerprint function to the durable store.
type Service struct {
	repo   Repository
	hasher *Hasher
	log    logger.Logger
}

func NewService(repo Repository, hasher *Hasher, log logger.Logger) *Service {
	return &Service{
		repo:   repo,
		hasher: hasher,
		log:    log,
	}
}

// Fingerprint computes the content address of a frame's fields.
func (s *Service) Fingerprint(sender, body, ackID string) string {
	return s.hasher.Fingerprint(sender, body, ackID)
}

// Seen reports whether a fingerprint has been processed before.
func (s *Service) Seen(ctx context.Context, fingerprint string) (bool, error) {
	seen, err := s.repo.Has(ctx, fingerprint)
	if err != nil {
		metrics.DedupCheckTotal.WithLabelValues("error").Inc()
		return false, err
	}

	if seen {
		metrics.DedupCheckTotal.WithLabelValues("duplicate").Inc()
	} else {
		metrics.DedupCheckTotal.WithLabelValues("unique").Inc()
	}
	return seen, nil
}

// MarkProcessed appends the record for a newly seen frame.
func (s *Service) MarkProcessed(ctx context.Context, sender, body, ackID, fingerprint string, ts time.Time) (int64, error) {
	id, err := s.repo.Record(ctx, Message{
		Timestamp:   ts,
		Sender:      sender,
		Body:        body,
		AckID:       ackID,
		Fingerprint: fingerprint,
	})
	if err != nil {
		return 0, err
	}

	metrics.StoredMessages.Inc()
	return id, nil
}

// InitMetrics seeds the stored-messages gauge from the database at startup.
func (s *Service) InitMetrics(ctx context.Context) error {
	count, err := s.repo.Count(ctx)
	if err != nil {
		return err
	}
	metrics.StoredMessages.Set(float64(count))
	return nil
}
