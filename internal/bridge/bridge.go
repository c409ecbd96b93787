// Package bridge drives the delivery pipeline: feed line in, acknowledgment
// out, dedup check, publish. Frames are handled strictly in arrival order on
// a single goroutine.
package bridge

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"aprstoot/internal/aprs"
	"aprstoot/internal/config"
	"aprstoot/internal/constants"
	"aprstoot/internal/dedup"
	"aprstoot/internal/logger"
	"aprstoot/internal/publisher"
	"aprstoot/pkg/logging"
	"aprstoot/pkg/metrics"
	"aprstoot/pkg/retry"
)

// AckSender is the write side of the feed connection, satisfied by
// *aprs.Client.
type AckSender interface {
	WriteLine(line string) error
}

// Bridge owns the pipeline. The feed client is rebuilt per connection
// attempt; parser, dedup service and publisher live for the process.
type Bridge struct {
	cfg    *config.Config
	parser *aprs.Parser
	dedup  *dedup.Service
	pub    publisher.Publisher
	log    logger.Logger

	// visible to the health checker, written by the session goroutine
	client atomic.Pointer[aprs.Client]
}

func New(cfg *config.Config, dedupSvc *dedup.Service, pub publisher.Publisher, log logger.Logger) *Bridge {
	return &Bridge{
		cfg:    cfg,
		parser: aprs.NewParser(cfg.Feed.Station()),
		dedup:  dedupSvc,
		pub:    pub,
		log:    log,
	}
}

// ConnectionState exposes the current feed state for the health endpoint.
// It is called from the HTTP handler while the session goroutine swaps the
// client in and out.
func (b *Bridge) ConnectionState() aprs.State {
	client := b.client.Load()
	if client == nil {
		return aprs.StateDisconnected
	}
	return client.State()
}

// Run supervises the feed connection until the context is canceled. Each
// session is retried with exponential backoff; only explicitly fatal errors
// (storage failures) end the loop early.
func (b *Bridge) Run(ctx context.Context) error {
	policy := retry.Policy{
		InitialInterval: b.cfg.Reconnect.InitialInterval,
		MaxInterval:     b.cfg.Reconnect.MaxInterval,
		Multiplier:      b.cfg.Reconnect.Multiplier,
	}

	onRetry := func(err error, delay time.Duration) {
		metrics.ReconnectsTotal.Inc()
		b.log.WarnwCtx(ctx, "Feed session ended, reconnecting",
			"error", err,
			"retry_in", delay,
		)
	}

	err := retry.RetryForever(ctx, policy, func() error {
		return b.session(ctx)
	}, onRetry)

	if err != nil && ctx.Err() != nil {
		return ctx.Err()
	}
	return err
}

// session runs one connection lifetime: connect, stream, process. The
// returned error classifies the failure for the supervisor.
func (b *Bridge) session(ctx context.Context) error {
	sessionCtx := logging.WithSessionID(ctx, uuid.New().String())

	client := aprs.NewClient(b.cfg.Feed, b.log)
	if err := client.Connect(sessionCtx); err != nil {
		return err
	}
	b.client.Store(client)

	// Cancellation must interrupt a read blocked inside ReadLine, not wait
	// for the idle timeout. Closing the socket unblocks it.
	sessionDone := make(chan struct{})
	go func() {
		select {
		case <-sessionCtx.Done():
			client.Close()
		case <-sessionDone:
		}
	}()
	defer func() {
		close(sessionDone)
		client.Close()
		b.client.Store(nil)
	}()

	b.log.InfowCtx(sessionCtx, "Reading APRS-IS stream")

	for {
		if err := sessionCtx.Err(); err != nil {
			return err
		}

		line, err := client.ReadLine()
		if err != nil {
			return fmt.Errorf("feed read failed: %w", err)
		}

		if err := b.HandleLine(sessionCtx, line, client); err != nil {
			return err
		}
	}
}

// HandleLine runs one raw feed line through the pipeline. Only errors that
// must end the session are returned; everything frame-local is logged and
// absorbed.
func (b *Bridge) HandleLine(ctx context.Context, raw string, conn AckSender) error {
	// Keepalive noise, skipped before classification.
	if len(raw) <= constants.KeepaliveThreshold {
		metrics.FeedLinesTotal.WithLabelValues("keepalive").Inc()
		return nil
	}

	line := b.parser.Parse(raw)
	metrics.FeedLinesTotal.WithLabelValues(line.Kind.String()).Inc()

	switch line.Kind {
	case aprs.LineServerStatus:
		b.log.DebugwCtx(ctx, "Server message", "text", line.Status)
		return nil
	case aprs.LineNoMatch:
		return nil
	}

	return b.processFrame(ctx, line.Frame, conn)
}

func (b *Bridge) processFrame(ctx context.Context, frame aprs.Frame, conn AckSender) error {
	frameCtx := logging.WithCallsign(ctx, frame.Sender)

	// Acknowledge before anything else, and on every delivery including
	// duplicates: the sending station may have missed the previous ack.
	if frame.AckEligible() {
		ack := aprs.BuildAck(b.cfg.Feed.Station(), frame)
		if err := conn.WriteLine(ack); err != nil {
			return fmt.Errorf("ack send failed: %w", err)
		}
		metrics.AcksSentTotal.Inc()
		b.log.InfowCtx(frameCtx, "Sent ack", "msg_id", frame.AckID)
	}

	fingerprint := b.dedup.Fingerprint(frame.Sender, frame.Body, frame.AckID)

	seen, err := b.dedup.Seen(ctx, fingerprint)
	if err != nil {
		return err
	}
	if seen {
		b.log.DebugwCtx(frameCtx, "Duplicate message, already processed", "fingerprint", fingerprint)
		return nil
	}

	now := time.Now().UTC()
	id, err := b.dedup.MarkProcessed(ctx, frame.Sender, frame.Body, frame.AckID, fingerprint, now)
	if err != nil {
		return err
	}

	b.log.InfowCtx(frameCtx, "New message",
		"record_id", id,
		"message", frame.Body,
		"msg_id", frame.AckID,
	)

	// Publish failures are not retried: the record above already marks the
	// message as processed, re-publishing on replay would duplicate posts.
	status := fmt.Sprintf("%s: %s", frame.Sender, frame.Body)
	if err := b.pub.Publish(ctx, status); err != nil {
		metrics.PublishTotal.WithLabelValues("error").Inc()
		b.log.ErrorwCtx(frameCtx, "Publish failed, message recorded but not announced",
			"record_id", id,
			"error", err,
		)
		return nil
	}

	metrics.PublishTotal.WithLabelValues("ok").Inc()
	return nil
}
