package gormdb

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"pantry/infrastructure/messaging"
	"pantry/infrastructure/persistence/gormdb/po"
	"pantry/pkg/logger"
	"pantry/pkg/metrics"
)

// stuckAfter is how long a PROCESSING event may sit before it is requeued.
const stuckAfter = 5 * time.Minute

// RelayOptions tune the outbox polling loop. All fields must be positive.
type RelayOptions struct {
	PollInterval time.Duration
	BatchSize    int
	MaxRetries   int
}

func (o RelayOptions) validate() error {
	switch {
	case o.PollInterval <= 0:
		return errors.New("outbox: poll interval must be positive")
	case o.BatchSize <= 0:
		return errors.New("outbox: batch size must be positive")
	case o.MaxRetries <= 0:
		return errors.New("outbox: max retries must be positive")
	}
	return nil
}

// OutboxWorker relays committed events to the broker. Delivery is at least
// once: consumers deduplicate by event id.
type OutboxWorker struct {
	outbox    *OutboxRepository
	publisher messaging.Publisher
	recorder  metrics.Recorder
	opts      RelayOptions
}

func NewOutboxWorker(outbox *OutboxRepository, publisher messaging.Publisher, recorder metrics.Recorder, opts RelayOptions) (*OutboxWorker, error) {
	if outbox == nil {
		return nil, errors.New("outbox: repository is required")
	}
	if publisher == nil {
		return nil, errors.New("outbox: publisher is required")
	}
	if err := opts.validate(); err != nil {
		return nil, err
	}
	if recorder == nil {
		recorder = metrics.Nop{}
	}
	return &OutboxWorker{outbox: outbox, publisher: publisher, recorder: recorder, opts: opts}, nil
}

// Run requeues events a crashed worker left behind, then polls until ctx is
// cancelled.
func (w *OutboxWorker) Run(ctx context.Context) error {
	switch n, err := w.outbox.RequeueStuck(ctx, time.Now().Add(-stuckAfter)); {
	case err != nil:
		logger.Error("Requeue of stuck outbox events failed", zap.Error(err))
	case n > 0:
		logger.Warn("Requeued stuck outbox events", zap.Int64("count", n))
	}

	ticker := time.NewTicker(w.opts.PollInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
		if _, err := w.ProcessBatch(ctx); err != nil {
			logger.Error("Outbox batch failed", zap.Error(err))
		}
	}
}

// ProcessBatch relays one batch and returns how many events were published.
func (w *OutboxWorker) ProcessBatch(ctx context.Context) (int, error) {
	batch, err := w.outbox.GetPendingEvents(ctx, w.opts.BatchSize)
	if err != nil {
		return 0, err
	}

	published := 0
	for _, ev := range batch {
		if w.relay(ctx, ev) {
			published++
		}
	}
	return published, nil
}

// relay claims ev, publishes it and records the outcome. A lost claim means
// another worker owns the event.
func (w *OutboxWorker) relay(ctx context.Context, ev *po.OutboxEventPO) bool {
	log := logger.With(zap.String("event_id", ev.ID), zap.String("event_type", ev.EventType))

	if err := w.outbox.MarkEventProcessing(ctx, ev.ID); err != nil {
		log.Debug("Outbox event claimed elsewhere", zap.Error(err))
		return false
	}

	err := w.publisher.Publish(ctx, messaging.Message{
		ID:         ev.ID,
		Key:        ev.AggregateID,
		Type:       ev.EventType,
		Value:      []byte(ev.Payload),
		OccurredAt: ev.OccurredAt,
	})
	if err != nil {
		w.recorder.RecordOutboxFailed(ev.EventType)
		log.Warn("Outbox publish failed", zap.Int("attempt", ev.RetryCount+1), zap.Error(err))
		if markErr := w.outbox.MarkEventFailed(ctx, ev.ID, w.opts.MaxRetries, err); markErr != nil {
			log.Error("Recording outbox failure failed", zap.Error(markErr))
		}
		return false
	}

	if err := w.outbox.MarkEventPublished(ctx, ev.ID); err != nil {
		// The broker has it; the row is retried and consumers dedupe.
		log.Error("Marking outbox event published failed", zap.Error(err))
		return false
	}
	w.recorder.RecordOutboxPublished(ev.EventType)
	return true
}
