package workers

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	application "meridian/internal/matching/application"
	"meridian/internal/matching/ports"
)

const defaultNotificationTopic = "matching.notifications"

// OutboxRelay drains pending notification envelopes to the event bus.
// Delivery is fire-and-forget from the lifecycle's point of view: the rows
// were committed alongside state changes and the relay retries on its next
// cycle after any failure.
type OutboxRelay struct {
	Outbox    ports.OutboxRepository
	Publisher ports.EventPublisher
	Clock     ports.Clock
	Topic     string
	BatchSize int
	Logger    *slog.Logger
}

func (r OutboxRelay) RunOnce(ctx context.Context) error {
	logger := application.ResolveLogger(r.Logger)
	limit := r.BatchSize
	if limit <= 0 {
		limit = 100
	}
	topic := r.Topic
	if topic == "" {
		topic = defaultNotificationTopic
	}

	pending, err := r.Outbox.ListPendingOutbox(ctx, limit)
	if err != nil {
		logger.Error("outbox list pending failed",
			"event", "matching_outbox_list_failed",
			"module", "matching-engine",
			"layer", "worker",
			"error", err.Error(),
		)
		return err
	}

	now := time.Now().UTC()
	if r.Clock != nil {
		now = r.Clock.Now().UTC()
	}

	for _, message := range pending {
		var envelope ports.EventEnvelope
		if err := json.Unmarshal(message.Payload, &envelope); err != nil {
			logger.Error("outbox payload decode failed",
				"event", "matching_outbox_decode_failed",
				"module", "matching-engine",
				"layer", "worker",
				"outbox_id", message.OutboxID,
				"error", err.Error(),
			)
			return err
		}
		if err := r.Publisher.Publish(ctx, topic, envelope); err != nil {
			logger.Error("outbox publish failed",
				"event", "matching_outbox_publish_failed",
				"module", "matching-engine",
				"layer", "worker",
				"outbox_id", message.OutboxID,
				"event_type", envelope.EventType,
				"error", err.Error(),
			)
			return err
		}
		if err := r.Outbox.MarkOutboxPublished(ctx, message.OutboxID, now); err != nil {
			logger.Error("outbox mark published failed",
				"event", "matching_outbox_mark_published_failed",
				"module", "matching-engine",
				"layer", "worker",
				"outbox_id", message.OutboxID,
				"error", err.Error(),
			)
			return err
		}
	}

	if len(pending) > 0 {
		logger.Info("outbox relay cycle completed",
			"event", "matching_outbox_relay_completed",
			"module", "matching-engine",
			"layer", "worker",
			"sent_count", len(pending),
		)
	}
	return nil
}
