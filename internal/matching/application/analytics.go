package application

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"meridian/internal/matching/domain/entities"
	"meridian/internal/matching/ports"
)

// Recorder appends lifecycle events to the analytics log. Recording is
// fire-and-forget: a failed append is logged and swallowed so lifecycle
// correctness never depends on analytics durability.
type Recorder struct {
	Events ports.AnalyticsLog
	Clock  ports.Clock
	IDGen  ports.IDGenerator
	Logger *slog.Logger
}

func (r Recorder) Record(
	ctx context.Context,
	eventType entities.AnalyticsEventType,
	applicationID string,
	companyID string,
	distributionID string,
	payload map[string]any,
) {
	logger := ResolveLogger(r.Logger)
	if r.Events == nil {
		return
	}

	eventID, err := r.IDGen.NewID(ctx)
	if err != nil {
		logger.Error("analytics event id generation failed",
			"event", "analytics_record_id_generation_failed",
			"module", "matching-engine",
			"layer", "application",
			"event_type", string(eventType),
			"application_id", applicationID,
			"error", err.Error(),
		)
		return
	}

	var raw json.RawMessage
	if payload != nil {
		raw, err = json.Marshal(payload)
		if err != nil {
			logger.Error("analytics event payload marshal failed",
				"event", "analytics_record_marshal_failed",
				"module", "matching-engine",
				"layer", "application",
				"event_type", string(eventType),
				"application_id", applicationID,
				"error", err.Error(),
			)
			return
		}
	}

	event := entities.AnalyticsEvent{
		ID:             eventID,
		EventType:      eventType,
		ApplicationID:  applicationID,
		CompanyID:      companyID,
		DistributionID: distributionID,
		OccurredAt:     r.now(ctx),
		Payload:        raw,
	}
	if err := r.Events.AppendEvent(ctx, event); err != nil {
		logger.Error("analytics event append failed",
			"event", "analytics_record_append_failed",
			"module", "matching-engine",
			"layer", "application",
			"event_type", string(eventType),
			"application_id", applicationID,
			"distribution_id", distributionID,
			"error", err.Error(),
		)
	}
}

func (r Recorder) now(_ context.Context) time.Time {
	if r.Clock == nil {
		return time.Now().UTC()
	}
	return r.Clock.Now().UTC()
}
