package ports

import (
	"context"
	"encoding/json"
	"time"

	"meridian/internal/matching/domain/entities"
)

type Repository interface {
	// CreateDistributions persists all rows in one transaction: either every
	// distribution is created or none are.
	CreateDistributions(ctx context.Context, distributions []entities.Distribution) error
	GetDistribution(ctx context.Context, distributionID string) (entities.Distribution, error)
	ListByApplication(ctx context.Context, applicationID string) ([]entities.Distribution, error)
	ListByCompany(ctx context.Context, companyID string, limit int) ([]entities.Distribution, error)
	// UpdateStatusIf writes the distribution's status and stamped timestamps
	// only when the stored status still equals expected. A miss reports
	// ErrStaleDistribution so callers can re-read and retry.
	UpdateStatusIf(ctx context.Context, distribution entities.Distribution, expected entities.DistributionStatus) error
	// ListExpirable returns non-terminal distributions whose deadline passed.
	ListExpirable(ctx context.Context, now time.Time, limit int) ([]entities.Distribution, error)
}

// ApplicationSource is the read-only application repository.
type ApplicationSource interface {
	GetApplication(ctx context.Context, applicationID string) (entities.Application, error)
}

// CompanyDirectory is the read-only preference store.
type CompanyDirectory interface {
	ListCompanies(ctx context.Context) ([]entities.CompanyProfile, error)
	GetCompany(ctx context.Context, companyID string) (entities.CompanyProfile, error)
}

// ReportScope bounds an analytics query to a period and, optionally, one
// company.
type ReportScope struct {
	CompanyID string
	From      time.Time
	To        time.Time
}

// AnalyticsLog is the durable event sink. Appends must be cheap; aggregate
// math happens in the query layer over ListEvents.
type AnalyticsLog interface {
	AppendEvent(ctx context.Context, event entities.AnalyticsEvent) error
	CountEvents(ctx context.Context, eventType entities.AnalyticsEventType, scope ReportScope) (int64, error)
	ListEvents(ctx context.Context, scope ReportScope) ([]entities.AnalyticsEvent, error)
}

// CapacityStore tracks per-company daily distribution counts. Reserve is
// atomic: it increments first and reports false (after compensating) once the
// limit would be exceeded, so concurrent distributions cannot overshoot.
type CapacityStore interface {
	Reserve(ctx context.Context, companyID string, day time.Time, limit int) (bool, error)
	Release(ctx context.Context, companyID string, day time.Time) error
}

type Clock interface {
	Now() time.Time
}

type IDGenerator interface {
	NewID(ctx context.Context) (string, error)
}

// EventEnvelope is the notification payload written to the outbox and relayed
// to the event bus.
type EventEnvelope struct {
	EventID          string          `json:"event_id"`
	EventType        string          `json:"event_type"`
	OccurredAt       time.Time       `json:"occurred_at"`
	SourceService    string          `json:"source_service"`
	TraceID          string          `json:"trace_id"`
	SchemaVersion    int             `json:"schema_version"`
	PartitionKeyPath string          `json:"partition_key_path"`
	PartitionKey     string          `json:"partition_key"`
	Data             json.RawMessage `json:"data"`
}

type OutboxMessage struct {
	OutboxID     string
	EventType    string
	PartitionKey string
	Payload      []byte
	CreatedAt    time.Time
}

type OutboxWriter interface {
	AppendOutbox(ctx context.Context, envelope EventEnvelope) error
}

type OutboxRepository interface {
	ListPendingOutbox(ctx context.Context, limit int) ([]OutboxMessage, error)
	MarkOutboxPublished(ctx context.Context, outboxID string, publishedAt time.Time) error
}

type EventPublisher interface {
	Publish(ctx context.Context, topic string, event EventEnvelope) error
}
