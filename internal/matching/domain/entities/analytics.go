package entities

import (
	"encoding/json"
	"time"
)

type AnalyticsEventType string

const (
	AnalyticsEventDistributed AnalyticsEventType = "distributed"
	AnalyticsEventViewed      AnalyticsEventType = "viewed"
	AnalyticsEventQuoted      AnalyticsEventType = "quoted"
	AnalyticsEventApproved    AnalyticsEventType = "approved"
	AnalyticsEventRejected    AnalyticsEventType = "rejected"
	AnalyticsEventAccepted    AnalyticsEventType = "accepted"
	AnalyticsEventIgnored     AnalyticsEventType = "ignored"
	AnalyticsEventExpired     AnalyticsEventType = "expired"
)

// AnalyticsEvent is an append-only log entry. Retention and cleanup are an
// external concern; this engine only ever appends and reads.
type AnalyticsEvent struct {
	ID             string
	EventType      AnalyticsEventType
	ApplicationID  string
	CompanyID      string
	DistributionID string
	OccurredAt     time.Time
	Payload        json.RawMessage
}
