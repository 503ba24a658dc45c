package entities

import (
	"time"

	"github.com/shopspring/decimal"
)

type DistributionStatus string

const (
	DistributionStatusPending DistributionStatus = "pending"
	DistributionStatusViewed  DistributionStatus = "viewed"
	DistributionStatusQuoted  DistributionStatus = "quoted"
	DistributionStatusIgnored DistributionStatus = "ignored"
	DistributionStatusExpired DistributionStatus = "expired"
)

type DistributionMethod string

const (
	DistributionMethodAutomatic DistributionMethod = "automatic"
	DistributionMethodManual    DistributionMethod = "manual"
	DistributionMethodBroadcast DistributionMethod = "broadcast"
)

// MatchCriteria records which sub-checks matched at scoring time. Geography,
// sum-insured and age-band compatibility are informational only and do not
// contribute to the numeric score.
type MatchCriteria struct {
	CoverageMatch     bool `json:"coverage_match"`
	CategoryMatch     bool `json:"category_match"`
	RiskAppetiteMatch bool `json:"risk_appetite_match"`
	HistoryMatch      bool `json:"history_match"`
	GeographyMatch    bool `json:"geography_match"`
	SumInsuredMatch   bool `json:"sum_insured_match"`
	AgeBandMatch      bool `json:"age_band_match"`
}

// Distribution is one assignment of an application to a company. It is
// created once per (application, company) pair and only ever transitioned,
// never deleted. Interaction timestamps are append-only.
type Distribution struct {
	ID            string
	ApplicationID string
	CompanyID     string
	Status        DistributionStatus
	Method        DistributionMethod
	MatchScore    decimal.Decimal
	Criteria      MatchCriteria
	DistributedBy string
	CreatedAt     time.Time
	ExpiresAt     time.Time
	ViewedAt      *time.Time
	QuotedAt      *time.Time
	IgnoredAt     *time.Time
	ExpiredAt     *time.Time
	IgnoreReason  string
	UpdatedAt     time.Time
}

// allowedTransitions is the single source of truth for the lifecycle.
// Quoted, ignored and expired are terminal for this engine; a quote object
// may still evolve afterwards in the quoting subsystem.
var allowedTransitions = map[DistributionStatus][]DistributionStatus{
	DistributionStatusPending: {
		DistributionStatusViewed,
		DistributionStatusQuoted,
		DistributionStatusIgnored,
		DistributionStatusExpired,
	},
	DistributionStatusViewed: {
		DistributionStatusQuoted,
		DistributionStatusIgnored,
		DistributionStatusExpired,
	},
}

func (d Distribution) IsTerminal() bool {
	switch d.Status {
	case DistributionStatusQuoted, DistributionStatusIgnored, DistributionStatusExpired:
		return true
	default:
		return false
	}
}

func (d Distribution) CanTransition(target DistributionStatus) bool {
	for _, allowed := range allowedTransitions[d.Status] {
		if allowed == target {
			return true
		}
	}
	return false
}

// ResponseTime is viewed_at - created_at. The second return reports whether
// the distribution has been viewed at all.
func (d Distribution) ResponseTime() (time.Duration, bool) {
	if d.ViewedAt == nil {
		return 0, false
	}
	return d.ViewedAt.Sub(d.CreatedAt), true
}

// TimeToQuote is quoted_at - created_at.
func (d Distribution) TimeToQuote() (time.Duration, bool) {
	if d.QuotedAt == nil {
		return 0, false
	}
	return d.QuotedAt.Sub(d.CreatedAt), true
}

// DeadlineApproaching reports whether two days or less remain before the
// deadline of a still-active distribution.
func (d Distribution) DeadlineApproaching(now time.Time) bool {
	if d.IsTerminal() {
		return false
	}
	remaining := d.ExpiresAt.Sub(now)
	return remaining > 0 && remaining <= 48*time.Hour
}

// DeadlineExpired reports whether the deadline has passed, regardless of the
// persisted status. The expiry sweep uses this to find work.
func (d Distribution) DeadlineExpired(now time.Time) bool {
	return now.After(d.ExpiresAt)
}
