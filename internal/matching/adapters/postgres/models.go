package postgresadapter

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"meridian/internal/matching/domain/entities"
)

type distributionModel struct {
	ID            string          `gorm:"column:id;primaryKey"`
	ApplicationID string          `gorm:"column:application_id"`
	CompanyID     string          `gorm:"column:company_id"`
	Status        string          `gorm:"column:status"`
	Method        string          `gorm:"column:method"`
	MatchScore    decimal.Decimal `gorm:"column:match_score;type:numeric(5,2)"`
	Criteria      []byte          `gorm:"column:match_criteria;type:jsonb"`
	DistributedBy string          `gorm:"column:distributed_by"`
	CreatedAt     time.Time       `gorm:"column:created_at"`
	ExpiresAt     time.Time       `gorm:"column:expires_at"`
	ViewedAt      *time.Time      `gorm:"column:viewed_at"`
	QuotedAt      *time.Time      `gorm:"column:quoted_at"`
	IgnoredAt     *time.Time      `gorm:"column:ignored_at"`
	ExpiredAt     *time.Time      `gorm:"column:expired_at"`
	IgnoreReason  string          `gorm:"column:ignore_reason"`
	UpdatedAt     time.Time       `gorm:"column:updated_at"`
}

func (distributionModel) TableName() string {
	return "distributions"
}

func distributionModelFromEntity(dist entities.Distribution) (distributionModel, error) {
	criteria, err := json.Marshal(dist.Criteria)
	if err != nil {
		return distributionModel{}, err
	}
	return distributionModel{
		ID:            strings.TrimSpace(dist.ID),
		ApplicationID: strings.TrimSpace(dist.ApplicationID),
		CompanyID:     strings.TrimSpace(dist.CompanyID),
		Status:        string(dist.Status),
		Method:        string(dist.Method),
		MatchScore:    dist.MatchScore,
		Criteria:      criteria,
		DistributedBy: strings.TrimSpace(dist.DistributedBy),
		CreatedAt:     dist.CreatedAt.UTC(),
		ExpiresAt:     dist.ExpiresAt.UTC(),
		ViewedAt:      normalizeOptionalTime(dist.ViewedAt),
		QuotedAt:      normalizeOptionalTime(dist.QuotedAt),
		IgnoredAt:     normalizeOptionalTime(dist.IgnoredAt),
		ExpiredAt:     normalizeOptionalTime(dist.ExpiredAt),
		IgnoreReason:  strings.TrimSpace(dist.IgnoreReason),
		UpdatedAt:     dist.UpdatedAt.UTC(),
	}, nil
}

func (m distributionModel) toEntity() entities.Distribution {
	var criteria entities.MatchCriteria
	if len(m.Criteria) > 0 {
		_ = json.Unmarshal(m.Criteria, &criteria)
	}
	return entities.Distribution{
		ID:            m.ID,
		ApplicationID: m.ApplicationID,
		CompanyID:     m.CompanyID,
		Status:        entities.DistributionStatus(m.Status),
		Method:        entities.DistributionMethod(m.Method),
		MatchScore:    m.MatchScore,
		Criteria:      criteria,
		DistributedBy: m.DistributedBy,
		CreatedAt:     m.CreatedAt.UTC(),
		ExpiresAt:     m.ExpiresAt.UTC(),
		ViewedAt:      normalizeOptionalTime(m.ViewedAt),
		QuotedAt:      normalizeOptionalTime(m.QuotedAt),
		IgnoredAt:     normalizeOptionalTime(m.IgnoredAt),
		ExpiredAt:     normalizeOptionalTime(m.ExpiredAt),
		IgnoreReason:  m.IgnoreReason,
		UpdatedAt:     m.UpdatedAt.UTC(),
	}
}

type applicationModel struct {
	ID             string          `gorm:"column:id;primaryKey"`
	InsuranceType  string          `gorm:"column:insurance_type"`
	CoverageType   string          `gorm:"column:coverage_type"`
	Category       string          `gorm:"column:category"`
	SumInsured     decimal.Decimal `gorm:"column:sum_insured;type:numeric(14,2)"`
	ApplicantAge   int             `gorm:"column:applicant_age"`
	Location       string          `gorm:"column:location"`
	GeographyClass string          `gorm:"column:geography_class"`
	PriorClaims    bool            `gorm:"column:prior_claims"`
	AssetAge       int             `gorm:"column:asset_age"`
	TenureYears    int             `gorm:"column:tenure_years"`
	SubmittedAt    time.Time       `gorm:"column:submitted_at"`
}

func (applicationModel) TableName() string {
	return "applications"
}

func (m applicationModel) toEntity() entities.Application {
	return entities.Application{
		ID:             m.ID,
		InsuranceType:  entities.InsuranceType(m.InsuranceType),
		CoverageType:   m.CoverageType,
		Category:       m.Category,
		SumInsured:     m.SumInsured,
		ApplicantAge:   m.ApplicantAge,
		Location:       m.Location,
		GeographyClass: m.GeographyClass,
		PriorClaims:    m.PriorClaims,
		AssetAge:       m.AssetAge,
		TenureYears:    m.TenureYears,
		SubmittedAt:    m.SubmittedAt.UTC(),
	}
}

type companyProfileModel struct {
	ID               string    `gorm:"column:id;primaryKey"`
	Name             string    `gorm:"column:name"`
	Active           bool      `gorm:"column:active"`
	Approved         bool      `gorm:"column:approved"`
	CoverageTypes    []string  `gorm:"column:coverage_types;type:text[]"`
	Categories       []string  `gorm:"column:categories;type:text[]"`
	RiskAppetite     []string  `gorm:"column:risk_appetite;type:text[]"`
	SumInsuredRanges []byte    `gorm:"column:sum_insured_ranges;type:jsonb"`
	AgeBands         []string  `gorm:"column:age_bands;type:text[]"`
	Geographies      []string  `gorm:"column:geographies;type:text[]"`
	DailyCapacity    int       `gorm:"column:daily_capacity"`
	AcceptanceRates  []byte    `gorm:"column:quote_acceptance_rates;type:jsonb"`
	CreatedAt        time.Time `gorm:"column:created_at"`
}

func (companyProfileModel) TableName() string {
	return "company_profiles"
}

type sumInsuredRangeRow struct {
	Min decimal.Decimal `json:"min"`
	Max decimal.Decimal `json:"max"`
}

func (m companyProfileModel) toEntity() (entities.CompanyProfile, error) {
	var rangeRows []sumInsuredRangeRow
	if len(m.SumInsuredRanges) > 0 {
		if err := json.Unmarshal(m.SumInsuredRanges, &rangeRows); err != nil {
			return entities.CompanyProfile{}, err
		}
	}
	ranges := make([]entities.SumInsuredRange, 0, len(rangeRows))
	for _, row := range rangeRows {
		ranges = append(ranges, entities.SumInsuredRange{Min: row.Min, Max: row.Max})
	}

	rates := map[string]float64{}
	if len(m.AcceptanceRates) > 0 {
		if err := json.Unmarshal(m.AcceptanceRates, &rates); err != nil {
			return entities.CompanyProfile{}, err
		}
	}

	appetite := make([]entities.RiskLevel, 0, len(m.RiskAppetite))
	for _, band := range m.RiskAppetite {
		appetite = append(appetite, entities.RiskLevel(band))
	}
	ageBands := make([]entities.AgeBand, 0, len(m.AgeBands))
	for _, band := range m.AgeBands {
		ageBands = append(ageBands, entities.AgeBand(band))
	}

	return entities.CompanyProfile{
		ID:                   m.ID,
		Name:                 m.Name,
		Active:               m.Active,
		Approved:             m.Approved,
		CoverageTypes:        append([]string(nil), m.CoverageTypes...),
		Categories:           append([]string(nil), m.Categories...),
		RiskAppetite:         appetite,
		SumInsuredRanges:     ranges,
		AgeBands:             ageBands,
		Geographies:          append([]string(nil), m.Geographies...),
		DailyCapacity:        m.DailyCapacity,
		QuoteAcceptanceRates: rates,
	}, nil
}

type analyticsEventModel struct {
	ID             string    `gorm:"column:id;primaryKey"`
	EventType      string    `gorm:"column:event_type"`
	ApplicationID  string    `gorm:"column:application_id"`
	CompanyID      string    `gorm:"column:company_id"`
	DistributionID string    `gorm:"column:distribution_id"`
	OccurredAt     time.Time `gorm:"column:occurred_at"`
	Payload        []byte    `gorm:"column:payload;type:jsonb"`
}

func (analyticsEventModel) TableName() string {
	return "matching_analytics_events"
}

func (m analyticsEventModel) toEntity() entities.AnalyticsEvent {
	return entities.AnalyticsEvent{
		ID:             m.ID,
		EventType:      entities.AnalyticsEventType(m.EventType),
		ApplicationID:  m.ApplicationID,
		CompanyID:      m.CompanyID,
		DistributionID: m.DistributionID,
		OccurredAt:     m.OccurredAt.UTC(),
		Payload:        append(json.RawMessage(nil), m.Payload...),
	}
}

type outboxModel struct {
	OutboxID     string     `gorm:"column:outbox_id;primaryKey"`
	EventType    string     `gorm:"column:event_type"`
	PartitionKey string     `gorm:"column:partition_key"`
	Payload      []byte     `gorm:"column:payload"`
	Status       string     `gorm:"column:status"`
	CreatedAt    time.Time  `gorm:"column:created_at"`
	PublishedAt  *time.Time `gorm:"column:published_at"`
}

func (outboxModel) TableName() string {
	return "matching_outbox"
}

func normalizeOptionalTime(value *time.Time) *time.Time {
	if value == nil {
		return nil
	}
	t := value.UTC()
	return &t
}
