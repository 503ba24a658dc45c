package http

type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type DistributeRequest struct {
	Method           string   `json:"method,omitempty"`
	DistributedBy    string   `json:"distributed_by,omitempty"`
	ExcludeCompanies []string `json:"exclude_companies,omitempty"`
	IncludeCompanies []string `json:"include_companies,omitempty"`
	MaxCompanies     int      `json:"max_companies,omitempty"`
}

type IgnoreRequest struct {
	Reason string `json:"reason,omitempty"`
}

type MatchCriteriaDTO struct {
	CoverageMatch     bool `json:"coverage_match"`
	CategoryMatch     bool `json:"category_match"`
	RateHistoryMatch  bool `json:"rate_history_match"`
	RiskAppetiteMatch bool `json:"risk_appetite_match"`
	GeographyMatch    bool `json:"geography_match"`
	SumInsuredMatch   bool `json:"sum_insured_match"`
	AgeBandMatch      bool `json:"age_band_match"`
}

type DistributionDTO struct {
	ID                  string           `json:"id"`
	ApplicationID       string           `json:"application_id"`
	CompanyID           string           `json:"company_id"`
	Status              string           `json:"status"`
	Method              string           `json:"method"`
	MatchScore          string           `json:"match_score"`
	MatchBand           string           `json:"match_band"`
	Criteria            MatchCriteriaDTO `json:"match_criteria"`
	DistributedBy       string           `json:"distributed_by,omitempty"`
	CreatedAt           string           `json:"created_at"`
	ExpiresAt           string           `json:"expires_at"`
	ViewedAt            string           `json:"viewed_at,omitempty"`
	QuotedAt            string           `json:"quoted_at,omitempty"`
	IgnoredAt           string           `json:"ignored_at,omitempty"`
	ExpiredAt           string           `json:"expired_at,omitempty"`
	IgnoreReason        string           `json:"ignore_reason,omitempty"`
	DeadlineApproaching bool             `json:"deadline_approaching"`
}

type DistributeResponse struct {
	ApplicationID  string            `json:"application_id"`
	CompaniesCount int               `json:"companies_count"`
	Distributions  []DistributionDTO `json:"distributions"`
}

type ListDistributionsResponse struct {
	ApplicationID string            `json:"application_id"`
	Distributions []DistributionDTO `json:"distributions"`
}

type CompanyDistributionsResponse struct {
	CompanyID     string            `json:"company_id"`
	Distributions []DistributionDTO `json:"distributions"`
}

type CompanyPerformanceDTO struct {
	CompanyID          string  `json:"company_id"`
	Distributed        int64   `json:"distributed"`
	Viewed             int64   `json:"viewed"`
	Quoted             int64   `json:"quoted"`
	Ignored            int64   `json:"ignored"`
	Expired            int64   `json:"expired"`
	QuoteRate          float64 `json:"quote_rate"`
	AvgResponseSeconds float64 `json:"avg_response_seconds"`
}

type PerformanceReportResponse struct {
	CompanyID             string                  `json:"company_id,omitempty"`
	From                  string                  `json:"from,omitempty"`
	To                    string                  `json:"to,omitempty"`
	Distributed           int64                   `json:"distributed"`
	Viewed                int64                   `json:"viewed"`
	Quoted                int64                   `json:"quoted"`
	Ignored               int64                   `json:"ignored"`
	Expired               int64                   `json:"expired"`
	ViewRate              float64                 `json:"view_rate"`
	QuoteRate             float64                 `json:"quote_rate"`
	AvgResponseSeconds    float64                 `json:"avg_response_seconds"`
	AvgTimeToQuoteSeconds float64                 `json:"avg_time_to_quote_seconds"`
	TopCompanies          []CompanyPerformanceDTO `json:"top_companies"`
}
