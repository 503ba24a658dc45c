package entities

import "github.com/shopspring/decimal"

// SumInsuredRange is one acceptance bucket. A zero Max means no upper bound.
type SumInsuredRange struct {
	Min decimal.Decimal
	Max decimal.Decimal
}

func (r SumInsuredRange) Contains(value decimal.Decimal) bool {
	if value.LessThan(r.Min) {
		return false
	}
	if r.Max.IsZero() {
		return true
	}
	return value.LessThanOrEqual(r.Max)
}

// CompanyProfile is an insurer's structured acceptance preferences and
// capacity, as read from the preference store. Read-only to this engine.
type CompanyProfile struct {
	ID                   string
	Name                 string
	Active               bool
	Approved             bool
	CoverageTypes        []string
	Categories           []string
	RiskAppetite         []RiskLevel
	SumInsuredRanges     []SumInsuredRange
	AgeBands             []AgeBand
	Geographies          []string // empty means no geographic restriction
	DailyCapacity        int      // zero means unlimited
	QuoteAcceptanceRates map[string]float64
}

func (c CompanyProfile) AcceptsCoverage(coverageType string) bool {
	return containsString(c.CoverageTypes, coverageType)
}

func (c CompanyProfile) AcceptsCategory(category string) bool {
	return containsString(c.Categories, category)
}

func (c CompanyProfile) AcceptsRisk(level RiskLevel) bool {
	for _, band := range c.RiskAppetite {
		if band == level {
			return true
		}
	}
	return false
}

func (c CompanyProfile) AcceptsGeography(class string) bool {
	if len(c.Geographies) == 0 {
		return true
	}
	return containsString(c.Geographies, class)
}

func (c CompanyProfile) AcceptsSumInsured(value decimal.Decimal) bool {
	for _, bucket := range c.SumInsuredRanges {
		if bucket.Contains(value) {
			return true
		}
	}
	return false
}

func (c CompanyProfile) AcceptsAgeBand(band AgeBand) bool {
	for _, accepted := range c.AgeBands {
		if accepted == band {
			return true
		}
	}
	return false
}

// QuoteAcceptanceRate returns the company's historical quote acceptance rate
// for a category in [0,1]. Defaults to 0 when there is no history.
func (c CompanyProfile) QuoteAcceptanceRate(category string) float64 {
	rate, ok := c.QuoteAcceptanceRates[category]
	if !ok {
		return 0
	}
	if rate < 0 {
		return 0
	}
	if rate > 1 {
		return 1
	}
	return rate
}

func containsString(values []string, target string) bool {
	for _, value := range values {
		if value == target {
			return true
		}
	}
	return false
}
