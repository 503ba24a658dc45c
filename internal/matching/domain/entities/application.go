package entities

import (
	"time"

	"github.com/shopspring/decimal"
)

type InsuranceType string

const (
	InsuranceTypeVehicle   InsuranceType = "vehicle"
	InsuranceTypeProperty  InsuranceType = "property"
	InsuranceTypeLiability InsuranceType = "liability"
	InsuranceTypeLife      InsuranceType = "life"
)

type RiskLevel string

const (
	RiskLevelLow    RiskLevel = "low"
	RiskLevelMedium RiskLevel = "medium"
	RiskLevelHigh   RiskLevel = "high"
)

type AgeBand string

const (
	AgeBandUnder25  AgeBand = "under_25"
	AgeBand25To44   AgeBand = "25_44"
	AgeBand45To64   AgeBand = "45_64"
	AgeBand65Plus   AgeBand = "65_plus"
)

func AgeBandFor(age int) AgeBand {
	switch {
	case age < 25:
		return AgeBandUnder25
	case age < 45:
		return AgeBand25To44
	case age < 65:
		return AgeBand45To64
	default:
		return AgeBand65Plus
	}
}

// Application is the submitted insurance request as read from the application
// store. The matching engine never mutates it.
type Application struct {
	ID             string
	InsuranceType  InsuranceType
	CoverageType   string
	Category       string
	SumInsured     decimal.Decimal
	ApplicantAge   int
	Location       string
	GeographyClass string // empty when no class could be determined upstream
	PriorClaims    bool
	AssetAge       int
	TenureYears    int
	SubmittedAt    time.Time
}

func (a Application) AgeBand() AgeBand {
	return AgeBandFor(a.ApplicantAge)
}
