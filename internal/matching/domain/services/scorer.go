package services

import (
	"github.com/shopspring/decimal"

	"meridian/internal/matching/domain/entities"
)

var (
	coverageWeight = decimal.NewFromInt(40)
	categoryWeight = decimal.NewFromInt(30)
	historyWeight  = decimal.NewFromInt(20)
	riskWeight     = decimal.NewFromInt(10)
)

type MatchBand string

const (
	MatchBandHigh   MatchBand = "high"
	MatchBandMedium MatchBand = "medium"
	MatchBandLow    MatchBand = "low"
)

// MatchResult is the weighted compatibility score between an application and
// one company, plus the criteria record shown to users and auditors.
type MatchResult struct {
	Score    decimal.Decimal
	Criteria entities.MatchCriteria
}

// ScoreMatch computes the weighted sum: 40 for coverage acceptance, 30 for
// category acceptance, up to 20 from historical quote acceptance, 10 for risk
// appetite. Geography, sum-insured and age-band compatibility are recorded in
// the criteria but deliberately do not move the number.
func ScoreMatch(
	app entities.Application,
	company entities.CompanyProfile,
	riskLevel entities.RiskLevel,
) MatchResult {
	rate := company.QuoteAcceptanceRate(app.Category)

	criteria := entities.MatchCriteria{
		CoverageMatch:     company.AcceptsCoverage(app.CoverageType),
		CategoryMatch:     company.AcceptsCategory(app.Category),
		RiskAppetiteMatch: company.AcceptsRisk(riskLevel),
		HistoryMatch:      rate > 0,
		GeographyMatch:    app.GeographyClass == "" || company.AcceptsGeography(app.GeographyClass),
		SumInsuredMatch:   company.AcceptsSumInsured(app.SumInsured),
		AgeBandMatch:      company.AcceptsAgeBand(app.AgeBand()),
	}

	score := decimal.Zero
	if criteria.CoverageMatch {
		score = score.Add(coverageWeight)
	}
	if criteria.CategoryMatch {
		score = score.Add(categoryWeight)
	}
	score = score.Add(historyWeight.Mul(decimal.NewFromFloat(rate)))
	if criteria.RiskAppetiteMatch {
		score = score.Add(riskWeight)
	}

	return MatchResult{
		Score:    score.Round(2),
		Criteria: criteria,
	}
}

// MatchBandFor buckets a score for downstream prioritization only: >=70 high,
// 40-69 medium, below 40 low.
func MatchBandFor(score decimal.Decimal) MatchBand {
	switch {
	case score.GreaterThanOrEqual(decimal.NewFromInt(70)):
		return MatchBandHigh
	case score.GreaterThanOrEqual(decimal.NewFromInt(40)):
		return MatchBandMedium
	default:
		return MatchBandLow
	}
}
