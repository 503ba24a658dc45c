package services

import "meridian/internal/matching/domain/entities"

const (
	baseRiskScore = 50

	youngDriverPenalty  = 15
	midCareerCredit     = 10
	lateCareerCredit    = 5
	seniorPenalty       = 10
	priorClaimsPenalty  = 15
	assetAgeThreshold   = 5
	assetAgeYearPenalty = 2
	assetAgePenaltyCap  = 20
	shortTenurePenalty  = 10
	mediumTenureCredit  = 5
	longTenureCredit    = 10
)

// RiskScore derives a 0-100 underwriting risk score from application
// attributes. Pure function; adjustments are additive on a base of 50.
func RiskScore(app entities.Application) int {
	score := baseRiskScore

	switch app.AgeBand() {
	case entities.AgeBandUnder25:
		score += youngDriverPenalty
	case entities.AgeBand25To44:
		score -= midCareerCredit
	case entities.AgeBand45To64:
		score -= lateCareerCredit
	case entities.AgeBand65Plus:
		score += seniorPenalty
	}

	if app.PriorClaims {
		score += priorClaimsPenalty
	}

	if app.AssetAge > assetAgeThreshold {
		penalty := (app.AssetAge - assetAgeThreshold) * assetAgeYearPenalty
		if penalty > assetAgePenaltyCap {
			penalty = assetAgePenaltyCap
		}
		score += penalty
	}

	switch {
	case app.TenureYears < 2:
		score += shortTenurePenalty
	case app.TenureYears >= 10:
		score -= longTenureCredit
	case app.TenureYears >= 5:
		score -= mediumTenureCredit
	}

	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}

// RiskLevelFor buckets a risk score: 0-30 low, 31-70 medium, 71-100 high.
func RiskLevelFor(score int) entities.RiskLevel {
	switch {
	case score <= 30:
		return entities.RiskLevelLow
	case score <= 70:
		return entities.RiskLevelMedium
	default:
		return entities.RiskLevelHigh
	}
}
