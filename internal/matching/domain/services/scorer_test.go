package services_test

import (
	"testing"

	"github.com/shopspring/decimal"

	"meridian/internal/matching/domain/entities"
	"meridian/internal/matching/domain/services"
)

func mustDecimal(t *testing.T, raw string) decimal.Decimal {
	t.Helper()
	value, err := decimal.NewFromString(raw)
	if err != nil {
		t.Fatalf("parse decimal %q: %v", raw, err)
	}
	return value
}

func scoringCompany() entities.CompanyProfile {
	return entities.CompanyProfile{
		ID:            "company-1",
		Active:        true,
		Approved:      true,
		CoverageTypes: []string{"comprehensive"},
		Categories:    []string{"sedan"},
		RiskAppetite:  []entities.RiskLevel{entities.RiskLevelMedium},
		QuoteAcceptanceRates: map[string]float64{
			"sedan": 0.6,
		},
	}
}

func TestScoreMatchFullCompatibility(t *testing.T) {
	app := entities.Application{
		CoverageType: "comprehensive",
		Category:     "sedan",
	}
	result := services.ScoreMatch(app, scoringCompany(), entities.RiskLevelMedium)
	// 40 + 30 + 20*0.6 + 10 = 92
	if got := result.Score.StringFixed(2); got != "92.00" {
		t.Fatalf("expected score 92.00, got %s", got)
	}
	if !result.Criteria.CoverageMatch || !result.Criteria.CategoryMatch ||
		!result.Criteria.RiskAppetiteMatch || !result.Criteria.HistoryMatch {
		t.Fatalf("expected all scored criteria to match, got %+v", result.Criteria)
	}
}

func TestScoreMatchRiskAppetiteMiss(t *testing.T) {
	app := entities.Application{
		CoverageType: "comprehensive",
		Category:     "sedan",
	}
	result := services.ScoreMatch(app, scoringCompany(), entities.RiskLevelHigh)
	if got := result.Score.StringFixed(2); got != "82.00" {
		t.Fatalf("expected score 82.00, got %s", got)
	}
	if result.Criteria.RiskAppetiteMatch {
		t.Fatal("expected risk appetite criterion to miss")
	}
}

func TestScoreMatchNoHistoryNoCoverage(t *testing.T) {
	company := scoringCompany()
	company.QuoteAcceptanceRates = nil
	app := entities.Application{
		CoverageType: "third-party",
		Category:     "sedan",
	}
	result := services.ScoreMatch(app, company, entities.RiskLevelMedium)
	// 0 + 30 + 0 + 10 = 40
	if got := result.Score.StringFixed(2); got != "40.00" {
		t.Fatalf("expected score 40.00, got %s", got)
	}
	if result.Criteria.HistoryMatch {
		t.Fatal("expected history criterion to miss with no acceptance rate")
	}
}

func TestScoreMatchInformationalCriteriaDoNotMoveScore(t *testing.T) {
	app := entities.Application{
		CoverageType:   "comprehensive",
		Category:       "sedan",
		GeographyClass: "urban",
		ApplicantAge:   30,
	}
	restricted := scoringCompany()
	restricted.Geographies = []string{"rural"}

	open := services.ScoreMatch(app, scoringCompany(), entities.RiskLevelMedium)
	closed := services.ScoreMatch(app, restricted, entities.RiskLevelMedium)
	if !open.Score.Equal(closed.Score) {
		t.Fatalf("geography mismatch must not change score: %s vs %s",
			open.Score, closed.Score)
	}
	if closed.Criteria.GeographyMatch {
		t.Fatal("expected geography criterion recorded as miss")
	}
}

func TestMatchBandBuckets(t *testing.T) {
	cases := []struct {
		score string
		want  services.MatchBand
	}{
		{"92.00", services.MatchBandHigh},
		{"70.00", services.MatchBandHigh},
		{"69.99", services.MatchBandMedium},
		{"40.00", services.MatchBandMedium},
		{"39.99", services.MatchBandLow},
		{"0.00", services.MatchBandLow},
	}
	for _, tc := range cases {
		score := mustDecimal(t, tc.score)
		if got := services.MatchBandFor(score); got != tc.want {
			t.Fatalf("score %s: expected band %s, got %s", tc.score, tc.want, got)
		}
	}
}
