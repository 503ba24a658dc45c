package services_test

import (
	"testing"

	"meridian/internal/matching/domain/entities"
	"meridian/internal/matching/domain/services"
)

func TestRiskScoreMidCareerCleanHistory(t *testing.T) {
	app := entities.Application{
		ApplicantAge: 30,
		TenureYears:  3,
	}
	if score := services.RiskScore(app); score != 40 {
		t.Fatalf("expected risk score 40, got %d", score)
	}
}

func TestRiskScoreYoungApplicantWithClaims(t *testing.T) {
	app := entities.Application{
		ApplicantAge: 22,
		PriorClaims:  true,
		AssetAge:     10,
		TenureYears:  1,
	}
	// 50 + 15 + 15 + 10 + 10 = 100
	if score := services.RiskScore(app); score != 100 {
		t.Fatalf("expected risk score 100, got %d", score)
	}
}

func TestRiskScoreClampsAtHundred(t *testing.T) {
	app := entities.Application{
		ApplicantAge: 70,
		PriorClaims:  true,
		AssetAge:     40,
		TenureYears:  0,
	}
	if score := services.RiskScore(app); score != 100 {
		t.Fatalf("expected clamped risk score 100, got %d", score)
	}
}

func TestRiskScoreAssetAgePenaltyCapped(t *testing.T) {
	base := entities.Application{ApplicantAge: 30, TenureYears: 3}
	old := base
	old.AssetAge = 16
	older := base
	older.AssetAge = 30
	if services.RiskScore(old) != services.RiskScore(older) {
		t.Fatalf("asset age penalty should cap: %d vs %d",
			services.RiskScore(old), services.RiskScore(older))
	}
}

func TestRiskScoreLongTenureCredit(t *testing.T) {
	app := entities.Application{
		ApplicantAge: 50,
		TenureYears:  12,
	}
	// 50 - 5 - 10 = 35
	if score := services.RiskScore(app); score != 35 {
		t.Fatalf("expected risk score 35, got %d", score)
	}
}

func TestRiskLevelBuckets(t *testing.T) {
	cases := []struct {
		score int
		want  entities.RiskLevel
	}{
		{0, entities.RiskLevelLow},
		{30, entities.RiskLevelLow},
		{31, entities.RiskLevelMedium},
		{70, entities.RiskLevelMedium},
		{71, entities.RiskLevelHigh},
		{100, entities.RiskLevelHigh},
	}
	for _, tc := range cases {
		if got := services.RiskLevelFor(tc.score); got != tc.want {
			t.Fatalf("score %d: expected %s, got %s", tc.score, tc.want, got)
		}
	}
}
