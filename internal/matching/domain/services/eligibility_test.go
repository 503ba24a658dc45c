package services_test

import (
	"testing"

	"meridian/internal/matching/domain/entities"
	"meridian/internal/matching/domain/services"
)

func eligibleCompany(id string) entities.CompanyProfile {
	return entities.CompanyProfile{
		ID:            id,
		Active:        true,
		Approved:      true,
		CoverageTypes: []string{"comprehensive"},
		Categories:    []string{"sedan"},
	}
}

func sedanApplication() entities.Application {
	return entities.Application{
		ID:           "app-1",
		CoverageType: "comprehensive",
		Category:     "sedan",
	}
}

func TestEligibleCompaniesHardExclusions(t *testing.T) {
	inactive := eligibleCompany("inactive")
	inactive.Active = false

	unapproved := eligibleCompany("unapproved")
	unapproved.Approved = false

	wrongCoverage := eligibleCompany("wrong-coverage")
	wrongCoverage.CoverageTypes = []string{"third-party"}

	wrongCategory := eligibleCompany("wrong-category")
	wrongCategory.Categories = []string{"truck"}

	companies := []entities.CompanyProfile{
		inactive, unapproved, wrongCoverage, wrongCategory, eligibleCompany("keeper"),
	}

	result := services.EligibleCompanies(sedanApplication(), companies, nil, services.FilterOptions{})
	if len(result) != 1 || result[0].ID != "keeper" {
		t.Fatalf("expected only keeper to survive, got %d companies", len(result))
	}
}

func TestEligibleCompaniesGeographyRestriction(t *testing.T) {
	urban := eligibleCompany("urban-only")
	urban.Geographies = []string{"urban"}
	open := eligibleCompany("open")

	app := sedanApplication()
	app.GeographyClass = "rural"

	result := services.EligibleCompanies(app, []entities.CompanyProfile{urban, open}, nil, services.FilterOptions{})
	if len(result) != 1 || result[0].ID != "open" {
		t.Fatalf("expected geography-restricted company excluded, got %d companies", len(result))
	}

	// No geography class on the application skips the check entirely.
	app.GeographyClass = ""
	result = services.EligibleCompanies(app, []entities.CompanyProfile{urban, open}, nil, services.FilterOptions{})
	if len(result) != 2 {
		t.Fatalf("expected both companies without geography class, got %d", len(result))
	}
}

func TestEligibleCompaniesSkipsExistingAndExcluded(t *testing.T) {
	companies := []entities.CompanyProfile{
		eligibleCompany("taken"),
		eligibleCompany("blocked"),
		eligibleCompany("fresh"),
	}
	existing := map[string]struct{}{"taken": {}}

	result := services.EligibleCompanies(sedanApplication(), companies, existing, services.FilterOptions{
		ExcludeCompanies: []string{"blocked"},
	})
	if len(result) != 1 || result[0].ID != "fresh" {
		t.Fatalf("expected only fresh to survive, got %d companies", len(result))
	}
}

func TestEligibleCompaniesManualIncludeShortCircuits(t *testing.T) {
	inactive := eligibleCompany("inactive")
	inactive.Active = false

	companies := []entities.CompanyProfile{inactive, eligibleCompany("other")}

	result := services.EligibleCompanies(sedanApplication(), companies, nil, services.FilterOptions{
		IncludeCompanies: []string{"inactive", "inactive", "missing"},
	})
	if len(result) != 1 || result[0].ID != "inactive" {
		t.Fatalf("expected manual include to bypass filters and dedup, got %d companies", len(result))
	}
}

func TestEligibleCompaniesTruncatesToLimit(t *testing.T) {
	companies := make([]entities.CompanyProfile, 0, 8)
	for _, id := range []string{"a", "b", "c", "d", "e", "f", "g", "h"} {
		companies = append(companies, eligibleCompany(id))
	}

	result := services.EligibleCompanies(sedanApplication(), companies, nil, services.FilterOptions{})
	if len(result) != services.DefaultMaxCompanies {
		t.Fatalf("expected default cap %d, got %d", services.DefaultMaxCompanies, len(result))
	}
	if result[0].ID != "a" || result[4].ID != "e" {
		t.Fatal("expected truncation to keep filter order")
	}

	result = services.EligibleCompanies(sedanApplication(), companies, nil, services.FilterOptions{MaxCompanies: 2})
	if len(result) != 2 {
		t.Fatalf("expected explicit cap 2, got %d", len(result))
	}
}
