package services

import "meridian/internal/matching/domain/entities"

const DefaultMaxCompanies = 5

// FilterOptions carries caller-supplied adjustments to the eligibility pass.
type FilterOptions struct {
	MaxCompanies     int
	ExcludeCompanies []string
	IncludeCompanies []string
}

// EligibleCompanies narrows the company universe to those structurally able
// to accept the application. Every rule is a hard exclusion applied in order;
// nothing is scored here. existing holds company IDs that already have a
// distribution for this application. A manual include list short-circuits all
// structural filters and is re-validated for existence only. The result keeps
// filter order and is truncated to MaxCompanies; an empty result is not an
// error.
func EligibleCompanies(
	app entities.Application,
	companies []entities.CompanyProfile,
	existing map[string]struct{},
	opts FilterOptions,
) []entities.CompanyProfile {
	limit := opts.MaxCompanies
	if limit <= 0 {
		limit = DefaultMaxCompanies
	}

	if len(opts.IncludeCompanies) > 0 {
		return truncate(manualInclude(companies, opts.IncludeCompanies), limit)
	}

	excluded := make(map[string]struct{}, len(opts.ExcludeCompanies))
	for _, id := range opts.ExcludeCompanies {
		excluded[id] = struct{}{}
	}

	eligible := make([]entities.CompanyProfile, 0, len(companies))
	for _, company := range companies {
		if !company.Active || !company.Approved {
			continue
		}
		if !company.AcceptsCoverage(app.CoverageType) {
			continue
		}
		if app.GeographyClass != "" && !company.AcceptsGeography(app.GeographyClass) {
			continue
		}
		if !company.AcceptsCategory(app.Category) {
			continue
		}
		if _, taken := existing[company.ID]; taken {
			continue
		}
		if _, skip := excluded[company.ID]; skip {
			continue
		}
		eligible = append(eligible, company)
	}
	return truncate(eligible, limit)
}

func manualInclude(companies []entities.CompanyProfile, ids []string) []entities.CompanyProfile {
	byID := make(map[string]entities.CompanyProfile, len(companies))
	for _, company := range companies {
		byID[company.ID] = company
	}
	included := make([]entities.CompanyProfile, 0, len(ids))
	seen := map[string]struct{}{}
	for _, id := range ids {
		company, ok := byID[id]
		if !ok {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		included = append(included, company)
	}
	return included
}

func truncate(companies []entities.CompanyProfile, limit int) []entities.CompanyProfile {
	if len(companies) <= limit {
		return companies
	}
	return companies[:limit]
}
