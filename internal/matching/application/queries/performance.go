package queries

import (
	"context"
	"sort"

	application "meridian/internal/matching/application"
	"meridian/internal/matching/domain/entities"
	"meridian/internal/matching/ports"
)

const topCompanyLimit = 10

type CompanyPerformance struct {
	CompanyID          string
	Distributed        int64
	Viewed             int64
	Quoted             int64
	Ignored            int64
	Expired            int64
	QuoteRate          float64
	AvgResponseSeconds float64
}

type PerformanceReport struct {
	Scope                 ports.ReportScope
	Distributed           int64
	Viewed                int64
	Quoted                int64
	Ignored               int64
	Expired               int64
	ViewRate              float64
	QuoteRate             float64
	AvgResponseSeconds    float64
	AvgTimeToQuoteSeconds float64
	TopCompanies          []CompanyPerformance
}

// PerformanceReport aggregates conversion metrics over the analytics log for
// a period, optionally narrowed to one company.
func (uc UseCase) PerformanceReport(ctx context.Context, scope ports.ReportScope) (PerformanceReport, error) {
	logger := application.ResolveLogger(uc.Logger)
	events, err := uc.Analytics.ListEvents(ctx, scope)
	if err != nil {
		logger.Warn("performance report event listing failed",
			"event", "performance_report_list_failed",
			"module", "matching-engine",
			"layer", "application",
			"company_id", scope.CompanyID,
			"error", err.Error(),
		)
		return PerformanceReport{}, err
	}

	report := PerformanceReport{Scope: scope}
	perCompany := map[string]*CompanyPerformance{}
	for _, event := range events {
		switch event.EventType {
		case entities.AnalyticsEventDistributed:
			report.Distributed++
		case entities.AnalyticsEventViewed:
			report.Viewed++
		case entities.AnalyticsEventQuoted:
			report.Quoted++
		case entities.AnalyticsEventIgnored:
			report.Ignored++
		case entities.AnalyticsEventExpired:
			report.Expired++
		}
		if event.CompanyID == "" {
			continue
		}
		rollup, ok := perCompany[event.CompanyID]
		if !ok {
			rollup = &CompanyPerformance{CompanyID: event.CompanyID}
			perCompany[event.CompanyID] = rollup
		}
		switch event.EventType {
		case entities.AnalyticsEventDistributed:
			rollup.Distributed++
		case entities.AnalyticsEventViewed:
			rollup.Viewed++
		case entities.AnalyticsEventQuoted:
			rollup.Quoted++
		case entities.AnalyticsEventIgnored:
			rollup.Ignored++
		case entities.AnalyticsEventExpired:
			rollup.Expired++
		}
	}

	report.ViewRate = conversion(report.Viewed, report.Distributed)
	report.QuoteRate = conversion(report.Quoted, report.Distributed)
	report.AvgResponseSeconds = averageElapsed(events, entities.AnalyticsEventDistributed, entities.AnalyticsEventViewed)
	report.AvgTimeToQuoteSeconds = averageElapsed(events, entities.AnalyticsEventDistributed, entities.AnalyticsEventQuoted)

	companies := make([]CompanyPerformance, 0, len(perCompany))
	for id, rollup := range perCompany {
		rollup.QuoteRate = conversion(rollup.Quoted, rollup.Distributed)
		rollup.AvgResponseSeconds = averageElapsedForCompany(events, id)
		companies = append(companies, *rollup)
	}
	sort.Slice(companies, func(i, j int) bool {
		if companies[i].QuoteRate != companies[j].QuoteRate {
			return companies[i].QuoteRate > companies[j].QuoteRate
		}
		if companies[i].Distributed != companies[j].Distributed {
			return companies[i].Distributed > companies[j].Distributed
		}
		return companies[i].CompanyID < companies[j].CompanyID
	})
	if len(companies) > topCompanyLimit {
		companies = companies[:topCompanyLimit]
	}
	report.TopCompanies = companies
	return report, nil
}

func conversion(numerator, denominator int64) float64 {
	if denominator == 0 {
		return 0
	}
	return float64(numerator) / float64(denominator) * 100
}

// averageElapsed pairs from/to events per distribution and averages the
// occurred-at delta across the pairs.
func averageElapsed(
	events []entities.AnalyticsEvent,
	from entities.AnalyticsEventType,
	to entities.AnalyticsEventType,
) float64 {
	fromAt := map[string]entities.AnalyticsEvent{}
	toAt := map[string]entities.AnalyticsEvent{}
	for _, event := range events {
		if event.DistributionID == "" {
			continue
		}
		switch event.EventType {
		case from:
			fromAt[event.DistributionID] = event
		case to:
			toAt[event.DistributionID] = event
		}
	}
	var total float64
	var count int
	for distributionID, fromEvent := range fromAt {
		toEvent, ok := toAt[distributionID]
		if !ok {
			continue
		}
		total += toEvent.OccurredAt.Sub(fromEvent.OccurredAt).Seconds()
		count++
	}
	if count == 0 {
		return 0
	}
	return total / float64(count)
}

func averageElapsedForCompany(events []entities.AnalyticsEvent, companyID string) float64 {
	scoped := make([]entities.AnalyticsEvent, 0, len(events))
	for _, event := range events {
		if event.CompanyID == companyID {
			scoped = append(scoped, event)
		}
	}
	return averageElapsed(scoped, entities.AnalyticsEventDistributed, entities.AnalyticsEventViewed)
}
