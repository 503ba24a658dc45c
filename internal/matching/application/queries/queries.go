package queries

import (
	"context"
	"log/slog"
	"strings"

	application "meridian/internal/matching/application"
	"meridian/internal/matching/domain/entities"
	"meridian/internal/matching/ports"
)

type UseCase struct {
	Distributions ports.Repository
	Analytics     ports.AnalyticsLog
	Clock         ports.Clock
	Logger        *slog.Logger
}

func (uc UseCase) GetDistribution(ctx context.Context, distributionID string) (entities.Distribution, error) {
	logger := application.ResolveLogger(uc.Logger)
	id := strings.TrimSpace(distributionID)
	dist, err := uc.Distributions.GetDistribution(ctx, id)
	if err != nil {
		logger.Warn("query get distribution failed",
			"event", "query_get_distribution_failed",
			"module", "matching-engine",
			"layer", "application",
			"distribution_id", id,
			"error", err.Error(),
		)
		return entities.Distribution{}, err
	}
	return dist, nil
}

func (uc UseCase) ListByApplication(ctx context.Context, applicationID string) ([]entities.Distribution, error) {
	logger := application.ResolveLogger(uc.Logger)
	id := strings.TrimSpace(applicationID)
	items, err := uc.Distributions.ListByApplication(ctx, id)
	if err != nil {
		logger.Warn("query list distributions failed",
			"event", "query_list_distributions_failed",
			"module", "matching-engine",
			"layer", "application",
			"application_id", id,
			"error", err.Error(),
		)
		return nil, err
	}
	return items, nil
}

// ListByCompany returns a company's inbox, most recent first.
func (uc UseCase) ListByCompany(ctx context.Context, companyID string, limit int) ([]entities.Distribution, error) {
	logger := application.ResolveLogger(uc.Logger)
	id := strings.TrimSpace(companyID)
	items, err := uc.Distributions.ListByCompany(ctx, id, limit)
	if err != nil {
		logger.Warn("query list company distributions failed",
			"event", "query_list_company_distributions_failed",
			"module", "matching-engine",
			"layer", "application",
			"company_id", id,
			"error", err.Error(),
		)
		return nil, err
	}
	return items, nil
}

// ConversionRate is count(to)/count(from) x 100 for the cohort, 0 when the
// denominator is 0.
func (uc UseCase) ConversionRate(
	ctx context.Context,
	from entities.AnalyticsEventType,
	to entities.AnalyticsEventType,
	scope ports.ReportScope,
) (float64, error) {
	fromCount, err := uc.Analytics.CountEvents(ctx, from, scope)
	if err != nil {
		return 0, err
	}
	if fromCount == 0 {
		return 0, nil
	}
	toCount, err := uc.Analytics.CountEvents(ctx, to, scope)
	if err != nil {
		return 0, err
	}
	return float64(toCount) / float64(fromCount) * 100, nil
}

// AverageElapsedSeconds averages occurred-at deltas between two event types,
// paired per distribution. Distributions missing either event do not count.
func (uc UseCase) AverageElapsedSeconds(
	ctx context.Context,
	from entities.AnalyticsEventType,
	to entities.AnalyticsEventType,
	scope ports.ReportScope,
) (float64, error) {
	events, err := uc.Analytics.ListEvents(ctx, scope)
	if err != nil {
		return 0, err
	}
	return averageElapsed(events, from, to), nil
}
