package httpadapter

import (
	"context"
	"log/slog"
	"strings"
	"time"

	application "meridian/internal/matching/application"
	"meridian/internal/matching/application/commands"
	"meridian/internal/matching/application/queries"
	"meridian/internal/matching/domain/entities"
	domainerrors "meridian/internal/matching/domain/errors"
	"meridian/internal/matching/domain/services"
	"meridian/internal/matching/ports"
	httptransport "meridian/internal/matching/transport/http"
)

type Handler struct {
	Commands commands.UseCase
	Queries  queries.UseCase
	Clock    ports.Clock
	Logger   *slog.Logger
}

func (h Handler) DistributeHandler(
	ctx context.Context,
	applicationID string,
	req httptransport.DistributeRequest,
) (httptransport.DistributeResponse, error) {
	logger := application.ResolveLogger(h.Logger)
	rows, err := h.Commands.Distribute(ctx, commands.DistributeCommand{
		ApplicationID:    applicationID,
		Method:           entities.DistributionMethod(strings.TrimSpace(req.Method)),
		DistributedBy:    req.DistributedBy,
		ExcludeCompanies: append([]string(nil), req.ExcludeCompanies...),
		IncludeCompanies: append([]string(nil), req.IncludeCompanies...),
		MaxCompanies:     req.MaxCompanies,
	})
	if err != nil {
		logger.Warn("matching http distribute failed",
			"event", "matching_http_distribute_failed",
			"module", "matching-engine",
			"layer", "adapter",
			"application_id", strings.TrimSpace(applicationID),
			"error", err.Error(),
		)
		return httptransport.DistributeResponse{}, err
	}
	logger.Info("matching http distribute completed",
		"event", "matching_http_distribute_completed",
		"module", "matching-engine",
		"layer", "adapter",
		"application_id", strings.TrimSpace(applicationID),
		"companies_count", len(rows),
	)
	return httptransport.DistributeResponse{
		ApplicationID:  strings.TrimSpace(applicationID),
		CompaniesCount: len(rows),
		Distributions:  h.mapDistributions(rows),
	}, nil
}

func (h Handler) GetDistributionHandler(
	ctx context.Context,
	distributionID string,
) (httptransport.DistributionDTO, error) {
	dist, err := h.Queries.GetDistribution(ctx, distributionID)
	if err != nil {
		return httptransport.DistributionDTO{}, err
	}
	return h.mapDistribution(dist), nil
}

func (h Handler) ListByApplicationHandler(
	ctx context.Context,
	applicationID string,
) (httptransport.ListDistributionsResponse, error) {
	rows, err := h.Queries.ListByApplication(ctx, applicationID)
	if err != nil {
		return httptransport.ListDistributionsResponse{}, err
	}
	return httptransport.ListDistributionsResponse{
		ApplicationID: strings.TrimSpace(applicationID),
		Distributions: h.mapDistributions(rows),
	}, nil
}

func (h Handler) ListByCompanyHandler(
	ctx context.Context,
	companyID string,
	limit int,
) (httptransport.CompanyDistributionsResponse, error) {
	rows, err := h.Queries.ListByCompany(ctx, companyID, limit)
	if err != nil {
		return httptransport.CompanyDistributionsResponse{}, err
	}
	return httptransport.CompanyDistributionsResponse{
		CompanyID:     strings.TrimSpace(companyID),
		Distributions: h.mapDistributions(rows),
	}, nil
}

func (h Handler) MarkViewedHandler(
	ctx context.Context,
	distributionID string,
) (httptransport.DistributionDTO, error) {
	logger := application.ResolveLogger(h.Logger)
	dist, err := h.Commands.MarkViewed(ctx, commands.ViewCommand{DistributionID: distributionID})
	if err != nil {
		logger.Warn("matching http mark viewed failed",
			"event", "matching_http_mark_viewed_failed",
			"module", "matching-engine",
			"layer", "adapter",
			"distribution_id", strings.TrimSpace(distributionID),
			"error", err.Error(),
		)
		return httptransport.DistributionDTO{}, err
	}
	return h.mapDistribution(dist), nil
}

func (h Handler) SubmitQuoteHandler(
	ctx context.Context,
	distributionID string,
) (httptransport.DistributionDTO, error) {
	logger := application.ResolveLogger(h.Logger)
	dist, err := h.Commands.SubmitQuote(ctx, commands.QuoteCommand{DistributionID: distributionID})
	if err != nil {
		logger.Warn("matching http submit quote failed",
			"event", "matching_http_submit_quote_failed",
			"module", "matching-engine",
			"layer", "adapter",
			"distribution_id", strings.TrimSpace(distributionID),
			"error", err.Error(),
		)
		return httptransport.DistributionDTO{}, err
	}
	return h.mapDistribution(dist), nil
}

func (h Handler) IgnoreHandler(
	ctx context.Context,
	distributionID string,
	req httptransport.IgnoreRequest,
) (httptransport.DistributionDTO, error) {
	logger := application.ResolveLogger(h.Logger)
	dist, err := h.Commands.Ignore(ctx, commands.IgnoreCommand{
		DistributionID: distributionID,
		Reason:         req.Reason,
	})
	if err != nil {
		logger.Warn("matching http ignore failed",
			"event", "matching_http_ignore_failed",
			"module", "matching-engine",
			"layer", "adapter",
			"distribution_id", strings.TrimSpace(distributionID),
			"error", err.Error(),
		)
		return httptransport.DistributionDTO{}, err
	}
	return h.mapDistribution(dist), nil
}

func (h Handler) PerformanceReportHandler(
	ctx context.Context,
	companyID string,
	fromRaw string,
	toRaw string,
) (httptransport.PerformanceReportResponse, error) {
	logger := application.ResolveLogger(h.Logger)
	scope := ports.ReportScope{CompanyID: strings.TrimSpace(companyID)}

	from, err := parseOptionalTime(fromRaw)
	if err != nil {
		return httptransport.PerformanceReportResponse{}, err
	}
	to, err := parseOptionalTime(toRaw)
	if err != nil {
		return httptransport.PerformanceReportResponse{}, err
	}
	scope.From = from
	scope.To = to

	report, err := h.Queries.PerformanceReport(ctx, scope)
	if err != nil {
		logger.Warn("matching http performance report failed",
			"event", "matching_http_performance_report_failed",
			"module", "matching-engine",
			"layer", "adapter",
			"company_id", scope.CompanyID,
			"error", err.Error(),
		)
		return httptransport.PerformanceReportResponse{}, err
	}

	resp := httptransport.PerformanceReportResponse{
		CompanyID:             report.Scope.CompanyID,
		Distributed:           report.Distributed,
		Viewed:                report.Viewed,
		Quoted:                report.Quoted,
		Ignored:               report.Ignored,
		Expired:               report.Expired,
		ViewRate:              report.ViewRate,
		QuoteRate:             report.QuoteRate,
		AvgResponseSeconds:    report.AvgResponseSeconds,
		AvgTimeToQuoteSeconds: report.AvgTimeToQuoteSeconds,
		TopCompanies:          make([]httptransport.CompanyPerformanceDTO, 0, len(report.TopCompanies)),
	}
	if !report.Scope.From.IsZero() {
		resp.From = report.Scope.From.Format(time.RFC3339)
	}
	if !report.Scope.To.IsZero() {
		resp.To = report.Scope.To.Format(time.RFC3339)
	}
	for _, company := range report.TopCompanies {
		resp.TopCompanies = append(resp.TopCompanies, httptransport.CompanyPerformanceDTO{
			CompanyID:          company.CompanyID,
			Distributed:        company.Distributed,
			Viewed:             company.Viewed,
			Quoted:             company.Quoted,
			Ignored:            company.Ignored,
			Expired:            company.Expired,
			QuoteRate:          company.QuoteRate,
			AvgResponseSeconds: company.AvgResponseSeconds,
		})
	}
	return resp, nil
}

func (h Handler) mapDistributions(rows []entities.Distribution) []httptransport.DistributionDTO {
	dtos := make([]httptransport.DistributionDTO, 0, len(rows))
	for _, row := range rows {
		dtos = append(dtos, h.mapDistribution(row))
	}
	return dtos
}

func (h Handler) mapDistribution(dist entities.Distribution) httptransport.DistributionDTO {
	now := time.Now().UTC()
	if h.Clock != nil {
		now = h.Clock.Now().UTC()
	}
	dto := httptransport.DistributionDTO{
		ID:            dist.ID,
		ApplicationID: dist.ApplicationID,
		CompanyID:     dist.CompanyID,
		Status:        string(dist.Status),
		Method:        string(dist.Method),
		MatchScore:    dist.MatchScore.StringFixed(2),
		MatchBand:     string(services.MatchBandFor(dist.MatchScore)),
		Criteria: httptransport.MatchCriteriaDTO{
			CoverageMatch:     dist.Criteria.CoverageMatch,
			CategoryMatch:     dist.Criteria.CategoryMatch,
			RateHistoryMatch:  dist.Criteria.HistoryMatch,
			RiskAppetiteMatch: dist.Criteria.RiskAppetiteMatch,
			GeographyMatch:    dist.Criteria.GeographyMatch,
			SumInsuredMatch:   dist.Criteria.SumInsuredMatch,
			AgeBandMatch:      dist.Criteria.AgeBandMatch,
		},
		DistributedBy:       dist.DistributedBy,
		CreatedAt:           dist.CreatedAt.Format(time.RFC3339),
		ExpiresAt:           dist.ExpiresAt.Format(time.RFC3339),
		IgnoreReason:        dist.IgnoreReason,
		DeadlineApproaching: dist.DeadlineApproaching(now),
	}
	if dist.ViewedAt != nil {
		dto.ViewedAt = dist.ViewedAt.Format(time.RFC3339)
	}
	if dist.QuotedAt != nil {
		dto.QuotedAt = dist.QuotedAt.Format(time.RFC3339)
	}
	if dist.IgnoredAt != nil {
		dto.IgnoredAt = dist.IgnoredAt.Format(time.RFC3339)
	}
	if dist.ExpiredAt != nil {
		dto.ExpiredAt = dist.ExpiredAt.Format(time.RFC3339)
	}
	return dto
}

func parseOptionalTime(raw string) (time.Time, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return time.Time{}, nil
	}
	if parsed, err := time.Parse(time.RFC3339, trimmed); err == nil {
		return parsed.UTC(), nil
	}
	parsed, err := time.Parse("2006-01-02", trimmed)
	if err != nil {
		return time.Time{}, domainerrors.ErrInvalidDistributionInput
	}
	return parsed.UTC(), nil
}
