package commands

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"time"

	application "meridian/internal/matching/application"
	"meridian/internal/matching/domain/entities"
	domainerrors "meridian/internal/matching/domain/errors"
	"meridian/internal/matching/domain/services"
	"meridian/internal/matching/ports"
)

// distributionTTL is the fixed deadline for a distribution. Not configurable
// per company yet; keep it a single constant so that change stays cheap.
const distributionTTL = 7 * 24 * time.Hour

type DistributeCommand struct {
	ApplicationID    string
	Method           entities.DistributionMethod
	DistributedBy    string
	ExcludeCompanies []string
	IncludeCompanies []string
	MaxCompanies     int
}

type UseCase struct {
	Distributions ports.Repository
	Applications  ports.ApplicationSource
	Companies     ports.CompanyDirectory
	Capacity      ports.CapacityStore
	Recorder      application.Recorder
	Outbox        ports.OutboxWriter
	Clock         ports.Clock
	IDGen         ports.IDGenerator
	Logger        *slog.Logger
}

// Distribute fans one application out to every eligible company: filter, one
// risk computation, one match score per candidate, then an all-or-nothing
// persist. Re-invoking for an application that already has distributions is a
// no-op that returns the existing rows.
func (uc UseCase) Distribute(ctx context.Context, cmd DistributeCommand) ([]entities.Distribution, error) {
	logger := application.ResolveLogger(uc.Logger)
	applicationID := strings.TrimSpace(cmd.ApplicationID)
	if applicationID == "" {
		return nil, domainerrors.ErrInvalidDistributionInput
	}

	app, err := uc.Applications.GetApplication(ctx, applicationID)
	if err != nil {
		logger.Warn("distribute application lookup failed",
			"event", "distribute_application_lookup_failed",
			"module", "matching-engine",
			"layer", "application",
			"application_id", applicationID,
			"error", err.Error(),
		)
		return nil, err
	}

	existing, err := uc.Distributions.ListByApplication(ctx, applicationID)
	if err != nil {
		return nil, err
	}
	if len(existing) > 0 {
		logger.Info("distribute short-circuited on existing distributions",
			"event", "distribute_existing_returned",
			"module", "matching-engine",
			"layer", "application",
			"application_id", applicationID,
			"distribution_count", len(existing),
		)
		return existing, nil
	}

	companies, err := uc.Companies.ListCompanies(ctx)
	if err != nil {
		return nil, err
	}

	method := cmd.Method
	if method == "" {
		method = entities.DistributionMethodAutomatic
	}

	candidates := services.EligibleCompanies(app, companies, nil, services.FilterOptions{
		MaxCompanies:     cmd.MaxCompanies,
		ExcludeCompanies: cmd.ExcludeCompanies,
		IncludeCompanies: cmd.IncludeCompanies,
	})

	riskScore := services.RiskScore(app)
	riskLevel := services.RiskLevelFor(riskScore)
	now := uc.now()

	rows := make([]entities.Distribution, 0, len(candidates))
	reserved := make([]string, 0, len(candidates))
	capacitySkipped := 0
	for _, company := range candidates {
		if company.DailyCapacity > 0 && uc.Capacity != nil {
			ok, err := uc.Capacity.Reserve(ctx, company.ID, now, company.DailyCapacity)
			if err != nil {
				uc.releaseReserved(ctx, reserved, now)
				return nil, err
			}
			if !ok {
				logger.Warn("distribute candidate at daily capacity",
					"event", "distribute_candidate_at_capacity",
					"module", "matching-engine",
					"layer", "application",
					"application_id", applicationID,
					"company_id", company.ID,
					"daily_capacity", company.DailyCapacity,
				)
				capacitySkipped++
				continue
			}
			reserved = append(reserved, company.ID)
		}

		distributionID, err := uc.IDGen.NewID(ctx)
		if err != nil {
			uc.releaseReserved(ctx, reserved, now)
			return nil, err
		}
		match := services.ScoreMatch(app, company, riskLevel)
		rows = append(rows, entities.Distribution{
			ID:            distributionID,
			ApplicationID: applicationID,
			CompanyID:     company.ID,
			Status:        entities.DistributionStatusPending,
			Method:        method,
			MatchScore:    match.Score,
			Criteria:      match.Criteria,
			DistributedBy: strings.TrimSpace(cmd.DistributedBy),
			CreatedAt:     now,
			ExpiresAt:     now.Add(distributionTTL),
			UpdatedAt:     now,
		})
	}

	if len(rows) == 0 {
		// An explicit include list names the companies the caller wants; when
		// every one of them is capacity-full that is a reportable conflict,
		// not an empty automatic match.
		if capacitySkipped > 0 && len(cmd.IncludeCompanies) > 0 {
			return nil, domainerrors.ErrCompanyAtCapacity
		}
		logger.Info("distribute produced no eligible companies",
			"event", "distribute_no_eligible_companies",
			"module", "matching-engine",
			"layer", "application",
			"application_id", applicationID,
			"risk_score", riskScore,
		)
		uc.Recorder.Record(ctx, entities.AnalyticsEventDistributed, applicationID, "", "", map[string]any{
			"companies_count": 0,
			"risk_score":      riskScore,
		})
		return []entities.Distribution{}, nil
	}

	if err := uc.Distributions.CreateDistributions(ctx, rows); err != nil {
		uc.releaseReserved(ctx, reserved, now)
		if errors.Is(err, domainerrors.ErrDistributionExists) {
			// Lost a race with a concurrent distribute; the winner's rows are
			// the authoritative assignment.
			logger.Warn("distribute lost creation race",
				"event", "distribute_creation_race_lost",
				"module", "matching-engine",
				"layer", "application",
				"application_id", applicationID,
			)
			return uc.Distributions.ListByApplication(ctx, applicationID)
		}
		logger.Error("distribute persistence failed",
			"event", "distribute_persistence_failed",
			"module", "matching-engine",
			"layer", "application",
			"application_id", applicationID,
			"distribution_count", len(rows),
			"error", err.Error(),
		)
		return nil, err
	}

	companyIDs := make([]string, 0, len(rows))
	for _, row := range rows {
		companyIDs = append(companyIDs, row.CompanyID)
	}
	if err := uc.appendOutbox(ctx, "application.distributed", applicationID, map[string]any{
		"application_id":  applicationID,
		"companies_count": len(rows),
		"company_ids":     companyIDs,
		"method":          string(method),
	}); err != nil {
		return nil, err
	}

	for _, row := range rows {
		uc.Recorder.Record(ctx, entities.AnalyticsEventDistributed, applicationID, row.CompanyID, row.ID, map[string]any{
			"companies_count": len(rows),
			"match_score":     row.MatchScore.String(),
			"risk_score":      riskScore,
			"risk_level":      string(riskLevel),
			"method":          string(method),
		})
	}

	logger.Info("application distributed",
		"event", "application_distributed",
		"module", "matching-engine",
		"layer", "application",
		"application_id", applicationID,
		"companies_count", len(rows),
		"risk_score", riskScore,
		"risk_level", string(riskLevel),
		"method", string(method),
	)
	return rows, nil
}

func (uc UseCase) releaseReserved(ctx context.Context, companyIDs []string, day time.Time) {
	if uc.Capacity == nil {
		return
	}
	logger := application.ResolveLogger(uc.Logger)
	for _, companyID := range companyIDs {
		if err := uc.Capacity.Release(ctx, companyID, day); err != nil {
			logger.Warn("capacity release failed",
				"event", "distribute_capacity_release_failed",
				"module", "matching-engine",
				"layer", "application",
				"company_id", companyID,
				"error", err.Error(),
			)
		}
	}
}

func (uc UseCase) appendOutbox(
	ctx context.Context,
	eventType string,
	partitionKey string,
	data map[string]any,
) error {
	logger := application.ResolveLogger(uc.Logger)
	if uc.Outbox == nil {
		logger.Debug("outbox disabled for matching engine",
			"event", "matching_outbox_disabled",
			"module", "matching-engine",
			"layer", "application",
			"event_type", eventType,
		)
		return nil
	}
	eventID, err := uc.IDGen.NewID(ctx)
	if err != nil {
		return err
	}
	payload, err := json.Marshal(data)
	if err != nil {
		return err
	}
	if err := uc.Outbox.AppendOutbox(ctx, ports.EventEnvelope{
		EventID:          eventID,
		EventType:        eventType,
		OccurredAt:       uc.now(),
		SourceService:    "matching-engine",
		TraceID:          eventID,
		SchemaVersion:    1,
		PartitionKeyPath: "application_id",
		PartitionKey:     partitionKey,
		Data:             payload,
	}); err != nil {
		logger.Error("matching outbox append failed",
			"event", "matching_outbox_append_failed",
			"module", "matching-engine",
			"layer", "application",
			"event_id", eventID,
			"event_type", eventType,
			"error", err.Error(),
		)
		return err
	}
	return nil
}

func (uc UseCase) now() time.Time {
	if uc.Clock == nil {
		return time.Now().UTC()
	}
	return uc.Clock.Now().UTC()
}
