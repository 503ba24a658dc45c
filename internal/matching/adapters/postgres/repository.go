package postgresadapter

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"meridian/internal/matching/domain/entities"
	domainerrors "meridian/internal/matching/domain/errors"
	"meridian/internal/matching/ports"
)

const (
	outboxStatusPending   = "pending"
	outboxStatusPublished = "published"
)

type Repository struct {
	db     *gorm.DB
	logger *slog.Logger
}

func NewRepository(db *gorm.DB, logger *slog.Logger) *Repository {
	if logger == nil {
		logger = slog.Default()
	}
	return &Repository{
		db:     db,
		logger: logger,
	}
}

func (r *Repository) CreateDistributions(ctx context.Context, distributions []entities.Distribution) error {
	if len(distributions) == 0 {
		return nil
	}
	rows := make([]distributionModel, 0, len(distributions))
	for _, dist := range distributions {
		if strings.TrimSpace(dist.ID) == "" ||
			strings.TrimSpace(dist.ApplicationID) == "" ||
			strings.TrimSpace(dist.CompanyID) == "" {
			r.logWarn("matching_repo_create_invalid_input",
				"distribution_id", strings.TrimSpace(dist.ID),
				"application_id", strings.TrimSpace(dist.ApplicationID),
				"company_id", strings.TrimSpace(dist.CompanyID),
			)
			return domainerrors.ErrInvalidDistributionInput
		}
		row, err := distributionModelFromEntity(dist)
		if err != nil {
			return r.logError("matching_repo_create_encode_failed", err,
				"distribution_id", dist.ID,
			)
		}
		rows = append(rows, row)
	}

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for idx := range rows {
			if err := tx.Create(&rows[idx]).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		if isUniqueViolation(err) {
			r.logWarn("matching_repo_create_unique_conflict",
				"application_id", rows[0].ApplicationID,
				"distribution_count", len(rows),
			)
			return domainerrors.ErrDistributionExists
		}
		return r.logError("matching_repo_create_failed", err,
			"application_id", rows[0].ApplicationID,
			"distribution_count", len(rows),
		)
	}
	return nil
}

func (r *Repository) GetDistribution(ctx context.Context, distributionID string) (entities.Distribution, error) {
	var row distributionModel
	err := r.db.WithContext(ctx).
		Where("id = ?", strings.TrimSpace(distributionID)).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.Distribution{}, domainerrors.ErrDistributionNotFound
		}
		return entities.Distribution{}, r.logError("matching_repo_get_failed", err,
			"distribution_id", strings.TrimSpace(distributionID),
		)
	}
	return row.toEntity(), nil
}

func (r *Repository) ListByApplication(ctx context.Context, applicationID string) ([]entities.Distribution, error) {
	var rows []distributionModel
	if err := r.db.WithContext(ctx).
		Where("application_id = ?", strings.TrimSpace(applicationID)).
		Order("match_score DESC").
		Find(&rows).Error; err != nil {
		return nil, r.logError("matching_repo_list_by_application_failed", err,
			"application_id", strings.TrimSpace(applicationID),
		)
	}
	return toEntities(rows), nil
}

func (r *Repository) ListByCompany(ctx context.Context, companyID string, limit int) ([]entities.Distribution, error) {
	if limit <= 0 {
		limit = 100
	}
	var rows []distributionModel
	if err := r.db.WithContext(ctx).
		Where("company_id = ?", strings.TrimSpace(companyID)).
		Order("created_at DESC").
		Limit(limit).
		Find(&rows).Error; err != nil {
		return nil, r.logError("matching_repo_list_by_company_failed", err,
			"company_id", strings.TrimSpace(companyID),
		)
	}
	return toEntities(rows), nil
}

// UpdateStatusIf is the optimistic-concurrency write: the row is updated only
// while its status still equals expected. A concurrent transition surfaces as
// ErrStaleDistribution, never as a silent overwrite.
func (r *Repository) UpdateStatusIf(
	ctx context.Context,
	dist entities.Distribution,
	expected entities.DistributionStatus,
) error {
	row, err := distributionModelFromEntity(dist)
	if err != nil {
		return r.logError("matching_repo_update_encode_failed", err,
			"distribution_id", dist.ID,
		)
	}
	result := r.db.WithContext(ctx).
		Model(&distributionModel{}).
		Where("id = ?", row.ID).
		Where("status = ?", string(expected)).
		Updates(map[string]any{
			"status":        row.Status,
			"viewed_at":     row.ViewedAt,
			"quoted_at":     row.QuotedAt,
			"ignored_at":    row.IgnoredAt,
			"expired_at":    row.ExpiredAt,
			"ignore_reason": row.IgnoreReason,
			"updated_at":    row.UpdatedAt,
		})
	if result.Error != nil {
		return r.logError("matching_repo_update_status_failed", result.Error,
			"distribution_id", row.ID,
			"expected_status", string(expected),
		)
	}
	if result.RowsAffected == 0 {
		var count int64
		if err := r.db.WithContext(ctx).
			Model(&distributionModel{}).
			Where("id = ?", row.ID).
			Count(&count).Error; err != nil {
			return r.logError("matching_repo_update_exists_check_failed", err,
				"distribution_id", row.ID,
			)
		}
		if count == 0 {
			return domainerrors.ErrDistributionNotFound
		}
		r.logWarn("matching_repo_update_stale_write",
			"distribution_id", row.ID,
			"expected_status", string(expected),
		)
		return domainerrors.ErrStaleDistribution
	}
	return nil
}

func (r *Repository) ListExpirable(ctx context.Context, now time.Time, limit int) ([]entities.Distribution, error) {
	if limit <= 0 {
		limit = 100
	}
	var rows []distributionModel
	if err := r.db.WithContext(ctx).
		Where("status IN ?", []string{
			string(entities.DistributionStatusPending),
			string(entities.DistributionStatusViewed),
		}).
		Where("expires_at <= ?", now.UTC()).
		Order("expires_at ASC").
		Limit(limit).
		Find(&rows).Error; err != nil {
		return nil, r.logError("matching_repo_list_expirable_failed", err,
			"threshold_utc", now.UTC().Format(time.RFC3339),
			"limit", limit,
		)
	}
	return toEntities(rows), nil
}

func (r *Repository) GetApplication(ctx context.Context, applicationID string) (entities.Application, error) {
	var row applicationModel
	err := r.db.WithContext(ctx).
		Where("id = ?", strings.TrimSpace(applicationID)).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.Application{}, domainerrors.ErrApplicationNotFound
		}
		return entities.Application{}, r.logError("matching_repo_get_application_failed", err,
			"application_id", strings.TrimSpace(applicationID),
		)
	}
	return row.toEntity(), nil
}

func (r *Repository) ListCompanies(ctx context.Context) ([]entities.CompanyProfile, error) {
	var rows []companyProfileModel
	if err := r.db.WithContext(ctx).
		Order("created_at ASC").
		Find(&rows).Error; err != nil {
		return nil, r.logError("matching_repo_list_companies_failed", err)
	}
	companies := make([]entities.CompanyProfile, 0, len(rows))
	for _, row := range rows {
		company, err := row.toEntity()
		if err != nil {
			return nil, r.logError("matching_repo_company_decode_failed", err,
				"company_id", row.ID,
			)
		}
		companies = append(companies, company)
	}
	return companies, nil
}

func (r *Repository) GetCompany(ctx context.Context, companyID string) (entities.CompanyProfile, error) {
	var row companyProfileModel
	err := r.db.WithContext(ctx).
		Where("id = ?", strings.TrimSpace(companyID)).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.CompanyProfile{}, domainerrors.ErrCompanyNotFound
		}
		return entities.CompanyProfile{}, r.logError("matching_repo_get_company_failed", err,
			"company_id", strings.TrimSpace(companyID),
		)
	}
	company, err := row.toEntity()
	if err != nil {
		return entities.CompanyProfile{}, r.logError("matching_repo_company_decode_failed", err,
			"company_id", row.ID,
		)
	}
	return company, nil
}

func (r *Repository) AppendEvent(ctx context.Context, event entities.AnalyticsEvent) error {
	row := analyticsEventModel{
		ID:             strings.TrimSpace(event.ID),
		EventType:      string(event.EventType),
		ApplicationID:  strings.TrimSpace(event.ApplicationID),
		CompanyID:      strings.TrimSpace(event.CompanyID),
		DistributionID: strings.TrimSpace(event.DistributionID),
		OccurredAt:     event.OccurredAt.UTC(),
		Payload:        append([]byte(nil), event.Payload...),
	}
	if row.ID == "" {
		row.ID = uuid.NewString()
	}
	if row.OccurredAt.IsZero() {
		row.OccurredAt = time.Now().UTC()
	}
	if err := r.db.WithContext(ctx).Create(&row).Error; err != nil {
		return r.logError("matching_repo_append_event_failed", err,
			"event_id", row.ID,
			"event_type", row.EventType,
		)
	}
	return nil
}

func (r *Repository) CountEvents(
	ctx context.Context,
	eventType entities.AnalyticsEventType,
	scope ports.ReportScope,
) (int64, error) {
	var count int64
	query := r.scopedEvents(ctx, scope).Where("event_type = ?", string(eventType))
	if err := query.Count(&count).Error; err != nil {
		return 0, r.logError("matching_repo_count_events_failed", err,
			"event_type", string(eventType),
			"company_id", scope.CompanyID,
		)
	}
	return count, nil
}

func (r *Repository) ListEvents(ctx context.Context, scope ports.ReportScope) ([]entities.AnalyticsEvent, error) {
	var rows []analyticsEventModel
	if err := r.scopedEvents(ctx, scope).
		Order("occurred_at ASC").
		Find(&rows).Error; err != nil {
		return nil, r.logError("matching_repo_list_events_failed", err,
			"company_id", scope.CompanyID,
		)
	}
	events := make([]entities.AnalyticsEvent, 0, len(rows))
	for _, row := range rows {
		events = append(events, row.toEntity())
	}
	return events, nil
}

func (r *Repository) scopedEvents(ctx context.Context, scope ports.ReportScope) *gorm.DB {
	query := r.db.WithContext(ctx).Model(&analyticsEventModel{})
	if strings.TrimSpace(scope.CompanyID) != "" {
		query = query.Where("company_id = ?", strings.TrimSpace(scope.CompanyID))
	}
	if !scope.From.IsZero() {
		query = query.Where("occurred_at >= ?", scope.From.UTC())
	}
	if !scope.To.IsZero() {
		query = query.Where("occurred_at <= ?", scope.To.UTC())
	}
	return query
}

func (r *Repository) AppendOutbox(ctx context.Context, envelope ports.EventEnvelope) error {
	payload, err := json.Marshal(envelope)
	if err != nil {
		return r.logError("matching_repo_append_outbox_marshal_failed", err,
			"event_id", strings.TrimSpace(envelope.EventID),
			"event_type", strings.TrimSpace(envelope.EventType),
		)
	}
	row := outboxModel{
		OutboxID:     strings.TrimSpace(envelope.EventID),
		EventType:    strings.TrimSpace(envelope.EventType),
		PartitionKey: strings.TrimSpace(envelope.PartitionKey),
		Payload:      payload,
		Status:       outboxStatusPending,
		CreatedAt:    envelope.OccurredAt.UTC(),
	}
	if row.OutboxID == "" {
		row.OutboxID = uuid.NewString()
	}
	if row.CreatedAt.IsZero() {
		row.CreatedAt = time.Now().UTC()
	}

	createResult := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "outbox_id"}},
		DoNothing: true,
	}).Create(&row)
	if createResult.Error != nil {
		return r.logError("matching_repo_append_outbox_insert_failed", createResult.Error,
			"outbox_id", row.OutboxID,
			"event_type", row.EventType,
		)
	}
	if createResult.RowsAffected > 0 {
		return nil
	}

	var existing outboxModel
	if err := r.db.WithContext(ctx).
		Select("payload").
		Where("outbox_id = ?", row.OutboxID).
		First(&existing).
		Error; err != nil {
		return r.logError("matching_repo_append_outbox_load_existing_failed", err,
			"outbox_id", row.OutboxID,
		)
	}
	if !bytes.Equal(existing.Payload, row.Payload) {
		r.logWarn("matching_repo_append_outbox_payload_conflict",
			"outbox_id", row.OutboxID,
			"event_type", row.EventType,
		)
		return domainerrors.ErrInvalidDistributionInput
	}
	return nil
}

func (r *Repository) ListPendingOutbox(ctx context.Context, limit int) ([]ports.OutboxMessage, error) {
	if limit <= 0 {
		limit = 100
	}
	var rows []outboxModel
	if err := r.db.WithContext(ctx).
		Where("status = ?", outboxStatusPending).
		Order("created_at ASC").
		Limit(limit).
		Find(&rows).Error; err != nil {
		return nil, r.logError("matching_repo_list_pending_outbox_failed", err,
			"limit", limit,
		)
	}
	items := make([]ports.OutboxMessage, 0, len(rows))
	for _, row := range rows {
		items = append(items, ports.OutboxMessage{
			OutboxID:     row.OutboxID,
			EventType:    row.EventType,
			PartitionKey: row.PartitionKey,
			Payload:      append([]byte(nil), row.Payload...),
			CreatedAt:    row.CreatedAt.UTC(),
		})
	}
	return items, nil
}

func (r *Repository) MarkOutboxPublished(ctx context.Context, outboxID string, publishedAt time.Time) error {
	result := r.db.WithContext(ctx).
		Model(&outboxModel{}).
		Where("outbox_id = ?", strings.TrimSpace(outboxID)).
		Updates(map[string]any{
			"status":       outboxStatusPublished,
			"published_at": publishedAt.UTC(),
		})
	if result.Error != nil {
		return r.logError("matching_repo_mark_outbox_published_failed", result.Error,
			"outbox_id", strings.TrimSpace(outboxID),
		)
	}
	if result.RowsAffected == 0 {
		r.logWarn("matching_repo_mark_outbox_published_not_found",
			"outbox_id", strings.TrimSpace(outboxID),
		)
		return domainerrors.ErrInvalidDistributionInput
	}
	return nil
}

func (r *Repository) logError(event string, err error, attrs ...any) error {
	fields := make([]any, 0, len(attrs)+8)
	fields = append(fields,
		"event", event,
		"module", "matching-engine",
		"layer", "adapter",
		"error", err.Error(),
	)
	fields = append(fields, attrs...)
	r.logger.Error("matching repository operation failed", fields...)
	return err
}

func (r *Repository) logWarn(event string, attrs ...any) {
	fields := make([]any, 0, len(attrs)+6)
	fields = append(fields,
		"event", event,
		"module", "matching-engine",
		"layer", "adapter",
	)
	fields = append(fields, attrs...)
	r.logger.Warn("matching repository warning", fields...)
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

func toEntities(rows []distributionModel) []entities.Distribution {
	items := make([]entities.Distribution, 0, len(rows))
	for _, row := range rows {
		items = append(items, row.toEntity())
	}
	return items
}

var _ ports.Repository = (*Repository)(nil)
var _ ports.ApplicationSource = (*Repository)(nil)
var _ ports.CompanyDirectory = (*Repository)(nil)
var _ ports.AnalyticsLog = (*Repository)(nil)
var _ ports.OutboxWriter = (*Repository)(nil)
var _ ports.OutboxRepository = (*Repository)(nil)
