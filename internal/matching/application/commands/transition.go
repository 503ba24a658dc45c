package commands

import (
	"context"
	"errors"
	"strings"
	"time"

	application "meridian/internal/matching/application"
	"meridian/internal/matching/domain/entities"
	domainerrors "meridian/internal/matching/domain/errors"
)

const transitionRetryLimit = 2

type ViewCommand struct {
	DistributionID string
}

type QuoteCommand struct {
	DistributionID string
}

type IgnoreCommand struct {
	DistributionID string
	Reason         string
}

// MarkViewed transitions pending -> viewed and stamps viewed_at.
func (uc UseCase) MarkViewed(ctx context.Context, cmd ViewCommand) (entities.Distribution, error) {
	return uc.transition(ctx, cmd.DistributionID, entities.DistributionStatusViewed, "")
}

// SubmitQuote transitions pending/viewed -> quoted and stamps quoted_at.
func (uc UseCase) SubmitQuote(ctx context.Context, cmd QuoteCommand) (entities.Distribution, error) {
	return uc.transition(ctx, cmd.DistributionID, entities.DistributionStatusQuoted, "")
}

// Ignore transitions pending/viewed -> ignored, stamps ignored_at and stores
// the reason.
func (uc UseCase) Ignore(ctx context.Context, cmd IgnoreCommand) (entities.Distribution, error) {
	return uc.transition(ctx, cmd.DistributionID, entities.DistributionStatusIgnored, cmd.Reason)
}

// Expire transitions a non-terminal distribution past its deadline to
// expired. Invoked by the sweep worker; safe under double invocation.
func (uc UseCase) Expire(ctx context.Context, distributionID string) (entities.Distribution, error) {
	return uc.transition(ctx, distributionID, entities.DistributionStatusExpired, "")
}

// transition is the single guarded transition path. The guard is checked
// against a fresh read, the write is a compare-and-swap on the status read,
// and a stale write triggers exactly one re-read before surfacing
// ErrStaleDistribution. Guard failures are reported, never silently absorbed.
func (uc UseCase) transition(
	ctx context.Context,
	distributionID string,
	target entities.DistributionStatus,
	reason string,
) (entities.Distribution, error) {
	logger := application.ResolveLogger(uc.Logger)
	id := strings.TrimSpace(distributionID)
	if id == "" {
		return entities.Distribution{}, domainerrors.ErrInvalidDistributionInput
	}

	for attempt := 0; attempt < transitionRetryLimit; attempt++ {
		dist, err := uc.Distributions.GetDistribution(ctx, id)
		if err != nil {
			logger.Warn("transition distribution lookup failed",
				"event", "transition_lookup_failed",
				"module", "matching-engine",
				"layer", "application",
				"distribution_id", id,
				"target_status", string(target),
				"error", err.Error(),
			)
			return entities.Distribution{}, err
		}

		now := uc.now()
		if !dist.CanTransition(target) {
			logger.Warn("transition guard rejected",
				"event", "transition_guard_rejected",
				"module", "matching-engine",
				"layer", "application",
				"distribution_id", dist.ID,
				"status", string(dist.Status),
				"target_status", string(target),
			)
			return dist, domainerrors.ErrInvalidTransition
		}
		if target == entities.DistributionStatusExpired && !dist.DeadlineExpired(now) {
			logger.Warn("transition expiry before deadline rejected",
				"event", "transition_expiry_premature",
				"module", "matching-engine",
				"layer", "application",
				"distribution_id", dist.ID,
				"expires_at", dist.ExpiresAt.Format(time.RFC3339),
			)
			return dist, domainerrors.ErrInvalidTransition
		}

		expected := dist.Status
		dist.Status = target
		dist.UpdatedAt = now
		switch target {
		case entities.DistributionStatusViewed:
			dist.ViewedAt = &now
		case entities.DistributionStatusQuoted:
			dist.QuotedAt = &now
		case entities.DistributionStatusIgnored:
			dist.IgnoredAt = &now
			dist.IgnoreReason = strings.TrimSpace(reason)
		case entities.DistributionStatusExpired:
			dist.ExpiredAt = &now
		}

		if err := uc.Distributions.UpdateStatusIf(ctx, dist, expected); err != nil {
			if errors.Is(err, domainerrors.ErrStaleDistribution) {
				logger.Warn("transition hit stale write, re-reading",
					"event", "transition_stale_write",
					"module", "matching-engine",
					"layer", "application",
					"distribution_id", dist.ID,
					"target_status", string(target),
					"attempt", attempt+1,
				)
				continue
			}
			return entities.Distribution{}, err
		}

		uc.emitTransition(ctx, dist, target, now)
		return dist, nil
	}
	return entities.Distribution{}, domainerrors.ErrStaleDistribution
}

// emitTransition appends the notification envelope and analytics event for a
// committed transition. Neither may fail the transition itself: the outbox
// append shares the repository but a failure here leaves a committed, valid
// state behind, so it is logged and swallowed alongside analytics.
func (uc UseCase) emitTransition(
	ctx context.Context,
	dist entities.Distribution,
	target entities.DistributionStatus,
	occurredAt time.Time,
) {
	logger := application.ResolveLogger(uc.Logger)

	elapsed := int64(occurredAt.Sub(dist.CreatedAt).Seconds())
	payload := map[string]any{
		"application_id":  dist.ApplicationID,
		"company_id":      dist.CompanyID,
		"distribution_id": dist.ID,
		"match_score":     dist.MatchScore.String(),
		"elapsed_seconds": elapsed,
	}

	var outboxType string
	var analyticsType entities.AnalyticsEventType
	switch target {
	case entities.DistributionStatusViewed:
		outboxType = "distribution.viewed"
		analyticsType = entities.AnalyticsEventViewed
	case entities.DistributionStatusQuoted:
		outboxType = "quote.submitted"
		analyticsType = entities.AnalyticsEventQuoted
	case entities.DistributionStatusIgnored:
		outboxType = "distribution.ignored"
		analyticsType = entities.AnalyticsEventIgnored
		payload["reason"] = dist.IgnoreReason
	case entities.DistributionStatusExpired:
		outboxType = "application.expired"
		analyticsType = entities.AnalyticsEventExpired
	default:
		return
	}

	if err := uc.appendOutbox(ctx, outboxType, dist.ApplicationID, payload); err != nil {
		logger.Error("transition outbox append failed",
			"event", "transition_outbox_append_failed",
			"module", "matching-engine",
			"layer", "application",
			"distribution_id", dist.ID,
			"event_type", outboxType,
			"error", err.Error(),
		)
	}
	uc.Recorder.Record(ctx, analyticsType, dist.ApplicationID, dist.CompanyID, dist.ID, payload)

	logger.Info("distribution transitioned",
		"event", "distribution_transitioned",
		"module", "matching-engine",
		"layer", "application",
		"distribution_id", dist.ID,
		"application_id", dist.ApplicationID,
		"company_id", dist.CompanyID,
		"status", string(target),
		"elapsed_seconds", elapsed,
	)
}
