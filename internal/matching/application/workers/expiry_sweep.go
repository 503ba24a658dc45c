package workers

import (
	"context"
	"errors"
	"log/slog"
	"time"

	application "meridian/internal/matching/application"
	"meridian/internal/matching/application/commands"
	domainerrors "meridian/internal/matching/domain/errors"
	"meridian/internal/matching/ports"
)

// ExpirySweep periodically expires distributions past their deadline. It may
// run concurrently with user-driven transitions on the same distribution;
// every expiry goes through the guarded compare-and-swap transition, so a
// race simply shows up as an already-handled row here.
type ExpirySweep struct {
	Commands      commands.UseCase
	Distributions ports.Repository
	Clock         ports.Clock
	BatchSize     int
	Logger        *slog.Logger
}

func (j ExpirySweep) RunOnce(ctx context.Context) (int, error) {
	logger := application.ResolveLogger(j.Logger)
	now := time.Now().UTC()
	if j.Clock != nil {
		now = j.Clock.Now().UTC()
	}
	limit := j.BatchSize
	if limit <= 0 {
		limit = 100
	}

	due, err := j.Distributions.ListExpirable(ctx, now, limit)
	if err != nil {
		logger.Error("expiry sweep listing failed",
			"event", "expiry_sweep_list_failed",
			"module", "matching-engine",
			"layer", "worker",
			"error", err.Error(),
		)
		return 0, err
	}

	expired := 0
	for _, dist := range due {
		if _, err := j.Commands.Expire(ctx, dist.ID); err != nil {
			if errors.Is(err, domainerrors.ErrInvalidTransition) ||
				errors.Is(err, domainerrors.ErrStaleDistribution) {
				// A user transition won the race; nothing left to do here.
				continue
			}
			logger.Error("expiry sweep transition failed",
				"event", "expiry_sweep_transition_failed",
				"module", "matching-engine",
				"layer", "worker",
				"distribution_id", dist.ID,
				"error", err.Error(),
			)
			return expired, err
		}
		expired++
	}

	if expired > 0 {
		logger.Info("expiry sweep completed",
			"event", "expiry_sweep_completed",
			"module", "matching-engine",
			"layer", "worker",
			"expired_count", expired,
			"due_count", len(due),
		)
	}
	return expired, nil
}
