package memory_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"meridian/internal/matching/adapters/memory"
	"meridian/internal/matching/domain/entities"
	domainerrors "meridian/internal/matching/domain/errors"
)

func pendingDistribution(id string) entities.Distribution {
	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	return entities.Distribution{
		ID:            id,
		ApplicationID: "app-1",
		CompanyID:     "company-" + id,
		Status:        entities.DistributionStatusPending,
		CreatedAt:     now,
		ExpiresAt:     now.Add(7 * 24 * time.Hour),
		UpdatedAt:     now,
	}
}

func TestCreateDistributionsRejectsDuplicatePair(t *testing.T) {
	store := memory.NewStore(nil, nil)
	ctx := context.Background()

	if err := store.CreateDistributions(ctx, []entities.Distribution{pendingDistribution("d1")}); err != nil {
		t.Fatalf("create failed: %v", err)
	}

	dup := pendingDistribution("d2")
	dup.CompanyID = "company-d1"
	err := store.CreateDistributions(ctx, []entities.Distribution{pendingDistribution("d3"), dup})
	if !errors.Is(err, domainerrors.ErrDistributionExists) {
		t.Fatalf("expected duplicate pair rejection, got %v", err)
	}

	// All-or-nothing: the non-conflicting row of the failed batch is absent.
	if _, err := store.GetDistribution(ctx, "d3"); !errors.Is(err, domainerrors.ErrDistributionNotFound) {
		t.Fatalf("expected d3 absent after failed batch, got %v", err)
	}
}

func TestUpdateStatusIfDetectsStaleWrite(t *testing.T) {
	store := memory.NewStore(nil, nil)
	ctx := context.Background()

	dist := pendingDistribution("d1")
	if err := store.CreateDistributions(ctx, []entities.Distribution{dist}); err != nil {
		t.Fatalf("create failed: %v", err)
	}

	viewed := dist
	viewed.Status = entities.DistributionStatusViewed
	if err := store.UpdateStatusIf(ctx, viewed, entities.DistributionStatusPending); err != nil {
		t.Fatalf("first update failed: %v", err)
	}

	quoted := dist
	quoted.Status = entities.DistributionStatusQuoted
	err := store.UpdateStatusIf(ctx, quoted, entities.DistributionStatusPending)
	if !errors.Is(err, domainerrors.ErrStaleDistribution) {
		t.Fatalf("expected stale write detection, got %v", err)
	}

	err = store.UpdateStatusIf(ctx, quoted, entities.DistributionStatusViewed)
	if err != nil {
		t.Fatalf("update with fresh expectation failed: %v", err)
	}
}

func TestCapacityReserveAndRelease(t *testing.T) {
	store := memory.NewStore(nil, nil)
	ctx := context.Background()
	day := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

	ok, err := store.Reserve(ctx, "company-a", day, 1)
	if err != nil || !ok {
		t.Fatalf("first reserve should succeed, got ok=%v err=%v", ok, err)
	}
	ok, err = store.Reserve(ctx, "company-a", day, 1)
	if err != nil || ok {
		t.Fatalf("second reserve should hit the cap, got ok=%v err=%v", ok, err)
	}

	if err := store.Release(ctx, "company-a", day); err != nil {
		t.Fatalf("release failed: %v", err)
	}
	ok, err = store.Reserve(ctx, "company-a", day, 1)
	if err != nil || !ok {
		t.Fatalf("reserve after release should succeed, got ok=%v err=%v", ok, err)
	}

	// A different day has its own counter.
	ok, err = store.Reserve(ctx, "company-a", day.Add(24*time.Hour), 1)
	if err != nil || !ok {
		t.Fatalf("next-day reserve should succeed, got ok=%v err=%v", ok, err)
	}

	// Zero limit means unlimited.
	for i := 0; i < 3; i++ {
		ok, err = store.Reserve(ctx, "company-b", day, 0)
		if err != nil || !ok {
			t.Fatalf("unlimited reserve should succeed, got ok=%v err=%v", ok, err)
		}
	}
}
