package memory

import (
	"context"
	"encoding/json"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"meridian/internal/matching/domain/entities"
	domainerrors "meridian/internal/matching/domain/errors"
	"meridian/internal/matching/ports"
)

type outboxRecord struct {
	OutboxID     string
	EventType    string
	PartitionKey string
	Payload      []byte
	CreatedAt    time.Time
	PublishedAt  *time.Time
}

// Store is the in-memory adapter backing every port of the matching engine.
// It doubles as the deterministic clock for tests.
type Store struct {
	mu sync.RWMutex

	now           time.Time
	applications  map[string]entities.Application
	companies     []entities.CompanyProfile
	distributions map[string]entities.Distribution
	pairIndex     map[string]string // applicationID|companyID -> distributionID
	events        []entities.AnalyticsEvent
	capacity      map[string]int
	outbox        map[string]outboxRecord
}

func NewStore(applications []entities.Application, companies []entities.CompanyProfile) *Store {
	apps := make(map[string]entities.Application, len(applications))
	for _, app := range applications {
		apps[app.ID] = app
	}
	return &Store{
		now:           time.Now().UTC(),
		applications:  apps,
		companies:     append([]entities.CompanyProfile(nil), companies...),
		distributions: make(map[string]entities.Distribution),
		pairIndex:     make(map[string]string),
		capacity:      make(map[string]int),
		outbox:        make(map[string]outboxRecord),
	}
}

// SetNow pins the store clock; AdvanceClock moves it forward. Both exist for
// deadline and sweep tests.
func (s *Store) SetNow(now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now = now.UTC()
}

func (s *Store) AdvanceClock(d time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now = s.now.Add(d)
}

func (s *Store) Now() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.now
}

func (s *Store) NewID(_ context.Context) (string, error) {
	return uuid.NewString(), nil
}

func (s *Store) SeedApplication(app entities.Application) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.applications[app.ID] = app
}

func (s *Store) SeedCompanies(companies ...entities.CompanyProfile) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.companies = append(s.companies, companies...)
}

func (s *Store) GetApplication(_ context.Context, applicationID string) (entities.Application, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	app, ok := s.applications[strings.TrimSpace(applicationID)]
	if !ok {
		return entities.Application{}, domainerrors.ErrApplicationNotFound
	}
	return app, nil
}

func (s *Store) ListCompanies(_ context.Context) ([]entities.CompanyProfile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]entities.CompanyProfile(nil), s.companies...), nil
}

func (s *Store) GetCompany(_ context.Context, companyID string) (entities.CompanyProfile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, company := range s.companies {
		if company.ID == strings.TrimSpace(companyID) {
			return company, nil
		}
	}
	return entities.CompanyProfile{}, domainerrors.ErrCompanyNotFound
}

func (s *Store) CreateDistributions(_ context.Context, distributions []entities.Distribution) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, dist := range distributions {
		if strings.TrimSpace(dist.ID) == "" ||
			strings.TrimSpace(dist.ApplicationID) == "" ||
			strings.TrimSpace(dist.CompanyID) == "" {
			return domainerrors.ErrInvalidDistributionInput
		}
		key := pairKey(dist.ApplicationID, dist.CompanyID)
		if _, exists := s.pairIndex[key]; exists {
			return domainerrors.ErrDistributionExists
		}
		if _, exists := s.distributions[dist.ID]; exists {
			return domainerrors.ErrDistributionExists
		}
	}
	for _, dist := range distributions {
		s.distributions[dist.ID] = dist
		s.pairIndex[pairKey(dist.ApplicationID, dist.CompanyID)] = dist.ID
	}
	return nil
}

func (s *Store) GetDistribution(_ context.Context, distributionID string) (entities.Distribution, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	dist, ok := s.distributions[strings.TrimSpace(distributionID)]
	if !ok {
		return entities.Distribution{}, domainerrors.ErrDistributionNotFound
	}
	return dist, nil
}

func (s *Store) ListByApplication(_ context.Context, applicationID string) ([]entities.Distribution, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	items := make([]entities.Distribution, 0)
	for _, dist := range s.distributions {
		if dist.ApplicationID == strings.TrimSpace(applicationID) {
			items = append(items, dist)
		}
	}
	sort.Slice(items, func(i, j int) bool {
		return items[i].MatchScore.GreaterThan(items[j].MatchScore)
	})
	return items, nil
}

func (s *Store) ListByCompany(_ context.Context, companyID string, limit int) ([]entities.Distribution, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if limit <= 0 {
		limit = 100
	}
	items := make([]entities.Distribution, 0)
	for _, dist := range s.distributions {
		if dist.CompanyID == strings.TrimSpace(companyID) {
			items = append(items, dist)
		}
	}
	sort.Slice(items, func(i, j int) bool {
		return items[i].CreatedAt.After(items[j].CreatedAt)
	})
	if len(items) > limit {
		items = items[:limit]
	}
	return items, nil
}

func (s *Store) UpdateStatusIf(
	_ context.Context,
	dist entities.Distribution,
	expected entities.DistributionStatus,
) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored, ok := s.distributions[dist.ID]
	if !ok {
		return domainerrors.ErrDistributionNotFound
	}
	if stored.Status != expected {
		return domainerrors.ErrStaleDistribution
	}
	s.distributions[dist.ID] = dist
	return nil
}

func (s *Store) ListExpirable(_ context.Context, now time.Time, limit int) ([]entities.Distribution, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if limit <= 0 {
		limit = 100
	}
	items := make([]entities.Distribution, 0)
	for _, dist := range s.distributions {
		if dist.IsTerminal() {
			continue
		}
		if !dist.DeadlineExpired(now) {
			continue
		}
		items = append(items, dist)
	}
	sort.Slice(items, func(i, j int) bool {
		return items[i].ExpiresAt.Before(items[j].ExpiresAt)
	})
	if len(items) > limit {
		items = items[:limit]
	}
	return items, nil
}

func (s *Store) AppendEvent(_ context.Context, event entities.AnalyticsEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, event)
	return nil
}

func (s *Store) CountEvents(
	ctx context.Context,
	eventType entities.AnalyticsEventType,
	scope ports.ReportScope,
) (int64, error) {
	events, err := s.ListEvents(ctx, scope)
	if err != nil {
		return 0, err
	}
	var count int64
	for _, event := range events {
		if event.EventType == eventType {
			count++
		}
	}
	return count, nil
}

func (s *Store) ListEvents(_ context.Context, scope ports.ReportScope) ([]entities.AnalyticsEvent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	items := make([]entities.AnalyticsEvent, 0, len(s.events))
	for _, event := range s.events {
		if scope.CompanyID != "" && event.CompanyID != scope.CompanyID {
			continue
		}
		if !scope.From.IsZero() && event.OccurredAt.Before(scope.From) {
			continue
		}
		if !scope.To.IsZero() && event.OccurredAt.After(scope.To) {
			continue
		}
		items = append(items, event)
	}
	sort.Slice(items, func(i, j int) bool {
		return items[i].OccurredAt.Before(items[j].OccurredAt)
	})
	return items, nil
}

func (s *Store) Reserve(_ context.Context, companyID string, day time.Time, limit int) (bool, error) {
	if limit <= 0 {
		return true, nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	key := capacityKey(companyID, day)
	if s.capacity[key] >= limit {
		return false, nil
	}
	s.capacity[key]++
	return true, nil
}

func (s *Store) Release(_ context.Context, companyID string, day time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := capacityKey(companyID, day)
	if s.capacity[key] > 0 {
		s.capacity[key]--
	}
	return nil
}

func (s *Store) AppendOutbox(_ context.Context, envelope ports.EventEnvelope) error {
	payload, err := json.Marshal(envelope)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.outbox[envelope.EventID]; exists {
		return nil
	}
	s.outbox[envelope.EventID] = outboxRecord{
		OutboxID:     envelope.EventID,
		EventType:    envelope.EventType,
		PartitionKey: envelope.PartitionKey,
		Payload:      payload,
		CreatedAt:    envelope.OccurredAt.UTC(),
	}
	return nil
}

func (s *Store) ListPendingOutbox(_ context.Context, limit int) ([]ports.OutboxMessage, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if limit <= 0 {
		limit = 100
	}
	items := make([]ports.OutboxMessage, 0)
	for _, record := range s.outbox {
		if record.PublishedAt != nil {
			continue
		}
		items = append(items, ports.OutboxMessage{
			OutboxID:     record.OutboxID,
			EventType:    record.EventType,
			PartitionKey: record.PartitionKey,
			Payload:      append([]byte(nil), record.Payload...),
			CreatedAt:    record.CreatedAt,
		})
	}
	sort.Slice(items, func(i, j int) bool {
		return items[i].CreatedAt.Before(items[j].CreatedAt)
	})
	if len(items) > limit {
		items = items[:limit]
	}
	return items, nil
}

func (s *Store) MarkOutboxPublished(_ context.Context, outboxID string, publishedAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	record, ok := s.outbox[strings.TrimSpace(outboxID)]
	if !ok {
		return domainerrors.ErrInvalidDistributionInput
	}
	at := publishedAt.UTC()
	record.PublishedAt = &at
	s.outbox[record.OutboxID] = record
	return nil
}

func pairKey(applicationID, companyID string) string {
	return strings.TrimSpace(applicationID) + "|" + strings.TrimSpace(companyID)
}

func capacityKey(companyID string, day time.Time) string {
	return strings.TrimSpace(companyID) + ":" + day.UTC().Format("2006-01-02")
}

var _ ports.Repository = (*Store)(nil)
var _ ports.ApplicationSource = (*Store)(nil)
var _ ports.CompanyDirectory = (*Store)(nil)
var _ ports.AnalyticsLog = (*Store)(nil)
var _ ports.CapacityStore = (*Store)(nil)
var _ ports.Clock = (*Store)(nil)
var _ ports.IDGenerator = (*Store)(nil)
var _ ports.OutboxWriter = (*Store)(nil)
var _ ports.OutboxRepository = (*Store)(nil)
