package integration

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"github.com/uxinsight/backend/internal/domain/integration"
)

// memIntegrationRepo is an in-memory IntegrationRepository
type memIntegrationRepo struct {
	mu    sync.Mutex
	items map[uuid.UUID]integration.Integration
	// casRejects forces TryBeginSync to report a lost race
	casRejects bool
}

func newMemIntegrationRepo(items ...*integration.Integration) *memIntegrationRepo {
	r := &memIntegrationRepo{items: make(map[uuid.UUID]integration.Integration)}
	for _, i := range items {
		r.items[i.ID] = *i
	}
	return r
}

func (r *memIntegrationRepo) Save(_ context.Context, i *integration.Integration) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *i
	cp.Config = i.Config.Clone()
	r.items[i.ID] = cp
	return nil
}

func (r *memIntegrationRepo) FindByID(_ context.Context, id uuid.UUID) (*integration.Integration, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	i, ok := r.items[id]
	if !ok {
		return nil, integration.ErrIntegrationNotFound
	}
	return &i, nil
}

func (r *memIntegrationRepo) FindByIDForUser(ctx context.Context, id, userID uuid.UUID) (*integration.Integration, error) {
	i, err := r.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !i.IsOwnedBy(userID) {
		return nil, integration.ErrIntegrationNotFound
	}
	return i, nil
}

func (r *memIntegrationRepo) matching(filter integration.IntegrationFilter) []integration.Integration {
	out := make([]integration.Integration, 0)
	for _, i := range r.items {
		if filter.UserID != nil && i.UserID != *filter.UserID {
			continue
		}
		if filter.Type != nil && i.Type != *filter.Type {
			continue
		}
		if filter.Status != nil && i.Status != *filter.Status {
			continue
		}
		if filter.ExcludeSyncing && i.Status == integration.StatusSyncing {
			continue
		}
		out = append(out, i)
	}
	return out
}

func (r *memIntegrationRepo) FindAll(_ context.Context, filter integration.IntegrationFilter) ([]integration.Integration, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := r.matching(filter)
	if filter.OldestSyncFirst {
		sort.Slice(out, func(a, b int) bool {
			la, lb := out[a].LastSync, out[b].LastSync
			switch {
			case la == nil:
				return lb != nil
			case lb == nil:
				return false
			default:
				return la.Before(*lb)
			}
		})
	} else {
		sort.Slice(out, func(a, b int) bool { return out[a].CreatedAt.After(out[b].CreatedAt) })
	}
	if filter.Limit > 0 && len(out) > filter.Limit {
		out = out[:filter.Limit]
	}
	return out, nil
}

func (r *memIntegrationRepo) Count(_ context.Context, filter integration.IntegrationFilter) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return int64(len(r.matching(filter))), nil
}

func (r *memIntegrationRepo) TryBeginSync(_ context.Context, id uuid.UUID, force bool) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.casRejects {
		return false, nil
	}
	i, ok := r.items[id]
	if !ok {
		return false, nil
	}
	if !force && i.Status == integration.StatusSyncing {
		return false, nil
	}
	i.Status = integration.StatusSyncing
	r.items[id] = i
	return true, nil
}

func (r *memIntegrationRepo) Delete(_ context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.items[id]; !ok {
		return integration.ErrIntegrationNotFound
	}
	delete(r.items, id)
	return nil
}

func (r *memIntegrationRepo) get(id uuid.UUID) integration.Integration {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.items[id]
}

// memLogRepo is an in-memory IntegrationLogRepository
type memLogRepo struct {
	mu      sync.Mutex
	entries []integration.IntegrationLog
}

func (r *memLogRepo) Append(_ context.Context, l *integration.IntegrationLog) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append(r.entries, *l)
	return nil
}

func (r *memLogRepo) FindRecent(_ context.Context, id uuid.UUID, limit int) ([]integration.IntegrationLog, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]integration.IntegrationLog, 0)
	for _, l := range r.entries {
		if l.IntegrationID == id {
			out = append(out, l)
		}
	}
	sort.SliceStable(out, func(a, b int) bool { return out[a].Timestamp.After(out[b].Timestamp) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *memLogRepo) forIntegration(id uuid.UUID) []integration.IntegrationLog {
	out, _ := r.FindRecent(context.Background(), id, 0)
	return out
}

// memProjectRepo is an in-memory ProjectIntegrationRepository
type memProjectRepo struct {
	mu    sync.Mutex
	links []integration.ProjectIntegration
}

func (r *memProjectRepo) Save(_ context.Context, l *integration.ProjectIntegration) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.links = append(r.links, *l)
	return nil
}

func (r *memProjectRepo) FindByIntegration(_ context.Context, id uuid.UUID) ([]integration.ProjectIntegration, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]integration.ProjectIntegration, 0)
	for _, l := range r.links {
		if l.IntegrationID == id {
			out = append(out, l)
		}
	}
	return out, nil
}

// MockAdapterFactory is a mock implementation of AdapterFactory
type MockAdapterFactory struct {
	mock.Mock
}

func (m *MockAdapterFactory) Create(t integration.ProviderType, cfg integration.Config) (integration.Adapter, error) {
	args := m.Called(t, cfg)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(integration.Adapter), args.Error(1)
}

// MockAdapter is a mock implementation of Adapter
type MockAdapter struct {
	mock.Mock
	providerType integration.ProviderType
}

func (m *MockAdapter) Type() integration.ProviderType {
	return m.providerType
}

func (m *MockAdapter) TestConnection(ctx context.Context) (bool, error) {
	args := m.Called(ctx)
	return args.Bool(0), args.Error(1)
}

func (m *MockAdapter) FetchData(ctx context.Context, window *integration.DateRange) (integration.ProviderData, error) {
	args := m.Called(ctx, window)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(integration.ProviderData), args.Error(1)
}

// stubData is a ProviderData with a fixed number of top-level keys
type stubData map[string]any

func (d stubData) DataPoints() int { return len(d) }
