package integration

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/uxinsight/backend/internal/domain/integration"
	"github.com/uxinsight/backend/internal/domain/shared"
)

const (
	// DefaultCandidateLimit caps the scheduled-sync candidate listing
	DefaultCandidateLimit = 50
	// DefaultWebhookLogLimit caps the webhook log listing
	DefaultWebhookLogLimit = 50
	// DetailLogLimit is the number of log entries returned with a single integration
	DetailLogLimit = 10
)

// ServiceConfig contains configuration for the integration service
type ServiceConfig struct {
	MaxIntegrationsPerUser int // 0 means unlimited
	CandidateLimit         int // Default size of the scheduled-sync candidate listing
}

// DefaultServiceConfig returns default configuration
func DefaultServiceConfig() ServiceConfig {
	return ServiceConfig{
		MaxIntegrationsPerUser: 0,
		CandidateLimit:         DefaultCandidateLimit,
	}
}

// IntegrationService manages the lifecycle of user integrations
type IntegrationService struct {
	repo      integration.IntegrationRepository
	logs      integration.IntegrationLogRepository
	projects  integration.ProjectIntegrationRepository
	factory   integration.AdapterFactory
	validator *integration.ConfigValidator
	locker    integration.SyncLocker
	archiver  ExportArchiver
	config    ServiceConfig
	logger    *zap.Logger
	now       func() time.Time
}

// NewIntegrationService creates a new integration service
func NewIntegrationService(
	repo integration.IntegrationRepository,
	logs integration.IntegrationLogRepository,
	projects integration.ProjectIntegrationRepository,
	factory integration.AdapterFactory,
	locker integration.SyncLocker,
	config ServiceConfig,
	logger *zap.Logger,
) *IntegrationService {
	if config.CandidateLimit <= 0 {
		config.CandidateLimit = DefaultCandidateLimit
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &IntegrationService{
		repo:      repo,
		logs:      logs,
		projects:  projects,
		factory:   factory,
		validator: integration.NewConfigValidator(),
		locker:    locker,
		config:    config,
		logger:    logger,
		now:       time.Now,
	}
}

// ---------------------------------------------------------------------------
// CRUD Operations
// ---------------------------------------------------------------------------

// Create validates the config and stores a new ACTIVE integration
func (s *IntegrationService) Create(ctx context.Context, userID uuid.UUID, req CreateIntegrationRequest) (*IntegrationResponse, error) {
	if err := s.validator.Check(req.Type, req.Config); err != nil {
		return nil, err
	}

	if s.config.MaxIntegrationsPerUser > 0 {
		count, err := s.repo.Count(ctx, integration.IntegrationFilter{UserID: &userID})
		if err != nil {
			return nil, err
		}
		if count >= int64(s.config.MaxIntegrationsPerUser) {
			s.logger.Warn("Integration quota reached",
				zap.String("user_id", userID.String()),
				zap.Int("limit", s.config.MaxIntegrationsPerUser))
			return nil, integration.ErrIntegrationQuota
		}
	}

	i, err := integration.NewIntegration(userID, req.Type, req.Name, req.Config)
	if err != nil {
		return nil, err
	}
	if err := s.repo.Save(ctx, i); err != nil {
		return nil, err
	}

	var links []integration.ProjectIntegration
	if req.ProjectID != nil && *req.ProjectID != uuid.Nil {
		link := integration.NewProjectIntegration(*req.ProjectID, i.ID)
		if err := s.projects.Save(ctx, link); err != nil {
			return nil, err
		}
		links = append(links, *link)
	}

	s.logger.Info("Integration created",
		zap.String("integration_id", i.ID.String()),
		zap.String("provider", i.Type.String()),
		zap.String("user_id", userID.String()))

	resp := ToIntegrationResponse(i, links)
	return &resp, nil
}

// List returns the owner's integrations, newest first
func (s *IntegrationService) List(ctx context.Context, userID uuid.UUID, filter ListIntegrationsFilter) ([]IntegrationResponse, error) {
	domainFilter := integration.IntegrationFilter{
		UserID:    &userID,
		SortBy:    filter.SortBy,
		SortOrder: filter.SortOrder,
	}
	if filter.Type != "" {
		t := integration.ProviderType(filter.Type)
		if !t.IsValid() {
			return nil, integration.ErrInvalidProviderType
		}
		domainFilter.Type = &t
	}
	if filter.Status != "" {
		st := integration.Status(filter.Status)
		if !st.IsValid() {
			return nil, integration.ErrInvalidStatus
		}
		domainFilter.Status = &st
	}

	items, err := s.repo.FindAll(ctx, domainFilter)
	if err != nil {
		return nil, err
	}
	return s.toResponses(ctx, items)
}

// Get returns one owned integration with its projects and latest log entries
func (s *IntegrationService) Get(ctx context.Context, userID, id uuid.UUID) (*IntegrationDetailResponse, error) {
	i, err := s.repo.FindByIDForUser(ctx, id, userID)
	if err != nil {
		return nil, err
	}
	links, err := s.projects.FindByIntegration(ctx, i.ID)
	if err != nil {
		return nil, err
	}
	logs, err := s.logs.FindRecent(ctx, i.ID, DetailLogLimit)
	if err != nil {
		return nil, err
	}
	return &IntegrationDetailResponse{
		IntegrationResponse: ToIntegrationResponse(i, links),
		Logs:                ToLogResponses(logs),
	}, nil
}

// Update applies a partial edit. A config change is revalidated and retested
// against the provider; a failed retest leaves the integration in ERROR.
func (s *IntegrationService) Update(ctx context.Context, userID, id uuid.UUID, req UpdateIntegrationRequest) (*IntegrationResponse, error) {
	current, err := s.repo.FindByIDForUser(ctx, id, userID)
	if err != nil {
		return nil, err
	}
	if req.Status != nil && (!req.Status.IsValid() || *req.Status == integration.StatusSyncing) {
		return nil, integration.ErrInvalidStatus
	}

	// The retest runs outside the lock; only the final write is serialized.
	retestFailed := false
	if req.Config != nil {
		if err := s.validator.Check(current.Type, req.Config); err != nil {
			return nil, err
		}
		if current.Type.IsSyncable() {
			if ok := s.retest(ctx, current.Type, req.Config); !ok {
				retestFailed = true
			}
		}
	}

	release, err := s.locker.Acquire(ctx, id)
	if err != nil {
		return nil, err
	}
	defer release()

	i, err := s.repo.FindByIDForUser(ctx, id, userID)
	if err != nil {
		return nil, err
	}
	if req.Name != nil {
		if err := i.Rename(*req.Name); err != nil {
			return nil, err
		}
	}
	if req.Config != nil {
		i.ReplaceConfig(req.Config)
	}
	if req.Status != nil {
		if err := i.SetStatus(*req.Status); err != nil {
			return nil, err
		}
	}
	if retestFailed {
		i.FailSync()
	}

	if err := s.repo.Save(ctx, i); err != nil {
		return nil, err
	}

	links, err := s.projects.FindByIntegration(ctx, i.ID)
	if err != nil {
		return nil, err
	}
	resp := ToIntegrationResponse(i, links)
	return &resp, nil
}

// retest builds an adapter from the new config and checks connectivity.
// Any failure, including a factory error, counts as a failed test.
func (s *IntegrationService) retest(ctx context.Context, providerType integration.ProviderType, config integration.Config) bool {
	adapter, err := s.factory.Create(providerType, config)
	if err != nil {
		s.logger.Warn("Integration retest could not build adapter",
			zap.String("provider", providerType.String()), zap.Error(err))
		return false
	}
	ok, err := adapter.TestConnection(ctx)
	if err != nil || !ok {
		s.logger.Warn("Integration retest failed",
			zap.String("provider", providerType.String()), zap.Error(err))
		return false
	}
	return true
}

// Delete removes an owned integration together with its associations and logs
func (s *IntegrationService) Delete(ctx context.Context, userID, id uuid.UUID) error {
	if _, err := s.repo.FindByIDForUser(ctx, id, userID); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.logger.Info("Integration deleted", zap.String("integration_id", id.String()))
	return nil
}

// ---------------------------------------------------------------------------
// Queries
// ---------------------------------------------------------------------------

// SyncStatus returns the sync snapshot of an owned integration
func (s *IntegrationService) SyncStatus(ctx context.Context, userID, id uuid.UUID) (*SyncStatusResponse, error) {
	i, err := s.repo.FindByIDForUser(ctx, id, userID)
	if err != nil {
		return nil, err
	}
	return &SyncStatusResponse{
		ID:          i.ID,
		Status:      i.Status,
		LastSync:    i.LastSync,
		LastUpdated: i.UpdatedAt,
	}, nil
}

// RecentLogs returns the newest log entries of an owned integration
func (s *IntegrationService) RecentLogs(ctx context.Context, userID, id uuid.UUID, limit int) ([]LogResponse, error) {
	if _, err := s.repo.FindByIDForUser(ctx, id, userID); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = DefaultWebhookLogLimit
	}
	logs, err := s.logs.FindRecent(ctx, id, limit)
	if err != nil {
		return nil, err
	}
	return ToLogResponses(logs), nil
}

// Candidates lists integrations eligible for the next scheduled sync.
// SYNCING integrations are never listed; the never-synced and oldest-synced come first.
func (s *IntegrationService) Candidates(ctx context.Context, filter CandidateFilter) (*CandidatesResponse, error) {
	domainFilter := integration.IntegrationFilter{
		ExcludeSyncing:  true,
		OldestSyncFirst: true,
		Limit:           filter.Limit,
	}
	if domainFilter.Limit <= 0 {
		domainFilter.Limit = s.config.CandidateLimit
	}
	if filter.Type != "" {
		t := integration.ProviderType(filter.Type)
		if !t.IsValid() {
			return nil, integration.ErrInvalidProviderType
		}
		domainFilter.Type = &t
	}
	if filter.Status != "" {
		st := integration.Status(filter.Status)
		if !st.IsValid() {
			return nil, integration.ErrInvalidStatus
		}
		domainFilter.Status = &st
	}

	items, err := s.repo.FindAll(ctx, domainFilter)
	if err != nil {
		return nil, err
	}

	ready := 0
	for _, i := range items {
		if i.Status.IsReadyForSync() {
			ready++
		}
	}
	responses, err := s.toResponses(ctx, items)
	if err != nil {
		return nil, err
	}
	return &CandidatesResponse{
		Integrations: responses,
		Total:        len(items),
		ReadyForSync: ready,
	}, nil
}

// CountByStatus reports how many integrations are in each status
func (s *IntegrationService) CountByStatus(ctx context.Context) (map[string]int64, error) {
	counts := make(map[string]int64, 4)
	for _, st := range []integration.Status{
		integration.StatusActive, integration.StatusInactive,
		integration.StatusError, integration.StatusSyncing,
	} {
		n, err := s.repo.Count(ctx, integration.IntegrationFilter{Status: &st})
		if err != nil {
			return nil, err
		}
		counts[st.String()] = n
	}
	return counts, nil
}

// Providers lists the supported provider types and their required config keys
func (s *IntegrationService) Providers() []ProviderInfo {
	types := integration.AllProviderTypes()
	out := make([]ProviderInfo, len(types))
	for idx, t := range types {
		out[idx] = ProviderInfo{
			Type:         t,
			DisplayName:  t.DisplayName(),
			RequiredKeys: integration.RequiredKeys(t),
			Syncable:     t.IsSyncable(),
		}
	}
	return out
}

// ---------------------------------------------------------------------------
// Provider Operations
// ---------------------------------------------------------------------------

// TestConfig checks an unsaved config against its provider and fetches a
// same-day sample. Nothing is persisted.
func (s *IntegrationService) TestConfig(ctx context.Context, req TestIntegrationRequest) (*TestIntegrationResponse, error) {
	if err := s.validator.Check(req.Type, req.Config); err != nil {
		return nil, err
	}

	adapter, err := s.factory.Create(req.Type, req.Config)
	if err != nil {
		return nil, err
	}

	ok, err := adapter.TestConnection(ctx)
	if err != nil {
		return nil, connectionError("Integration connection failed", err)
	}
	if !ok {
		return nil, integration.ErrConnectionTestFailed.WithMessage("Integration connection failed")
	}

	window := integration.Today(s.now())
	sample, err := adapter.FetchData(ctx, &window)
	if err != nil {
		return nil, connectionError("Integration test failed", err)
	}

	return &TestIntegrationResponse{
		Success:    true,
		Message:    "Integration test successful",
		Type:       req.Type,
		SampleData: sample,
	}, nil
}

// RunAction executes a provider-specific action on an owned integration
func (s *IntegrationService) RunAction(ctx context.Context, userID, id uuid.UUID, action string, params map[string]any) (any, error) {
	i, err := s.repo.FindByIDForUser(ctx, id, userID)
	if err != nil {
		return nil, err
	}
	adapter, err := s.factory.Create(i.Type, i.Config)
	if err != nil {
		return nil, err
	}
	actions, ok := adapter.(integration.ActionAdapter)
	if !ok {
		return nil, fmt.Errorf("%w: %s has no actions", integration.ErrProviderActionNotFound, i.Type)
	}
	if params == nil {
		params = map[string]any{}
	}

	s.logger.Info("Running provider action",
		zap.String("integration_id", i.ID.String()),
		zap.String("provider", i.Type.String()),
		zap.String("action", action))

	return actions.RunAction(ctx, action, params)
}

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

func (s *IntegrationService) toResponses(ctx context.Context, items []integration.Integration) ([]IntegrationResponse, error) {
	out := make([]IntegrationResponse, len(items))
	for idx := range items {
		links, err := s.projects.FindByIntegration(ctx, items[idx].ID)
		if err != nil {
			return nil, err
		}
		out[idx] = ToIntegrationResponse(&items[idx], links)
	}
	return out, nil
}

// connectionError wraps a provider failure as a CONNECTION_FAILED domain error
// carrying the provider message.
func connectionError(prefix string, err error) error {
	var domainErr *shared.DomainError
	if errors.As(err, &domainErr) {
		return err
	}
	return integration.ErrConnectionTestFailed.WithMessage(fmt.Sprintf("%s: %s", prefix, err.Error()))
}
