package integration

import (
	"context"

	"github.com/google/uuid"
)

// ---------------------------------------------------------------------------
// Filters
// ---------------------------------------------------------------------------

// IntegrationFilter defines filter criteria for integration queries
type IntegrationFilter struct {
	// UserID restricts results to one owner; nil means all owners
	UserID *uuid.UUID
	// Type filter
	Type *ProviderType
	// Status filter
	Status *Status
	// ExcludeSyncing drops integrations with a sync in flight
	ExcludeSyncing bool
	// OldestSyncFirst orders by last sync ascending (never-synced first) and overrides SortBy
	OldestSyncFirst bool
	// SortBy is a client sort key such as "name" or "lastSync"; unknown keys sort by creation time
	SortBy string
	// SortOrder is "asc" or "desc" (default)
	SortOrder string
	// Limit caps the result size; 0 means unlimited
	Limit int
}

// ---------------------------------------------------------------------------
// Repository Interfaces
// ---------------------------------------------------------------------------

// IntegrationRepository defines the interface for persisting integrations
type IntegrationRepository interface {
	// Save creates or updates an integration
	Save(ctx context.Context, integration *Integration) error

	// FindByID finds an integration by ID
	FindByID(ctx context.Context, id uuid.UUID) (*Integration, error)

	// FindByIDForUser finds an integration by ID scoped to its owner.
	// Returns ErrIntegrationNotFound when it exists but belongs to someone else.
	FindByIDForUser(ctx context.Context, id, userID uuid.UUID) (*Integration, error)

	// FindAll finds integrations matching the filter
	FindAll(ctx context.Context, filter IntegrationFilter) ([]Integration, error)

	// Count counts integrations matching the filter, ignoring Limit
	Count(ctx context.Context, filter IntegrationFilter) (int64, error)

	// TryBeginSync atomically moves the integration to SYNCING.
	// Without force the update only applies when the stored status is not SYNCING.
	// Returns false when the guard rejected the transition.
	TryBeginSync(ctx context.Context, id uuid.UUID, force bool) (bool, error)

	// Delete removes the integration after its project associations and logs
	Delete(ctx context.Context, id uuid.UUID) error
}

// IntegrationLogRepository defines the interface for the append-only integration log
type IntegrationLogRepository interface {
	// Append stores a new log entry
	Append(ctx context.Context, log *IntegrationLog) error

	// FindRecent returns the newest entries for an integration, newest first
	FindRecent(ctx context.Context, integrationID uuid.UUID, limit int) ([]IntegrationLog, error)
}

// ProjectIntegrationRepository defines the interface for project associations
type ProjectIntegrationRepository interface {
	// Save stores an association
	Save(ctx context.Context, link *ProjectIntegration) error

	// FindByIntegration lists the projects linked to an integration
	FindByIntegration(ctx context.Context, integrationID uuid.UUID) ([]ProjectIntegration, error)
}
