package integration

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/uxinsight/backend/internal/domain/shared"
)

// ---------------------------------------------------------------------------
// Integration Errors
// ---------------------------------------------------------------------------

var (
	ErrIntegrationNotFound     = shared.NewDomainError(shared.CodeNotFound, "Integration not found")
	ErrAlreadySyncing          = shared.NewDomainError(shared.CodeAlreadySyncing, "Integration already syncing")
	ErrSyncLockNotAcquired     = shared.NewDomainError(shared.CodeAlreadySyncing, "Integration is locked by another operation")
	ErrInvalidProviderType     = shared.NewDomainError(shared.CodeInvalidInput, "Invalid integration type")
	ErrInvalidStatus           = shared.NewDomainError(shared.CodeInvalidInput, "Invalid integration status")
	ErrInvalidName             = shared.NewDomainError(shared.CodeInvalidInput, "Integration name is required")
	ErrInvalidOwner            = shared.NewDomainError(shared.CodeInvalidInput, "Integration owner is required")
	ErrIntegrationQuota        = shared.NewDomainError(shared.CodeQuotaExceeded, "Integration limit reached for this account")
	ErrConnectionTestFailed    = shared.NewDomainError(shared.CodeConnectionFailed, "Connection test failed")
	ErrWebhookInvalidStatus    = shared.NewDomainError(shared.CodeInvalidInput, "status_change webhook carries an invalid data.status")
	ErrWebhookInvalidType      = shared.NewDomainError(shared.CodeInvalidInput, "Invalid webhook type")
	ErrWebhookInvalidTimestamp = shared.NewDomainError(shared.CodeInvalidInput, "Invalid webhook timestamp")
)

// ---------------------------------------------------------------------------
// Status represents the sync lifecycle state of an integration
// ---------------------------------------------------------------------------

// Status represents the sync lifecycle state of an integration
type Status string

const (
	// StatusActive means the last sync succeeded or no sync has failed yet
	StatusActive Status = "ACTIVE"
	// StatusInactive means the user paused the integration
	StatusInactive Status = "INACTIVE"
	// StatusError means the last sync or connection test failed
	StatusError Status = "ERROR"
	// StatusSyncing means a sync is in flight
	StatusSyncing Status = "SYNCING"
)

// IsValid returns true if the status is valid
func (s Status) IsValid() bool {
	switch s {
	case StatusActive, StatusInactive, StatusError, StatusSyncing:
		return true
	default:
		return false
	}
}

// String returns the string representation of Status
func (s Status) String() string {
	return string(s)
}

// IsReadyForSync returns true for statuses a scheduled sync should pick up
func (s Status) IsReadyForSync() bool {
	return s == StatusActive || s == StatusError
}

// ---------------------------------------------------------------------------
// Config
// ---------------------------------------------------------------------------

// Config is the opaque per-provider configuration stored with an integration.
// Adapters convert it into their typed configuration at construction time.
type Config map[string]any

// Has reports whether key is present with a non-null value
func (c Config) Has(key string) bool {
	v, ok := c[key]
	return ok && v != nil
}

// String returns the value at key when it is a string
func (c Config) String(key string) string {
	if s, ok := c[key].(string); ok {
		return s
	}
	return ""
}

// Clone returns a shallow copy
func (c Config) Clone() Config {
	if c == nil {
		return nil
	}
	out := make(Config, len(c))
	for k, v := range c {
		out[k] = v
	}
	return out
}

// ---------------------------------------------------------------------------
// Integration Aggregate
// ---------------------------------------------------------------------------

// Integration is a configured connection to one external provider, owned by one user
type Integration struct {
	shared.BaseEntity
	// UserID is the owner of this integration
	UserID uuid.UUID
	// Type is the provider behind this integration
	Type ProviderType
	// Name is the user-facing label
	Name string
	// Config holds provider credentials and options
	Config Config
	// Status is the current lifecycle state
	Status Status
	// LastSync is when data was last pulled successfully
	LastSync *time.Time
}

// NewIntegration creates a new ACTIVE integration
func NewIntegration(userID uuid.UUID, providerType ProviderType, name string, config Config) (*Integration, error) {
	if userID == uuid.Nil {
		return nil, ErrInvalidOwner
	}
	if !providerType.IsValid() {
		return nil, ErrInvalidProviderType
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrInvalidName
	}
	if config == nil {
		config = Config{}
	}

	return &Integration{
		BaseEntity: shared.NewBaseEntity(),
		UserID:     userID,
		Type:       providerType,
		Name:       name,
		Config:     config,
		Status:     StatusActive,
	}, nil
}

// IsOwnedBy returns true if the user owns this integration
func (i *Integration) IsOwnedBy(userID uuid.UUID) bool {
	return i.UserID == userID
}

// Rename changes the display name
func (i *Integration) Rename(name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return ErrInvalidName
	}
	i.Name = name
	i.Touch()
	return nil
}

// ReplaceConfig swaps the stored configuration
func (i *Integration) ReplaceConfig(config Config) {
	if config == nil {
		config = Config{}
	}
	i.Config = config
	i.Touch()
}

// SetStatus applies an explicit status change from a user edit or webhook
func (i *Integration) SetStatus(status Status) error {
	if !status.IsValid() {
		return ErrInvalidStatus
	}
	i.Status = status
	i.Touch()
	return nil
}

// BeginSync moves the integration into SYNCING.
// A sync already in flight is rejected unless force is set.
func (i *Integration) BeginSync(force bool) error {
	if i.Status == StatusSyncing && !force {
		return ErrAlreadySyncing
	}
	i.Status = StatusSyncing
	i.Touch()
	return nil
}

// CompleteSync records a successful sync
func (i *Integration) CompleteSync(at time.Time) {
	i.Status = StatusActive
	i.LastSync = &at
	i.Touch()
}

// FailSync records a failed sync or connection test
func (i *Integration) FailSync() {
	i.Status = StatusError
	i.Touch()
}

// MarkDataUpdated stamps the last sync time without changing status
func (i *Integration) MarkDataUpdated(at time.Time) {
	i.LastSync = &at
	i.Touch()
}

// ---------------------------------------------------------------------------
// ProjectIntegration
// ---------------------------------------------------------------------------

// ProjectIntegration links an integration to a user project
type ProjectIntegration struct {
	ID            uuid.UUID
	ProjectID     uuid.UUID
	IntegrationID uuid.UUID
	CreatedAt     time.Time
}

// NewProjectIntegration creates a new association
func NewProjectIntegration(projectID, integrationID uuid.UUID) *ProjectIntegration {
	return &ProjectIntegration{
		ID:            uuid.New(),
		ProjectID:     projectID,
		IntegrationID: integrationID,
		CreatedAt:     time.Now().UTC(),
	}
}
