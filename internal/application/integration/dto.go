package integration

import (
	"time"

	"github.com/google/uuid"

	"github.com/uxinsight/backend/internal/domain/integration"
)

// ---------------------------------------------------------------------------
// Request DTOs
// ---------------------------------------------------------------------------

// CreateIntegrationRequest represents a request to connect a provider
type CreateIntegrationRequest struct {
	Type      integration.ProviderType `json:"type" binding:"required"`
	Name      string                   `json:"name" binding:"required,min=1,max=200"`
	Config    integration.Config       `json:"config" binding:"required"`
	ProjectID *uuid.UUID               `json:"projectId"`
}

// UpdateIntegrationRequest represents a partial update. Nil fields are left unchanged.
type UpdateIntegrationRequest struct {
	Name   *string             `json:"name" binding:"omitempty,min=1,max=200"`
	Config integration.Config  `json:"config"`
	Status *integration.Status `json:"status" binding:"omitempty,oneof=ACTIVE INACTIVE ERROR"`
}

// TestIntegrationRequest represents an unsaved config to try against its provider
type TestIntegrationRequest struct {
	Type   integration.ProviderType `json:"type" binding:"required"`
	Config integration.Config       `json:"config" binding:"required"`
}

// ListIntegrationsFilter narrows the owner's integration list
type ListIntegrationsFilter struct {
	Type      string `form:"type"`
	Status    string `form:"status"`
	SortBy    string `form:"sortBy" binding:"omitempty,oneof=createdAt updatedAt name type status lastSync"`
	SortOrder string `form:"sortOrder" binding:"omitempty,oneof=asc desc"`
}

// CandidateFilter narrows the scheduled-sync candidate listing
type CandidateFilter struct {
	Type   string `form:"type"`
	Status string `form:"status"`
	Limit  int    `form:"limit" binding:"omitempty,min=1,max=500"`
}

// BatchSyncRequest represents a scheduled-sync invocation
type BatchSyncRequest struct {
	IntegrationIDs []uuid.UUID `json:"integrationIds" binding:"required,min=1"`
	Force          bool        `json:"force"`
}

// WebhookEvent is an inbound provider notification
type WebhookEvent struct {
	IntegrationID uuid.UUID           `json:"integrationId" binding:"required"`
	Type          integration.LogType `json:"type" binding:"required"`
	Data          map[string]any      `json:"data"`
	Message       string              `json:"message"`
	Timestamp     string              `json:"timestamp"`
	// DeliveryID identifies a delivery across provider retries
	DeliveryID string `json:"deliveryId" binding:"omitempty,max=128"`
}

// RunActionRequest carries parameters for a provider-specific action
type RunActionRequest struct {
	Params map[string]any `json:"params"`
}

// ---------------------------------------------------------------------------
// Response DTOs
// ---------------------------------------------------------------------------

// IntegrationResponse represents an integration in API responses
type IntegrationResponse struct {
	ID        uuid.UUID                `json:"id"`
	UserID    uuid.UUID                `json:"userId"`
	Type      integration.ProviderType `json:"type"`
	Name      string                   `json:"name"`
	Config    integration.Config       `json:"config"`
	Status    integration.Status       `json:"status"`
	LastSync  *time.Time               `json:"lastSync"`
	CreatedAt time.Time                `json:"createdAt"`
	UpdatedAt time.Time                `json:"updatedAt"`
	Projects  []uuid.UUID              `json:"projects"`
}

// IntegrationDetailResponse adds the latest log entries to an integration
type IntegrationDetailResponse struct {
	IntegrationResponse
	Logs []LogResponse `json:"logs"`
}

// LogResponse represents one integration log entry
type LogResponse struct {
	ID            uuid.UUID           `json:"id"`
	IntegrationID uuid.UUID           `json:"integrationId"`
	Type          integration.LogType `json:"type"`
	Message       string              `json:"message"`
	Data          map[string]any      `json:"data"`
	Timestamp     time.Time           `json:"timestamp"`
}

// SyncStatusResponse is the sync snapshot of one integration
type SyncStatusResponse struct {
	ID          uuid.UUID          `json:"id"`
	Status      integration.Status `json:"status"`
	LastSync    *time.Time         `json:"lastSync"`
	LastUpdated time.Time          `json:"lastUpdated"`
}

// SyncResponse is returned by a single-id sync
type SyncResponse struct {
	Success  bool                     `json:"success"`
	Message  string                   `json:"message"`
	Data     integration.ProviderData `json:"data"`
	LastSync *time.Time               `json:"lastSync"`
}

// BatchItemResult is the isolated outcome of one id in a batch
type BatchItemResult struct {
	IntegrationID uuid.UUID `json:"integrationId"`
	Success       bool      `json:"success"`
	Message       string    `json:"message,omitempty"`
	DataPoints    int       `json:"dataPoints,omitempty"`
	Error         string    `json:"error,omitempty"`
}

// BatchSyncResponse is returned by a scheduled-sync invocation
type BatchSyncResponse struct {
	Success bool              `json:"success"`
	Message string            `json:"message"`
	Results []BatchItemResult `json:"results"`
}

// CandidatesResponse lists integrations eligible for the next scheduled sync
type CandidatesResponse struct {
	Integrations []IntegrationResponse `json:"integrations"`
	Total        int                   `json:"total"`
	ReadyForSync int                   `json:"readyForSync"`
}

// TestIntegrationResponse is returned by a successful connectivity check
type TestIntegrationResponse struct {
	Success    bool                     `json:"success"`
	Message    string                   `json:"message"`
	Type       integration.ProviderType `json:"type"`
	SampleData integration.ProviderData `json:"sampleData"`
}

// WebhookResponse acknowledges an accepted webhook. A duplicate delivery
// carries no log id.
type WebhookResponse struct {
	Success   bool       `json:"success"`
	Message   string     `json:"message"`
	LogID     *uuid.UUID `json:"logId,omitempty"`
	Duplicate bool       `json:"duplicate,omitempty"`
}

// ProviderInfo describes a supported provider type
type ProviderInfo struct {
	Type         integration.ProviderType `json:"type"`
	DisplayName  string                   `json:"displayName"`
	RequiredKeys []string                 `json:"requiredKeys"`
	Syncable     bool                     `json:"syncable"`
}

// ---------------------------------------------------------------------------
// Export
// ---------------------------------------------------------------------------

// ExportVersion is the version stamped on every export document
const ExportVersion = "1.0"

// ExportDocument is the downloadable snapshot of an integration
type ExportDocument struct {
	Integration ExportIntegration `json:"integration"`
	Logs        []LogResponse     `json:"logs"`
	CurrentData any               `json:"currentData"`
	ExportDate  time.Time         `json:"exportDate"`
	Version     string            `json:"exportVersion"`
}

// ExportIntegration is the integration section of an export document
type ExportIntegration struct {
	ID        uuid.UUID                `json:"id"`
	Name      string                   `json:"name"`
	Type      integration.ProviderType `json:"type"`
	Status    integration.Status       `json:"status"`
	Config    integration.Config       `json:"config"`
	LastSync  *time.Time               `json:"lastSync"`
	CreatedAt time.Time                `json:"createdAt"`
	UpdatedAt time.Time                `json:"updatedAt"`
	Projects  []uuid.UUID              `json:"projects"`
}

// ExportResult is an export document plus its delivery metadata
type ExportResult struct {
	Document   *ExportDocument
	Body       []byte
	Filename   string
	ArchiveURL string
}

// ---------------------------------------------------------------------------
// Mapping
// ---------------------------------------------------------------------------

// ToIntegrationResponse converts a domain integration to a response DTO
func ToIntegrationResponse(i *integration.Integration, projects []integration.ProjectIntegration) IntegrationResponse {
	return IntegrationResponse{
		ID:        i.ID,
		UserID:    i.UserID,
		Type:      i.Type,
		Name:      i.Name,
		Config:    i.Config,
		Status:    i.Status,
		LastSync:  i.LastSync,
		CreatedAt: i.CreatedAt,
		UpdatedAt: i.UpdatedAt,
		Projects:  projectIDs(projects),
	}
}

// ToLogResponse converts a domain log entry to a response DTO
func ToLogResponse(l *integration.IntegrationLog) LogResponse {
	data := l.Data
	if data == nil {
		data = map[string]any{}
	}
	return LogResponse{
		ID:            l.ID,
		IntegrationID: l.IntegrationID,
		Type:          l.Type,
		Message:       l.Message,
		Data:          data,
		Timestamp:     l.Timestamp,
	}
}

// ToLogResponses converts a slice of log entries
func ToLogResponses(logs []integration.IntegrationLog) []LogResponse {
	out := make([]LogResponse, len(logs))
	for i := range logs {
		out[i] = ToLogResponse(&logs[i])
	}
	return out
}

func projectIDs(links []integration.ProjectIntegration) []uuid.UUID {
	out := make([]uuid.UUID, len(links))
	for i, l := range links {
		out[i] = l.ProjectID
	}
	return out
}
