package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/uxinsight/backend/internal/domain/integration"
)

// IntegrationModel is the persistence model for the Integration aggregate.
// Config is stored as serialized JSON (JSONB on PostgreSQL).
type IntegrationModel struct {
	BaseModel
	UserID     uuid.UUID                `gorm:"type:uuid;not null;index:idx_integrations_user"`
	Type       integration.ProviderType `gorm:"type:varchar(32);not null;index:idx_integrations_type"`
	Name       string                   `gorm:"type:varchar(255);not null"`
	ConfigJSON string                   `gorm:"column:config;not null"`
	Status     integration.Status       `gorm:"type:varchar(16);not null;default:'ACTIVE';index:idx_integrations_status"`
	LastSync   *time.Time               `gorm:"column:last_sync"`
}

// TableName returns the table name for GORM
func (IntegrationModel) TableName() string {
	return "integrations"
}

// ToDomain converts the persistence model to a domain Integration.
// An unreadable config column yields an empty config rather than failing the load.
func (m *IntegrationModel) ToDomain() *integration.Integration {
	i := &integration.Integration{
		BaseEntity: m.BaseModel.Entity(),
		UserID:     m.UserID,
		Type:       m.Type,
		Name:       m.Name,
		Config:     integration.Config{},
		Status:     m.Status,
		LastSync:   m.LastSync,
	}
	if m.ConfigJSON != "" {
		var cfg integration.Config
		if err := json.Unmarshal([]byte(m.ConfigJSON), &cfg); err == nil && cfg != nil {
			i.Config = cfg
		}
	}
	return i
}

// FromDomain populates the persistence model from a domain Integration
func (m *IntegrationModel) FromDomain(i *integration.Integration) error {
	m.SetEntity(i.BaseEntity)
	m.UserID = i.UserID
	m.Type = i.Type
	m.Name = i.Name
	m.Status = i.Status
	m.LastSync = i.LastSync

	cfg := i.Config
	if cfg == nil {
		cfg = integration.Config{}
	}
	raw, err := json.Marshal(cfg)
	if err != nil {
		return err
	}
	m.ConfigJSON = string(raw)
	return nil
}

// IntegrationModelFromDomain creates a new persistence model from a domain Integration
func IntegrationModelFromDomain(i *integration.Integration) (*IntegrationModel, error) {
	m := &IntegrationModel{}
	if err := m.FromDomain(i); err != nil {
		return nil, err
	}
	return m, nil
}

// IntegrationLogModel is the persistence model for an append-only integration log entry
type IntegrationLogModel struct {
	ID            uuid.UUID           `gorm:"type:uuid;primary_key"`
	IntegrationID uuid.UUID           `gorm:"type:uuid;not null;index:idx_integration_logs_integration_ts,priority:1"`
	Type          integration.LogType `gorm:"type:varchar(32);not null"`
	Message       string              `gorm:"type:text;not null"`
	DataJSON      *string             `gorm:"column:data"`
	Timestamp     time.Time           `gorm:"not null;index:idx_integration_logs_integration_ts,priority:2,sort:desc"`
}

// TableName returns the table name for GORM
func (IntegrationLogModel) TableName() string {
	return "integration_logs"
}

// ToDomain converts the persistence model to a domain IntegrationLog
func (m *IntegrationLogModel) ToDomain() *integration.IntegrationLog {
	l := &integration.IntegrationLog{
		ID:            m.ID,
		IntegrationID: m.IntegrationID,
		Type:          m.Type,
		Message:       m.Message,
		Timestamp:     m.Timestamp,
	}
	if m.DataJSON != nil && *m.DataJSON != "" {
		var data map[string]any
		if err := json.Unmarshal([]byte(*m.DataJSON), &data); err == nil {
			l.Data = data
		}
	}
	return l
}

// IntegrationLogModelFromDomain creates a new persistence model from a domain IntegrationLog
func IntegrationLogModelFromDomain(l *integration.IntegrationLog) (*IntegrationLogModel, error) {
	m := &IntegrationLogModel{
		ID:            l.ID,
		IntegrationID: l.IntegrationID,
		Type:          l.Type,
		Message:       l.Message,
		Timestamp:     l.Timestamp,
	}
	if l.Data != nil {
		raw, err := json.Marshal(l.Data)
		if err != nil {
			return nil, err
		}
		s := string(raw)
		m.DataJSON = &s
	}
	return m, nil
}

// ProjectIntegrationModel is the persistence model for a project association
type ProjectIntegrationModel struct {
	ID            uuid.UUID `gorm:"type:uuid;primary_key"`
	ProjectID     uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_project_integrations_pair,priority:1"`
	IntegrationID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_project_integrations_pair,priority:2;index"`
	CreatedAt     time.Time `gorm:"not null"`
}

// TableName returns the table name for GORM
func (ProjectIntegrationModel) TableName() string {
	return "project_integrations"
}

// ToDomain converts the persistence model to a domain ProjectIntegration
func (m *ProjectIntegrationModel) ToDomain() *integration.ProjectIntegration {
	return &integration.ProjectIntegration{
		ID:            m.ID,
		ProjectID:     m.ProjectID,
		IntegrationID: m.IntegrationID,
		CreatedAt:     m.CreatedAt,
	}
}

// ProjectIntegrationModelFromDomain creates a new persistence model from a domain ProjectIntegration
func ProjectIntegrationModelFromDomain(p *integration.ProjectIntegration) *ProjectIntegrationModel {
	return &ProjectIntegrationModel{
		ID:            p.ID,
		ProjectID:     p.ProjectID,
		IntegrationID: p.IntegrationID,
		CreatedAt:     p.CreatedAt,
	}
}

// AllModels returns every model managed by AutoMigrate in tests and sqlite mode
func AllModels() []any {
	return []any{
		&IntegrationModel{},
		&IntegrationLogModel{},
		&ProjectIntegrationModel{},
	}
}
