package persistence

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/uxinsight/backend/internal/domain/integration"
	"github.com/uxinsight/backend/internal/infrastructure/persistence/models"
)

// GormIntegrationLogRepository implements integration.IntegrationLogRepository using GORM
type GormIntegrationLogRepository struct {
	db *gorm.DB
}

// NewGormIntegrationLogRepository creates a new GormIntegrationLogRepository
func NewGormIntegrationLogRepository(db *gorm.DB) *GormIntegrationLogRepository {
	return &GormIntegrationLogRepository{db: db}
}

// Append stores a new log entry
func (r *GormIntegrationLogRepository) Append(ctx context.Context, log *integration.IntegrationLog) error {
	model, err := models.IntegrationLogModelFromDomain(log)
	if err != nil {
		return err
	}
	return r.db.WithContext(ctx).Create(model).Error
}

// FindRecent returns the newest entries for an integration, newest first
func (r *GormIntegrationLogRepository) FindRecent(ctx context.Context, integrationID uuid.UUID, limit int) ([]integration.IntegrationLog, error) {
	query := r.db.WithContext(ctx).
		Where("integration_id = ?", integrationID).
		Order("timestamp DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}

	var rows []models.IntegrationLogModel
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}

	out := make([]integration.IntegrationLog, len(rows))
	for i := range rows {
		out[i] = *rows[i].ToDomain()
	}
	return out, nil
}

// GormProjectIntegrationRepository implements integration.ProjectIntegrationRepository using GORM
type GormProjectIntegrationRepository struct {
	db *gorm.DB
}

// NewGormProjectIntegrationRepository creates a new GormProjectIntegrationRepository
func NewGormProjectIntegrationRepository(db *gorm.DB) *GormProjectIntegrationRepository {
	return &GormProjectIntegrationRepository{db: db}
}

// Save stores an association
func (r *GormProjectIntegrationRepository) Save(ctx context.Context, link *integration.ProjectIntegration) error {
	return r.db.WithContext(ctx).Create(models.ProjectIntegrationModelFromDomain(link)).Error
}

// FindByIntegration lists the projects linked to an integration, oldest link first
func (r *GormProjectIntegrationRepository) FindByIntegration(ctx context.Context, integrationID uuid.UUID) ([]integration.ProjectIntegration, error) {
	var rows []models.ProjectIntegrationModel
	if err := r.db.WithContext(ctx).
		Where("integration_id = ?", integrationID).
		Order("created_at ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}

	out := make([]integration.ProjectIntegration, len(rows))
	for i := range rows {
		out[i] = *rows[i].ToDomain()
	}
	return out, nil
}

var (
	_ integration.IntegrationLogRepository     = (*GormIntegrationLogRepository)(nil)
	_ integration.ProjectIntegrationRepository = (*GormProjectIntegrationRepository)(nil)
)
