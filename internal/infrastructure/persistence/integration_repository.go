package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/uxinsight/backend/internal/domain/integration"
	"github.com/uxinsight/backend/internal/infrastructure/persistence/models"
)

// GormIntegrationRepository implements integration.IntegrationRepository using GORM
type GormIntegrationRepository struct {
	db  *gorm.DB
	now func() time.Time
}

// NewGormIntegrationRepository creates a new GormIntegrationRepository
func NewGormIntegrationRepository(db *gorm.DB) *GormIntegrationRepository {
	return &GormIntegrationRepository{db: db, now: time.Now}
}

// Save creates or updates an integration
func (r *GormIntegrationRepository) Save(ctx context.Context, i *integration.Integration) error {
	model, err := models.IntegrationModelFromDomain(i)
	if err != nil {
		return err
	}
	return r.db.WithContext(ctx).Save(model).Error
}

// FindByID finds an integration by ID
func (r *GormIntegrationRepository) FindByID(ctx context.Context, id uuid.UUID) (*integration.Integration, error) {
	var model models.IntegrationModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, integration.ErrIntegrationNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByIDForUser finds an integration by ID within its owner's scope
func (r *GormIntegrationRepository) FindByIDForUser(ctx context.Context, id, userID uuid.UUID) (*integration.Integration, error) {
	var model models.IntegrationModel
	if err := r.db.WithContext(ctx).First(&model, "id = ? AND user_id = ?", id, userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, integration.ErrIntegrationNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindAll finds integrations matching the filter
func (r *GormIntegrationRepository) FindAll(ctx context.Context, filter integration.IntegrationFilter) ([]integration.Integration, error) {
	query := r.applyFilter(r.db.WithContext(ctx).Model(&models.IntegrationModel{}), filter)

	if filter.OldestSyncFirst {
		// never-synced rows sort ahead of everything else
		query = query.Order("last_sync IS NOT NULL").Order("last_sync ASC")
	} else {
		column := ValidateSortField(filter.SortBy, IntegrationSortFields, "created_at")
		query = query.Order(column + " " + ValidateSortOrder(filter.SortOrder)).Order("id")
	}
	if filter.Limit > 0 {
		query = query.Limit(filter.Limit)
	}

	var rows []models.IntegrationModel
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}

	out := make([]integration.Integration, len(rows))
	for i := range rows {
		out[i] = *rows[i].ToDomain()
	}
	return out, nil
}

// Count counts integrations matching the filter, ignoring Limit
func (r *GormIntegrationRepository) Count(ctx context.Context, filter integration.IntegrationFilter) (int64, error) {
	var count int64
	err := r.applyFilter(r.db.WithContext(ctx).Model(&models.IntegrationModel{}), filter).
		Count(&count).Error
	return count, err
}

func (r *GormIntegrationRepository) applyFilter(query *gorm.DB, filter integration.IntegrationFilter) *gorm.DB {
	if filter.UserID != nil {
		query = query.Where("user_id = ?", *filter.UserID)
	}
	if filter.Type != nil {
		query = query.Where("type = ?", *filter.Type)
	}
	if filter.Status != nil {
		query = query.Where("status = ?", *filter.Status)
	}
	if filter.ExcludeSyncing {
		query = query.Where("status <> ?", integration.StatusSyncing)
	}
	return query
}

// TryBeginSync atomically moves an integration to SYNCING.
// The status guard lives in the UPDATE itself so two writers racing past the
// in-process lock still cannot both win.
func (r *GormIntegrationRepository) TryBeginSync(ctx context.Context, id uuid.UUID, force bool) (bool, error) {
	query := r.db.WithContext(ctx).Model(&models.IntegrationModel{}).Where("id = ?", id)
	if !force {
		query = query.Where("status <> ?", integration.StatusSyncing)
	}
	result := query.Updates(map[string]any{
		"status":     integration.StatusSyncing,
		"updated_at": r.now(),
	})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

// Delete removes the integration together with its project associations and logs
func (r *GormIntegrationRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("integration_id = ?", id).Delete(&models.ProjectIntegrationModel{}).Error; err != nil {
			return err
		}
		if err := tx.Where("integration_id = ?", id).Delete(&models.IntegrationLogModel{}).Error; err != nil {
			return err
		}
		result := tx.Where("id = ?", id).Delete(&models.IntegrationModel{})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return integration.ErrIntegrationNotFound
		}
		return nil
	})
}

// Ensure GormIntegrationRepository implements IntegrationRepository
var _ integration.IntegrationRepository = (*GormIntegrationRepository)(nil)
