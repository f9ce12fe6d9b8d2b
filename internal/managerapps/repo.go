package managerapps

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/souqline/souqline-backend/pkg/db/models"
	"github.com/souqline/souqline-backend/pkg/enums"
)

// Repository exposes manager-application persistence operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs a manager-applications repo bound to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// CreateWithTx inserts a new application inside the caller's transaction.
func (r *Repository) CreateWithTx(tx *gorm.DB, application *models.ManagerApplication) error {
	if tx == nil {
		return errors.New("transaction required")
	}
	return tx.Create(application).Error
}

// FindByIDWithTx loads an application inside the caller's transaction.
func (r *Repository) FindByIDWithTx(tx *gorm.DB, id uuid.UUID) (*models.ManagerApplication, error) {
	if tx == nil {
		return nil, errors.New("transaction required")
	}
	var application models.ManagerApplication
	if err := tx.First(&application, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &application, nil
}

// ListByOwner returns every application requested by the given owner,
// regardless of status.
func (r *Repository) ListByOwner(ctx context.Context, businessOwnerID uuid.UUID) ([]models.ManagerApplication, error) {
	var rows []models.ManagerApplication
	err := r.db.WithContext(ctx).
		Where("business_owner_id = ?", businessOwnerID).
		Order("applied_at ASC").
		Find(&rows).Error
	return rows, err
}

// MarkRejectedWithTx flips a pending application to rejected. Returns the
// number of rows updated; zero means the row was missing or not pending.
func (r *Repository) MarkRejectedWithTx(tx *gorm.DB, id uuid.UUID, reviewedAt time.Time) (int64, error) {
	if tx == nil {
		return 0, errors.New("transaction required")
	}
	result := tx.Model(&models.ManagerApplication{}).
		Where("id = ? AND status = ?", id, enums.ApplicationStatusPending).
		Updates(map[string]any{
			"status":      enums.ApplicationStatusRejected,
			"reviewed_at": reviewedAt,
		})
	return result.RowsAffected, result.Error
}

// MarkVerifiedWithTx flips a pending application to verified. Returns the
// number of rows updated; zero means a concurrent decision won.
func (r *Repository) MarkVerifiedWithTx(tx *gorm.DB, id uuid.UUID, reviewedAt time.Time) (int64, error) {
	if tx == nil {
		return 0, errors.New("transaction required")
	}
	result := tx.Model(&models.ManagerApplication{}).
		Where("id = ? AND status = ?", id, enums.ApplicationStatusPending).
		Updates(map[string]any{
			"status":      enums.ApplicationStatusVerified,
			"reviewed_at": reviewedAt,
		})
	return result.RowsAffected, result.Error
}

// MigrateLinkedWithTx repoints every application waiting on the given
// business application at the newly created business. The swap applies to
// every status; rejected rows keep a resolved pointer for history.
func (r *Repository) MigrateLinkedWithTx(tx *gorm.DB, linkedApplicationID, businessID uuid.UUID) (int64, error) {
	if tx == nil {
		return 0, errors.New("transaction required")
	}
	result := tx.Model(&models.ManagerApplication{}).
		Where("linked_application_id = ?", linkedApplicationID).
		Updates(map[string]any{
			"business_id":           businessID,
			"linked_application_id": nil,
		})
	return result.RowsAffected, result.Error
}
