package businessapps

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/souqline/souqline-backend/pkg/db/models"
	"github.com/souqline/souqline-backend/pkg/enums"
)

// Repository exposes business-application persistence operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs a business-applications repo bound to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// CreateWithTx inserts a new application inside the caller's transaction.
func (r *Repository) CreateWithTx(tx *gorm.DB, application *models.BusinessApplication) error {
	if tx == nil {
		return errors.New("transaction required")
	}
	return tx.Create(application).Error
}

// FindByID loads an application by its UUID.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.BusinessApplication, error) {
	var application models.BusinessApplication
	if err := r.db.WithContext(ctx).First(&application, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &application, nil
}

// FindByIDWithTx loads an application inside the caller's transaction.
func (r *Repository) FindByIDWithTx(tx *gorm.DB, id uuid.UUID) (*models.BusinessApplication, error) {
	if tx == nil {
		return nil, errors.New("transaction required")
	}
	var application models.BusinessApplication
	if err := tx.First(&application, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &application, nil
}

// ExistsPendingByContactEmail reports whether a pending application already
// uses the given contact email.
func (r *Repository) ExistsPendingByContactEmail(ctx context.Context, email string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.BusinessApplication{}).
		Where("contact_email = ? AND status = ?", strings.ToLower(strings.TrimSpace(email)), enums.ApplicationStatusPending).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// ListByOwner returns every application submitted by the given owner.
func (r *Repository) ListByOwner(ctx context.Context, ownerUserID uuid.UUID) ([]models.BusinessApplication, error) {
	var rows []models.BusinessApplication
	err := r.db.WithContext(ctx).
		Where("owner_user_id = ?", ownerUserID).
		Order("applied_at DESC").
		Find(&rows).Error
	return rows, err
}

// MarkRejectedWithTx flips a pending application to rejected. Returns the
// number of rows updated; zero means the row was missing or not pending.
func (r *Repository) MarkRejectedWithTx(tx *gorm.DB, id uuid.UUID, reason string, reviewedAt time.Time) (int64, error) {
	if tx == nil {
		return 0, errors.New("transaction required")
	}
	result := tx.Model(&models.BusinessApplication{}).
		Where("id = ? AND status = ?", id, enums.ApplicationStatusPending).
		Updates(map[string]any{
			"status":           enums.ApplicationStatusRejected,
			"rejection_reason": reason,
			"reviewed_at":      reviewedAt,
		})
	return result.RowsAffected, result.Error
}

// MarkReopenedWithTx flips a rejected application back to pending, clearing
// the rejection reason. Returns the number of rows updated.
func (r *Repository) MarkReopenedWithTx(tx *gorm.DB, id uuid.UUID, resubmittedAt time.Time) (int64, error) {
	if tx == nil {
		return 0, errors.New("transaction required")
	}
	result := tx.Model(&models.BusinessApplication{}).
		Where("id = ? AND status = ?", id, enums.ApplicationStatusRejected).
		Updates(map[string]any{
			"status":           enums.ApplicationStatusPending,
			"rejection_reason": nil,
			"resubmitted_at":   resubmittedAt,
		})
	return result.RowsAffected, result.Error
}

// MarkVerifiedWithTx flips a pending application to verified. Returns the
// number of rows updated; zero means a concurrent decision won.
func (r *Repository) MarkVerifiedWithTx(tx *gorm.DB, id uuid.UUID, reviewedAt time.Time) (int64, error) {
	if tx == nil {
		return 0, errors.New("transaction required")
	}
	result := tx.Model(&models.BusinessApplication{}).
		Where("id = ? AND status = ?", id, enums.ApplicationStatusPending).
		Updates(map[string]any{
			"status":      enums.ApplicationStatusVerified,
			"reviewed_at": reviewedAt,
		})
	return result.RowsAffected, result.Error
}
