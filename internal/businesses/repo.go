package businesses

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/souqline/souqline-backend/pkg/db/models"
	"github.com/souqline/souqline-backend/pkg/enums"
)

// Repository exposes business persistence operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs a businesses repo bound to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// CreateWithTx inserts a new business inside the caller's transaction.
func (r *Repository) CreateWithTx(tx *gorm.DB, business *models.Business) error {
	if tx == nil {
		return errors.New("transaction required")
	}
	return tx.Create(business).Error
}

// FindByID loads a business by its UUID.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Business, error) {
	var business models.Business
	if err := r.db.WithContext(ctx).First(&business, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &business, nil
}

// FindByIDWithTx loads a business inside the caller's transaction.
func (r *Repository) FindByIDWithTx(tx *gorm.DB, id uuid.UUID) (*models.Business, error) {
	if tx == nil {
		return nil, errors.New("transaction required")
	}
	var business models.Business
	if err := tx.First(&business, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &business, nil
}

// ListByOwner returns every business owned by the given user.
func (r *Repository) ListByOwner(ctx context.Context, ownerUserID uuid.UUID) ([]models.Business, error) {
	var rows []models.Business
	err := r.db.WithContext(ctx).
		Where("owner_user_id = ?", ownerUserID).
		Order("created_at ASC").
		Find(&rows).Error
	return rows, err
}

// FindVerifiedExpiredBefore returns verified businesses whose license lapsed
// before the cutoff.
func (r *Repository) FindVerifiedExpiredBefore(ctx context.Context, cutoff time.Time) ([]models.Business, error) {
	var rows []models.Business
	err := r.db.WithContext(ctx).
		Where("verification_status = ? AND license_expiry_date < ?", enums.VerificationStatusVerified, cutoff).
		Order("license_expiry_date ASC").
		Find(&rows).Error
	return rows, err
}

// FindVerifiedExpiringBetween returns verified businesses whose license
// expires inside the window.
func (r *Repository) FindVerifiedExpiringBetween(ctx context.Context, from, to time.Time) ([]models.Business, error) {
	var rows []models.Business
	err := r.db.WithContext(ctx).
		Where("verification_status = ? AND license_expiry_date >= ? AND license_expiry_date < ?", enums.VerificationStatusVerified, from, to).
		Order("license_expiry_date ASC").
		Find(&rows).Error
	return rows, err
}

// UpdateVerificationStatusWithTx rewrites the verification status inside the
// caller's transaction.
func (r *Repository) UpdateVerificationStatusWithTx(tx *gorm.DB, id uuid.UUID, status enums.VerificationStatus) error {
	if tx == nil {
		return errors.New("transaction required")
	}
	return tx.Model(&models.Business{}).
		Where("id = ?", id).
		UpdateColumn("verification_status", status).Error
}
