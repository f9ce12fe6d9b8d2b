package profiles

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/souqline/souqline-backend/pkg/db/models"
	"github.com/souqline/souqline-backend/pkg/enums"
)

// Repository exposes customer-profile persistence operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs a profiles repo bound to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// FindByUserIDWithTx loads the profile inside the caller's transaction.
func (r *Repository) FindByUserIDWithTx(tx *gorm.DB, userID uuid.UUID) (*models.CustomerProfile, error) {
	if tx == nil {
		return nil, errors.New("transaction required")
	}
	var profile models.CustomerProfile
	if err := tx.First(&profile, "user_id = ?", userID).Error; err != nil {
		return nil, err
	}
	return &profile, nil
}

// CreateWithTx inserts a new profile inside the caller's transaction.
func (r *Repository) CreateWithTx(tx *gorm.DB, profile *models.CustomerProfile) error {
	if tx == nil {
		return errors.New("transaction required")
	}
	return tx.Create(profile).Error
}

// UpdateAssignmentWithTx rewrites only the role/employer assignment of an
// existing profile. Personal details are never overwritten here.
func (r *Repository) UpdateAssignmentWithTx(tx *gorm.DB, userID uuid.UUID, roleType enums.ProfileRole, employerBusinessID *uuid.UUID) error {
	if tx == nil {
		return errors.New("transaction required")
	}
	return tx.Model(&models.CustomerProfile{}).
		Where("user_id = ?", userID).
		Updates(map[string]any{
			"role_type":            roleType,
			"employer_business_id": employerBusinessID,
		}).Error
}

// ListManagersByBusinessIDs returns every MANAGER profile employed by one of
// the given businesses.
func (r *Repository) ListManagersByBusinessIDs(ctx context.Context, businessIDs []uuid.UUID) ([]models.CustomerProfile, error) {
	if len(businessIDs) == 0 {
		return nil, nil
	}
	var rows []models.CustomerProfile
	err := r.db.WithContext(ctx).
		Where("role_type = ? AND employer_business_id IN ?", enums.ProfileRoleManager, businessIDs).
		Order("email ASC").
		Find(&rows).Error
	return rows, err
}
