package addresses

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/souqline/souqline-backend/pkg/db/models"
)

// CreateAddressInput carries the postal fields supplied on submission.
type CreateAddressInput struct {
	Street     string   `json:"street" validate:"required,max=255"`
	Area       string   `json:"area" validate:"omitempty,max=128"`
	City       string   `json:"city" validate:"required,max=128"`
	PostalCode string   `json:"postalCode" validate:"omitempty,max=32"`
	Country    string   `json:"country" validate:"required,max=128"`
	Lat        *float64 `json:"lat" validate:"omitempty,latitude"`
	Lng        *float64 `json:"lng" validate:"omitempty,longitude"`
}

func (c CreateAddressInput) toModel() *models.Address {
	return &models.Address{
		Street:     c.Street,
		Area:       c.Area,
		City:       c.City,
		PostalCode: c.PostalCode,
		Country:    c.Country,
		Lat:        c.Lat,
		Lng:        c.Lng,
	}
}

// Repository persists immutable postal addresses. Rows are written once and
// only ever read afterwards.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs an addresses repo bound to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Create inserts a new address and returns the persisted model.
func (r *Repository) Create(ctx context.Context, input CreateAddressInput) (*models.Address, error) {
	address := input.toModel()
	if err := r.db.WithContext(ctx).Create(address).Error; err != nil {
		return nil, err
	}
	return address, nil
}

// CreateWithTx inserts a new address inside the caller's transaction.
func (r *Repository) CreateWithTx(tx *gorm.DB, input CreateAddressInput) (*models.Address, error) {
	if tx == nil {
		return nil, errors.New("transaction required")
	}
	address := input.toModel()
	if err := tx.Create(address).Error; err != nil {
		return nil, err
	}
	return address, nil
}

// FindByID loads an address by its UUID.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Address, error) {
	var address models.Address
	if err := r.db.WithContext(ctx).First(&address, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &address, nil
}
