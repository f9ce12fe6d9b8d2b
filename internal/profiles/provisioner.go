package profiles

import (
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/souqline/souqline-backend/pkg/db/models"
	"github.com/souqline/souqline-backend/pkg/enums"
	pkgerrors "github.com/souqline/souqline-backend/pkg/errors"
)

type profileRepository interface {
	FindByUserIDWithTx(tx *gorm.DB, userID uuid.UUID) (*models.CustomerProfile, error)
	CreateWithTx(tx *gorm.DB, profile *models.CustomerProfile) error
	UpdateAssignmentWithTx(tx *gorm.DB, userID uuid.UUID, roleType enums.ProfileRole, employerBusinessID *uuid.UUID) error
}

// ProvisionInput carries everything needed to create or re-assign a profile.
type ProvisionInput struct {
	UserID             uuid.UUID
	RoleType           enums.ProfileRole
	EmployerBusinessID *uuid.UUID
	FirstName          string
	LastName           string
	Email              string
	Phone              string
}

// Provisioner idempotently creates or updates customer profiles. On an
// existing profile only the role/employer assignment is rewritten; personal
// details stay as first recorded.
type Provisioner struct {
	repo profileRepository
}

// NewProvisioner builds a profile provisioner with the provided repository.
func NewProvisioner(repo profileRepository) (*Provisioner, error) {
	if repo == nil {
		return nil, fmt.Errorf("profile repository required")
	}
	return &Provisioner{repo: repo}, nil
}

// ProvisionWithTx upserts the profile inside the caller's transaction.
func (p *Provisioner) ProvisionWithTx(tx *gorm.DB, input ProvisionInput) error {
	if tx == nil {
		return pkgerrors.New(pkgerrors.CodeInternal, "transaction required")
	}
	if input.UserID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}
	if !input.RoleType.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation, "invalid profile role")
	}

	existing, err := p.repo.FindByUserIDWithTx(tx, input.UserID)
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load profile")
		}
		profile := &models.CustomerProfile{
			UserID:             input.UserID,
			FirstName:          strings.TrimSpace(input.FirstName),
			LastName:           strings.TrimSpace(input.LastName),
			Email:              strings.ToLower(strings.TrimSpace(input.Email)),
			Phone:              strings.TrimSpace(input.Phone),
			RoleType:           input.RoleType,
			EmployerBusinessID: input.EmployerBusinessID,
		}
		if err := p.repo.CreateWithTx(tx, profile); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create profile")
		}
		return nil
	}

	if existing.RoleType == input.RoleType && uuidPtrEqual(existing.EmployerBusinessID, input.EmployerBusinessID) {
		return nil
	}
	if err := p.repo.UpdateAssignmentWithTx(tx, input.UserID, input.RoleType, input.EmployerBusinessID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update profile assignment")
	}
	return nil
}

func uuidPtrEqual(a, b *uuid.UUID) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}
