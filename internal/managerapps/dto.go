package managerapps

import (
	"time"

	"github.com/google/uuid"

	"github.com/souqline/souqline-backend/internal/addresses"
	"github.com/souqline/souqline-backend/pkg/db/models"
)

// ProposeManagerDTO is the payload for delegating a manager. TargetID points
// at either a confirmed business or the proposer's still-pending business
// application; resolution decides which.
type ProposeManagerDTO struct {
	TargetID         uuid.UUID                     `json:"targetId" validate:"required"`
	ManagerEmail     string                        `json:"managerEmail" validate:"required,email"`
	ManagerPhone     string                        `json:"managerPhone" validate:"omitempty,max=32"`
	ManagerFirstName string                        `json:"managerFirstName" validate:"required,max=128"`
	ManagerLastName  string                        `json:"managerLastName" validate:"required,max=128"`
	Address          *addresses.CreateAddressInput `json:"address" validate:"omitempty"`
}

// ApplicationDTO is the read shape returned to clients.
type ApplicationDTO struct {
	ID                  uuid.UUID  `json:"id"`
	BusinessOwnerID     uuid.UUID  `json:"businessOwnerId"`
	BusinessID          *uuid.UUID `json:"businessId,omitempty"`
	LinkedApplicationID *uuid.UUID `json:"linkedApplicationId,omitempty"`
	ManagerEmail        string     `json:"managerEmail"`
	ManagerFirstName    string     `json:"managerFirstName"`
	ManagerLastName     string     `json:"managerLastName"`
	Status              string     `json:"status"`
	AppliedAt           time.Time  `json:"appliedAt"`
	ReviewedAt          *time.Time `json:"reviewedAt,omitempty"`
}

func FromModel(application *models.ManagerApplication) ApplicationDTO {
	return ApplicationDTO{
		ID:                  application.ID,
		BusinessOwnerID:     application.BusinessOwnerID,
		BusinessID:          application.BusinessID,
		LinkedApplicationID: application.LinkedApplicationID,
		ManagerEmail:        application.ManagerEmail,
		ManagerFirstName:    application.ManagerFirstName,
		ManagerLastName:     application.ManagerLastName,
		Status:              string(application.Status),
		AppliedAt:           application.AppliedAt,
		ReviewedAt:          application.ReviewedAt,
	}
}
