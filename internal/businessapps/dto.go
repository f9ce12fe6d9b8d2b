package businessapps

import (
	"time"

	"github.com/google/uuid"

	"github.com/souqline/souqline-backend/internal/addresses"
	"github.com/souqline/souqline-backend/pkg/db/models"
)

// SubmitApplicationDTO is the payload accepted by the public submission
// endpoint. OwnerUserID is optional: when absent (or unknown) the workflow
// provisions a business_owner account from the contact details.
type SubmitApplicationDTO struct {
	OwnerUserID          *uuid.UUID                    `json:"ownerUserId" validate:"omitempty"`
	BusinessName         string                        `json:"businessName" validate:"required,max=255"`
	LegalName            string                        `json:"legalName" validate:"required,max=255"`
	ContactEmail         string                        `json:"contactEmail" validate:"required,email"`
	ContactPhone         string                        `json:"contactPhone" validate:"omitempty,max=32"`
	TradeLicenseNumber   string                        `json:"tradeLicenseNumber" validate:"omitempty,max=128"`
	TaxCertificateNumber string                        `json:"taxCertificateNumber" validate:"omitempty,max=128"`
	OwnerFirstName       string                        `json:"ownerFirstName" validate:"omitempty,max=128"`
	OwnerLastName        string                        `json:"ownerLastName" validate:"omitempty,max=128"`
	Address              *addresses.CreateAddressInput `json:"address" validate:"omitempty"`
}

// ApplicationDTO is the read shape returned to clients.
type ApplicationDTO struct {
	ID              uuid.UUID  `json:"id"`
	OwnerUserID     uuid.UUID  `json:"ownerUserId"`
	BusinessName    string     `json:"businessName"`
	LegalName       string     `json:"legalName"`
	ContactEmail    string     `json:"contactEmail"`
	ContactPhone    string     `json:"contactPhone,omitempty"`
	Status          string     `json:"status"`
	RejectionReason *string    `json:"rejectionReason,omitempty"`
	AppliedAt       time.Time  `json:"appliedAt"`
	ReviewedAt      *time.Time `json:"reviewedAt,omitempty"`
	ResubmittedAt   *time.Time `json:"resubmittedAt,omitempty"`
}

func FromModel(application *models.BusinessApplication) ApplicationDTO {
	return ApplicationDTO{
		ID:              application.ID,
		OwnerUserID:     application.OwnerUserID,
		BusinessName:    application.BusinessName,
		LegalName:       application.LegalName,
		ContactEmail:    application.ContactEmail,
		ContactPhone:    application.ContactPhone,
		Status:          string(application.Status),
		RejectionReason: application.RejectionReason,
		AppliedAt:       application.AppliedAt,
		ReviewedAt:      application.ReviewedAt,
		ResubmittedAt:   application.ResubmittedAt,
	}
}
