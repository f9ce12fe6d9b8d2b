package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/souqline/souqline-backend/pkg/enums"
)

// BusinessApplication is an unconfirmed business registration awaiting
// review. Rows are retained for audit after approval (status flips to
// verified); the concrete Business row is created by the approval cascade.
//
// Invariant: RejectionReason is non-nil iff Status is rejected.
type BusinessApplication struct {
	ID                   uuid.UUID               `gorm:"column:id;type:uuid;primaryKey"`
	OwnerUserID          uuid.UUID               `gorm:"column:owner_user_id;type:uuid;not null;index"`
	BusinessName         string                  `gorm:"column:business_name;not null"`
	LegalName            string                  `gorm:"column:legal_name;not null"`
	ContactEmail         string                  `gorm:"column:contact_email;not null;index"`
	ContactPhone         string                  `gorm:"column:contact_phone"`
	TradeLicenseNumber   string                  `gorm:"column:trade_license_number"`
	TaxCertificateNumber string                  `gorm:"column:tax_certificate_number"`
	AddressID            *uuid.UUID              `gorm:"column:address_id;type:uuid"`
	Status               enums.ApplicationStatus `gorm:"column:status;type:text;not null;default:'pending'"`
	RejectionReason      *string                 `gorm:"column:rejection_reason"`
	AppliedAt            time.Time               `gorm:"column:applied_at;not null"`
	ReviewedAt           *time.Time              `gorm:"column:reviewed_at"`
	ResubmittedAt        *time.Time              `gorm:"column:resubmitted_at"`
	CreatedAt            time.Time               `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt            time.Time               `gorm:"column:updated_at;autoUpdateTime"`
}
