package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/souqline/souqline-backend/pkg/enums"
)

// Business is the confirmed, operating tenant entity. Created exactly once
// when its BusinessApplication is approved.
type Business struct {
	ID                 uuid.UUID                `gorm:"column:id;type:uuid;primaryKey"`
	OwnerUserID        uuid.UUID                `gorm:"column:owner_user_id;type:uuid;not null;index"`
	BusinessName       string                   `gorm:"column:business_name;not null"`
	LegalName          string                   `gorm:"column:legal_name;not null"`
	AddressID          *uuid.UUID               `gorm:"column:address_id;type:uuid"`
	VerificationStatus enums.VerificationStatus `gorm:"column:verification_status;type:text;not null"`
	VerifiedAt         *time.Time               `gorm:"column:verified_at"`
	LicenseExpiryDate  time.Time                `gorm:"column:license_expiry_date;not null"`
	CreatedAt          time.Time                `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt          time.Time                `gorm:"column:updated_at;autoUpdateTime"`
}
