package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/souqline/souqline-backend/pkg/enums"
)

// ManagerApplication is a delegation request proposing a person as manager
// of a business. While pending, exactly one of BusinessID and
// LinkedApplicationID is set: BusinessID when the target business already
// exists, LinkedApplicationID when the target is itself a pending
// BusinessApplication. The approval cascade swaps the latter for the former
// once the linked application is approved.
type ManagerApplication struct {
	ID                  uuid.UUID               `gorm:"column:id;type:uuid;primaryKey"`
	BusinessOwnerID     uuid.UUID               `gorm:"column:business_owner_id;type:uuid;not null;index"`
	BusinessID          *uuid.UUID              `gorm:"column:business_id;type:uuid;index"`
	LinkedApplicationID *uuid.UUID              `gorm:"column:linked_application_id;type:uuid;index"`
	ManagerEmail        string                  `gorm:"column:manager_email;not null;index"`
	ManagerPhone        string                  `gorm:"column:manager_phone"`
	ManagerFirstName    string                  `gorm:"column:manager_first_name;not null"`
	ManagerLastName     string                  `gorm:"column:manager_last_name;not null"`
	AddressID           *uuid.UUID              `gorm:"column:address_id;type:uuid"`
	Status              enums.ApplicationStatus `gorm:"column:status;type:text;not null;default:'pending'"`
	AppliedAt           time.Time               `gorm:"column:applied_at;not null"`
	ReviewedAt          *time.Time              `gorm:"column:reviewed_at"`
	CreatedAt           time.Time               `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt           time.Time               `gorm:"column:updated_at;autoUpdateTime"`
}
