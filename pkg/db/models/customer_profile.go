package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/souqline/souqline-backend/pkg/enums"
)

// CustomerProfile is the operational profile of a natural person acting on
// the marketplace, keyed 1:1 against the user. EmployerBusinessID is set only
// for managers whose business assignment is resolved; it stays nil while the
// manager's application is still linked to a pending business application.
type CustomerProfile struct {
	UserID             uuid.UUID         `gorm:"column:user_id;type:uuid;primaryKey"`
	FirstName          string            `gorm:"column:first_name;not null"`
	LastName           string            `gorm:"column:last_name;not null"`
	Email              string            `gorm:"column:email;not null;index"`
	Phone              string            `gorm:"column:phone"`
	RoleType           enums.ProfileRole `gorm:"column:role_type;type:text;not null"`
	EmployerBusinessID *uuid.UUID        `gorm:"column:employer_business_id;type:uuid;index"`
	LoyaltyPoints      int               `gorm:"column:loyalty_points;not null;default:0"`
	CreatedAt          time.Time         `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt          time.Time         `gorm:"column:updated_at;autoUpdateTime"`
}
