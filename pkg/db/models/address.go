package models

import (
	"time"

	"github.com/google/uuid"
)

// Address is an immutable postal address referenced by applications and
// businesses. Rows are written once on submission and never updated.
type Address struct {
	ID         uuid.UUID `gorm:"column:id;type:uuid;primaryKey"`
	Street     string    `gorm:"column:street;not null"`
	Area       string    `gorm:"column:area"`
	City       string    `gorm:"column:city;not null"`
	PostalCode string    `gorm:"column:postal_code"`
	Country    string    `gorm:"column:country;not null"`
	Lat        *float64  `gorm:"column:lat"`
	Lng        *float64  `gorm:"column:lng"`
	CreatedAt  time.Time `gorm:"column:created_at;autoCreateTime"`
}
