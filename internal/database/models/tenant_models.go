package models

import (
	"time"

	"gorm.io/gorm"
)

// Tenant is the root scoping entity. Every other table carries its ID.
type Tenant struct {
	ID           string    `gorm:"type:varchar(36);primaryKey" json:"id"`
	Name         string    `gorm:"size:255;not null" json:"name"`
	OwnerPINHash string    `gorm:"size:100" json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}

func (t *Tenant) BeforeCreate(*gorm.DB) error {
	assignID(&t.ID)
	return nil
}
