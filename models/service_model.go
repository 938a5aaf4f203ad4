package models

import (
	"time"

	"github.com/google/uuid"
)

type TutoringService struct {
	ID                uuid.UUID `gorm:"type:uuid;primary_key" json:"id"`
	Name              string    `gorm:"size:100;not null;unique" json:"name"`
	Description       *string   `gorm:"type:text" json:"description"`
	OnlineAvailable   bool      `gorm:"not null;default:true" json:"online_available"`
	InPersonAvailable bool      `gorm:"not null;default:false" json:"in_person_available"`
	IsActive          bool      `gorm:"not null;default:true" json:"is_active"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
