package models

import (
	"time"

	"github.com/google/uuid"
)

// TutorAvailability is one weekly availability window. DayOfWeek follows
// time.Weekday (0 = Sunday). Times are "HH:MM" strings so window checks are
// plain lexicographic comparisons.
type TutorAvailability struct {
	ID        uuid.UUID `gorm:"type:uuid;primary_key" json:"id"`
	TutorID   uuid.UUID `gorm:"type:uuid;not null;index" json:"tutor_id"`
	DayOfWeek int       `gorm:"not null" json:"day_of_week"`
	StartTime string    `gorm:"size:5;not null" json:"start_time"`
	EndTime   string    `gorm:"size:5;not null" json:"end_time"`
	IsActive  bool      `gorm:"not null;default:true" json:"is_active"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
