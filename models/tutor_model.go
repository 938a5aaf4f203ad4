package models

import (
	"time"

	"github.com/google/uuid"
)

// TutorDetail is a tutor's application and profile record. Status moves
// pending -> approved|rejected by an admin; only approved tutors get the
// tutor role on their user row.
type TutorDetail struct {
	UserID     uuid.UUID `gorm:"primary_key" json:"user_id"`
	Headline   *string   `gorm:"size:255" json:"headline"`
	Bio        *string   `gorm:"type:text" json:"bio"`
	Subjects   *string   `gorm:"size:500" json:"subjects"`
	HourlyRate *float64  `gorm:"type:numeric(10,2)" json:"hourly_rate"`
	Status     string    `gorm:"size:20;not null;default:'pending'" json:"status"`

	User User `gorm:"foreignkey:UserID" json:"user"`

	CreatedAt time.Time `json:"-"`
	UpdatedAt time.Time `json:"-"`
}
