package models

import (
	"time"

	"github.com/google/uuid"
)

// Booking is one student's request for a tutoring session.
//
// A group-class booking always references exactly one GroupSession; a
// one-on-one booking never does. Status runs
// pending -> assigned -> completed, or pending -> cancelled|rejected.
type Booking struct {
	ID        uuid.UUID `gorm:"type:uuid;primary_key" json:"id"`
	Reference string    `gorm:"size:12;not null;unique" json:"reference"`
	StudentID uuid.UUID `gorm:"not null;index" json:"student_id"`
	ServiceID uuid.UUID `gorm:"not null" json:"service_id"`

	ClassType    string `gorm:"size:20;not null" json:"class_type"`
	DeliveryMode string `gorm:"size:20;not null" json:"delivery_mode"`

	PreferredDate string  `gorm:"size:10;not null" json:"preferred_date"`
	PreferredTime *string `gorm:"size:5" json:"preferred_time"`

	Curriculum      *string `gorm:"size:50" json:"curriculum"`
	DurationMinutes *int    `json:"duration_minutes"`
	Notes           *string `gorm:"type:text" json:"notes"`

	Status         string     `gorm:"size:20;not null;default:'pending'" json:"status"`
	GroupSessionID *uuid.UUID `gorm:"type:uuid;index" json:"group_session_id"`

	// Legacy single-tutor column kept for older read paths. Always written in
	// the same transaction as the ordered assignment rows; equals the tutor at
	// assignment order 1.
	TutorID         *uuid.UUID `gorm:"type:uuid" json:"tutor_id"`
	TutorAssignedAt *time.Time `json:"tutor_assigned_at"`

	MeetingLink *string `gorm:"size:255" json:"meeting_link"`

	Student User              `gorm:"foreignkey:StudentID" json:"student,omitempty"`
	Service TutoringService   `gorm:"foreignkey:ServiceID" json:"service,omitempty"`
	Tutors  []TutorAssignment `gorm:"polymorphic:Target;polymorphicValue:booking" json:"tutors,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
