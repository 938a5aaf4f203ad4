package models

import (
	"time"

	"github.com/google/uuid"
)

// GroupSession pools students who want the same service, delivery mode and
// date, awaiting quorum and tutor assignment.
//
// OpenSlotKey is set to "serviceID|sessionType|date" exactly while the session
// is joinable (forming or ready with room left) and cleared otherwise. The
// unique index over it is what guarantees at most one open group per slot, so
// concurrent create attempts collapse into a duplicate-key error instead of
// two racing groups.
type GroupSession struct {
	ID        uuid.UUID `gorm:"type:uuid;primary_key" json:"id"`
	ServiceID uuid.UUID `gorm:"not null" json:"service_id"`
	Subject   string    `gorm:"size:100;not null" json:"subject"`

	SessionType   string  `gorm:"size:20;not null" json:"session_type"`
	PreferredDate string  `gorm:"size:10;not null" json:"preferred_date"`
	PreferredTime *string `gorm:"size:5" json:"preferred_time"`

	Status       string `gorm:"size:20;not null;default:'forming'" json:"status"`
	MinStudents  int    `gorm:"not null;default:3" json:"min_students"`
	MaxStudents  int    `gorm:"not null;default:40" json:"max_students"`
	CurrentCount int    `gorm:"not null;default:0" json:"current_count"`

	OpenSlotKey *string `gorm:"size:150;uniqueIndex" json:"-"`

	// Legacy single-tutor mirror, see Booking.TutorID.
	TutorID     *uuid.UUID `gorm:"type:uuid" json:"tutor_id"`
	MeetingLink *string    `gorm:"size:255" json:"meeting_link"`

	Service      TutoringService           `gorm:"foreignkey:ServiceID" json:"service,omitempty"`
	Participants []GroupSessionParticipant `gorm:"foreignkey:GroupSessionID" json:"participants,omitempty"`
	Tutors       []TutorAssignment         `gorm:"polymorphic:Target;polymorphicValue:group_session" json:"tutors,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
