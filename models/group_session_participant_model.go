package models

import (
	"time"

	"github.com/google/uuid"
)

// GroupSessionParticipant binds one student to one group session. The unique
// index over (group_session_id, student_id) makes a second join fail with a
// duplicate-key error, which callers translate to "already joined".
type GroupSessionParticipant struct {
	ID             uuid.UUID `gorm:"type:uuid;primary_key" json:"id"`
	GroupSessionID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_group_student" json:"group_session_id"`
	StudentID      uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_group_student" json:"student_id"`
	Notes          *string   `gorm:"type:text" json:"notes"`
	JoinedAt       time.Time `gorm:"not null" json:"joined_at"`

	Student User `gorm:"foreignkey:StudentID" json:"student,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
