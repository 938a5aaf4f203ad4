package models

import (
	"time"

	"github.com/google/uuid"
)

// TutorAssignment is one tutor's position in the ordered list of tutors bound
// to a booking or group session. AssignmentOrder is 1-based and dense per
// target; a target carries between one and five assignments, written as a
// single transaction by the assignment recorder.
type TutorAssignment struct {
	ID              uuid.UUID `gorm:"type:uuid;primary_key" json:"id"`
	TargetID        uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_target_order;uniqueIndex:idx_target_tutor" json:"target_id"`
	TargetType      string    `gorm:"size:20;not null;uniqueIndex:idx_target_order;uniqueIndex:idx_target_tutor" json:"target_type"`
	TutorID         uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_target_tutor" json:"tutor_id"`
	AssignmentOrder int       `gorm:"not null;uniqueIndex:idx_target_order" json:"assignment_order"`
	AssignedBy      uuid.UUID `gorm:"type:uuid;not null" json:"assigned_by"`
	AssignedAt      time.Time `gorm:"not null" json:"assigned_at"`

	Tutor User `gorm:"foreignkey:TutorID" json:"tutor,omitempty"`
}
