package models

import (
	"time"

	"github.com/google/uuid"
)

type Announcement struct {
	ID          uuid.UUID `gorm:"type:uuid;primary_key" json:"id"`
	Title       string    `gorm:"size:255;not null" json:"title"`
	Content     string    `gorm:"type:text;not null" json:"content"`
	AuthorID    uuid.UUID `gorm:"type:uuid;not null" json:"author_id"`
	TargetRoles string    `gorm:"size:100;not null;default:'admin,tutor,student'" json:"target_roles"`
	IsPublished bool      `gorm:"not null;default:false" json:"is_published"`

	Author User `gorm:"foreignkey:AuthorID" json:"author,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
