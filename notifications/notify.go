package notifications

import (
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/lwandile/tutor_connect/models"
	"github.com/lwandile/tutor_connect/websocket"
	"gorm.io/gorm"
)

// Notify persists one in-app notification and pushes a change event to the
// recipient's open dashboard. Failures are logged, never propagated: a missed
// notification must not fail the booking operation that triggered it.
func Notify(db *gorm.DB, userID uuid.UUID, ntype, title, body string) {
	notification := models.Notification{
		ID:        uuid.New(),
		UserID:    userID,
		Type:      ntype,
		Title:     title,
		Body:      body,
		CreatedAt: time.Now(),
	}
	if err := db.Create(&notification).Error; err != nil {
		log.Printf("🔥 Failed to create %s notification for user %s: %v", ntype, userID, err)
		return
	}
	websocket.PublishChange("notifications", "INSERT", notification.ID, userID)
}

func NotifyMany(db *gorm.DB, userIDs []uuid.UUID, ntype, title, body string) {
	for _, id := range userIDs {
		Notify(db, id, ntype, title, body)
	}
}
