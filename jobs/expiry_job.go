package jobs

import (
	"log"
	"time"

	"github.com/lwandile/tutor_connect/database"
	"github.com/lwandile/tutor_connect/models"
	"github.com/lwandile/tutor_connect/notifications"
	"github.com/lwandile/tutor_connect/services"
	"github.com/lwandile/tutor_connect/websocket"
)

// CloseExpiredGroupSessions cancels group sessions whose preferred date has
// passed without a tutor ever being assigned, releasing their participants to
// rebook.
func CloseExpiredGroupSessions() {
	log.Println("Running job: CloseExpiredGroupSessions...")

	today := time.Now().Format("2006-01-02")

	var expired []models.GroupSession
	err := database.DB.
		Where("status IN ? AND preferred_date < ?", []string{"forming", "ready", "full"}, today).
		Find(&expired).Error
	if err != nil {
		log.Printf("Error checking for expired group sessions: %v", err)
		return
	}
	if len(expired) == 0 {
		return
	}

	for _, session := range expired {
		studentIDs, err := services.CancelGroupSession(database.DB, session.ID)
		if err != nil {
			log.Printf("Error cancelling expired group session %s: %v", session.ID, err)
			continue
		}
		notifications.NotifyMany(database.DB, studentIDs, "group_expired",
			"Your group session did not fill up in time",
			"Your group session's date passed before enough students joined. Please submit a new booking for a later date.")
		websocket.PublishChange("group_sessions", "UPDATE", session.ID)
	}

	log.Printf("Closed %d expired group session(s).", len(expired))
}
