package jobs

import (
	"fmt"
	"log"
	"time"

	"github.com/lwandile/tutor_connect/database"
	"github.com/lwandile/tutor_connect/models"
	"github.com/lwandile/tutor_connect/notifications"
)

// SendSessionReminders notifies students and tutors about sessions happening
// tomorrow.
func SendSessionReminders() {
	log.Println("Running job: SendSessionReminders...")

	tomorrow := time.Now().AddDate(0, 0, 1).Format("2006-01-02")

	var bookings []models.Booking
	err := database.DB.
		Where("status = ? AND preferred_date = ?", "assigned", tomorrow).
		Find(&bookings).Error
	if err != nil {
		log.Printf("Error checking for upcoming bookings: %v", err)
		return
	}

	for _, booking := range bookings {
		body := fmt.Sprintf("Reminder: your tutoring session %s is scheduled for tomorrow.", booking.Reference)
		if booking.PreferredTime != nil {
			body = fmt.Sprintf("Reminder: your tutoring session %s is scheduled for tomorrow at %s.", booking.Reference, *booking.PreferredTime)
		}
		notifications.Notify(database.DB, booking.StudentID, "session_reminder", "Session tomorrow", body)
		if booking.TutorID != nil {
			notifications.Notify(database.DB, *booking.TutorID, "session_reminder", "You have a session tomorrow", body)
		}
	}

	var sessions []models.GroupSession
	err = database.DB.
		Preload("Participants").
		Where("status = ? AND preferred_date = ?", "approved", tomorrow).
		Find(&sessions).Error
	if err != nil {
		log.Printf("Error checking for upcoming group sessions: %v", err)
		return
	}

	for _, session := range sessions {
		body := fmt.Sprintf("Reminder: your %s group session is scheduled for tomorrow.", session.Subject)
		if session.PreferredTime != nil {
			body = fmt.Sprintf("Reminder: your %s group session is scheduled for tomorrow at %s.", session.Subject, *session.PreferredTime)
		}
		for _, p := range session.Participants {
			notifications.Notify(database.DB, p.StudentID, "session_reminder", "Group session tomorrow", body)
		}
		if session.TutorID != nil {
			notifications.Notify(database.DB, *session.TutorID, "session_reminder", "You have a group session tomorrow", body)
		}
	}

	if n := len(bookings) + len(sessions); n > 0 {
		log.Printf("Sent reminders for %d session(s).", n)
	}
}
