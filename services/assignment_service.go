package services

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/lwandile/tutor_connect/models"
	"gorm.io/gorm"
)

const (
	TargetBooking      = "booking"
	TargetGroupSession = "group_session"

	maxTutorsPerTarget = 5
)

// AssignTutors binds an ordered list of one to five tutors to a pending
// booking or a ready group session, approving it in the same step. All
// assignment rows, the status flip and the legacy primary-tutor mirror are
// written as one transaction; a failed insert leaves the target untouched.
func AssignTutors(db *gorm.DB, targetKind string, targetID uuid.UUID, tutorIDs []uuid.UUID, assignedBy uuid.UUID) error {
	if len(tutorIDs) == 0 {
		return invalidField("tutor_ids", "at least one tutor is required")
	}
	if len(tutorIDs) > maxTutorsPerTarget {
		return invalidField("tutor_ids", "no more than 5 tutors can be assigned to a session")
	}
	if targetKind != TargetBooking && targetKind != TargetGroupSession {
		return invalidField("target_kind", "must be booking or group_session")
	}

	now := time.Now()
	return db.Transaction(func(tx *gorm.DB) error {
		switch targetKind {
		case TargetBooking:
			var booking models.Booking
			if err := lockForUpdate(tx).First(&booking, "id = ?", targetID).Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return fmt.Errorf("booking %s: %w", targetID, ErrNotFound)
				}
				return fmt.Errorf("load booking: %w", err)
			}
			if booking.Status != "pending" {
				return fmt.Errorf("booking is %s: %w", booking.Status, ErrNotApprovable)
			}

			if err := insertAssignments(tx, targetKind, targetID, tutorIDs, assignedBy, now); err != nil {
				return err
			}

			booking.Status = "assigned"
			booking.TutorID = &tutorIDs[0]
			booking.TutorAssignedAt = &now
			if err := tx.Save(&booking).Error; err != nil {
				return fmt.Errorf("save booking: %w", err)
			}

		case TargetGroupSession:
			var session models.GroupSession
			if err := lockForUpdate(tx).First(&session, "id = ?", targetID).Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return fmt.Errorf("group session %s: %w", targetID, ErrNotFound)
				}
				return fmt.Errorf("load group session: %w", err)
			}
			if session.Status != "ready" {
				return fmt.Errorf("group session is %s: %w", session.Status, ErrNotApprovable)
			}

			if err := insertAssignments(tx, targetKind, targetID, tutorIDs, assignedBy, now); err != nil {
				return err
			}

			session.Status = "approved"
			session.TutorID = &tutorIDs[0]
			session.OpenSlotKey = nil
			if err := tx.Save(&session).Error; err != nil {
				return fmt.Errorf("save group session: %w", err)
			}

			if err := tx.Model(&models.Booking{}).
				Where("group_session_id = ? AND status = ?", targetID, "pending").
				Updates(map[string]interface{}{
					"status":            "assigned",
					"tutor_id":          tutorIDs[0],
					"tutor_assigned_at": now,
				}).Error; err != nil {
				return fmt.Errorf("update linked bookings: %w", err)
			}
		}
		return nil
	})
}

func insertAssignments(tx *gorm.DB, targetKind string, targetID uuid.UUID, tutorIDs []uuid.UUID, assignedBy uuid.UUID, now time.Time) error {
	for i, tutorID := range tutorIDs {
		assignment := models.TutorAssignment{
			ID:              uuid.New(),
			TargetID:        targetID,
			TargetType:      targetKind,
			TutorID:         tutorID,
			AssignmentOrder: i + 1,
			AssignedBy:      assignedBy,
			AssignedAt:      now,
		}
		if err := tx.Create(&assignment).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return invalidField("tutor_ids", fmt.Sprintf("tutor %s is listed more than once", tutorID))
			}
			return fmt.Errorf("create tutor assignment %d: %w", i+1, err)
		}
	}
	return nil
}

// SetMeetingLink attaches the video-call link to a session that already has a
// tutor. Group links propagate to the linked bookings so both read paths see
// the same URL.
func SetMeetingLink(db *gorm.DB, targetKind string, targetID uuid.UUID, link string) error {
	if link == "" {
		return invalidField("meeting_link", "a meeting link is required")
	}

	return db.Transaction(func(tx *gorm.DB) error {
		switch targetKind {
		case TargetBooking:
			var booking models.Booking
			if err := lockForUpdate(tx).First(&booking, "id = ?", targetID).Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return fmt.Errorf("booking %s: %w", targetID, ErrNotFound)
				}
				return fmt.Errorf("load booking: %w", err)
			}
			if booking.Status != "assigned" {
				return fmt.Errorf("booking is %s: %w", booking.Status, ErrNotApprovable)
			}
			booking.MeetingLink = &link
			if err := tx.Save(&booking).Error; err != nil {
				return fmt.Errorf("save booking: %w", err)
			}

		case TargetGroupSession:
			var session models.GroupSession
			if err := lockForUpdate(tx).First(&session, "id = ?", targetID).Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return fmt.Errorf("group session %s: %w", targetID, ErrNotFound)
				}
				return fmt.Errorf("load group session: %w", err)
			}
			if session.Status != "approved" {
				return fmt.Errorf("group session is %s: %w", session.Status, ErrNotApprovable)
			}
			session.MeetingLink = &link
			if err := tx.Save(&session).Error; err != nil {
				return fmt.Errorf("save group session: %w", err)
			}
			if err := tx.Model(&models.Booking{}).
				Where("group_session_id = ? AND status = ?", targetID, "assigned").
				Update("meeting_link", link).Error; err != nil {
				return fmt.Errorf("update linked bookings: %w", err)
			}

		default:
			return invalidField("target_kind", "must be booking or group_session")
		}
		return nil
	})
}

// TutorHint is one candidate tutor with the advisory availability flag for a
// requested slot. The flag never blocks assignment.
type TutorHint struct {
	ID          uuid.UUID `json:"id"`
	FullName    string    `json:"full_name"`
	Email       string    `json:"email"`
	IsAvailable bool      `json:"is_available"`
}

// TutorAvailabilityHints flags every tutor as available for the requested
// date and time when any of their active weekly windows on that weekday
// satisfies start <= t < end. Available tutors sort first.
func TutorAvailabilityHints(db *gorm.DB, preferredDate, preferredTime string) ([]TutorHint, error) {
	day, err := time.Parse("2006-01-02", preferredDate)
	if err != nil {
		return nil, invalidField("preferred_date", "must be YYYY-MM-DD")
	}
	weekday := int(day.Weekday())

	var tutors []models.User
	if err := db.Where("role = ? AND is_active = ?", "tutor", true).
		Order("full_name asc").
		Find(&tutors).Error; err != nil {
		return nil, fmt.Errorf("list tutors: %w", err)
	}

	var windows []models.TutorAvailability
	if err := db.Where("day_of_week = ? AND is_active = ?", weekday, true).
		Find(&windows).Error; err != nil {
		return nil, fmt.Errorf("list availability windows: %w", err)
	}

	available := make(map[uuid.UUID]bool, len(windows))
	for _, w := range windows {
		// HH:MM strings compare lexicographically.
		if preferredTime != "" && w.StartTime <= preferredTime && preferredTime < w.EndTime {
			available[w.TutorID] = true
		}
	}

	hints := make([]TutorHint, 0, len(tutors))
	for _, t := range tutors {
		hints = append(hints, TutorHint{
			ID:          t.ID,
			FullName:    t.FullName,
			Email:       t.Email,
			IsAvailable: available[t.ID],
		})
	}
	sort.SliceStable(hints, func(i, j int) bool {
		return hints[i].IsAvailable && !hints[j].IsAvailable
	})
	return hints, nil
}
