package services

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lwandile/tutor_connect/models"
	"github.com/lwandile/tutor_connect/utils"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const (
	GroupMinStudents = 3
	GroupMaxStudents = 40

	resolveRetries = 3
)

// lockForUpdate applies a row lock where the dialect supports it. The sqlite
// dialector used in tests has no row-level locks; its writes serialize on the
// whole database instead.
func lockForUpdate(tx *gorm.DB) *gorm.DB {
	if tx.Dialector.Name() == "sqlite" {
		return tx
	}
	return tx.Clauses(clause.Locking{Strength: "UPDATE"})
}

func openSlotKey(serviceID uuid.UUID, sessionType, preferredDate string) string {
	return fmt.Sprintf("%s|%s|%s", serviceID, sessionType, preferredDate)
}

// ResolveGroupSession returns the id of the single open group session for
// (service, session type, date), creating one when none exists. The create is
// an insert-if-absent: the unique index on open_slot_key turns a lost race
// into gorm.ErrDuplicatedKey, after which the winner's session is fetched.
func ResolveGroupSession(db *gorm.DB, service models.TutoringService, sessionType, preferredDate string) (uuid.UUID, error) {
	key := openSlotKey(service.ID, sessionType, preferredDate)

	for attempt := 0; attempt < resolveRetries; attempt++ {
		var existing models.GroupSession
		err := db.First(&existing, "open_slot_key = ?", key).Error
		if err == nil {
			return existing.ID, nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return uuid.Nil, fmt.Errorf("search open group session: %w", err)
		}

		session := models.GroupSession{
			ID:            uuid.New(),
			ServiceID:     service.ID,
			Subject:       service.Name,
			SessionType:   sessionType,
			PreferredDate: preferredDate,
			Status:        "forming",
			MinStudents:   GroupMinStudents,
			MaxStudents:   GroupMaxStudents,
			CurrentCount:  0,
			OpenSlotKey:   &key,
		}
		err = db.Create(&session).Error
		if err == nil {
			return session.ID, nil
		}
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			// Another student created the group between our search and
			// insert. Loop back and pick theirs up.
			continue
		}
		return uuid.Nil, fmt.Errorf("create group session: %w", err)
	}
	return uuid.Nil, fmt.Errorf("resolve group session for slot %s: retries exhausted", key)
}

// JoinGroupSession records a student's membership exactly once, creates the
// linked booking and reconciles the quorum, all in one transaction. The
// membership check runs first so a returning student always hears "already
// joined", and status plus capacity are rechecked under the row lock, never
// against the cached counter alone.
func JoinGroupSession(db *gorm.DB, groupID, studentID uuid.UUID, in BookingInput) (*models.Booking, error) {
	var booking models.Booking
	err := db.Transaction(func(tx *gorm.DB) error {
		var session models.GroupSession
		if err := lockForUpdate(tx).First(&session, "id = ?", groupID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("group session %s: %w", groupID, ErrNotFound)
			}
			return fmt.Errorf("load group session: %w", err)
		}

		var existing int64
		if err := tx.Model(&models.GroupSessionParticipant{}).
			Where("group_session_id = ? AND student_id = ?", groupID, studentID).
			Count(&existing).Error; err != nil {
			return fmt.Errorf("check membership: %w", err)
		}
		if existing > 0 {
			return ErrDuplicateMembership
		}

		// A session the matcher resolved may have been cancelled or approved
		// between resolve and join; only forming and ready sessions take new
		// members.
		switch session.Status {
		case "forming", "ready":
		case "full":
			return ErrCapacityExceeded
		default:
			return fmt.Errorf("group session is %s: %w", session.Status, ErrNotApprovable)
		}

		var count int64
		if err := tx.Model(&models.GroupSessionParticipant{}).
			Where("group_session_id = ?", groupID).
			Count(&count).Error; err != nil {
			return fmt.Errorf("count participants: %w", err)
		}
		if count >= int64(session.MaxStudents) {
			return ErrCapacityExceeded
		}

		participant := models.GroupSessionParticipant{
			ID:             uuid.New(),
			GroupSessionID: groupID,
			StudentID:      studentID,
			Notes:          strPtr(in.Notes),
			JoinedAt:       time.Now(),
		}
		if err := tx.Create(&participant).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return ErrDuplicateMembership
			}
			return fmt.Errorf("create participant: %w", err)
		}

		reference, err := utils.GenerateBookingReference(tx)
		if err != nil {
			return fmt.Errorf("generate booking reference: %w", err)
		}
		booking = models.Booking{
			ID:             uuid.New(),
			Reference:      reference,
			StudentID:      studentID,
			ServiceID:      session.ServiceID,
			ClassType:      ClassTypeGroup,
			DeliveryMode:   DeliveryOnline,
			PreferredDate:  session.PreferredDate,
			PreferredTime:  nil,
			Notes:          strPtr(in.Notes),
			Status:         "pending",
			GroupSessionID: &groupID,
		}
		if err := tx.Create(&booking).Error; err != nil {
			return fmt.Errorf("create linked booking: %w", err)
		}

		return ReconcileQuorum(tx, &session)
	})
	if err != nil {
		return nil, err
	}
	return &booking, nil
}

// removeParticipant deletes a student's membership and reconciles the quorum.
// Runs inside the caller's transaction.
func removeParticipant(tx *gorm.DB, groupID, studentID uuid.UUID) error {
	var session models.GroupSession
	if err := lockForUpdate(tx).First(&session, "id = ?", groupID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("group session %s: %w", groupID, ErrNotFound)
		}
		return fmt.Errorf("load group session: %w", err)
	}

	res := tx.Where("group_session_id = ? AND student_id = ?", groupID, studentID).
		Delete(&models.GroupSessionParticipant{})
	if res.Error != nil {
		return fmt.Errorf("delete participant: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("participant: %w", ErrNotFound)
	}

	return ReconcileQuorum(tx, &session)
}

// nextGroupStatus is the quorum transition table. It only ever applies to the
// membership-driven statuses; terminal and admin-controlled statuses are
// handled by the caller.
func nextGroupStatus(count, minStudents, maxStudents int) string {
	switch {
	case count >= maxStudents:
		return "full"
	case count >= minStudents:
		return "ready"
	default:
		return "forming"
	}
}

// ReconcileQuorum recomputes a session's member count from the participant
// rows and applies the forming/ready/full transitions. Sessions in
// assigned/approved/completed/cancelled are never moved by count changes;
// their counter is still reconciled. Must run inside the same transaction as
// the membership mutation.
func ReconcileQuorum(tx *gorm.DB, session *models.GroupSession) error {
	var count int64
	if err := tx.Model(&models.GroupSessionParticipant{}).
		Where("group_session_id = ?", session.ID).
		Count(&count).Error; err != nil {
		return fmt.Errorf("count participants: %w", err)
	}
	session.CurrentCount = int(count)

	switch session.Status {
	case "forming", "ready", "full":
		prev := session.Status
		session.Status = nextGroupStatus(session.CurrentCount, session.MinStudents, session.MaxStudents)

		if session.Status == "full" {
			// A full session is not joinable; release the slot so a new group
			// can form for the same service and date.
			session.OpenSlotKey = nil
		} else if prev == "full" && session.OpenSlotKey == nil {
			key := openSlotKey(session.ServiceID, session.SessionType, session.PreferredDate)
			var holders int64
			if err := tx.Model(&models.GroupSession{}).
				Where("open_slot_key = ?", key).
				Count(&holders).Error; err != nil {
				return fmt.Errorf("check slot key holder: %w", err)
			}
			// Reclaim the slot only if no newer group took it meanwhile.
			if holders == 0 {
				session.OpenSlotKey = &key
			}
		}
	default:
		// assigned/approved/completed/cancelled: counter reconciles, status
		// stays put.
	}

	if err := tx.Save(session).Error; err != nil {
		return fmt.Errorf("save group session: %w", err)
	}
	return nil
}

// CancelGroupSession is the admin-driven terminal transition. It cancels the
// linked pending bookings, cascades the participant rows away and releases
// the open slot. Returns the affected student ids so the caller can notify
// them.
func CancelGroupSession(db *gorm.DB, groupID uuid.UUID) ([]uuid.UUID, error) {
	var studentIDs []uuid.UUID
	err := db.Transaction(func(tx *gorm.DB) error {
		var session models.GroupSession
		if err := lockForUpdate(tx).First(&session, "id = ?", groupID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("group session %s: %w", groupID, ErrNotFound)
			}
			return fmt.Errorf("load group session: %w", err)
		}
		if session.Status == "completed" || session.Status == "cancelled" {
			return fmt.Errorf("group session is %s: %w", session.Status, ErrNotApprovable)
		}

		if err := tx.Model(&models.GroupSessionParticipant{}).
			Where("group_session_id = ?", groupID).
			Pluck("student_id", &studentIDs).Error; err != nil {
			return fmt.Errorf("list participants: %w", err)
		}

		if err := tx.Model(&models.Booking{}).
			Where("group_session_id = ? AND status = ?", groupID, "pending").
			Update("status", "cancelled").Error; err != nil {
			return fmt.Errorf("cancel linked bookings: %w", err)
		}

		if err := tx.Where("group_session_id = ?", groupID).
			Delete(&models.GroupSessionParticipant{}).Error; err != nil {
			return fmt.Errorf("delete participants: %w", err)
		}

		session.Status = "cancelled"
		session.OpenSlotKey = nil
		session.CurrentCount = 0
		if err := tx.Save(&session).Error; err != nil {
			return fmt.Errorf("save group session: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return studentIDs, nil
}
