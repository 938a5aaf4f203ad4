package services

import (
	"errors"
	"fmt"
	"regexp"

	"github.com/google/uuid"
	"github.com/lwandile/tutor_connect/models"
	"github.com/lwandile/tutor_connect/utils"
	"gorm.io/gorm"
)

const (
	ClassTypeOneOnOne = "one-on-one"
	ClassTypeGroup    = "group"

	DeliveryOnline   = "online"
	DeliveryInPerson = "in_person"

	minSessionMinutes = 30
)

// BookingInput is a student's parsed session request. The acting student is
// passed separately so the intake logic never reads ambient session state.
type BookingInput struct {
	ServiceID          uuid.UUID
	ClassType          string
	DeliveryMode       string
	PreferredDate      string // YYYY-MM-DD
	PreferredTime      string // HH:MM, optional for group requests
	Curriculum         string
	DurationMinutes    int
	Notes              string
	TravelAcknowledged bool
}

var (
	datePattern = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)
	timePattern = regexp.MustCompile(`^\d{2}:\d{2}$`)
)

// ValidateBookingInput enforces the per-class-type intake rules. Group
// requests are normalized to online delivery; nothing is ever silently
// defaulted for one-on-one requests.
func ValidateBookingInput(in *BookingInput) error {
	if in.ServiceID == uuid.Nil {
		return invalidField("service_id", "a subject or service is required")
	}
	if in.ClassType != ClassTypeOneOnOne && in.ClassType != ClassTypeGroup {
		return invalidField("class_type", "must be one-on-one or group")
	}
	if !datePattern.MatchString(in.PreferredDate) {
		return invalidField("preferred_date", "a session date is required")
	}
	if in.PreferredTime != "" && !timePattern.MatchString(in.PreferredTime) {
		return invalidField("preferred_time", "must be HH:MM")
	}

	if in.ClassType == ClassTypeGroup {
		// Group sessions run online and the shared time slot is assigned by
		// an admin later, so neither curriculum nor duration applies.
		in.DeliveryMode = DeliveryOnline
		return nil
	}

	if in.DeliveryMode != DeliveryOnline && in.DeliveryMode != DeliveryInPerson {
		return invalidField("delivery_mode", "must be online or in_person")
	}
	if in.PreferredTime == "" {
		return invalidField("preferred_time", "a session time is required")
	}
	if in.Curriculum == "" {
		return invalidField("curriculum", "a curriculum is required for one-on-one sessions")
	}
	if in.DurationMinutes < minSessionMinutes {
		return invalidField("duration_minutes", "sessions must be at least 30 minutes")
	}
	if in.DeliveryMode == DeliveryInPerson && !in.TravelAcknowledged {
		return invalidField("travel_acknowledged", "in-person sessions require the travel acknowledgement")
	}
	return nil
}

// SubmitBooking validates and persists one booking request with status
// pending. Group-class requests are routed through the group matcher and
// participant ledger, so the returned booking references the resolved group
// session.
func SubmitBooking(db *gorm.DB, studentID uuid.UUID, in BookingInput) (*models.Booking, error) {
	if err := ValidateBookingInput(&in); err != nil {
		return nil, err
	}

	var service models.TutoringService
	if err := db.First(&service, "id = ? AND is_active = ?", in.ServiceID, true).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("tutoring service %s: %w", in.ServiceID, ErrNotFound)
		}
		return nil, fmt.Errorf("load tutoring service: %w", err)
	}

	if in.ClassType == ClassTypeGroup {
		groupID, err := ResolveGroupSession(db, service, in.DeliveryMode, in.PreferredDate)
		if err != nil {
			return nil, err
		}
		return JoinGroupSession(db, groupID, studentID, in)
	}

	var booking models.Booking
	err := db.Transaction(func(tx *gorm.DB) error {
		reference, err := utils.GenerateBookingReference(tx)
		if err != nil {
			return fmt.Errorf("generate booking reference: %w", err)
		}

		booking = models.Booking{
			ID:              uuid.New(),
			Reference:       reference,
			StudentID:       studentID,
			ServiceID:       service.ID,
			ClassType:       ClassTypeOneOnOne,
			DeliveryMode:    in.DeliveryMode,
			PreferredDate:   in.PreferredDate,
			PreferredTime:   strPtr(in.PreferredTime),
			Curriculum:      strPtr(in.Curriculum),
			DurationMinutes: &in.DurationMinutes,
			Notes:           strPtr(in.Notes),
			Status:          "pending",
		}
		return tx.Create(&booking).Error
	})
	if err != nil {
		return nil, fmt.Errorf("create booking: %w", err)
	}
	return &booking, nil
}

// CancelBooking lets the requesting student withdraw a pending booking. Group
// bookings also leave the group session, and the quorum is reconciled inside
// the same transaction.
func CancelBooking(db *gorm.DB, bookingID, studentID uuid.UUID) error {
	return db.Transaction(func(tx *gorm.DB) error {
		var booking models.Booking
		if err := lockForUpdate(tx).First(&booking, "id = ?", bookingID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("booking %s: %w", bookingID, ErrNotFound)
			}
			return fmt.Errorf("load booking: %w", err)
		}
		if booking.StudentID != studentID {
			return fmt.Errorf("booking %s does not belong to student: %w", bookingID, ErrNotFound)
		}
		if booking.Status != "pending" {
			return fmt.Errorf("booking is %s: %w", booking.Status, ErrNotApprovable)
		}

		booking.Status = "cancelled"
		if err := tx.Save(&booking).Error; err != nil {
			return fmt.Errorf("cancel booking: %w", err)
		}

		if booking.ClassType == ClassTypeGroup && booking.GroupSessionID != nil {
			if err := removeParticipant(tx, *booking.GroupSessionID, studentID); err != nil {
				return err
			}
		}
		return nil
	})
}

func strPtr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
