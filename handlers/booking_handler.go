package handlers

import (
	"errors"
	"fmt"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
	"github.com/lwandile/tutor_connect/database"
	"github.com/lwandile/tutor_connect/models"
	"github.com/lwandile/tutor_connect/notifications"
	"github.com/lwandile/tutor_connect/services"
	"github.com/lwandile/tutor_connect/websocket"
	"gorm.io/gorm"
)

type CreateBookingRequest struct {
	ServiceID          string `json:"service_id" validate:"required,uuid"`
	ClassType          string `json:"class_type" validate:"required,oneof=one-on-one group"`
	DeliveryMode       string `json:"delivery_mode" validate:"omitempty,oneof=online in_person"`
	PreferredDate      string `json:"preferred_date" validate:"required,datetime=2006-01-02"`
	PreferredTime      string `json:"preferred_time" validate:"omitempty,datetime=15:04"`
	Curriculum         string `json:"curriculum,omitempty"`
	DurationMinutes    int    `json:"duration_minutes,omitempty"`
	Notes              string `json:"notes,omitempty"`
	TravelAcknowledged bool   `json:"travel_acknowledged,omitempty"`
}

// serviceError maps the workflow error kinds onto HTTP responses with
// actionable messages; anything unrecognized is a retriable backend failure.
func serviceError(c *fiber.Ctx, err error) error {
	var validationErr *services.ValidationError
	switch {
	case errors.As(err, &validationErr):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": validationErr.Error()})
	case errors.Is(err, services.ErrDuplicateMembership):
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "You have already joined this group session"})
	case errors.Is(err, services.ErrCapacityExceeded):
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "This group session is already full. Please try a different date."})
	case errors.Is(err, services.ErrNotApprovable):
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, services.ErrNotFound), errors.Is(err, gorm.ErrRecordNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Record not found"})
	default:
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Something went wrong, please try again."})
	}
}

func CreateBooking(c *fiber.Ctx) error {
	token := c.Locals("user").(*jwt.Token)
	claims := token.Claims.(jwt.MapClaims)
	studentID, _ := uuid.Parse(claims["user_id"].(string))

	var req CreateBookingRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Cannot parse JSON"})
	}
	if err := validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}
	serviceID, _ := uuid.Parse(req.ServiceID)

	booking, err := services.SubmitBooking(database.DB, studentID, services.BookingInput{
		ServiceID:          serviceID,
		ClassType:          req.ClassType,
		DeliveryMode:       req.DeliveryMode,
		PreferredDate:      req.PreferredDate,
		PreferredTime:      req.PreferredTime,
		Curriculum:         req.Curriculum,
		DurationMinutes:    req.DurationMinutes,
		Notes:              req.Notes,
		TravelAcknowledged: req.TravelAcknowledged,
	})
	if err != nil {
		return serviceError(c, err)
	}

	websocket.PublishChange("bookings", "INSERT", booking.ID)

	if booking.ClassType == services.ClassTypeGroup && booking.GroupSessionID != nil {
		websocket.PublishChange("group_sessions", "UPDATE", *booking.GroupSessionID)
		notifyIfQuorumReached(*booking.GroupSessionID)
		return c.Status(fiber.StatusCreated).JSON(fiber.Map{
			"message": "Successfully joined the group session. You will be notified once enough students have joined and a tutor is assigned.",
			"booking": booking,
		})
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message": "Booking submitted successfully. Wait for admin approval and tutor assignment.",
		"booking": booking,
	})
}

// notifyIfQuorumReached tells the members of a group session that it just hit
// quorum. Fires only on the join that crossed the threshold, so repeat joins
// above the minimum stay quiet.
func notifyIfQuorumReached(sessionID uuid.UUID) {
	var session models.GroupSession
	if err := database.DB.Preload("Participants").First(&session, "id = ?", sessionID).Error; err != nil {
		return
	}
	if session.Status != "ready" || session.CurrentCount != session.MinStudents {
		return
	}
	studentIDs := make([]uuid.UUID, 0, len(session.Participants))
	for _, p := range session.Participants {
		studentIDs = append(studentIDs, p.StudentID)
	}
	notifications.NotifyMany(database.DB, studentIDs, "group_ready",
		"Your group session has enough students",
		fmt.Sprintf("Your %s group session on %s reached the minimum group size and is awaiting tutor assignment.", session.Subject, session.PreferredDate))
}

func GetMyBookings(c *fiber.Ctx) error {
	token := c.Locals("user").(*jwt.Token)
	claims := token.Claims.(jwt.MapClaims)
	studentID, _ := uuid.Parse(claims["user_id"].(string))

	var bookings []models.Booking
	database.DB.
		Preload("Service").
		Preload("Tutors", func(db *gorm.DB) *gorm.DB {
			return db.Order("tutor_assignments.assignment_order asc")
		}).
		Preload("Tutors.Tutor").
		Where("student_id = ?", studentID).
		Order("created_at desc").
		Find(&bookings)

	return c.JSON(bookings)
}

func CancelBooking(c *fiber.Ctx) error {
	token := c.Locals("user").(*jwt.Token)
	claims := token.Claims.(jwt.MapClaims)
	studentID, _ := uuid.Parse(claims["user_id"].(string))

	bookingID, err := uuid.Parse(c.Params("bookingId"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid booking id"})
	}

	if err := services.CancelBooking(database.DB, bookingID, studentID); err != nil {
		return serviceError(c, err)
	}

	websocket.PublishChange("bookings", "UPDATE", bookingID)

	return c.JSON(fiber.Map{"message": "Booking cancelled"})
}

func GetMyGroupSessions(c *fiber.Ctx) error {
	token := c.Locals("user").(*jwt.Token)
	claims := token.Claims.(jwt.MapClaims)
	studentID, _ := uuid.Parse(claims["user_id"].(string))

	var sessions []models.GroupSession
	database.DB.
		Preload("Service").
		Preload("Participants.Student").
		Preload("Tutors", func(db *gorm.DB) *gorm.DB {
			return db.Order("tutor_assignments.assignment_order asc")
		}).
		Preload("Tutors.Tutor").
		Joins("JOIN group_session_participants ON group_session_participants.group_session_id = group_sessions.id").
		Where("group_session_participants.student_id = ?", studentID).
		Order("group_sessions.created_at desc").
		Find(&sessions)

	return c.JSON(sessions)
}
