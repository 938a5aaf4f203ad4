package handlers

import (
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

func ListPendingBookings(c *fiber.Ctx) error {
	var bookings []models.Booking
	if err := database.DB.
		Preload("Student").
		Preload("Service").
		Where("status = ? AND class_type = ?", "pending", services.ClassTypeOneOnOne).
		Order("created_at asc").
		Find(&bookings).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Database error"})
	}
	return c.JSON(bookings)
}

func ListReadyGroupSessions(c *fiber.Ctx) error {
	var sessions []models.GroupSession
	if err := database.DB.
		Preload("Service").
		Preload("Participants.Student").
		Where("status = ?", "ready").
		Order("created_at asc").
		Find(&sessions).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Database error"})
	}
	return c.JSON(sessions)
}

type AssignTutorsRequest struct {
	TutorIDs []string `json:"tutor_ids" validate:"required,min=1,max=5,dive,uuid"`
}

func parseAssignRequest(c *fiber.Ctx) ([]uuid.UUID, error) {
	var req AssignTutorsRequest
	if err := c.BodyParser(&req); err != nil {
		return nil, fmt.Errorf("Cannot parse JSON")
	}
	if err := validate.Struct(req); err != nil {
		return nil, err
	}
	tutorIDs := make([]uuid.UUID, 0, len(req.TutorIDs))
	for _, raw := range req.TutorIDs {
		id, err := uuid.Parse(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid tutor id %q", raw)
		}
		tutorIDs = append(tutorIDs, id)
	}
	return tutorIDs, nil
}

// ApproveBooking assigns 1-5 tutors in priority order to a pending one-on-one
// booking and marks it assigned.
func ApproveBooking(c *fiber.Ctx) error {
	token := c.Locals("user").(*jwt.Token)
	claims := token.Claims.(jwt.MapClaims)
	adminID, _ := uuid.Parse(claims["user_id"].(string))

	bookingID, err := uuid.Parse(c.Params("bookingId"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid booking id"})
	}

	tutorIDs, err := parseAssignRequest(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	if err := services.AssignTutors(database.DB, services.TargetBooking, bookingID, tutorIDs, adminID); err != nil {
		return serviceError(c, err)
	}

	var booking models.Booking
	if err := database.DB.Preload("Service").First(&booking, "id = ?", bookingID).Error; err == nil {
		notifications.Notify(database.DB, booking.StudentID, "booking_assigned",
			"Your booking has been approved",
			fmt.Sprintf("A tutor has been assigned to your %s session on %s.", booking.Service.Name, booking.PreferredDate))
		notifications.NotifyMany(database.DB, tutorIDs, "session_assigned",
			"You have been assigned a session",
			fmt.Sprintf("You have been assigned to a %s session on %s.", booking.Service.Name, booking.PreferredDate))
	}

	websocket.PublishChange("bookings", "UPDATE", bookingID)

	return c.JSON(fiber.Map{"message": fmt.Sprintf("Booking approved and %d tutor(s) assigned successfully", len(tutorIDs))})
}

// ApproveGroupSession assigns 1-5 tutors in priority order to a ready group
// session and marks it approved.
func ApproveGroupSession(c *fiber.Ctx) error {
	token := c.Locals("user").(*jwt.Token)
	claims := token.Claims.(jwt.MapClaims)
	adminID, _ := uuid.Parse(claims["user_id"].(string))

	sessionID, err := uuid.Parse(c.Params("sessionId"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid group session id"})
	}

	tutorIDs, err := parseAssignRequest(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	if err := services.AssignTutors(database.DB, services.TargetGroupSession, sessionID, tutorIDs, adminID); err != nil {
		return serviceError(c, err)
	}

	var session models.GroupSession
	if err := database.DB.Preload("Participants").First(&session, "id = ?", sessionID).Error; err == nil {
		studentIDs := make([]uuid.UUID, 0, len(session.Participants))
		for _, p := range session.Participants {
			studentIDs = append(studentIDs, p.StudentID)
		}
		notifications.NotifyMany(database.DB, studentIDs, "group_approved",
			"Your group session has been approved",
			fmt.Sprintf("A tutor has been assigned to your %s group session on %s.", session.Subject, session.PreferredDate))
		notifications.NotifyMany(database.DB, tutorIDs, "session_assigned",
			"You have been assigned a group session",
			fmt.Sprintf("You have been assigned to a %s group session on %s.", session.Subject, session.PreferredDate))
	}

	websocket.PublishChange("group_sessions", "UPDATE", sessionID)

	return c.JSON(fiber.Map{"message": fmt.Sprintf("Group session approved and %d tutor(s) assigned successfully", len(tutorIDs))})
}

func RejectBooking(c *fiber.Ctx) error {
	bookingID, err := uuid.Parse(c.Params("bookingId"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid booking id"})
	}

	var booking models.Booking
	if err := database.DB.First(&booking, "id = ?", bookingID).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Booking not found"})
	}
	if booking.Status != "pending" {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "Only pending bookings can be rejected"})
	}

	booking.Status = "rejected"
	if err := database.DB.Save(&booking).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to reject booking"})
	}

	notifications.Notify(database.DB, booking.StudentID, "booking_rejected",
		"Your booking was not approved",
		fmt.Sprintf("Your session request for %s could not be approved. Please contact support or submit a new request.", booking.PreferredDate))
	websocket.PublishChange("bookings", "UPDATE", bookingID)

	return c.JSON(fiber.Map{"message": "Booking rejected"})
}

func CancelGroupSession(c *fiber.Ctx) error {
	sessionID, err := uuid.Parse(c.Params("sessionId"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid group session id"})
	}

	studentIDs, err := services.CancelGroupSession(database.DB, sessionID)
	if err != nil {
		return serviceError(c, err)
	}

	notifications.NotifyMany(database.DB, studentIDs, "group_cancelled",
		"Your group session was cancelled",
		"Your group session has been cancelled. You can submit a new booking for a different date.")
	websocket.PublishChange("group_sessions", "UPDATE", sessionID)

	return c.JSON(fiber.Map{"message": "Group session cancelled"})
}

type AddLinkRequest struct {
	MeetingLink string `json:"meeting_link" validate:"required,url"`
}

// AddBookingMeetingLink attaches the video-call link to an assigned one-on-one
// booking and tells the student and tutors where to show up.
func AddBookingMeetingLink(c *fiber.Ctx) error {
	bookingID, err := uuid.Parse(c.Params("bookingId"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid booking id"})
	}

	var req AddLinkRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Cannot parse JSON"})
	}
	if err := validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	if err := services.SetMeetingLink(database.DB, services.TargetBooking, bookingID, req.MeetingLink); err != nil {
		return serviceError(c, err)
	}

	var booking models.Booking
	if err := database.DB.First(&booking, "id = ?", bookingID).Error; err == nil {
		notifications.Notify(database.DB, booking.StudentID, "meeting_link_added",
			"Your session link is ready",
			fmt.Sprintf("The meeting link for your session on %s has been added. Check your booking for details.", booking.PreferredDate))
		if booking.TutorID != nil {
			notifications.Notify(database.DB, *booking.TutorID, "meeting_link_added",
				"Session link added",
				fmt.Sprintf("The meeting link for your session on %s has been added.", booking.PreferredDate))
		}
	}
	websocket.PublishChange("bookings", "UPDATE", bookingID)

	return c.JSON(fiber.Map{"message": "Meeting link added successfully"})
}

func AddGroupSessionMeetingLink(c *fiber.Ctx) error {
	sessionID, err := uuid.Parse(c.Params("sessionId"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid group session id"})
	}

	var req AddLinkRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Cannot parse JSON"})
	}
	if err := validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	if err := services.SetMeetingLink(database.DB, services.TargetGroupSession, sessionID, req.MeetingLink); err != nil {
		return serviceError(c, err)
	}

	var session models.GroupSession
	if err := database.DB.Preload("Participants").First(&session, "id = ?", sessionID).Error; err == nil {
		studentIDs := make([]uuid.UUID, 0, len(session.Participants))
		for _, p := range session.Participants {
			studentIDs = append(studentIDs, p.StudentID)
		}
		notifications.NotifyMany(database.DB, studentIDs, "meeting_link_added",
			"Your group session link is ready",
			fmt.Sprintf("The meeting link for your %s group session on %s has been added.", session.Subject, session.PreferredDate))
		if session.TutorID != nil {
			notifications.Notify(database.DB, *session.TutorID, "meeting_link_added",
				"Group session link added",
				fmt.Sprintf("The meeting link for your %s group session on %s has been added.", session.Subject, session.PreferredDate))
		}
	}
	websocket.PublishChange("group_sessions", "UPDATE", sessionID)

	return c.JSON(fiber.Map{"message": "Meeting link added successfully"})
}

// GetTutorAvailabilityHints flags each tutor's declared weekly availability
// against a requested slot. Advisory only: assignment never enforces it.
func GetTutorAvailabilityHints(c *fiber.Ctx) error {
	date := c.Query("date")
	timeOfDay := c.Query("time")
	if date == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "date query parameter is required"})
	}

	hints, err := services.TutorAvailabilityHints(database.DB, date, timeOfDay)
	if err != nil {
		return serviceError(c, err)
	}
	return c.JSON(hints)
}

func AdminGetAllBookings(c *fiber.Ctx) error {
	var bookings []models.Booking
	if err := database.DB.
		Preload("Student").
		Preload("Service").
		Preload("Tutors", func(db *gorm.DB) *gorm.DB {
			return db.Order("tutor_assignments.assignment_order asc")
		}).
		Preload("Tutors.Tutor").
		Order("created_at desc").
		Find(&bookings).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Database error"})
	}
	return c.JSON(bookings)
}

func AdminGetGroupSessions(c *fiber.Ctx) error {
	var sessions []models.GroupSession
	if err := database.DB.
		Preload("Service").
		Preload("Participants.Student").
		Preload("Tutors", func(db *gorm.DB) *gorm.DB {
			return db.Order("tutor_assignments.assignment_order asc")
		}).
		Preload("Tutors.Tutor").
		Order("created_at desc").
		Find(&sessions).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Database error"})
	}
	return c.JSON(sessions)
}

func GetAllUsers(c *fiber.Ctx) error {
	var users []models.User
	if err := database.DB.Order("created_at desc").Find(&users).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Database error"})
	}
	return c.JSON(users)
}

func ListPendingApplications(c *fiber.Ctx) error {
	var pendingTutors []models.TutorDetail
	if err := database.DB.Preload("User").Where("status = ?", "pending").Find(&pendingTutors).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Database error"})
	}
	return c.JSON(pendingTutors)
}

func ManageApplication(c *fiber.Ctx) error {
	type MgtRequest struct {
		Status string `json:"status" validate:"required,oneof=approved rejected"`
	}

	var req MgtRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Cannot parse JSON"})
	}
	if err := validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	tutorUserID := c.Params("tutorId")

	var application models.TutorDetail
	if err := database.DB.Where("user_id = ?", tutorUserID).First(&application).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Application not found"})
	}

	var user models.User
	if err := database.DB.Where("id = ?", tutorUserID).First(&user).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Associated user not found"})
	}

	err := database.DB.Transaction(func(tx *gorm.DB) error {
		application.Status = req.Status
		if err := tx.Save(&application).Error; err != nil {
			return err
		}
		if req.Status == "approved" {
			user.Role = "tutor"
			if err := tx.Save(&user).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to update application status"})
	}

	switch req.Status {
	case "approved":
		notifications.Notify(database.DB, user.ID, "application_approved",
			"Your tutor application has been approved",
			"Congratulations! You can now set your weekly availability and receive session assignments.")
	case "rejected":
		notifications.Notify(database.DB, user.ID, "application_rejected",
			"Update on your tutor application",
			"We regret to inform you that your tutor application was not approved at this time.")
	}

	return c.JSON(fiber.Map{"message": "Application status updated successfully"})
}
