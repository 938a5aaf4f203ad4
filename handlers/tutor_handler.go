package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
	"github.com/lwandile/tutor_connect/database"
	"github.com/lwandile/tutor_connect/models"
	"github.com/lwandile/tutor_connect/services"
	"gorm.io/gorm"
)

type TutorApplicationRequest struct {
	Headline string `json:"headline" validate:"required"`
	Bio      string `json:"bio" validate:"required"`
	Subjects string `json:"subjects,omitempty"`
}

func ApplyToBeATutor(c *fiber.Ctx) error {
	token := c.Locals("user").(*jwt.Token)
	claims := token.Claims.(jwt.MapClaims)
	userID, _ := uuid.Parse(claims["user_id"].(string))

	var req TutorApplicationRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Cannot parse JSON"})
	}
	if err := validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	var existing models.TutorDetail
	err := database.DB.Where("user_id = ?", userID).First(&existing).Error
	if err == nil {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "You have already submitted an application."})
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Database error"})
	}

	application := models.TutorDetail{
		UserID:   userID,
		Headline: &req.Headline,
		Bio:      &req.Bio,
		Subjects: strOrNil(req.Subjects),
	}
	if err := database.DB.Create(&application).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to create application"})
	}

	return c.Status(fiber.StatusCreated).JSON(application)
}

type AvailabilityRequest struct {
	DayOfWeek int    `json:"day_of_week" validate:"min=0,max=6"`
	StartTime string `json:"start_time" validate:"required,datetime=15:04"`
	EndTime   string `json:"end_time" validate:"required,datetime=15:04"`
}

func CreateAvailability(c *fiber.Ctx) error {
	token := c.Locals("user").(*jwt.Token)
	claims := token.Claims.(jwt.MapClaims)
	tutorID, _ := uuid.Parse(claims["user_id"].(string))

	var req AvailabilityRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Cannot parse JSON"})
	}
	if err := validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}
	if req.StartTime >= req.EndTime {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Start time must be before end time"})
	}

	window := models.TutorAvailability{
		ID:        uuid.New(),
		TutorID:   tutorID,
		DayOfWeek: req.DayOfWeek,
		StartTime: req.StartTime,
		EndTime:   req.EndTime,
		IsActive:  true,
	}
	if err := database.DB.Create(&window).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to create availability window"})
	}

	return c.Status(fiber.StatusCreated).JSON(window)
}

func GetMyAvailability(c *fiber.Ctx) error {
	token := c.Locals("user").(*jwt.Token)
	claims := token.Claims.(jwt.MapClaims)
	tutorID := claims["user_id"].(string)

	var windows []models.TutorAvailability
	database.DB.
		Where("tutor_id = ?", tutorID).
		Order("day_of_week asc, start_time asc").
		Find(&windows)

	return c.JSON(windows)
}

func UpdateAvailability(c *fiber.Ctx) error {
	token := c.Locals("user").(*jwt.Token)
	claims := token.Claims.(jwt.MapClaims)
	tutorID, _ := uuid.Parse(claims["user_id"].(string))

	type UpdateRequest struct {
		IsActive *bool `json:"is_active" validate:"required"`
	}
	var req UpdateRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Cannot parse JSON"})
	}
	if err := validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	var window models.TutorAvailability
	if err := database.DB.First(&window, "id = ?", c.Params("availabilityId")).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Availability window not found"})
	}
	if window.TutorID != tutorID {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "This availability window is not yours"})
	}

	window.IsActive = *req.IsActive
	if err := database.DB.Save(&window).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to update availability window"})
	}
	return c.JSON(window)
}

func DeleteAvailability(c *fiber.Ctx) error {
	token := c.Locals("user").(*jwt.Token)
	claims := token.Claims.(jwt.MapClaims)
	tutorID, _ := uuid.Parse(claims["user_id"].(string))

	var window models.TutorAvailability
	if err := database.DB.First(&window, "id = ?", c.Params("availabilityId")).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Availability window not found"})
	}
	if window.TutorID != tutorID {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "This availability window is not yours"})
	}

	if err := database.DB.Delete(&window).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to delete availability window"})
	}
	return c.JSON(fiber.Map{"message": "Availability window deleted"})
}

// GetMyAssignedBookings merges bookings where this tutor is the legacy
// primary tutor with those where they appear anywhere in the ordered
// assignment list.
func GetMyAssignedBookings(c *fiber.Ctx) error {
	token := c.Locals("user").(*jwt.Token)
	claims := token.Claims.(jwt.MapClaims)
	tutorID, _ := uuid.Parse(claims["user_id"].(string))

	var assignedIDs []uuid.UUID
	database.DB.Model(&models.TutorAssignment{}).
		Where("tutor_id = ? AND target_type = ?", tutorID, services.TargetBooking).
		Pluck("target_id", &assignedIDs)

	var bookings []models.Booking
	database.DB.
		Preload("Student").
		Preload("Service").
		Where("tutor_id = ? OR id IN ?", tutorID, idsOrNone(assignedIDs)).
		Order("created_at desc").
		Find(&bookings)

	return c.JSON(bookings)
}

func GetMyAssignedGroupSessions(c *fiber.Ctx) error {
	token := c.Locals("user").(*jwt.Token)
	claims := token.Claims.(jwt.MapClaims)
	tutorID, _ := uuid.Parse(claims["user_id"].(string))

	var assignedIDs []uuid.UUID
	database.DB.Model(&models.TutorAssignment{}).
		Where("tutor_id = ? AND target_type = ?", tutorID, services.TargetGroupSession).
		Pluck("target_id", &assignedIDs)

	var sessions []models.GroupSession
	database.DB.
		Preload("Service").
		Preload("Participants.Student").
		Where("tutor_id = ? OR id IN ?", tutorID, idsOrNone(assignedIDs)).
		Order("created_at desc").
		Find(&sessions)

	return c.JSON(sessions)
}

// idsOrNone keeps the IN clause valid when a tutor has no list assignments.
func idsOrNone(ids []uuid.UUID) []uuid.UUID {
	if len(ids) == 0 {
		return []uuid.UUID{uuid.Nil}
	}
	return ids
}

func strOrNil(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
