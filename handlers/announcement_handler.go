package handlers

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
	"github.com/lwandile/tutor_connect/database"
	"github.com/lwandile/tutor_connect/models"
	"github.com/lwandile/tutor_connect/websocket"
)

type AnnouncementRequest struct {
	Title       string   `json:"title" validate:"required,min=3"`
	Content     string   `json:"content" validate:"required"`
	TargetRoles []string `json:"target_roles" validate:"omitempty,dive,oneof=admin tutor student"`
	IsPublished bool     `json:"is_published"`
}

func CreateAnnouncement(c *fiber.Ctx) error {
	token := c.Locals("user").(*jwt.Token)
	claims := token.Claims.(jwt.MapClaims)
	adminID, _ := uuid.Parse(claims["user_id"].(string))

	var req AnnouncementRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Cannot parse JSON"})
	}
	if err := validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	roles := req.TargetRoles
	if len(roles) == 0 {
		roles = []string{"admin", "tutor", "student"}
	}

	announcement := models.Announcement{
		ID:          uuid.New(),
		Title:       req.Title,
		Content:     req.Content,
		AuthorID:    adminID,
		TargetRoles: strings.Join(roles, ","),
		IsPublished: req.IsPublished,
	}
	if err := database.DB.Create(&announcement).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to create announcement"})
	}

	if announcement.IsPublished {
		websocket.PublishChange("announcements", "INSERT", announcement.ID)
	}

	return c.Status(fiber.StatusCreated).JSON(announcement)
}

// ListAnnouncements returns published announcements targeted at the caller's
// role. Admins see everything, drafts included.
func ListAnnouncements(c *fiber.Ctx) error {
	token := c.Locals("user").(*jwt.Token)
	claims := token.Claims.(jwt.MapClaims)
	role := claims["role"].(string)

	var announcements []models.Announcement
	query := database.DB.Preload("Author").Order("created_at desc")
	if role != "admin" {
		query = query.Where("is_published = ? AND target_roles LIKE ?", true, "%"+role+"%")
	}
	if err := query.Find(&announcements).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Database error"})
	}
	return c.JSON(announcements)
}

func UpdateAnnouncement(c *fiber.Ctx) error {
	var req AnnouncementRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Cannot parse JSON"})
	}
	if err := validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	var announcement models.Announcement
	if err := database.DB.First(&announcement, "id = ?", c.Params("announcementId")).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Announcement not found"})
	}

	announcement.Title = req.Title
	announcement.Content = req.Content
	if len(req.TargetRoles) > 0 {
		announcement.TargetRoles = strings.Join(req.TargetRoles, ",")
	}
	wasPublished := announcement.IsPublished
	announcement.IsPublished = req.IsPublished

	if err := database.DB.Save(&announcement).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to update announcement"})
	}

	if !wasPublished && announcement.IsPublished {
		websocket.PublishChange("announcements", "INSERT", announcement.ID)
	}

	return c.JSON(announcement)
}

func DeleteAnnouncement(c *fiber.Ctx) error {
	res := database.DB.Delete(&models.Announcement{}, "id = ?", c.Params("announcementId"))
	if res.Error != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to delete announcement"})
	}
	if res.RowsAffected == 0 {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Announcement not found"})
	}
	return c.JSON(fiber.Map{"message": "Announcement deleted"})
}
