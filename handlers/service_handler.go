package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/lwandile/tutor_connect/database"
	"github.com/lwandile/tutor_connect/models"
	"gorm.io/gorm"
)

type ServiceRequest struct {
	Name              string  `json:"name" validate:"required,min=2"`
	Description       *string `json:"description,omitempty"`
	OnlineAvailable   *bool   `json:"online_available,omitempty"`
	InPersonAvailable *bool   `json:"in_person_available,omitempty"`
}

func CreateService(c *fiber.Ctx) error {
	var req ServiceRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Cannot parse JSON"})
	}
	if err := validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	service := models.TutoringService{
		ID:                uuid.New(),
		Name:              req.Name,
		Description:       req.Description,
		OnlineAvailable:   true,
		InPersonAvailable: false,
		IsActive:          true,
	}
	if req.OnlineAvailable != nil {
		service.OnlineAvailable = *req.OnlineAvailable
	}
	if req.InPersonAvailable != nil {
		service.InPersonAvailable = *req.InPersonAvailable
	}

	if err := database.DB.Create(&service).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "A service with that name already exists"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to create service"})
	}

	return c.Status(fiber.StatusCreated).JSON(service)
}

// ListServices is the public catalog: active services only.
func ListServices(c *fiber.Ctx) error {
	var services []models.TutoringService
	if err := database.DB.Where("is_active = ?", true).Order("name asc").Find(&services).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Database error"})
	}
	return c.JSON(services)
}

func AdminListServices(c *fiber.Ctx) error {
	var services []models.TutoringService
	if err := database.DB.Order("name asc").Find(&services).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Database error"})
	}
	return c.JSON(services)
}

func UpdateService(c *fiber.Ctx) error {
	var req ServiceRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Cannot parse JSON"})
	}
	if err := validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	var service models.TutoringService
	if err := database.DB.First(&service, "id = ?", c.Params("serviceId")).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Service not found"})
	}

	service.Name = req.Name
	service.Description = req.Description
	if req.OnlineAvailable != nil {
		service.OnlineAvailable = *req.OnlineAvailable
	}
	if req.InPersonAvailable != nil {
		service.InPersonAvailable = *req.InPersonAvailable
	}

	if err := database.DB.Save(&service).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to update service"})
	}
	return c.JSON(service)
}

// DeactivateService retires a service from the catalog without touching the
// bookings that reference it.
func DeactivateService(c *fiber.Ctx) error {
	var service models.TutoringService
	if err := database.DB.First(&service, "id = ?", c.Params("serviceId")).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Service not found"})
	}

	service.IsActive = false
	if err := database.DB.Save(&service).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to deactivate service"})
	}
	return c.JSON(fiber.Map{"message": "Service deactivated"})
}
