package routes

import (
	"github.com/gofiber/fiber/v2"
	"github.com/lwandile/tutor_connect/handlers"
	"github.com/lwandile/tutor_connect/middleware"
)

func TutorRoutes(app *fiber.App) {
	api := app.Group("/api/v1")

	api.Post("/tutors/apply", middleware.Protected(), handlers.ApplyToBeATutor)

	tutor := api.Group("/tutor", middleware.Protected(), middleware.TutorRequired())

	availability := tutor.Group("/availability")
	availability.Post("", handlers.CreateAvailability)
	availability.Get("", handlers.GetMyAvailability)
	availability.Put("/:availabilityId", handlers.UpdateAvailability)
	availability.Delete("/:availabilityId", handlers.DeleteAvailability)

	tutor.Get("/bookings", handlers.GetMyAssignedBookings)
	tutor.Get("/group-sessions", handlers.GetMyAssignedGroupSessions)
}
