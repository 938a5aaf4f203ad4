package routes

import (
	"github.com/gofiber/fiber/v2"
	"github.com/lwandile/tutor_connect/handlers"
	"github.com/lwandile/tutor_connect/middleware"
)

func AdminRoutes(app *fiber.App) {
	api := app.Group("/api/v1")

	admin := api.Group("/admin", middleware.Protected(), middleware.AdminRequired())

	admin.Get("/bookings", handlers.AdminGetAllBookings)
	admin.Get("/bookings/pending", handlers.ListPendingBookings)
	admin.Post("/bookings/:bookingId/approve", handlers.ApproveBooking)
	admin.Post("/bookings/:bookingId/reject", handlers.RejectBooking)
	admin.Post("/bookings/:bookingId/add-link", handlers.AddBookingMeetingLink)

	admin.Get("/group-sessions", handlers.AdminGetGroupSessions)
	admin.Get("/group-sessions/ready", handlers.ListReadyGroupSessions)
	admin.Post("/group-sessions/:sessionId/approve", handlers.ApproveGroupSession)
	admin.Post("/group-sessions/:sessionId/cancel", handlers.CancelGroupSession)
	admin.Post("/group-sessions/:sessionId/add-link", handlers.AddGroupSessionMeetingLink)

	admin.Get("/tutors/availability-hints", handlers.GetTutorAvailabilityHints)

	admin.Get("/applications/pending", handlers.ListPendingApplications)
	admin.Put("/applications/:tutorId", handlers.ManageApplication)

	admin.Get("/users", handlers.GetAllUsers)

	services := admin.Group("/services")
	services.Get("", handlers.AdminListServices)
	services.Post("", handlers.CreateService)
	services.Put("/:serviceId", handlers.UpdateService)
	services.Delete("/:serviceId", handlers.DeactivateService)
}
