package routes

import (
	"github.com/gofiber/fiber/v2"
	"github.com/lwandile/tutor_connect/handlers"
	"github.com/lwandile/tutor_connect/middleware"
)

func BookingRoutes(app *fiber.App) {
	api := app.Group("/api/v1")

	bookings := api.Group("/bookings", middleware.Protected())
	bookings.Post("", handlers.CreateBooking)
	bookings.Get("/my-bookings", handlers.GetMyBookings)
	bookings.Put("/:bookingId/cancel", handlers.CancelBooking)

	api.Get("/group-sessions/my-sessions", middleware.Protected(), handlers.GetMyGroupSessions)
}
