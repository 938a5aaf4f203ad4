package routes

import (
	"github.com/gofiber/fiber/v2"
	"github.com/lwandile/tutor_connect/handlers"
	"github.com/lwandile/tutor_connect/middleware"
)

func AnnouncementRoutes(app *fiber.App) {
	api := app.Group("/api/v1")

	api.Get("/announcements", middleware.Protected(), handlers.ListAnnouncements)

	admin := api.Group("/admin/announcements", middleware.Protected(), middleware.AdminRequired())
	admin.Post("", handlers.CreateAnnouncement)
	admin.Put("/:announcementId", handlers.UpdateAnnouncement)
	admin.Delete("/:announcementId", handlers.DeleteAnnouncement)
}
