package routes

import (
	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/lwandile/tutor_connect/handlers"
	"github.com/lwandile/tutor_connect/middleware"
)

func NotificationRoutes(app *fiber.App) {
	api := app.Group("/api/v1")

	notifs := api.Group("/notifications", middleware.Protected())
	notifs.Get("", handlers.GetMyNotifications)
	notifs.Get("/unread-count", handlers.GetUnreadNotificationCount)
	notifs.Put("/read-all", handlers.MarkAllNotificationsRead)
	notifs.Put("/:notificationId/read", handlers.MarkNotificationRead)

	api.Use("/ws", func(c *fiber.Ctx) error {
		if !websocket.IsWebSocketUpgrade(c) {
			return fiber.ErrUpgradeRequired
		}
		return c.Next()
	})
	api.Get("/ws", websocket.New(handlers.ServeWs))
}
