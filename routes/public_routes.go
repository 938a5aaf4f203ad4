package routes

import (
	"github.com/gofiber/fiber/v2"
	"github.com/lwandile/tutor_connect/handlers"
	"github.com/lwandile/tutor_connect/middleware"
)

func PublicRoutes(app *fiber.App) {
	api := app.Group("/api/v1")

	auth := api.Group("/auth")
	auth.Post("/register", handlers.RegisterUser)
	auth.Post("/login", handlers.LoginUser)
	auth.Get("/me", middleware.Protected(), handlers.GetMe)

	api.Get("/services", handlers.ListServices)
}
