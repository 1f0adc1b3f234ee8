package router

import (
	"clip_service/internal/admin/handlers"
	"clip_service/pkg/middlewares"
	"clip_service/pkg/token"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
)

// New admin fiber app with the shared routes of every service
func New(service string) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:               service,
		DisableStartupMessage: true,
	})
	app.Use(recover.New())

	app.Get("/", handlers.ConnectCheck(service))
	app.Post("/debug", handlers.DebugLogFlag)
	app.Get("/metrics", handlers.Metrics())
	return app
}

// RegisterTrendingRoutes 註冊 trending 手動觸發路由，需要 admin token
func RegisterTrendingRoutes(app *fiber.App, h *handlers.TrendingHandler, secret []byte) {
	trending := app.Group("/trending", middlewares.JWTMiddleware(secret, token.RoleAdmin))
	trending.Post("/run", h.Run)
}
