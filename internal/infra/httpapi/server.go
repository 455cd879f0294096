package httpapi

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
)

// NewServer builds the Fiber app and attaches all routes.
func NewServer(h *Handlers) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName: "city-report-service",
	})

	app.Use(recover.New())
	app.Use(logger.New(logger.Config{
		TimeFormat: "15:04:05",
	}))
	app.Use(cors.New())

	app.Get("/healthz", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	api := app.Group("/api/v1")

	api.Post("/reports", h.CreateReport)
	api.Get("/reports", h.ListReports)
	api.Get("/reports/:id", h.GetReport)
	api.Post("/reports/:id/approve", h.Approve)
	api.Post("/reports/:id/reject", h.Reject)
	api.Post("/reports/:id/status", h.ChangeStatus)
	api.Post("/reports/:id/delegation", h.Delegate)
	api.Delete("/reports/:id/delegation", h.RevokeDelegation)
	api.Get("/reports/:id/audit", h.ListAudit)

	api.Post("/reports/:id/messages", h.PostMessage)
	api.Get("/reports/:id/messages", h.ListMessages)
	api.Post("/reports/:id/messages/read", h.MarkChannelOpened)
	api.Get("/reports/:id/unread", h.Unread)

	api.Get("/notifications", h.ListNotifications)
	api.Post("/notifications/:id/read", h.MarkNotificationRead)
	api.Delete("/notifications/:id", h.DeleteNotification)

	return app
}
