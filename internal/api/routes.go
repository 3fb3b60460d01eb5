// Package api serves PDF to CSV conversion over HTTP.
package api

import (
	"github.com/gofiber/fiber/v2"
)

// NewApp creates a fiber app accepting uploads up to bodyLimitMB megabytes.
func NewApp(bodyLimitMB int) *fiber.App {
	return fiber.New(fiber.Config{
		AppName:   "ttcsv",
		BodyLimit: bodyLimitMB * 1024 * 1024,
	})
}

func RegisterRoutes(app *fiber.App, h *Handler) {
	app.Get("/health", h.Health)
	app.Get("/variants", h.ListVariants)
	app.Post("/convert/:variant", h.Convert)
}
