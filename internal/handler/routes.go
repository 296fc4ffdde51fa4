package handler

import (
	"trivia-rag/internal/middleware"

	"github.com/gofiber/fiber/v2"
)

// RegisterRoutes mounts the question API on app. The unprefixed upload and
// generate-directly paths and /api/generate-question are kept for older clients.
func RegisterRoutes(app *fiber.App, h *QuestionHandler) {
	vm := middleware.NewValidationMiddleware()

	app.Post("/upload", h.Upload)
	app.Post("/generate-directly", vm.ValidateTopicRequest(), h.GenerateDirectly)

	api := app.Group("/api")
	api.Get("/health", Health)
	api.Post("/generate", vm.ValidateGenerateRequest(), h.Generate)
	api.Post("/generate-directly", vm.ValidateTopicRequest(), h.GenerateDirectly)
	api.Post("/generate-question", vm.ValidateTopicRequest(), h.GenerateQuestion)
	api.Post("/upload", h.Upload)
	api.Post("/cache/sweep", h.SweepCache)
}
