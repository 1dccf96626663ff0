package handlers

import (
	"github.com/gofiber/fiber/v2"
)

// RegisterRoutes mounts the console API. The auth middleware is attached per
// protected route rather than as a group-wide Use so requests that match no
// route+method still get Fiber's automatic 404/405 instead of a 401.
func RegisterRoutes(app *fiber.App, h *Handler) {
	api := app.Group("/api")

	// Public surface: login, the anomaly evaluation intake and the
	// rate-limit endpoints. Agents and API clients identify themselves by
	// payload or the x-client-id header, not operator tokens.
	api.Post("/auth/login", h.Login)
	api.Post("/system-monitor", h.EvaluateMetrics)
	api.Get("/rate-limit-check", h.CheckRateLimit)
	api.Put("/rate-limit-check", h.UpdateRateLimit)

	auth := JWTAuthMiddleware(h.JWTSecret)
	api.Get("/system-monitor", auth, h.GetCurrentMetrics)
	api.Get("/system-logs", auth, h.GetSystemLogs)
	api.Get("/rate-limit-config", auth, h.GetRateLimitConfig)
	api.Post("/weather-fetch", auth, h.FetchWeather)
	api.Post("/backup-execute", auth, h.ExecuteBackup)
	api.Post("/data-archive", auth, h.ArchiveData)
	api.Post("/data-export", auth, h.StartExport)
	api.Get("/data-export", auth, h.GetExportJob)
	api.Post("/data-conversion", auth, h.StartConversion)
	api.Get("/data-conversion", auth, h.GetConversionJob)
	api.Delete("/data-conversion", auth, h.CancelConversion)
	api.Post("/quality-report-generate", auth, h.GenerateQualityReport)
	api.Get("/task-execute", auth, h.GetPendingTasks)
	api.Post("/task-execute", auth, h.ExecuteTasks)
	api.Get("/tasks", auth, h.ListTasks)
	api.Post("/tasks", auth, h.CreateTask)
}
