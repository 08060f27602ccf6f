package handler

import (
	"github.com/gofiber/fiber/v2"

	"github.com/gouthamkasula22/enterprise-auth/internal/auth/rbac"
)

func RegisterRoutes(app *fiber.App, h *AuthHandler) {
	app.Post("/api/v1/register", h.Register)
	app.Post("/api/v1/login", h.Login)
	app.Post("/api/v1/refresh", h.Refresh)
	app.Post("/api/v1/password/strength", h.PasswordStrength)
	app.Delete("/api/v1/session", h.Logout)

	// Authenticated self-service endpoints
	app.Delete("/api/v1/sessions", h.RequireRole(rbac.RankUser), h.LogoutAll)
	app.Post("/api/v1/password/change", h.RequireRole(rbac.RankUser), h.ChangePassword)

	// Admin-only endpoints
	admin := app.Group("/api/v1/admin", h.RequireRole(rbac.RankAdmin))
	admin.Delete("/user/:id/sessions", h.ForceLogout)
	admin.Get("/users", h.GetAllUsers)
	admin.Patch("/user/:id/role", h.UpdateUserRole)
	admin.Get("/user/:id/sessions", h.GetUserSessions)
}
