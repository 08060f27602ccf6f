package handler

import (
	"errors"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/gouthamkasula22/enterprise-auth/internal/auth/dto"
	"github.com/gouthamkasula22/enterprise-auth/internal/auth/service"
	autherror "github.com/gouthamkasula22/enterprise-auth/internal/errors"
)

const accountIDLocal = "account_id"

type AuthHandler struct {
	userService *service.UserService
}

func NewAuthHandler(userService *service.UserService) *AuthHandler {
	return &AuthHandler{userService: userService}
}

func (h *AuthHandler) Register(c *fiber.Ctx) error {
	var input dto.RegisterInput
	if err := c.BodyParser(&input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid input",
		})
	}

	input.IPAddress = clientIP(c)
	input.UserAgent = string(c.Request().Header.UserAgent())
	input.Fingerprint = c.Get("X-Device-Fingerprint")

	out, err := h.userService.Register(c.UserContext(), input)
	if err != nil {
		return writeError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(out)
}

func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var input dto.LoginInput
	if err := c.BodyParser(&input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid input",
		})
	}

	// Capture metadata
	input.IPAddress = clientIP(c)
	input.UserAgent = string(c.Request().Header.UserAgent())
	input.Fingerprint = c.Get("X-Device-Fingerprint")

	out, err := h.userService.Login(c.UserContext(), input)
	if err != nil {
		return writeError(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(out)
}

func (h *AuthHandler) Refresh(c *fiber.Ctx) error {
	var input dto.RefreshInput
	if err := c.BodyParser(&input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid input"})
	}

	input.Fingerprint = c.Get("X-Device-Fingerprint")
	input.IPAddress = clientIP(c)
	input.UserAgent = string(c.Request().Header.UserAgent())

	tokens, err := h.userService.Refresh(c.UserContext(), input)
	if err != nil {
		return writeError(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(tokens)
}

func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	token := bearerToken(c)
	if token == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "missing bearer token"})
	}

	if err := h.userService.Logout(c.UserContext(), token); err != nil {
		return writeError(c, err)
	}

	return c.SendStatus(fiber.StatusNoContent)
}

func (h *AuthHandler) LogoutAll(c *fiber.Ctx) error {
	accountID, _ := c.Locals(accountIDLocal).(string)

	count, err := h.userService.LogoutAll(c.UserContext(), accountID)
	if err != nil {
		return writeError(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{"revoked": count})
}

func (h *AuthHandler) PasswordStrength(c *fiber.Ctx) error {
	var input dto.PasswordStrengthInput
	if err := c.BodyParser(&input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid input"})
	}

	result := h.userService.ValidatePasswordStrength(input.Password, input.Email)

	return c.Status(fiber.StatusOK).JSON(result)
}

func (h *AuthHandler) ChangePassword(c *fiber.Ctx) error {
	accountID, _ := c.Locals(accountIDLocal).(string)

	var input dto.ChangePasswordInput
	if err := c.BodyParser(&input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid input"})
	}

	if err := h.userService.ChangePassword(c.UserContext(), accountID, input); err != nil {
		return writeError(c, err)
	}

	return c.SendStatus(fiber.StatusNoContent)
}

// RequireRole authenticates the bearer token and checks its role before
// the handler runs. The authenticated account id lands in locals.
func (h *AuthHandler) RequireRole(requiredRank int) fiber.Handler {
	return func(c *fiber.Ctx) error {
		token := bearerToken(c)
		if token == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "missing bearer token"})
		}

		accountID, err := h.userService.Authorize(c.UserContext(), token, requiredRank)
		if err != nil {
			return writeError(c, err)
		}

		c.Locals(accountIDLocal, accountID)
		return c.Next()
	}
}

func (h *AuthHandler) ForceLogout(c *fiber.Ctx) error {
	count, err := h.userService.LogoutAll(c.UserContext(), c.Params("id"))
	if err != nil {
		return writeError(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{"revoked": count})
}

func (h *AuthHandler) GetAllUsers(c *fiber.Ctx) error {
	users, err := h.userService.GetAllUsers(c.UserContext())
	if err != nil {
		return writeError(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(users)
}

func (h *AuthHandler) UpdateUserRole(c *fiber.Ctx) error {
	var input dto.UpdateRoleInput
	if err := c.BodyParser(&input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid input"})
	}

	if err := h.userService.UpdateUserRole(c.UserContext(), c.Params("id"), input.Role); err != nil {
		return writeError(c, err)
	}

	return c.SendStatus(fiber.StatusNoContent)
}

func (h *AuthHandler) GetUserSessions(c *fiber.Ctx) error {
	sessions, err := h.userService.GetUserSessions(c.UserContext(), c.Params("id"))
	if err != nil {
		return writeError(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(sessions)
}

// writeError maps service errors to HTTP statuses. Authentication
// failures all land on 401 with one generic message; the reason stays in
// the logs and the audit trail.
func writeError(c *fiber.Ctx, err error) error {
	if ve, ok := autherror.AsValidationError(err); ok {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": ve.Error()})
	}
	if re, ok := autherror.AsRateLimitError(err); ok {
		c.Set(fiber.HeaderRetryAfter, strconv.Itoa(int(re.RetryAfter.Seconds())))
		return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{"error": "too many requests"})
	}
	if _, ok := autherror.AsAuthorizationError(err); ok {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "insufficient role"})
	}
	if _, ok := autherror.AsTokenError(err); ok {
		return unauthorized(c)
	}
	if _, ok := autherror.AsSessionError(err); ok {
		return unauthorized(c)
	}

	switch {
	case errors.Is(err, autherror.ErrInvalidCredentials):
		return unauthorized(c)
	case errors.Is(err, autherror.ErrEmailAlreadyInUse):
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, autherror.ErrPasswordReused):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, autherror.ErrServiceUnavailable):
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"error": err.Error()})
	}

	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal error"})
}

func unauthorized(c *fiber.Ctx) error {
	return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": autherror.ErrInvalidCredentials.Error()})
}

func bearerToken(c *fiber.Ctx) string {
	auth := c.Get(fiber.HeaderAuthorization)
	const prefix = "Bearer "
	if len(auth) > len(prefix) && strings.EqualFold(auth[:len(prefix)], prefix) {
		return auth[len(prefix):]
	}
	return ""
}

// clientIP prefers the first hop of X-Forwarded-For so rate limiting and
// auditing see the original client behind a proxy.
func clientIP(c *fiber.Ctx) string {
	if fwd := c.Get(fiber.HeaderXForwardedFor); fwd != "" {
		if i := strings.IndexByte(fwd, ','); i >= 0 {
			return strings.TrimSpace(fwd[:i])
		}
		return strings.TrimSpace(fwd)
	}
	return c.IP()
}
