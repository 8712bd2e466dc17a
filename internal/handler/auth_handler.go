package handler

import (
	"go-catalogue-ws/internal/middleware"
	"go-catalogue-ws/internal/service"

	"github.com/gofiber/fiber/v2"
)

type AuthHandler struct {
	authService service.AuthService
}

func NewAuthHandler(authService service.AuthService) *AuthHandler {
	return &AuthHandler{authService: authService}
}

// LoginRequest represents the login request body
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Login authenticates and resolves the role before answering, bounded by
// the resolve wait. A slow directory yields the default role.
// POST /api/v1/auth/login
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid JSON"})
	}

	if req.Email == "" || req.Password == "" {
		return c.Status(400).JSON(fiber.Map{"error": "Email and password are required"})
	}

	response, err := h.authService.Login(c.UserContext(), req.Email, req.Password)
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(response)
}

// SignUp creates credentials and registers the user in the directory.
// POST /api/v1/auth/signup
func (h *AuthHandler) SignUp(c *fiber.Ctx) error {
	var req service.SignUpRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid JSON"})
	}

	response, err := h.authService.SignUp(c.UserContext(), req)
	if err != nil {
		return respondError(c, err)
	}

	return c.Status(201).JSON(response)
}

// Logout signs the session out. The token used here is rejected from now
// on.
// POST /api/v1/auth/logout
func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	uid, _ := c.Locals(middleware.LocalUserID).(string)
	tokenID, expires := middleware.CurrentToken(c)
	h.authService.Logout(uid, tokenID, expires)
	return c.JSON(fiber.Map{"message": "Signed out"})
}

// Refresh looks the role up again, e.g. after an admin changed it in the
// directory.
// POST /api/v1/auth/refresh
func (h *AuthHandler) Refresh(c *fiber.Ctx) error {
	snap, err := h.authService.Refresh(c.UserContext(), middleware.CurrentIdentity(c).UID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"user": snap, "privileges": snap.Capabilities.Codes()})
}

// GET /api/v1/auth/me
func (h *AuthHandler) Me(c *fiber.Ctx) error {
	snap := middleware.CurrentIdentity(c)
	return c.JSON(fiber.Map{"user": snap, "privileges": snap.Capabilities.Codes()})
}
