package middleware

import (
	"strings"
	"time"

	"go-catalogue-ws/internal/identity"
	"go-catalogue-ws/internal/model"
	"go-catalogue-ws/internal/service"
	"go-catalogue-ws/pkg/jwt"

	"github.com/gofiber/fiber/v2"
)

// Locals keys set by RequireAuth.
const (
	LocalUserID       = "user_id"
	LocalUserEmail    = "user_email"
	LocalRole         = "user_role"
	LocalCapabilities = "user_capabilities"
	LocalIdentity     = "identity"
	LocalTokenID      = "token_id"
	LocalTokenExpiry  = "token_expiry"
)

// RequireAuth validates the bearer token and resolves the role of the
// session. Handlers read the result from c.Locals.
func RequireAuth(auth service.AuthService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		authHeader := c.Get("Authorization")
		if authHeader == "" {
			return c.Status(401).JSON(fiber.Map{"error": "Missing authorization token"})
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
			return c.Status(401).JSON(fiber.Map{"error": "Invalid authorization format. Use: Bearer <token>"})
		}

		claims, err := jwt.ValidateToken(parts[1])
		if err != nil {
			return c.Status(401).JSON(fiber.Map{"error": "Invalid or expired token"})
		}

		snap, err := auth.Resolve(c.UserContext(), model.Session{UID: claims.UID, Email: claims.Email}, claims.ID)
		if err != nil {
			return c.Status(401).JSON(fiber.Map{"error": "Session has been signed out"})
		}

		var expires time.Time
		if claims.ExpiresAt != nil {
			expires = claims.ExpiresAt.Time
		}

		c.Locals(LocalUserID, claims.UID)
		c.Locals(LocalUserEmail, claims.Email)
		c.Locals(LocalRole, snap.Role)
		c.Locals(LocalCapabilities, snap.Capabilities)
		c.Locals(LocalIdentity, snap)
		c.Locals(LocalTokenID, claims.ID)
		c.Locals(LocalTokenExpiry, expires)

		return c.Next()
	}
}

// RequireCapability checks that the resolved role grants code.
func RequireCapability(code string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		caps, ok := c.Locals(LocalCapabilities).(model.Capabilities)
		if !ok {
			return c.Status(403).JSON(fiber.Map{"error": "No privileges found"})
		}
		if !caps.Has(code) {
			return c.Status(403).JSON(fiber.Map{
				"error": "Forbidden: requires '" + code + "' privilege",
			})
		}
		return c.Next()
	}
}

// RequireAnyCapability passes when at least one of codes is granted.
func RequireAnyCapability(codes ...string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		caps, ok := c.Locals(LocalCapabilities).(model.Capabilities)
		if !ok {
			return c.Status(403).JSON(fiber.Map{"error": "No privileges found"})
		}
		for _, code := range codes {
			if caps.Has(code) {
				return c.Next()
			}
		}
		return c.Status(403).JSON(fiber.Map{
			"error": "Forbidden: requires one of " + strings.Join(codes, ", ") + " privileges",
		})
	}
}

// CurrentIdentity returns the snapshot RequireAuth stored, or the guest
// identity when the route is public.
func CurrentIdentity(c *fiber.Ctx) identity.Snapshot {
	if snap, ok := c.Locals(LocalIdentity).(identity.Snapshot); ok {
		return snap
	}
	return identity.Snapshot{
		State:        identity.StateUnresolved,
		Role:         model.DefaultRole,
		Capabilities: model.CapabilitiesFor(model.DefaultRole),
	}
}

// CurrentActor converts the request identity into a service actor.
func CurrentActor(c *fiber.Ctx) service.Actor {
	snap := CurrentIdentity(c)
	return service.Actor{UID: snap.UID, Role: snap.Role, Capabilities: snap.Capabilities}
}

// CurrentToken returns the id and expiry of the bearer token RequireAuth
// accepted.
func CurrentToken(c *fiber.Ctx) (id string, expires time.Time) {
	id, _ = c.Locals(LocalTokenID).(string)
	expires, _ = c.Locals(LocalTokenExpiry).(time.Time)
	return id, expires
}
