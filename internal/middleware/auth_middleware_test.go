package middleware

import (
	"net/http/httptest"
	"testing"

	"go-catalogue-ws/internal/model"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func withRole(role model.Role) fiber.Handler {
	return func(c *fiber.Ctx) error {
		c.Locals(LocalCapabilities, model.CapabilitiesFor(role))
		return c.Next()
	}
}

func TestRequireCapability(t *testing.T) {
	ok := func(c *fiber.Ctx) error { return c.SendStatus(204) }

	tests := []struct {
		name   string
		role   model.Role
		code   string
		status int
	}{
		{"admin may sync", model.RoleAdmin, model.CapSync, 204},
		{"retailer may upload", model.RoleRetailer, model.CapUploadImages, 204},
		{"retailer may not manage taxonomy", model.RoleRetailer, model.CapManageTaxonomy, 403},
		{"customer has nothing", model.RoleCustomer, model.CapEditOwnProduct, 403},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app := fiber.New()
			app.Get("/", withRole(tt.role), RequireCapability(tt.code), ok)

			resp, err := app.Test(httptest.NewRequest("GET", "/", nil))
			require.NoError(t, err)
			assert.Equal(t, tt.status, resp.StatusCode)
		})
	}

	app := fiber.New()
	app.Get("/", RequireCapability(model.CapSync), ok)
	resp, err := app.Test(httptest.NewRequest("GET", "/", nil))
	require.NoError(t, err)
	assert.Equal(t, 403, resp.StatusCode)
}

func TestRequireAnyCapability(t *testing.T) {
	app := fiber.New()
	app.Get("/", withRole(model.RoleRetailer),
		RequireAnyCapability(model.CapEditAnyProduct, model.CapEditOwnProduct),
		func(c *fiber.Ctx) error { return c.SendStatus(204) })

	resp, err := app.Test(httptest.NewRequest("GET", "/", nil))
	require.NoError(t, err)
	assert.Equal(t, 204, resp.StatusCode)
}

func TestCurrentActor_Guest(t *testing.T) {
	app := fiber.New()
	app.Get("/", func(c *fiber.Ctx) error {
		actor := CurrentActor(c)
		assert.Empty(t, actor.UID)
		assert.Equal(t, model.DefaultRole, actor.Role)
		assert.False(t, actor.Capabilities.CanEditOwnProduct)
		return c.SendStatus(204)
	})

	resp, err := app.Test(httptest.NewRequest("GET", "/", nil))
	require.NoError(t, err)
	assert.Equal(t, 204, resp.StatusCode)
}
