package handler

import (
	"go-catalogue-ws/internal/model"

	"github.com/gofiber/fiber/v2"
)

type RoleHandler struct{}

func NewRoleHandler() *RoleHandler {
	return &RoleHandler{}
}

type roleResponse struct {
	Code       model.Role `json:"code"`
	Label      string     `json:"label"`
	Privileges []string   `json:"privileges"`
}

// GetRoles returns all available roles
// GET /api/v1/roles
func (h *RoleHandler) GetRoles(c *fiber.Ctx) error {
	roles := []model.Role{model.RoleCustomer, model.RoleRetailer, model.RoleAdmin}
	resp := make([]roleResponse, 0, len(roles))
	for _, r := range roles {
		resp = append(resp, roleResponse{
			Code:       r,
			Label:      r.Label(),
			Privileges: model.CapabilitiesFor(r).Codes(),
		})
	}
	return c.JSON(resp)
}
