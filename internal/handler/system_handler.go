package handler

import (
	"errors"
	"time"

	"go-catalogue-ws/internal/service"
	"go-catalogue-ws/internal/upload"

	"github.com/gofiber/fiber/v2"
)

// ClientCounter reports connected realtime clients.
type ClientCounter interface {
	ClientCount() int
}

// SystemHandler serves sync, health and media signing endpoints.
type SystemHandler struct {
	service  service.CatalogueService
	clients  ClientCounter
	backend  string
	guest    bool
	imageKit upload.ImageKitConfig
	now      func() time.Time
}

// NewSystemHandler reports backend by name; configured is false when the
// backend lacks its connection settings and the process runs as guest.
func NewSystemHandler(s service.CatalogueService, clients ClientCounter, backend string, configured bool, imageKit upload.ImageKitConfig) *SystemHandler {
	return &SystemHandler{service: s, clients: clients, backend: backend, guest: !configured, imageKit: imageKit, now: time.Now}
}

// Sync reloads the catalogue from the row service. On failure the
// previous data stays in place and is reported with the error.
// POST /api/v1/catalogue/sync
func (h *SystemHandler) Sync(c *fiber.Ctx) error {
	stats, err := h.service.Sync(c.UserContext())
	if err != nil {
		return c.Status(502).JSON(fiber.Map{"error": err.Error(), "stats": stats})
	}
	return c.JSON(fiber.Map{"message": "Catalogue synced", "stats": stats})
}

// GET /api/v1/catalogue/stats
func (h *SystemHandler) Stats(c *fiber.Ctx) error {
	return c.JSON(h.service.Stats())
}

// Health reports the backend mode. A deployment without a row service runs
// in guest mode on an empty catalogue.
// GET /healthz
func (h *SystemHandler) Health(c *fiber.Ctx) error {
	clients := 0
	if h.clients != nil {
		clients = h.clients.ClientCount()
	}
	return c.JSON(fiber.Map{
		"status":    "ok",
		"backend":   h.backend,
		"guest":     h.guest,
		"media":     h.imageKit.Configured(),
		"wsClients": clients,
		"catalogue": h.service.Stats(),
	})
}

// UploadAuth signs parameters for a direct browser upload to the media
// host.
// GET /api/v1/uploads/auth
func (h *SystemHandler) UploadAuth(c *fiber.Ctx) error {
	params, err := upload.SignUploadParams(h.imageKit, h.now())
	if errors.Is(err, upload.ErrNotConfigured) {
		return c.Status(503).JSON(fiber.Map{"error": err.Error()})
	}
	if err != nil {
		return c.Status(500).JSON(fiber.Map{"error": "Failed to sign upload"})
	}
	return c.JSON(params)
}
