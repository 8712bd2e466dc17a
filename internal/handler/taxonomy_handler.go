package handler

import (
	"go-catalogue-ws/internal/model"
	"go-catalogue-ws/internal/service"

	"github.com/gofiber/fiber/v2"
)

// TaxonomyHandler serves categories and clusters.
type TaxonomyHandler struct {
	service service.CatalogueService
}

func NewTaxonomyHandler(s service.CatalogueService) *TaxonomyHandler {
	return &TaxonomyHandler{service: s}
}

func (h *TaxonomyHandler) GetCategories(c *fiber.Ctx) error {
	return c.JSON(h.service.Categories())
}

func (h *TaxonomyHandler) CreateCategory(c *fiber.Ctx) error {
	var in model.CategoryInput
	if err := c.BodyParser(&in); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid JSON"})
	}
	cat, err := h.service.CreateCategory(in)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(201).JSON(fiber.Map{"message": "Category created", "data": cat})
}

// DeleteCategory also removes the clusters of the category.
func (h *TaxonomyHandler) DeleteCategory(c *fiber.Ctx) error {
	removed, err := h.service.DeleteCategory(c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Category deleted", "removedClusters": removed})
}

// GetClusters lists clusters, optionally narrowed by ?category= or the
// :id param of /categories/:id/clusters.
func (h *TaxonomyHandler) GetClusters(c *fiber.Ctx) error {
	category := c.Params("id", c.Query("category"))
	return c.JSON(h.service.Clusters(category))
}

func (h *TaxonomyHandler) CreateCluster(c *fiber.Ctx) error {
	var in model.ClusterInput
	if err := c.BodyParser(&in); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid JSON"})
	}
	if id := c.Params("id"); id != "" {
		in.CategoryID = id
	}
	k, err := h.service.CreateCluster(in)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(201).JSON(fiber.Map{"message": "Cluster created", "data": k})
}

// DeleteCluster reports how many products lost their cluster reference.
func (h *TaxonomyHandler) DeleteCluster(c *fiber.Ctx) error {
	n, err := h.service.DeleteCluster(c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Cluster deleted", "updatedProducts": n})
}
