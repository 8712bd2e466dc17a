package handler

import (
	"errors"

	"go-catalogue-ws/internal/identity"
	"go-catalogue-ws/internal/model"
	"go-catalogue-ws/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/spf13/cast"
)

// errorStatus maps service errors to HTTP status codes.
func errorStatus(err error) int {
	var verr *service.ValidationError
	switch {
	case errors.As(err, &verr):
		return fiber.StatusBadRequest
	case errors.Is(err, service.ErrForbidden):
		return fiber.StatusForbidden
	case errors.Is(err, service.ErrProductNotFound),
		errors.Is(err, service.ErrCategoryNotFound),
		errors.Is(err, service.ErrClusterNotFound):
		return fiber.StatusNotFound
	case errors.Is(err, service.ErrClusterMismatch),
		errors.Is(err, identity.ErrWeakPassword):
		return fiber.StatusBadRequest
	case errors.Is(err, identity.ErrInvalidCredentials),
		errors.Is(err, service.ErrNoSession),
		errors.Is(err, identity.ErrSessionRevoked):
		return fiber.StatusUnauthorized
	case errors.Is(err, identity.ErrEmailTaken):
		return fiber.StatusConflict
	}
	return fiber.StatusInternalServerError
}

func respondError(c *fiber.Ctx, err error) error {
	status := errorStatus(err)
	var verr *service.ValidationError
	if errors.As(err, &verr) {
		return c.Status(status).JSON(fiber.Map{"error": err.Error(), "fields": verr.Fields})
	}
	if status == fiber.StatusInternalServerError {
		return c.Status(status).JSON(fiber.Map{"error": "Internal server error"})
	}
	return c.Status(status).JSON(fiber.Map{"error": err.Error()})
}

// parseFilter reads a FilterSpec from the query string. Missing or
// unparseable values keep their defaults.
func parseFilter(c *fiber.Ctx) model.FilterSpec {
	f := model.DefaultFilter()
	f.Category = c.Query("category")
	f.Cluster = c.Query("cluster")
	f.Search = c.Query("search")
	if v := c.Query("availability"); v != "" {
		f.Availability = model.Availability(v)
	}
	if v := c.Query("sort"); v != "" {
		f.Sort = model.SortOption(v)
	}
	if v, err := cast.ToFloat64E(c.Query("minPrice")); err == nil && c.Query("minPrice") != "" {
		f.PriceRange.Min = v
	}
	if v, err := cast.ToFloat64E(c.Query("maxPrice")); err == nil && c.Query("maxPrice") != "" {
		f.PriceRange.Max = v
	}
	return f
}
