package handler

import (
	"go-catalogue-ws/internal/middleware"
	"go-catalogue-ws/internal/model"
	"go-catalogue-ws/internal/service"

	"github.com/gofiber/fiber/v2"
)

// Handlers bundles the route handlers of the API.
type Handlers struct {
	Auth      *AuthHandler
	Catalogue *CatalogueHandler
	Taxonomy  *TaxonomyHandler
	System    *SystemHandler
	Role      *RoleHandler
}

// RegisterRoutes mounts the /api/v1 routes and /healthz on app. Reads are
// public; mutations require a token and the matching capability.
func RegisterRoutes(app *fiber.App, h Handlers, authService service.AuthService) {
	requireAuth := middleware.RequireAuth(authService)
	editProducts := middleware.RequireAnyCapability(model.CapEditOwnProduct, model.CapEditAnyProduct)
	manageTaxonomy := middleware.RequireCapability(model.CapManageTaxonomy)
	uploadImages := middleware.RequireCapability(model.CapUploadImages)

	app.Get("/healthz", h.System.Health)

	api := app.Group("/api/v1")

	// ============ AUTH ============
	auth := api.Group("/auth")
	auth.Post("/login", h.Auth.Login)
	auth.Post("/signup", h.Auth.SignUp)
	auth.Post("/logout", requireAuth, h.Auth.Logout)
	auth.Post("/refresh", requireAuth, h.Auth.Refresh)
	auth.Get("/me", requireAuth, h.Auth.Me)

	// ============ PRODUCTS ============
	api.Get("/products", h.Catalogue.GetProducts)
	api.Get("/products/export", h.Catalogue.ExportProducts)
	api.Get("/products/facets", h.Catalogue.GetFacets)
	api.Get("/products/mine", requireAuth, middleware.RequireCapability(model.CapEditOwnProduct), h.Catalogue.GetOwnProducts)
	api.Get("/products/:id", h.Catalogue.GetProduct)
	api.Post("/products", requireAuth, editProducts, h.Catalogue.CreateProduct)
	api.Put("/products/:id", requireAuth, editProducts, h.Catalogue.UpdateProduct)
	api.Delete("/products/:id", requireAuth, editProducts, h.Catalogue.DeleteProduct)
	api.Post("/products/:id/images", requireAuth, uploadImages, h.Catalogue.UploadImages)

	// ============ UPLOADS ============
	api.Post("/uploads", requireAuth, uploadImages, h.Catalogue.UploadImages)
	api.Get("/uploads/auth", requireAuth, uploadImages, h.System.UploadAuth)

	// ============ TAXONOMY ============
	api.Get("/categories", h.Taxonomy.GetCategories)
	api.Post("/categories", requireAuth, manageTaxonomy, h.Taxonomy.CreateCategory)
	api.Delete("/categories/:id", requireAuth, manageTaxonomy, h.Taxonomy.DeleteCategory)
	api.Get("/categories/:id/clusters", h.Taxonomy.GetClusters)
	api.Post("/categories/:id/clusters", requireAuth, manageTaxonomy, h.Taxonomy.CreateCluster)
	api.Get("/clusters", h.Taxonomy.GetClusters)
	api.Post("/clusters", requireAuth, manageTaxonomy, h.Taxonomy.CreateCluster)
	api.Delete("/clusters/:id", requireAuth, manageTaxonomy, h.Taxonomy.DeleteCluster)

	// ============ CATALOGUE ============
	api.Get("/catalogue/stats", h.System.Stats)
	api.Post("/catalogue/sync", requireAuth, middleware.RequireCapability(model.CapSync), h.System.Sync)

	api.Get("/roles", h.Role.GetRoles)
}
