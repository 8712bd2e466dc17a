package handler

import (
	"bytes"
	"io"
	"mime/multipart"

	"go-catalogue-ws/internal/middleware"
	"go-catalogue-ws/internal/model"
	"go-catalogue-ws/internal/service"
	"go-catalogue-ws/internal/upload"

	"github.com/gofiber/fiber/v2"
)

// imagesField is the multipart field carrying image files.
const imagesField = "images"

type CatalogueHandler struct {
	service service.CatalogueService
}

func NewCatalogueHandler(s service.CatalogueService) *CatalogueHandler {
	return &CatalogueHandler{service: s}
}

// GetProducts returns the visible products for the query filter.
// Query params: category, cluster, minPrice, maxPrice, availability,
// search, sort
func (h *CatalogueHandler) GetProducts(c *fiber.Ctx) error {
	products := h.service.ListProducts(parseFilter(c))
	return c.JSON(fiber.Map{"data": products, "count": len(products)})
}

func (h *CatalogueHandler) GetProduct(c *fiber.Ctx) error {
	p, err := h.service.GetProduct(c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(p)
}

func (h *CatalogueHandler) GetFacets(c *fiber.Ctx) error {
	return c.JSON(h.service.Facets())
}

// GetOwnProducts lists the caller's products with availability counts.
// Takes the same query params as GetProducts.
// GET /api/v1/products/mine
func (h *CatalogueHandler) GetOwnProducts(c *fiber.Ctx) error {
	products, facets, err := h.service.OwnProducts(middleware.CurrentActor(c), parseFilter(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"data": products, "count": len(products), "facets": facets})
}

// ExportProducts streams the visible products as CSV.
func (h *CatalogueHandler) ExportProducts(c *fiber.Ctx) error {
	var buf bytes.Buffer
	if err := h.service.ExportCSV(&buf, parseFilter(c)); err != nil {
		return c.Status(500).JSON(fiber.Map{"error": "Failed to export products"})
	}
	c.Set(fiber.HeaderContentType, "text/csv; charset=utf-8")
	c.Set(fiber.HeaderContentDisposition, `attachment; filename="products.csv"`)
	return c.Send(buf.Bytes())
}

func (h *CatalogueHandler) CreateProduct(c *fiber.Ctx) error {
	var in model.ProductInput
	if err := c.BodyParser(&in); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid JSON"})
	}

	p, err := h.service.CreateProduct(middleware.CurrentActor(c), in)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(201).JSON(fiber.Map{"message": "Product created", "data": p})
}

func (h *CatalogueHandler) UpdateProduct(c *fiber.Ctx) error {
	var patch model.ProductPatch
	if err := c.BodyParser(&patch); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid JSON"})
	}

	p, err := h.service.UpdateProduct(middleware.CurrentActor(c), c.Params("id"), patch)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Product updated", "data": p})
}

func (h *CatalogueHandler) DeleteProduct(c *fiber.Ctx) error {
	if err := h.service.DeleteProduct(middleware.CurrentActor(c), c.Params("id")); err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Product deleted"})
}

// UploadImages accepts a multipart batch in the "images" field. With an
// :id route param the URLs are attached to that product.
// POST /api/v1/uploads
// POST /api/v1/products/:id/images
func (h *CatalogueHandler) UploadImages(c *fiber.Ctx) error {
	form, err := c.MultipartForm()
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid multipart form"})
	}
	headers := form.File[imagesField]
	if len(headers) == 0 {
		return c.Status(400).JSON(fiber.Map{"error": "No images submitted"})
	}

	files := make([]upload.File, 0, len(headers))
	for _, hdr := range headers {
		f, err := readFile(hdr)
		if err != nil {
			return c.Status(400).JSON(fiber.Map{"error": "Failed to read " + hdr.Filename})
		}
		files = append(files, f)
	}

	results, product, err := h.service.UploadImages(c.UserContext(), middleware.CurrentActor(c), c.Params("id"), files)
	if err != nil {
		return respondError(c, err)
	}

	resp := fiber.Map{"results": results, "urls": upload.URLs(results)}
	if product != nil {
		resp["data"] = product
	}
	return c.JSON(resp)
}

// readFile loads a form file. Oversized files are not read; their
// declared size is enough for the gateway to reject them.
func readFile(hdr *multipart.FileHeader) (upload.File, error) {
	f := upload.File{
		Name:        hdr.Filename,
		ContentType: hdr.Header.Get(fiber.HeaderContentType),
		Size:        hdr.Size,
	}
	if hdr.Size > upload.MaxFileSize {
		return f, nil
	}
	src, err := hdr.Open()
	if err != nil {
		return f, err
	}
	defer src.Close()
	f.Data, err = io.ReadAll(src)
	return f, err
}
