package handlers

import (
	"errors"
	"log"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"inventory/internal/apperrors"
	"inventory/internal/services"
)

// ProductHandler handles HTTP requests for products.
type ProductHandler struct {
	service  *services.ProductService
	validate *validator.Validate
}

// NewProductHandler creates a new ProductHandler.
func NewProductHandler(service *services.ProductService) *ProductHandler {
	return &ProductHandler{
		service:  service,
		validate: validator.New(),
	}
}

// RegisterRoutes registers the product routes with the Fiber app.
func (h *ProductHandler) RegisterRoutes(router fiber.Router) {
	products := router.Group("/products")
	products.Get("/", h.HandleList)
	products.Post("/", h.HandleCreate)
	products.Get("/:id", h.HandleGetByID)
	products.Put("/:id", h.HandleReplace)
	products.Patch("/:id/stock", h.HandleAdjustStock)
	products.Patch("/:id", h.HandlePatch)
	products.Delete("/:id", h.HandleDelete)
}

// ProductRequest is the body for create and full replace. Pointer fields
// distinguish absent fields from zero values.
type ProductRequest struct {
	Name     string   `json:"name" validate:"required"`
	Category *string  `json:"category"`
	Stock    *float64 `json:"stock"`
	Price    *float64 `json:"price"`
}

// ProductPatchRequest is the body for partial updates; only present fields
// are touched.
type ProductPatchRequest struct {
	Name     *string  `json:"name"`
	Category *string  `json:"category"`
	Stock    *float64 `json:"stock"`
	Price    *float64 `json:"price"`
}

// StockDeltaRequest is the body for stock adjustments.
type StockDeltaRequest struct {
	Delta *float64 `json:"delta"`
}

// HandleList retrieves products, optionally filtered by free text, category
// and an inclusive stock range.
func (h *ProductHandler) HandleList(c *fiber.Ctx) error {
	products, err := h.service.ListProducts(
		c.Query("q"),
		c.Query("category"),
		c.Query("minStock"),
		c.Query("maxStock"),
	)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(products)
}

// HandleGetByID retrieves a single product by its ID.
func (h *ProductHandler) HandleGetByID(c *fiber.Ctx) error {
	product, err := h.service.GetProductByID(c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(product)
}

// HandleCreate creates a new product.
func (h *ProductHandler) HandleCreate(c *fiber.Ctx) error {
	req, err := h.parseProductRequest(c)
	if err != nil {
		return respondError(c, err)
	}

	product, err := h.service.CreateProduct(toInput(req))
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(product)
}

// HandleReplace overwrites every field of an existing product.
func (h *ProductHandler) HandleReplace(c *fiber.Ctx) error {
	req, err := h.parseProductRequest(c)
	if err != nil {
		return respondError(c, err)
	}

	product, err := h.service.ReplaceProduct(c.Params("id"), toInput(req))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(product)
}

// HandlePatch updates only the fields present in the request body.
func (h *ProductHandler) HandlePatch(c *fiber.Ctx) error {
	var req ProductPatchRequest
	if err := c.BodyParser(&req); err != nil {
		log.Printf("Error parsing patch request body: %v", err)
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	product, err := h.service.PatchProduct(c.Params("id"), services.ProductPatchInput{
		Name:     req.Name,
		Category: req.Category,
		Stock:    req.Stock,
		Price:    req.Price,
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(product)
}

// HandleAdjustStock applies a signed delta to a product's stock.
func (h *ProductHandler) HandleAdjustStock(c *fiber.Ctx) error {
	var req StockDeltaRequest
	if err := c.BodyParser(&req); err != nil {
		log.Printf("Error parsing stock delta request body: %v", err)
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "delta must be a number",
		})
	}

	product, err := h.service.AdjustStock(c.Params("id"), req.Delta)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(product)
}

// HandleDelete removes a product by its ID.
func (h *ProductHandler) HandleDelete(c *fiber.Ctx) error {
	if err := h.service.DeleteProduct(c.Params("id")); err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"ok": true})
}

// parseProductRequest decodes and shape-checks a create/replace body.
func (h *ProductHandler) parseProductRequest(c *fiber.Ctx) (*ProductRequest, error) {
	var req ProductRequest
	if err := c.BodyParser(&req); err != nil {
		log.Printf("Error parsing product request body: %v", err)
		return nil, apperrors.NewValidation("Invalid request body")
	}
	if err := h.validate.Struct(req); err != nil {
		return nil, apperrors.NewValidation("Name is required")
	}
	return &req, nil
}

func toInput(req *ProductRequest) services.ProductInput {
	return services.ProductInput{
		Name:     req.Name,
		Category: req.Category,
		Stock:    req.Stock,
		Price:    req.Price,
	}
}

// respondError maps service and repository errors onto the HTTP taxonomy.
// Internal errors are logged, never leaked to the caller.
func respondError(c *fiber.Ctx, err error) error {
	if errors.Is(err, apperrors.ErrNotFound) {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Not found",
		})
	}
	if ve, ok := apperrors.AsValidation(err); ok {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": ve.Msg,
		})
	}
	log.Printf("Internal error handling %s %s: %v", c.Method(), c.Path(), err)
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
		"error": "Internal server error",
	})
}
