package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/lkh0118/order-inventory/internal/catalog/domain"
	"github.com/lkh0118/order-inventory/internal/catalog/service"
	"github.com/lkh0118/order-inventory/internal/platform/httpserver"
)

type ProductHandler struct {
	catalogService service.CatalogService
}

func NewProductHandler(cs service.CatalogService) *ProductHandler {
	return &ProductHandler{catalogService: cs}
}

func (h *ProductHandler) RegisterRoutes(router *gin.RouterGroup) {
	productRoutes := router.Group("/products")
	{
		productRoutes.POST("", h.RegisterProduct)
		productRoutes.GET("", h.ListProducts)
	}
}

func (h *ProductHandler) RegisterProduct(c *gin.Context) {
	var req domain.RegisterProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpserver.BadRequest(c, "RegisterProduct Hdl", err)
		return
	}
	product, err := h.catalogService.Register(c.Request.Context(), req)
	if err != nil {
		httpserver.WriteError(c, "RegisterProduct Hdl", err, "Failed to register product")
		return
	}
	c.JSON(http.StatusCreated, product)
}

// ListProducts returns every product with its current, advisory quantity.
func (h *ProductHandler) ListProducts(c *gin.Context) {
	products, err := h.catalogService.ListWithStock(c.Request.Context())
	if err != nil {
		httpserver.WriteError(c, "ListProducts Hdl", err, "Failed to retrieve products")
		return
	}
	c.JSON(http.StatusOK, products)
}
