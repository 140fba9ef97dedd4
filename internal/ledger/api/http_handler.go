package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/lkh0118/order-inventory/internal/ledger/domain"
	"github.com/lkh0118/order-inventory/internal/ledger/service"
	"github.com/lkh0118/order-inventory/internal/platform/httpserver"
)

type StockHandler struct {
	ledgerService service.LedgerService
}

func NewStockHandler(ls service.LedgerService) *StockHandler {
	return &StockHandler{ledgerService: ls}
}

func (h *StockHandler) RegisterRoutes(router *gin.RouterGroup) {
	stockRoutes := router.Group("/stock")
	{
		stockRoutes.GET("/reconcile", h.Reconcile)
		stockRoutes.GET("/:sku", h.GetStockLevel)
		stockRoutes.GET("/:sku/movements", h.ListMovements)
		stockRoutes.POST("/:sku/adjust", h.AdjustStock)
	}
}

func (h *StockHandler) AdjustStock(c *gin.Context) {
	var req domain.AdjustStockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpserver.BadRequest(c, "AdjustStock Hdl", err)
		return
	}
	resp, err := h.ledgerService.AdjustBySKU(c.Request.Context(), c.Param("sku"), req)
	if err != nil {
		httpserver.WriteError(c, "AdjustStock Hdl", err, "Failed to adjust stock")
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *StockHandler) GetStockLevel(c *gin.Context) {
	level, err := h.ledgerService.StockLevel(c.Request.Context(), c.Param("sku"))
	if err != nil {
		httpserver.WriteError(c, "GetStockLevel Hdl", err, "Failed to retrieve stock level")
		return
	}
	c.JSON(http.StatusOK, level)
}

func (h *StockHandler) ListMovements(c *gin.Context) {
	movements, err := h.ledgerService.Movements(c.Request.Context(), c.Param("sku"))
	if err != nil {
		httpserver.WriteError(c, "ListMovements Hdl", err, "Failed to retrieve movements")
		return
	}
	c.JSON(http.StatusOK, movements)
}

func (h *StockHandler) Reconcile(c *gin.Context) {
	report, err := h.ledgerService.Reconcile(c.Request.Context())
	if err != nil {
		httpserver.WriteError(c, "Reconcile Hdl", err, "Failed to reconcile ledger")
		return
	}
	c.JSON(http.StatusOK, report)
}
