package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/merx/erp/internal/application/posting"
	"github.com/merx/erp/internal/domain/stock"
	"github.com/shopspring/decimal"
)

// StockHandler exposes stock position queries and reservation operations
type StockHandler struct {
	BaseHandler
	service *posting.PostingService
}

// NewStockHandler creates a new StockHandler
func NewStockHandler(service *posting.PostingService) *StockHandler {
	return &StockHandler{service: service}
}

// RegisterRoutes registers stock routes
func (h *StockHandler) RegisterRoutes(rg *gin.RouterGroup) {
	group := rg.Group("/stock")
	group.GET("/positions/lookup", h.GetPosition)
	group.GET("/positions/by-warehouse/:warehouse_id", h.ListByWarehouse)
	group.GET("/products/:product_id/total-quantity", h.GetTotalQuantity)
	group.GET("/movements", h.ListMovementsBySource)
	group.POST("/reservations", h.Reserve)
	group.POST("/reservations/release", h.Release)
}

// GetPosition returns the position for a (product, warehouse) pair
func (h *StockHandler) GetPosition(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}
	productID, err := uuid.Parse(c.Query("product_id"))
	if err != nil {
		h.BadRequest(c, "Invalid product ID")
		return
	}
	warehouseID, err := uuid.Parse(c.Query("warehouse_id"))
	if err != nil {
		h.BadRequest(c, "Invalid warehouse ID")
		return
	}

	position, err := h.service.GetStockPosition(c.Request.Context(), tenantID, productID, warehouseID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, position)
}

// ListByWarehouse lists positions held in a warehouse
func (h *StockHandler) ListByWarehouse(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}
	warehouseID, err := uuid.Parse(c.Param("warehouse_id"))
	if err != nil {
		h.BadRequest(c, "Invalid warehouse ID")
		return
	}

	positions, err := h.service.ListPositionsByWarehouse(c.Request.Context(), tenantID, warehouseID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, positions)
}

// GetTotalQuantity sums a product's on-hand quantity across warehouses
func (h *StockHandler) GetTotalQuantity(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}
	productID, err := uuid.Parse(c.Param("product_id"))
	if err != nil {
		h.BadRequest(c, "Invalid product ID")
		return
	}

	total, err := h.service.GetTotalQuantityByProduct(c.Request.Context(), tenantID, productID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, gin.H{"product_id": productID, "total_quantity": total})
}

// ListMovementsBySource lists the movements generated by one business
// document
func (h *StockHandler) ListMovementsBySource(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}
	sourceType := stock.SourceType(c.Query("source_type"))
	if !sourceType.IsValid() {
		h.BadRequest(c, "Invalid source type")
		return
	}
	sourceID, err := uuid.Parse(c.Query("source_id"))
	if err != nil {
		h.BadRequest(c, "Invalid source ID")
		return
	}

	movements, err := h.service.GetMovementsBySource(c.Request.Context(), tenantID, sourceType, sourceID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, movements)
}

// ReservationBody is the request body for reserving or releasing stock
type ReservationBody struct {
	ProductID   string  `json:"product_id" binding:"required,uuid"`
	WarehouseID string  `json:"warehouse_id" binding:"required,uuid"`
	Quantity    float64 `json:"quantity" binding:"required,gt=0"`
}

// Reserve holds quantity for a pending order
func (h *StockHandler) Reserve(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}

	var body ReservationBody
	if err := c.ShouldBindJSON(&body); err != nil {
		h.BindingError(c, err)
		return
	}

	if err := h.service.ReserveStock(c.Request.Context(), tenantID,
		uuid.MustParse(body.ProductID), uuid.MustParse(body.WarehouseID),
		decimal.NewFromFloat(body.Quantity)); err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, gin.H{"reserved": true})
}

// Release returns reserved quantity to available stock
func (h *StockHandler) Release(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}

	var body ReservationBody
	if err := c.ShouldBindJSON(&body); err != nil {
		h.BindingError(c, err)
		return
	}

	if err := h.service.ReleaseStock(c.Request.Context(), tenantID,
		uuid.MustParse(body.ProductID), uuid.MustParse(body.WarehouseID),
		decimal.NewFromFloat(body.Quantity)); err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, gin.H{"released": true})
}
