package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/merx/erp/internal/application/posting"
	"github.com/shopspring/decimal"
)

// PostingHandler exposes the posting operations over HTTP
type PostingHandler struct {
	BaseHandler
	service *posting.PostingService
}

// NewPostingHandler creates a new PostingHandler
func NewPostingHandler(service *posting.PostingService) *PostingHandler {
	return &PostingHandler{service: service}
}

// RegisterRoutes registers posting routes
func (h *PostingHandler) RegisterRoutes(rg *gin.RouterGroup) {
	group := rg.Group("/postings")
	group.POST("/purchase-receipts", h.RecordPurchaseReceipt)
	group.POST("/sale-completions", h.RecordSaleCompletion)
	group.POST("/transfers", h.RecordTransfer)
	group.POST("/adjustments", h.RecordAdjustment)
}

// PurchaseReceiptBody is the request body for posting a purchase receipt
type PurchaseReceiptBody struct {
	PurchaseID  string   `json:"purchase_id" binding:"required,uuid"`
	ProductID   string   `json:"product_id" binding:"required,uuid"`
	WarehouseID string   `json:"warehouse_id" binding:"required,uuid"`
	Quantity    float64  `json:"quantity" binding:"required,gt=0"`
	UnitCost    *float64 `json:"unit_cost" binding:"omitempty,gte=0"`
}

// RecordPurchaseReceipt posts goods received against a purchase order
func (h *PostingHandler) RecordPurchaseReceipt(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}

	var body PurchaseReceiptBody
	if err := c.ShouldBindJSON(&body); err != nil {
		h.BindingError(c, err)
		return
	}

	req := posting.PurchaseReceiptRequest{
		PurchaseID:  uuid.MustParse(body.PurchaseID),
		ProductID:   uuid.MustParse(body.ProductID),
		WarehouseID: uuid.MustParse(body.WarehouseID),
		Quantity:    decimal.NewFromFloat(body.Quantity),
		OperatorID:  getOperatorID(c),
	}
	if body.UnitCost != nil {
		cost := decimal.NewFromFloat(*body.UnitCost)
		req.UnitCost = &cost
	}

	result, err := h.service.RecordPurchaseReceipt(c.Request.Context(), tenantID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	if result.Duplicate {
		h.Success(c, result)
		return
	}
	h.Created(c, result)
}

// SaleLineBody is one line of a sale completion body
type SaleLineBody struct {
	ProductID   string  `json:"product_id" binding:"required,uuid"`
	WarehouseID string  `json:"warehouse_id" binding:"required,uuid"`
	Quantity    float64 `json:"quantity" binding:"required,gt=0"`
	SaleAmount  float64 `json:"sale_amount" binding:"gte=0"`
}

// SaleCompletionBody is the request body for posting a completed sale
type SaleCompletionBody struct {
	SaleID string         `json:"sale_id" binding:"required,uuid"`
	Lines  []SaleLineBody `json:"lines" binding:"required,min=1,dive"`
}

// RecordSaleCompletion posts a completed sale
func (h *PostingHandler) RecordSaleCompletion(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}

	var body SaleCompletionBody
	if err := c.ShouldBindJSON(&body); err != nil {
		h.BindingError(c, err)
		return
	}

	req := posting.SaleCompletionRequest{
		SaleID:     uuid.MustParse(body.SaleID),
		OperatorID: getOperatorID(c),
	}
	for _, line := range body.Lines {
		req.Lines = append(req.Lines, posting.SaleLineItem{
			ProductID:   uuid.MustParse(line.ProductID),
			WarehouseID: uuid.MustParse(line.WarehouseID),
			Quantity:    decimal.NewFromFloat(line.Quantity),
			SaleAmount:  decimal.NewFromFloat(line.SaleAmount),
		})
	}

	result, err := h.service.RecordSaleCompletion(c.Request.Context(), tenantID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	if result.Duplicate {
		h.Success(c, result)
		return
	}
	h.Created(c, result)
}

// TransferBody is the request body for posting a warehouse transfer
type TransferBody struct {
	TransferID      string  `json:"transfer_id" binding:"required,uuid"`
	ProductID       string  `json:"product_id" binding:"required,uuid"`
	FromWarehouseID string  `json:"from_warehouse_id" binding:"required,uuid"`
	ToWarehouseID   string  `json:"to_warehouse_id" binding:"required,uuid"`
	Quantity        float64 `json:"quantity" binding:"required,gt=0"`
}

// RecordTransfer posts a stock transfer between warehouses
func (h *PostingHandler) RecordTransfer(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}

	var body TransferBody
	if err := c.ShouldBindJSON(&body); err != nil {
		h.BindingError(c, err)
		return
	}

	req := posting.TransferRequest{
		TransferID:      uuid.MustParse(body.TransferID),
		ProductID:       uuid.MustParse(body.ProductID),
		FromWarehouseID: uuid.MustParse(body.FromWarehouseID),
		ToWarehouseID:   uuid.MustParse(body.ToWarehouseID),
		Quantity:        decimal.NewFromFloat(body.Quantity),
		OperatorID:      getOperatorID(c),
	}

	result, err := h.service.RecordTransfer(c.Request.Context(), tenantID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	if result.Duplicate {
		h.Success(c, result)
		return
	}
	h.Created(c, result)
}

// AdjustmentBody is the request body for posting a stock adjustment
type AdjustmentBody struct {
	ReferenceID string  `json:"reference_id" binding:"required,uuid"`
	ProductID   string  `json:"product_id" binding:"required,uuid"`
	WarehouseID string  `json:"warehouse_id" binding:"required,uuid"`
	CountedQty  float64 `json:"counted_qty" binding:"gte=0"`
	Note        string  `json:"note" binding:"max=255"`
}

// RecordAdjustment reconciles a position to a counted quantity
func (h *PostingHandler) RecordAdjustment(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}

	var body AdjustmentBody
	if err := c.ShouldBindJSON(&body); err != nil {
		h.BindingError(c, err)
		return
	}

	req := posting.AdjustmentRequest{
		ReferenceID: uuid.MustParse(body.ReferenceID),
		ProductID:   uuid.MustParse(body.ProductID),
		WarehouseID: uuid.MustParse(body.WarehouseID),
		CountedQty:  decimal.NewFromFloat(body.CountedQty),
		Note:        body.Note,
		OperatorID:  getOperatorID(c),
	}

	result, err := h.service.RecordAdjustment(c.Request.Context(), tenantID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	if result.Duplicate {
		h.Success(c, result)
		return
	}
	h.Created(c, result)
}
