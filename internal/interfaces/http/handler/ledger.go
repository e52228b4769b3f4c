package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/merx/erp/internal/application/posting"
	"github.com/merx/erp/internal/domain/ledger"
)

// LedgerHandler exposes chart-of-accounts management and ledger queries
type LedgerHandler struct {
	BaseHandler
	service  *posting.PostingService
	accounts ledger.AccountRepository
}

// NewLedgerHandler creates a new LedgerHandler
func NewLedgerHandler(service *posting.PostingService, accounts ledger.AccountRepository) *LedgerHandler {
	return &LedgerHandler{service: service, accounts: accounts}
}

// RegisterRoutes registers ledger routes
func (h *LedgerHandler) RegisterRoutes(rg *gin.RouterGroup) {
	group := rg.Group("/ledger")
	group.POST("/accounts", h.CreateAccount)
	group.GET("/entries/:reference", h.GetEntriesByReference)
	group.GET("/trial-balance", h.GetTrialBalance)
}

// CreateAccountBody is the request body for creating a chart account
type CreateAccountBody struct {
	Code string `json:"code" binding:"required,max=32"`
	Name string `json:"name" binding:"required,max=128"`
	Role string `json:"role" binding:"required"`
}

// CreateAccount adds an account to the tenant's chart of accounts
func (h *LedgerHandler) CreateAccount(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}

	var body CreateAccountBody
	if err := c.ShouldBindJSON(&body); err != nil {
		h.BindingError(c, err)
		return
	}

	role := ledger.AccountRole(body.Role)
	if !role.IsValid() {
		h.BadRequest(c, "Invalid account role")
		return
	}

	account, err := ledger.NewChartAccount(tenantID, body.Code, body.Name, role)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	if err := h.accounts.Save(c.Request.Context(), account); err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, account)
}

// GetEntriesByReference returns the balanced entry set posted under a
// reference
func (h *LedgerHandler) GetEntriesByReference(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}
	reference, err := uuid.Parse(c.Param("reference"))
	if err != nil {
		h.BadRequest(c, "Invalid reference")
		return
	}

	entries, err := h.service.GetLedgerEntries(c.Request.Context(), tenantID, reference)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, gin.H{
		"reference":    reference,
		"entries":      entries,
		"total_debit":  entries.TotalDebit(),
		"total_credit": entries.TotalCredit(),
	})
}

// GetTrialBalance returns per-account debit/credit totals
func (h *LedgerHandler) GetTrialBalance(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}

	totals, err := h.service.GetAccountTotals(c.Request.Context(), tenantID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, totals)
}
