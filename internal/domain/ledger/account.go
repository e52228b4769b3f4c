package ledger

import (
	"context"

	"github.com/google/uuid"
	"github.com/merx/erp/internal/domain/shared"
)

// AccountRole is the semantic role an account plays in automated posting.
// Roles decouple posting rules from tenant-specific account codes.
type AccountRole string

const (
	RoleInventory      AccountRole = "inventory"
	RoleCOGS           AccountRole = "cogs"
	RolePayable        AccountRole = "payable"
	RoleSalesRevenue   AccountRole = "sales-revenue"
	RoleCash           AccountRole = "cash"
	RoleTaxPayable     AccountRole = "tax-payable"
	RoleAdjustmentGain AccountRole = "adjustment-gain"
	RoleAdjustmentLoss AccountRole = "adjustment-loss"
)

// String returns the string representation of AccountRole
func (r AccountRole) String() string {
	return string(r)
}

// IsValid returns true if the role is known
func (r AccountRole) IsValid() bool {
	switch r {
	case RoleInventory, RoleCOGS, RolePayable, RoleSalesRevenue,
		RoleCash, RoleTaxPayable, RoleAdjustmentGain, RoleAdjustmentLoss:
		return true
	}
	return false
}

// ChartAccount is a tenant's ledger account. This subsystem only looks
// accounts up by role; bootstrapping the chart of accounts is an external
// concern that must run before posting is invoked.
type ChartAccount struct {
	shared.BaseEntity
	TenantID uuid.UUID   `gorm:"type:uuid;not null;uniqueIndex:idx_chart_account_code,priority:1"`
	Code     string      `gorm:"type:varchar(20);not null;uniqueIndex:idx_chart_account_code,priority:2"`
	Name     string      `gorm:"type:varchar(100);not null"`
	Role     AccountRole `gorm:"type:varchar(30);not null;index:idx_chart_account_role"`
	Active   bool        `gorm:"not null;default:true"`
}

// TableName returns the table name for GORM
func (ChartAccount) TableName() string {
	return "chart_accounts"
}

// NewChartAccount creates a chart account
func NewChartAccount(tenantID uuid.UUID, code, name string, role AccountRole) (*ChartAccount, error) {
	if tenantID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_TENANT", "Tenant ID cannot be empty")
	}
	if code == "" {
		return nil, shared.NewDomainError("INVALID_CODE", "Account code cannot be empty")
	}
	if !role.IsValid() {
		return nil, shared.NewDomainError("INVALID_ROLE", "Unknown account role")
	}

	return &ChartAccount{
		BaseEntity: shared.NewBaseEntity(),
		TenantID:   tenantID,
		Code:       code,
		Name:       name,
		Role:       role,
		Active:     true,
	}, nil
}

// AccountRepository reads the tenant's chart of accounts
type AccountRepository interface {
	// FindActiveByRole returns the active account holding the given role
	FindActiveByRole(ctx context.Context, tenantID uuid.UUID, role AccountRole) (*ChartAccount, error)
	// FindByID finds an account by ID within a tenant
	FindByID(ctx context.Context, tenantID, id uuid.UUID) (*ChartAccount, error)
	// Save persists an account (bootstrap and test support)
	Save(ctx context.Context, account *ChartAccount) error
}
