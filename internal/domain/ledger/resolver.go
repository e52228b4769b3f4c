package ledger

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/merx/erp/internal/domain/shared"
)

// AccountResolver maps a semantic account role to the tenant's concrete
// ledger account. Resolution never falls back to a default: a missing
// role is a configuration defect, because posting to a guessed account
// silently corrupts financial statements.
type AccountResolver interface {
	// Resolve returns the account ID for the role, or
	// shared.ErrAccountNotFound
	Resolve(ctx context.Context, tenantID uuid.UUID, role AccountRole) (uuid.UUID, error)
}

// AccountSet holds pre-resolved account IDs keyed by role. The coordinator
// resolves accounts before the atomic unit opens so the transaction itself
// stays short-lived.
type AccountSet map[AccountRole]uuid.UUID

// Get returns the account for a role; a missing role is a programming
// error in the posting rules, reported as shared.ErrAccountNotFound.
func (s AccountSet) Get(role AccountRole) (uuid.UUID, error) {
	id, ok := s[role]
	if !ok {
		return uuid.Nil, fmt.Errorf("role %s missing from resolved account set: %w", role, shared.ErrAccountNotFound)
	}
	return id, nil
}

// RepositoryAccountResolver resolves roles through the chart-of-accounts
// repository
type RepositoryAccountResolver struct {
	accounts AccountRepository
}

// NewRepositoryAccountResolver creates a repository-backed resolver
func NewRepositoryAccountResolver(accounts AccountRepository) *RepositoryAccountResolver {
	return &RepositoryAccountResolver{accounts: accounts}
}

// Resolve looks up the active account holding the role for the tenant
func (r *RepositoryAccountResolver) Resolve(ctx context.Context, tenantID uuid.UUID, role AccountRole) (uuid.UUID, error) {
	account, err := r.accounts.FindActiveByRole(ctx, tenantID, role)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return uuid.Nil, fmt.Errorf("resolving account for role %s: %w", role, shared.ErrAccountNotFound)
		}
		return uuid.Nil, err
	}
	return account.ID, nil
}

// Ensure RepositoryAccountResolver implements AccountResolver
var _ AccountResolver = (*RepositoryAccountResolver)(nil)
