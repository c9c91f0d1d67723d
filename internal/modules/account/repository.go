package account

import "context"

// Repository defines data access for accounts.
type Repository interface {
	// CreateAccount persists a new account.
	CreateAccount(ctx context.Context, a *Account) error

	// GetAccountByID retrieves an account by UUID.
	GetAccountByID(ctx context.Context, id string) (*Account, error)

	// GetAccountByEmail retrieves an account by email.
	GetAccountByEmail(ctx context.Context, email string) (*Account, error)
}
