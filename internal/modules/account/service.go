package account

import "context"

// Service defines the interface for account-related business logic.
type Service interface {
	RegisterAccount(ctx context.Context, email, password, displayName string) (*Account, error)
	GetAccount(ctx context.Context, id string) (*Account, error)
}
