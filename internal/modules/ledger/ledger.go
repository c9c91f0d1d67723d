package ledger

import (
	"context"

	"github.com/google/uuid"
)

// Ledger is the boundary to the external value-transfer service. Amounts are
// integer base units of the given token. Any error returned here is fatal to
// the in-flight marketplace operation; the engine never retries.
type Ledger interface {
	// TransferFrom pulls previously authorized funds from payer to recipient.
	// Fails if the payer's balance or the recipient's allowance is insufficient.
	TransferFrom(ctx context.Context, token, payer, recipient uuid.UUID, amount int64) error

	// Transfer pushes funds out of the caller-designated from account.
	Transfer(ctx context.Context, token, from, recipient uuid.UUID, amount int64) error

	// BalanceOf reports the account's current balance of a token.
	BalanceOf(ctx context.Context, token, account uuid.UUID) (int64, error)
}
