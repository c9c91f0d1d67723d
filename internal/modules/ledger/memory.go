package ledger

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/mwansakal/sokoni-backend/internal/modules/fault"
)

type accountKey struct {
	token   uuid.UUID
	account uuid.UUID
}

type allowanceKey struct {
	token   uuid.UUID
	owner   uuid.UUID
	spender uuid.UUID
}

// MemoryLedger is an in-process token bank with ERC-20 style balances and
// allowances. It backs dev mode and tests; production deployments swap in a
// gateway-backed Ledger.
type MemoryLedger struct {
	mu         sync.Mutex
	balances   map[accountKey]int64
	allowances map[allowanceKey]int64
}

func NewMemoryLedger() *MemoryLedger {
	return &MemoryLedger{
		balances:   make(map[accountKey]int64),
		allowances: make(map[allowanceKey]int64),
	}
}

// Mint credits fresh token units to an account.
func (l *MemoryLedger) Mint(ctx context.Context, token, account uuid.UUID, amount int64) error {
	if token == uuid.Nil || account == uuid.Nil {
		return fmt.Errorf("%w: mint requires token and account", fault.ErrValidation)
	}
	if amount <= 0 {
		return fmt.Errorf("%w: mint amount must be > 0", fault.ErrValidation)
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.balances[accountKey{token, account}] += amount
	return nil
}

// Approve sets the allowance a spender may pull from the owner via TransferFrom.
func (l *MemoryLedger) Approve(ctx context.Context, token, owner, spender uuid.UUID, amount int64) error {
	if token == uuid.Nil || owner == uuid.Nil || spender == uuid.Nil {
		return fmt.Errorf("%w: approve requires token, owner and spender", fault.ErrValidation)
	}
	if amount < 0 {
		return fmt.Errorf("%w: allowance must be >= 0", fault.ErrValidation)
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.allowances[allowanceKey{token, owner, spender}] = amount
	return nil
}

func (l *MemoryLedger) TransferFrom(ctx context.Context, token, payer, recipient uuid.UUID, amount int64) error {
	if amount <= 0 || recipient == uuid.Nil {
		return fmt.Errorf("%w: bad transfer parameters", fault.ErrValidation)
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	ak := allowanceKey{token, payer, recipient}
	if l.allowances[ak] < amount {
		return fmt.Errorf("%w: allowance %d below transfer amount %d", fault.ErrResource, l.allowances[ak], amount)
	}
	if err := l.move(token, payer, recipient, amount); err != nil {
		return err
	}
	l.allowances[ak] -= amount
	return nil
}

func (l *MemoryLedger) Transfer(ctx context.Context, token, from, recipient uuid.UUID, amount int64) error {
	if amount <= 0 || recipient == uuid.Nil {
		return fmt.Errorf("%w: bad transfer parameters", fault.ErrValidation)
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.move(token, from, recipient, amount)
}

func (l *MemoryLedger) BalanceOf(ctx context.Context, token, account uuid.UUID) (int64, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.balances[accountKey{token, account}], nil
}

// move debits and credits under the held lock. Balances never go negative.
func (l *MemoryLedger) move(token, from, to uuid.UUID, amount int64) error {
	fk := accountKey{token, from}
	if l.balances[fk] < amount {
		return fmt.Errorf("%w: balance %d below transfer amount %d", fault.ErrResource, l.balances[fk], amount)
	}
	l.balances[fk] -= amount
	l.balances[accountKey{token, to}] += amount
	return nil
}
