package ledger

import (
	"context"
	"fmt"

	"github.com/google/uuid"
)

// ── External settlement rail adapter ─────────────────────────────────────────
// In production, replace the stub methods with calls to the actual token
// custody service. The adapter satisfies Ledger so the settlement engine never
// knows which rail it is running against.

type gatewayLedger struct {
	apiKey    string
	apiSecret string
	baseURL   string
	env       string // sandbox | production
	sandbox   *MemoryLedger
}

// NewGatewayLedger creates a Ledger backed by an external custody API. In
// sandbox env the adapter settles against an in-process bank so the rest of
// the stack behaves identically.
func NewGatewayLedger(apiKey, apiSecret, baseURL, env string) Ledger {
	return &gatewayLedger{
		apiKey:    apiKey,
		apiSecret: apiSecret,
		baseURL:   baseURL,
		env:       env,
		sandbox:   NewMemoryLedger(),
	}
}

func (g *gatewayLedger) TransferFrom(ctx context.Context, token, payer, recipient uuid.UUID, amount int64) error {
	// ── PRODUCTION INTEGRATION POINT ──────────────────────────────────────────
	// POST {baseURL}/v1/transfers/pull
	// Headers: X-Api-Key, X-Api-Secret
	// Body: { token, payer, recipient, amount }
	// A non-2xx response means authorization or balance was insufficient and
	// must surface as an error; the engine treats it as fatal to the call.
	// ──────────────────────────────────────────────────────────────────────────
	if g.env != "sandbox" {
		return fmt.Errorf("gateway ledger: production transferFrom not configured for %s", g.baseURL)
	}
	return g.sandbox.TransferFrom(ctx, token, payer, recipient, amount)
}

func (g *gatewayLedger) Transfer(ctx context.Context, token, from, recipient uuid.UUID, amount int64) error {
	// ── PRODUCTION INTEGRATION POINT ──────────────────────────────────────────
	// POST {baseURL}/v1/transfers/push
	// ──────────────────────────────────────────────────────────────────────────
	if g.env != "sandbox" {
		return fmt.Errorf("gateway ledger: production transfer not configured for %s", g.baseURL)
	}
	return g.sandbox.Transfer(ctx, token, from, recipient, amount)
}

func (g *gatewayLedger) BalanceOf(ctx context.Context, token, account uuid.UUID) (int64, error) {
	// ── PRODUCTION INTEGRATION POINT ──────────────────────────────────────────
	// GET {baseURL}/v1/accounts/{account}/balances/{token}
	// ──────────────────────────────────────────────────────────────────────────
	if g.env != "sandbox" {
		return 0, fmt.Errorf("gateway ledger: production balanceOf not configured for %s", g.baseURL)
	}
	return g.sandbox.BalanceOf(ctx, token, account)
}
