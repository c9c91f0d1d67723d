package registry

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/mwansakal/sokoni-backend/internal/modules/audit"
	"github.com/mwansakal/sokoni-backend/internal/modules/fault"
	"github.com/mwansakal/sokoni-backend/internal/modules/ledger"
	"github.com/mwansakal/sokoni-backend/internal/modules/storefront"
)

// maxFeeBps caps the platform fee at 10%.
const maxFeeBps = 1000

const bpsDenominator = 10000

// Service defines the registry business logic: storefront issuance plus
// global fee and token policy.
type Service interface {
	// CreateStorefront issues a new storefront owned by the caller.
	CreateStorefront(ctx context.Context, caller uuid.UUID, name, slug, description string) (*storefront.Storefront, error)

	// GetStorefront resolves an issued storefront by id.
	GetStorefront(id uuid.UUID) (*storefront.Storefront, error)

	// StorefrontsByOwner lists the storefront ids an account owns, in
	// creation order.
	StorefrontsByOwner(owner uuid.UUID) []uuid.UUID

	// TotalStorefronts reports how many storefronts have been issued.
	TotalStorefronts() int

	// IsValidStore reports whether an id was issued by this registry.
	IsValidStore(id uuid.UUID) bool

	// UpdatePlatformFee sets the fee in basis points. Administrator-only;
	// rejects values above 1000 (10%).
	UpdatePlatformFee(ctx context.Context, caller uuid.UUID, bps int64) error

	// UpdateFeeCollector sets the fee recipient. Administrator-only; the
	// zero identifier is rejected.
	UpdateFeeCollector(ctx context.Context, caller uuid.UUID, collector uuid.UUID) error

	// AddSupportedToken allowlists a payment token. Administrator-only.
	AddSupportedToken(ctx context.Context, caller uuid.UUID, token uuid.UUID) error

	// RemoveSupportedToken delists a payment token. Administrator-only.
	RemoveSupportedToken(ctx context.Context, caller uuid.UUID, token uuid.UUID) error

	// Policy values, also exposed to storefronts via the storefront.Policy
	// handle the registry passes to each instance it creates.
	CalculatePlatformFee(amount int64) int64
	FeeCollector() uuid.UUID
	IsTokenSupported(token uuid.UUID) bool
	PlatformFeeBps() int64
}

type registry struct {
	mu sync.RWMutex

	admin        uuid.UUID
	feeBps       int64
	feeCollector uuid.UUID
	tokens       map[uuid.UUID]bool

	stores        map[uuid.UUID]*storefront.Storefront
	storeOrder    []uuid.UUID
	storesByOwner map[uuid.UUID][]uuid.UUID

	bank   ledger.Ledger
	events audit.Sink
}

// NewService creates the registry. The admin account is the sole principal
// for policy mutations; the initial fee and collector come from deployment
// configuration.
func NewService(admin, feeCollector uuid.UUID, feeBps int64, bank ledger.Ledger, events audit.Sink) (Service, error) {
	if admin == uuid.Nil {
		return nil, fmt.Errorf("%w: admin account is required", fault.ErrValidation)
	}
	if feeCollector == uuid.Nil {
		return nil, fmt.Errorf("%w: fee collector is required", fault.ErrValidation)
	}
	if feeBps < 0 || feeBps > maxFeeBps {
		return nil, fmt.Errorf("%w: fee must be in [0, %d] basis points", fault.ErrValidation, maxFeeBps)
	}
	return &registry{
		admin:         admin,
		feeBps:        feeBps,
		feeCollector:  feeCollector,
		tokens:        make(map[uuid.UUID]bool),
		stores:        make(map[uuid.UUID]*storefront.Storefront),
		storesByOwner: make(map[uuid.UUID][]uuid.UUID),
		bank:          bank,
		events:        events,
	}, nil
}

func (r *registry) requireAdmin(caller uuid.UUID) error {
	if caller != r.admin {
		return fmt.Errorf("%w: caller is not the platform administrator", fault.ErrUnauthorized)
	}
	return nil
}

func (r *registry) CreateStorefront(ctx context.Context, caller uuid.UUID, name, slug, description string) (*storefront.Storefront, error) {
	if caller == uuid.Nil {
		return nil, fmt.Errorf("%w: owner identity is required", fault.ErrValidation)
	}
	if name == "" || slug == "" {
		return nil, fmt.Errorf("%w: name and url slug are required", fault.ErrValidation)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	store := storefront.New(caller, name, slug, description, r, r.bank, r.events)
	id := store.ID()
	r.stores[id] = store
	r.storeOrder = append(r.storeOrder, id)
	r.storesByOwner[caller] = append(r.storesByOwner[caller], id)

	r.events.Emit(audit.Stamp(audit.Event{Type: audit.EventStoreCreated, StoreID: id, ActorID: caller, Detail: name}))
	return store, nil
}

func (r *registry) GetStorefront(id uuid.UUID) (*storefront.Storefront, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	store, ok := r.stores[id]
	if !ok {
		return nil, fmt.Errorf("%w: unknown storefront %s", fault.ErrValidation, id)
	}
	return store, nil
}

func (r *registry) StorefrontsByOwner(owner uuid.UUID) []uuid.UUID {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ids := make([]uuid.UUID, len(r.storesByOwner[owner]))
	copy(ids, r.storesByOwner[owner])
	return ids
}

func (r *registry) TotalStorefronts() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.storeOrder)
}

func (r *registry) IsValidStore(id uuid.UUID) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.stores[id]
	return ok
}

func (r *registry) UpdatePlatformFee(ctx context.Context, caller uuid.UUID, bps int64) error {
	if err := r.requireAdmin(caller); err != nil {
		return err
	}
	if bps < 0 || bps > maxFeeBps {
		return fmt.Errorf("%w: fee must be in [0, %d] basis points", fault.ErrValidation, maxFeeBps)
	}
	r.mu.Lock()
	r.feeBps = bps
	r.mu.Unlock()

	r.events.Emit(audit.Stamp(audit.Event{Type: audit.EventFeePolicyChanged, ActorID: caller, Amount: bps, Detail: "fee updated"}))
	return nil
}

func (r *registry) UpdateFeeCollector(ctx context.Context, caller uuid.UUID, collector uuid.UUID) error {
	if err := r.requireAdmin(caller); err != nil {
		return err
	}
	if collector == uuid.Nil {
		return fmt.Errorf("%w: fee collector cannot be the zero identifier", fault.ErrValidation)
	}
	r.mu.Lock()
	r.feeCollector = collector
	r.mu.Unlock()

	r.events.Emit(audit.Stamp(audit.Event{Type: audit.EventFeePolicyChanged, ActorID: caller, Recipient: collector, Detail: "collector updated"}))
	return nil
}

func (r *registry) AddSupportedToken(ctx context.Context, caller uuid.UUID, token uuid.UUID) error {
	if err := r.requireAdmin(caller); err != nil {
		return err
	}
	if token == uuid.Nil {
		return fmt.Errorf("%w: token cannot be the zero identifier", fault.ErrValidation)
	}
	r.mu.Lock()
	r.tokens[token] = true
	r.mu.Unlock()

	r.events.Emit(audit.Stamp(audit.Event{Type: audit.EventTokenListChanged, ActorID: caller, Token: token, Detail: "added"}))
	return nil
}

func (r *registry) RemoveSupportedToken(ctx context.Context, caller uuid.UUID, token uuid.UUID) error {
	if err := r.requireAdmin(caller); err != nil {
		return err
	}
	r.mu.Lock()
	delete(r.tokens, token)
	r.mu.Unlock()

	r.events.Emit(audit.Stamp(audit.Event{Type: audit.EventTokenListChanged, ActorID: caller, Token: token, Detail: "removed"}))
	return nil
}

// CalculatePlatformFee is floor division: fractional fee units round down and
// stay with the seller-net side.
func (r *registry) CalculatePlatformFee(amount int64) int64 {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return amount * r.feeBps / bpsDenominator
}

func (r *registry) FeeCollector() uuid.UUID {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.feeCollector
}

func (r *registry) IsTokenSupported(token uuid.UUID) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.tokens[token]
}

func (r *registry) PlatformFeeBps() int64 {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.feeBps
}
