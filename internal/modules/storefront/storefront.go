package storefront

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/mwansakal/sokoni-backend/internal/modules/audit"
	"github.com/mwansakal/sokoni-backend/internal/modules/fault"
	"github.com/mwansakal/sokoni-backend/internal/modules/ledger"
)

// Policy is the registry handle a storefront consults before accepting a
// payment or a catalog token. Injected at construction so there is no global
// configuration state.
type Policy interface {
	// CalculatePlatformFee returns floor(amount * feeBps / 10000).
	CalculatePlatformFee(amount int64) int64
	// FeeCollector is the account receiving platform fees. Never uuid.Nil.
	FeeCollector() uuid.UUID
	// IsTokenSupported reports whether a token may be used as payment currency.
	IsTokenSupported(token uuid.UUID) bool
}

const bpsDenominator = 10000

// Storefront is one seller's catalog, order ledger, and escrow engine. Every
// mutating method executes as a single indivisible unit under the instance
// lock; methods that move funds additionally raise the inTransfer flag so a
// ledger implementation calling back into this storefront mid-transfer is
// rejected instead of interleaved.
//
// Held funds are not shadow-accounted: the storefront's balance of a token is
// its own account's balance on the external ledger.
type Storefront struct {
	mu         sync.Mutex
	inTransfer atomic.Bool

	id          uuid.UUID
	owner       uuid.UUID
	name        string
	slug        string
	description string
	active      bool
	createdAt   time.Time

	products []*Product
	orders   []*Order
	splits   map[uint64][]RevenueSplit

	policy Policy
	bank   ledger.Ledger
	events audit.Sink
}

// New creates an active storefront bound to its owner. Called by the registry
// only; the registry is responsible for indexing the returned instance.
func New(owner uuid.UUID, name, slug, description string, policy Policy, bank ledger.Ledger, events audit.Sink) *Storefront {
	return &Storefront{
		id:          uuid.New(),
		owner:       owner,
		name:        name,
		slug:        slug,
		description: description,
		active:      true,
		createdAt:   time.Now().UTC(),
		splits:      make(map[uint64][]RevenueSplit),
		policy:      policy,
		bank:        bank,
		events:      events,
	}
}

// ID returns the storefront identifier. It doubles as the storefront's
// account on the value-transfer ledger.
func (s *Storefront) ID() uuid.UUID { return s.id }

// Owner returns the immutable owning account.
func (s *Storefront) Owner() uuid.UUID { return s.owner }

// enter acquires the instance lock after rejecting calls that arrive while a
// fund transfer is in flight. The flag check happens before the lock so a
// synchronous ledger callback errors out rather than deadlocking.
func (s *Storefront) enter() error {
	if s.inTransfer.Load() {
		return fmt.Errorf("%w: call rejected while a transfer is in flight", fault.ErrState)
	}
	s.mu.Lock()
	return nil
}

// ── authorization helpers ─────────────────────────────────────────────────────

func (s *Storefront) requireOwner(caller uuid.UUID) error {
	if caller != s.owner {
		return fmt.Errorf("%w: caller is not the store owner", fault.ErrUnauthorized)
	}
	return nil
}

func (s *Storefront) requireBuyer(caller uuid.UUID, o *Order) error {
	if caller != o.Buyer {
		return fmt.Errorf("%w: caller is not the order buyer", fault.ErrUnauthorized)
	}
	return nil
}

func (s *Storefront) requireOwnerOrBuyer(caller uuid.UUID, o *Order) error {
	if caller != s.owner && caller != o.Buyer {
		return fmt.Errorf("%w: caller is neither the store owner nor the order buyer", fault.ErrUnauthorized)
	}
	return nil
}

func (s *Storefront) requireActive() error {
	if !s.active {
		return fmt.Errorf("%w: storefront is deactivated", fault.ErrState)
	}
	return nil
}

// productByID validates 0 < id <= productCount and returns the entry.
func (s *Storefront) productByID(id uint64) (*Product, error) {
	if id == 0 || id > uint64(len(s.products)) {
		return nil, fmt.Errorf("%w: product id %d out of range", fault.ErrValidation, id)
	}
	return s.products[id-1], nil
}

func (s *Storefront) orderByID(id uint64) (*Order, error) {
	if id == 0 || id > uint64(len(s.orders)) {
		return nil, fmt.Errorf("%w: order id %d out of range", fault.ErrValidation, id)
	}
	return s.orders[id-1], nil
}

func (s *Storefront) emit(e audit.Event) {
	e.StoreID = s.id
	s.events.Emit(audit.Stamp(e))
}

// ── catalog management ────────────────────────────────────────────────────────

// AddProduct creates a catalog entry with the next sequential id.
func (s *Storefront) AddProduct(ctx context.Context, caller uuid.UUID, req AddProductRequest) (uint64, error) {
	if err := s.enter(); err != nil {
		return 0, err
	}
	defer s.mu.Unlock()

	if err := s.requireOwner(caller); err != nil {
		return 0, err
	}
	if err := s.requireActive(); err != nil {
		return 0, err
	}
	if req.Name == "" {
		return 0, fmt.Errorf("%w: product name is required", fault.ErrValidation)
	}
	if req.Price <= 0 {
		return 0, fmt.Errorf("%w: price must be > 0", fault.ErrValidation)
	}
	token, err := uuid.Parse(req.PaymentToken)
	if err != nil || token == uuid.Nil {
		return 0, fmt.Errorf("%w: invalid payment token", fault.ErrValidation)
	}
	if !s.policy.IsTokenSupported(token) {
		return 0, fmt.Errorf("%w: payment token %s is not supported", fault.ErrValidation, token)
	}
	if !req.IsDigital && req.Inventory <= 0 {
		return 0, fmt.Errorf("%w: physical products require inventory > 0", fault.ErrValidation)
	}
	if req.Inventory < 0 {
		return 0, fmt.Errorf("%w: inventory must be >= 0", fault.ErrValidation)
	}

	p := &Product{
		ID:           uint64(len(s.products)) + 1,
		Name:         req.Name,
		Description:  req.Description,
		Price:        req.Price,
		PaymentToken: token,
		IsDigital:    req.IsDigital,
		IsUnlimited:  req.IsUnlimited,
		Inventory:    req.Inventory,
		IsActive:     true,
		CreatedAt:    time.Now().UTC(),
	}
	s.products = append(s.products, p)

	s.emit(audit.Event{Type: audit.EventProductAdded, ActorID: caller, ProductID: p.ID, Token: token, Amount: p.Price})
	return p.ID, nil
}

// UpdateProduct edits a catalog entry. Inventory is not touched here.
func (s *Storefront) UpdateProduct(ctx context.Context, caller uuid.UUID, id uint64, req UpdateProductRequest) error {
	if err := s.enter(); err != nil {
		return err
	}
	defer s.mu.Unlock()

	if err := s.requireOwner(caller); err != nil {
		return err
	}
	if err := s.requireActive(); err != nil {
		return err
	}
	p, err := s.productByID(id)
	if err != nil {
		return err
	}
	if req.Name == "" {
		return fmt.Errorf("%w: product name is required", fault.ErrValidation)
	}
	if req.Price <= 0 {
		return fmt.Errorf("%w: price must be > 0", fault.ErrValidation)
	}
	token, err := uuid.Parse(req.PaymentToken)
	if err != nil || token == uuid.Nil {
		return fmt.Errorf("%w: invalid payment token", fault.ErrValidation)
	}
	if !s.policy.IsTokenSupported(token) {
		return fmt.Errorf("%w: payment token %s is not supported", fault.ErrValidation, token)
	}

	p.Name = req.Name
	p.Description = req.Description
	p.Price = req.Price
	p.PaymentToken = token
	p.IsActive = req.IsActive

	s.emit(audit.Event{Type: audit.EventProductUpdated, ActorID: caller, ProductID: p.ID, Token: token, Amount: p.Price})
	return nil
}

// UpdateInventory overwrites a product's stock. This is a blind write, not a
// delta: it races with concurrent order creation and the last writer wins.
func (s *Storefront) UpdateInventory(ctx context.Context, caller uuid.UUID, id uint64, inventory int64) error {
	if err := s.enter(); err != nil {
		return err
	}
	defer s.mu.Unlock()

	if err := s.requireOwner(caller); err != nil {
		return err
	}
	if err := s.requireActive(); err != nil {
		return err
	}
	p, err := s.productByID(id)
	if err != nil {
		return err
	}
	if p.IsUnlimited {
		return fmt.Errorf("%w: unlimited products have no editable inventory", fault.ErrValidation)
	}
	if inventory < 0 {
		return fmt.Errorf("%w: inventory must be >= 0", fault.ErrValidation)
	}

	p.Inventory = inventory
	s.emit(audit.Event{Type: audit.EventInventoryChanged, ActorID: caller, ProductID: p.ID, Amount: inventory})
	return nil
}

// ── order lifecycle ───────────────────────────────────────────────────────────

// CreateOrder reserves stock immediately and opens a PENDING order. Escrow is
// forced off for digital products regardless of the buyer's request.
func (s *Storefront) CreateOrder(ctx context.Context, caller uuid.UUID, req CreateOrderRequest) (uint64, error) {
	if err := s.enter(); err != nil {
		return 0, err
	}
	defer s.mu.Unlock()

	if caller == uuid.Nil {
		return 0, fmt.Errorf("%w: buyer identity is required", fault.ErrValidation)
	}
	if err := s.requireActive(); err != nil {
		return 0, err
	}
	p, err := s.productByID(req.ProductID)
	if err != nil {
		return 0, err
	}
	if !p.IsActive {
		return 0, fmt.Errorf("%w: product %d is not active", fault.ErrState, p.ID)
	}
	if req.Quantity <= 0 {
		return 0, fmt.Errorf("%w: quantity must be > 0", fault.ErrValidation)
	}
	if !p.IsUnlimited && !p.IsDigital {
		if p.Inventory < req.Quantity {
			return 0, fmt.Errorf("%w: inventory %d below requested quantity %d", fault.ErrResource, p.Inventory, req.Quantity)
		}
		// Reservation happens here, at order creation, not at payment time.
		p.Inventory -= req.Quantity
	}

	now := time.Now().UTC()
	o := &Order{
		ID:           uint64(len(s.orders)) + 1,
		Buyer:        caller,
		ProductID:    p.ID,
		Quantity:     req.Quantity,
		TotalPrice:   p.Price * req.Quantity,
		PaymentToken: p.PaymentToken,
		Status:       StatusPending,
		IsEscrow:     req.WantsEscrow && !p.IsDigital,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	s.orders = append(s.orders, o)

	s.emit(audit.Event{Type: audit.EventOrderCreated, ActorID: caller, ProductID: p.ID, OrderID: o.ID, Token: o.PaymentToken, Amount: o.TotalPrice})
	return o.ID, nil
}

// ProcessPayment pulls the order total from the buyer, forwards the platform
// fee, and either parks the remainder in escrow or distributes it. Digital
// orders complete in the same call.
func (s *Storefront) ProcessPayment(ctx context.Context, caller uuid.UUID, orderID uint64) error {
	if err := s.enter(); err != nil {
		return err
	}
	defer s.mu.Unlock()
	s.inTransfer.Store(true)
	defer s.inTransfer.Store(false)

	if err := s.requireActive(); err != nil {
		return err
	}
	o, err := s.orderByID(orderID)
	if err != nil {
		return err
	}
	if err := s.requireBuyer(caller, o); err != nil {
		return err
	}
	if o.Status != StatusPending {
		return fmt.Errorf("%w: order %d is %s, payment requires %s", fault.ErrState, o.ID, o.Status, StatusPending)
	}
	p, err := s.productByID(o.ProductID)
	if err != nil {
		return err
	}

	fee := s.policy.CalculatePlatformFee(o.TotalPrice)

	// Pull the gross amount from the buyer into the storefront's account.
	if err := s.bank.TransferFrom(ctx, o.PaymentToken, o.Buyer, s.id, o.TotalPrice); err != nil {
		return fmt.Errorf("payment pull failed: %w", err)
	}
	// Forward the platform fee. On failure, return the pulled funds so a
	// failed call leaves no net fund movement behind.
	if fee > 0 {
		if err := s.bank.Transfer(ctx, o.PaymentToken, s.id, s.policy.FeeCollector(), fee); err != nil {
			if rbErr := s.bank.Transfer(ctx, o.PaymentToken, s.id, o.Buyer, o.TotalPrice); rbErr != nil {
				return fmt.Errorf("fee forward failed (%v) and rollback failed: %w", err, rbErr)
			}
			return fmt.Errorf("fee forward failed: %w", err)
		}
	}

	net := o.TotalPrice - fee
	now := time.Now().UTC()

	if o.IsEscrow {
		o.Status = StatusInEscrow
	} else {
		if held, err := s.distribute(ctx, o.PaymentToken, o.ProductID, net); err != nil {
			// Return whatever the storefront still holds so a retry does
			// not pull the gross on top of a stranded first attempt.
			if held > 0 {
				if rbErr := s.bank.Transfer(ctx, o.PaymentToken, s.id, o.Buyer, held); rbErr != nil {
					return fmt.Errorf("distribution failed (%v) and rollback failed: %w", err, rbErr)
				}
			}
			return fmt.Errorf("distribution failed: %w", err)
		}
		o.Status = StatusPaid
	}
	o.FeePaid = fee
	o.UpdatedAt = now

	s.emit(audit.Event{Type: audit.EventPaymentProcessed, ActorID: caller, ProductID: o.ProductID, OrderID: o.ID, Token: o.PaymentToken, Amount: o.TotalPrice, Detail: fmt.Sprintf("fee=%d", fee)})
	s.emit(audit.Event{Type: audit.EventOrderStatusChanged, ActorID: caller, OrderID: o.ID, Detail: string(o.Status)})

	// Digital goods have nothing to ship; they settle and complete at once.
	if !o.IsEscrow && p.IsDigital {
		o.Status = StatusCompleted
		o.UpdatedAt = now
		s.emit(audit.Event{Type: audit.EventOrderStatusChanged, ActorID: caller, OrderID: o.ID, Detail: string(StatusCompleted)})
	}
	return nil
}

// MarkOrderShipped moves a PAID or IN_ESCROW order to SHIPPED.
func (s *Storefront) MarkOrderShipped(ctx context.Context, caller uuid.UUID, orderID uint64) error {
	if err := s.enter(); err != nil {
		return err
	}
	defer s.mu.Unlock()

	if err := s.requireOwner(caller); err != nil {
		return err
	}
	if err := s.requireActive(); err != nil {
		return err
	}
	o, err := s.orderByID(orderID)
	if err != nil {
		return err
	}
	p, err := s.productByID(o.ProductID)
	if err != nil {
		return err
	}
	if p.IsDigital {
		return fmt.Errorf("%w: digital orders are never shipped", fault.ErrState)
	}
	if !canTransition(o.Status, StatusShipped) {
		return fmt.Errorf("%w: order %d is %s, shipping requires %s or %s", fault.ErrState, o.ID, o.Status, StatusPaid, StatusInEscrow)
	}

	o.Status = StatusShipped
	o.UpdatedAt = time.Now().UTC()
	s.emit(audit.Event{Type: audit.EventOrderStatusChanged, ActorID: caller, OrderID: o.ID, Detail: string(StatusShipped)})
	return nil
}

// ConfirmDelivery moves a SHIPPED order to DELIVERED then COMPLETED, releasing
// escrowed funds through revenue distribution.
func (s *Storefront) ConfirmDelivery(ctx context.Context, caller uuid.UUID, orderID uint64) error {
	if err := s.enter(); err != nil {
		return err
	}
	defer s.mu.Unlock()
	s.inTransfer.Store(true)
	defer s.inTransfer.Store(false)

	if err := s.requireActive(); err != nil {
		return err
	}
	o, err := s.orderByID(orderID)
	if err != nil {
		return err
	}
	if err := s.requireBuyer(caller, o); err != nil {
		return err
	}
	if !canTransition(o.Status, StatusDelivered) {
		return fmt.Errorf("%w: order %d is %s, delivery confirmation requires %s", fault.ErrState, o.ID, o.Status, StatusShipped)
	}

	if o.IsEscrow {
		// Release what was actually withheld: gross minus the fee recorded
		// at payment time, immune to later fee-policy changes.
		held := o.TotalPrice - o.FeePaid
		// On a mid-release failure the undisbursed remainder stays in the
		// storefront account and the order stays SHIPPED for a retry.
		if _, err := s.distribute(ctx, o.PaymentToken, o.ProductID, held); err != nil {
			return err
		}
		s.emit(audit.Event{Type: audit.EventEscrowReleased, ActorID: caller, OrderID: o.ID, Token: o.PaymentToken, Amount: held})
	}

	now := time.Now().UTC()
	o.Status = StatusDelivered
	o.UpdatedAt = now
	s.emit(audit.Event{Type: audit.EventOrderStatusChanged, ActorID: caller, OrderID: o.ID, Detail: string(StatusDelivered)})
	o.Status = StatusCompleted
	o.UpdatedAt = now
	s.emit(audit.Event{Type: audit.EventOrderStatusChanged, ActorID: caller, OrderID: o.ID, Detail: string(StatusCompleted)})
	return nil
}

// RefundOrder returns the gross order amount to the buyer of an escrowed
// order. Because the platform fee was forwarded out at payment time, the
// storefront holds only the seller-net portion; a full refund goes through
// only if the fee amount has been re-supplied to the storefront's account.
func (s *Storefront) RefundOrder(ctx context.Context, caller uuid.UUID, orderID uint64) error {
	if err := s.enter(); err != nil {
		return err
	}
	defer s.mu.Unlock()
	s.inTransfer.Store(true)
	defer s.inTransfer.Store(false)

	if err := s.requireOwner(caller); err != nil {
		return err
	}
	if err := s.requireActive(); err != nil {
		return err
	}
	o, err := s.orderByID(orderID)
	if err != nil {
		return err
	}
	if !o.IsEscrow {
		return fmt.Errorf("%w: only escrowed orders can be refunded", fault.ErrState)
	}
	if !canTransition(o.Status, StatusRefunded) {
		return fmt.Errorf("%w: order %d is %s, refund requires %s or %s", fault.ErrState, o.ID, o.Status, StatusInEscrow, StatusShipped)
	}

	balance, err := s.bank.BalanceOf(ctx, o.PaymentToken, s.id)
	if err != nil {
		return fmt.Errorf("balance query failed: %w", err)
	}
	if balance < o.TotalPrice {
		return fmt.Errorf("%w: storefront holds %d, refund requires %d", fault.ErrResource, balance, o.TotalPrice)
	}
	if err := s.bank.Transfer(ctx, o.PaymentToken, s.id, o.Buyer, o.TotalPrice); err != nil {
		return fmt.Errorf("refund transfer failed: %w", err)
	}

	s.restoreInventory(o)
	o.Status = StatusRefunded
	o.UpdatedAt = time.Now().UTC()

	s.emit(audit.Event{Type: audit.EventOrderRefunded, ActorID: caller, OrderID: o.ID, Token: o.PaymentToken, Amount: o.TotalPrice, Recipient: o.Buyer})
	s.emit(audit.Event{Type: audit.EventOrderStatusChanged, ActorID: caller, OrderID: o.ID, Detail: string(StatusRefunded)})
	return nil
}

// CancelOrder voids a PENDING order before payment. Buyer or owner may cancel;
// no funds move.
func (s *Storefront) CancelOrder(ctx context.Context, caller uuid.UUID, orderID uint64) error {
	if err := s.enter(); err != nil {
		return err
	}
	defer s.mu.Unlock()

	if err := s.requireActive(); err != nil {
		return err
	}
	o, err := s.orderByID(orderID)
	if err != nil {
		return err
	}
	if err := s.requireOwnerOrBuyer(caller, o); err != nil {
		return err
	}
	if !canTransition(o.Status, StatusCancelled) {
		return fmt.Errorf("%w: order %d is %s, cancellation requires %s", fault.ErrState, o.ID, o.Status, StatusPending)
	}

	s.restoreInventory(o)
	o.Status = StatusCancelled
	o.UpdatedAt = time.Now().UTC()
	s.emit(audit.Event{Type: audit.EventOrderStatusChanged, ActorID: caller, OrderID: o.ID, Detail: string(StatusCancelled)})
	return nil
}

// restoreInventory returns reserved stock on cancel/refund for physical,
// limited products.
func (s *Storefront) restoreInventory(o *Order) {
	p := s.products[o.ProductID-1]
	if !p.IsDigital && !p.IsUnlimited {
		p.Inventory += o.Quantity
	}
}

// ── revenue distribution ──────────────────────────────────────────────────────

// AddRevenueSplit configures a secondary payout on a product. The sum of a
// product's splits may reach but never exceed 100%.
func (s *Storefront) AddRevenueSplit(ctx context.Context, caller uuid.UUID, productID uint64, req AddSplitRequest) error {
	if err := s.enter(); err != nil {
		return err
	}
	defer s.mu.Unlock()

	if err := s.requireOwner(caller); err != nil {
		return err
	}
	if err := s.requireActive(); err != nil {
		return err
	}
	if _, err := s.productByID(productID); err != nil {
		return err
	}
	recipient, err := uuid.Parse(req.Recipient)
	if err != nil || recipient == uuid.Nil {
		return fmt.Errorf("%w: invalid split recipient", fault.ErrValidation)
	}
	if req.Percentage <= 0 || req.Percentage >= bpsDenominator {
		return fmt.Errorf("%w: split percentage must be in (0, %d) basis points", fault.ErrValidation, bpsDenominator)
	}
	var total int64
	for _, sp := range s.splits[productID] {
		total += sp.Percentage
	}
	if total+req.Percentage > bpsDenominator {
		return fmt.Errorf("%w: splits would total %d basis points, limit is %d", fault.ErrValidation, total+req.Percentage, bpsDenominator)
	}

	s.splits[productID] = append(s.splits[productID], RevenueSplit{Recipient: recipient, Percentage: req.Percentage})
	s.emit(audit.Event{Type: audit.EventRevenueSplitAdded, ActorID: caller, ProductID: productID, Recipient: recipient, Amount: req.Percentage})
	return nil
}

// RemoveRevenueSplit removes a split by index, moving the last entry into the
// removed slot. Split ordering is not preserved.
func (s *Storefront) RemoveRevenueSplit(ctx context.Context, caller uuid.UUID, productID uint64, index int) error {
	if err := s.enter(); err != nil {
		return err
	}
	defer s.mu.Unlock()

	if err := s.requireOwner(caller); err != nil {
		return err
	}
	if err := s.requireActive(); err != nil {
		return err
	}
	if _, err := s.productByID(productID); err != nil {
		return err
	}
	splits := s.splits[productID]
	if index < 0 || index >= len(splits) {
		return fmt.Errorf("%w: split index %d out of range", fault.ErrValidation, index)
	}

	removed := splits[index]
	splits[index] = splits[len(splits)-1]
	s.splits[productID] = splits[:len(splits)-1]

	s.emit(audit.Event{Type: audit.EventRevenueSplitRemoved, ActorID: caller, ProductID: productID, Recipient: removed.Recipient, Amount: removed.Percentage})
	return nil
}

// distribute pays a seller-net amount out of the storefront account: each
// split gets floor(amount * pct / 10000), the owner takes whatever integer
// remainder is left. The full amount always leaves the storefront, no dust.
// On failure it reports the portion still held in the storefront account so
// the caller can decide what to do with the stranded funds.
func (s *Storefront) distribute(ctx context.Context, token uuid.UUID, productID uint64, amount int64) (int64, error) {
	if amount <= 0 {
		return 0, nil
	}
	remaining := amount
	for _, sp := range s.splits[productID] {
		share := amount * sp.Percentage / bpsDenominator
		if share == 0 {
			continue
		}
		if err := s.bank.Transfer(ctx, token, s.id, sp.Recipient, share); err != nil {
			return remaining, fmt.Errorf("split payout to %s failed: %w", sp.Recipient, err)
		}
		remaining -= share
	}
	if remaining > 0 {
		if err := s.bank.Transfer(ctx, token, s.id, s.owner, remaining); err != nil {
			return remaining, fmt.Errorf("owner payout failed: %w", err)
		}
	}
	return 0, nil
}

// WithdrawFunds sweeps the storefront's entire ledger balance of a token to
// the owner. The sweep includes funds currently held against escrowed orders;
// an owner draining escrow before settlement forfeits the ability to refund.
func (s *Storefront) WithdrawFunds(ctx context.Context, caller uuid.UUID, token uuid.UUID) (int64, error) {
	if err := s.enter(); err != nil {
		return 0, err
	}
	defer s.mu.Unlock()
	s.inTransfer.Store(true)
	defer s.inTransfer.Store(false)

	if err := s.requireOwner(caller); err != nil {
		return 0, err
	}
	if err := s.requireActive(); err != nil {
		return 0, err
	}
	if token == uuid.Nil {
		return 0, fmt.Errorf("%w: token is required", fault.ErrValidation)
	}
	balance, err := s.bank.BalanceOf(ctx, token, s.id)
	if err != nil {
		return 0, fmt.Errorf("balance query failed: %w", err)
	}
	if balance == 0 {
		return 0, fmt.Errorf("%w: no balance to withdraw", fault.ErrResource)
	}
	if err := s.bank.Transfer(ctx, token, s.id, s.owner, balance); err != nil {
		return 0, fmt.Errorf("withdrawal transfer failed: %w", err)
	}

	s.emit(audit.Event{Type: audit.EventFundsWithdrawn, ActorID: caller, Token: token, Amount: balance, Recipient: s.owner})
	return balance, nil
}

// ── store administration ──────────────────────────────────────────────────────

// UpdateInfo edits the store's display metadata.
func (s *Storefront) UpdateInfo(ctx context.Context, caller uuid.UUID, req UpdateInfoRequest) error {
	if err := s.enter(); err != nil {
		return err
	}
	defer s.mu.Unlock()

	if err := s.requireOwner(caller); err != nil {
		return err
	}
	if err := s.requireActive(); err != nil {
		return err
	}
	if req.Name == "" {
		return fmt.Errorf("%w: store name is required", fault.ErrValidation)
	}
	s.name = req.Name
	s.description = req.Description
	s.emit(audit.Event{Type: audit.EventStoreInfoUpdated, ActorID: caller})
	return nil
}

// SetActive toggles the store. Deactivation blocks every mutating operation
// except reactivation by the owner.
func (s *Storefront) SetActive(ctx context.Context, caller uuid.UUID, active bool) error {
	if err := s.enter(); err != nil {
		return err
	}
	defer s.mu.Unlock()

	if err := s.requireOwner(caller); err != nil {
		return err
	}
	if s.active == active {
		return fmt.Errorf("%w: storefront is already %s", fault.ErrState, activeWord(active))
	}
	s.active = active
	s.emit(audit.Event{Type: audit.EventStoreStatusChanged, ActorID: caller, Detail: activeWord(active)})
	return nil
}

func activeWord(active bool) string {
	if active {
		return "active"
	}
	return "inactive"
}

// ── reads ─────────────────────────────────────────────────────────────────────
//
// Reads take the same in-flight-transfer guard as mutations: a ledger that
// calls back into the storefront mid-transfer gets ErrState instead of
// deadlocking on the held mutex.

// Info returns a snapshot of the store's metadata.
func (s *Storefront) Info() (Info, error) {
	if err := s.enter(); err != nil {
		return Info{}, err
	}
	defer s.mu.Unlock()
	return Info{
		ID:           s.id,
		Owner:        s.owner,
		Name:         s.name,
		Slug:         s.slug,
		Description:  s.description,
		IsActive:     s.active,
		ProductCount: uint64(len(s.products)),
		OrderCount:   uint64(len(s.orders)),
		CreatedAt:    s.createdAt,
	}, nil
}

// GetProduct returns a copy of a catalog entry.
func (s *Storefront) GetProduct(id uint64) (Product, error) {
	if err := s.enter(); err != nil {
		return Product{}, err
	}
	defer s.mu.Unlock()
	p, err := s.productByID(id)
	if err != nil {
		return Product{}, err
	}
	return *p, nil
}

// ListProducts returns copies of all catalog entries in id order.
func (s *Storefront) ListProducts() ([]Product, error) {
	if err := s.enter(); err != nil {
		return nil, err
	}
	defer s.mu.Unlock()
	out := make([]Product, len(s.products))
	for i, p := range s.products {
		out[i] = *p
	}
	return out, nil
}

// GetOrder returns a copy of an order.
func (s *Storefront) GetOrder(id uint64) (Order, error) {
	if err := s.enter(); err != nil {
		return Order{}, err
	}
	defer s.mu.Unlock()
	o, err := s.orderByID(id)
	if err != nil {
		return Order{}, err
	}
	return *o, nil
}

// ListOrdersByBuyer returns copies of a buyer's orders in id order.
func (s *Storefront) ListOrdersByBuyer(buyer uuid.UUID) ([]Order, error) {
	if err := s.enter(); err != nil {
		return nil, err
	}
	defer s.mu.Unlock()
	var out []Order
	for _, o := range s.orders {
		if o.Buyer == buyer {
			out = append(out, *o)
		}
	}
	return out, nil
}

// ListRevenueSplits returns a product's current splits. Order is not stable
// across removals.
func (s *Storefront) ListRevenueSplits(productID uint64) ([]RevenueSplit, error) {
	if err := s.enter(); err != nil {
		return nil, err
	}
	defer s.mu.Unlock()
	if _, err := s.productByID(productID); err != nil {
		return nil, err
	}
	out := make([]RevenueSplit, len(s.splits[productID]))
	copy(out, s.splits[productID])
	return out, nil
}
