package storefront

import (
	"time"

	"github.com/google/uuid"
)

// OrderStatus represents the lifecycle state of an order.
type OrderStatus string

const (
	StatusPending   OrderStatus = "PENDING"
	StatusPaid      OrderStatus = "PAID"
	StatusInEscrow  OrderStatus = "IN_ESCROW"
	StatusShipped   OrderStatus = "SHIPPED"
	StatusDelivered OrderStatus = "DELIVERED"
	StatusCompleted OrderStatus = "COMPLETED"
	StatusCancelled OrderStatus = "CANCELLED"
	StatusRefunded  OrderStatus = "REFUNDED"
)

// validTransitions defines the allowed status state machine. Digital orders
// skip SHIPPED/DELIVERED entirely: they jump from PAID to COMPLETED inside
// the payment call.
var validTransitions = map[OrderStatus][]OrderStatus{
	StatusPending:   {StatusPaid, StatusInEscrow, StatusCancelled},
	StatusPaid:      {StatusShipped, StatusCompleted},
	StatusInEscrow:  {StatusShipped, StatusRefunded},
	StatusShipped:   {StatusDelivered, StatusRefunded},
	StatusDelivered: {StatusCompleted},
	StatusCompleted: {},
	StatusCancelled: {},
	StatusRefunded:  {},
}

func canTransition(from, to OrderStatus) bool {
	for _, next := range validTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// Product is a catalog entry. IDs are assigned sequentially from 1 and never
// reused; products are never deleted, only deactivated.
type Product struct {
	ID           uint64    `json:"id"`
	Name         string    `json:"name"`
	Description  string    `json:"description,omitempty"`
	Price        int64     `json:"price"`
	PaymentToken uuid.UUID `json:"payment_token"`
	IsDigital    bool      `json:"is_digital"`
	IsUnlimited  bool      `json:"is_unlimited"`
	Inventory    int64     `json:"inventory"`
	IsActive     bool      `json:"is_active"`
	CreatedAt    time.Time `json:"created_at"`
}

// Order is one buyer purchase. TotalPrice is fixed at creation; FeePaid is
// recorded at payment time so an escrow release pays out exactly what was
// withheld even if the platform fee changes afterwards.
type Order struct {
	ID           uint64      `json:"id"`
	Buyer        uuid.UUID   `json:"buyer"`
	ProductID    uint64      `json:"product_id"`
	Quantity     int64       `json:"quantity"`
	TotalPrice   int64       `json:"total_price"`
	PaymentToken uuid.UUID   `json:"payment_token"`
	Status       OrderStatus `json:"status"`
	IsEscrow     bool        `json:"is_escrow"`
	FeePaid      int64       `json:"fee_paid,omitempty"`
	CreatedAt    time.Time   `json:"created_at"`
	UpdatedAt    time.Time   `json:"updated_at"`
}

// RevenueSplit is a secondary payout on a product's settlements, expressed in
// basis points of the seller-net amount. Split order is not stable: removal
// moves the last entry into the removed slot.
type RevenueSplit struct {
	Recipient  uuid.UUID `json:"recipient"`
	Percentage int64     `json:"percentage"`
}

// Info is the read-only snapshot of a storefront's metadata.
type Info struct {
	ID           uuid.UUID `json:"id"`
	Owner        uuid.UUID `json:"owner"`
	Name         string    `json:"name"`
	Slug         string    `json:"slug"`
	Description  string    `json:"description,omitempty"`
	IsActive     bool      `json:"is_active"`
	ProductCount uint64    `json:"product_count"`
	OrderCount   uint64    `json:"order_count"`
	CreatedAt    time.Time `json:"created_at"`
}

// ── Request DTOs ──────────────────────────────────────────────────────────────

// AddProductRequest is the payload for creating a catalog entry.
type AddProductRequest struct {
	Name         string `json:"name"`
	Description  string `json:"description,omitempty"`
	Price        int64  `json:"price"`
	PaymentToken string `json:"payment_token"`
	IsDigital    bool   `json:"is_digital"`
	IsUnlimited  bool   `json:"is_unlimited"`
	Inventory    int64  `json:"inventory"`
}

// UpdateProductRequest is the payload for editing a catalog entry. Inventory
// is deliberately absent; it has its own endpoint.
type UpdateProductRequest struct {
	Name         string `json:"name"`
	Description  string `json:"description,omitempty"`
	Price        int64  `json:"price"`
	PaymentToken string `json:"payment_token"`
	IsActive     bool   `json:"is_active"`
}

// CreateOrderRequest is the payload for placing an order.
type CreateOrderRequest struct {
	ProductID   uint64 `json:"product_id"`
	Quantity    int64  `json:"quantity"`
	WantsEscrow bool   `json:"wants_escrow"`
}

// AddSplitRequest is the payload for configuring a revenue split.
type AddSplitRequest struct {
	Recipient  string `json:"recipient"`
	Percentage int64  `json:"percentage"`
}

// UpdateInfoRequest is the payload for editing store metadata.
type UpdateInfoRequest struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}
