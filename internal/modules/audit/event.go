package audit

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// EventType names a committed state transition.
type EventType string

const (
	EventStoreCreated        EventType = "STORE_CREATED"
	EventStoreInfoUpdated    EventType = "STORE_INFO_UPDATED"
	EventStoreStatusChanged  EventType = "STORE_STATUS_CHANGED"
	EventProductAdded        EventType = "PRODUCT_ADDED"
	EventProductUpdated      EventType = "PRODUCT_UPDATED"
	EventInventoryChanged    EventType = "INVENTORY_CHANGED"
	EventOrderCreated        EventType = "ORDER_CREATED"
	EventOrderStatusChanged  EventType = "ORDER_STATUS_CHANGED"
	EventPaymentProcessed    EventType = "PAYMENT_PROCESSED"
	EventEscrowReleased      EventType = "ESCROW_RELEASED"
	EventOrderRefunded       EventType = "ORDER_REFUNDED"
	EventRevenueSplitAdded   EventType = "REVENUE_SPLIT_ADDED"
	EventRevenueSplitRemoved EventType = "REVENUE_SPLIT_REMOVED"
	EventFundsWithdrawn      EventType = "FUNDS_WITHDRAWN"
	EventFeePolicyChanged    EventType = "FEE_POLICY_CHANGED"
	EventTokenListChanged    EventType = "TOKEN_LIST_CHANGED"
)

// Event is the audit record of a single committed transition. Events are the
// sole audit trail: one per commit, never one for a rolled-back attempt.
type Event struct {
	ID        uuid.UUID `json:"id"`
	Type      EventType `json:"type"`
	StoreID   uuid.UUID `json:"store_id,omitempty"`
	ActorID   uuid.UUID `json:"actor_id,omitempty"`
	ProductID uint64    `json:"product_id,omitempty"`
	OrderID   uint64    `json:"order_id,omitempty"`
	Token     uuid.UUID `json:"token,omitempty"`
	Amount    int64     `json:"amount,omitempty"`
	Recipient uuid.UUID `json:"recipient,omitempty"`
	Detail    string    `json:"detail,omitempty"`
	At        time.Time `json:"at"`
}

// Sink receives committed events. Implementations must not fail the calling
// operation; the transition has already committed by the time Emit runs.
type Sink interface {
	Emit(e Event)
}

// MemorySink keeps events in arrival order and serves in-process queries.
type MemorySink struct {
	mu     sync.RWMutex
	events []Event
}

func NewMemorySink() *MemorySink { return &MemorySink{} }

func (s *MemorySink) Emit(e Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, e)
}

// ByStore returns all events recorded for a storefront, oldest first.
func (s *MemorySink) ByStore(storeID uuid.UUID) []Event {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []Event
	for _, e := range s.events {
		if e.StoreID == storeID {
			out = append(out, e)
		}
	}
	return out
}

// All returns every recorded event, oldest first.
func (s *MemorySink) All() []Event {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Event, len(s.events))
	copy(out, s.events)
	return out
}

// MultiSink fans an event out to several sinks.
type MultiSink []Sink

func (m MultiSink) Emit(e Event) {
	for _, s := range m {
		s.Emit(e)
	}
}

// Stamp fills in the event id and timestamp just before emission.
func Stamp(e Event) Event {
	e.ID = uuid.New()
	e.At = time.Now().UTC()
	return e
}
