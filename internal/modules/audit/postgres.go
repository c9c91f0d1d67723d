package audit

import (
	"database/sql"
	"log"

	"github.com/google/uuid"
)

type postgresSink struct{ db *sql.DB }

// NewPostgresSink creates a sink that persists events to the audit_events
// table. Insert failures are logged, not propagated: the transition the event
// describes has already committed.
func NewPostgresSink(db *sql.DB) Sink { return &postgresSink{db: db} }

func (s *postgresSink) Emit(e Event) {
	query := `
		INSERT INTO audit_events
			(id, type, store_id, actor_id, product_id, order_id, token, amount, recipient, detail, at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`
	_, err := s.db.Exec(query,
		e.ID,
		string(e.Type),
		nullUUID(e.StoreID),
		nullUUID(e.ActorID),
		e.ProductID,
		e.OrderID,
		nullUUID(e.Token),
		e.Amount,
		nullUUID(e.Recipient),
		e.Detail,
		e.At,
	)
	if err != nil {
		log.Printf("audit: failed to persist event %s (%s): %v", e.ID, e.Type, err)
	}
}

func nullUUID(id uuid.UUID) interface{} {
	if id == uuid.Nil {
		return nil
	}
	return id
}
