package account

import (
	"time"

	"github.com/google/uuid"
)

// Account represents a marketplace principal: a buyer, a seller, a revenue
// split recipient, or the platform administrator. The id doubles as the
// account identifier on the value-transfer ledger.
type Account struct {
	ID           uuid.UUID `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	DisplayName  string    `json:"display_name,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}
