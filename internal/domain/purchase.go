/**
 * @description
 * This file defines the purchase ledger models. A Purchase row is immutable:
 * it is written exactly once per (user, game) pair and never updated or
 * deleted afterwards. The database enforces the at-most-once rule with a
 * unique constraint, which is what keeps concurrent purchase attempts from
 * double-charging.
 */
package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Purchase is one immutable ledger entry recording that a user bought a game.
// PricePaid is the effective price at purchase time, never re-read later.
type Purchase struct {
	ID          uuid.UUID       `json:"id"`
	UserID      uuid.UUID       `json:"user_id"`
	GameID      uuid.UUID       `json:"game_id"`
	PricePaid   decimal.Decimal `json:"price_paid"`
	PurchasedAt time.Time       `json:"purchased_at"`
}

// PurchaseResult is the structured outcome of a single purchase attempt.
// Business denials ("already own", "free to play", ...) come back here with
// Success=false and a user-facing message rather than as errors.
type PurchaseResult struct {
	Success  bool      `json:"success"`
	Message  string    `json:"message"`
	Purchase *Purchase `json:"purchase,omitempty"`
}
