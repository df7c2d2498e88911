/**
 * @description
 * This file defines the shopping cart domain models. A cart is created lazily
 * on the first add-to-cart and is never deleted, only emptied. Its TotalAmount
 * is a cached value that must always equal the sum of its items' line totals;
 * the store recomputes it from the item rows on every mutation.
 */
package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Cart is a user's shopping cart together with its current items.
type Cart struct {
	ID          uuid.UUID       `json:"id"`
	UserID      uuid.UUID       `json:"user_id"`
	TotalAmount decimal.Decimal `json:"total_amount"`
	Items       []CartItem      `json:"items"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// CartItem is one (cart, game) line. UnitPrice is a snapshot taken when the
// game was first added; incrementing the quantity never re-fetches the price.
type CartItem struct {
	ID        uuid.UUID       `json:"id"`
	CartID    uuid.UUID       `json:"cart_id"`
	GameID    uuid.UUID       `json:"game_id"`
	GameName  string          `json:"game_name"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	LineTotal decimal.Decimal `json:"line_total"`
}

// CheckoutResult aggregates the per-line outcomes of a checkout attempt.
// Success is true when at least one line was purchased; TotalAmount is the
// cart total as it stood before the cart was cleared.
type CheckoutResult struct {
	Success        bool            `json:"success"`
	Message        string          `json:"message"`
	TotalAmount    decimal.Decimal `json:"total_amount"`
	PurchasedGames []string        `json:"purchased_games"`
	FailedGames    []string        `json:"failed_games"`
}
