/**
 * @description
 * This file defines the catalog-side domain models for the storefront-service.
 * Games and their per-country price overrides are owned by the external catalog
 * admin tooling; this service only ever reads them.
 */
package domain

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Game represents a purchasable (or free-to-play) title in the catalog.
type Game struct {
	ID        uuid.UUID           `json:"id"`
	Name      string              `json:"name"`
	BasePrice decimal.NullDecimal `json:"base_price"` // null only for free-to-play titles
	IsFree    bool                `json:"is_free"`
	IsDeleted bool                `json:"-"` // soft-delete flag, never exposed
}

// CountryPrice is a per-country override of a game's base price. At most one
// row exists per (game, country) pair.
type CountryPrice struct {
	GameID    uuid.UUID       `json:"game_id"`
	CountryID uuid.UUID       `json:"country_id"`
	Price     decimal.Decimal `json:"price"`
}
