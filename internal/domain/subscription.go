/**
 * @description
 * This file defines the subscription domain models. Plans are named tiers
 * (Essential/Extra/Premium) bundling a set of games; a user subscribes to a
 * pricing option of a plan for a fixed period. At most one subscription per
 * user may be active at a time; the service rejects a new subscribe request
 * while one is still running.
 */
package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Plan is a subscription tier together with the games it bundles.
type Plan struct {
	ID          uuid.UUID   `json:"id"`
	Name        string      `json:"name"`
	Description string      `json:"description,omitempty"`
	GameIDs     []uuid.UUID `json:"game_ids,omitempty"`
}

// PlanPricingOption is one way to buy a plan: a price for a fixed duration.
type PlanPricingOption struct {
	ID           uuid.UUID       `json:"id"`
	PlanID       uuid.UUID       `json:"plan_id"`
	Price        decimal.Decimal `json:"price"`
	DurationDays int             `json:"duration_days"`
}

// UserSubscription is one user's subscription period. It is active while
// EndTime has not passed; expired rows are kept as history.
type UserSubscription struct {
	ID              uuid.UUID `json:"id"`
	UserID          uuid.UUID `json:"user_id"`
	PricingOptionID uuid.UUID `json:"pricing_option_id"`
	PlanID          uuid.UUID `json:"plan_id"`
	PlanName        string    `json:"plan_name"`
	StartTime       time.Time `json:"start_time"`
	EndTime         time.Time `json:"end_time"`
}

// IsActive reports whether the subscription still grants access at t.
func (s *UserSubscription) IsActive(t time.Time) bool {
	return !s.EndTime.Before(t)
}
