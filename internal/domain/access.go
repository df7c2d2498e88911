/**
 * @description
 * This file defines the entitlement models: how the service answers "may this
 * user play this game, and why". Classification is an ordered chain, not a set
 * of independent flags: purchased access always wins over subscription
 * access, and free-to-play short-circuits both.
 */
package domain

import (
	"time"

	"github.com/google/uuid"
)

// AccessType tags the way a user is entitled to a game.
type AccessType string

const (
	AccessNone         AccessType = "none"
	AccessFree         AccessType = "free"
	AccessPurchased    AccessType = "purchased"
	AccessSubscription AccessType = "subscription"
)

// AccessResult is the outcome of resolving a single (user, game) pair.
// PurchasedAt is set only for purchased access; PlanName and ExpiresAt only
// for subscription access.
type AccessResult struct {
	GameID      uuid.UUID  `json:"game_id"`
	Access      AccessType `json:"access"`
	Reason      string     `json:"reason,omitempty"`
	PurchasedAt *time.Time `json:"purchased_at,omitempty"`
	PlanName    string     `json:"plan_name,omitempty"`
	ExpiresAt   *time.Time `json:"expires_at,omitempty"`
}

// LibraryEntry is one game in a user's library together with how they can
// access it.
type LibraryEntry struct {
	Game   Game       `json:"game"`
	Access AccessType `json:"access"`
}

// LibrarySummary is the batch view of everything a user can play right now.
type LibrarySummary struct {
	UserID  uuid.UUID      `json:"user_id"`
	Entries []LibraryEntry `json:"entries"`
}
