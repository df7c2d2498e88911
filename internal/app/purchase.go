/**
 * @description
 * This file contains the purchase recorder: the single mutation point for the
 * ownership invariant that a (user, game) pair is purchased at most once. The
 * validation chain runs in a fixed order; later checks assume earlier ones
 * passed. Business denials come back as a PurchaseResult with Success=false
 * and a user-facing message, never as errors.
 */
package app

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/gamevault/storefront-service/internal/domain"
	"github.com/gamevault/storefront-service/internal/store"
	"github.com/gamevault/storefront-service/pkg/rabbitmq"
)

// User-facing denial messages for the purchase validation chain.
const (
	msgUserNotFound      = "User not found."
	msgGameNotFound      = "Game not found."
	msgGameIsFree        = "This game is free to play. No purchase required."
	msgAlreadyOwned      = "You already own this game."
	msgCoveredBySub      = "This game is already accessible through your subscription. No purchase needed."
	msgPurchaseSucceeded = "Purchase successful."
)

// PurchaseService records one-time game purchases.
type PurchaseService struct {
	repo        store.Repository
	entitlement *EntitlementService
	producer    rabbitmq.Publisher
}

// NewPurchaseService creates a new purchase recorder.
func NewPurchaseService(repo store.Repository, entitlement *EntitlementService, producer rabbitmq.Publisher) *PurchaseService {
	return &PurchaseService{repo: repo, entitlement: entitlement, producer: producer}
}

// Purchase validates and records the purchase of one game by one user. Both
// the direct purchase endpoint and checkout funnel through here, which is what
// makes the at-most-once ownership invariant enforceable in one place.
func (s *PurchaseService) Purchase(ctx context.Context, userID, gameID uuid.UUID) (*domain.PurchaseResult, error) {
	user, err := s.repo.FindUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, store.ErrUserNotFound) {
			return &domain.PurchaseResult{Success: false, Message: msgUserNotFound}, nil
		}
		return nil, fmt.Errorf("failed to look up user: %w", err)
	}

	game, err := s.repo.GetGame(ctx, gameID)
	if err != nil {
		if errors.Is(err, store.ErrGameNotFound) {
			return &domain.PurchaseResult{Success: false, Message: msgGameNotFound}, nil
		}
		return nil, fmt.Errorf("failed to look up game: %w", err)
	}

	if game.IsFree {
		return &domain.PurchaseResult{Success: false, Message: msgGameIsFree}, nil
	}

	_, err = s.repo.FindPurchase(ctx, userID, gameID)
	if err == nil {
		return &domain.PurchaseResult{Success: false, Message: msgAlreadyOwned}, nil
	}
	if !errors.Is(err, store.ErrPurchaseNotFound) {
		return nil, fmt.Errorf("failed to check ownership: %w", err)
	}

	// Subscription coverage is an explicit purchase-blocker, distinct from
	// ownership: there is nothing to buy while the bundle covers the game.
	access, err := s.entitlement.ResolveAccess(ctx, userID, gameID)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve access: %w", err)
	}
	if access.Access == domain.AccessSubscription {
		return &domain.PurchaseResult{Success: false, Message: msgCoveredBySub}, nil
	}

	// Snapshot the live effective price, never a stale cart unit price.
	price, err := effectivePrice(ctx, s.repo, user, game)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve price: %w", err)
	}

	purchase := &domain.Purchase{
		UserID:      userID,
		GameID:      gameID,
		PricePaid:   price,
		PurchasedAt: time.Now(),
	}
	created, err := s.repo.CreatePurchase(ctx, purchase)
	if err != nil {
		// A concurrent purchase that won the race hits the unique constraint;
		// report it the same way as a pre-existing purchase.
		if errors.Is(err, store.ErrAlreadyPurchased) {
			return &domain.PurchaseResult{Success: false, Message: msgAlreadyOwned}, nil
		}
		return nil, fmt.Errorf("failed to record purchase: %w", err)
	}

	if s.producer != nil {
		event := rabbitmq.PurchaseEvent{
			UserID:      created.UserID,
			GameID:      created.GameID,
			GameName:    game.Name,
			PricePaid:   created.PricePaid,
			PurchasedAt: created.PurchasedAt,
		}
		if err := s.producer.PublishPurchaseEvent(ctx, event); err != nil {
			log.Printf("level=warn component=purchase_service msg=\"failed to publish purchase event\" user_id=%s game_id=%s err=%v", userID, gameID, err)
		}
	}

	return &domain.PurchaseResult{Success: true, Message: msgPurchaseSucceeded, Purchase: created}, nil
}
