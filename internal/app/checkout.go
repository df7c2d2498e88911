/**
 * @description
 * This file contains the checkout orchestrator. Checkout drains the cart one
 * line at a time with partial-success semantics: each line is an independent
 * purchase attempt, one failure never aborts the rest, and the cart is cleared
 * unconditionally afterwards. Failed lines are removed too, because retrying
 * them through another checkout would fail identically.
 */
package app

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/gamevault/storefront-service/internal/domain"
	"github.com/gamevault/storefront-service/internal/store"
	"github.com/gamevault/storefront-service/pkg/rabbitmq"
)

// CheckoutService converts cart lines into purchases.
type CheckoutService struct {
	repo      store.Repository
	purchases *PurchaseService
	producer  rabbitmq.Publisher
}

// NewCheckoutService creates a new checkout orchestrator.
func NewCheckoutService(repo store.Repository, purchases *PurchaseService, producer rabbitmq.Publisher) *CheckoutService {
	return &CheckoutService{repo: repo, purchases: purchases, producer: producer}
}

// Checkout attempts to purchase every line in the user's cart. The returned
// total is the cart total as it stood before clearing; Success is true when
// at least one line was purchased.
func (s *CheckoutService) Checkout(ctx context.Context, userID uuid.UUID) (*domain.CheckoutResult, error) {
	cart, err := s.repo.GetCartByUserID(ctx, userID)
	if err != nil {
		if err == store.ErrCartNotFound {
			return &domain.CheckoutResult{Success: false, Message: "cart is empty"}, nil
		}
		return nil, fmt.Errorf("failed to load cart: %w", err)
	}
	if len(cart.Items) == 0 {
		return &domain.CheckoutResult{Success: false, Message: "cart is empty"}, nil
	}

	// Snapshot the lines and the pre-clear total before mutating anything.
	lines := cart.Items
	totalBefore := cart.TotalAmount

	purchased := []string{}
	failed := []string{}
	for _, line := range lines {
		result, err := s.purchases.Purchase(ctx, userID, line.GameID)
		if err != nil {
			log.Printf("level=error component=checkout_service msg=\"purchase attempt failed\" user_id=%s game_id=%s err=%v", userID, line.GameID, err)
			failed = append(failed, fmt.Sprintf("%s: %s", line.GameName, "internal error"))
			continue
		}
		if result.Success {
			purchased = append(purchased, line.GameName)
		} else {
			failed = append(failed, fmt.Sprintf("%s: %s", line.GameName, result.Message))
		}
	}

	// Clear the cart no matter how the individual lines fared.
	if err := s.repo.ClearCart(ctx, cart.ID); err != nil {
		log.Printf("level=error component=checkout_service msg=\"failed to clear cart after checkout\" user_id=%s err=%v", userID, err)
	}

	result := &domain.CheckoutResult{
		Success:        len(purchased) > 0,
		TotalAmount:    totalBefore,
		PurchasedGames: purchased,
		FailedGames:    failed,
	}
	if result.Success {
		result.Message = "Checkout complete."
	} else {
		result.Message = "No items could be purchased."
	}

	if result.Success && s.producer != nil {
		event := rabbitmq.CheckoutEvent{
			UserID:         userID,
			TotalAmount:    totalBefore,
			PurchasedGames: purchased,
			FailedGames:    failed,
			Timestamp:      time.Now(),
		}
		if err := s.producer.PublishCheckoutEvent(ctx, event); err != nil {
			log.Printf("level=warn component=checkout_service msg=\"failed to publish checkout event\" user_id=%s err=%v", userID, err)
		}
	}

	return result, nil
}
