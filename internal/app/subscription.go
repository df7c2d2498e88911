/**
 * @description
 * This file contains the subscription manager. A user holds at most one active
 * subscription; the rule is enforced here by rejecting a subscribe request
 * while one is still running, rather than being an implicit assumption at the
 * call sites that read subscriptions.
 */
package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/gamevault/storefront-service/internal/domain"
	"github.com/gamevault/storefront-service/internal/store"
)

// ErrSubscriptionActive rejects a new subscription while one is running.
var ErrSubscriptionActive = errors.New("an active subscription already exists")

// SubscriptionService manages subscription plans and user subscriptions.
type SubscriptionService struct {
	repo store.Repository
}

// NewSubscriptionService creates a new subscription manager.
func NewSubscriptionService(repo store.Repository) *SubscriptionService {
	return &SubscriptionService{repo: repo}
}

// ListPlans returns every plan with its bundled game ids.
func (s *SubscriptionService) ListPlans(ctx context.Context) ([]domain.Plan, error) {
	return s.repo.ListPlans(ctx)
}

// GetActiveSubscription returns the user's single active subscription, or
// store.ErrSubscriptionNotFound when none is running.
func (s *SubscriptionService) GetActiveSubscription(ctx context.Context, userID uuid.UUID) (*domain.UserSubscription, error) {
	return s.repo.GetActiveSubscription(ctx, userID)
}

// Subscribe starts a new subscription period for a user on the given pricing
// option. The request is rejected while an active subscription exists; the
// system does not support concurrent overlapping subscriptions.
func (s *SubscriptionService) Subscribe(ctx context.Context, userID, pricingOptionID uuid.UUID) (*domain.UserSubscription, error) {
	if _, err := s.repo.FindUserByID(ctx, userID); err != nil {
		return nil, err
	}

	option, err := s.repo.GetPricingOption(ctx, pricingOptionID)
	if err != nil {
		return nil, err
	}

	_, err = s.repo.GetActiveSubscription(ctx, userID)
	if err == nil {
		return nil, ErrSubscriptionActive
	}
	if !errors.Is(err, store.ErrSubscriptionNotFound) {
		return nil, fmt.Errorf("failed to check active subscription: %w", err)
	}

	now := time.Now()
	sub := &domain.UserSubscription{
		UserID:          userID,
		PricingOptionID: option.ID,
		StartTime:       now,
		EndTime:         now.AddDate(0, 0, option.DurationDays),
	}
	return s.repo.CreateSubscription(ctx, sub)
}
