/**
 * @description
 * This file contains the cart manager. Every mutation re-checks its business
 * preconditions in a fixed order and relies on the store to keep the cached
 * cart total equal to the sum of the line totals. Subscription access does not
 * block adding a game to the cart: a subscription may lapse before checkout,
 * so only permanent ownership is a blocker here.
 */
package app

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/google/uuid"

	"github.com/gamevault/storefront-service/internal/domain"
	"github.com/gamevault/storefront-service/internal/store"
)

var (
	// ErrCannotAddFreeGame rejects free-to-play titles from the cart.
	ErrCannotAddFreeGame = errors.New("cannot add free-to-play games to cart")
	// ErrAlreadyOwned rejects adding a game the user has already purchased.
	ErrAlreadyOwned = errors.New("already own this game")
	// ErrInvalidQuantity rejects a non-positive quantity on add.
	ErrInvalidQuantity = errors.New("quantity must be at least 1")
)

// CartService owns the per-user cart and its lines.
type CartService struct {
	repo store.Repository
}

// NewCartService creates a new cart manager.
func NewCartService(repo store.Repository) *CartService {
	return &CartService{repo: repo}
}

// GetCartView returns the user's cart for display. A user who has never added
// anything gets an empty view; GET must not lazily create a row.
func (s *CartService) GetCartView(ctx context.Context, userID uuid.UUID) (*domain.Cart, error) {
	cart, err := s.repo.GetCartByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, store.ErrCartNotFound) {
			return &domain.Cart{UserID: userID, Items: []domain.CartItem{}}, nil
		}
		return nil, err
	}
	return cart, nil
}

// GetOrCreateCart returns the user's cart, creating an empty one on first use.
func (s *CartService) GetOrCreateCart(ctx context.Context, userID uuid.UUID) (*domain.Cart, error) {
	return s.repo.GetOrCreateCart(ctx, userID)
}

// AddItem adds a game to the user's cart, creating the cart on first use.
// Preconditions, checked in order: the game must exist, must not be
// free-to-play, and must not already be owned. An existing line grows its
// quantity and keeps its original unit-price snapshot; a new line snapshots
// the user's effective price at add time.
func (s *CartService) AddItem(ctx context.Context, userID, gameID uuid.UUID, quantity int) (*domain.CartItem, error) {
	if quantity < 1 {
		return nil, ErrInvalidQuantity
	}

	game, err := s.repo.GetGame(ctx, gameID)
	if err != nil {
		return nil, err
	}
	if game.IsFree {
		return nil, ErrCannotAddFreeGame
	}

	_, err = s.repo.FindPurchase(ctx, userID, gameID)
	if err == nil {
		return nil, ErrAlreadyOwned
	}
	if !errors.Is(err, store.ErrPurchaseNotFound) {
		return nil, fmt.Errorf("failed to check ownership: %w", err)
	}

	user, err := s.repo.FindUserByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	unitPrice, err := effectivePrice(ctx, s.repo, user, game)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve price: %w", err)
	}

	cart, err := s.repo.GetOrCreateCart(ctx, userID)
	if err != nil {
		return nil, err
	}

	item, err := s.repo.AddOrIncrementCartItem(ctx, cart.ID, gameID, quantity, unitPrice)
	if err != nil {
		return nil, err
	}
	item.GameName = game.Name
	return item, nil
}

// RemoveItem deletes a single line from the user's cart.
func (s *CartService) RemoveItem(ctx context.Context, userID, itemID uuid.UUID) error {
	cart, err := s.repo.GetCartByUserID(ctx, userID)
	if err != nil {
		return err
	}
	return s.repo.DeleteCartItem(ctx, cart.ID, itemID)
}

// UpdateQuantity sets a line's quantity. A quantity of zero (or less) is the
// documented equivalent of removing the line.
func (s *CartService) UpdateQuantity(ctx context.Context, userID, itemID uuid.UUID, quantity int) (*domain.CartItem, error) {
	if quantity <= 0 {
		if err := s.RemoveItem(ctx, userID, itemID); err != nil {
			return nil, err
		}
		return nil, nil
	}

	cart, err := s.repo.GetCartByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.repo.UpdateCartItemQuantity(ctx, cart.ID, itemID, quantity)
}

// Clear removes every line from the user's cart and zeroes the total.
// Clearing an already-empty cart succeeds trivially.
func (s *CartService) Clear(ctx context.Context, userID uuid.UUID) error {
	cart, err := s.repo.GetCartByUserID(ctx, userID)
	if err != nil {
		return err
	}
	if err := s.repo.ClearCart(ctx, cart.ID); err != nil {
		log.Printf("level=error component=cart_service msg=\"failed to clear cart\" user_id=%s err=%v", userID, err)
		return err
	}
	return nil
}
