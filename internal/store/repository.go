/**
 * @description
 * This file defines the `Repository` interface for the storefront-service and the
 * sentinel errors the data layer can return. The application layer depends only on
 * this interface, which lets tests swap in stub implementations.
 *
 * Cart mutations are deliberately coarse: each one runs the line change and the
 * cart-total recomputation inside a single database transaction, so the cached
 * `total_amount` can never drift from the sum of the line totals.
 */

package store

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/gamevault/storefront-service/internal/domain"
)

var (
	ErrUserNotFound          = errors.New("user not found")
	ErrGameNotFound          = errors.New("game not found")
	ErrCountryPriceNotFound  = errors.New("country price not found")
	ErrCartNotFound          = errors.New("cart not found")
	ErrCartItemNotFound      = errors.New("cart item not found")
	ErrPurchaseNotFound      = errors.New("purchase not found")
	ErrAlreadyPurchased      = errors.New("game already purchased")
	ErrSubscriptionNotFound  = errors.New("no active subscription")
	ErrPricingOptionNotFound = errors.New("pricing option not found")
)

// Repository defines all database operations the storefront-service needs.
type Repository interface {
	// Users
	FindUserByID(ctx context.Context, userID uuid.UUID) (*domain.User, error)

	// Catalog (read-only; owned by the catalog admin tooling)
	GetGame(ctx context.Context, gameID uuid.UUID) (*domain.Game, error)
	GetGamesByIDs(ctx context.Context, gameIDs []uuid.UUID) ([]domain.Game, error)
	ListGames(ctx context.Context) ([]domain.Game, error)
	ListFreeGames(ctx context.Context) ([]domain.Game, error)
	GetCountryPrice(ctx context.Context, gameID, countryID uuid.UUID) (*domain.CountryPrice, error)

	// Cart
	GetCartByUserID(ctx context.Context, userID uuid.UUID) (*domain.Cart, error)
	GetOrCreateCart(ctx context.Context, userID uuid.UUID) (*domain.Cart, error)
	AddOrIncrementCartItem(ctx context.Context, cartID, gameID uuid.UUID, quantity int, unitPrice decimal.Decimal) (*domain.CartItem, error)
	UpdateCartItemQuantity(ctx context.Context, cartID, itemID uuid.UUID, quantity int) (*domain.CartItem, error)
	DeleteCartItem(ctx context.Context, cartID, itemID uuid.UUID) error
	ClearCart(ctx context.Context, cartID uuid.UUID) error

	// Purchase ledger
	FindPurchase(ctx context.Context, userID, gameID uuid.UUID) (*domain.Purchase, error)
	ListPurchases(ctx context.Context, userID uuid.UUID) ([]domain.Purchase, error)
	HasPurchases(ctx context.Context, userID uuid.UUID) (bool, error)
	CreatePurchase(ctx context.Context, purchase *domain.Purchase) (*domain.Purchase, error)

	// Subscriptions
	GetActiveSubscription(ctx context.Context, userID uuid.UUID) (*domain.UserSubscription, error)
	GetPlanGameIDs(ctx context.Context, planID uuid.UUID) ([]uuid.UUID, error)
	ListPlans(ctx context.Context) ([]domain.Plan, error)
	GetPricingOption(ctx context.Context, optionID uuid.UUID) (*domain.PlanPricingOption, error)
	CreateSubscription(ctx context.Context, sub *domain.UserSubscription) (*domain.UserSubscription, error)
}
