/**
 * @description
 * This file contains the read-only catalog accessor. The catalog itself is
 * owned by external admin tooling; the storefront only looks games up and
 * resolves the effective price a given user pays. Both the cart and the
 * purchase recorder snapshot prices through effectivePrice, so regional
 * overrides apply consistently on every path.
 */
package app

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/gamevault/storefront-service/internal/domain"
	"github.com/gamevault/storefront-service/internal/store"
)

// CatalogService provides read-only access to games for the HTTP layer.
type CatalogService struct {
	repo store.Repository
}

// NewCatalogService creates a new catalog accessor.
func NewCatalogService(repo store.Repository) *CatalogService {
	return &CatalogService{repo: repo}
}

// GetGame retrieves a single game. Soft-deleted games come back as not found.
func (s *CatalogService) GetGame(ctx context.Context, gameID uuid.UUID) (*domain.Game, error) {
	return s.repo.GetGame(ctx, gameID)
}

// ListGames returns the browsable catalog, soft-deleted titles excluded.
func (s *CatalogService) ListGames(ctx context.Context) ([]domain.Game, error) {
	return s.repo.ListGames(ctx)
}

// effectivePrice resolves the price a user pays for a game: zero for
// free-to-play, the country override when the user's country is known and one
// exists, the base price otherwise, and zero when no price is set at all.
func effectivePrice(ctx context.Context, repo store.Repository, user *domain.User, game *domain.Game) (decimal.Decimal, error) {
	if game.IsFree {
		return decimal.Zero, nil
	}
	if user != nil && user.CountryID != nil {
		cp, err := repo.GetCountryPrice(ctx, game.ID, *user.CountryID)
		if err == nil {
			return cp.Price, nil
		}
		if !errors.Is(err, store.ErrCountryPriceNotFound) {
			return decimal.Zero, err
		}
	}
	if game.BasePrice.Valid {
		return game.BasePrice.Decimal, nil
	}
	return decimal.Zero, nil
}
