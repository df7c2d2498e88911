/**
 * @description
 * This file contains the entitlement resolver: the logic that decides whether
 * a user may access a game and why. Classification is a strict priority chain
 * (missing game, then free-to-play, then owned, then subscription, then no
 * access). The single-game and batch library paths share one classify
 * function so they can never disagree about a game.
 */
package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/gamevault/storefront-service/internal/domain"
	"github.com/gamevault/storefront-service/internal/store"
)

// EntitlementService resolves user access to games.
type EntitlementService struct {
	repo store.Repository
}

// NewEntitlementService creates a new entitlement resolver.
func NewEntitlementService(repo store.Repository) *EntitlementService {
	return &EntitlementService{repo: repo}
}

// subscriptionView bundles an active subscription with the set of games its
// plan covers, loaded at most once per request.
type subscriptionView struct {
	sub     *domain.UserSubscription
	bundled map[uuid.UUID]struct{}
}

// classifyAccess applies the access priority chain to one game. A permanent
// purchase must never be masked by a lapsing subscription, and free-to-play
// short-circuits both paid checks.
func classifyAccess(gameID uuid.UUID, game *domain.Game, purchase *domain.Purchase, subView *subscriptionView) domain.AccessResult {
	if game == nil {
		return domain.AccessResult{GameID: gameID, Access: domain.AccessNone, Reason: "game not found"}
	}
	if game.IsFree {
		return domain.AccessResult{GameID: game.ID, Access: domain.AccessFree}
	}
	if purchase != nil {
		purchasedAt := purchase.PurchasedAt
		return domain.AccessResult{GameID: game.ID, Access: domain.AccessPurchased, PurchasedAt: &purchasedAt}
	}
	if subView != nil && subView.sub != nil {
		if _, ok := subView.bundled[game.ID]; ok {
			expiresAt := subView.sub.EndTime
			return domain.AccessResult{
				GameID:    game.ID,
				Access:    domain.AccessSubscription,
				PlanName:  subView.sub.PlanName,
				ExpiresAt: &expiresAt,
			}
		}
	}
	return domain.AccessResult{GameID: game.ID, Access: domain.AccessNone}
}

// loadSubscriptionView fetches the user's active subscription and its plan's
// game bundle. A user without an active subscription yields an empty view.
func (s *EntitlementService) loadSubscriptionView(ctx context.Context, userID uuid.UUID) (*subscriptionView, error) {
	sub, err := s.repo.GetActiveSubscription(ctx, userID)
	if err != nil {
		if errors.Is(err, store.ErrSubscriptionNotFound) {
			return &subscriptionView{}, nil
		}
		return nil, fmt.Errorf("failed to load active subscription: %w", err)
	}

	gameIDs, err := s.repo.GetPlanGameIDs(ctx, sub.PlanID)
	if err != nil {
		return nil, fmt.Errorf("failed to load plan games: %w", err)
	}
	bundled := make(map[uuid.UUID]struct{}, len(gameIDs))
	for _, id := range gameIDs {
		bundled[id] = struct{}{}
	}
	return &subscriptionView{sub: sub, bundled: bundled}, nil
}

// ResolveAccess decides how (if at all) a user may access a single game. It
// always produces a result; an unknown game is AccessNone, not an error.
func (s *EntitlementService) ResolveAccess(ctx context.Context, userID, gameID uuid.UUID) (*domain.AccessResult, error) {
	game, err := s.repo.GetGame(ctx, gameID)
	if err != nil {
		if errors.Is(err, store.ErrGameNotFound) {
			result := classifyAccess(gameID, nil, nil, nil)
			return &result, nil
		}
		return nil, err
	}

	// Free-to-play needs no ledger or subscription lookups.
	if game.IsFree {
		result := classifyAccess(gameID, game, nil, nil)
		return &result, nil
	}

	purchase, err := s.repo.FindPurchase(ctx, userID, gameID)
	if err != nil && !errors.Is(err, store.ErrPurchaseNotFound) {
		return nil, err
	}
	if purchase != nil {
		result := classifyAccess(gameID, game, purchase, nil)
		return &result, nil
	}

	subView, err := s.loadSubscriptionView(ctx, userID)
	if err != nil {
		return nil, err
	}
	result := classifyAccess(gameID, game, nil, subView)
	return &result, nil
}

// ResolveLibrary computes everything a user can play right now: the union of
// free games, purchased games, and the active subscription's bundle, each
// classified with the same priority chain ResolveAccess uses.
func (s *EntitlementService) ResolveLibrary(ctx context.Context, userID uuid.UUID) (*domain.LibrarySummary, error) {
	freeGames, err := s.repo.ListFreeGames(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list free games: %w", err)
	}

	purchases, err := s.repo.ListPurchases(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list purchases: %w", err)
	}
	purchasedBy := make(map[uuid.UUID]*domain.Purchase, len(purchases))
	for i := range purchases {
		purchasedBy[purchases[i].GameID] = &purchases[i]
	}

	subView, err := s.loadSubscriptionView(ctx, userID)
	if err != nil {
		return nil, err
	}

	// Union of all candidate game ids, deduplicated.
	candidates := make(map[uuid.UUID]struct{})
	for _, g := range freeGames {
		candidates[g.ID] = struct{}{}
	}
	for id := range purchasedBy {
		candidates[id] = struct{}{}
	}
	for id := range subView.bundled {
		candidates[id] = struct{}{}
	}

	ids := make([]uuid.UUID, 0, len(candidates))
	for id := range candidates {
		ids = append(ids, id)
	}

	games, err := s.repo.GetGamesByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to batch-load games: %w", err)
	}

	summary := &domain.LibrarySummary{UserID: userID, Entries: []domain.LibraryEntry{}}
	for i := range games {
		game := &games[i]
		result := classifyAccess(game.ID, game, purchasedBy[game.ID], subView)
		if result.Access == domain.AccessNone {
			// A purchased game that was since soft-deleted, or a stale bundle
			// row, should not appear as playable.
			continue
		}
		summary.Entries = append(summary.Entries, domain.LibraryEntry{Game: *game, Access: result.Access})
	}
	return summary, nil
}

// HasAnyEntitlement reports whether the user owns at least one game or holds
// an active subscription. Free-to-play access deliberately does not count.
func (s *EntitlementService) HasAnyEntitlement(ctx context.Context, userID uuid.UUID) (bool, error) {
	owned, err := s.repo.HasPurchases(ctx, userID)
	if err != nil {
		return false, err
	}
	if owned {
		return true, nil
	}

	_, err = s.repo.GetActiveSubscription(ctx, userID)
	if err != nil {
		if errors.Is(err, store.ErrSubscriptionNotFound) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}
