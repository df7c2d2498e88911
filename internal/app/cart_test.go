package app

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/gamevault/storefront-service/internal/store"
)

// assertCartInvariant checks that the cached cart total equals the sum of the
// line totals, which must hold after every mutation.
func assertCartInvariant(t *testing.T, repo *stubRepo, userID uuid.UUID) {
	t.Helper()
	cart, err := repo.GetCartByUserID(context.Background(), userID)
	if err != nil {
		if errors.Is(err, store.ErrCartNotFound) {
			return
		}
		t.Fatalf("failed to load cart: %v", err)
	}
	sum := decimal.Zero
	for _, item := range cart.Items {
		sum = sum.Add(item.UnitPrice.Mul(decimal.NewFromInt(int64(item.Quantity))))
		if !item.LineTotal.Equal(item.UnitPrice.Mul(decimal.NewFromInt(int64(item.Quantity)))) {
			t.Fatalf("line total %s does not equal quantity x unit price", item.LineTotal)
		}
	}
	if !cart.TotalAmount.Equal(sum) {
		t.Fatalf("cart total %s does not equal sum of line totals %s", cart.TotalAmount, sum)
	}
}

func TestAddItem_NewLineSnapshotsPrice(t *testing.T) {
	repo := newStubRepo()
	userID := repo.addUser(nil)
	gameID := repo.addGame("Hades II", "50.00", false)
	svc := NewCartService(repo)

	item, err := svc.AddItem(context.Background(), userID, gameID, 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !item.UnitPrice.Equal(decimal.RequireFromString("50.00")) {
		t.Fatalf("expected unit price 50.00, got %s", item.UnitPrice)
	}
	if item.GameName != "Hades II" {
		t.Fatalf("expected game name on the returned line, got %q", item.GameName)
	}

	cart, err := repo.GetCartByUserID(context.Background(), userID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !cart.TotalAmount.Equal(decimal.RequireFromString("50.00")) {
		t.Fatalf("expected cart total 50.00, got %s", cart.TotalAmount)
	}
	assertCartInvariant(t, repo, userID)
}

func TestAddItem_SameGameIncrementsAndKeepsSnapshot(t *testing.T) {
	repo := newStubRepo()
	userID := repo.addUser(nil)
	gameID := repo.addGame("Hades II", "50.00", false)
	svc := NewCartService(repo)

	if _, err := svc.AddItem(context.Background(), userID, gameID, 1); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// A catalog price change between adds must not touch the existing line.
	repo.games[gameID].BasePrice = decimal.NewNullDecimal(decimal.RequireFromString("70.00"))

	item, err := svc.AddItem(context.Background(), userID, gameID, 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if item.Quantity != 2 {
		t.Fatalf("expected quantity 2, got %d", item.Quantity)
	}
	if !item.UnitPrice.Equal(decimal.RequireFromString("50.00")) {
		t.Fatalf("expected snapshot unit price 50.00, got %s", item.UnitPrice)
	}

	cart, _ := repo.GetCartByUserID(context.Background(), userID)
	if len(cart.Items) != 1 {
		t.Fatalf("expected a single line, got %d", len(cart.Items))
	}
	if !cart.TotalAmount.Equal(decimal.RequireFromString("100.00")) {
		t.Fatalf("expected cart total 100.00, got %s", cart.TotalAmount)
	}
	assertCartInvariant(t, repo, userID)
}

func TestAddItem_RejectsFreeGame(t *testing.T) {
	repo := newStubRepo()
	userID := repo.addUser(nil)
	gameID := repo.addGame("Warframe", "", true)
	svc := NewCartService(repo)

	_, err := svc.AddItem(context.Background(), userID, gameID, 3)
	if !errors.Is(err, ErrCannotAddFreeGame) {
		t.Fatalf("expected ErrCannotAddFreeGame, got %v", err)
	}
	if _, err := repo.GetCartByUserID(context.Background(), userID); !errors.Is(err, store.ErrCartNotFound) {
		t.Fatal("expected no cart to be created for a rejected add")
	}
}

func TestAddItem_RejectsOwnedGame(t *testing.T) {
	repo := newStubRepo()
	userID := repo.addUser(nil)
	gameID := repo.addGame("Elden Ring", "60.00", false)
	repo.addPurchase(userID, gameID, "60.00", time.Now())
	svc := NewCartService(repo)

	_, err := svc.AddItem(context.Background(), userID, gameID, 1)
	if !errors.Is(err, ErrAlreadyOwned) {
		t.Fatalf("expected ErrAlreadyOwned, got %v", err)
	}
}

func TestAddItem_SubscriptionDoesNotBlockAdding(t *testing.T) {
	repo := newStubRepo()
	userID := repo.addUser(nil)
	gameID := repo.addGame("Sable", "25.00", false)
	planID, optionID := repo.addPlan("Premium", gameID)
	repo.addSubscription(userID, planID, optionID, time.Now().Add(24*time.Hour))
	svc := NewCartService(repo)

	// The subscription may lapse before checkout, so the add must succeed.
	if _, err := svc.AddItem(context.Background(), userID, gameID, 1); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	assertCartInvariant(t, repo, userID)
}

func TestAddItem_GameNotFound(t *testing.T) {
	repo := newStubRepo()
	userID := repo.addUser(nil)
	svc := NewCartService(repo)

	_, err := svc.AddItem(context.Background(), userID, uuid.New(), 1)
	if !errors.Is(err, store.ErrGameNotFound) {
		t.Fatalf("expected ErrGameNotFound, got %v", err)
	}
}

func TestAddItem_InvalidQuantity(t *testing.T) {
	repo := newStubRepo()
	userID := repo.addUser(nil)
	gameID := repo.addGame("Hades II", "50.00", false)
	svc := NewCartService(repo)

	if _, err := svc.AddItem(context.Background(), userID, gameID, 0); !errors.Is(err, ErrInvalidQuantity) {
		t.Fatalf("expected ErrInvalidQuantity, got %v", err)
	}
}

func TestAddItem_UsesCountryOverridePrice(t *testing.T) {
	repo := newStubRepo()
	countryID := uuid.New()
	userID := repo.addUser(&countryID)
	gameID := repo.addGame("Hades II", "50.00", false)
	repo.countryPrices[priceKey(gameID, countryID)] = decimal.RequireFromString("35.00")
	svc := NewCartService(repo)

	item, err := svc.AddItem(context.Background(), userID, gameID, 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !item.UnitPrice.Equal(decimal.RequireFromString("35.00")) {
		t.Fatalf("expected regional price 35.00, got %s", item.UnitPrice)
	}
}

func TestRemoveItem_RecomputesTotal(t *testing.T) {
	repo := newStubRepo()
	userID := repo.addUser(nil)
	firstID := repo.addGame("Hades II", "50.00", false)
	secondID := repo.addGame("Celeste", "30.00", false)
	svc := NewCartService(repo)

	first, err := svc.AddItem(context.Background(), userID, firstID, 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := svc.AddItem(context.Background(), userID, secondID, 1); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	cart, _ := repo.GetCartByUserID(context.Background(), userID)
	if !cart.TotalAmount.Equal(decimal.RequireFromString("80.00")) {
		t.Fatalf("expected cart total 80.00, got %s", cart.TotalAmount)
	}

	if err := svc.RemoveItem(context.Background(), userID, first.ID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	cart, _ = repo.GetCartByUserID(context.Background(), userID)
	if !cart.TotalAmount.Equal(decimal.RequireFromString("30.00")) {
		t.Fatalf("expected cart total 30.00 after removal, got %s", cart.TotalAmount)
	}
	assertCartInvariant(t, repo, userID)
}

func TestRemoveItem_NotFound(t *testing.T) {
	repo := newStubRepo()
	userID := repo.addUser(nil)
	svc := NewCartService(repo)

	if err := svc.RemoveItem(context.Background(), userID, uuid.New()); !errors.Is(err, store.ErrCartNotFound) {
		t.Fatalf("expected ErrCartNotFound, got %v", err)
	}

	gameID := repo.addGame("Hades II", "50.00", false)
	if _, err := svc.AddItem(context.Background(), userID, gameID, 1); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := svc.RemoveItem(context.Background(), userID, uuid.New()); !errors.Is(err, store.ErrCartItemNotFound) {
		t.Fatalf("expected ErrCartItemNotFound, got %v", err)
	}
}

func TestUpdateQuantity_RecomputesTotals(t *testing.T) {
	repo := newStubRepo()
	userID := repo.addUser(nil)
	gameID := repo.addGame("Hades II", "50.00", false)
	svc := NewCartService(repo)

	item, err := svc.AddItem(context.Background(), userID, gameID, 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	updated, err := svc.UpdateQuantity(context.Background(), userID, item.ID, 3)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !updated.LineTotal.Equal(decimal.RequireFromString("150.00")) {
		t.Fatalf("expected line total 150.00, got %s", updated.LineTotal)
	}

	cart, _ := repo.GetCartByUserID(context.Background(), userID)
	if !cart.TotalAmount.Equal(decimal.RequireFromString("150.00")) {
		t.Fatalf("expected cart total 150.00, got %s", cart.TotalAmount)
	}
	assertCartInvariant(t, repo, userID)
}

func TestUpdateQuantity_ZeroRemovesLine(t *testing.T) {
	repo := newStubRepo()
	userID := repo.addUser(nil)
	gameID := repo.addGame("Hades II", "50.00", false)
	svc := NewCartService(repo)

	item, err := svc.AddItem(context.Background(), userID, gameID, 2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	removed, err := svc.UpdateQuantity(context.Background(), userID, item.ID, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if removed != nil {
		t.Fatal("expected no line back when the update removes it")
	}

	cart, _ := repo.GetCartByUserID(context.Background(), userID)
	if len(cart.Items) != 0 {
		t.Fatalf("expected an empty cart, got %d lines", len(cart.Items))
	}
	if !cart.TotalAmount.IsZero() {
		t.Fatalf("expected zero total, got %s", cart.TotalAmount)
	}
	assertCartInvariant(t, repo, userID)
}

func TestClear_IsIdempotent(t *testing.T) {
	repo := newStubRepo()
	userID := repo.addUser(nil)
	gameID := repo.addGame("Hades II", "50.00", false)
	svc := NewCartService(repo)

	if _, err := svc.AddItem(context.Background(), userID, gameID, 2); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	for i := 0; i < 2; i++ {
		if err := svc.Clear(context.Background(), userID); err != nil {
			t.Fatalf("clear %d returned error: %v", i+1, err)
		}
		cart, _ := repo.GetCartByUserID(context.Background(), userID)
		if len(cart.Items) != 0 || !cart.TotalAmount.IsZero() {
			t.Fatalf("expected empty cart with zero total after clear %d", i+1)
		}
	}
}

func TestGetCartView_EmptyForNewUser(t *testing.T) {
	repo := newStubRepo()
	userID := repo.addUser(nil)
	svc := NewCartService(repo)

	cart, err := svc.GetCartView(context.Background(), userID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(cart.Items) != 0 || !cart.TotalAmount.IsZero() {
		t.Fatal("expected an empty view for a user without a cart")
	}
	// The view must not have lazily created a cart row.
	if _, err := repo.GetCartByUserID(context.Background(), userID); !errors.Is(err, store.ErrCartNotFound) {
		t.Fatal("expected GET to leave no cart behind")
	}
}
