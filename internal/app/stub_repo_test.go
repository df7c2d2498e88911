package app

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/gamevault/storefront-service/internal/domain"
	"github.com/gamevault/storefront-service/internal/store"
	"github.com/gamevault/storefront-service/pkg/rabbitmq"
)

// stubRepo is an in-memory store.Repository used across the app tests. It
// mirrors the real repository's semantics: the cart total is recomputed from
// the line rows on every mutation, an increment keeps the original unit-price
// snapshot, and a duplicate purchase fails like the unique constraint would.
type stubRepo struct {
	users          map[uuid.UUID]*domain.User
	games          map[uuid.UUID]*domain.Game
	countryPrices  map[string]decimal.Decimal
	carts          map[uuid.UUID]*domain.Cart
	items          map[uuid.UUID]*domain.CartItem
	purchases      map[string]*domain.Purchase
	subs           []*domain.UserSubscription
	plans          map[uuid.UUID]*domain.Plan
	planGames      map[uuid.UUID][]uuid.UUID
	pricingOptions map[uuid.UUID]*domain.PlanPricingOption

	// createPurchaseErr, when set, is returned by the next CreatePurchase call
	// after all validations passed; it simulates losing the unique-constraint
	// race to a concurrent request.
	createPurchaseErr error
}

func newStubRepo() *stubRepo {
	return &stubRepo{
		users:          map[uuid.UUID]*domain.User{},
		games:          map[uuid.UUID]*domain.Game{},
		countryPrices:  map[string]decimal.Decimal{},
		carts:          map[uuid.UUID]*domain.Cart{},
		items:          map[uuid.UUID]*domain.CartItem{},
		purchases:      map[string]*domain.Purchase{},
		plans:          map[uuid.UUID]*domain.Plan{},
		planGames:      map[uuid.UUID][]uuid.UUID{},
		pricingOptions: map[uuid.UUID]*domain.PlanPricingOption{},
	}
}

func purchaseKey(userID, gameID uuid.UUID) string {
	return userID.String() + "|" + gameID.String()
}

func priceKey(gameID, countryID uuid.UUID) string {
	return gameID.String() + "|" + countryID.String()
}

// Seed helpers

func (r *stubRepo) addUser(countryID *uuid.UUID) uuid.UUID {
	id := uuid.New()
	r.users[id] = &domain.User{ID: id, Username: "user-" + id.String()[:8], CountryID: countryID}
	return id
}

func (r *stubRepo) addGame(name string, price string, free bool) uuid.UUID {
	id := uuid.New()
	game := &domain.Game{ID: id, Name: name, IsFree: free}
	if !free && price != "" {
		game.BasePrice = decimal.NewNullDecimal(decimal.RequireFromString(price))
	}
	r.games[id] = game
	return id
}

func (r *stubRepo) addPurchase(userID, gameID uuid.UUID, price string, at time.Time) {
	r.purchases[purchaseKey(userID, gameID)] = &domain.Purchase{
		ID:          uuid.New(),
		UserID:      userID,
		GameID:      gameID,
		PricePaid:   decimal.RequireFromString(price),
		PurchasedAt: at,
	}
}

func (r *stubRepo) addPlan(name string, gameIDs ...uuid.UUID) (planID, optionID uuid.UUID) {
	planID = uuid.New()
	r.plans[planID] = &domain.Plan{ID: planID, Name: name, GameIDs: gameIDs}
	r.planGames[planID] = gameIDs
	optionID = uuid.New()
	r.pricingOptions[optionID] = &domain.PlanPricingOption{
		ID:           optionID,
		PlanID:       planID,
		Price:        decimal.RequireFromString("9.99"),
		DurationDays: 30,
	}
	return planID, optionID
}

func (r *stubRepo) addSubscription(userID, planID, optionID uuid.UUID, end time.Time) {
	r.subs = append(r.subs, &domain.UserSubscription{
		ID:              uuid.New(),
		UserID:          userID,
		PricingOptionID: optionID,
		PlanID:          planID,
		PlanName:        r.plans[planID].Name,
		StartTime:       end.AddDate(0, -1, 0),
		EndTime:         end,
	})
}

// Users

func (r *stubRepo) FindUserByID(ctx context.Context, userID uuid.UUID) (*domain.User, error) {
	user, ok := r.users[userID]
	if !ok {
		return nil, store.ErrUserNotFound
	}
	return user, nil
}

// Catalog

func (r *stubRepo) GetGame(ctx context.Context, gameID uuid.UUID) (*domain.Game, error) {
	game, ok := r.games[gameID]
	if !ok || game.IsDeleted {
		return nil, store.ErrGameNotFound
	}
	return game, nil
}

func (r *stubRepo) GetGamesByIDs(ctx context.Context, gameIDs []uuid.UUID) ([]domain.Game, error) {
	games := []domain.Game{}
	for _, id := range gameIDs {
		if game, ok := r.games[id]; ok && !game.IsDeleted {
			games = append(games, *game)
		}
	}
	return games, nil
}

func (r *stubRepo) ListGames(ctx context.Context) ([]domain.Game, error) {
	games := []domain.Game{}
	for _, game := range r.games {
		if !game.IsDeleted {
			games = append(games, *game)
		}
	}
	return games, nil
}

func (r *stubRepo) ListFreeGames(ctx context.Context) ([]domain.Game, error) {
	games := []domain.Game{}
	for _, game := range r.games {
		if game.IsFree && !game.IsDeleted {
			games = append(games, *game)
		}
	}
	return games, nil
}

func (r *stubRepo) GetCountryPrice(ctx context.Context, gameID, countryID uuid.UUID) (*domain.CountryPrice, error) {
	price, ok := r.countryPrices[priceKey(gameID, countryID)]
	if !ok {
		return nil, store.ErrCountryPriceNotFound
	}
	return &domain.CountryPrice{GameID: gameID, CountryID: countryID, Price: price}, nil
}

// Cart

func (r *stubRepo) GetCartByUserID(ctx context.Context, userID uuid.UUID) (*domain.Cart, error) {
	for _, cart := range r.carts {
		if cart.UserID == userID {
			view := *cart
			view.Items = r.cartItems(cart.ID)
			return &view, nil
		}
	}
	return nil, store.ErrCartNotFound
}

func (r *stubRepo) GetOrCreateCart(ctx context.Context, userID uuid.UUID) (*domain.Cart, error) {
	if cart, err := r.GetCartByUserID(ctx, userID); err == nil {
		return cart, nil
	}
	cart := &domain.Cart{ID: uuid.New(), UserID: userID, TotalAmount: decimal.Zero}
	r.carts[cart.ID] = cart
	view := *cart
	view.Items = []domain.CartItem{}
	return &view, nil
}

func (r *stubRepo) cartItems(cartID uuid.UUID) []domain.CartItem {
	items := []domain.CartItem{}
	for _, item := range r.items {
		if item.CartID == cartID {
			view := *item
			if game, ok := r.games[item.GameID]; ok {
				view.GameName = game.Name
			}
			items = append(items, view)
		}
	}
	return items
}

func (r *stubRepo) recomputeTotal(cartID uuid.UUID) {
	total := decimal.Zero
	for _, item := range r.items {
		if item.CartID == cartID {
			total = total.Add(item.LineTotal)
		}
	}
	if cart, ok := r.carts[cartID]; ok {
		cart.TotalAmount = total
	}
}

func (r *stubRepo) AddOrIncrementCartItem(ctx context.Context, cartID, gameID uuid.UUID, quantity int, unitPrice decimal.Decimal) (*domain.CartItem, error) {
	if _, ok := r.carts[cartID]; !ok {
		return nil, fmt.Errorf("cart %s does not exist", cartID)
	}
	var item *domain.CartItem
	for _, existing := range r.items {
		if existing.CartID == cartID && existing.GameID == gameID {
			item = existing
			break
		}
	}
	if item != nil {
		item.Quantity += quantity
		item.LineTotal = item.UnitPrice.Mul(decimal.NewFromInt(int64(item.Quantity)))
	} else {
		item = &domain.CartItem{
			ID:        uuid.New(),
			CartID:    cartID,
			GameID:    gameID,
			Quantity:  quantity,
			UnitPrice: unitPrice,
			LineTotal: unitPrice.Mul(decimal.NewFromInt(int64(quantity))),
		}
		r.items[item.ID] = item
	}
	r.recomputeTotal(cartID)
	view := *item
	return &view, nil
}

func (r *stubRepo) UpdateCartItemQuantity(ctx context.Context, cartID, itemID uuid.UUID, quantity int) (*domain.CartItem, error) {
	item, ok := r.items[itemID]
	if !ok || item.CartID != cartID {
		return nil, store.ErrCartItemNotFound
	}
	item.Quantity = quantity
	item.LineTotal = item.UnitPrice.Mul(decimal.NewFromInt(int64(quantity)))
	r.recomputeTotal(cartID)
	view := *item
	return &view, nil
}

func (r *stubRepo) DeleteCartItem(ctx context.Context, cartID, itemID uuid.UUID) error {
	item, ok := r.items[itemID]
	if !ok || item.CartID != cartID {
		return store.ErrCartItemNotFound
	}
	delete(r.items, itemID)
	r.recomputeTotal(cartID)
	return nil
}

func (r *stubRepo) ClearCart(ctx context.Context, cartID uuid.UUID) error {
	if _, ok := r.carts[cartID]; !ok {
		return store.ErrCartNotFound
	}
	for id, item := range r.items {
		if item.CartID == cartID {
			delete(r.items, id)
		}
	}
	r.recomputeTotal(cartID)
	return nil
}

// Purchases

func (r *stubRepo) FindPurchase(ctx context.Context, userID, gameID uuid.UUID) (*domain.Purchase, error) {
	purchase, ok := r.purchases[purchaseKey(userID, gameID)]
	if !ok {
		return nil, store.ErrPurchaseNotFound
	}
	return purchase, nil
}

func (r *stubRepo) ListPurchases(ctx context.Context, userID uuid.UUID) ([]domain.Purchase, error) {
	purchases := []domain.Purchase{}
	for _, purchase := range r.purchases {
		if purchase.UserID == userID {
			purchases = append(purchases, *purchase)
		}
	}
	return purchases, nil
}

func (r *stubRepo) HasPurchases(ctx context.Context, userID uuid.UUID) (bool, error) {
	for _, purchase := range r.purchases {
		if purchase.UserID == userID {
			return true, nil
		}
	}
	return false, nil
}

func (r *stubRepo) CreatePurchase(ctx context.Context, purchase *domain.Purchase) (*domain.Purchase, error) {
	if r.createPurchaseErr != nil {
		err := r.createPurchaseErr
		r.createPurchaseErr = nil
		return nil, err
	}
	key := purchaseKey(purchase.UserID, purchase.GameID)
	if _, exists := r.purchases[key]; exists {
		return nil, store.ErrAlreadyPurchased
	}
	created := *purchase
	created.ID = uuid.New()
	r.purchases[key] = &created
	return &created, nil
}

// Subscriptions

func (r *stubRepo) GetActiveSubscription(ctx context.Context, userID uuid.UUID) (*domain.UserSubscription, error) {
	var latest *domain.UserSubscription
	now := time.Now()
	for _, sub := range r.subs {
		if sub.UserID != userID || sub.EndTime.Before(now) {
			continue
		}
		if latest == nil || sub.EndTime.After(latest.EndTime) {
			latest = sub
		}
	}
	if latest == nil {
		return nil, store.ErrSubscriptionNotFound
	}
	view := *latest
	return &view, nil
}

func (r *stubRepo) GetPlanGameIDs(ctx context.Context, planID uuid.UUID) ([]uuid.UUID, error) {
	return r.planGames[planID], nil
}

func (r *stubRepo) ListPlans(ctx context.Context) ([]domain.Plan, error) {
	plans := []domain.Plan{}
	for _, plan := range r.plans {
		plans = append(plans, *plan)
	}
	return plans, nil
}

func (r *stubRepo) GetPricingOption(ctx context.Context, optionID uuid.UUID) (*domain.PlanPricingOption, error) {
	option, ok := r.pricingOptions[optionID]
	if !ok {
		return nil, store.ErrPricingOptionNotFound
	}
	return option, nil
}

func (r *stubRepo) CreateSubscription(ctx context.Context, sub *domain.UserSubscription) (*domain.UserSubscription, error) {
	created := *sub
	created.ID = uuid.New()
	if option, ok := r.pricingOptions[sub.PricingOptionID]; ok {
		created.PlanID = option.PlanID
		if plan, ok := r.plans[option.PlanID]; ok {
			created.PlanName = plan.Name
		}
	}
	r.subs = append(r.subs, &created)
	return &created, nil
}

// stubPublisher records published events for assertions.
type stubPublisher struct {
	purchaseEvents []rabbitmq.PurchaseEvent
	checkoutEvents []rabbitmq.CheckoutEvent
}

func (p *stubPublisher) Publish(ctx context.Context, exchange, routingKey string, body interface{}) error {
	return nil
}

func (p *stubPublisher) PublishPurchaseEvent(ctx context.Context, event rabbitmq.PurchaseEvent) error {
	p.purchaseEvents = append(p.purchaseEvents, event)
	return nil
}

func (p *stubPublisher) PublishCheckoutEvent(ctx context.Context, event rabbitmq.CheckoutEvent) error {
	p.checkoutEvents = append(p.checkoutEvents, event)
	return nil
}

func (p *stubPublisher) Close() {}
