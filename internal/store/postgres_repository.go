/**
 * @description
 * This file provides the PostgreSQL implementation of the `Repository` interface
 * for users, the game catalog, the purchase ledger, and subscriptions. Cart
 * operations live in postgres_cart_repository.go.
 *
 * The purchases table carries a UNIQUE (user_id, game_id) constraint; a concurrent
 * double-purchase surfaces here as SQLSTATE 23505 and is translated into
 * ErrAlreadyPurchased rather than silently creating a second ledger row.
 *
 * @dependencies
 * - github.com/jackc/pgx/v5: The PostgreSQL driver for database operations.
 * - github.com/jackc/pgx/v5/pgconn: For inspecting unique-violation error codes.
 * - internal/domain: Contains the domain models used for data transfer.
 */

package store

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/gamevault/storefront-service/internal/domain"
)

// PostgresRepository is a concrete implementation of the Repository interface for PostgreSQL.
type PostgresRepository struct {
	db *pgxpool.Pool
}

// NewPostgresRepository creates a new instance of PostgresRepository.
func NewPostgresRepository(db *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// FindUserByID retrieves a user together with their optional country reference.
func (r *PostgresRepository) FindUserByID(ctx context.Context, userID uuid.UUID) (*domain.User, error) {
	var user domain.User
	query := `SELECT id, username, country_id FROM users WHERE id = $1`
	err := r.db.QueryRow(ctx, query, userID).Scan(&user.ID, &user.Username, &user.CountryID)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return &user, nil
}

// GetGame retrieves a single game by ID. Soft-deleted games are treated as absent.
func (r *PostgresRepository) GetGame(ctx context.Context, gameID uuid.UUID) (*domain.Game, error) {
	var game domain.Game
	query := `
        SELECT id, name, base_price, is_free, is_deleted
        FROM games
        WHERE id = $1 AND is_deleted = FALSE
    `
	err := r.db.QueryRow(ctx, query, gameID).Scan(
		&game.ID,
		&game.Name,
		&game.BasePrice,
		&game.IsFree,
		&game.IsDeleted,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, ErrGameNotFound
		}
		return nil, err
	}
	return &game, nil
}

// GetGamesByIDs fetches a batch of games in one query. Missing or soft-deleted
// ids are simply absent from the result; callers decide whether that matters.
func (r *PostgresRepository) GetGamesByIDs(ctx context.Context, gameIDs []uuid.UUID) ([]domain.Game, error) {
	if len(gameIDs) == 0 {
		return []domain.Game{}, nil
	}
	query := `
        SELECT id, name, base_price, is_free, is_deleted
        FROM games
        WHERE id = ANY($1) AND is_deleted = FALSE
    `
	rows, err := r.db.Query(ctx, query, gameIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanGames(rows)
}

// ListGames returns every non-deleted game in the catalog.
func (r *PostgresRepository) ListGames(ctx context.Context) ([]domain.Game, error) {
	query := `
        SELECT id, name, base_price, is_free, is_deleted
        FROM games
        WHERE is_deleted = FALSE
        ORDER BY name
    `
	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanGames(rows)
}

// ListFreeGames returns every non-deleted free-to-play game.
func (r *PostgresRepository) ListFreeGames(ctx context.Context) ([]domain.Game, error) {
	query := `
        SELECT id, name, base_price, is_free, is_deleted
        FROM games
        WHERE is_free = TRUE AND is_deleted = FALSE
    `
	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanGames(rows)
}

func scanGames(rows pgx.Rows) ([]domain.Game, error) {
	games := []domain.Game{}
	for rows.Next() {
		var game domain.Game
		if err := rows.Scan(&game.ID, &game.Name, &game.BasePrice, &game.IsFree, &game.IsDeleted); err != nil {
			return nil, err
		}
		games = append(games, game)
	}
	return games, rows.Err()
}

// GetCountryPrice retrieves the per-country override price for a game, if one exists.
func (r *PostgresRepository) GetCountryPrice(ctx context.Context, gameID, countryID uuid.UUID) (*domain.CountryPrice, error) {
	var cp domain.CountryPrice
	query := `
        SELECT game_id, country_id, price
        FROM country_prices
        WHERE game_id = $1 AND country_id = $2
    `
	err := r.db.QueryRow(ctx, query, gameID, countryID).Scan(&cp.GameID, &cp.CountryID, &cp.Price)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, ErrCountryPriceNotFound
		}
		return nil, err
	}
	return &cp, nil
}

// FindPurchase retrieves the purchase record for a (user, game) pair, if any.
func (r *PostgresRepository) FindPurchase(ctx context.Context, userID, gameID uuid.UUID) (*domain.Purchase, error) {
	var p domain.Purchase
	query := `
        SELECT id, user_id, game_id, price_paid, purchased_at
        FROM purchases
        WHERE user_id = $1 AND game_id = $2
    `
	err := r.db.QueryRow(ctx, query, userID, gameID).Scan(&p.ID, &p.UserID, &p.GameID, &p.PricePaid, &p.PurchasedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, ErrPurchaseNotFound
		}
		return nil, err
	}
	return &p, nil
}

// ListPurchases returns every purchase a user has ever made, newest first.
func (r *PostgresRepository) ListPurchases(ctx context.Context, userID uuid.UUID) ([]domain.Purchase, error) {
	query := `
        SELECT id, user_id, game_id, price_paid, purchased_at
        FROM purchases
        WHERE user_id = $1
        ORDER BY purchased_at DESC
    `
	rows, err := r.db.Query(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	purchases := []domain.Purchase{}
	for rows.Next() {
		var p domain.Purchase
		if err := rows.Scan(&p.ID, &p.UserID, &p.GameID, &p.PricePaid, &p.PurchasedAt); err != nil {
			return nil, err
		}
		purchases = append(purchases, p)
	}
	return purchases, rows.Err()
}

// HasPurchases reports whether the user owns at least one game.
func (r *PostgresRepository) HasPurchases(ctx context.Context, userID uuid.UUID) (bool, error) {
	var exists bool
	query := `SELECT EXISTS (SELECT 1 FROM purchases WHERE user_id = $1)`
	if err := r.db.QueryRow(ctx, query, userID).Scan(&exists); err != nil {
		return false, err
	}
	return exists, nil
}

// CreatePurchase inserts a new immutable ledger row. The UNIQUE (user_id, game_id)
// constraint turns a concurrent duplicate into ErrAlreadyPurchased.
func (r *PostgresRepository) CreatePurchase(ctx context.Context, purchase *domain.Purchase) (*domain.Purchase, error) {
	var created domain.Purchase
	query := `
        INSERT INTO purchases (user_id, game_id, price_paid, purchased_at)
        VALUES ($1, $2, $3, $4)
        RETURNING id, user_id, game_id, price_paid, purchased_at
    `
	err := r.db.QueryRow(ctx, query,
		purchase.UserID,
		purchase.GameID,
		purchase.PricePaid,
		purchase.PurchasedAt,
	).Scan(&created.ID, &created.UserID, &created.GameID, &created.PricePaid, &created.PurchasedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return nil, ErrAlreadyPurchased
		}
		return nil, err
	}
	return &created, nil
}

// GetActiveSubscription retrieves the user's single most recent subscription
// whose period has not ended. Expired rows stay in the table as history.
func (r *PostgresRepository) GetActiveSubscription(ctx context.Context, userID uuid.UUID) (*domain.UserSubscription, error) {
	var sub domain.UserSubscription
	query := `
        SELECT us.id, us.user_id, us.pricing_option_id, p.id, p.name, us.start_time, us.end_time
        FROM user_subscriptions us
        JOIN plan_pricing_options ppo ON ppo.id = us.pricing_option_id
        JOIN plans p ON p.id = ppo.plan_id
        WHERE us.user_id = $1 AND us.end_time >= NOW()
        ORDER BY us.end_time DESC
        LIMIT 1
    `
	err := r.db.QueryRow(ctx, query, userID).Scan(
		&sub.ID,
		&sub.UserID,
		&sub.PricingOptionID,
		&sub.PlanID,
		&sub.PlanName,
		&sub.StartTime,
		&sub.EndTime,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, ErrSubscriptionNotFound
		}
		return nil, err
	}
	return &sub, nil
}

// GetPlanGameIDs returns the ids of the games bundled by a plan.
func (r *PostgresRepository) GetPlanGameIDs(ctx context.Context, planID uuid.UUID) ([]uuid.UUID, error) {
	query := `SELECT game_id FROM plan_games WHERE plan_id = $1`
	rows, err := r.db.Query(ctx, query, planID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	ids := []uuid.UUID{}
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// ListPlans returns every plan with its bundled game ids aggregated in one query.
func (r *PostgresRepository) ListPlans(ctx context.Context) ([]domain.Plan, error) {
	query := `
        SELECT p.id, p.name, COALESCE(p.description, ''),
               COALESCE(ARRAY_AGG(pg.game_id) FILTER (WHERE pg.game_id IS NOT NULL), '{}')
        FROM plans p
        LEFT JOIN plan_games pg ON pg.plan_id = p.id
        GROUP BY p.id, p.name, p.description
        ORDER BY p.name
    `
	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	plans := []domain.Plan{}
	for rows.Next() {
		var plan domain.Plan
		if err := rows.Scan(&plan.ID, &plan.Name, &plan.Description, &plan.GameIDs); err != nil {
			return nil, err
		}
		plans = append(plans, plan)
	}
	return plans, rows.Err()
}

// GetPricingOption retrieves a plan pricing option by ID.
func (r *PostgresRepository) GetPricingOption(ctx context.Context, optionID uuid.UUID) (*domain.PlanPricingOption, error) {
	var option domain.PlanPricingOption
	query := `
        SELECT id, plan_id, price, duration_days
        FROM plan_pricing_options
        WHERE id = $1
    `
	err := r.db.QueryRow(ctx, query, optionID).Scan(&option.ID, &option.PlanID, &option.Price, &option.DurationDays)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, ErrPricingOptionNotFound
		}
		return nil, err
	}
	return &option, nil
}

// CreateSubscription inserts a new subscription period for a user and returns
// it together with the plan it belongs to.
func (r *PostgresRepository) CreateSubscription(ctx context.Context, sub *domain.UserSubscription) (*domain.UserSubscription, error) {
	var created domain.UserSubscription
	query := `
        WITH ins AS (
            INSERT INTO user_subscriptions (user_id, pricing_option_id, start_time, end_time)
            VALUES ($1, $2, $3, $4)
            RETURNING id, user_id, pricing_option_id, start_time, end_time
        )
        SELECT ins.id, ins.user_id, ins.pricing_option_id, p.id, p.name, ins.start_time, ins.end_time
        FROM ins
        JOIN plan_pricing_options ppo ON ppo.id = ins.pricing_option_id
        JOIN plans p ON p.id = ppo.plan_id
    `
	err := r.db.QueryRow(ctx, query,
		sub.UserID,
		sub.PricingOptionID,
		sub.StartTime,
		sub.EndTime,
	).Scan(
		&created.ID,
		&created.UserID,
		&created.PricingOptionID,
		&created.PlanID,
		&created.PlanName,
		&created.StartTime,
		&created.EndTime,
	)
	if err != nil {
		return nil, err
	}
	return &created, nil
}
