/**
 * @description
 * This file implements the cart portion of the `Repository` interface. Every
 * mutation runs inside a single transaction that first changes the line rows
 * and then recomputes the cart's cached total from scratch as
 * SUM(line_total), so the total is self-healing rather than incrementally
 * patched. The UNIQUE (cart_id, game_id) constraint makes "add the same game
 * twice" an increment instead of a duplicate row.
 *
 * @dependencies
 * - github.com/jackc/pgx/v5: The PostgreSQL driver for database operations.
 * - internal/domain: Contains the domain models used for data transfer.
 */

package store

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/gamevault/storefront-service/internal/domain"
)

// GetCartByUserID retrieves a user's cart together with its items. Item rows
// are joined against the catalog so views can show game names.
func (r *PostgresRepository) GetCartByUserID(ctx context.Context, userID uuid.UUID) (*domain.Cart, error) {
	var cart domain.Cart
	query := `
        SELECT id, user_id, total_amount, created_at, updated_at
        FROM carts
        WHERE user_id = $1
    `
	err := r.db.QueryRow(ctx, query, userID).Scan(
		&cart.ID,
		&cart.UserID,
		&cart.TotalAmount,
		&cart.CreatedAt,
		&cart.UpdatedAt,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, ErrCartNotFound
		}
		return nil, err
	}

	itemsQuery := `
        SELECT ci.id, ci.cart_id, ci.game_id, g.name, ci.quantity, ci.unit_price, ci.line_total
        FROM cart_items ci
        JOIN games g ON g.id = ci.game_id
        WHERE ci.cart_id = $1
        ORDER BY ci.created_at
    `
	rows, err := r.db.Query(ctx, itemsQuery, cart.ID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	cart.Items = []domain.CartItem{}
	for rows.Next() {
		var item domain.CartItem
		if err := rows.Scan(&item.ID, &item.CartID, &item.GameID, &item.GameName, &item.Quantity, &item.UnitPrice, &item.LineTotal); err != nil {
			return nil, err
		}
		cart.Items = append(cart.Items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return &cart, nil
}

// GetOrCreateCart returns the user's cart, creating an empty one on first use.
// The operation is idempotent; concurrent first adds race harmlessly on the
// UNIQUE (user_id) constraint.
func (r *PostgresRepository) GetOrCreateCart(ctx context.Context, userID uuid.UUID) (*domain.Cart, error) {
	query := `
        INSERT INTO carts (user_id, total_amount)
        VALUES ($1, 0)
        ON CONFLICT (user_id) DO NOTHING
    `
	if _, err := r.db.Exec(ctx, query, userID); err != nil {
		return nil, err
	}
	return r.GetCartByUserID(ctx, userID)
}

// AddOrIncrementCartItem upserts a cart line. A new line snapshots the given
// unit price; an existing line keeps its original unit price and only grows
// its quantity, so the price within a cart session never shifts.
func (r *PostgresRepository) AddOrIncrementCartItem(ctx context.Context, cartID, gameID uuid.UUID, quantity int, unitPrice decimal.Decimal) (*domain.CartItem, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	var item domain.CartItem
	query := `
        INSERT INTO cart_items (cart_id, game_id, quantity, unit_price, line_total)
        VALUES ($1, $2, $3, $4, $3::int * $4::numeric)
        ON CONFLICT (cart_id, game_id) DO UPDATE SET
            quantity   = cart_items.quantity + EXCLUDED.quantity,
            line_total = (cart_items.quantity + EXCLUDED.quantity) * cart_items.unit_price,
            updated_at = NOW()
        RETURNING id, cart_id, game_id, quantity, unit_price, line_total
    `
	err = tx.QueryRow(ctx, query, cartID, gameID, quantity, unitPrice).Scan(
		&item.ID,
		&item.CartID,
		&item.GameID,
		&item.Quantity,
		&item.UnitPrice,
		&item.LineTotal,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to upsert cart item: %w", err)
	}

	if err := recomputeCartTotal(ctx, tx, cartID); err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return &item, nil
}

// UpdateCartItemQuantity sets a line's quantity and recomputes its line total
// from the stored unit-price snapshot. Callers are expected to have handled
// quantity <= 0 by deleting the line instead.
func (r *PostgresRepository) UpdateCartItemQuantity(ctx context.Context, cartID, itemID uuid.UUID, quantity int) (*domain.CartItem, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	var item domain.CartItem
	query := `
        UPDATE cart_items
        SET quantity = $3, line_total = $3::int * unit_price, updated_at = NOW()
        WHERE id = $2 AND cart_id = $1
        RETURNING id, cart_id, game_id, quantity, unit_price, line_total
    `
	err = tx.QueryRow(ctx, query, cartID, itemID, quantity).Scan(
		&item.ID,
		&item.CartID,
		&item.GameID,
		&item.Quantity,
		&item.UnitPrice,
		&item.LineTotal,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, ErrCartItemNotFound
		}
		return nil, err
	}

	if err := recomputeCartTotal(ctx, tx, cartID); err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return &item, nil
}

// DeleteCartItem removes a single line from a cart.
func (r *PostgresRepository) DeleteCartItem(ctx context.Context, cartID, itemID uuid.UUID) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	tag, err := tx.Exec(ctx, `DELETE FROM cart_items WHERE id = $2 AND cart_id = $1`, cartID, itemID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrCartItemNotFound
	}

	if err := recomputeCartTotal(ctx, tx, cartID); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

// ClearCart removes every line and pins the cached total at exactly zero.
// Clearing an already-empty cart succeeds trivially.
func (r *PostgresRepository) ClearCart(ctx context.Context, cartID uuid.UUID) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM cart_items WHERE cart_id = $1`, cartID); err != nil {
		return err
	}

	tag, err := tx.Exec(ctx, `UPDATE carts SET total_amount = 0, updated_at = NOW() WHERE id = $1`, cartID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrCartNotFound
	}
	return tx.Commit(ctx)
}

// recomputeCartTotal rewrites the cached cart total as the authoritative sum
// of the line totals, inside the caller's transaction.
func recomputeCartTotal(ctx context.Context, tx pgx.Tx, cartID uuid.UUID) error {
	query := `
        UPDATE carts
        SET total_amount = (
            SELECT COALESCE(SUM(line_total), 0)
            FROM cart_items
            WHERE cart_id = $1
        ),
        updated_at = NOW()
        WHERE id = $1
    `
	_, err := tx.Exec(ctx, query, cartID)
	return err
}
