package orders

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	ErrNotFound   = errors.New("order not found")
	ErrUnknownSKU = errors.New("unknown sku")
)

type Repo struct{ DB *pgxpool.Pool }

func (r *Repo) Get(ctx context.Context, orderID string) (*Order, error) {
	var o Order
	var status string
	err := r.DB.QueryRow(ctx, `
		SELECT id, buyer_chat_id, player_id, status, amount_cents, created_at, updated_at
		FROM orders WHERE id=$1`, orderID).
		Scan(&o.ID, &o.BuyerChatID, &o.PlayerID, &status, &o.AmountCents, &o.CreatedAt, &o.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("select order: %w", err)
	}
	o.Status = Normalize(status)

	rows, err := r.DB.Query(ctx, `
		SELECT id, order_id, sku, name, category, qty, price_cents,
		       redeemed, redemption_code, redemption_error
		FROM order_items WHERE order_id=$1 ORDER BY id`, orderID)
	if err != nil {
		return nil, fmt.Errorf("select items: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var it LineItem
		var cat string
		if err := rows.Scan(&it.ID, &it.OrderID, &it.SKU, &it.Name, &cat, &it.Qty,
			&it.PriceCents, &it.Redeemed, &it.RedemptionCode, &it.RedemptionError); err != nil {
			return nil, fmt.Errorf("scan item: %w", err)
		}
		it.Category = Category(cat)
		o.Items = append(o.Items, it)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate items: %w", err)
	}
	return &o, nil
}

// CompareAndSetStatus moves the order from expected to next in one
// conditional update. Returns false when the stored status no longer matches
// expected, i.e. a concurrent caller got there first. This is the only way
// order status is ever written, so it also rejects moves the lifecycle does
// not allow before touching the database.
func (r *Repo) CompareAndSetStatus(ctx context.Context, orderID string, expected, next Status) (bool, error) {
	if !CanTransition(expected, next) {
		return false, fmt.Errorf("cas status: %s -> %s not allowed", expected, next)
	}
	ct, err := r.DB.Exec(ctx, `
		UPDATE orders SET status=$3, updated_at=NOW()
		WHERE id=$1 AND status=$2`, orderID, string(expected), string(next))
	if err != nil {
		return false, fmt.Errorf("cas status: %w", err)
	}
	return ct.RowsAffected() == 1, nil
}

// SetItemOutcome records one line item's redemption result. Items are never
// deleted; a failed item keeps its error string for manual remediation.
func (r *Repo) SetItemOutcome(ctx context.Context, itemID int64, redeemed bool, code, redemptionError string) error {
	ct, err := r.DB.Exec(ctx, `
		UPDATE order_items SET redeemed=$2, redemption_code=$3, redemption_error=$4
		WHERE id=$1`, itemID, redeemed, code, redemptionError)
	if err != nil {
		return fmt.Errorf("set item outcome: %w", err)
	}
	if ct.RowsAffected() != 1 {
		return fmt.Errorf("set item outcome: item %d not found", itemID)
	}
	return nil
}

// AdjustStock applies delta to a product's stock counter under a row lock.
// A paid order decrements regardless of the counter going negative; the
// payment is already taken, so a negative value is an operator signal, not a
// reason to fail fulfillment of other items.
func (r *Repo) AdjustStock(ctx context.Context, sku string, delta int) error {
	tx, err := r.DB.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	var stock int
	if err := tx.QueryRow(ctx, `SELECT stock FROM products WHERE sku=$1 FOR UPDATE`, sku).Scan(&stock); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return fmt.Errorf("%w: %s", ErrUnknownSKU, sku)
		}
		return fmt.Errorf("lock product: %w", err)
	}
	if _, err := tx.Exec(ctx, `UPDATE products SET stock = stock + $2 WHERE sku=$1`, sku, delta); err != nil {
		return fmt.Errorf("update stock: %w", err)
	}
	return tx.Commit(ctx)
}
