package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"udan-bangla-backend/internal/models"
)

type OrderRepo struct {
	pool *pgxpool.Pool
}

func NewOrderRepo(pool *pgxpool.Pool) *OrderRepo {
	return &OrderRepo{pool: pool}
}

func (r *OrderRepo) Create(ctx context.Context, o *models.PaymentOrder) error {
	o.Status = "created"
	return r.pool.QueryRow(ctx,
		`INSERT INTO payment_orders (id, user_id, plan, amount, currency, receipt, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7) RETURNING created_at`,
		o.ID, o.UserID, o.Plan, o.Amount, o.Currency, o.Receipt, o.Status,
	).Scan(&o.CreatedAt)
}

func (r *OrderRepo) GetByID(ctx context.Context, id string) (*models.PaymentOrder, error) {
	o := &models.PaymentOrder{}
	err := r.pool.QueryRow(ctx,
		`SELECT id, user_id, plan, amount, currency, receipt, status, payment_id, created_at, paid_at
		FROM payment_orders WHERE id = $1`, id,
	).Scan(&o.ID, &o.UserID, &o.Plan, &o.Amount, &o.Currency, &o.Receipt, &o.Status, &o.PaymentID, &o.CreatedAt, &o.PaidAt)
	if err != nil {
		return nil, err
	}
	return o, nil
}

// MarkPaid settles an order and moves the user (and their stats row) onto
// the purchased plan in one transaction. It reports false when the order
// was already settled.
func (r *OrderRepo) MarkPaid(ctx context.Context, orderID, paymentID string, userID uuid.UUID, plan string) (bool, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return false, fmt.Errorf("failed to begin payment update: %w", err)
	}
	defer tx.Rollback(ctx)

	tag, err := tx.Exec(ctx,
		`UPDATE payment_orders SET status = 'paid', payment_id = $1, paid_at = NOW()
		WHERE id = $2 AND user_id = $3 AND status = 'created'`,
		paymentID, orderID, userID,
	)
	if err != nil {
		return false, err
	}
	if tag.RowsAffected() == 0 {
		return false, nil
	}

	if _, err := tx.Exec(ctx, "UPDATE users SET plan = $1 WHERE id = $2", plan, userID); err != nil {
		return false, err
	}
	if _, err := tx.Exec(ctx,
		`INSERT INTO user_stats (user_id, subscription_plan) VALUES ($1, $2)
		ON CONFLICT (user_id) DO UPDATE SET subscription_plan = EXCLUDED.subscription_plan, updated_at = NOW()`,
		userID, plan,
	); err != nil {
		return false, err
	}

	if err := tx.Commit(ctx); err != nil {
		return false, fmt.Errorf("failed to commit payment update: %w", err)
	}
	return true, nil
}
