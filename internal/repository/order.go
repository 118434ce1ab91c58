package repository

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ajayishaq/rromisim/internal/domain/order"
)

const (
	createOrderSQL = `INSERT INTO orders (id, plan_id, phone, email, status, payment_reference, amount, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

	getOrderByIDSQL = `SELECT id, plan_id, phone, email, status, payment_reference,
			esim_iccid, esim_qr_url, esim_activation_code, amount, created_at, updated_at
		FROM orders WHERE id = $1`

	// The completed transition is a single conditional update so concurrent
	// verifications cannot both fire it: at most one caller sees a row
	// affected, every later caller observes the idempotent no-op path.
	markCompletedSQL = `UPDATE orders
		SET status = 'completed', esim_iccid = $2, esim_qr_url = $3, esim_activation_code = $4, updated_at = now()
		WHERE id = $1 AND status = 'pending'`

	getOrderStatusSQL = `SELECT status FROM orders WHERE id = $1`

	listRecentOrdersSQL = `SELECT id, plan_id, phone, email, status, payment_reference,
			esim_iccid, esim_qr_url, esim_activation_code, amount, created_at, updated_at
		FROM orders ORDER BY created_at DESC LIMIT $1`

	// One statement keeps the four aggregates on a single snapshot; no read
	// skew between them under concurrent writes.
	orderStatsSQL = `SELECT
			COUNT(*),
			COUNT(*) FILTER (WHERE status = 'completed'),
			COALESCE(SUM(amount) FILTER (WHERE status = 'completed'), 0),
			COUNT(DISTINCT email)
		FROM orders`
)

var _ order.Repository = (*OrderRepository)(nil)

// OrderRepository implements order.Repository backed by PostgreSQL.
type OrderRepository struct {
	pool *pgxpool.Pool
}

// NewOrderRepository returns an OrderRepository that uses the given pool.
func NewOrderRepository(pool *pgxpool.Pool) *OrderRepository {
	return &OrderRepository{pool: pool}
}

// Create persists a new pending order.
func (r *OrderRepository) Create(ctx context.Context, o *order.Order) error {
	if err := o.Validate(); err != nil {
		return err
	}

	_, err := r.pool.Exec(ctx, createOrderSQL,
		o.ID, o.PlanID, o.Phone, o.Email, string(o.Status), o.PaymentReference,
		o.Amount, o.CreatedAt, o.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("creating order %q: %w", o.ID, err)
	}
	return nil
}

// GetByID returns the order or order.ErrNotFound.
func (r *OrderRepository) GetByID(ctx context.Context, id string) (*order.Order, error) {
	rows, err := r.pool.Query(ctx, getOrderByIDSQL, id)
	if err != nil {
		return nil, fmt.Errorf("getting order %q: %w", id, err)
	}

	o, err := pgx.CollectExactlyOneRow(rows, scanOrder)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, order.ErrNotFound
		}
		return nil, fmt.Errorf("getting order %q: %w", id, err)
	}
	return &o, nil
}

// MarkCompleted transitions a pending order to completed with its eSIM
// fields in one atomic conditional update.
func (r *OrderRepository) MarkCompleted(ctx context.Context, id string, e order.ESIM) (bool, error) {
	tag, err := r.pool.Exec(ctx, markCompletedSQL, id, e.ICCID, e.QRURL, e.ActivationCode)
	if err != nil {
		return false, fmt.Errorf("completing order %q: %w", id, err)
	}
	if tag.RowsAffected() == 1 {
		return true, nil
	}

	// No row updated: either the order is gone or someone else won the race.
	var status string
	err = r.pool.QueryRow(ctx, getOrderStatusSQL, id).Scan(&status)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return false, order.ErrNotFound
		}
		return false, fmt.Errorf("checking order %q: %w", id, err)
	}
	if order.Status(status) == order.StatusCompleted {
		return false, nil
	}
	return false, order.ErrInvalidState
}

// ListRecent returns up to limit orders, newest first.
func (r *OrderRepository) ListRecent(ctx context.Context, limit int) ([]order.Order, error) {
	rows, err := r.pool.Query(ctx, listRecentOrdersSQL, limit)
	if err != nil {
		return nil, fmt.Errorf("listing orders: %w", err)
	}
	return pgx.CollectRows(rows, scanOrder)
}

// Stats returns aggregate counters computed in a single statement.
func (r *OrderRepository) Stats(ctx context.Context) (order.Stats, error) {
	var s order.Stats
	err := r.pool.QueryRow(ctx, orderStatsSQL).Scan(
		&s.TotalOrders, &s.CompletedOrders, &s.TotalRevenue, &s.TotalCustomers,
	)
	if err != nil {
		return order.Stats{}, fmt.Errorf("aggregating order stats: %w", err)
	}
	return s, nil
}

func scanOrder(row pgx.CollectableRow) (order.Order, error) {
	var (
		o      order.Order
		status string
		iccid  *string
		qrURL  *string
		code   *string
	)
	err := row.Scan(
		&o.ID, &o.PlanID, &o.Phone, &o.Email, &status, &o.PaymentReference,
		&iccid, &qrURL, &code, &o.Amount, &o.CreatedAt, &o.UpdatedAt,
	)
	if err != nil {
		return order.Order{}, err
	}
	o.Status = order.Status(status)
	if iccid != nil {
		o.ESIM = &order.ESIM{
			ICCID:          *iccid,
			QRURL:          deref(qrURL),
			ActivationCode: deref(code),
		}
	}
	return o, nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
