package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"

	"github.com/ajayishaq/rromisim/internal/domain/order"
)

var _ order.Repository = (*MemoryOrderRepository)(nil)

// MemoryOrderRepository implements order.Repository in process memory. It
// gives the same single-winner guarantee for MarkCompleted as the Postgres
// implementation by holding the write lock across the read-check-write, and
// is used by tests and local development without a database.
type MemoryOrderRepository struct {
	mu     sync.RWMutex
	orders map[string]*order.Order
	byRef  map[string]string
}

// NewMemoryOrderRepository returns an empty in-memory repository.
func NewMemoryOrderRepository() *MemoryOrderRepository {
	return &MemoryOrderRepository{
		orders: make(map[string]*order.Order),
		byRef:  make(map[string]string),
	}
}

// Create persists a new pending order.
func (r *MemoryOrderRepository) Create(_ context.Context, o *order.Order) error {
	if err := o.Validate(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.orders[o.ID]; exists {
		return errors.Errorf("order %q already exists", o.ID)
	}
	if _, exists := r.byRef[o.PaymentReference]; exists {
		return errors.Errorf("payment reference %q already exists", o.PaymentReference)
	}

	cp := cloneOrder(o)
	r.orders[o.ID] = cp
	r.byRef[o.PaymentReference] = o.ID
	return nil
}

// GetByID returns a copy of the order or order.ErrNotFound.
func (r *MemoryOrderRepository) GetByID(_ context.Context, id string) (*order.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	o, ok := r.orders[id]
	if !ok {
		return nil, order.ErrNotFound
	}
	return cloneOrder(o), nil
}

// MarkCompleted transitions a pending order to completed, atomically with
// respect to other callers.
func (r *MemoryOrderRepository) MarkCompleted(_ context.Context, id string, e order.ESIM) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	o, ok := r.orders[id]
	if !ok {
		return false, order.ErrNotFound
	}
	if o.Status == order.StatusCompleted {
		return false, nil
	}
	if o.Status != order.StatusPending {
		return false, order.ErrInvalidState
	}

	o.Status = order.StatusCompleted
	esim := e
	o.ESIM = &esim
	o.UpdatedAt = nowUTC()
	return true, nil
}

// ListRecent returns up to limit orders, newest first.
func (r *MemoryOrderRepository) ListRecent(_ context.Context, limit int) ([]order.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]order.Order, 0, len(r.orders))
	for _, o := range r.orders {
		out = append(out, *cloneOrder(o))
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// Stats computes the aggregate counters under one lock hold, so the four
// numbers always describe the same snapshot.
func (r *MemoryOrderRepository) Stats(_ context.Context) (order.Stats, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	s := order.Stats{TotalRevenue: decimal.Zero}
	emails := make(map[string]struct{}, len(r.orders))
	for _, o := range r.orders {
		s.TotalOrders++
		emails[o.Email] = struct{}{}
		if o.Status == order.StatusCompleted {
			s.CompletedOrders++
			s.TotalRevenue = s.TotalRevenue.Add(o.Amount)
		}
	}
	s.TotalCustomers = int64(len(emails))
	return s, nil
}

func nowUTC() time.Time {
	return time.Now().UTC()
}

func cloneOrder(o *order.Order) *order.Order {
	cp := *o
	if o.ESIM != nil {
		esim := *o.ESIM
		cp.ESIM = &esim
	}
	return &cp
}
