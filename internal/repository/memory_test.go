package repository

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ajayishaq/rromisim/internal/domain/order"
)

func newOrder(id, email, amount string, createdAt time.Time) *order.Order {
	return &order.Order{
		ID:               id,
		PlanID:           "9",
		Phone:            "+15550100",
		Email:            email,
		Status:           order.StatusPending,
		PaymentReference: "ref_" + id,
		Amount:           decimal.RequireFromString(amount),
		CreatedAt:        createdAt,
		UpdatedAt:        createdAt,
	}
}

func testESIM() order.ESIM {
	return order.ESIM{
		ICCID:          "8944000011112222333",
		QRURL:          "https://qr.example/x",
		ActivationCode: "LPA:1$rromisim.com$1",
	}
}

func TestMemoryCreate_Validation(t *testing.T) {
	r := NewMemoryOrderRepository()

	o := newOrder("o1", "a@example.com", "10.00", time.Now())
	o.Email = ""

	err := r.Create(context.Background(), o)
	var vErr *order.ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Equal(t, "email", vErr.Field)

	_, err = r.GetByID(context.Background(), "o1")
	require.ErrorIs(t, err, order.ErrNotFound, "failed create must write nothing")
}

func TestMemoryCreate_DuplicateID(t *testing.T) {
	r := NewMemoryOrderRepository()
	require.NoError(t, r.Create(context.Background(), newOrder("o1", "a@example.com", "10.00", time.Now())))

	dup := newOrder("o1", "a@example.com", "10.00", time.Now())
	dup.PaymentReference = "ref_other"
	require.Error(t, r.Create(context.Background(), dup))
}

func TestMemoryGetByID_ReturnsCopy(t *testing.T) {
	r := NewMemoryOrderRepository()
	require.NoError(t, r.Create(context.Background(), newOrder("o1", "a@example.com", "10.00", time.Now())))

	got, err := r.GetByID(context.Background(), "o1")
	require.NoError(t, err)
	got.Email = "mutated@example.com"

	again, err := r.GetByID(context.Background(), "o1")
	require.NoError(t, err)
	assert.Equal(t, "a@example.com", again.Email)
}

func TestMemoryMarkCompleted_SetsStatusAndESIMTogether(t *testing.T) {
	r := NewMemoryOrderRepository()
	require.NoError(t, r.Create(context.Background(), newOrder("o1", "a@example.com", "10.00", time.Now())))

	won, err := r.MarkCompleted(context.Background(), "o1", testESIM())
	require.NoError(t, err)
	assert.True(t, won)

	got, err := r.GetByID(context.Background(), "o1")
	require.NoError(t, err)
	assert.Equal(t, order.StatusCompleted, got.Status)
	require.NotNil(t, got.ESIM)
	assert.Equal(t, "8944000011112222333", got.ESIM.ICCID)
}

func TestMemoryMarkCompleted_IdempotentAndNotFound(t *testing.T) {
	r := NewMemoryOrderRepository()
	require.NoError(t, r.Create(context.Background(), newOrder("o1", "a@example.com", "10.00", time.Now())))

	won, err := r.MarkCompleted(context.Background(), "o1", testESIM())
	require.NoError(t, err)
	assert.True(t, won)

	// Second completion is a no-op success, not an error.
	won, err = r.MarkCompleted(context.Background(), "o1", testESIM())
	require.NoError(t, err)
	assert.False(t, won)

	_, err = r.MarkCompleted(context.Background(), "missing", testESIM())
	require.ErrorIs(t, err, order.ErrNotFound)
}

func TestMemoryMarkCompleted_ConcurrentSingleWinner(t *testing.T) {
	r := NewMemoryOrderRepository()
	require.NoError(t, r.Create(context.Background(), newOrder("o1", "a@example.com", "10.00", time.Now())))

	const callers = 16
	var wg sync.WaitGroup
	wins := make(chan bool, callers)
	for range callers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			won, err := r.MarkCompleted(context.Background(), "o1", testESIM())
			assert.NoError(t, err)
			wins <- won
		}()
	}
	wg.Wait()
	close(wins)

	winners := 0
	for won := range wins {
		if won {
			winners++
		}
	}
	assert.Equal(t, 1, winners, "exactly one caller performs the transition")
}

func TestMemoryListRecent_NewestFirstBounded(t *testing.T) {
	r := NewMemoryOrderRepository()
	base := time.Now().Add(-time.Hour)
	for i := range 5 {
		o := newOrder(fmt.Sprintf("o%d", i), "a@example.com", "10.00", base.Add(time.Duration(i)*time.Minute))
		require.NoError(t, r.Create(context.Background(), o))
	}

	got, err := r.ListRecent(context.Background(), 3)
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, "o4", got[0].ID)
	assert.Equal(t, "o3", got[1].ID)
	assert.Equal(t, "o2", got[2].ID)
}

func TestMemoryStats_Fixture(t *testing.T) {
	r := NewMemoryOrderRepository()
	now := time.Now()

	a := newOrder("o1", "alice@example.com", "10.00", now)
	b := newOrder("o2", "bob@example.com", "20.00", now)
	c := newOrder("o3", "alice@example.com", "5.00", now)
	for _, o := range []*order.Order{a, b, c} {
		require.NoError(t, r.Create(context.Background(), o))
	}
	for _, id := range []string{"o1", "o2"} {
		won, err := r.MarkCompleted(context.Background(), id, testESIM())
		require.NoError(t, err)
		require.True(t, won)
	}

	s, err := r.Stats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(3), s.TotalOrders)
	assert.Equal(t, int64(2), s.CompletedOrders)
	assert.True(t, decimal.RequireFromString("30.00").Equal(s.TotalRevenue), "got %s", s.TotalRevenue)
	assert.Equal(t, int64(2), s.TotalCustomers)
}
