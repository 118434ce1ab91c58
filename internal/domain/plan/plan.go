package plan

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// ErrNotFound is returned when a requested plan does not exist.
var ErrNotFound = errors.New("plan not found")

// Plan represents a single offerable eSIM data plan. Plans are loaded once at
// process start and never mutated.
type Plan struct {
	ID            string
	Name          string
	Country       string
	DataAllowance string
	DurationDays  string
	Price         decimal.Decimal
	SpeedTier     string
}

// Repository defines read operations for the plan catalog.
type Repository interface {
	List(ctx context.Context) ([]Plan, error)
	GetByID(ctx context.Context, id string) (*Plan, error)
}
