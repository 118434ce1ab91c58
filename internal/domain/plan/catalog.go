package plan

import (
	"context"
	_ "embed"
	"encoding/json"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// seedData holds the offerable plans shipped with the binary. The file order
// is the catalog order.
//
//go:embed plans.json
var seedData []byte

// seedPlan mirrors the JSON seed file layout.
type seedPlan struct {
	ID       string          `json:"id"`
	Name     string          `json:"name"`
	Country  string          `json:"country"`
	Data     string          `json:"data"`
	Duration string          `json:"duration"`
	Price    decimal.Decimal `json:"price"`
	Speed    string          `json:"speed"`
}

var _ Repository = (*Catalog)(nil)

// Catalog is an immutable in-memory plan repository. It is safe for
// concurrent use without locking because it is never mutated after creation.
type Catalog struct {
	plans []Plan
	byID  map[string]int
}

// NewCatalog builds a Catalog from the embedded seed file.
func NewCatalog() (*Catalog, error) {
	return newCatalogFromJSON(seedData)
}

func newCatalogFromJSON(data []byte) (*Catalog, error) {
	var seeds []seedPlan
	if err := json.Unmarshal(data, &seeds); err != nil {
		return nil, errors.Wrap(err, "parse plan seed")
	}
	if len(seeds) == 0 {
		return nil, errors.New("plan seed is empty")
	}

	c := &Catalog{
		plans: make([]Plan, len(seeds)),
		byID:  make(map[string]int, len(seeds)),
	}
	for i, s := range seeds {
		if s.ID == "" {
			return nil, errors.Errorf("plan seed entry %d has no id", i)
		}
		if _, dup := c.byID[s.ID]; dup {
			return nil, errors.Errorf("duplicate plan id %q in seed", s.ID)
		}
		c.plans[i] = Plan{
			ID:            s.ID,
			Name:          s.Name,
			Country:       s.Country,
			DataAllowance: s.Data,
			DurationDays:  s.Duration,
			Price:         s.Price,
			SpeedTier:     s.Speed,
		}
		c.byID[s.ID] = i
	}
	return c, nil
}

// List returns all plans in seed-file order. The returned slice is a copy.
func (c *Catalog) List(_ context.Context) ([]Plan, error) {
	out := make([]Plan, len(c.plans))
	copy(out, c.plans)
	return out, nil
}

// GetByID returns the plan with the given id, or ErrNotFound.
func (c *Catalog) GetByID(_ context.Context, id string) (*Plan, error) {
	i, ok := c.byID[id]
	if !ok {
		return nil, ErrNotFound
	}
	p := c.plans[i]
	return &p, nil
}
