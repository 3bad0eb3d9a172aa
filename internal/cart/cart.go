package cart

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/okravets/coffeehouse/internal/models"
	"github.com/okravets/coffeehouse/internal/session"
)

const sessionKey = "cart"

// ErrDishNotFound reports a cart line whose dish id no longer exists in the
// catalog.
var ErrDishNotFound = errors.New("dish not found")

// Cart is the per-visitor mapping of dish id to quantity. It lives in the
// session store only and is cleared on successful checkout.
type Cart struct {
	Items map[uint]uint `json:"items"`
}

func New() *Cart {
	return &Cart{Items: make(map[uint]uint)}
}

// Load reads the visitor's cart from the session store. An absent or
// unreadable entry yields an empty cart.
func Load(ctx context.Context, store session.Store, sid string) (*Cart, error) {
	raw, err := store.Get(ctx, sid, sessionKey)
	if err != nil {
		return nil, fmt.Errorf("session read: %w", err)
	}
	c := New()
	if len(raw) == 0 {
		return c, nil
	}
	if err := json.Unmarshal(raw, c); err != nil {
		return New(), nil
	}
	if c.Items == nil {
		c.Items = make(map[uint]uint)
	}
	return c, nil
}

// Save rewrites the whole mapping back into the session store.
func (c *Cart) Save(ctx context.Context, store session.Store, sid string) error {
	raw, err := json.Marshal(c)
	if err != nil {
		return fmt.Errorf("cart marshal: %w", err)
	}
	if err := store.Set(ctx, sid, sessionKey, raw); err != nil {
		return fmt.Errorf("session write: %w", err)
	}
	return nil
}

func Clear(ctx context.Context, store session.Store, sid string) error {
	return store.Delete(ctx, sid, sessionKey)
}

// Add increments the stored quantity for the dish by qty.
func (c *Cart) Add(dishID, qty uint) {
	c.Items[dishID] += qty
}

// Remove deletes the entry if present.
func (c *Cart) Remove(dishID uint) {
	delete(c.Items, dishID)
}

// Update overwrites the quantity only when the entry exists and qty > 0.
// An update with qty <= 0 or for a missing entry is a no-op, not a removal.
func (c *Cart) Update(dishID uint, qty int) {
	if qty <= 0 {
		return
	}
	if _, ok := c.Items[dishID]; !ok {
		return
	}
	c.Items[dishID] = uint(qty)
}

func (c *Cart) TotalCount() uint {
	var total uint
	for _, qty := range c.Items {
		total += qty
	}
	return total
}

// TotalAmount recomputes the cart value from live catalog prices. Prices are
// not snapshotted here; that happens at checkout.
func (c *Cart) TotalAmount(db *gorm.DB) (decimal.Decimal, error) {
	total := decimal.Zero
	for dishID, qty := range c.Items {
		var dish models.Dish
		if err := db.First(&dish, dishID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return decimal.Zero, fmt.Errorf("%w: id %d", ErrDishNotFound, dishID)
			}
			return decimal.Zero, err
		}
		total = total.Add(dish.Price.Mul(decimal.NewFromUint64(uint64(qty))))
	}
	return total, nil
}
