package services

import (
	"context"
	"encoding/json"
	"fmt"

	"shiv-telegram/models"
	"shiv-telegram/storage"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// CartLine is one selected menu item with its quantity. Quantity is always
// positive while the line exists; a line that would reach zero is removed.
type CartLine struct {
	ItemID   string          `json:"_id"`
	Name     string          `json:"name"`
	Price    decimal.Decimal `json:"price"`
	Quantity int             `json:"quantity"`
}

// CartStore keeps the per-user cart in durable storage under a single key,
// replacing the stored value on every mutation.
type CartStore struct {
	store  storage.Store
	logger *zap.Logger
}

func NewCartStore(st storage.Store, logger *zap.Logger) *CartStore {
	return &CartStore{store: st, logger: logger}
}

// Load reads the current cart. Malformed stored JSON degrades to an empty
// cart instead of failing.
func (c *CartStore) Load(ctx context.Context, userID int64) ([]CartLine, error) {
	raw, ok, err := c.store.Get(ctx, userID, storage.KeyCart)
	if err != nil {
		return nil, fmt.Errorf("load cart: %w", err)
	}
	if !ok || len(raw) == 0 {
		return []CartLine{}, nil
	}
	var lines []CartLine
	if err := json.Unmarshal(raw, &lines); err != nil {
		c.logger.Warn("stored cart is malformed, resetting to empty",
			zap.Int64("user_id", userID), zap.Error(err))
		return []CartLine{}, nil
	}
	return lines, nil
}

// AddOrIncrease merges by item id: an existing line's quantity is bumped by
// delta (which may be negative), otherwise a new line is created with
// quantity = delta. A resulting quantity <= 0 deletes the line.
func (c *CartStore) AddOrIncrease(ctx context.Context, userID int64, item models.MenuItem, delta int) ([]CartLine, error) {
	lines, err := c.Load(ctx, userID)
	if err != nil {
		return nil, err
	}
	found := false
	for i := range lines {
		if lines[i].ItemID == item.ID {
			lines[i].Quantity += delta
			found = true
			break
		}
	}
	if !found {
		lines = append(lines, CartLine{ItemID: item.ID, Name: item.Name, Price: item.Price, Quantity: delta})
	}
	lines = dropEmpty(lines)
	if err := c.save(ctx, userID, lines); err != nil {
		return nil, err
	}
	return lines, nil
}

// Decrease lowers the line's quantity by one and drops the line once it
// reaches zero. Unknown ids are a no-op.
func (c *CartStore) Decrease(ctx context.Context, userID int64, itemID string) ([]CartLine, error) {
	lines, err := c.Load(ctx, userID)
	if err != nil {
		return nil, err
	}
	for i := range lines {
		if lines[i].ItemID == itemID {
			lines[i].Quantity--
			break
		}
	}
	lines = dropEmpty(lines)
	if err := c.save(ctx, userID, lines); err != nil {
		return nil, err
	}
	return lines, nil
}

// Remove deletes the line regardless of quantity.
func (c *CartStore) Remove(ctx context.Context, userID int64, itemID string) ([]CartLine, error) {
	lines, err := c.Load(ctx, userID)
	if err != nil {
		return nil, err
	}
	kept := lines[:0]
	for _, l := range lines {
		if l.ItemID != itemID {
			kept = append(kept, l)
		}
	}
	if err := c.save(ctx, userID, kept); err != nil {
		return nil, err
	}
	return kept, nil
}

// Clear empties the cart.
func (c *CartStore) Clear(ctx context.Context, userID int64) error {
	if err := c.store.Remove(ctx, userID, storage.KeyCart); err != nil {
		return fmt.Errorf("clear cart: %w", err)
	}
	return nil
}

func (c *CartStore) save(ctx context.Context, userID int64, lines []CartLine) error {
	raw, err := json.Marshal(lines)
	if err != nil {
		return fmt.Errorf("marshal cart: %w", err)
	}
	if err := c.store.Set(ctx, userID, storage.KeyCart, raw); err != nil {
		return fmt.Errorf("save cart: %w", err)
	}
	return nil
}

func dropEmpty(lines []CartLine) []CartLine {
	kept := lines[:0]
	for _, l := range lines {
		if l.Quantity > 0 {
			kept = append(kept, l)
		}
	}
	return kept
}

// TotalCount is the sum of line quantities (the cart badge number).
func TotalCount(lines []CartLine) int {
	n := 0
	for _, l := range lines {
		n += l.Quantity
	}
	return n
}

// TotalCost is the sum of price × quantity over all lines.
func TotalCost(lines []CartLine) decimal.Decimal {
	total := decimal.Zero
	for _, l := range lines {
		total = total.Add(l.Price.Mul(decimal.NewFromInt(int64(l.Quantity))))
	}
	return total
}

// FormatAmount renders a money value the way the restaurant displays it.
func FormatAmount(d decimal.Decimal) string {
	return "₹" + d.StringFixed(2)
}
