// Package cart holds a buyer's selected animals between browsing and
// checkout. Carts are keyed by buyer and persisted through a small
// key-value Store so they survive sessions.
package cart

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
)

// DefaultMaxItems bounds how many lines a cart may hold.
const DefaultMaxItems = 50

// ErrCartFull is returned when an add would exceed the line capacity. The
// policy is to reject the add, not to evict.
var ErrCartFull = errors.New("cart is full")

// Line is a denormalized cart line: only the listing id and its price
// snapshot are persisted, not the full animal.
type Line struct {
	AnimalID string  `json:"animalId"`
	Price    float64 `json:"price"`
}

// Cart manages per-buyer cart contents on top of a Store.
type Cart struct {
	store    Store
	maxItems int
}

// New creates a Cart. maxItems <= 0 falls back to DefaultMaxItems.
func New(store Store, maxItems int) *Cart {
	if maxItems <= 0 {
		maxItems = DefaultMaxItems
	}
	return &Cart{
		store:    store,
		maxItems: maxItems,
	}
}

func cartKey(buyerID string) string {
	return "cart:" + buyerID
}

// Items returns the buyer's cart lines in the order they were added.
func (c *Cart) Items(ctx context.Context, buyerID string) ([]Line, error) {
	raw, err := c.store.Get(ctx, cartKey(buyerID))
	if err != nil {
		return nil, fmt.Errorf("failed to load cart for %s: %w", buyerID, err)
	}
	if raw == nil {
		return []Line{}, nil
	}
	var lines []Line
	if err := json.Unmarshal(raw, &lines); err != nil {
		return nil, fmt.Errorf("failed to decode cart for %s: %w", buyerID, err)
	}
	return lines, nil
}

// Add appends a line to the buyer's cart. Adding an animal already in the
// cart is a no-op. A cart at capacity rejects the add with ErrCartFull.
// When the store runs out of quota, the oldest half of the lines is evicted
// and the write retried once.
func (c *Cart) Add(ctx context.Context, buyerID string, line Line) error {
	lines, err := c.Items(ctx, buyerID)
	if err != nil {
		return err
	}

	for _, existing := range lines {
		if existing.AnimalID == line.AnimalID {
			return nil
		}
	}

	if len(lines) >= c.maxItems {
		return fmt.Errorf("cart already holds %d items: %w", len(lines), ErrCartFull)
	}

	lines = append(lines, line)
	if err := c.save(ctx, buyerID, lines); err != nil {
		if errors.Is(err, ErrQuotaExceeded) {
			// Drop the oldest half to make room; the new line sits in
			// the kept half.
			lines = lines[len(lines)/2:]
			return c.save(ctx, buyerID, lines)
		}
		return err
	}
	return nil
}

// Remove drops the line for the given animal. Removing an absent id is a
// no-op.
func (c *Cart) Remove(ctx context.Context, buyerID, animalID string) error {
	lines, err := c.Items(ctx, buyerID)
	if err != nil {
		return err
	}

	kept := lines[:0]
	for _, line := range lines {
		if line.AnimalID != animalID {
			kept = append(kept, line)
		}
	}
	if len(kept) == len(lines) {
		return nil
	}
	return c.save(ctx, buyerID, kept)
}

// Clear empties the buyer's cart.
func (c *Cart) Clear(ctx context.Context, buyerID string) error {
	if err := c.store.Delete(ctx, cartKey(buyerID)); err != nil {
		return fmt.Errorf("failed to clear cart for %s: %w", buyerID, err)
	}
	return nil
}

// Total returns the sum of the stored line prices.
func (c *Cart) Total(ctx context.Context, buyerID string) (float64, error) {
	lines, err := c.Items(ctx, buyerID)
	if err != nil {
		return 0, err
	}
	var total float64
	for _, line := range lines {
		total += line.Price
	}
	return total, nil
}

func (c *Cart) save(ctx context.Context, buyerID string, lines []Line) error {
	raw, err := json.Marshal(lines)
	if err != nil {
		return fmt.Errorf("failed to encode cart for %s: %w", buyerID, err)
	}
	if err := c.store.Set(ctx, cartKey(buyerID), raw); err != nil {
		if errors.Is(err, ErrQuotaExceeded) {
			return err
		}
		return fmt.Errorf("failed to store cart for %s: %w", buyerID, err)
	}
	return nil
}
