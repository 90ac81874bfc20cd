package cart_test

import (
	"context"
	"testing"

	"farmart/internal/cart"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCart_AddAndItems(t *testing.T) {
	ctx := context.Background()
	c := cart.New(cart.NewMemoryStore(0), 0)

	items, err := c.Items(ctx, "buyer-1")
	require.NoError(t, err)
	assert.Empty(t, items)

	require.NoError(t, c.Add(ctx, "buyer-1", cart.Line{AnimalID: "a1", Price: 500}))
	require.NoError(t, c.Add(ctx, "buyer-1", cart.Line{AnimalID: "a2", Price: 150}))

	items, err = c.Items(ctx, "buyer-1")
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "a1", items[0].AnimalID)
	assert.Equal(t, "a2", items[1].AnimalID)

	total, err := c.Total(ctx, "buyer-1")
	require.NoError(t, err)
	assert.Equal(t, float64(650), total)
}

func TestCart_AddIsIdempotent(t *testing.T) {
	ctx := context.Background()
	c := cart.New(cart.NewMemoryStore(0), 0)

	require.NoError(t, c.Add(ctx, "buyer-1", cart.Line{AnimalID: "a1", Price: 500}))
	require.NoError(t, c.Add(ctx, "buyer-1", cart.Line{AnimalID: "a1", Price: 500}))

	items, err := c.Items(ctx, "buyer-1")
	require.NoError(t, err)
	assert.Len(t, items, 1)
}

func TestCart_CartsAreIsolatedByBuyer(t *testing.T) {
	ctx := context.Background()
	c := cart.New(cart.NewMemoryStore(0), 0)

	require.NoError(t, c.Add(ctx, "buyer-1", cart.Line{AnimalID: "a1", Price: 500}))

	items, err := c.Items(ctx, "buyer-2")
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestCart_RejectsAtCapacity(t *testing.T) {
	ctx := context.Background()
	c := cart.New(cart.NewMemoryStore(0), 2)

	require.NoError(t, c.Add(ctx, "buyer-1", cart.Line{AnimalID: "a1", Price: 100}))
	require.NoError(t, c.Add(ctx, "buyer-1", cart.Line{AnimalID: "a2", Price: 100}))

	err := c.Add(ctx, "buyer-1", cart.Line{AnimalID: "a3", Price: 100})
	assert.ErrorIs(t, err, cart.ErrCartFull)

	// Re-adding an existing line is still a no-op, not a capacity error.
	assert.NoError(t, c.Add(ctx, "buyer-1", cart.Line{AnimalID: "a1", Price: 100}))

	items, err := c.Items(ctx, "buyer-1")
	require.NoError(t, err)
	assert.Len(t, items, 2)
}

func TestCart_QuotaEvictsOldestHalf(t *testing.T) {
	ctx := context.Background()
	// Four encoded lines fit in 140 bytes, five do not; the retry after
	// evicting the oldest half keeps three.
	c := cart.New(cart.NewMemoryStore(140), 0)

	for _, id := range []string{"a1", "a2", "a3", "a4"} {
		require.NoError(t, c.Add(ctx, "buyer-1", cart.Line{AnimalID: id, Price: 100}))
	}
	require.NoError(t, c.Add(ctx, "buyer-1", cart.Line{AnimalID: "a5", Price: 100}))

	items, err := c.Items(ctx, "buyer-1")
	require.NoError(t, err)
	require.Len(t, items, 3)
	assert.Equal(t, "a3", items[0].AnimalID)
	assert.Equal(t, "a4", items[1].AnimalID)
	assert.Equal(t, "a5", items[2].AnimalID)
}

func TestCart_RemoveAndClear(t *testing.T) {
	ctx := context.Background()
	c := cart.New(cart.NewMemoryStore(0), 0)

	require.NoError(t, c.Add(ctx, "buyer-1", cart.Line{AnimalID: "a1", Price: 500}))
	require.NoError(t, c.Add(ctx, "buyer-1", cart.Line{AnimalID: "a2", Price: 150}))

	require.NoError(t, c.Remove(ctx, "buyer-1", "a1"))
	items, err := c.Items(ctx, "buyer-1")
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "a2", items[0].AnimalID)

	// Removing an absent id is a no-op.
	require.NoError(t, c.Remove(ctx, "buyer-1", "a9"))

	require.NoError(t, c.Clear(ctx, "buyer-1"))
	items, err = c.Items(ctx, "buyer-1")
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestMemoryStore_GetReturnsCopy(t *testing.T) {
	ctx := context.Background()
	store := cart.NewMemoryStore(0)

	require.NoError(t, store.Set(ctx, "k", []byte("abc")))
	value, err := store.Get(ctx, "k")
	require.NoError(t, err)
	value[0] = 'z'

	again, err := store.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, []byte("abc"), again)
}

func TestMemoryStore_QuotaSpansKeys(t *testing.T) {
	ctx := context.Background()
	store := cart.NewMemoryStore(10)

	require.NoError(t, store.Set(ctx, "a", []byte("12345")))
	require.NoError(t, store.Set(ctx, "b", []byte("12345")))

	err := store.Set(ctx, "c", []byte("1"))
	assert.ErrorIs(t, err, cart.ErrQuotaExceeded)

	// Overwriting a key counts the new value, not both.
	assert.NoError(t, store.Set(ctx, "a", []byte("54321")))

	require.NoError(t, store.Delete(ctx, "a"))
	assert.NoError(t, store.Set(ctx, "c", []byte("1")))
}
