package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func item(color, size string, qty, reserved, threshold int) InventoryItem {
	return InventoryItem{
		ProductID:         1,
		ProductName:       "Performance T-Shirt",
		Color:             color,
		Size:              size,
		Quantity:          qty,
		Reserved:          reserved,
		LowStockThreshold: threshold,
	}
}

// ============================================================================
// Availability
// ============================================================================

func TestInventoryItem_Available(t *testing.T) {
	it := item("Black", "M", 25, 7, 5)
	assert.Equal(t, 18, it.Available())
	assert.False(t, it.IsLowStock())
	assert.False(t, it.IsOutOfStock())
}

func TestInventoryItem_LowStockExcludesSoldOut(t *testing.T) {
	low := item("Black", "S", 10, 6, 5)
	assert.True(t, low.IsLowStock())

	gone := item("Black", "XS", 5, 5, 5)
	assert.False(t, gone.IsLowStock())
	assert.True(t, gone.IsOutOfStock())
}

func TestInventoryItem_Level(t *testing.T) {
	it := item("White", "L", 20, 16, 5)
	lvl := it.Level()

	assert.Equal(t, 4, lvl.Available)
	assert.True(t, lvl.InStock)
	assert.True(t, lvl.LowStock)
	assert.Equal(t, 20, lvl.Quantity)
	assert.Equal(t, 16, lvl.Reserved)
	assert.Equal(t, 5, lvl.Threshold)

	emptyItem := item("White", "XS", 0, 0, 5)
	empty := emptyItem.Level()
	assert.False(t, empty.InStock)
	assert.True(t, empty.LowStock)
}

func TestStockRequest_Key(t *testing.T) {
	r := StockRequest{ProductID: 2, Color: "Black", Size: "M", Quantity: 1}
	assert.Equal(t, VariantKey{ProductID: 2, Color: "Black", Size: "M"}, r.Key())
	assert.Equal(t, "2/Black/M", r.Key().String())
}

// ============================================================================
// Aggregates
// ============================================================================

func TestBuildProductStock(t *testing.T) {
	grid := BuildProductStock([]InventoryItem{
		item("Black", "S", 20, 0, 5),
		item("Black", "M", 25, 22, 5),
		item("White", "S", 20, 1, 5),
	})

	require.Len(t, grid, 2)
	assert.Equal(t, VariantStock{Total: 25, Available: 3, LowStock: true}, grid["Black"]["M"])
	assert.Equal(t, 19, grid["White"]["S"].Available)
	assert.False(t, grid["Black"]["S"].LowStock)
}

func TestComputeInventoryStats(t *testing.T) {
	stats := ComputeInventoryStats([]InventoryItem{
		item("Black", "XS", 15, 0, 5),
		item("Black", "S", 20, 17, 5),
		item("Black", "M", 25, 24, 5),
		item("Black", "L", 0, 0, 5),
	})

	assert.Equal(t, 4, stats.TotalVariants)
	assert.Equal(t, 60, stats.TotalUnits)
	assert.Equal(t, 41, stats.TotalReserved)
	assert.Equal(t, 19, stats.TotalAvailable)
	assert.Equal(t, 2, stats.LowStockCount)
	assert.Equal(t, 1, stats.OutOfStockCount)

	require.Len(t, stats.LowStockItems, 2)
	assert.Equal(t, "M", stats.LowStockItems[0].Size, "scarcest first")
	assert.Equal(t, "L", stats.OutOfStockItems[0].Size)
}

func TestComputeInventoryStats_CapsLowStockList(t *testing.T) {
	var items []InventoryItem
	for i := 0; i < 15; i++ {
		items = append(items, item("Black", string(rune('A'+i)), 3, 0, 5))
	}
	stats := ComputeInventoryStats(items)

	assert.Equal(t, 15, stats.LowStockCount)
	assert.Len(t, stats.LowStockItems, lowStockListLimit)
}

func TestComputeInventoryStats_Empty(t *testing.T) {
	stats := ComputeInventoryStats(nil)
	assert.Zero(t, stats.TotalVariants)
	assert.NotNil(t, stats.LowStockItems)
	assert.NotNil(t, stats.OutOfStockItems)
}
