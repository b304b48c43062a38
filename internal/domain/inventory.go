package domain

import (
	"fmt"
	"sort"
	"time"
)

// DefaultLowStockThreshold is applied to variants created without one.
const DefaultLowStockThreshold = 5

// VariantKey identifies one sellable variant.
type VariantKey struct {
	ProductID int    `json:"product_id"`
	Color     string `json:"color"`
	Size      string `json:"size"`
}

func (k VariantKey) String() string {
	return fmt.Sprintf("%d/%s/%s", k.ProductID, k.Color, k.Size)
}

// InventoryItem is the stock row of a single variant.
type InventoryItem struct {
	ProductID         int       `json:"product_id"`
	ProductName       string    `json:"product_name"`
	Color             string    `json:"color"`
	Size              string    `json:"size"`
	Quantity          int       `json:"quantity"`
	Reserved          int       `json:"reserved"`
	LowStockThreshold int       `json:"low_stock_threshold"`
	UpdatedAt         time.Time `json:"updated_at"`
}

// Key returns the variant key of the row.
func (i *InventoryItem) Key() VariantKey {
	return VariantKey{ProductID: i.ProductID, Color: i.Color, Size: i.Size}
}

// Available returns the units that can still be reserved.
func (i *InventoryItem) Available() int {
	return i.Quantity - i.Reserved
}

// IsLowStock reports whether the variant is still sellable but at or below
// its threshold.
func (i *InventoryItem) IsLowStock() bool {
	a := i.Available()
	return a > 0 && a <= i.LowStockThreshold
}

// IsOutOfStock reports whether nothing is left to reserve.
func (i *InventoryItem) IsOutOfStock() bool {
	return i.Available() <= 0
}

// Level projects the row into the availability answer of a stock check.
func (i *InventoryItem) Level() StockLevel {
	a := i.Available()
	return StockLevel{
		ProductID: i.ProductID,
		Color:     i.Color,
		Size:      i.Size,
		Available: a,
		InStock:   a > 0,
		LowStock:  a <= i.LowStockThreshold,
		Quantity:  i.Quantity,
		Reserved:  i.Reserved,
		Threshold: i.LowStockThreshold,
	}
}

// StockRequest asks for a quantity of one variant.
type StockRequest struct {
	ProductID   int    `json:"product_id" validate:"required,gt=0"`
	ProductName string `json:"product_name,omitempty"`
	Color       string `json:"color" validate:"required"`
	Size        string `json:"size" validate:"required"`
	Quantity    int    `json:"quantity" validate:"required,gt=0"`
}

// Key returns the variant key the request targets.
func (r StockRequest) Key() VariantKey {
	return VariantKey{ProductID: r.ProductID, Color: r.Color, Size: r.Size}
}

// StockBatch is the body of reserve, release and commit calls. SessionID
// ties the call to a checkout session in the emitted events.
type StockBatch struct {
	SessionID string         `json:"session_id,omitempty"`
	Items     []StockRequest `json:"items" validate:"required,min=1,dive"`
	// FromHold lets a commit convert an existing hold.
	FromHold bool `json:"from_hold,omitempty"`
}

// StockLevel is the answer to an availability check.
type StockLevel struct {
	ProductID int    `json:"product_id"`
	Color     string `json:"color"`
	Size      string `json:"size"`
	Available int    `json:"available"`
	InStock   bool   `json:"in_stock"`
	LowStock  bool   `json:"low_stock"`
	Quantity  int    `json:"quantity"`
	Reserved  int    `json:"reserved"`
	Threshold int    `json:"threshold"`
}

// VariantStock is one cell of the per-product color/size grid.
type VariantStock struct {
	Total     int  `json:"total"`
	Available int  `json:"available"`
	LowStock  bool `json:"low_stock"`
}

// ProductStock groups a product's variants by color, then size.
type ProductStock map[string]map[string]VariantStock

// BuildProductStock folds rows of one product into a color/size grid.
func BuildProductStock(items []InventoryItem) ProductStock {
	grid := make(ProductStock)
	for i := range items {
		it := &items[i]
		if grid[it.Color] == nil {
			grid[it.Color] = make(map[string]VariantStock)
		}
		grid[it.Color][it.Size] = VariantStock{
			Total:     it.Quantity,
			Available: it.Available(),
			LowStock:  it.Available() <= it.LowStockThreshold,
		}
	}
	return grid
}

// InventoryUpdate is an admin change to a variant. Nil fields are left
// untouched.
type InventoryUpdate struct {
	ProductID         int    `json:"product_id" validate:"required,gt=0"`
	Color             string `json:"color" validate:"required"`
	Size              string `json:"size" validate:"required"`
	Quantity          *int   `json:"quantity,omitempty" validate:"omitempty,gte=0"`
	LowStockThreshold *int   `json:"low_stock_threshold,omitempty" validate:"omitempty,gte=0"`
}

// Key returns the variant key the update targets.
func (u InventoryUpdate) Key() VariantKey {
	return VariantKey{ProductID: u.ProductID, Color: u.Color, Size: u.Size}
}

// BulkInventoryUpdate applies several admin updates in one call.
type BulkInventoryUpdate struct {
	Updates []InventoryUpdate `json:"updates" validate:"required,min=1,dive"`
}

// lowStockListLimit caps the low stock list in the stats answer.
const lowStockListLimit = 10

// InventoryStats summarizes the whole ledger for the admin dashboard.
type InventoryStats struct {
	TotalVariants   int             `json:"total_variants"`
	TotalUnits      int             `json:"total_units"`
	TotalReserved   int             `json:"total_reserved"`
	TotalAvailable  int             `json:"total_available"`
	LowStockCount   int             `json:"low_stock_count"`
	OutOfStockCount int             `json:"out_of_stock_count"`
	LowStockItems   []InventoryItem `json:"low_stock_items"`
	OutOfStockItems []InventoryItem `json:"out_of_stock_items"`
}

// ComputeInventoryStats aggregates rows. Low stock items are listed with the
// scarcest first.
func ComputeInventoryStats(items []InventoryItem) InventoryStats {
	stats := InventoryStats{
		TotalVariants:   len(items),
		LowStockItems:   []InventoryItem{},
		OutOfStockItems: []InventoryItem{},
	}
	for _, it := range items {
		stats.TotalUnits += it.Quantity
		stats.TotalReserved += it.Reserved
		stats.TotalAvailable += it.Available()
		switch {
		case it.IsOutOfStock():
			stats.OutOfStockCount++
			stats.OutOfStockItems = append(stats.OutOfStockItems, it)
		case it.IsLowStock():
			stats.LowStockCount++
			stats.LowStockItems = append(stats.LowStockItems, it)
		}
	}

	sort.SliceStable(stats.LowStockItems, func(a, b int) bool {
		return stats.LowStockItems[a].Available() < stats.LowStockItems[b].Available()
	})
	if len(stats.LowStockItems) > lowStockListLimit {
		stats.LowStockItems = stats.LowStockItems[:lowStockListLimit]
	}
	return stats
}

// StockEvent is the payload of inventory domain events.
type StockEvent struct {
	SessionID string         `json:"session_id,omitempty"`
	Items     []StockRequest `json:"items"`
}

// LowStockEvent is published when a variant crosses its threshold.
type LowStockEvent struct {
	ProductID   int    `json:"product_id"`
	ProductName string `json:"product_name"`
	Color       string `json:"color"`
	Size        string `json:"size"`
	Available   int    `json:"available"`
	Threshold   int    `json:"threshold"`
}

// CommitMode records which guard a commit passed.
type CommitMode string

// Commit outcomes. CommitFromReserved converts a checkout hold into a sale,
// CommitFromAvailable deducts from unreserved stock and CommitShortfall
// means neither guard held.
const (
	CommitFromReserved  CommitMode = "reserved"
	CommitFromAvailable CommitMode = "available"
	CommitShortfall     CommitMode = "shortfall"
)
