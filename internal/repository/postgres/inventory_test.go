package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	pgxmock "github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/razeathletics/storefront/internal/domain"
	"github.com/razeathletics/storefront/pkg/database"
	apperrors "github.com/razeathletics/storefront/pkg/errors"
)

// ---------------------------------------------------------------------------
// helpers
// ---------------------------------------------------------------------------

func setupInventoryRepo(t *testing.T) (*InventoryRepository, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := database.NewMockPool()
	require.NoError(t, err)
	return NewInventoryRepository(mock), mock
}

var inventoryCols = []string{
	"product_id", "product_name", "color", "size",
	"quantity", "reserved", "low_stock_threshold", "updated_at",
}

var fixedTime = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

func mustMarshalJSON(t *testing.T, v any) []byte {
	t.Helper()
	b, err := json.Marshal(v)
	require.NoError(t, err)
	return b
}

func inventoryRow(quantity, reserved int) *pgxmock.Rows {
	return pgxmock.NewRows(inventoryCols).
		AddRow(1, "Performance T-Shirt", "Black", "M", quantity, reserved, 5, fixedTime)
}

func shirtRequest(q int) domain.StockRequest {
	return domain.StockRequest{ProductID: 1, ProductName: "Performance T-Shirt", Color: "Black", Size: "M", Quantity: q}
}

// ---------------------------------------------------------------------------
// List / Get
// ---------------------------------------------------------------------------

func TestInventoryRepository_List(t *testing.T) {
	repo, mock := setupInventoryRepo(t)
	defer mock.Close()

	mock.ExpectQuery("SELECT .+ FROM inventory ORDER BY product_id").
		WillReturnRows(inventoryRow(25, 3))

	items, err := repo.List(context.Background())
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, 22, items[0].Available())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestInventoryRepository_ListByProduct_Empty(t *testing.T) {
	repo, mock := setupInventoryRepo(t)
	defer mock.Close()

	mock.ExpectQuery("SELECT .+ FROM inventory WHERE product_id = \\$1").
		WithArgs(9, "Red").
		WillReturnRows(pgxmock.NewRows(inventoryCols))

	items, err := repo.ListByProduct(context.Background(), 9, "Red")
	require.NoError(t, err)
	assert.NotNil(t, items)
	assert.Empty(t, items)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestInventoryRepository_Get_NotFound(t *testing.T) {
	repo, mock := setupInventoryRepo(t)
	defer mock.Close()

	mock.ExpectQuery("SELECT .+ FROM inventory WHERE product_id").
		WithArgs(1, "Pink", "M").
		WillReturnError(pgx.ErrNoRows)

	item, err := repo.Get(context.Background(), domain.VariantKey{ProductID: 1, Color: "Pink", Size: "M"})
	assert.Nil(t, item)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

// ---------------------------------------------------------------------------
// Reserve
// ---------------------------------------------------------------------------

func TestInventoryRepository_Reserve_Success(t *testing.T) {
	repo, mock := setupInventoryRepo(t)
	defer mock.Close()

	mock.ExpectQuery("UPDATE inventory SET reserved = reserved \\+ \\$4").
		WithArgs(1, "Black", "M", 2).
		WillReturnRows(inventoryRow(25, 2))

	item, err := repo.Reserve(context.Background(), shirtRequest(2))
	require.NoError(t, err)
	assert.Equal(t, 2, item.Reserved)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestInventoryRepository_Reserve_Insufficient(t *testing.T) {
	repo, mock := setupInventoryRepo(t)
	defer mock.Close()

	mock.ExpectQuery("UPDATE inventory SET reserved = reserved \\+ \\$4").
		WithArgs(1, "Black", "M", 30).
		WillReturnError(pgx.ErrNoRows)
	mock.ExpectQuery("SELECT .+ FROM inventory WHERE product_id").
		WithArgs(1, "Black", "M").
		WillReturnRows(inventoryRow(25, 0))

	item, err := repo.Reserve(context.Background(), shirtRequest(30))
	assert.Nil(t, item)
	assert.ErrorIs(t, err, apperrors.ErrInsufficientStock)
	assert.EqualError(t, err, "INSUFFICIENT_STOCK: Insufficient stock for Performance T-Shirt (Black, M): insufficient stock")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestInventoryRepository_Reserve_UnknownVariant(t *testing.T) {
	repo, mock := setupInventoryRepo(t)
	defer mock.Close()

	mock.ExpectQuery("UPDATE inventory SET reserved").
		WithArgs(1, "Black", "M", 1).
		WillReturnError(pgx.ErrNoRows)
	mock.ExpectQuery("SELECT .+ FROM inventory WHERE product_id").
		WithArgs(1, "Black", "M").
		WillReturnError(pgx.ErrNoRows)

	_, err := repo.Reserve(context.Background(), shirtRequest(1))
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestInventoryRepository_Reserve_DBError(t *testing.T) {
	repo, mock := setupInventoryRepo(t)
	defer mock.Close()

	mock.ExpectQuery("UPDATE inventory SET reserved").
		WithArgs(1, "Black", "M", 1).
		WillReturnError(errors.New("connection reset"))

	_, err := repo.Reserve(context.Background(), shirtRequest(1))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "reserve inventory 1/Black/M")
	assert.NoError(t, mock.ExpectationsWereMet())
}

// ---------------------------------------------------------------------------
// Release
// ---------------------------------------------------------------------------

func TestInventoryRepository_Release_ClampsAtZero(t *testing.T) {
	repo, mock := setupInventoryRepo(t)
	defer mock.Close()

	cols := append(append([]string{}, inventoryCols...), "prev_reserved")
	mock.ExpectQuery("UPDATE inventory AS i SET reserved = GREATEST").
		WithArgs(1, "Black", "M", 5).
		WillReturnRows(pgxmock.NewRows(cols).
			AddRow(1, "Performance T-Shirt", "Black", "M", 25, 0, 5, fixedTime, 2))

	item, released, err := repo.Release(context.Background(), shirtRequest(5))
	require.NoError(t, err)
	assert.Equal(t, 0, item.Reserved)
	assert.Equal(t, 2, released)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestInventoryRepository_Release_NotFound(t *testing.T) {
	repo, mock := setupInventoryRepo(t)
	defer mock.Close()

	mock.ExpectQuery("UPDATE inventory AS i").
		WithArgs(1, "Black", "M", 1).
		WillReturnError(pgx.ErrNoRows)

	_, _, err := repo.Release(context.Background(), shirtRequest(1))
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

// ---------------------------------------------------------------------------
// Commit
// ---------------------------------------------------------------------------

func TestInventoryRepository_Commit_FromReserved(t *testing.T) {
	repo, mock := setupInventoryRepo(t)
	defer mock.Close()

	mock.ExpectQuery("SET quantity = quantity - \\$4, reserved = reserved - \\$4").
		WithArgs(1, "Black", "M", 2).
		WillReturnRows(inventoryRow(23, 0))

	item, mode, err := repo.Commit(context.Background(), shirtRequest(2), true)
	require.NoError(t, err)
	assert.Equal(t, domain.CommitFromReserved, mode)
	assert.Equal(t, 23, item.Quantity)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestInventoryRepository_Commit_FallsBackToAvailable(t *testing.T) {
	repo, mock := setupInventoryRepo(t)
	defer mock.Close()

	mock.ExpectQuery("reserved = reserved - \\$4").
		WithArgs(1, "Black", "M", 2).
		WillReturnError(pgx.ErrNoRows)
	mock.ExpectQuery("SET quantity = quantity - \\$4, updated_at = NOW\\(\\) WHERE .+ quantity - reserved >= \\$4").
		WithArgs(1, "Black", "M", 2).
		WillReturnRows(inventoryRow(23, 1))

	_, mode, err := repo.Commit(context.Background(), shirtRequest(2), true)
	require.NoError(t, err)
	assert.Equal(t, domain.CommitFromAvailable, mode)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestInventoryRepository_Commit_WithoutHoldSkipsReservedGuard(t *testing.T) {
	repo, mock := setupInventoryRepo(t)
	defer mock.Close()

	mock.ExpectQuery("SET quantity = quantity - \\$4, updated_at").
		WithArgs(1, "Black", "M", 3).
		WillReturnRows(inventoryRow(22, 0))

	_, mode, err := repo.Commit(context.Background(), shirtRequest(3), false)
	require.NoError(t, err)
	assert.Equal(t, domain.CommitFromAvailable, mode)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestInventoryRepository_Commit_Shortfall(t *testing.T) {
	repo, mock := setupInventoryRepo(t)
	defer mock.Close()

	mock.ExpectQuery("reserved = reserved - \\$4").
		WithArgs(1, "Black", "M", 9).
		WillReturnError(pgx.ErrNoRows)
	mock.ExpectQuery("SET quantity = quantity - \\$4, updated_at").
		WithArgs(1, "Black", "M", 9).
		WillReturnError(pgx.ErrNoRows)

	item, mode, err := repo.Commit(context.Background(), shirtRequest(9), true)
	require.NoError(t, err)
	assert.Nil(t, item)
	assert.Equal(t, domain.CommitShortfall, mode)
	assert.NoError(t, mock.ExpectationsWereMet())
}

// ---------------------------------------------------------------------------
// Update / BulkUpdate
// ---------------------------------------------------------------------------

func TestInventoryRepository_Update_NotFound(t *testing.T) {
	repo, mock := setupInventoryRepo(t)
	defer mock.Close()

	q := 10
	mock.ExpectQuery("UPDATE inventory SET quantity = COALESCE").
		WithArgs(7, "Black", "M", pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnError(pgx.ErrNoRows)

	_, err := repo.Update(context.Background(), domain.InventoryUpdate{ProductID: 7, Color: "Black", Size: "M", Quantity: &q})
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
	assert.Contains(t, err.Error(), "Inventory item not found")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestInventoryRepository_Update_BelowReserved(t *testing.T) {
	repo, mock := setupInventoryRepo(t)
	defer mock.Close()

	q := 1
	mock.ExpectQuery("UPDATE inventory SET quantity = COALESCE").
		WithArgs(1, "Black", "M", pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnError(&pgconn.PgError{Code: database.CheckViolation, ConstraintName: "inventory_reserved_le_quantity"})

	_, err := repo.Update(context.Background(), domain.InventoryUpdate{ProductID: 1, Color: "Black", Size: "M", Quantity: &q})
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestInventoryRepository_BulkUpdate_SkipsUnknown(t *testing.T) {
	repo, mock := setupInventoryRepo(t)
	defer mock.Close()

	q := 40
	mock.ExpectBegin()
	mock.ExpectQuery("UPDATE inventory SET quantity = COALESCE").
		WithArgs(1, "Black", "M", pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnRows(inventoryRow(40, 0))
	mock.ExpectQuery("UPDATE inventory SET quantity = COALESCE").
		WithArgs(99, "Black", "M", pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnError(pgx.ErrNoRows)
	mock.ExpectCommit()

	n, err := repo.BulkUpdate(context.Background(), []domain.InventoryUpdate{
		{ProductID: 1, Color: "Black", Size: "M", Quantity: &q},
		{ProductID: 99, Color: "Black", Size: "M", Quantity: &q},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestInventoryRepository_BulkUpdate_RollsBackOnError(t *testing.T) {
	repo, mock := setupInventoryRepo(t)
	defer mock.Close()

	q := 0
	mock.ExpectBegin()
	mock.ExpectQuery("UPDATE inventory SET quantity = COALESCE").
		WithArgs(1, "Black", "M", pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnError(&pgconn.PgError{Code: database.CheckViolation})
	mock.ExpectRollback()

	_, err := repo.BulkUpdate(context.Background(), []domain.InventoryUpdate{
		{ProductID: 1, Color: "Black", Size: "M", Quantity: &q},
	})
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
	assert.NoError(t, mock.ExpectationsWereMet())
}
