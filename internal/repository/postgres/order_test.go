package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
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

func setupOrderRepo(t *testing.T) (*OrderRepository, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := database.NewMockPool()
	require.NoError(t, err)
	return NewOrderRepository(mock), mock
}

var orderCols = []string{
	"id", "order_number", "items", "shipping", "subtotal", "discount", "discount_description",
	"shipping_cost", "total", "status", "tracking_number", "carrier", "label_url",
	"estimated_delivery", "notes", "payment_session_id", "shipped_at", "delivered_at",
	"created_at", "updated_at",
}

const testOrderID = "5b7c2a4e-9d0f-4c1b-8a3e-2f6d7e8c9b01"

func sampleOrder() domain.Order {
	return domain.Order{
		ID:          testOrderID,
		OrderNumber: "RAZE-5B7C2A4E",
		Items: []domain.OrderItem{
			{ProductID: 1, ProductName: "Performance T-Shirt", Color: "Black", Size: "M", Quantity: 2, Price: 4500},
		},
		Shipping: domain.ShippingAddress{
			FirstName: "Sam", LastName: "Lee", Email: "sam@example.com",
			AddressLine1: "1 Main St", City: "Austin", State: "TX", PostalCode: "78701", Country: "US",
		},
		Subtotal:         9000,
		ShippingCost:     500,
		Total:            9500,
		Status:           domain.OrderStatusConfirmed,
		PaymentSessionID: "cs_test_1",
		CreatedAt:        fixedTime,
		UpdatedAt:        fixedTime,
	}
}

func orderValues(t *testing.T, o domain.Order) []any {
	return []any{
		o.ID, o.OrderNumber, mustMarshalJSON(t, o.Items), mustMarshalJSON(t, o.Shipping), o.Subtotal, o.Discount, o.DiscountDescription,
		o.ShippingCost, o.Total, o.Status, o.TrackingNumber, o.Carrier, o.LabelURL,
		o.EstimatedDelivery, o.Notes, o.PaymentSessionID, o.ShippedAt, o.DeliveredAt,
		o.CreatedAt, o.UpdatedAt,
	}
}

func orderRows(t *testing.T, orders ...domain.Order) *pgxmock.Rows {
	t.Helper()
	rows := pgxmock.NewRows(orderCols)
	for _, o := range orders {
		rows.AddRow(orderValues(t, o)...)
	}
	return rows
}

// ---------------------------------------------------------------------------
// Create
// ---------------------------------------------------------------------------

func TestOrderRepository_Create_Success(t *testing.T) {
	repo, mock := setupOrderRepo(t)
	defer mock.Close()

	o := sampleOrder()
	o.PaymentSessionID = ""
	mock.ExpectQuery("INSERT INTO orders .+ ON CONFLICT \\(payment_session_id\\) DO NOTHING").
		WithArgs(pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(),
			pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(),
			pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(),
			pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(),
			pgxmock.AnyArg()).
		WillReturnRows(pgxmock.NewRows([]string{"id"}).AddRow(o.ID))

	require.NoError(t, repo.Create(context.Background(), &o))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestOrderRepository_Create_SessionConflict(t *testing.T) {
	repo, mock := setupOrderRepo(t)
	defer mock.Close()

	o := sampleOrder()
	mock.ExpectQuery("INSERT INTO orders").
		WillReturnError(pgx.ErrNoRows)

	err := repo.Create(context.Background(), &o)
	assert.ErrorIs(t, err, apperrors.ErrAlreadyExists)
	assert.NoError(t, mock.ExpectationsWereMet())
}

// ---------------------------------------------------------------------------
// Get
// ---------------------------------------------------------------------------

func TestOrderRepository_GetByID(t *testing.T) {
	repo, mock := setupOrderRepo(t)
	defer mock.Close()

	o := sampleOrder()
	mock.ExpectQuery("SELECT .+ FROM orders WHERE id = \\$1").
		WithArgs(testOrderID).
		WillReturnRows(orderRows(t, o))

	got, err := repo.GetByID(context.Background(), testOrderID)
	require.NoError(t, err)
	assert.Equal(t, "RAZE-5B7C2A4E", got.OrderNumber)
	assert.Equal(t, o.Items, got.Items)
	assert.Equal(t, "sam@example.com", got.Shipping.Email)
	assert.Nil(t, got.ShippedAt)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestOrderRepository_GetByID_MalformedID(t *testing.T) {
	repo, mock := setupOrderRepo(t)
	defer mock.Close()

	_, err := repo.GetByID(context.Background(), "RAZE-5B7C2A4E")
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestOrderRepository_GetByNumber_NotFound(t *testing.T) {
	repo, mock := setupOrderRepo(t)
	defer mock.Close()

	mock.ExpectQuery("SELECT .+ FROM orders WHERE order_number = \\$1").
		WithArgs("RAZE-00000000").
		WillReturnError(pgx.ErrNoRows)

	_, err := repo.GetByNumber(context.Background(), "RAZE-00000000")
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

// ---------------------------------------------------------------------------
// List
// ---------------------------------------------------------------------------

func TestOrderRepository_List(t *testing.T) {
	repo, mock := setupOrderRepo(t)
	defer mock.Close()

	o := sampleOrder()
	cols := append(append([]string{}, orderCols...), "total_count")
	mock.ExpectQuery("SELECT .+ count\\(\\*\\) OVER\\(\\) AS total_count FROM orders").
		WithArgs("confirmed", "", 20, 0).
		WillReturnRows(pgxmock.NewRows(cols).AddRow(append(orderValues(t, o), 3)...))

	orders, total, err := repo.List(context.Background(), domain.OrderFilter{Status: "confirmed"}, 0, 20)
	require.NoError(t, err)
	assert.Len(t, orders, 1)
	assert.Equal(t, 3, total)
	assert.NoError(t, mock.ExpectationsWereMet())
}

// ---------------------------------------------------------------------------
// Modify
// ---------------------------------------------------------------------------

func TestOrderRepository_Modify_Success(t *testing.T) {
	repo, mock := setupOrderRepo(t)
	defer mock.Close()

	o := sampleOrder()
	mock.ExpectBegin()
	mock.ExpectQuery("SELECT .+ FROM orders WHERE id = \\$1 FOR UPDATE").
		WithArgs(testOrderID).
		WillReturnRows(orderRows(t, o))
	mock.ExpectExec("UPDATE orders SET status = \\$2").
		WithArgs(testOrderID, domain.OrderStatusShipped, "1Z999", "UPS", "", "", "",
			pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	mock.ExpectCommit()

	now := time.Now().UTC()
	got, err := repo.Modify(context.Background(), testOrderID, func(o *domain.Order) error {
		o.TrackingNumber = "1Z999"
		o.Carrier = "UPS"
		o.ApplyStatus(domain.OrderStatusShipped, now)
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, domain.OrderStatusShipped, got.Status)
	require.NotNil(t, got.ShippedAt)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestOrderRepository_Modify_RejectedByCallback(t *testing.T) {
	repo, mock := setupOrderRepo(t)
	defer mock.Close()

	o := sampleOrder()
	o.Status = domain.OrderStatusCancelled
	mock.ExpectBegin()
	mock.ExpectQuery("SELECT .+ FOR UPDATE").
		WithArgs(testOrderID).
		WillReturnRows(orderRows(t, o))
	mock.ExpectRollback()

	_, err := repo.Modify(context.Background(), testOrderID, func(o *domain.Order) error {
		return apperrors.InvalidInput("cannot change a cancelled order")
	})
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
	assert.NoError(t, mock.ExpectationsWereMet())
}

// ---------------------------------------------------------------------------
// Stats
// ---------------------------------------------------------------------------

func TestOrderRepository_Stats_ExcludesCancelledRevenue(t *testing.T) {
	repo, mock := setupOrderRepo(t)
	defer mock.Close()

	mock.ExpectQuery("SELECT status, COUNT\\(\\*\\)").
		WillReturnRows(pgxmock.NewRows([]string{"status", "count", "sum"}).
			AddRow("confirmed", 3, int64(30000)).
			AddRow("delivered", 1, int64(5000)).
			AddRow("cancelled", 2, int64(12000)))

	stats, err := repo.Stats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 6, stats.TotalOrders)
	assert.Equal(t, int64(35000), stats.Revenue)
	assert.Equal(t, 0, stats.ByStatus[domain.OrderStatusShipped])
	assert.Equal(t, 2, stats.ByStatus[domain.OrderStatusCancelled])
	assert.NoError(t, mock.ExpectationsWereMet())
}
