package http

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/razeathletics/storefront/internal/domain"
)

// --- Mock InventoryService ---

type mockInventoryService struct {
	mock.Mock
}

func (m *mockInventoryService) List(ctx context.Context) ([]domain.InventoryItem, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.InventoryItem), args.Error(1)
}

func (m *mockInventoryService) GetProduct(ctx context.Context, productID int, color string) (domain.ProductStock, error) {
	args := m.Called(ctx, productID, color)
	return args.Get(0).(domain.ProductStock), args.Error(1)
}

func (m *mockInventoryService) Check(ctx context.Context, key domain.VariantKey) (*domain.StockLevel, error) {
	args := m.Called(ctx, key)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.StockLevel), args.Error(1)
}

func (m *mockInventoryService) Stats(ctx context.Context) (*domain.InventoryStats, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.InventoryStats), args.Error(1)
}

func (m *mockInventoryService) Reserve(ctx context.Context, sessionID string, reqs []domain.StockRequest) (int, error) {
	args := m.Called(ctx, sessionID, reqs)
	return args.Int(0), args.Error(1)
}

func (m *mockInventoryService) Release(ctx context.Context, sessionID string, reqs []domain.StockRequest) (int, error) {
	args := m.Called(ctx, sessionID, reqs)
	return args.Int(0), args.Error(1)
}

func (m *mockInventoryService) Commit(ctx context.Context, sessionID string, reqs []domain.StockRequest, fromHold bool) (int, error) {
	args := m.Called(ctx, sessionID, reqs, fromHold)
	return args.Int(0), args.Error(1)
}

func (m *mockInventoryService) Update(ctx context.Context, u domain.InventoryUpdate) (*domain.InventoryItem, error) {
	args := m.Called(ctx, u)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.InventoryItem), args.Error(1)
}

func (m *mockInventoryService) BulkUpdate(ctx context.Context, updates []domain.InventoryUpdate) (int, error) {
	args := m.Called(ctx, updates)
	return args.Int(0), args.Error(1)
}

// --- Mock PromoService ---

type mockPromoService struct {
	mock.Mock
}

func (m *mockPromoService) Validate(ctx context.Context, code string, subtotal int64) (*domain.PromoValidation, error) {
	args := m.Called(ctx, code, subtotal)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.PromoValidation), args.Error(1)
}

func (m *mockPromoService) Use(ctx context.Context, code string) (bool, error) {
	args := m.Called(ctx, code)
	return args.Bool(0), args.Error(1)
}

func (m *mockPromoService) List(ctx context.Context) ([]domain.PromoCode, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.PromoCode), args.Error(1)
}

func (m *mockPromoService) Create(ctx context.Context, req *domain.CreatePromoRequest) (*domain.PromoCode, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.PromoCode), args.Error(1)
}

func (m *mockPromoService) SetActive(ctx context.Context, code string, active bool) error {
	return m.Called(ctx, code, active).Error(0)
}

func (m *mockPromoService) Delete(ctx context.Context, code string) error {
	return m.Called(ctx, code).Error(0)
}

// --- Mock WaitlistService ---

type mockWaitlistService struct {
	mock.Mock
}

func (m *mockWaitlistService) Join(ctx context.Context, req *domain.JoinWaitlistRequest) (*domain.JoinResult, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.JoinResult), args.Error(1)
}

func (m *mockWaitlistService) Status(ctx context.Context) (*domain.WaitlistStatus, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.WaitlistStatus), args.Error(1)
}

func (m *mockWaitlistService) Verify(ctx context.Context, code string) (*domain.VerifyResult, error) {
	args := m.Called(ctx, code)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.VerifyResult), args.Error(1)
}

func (m *mockWaitlistService) List(ctx context.Context, skip, limit int) ([]domain.WaitlistEntry, int, error) {
	args := m.Called(ctx, skip, limit)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).([]domain.WaitlistEntry), args.Int(1), args.Error(2)
}

// --- Mock CheckoutService ---

type mockCheckoutService struct {
	mock.Mock
}

func (m *mockCheckoutService) CreateSession(ctx context.Context, req *domain.CheckoutRequest) (*domain.CheckoutSession, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.CheckoutSession), args.Error(1)
}

func (m *mockCheckoutService) GetStatus(ctx context.Context, sessionID string) (*domain.CheckoutStatus, error) {
	args := m.Called(ctx, sessionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.CheckoutStatus), args.Error(1)
}

func (m *mockCheckoutService) HandleWebhook(ctx context.Context, payload []byte, signature string) (*domain.WebhookResult, error) {
	args := m.Called(ctx, payload, signature)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.WebhookResult), args.Error(1)
}

// --- Mock OrderService ---

type mockOrderService struct {
	mock.Mock
}

func (m *mockOrderService) Create(ctx context.Context, req *domain.CreateOrderRequest) (*domain.Order, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Order), args.Error(1)
}

func (m *mockOrderService) Get(ctx context.Context, idOrNumber string) (*domain.Order, error) {
	args := m.Called(ctx, idOrNumber)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Order), args.Error(1)
}

func (m *mockOrderService) List(ctx context.Context, filter domain.OrderFilter, skip, limit int) ([]domain.Order, int, error) {
	args := m.Called(ctx, filter, skip, limit)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).([]domain.Order), args.Int(1), args.Error(2)
}

func (m *mockOrderService) ListByEmail(ctx context.Context, email string) ([]domain.Order, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Order), args.Error(1)
}

func (m *mockOrderService) Update(ctx context.Context, idOrNumber string, req domain.UpdateOrderRequest) (*domain.Order, error) {
	args := m.Called(ctx, idOrNumber, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Order), args.Error(1)
}

func (m *mockOrderService) Track(ctx context.Context, orderNumber, email string) (*domain.TrackingView, error) {
	args := m.Called(ctx, orderNumber, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.TrackingView), args.Error(1)
}

func (m *mockOrderService) Stats(ctx context.Context) (*domain.OrderStats, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.OrderStats), args.Error(1)
}

// --- Mock ShippingService ---

type mockShippingService struct {
	mock.Mock
}

func (m *mockShippingService) Rates(ctx context.Context, req *domain.ShippingRateRequest) (*domain.ShippingRatesResult, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ShippingRatesResult), args.Error(1)
}

func (m *mockShippingService) CreateLabel(ctx context.Context, req *domain.CreateLabelRequest) (*domain.ShippingLabel, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ShippingLabel), args.Error(1)
}

func (m *mockShippingService) Track(ctx context.Context, carrier, trackingNumber string) (*domain.ShipmentTracking, error) {
	args := m.Called(ctx, carrier, trackingNumber)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ShipmentTracking), args.Error(1)
}

// --- Mock AuthService ---

type mockAuthService struct {
	mock.Mock
}

func (m *mockAuthService) Register(ctx context.Context, req *domain.RegisterRequest) (*domain.AuthResult, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.AuthResult), args.Error(1)
}

func (m *mockAuthService) Login(ctx context.Context, req *domain.LoginRequest) (*domain.AuthResult, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.AuthResult), args.Error(1)
}

func (m *mockAuthService) ExchangeSession(ctx context.Context, sessionID string) (*domain.AuthResult, error) {
	args := m.Called(ctx, sessionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.AuthResult), args.Error(1)
}

func (m *mockAuthService) ValidateSession(ctx context.Context, token string) (string, error) {
	args := m.Called(ctx, token)
	return args.String(0), args.Error(1)
}

func (m *mockAuthService) User(ctx context.Context, userID string) (*domain.User, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *mockAuthService) Logout(ctx context.Context, token string) error {
	return m.Called(ctx, token).Error(0)
}

func (m *mockAuthService) ValidateFirstOrderDiscount(ctx context.Context, user *domain.User, code string) domain.FirstOrderDiscountResult {
	return m.Called(ctx, user, code).Get(0).(domain.FirstOrderDiscountResult)
}

func (m *mockAuthService) UseFirstOrderDiscount(ctx context.Context, user *domain.User) error {
	return m.Called(ctx, user).Error(0)
}

// --- Mock SubscriptionService ---

type mockSubscriptionService struct {
	mock.Mock
}

func (m *mockSubscriptionService) Subscribe(ctx context.Context, req *domain.SubscribeRequest) (*domain.SubscribeResult, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.SubscribeResult), args.Error(1)
}

func (m *mockSubscriptionService) Stats(ctx context.Context) (*domain.SubscriptionStats, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.SubscriptionStats), args.Error(1)
}

func (m *mockSubscriptionService) List(ctx context.Context, source string, skip, limit int) ([]domain.EmailSubscription, int, error) {
	args := m.Called(ctx, source, skip, limit)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).([]domain.EmailSubscription), args.Int(1), args.Error(2)
}

func (m *mockSubscriptionService) DeleteByEmail(ctx context.Context, email string) (int64, error) {
	args := m.Called(ctx, email)
	return args.Get(0).(int64), args.Error(1)
}

// --- Mock AdminService ---

type mockAdminService struct {
	mock.Mock
}

func (m *mockAdminService) Login(ctx context.Context, password string) (*domain.AdminLoginResult, error) {
	args := m.Called(ctx, password)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.AdminLoginResult), args.Error(1)
}

func (m *mockAdminService) Logout(ctx context.Context, token string) error {
	return m.Called(ctx, token).Error(0)
}

func (m *mockAdminService) Verify(ctx context.Context, token string) (bool, error) {
	args := m.Called(ctx, token)
	return args.Bool(0), args.Error(1)
}

func (m *mockAdminService) ValidateAdmin(ctx context.Context, token string) error {
	return m.Called(ctx, token).Error(0)
}

func (m *mockAdminService) Stats(ctx context.Context) (*domain.AdminStats, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.AdminStats), args.Error(1)
}

func (m *mockAdminService) ListUsers(ctx context.Context, skip, limit int) ([]domain.User, int, error) {
	args := m.Called(ctx, skip, limit)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).([]domain.User), args.Int(1), args.Error(2)
}

func (m *mockAdminService) DeleteUser(ctx context.Context, userID string) (bool, error) {
	args := m.Called(ctx, userID)
	return args.Bool(0), args.Error(1)
}

func (m *mockAdminService) BulkEmail(ctx context.Context, req *domain.BulkEmailRequest) (*domain.BulkEmailResult, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.BulkEmailResult), args.Error(1)
}
