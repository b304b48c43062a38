package http

import (
	"context"

	"github.com/razeathletics/storefront/internal/domain"
)

// InventoryService is the stock ledger as seen by the inventory routes.
type InventoryService interface {
	List(ctx context.Context) ([]domain.InventoryItem, error)
	GetProduct(ctx context.Context, productID int, color string) (domain.ProductStock, error)
	Check(ctx context.Context, key domain.VariantKey) (*domain.StockLevel, error)
	Stats(ctx context.Context) (*domain.InventoryStats, error)
	Reserve(ctx context.Context, sessionID string, reqs []domain.StockRequest) (int, error)
	Release(ctx context.Context, sessionID string, reqs []domain.StockRequest) (int, error)
	Commit(ctx context.Context, sessionID string, reqs []domain.StockRequest, fromHold bool) (int, error)
	Update(ctx context.Context, u domain.InventoryUpdate) (*domain.InventoryItem, error)
	BulkUpdate(ctx context.Context, updates []domain.InventoryUpdate) (int, error)
}

// PromoService validates and administers promo codes.
type PromoService interface {
	Validate(ctx context.Context, code string, subtotal int64) (*domain.PromoValidation, error)
	Use(ctx context.Context, code string) (bool, error)
	List(ctx context.Context) ([]domain.PromoCode, error)
	Create(ctx context.Context, req *domain.CreatePromoRequest) (*domain.PromoCode, error)
	SetActive(ctx context.Context, code string, active bool) error
	Delete(ctx context.Context, code string) error
}

// WaitlistService admits customers to the limited drop.
type WaitlistService interface {
	Join(ctx context.Context, req *domain.JoinWaitlistRequest) (*domain.JoinResult, error)
	Status(ctx context.Context) (*domain.WaitlistStatus, error)
	Verify(ctx context.Context, code string) (*domain.VerifyResult, error)
	List(ctx context.Context, skip, limit int) ([]domain.WaitlistEntry, int, error)
}

// CheckoutService runs hosted payment sessions.
type CheckoutService interface {
	CreateSession(ctx context.Context, req *domain.CheckoutRequest) (*domain.CheckoutSession, error)
	GetStatus(ctx context.Context, sessionID string) (*domain.CheckoutStatus, error)
	HandleWebhook(ctx context.Context, payload []byte, signature string) (*domain.WebhookResult, error)
}

// OrderService manages placed orders.
type OrderService interface {
	Create(ctx context.Context, req *domain.CreateOrderRequest) (*domain.Order, error)
	Get(ctx context.Context, idOrNumber string) (*domain.Order, error)
	List(ctx context.Context, filter domain.OrderFilter, skip, limit int) ([]domain.Order, int, error)
	ListByEmail(ctx context.Context, email string) ([]domain.Order, error)
	Update(ctx context.Context, idOrNumber string, req domain.UpdateOrderRequest) (*domain.Order, error)
	Track(ctx context.Context, orderNumber, email string) (*domain.TrackingView, error)
	Stats(ctx context.Context) (*domain.OrderStats, error)
}

// ShippingService quotes, buys and tracks shipments.
type ShippingService interface {
	Rates(ctx context.Context, req *domain.ShippingRateRequest) (*domain.ShippingRatesResult, error)
	CreateLabel(ctx context.Context, req *domain.CreateLabelRequest) (*domain.ShippingLabel, error)
	Track(ctx context.Context, carrier, trackingNumber string) (*domain.ShipmentTracking, error)
}

// AuthService handles customer accounts.
type AuthService interface {
	Register(ctx context.Context, req *domain.RegisterRequest) (*domain.AuthResult, error)
	Login(ctx context.Context, req *domain.LoginRequest) (*domain.AuthResult, error)
	ExchangeSession(ctx context.Context, sessionID string) (*domain.AuthResult, error)
	ValidateSession(ctx context.Context, token string) (string, error)
	User(ctx context.Context, userID string) (*domain.User, error)
	Logout(ctx context.Context, token string) error
	ValidateFirstOrderDiscount(ctx context.Context, user *domain.User, code string) domain.FirstOrderDiscountResult
	UseFirstOrderDiscount(ctx context.Context, user *domain.User) error
}

// SubscriptionService records marketing opt-ins.
type SubscriptionService interface {
	Subscribe(ctx context.Context, req *domain.SubscribeRequest) (*domain.SubscribeResult, error)
	Stats(ctx context.Context) (*domain.SubscriptionStats, error)
	List(ctx context.Context, source string, skip, limit int) ([]domain.EmailSubscription, int, error)
	DeleteByEmail(ctx context.Context, email string) (int64, error)
}

// AdminService backs the admin console.
type AdminService interface {
	Login(ctx context.Context, password string) (*domain.AdminLoginResult, error)
	Logout(ctx context.Context, token string) error
	Verify(ctx context.Context, token string) (bool, error)
	ValidateAdmin(ctx context.Context, token string) error
	Stats(ctx context.Context) (*domain.AdminStats, error)
	ListUsers(ctx context.Context, skip, limit int) ([]domain.User, int, error)
	DeleteUser(ctx context.Context, userID string) (bool, error)
	BulkEmail(ctx context.Context, req *domain.BulkEmailRequest) (*domain.BulkEmailResult, error)
}

// Services bundles what the router serves.
type Services struct {
	Inventory     InventoryService
	Promo         PromoService
	Waitlist      WaitlistService
	Checkout      CheckoutService
	Orders        OrderService
	Shipping      ShippingService
	Auth          AuthService
	Subscriptions SubscriptionService
	Admin         AdminService
}
