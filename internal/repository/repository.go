package repository

import (
	"context"
	"errors"
	"time"

	"github.com/razeathletics/storefront/internal/domain"
)

// ErrAccessCodeTaken is returned by WaitlistRepository.Join when the
// generated access code collides with an existing one.
var ErrAccessCodeTaken = errors.New("access code already taken")

// InventoryRepository defines the persistence operations of the stock ledger.
// Every mutation is a single guarded statement so concurrent callers can
// never drive available stock below zero.
type InventoryRepository interface {
	// List returns every variant ordered by product, color and size.
	List(ctx context.Context) ([]domain.InventoryItem, error)

	// ListByProduct returns the variants of a product, optionally narrowed
	// to one color.
	ListByProduct(ctx context.Context, productID int, color string) ([]domain.InventoryItem, error)

	// Get returns a single variant.
	Get(ctx context.Context, key domain.VariantKey) (*domain.InventoryItem, error)

	// Reserve holds req.Quantity units if that many are available. It
	// returns InsufficientStock when the guard fails and ErrNotFound when
	// the variant does not exist.
	Reserve(ctx context.Context, req domain.StockRequest) (*domain.InventoryItem, error)

	// Release returns held units, clamped at zero. released is the number
	// of units actually released.
	Release(ctx context.Context, req domain.StockRequest) (item *domain.InventoryItem, released int, err error)

	// Commit deducts sold units. With fromHold set it converts a hold when
	// one covers the quantity and falls back to unreserved stock otherwise.
	// Without it only unreserved stock is used.
	Commit(ctx context.Context, req domain.StockRequest, fromHold bool) (*domain.InventoryItem, domain.CommitMode, error)

	// Update applies an admin change.
	Update(ctx context.Context, u domain.InventoryUpdate) (*domain.InventoryItem, error)

	// BulkUpdate applies admin changes in one transaction and returns the
	// number of variants that existed and were updated.
	BulkUpdate(ctx context.Context, updates []domain.InventoryUpdate) (int, error)
}

// Materialization is the outcome of turning a paid session into an order.
// Pending is only set when this call created the order.
type Materialization struct {
	Order   *domain.Order
	Pending *domain.PendingOrder
	Created bool
}

// CheckoutRepository stores pending orders and payment transactions.
type CheckoutRepository interface {
	// Stage inserts the pending order and its transaction together.
	Stage(ctx context.Context, p *domain.PendingOrder, tx *domain.PaymentTransaction) error

	// GetPending returns the pending order staged for a session.
	GetPending(ctx context.Context, sessionID string) (*domain.PendingOrder, error)

	// ClaimPending deletes and returns the pending order. Only one caller
	// can claim a given session.
	ClaimPending(ctx context.Context, sessionID string) (*domain.PendingOrder, error)

	// ListStale returns pending orders created before cutoff, oldest first.
	ListStale(ctx context.Context, cutoff time.Time, limit int) ([]domain.PendingOrder, error)

	// GetTransaction returns the transaction of a session.
	GetTransaction(ctx context.Context, sessionID string) (*domain.PaymentTransaction, error)

	// UpdateTransactionStatus records the latest provider status.
	UpdateTransactionStatus(ctx context.Context, sessionID, status, paymentStatus string) error

	// ExpireTransaction marks a still pending transaction expired and
	// reports whether it did.
	ExpireTransaction(ctx context.Context, sessionID string) (bool, error)

	// Materialize claims the pending order of a paid session and inserts the
	// order built from it, linking the transaction, in one transaction. When
	// the session was already materialized the existing order is returned
	// with Created false. ErrNotFound means neither exists.
	Materialize(ctx context.Context, sessionID string, now time.Time) (*Materialization, error)
}

// OrderRepository defines the persistence operations for orders.
type OrderRepository interface {
	// Create inserts a new order.
	Create(ctx context.Context, o *domain.Order) error

	// GetByID retrieves an order by id.
	GetByID(ctx context.Context, id string) (*domain.Order, error)

	// GetByNumber retrieves an order by its RAZE- number.
	GetByNumber(ctx context.Context, number string) (*domain.Order, error)

	// GetBySessionID retrieves the order materialized from a payment session.
	GetBySessionID(ctx context.Context, sessionID string) (*domain.Order, error)

	// List returns orders newest first and the total matching the filter.
	List(ctx context.Context, filter domain.OrderFilter, skip, limit int) ([]domain.Order, int, error)

	// Modify locks the order, lets fn change it and persists the result.
	Modify(ctx context.Context, id string, fn func(o *domain.Order) error) (*domain.Order, error)

	// Stats returns per status counts and revenue.
	Stats(ctx context.Context) (*domain.OrderStats, error)
}

// WaitlistRepository stores waitlist entries and the capacity counter.
type WaitlistRepository interface {
	// Find returns the entry of email for a product variant.
	Find(ctx context.Context, email string, productID int, variant string) (*domain.WaitlistEntry, error)

	// Join takes a spot from the counter and inserts e with the resulting
	// position, in one transaction. It returns ErrWaitlistFull when no spot
	// is left, ErrAlreadyExists on a concurrent duplicate join and
	// ErrAccessCodeTaken on an access code collision.
	Join(ctx context.Context, e *domain.WaitlistEntry) (*domain.WaitlistEntry, error)

	// Counter returns the capacity and the number of spots taken.
	Counter(ctx context.Context) (capacity, taken int, err error)

	// GetByAccessCode returns the entry owning code.
	GetByAccessCode(ctx context.Context, code string) (*domain.WaitlistEntry, error)

	// MarkPurchased consumes the code and reports whether it was unused.
	MarkPurchased(ctx context.Context, code string, at time.Time) (bool, error)

	// List returns entries ordered by position.
	List(ctx context.Context, skip, limit int) ([]domain.WaitlistEntry, int, error)

	// Emails returns the distinct emails on the waitlist.
	Emails(ctx context.Context) ([]string, error)
}

// PromoRepository stores promo codes.
type PromoRepository interface {
	Get(ctx context.Context, code string) (*domain.PromoCode, error)
	List(ctx context.Context) ([]domain.PromoCode, error)
	Create(ctx context.Context, p *domain.PromoCode) error
	SetActive(ctx context.Context, code string, active bool) error
	Delete(ctx context.Context, code string) error

	// Use increments the usage counter unless the limit is reached and
	// reports whether it did.
	Use(ctx context.Context, code string) (bool, error)
}

// UserRepository stores customer accounts.
type UserRepository interface {
	Create(ctx context.Context, u *domain.User) error
	GetByID(ctx context.Context, userID string) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)

	// UpsertIdentity inserts a federated user or refreshes name and picture
	// of an existing one. created reports whether a row was inserted.
	UpsertIdentity(ctx context.Context, u *domain.User) (user *domain.User, created bool, err error)

	// UseFirstOrderDiscount sets the used flag once and bumps order_count.
	UseFirstOrderDiscount(ctx context.Context, userID string) (bool, error)

	// Delete removes the user and all of its sessions.
	Delete(ctx context.Context, userID string) error

	List(ctx context.Context, skip, limit int) ([]domain.User, int, error)
	CountSince(ctx context.Context, since time.Time) (int, error)
	Emails(ctx context.Context) ([]string, error)
}

// SessionRepository stores customer login sessions.
type SessionRepository interface {
	CreateSession(ctx context.Context, s *domain.UserSession) error
	GetSession(ctx context.Context, token string) (*domain.UserSession, error)
	DeleteSession(ctx context.Context, token string) error
}

// SubscriptionRepository stores email opt-ins.
type SubscriptionRepository interface {
	// Create inserts the subscription and returns ErrAlreadyExists when the
	// email is already subscribed for the same source and product.
	Create(ctx context.Context, s *domain.EmailSubscription) error

	CountBySource(ctx context.Context) (map[string]int, error)
	List(ctx context.Context, source string, skip, limit int) ([]domain.EmailSubscription, int, error)
	DeleteByEmail(ctx context.Context, email string) (int64, error)
	CountSince(ctx context.Context, since time.Time) (int, error)

	// Emails returns distinct subscriber emails, optionally for one source.
	Emails(ctx context.Context, source string) ([]string, error)
}

// AdminSessionStore keeps admin console tokens alive for a fixed TTL.
type AdminSessionStore interface {
	Create(ctx context.Context, token string, ttl time.Duration) error
	Exists(ctx context.Context, token string) (bool, error)
	Delete(ctx context.Context, token string) error
}

// Locker grants short lived exclusive leases across replicas.
type Locker interface {
	// TryLock acquires key for ttl. ok is false when another holder owns
	// it. unlock releases the lease early.
	TryLock(ctx context.Context, key string, ttl time.Duration) (unlock func(context.Context) error, ok bool, err error)
}
