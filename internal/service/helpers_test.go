package service

import (
	"context"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/razeathletics/storefront/internal/domain"
	"github.com/razeathletics/storefront/internal/event"
	"github.com/razeathletics/storefront/internal/notification"
	"github.com/razeathletics/storefront/internal/provider/payment"
	apperrors "github.com/razeathletics/storefront/pkg/errors"
	pkgkafka "github.com/razeathletics/storefront/pkg/kafka"
)

var fixedNow = time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
}

// --- Event recording ---

type recordingPublisher struct {
	mu     sync.Mutex
	topics []string
}

func (r *recordingPublisher) Publish(_ context.Context, topic string, _ *pkgkafka.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.topics = append(r.topics, topic)
	return nil
}

func (r *recordingPublisher) count(topic string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, t := range r.topics {
		if t == topic {
			n++
		}
	}
	return n
}

func newTestProducer() (*event.Producer, *recordingPublisher) {
	pub := &recordingPublisher{}
	return event.NewProducer(pub, newTestLogger()), pub
}

// --- Notifier ---

type recordingNotifier struct {
	mu    sync.Mutex
	tasks []notification.Task
}

func (n *recordingNotifier) Enqueue(t notification.Task) bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.tasks = append(n.tasks, t)
	return true
}

func (n *recordingNotifier) names() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]string, 0, len(n.tasks))
	for _, t := range n.tasks {
		out = append(out, t.Name)
	}
	return out
}

// --- In-memory InventoryRepository ---

// memInventory applies the same guards as the SQL statements.
type memInventory struct {
	mu    sync.Mutex
	items map[domain.VariantKey]*domain.InventoryItem
}

func newMemInventory(items ...domain.InventoryItem) *memInventory {
	m := &memInventory{items: make(map[domain.VariantKey]*domain.InventoryItem)}
	for i := range items {
		it := items[i]
		m.items[it.Key()] = &it
	}
	return m
}

func (m *memInventory) snapshot(key domain.VariantKey) domain.InventoryItem {
	m.mu.Lock()
	defer m.mu.Unlock()
	return *m.items[key]
}

func (m *memInventory) List(context.Context) ([]domain.InventoryItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]domain.InventoryItem, 0, len(m.items))
	for _, it := range m.items {
		out = append(out, *it)
	}
	return out, nil
}

func (m *memInventory) ListByProduct(_ context.Context, productID int, color string) ([]domain.InventoryItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.InventoryItem
	for _, it := range m.items {
		if it.ProductID == productID && (color == "" || it.Color == color) {
			out = append(out, *it)
		}
	}
	return out, nil
}

func (m *memInventory) Get(_ context.Context, key domain.VariantKey) (*domain.InventoryItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	it, ok := m.items[key]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	out := *it
	return &out, nil
}

func (m *memInventory) Reserve(_ context.Context, req domain.StockRequest) (*domain.InventoryItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	it, ok := m.items[req.Key()]
	if !ok {
		return nil, apperrors.NotFound("inventory item", req.Key().String())
	}
	if it.Available() < req.Quantity {
		return nil, apperrors.InsufficientStock(req.ProductName, req.Color, req.Size)
	}
	it.Reserved += req.Quantity
	out := *it
	return &out, nil
}

func (m *memInventory) Release(_ context.Context, req domain.StockRequest) (*domain.InventoryItem, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	it, ok := m.items[req.Key()]
	if !ok {
		return nil, 0, apperrors.ErrNotFound
	}
	n := min(req.Quantity, it.Reserved)
	it.Reserved -= n
	out := *it
	return &out, n, nil
}

func (m *memInventory) Commit(_ context.Context, req domain.StockRequest, fromHold bool) (*domain.InventoryItem, domain.CommitMode, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	it, ok := m.items[req.Key()]
	if !ok {
		return nil, domain.CommitShortfall, nil
	}
	switch {
	case fromHold && it.Reserved >= req.Quantity && it.Quantity >= req.Quantity:
		it.Quantity -= req.Quantity
		it.Reserved -= req.Quantity
		out := *it
		return &out, domain.CommitFromReserved, nil
	case it.Available() >= req.Quantity:
		it.Quantity -= req.Quantity
		out := *it
		return &out, domain.CommitFromAvailable, nil
	}
	return nil, domain.CommitShortfall, nil
}

func (m *memInventory) Update(_ context.Context, u domain.InventoryUpdate) (*domain.InventoryItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	it, ok := m.items[u.Key()]
	if !ok {
		return nil, apperrors.NotFoundMessage("Inventory item not found")
	}
	if u.Quantity != nil {
		it.Quantity = *u.Quantity
	}
	if u.LowStockThreshold != nil {
		it.LowStockThreshold = *u.LowStockThreshold
	}
	out := *it
	return &out, nil
}

func (m *memInventory) BulkUpdate(ctx context.Context, updates []domain.InventoryUpdate) (int, error) {
	n := 0
	for _, u := range updates {
		if _, err := m.Update(ctx, u); err == nil {
			n++
		}
	}
	return n, nil
}

// --- Mock payment provider ---

type mockPaymentProvider struct {
	mock.Mock
}

func (m *mockPaymentProvider) Name() string { return "stripe" }

func (m *mockPaymentProvider) CreateSession(ctx context.Context, input *payment.SessionInput) (*payment.Session, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*payment.Session), args.Error(1)
}

func (m *mockPaymentProvider) GetStatus(ctx context.Context, sessionID string) (*payment.SessionStatus, error) {
	args := m.Called(ctx, sessionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*payment.SessionStatus), args.Error(1)
}

func (m *mockPaymentProvider) ParseWebhook(payload []byte, signature string) (*payment.WebhookEvent, error) {
	args := m.Called(payload, signature)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*payment.WebhookEvent), args.Error(1)
}
