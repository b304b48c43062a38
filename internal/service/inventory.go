package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/razeathletics/storefront/internal/domain"
	"github.com/razeathletics/storefront/internal/event"
	"github.com/razeathletics/storefront/internal/repository"
	apperrors "github.com/razeathletics/storefront/pkg/errors"
)

// InventoryService implements the stock ledger: holds taken at checkout,
// their release and the final deduction after payment.
type InventoryService struct {
	repo     repository.InventoryRepository
	producer *event.Producer
	logger   *slog.Logger
}

// NewInventoryService creates a new inventory service.
func NewInventoryService(repo repository.InventoryRepository, producer *event.Producer, logger *slog.Logger) *InventoryService {
	return &InventoryService{
		repo:     repo,
		producer: producer,
		logger:   logger,
	}
}

// List returns every variant.
func (s *InventoryService) List(ctx context.Context) ([]domain.InventoryItem, error) {
	items, err := s.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list inventory: %w", err)
	}
	return items, nil
}

// GetProduct returns the color/size grid of a product, optionally for one
// color.
func (s *InventoryService) GetProduct(ctx context.Context, productID int, color string) (domain.ProductStock, error) {
	items, err := s.repo.ListByProduct(ctx, productID, color)
	if err != nil {
		return nil, fmt.Errorf("get product inventory: %w", err)
	}
	if len(items) == 0 {
		return nil, apperrors.NotFoundMessage("Product not found in inventory")
	}
	return domain.BuildProductStock(items), nil
}

// Check reports the availability of one variant.
func (s *InventoryService) Check(ctx context.Context, key domain.VariantKey) (*domain.StockLevel, error) {
	item, err := s.repo.Get(ctx, key)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, apperrors.NotFoundMessage("Inventory item not found")
		}
		return nil, fmt.Errorf("check inventory: %w", err)
	}
	level := item.Level()
	return &level, nil
}

// Stats summarizes the ledger.
func (s *InventoryService) Stats(ctx context.Context) (*domain.InventoryStats, error) {
	items, err := s.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("inventory stats: %w", err)
	}
	stats := domain.ComputeInventoryStats(items)
	return &stats, nil
}

// Reserve holds stock for every request, in order. The batch is all or
// nothing: when one item cannot be held, the holds already taken by this
// call are released before the error is returned.
func (s *InventoryService) Reserve(ctx context.Context, sessionID string, reqs []domain.StockRequest) (int, error) {
	if err := validateStockRequests(reqs); err != nil {
		return 0, err
	}

	held := make([]domain.StockRequest, 0, len(reqs))
	touched := make([]*domain.InventoryItem, 0, len(reqs))
	for _, req := range reqs {
		item, err := s.repo.Reserve(ctx, req)
		if err != nil {
			s.rollback(ctx, sessionID, held)
			s.logger.WarnContext(ctx, "reservation rejected",
				slog.String("session_id", sessionID),
				slog.String("variant", req.Key().String()),
				slog.Int("quantity", req.Quantity),
				slog.String("error", err.Error()),
			)
			if errors.Is(err, apperrors.ErrInsufficientStock) || errors.Is(err, apperrors.ErrNotFound) {
				return 0, err
			}
			return 0, fmt.Errorf("reserve inventory: %w", err)
		}
		held = append(held, req)
		touched = append(touched, item)
	}

	if err := s.producer.PublishStockReserved(ctx, sessionID, held); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish inventory.reserved event",
			slog.String("session_id", sessionID),
			slog.String("error", err.Error()),
		)
	}
	s.checkLowStock(ctx, touched)

	s.logger.InfoContext(ctx, "inventory reserved",
		slog.String("session_id", sessionID),
		slog.Int("items", len(held)),
	)
	return len(held), nil
}

// rollback gives back holds taken earlier in a failed batch.
func (s *InventoryService) rollback(ctx context.Context, sessionID string, held []domain.StockRequest) {
	for _, req := range held {
		if _, _, err := s.repo.Release(ctx, req); err != nil {
			s.logger.ErrorContext(ctx, "failed to roll back reservation",
				slog.String("session_id", sessionID),
				slog.String("variant", req.Key().String()),
				slog.Int("quantity", req.Quantity),
				slog.String("error", err.Error()),
			)
		}
	}
}

// Release gives held units back. Asking for more than is held is logged and
// clamped, never an error; unknown variants are skipped.
func (s *InventoryService) Release(ctx context.Context, sessionID string, reqs []domain.StockRequest) (int, error) {
	if err := validateStockRequests(reqs); err != nil {
		return 0, err
	}

	var (
		released []domain.StockRequest
		errs     []error
	)
	for _, req := range reqs {
		_, n, err := s.repo.Release(ctx, req)
		if err != nil {
			if errors.Is(err, apperrors.ErrNotFound) {
				s.logger.WarnContext(ctx, "release skipped unknown variant",
					slog.String("session_id", sessionID),
					slog.String("variant", req.Key().String()),
				)
				continue
			}
			errs = append(errs, err)
			continue
		}
		if n < req.Quantity {
			stockOverReleases.Inc()
			s.logger.WarnContext(ctx, "release exceeded held units, clamped at zero",
				slog.String("session_id", sessionID),
				slog.String("variant", req.Key().String()),
				slog.Int("requested", req.Quantity),
				slog.Int("released", n),
			)
		}
		released = append(released, req)
	}

	if len(released) > 0 {
		if err := s.producer.PublishStockReleased(ctx, sessionID, released); err != nil {
			s.logger.ErrorContext(ctx, "failed to publish inventory.released event",
				slog.String("session_id", sessionID),
				slog.String("error", err.Error()),
			)
		}
	}
	if len(errs) > 0 {
		return len(released), fmt.Errorf("release inventory: %w", errors.Join(errs...))
	}
	return len(released), nil
}

// Commit deducts sold units. With fromHold the hold taken at checkout is
// converted; otherwise, or when no hold covers the quantity, the units come
// from unreserved stock so other sessions' holds stay intact. A variant
// that satisfies neither guard is logged as a shortfall and skipped, since
// the customer has already paid.
func (s *InventoryService) Commit(ctx context.Context, sessionID string, reqs []domain.StockRequest, fromHold bool) (int, error) {
	if err := validateStockRequests(reqs); err != nil {
		return 0, err
	}

	var (
		committed []domain.StockRequest
		touched   []*domain.InventoryItem
		errs      []error
	)
	for _, req := range reqs {
		item, mode, err := s.repo.Commit(ctx, req, fromHold)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		stockCommits.WithLabelValues(string(mode)).Inc()
		if mode == domain.CommitShortfall {
			s.logger.ErrorContext(ctx, "inventory shortfall on commit",
				slog.String("session_id", sessionID),
				slog.String("variant", req.Key().String()),
				slog.Int("quantity", req.Quantity),
			)
			continue
		}
		committed = append(committed, req)
		touched = append(touched, item)
	}

	if len(committed) > 0 {
		if err := s.producer.PublishStockCommitted(ctx, sessionID, committed); err != nil {
			s.logger.ErrorContext(ctx, "failed to publish inventory.committed event",
				slog.String("session_id", sessionID),
				slog.String("error", err.Error()),
			)
		}
		s.checkLowStock(ctx, touched)
	}
	if len(errs) > 0 {
		return len(committed), fmt.Errorf("commit inventory: %w", errors.Join(errs...))
	}
	return len(committed), nil
}

// Update applies an admin change to one variant.
func (s *InventoryService) Update(ctx context.Context, u domain.InventoryUpdate) (*domain.InventoryItem, error) {
	item, err := s.repo.Update(ctx, u)
	if err != nil {
		return nil, err
	}
	s.logger.InfoContext(ctx, "inventory updated",
		slog.String("variant", u.Key().String()),
		slog.Int("quantity", item.Quantity),
		slog.Int("low_stock_threshold", item.LowStockThreshold),
	)
	return item, nil
}

// BulkUpdate applies admin changes and returns how many variants changed.
func (s *InventoryService) BulkUpdate(ctx context.Context, updates []domain.InventoryUpdate) (int, error) {
	if len(updates) == 0 {
		return 0, apperrors.InvalidInput("updates list cannot be empty")
	}
	n, err := s.repo.BulkUpdate(ctx, updates)
	if err != nil {
		return 0, err
	}
	s.logger.InfoContext(ctx, "inventory bulk updated",
		slog.Int("requested", len(updates)),
		slog.Int("updated", n),
	)
	return n, nil
}

// checkLowStock publishes a low stock event for variants at or below their
// threshold.
func (s *InventoryService) checkLowStock(ctx context.Context, items []*domain.InventoryItem) {
	for _, it := range items {
		if it == nil || it.Available() > it.LowStockThreshold {
			continue
		}
		ev := domain.LowStockEvent{
			ProductID:   it.ProductID,
			ProductName: it.ProductName,
			Color:       it.Color,
			Size:        it.Size,
			Available:   it.Available(),
			Threshold:   it.LowStockThreshold,
		}
		if err := s.producer.PublishLowStock(ctx, ev); err != nil {
			s.logger.ErrorContext(ctx, "failed to publish inventory.low_stock event",
				slog.String("variant", it.Key().String()),
				slog.String("error", err.Error()),
			)
		}
	}
}

func validateStockRequests(reqs []domain.StockRequest) error {
	if len(reqs) == 0 {
		return apperrors.InvalidInput("items list cannot be empty")
	}
	for _, r := range reqs {
		if r.Quantity <= 0 {
			return apperrors.InvalidInput(fmt.Sprintf("quantity for %s must be positive", r.Key()))
		}
	}
	return nil
}
