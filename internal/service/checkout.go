package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/razeathletics/storefront/internal/domain"
	"github.com/razeathletics/storefront/internal/event"
	"github.com/razeathletics/storefront/internal/notification"
	"github.com/razeathletics/storefront/internal/provider/payment"
	"github.com/razeathletics/storefront/internal/repository"
	apperrors "github.com/razeathletics/storefront/pkg/errors"
)

// checkoutProductName labels the single line of the hosted payment page.
const checkoutProductName = "RAZE Order"

// StockLedger is the part of the inventory service the checkout drives.
type StockLedger interface {
	Reserve(ctx context.Context, sessionID string, reqs []domain.StockRequest) (int, error)
	Release(ctx context.Context, sessionID string, reqs []domain.StockRequest) (int, error)
	Commit(ctx context.Context, sessionID string, reqs []domain.StockRequest, fromHold bool) (int, error)
}

// AccessCodes verifies and consumes waitlist access codes.
type AccessCodes interface {
	Verify(ctx context.Context, code string) (*domain.VerifyResult, error)
	MarkPurchased(ctx context.Context, code string) (bool, error)
}

// PromoRedeemer records promo code usage.
type PromoRedeemer interface {
	Use(ctx context.Context, code string) (bool, error)
}

// CheckoutService drives a payment session from creation to the order it
// materializes: reserve, pay, then commit or release.
type CheckoutService struct {
	repo     repository.CheckoutRepository
	stock    StockLedger
	codes    AccessCodes
	promos   PromoRedeemer
	provider payment.Provider
	notifier Notifier
	producer *event.Producer
	logger   *slog.Logger
	ttl      time.Duration
	now      func() time.Time
}

// NewCheckoutService creates a new checkout service. ttl is how long a
// session may stay unpaid.
func NewCheckoutService(
	repo repository.CheckoutRepository,
	stock StockLedger,
	codes AccessCodes,
	promos PromoRedeemer,
	provider payment.Provider,
	notifier Notifier,
	producer *event.Producer,
	logger *slog.Logger,
	ttl time.Duration,
) *CheckoutService {
	return &CheckoutService{
		repo:     repo,
		stock:    stock,
		codes:    codes,
		promos:   promos,
		provider: provider,
		notifier: notifier,
		producer: producer,
		logger:   logger,
		ttl:      ttl,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// CreateSession validates the cart, optionally holds its stock and opens a
// hosted payment session. A provider failure releases the holds taken here.
func (s *CheckoutService) CreateSession(ctx context.Context, req *domain.CheckoutRequest) (*domain.CheckoutSession, error) {
	if err := domain.CheckPricing(req.Items, req.Pricing); err != nil {
		return nil, apperrors.InvalidInput(err.Error())
	}
	if req.Total <= 0 {
		return nil, apperrors.InvalidInput("order total must be greater than 0")
	}

	if req.AccessCode != "" {
		res, err := s.codes.Verify(ctx, domain.NormalizeCode(req.AccessCode))
		if err != nil {
			return nil, fmt.Errorf("verify access code: %w", err)
		}
		if !res.Valid {
			return nil, apperrors.InvalidInput(res.Message)
		}
	}

	reqs := domain.StockRequests(req.Items)
	reserved := req.ShouldReserve()
	if reserved {
		if _, err := s.stock.Reserve(ctx, "", reqs); err != nil {
			return nil, err
		}
	}

	now := s.now()
	metadata := req.Metadata()
	sess, err := s.provider.CreateSession(ctx, &payment.SessionInput{
		Amount:         req.Total,
		Currency:       domain.CurrencyUSD,
		ProductName:    checkoutProductName,
		SuccessURL:     req.SuccessURL(),
		CancelURL:      req.CancelURL(),
		CustomerEmail:  req.Shipping.Email,
		Metadata:       metadata,
		ExpiresAt:      now.Add(s.ttl),
		IdempotencyKey: uuid.NewString(),
	})
	if err != nil {
		s.releaseHolds(ctx, "", reserved, reqs)
		s.logger.ErrorContext(ctx, "payment session creation failed",
			slog.String("provider", s.provider.Name()),
			slog.String("error", err.Error()),
		)
		return nil, apperrors.ProviderUnavailable(s.provider.Name(), err)
	}

	pending := domain.NewPendingOrder(sess.ID, req, reserved, now)
	tx := domain.NewPaymentTransaction(sess.ID, req.Total, metadata, now)
	if err := s.repo.Stage(ctx, pending, tx); err != nil {
		s.releaseHolds(ctx, sess.ID, reserved, reqs)
		return nil, fmt.Errorf("stage checkout: %w", err)
	}

	ev := domain.CheckoutCreatedEvent{
		SessionID: sess.ID,
		Email:     req.Shipping.Email,
		Total:     req.Total,
		Reserved:  reserved,
	}
	if err := s.producer.PublishCheckoutCreated(ctx, ev); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish checkout.created event",
			slog.String("session_id", sess.ID),
			slog.String("error", err.Error()),
		)
	}

	s.logger.InfoContext(ctx, "checkout session created",
		slog.String("session_id", sess.ID),
		slog.Int64("total", req.Total),
		slog.Bool("reserved", reserved),
	)

	expiresAt := sess.ExpiresAt
	if expiresAt.IsZero() {
		expiresAt = now.Add(s.ttl)
	}
	return &domain.CheckoutSession{
		CheckoutURL: sess.URL,
		SessionID:   sess.ID,
		ExpiresAt:   expiresAt,
	}, nil
}

func (s *CheckoutService) releaseHolds(ctx context.Context, sessionID string, reserved bool, reqs []domain.StockRequest) {
	if !reserved {
		return
	}
	if _, err := s.stock.Release(context.WithoutCancel(ctx), sessionID, reqs); err != nil {
		s.logger.ErrorContext(ctx, "failed to release checkout reservations",
			slog.String("session_id", sessionID),
			slog.String("error", err.Error()),
		)
	}
}

// GetStatus asks the provider for the session state, records it and, once
// paid, materializes the order. Repeated polls return the same order.
func (s *CheckoutService) GetStatus(ctx context.Context, sessionID string) (*domain.CheckoutStatus, error) {
	st, err := s.provider.GetStatus(ctx, sessionID)
	if err != nil {
		if errors.Is(err, payment.ErrSessionNotFound) {
			return nil, apperrors.NotFoundMessage("Checkout session not found")
		}
		return nil, apperrors.ProviderUnavailable(s.provider.Name(), err)
	}

	out := &domain.CheckoutStatus{
		SessionID:     sessionID,
		Status:        st.Status,
		PaymentStatus: st.PaymentStatus,
		AmountTotal:   st.AmountTotal,
		Currency:      st.Currency,
	}

	s.recordStatus(ctx, sessionID, transactionStatus(st), st.PaymentStatus)

	if out.IsPaid() {
		order, err := s.materialize(ctx, sessionID)
		if err != nil {
			return nil, err
		}
		if order != nil {
			out.OrderID = order.ID
			out.OrderNumber = order.OrderNumber
		}
	}
	return out, nil
}

// transactionStatus maps a provider session to the stored transaction
// status. States the provider adds later are recorded as pending.
func transactionStatus(st *payment.SessionStatus) string {
	switch {
	case st.PaymentStatus == domain.PaymentStatusPaid:
		return domain.TxStatusPaid
	case st.Status == payment.SessionExpired:
		return domain.TxStatusExpired
	}
	return domain.TxStatusPending
}

// webhookTransactionStatus maps a provider event to the stored transaction
// status using the same vocabulary as transactionStatus.
func webhookTransactionStatus(ev *payment.WebhookEvent) string {
	switch {
	case ev.PaymentStatus == domain.PaymentStatusPaid:
		return domain.TxStatusPaid
	case ev.Type == payment.EventCheckoutExpired:
		return domain.TxStatusExpired
	case ev.Type == payment.EventAsyncPaymentFailed:
		return domain.TxStatusFailed
	}
	return domain.TxStatusPending
}

func (s *CheckoutService) recordStatus(ctx context.Context, sessionID, status, paymentStatus string) {
	if err := s.repo.UpdateTransactionStatus(ctx, sessionID, status, paymentStatus); err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			s.logger.WarnContext(ctx, "no payment transaction for session",
				slog.String("session_id", sessionID),
			)
			return
		}
		s.logger.ErrorContext(ctx, "failed to update payment transaction",
			slog.String("session_id", sessionID),
			slog.String("error", err.Error()),
		)
	}
}

// HandleWebhook verifies and applies a provider event.
func (s *CheckoutService) HandleWebhook(ctx context.Context, payload []byte, signature string) (*domain.WebhookResult, error) {
	ev, err := s.provider.ParseWebhook(payload, signature)
	if err != nil {
		if errors.Is(err, payment.ErrInvalidSignature) {
			return nil, apperrors.InvalidInput("Invalid webhook signature")
		}
		return nil, apperrors.InvalidInput(fmt.Sprintf("invalid webhook payload: %v", err))
	}

	result := &domain.WebhookResult{EventType: ev.Type, SessionID: ev.SessionID}
	if ev.SessionID == "" {
		return result, nil
	}

	s.recordStatus(ctx, ev.SessionID, webhookTransactionStatus(ev), ev.PaymentStatus)

	switch {
	case (ev.Type == payment.EventCheckoutCompleted || ev.Type == payment.EventAsyncPaymentSucceeded) &&
		ev.PaymentStatus == domain.PaymentStatusPaid:
		order, err := s.materialize(ctx, ev.SessionID)
		if err != nil {
			return nil, err
		}
		if order != nil {
			result.OrderNumber = order.OrderNumber
		}
	case ev.Type == payment.EventCheckoutExpired:
		if _, err := s.expire(ctx, ev.SessionID); err != nil {
			return nil, err
		}
	}

	s.logger.InfoContext(ctx, "payment webhook processed",
		slog.String("event_id", ev.ID),
		slog.String("event_type", ev.Type),
		slog.String("session_id", ev.SessionID),
	)
	return result, nil
}

// materialize turns a paid session into its order. It returns nil without
// error when the session has neither a staged cart nor an order.
func (s *CheckoutService) materialize(ctx context.Context, sessionID string) (*domain.Order, error) {
	m, err := s.repo.Materialize(ctx, sessionID, s.now())
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			s.logger.WarnContext(ctx, "paid session has no pending order",
				slog.String("session_id", sessionID),
			)
			return nil, nil
		}
		return nil, fmt.Errorf("materialize order: %w", err)
	}
	if m.Created {
		s.afterMaterialize(context.WithoutCancel(ctx), m.Order, m.Pending)
	}
	return m.Order, nil
}

// afterMaterialize runs the once-per-order side effects. Failures are
// logged; the order stands.
func (s *CheckoutService) afterMaterialize(ctx context.Context, order *domain.Order, p *domain.PendingOrder) {
	ordersMaterialized.Inc()

	if _, err := s.stock.Commit(ctx, p.SessionID, p.StockRequests(), p.Reserved); err != nil {
		s.logger.ErrorContext(ctx, "failed to commit inventory for order",
			slog.String("order_id", order.ID),
			slog.String("error", err.Error()),
		)
	}

	if p.AccessCode != "" {
		if _, err := s.codes.MarkPurchased(ctx, p.AccessCode); err != nil {
			s.logger.ErrorContext(ctx, "failed to mark access code purchased",
				slog.String("order_id", order.ID),
				slog.String("error", err.Error()),
			)
		}
	}

	if p.PromoCode != "" {
		if _, err := s.promos.Use(ctx, p.PromoCode); err != nil {
			s.logger.ErrorContext(ctx, "failed to record promo code use",
				slog.String("order_id", order.ID),
				slog.String("code", p.PromoCode),
				slog.String("error", err.Error()),
			)
		}
	}

	if email, err := notification.OrderConfirmation(order); err != nil {
		s.logger.ErrorContext(ctx, "failed to render order confirmation",
			slog.String("order_id", order.ID),
			slog.String("error", err.Error()),
		)
	} else {
		s.notifier.Enqueue(notification.EmailTask("order_confirmation", email))
	}

	ev := domain.OrderConfirmedEvent{
		OrderID:     order.ID,
		OrderNumber: order.OrderNumber,
		Email:       order.Shipping.Email,
		Total:       order.Total,
		SessionID:   p.SessionID,
		PromoCode:   p.PromoCode,
	}
	if err := s.producer.PublishOrderConfirmed(ctx, ev); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish order.confirmed event",
			slog.String("order_id", order.ID),
			slog.String("error", err.Error()),
		)
	}

	s.logger.InfoContext(ctx, "order materialized",
		slog.String("order_id", order.ID),
		slog.String("order_number", order.OrderNumber),
		slog.String("session_id", p.SessionID),
	)
}

// ExpireStale abandons sessions staged before cutoff and returns how many
// it expired.
func (s *CheckoutService) ExpireStale(ctx context.Context, cutoff time.Time, limit int) (int, error) {
	stale, err := s.repo.ListStale(ctx, cutoff, limit)
	if err != nil {
		return 0, fmt.Errorf("list stale checkouts: %w", err)
	}

	expired := 0
	for _, p := range stale {
		if ctx.Err() != nil {
			break
		}
		ok, err := s.expire(ctx, p.SessionID)
		if err != nil {
			s.logger.ErrorContext(ctx, "failed to expire checkout",
				slog.String("session_id", p.SessionID),
				slog.String("error", err.Error()),
			)
			continue
		}
		if ok {
			expired++
		}
	}
	return expired, nil
}

// expire claims the pending order of an unpaid session, gives its holds
// back and marks the transaction expired. Claiming first means a session is
// either materialized or expired, never both.
func (s *CheckoutService) expire(ctx context.Context, sessionID string) (bool, error) {
	p, err := s.repo.ClaimPending(ctx, sessionID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return false, nil
		}
		return false, fmt.Errorf("claim pending order: %w", err)
	}

	reqs := p.StockRequests()
	s.releaseHolds(ctx, sessionID, p.Reserved, reqs)

	if _, err := s.repo.ExpireTransaction(ctx, sessionID); err != nil {
		s.logger.ErrorContext(ctx, "failed to expire payment transaction",
			slog.String("session_id", sessionID),
			slog.String("error", err.Error()),
		)
	}

	ev := domain.CheckoutExpiredEvent{
		SessionID: sessionID,
		Reserved:  p.Reserved,
		Items:     reqs,
		CreatedAt: p.CreatedAt,
	}
	if err := s.producer.PublishCheckoutExpired(ctx, ev); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish checkout.expired event",
			slog.String("session_id", sessionID),
			slog.String("error", err.Error()),
		)
	}

	s.logger.InfoContext(ctx, "checkout expired",
		slog.String("session_id", sessionID),
		slog.Bool("reserved", p.Reserved),
	)
	return true, nil
}
