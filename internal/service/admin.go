package service

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/razeathletics/storefront/internal/domain"
	"github.com/razeathletics/storefront/internal/notification"
	"github.com/razeathletics/storefront/internal/repository"
	apperrors "github.com/razeathletics/storefront/pkg/errors"
)

// recentWindow is the look-back of the "recent" dashboard counters.
const recentWindow = 7 * 24 * time.Hour

// AdminConfig holds the tunables of AdminService.
type AdminConfig struct {
	Password   string
	SessionTTL time.Duration
	BatchSize  int
	BatchPause time.Duration
}

// AdminService backs the admin console: its password login, dashboard
// counters, record listings and bulk email.
type AdminService struct {
	sessions repository.AdminSessionStore
	users    repository.UserRepository
	subs     repository.SubscriptionRepository
	waitlist repository.WaitlistRepository
	orders   repository.OrderRepository
	email    notification.EmailSender
	logger   *slog.Logger
	cfg      AdminConfig
	now      func() time.Time
	sleep    func(ctx context.Context, d time.Duration) error
}

// NewAdminService creates a new admin service.
func NewAdminService(
	sessions repository.AdminSessionStore,
	users repository.UserRepository,
	subs repository.SubscriptionRepository,
	waitlist repository.WaitlistRepository,
	orders repository.OrderRepository,
	email notification.EmailSender,
	logger *slog.Logger,
	cfg AdminConfig,
) *AdminService {
	return &AdminService{
		sessions: sessions,
		users:    users,
		subs:     subs,
		waitlist: waitlist,
		orders:   orders,
		email:    email,
		logger:   logger,
		cfg:      cfg,
		now:      func() time.Time { return time.Now().UTC() },
		sleep:    sleepContext,
	}
}

// Login checks the shared admin password and opens an admin session.
func (s *AdminService) Login(ctx context.Context, password string) (*domain.AdminLoginResult, error) {
	if s.cfg.Password == "" || subtle.ConstantTimeCompare([]byte(password), []byte(s.cfg.Password)) != 1 {
		s.logger.WarnContext(ctx, "admin login rejected")
		return nil, apperrors.Unauthorized("Invalid admin password")
	}

	token, err := domain.NewSessionToken()
	if err != nil {
		return nil, fmt.Errorf("generate admin token: %w", err)
	}
	if err := s.sessions.Create(ctx, token, s.cfg.SessionTTL); err != nil {
		return nil, fmt.Errorf("store admin session: %w", err)
	}

	s.logger.InfoContext(ctx, "admin logged in")
	return &domain.AdminLoginResult{Success: true, Message: "Admin logged in successfully", Token: token}, nil
}

// Logout ends an admin session.
func (s *AdminService) Logout(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	if err := s.sessions.Delete(ctx, token); err != nil {
		return fmt.Errorf("delete admin session: %w", err)
	}
	return nil
}

// Verify reports whether token names a live admin session.
func (s *AdminService) Verify(ctx context.Context, token string) (bool, error) {
	if token == "" {
		return false, nil
	}
	ok, err := s.sessions.Exists(ctx, token)
	if err != nil {
		return false, fmt.Errorf("check admin session: %w", err)
	}
	return ok, nil
}

// ValidateAdmin is Verify turned into an error for guarded routes.
func (s *AdminService) ValidateAdmin(ctx context.Context, token string) error {
	ok, err := s.Verify(ctx, token)
	if err != nil {
		return err
	}
	if !ok {
		return apperrors.Unauthorized("Admin authentication required")
	}
	return nil
}

// Stats collects the dashboard counters.
func (s *AdminService) Stats(ctx context.Context) (*domain.AdminStats, error) {
	since := s.now().Add(-recentWindow)

	_, totalUsers, err := s.users.List(ctx, 0, 1)
	if err != nil {
		return nil, fmt.Errorf("count users: %w", err)
	}
	bySource, err := s.subs.CountBySource(ctx)
	if err != nil {
		return nil, fmt.Errorf("count subscriptions: %w", err)
	}
	orderStats, err := s.orders.Stats(ctx)
	if err != nil {
		return nil, fmt.Errorf("count orders: %w", err)
	}
	_, taken, err := s.waitlist.Counter(ctx)
	if err != nil {
		return nil, fmt.Errorf("count waitlist: %w", err)
	}
	recentUsers, err := s.users.CountSince(ctx, since)
	if err != nil {
		return nil, fmt.Errorf("count recent users: %w", err)
	}
	recentSubs, err := s.subs.CountSince(ctx, since)
	if err != nil {
		return nil, fmt.Errorf("count recent subscriptions: %w", err)
	}

	return &domain.AdminStats{
		TotalUsers:          totalUsers,
		TotalSubscribers:    domain.NewSubscriptionStats(bySource).Total,
		TotalOrders:         orderStats.TotalOrders,
		TotalWaitlist:       taken,
		RecentUsers7d:       recentUsers,
		RecentSubscribers7d: recentSubs,
	}, nil
}

// ListUsers returns accounts newest first.
func (s *AdminService) ListUsers(ctx context.Context, skip, limit int) ([]domain.User, int, error) {
	users, total, err := s.users.List(ctx, skip, limit)
	if err != nil {
		return nil, 0, fmt.Errorf("list users: %w", err)
	}
	return users, total, nil
}

// DeleteUser removes an account and its login sessions.
func (s *AdminService) DeleteUser(ctx context.Context, userID string) (bool, error) {
	if err := s.users.Delete(ctx, userID); err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return false, nil
		}
		return false, fmt.Errorf("delete user: %w", err)
	}
	s.logger.InfoContext(ctx, "user deleted by admin", slog.String("user_id", userID))
	return true, nil
}

// BulkEmail sends one message to every recipient of the target group. The
// send is synchronous so the counts can be reported back.
func (s *AdminService) BulkEmail(ctx context.Context, req *domain.BulkEmailRequest) (*domain.BulkEmailResult, error) {
	target := req.Target
	if target == "" {
		target = domain.TargetAll
	}

	recipients, err := s.recipients(ctx, target)
	if err != nil {
		return nil, err
	}
	if len(recipients) == 0 {
		return &domain.BulkEmailResult{Success: false, Message: "No recipients found"}, nil
	}

	res := &domain.BulkEmailResult{TotalRecipients: len(recipients)}
	batches := domain.Batches(recipients, s.cfg.BatchSize)
	for i, batch := range batches {
		for _, to := range batch {
			err := s.email.Send(ctx, notification.Email{To: []string{to}, Subject: req.Subject, HTML: req.HTMLContent})
			if err != nil {
				s.logger.ErrorContext(ctx, "bulk email delivery failed",
					slog.String("to", to),
					slog.String("error", err.Error()),
				)
				res.FailedCount++
				continue
			}
			res.SentCount++
		}
		if i < len(batches)-1 {
			if err := s.sleep(ctx, s.cfg.BatchPause); err != nil {
				res.FailedCount += len(recipients) - res.SentCount - res.FailedCount
				break
			}
		}
	}

	s.logger.InfoContext(ctx, "bulk email sent",
		slog.String("target", target),
		slog.Int("sent", res.SentCount),
		slog.Int("failed", res.FailedCount),
	)

	res.Success = true
	res.Message = "Bulk email sent"
	return res, nil
}

func (s *AdminService) recipients(ctx context.Context, target string) ([]string, error) {
	var lists [][]string
	collect := func(what string, fetch func() ([]string, error)) error {
		emails, err := fetch()
		if err != nil {
			return fmt.Errorf("load %s emails: %w", what, err)
		}
		lists = append(lists, emails)
		return nil
	}
	subscribers := func() ([]string, error) { return s.subs.Emails(ctx, "") }
	users := func() ([]string, error) { return s.users.Emails(ctx) }

	var err error
	switch target {
	case domain.TargetAll:
		if err = collect("subscriber", subscribers); err == nil {
			err = collect("user", users)
		}
	case domain.TargetSubscribers:
		err = collect("subscriber", subscribers)
	case domain.TargetUsers:
		err = collect("user", users)
	case domain.TargetWaitlist:
		err = collect("waitlist", func() ([]string, error) { return s.waitlist.Emails(ctx) })
	case domain.TargetEarlyAccess:
		err = collect("early access", func() ([]string, error) { return s.subs.Emails(ctx, domain.SourceEarlyAccess) })
	default:
		return nil, apperrors.InvalidInput(fmt.Sprintf("invalid target %q", target))
	}
	if err != nil {
		return nil, err
	}
	return domain.DedupeEmails(lists...), nil
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
