package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/razeathletics/storefront/internal/domain"
	"github.com/razeathletics/storefront/internal/notification"
	apperrors "github.com/razeathletics/storefront/pkg/errors"
)

type mockSubscriptionRepository struct {
	mock.Mock
}

func (m *mockSubscriptionRepository) Create(ctx context.Context, s *domain.EmailSubscription) error {
	return m.Called(ctx, s).Error(0)
}

func (m *mockSubscriptionRepository) CountBySource(ctx context.Context) (map[string]int, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[string]int), args.Error(1)
}

func (m *mockSubscriptionRepository) List(ctx context.Context, source string, skip, limit int) ([]domain.EmailSubscription, int, error) {
	args := m.Called(ctx, source, skip, limit)
	return args.Get(0).([]domain.EmailSubscription), args.Int(1), args.Error(2)
}

func (m *mockSubscriptionRepository) DeleteByEmail(ctx context.Context, email string) (int64, error) {
	args := m.Called(ctx, email)
	return args.Get(0).(int64), args.Error(1)
}

func (m *mockSubscriptionRepository) CountSince(ctx context.Context, since time.Time) (int, error) {
	args := m.Called(ctx, since)
	return args.Int(0), args.Error(1)
}

func (m *mockSubscriptionRepository) Emails(ctx context.Context, source string) ([]string, error) {
	args := m.Called(ctx, source)
	return args.Get(0).([]string), args.Error(1)
}

func newTestSubscriptionService() (*SubscriptionService, *mockSubscriptionRepository, *recordingNotifier) {
	repo := new(mockSubscriptionRepository)
	notifier := &recordingNotifier{}
	svc := NewSubscriptionService(repo, notifier, newTestLogger(), "https://n8n.example/webhook/giveaway")
	svc.now = func() time.Time { return fixedNow }
	return svc, repo, notifier
}

func TestSubscription_Subscribe_Giveaway(t *testing.T) {
	svc, repo, notifier := newTestSubscriptionService()
	repo.On("Create", mock.Anything, mock.MatchedBy(func(s *domain.EmailSubscription) bool {
		return s.Email == "fan@example.com" && s.Drop == domain.DefaultDropName && s.ProductID == ""
	})).Return(nil)

	res, err := svc.Subscribe(context.Background(), &domain.SubscribeRequest{
		Email: " Fan@Example.com", Source: domain.SourceGiveawayPopup, ProductID: "ignored",
	})
	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.Equal(t, domain.SubscribedMessage, res.Message)

	require.Len(t, notifier.tasks, 1)
	assert.Equal(t, notification.KindWebhook, notifier.tasks[0].Kind)
	assert.Equal(t, "https://n8n.example/webhook/giveaway", notifier.tasks[0].URL)
}

func TestSubscription_Subscribe_NotifyMeHasNoWebhook(t *testing.T) {
	svc, repo, notifier := newTestSubscriptionService()
	repo.On("Create", mock.Anything, mock.MatchedBy(func(s *domain.EmailSubscription) bool {
		return s.ProductID == "3"
	})).Return(nil)

	res, err := svc.Subscribe(context.Background(), &domain.SubscribeRequest{
		Email: "fan@example.com", Source: domain.SourceNotifyMe, ProductID: "3", ProductName: "Leggings",
	})
	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.Empty(t, notifier.tasks)
}

func TestSubscription_Subscribe_Duplicate(t *testing.T) {
	tests := []struct {
		name    string
		source  string
		message string
	}{
		{name: "early access", source: domain.SourceEarlyAccess, message: domain.AlreadySubscribedMessage},
		{name: "notify me", source: domain.SourceNotifyMe, message: domain.AlreadySubscribedProductMessage},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, repo, notifier := newTestSubscriptionService()
			repo.On("Create", mock.Anything, mock.Anything).
				Return(apperrors.AlreadyExists("subscription", "email", "fan@example.com"))

			res, err := svc.Subscribe(context.Background(), &domain.SubscribeRequest{
				Email: "fan@example.com", Source: tt.source, ProductID: "3",
			})
			require.NoError(t, err)
			assert.False(t, res.Success)
			assert.Equal(t, tt.message, res.Message)
			assert.Empty(t, notifier.tasks)
		})
	}
}

func TestSubscription_Stats(t *testing.T) {
	svc, repo, _ := newTestSubscriptionService()
	repo.On("CountBySource", mock.Anything).Return(map[string]int{
		domain.SourceGiveawayPopup: 7,
		domain.SourceNotifyMe:      2,
	}, nil)

	stats, err := svc.Stats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 9, stats.Total)
	assert.Equal(t, 7, stats.GiveawayPopup)
	assert.Equal(t, 0, stats.EarlyAccess)
}

func TestSubscription_List_RejectsUnknownSource(t *testing.T) {
	svc, _, _ := newTestSubscriptionService()

	_, _, err := svc.List(context.Background(), "newsletter", 0, 50)
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
}

func TestSubscription_DeleteByEmail(t *testing.T) {
	svc, repo, _ := newTestSubscriptionService()
	repo.On("DeleteByEmail", mock.Anything, "fan@example.com").Return(int64(2), nil)
	repo.On("DeleteByEmail", mock.Anything, "ghost@example.com").Return(int64(0), nil)

	n, err := svc.DeleteByEmail(context.Background(), "FAN@example.com")
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	n, err = svc.DeleteByEmail(context.Background(), "ghost@example.com")
	require.NoError(t, err)
	assert.Zero(t, n)
}
