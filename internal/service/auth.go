package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/razeathletics/storefront/internal/auth"
	"github.com/razeathletics/storefront/internal/domain"
	"github.com/razeathletics/storefront/internal/event"
	"github.com/razeathletics/storefront/internal/notification"
	"github.com/razeathletics/storefront/internal/provider/identity"
	"github.com/razeathletics/storefront/internal/repository"
	apperrors "github.com/razeathletics/storefront/pkg/errors"
)

// bcryptCost is the cost factor for bcrypt password hashing.
const bcryptCost = 12

const invalidCredentialsMessage = "Invalid email or password"

// IdentityExchanger resolves a hosted sign-in session into a profile.
type IdentityExchanger interface {
	Exchange(ctx context.Context, sessionID string) (*domain.IdentityProfile, error)
}

// AuthService implements customer accounts and login sessions.
type AuthService struct {
	users      repository.UserRepository
	sessions   repository.SessionRepository
	jwt        *auth.JWTManager
	identity   IdentityExchanger
	notifier   Notifier
	producer   *event.Producer
	logger     *slog.Logger
	sessionTTL time.Duration
	signupURL  string
	now        func() time.Time
}

// AuthConfig holds the tunables of AuthService.
type AuthConfig struct {
	SessionTTL time.Duration
	// SignupWebhookURL receives new account announcements. Empty disables
	// them.
	SignupWebhookURL string
}

// NewAuthService creates a new auth service.
func NewAuthService(
	users repository.UserRepository,
	sessions repository.SessionRepository,
	jwt *auth.JWTManager,
	idp IdentityExchanger,
	notifier Notifier,
	producer *event.Producer,
	logger *slog.Logger,
	cfg AuthConfig,
) *AuthService {
	return &AuthService{
		users:      users,
		sessions:   sessions,
		jwt:        jwt,
		identity:   idp,
		notifier:   notifier,
		producer:   producer,
		logger:     logger,
		sessionTTL: cfg.SessionTTL,
		signupURL:  cfg.SignupWebhookURL,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// Register creates an email/password account and signs it in.
func (s *AuthService) Register(ctx context.Context, req *domain.RegisterRequest) (*domain.AuthResult, error) {
	user := domain.NewUser(req.Email, req.Name, domain.AuthProviderEmail, s.now())

	if _, err := s.users.GetByEmail(ctx, user.Email); err == nil {
		return nil, apperrors.InvalidInput("Email already registered")
	} else if !errors.Is(err, apperrors.ErrNotFound) {
		return nil, fmt.Errorf("check existing user: %w", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	user.PasswordHash = string(hash)

	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, apperrors.ErrAlreadyExists) {
			return nil, apperrors.InvalidInput("Email already registered")
		}
		return nil, fmt.Errorf("create user: %w", err)
	}

	s.afterSignup(ctx, user)
	return s.issue(ctx, user, true)
}

// Login checks an email/password pair.
func (s *AuthService) Login(ctx context.Context, req *domain.LoginRequest) (*domain.AuthResult, error) {
	user, err := s.users.GetByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, apperrors.Unauthorized(invalidCredentialsMessage)
		}
		return nil, fmt.Errorf("get user: %w", err)
	}
	if user.PasswordHash == "" {
		return nil, apperrors.InvalidInput("This account uses Google sign-in. Please continue with Google.")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return nil, apperrors.Unauthorized(invalidCredentialsMessage)
	}

	s.logger.InfoContext(ctx, "user logged in", slog.String("user_id", user.UserID))
	return s.issue(ctx, user, false)
}

// ExchangeSession trades a hosted sign-in session for a local one, creating
// the account on first sign-in.
func (s *AuthService) ExchangeSession(ctx context.Context, sessionID string) (*domain.AuthResult, error) {
	profile, err := s.identity.Exchange(ctx, sessionID)
	if err != nil {
		if errors.Is(err, identity.ErrInvalidSession) {
			return nil, apperrors.Unauthorized("Invalid session")
		}
		return nil, apperrors.ProviderUnavailable("identity", err)
	}

	candidate := domain.NewUser(profile.Email, profile.Name, domain.AuthProviderGoogle, s.now())
	candidate.Picture = profile.Picture

	user, created, err := s.users.UpsertIdentity(ctx, candidate)
	if err != nil {
		return nil, fmt.Errorf("upsert identity user: %w", err)
	}
	if created {
		s.afterSignup(ctx, user)
	}
	return s.issue(ctx, user, created)
}

// issue opens a login session and signs an access token.
func (s *AuthService) issue(ctx context.Context, user *domain.User, isNew bool) (*domain.AuthResult, error) {
	token, err := domain.NewSessionToken()
	if err != nil {
		return nil, fmt.Errorf("generate session token: %w", err)
	}
	now := s.now()
	session := &domain.UserSession{
		SessionToken: token,
		UserID:       user.UserID,
		ExpiresAt:    now.Add(s.sessionTTL),
		CreatedAt:    now,
	}
	if err := s.sessions.CreateSession(ctx, session); err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}

	access, _, err := s.jwt.GenerateAccessToken(user.UserID, user.Email)
	if err != nil {
		return nil, err
	}

	return &domain.AuthResult{
		User:         user,
		AccessToken:  access,
		SessionToken: token,
		ExpiresAt:    session.ExpiresAt,
		IsNewUser:    isNew,
	}, nil
}

func (s *AuthService) afterSignup(ctx context.Context, user *domain.User) {
	s.logger.InfoContext(ctx, "user registered",
		slog.String("user_id", user.UserID),
		slog.String("auth_provider", user.AuthProvider),
	)

	payload := notification.NewSignupPayload(user.Email, user.Name, user.FirstOrderDiscountCode, user.AuthProvider)
	s.notifier.Enqueue(notification.WebhookTask("signup_webhook", s.signupURL, payload))

	ev := domain.UserRegisteredEvent{
		UserID:       user.UserID,
		Email:        user.Email,
		Name:         user.Name,
		AuthProvider: user.AuthProvider,
		DiscountCode: user.FirstOrderDiscountCode,
	}
	if err := s.producer.PublishUserRegistered(ctx, ev); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish user.registered event",
			slog.String("user_id", user.UserID),
			slog.String("error", err.Error()),
		)
	}
}

// Authenticate resolves a bearer or cookie token into its user. Compact
// JWTs are checked by signature; anything else is looked up as a session.
func (s *AuthService) Authenticate(ctx context.Context, token string) (*domain.User, error) {
	if token == "" {
		return nil, apperrors.Unauthorized("Not authenticated")
	}

	var userID string
	if auth.LooksLikeJWT(token) {
		claims, err := s.jwt.ValidateAccessToken(token)
		if err != nil {
			return nil, apperrors.Unauthorized("Invalid or expired token")
		}
		userID = claims.UserID
	} else {
		session, err := s.sessions.GetSession(ctx, token)
		if err != nil {
			if errors.Is(err, apperrors.ErrNotFound) {
				return nil, apperrors.Unauthorized("Invalid session")
			}
			return nil, fmt.Errorf("get session: %w", err)
		}
		if session.IsExpired(s.now()) {
			if err := s.sessions.DeleteSession(ctx, token); err != nil {
				s.logger.WarnContext(ctx, "failed to delete expired session",
					slog.String("error", err.Error()),
				)
			}
			return nil, apperrors.Unauthorized("Session expired")
		}
		userID = session.UserID
	}

	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, apperrors.Unauthorized("User not found")
		}
		return nil, fmt.Errorf("get user: %w", err)
	}
	return user, nil
}

// ValidateSession resolves token to a user id for the auth middleware.
func (s *AuthService) ValidateSession(ctx context.Context, token string) (string, error) {
	user, err := s.Authenticate(ctx, token)
	if err != nil {
		return "", err
	}
	return user.UserID, nil
}

// User returns the account behind an authenticated request.
func (s *AuthService) User(ctx context.Context, userID string) (*domain.User, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, apperrors.Unauthorized("User not found")
		}
		return nil, fmt.Errorf("get user: %w", err)
	}
	return user, nil
}

// Logout ends a login session. Access tokens simply run out.
func (s *AuthService) Logout(ctx context.Context, token string) error {
	if token == "" || auth.LooksLikeJWT(token) {
		return nil
	}
	if err := s.sessions.DeleteSession(ctx, token); err != nil {
		return fmt.Errorf("logout: %w", err)
	}
	return nil
}

// ValidateFirstOrderDiscount checks code against the user's welcome code.
func (s *AuthService) ValidateFirstOrderDiscount(_ context.Context, user *domain.User, code string) domain.FirstOrderDiscountResult {
	return user.CheckFirstOrderDiscount(code)
}

// UseFirstOrderDiscount consumes the user's welcome code once.
func (s *AuthService) UseFirstOrderDiscount(ctx context.Context, user *domain.User) error {
	ok, err := s.users.UseFirstOrderDiscount(ctx, user.UserID)
	if err != nil {
		return fmt.Errorf("use first order discount: %w", err)
	}
	if !ok {
		return apperrors.InvalidInput("You have already used your first order discount")
	}
	s.logger.InfoContext(ctx, "first order discount used", slog.String("user_id", user.UserID))
	return nil
}
