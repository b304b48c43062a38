package domain

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Auth providers.
const (
	AuthProviderEmail  = "email"
	AuthProviderGoogle = "google"
)

// FirstOrderDiscountPercent is what the per-account welcome code is worth.
const FirstOrderDiscountPercent = 10

// User is a registered customer account.
type User struct {
	UserID                    string    `json:"user_id"`
	Email                     string    `json:"email"`
	Name                      string    `json:"name"`
	Picture                   string    `json:"picture,omitempty"`
	PasswordHash              string    `json:"-"`
	AuthProvider              string    `json:"auth_provider"`
	FirstOrderDiscountCode    string    `json:"first_order_discount_code,omitempty"`
	HasUsedFirstOrderDiscount bool      `json:"has_used_first_order_discount"`
	OrderCount                int       `json:"order_count"`
	CreatedAt                 time.Time `json:"created_at"`
	UpdatedAt                 time.Time `json:"updated_at"`
}

// NewUser builds an account with a fresh id and welcome code.
func NewUser(email, name, provider string, now time.Time) *User {
	return &User{
		UserID:                 NewUserID(),
		Email:                  strings.ToLower(strings.TrimSpace(email)),
		Name:                   name,
		AuthProvider:           provider,
		FirstOrderDiscountCode: NewWelcomeCode(),
		CreatedAt:              now,
		UpdatedAt:              now,
	}
}

// NewUserID returns user_ followed by twelve hex characters.
func NewUserID() string {
	return "user_" + strings.ReplaceAll(uuid.NewString(), "-", "")[:12]
}

// NewWelcomeCode returns WELCOME followed by six upper-case hex characters.
func NewWelcomeCode() string {
	return "WELCOME" + strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:6])
}

// UserSession is a browser login.
type UserSession struct {
	SessionToken string    `json:"-"`
	UserID       string    `json:"user_id"`
	ExpiresAt    time.Time `json:"expires_at"`
	CreatedAt    time.Time `json:"created_at"`
}

// IsExpired reports whether the session is no longer valid at now.
func (s *UserSession) IsExpired(now time.Time) bool {
	return !now.Before(s.ExpiresAt)
}

// NewSessionToken returns a URL safe token carrying 32 random bytes.
func NewSessionToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("read random: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

// RegisterRequest creates an email/password account.
type RegisterRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8,max=72"`
	Name     string `json:"name" validate:"required,max=100"`
}

// LoginRequest authenticates an email/password account.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// SessionExchangeRequest trades an identity provider session id for a
// local session.
type SessionExchangeRequest struct {
	SessionID string `json:"session_id" validate:"required"`
}

// IdentityProfile is what the identity provider returns for a session.
type IdentityProfile struct {
	ID           string `json:"id"`
	Email        string `json:"email"`
	Name         string `json:"name"`
	Picture      string `json:"picture"`
	SessionToken string `json:"session_token"`
}

// AuthResult is returned by register, login and session exchange.
type AuthResult struct {
	User         *User     `json:"user"`
	AccessToken  string    `json:"access_token"`
	SessionToken string    `json:"-"`
	ExpiresAt    time.Time `json:"expires_at"`
	IsNewUser    bool      `json:"is_new_user"`
}

// FirstOrderDiscountRequest carries the welcome code the customer typed.
type FirstOrderDiscountRequest struct {
	Code string `json:"code" validate:"required"`
}

// FirstOrderDiscountResult is the answer to a welcome code check.
type FirstOrderDiscountResult struct {
	Valid         bool   `json:"valid"`
	DiscountType  string `json:"discount_type,omitempty"`
	DiscountValue int64  `json:"discount_value,omitempty"`
	Message       string `json:"message"`
}

// CheckFirstOrderDiscount decides whether code is the user's unused
// welcome code.
func (u *User) CheckFirstOrderDiscount(code string) FirstOrderDiscountResult {
	if u.HasUsedFirstOrderDiscount {
		return FirstOrderDiscountResult{Message: "You have already used your first order discount"}
	}
	if u.FirstOrderDiscountCode == "" || NormalizeCode(code) != NormalizeCode(u.FirstOrderDiscountCode) {
		return FirstOrderDiscountResult{Message: "Invalid discount code for this account"}
	}
	return FirstOrderDiscountResult{
		Valid:         true,
		DiscountType:  DiscountPercentage,
		DiscountValue: FirstOrderDiscountPercent,
		Message:       fmt.Sprintf("%d%% first order discount applied!", FirstOrderDiscountPercent),
	}
}

// UserRegisteredEvent is published when an account is created.
type UserRegisteredEvent struct {
	UserID       string `json:"user_id"`
	Email        string `json:"email"`
	Name         string `json:"name"`
	AuthProvider string `json:"auth_provider"`
	DiscountCode string `json:"discount_code"`
}
