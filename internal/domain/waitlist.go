package domain

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"strings"
	"time"
)

// AccessCodePrefix starts every waitlist access code.
const AccessCodePrefix = "RAZE-"

// Waitlist answer messages.
const (
	WaitlistAlreadyJoinedMessage = "You're already on the waitlist for this item!"
	WaitlistInvalidCodeMessage   = "Invalid access code"
	WaitlistCodeUsedMessage      = "This code has already been used"
)

// WaitlistEntry is a reserved spot for a limited drop.
type WaitlistEntry struct {
	ID          string     `json:"id"`
	Email       string     `json:"email"`
	ProductID   int        `json:"product_id"`
	ProductName string     `json:"product_name"`
	Variant     string     `json:"variant"`
	Size        string     `json:"size"`
	Position    int        `json:"position"`
	AccessCode  string     `json:"access_code"`
	Notified    bool       `json:"notified"`
	Purchased   bool       `json:"purchased"`
	PurchasedAt *time.Time `json:"purchased_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
}

// JoinWaitlistRequest asks for a spot on the waitlist.
type JoinWaitlistRequest struct {
	Email       string `json:"email" validate:"required,email"`
	ProductID   int    `json:"product_id" validate:"required,gt=0"`
	ProductName string `json:"product_name" validate:"required"`
	Variant     string `json:"variant" validate:"required"`
	Size        string `json:"size" validate:"required"`
}

// Normalize lower-cases and trims the email.
func (r *JoinWaitlistRequest) Normalize() {
	r.Email = strings.ToLower(strings.TrimSpace(r.Email))
}

// JoinResult is the answer to a join. Already is set when the caller was
// on the list before this request.
type JoinResult struct {
	Success    bool   `json:"success"`
	Message    string `json:"message"`
	Position   int    `json:"position"`
	AccessCode string `json:"access_code"`
	Already    bool   `json:"already"`
}

// JoinedResult builds the answer for a newly admitted entry.
func JoinedResult(e *WaitlistEntry) JoinResult {
	return JoinResult{
		Success:    true,
		Message:    fmt.Sprintf("You're #%d on the waitlist! Check your email for your access code.", e.Position),
		Position:   e.Position,
		AccessCode: e.AccessCode,
	}
}

// AlreadyJoinedResult builds the answer for an existing entry.
func AlreadyJoinedResult(e *WaitlistEntry) JoinResult {
	return JoinResult{
		Success:    true,
		Message:    WaitlistAlreadyJoinedMessage,
		Position:   e.Position,
		AccessCode: e.AccessCode,
		Already:    true,
	}
}

// WaitlistStatus reports how many spots remain.
type WaitlistStatus struct {
	TotalSpots     int  `json:"total_spots"`
	SpotsTaken     int  `json:"spots_taken"`
	SpotsRemaining int  `json:"spots_remaining"`
	IsFull         bool `json:"is_full"`
}

// NewWaitlistStatus derives the status from the counter row.
func NewWaitlistStatus(capacity, taken int) WaitlistStatus {
	remaining := max(capacity-taken, 0)
	return WaitlistStatus{
		TotalSpots:     capacity,
		SpotsTaken:     taken,
		SpotsRemaining: remaining,
		IsFull:         remaining == 0,
	}
}

// VerifyResult is the answer to an access code check.
type VerifyResult struct {
	Valid     bool   `json:"valid"`
	Message   string `json:"message,omitempty"`
	Email     string `json:"email,omitempty"`
	ProductID int    `json:"product_id,omitempty"`
	Variant   string `json:"variant,omitempty"`
	Size      string `json:"size,omitempty"`
}

// VerifyEntry checks an entry found by access code. A nil entry means the
// code is unknown.
func VerifyEntry(e *WaitlistEntry) VerifyResult {
	switch {
	case e == nil:
		return VerifyResult{Message: WaitlistInvalidCodeMessage}
	case e.Purchased:
		return VerifyResult{Message: WaitlistCodeUsedMessage}
	}
	return VerifyResult{
		Valid:     true,
		Email:     e.Email,
		ProductID: e.ProductID,
		Variant:   e.Variant,
		Size:      e.Size,
	}
}

// NewAccessCode returns RAZE- followed by eight upper-case hex characters.
func NewAccessCode() (string, error) {
	b := make([]byte, 4)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("read random: %w", err)
	}
	return AccessCodePrefix + strings.ToUpper(hex.EncodeToString(b)), nil
}

// WaitlistJoinedEvent is published when a new entry is admitted.
type WaitlistJoinedEvent struct {
	EntryID     string `json:"entry_id"`
	Email       string `json:"email"`
	ProductID   int    `json:"product_id"`
	ProductName string `json:"product_name"`
	Position    int    `json:"position"`
}
