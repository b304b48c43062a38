package domain

import (
	"sort"
	"strings"
)

// Bulk email targets.
const (
	TargetAll         = "all"
	TargetSubscribers = "subscribers"
	TargetUsers       = "users"
	TargetWaitlist    = "waitlist"
	TargetEarlyAccess = "early_access"
)

// AdminLoginRequest carries the shared admin password.
type AdminLoginRequest struct {
	Password string `json:"password" validate:"required"`
}

// AdminLoginResult returns the admin token in the body as well as the
// cookie for clients that cannot read cookies.
type AdminLoginResult struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Token   string `json:"token"`
}

// AdminStats is the admin dashboard summary.
type AdminStats struct {
	TotalUsers          int `json:"total_users"`
	TotalSubscribers    int `json:"total_subscribers"`
	TotalOrders         int `json:"total_orders"`
	TotalWaitlist       int `json:"total_waitlist"`
	RecentUsers7d       int `json:"recent_users_7d"`
	RecentSubscribers7d int `json:"recent_subscribers_7d"`
}

// BulkEmailRequest sends one message to every recipient of a target group.
type BulkEmailRequest struct {
	Subject     string `json:"subject" validate:"required,max=200"`
	HTMLContent string `json:"html_content" validate:"required"`
	Target      string `json:"target" validate:"omitempty,oneof=all subscribers users waitlist early_access"`
}

// BulkEmailResult reports how a bulk send went.
type BulkEmailResult struct {
	Success         bool   `json:"success"`
	Message         string `json:"message"`
	SentCount       int    `json:"sent_count"`
	FailedCount     int    `json:"failed_count"`
	TotalRecipients int    `json:"total_recipients"`
}

// DedupeEmails lower-cases, drops blanks and removes duplicates. The result
// is sorted.
func DedupeEmails(lists ...[]string) []string {
	seen := make(map[string]struct{})
	var out []string
	for _, list := range lists {
		for _, e := range list {
			e = strings.ToLower(strings.TrimSpace(e))
			if e == "" {
				continue
			}
			if _, ok := seen[e]; ok {
				continue
			}
			seen[e] = struct{}{}
			out = append(out, e)
		}
	}
	sort.Strings(out)
	return out
}

// Batches splits emails into chunks of at most size.
func Batches(emails []string, size int) [][]string {
	if size <= 0 {
		size = len(emails)
	}
	var out [][]string
	for start := 0; start < len(emails); start += size {
		end := min(start+size, len(emails))
		out = append(out, emails[start:end])
	}
	return out
}
