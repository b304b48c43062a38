package service

import "github.com/razeathletics/storefront/internal/notification"

// Notifier hands side effects to the background dispatcher. Enqueue never
// blocks and reports false when the task was dropped.
type Notifier interface {
	Enqueue(t notification.Task) bool
}
