// Package notification delivers transactional email and workflow webhooks
// off the request path.
package notification

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/razeathletics/storefront/pkg/httpclient"
)

// TaskKind selects the channel a task is delivered through.
type TaskKind string

// Task kinds.
const (
	KindEmail   TaskKind = "email"
	KindWebhook TaskKind = "webhook"
)

// Drop reasons reported on the dropped counter.
const (
	dropQueueFull = "queue_full"
	dropClosed    = "closed"
	dropNoTarget  = "no_target"
)

// Task is one unit of background delivery.
type Task struct {
	Kind    TaskKind
	Name    string
	Email   Email
	URL     string
	Payload any
}

// EmailTask wraps an email. name labels the task in logs.
func EmailTask(name string, e Email) Task {
	return Task{Kind: KindEmail, Name: name, Email: e}
}

// WebhookTask wraps a webhook post. An empty url makes the task a no-op
// that Enqueue drops.
func WebhookTask(name, url string, payload any) Task {
	return Task{Kind: KindWebhook, Name: name, URL: url, Payload: payload}
}

// Config tunes the worker pool.
type Config struct {
	Workers     int
	QueueSize   int
	MaxAttempts int
	TaskTimeout time.Duration
	BaseBackoff time.Duration
}

// DefaultConfig returns the settings used when nothing is configured.
func DefaultConfig() Config {
	return Config{
		Workers:     4,
		QueueSize:   256,
		MaxAttempts: 3,
		TaskTimeout: 10 * time.Second,
		BaseBackoff: 500 * time.Millisecond,
	}
}

// Dispatcher runs notification tasks on a fixed pool of workers fed by a
// bounded queue.
type Dispatcher struct {
	email   EmailSender
	webhook WebhookPoster
	cfg     Config
	logger  *slog.Logger

	queue     chan Task
	mu        sync.RWMutex
	closed    bool
	startOnce sync.Once
	wg        sync.WaitGroup
}

// NewDispatcher creates a dispatcher. Zero config values fall back to
// DefaultConfig.
func NewDispatcher(email EmailSender, webhook WebhookPoster, cfg Config, logger *slog.Logger) *Dispatcher {
	def := DefaultConfig()
	if cfg.Workers <= 0 {
		cfg.Workers = def.Workers
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = def.QueueSize
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = def.MaxAttempts
	}
	if cfg.TaskTimeout <= 0 {
		cfg.TaskTimeout = def.TaskTimeout
	}
	if cfg.BaseBackoff <= 0 {
		cfg.BaseBackoff = def.BaseBackoff
	}
	return &Dispatcher{
		email:   email,
		webhook: webhook,
		cfg:     cfg,
		logger:  logger,
		queue:   make(chan Task, cfg.QueueSize),
	}
}

// Start launches the workers. Calling it again has no effect.
func (d *Dispatcher) Start() {
	d.startOnce.Do(func() {
		for i := 0; i < d.cfg.Workers; i++ {
			d.wg.Add(1)
			go d.work()
		}
		d.logger.Info("notification dispatcher started",
			slog.Int("workers", d.cfg.Workers),
			slog.Int("queue_size", d.cfg.QueueSize),
		)
	})
}

// Enqueue hands t to the workers without blocking and reports whether it
// was accepted.
func (d *Dispatcher) Enqueue(t Task) bool {
	kind := string(t.Kind)
	if t.Kind == KindWebhook && t.URL == "" {
		tasksDropped.WithLabelValues(kind, dropNoTarget).Inc()
		return false
	}

	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.closed {
		tasksDropped.WithLabelValues(kind, dropClosed).Inc()
		return false
	}

	select {
	case d.queue <- t:
		tasksEnqueued.WithLabelValues(kind).Inc()
		queueDepth.Inc()
		return true
	default:
		tasksDropped.WithLabelValues(kind, dropQueueFull).Inc()
		d.logger.Warn("notification queue full, task dropped",
			slog.String("task", t.Name),
			slog.String("kind", kind),
		)
		return false
	}
}

// Shutdown stops accepting tasks and waits until the queued ones have run
// or ctx is done.
func (d *Dispatcher) Shutdown(ctx context.Context) error {
	d.mu.Lock()
	if !d.closed {
		d.closed = true
		close(d.queue)
	}
	d.mu.Unlock()

	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		d.logger.Info("notification dispatcher drained")
		return nil
	case <-ctx.Done():
		return fmt.Errorf("drain notification queue: %w", ctx.Err())
	}
}

func (d *Dispatcher) work() {
	defer d.wg.Done()
	for t := range d.queue {
		queueDepth.Dec()
		d.run(t)
	}
}

func (d *Dispatcher) run(t Task) {
	kind := string(t.Kind)
	status := "failed"
	defer func() {
		if r := recover(); r != nil {
			status = "panic"
			d.logger.Error("notification task panicked",
				slog.String("task", t.Name),
				slog.Any("panic", r),
			)
		}
		tasksCompleted.WithLabelValues(kind, status).Inc()
	}()

	for attempt := 1; ; attempt++ {
		err := d.attempt(t)
		if err == nil {
			status = "sent"
			return
		}
		if attempt >= d.cfg.MaxAttempts || !retryable(err) {
			d.logger.Error("notification task failed",
				slog.String("task", t.Name),
				slog.String("kind", kind),
				slog.Int("attempts", attempt),
				slog.String("error", err.Error()),
			)
			return
		}
		taskRetries.WithLabelValues(kind).Inc()
		time.Sleep(d.backoff(attempt))
	}
}

func (d *Dispatcher) attempt(t Task) error {
	ctx, cancel := context.WithTimeout(context.Background(), d.cfg.TaskTimeout)
	defer cancel()

	switch t.Kind {
	case KindEmail:
		return d.email.Send(ctx, t.Email)
	case KindWebhook:
		return d.webhook.Post(ctx, t.URL, t.Payload)
	}
	return fmt.Errorf("unknown task kind %q", t.Kind)
}

func (d *Dispatcher) backoff(attempt int) time.Duration {
	return d.cfg.BaseBackoff << uint(attempt-1)
}

// retryable treats rejected requests (4xx other than 429) as permanent.
func retryable(err error) bool {
	var se *httpclient.StatusError
	if errors.As(err, &se) {
		return se.Temporary()
	}
	return true
}
