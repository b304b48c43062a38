// Package app wires the storefront dependencies together and runs them.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	goredis "github.com/redis/go-redis/v9"

	"github.com/razeathletics/storefront/internal/auth"
	"github.com/razeathletics/storefront/internal/config"
	"github.com/razeathletics/storefront/internal/event"
	handler "github.com/razeathletics/storefront/internal/handler/http"
	"github.com/razeathletics/storefront/internal/notification"
	"github.com/razeathletics/storefront/internal/provider/identity"
	"github.com/razeathletics/storefront/internal/provider/payment"
	paymentmock "github.com/razeathletics/storefront/internal/provider/payment/mock"
	"github.com/razeathletics/storefront/internal/provider/shipping"
	shippingmock "github.com/razeathletics/storefront/internal/provider/shipping/mock"
	"github.com/razeathletics/storefront/internal/repository/postgres"
	"github.com/razeathletics/storefront/internal/repository/redis"
	"github.com/razeathletics/storefront/internal/service"
	"github.com/razeathletics/storefront/migrations"
	"github.com/razeathletics/storefront/pkg/database"
	"github.com/razeathletics/storefront/pkg/health"
	"github.com/razeathletics/storefront/pkg/httpclient"
	pkgkafka "github.com/razeathletics/storefront/pkg/kafka"
	"github.com/razeathletics/storefront/pkg/middleware"
	"github.com/razeathletics/storefront/pkg/tracing"
)

const serviceName = "storefront"

// App wires together all dependencies and runs the storefront server.
type App struct {
	cfg            *config.Config
	logger         *slog.Logger
	pool           *pgxpool.Pool
	redis          *goredis.Client
	producer       *pkgkafka.Producer
	consumers      []*pkgkafka.Consumer
	dispatcher     *notification.Dispatcher
	reaper         *service.Reaper
	ipLimiter      *middleware.IPRateLimiter
	httpServer     *http.Server
	tracerShutdown tracing.ShutdownFunc
}

// NewApp creates a new application instance, initializing all dependencies.
func NewApp(cfg *config.Config, logger *slog.Logger) (*App, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	// Initialize OpenTelemetry tracing.
	tracerShutdown, err := tracing.InitTracer(ctx, cfg.Tracing(serviceName))
	if err != nil {
		return nil, fmt.Errorf("init tracer: %w", err)
	}

	// Initialize PostgreSQL connection pool.
	pgCfg := cfg.Postgres()
	pool, err := database.NewPostgresPoolWithLogger(ctx, &pgCfg, logger)
	if err != nil {
		return nil, fmt.Errorf("connect to postgres: %w", err)
	}
	logger.Info("connected to PostgreSQL",
		slog.String("host", cfg.PostgresHost),
		slog.Int("port", cfg.PostgresPort),
		slog.String("database", cfg.PostgresDB),
	)
	database.RegisterPoolMetrics(pool, serviceName)
	database.SetSlowQueryLogging(cfg.DBSlowQueryThreshold, logger)

	if cfg.RunMigrations {
		if err := database.RunMigrations(ctx, pool, migrations.FS, logger); err != nil {
			pool.Close()
			return nil, fmt.Errorf("run migrations: %w", err)
		}
		logger.Info("database migrations completed")
	}

	// Redis holds admin sessions, the reaper lock, rate limit windows and
	// processed event ids.
	redisClient, err := database.NewRedisClient(ctx, cfg.Redis(), logger)
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("connect to redis: %w", err)
	}
	logger.Info("connected to Redis", slog.String("addr", cfg.Redis().Addr()))

	// Outbound providers.
	paymentProvider := newPaymentProvider(cfg, logger)
	shippingProvider := newShippingProvider(cfg, logger)
	emailSender := newEmailSender(cfg, logger)
	webhooks := notification.NewWebhookClient(breakerClient("n8n", logger))
	identityClient := identity.NewClient(breakerClient("identity", logger), cfg.AuthSessionURL)

	// Background notification workers.
	dispatcher := notification.NewDispatcher(emailSender, webhooks, notification.Config{
		Workers:     cfg.DispatcherWorkers,
		QueueSize:   cfg.DispatcherQueueSize,
		MaxAttempts: cfg.DispatcherMaxAttempts,
		TaskTimeout: cfg.DispatcherTaskTimeout,
	}, logger)
	consumerHandler := event.NewConsumerHandler(dispatcher, cfg.N8NLowStockWebhookURL, logger)

	// Event publishing. Without brokers the notifier handler is fed directly.
	var (
		publisher pkgkafka.Publisher
		producer  *pkgkafka.Producer
		consumers []*pkgkafka.Consumer
	)
	if len(cfg.KafkaBrokers) > 0 {
		producer = pkgkafka.NewProducer(pkgkafka.DefaultProducerConfig(cfg.KafkaBrokers), logger)
		if err := pingKafkaWithRetry(ctx, producer, logger); err != nil {
			logger.Warn("kafka producer ping failed after retries, continuing in degraded mode",
				slog.String("error", err.Error()),
			)
		} else {
			logger.Info("kafka producer initialized", slog.Any("brokers", cfg.KafkaBrokers))
		}
		publisher = producer
		consumers = event.NewConsumers(event.ConsumerOptions{
			Brokers:   cfg.KafkaBrokers,
			GroupID:   cfg.KafkaGroupID,
			EnableDLQ: cfg.KafkaEnableDLQ,
			Redis:     redisClient,
		}, consumerHandler, logger)
	} else {
		logger.Info("kafka disabled, delivering events in process")
		publisher = event.NewLoopback(consumerHandler)
	}
	eventProducer := event.NewProducer(publisher, logger)

	// Repositories.
	inventoryRepo := postgres.NewInventoryRepository(pool)
	checkoutRepo := postgres.NewCheckoutRepository(pool)
	orderRepo := postgres.NewOrderRepository(pool)
	waitlistRepo := postgres.NewWaitlistRepository(pool)
	promoRepo := postgres.NewPromoRepository(pool)
	userRepo := postgres.NewUserRepository(pool)
	sessionRepo := postgres.NewSessionRepository(pool)
	subscriptionRepo := postgres.NewSubscriptionRepository(pool)
	adminSessions := redis.NewAdminSessionStore(redisClient)
	locker := redis.NewLocker(redisClient)

	// Services.
	inventoryService := service.NewInventoryService(inventoryRepo, eventProducer, logger)
	promoService := service.NewPromoService(promoRepo, logger)
	waitlistService := service.NewWaitlistService(waitlistRepo, dispatcher, eventProducer, logger)
	orderService := service.NewOrderService(orderRepo, eventProducer, logger)
	checkoutService := service.NewCheckoutService(
		checkoutRepo,
		inventoryService,
		waitlistService,
		promoService,
		paymentProvider,
		dispatcher,
		eventProducer,
		logger,
		cfg.CheckoutTTL,
	)
	shippingService := service.NewShippingService(shippingProvider, orderService, logger)
	authService := service.NewAuthService(
		userRepo,
		sessionRepo,
		auth.NewJWTManager(cfg.JWTSecret, cfg.JWTAccessTTL),
		identityClient,
		dispatcher,
		eventProducer,
		logger,
		service.AuthConfig{SessionTTL: cfg.UserSessionTTL, SignupWebhookURL: cfg.N8NSignupWebhookURL},
	)
	subscriptionService := service.NewSubscriptionService(subscriptionRepo, dispatcher, logger, cfg.N8NGiveawayWebhookURL)
	adminService := service.NewAdminService(
		adminSessions,
		userRepo,
		subscriptionRepo,
		waitlistRepo,
		orderRepo,
		emailSender,
		logger,
		service.AdminConfig{
			Password:   cfg.AdminPassword,
			SessionTTL: cfg.AdminSessionTTL,
			BatchSize:  cfg.BulkEmailBatchSize,
			BatchPause: cfg.BulkEmailBatchPause,
		},
	)
	reaper := service.NewReaper(checkoutService, locker, logger, service.ReaperConfig{
		Interval: cfg.ReaperInterval,
		TTL:      cfg.CheckoutTTL,
		Grace:    cfg.ReaperGrace,
	})

	// Health checks.
	healthHandler := health.NewHandler()
	healthHandler.RegisterCritical("postgres", func(ctx context.Context) error {
		return pool.Ping(ctx)
	})
	healthHandler.RegisterCritical("redis", func(ctx context.Context) error {
		return redisClient.Ping(ctx).Err()
	})
	if producer != nil {
		healthHandler.RegisterNonCritical("kafka", func(ctx context.Context) error {
			return producer.Ping(ctx)
		})
	}

	// HTTP router.
	ipLimiter := middleware.NewIPRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst, logger)
	router := handler.NewRouter(handler.Services{
		Inventory:     inventoryService,
		Promo:         promoService,
		Waitlist:      waitlistService,
		Checkout:      checkoutService,
		Orders:        orderService,
		Shipping:      shippingService,
		Auth:          authService,
		Subscriptions: subscriptionService,
		Admin:         adminService,
	}, healthHandler, handler.RouterOptions{
		CORSOrigins:      cfg.CORSOrigins,
		CookieSecure:     cfg.CookieSecure,
		AdminSessionTTL:  cfg.AdminSessionTTL,
		PprofCIDRs:       cfg.PprofAllowedCIDRs,
		IPLimiter:        ipLimiter,
		SensitiveLimiter: middleware.NewSlidingWindowLimiter(redisClient, "sensitive", cfg.SensitiveRateLimit, cfg.SensitiveRateWindow, logger),
	}, logger)

	httpServer := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:           router,
		ReadTimeout:       cfg.HTTPReadTimeout,
		WriteTimeout:      cfg.HTTPWriteTimeout,
		IdleTimeout:       60 * time.Second,
		ReadHeaderTimeout: 10 * time.Second,
	}

	return &App{
		cfg:            cfg,
		logger:         logger,
		pool:           pool,
		redis:          redisClient,
		producer:       producer,
		consumers:      consumers,
		dispatcher:     dispatcher,
		reaper:         reaper,
		ipLimiter:      ipLimiter,
		httpServer:     httpServer,
		tracerShutdown: tracerShutdown,
	}, nil
}

// Run starts the HTTP server, Kafka consumers, and background jobs, then
// blocks until the context is canceled.
func (a *App) Run(ctx context.Context) error {
	errCh := make(chan error, 1+len(a.consumers))

	a.dispatcher.Start()

	// Start HTTP server.
	go func() {
		a.logger.Info("starting HTTP server",
			slog.String("addr", a.httpServer.Addr),
		)
		if err := a.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("http server: %w", err)
		}
	}()

	// Start Kafka consumers.
	for _, c := range a.consumers {
		go func(c *pkgkafka.Consumer) {
			if err := c.Start(ctx); err != nil {
				errCh <- fmt.Errorf("kafka consumer: %w", err)
			}
		}(c)
	}

	// Background jobs stop with ctx.
	go a.reaper.Run(ctx)
	go a.ipLimiter.Run(ctx)

	select {
	case <-ctx.Done():
		a.logger.Info("shutdown signal received")
	case err := <-errCh:
		a.logger.Error("component failed, shutting down", slog.String("error", err.Error()))
		return errors.Join(err, a.Shutdown())
	}

	return a.Shutdown()
}

// Shutdown gracefully stops all components in the correct order:
// 1. HTTP server (drain in-flight requests)
// 2. Kafka consumers
// 3. Notification dispatcher (run queued emails and webhooks)
// 4. Tracer (flush pending spans)
// 5. Kafka producer
// 6. Redis client and PostgreSQL pool
func (a *App) Shutdown() error {
	a.logger.Info("shutting down application...")

	var errs []error

	// 1. Drain in-flight HTTP requests.
	httpCtx, httpCancel := context.WithTimeout(context.Background(), a.cfg.HTTPShutdownTimeout)
	defer httpCancel()
	if err := a.httpServer.Shutdown(httpCtx); err != nil {
		a.logger.Error("http server shutdown error", slog.String("error", err.Error()))
		errs = append(errs, err)
	}

	// 2. Close Kafka consumers.
	for _, c := range a.consumers {
		if err := c.Close(); err != nil {
			a.logger.Error("kafka consumer close error", slog.String("error", err.Error()))
			errs = append(errs, err)
		}
	}

	// 3. Let queued notifications finish (10s budget).
	dispatchCtx, dispatchCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer dispatchCancel()
	if err := a.dispatcher.Shutdown(dispatchCtx); err != nil {
		a.logger.Error("notification dispatcher shutdown error", slog.String("error", err.Error()))
		errs = append(errs, err)
	}

	// 4. Flush pending spans.
	if a.tracerShutdown != nil {
		tracerCtx, tracerCancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer tracerCancel()
		if err := a.tracerShutdown(tracerCtx); err != nil {
			a.logger.Error("tracer shutdown error", slog.String("error", err.Error()))
			errs = append(errs, err)
		}
	}

	// 5. Close Kafka producer.
	if a.producer != nil {
		if err := a.producer.Close(); err != nil {
			a.logger.Error("kafka producer close error", slog.String("error", err.Error()))
			errs = append(errs, err)
		}
	}

	// 6. Close stores.
	if err := a.redis.Close(); err != nil {
		a.logger.Error("redis close error", slog.String("error", err.Error()))
		errs = append(errs, err)
	}
	a.pool.Close()

	a.logger.Info("application shutdown complete")
	return errors.Join(errs...)
}

// breakerClient returns a retrying HTTP client behind a circuit breaker
// named after the provider it talks to.
func breakerClient(name string, logger *slog.Logger) httpclient.Doer {
	return httpclient.NewBreakerClient(
		httpclient.New(httpclient.DefaultConfig()),
		httpclient.DefaultBreakerConfig(name),
		logger,
	)
}

func newPaymentProvider(cfg *config.Config, logger *slog.Logger) payment.Provider {
	if cfg.StripeAPIKey == "" {
		logger.Warn("STRIPE_API_KEY not set, using mock payment provider")
		return paymentmock.NewProvider()
	}
	return payment.NewStripe(breakerClient("stripe", logger), payment.StripeConfig{
		APIKey:        cfg.StripeAPIKey,
		WebhookSecret: cfg.StripeWebhookSecret,
		BaseURL:       cfg.StripeBaseURL,
	})
}

func newShippingProvider(cfg *config.Config, logger *slog.Logger) shipping.Provider {
	if cfg.ShippoAPIKey == "" {
		logger.Warn("SHIPPO_API_KEY not set, using mock shipping provider")
		return shippingmock.NewProvider()
	}
	return shipping.NewShippo(breakerClient("shippo", logger), cfg.ShippoBaseURL, cfg.ShippoAPIKey)
}

func newEmailSender(cfg *config.Config, logger *slog.Logger) notification.EmailSender {
	if cfg.ResendAPIKey == "" {
		logger.Warn("RESEND_API_KEY not set, emails are logged instead of sent")
		return notification.NewLogSender(logger)
	}
	return notification.NewResendSender(breakerClient("resend", logger), cfg.ResendBaseURL, cfg.ResendAPIKey, cfg.SenderEmail)
}

// pingKafkaWithRetry attempts to ping the Kafka producer with exponential
// backoff (3 attempts, 1s/2s/4s with ±25% jitter).
func pingKafkaWithRetry(ctx context.Context, producer *pkgkafka.Producer, logger *slog.Logger) error {
	const attempts = 3

	var lastErr error
	for attempt := 0; attempt < attempts; attempt++ {
		if lastErr = producer.Ping(ctx); lastErr == nil {
			return nil
		}
		if attempt == attempts-1 {
			break
		}
		base := time.Duration(1<<uint(attempt)) * time.Second
		jitter := time.Duration(float64(base) * 0.25 * (2*rand.Float64() - 1)) // #nosec G404 -- non-cryptographic jitter for retry backoff
		wait := base + jitter
		logger.Warn("kafka producer ping failed, retrying",
			slog.Int("attempt", attempt+1),
			slog.Int("max_attempts", attempts),
			slog.Duration("backoff", wait),
			slog.String("error", lastErr.Error()),
		)
		select {
		case <-ctx.Done():
			return fmt.Errorf("kafka ping: context canceled during retry: %w", ctx.Err())
		case <-time.After(wait):
		}
	}
	return fmt.Errorf("kafka producer ping failed after %d attempts: %w", attempts, lastErr)
}
