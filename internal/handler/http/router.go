package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/razeathletics/storefront/pkg/health"
	"github.com/razeathletics/storefront/pkg/middleware"
)

const serviceName = "storefront"

// RouterOptions tunes the cross-cutting parts of the router. Nil limiters
// are skipped.
type RouterOptions struct {
	CORSOrigins     []string
	CookieSecure    bool
	AdminSessionTTL time.Duration
	PprofCIDRs      []string

	IPLimiter *middleware.IPRateLimiter
	// SensitiveLimiter guards login, waitlist join and promo validation.
	SensitiveLimiter *middleware.SlidingWindowLimiter
}

// NewRouter creates a chi router with every storefront route registered.
func NewRouter(svc Services, healthHandler *health.Handler, opts RouterOptions, logger *slog.Logger) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.CORS(middleware.DefaultCORSConfig(opts.CORSOrigins...)))
	r.Use(middleware.Recovery(logger))
	r.Use(middleware.Tracing(serviceName))
	r.Use(middleware.RequestLogging(logger))
	r.Use(middleware.RequestLogger(logger))
	r.Use(middleware.PrometheusMetrics(serviceName))

	// Health check endpoints
	r.Get("/health/live", healthHandler.LivenessHandler())
	r.Get("/health/ready", healthHandler.ReadinessHandler())
	r.Handle("/metrics", promhttp.Handler())

	if len(opts.PprofCIDRs) > 0 {
		middleware.RegisterPprof(r, opts.PprofCIDRs, logger)
	}

	sensitive := passThrough
	if opts.SensitiveLimiter != nil {
		sensitive = opts.SensitiveLimiter.Handler
	}
	requireUser := middleware.RequireUser(svc.Auth)
	optionalUser := middleware.OptionalUser(svc.Auth)
	requireAdmin := middleware.RequireAdmin(svc.Admin)
	cookies := cookieJar{secure: opts.CookieSecure, adminTTL: opts.AdminSessionTTL}

	inventory := NewInventoryHandler(svc.Inventory, logger)
	promo := NewPromoHandler(svc.Promo, logger)
	waitlist := NewWaitlistHandler(svc.Waitlist, logger)
	checkout := NewCheckoutHandler(svc.Checkout, logger)
	orders := NewOrderHandler(svc.Orders, logger)
	shipping := NewShippingHandler(svc.Shipping, logger)
	accounts := NewAuthHandler(svc.Auth, svc.Orders, cookies, logger)
	subs := NewSubscriptionHandler(svc.Subscriptions, logger)
	admin := NewAdminHandler(svc.Admin, svc.Subscriptions, svc.Waitlist, svc.Orders, cookies, logger)

	r.Route("/api", func(r chi.Router) {
		if opts.IPLimiter != nil {
			r.Use(opts.IPLimiter.Handler)
		}
		r.Use(middleware.NoStore)

		r.Route("/inventory", func(r chi.Router) {
			r.Get("/", inventory.List)
			r.Get("/stats", inventory.Stats)
			r.Get("/check/{product_id}/{color}/{size}", inventory.Check)
			r.Get("/{product_id}", inventory.GetProduct)
			r.Post("/reserve", inventory.Reserve)
			r.Post("/release", inventory.Release)
			r.Post("/commit", inventory.Commit)

			r.With(requireAdmin).Post("/update", inventory.Update)
			r.With(requireAdmin).Post("/bulk-update", inventory.BulkUpdate)
		})

		r.Route("/promo", func(r chi.Router) {
			r.With(sensitive).Post("/validate", promo.Validate)
			r.Post("/use/{code}", promo.Use)

			r.Group(func(r chi.Router) {
				r.Use(requireAdmin)
				r.Get("/codes", promo.List)
				r.Post("/codes", promo.Create)
				r.Patch("/codes/{code}", promo.SetActive)
				r.Delete("/codes/{code}", promo.Delete)
			})
		})

		r.Route("/waitlist", func(r chi.Router) {
			r.With(sensitive).Post("/join", waitlist.Join)
			r.Get("/status", waitlist.Status)
			r.Get("/verify/{code}", waitlist.Verify)
			r.With(requireAdmin).Get("/admin", waitlist.List)
		})

		r.With(optionalUser).Post("/checkout/create-session", checkout.CreateSession)
		r.Get("/checkout/status/{session_id}", checkout.Status)
		r.Post("/webhook/stripe", checkout.Webhook)

		r.Route("/orders", func(r chi.Router) {
			r.Get("/track/{order_number}", orders.Track)

			r.Group(func(r chi.Router) {
				r.Use(requireAdmin)
				r.Post("/", orders.Create)
				r.Get("/", orders.List)
				r.Get("/stats", orders.Stats)
				r.Get("/{id}", orders.Get)
				r.Patch("/{id}", orders.Update)
			})
		})

		r.Route("/shipping", func(r chi.Router) {
			r.Post("/rates", shipping.Rates)
			r.Get("/tracking/{carrier}/{tracking_number}", shipping.Track)
			r.With(requireAdmin).Post("/label", shipping.CreateLabel)
		})

		r.Route("/auth", func(r chi.Router) {
			r.Post("/register", accounts.Register)
			r.With(sensitive).Post("/login", accounts.Login)
			r.Post("/session", accounts.ExchangeSession)
			r.Post("/logout", accounts.Logout)

			r.Group(func(r chi.Router) {
				r.Use(requireUser)
				r.Get("/me", accounts.Me)
				r.Get("/orders", accounts.Orders)
				r.Post("/validate-first-order-discount", accounts.ValidateFirstOrderDiscount)
				r.Post("/use-first-order-discount", accounts.UseFirstOrderDiscount)
			})
		})

		r.Post("/subscribe", subs.Subscribe)
		r.With(requireAdmin).Get("/subscriptions/stats", subs.Stats)

		r.Route("/admin", func(r chi.Router) {
			r.With(sensitive).Post("/login", admin.Login)
			r.Post("/logout", admin.Logout)
			r.Get("/verify", admin.Verify)

			r.Group(func(r chi.Router) {
				r.Use(requireAdmin)
				r.Get("/stats", admin.Stats)
				r.Get("/users", admin.Users)
				r.Get("/subscribers", admin.Subscribers)
				r.Get("/waitlist", admin.Waitlist)
				r.Get("/orders", admin.Orders)
				r.Post("/send-bulk-email", admin.BulkEmail)
				r.Delete("/subscriber/{email}", admin.DeleteSubscriber)
				r.Delete("/user/{user_id}", admin.DeleteUser)
			})
		})
	})

	return r
}

func passThrough(next http.Handler) http.Handler { return next }
