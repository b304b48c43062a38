// Command seed fills a development database with demo subscribers and
// manual orders so the admin dashboard has something to show.
//
// Run: go run ./cmd/seed -subscribers 500 -orders 200
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"math/rand"
	"os"
	"time"

	"github.com/razeathletics/storefront/internal/config"
	"github.com/razeathletics/storefront/internal/domain"
	"github.com/razeathletics/storefront/internal/event"
	"github.com/razeathletics/storefront/internal/notification"
	"github.com/razeathletics/storefront/internal/repository/postgres"
	"github.com/razeathletics/storefront/internal/service"
	"github.com/razeathletics/storefront/migrations"
	"github.com/razeathletics/storefront/pkg/database"
	pkgkafka "github.com/razeathletics/storefront/pkg/kafka"
	"github.com/razeathletics/storefront/pkg/logger"
)

type product struct {
	ID     int
	Name   string
	Price  int64
	Colors []string
}

var catalog = []product{
	{ID: 1, Name: "Performance T-Shirt", Price: 4500, Colors: []string{"Black", "White"}},
	{ID: 2, Name: "Performance Shorts (Men)", Price: 5500, Colors: []string{"Black"}},
	{ID: 3, Name: "Performance Shorts (Women)", Price: 5500, Colors: []string{"Black"}},
}

var (
	sizes      = []string{"XS", "S", "M", "L"}
	firstNames = []string{"Ava", "Liam", "Mia", "Noah", "Zoe", "Ethan", "Ivy", "Leo", "Nora", "Kai"}
	lastNames  = []string{"Rivera", "Chen", "Okafor", "Novak", "Haddad", "Silva", "Kim", "Moreau"}
	cities     = []struct{ City, State, Zip string }{
		{"Austin", "TX", "78701"},
		{"Denver", "CO", "80202"},
		{"Portland", "OR", "97205"},
		{"Brooklyn", "NY", "11201"},
	}
	sources  = []string{domain.SourceGiveawayPopup, domain.SourceEarlyAccess, domain.SourceNotifyMe}
	statuses = []string{domain.OrderStatusProcessing, domain.OrderStatusShipped, domain.OrderStatusDelivered}
)

// discard swallows notification tasks; seeding must not email anyone.
type discard struct{}

func (discard) Enqueue(notification.Task) bool { return false }

func main() {
	subscribers := flag.Int("subscribers", 300, "number of email subscriptions to create")
	orders := flag.Int("orders", 100, "number of manual orders to create")
	seed := flag.Int64("seed", 42, "random seed, the same seed gives the same data")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", slog.String("error", err.Error()))
		os.Exit(1)
	}
	if !cfg.IsDevelopment() {
		slog.Error("refusing to seed outside development", slog.String("environment", cfg.Environment))
		os.Exit(1)
	}
	log := logger.NewWithFormat("storefront-seed", cfg.LogLevel, "text", os.Stdout)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	if err := run(ctx, cfg, log, *subscribers, *orders, rand.New(rand.NewSource(*seed))); err != nil {
		log.Error("seed failed", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, log *slog.Logger, subscribers, orders int, rng *rand.Rand) error {
	pgCfg := cfg.Postgres()
	pool, err := database.NewPostgresPoolWithLogger(ctx, &pgCfg, log)
	if err != nil {
		return fmt.Errorf("connect to postgres: %w", err)
	}
	defer pool.Close()

	if err := database.RunMigrations(ctx, pool, migrations.FS, log); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}

	producer := event.NewProducer(pkgkafka.NoopPublisher{}, log)
	subs := service.NewSubscriptionService(postgres.NewSubscriptionRepository(pool), discard{}, log, "")
	orderService := service.NewOrderService(postgres.NewOrderRepository(pool), producer, log)

	start := time.Now()
	created := 0
	for i := 0; i < subscribers; i++ {
		req := &domain.SubscribeRequest{
			Email:  fmt.Sprintf("fan%05d@example.com", i),
			Source: sources[rng.Intn(len(sources))],
		}
		if req.Source == domain.SourceNotifyMe {
			p := catalog[rng.Intn(len(catalog))]
			req.ProductID = fmt.Sprint(p.ID)
			req.ProductName = p.Name
		}
		res, err := subs.Subscribe(ctx, req)
		if err != nil {
			return fmt.Errorf("subscribe %s: %w", req.Email, err)
		}
		if res.Success {
			created++
		}
	}
	log.Info("subscribers seeded", slog.Int("created", created), slog.Int("requested", subscribers))

	for i := 0; i < orders; i++ {
		order, err := orderService.Create(ctx, randomOrder(rng, i))
		if err != nil {
			return fmt.Errorf("create order %d: %w", i, err)
		}
		// Move most orders past pending so the dashboard shows a spread.
		if rng.Intn(4) == 0 {
			continue
		}
		status := statuses[rng.Intn(len(statuses))]
		if _, err := orderService.Update(ctx, order.ID, domain.UpdateOrderRequest{Status: &status}); err != nil {
			return fmt.Errorf("advance order %s: %w", order.OrderNumber, err)
		}
	}
	log.Info("orders seeded", slog.Int("count", orders), slog.Duration("elapsed", time.Since(start)))
	return nil
}

func randomOrder(rng *rand.Rand, i int) *domain.CreateOrderRequest {
	lines := 1 + rng.Intn(3)
	items := make([]domain.OrderItem, 0, lines)
	var subtotal int64
	for j := 0; j < lines; j++ {
		p := catalog[rng.Intn(len(catalog))]
		item := domain.OrderItem{
			ProductID:   p.ID,
			ProductName: p.Name,
			Color:       p.Colors[rng.Intn(len(p.Colors))],
			Size:        sizes[rng.Intn(len(sizes))],
			Quantity:    1 + rng.Intn(2),
			Price:       p.Price,
		}
		subtotal += item.LineTotal()
		items = append(items, item)
	}

	var shippingCost int64 = 799
	if subtotal >= 10000 {
		shippingCost = 0
	}
	first := firstNames[rng.Intn(len(firstNames))]
	last := lastNames[rng.Intn(len(lastNames))]
	loc := cities[rng.Intn(len(cities))]

	return &domain.CreateOrderRequest{
		Items: items,
		Shipping: domain.ShippingAddress{
			FirstName:    first,
			LastName:     last,
			Email:        fmt.Sprintf("buyer%04d@example.com", i),
			AddressLine1: fmt.Sprintf("%d Main St", 100+rng.Intn(900)),
			City:         loc.City,
			State:        loc.State,
			PostalCode:   loc.Zip,
			Country:      domain.DefaultCountry,
		},
		Pricing: domain.Pricing{
			Subtotal:     subtotal,
			ShippingCost: shippingCost,
			Total:        subtotal + shippingCost,
		},
	}
}
