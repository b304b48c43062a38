package service

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	stockCommits = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "inventory_commits_total",
		Help: "Committed line items by the guard they passed.",
	}, []string{"mode"})

	stockOverReleases = promauto.NewCounter(prometheus.CounterOpts{
		Name: "inventory_over_releases_total",
		Help: "Release calls that asked for more units than were held.",
	})

	ordersMaterialized = promauto.NewCounter(prometheus.CounterOpts{
		Name: "checkout_orders_materialized_total",
		Help: "Orders created from paid payment sessions.",
	})

	reaperSweeps = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "checkout_reaper_sweeps_total",
		Help: "Reaper ticks by outcome.",
	}, []string{"result"})

	reaperExpired = promauto.NewCounter(prometheus.CounterOpts{
		Name: "checkout_reaper_expired_total",
		Help: "Abandoned checkout sessions expired by the reaper.",
	})
)
