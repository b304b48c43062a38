package notification

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	tasksEnqueued = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "notification_tasks_enqueued_total",
		Help: "Notification tasks accepted by the dispatcher.",
	}, []string{"kind"})

	tasksDropped = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "notification_tasks_dropped_total",
		Help: "Notification tasks dropped before running.",
	}, []string{"kind", "reason"})

	tasksCompleted = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "notification_tasks_completed_total",
		Help: "Notification tasks finished, by outcome.",
	}, []string{"kind", "status"})

	taskRetries = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "notification_task_retries_total",
		Help: "Retry attempts made by dispatcher workers.",
	}, []string{"kind"})

	queueDepth = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "notification_queue_depth",
		Help: "Tasks waiting in the dispatcher queue.",
	})
)
