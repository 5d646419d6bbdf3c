package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	startTime = time.Now()

	// UptimeSeconds tracks the server uptime in seconds
	UptimeSeconds = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "taskhive",
		Subsystem: "server",
		Name:      "uptime_seconds",
		Help:      "Time passed since the server started in seconds",
	})

	// HTTP request metrics
	HTTPRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "taskhive",
		Subsystem: "server",
		Name:      "http_requests_total",
		Help:      "HTTP requests by method, path and status",
	}, []string{"method", "path", "status"})

	// Tasks created
	TasksCreatedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "taskhive",
		Subsystem: "server",
		Name:      "tasks_created_total",
		Help:      "Tasks created",
	})

	// Submissions recorded
	SubmissionsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "taskhive",
		Subsystem: "server",
		Name:      "submissions_total",
		Help:      "Work submissions recorded",
	})

	// Verification outcomes (outcome=approved/rejected/approved_unpaid/error)
	VerificationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "taskhive",
		Subsystem: "server",
		Name:      "verifications_total",
		Help:      "Verification outcomes (outcome=approved/rejected/approved_unpaid/error)",
	}, []string{"outcome"})

	// Settlement outcomes (status=completed/failed)
	SettlementsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "taskhive",
		Subsystem: "server",
		Name:      "settlements_total",
		Help:      "Settlement outcomes (status=completed/failed)",
	}, []string{"status"})

	// Amount paid out through completed settlements
	AmountPaidOutTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "taskhive",
		Subsystem: "server",
		Name:      "amount_paid_out_total",
		Help:      "Total amount paid out through completed settlements",
	})

	// Collaborator call errors (service=judge/treasury/rewards)
	CollaboratorErrorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "taskhive",
		Subsystem: "server",
		Name:      "collaborator_errors_total",
		Help:      "Failed collaborator calls (service=judge/treasury/rewards)",
	}, []string{"service"})
)

// StartMetricsCollection starts collecting metrics
func StartMetricsCollection() {
	// Update uptime every 15 seconds
	go func() {
		ticker := time.NewTicker(15 * time.Second)
		defer ticker.Stop()

		for range ticker.C {
			UptimeSeconds.Set(time.Since(startTime).Seconds())
		}
	}()
}
