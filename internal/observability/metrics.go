package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	RequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "club_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"route", "code", "method"},
	)

	RequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "club_request_seconds",
			Help:    "HTTP request latency",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"route", "method"},
	)

	SeatsReserved = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "club_seats_reserved_total",
			Help: "Tickets moved from available to reserved by ticket requests",
		},
	)

	ReservationShortfall = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "club_reservation_shortfall_total",
			Help: "Requested seats that could not be reserved",
		},
	)

	ReservationLostRaces = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "club_reservation_lost_races_total",
			Help: "Conditional ticket updates that found the ticket already taken",
		},
	)

	TicketStatusChanges = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "club_ticket_status_changes_total",
			Help: "Administrative ticket status changes by target status",
		},
		[]string{"status"},
	)

	AuthFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "club_auth_failures_total",
			Help: "Rejected logins and session checks",
		},
		[]string{"reason"},
	)

	RabbitPublishFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "club_rabbit_publish_failures_total",
			Help: "Ticket events that could not be published",
		},
	)

	RateLimitExceeded = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "club_rate_limit_exceeded_total",
			Help: "Total rate limit exceeded",
		},
	)

	CacheHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "club_cache_lookups_total",
			Help: "Response cache lookups by result",
		},
		[]string{"result"},
	)
)
