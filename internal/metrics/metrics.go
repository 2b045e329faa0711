package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Значения метки "outcome" для запросов к API поиска.
const (
	OutcomeOK        = "ok"
	OutcomeEndpoint  = "endpoint"
	OutcomeTransport = "transport"
	OutcomeStatus    = "status"
	OutcomeDecode    = "decode"
	OutcomeCanceled  = "canceled"
)

var (
	SearchRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "book_search_upstream_requests_total",
		Help: "Upstream book search calls by outcome",
	}, []string{"outcome"})

	SearchDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "book_search_upstream_duration_seconds",
		Help:    "Duration of upstream book search calls in seconds",
		Buckets: prometheus.DefBuckets,
	})

	SearchesSupersededTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "book_search_superseded_total",
		Help: "Search results dropped because a newer query replaced them",
	})

	ShelfBooks = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "book_search_shelf_books",
		Help: "Number of books on the shelf",
	})

	// HTTP API. Метка route — шаблон маршрута ServeMux, а не сырой путь.
	HttpRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "book_search_http_requests_total",
		Help: "Total number of HTTP API requests",
	}, []string{"method", "route", "status"})

	HttpRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "book_search_http_request_duration_seconds",
		Help:    "Duration of HTTP API requests in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"route"})
)
