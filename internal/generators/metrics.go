package generators

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	aiRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "matchplay_ai_requests_total",
		Help: "Generation provider calls by kind and status",
	}, []string{"kind", "status"})

	aiRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "matchplay_ai_request_duration_seconds",
		Help:    "Generation provider call latency",
		Buckets: []float64{0.25, 0.5, 1, 2, 5, 10, 20, 40, 80},
	}, []string{"kind"})

	portraitCacheLookups = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "matchplay_portrait_cache_lookups_total",
		Help: "Portrait cache lookups by result",
	}, []string{"result"})

	imageQueueDepth = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "matchplay_image_queue_depth",
		Help: "Image renders waiting for a worker",
	})
)
