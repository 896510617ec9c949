package web

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	playConnections = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "matchplay_play_connections",
		Help: "Open WebSocket play loops.",
	})

	playActionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "matchplay_play_actions_total",
		Help: "Play loop actions by action and outcome code.",
	}, []string{"action", "result"})

	httpRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "matchplay_http_requests_total",
		Help: "HTTP requests by route pattern and status class.",
	}, []string{"route", "status"})
)
