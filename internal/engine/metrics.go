package engine

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	answersTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "matchplay_answers_total",
		Help: "Answered questions by grade",
	}, []string{"grade"})

	dialogueFallbacks = promauto.NewCounter(prometheus.CounterOpts{
		Name: "matchplay_dialogue_fallbacks_total",
		Help: "Replies replaced by the canned fallback line",
	})

	endingsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "matchplay_endings_total",
		Help: "Finished games by personality type and ending",
	}, []string{"personality_type", "ending"})
)
