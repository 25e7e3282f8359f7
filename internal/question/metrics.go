package question

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	outcomeOK            = "ok"
	outcomeProviderError = "provider_error"
	outcomeMismatch      = "mismatch"
)

var (
	generationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "snippetwar_question_generations_total",
		Help: "Generation attempts by outcome.",
	}, []string{"outcome"})

	generationErrorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "snippetwar_generation_errors_total",
		Help: "Normalized provider errors by kind.",
	}, []string{"kind"})

	batchShortfallTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "snippetwar_batch_shortfall_units_total",
		Help: "Batch units not covered by stored questions.",
	})

	batchTopicFailuresTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "snippetwar_batch_topic_failures_total",
		Help: "Topic buckets that ended early due to a failure.",
	})
)

func observeGeneration(outcome string) {
	generationsTotal.WithLabelValues(outcome).Inc()
}

func observeGenerationError(kind GenerationErrorKind) {
	generationErrorsTotal.WithLabelValues(string(kind)).Inc()
}

func observeShortfall() {
	batchShortfallTotal.Inc()
}

func observeTopicFailure() {
	batchTopicFailuresTotal.Inc()
}
