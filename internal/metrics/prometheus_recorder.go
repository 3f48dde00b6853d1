package metrics

import (
	"sync"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
)

const namespace = "booktypst"

// PrometheusRecorder implements Recorder using Prometheus metrics.
type PrometheusRecorder struct {
	once               sync.Once
	stageDuration      *prom.HistogramVec
	conversionDuration prom.Histogram
	stageResults       *prom.CounterVec
	outcomes           *prom.CounterVec
	events             prom.Counter
	chapters           prom.Gauge
}

// NewPrometheusRecorder constructs and registers Prometheus metrics on reg.
// A nil reg gets a fresh registry.
func NewPrometheusRecorder(reg *prom.Registry) *PrometheusRecorder {
	if reg == nil {
		reg = prom.NewRegistry()
	}
	pr := &PrometheusRecorder{}
	pr.once.Do(func() {
		pr.stageDuration = prom.NewHistogramVec(prom.HistogramOpts{
			Namespace: namespace,
			Name:      "stage_duration_seconds",
			Help:      "Duration of individual conversion phases",
			Buckets:   prom.DefBuckets,
		}, []string{"stage"})
		pr.conversionDuration = prom.NewHistogram(prom.HistogramOpts{
			Namespace: namespace,
			Name:      "conversion_duration_seconds",
			Help:      "Total conversion duration",
			Buckets:   prom.DefBuckets,
		})
		pr.stageResults = prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "stage_results_total",
			Help:      "Phase result counts by outcome",
		}, []string{"stage", "result"})
		pr.outcomes = prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "conversion_outcomes_total",
			Help:      "Conversion runs by final status",
		}, []string{"outcome"})
		pr.events = prom.NewCounter(prom.CounterOpts{
			Namespace: namespace,
			Name:      "events_total",
			Help:      "Typst events rendered",
		})
		pr.chapters = prom.NewGauge(prom.GaugeOpts{
			Namespace: namespace,
			Name:      "chapters",
			Help:      "Chapters in the last converted book",
		})
		reg.MustRegister(pr.stageDuration, pr.conversionDuration, pr.stageResults, pr.outcomes, pr.events, pr.chapters)
	})
	return pr
}

func (p *PrometheusRecorder) ObserveStageDuration(stage string, d time.Duration) {
	if p == nil || p.stageDuration == nil {
		return
	}
	p.stageDuration.WithLabelValues(stage).Observe(d.Seconds())
}

func (p *PrometheusRecorder) ObserveConversionDuration(d time.Duration) {
	if p == nil || p.conversionDuration == nil {
		return
	}
	p.conversionDuration.Observe(d.Seconds())
}

func (p *PrometheusRecorder) IncStageResult(stage string, result ResultLabel) {
	if p == nil || p.stageResults == nil {
		return
	}
	p.stageResults.WithLabelValues(stage, string(result)).Inc()
}

func (p *PrometheusRecorder) IncConversionOutcome(outcome OutcomeLabel) {
	if p == nil || p.outcomes == nil {
		return
	}
	p.outcomes.WithLabelValues(string(outcome)).Inc()
}

func (p *PrometheusRecorder) AddEvents(n int) {
	if p == nil || p.events == nil || n <= 0 {
		return
	}
	p.events.Add(float64(n))
}

func (p *PrometheusRecorder) SetChapters(n int) {
	if p == nil || p.chapters == nil {
		return
	}
	p.chapters.Set(float64(n))
}
