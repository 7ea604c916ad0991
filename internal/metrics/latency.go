package metrics

import (
	"math"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

// StatsSnapshot is the JSON view of the render latency summary.
type StatsSnapshot struct {
	Count uint64  `json:"count"`
	AvgMs float64 `json:"avg_ms"`
	P50Ms float64 `json:"p50_ms"`
	P95Ms float64 `json:"p95_ms"`
	P99Ms float64 `json:"p99_ms"`
}

const renderLatencyMaxAge = time.Hour

func newRenderLatency() prometheus.Summary {
	return prometheus.NewSummary(prometheus.SummaryOpts{
		Name:       "bookflow_render_duration_seconds",
		Help:       "Time to flatten a document into render blocks.",
		Objectives: map[float64]float64{0.5: 0.05, 0.95: 0.01, 0.99: 0.001},
		MaxAge:     renderLatencyMaxAge,
		AgeBuckets: 6,
	})
}

// ObserveRender records the time elapsed since start.
func (m *Metrics) ObserveRender(start time.Time) {
	m.RenderLatency.Observe(time.Since(start).Seconds())
}

// RenderLatencySnapshot reads the summary's current count, mean and
// quantiles in milliseconds. Quantiles are zero until something is observed.
// Count and mean cover the process lifetime; quantiles cover the last hour.
func (m *Metrics) RenderLatencySnapshot() StatsSnapshot {
	var out dto.Metric
	if err := m.RenderLatency.Write(&out); err != nil {
		return StatsSnapshot{}
	}
	s := out.GetSummary()
	snap := StatsSnapshot{Count: s.GetSampleCount()}
	if snap.Count > 0 {
		snap.AvgMs = s.GetSampleSum() / float64(snap.Count) * 1000
	}
	for _, q := range s.GetQuantile() {
		v := q.GetValue() * 1000
		if math.IsNaN(v) {
			v = 0
		}
		switch q.GetQuantile() {
		case 0.5:
			snap.P50Ms = v
		case 0.95:
			snap.P95Ms = v
		case 0.99:
			snap.P99Ms = v
		}
	}
	return snap
}
