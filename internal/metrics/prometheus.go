// Package metrics exposes dissection counters as Prometheus metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "dissect"

// Error reasons used as the "reason" label of DecodeErrors.
const (
	ReasonTooShort = "too_short"
	ReasonNotIPv6  = "not_ipv6"
	ReasonOther    = "other"
)

// Metrics contains the counters updated while frames are dissected. A nil
// *Metrics discards every observation.
type Metrics struct {
	FramesTotal    prometheus.Counter
	FramesFiltered prometheus.Counter
	LayersDecoded  *prometheus.CounterVec
	DecodeErrors   *prometheus.CounterVec
}

// New creates the metrics and registers them with reg.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		FramesTotal: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "frames_total",
			Help:      "Frames handed to the dissector.",
		}),
		FramesFiltered: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "frames_filtered_total",
			Help:      "Frames dropped by the BPF prefilter.",
		}),
		LayersDecoded: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "layers_decoded_total",
			Help:      "Layers decoded, by layer and message type.",
		}, []string{"layer", "type"}),
		DecodeErrors: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "decode_errors_total",
			Help:      "Frames that failed to decode, by reason.",
		}, []string{"reason"}),
	}
}

func (m *Metrics) ObserveFrame() {
	if m == nil {
		return
	}
	m.FramesTotal.Inc()
}

func (m *Metrics) ObserveFiltered() {
	if m == nil {
		return
	}
	m.FramesFiltered.Inc()
}

func (m *Metrics) ObserveLayer(layer, typ string) {
	if m == nil {
		return
	}
	m.LayersDecoded.WithLabelValues(layer, typ).Inc()
}

func (m *Metrics) ObserveError(reason string) {
	if m == nil {
		return
	}
	m.DecodeErrors.WithLabelValues(reason).Inc()
}

// WriteTextfile writes the metrics gathered from g in the text exposition
// format, for the node exporter textfile collector.
func WriteTextfile(path string, g prometheus.Gatherer) error {
	return prometheus.WriteToTextfile(path, g)
}
