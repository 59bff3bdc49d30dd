// Package metrics exposes Prometheus instrumentation for command execution
// and rule operations.
package metrics

import (
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	dto "github.com/prometheus/client_model/go"
)

var (
	once     sync.Once
	registry *Registry
)

// Outcome labels shared by every counter.
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
	OutcomeAbsent  = "absent"
	OutcomeInvalid = "invalid"
	OutcomeDenied  = "denied"
	OutcomeTimeout = "timeout"
)

// Registry holds all Palisade metrics.
type Registry struct {
	// External tool invocations
	CommandsTotal   *prometheus.CounterVec
	CommandDuration *prometheus.HistogramVec

	// Rule contract operations
	RuleOperations *prometheus.CounterVec

	gatherer prometheus.Gatherer
}

// Get returns the global metrics registry, creating it if necessary.
func Get() *Registry {
	once.Do(func() {
		registry = newRegistry(prometheus.DefaultRegisterer, prometheus.DefaultGatherer)
	})
	return registry
}

// New creates a registry backed by its own Prometheus registry.
// Tests and the comparison harness use it to keep counts isolated.
func New() *Registry {
	reg := prometheus.NewRegistry()
	return newRegistry(reg, reg)
}

func newRegistry(reg prometheus.Registerer, gatherer prometheus.Gatherer) *Registry {
	factory := promauto.With(reg)
	r := &Registry{gatherer: gatherer}

	r.CommandsTotal = factory.NewCounterVec(prometheus.CounterOpts{
		Name: "palisade_commands_total",
		Help: "External firewall tool invocations by outcome",
	}, []string{"tool", "outcome"})

	r.CommandDuration = factory.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "palisade_command_duration_seconds",
		Help:    "Wall time of external firewall tool invocations",
		Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10, 30, 60},
	}, []string{"tool"})

	r.RuleOperations = factory.NewCounterVec(prometheus.CounterOpts{
		Name: "palisade_rule_operations_total",
		Help: "Rule contract operations by backend and outcome",
	}, []string{"backend", "operation", "outcome"})

	return r
}

// ObserveCommand records one external command. Safe on a nil registry.
func (r *Registry) ObserveCommand(tool, outcome string, d time.Duration) {
	if r == nil {
		return
	}
	r.CommandsTotal.WithLabelValues(tool, outcome).Inc()
	r.CommandDuration.WithLabelValues(tool).Observe(d.Seconds())
}

// ObserveOperation records one rule operation. Safe on a nil registry.
func (r *Registry) ObserveOperation(backend, operation, outcome string) {
	if r == nil {
		return
	}
	r.RuleOperations.WithLabelValues(backend, operation, outcome).Inc()
}

// Sample is one flattened metric value.
type Sample struct {
	Name   string
	Labels string
	Value  float64
}

// Snapshot gathers the palisade_* families and flattens them into samples,
// sorted by name and labels. Histograms contribute their count and sum.
func (r *Registry) Snapshot() ([]Sample, error) {
	families, err := r.gatherer.Gather()
	if err != nil {
		return nil, err
	}

	var out []Sample
	for _, mf := range families {
		name := mf.GetName()
		if !strings.HasPrefix(name, "palisade_") {
			continue
		}
		for _, m := range mf.GetMetric() {
			labels := formatLabels(m.GetLabel())
			switch mf.GetType() {
			case dto.MetricType_COUNTER:
				out = append(out, Sample{Name: name, Labels: labels, Value: m.GetCounter().GetValue()})
			case dto.MetricType_GAUGE:
				out = append(out, Sample{Name: name, Labels: labels, Value: m.GetGauge().GetValue()})
			case dto.MetricType_HISTOGRAM:
				h := m.GetHistogram()
				out = append(out,
					Sample{Name: name + "_count", Labels: labels, Value: float64(h.GetSampleCount())},
					Sample{Name: name + "_sum", Labels: labels, Value: h.GetSampleSum()},
				)
			}
		}
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].Labels < out[j].Labels
	})
	return out, nil
}

func formatLabels(pairs []*dto.LabelPair) string {
	parts := make([]string, 0, len(pairs))
	for _, lp := range pairs {
		parts = append(parts, lp.GetName()+"="+lp.GetValue())
	}
	sort.Strings(parts)
	return strings.Join(parts, ",")
}
