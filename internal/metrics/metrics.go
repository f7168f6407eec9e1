// Package metrics holds the prometheus counters of the research agents.
package metrics

import (
	"fmt"
	"sort"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	dto "github.com/prometheus/client_model/go"
)

// Metrics is a private registry plus the counters registered on it
type Metrics struct {
	registry *prometheus.Registry

	CategoryAttempts *prometheus.CounterVec
	CategoryFailures *prometheus.CounterVec
	PagesProcessed   prometheus.Counter
	ToolCalls        *prometheus.CounterVec
}

// New creates a fresh registry with every counter registered
func New() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		CategoryAttempts: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "fodmap_category_attempts_total",
				Help: "Total number of category classifications attempted",
			},
			[]string{"category"},
		),
		CategoryFailures: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "fodmap_category_failures_total",
				Help: "Total number of category classifications that failed",
			},
			[]string{"category"},
		),
		PagesProcessed: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "fodmap_pages_processed_total",
				Help: "Total number of web pages answered by the research pipeline",
			},
		),
		ToolCalls: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "fodmap_tool_calls_total",
				Help: "Total number of tool calls executed for the chat agent",
			},
			[]string{"tool", "status"},
		),
	}
}

// Registry returns the registry the counters live on
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Summary renders every non-zero counter as "name{labels} value", one per line
func (m *Metrics) Summary() (string, error) {
	families, err := m.registry.Gather()
	if err != nil {
		return "", fmt.Errorf("failed to gather metrics: %w", err)
	}

	var lines []string
	for _, family := range families {
		for _, metric := range family.GetMetric() {
			value := metric.GetCounter().GetValue()
			if value == 0 {
				continue
			}
			lines = append(lines, fmt.Sprintf("%s%s %g", family.GetName(), labelString(metric.GetLabel()), value))
		}
	}
	sort.Strings(lines)
	return strings.Join(lines, "\n"), nil
}

func labelString(labels []*dto.LabelPair) string {
	if len(labels) == 0 {
		return ""
	}
	parts := make([]string, len(labels))
	for i, l := range labels {
		parts[i] = fmt.Sprintf("%s=%q", l.GetName(), l.GetValue())
	}
	return "{" + strings.Join(parts, ",") + "}"
}
