package cli

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

// writeStats prints every non-zero counter of the registry, one per line.
func writeStats(w io.Writer, gatherer prometheus.Gatherer) error {
	families, err := gatherer.Gather()
	if err != nil {
		return fmt.Errorf("gathering stats: %w", err)
	}

	var lines []string
	for _, family := range families {
		for _, metric := range family.GetMetric() {
			value := metricValue(family.GetType(), metric)
			if value == 0 {
				continue
			}
			lines = append(lines, fmt.Sprintf("%s%s %g", family.GetName(), formatLabels(metric.GetLabel()), value))
		}
	}
	sort.Strings(lines)

	if len(lines) == 0 {
		return nil
	}
	fmt.Fprintln(w, sectionStyle.Render("Stats"))
	for _, line := range lines {
		fmt.Fprintln(w, line)
	}
	return nil
}

func metricValue(kind dto.MetricType, metric *dto.Metric) float64 {
	switch kind {
	case dto.MetricType_COUNTER:
		return metric.GetCounter().GetValue()
	case dto.MetricType_GAUGE:
		return metric.GetGauge().GetValue()
	default:
		return 0
	}
}

func formatLabels(labels []*dto.LabelPair) string {
	if len(labels) == 0 {
		return ""
	}
	parts := make([]string, 0, len(labels))
	for _, label := range labels {
		parts = append(parts, fmt.Sprintf("%s=%q", label.GetName(), label.GetValue()))
	}
	return "{" + strings.Join(parts, ",") + "}"
}
