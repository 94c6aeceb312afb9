package metrics_test

import (
	"testing"

	"github.com/Unaro/excel-analytics-sub001/metrics"
	"github.com/stretchr/testify/assert"
)

func metricIDs(groupMetrics []metrics.GroupMetric) []string {
	ids := make([]string, 0, len(groupMetrics))
	for _, metric := range groupMetrics {
		ids = append(ids, metric.ID)
	}
	return ids
}

func dependsOn(id string, order int, dependencies ...string) metrics.GroupMetric {
	metric := metrics.GroupMetric{ID: id, TemplateID: "t-ratio", Order: order}
	aliases := []string{"a", "b"}
	for i, dependency := range dependencies {
		metric.MetricBindings = append(metric.MetricBindings, metrics.MetricBinding{
			MetricAlias: aliases[i],
			MetricID:    dependency,
		})
	}
	return metric
}

func TestEvaluationOrderPutsDependenciesFirst(t *testing.T) {
	templates := metrics.IndexTemplates([]metrics.Template{sumTemplate, ratioTemplate})

	groupMetrics := []metrics.GroupMetric{
		dependsOn("ratio", 0, "revenue", "cost"),
		{ID: "revenue", TemplateID: "t-sum", Order: 2},
		{ID: "cost", TemplateID: "t-sum", Order: 1},
		{ID: "units", TemplateID: "t-sum", Order: 1},
	}

	ordered, cyclic := metrics.EvaluationOrder(groupMetrics, templates)
	assert.Empty(t, cyclic)
	assert.Equal(t, []string{"cost", "units", "revenue", "ratio"}, metricIDs(ordered))
}

func TestEvaluationOrderIgnoresAliasesMissingFromFormula(t *testing.T) {
	templates := metrics.IndexTemplates([]metrics.Template{
		sumTemplate,
		{ID: "t-half", Type: metrics.TemplateTypeCalculated, Formula: "a / 2"},
	})

	first := metrics.GroupMetric{
		ID:         "first",
		TemplateID: "t-half",
		Order:      0,
		MetricBindings: []metrics.MetricBinding{
			{MetricAlias: "a", MetricID: "base"},
			{MetricAlias: "unused", MetricID: "second"},
		},
	}
	second := metrics.GroupMetric{
		ID:             "second",
		TemplateID:     "t-half",
		Order:          1,
		MetricBindings: []metrics.MetricBinding{{MetricAlias: "a", MetricID: "first"}},
	}
	base := metrics.GroupMetric{ID: "base", TemplateID: "t-sum", Order: 2}

	ordered, cyclic := metrics.EvaluationOrder(
		[]metrics.GroupMetric{second, base, first},
		templates,
	)
	assert.Empty(t, cyclic)
	assert.Equal(t, []string{"base", "first", "second"}, metricIDs(ordered))
}

func TestEvaluationOrderDetectsCycles(t *testing.T) {
	templates := metrics.IndexTemplates([]metrics.Template{sumTemplate, ratioTemplate})

	groupMetrics := []metrics.GroupMetric{
		dependsOn("x", 0, "y", "base"),
		dependsOn("y", 1, "x", "base"),
		dependsOn("z", 2, "x", "base"),
		dependsOn("self", 3, "self", "base"),
		{ID: "base", TemplateID: "t-sum", Order: 4},
	}

	ordered, cyclic := metrics.EvaluationOrder(groupMetrics, templates)
	assert.Equal(t, []string{"base"}, metricIDs(ordered))
	assert.Equal(t, []string{"x", "y", "z", "self"}, metricIDs(cyclic))
}
