package dashboard

import (
	"context"
	"testing"

	"github.com/Unaro/excel-analytics-sub001/dataset"
	"github.com/Unaro/excel-analytics-sub001/formula"
	"github.com/Unaro/excel-analytics-sub001/metrics"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/language"
)

func TestComputeIsolatesPanickingGroup(t *testing.T) {
	sandbox, err := formula.NewSandbox(8)
	require.NoError(t, err)
	formatter, err := NewFormatter(language.English, "USD")
	require.NoError(t, err)

	computer := NewComputer(sandbox, formatter, 2)
	computer.groupEvaluator = func(
		group metrics.IndicatorGroup,
		templates map[string]metrics.Template,
		rows []dataset.Row,
	) (metrics.Results, map[string]error) {
		if group.ID == "g-broken" {
			panic("corrupted group state")
		}
		return computer.evaluateGroup(group, templates, rows)
	}

	sumMetric := func(id string) metrics.GroupMetric {
		return metrics.GroupMetric{
			ID:            id,
			TemplateID:    "t-sum",
			FieldBindings: []metrics.FieldBinding{{FieldAlias: "x", ColumnName: "v"}},
		}
	}
	bindings := func(metricID string) []VirtualMetricBinding {
		return []VirtualMetricBinding{{VirtualMetricID: "vm-total", MetricID: metricID}}
	}

	request := Request{
		Data: []dataset.Row{{"v": 10.0}, {"v": 32.0}},
		AllGroups: []metrics.IndicatorGroup{
			{ID: "g-broken", Name: "Broken", Metrics: []metrics.GroupMetric{sumMetric("m1")}},
			{ID: "g-healthy", Name: "Healthy", Metrics: []metrics.GroupMetric{sumMetric("m2")}},
		},
		DashboardGroupsConfig: []GroupInDashboard{
			{GroupID: "g-broken", Enabled: true, Order: 0, VirtualMetricBindings: bindings("m1")},
			{GroupID: "g-healthy", Enabled: true, Order: 1, VirtualMetricBindings: bindings("m2")},
		},
		MetricTemplates: []metrics.Template{{
			ID:                "t-sum",
			Name:              "Sum",
			Type:              metrics.TemplateTypeAggregate,
			AggregateFunction: metrics.AggregateSum,
			AggregateField:    "x",
		}},
		VirtualMetrics: []VirtualMetric{
			{ID: "vm-total", Name: "Total", Order: 0},
			{ID: "vm-unbound", Name: "Unbound", Order: 1},
		},
	}

	response, err := computer.Compute(context.Background(), request)
	require.NoError(t, err)
	require.Len(t, response.Groups, 2)

	broken := response.Groups[0]
	assert.Equal(t, "g-broken", broken.GroupID)
	assert.Contains(t, broken.Error, "corrupted group state")
	require.Len(t, broken.VirtualMetrics, 2)
	for _, value := range broken.VirtualMetrics {
		assert.False(t, value.Value.Valid)
		assert.Equal(t, ErrorDisplay, value.FormattedValue)
		assert.NotEmpty(t, value.Error)
	}
	assert.Equal(t, "m1", broken.VirtualMetrics[0].SourceMetricID)

	healthy := response.Groups[1]
	assert.Equal(t, "g-healthy", healthy.GroupID)
	assert.Empty(t, healthy.Error)
	require.Len(t, healthy.VirtualMetrics, 2)
	assert.Equal(t, 42.0, healthy.VirtualMetrics[0].Value.Float64)
	assert.Equal(t, "42", healthy.VirtualMetrics[0].FormattedValue)
	assert.Equal(t, NullDisplay, healthy.VirtualMetrics[1].FormattedValue)
}
