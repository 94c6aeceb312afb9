package dashboard

import (
	"time"

	"github.com/Unaro/excel-analytics-sub001/dataset"
	"github.com/Unaro/excel-analytics-sub001/hierarchy"
	"github.com/Unaro/excel-analytics-sub001/metrics"
	"github.com/guregu/null/v5"
)

const (
	MaxRows           = 100_000
	MaxGroups         = 100
	MaxTemplates      = 500
	MaxVirtualMetrics = 50
	MaxFilters        = 10
)

// VirtualMetric is a dashboard-level column. Each group in the dashboard binds it to one of its
// own metrics.
type VirtualMetric struct {
	ID            string                `json:"id" validate:"required"`
	Name          string                `json:"name" validate:"required"`
	DisplayFormat metrics.DisplayFormat `json:"displayFormat" validate:"enum"`
	DecimalPlaces int                   `json:"decimalPlaces" validate:"min=0,max=10"`
	Unit          string                `json:"unit,omitempty"`
	Currency      string                `json:"currency,omitempty" validate:"omitempty,iso4217"`
	Order         int                   `json:"order"`
}

func (virtualMetric VirtualMetric) formatOptions() FormatOptions {
	return FormatOptions{
		Format:        virtualMetric.DisplayFormat,
		DecimalPlaces: virtualMetric.DecimalPlaces,
		Unit:          virtualMetric.Unit,
		Currency:      virtualMetric.Currency,
	}
}

type VirtualMetricBinding struct {
	VirtualMetricID string `json:"virtualMetricId" validate:"required"`
	MetricID        string `json:"metricId" validate:"required"`
}

// GroupInDashboard places an indicator group in a dashboard.
type GroupInDashboard struct {
	GroupID               string                 `json:"groupId" validate:"required"`
	Enabled               bool                   `json:"enabled"`
	Order                 int                    `json:"order"`
	VirtualMetricBindings []VirtualMetricBinding `json:"virtualMetricBindings" validate:"dive"`
}

func (group GroupInDashboard) boundMetricID(virtualMetricID string) (metricID string, ok bool) {
	for _, binding := range group.VirtualMetricBindings {
		if binding.VirtualMetricID == virtualMetricID {
			return binding.MetricID, true
		}
	}
	return "", false
}

type Request struct {
	Data                  []dataset.Row            `json:"data" validate:"max=100000"`
	AllGroups             []metrics.IndicatorGroup `json:"allGroups" validate:"max=100,dive"`
	DashboardGroupsConfig []GroupInDashboard       `json:"dashboardGroupsConfig" validate:"max=100,dive"`
	MetricTemplates       []metrics.Template       `json:"metricTemplates" validate:"max=500,dive"`
	VirtualMetrics        []VirtualMetric          `json:"virtualMetrics" validate:"max=50,dive"`
	Filters               []hierarchy.FilterValue  `json:"filters" validate:"max=10,dive"`
	// Optional. When given, filters that do not form a valid path through these levels are
	// dropped instead of applied.
	Levels []hierarchy.Level `json:"levels,omitempty" validate:"max=20,dive"`
}

type Response struct {
	ID               string                  `json:"id"`
	HierarchyFilters []hierarchy.FilterValue `json:"hierarchyFilters"`
	// Deepest filter of the path, nil at the root.
	ActiveFilter   *hierarchy.FilterValue `json:"activeFilter"`
	VirtualMetrics []VirtualMetric        `json:"virtualMetrics"`
	Groups         []GroupResult          `json:"groups"`
	TotalRecords   int                    `json:"totalRecords"`
	ComputedAt     time.Time              `json:"computedAt"`
	// Milliseconds.
	ComputationTime float64 `json:"computationTime"`
}

type GroupResult struct {
	GroupID        string               `json:"groupId"`
	GroupName      string               `json:"groupName"`
	VirtualMetrics []VirtualMetricValue `json:"virtualMetrics"`
	RecordCount    int                  `json:"recordCount"`
	ComputedAt     time.Time            `json:"computedAt"`
	Error          string               `json:"error,omitempty"`
}

type VirtualMetricValue struct {
	VirtualMetricID   string     `json:"virtualMetricId"`
	VirtualMetricName string     `json:"virtualMetricName"`
	Value             null.Float `json:"value"`
	FormattedValue    string     `json:"formattedValue"`
	// Empty when the group does not bind the virtual metric.
	SourceMetricID string `json:"sourceMetricId"`
	Error          string `json:"error,omitempty"`
}

// GroupRequest computes every metric of a single group, as for a group profile view.
type GroupRequest struct {
	Data            []dataset.Row           `json:"data" validate:"max=100000"`
	Group           metrics.IndicatorGroup  `json:"group"`
	MetricTemplates []metrics.Template      `json:"metricTemplates" validate:"max=500,dive"`
	Filters         []hierarchy.FilterValue `json:"filters" validate:"max=10,dive"`
}

type GroupResponse struct {
	GroupID     string        `json:"groupId"`
	GroupName   string        `json:"groupName"`
	Metrics     []MetricValue `json:"metrics"`
	RecordCount int           `json:"recordCount"`
	ComputedAt  time.Time     `json:"computedAt"`
	// Milliseconds.
	ComputationTime float64 `json:"computationTime"`
}

type MetricValue struct {
	MetricID       string     `json:"metricId"`
	Name           string     `json:"name"`
	TemplateID     string     `json:"templateId"`
	Value          null.Float `json:"value"`
	FormattedValue string     `json:"formattedValue"`
	Error          string     `json:"error,omitempty"`
}
