package metrics

import (
	"errors"

	"github.com/guregu/null/v5"
)

var (
	ErrTemplateNotFound    = errors.New("metric template not found")
	ErrCircularDependency  = errors.New("metric is part of a circular dependency")
	ErrUnsupportedTemplate = errors.New("unsupported metric template")
)

// Template is a reusable metric definition: either an aggregate over one bound field, or a
// formula over bound fields and other metrics.
type Template struct {
	ID                string            `json:"id" validate:"required"`
	Name              string            `json:"name"`
	Description       string            `json:"description,omitempty"`
	Type              TemplateType      `json:"type" validate:"required,enum"`
	AggregateFunction AggregateFunction `json:"aggregateFunction,omitempty" validate:"omitempty,enum"`
	// Alias of the field binding that supplies the aggregated values.
	AggregateField string        `json:"aggregateField,omitempty"`
	Formula        string        `json:"formula,omitempty" validate:"max=1000"`
	DisplayFormat  DisplayFormat `json:"displayFormat" validate:"enum"`
	DecimalPlaces  int           `json:"decimalPlaces" validate:"min=0,max=10"`
	Unit           string        `json:"unit,omitempty"`
}

// FieldBinding binds a template alias to a dataset column.
type FieldBinding struct {
	FieldAlias string `json:"fieldAlias" validate:"required"`
	ColumnName string `json:"columnName" validate:"required"`
}

// MetricBinding binds a template alias to the value of another metric in the same group.
type MetricBinding struct {
	MetricAlias string `json:"metricAlias" validate:"required"`
	MetricID    string `json:"metricId" validate:"required"`
}

// GroupMetric is an instance of a template inside an indicator group, with the template's aliases
// bound to columns and sibling metrics.
type GroupMetric struct {
	ID             string          `json:"id" validate:"required"`
	TemplateID     string          `json:"templateId" validate:"required"`
	Name           string          `json:"name,omitempty"`
	Order          int             `json:"order"`
	FieldBindings  []FieldBinding  `json:"fieldBindings,omitempty" validate:"dive"`
	MetricBindings []MetricBinding `json:"metricBindings,omitempty" validate:"dive"`
}

// FieldColumn returns the column bound to the given alias.
func (metric GroupMetric) FieldColumn(alias string) (column string, ok bool) {
	for _, binding := range metric.FieldBindings {
		if binding.FieldAlias == alias {
			return binding.ColumnName, true
		}
	}
	return "", false
}

type IndicatorGroup struct {
	ID          string        `json:"id" validate:"required"`
	Name        string        `json:"name"`
	Description string        `json:"description,omitempty"`
	Metrics     []GroupMetric `json:"metrics" validate:"dive"`
}

// Results maps metric IDs to their computed values.
type Results map[string]null.Float

// IndexTemplates maps the templates by ID. Later duplicates win.
func IndexTemplates(templates []Template) map[string]Template {
	index := make(map[string]Template, len(templates))
	for _, template := range templates {
		index[template.ID] = template
	}
	return index
}
