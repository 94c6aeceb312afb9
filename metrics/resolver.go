package metrics

import (
	"fmt"

	"github.com/Unaro/excel-analytics-sub001/dataset"
	"github.com/Unaro/excel-analytics-sub001/formula"
	"github.com/guregu/null/v5"
	"hermannm.dev/wrap"
)

// Resolver computes the value of a single group metric from its template, the filtered rows and
// the values of the metrics resolved before it.
type Resolver struct {
	sandbox *formula.Sandbox
}

func NewResolver(sandbox *formula.Sandbox) Resolver {
	return Resolver{sandbox: sandbox}
}

// Resolve returns null with an error when the metric cannot be computed. An aggregate whose field
// alias is unbound, or that has no numeric values to aggregate, is null without error.
func (resolver Resolver) Resolve(
	metric GroupMetric,
	template *Template,
	rows []dataset.Row,
	prior Results,
) (null.Float, error) {
	if template == nil {
		return null.Float{}, fmt.Errorf("%w: '%s'", ErrTemplateNotFound, metric.TemplateID)
	}

	switch template.Type {
	case TemplateTypeAggregate:
		return resolveAggregate(metric, template, rows)
	case TemplateTypeCalculated:
		return resolver.resolveCalculated(metric, template, rows, prior)
	default:
		return null.Float{}, fmt.Errorf("%w: type %s", ErrUnsupportedTemplate, template.Type)
	}
}

func resolveAggregate(metric GroupMetric, template *Template, rows []dataset.Row) (null.Float, error) {
	column, ok := metric.FieldColumn(template.AggregateField)
	if !ok {
		return null.Float{}, nil
	}

	value, err := Aggregate(template.AggregateFunction, dataset.Numbers(rows, column))
	if err != nil {
		return null.Float{}, wrap.Errorf(err, "failed to aggregate column '%s'", column)
	}
	return value, nil
}

// Field aliases evaluate to the sum of their column over the rows. Metric aliases evaluate to the
// prior result of the bound metric, with missing or null results read as 0. A metric alias shadows
// a field alias of the same name.
func (resolver Resolver) resolveCalculated(
	metric GroupMetric,
	template *Template,
	rows []dataset.Row,
	prior Results,
) (null.Float, error) {
	scope := make(formula.Scope, len(metric.FieldBindings)+len(metric.MetricBindings))

	for _, binding := range metric.FieldBindings {
		scope[binding.FieldAlias] = total(dataset.Numbers(rows, binding.ColumnName))
	}
	for _, binding := range metric.MetricBindings {
		scope[binding.MetricAlias] = prior[binding.MetricID]
	}

	value, err := resolver.sandbox.Run(template.Formula, scope)
	if err != nil {
		return null.Float{}, wrap.Errorf(err, "failed to evaluate formula of template '%s'", template.ID)
	}
	return null.FloatFrom(value), nil
}
