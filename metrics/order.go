package metrics

import (
	"cmp"
	"slices"

	"github.com/Unaro/excel-analytics-sub001/formula"
)

// EvaluationOrder sorts a group's metrics so that every metric comes after the sibling metrics its
// formula reads. Among metrics whose dependencies are met, the lowest Order (then ID) goes first.
// Metrics on a dependency cycle, and metrics depending on them, are returned separately as cyclic,
// in Order.
func EvaluationOrder(
	metrics []GroupMetric,
	templates map[string]Template,
) (ordered []GroupMetric, cyclic []GroupMetric) {
	declared := slices.Clone(metrics)
	slices.SortStableFunc(declared, func(a, b GroupMetric) int {
		return cmp.Or(cmp.Compare(a.Order, b.Order), cmp.Compare(a.ID, b.ID))
	})

	positions := make(map[string]int, len(declared))
	for i, metric := range declared {
		if _, duplicate := positions[metric.ID]; !duplicate {
			positions[metric.ID] = i
		}
	}

	// dependents[i] lists the metrics that read metric i; pending[i] counts what metric i reads
	dependents := make([][]int, len(declared))
	pending := make([]int, len(declared))
	for i, metric := range declared {
		for _, dependencyID := range dependencies(metric, templates) {
			position, inGroup := positions[dependencyID]
			if !inGroup {
				continue
			}
			dependents[position] = append(dependents[position], i)
			pending[i]++
		}
	}

	done := make([]bool, len(declared))
	ordered = make([]GroupMetric, 0, len(declared))
	for len(ordered) < len(declared) {
		next := -1
		for i := range declared {
			if !done[i] && pending[i] == 0 {
				next = i
				break
			}
		}
		if next == -1 {
			break
		}

		done[next] = true
		ordered = append(ordered, declared[next])
		for _, dependent := range dependents[next] {
			pending[dependent]--
		}
	}

	for i, metric := range declared {
		if !done[i] {
			cyclic = append(cyclic, metric)
		}
	}
	return ordered, cyclic
}

// dependencies returns the IDs of the metrics the given metric reads. For calculated templates only
// bindings whose alias occurs in the formula count; if the formula cannot be parsed, all of them do.
func dependencies(metric GroupMetric, templates map[string]Template) []string {
	if len(metric.MetricBindings) == 0 {
		return nil
	}

	template, ok := templates[metric.TemplateID]
	if !ok || template.Type != TemplateTypeCalculated {
		return nil
	}

	variables, err := formula.ExtractVariables(template.Formula)

	var ids []string
	for _, binding := range metric.MetricBindings {
		if err != nil || variables.Contains(binding.MetricAlias) {
			ids = append(ids, binding.MetricID)
		}
	}
	return ids
}
