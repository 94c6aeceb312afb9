package metrics

import (
	"fmt"
	"math"
	"slices"

	"github.com/guregu/null/v5"
	"github.com/hashicorp/go-set/v2"
)

// Aggregate reduces the values with the given function. Counts of an empty set are 0; every other
// aggregate of an empty set is null, as is a sum that overflows.
func Aggregate(function AggregateFunction, values []float64) (null.Float, error) {
	switch function {
	case AggregateCount:
		return null.FloatFrom(float64(len(values))), nil
	case AggregateCountDistinct:
		return null.FloatFrom(float64(set.From(values).Size())), nil
	}

	if !function.IsValid() {
		return null.Float{}, fmt.Errorf("%w: aggregate function %s", ErrUnsupportedTemplate, function)
	}
	if len(values) == 0 {
		return null.Float{}, nil
	}

	var result float64
	switch function {
	case AggregateSum:
		result = total(values)
	case AggregateAverage:
		result = total(values) / float64(len(values))
	case AggregateMin:
		result = slices.Min(values)
	case AggregateMax:
		result = slices.Max(values)
	case AggregateMedian:
		result = median(values)
	}

	if math.IsInf(result, 0) || math.IsNaN(result) {
		return null.Float{}, nil
	}
	return null.FloatFrom(result), nil
}

func total(values []float64) float64 {
	sum := 0.0
	for _, value := range values {
		sum += value
	}
	return sum
}

func median(values []float64) float64 {
	sorted := slices.Clone(values)
	slices.Sort(sorted)

	middle := len(sorted) / 2
	if len(sorted)%2 == 1 {
		return sorted[middle]
	}
	return (sorted[middle-1] + sorted[middle]) / 2
}
