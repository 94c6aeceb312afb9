package metrics_test

import (
	"math"
	"testing"

	"github.com/Unaro/excel-analytics-sub001/metrics"
	"github.com/guregu/null/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAggregate(t *testing.T) {
	values := []float64{4, 1, 3, 1, 6}

	cases := []struct {
		function metrics.AggregateFunction
		expected null.Float
	}{
		{metrics.AggregateSum, null.FloatFrom(15)},
		{metrics.AggregateAverage, null.FloatFrom(3)},
		{metrics.AggregateMin, null.FloatFrom(1)},
		{metrics.AggregateMax, null.FloatFrom(6)},
		{metrics.AggregateCount, null.FloatFrom(5)},
		{metrics.AggregateCountDistinct, null.FloatFrom(4)},
		{metrics.AggregateMedian, null.FloatFrom(3)},
	}

	for _, testCase := range cases {
		t.Run(testCase.function.String(), func(t *testing.T) {
			result, err := metrics.Aggregate(testCase.function, values)
			require.NoError(t, err)
			assert.Equal(t, testCase.expected, result)
		})
	}
}

func TestAggregateEmptySet(t *testing.T) {
	for _, function := range []metrics.AggregateFunction{
		metrics.AggregateSum,
		metrics.AggregateAverage,
		metrics.AggregateMin,
		metrics.AggregateMax,
		metrics.AggregateMedian,
	} {
		result, err := metrics.Aggregate(function, nil)
		require.NoError(t, err)
		assert.False(t, result.Valid, function.String())
	}

	count, err := metrics.Aggregate(metrics.AggregateCount, nil)
	require.NoError(t, err)
	assert.Equal(t, null.FloatFrom(0), count)

	distinct, err := metrics.Aggregate(metrics.AggregateCountDistinct, nil)
	require.NoError(t, err)
	assert.Equal(t, null.FloatFrom(0), distinct)
}

func TestAggregateEvenMedian(t *testing.T) {
	result, err := metrics.Aggregate(metrics.AggregateMedian, []float64{10, 2, 4, 8})
	require.NoError(t, err)
	assert.Equal(t, null.FloatFrom(6), result)
}

func TestAggregateOverflowIsNull(t *testing.T) {
	result, err := metrics.Aggregate(metrics.AggregateSum, []float64{math.MaxFloat64, math.MaxFloat64})
	require.NoError(t, err)
	assert.False(t, result.Valid)
}

func TestAggregateRejectsUnknownFunction(t *testing.T) {
	_, err := metrics.Aggregate(metrics.AggregateFunction(42), []float64{1})
	assert.ErrorIs(t, err, metrics.ErrUnsupportedTemplate)
}

func TestEnumJSON(t *testing.T) {
	var function metrics.AggregateFunction
	require.NoError(t, function.UnmarshalJSON([]byte(`"COUNT_DISTINCT"`)))
	assert.Equal(t, metrics.AggregateCountDistinct, function)

	var format metrics.DisplayFormat
	require.NoError(t, format.UnmarshalJSON([]byte(`"percent"`)))
	assert.Equal(t, metrics.DisplayFormatPercent, format)

	encoded, err := metrics.TemplateTypeCalculated.MarshalJSON()
	require.NoError(t, err)
	assert.Equal(t, `"calculated"`, string(encoded))

	assert.Error(t, format.UnmarshalJSON([]byte(`"fancy"`)))
}
