package dataset_test

import (
	"encoding/json"
	"math"
	"testing"
	"time"

	"github.com/Unaro/excel-analytics-sub001/dataset"
	"github.com/stretchr/testify/assert"
)

type label struct{ name string }

func (l *label) String() string { return l.name }

func TestNormalize(t *testing.T) {
	var nilLabel *label
	var nilString *string
	text := "  Москва "

	cases := []struct {
		name     string
		value    any
		expected string
	}{
		{"nil", nil, ""},
		{"trims strings", "  North ", "North"},
		{"integer float", 2024.0, "2024"},
		{"fractional float", 12.5, "12.5"},
		{"int", 42, "42"},
		{"int64", int64(-7), "-7"},
		{"uint8", uint8(3), "3"},
		{"bool", true, "true"},
		{"json number", json.Number("15.0"), "15"},
		{"json number in exponent form", json.Number("2.024e3"), "2024"},
		{"json number beyond float range", json.Number("1e400"), "1e400"},
		{"timestamp", time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC), "2024-03-01T00:00:00Z"},
		{"nan", math.NaN(), "NaN"},
		{"stringer", &label{name: " Q1 "}, "Q1"},
		{"nil stringer", nilLabel, ""},
		{"nil pointer", nilString, ""},
		{"string pointer", &text, "Москва"},
	}

	for _, testCase := range cases {
		t.Run(testCase.name, func(t *testing.T) {
			assert.Equal(t, testCase.expected, dataset.Normalize(testCase.value))
		})
	}
}

func TestNormalizeIsIdempotent(t *testing.T) {
	values := []any{" a ", 1.5, nil, false, int64(10), "\tx\n", json.Number("3.50")}
	for _, value := range values {
		once := dataset.Normalize(value)
		assert.Equal(t, once, dataset.Normalize(once))
	}
}

func TestNormalizeEqualNumbersMatch(t *testing.T) {
	expected := dataset.Normalize(2024.0)
	values := []any{
		2024,
		int64(2024),
		json.Number("2024"),
		json.Number("2024.0"),
		json.Number("2.024e3"),
	}
	for _, value := range values {
		assert.Equal(t, expected, dataset.Normalize(value), "%#v", value)
	}
}

func TestNumber(t *testing.T) {
	value := 3.0

	cases := []struct {
		name    string
		value   any
		number  float64
		numeric bool
	}{
		{"float", 1.5, 1.5, true},
		{"int", 4, 4, true},
		{"uint16", uint16(9), 9, true},
		{"json number", json.Number("2.25"), 2.25, true},
		{"pointer", &value, 3, true},
		{"numeric string", "12", 0, false},
		{"nil", nil, 0, false},
		{"bool", true, 0, false},
		{"infinity", math.Inf(1), 0, false},
		{"nan", math.NaN(), 0, false},
	}

	for _, testCase := range cases {
		t.Run(testCase.name, func(t *testing.T) {
			number, numeric := dataset.Number(testCase.value)
			assert.Equal(t, testCase.numeric, numeric)
			assert.Equal(t, testCase.number, number)
		})
	}
}

func TestNumbersSkipsNonNumericCells(t *testing.T) {
	rows := []dataset.Row{
		{"revenue": 10.0},
		{"revenue": "n/a"},
		{"region": "North"},
		{"revenue": 5},
		{"revenue": nil},
	}

	assert.Equal(t, []float64{10, 5}, dataset.Numbers(rows, "revenue"))
}
