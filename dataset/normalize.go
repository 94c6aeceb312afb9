package dataset

import (
	"encoding/json"
	"fmt"
	"math"
	"reflect"
	"strconv"
	"strings"
	"time"
)

// Row is a single record of an uploaded dataset, keyed by column name. Values are whatever the
// source produced: strings, numbers, booleans, timestamps or nil.
type Row map[string]any

// Normalize converts a cell value to the canonical string used for grouping and filter matching.
// Nil becomes the empty string, strings are trimmed and everything else is rendered in its
// natural text form before trimming. Normalize is total and idempotent.
func Normalize(value any) string {
	switch value := value.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(value)
	case float64:
		return formatFloat(value)
	case float32:
		return formatFloat(float64(value))
	case int:
		return strconv.Itoa(value)
	case int64:
		return strconv.FormatInt(value, 10)
	case bool:
		return strconv.FormatBool(value)
	case json.Number:
		if number, err := value.Float64(); err == nil {
			return formatFloat(number)
		}
		return strings.TrimSpace(value.String())
	case time.Time:
		return value.Format(time.RFC3339)
	case fmt.Stringer:
		return normalizeStringer(value)
	}

	reflected := reflect.ValueOf(value)
	switch reflected.Kind() {
	case reflect.Pointer, reflect.Interface:
		if reflected.IsNil() {
			return ""
		}
		return Normalize(reflected.Elem().Interface())
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return strconv.FormatInt(reflected.Int(), 10)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return strconv.FormatUint(reflected.Uint(), 10)
	case reflect.Float32, reflect.Float64:
		return formatFloat(reflected.Float())
	}

	return strings.TrimSpace(fmt.Sprint(value))
}

func normalizeStringer(value fmt.Stringer) (normalized string) {
	reflected := reflect.ValueOf(value)
	if reflected.Kind() == reflect.Pointer && reflected.IsNil() {
		return ""
	}

	defer func() {
		if recover() != nil {
			normalized = ""
		}
	}()
	return strings.TrimSpace(value.String())
}

func formatFloat(value float64) string {
	switch {
	case math.IsNaN(value):
		return "NaN"
	case math.IsInf(value, 1):
		return "Infinity"
	case math.IsInf(value, -1):
		return "-Infinity"
	}

	if math.Abs(value) >= 1e21 {
		return strconv.FormatFloat(value, 'g', -1, 64)
	}
	return strconv.FormatFloat(value, 'f', -1, 64)
}

// Number returns the value as a finite float64, if it holds one. Strings are never treated as
// numbers, so a column of numeric-looking text must be typed at ingestion.
func Number(value any) (float64, bool) {
	var number float64

	switch value := value.(type) {
	case nil:
		return 0, false
	case float64:
		number = value
	case float32:
		number = float64(value)
	case int:
		number = float64(value)
	case int64:
		number = float64(value)
	case int32:
		number = float64(value)
	case json.Number:
		parsed, err := value.Float64()
		if err != nil {
			return 0, false
		}
		number = parsed
	default:
		reflected := reflect.ValueOf(value)
		switch reflected.Kind() {
		case reflect.Pointer:
			if reflected.IsNil() {
				return 0, false
			}
			return Number(reflected.Elem().Interface())
		case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
			number = float64(reflected.Int())
		case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
			number = float64(reflected.Uint())
		case reflect.Float32, reflect.Float64:
			number = reflected.Float()
		default:
			return 0, false
		}
	}

	if math.IsNaN(number) || math.IsInf(number, 0) {
		return 0, false
	}
	return number, true
}

// Numbers collects the numeric values of the given column, skipping rows where the column is
// missing or non-numeric.
func Numbers(rows []Row, column string) []float64 {
	numbers := make([]float64, 0, len(rows))
	for _, row := range rows {
		if number, ok := Number(row[column]); ok {
			numbers = append(numbers, number)
		}
	}
	return numbers
}
