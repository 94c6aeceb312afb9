package dashboard

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/Unaro/excel-analytics-sub001/metrics"
	"github.com/guregu/null/v5"
	"golang.org/x/text/currency"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"hermannm.dev/wrap"
)

const (
	NullDisplay  = "—"
	ErrorDisplay = "Error"
)

// Formatter renders metric values for display in a fixed locale.
type Formatter struct {
	locale   language.Tag
	currency currency.Unit
}

func NewFormatter(locale language.Tag, currencyCode string) (Formatter, error) {
	unit, err := currency.ParseISO(currencyCode)
	if err != nil {
		return Formatter{}, wrap.Errorf(err, "invalid display currency '%s'", currencyCode)
	}
	return Formatter{locale: locale, currency: unit}, nil
}

type FormatOptions struct {
	Format        metrics.DisplayFormat
	DecimalPlaces int
	Unit          string
	// Overrides the formatter's currency for DisplayFormatCurrency.
	Currency string
}

// FormatResult renders a computed value, or the placeholder for a missing or failed one.
func (formatter Formatter) FormatResult(value null.Float, failed bool, options FormatOptions) string {
	switch {
	case value.Valid:
		return formatter.Format(value.Float64, options)
	case failed:
		return ErrorDisplay
	default:
		return NullDisplay
	}
}

func (formatter Formatter) Format(value float64, options FormatOptions) string {
	decimals := min(max(options.DecimalPlaces, 0), 10)

	var formatted string
	switch options.Format {
	case metrics.DisplayFormatDecimal:
		formatted = formatter.grouped(value, decimals)
	case metrics.DisplayFormatPercent:
		formatted = formatter.grouped(value*100, decimals)
	case metrics.DisplayFormatCurrency:
		formatted = formatter.grouped(value, decimals) + " " + formatter.currencyCode(options.Currency)
	case metrics.DisplayFormatScientific:
		formatted = strconv.FormatFloat(value, 'e', decimals, 64)
	default:
		formatted = strconv.FormatFloat(value, 'f', decimals, 64)
	}

	if unit := strings.TrimSpace(options.Unit); unit != "" {
		formatted += " " + unit
	}
	return formatted
}

func (formatter Formatter) grouped(value float64, decimals int) string {
	// Printers are not shared between goroutines
	printer := message.NewPrinter(formatter.locale)
	return printer.Sprintf(fmt.Sprintf("%%.%df", decimals), value)
}

func (formatter Formatter) currencyCode(override string) string {
	if override != "" {
		if unit, err := currency.ParseISO(override); err == nil {
			return unit.String()
		}
	}
	return formatter.currency.String()
}
