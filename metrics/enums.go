package metrics

import (
	"hermannm.dev/enumnames"
)

type TemplateType int8

const (
	TemplateTypeAggregate TemplateType = iota + 1
	TemplateTypeCalculated
)

var templateTypeMap = enumnames.NewMap(map[TemplateType]string{
	TemplateTypeAggregate:  "aggregate",
	TemplateTypeCalculated: "calculated",
})

func (templateType TemplateType) IsValid() bool {
	_, ok := templateTypeMap.GetName(templateType)
	return ok
}

func (templateType TemplateType) String() string {
	return templateTypeMap.GetNameOrFallback(templateType, "INVALID_TEMPLATE_TYPE")
}

func (templateType TemplateType) MarshalJSON() ([]byte, error) {
	return templateTypeMap.MarshalToNameJSON(templateType)
}

func (templateType *TemplateType) UnmarshalJSON(bytes []byte) error {
	return templateTypeMap.UnmarshalFromNameJSON(bytes, templateType)
}

type AggregateFunction int8

const (
	AggregateSum AggregateFunction = iota + 1
	AggregateAverage
	AggregateMin
	AggregateMax
	AggregateCount
	AggregateCountDistinct
	AggregateMedian
)

var aggregateFunctionMap = enumnames.NewMap(map[AggregateFunction]string{
	AggregateSum:           "SUM",
	AggregateAverage:       "AVG",
	AggregateMin:           "MIN",
	AggregateMax:           "MAX",
	AggregateCount:         "COUNT",
	AggregateCountDistinct: "COUNT_DISTINCT",
	AggregateMedian:        "MEDIAN",
})

func (function AggregateFunction) IsValid() bool {
	_, ok := aggregateFunctionMap.GetName(function)
	return ok
}

func (function AggregateFunction) String() string {
	return aggregateFunctionMap.GetNameOrFallback(function, "INVALID_AGGREGATE_FUNCTION")
}

func (function AggregateFunction) MarshalJSON() ([]byte, error) {
	return aggregateFunctionMap.MarshalToNameJSON(function)
}

func (function *AggregateFunction) UnmarshalJSON(bytes []byte) error {
	return aggregateFunctionMap.UnmarshalFromNameJSON(bytes, function)
}

// DisplayFormat selects how a metric value is rendered for display. The zero value is
// DisplayFormatNumber.
type DisplayFormat int8

const (
	DisplayFormatNumber DisplayFormat = iota
	DisplayFormatDecimal
	DisplayFormatPercent
	DisplayFormatCurrency
	DisplayFormatScientific
)

var displayFormatMap = enumnames.NewMap(map[DisplayFormat]string{
	DisplayFormatNumber:     "number",
	DisplayFormatDecimal:    "decimal",
	DisplayFormatPercent:    "percent",
	DisplayFormatCurrency:   "currency",
	DisplayFormatScientific: "scientific",
})

func (format DisplayFormat) IsValid() bool {
	_, ok := displayFormatMap.GetName(format)
	return ok
}

func (format DisplayFormat) String() string {
	return displayFormatMap.GetNameOrFallback(format, "INVALID_DISPLAY_FORMAT")
}

func (format DisplayFormat) MarshalJSON() ([]byte, error) {
	return displayFormatMap.MarshalToNameJSON(format)
}

func (format *DisplayFormat) UnmarshalJSON(bytes []byte) error {
	return displayFormatMap.UnmarshalFromNameJSON(bytes, format)
}
