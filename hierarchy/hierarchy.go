package hierarchy

import (
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/Unaro/excel-analytics-sub001/dataset"
	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

var ErrInvalidFilterPath = errors.New("invalid hierarchy filter path")

// Level is one grouping column of a drill-down hierarchy. Levels are traversed in ascending Order.
type Level struct {
	ID          string `json:"id" validate:"required"`
	ColumnName  string `json:"columnName" validate:"required"`
	DisplayName string `json:"displayName,omitempty"`
	Order       int    `json:"order" validate:"min=0"`
}

// FilterValue selects one value of one level. A path of filters narrows the rows from the root of
// the hierarchy down to the selected node.
type FilterValue struct {
	LevelID      string `json:"levelId,omitempty"`
	LevelIndex   int    `json:"levelIndex" validate:"min=0"`
	ColumnName   string `json:"columnName" validate:"required"`
	Value        any    `json:"value"`
	DisplayValue string `json:"displayValue,omitempty"`
}

type Node struct {
	// Normalized grouping key.
	Value string `json:"value"`
	// First raw value seen for the key, trimmed.
	DisplayValue string `json:"displayValue"`
	// Position of the node's level in the hierarchy, matching the LevelIndex of a filter that
	// drills into the node.
	Level int `json:"level"`
	// Number of distinct child values when counted, otherwise 1 if the node has a next level.
	ChildCount  int `json:"childCount"`
	RecordCount int `json:"recordCount"`
}

// SortLevels returns a copy of the levels ordered by Order, keeping the given order for ties.
func SortLevels(levels []Level) []Level {
	sorted := slices.Clone(levels)
	slices.SortStableFunc(sorted, func(a, b Level) int {
		return a.Order - b.Order
	})
	return sorted
}

// FilterRows returns the rows matching every filter, comparing normalized values. Returns the
// rows unchanged when there are no filters.
func FilterRows(rows []dataset.Row, filters []FilterValue) []dataset.Row {
	if len(filters) == 0 {
		return rows
	}

	normalizedValues := make([]string, len(filters))
	for i, filter := range filters {
		normalizedValues[i] = dataset.Normalize(filter.Value)
	}

	filtered := make([]dataset.Row, 0, len(rows)/2)
RowLoop:
	for _, row := range rows {
		for i, filter := range filters {
			if dataset.Normalize(row[filter.ColumnName]) != normalizedValues[i] {
				continue RowLoop
			}
		}
		filtered = append(filtered, row)
	}
	return filtered
}

// ValidatePath checks that the filters form a path from the root of the hierarchy: the filter at
// index i must select a value of the level at position i.
func ValidatePath(levels []Level, filters []FilterValue) error {
	sorted := SortLevels(levels)

	if len(filters) > len(sorted) {
		return fmt.Errorf(
			"%w: %d filters given for %d levels",
			ErrInvalidFilterPath,
			len(filters),
			len(sorted),
		)
	}

	for i, filter := range filters {
		level := sorted[i]
		switch {
		case filter.LevelIndex != i:
			return fmt.Errorf(
				"%w: filter %d has level index %d",
				ErrInvalidFilterPath,
				i,
				filter.LevelIndex,
			)
		case filter.LevelID != "" && filter.LevelID != level.ID:
			return fmt.Errorf(
				"%w: filter %d refers to level '%s', expected '%s'",
				ErrInvalidFilterPath,
				i,
				filter.LevelID,
				level.ID,
			)
		case filter.ColumnName != level.ColumnName:
			return fmt.Errorf(
				"%w: filter %d is on column '%s', expected '%s'",
				ErrInvalidFilterPath,
				i,
				filter.ColumnName,
				level.ColumnName,
			)
		}
	}

	return nil
}

type BuildOptions struct {
	HasNextLevel bool
	// When set, ChildCount holds the number of distinct non-empty values of this column among
	// each node's rows.
	ChildColumn string
	// Locale used to collate node values. Defaults to language.Und.
	Locale language.Tag
}

// BuildLevel groups the rows matching parentFilters by the level's column and returns one node per
// distinct non-empty normalized value, sorted with numeric-aware collation.
func BuildLevel(
	rows []dataset.Row,
	level Level,
	parentFilters []FilterValue,
	hasNextLevel bool,
) []Node {
	return BuildLevelWithOptions(rows, level, parentFilters, BuildOptions{HasNextLevel: hasNextLevel})
}

func BuildLevelWithOptions(
	rows []dataset.Row,
	level Level,
	parentFilters []FilterValue,
	options BuildOptions,
) []Node {
	return groupRows(FilterRows(rows, parentFilters), level, len(parentFilters), options)
}

type bucket struct {
	displayValue string
	recordCount  int
	children     map[string]struct{}
}

func groupRows(rows []dataset.Row, level Level, depth int, options BuildOptions) []Node {
	buckets := make(map[string]*bucket)
	var keys []string

	for _, row := range rows {
		raw := row[level.ColumnName]
		key := dataset.Normalize(raw)
		if key == "" {
			continue
		}

		current, ok := buckets[key]
		if !ok {
			current = &bucket{displayValue: key}
			if options.ChildColumn != "" {
				current.children = make(map[string]struct{})
			}
			buckets[key] = current
			keys = append(keys, key)
		}

		current.recordCount++
		if current.children != nil {
			if child := dataset.Normalize(row[options.ChildColumn]); child != "" {
				current.children[child] = struct{}{}
			}
		}
	}

	nodes := make([]Node, 0, len(keys))
	for _, key := range keys {
		current := buckets[key]

		node := Node{
			Value:        key,
			DisplayValue: current.displayValue,
			Level:        depth,
			RecordCount:  current.recordCount,
		}
		switch {
		case current.children != nil:
			node.ChildCount = len(current.children)
		case options.HasNextLevel:
			node.ChildCount = 1
		}

		nodes = append(nodes, node)
	}

	sortNodes(nodes, options.Locale)
	return nodes
}

func sortNodes(nodes []Node, locale language.Tag) {
	// Collators are not safe for concurrent use, so one is created per sort
	collator := collate.New(locale, collate.Numeric)

	slices.SortFunc(nodes, func(a, b Node) int {
		if order := collator.CompareString(a.Value, b.Value); order != 0 {
			return order
		}
		switch {
		case a.Value < b.Value:
			return -1
		case a.Value > b.Value:
			return 1
		default:
			return 0
		}
	})
}

type Request struct {
	Levels        []Level       `json:"levels" validate:"max=20,dive"`
	ParentFilters []FilterValue `json:"parentFilters" validate:"max=10,dive"`
	// Levels at or beyond this depth are not built. Zero means no limit.
	MaxDepth int `json:"maxDepth,omitempty" validate:"min=0"`
	// Defaults to true.
	IncludeRecordCount *bool `json:"includeRecordCount,omitempty"`
	// Counts distinct child values instead of flagging that children exist.
	CountChildren bool `json:"countChildren,omitempty"`
}

type Response struct {
	Nodes        []Node `json:"nodes"`
	TotalRecords int    `json:"totalRecords"`
	// Milliseconds.
	BuildTime float64 `json:"buildTime"`
}

// Build returns the nodes of the level below the request's parent filters, along with the number
// of rows under those filters. Requesting a depth beyond the last level yields no nodes.
func Build(rows []dataset.Row, request Request, locale language.Tag) (Response, error) {
	start := time.Now()

	if len(request.Levels) == 0 || len(rows) == 0 {
		return Response{Nodes: []Node{}, BuildTime: millisecondsSince(start)}, nil
	}

	levels := SortLevels(request.Levels)
	if err := ValidatePath(levels, request.ParentFilters); err != nil {
		return Response{}, err
	}

	filtered := FilterRows(rows, request.ParentFilters)
	response := Response{Nodes: []Node{}, TotalRecords: len(filtered)}

	depth := len(request.ParentFilters)
	if depth >= len(levels) || (request.MaxDepth > 0 && depth >= request.MaxDepth) {
		response.BuildTime = millisecondsSince(start)
		return response, nil
	}

	hasNextLevel := depth+1 < len(levels) && (request.MaxDepth == 0 || depth+1 < request.MaxDepth)
	options := BuildOptions{HasNextLevel: hasNextLevel, Locale: locale}
	if request.CountChildren && hasNextLevel {
		options.ChildColumn = levels[depth+1].ColumnName
	}

	response.Nodes = groupRows(filtered, levels[depth], depth, options)
	if request.IncludeRecordCount != nil && !*request.IncludeRecordCount {
		for i := range response.Nodes {
			response.Nodes[i].RecordCount = 0
		}
	}

	response.BuildTime = millisecondsSince(start)
	return response, nil
}

func millisecondsSince(start time.Time) float64 {
	return float64(time.Since(start).Microseconds()) / 1000
}
