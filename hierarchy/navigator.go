package hierarchy

import (
	"errors"
	"slices"

	"github.com/Unaro/excel-analytics-sub001/dataset"
)

var ErrDeepestLevel = errors.New("already at the deepest hierarchy level")

// Navigator owns the drill-down state over a set of levels: the current path of selected values.
// The path is kept consistent with the levels, and is reset to the root whenever it is not.
// A Navigator is not safe for concurrent use.
type Navigator struct {
	levels []Level
	path   []FilterValue
}

func NewNavigator(levels []Level) *Navigator {
	return &Navigator{levels: SortLevels(levels)}
}

func (navigator *Navigator) Levels() []Level {
	return slices.Clone(navigator.levels)
}

func (navigator *Navigator) Path() []FilterValue {
	return slices.Clone(navigator.path)
}

func (navigator *Navigator) Depth() int {
	return len(navigator.path)
}

// CurrentLevel returns the level whose values are listed at the current depth, or false if the
// path already selects a value on every level.
func (navigator *Navigator) CurrentLevel() (Level, bool) {
	if len(navigator.path) >= len(navigator.levels) {
		return Level{}, false
	}
	return navigator.levels[len(navigator.path)], true
}

// ActiveFilter returns the deepest filter on the path, if any.
func (navigator *Navigator) ActiveFilter() (FilterValue, bool) {
	if len(navigator.path) == 0 {
		return FilterValue{}, false
	}
	return navigator.path[len(navigator.path)-1], true
}

// Drill selects a value on the current level, descending one level.
func (navigator *Navigator) Drill(value any, displayValue string) error {
	level, ok := navigator.CurrentLevel()
	if !ok {
		return ErrDeepestLevel
	}

	if displayValue == "" {
		displayValue = dataset.Normalize(value)
	}

	navigator.path = append(navigator.path, FilterValue{
		LevelID:      level.ID,
		LevelIndex:   len(navigator.path),
		ColumnName:   level.ColumnName,
		Value:        value,
		DisplayValue: displayValue,
	})
	return nil
}

// Up removes the deepest filter. Does nothing at the root.
func (navigator *Navigator) Up() {
	if len(navigator.path) > 0 {
		navigator.path = navigator.path[:len(navigator.path)-1]
	}
}

// UpTo truncates the path to the given depth, as when selecting a breadcrumb.
func (navigator *Navigator) UpTo(depth int) {
	if depth >= 0 && depth < len(navigator.path) {
		navigator.path = navigator.path[:depth]
	}
}

func (navigator *Navigator) Reset() {
	navigator.path = nil
}

// SetPath replaces the path. An invalid path resets the navigator to the root instead, in which
// case SetPath returns false.
func (navigator *Navigator) SetPath(path []FilterValue) (valid bool) {
	if err := ValidatePath(navigator.levels, path); err != nil {
		navigator.Reset()
		return false
	}
	navigator.path = slices.Clone(path)
	return true
}

// SetLevels replaces the levels, keeping the path if it is still valid for them and resetting it
// otherwise. Returns false if the path was reset.
func (navigator *Navigator) SetLevels(levels []Level) (pathKept bool) {
	navigator.levels = SortLevels(levels)
	return navigator.SetPath(navigator.path)
}

// Filter returns the rows under the current path.
func (navigator *Navigator) Filter(rows []dataset.Row) []dataset.Row {
	return FilterRows(rows, navigator.path)
}
