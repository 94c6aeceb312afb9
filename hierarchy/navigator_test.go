package hierarchy_test

import (
	"testing"

	"github.com/Unaro/excel-analytics-sub001/hierarchy"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNavigatorDrillAndUp(t *testing.T) {
	navigator := hierarchy.NewNavigator(levels)

	level, ok := navigator.CurrentLevel()
	require.True(t, ok)
	assert.Equal(t, "region", level.ColumnName)

	require.NoError(t, navigator.Drill("North", ""))
	require.NoError(t, navigator.Drill("Oslo", "Oslo (capital)"))
	assert.Equal(t, 2, navigator.Depth())
	assert.Len(t, navigator.Filter(testRows()), 2)

	active, ok := navigator.ActiveFilter()
	require.True(t, ok)
	assert.Equal(t, hierarchy.FilterValue{
		LevelID:      "l-city",
		LevelIndex:   1,
		ColumnName:   "city",
		Value:        "Oslo",
		DisplayValue: "Oslo (capital)",
	}, active)

	require.NoError(t, navigator.Drill("10", ""))
	assert.ErrorIs(t, navigator.Drill("x", ""), hierarchy.ErrDeepestLevel)

	navigator.Up()
	assert.Equal(t, 2, navigator.Depth())

	navigator.UpTo(0)
	assert.Equal(t, 0, navigator.Depth())
	_, ok = navigator.ActiveFilter()
	assert.False(t, ok)

	navigator.Up()
	assert.Equal(t, 0, navigator.Depth())
}

func TestNavigatorResetsOnInvalidPath(t *testing.T) {
	navigator := hierarchy.NewNavigator(levels)
	require.NoError(t, navigator.Drill("North", ""))

	valid := navigator.SetPath([]hierarchy.FilterValue{
		{LevelIndex: 0, ColumnName: "city", Value: "Oslo"},
	})
	assert.False(t, valid)
	assert.Empty(t, navigator.Path())
}

func TestNavigatorSetLevels(t *testing.T) {
	navigator := hierarchy.NewNavigator(levels)
	require.NoError(t, navigator.Drill("North", ""))

	assert.True(t, navigator.SetLevels([]hierarchy.Level{regionLevel, cityLevel}))
	assert.Equal(t, 1, navigator.Depth())

	assert.False(t, navigator.SetLevels([]hierarchy.Level{
		{ID: "l-city", ColumnName: "city", Order: 0},
	}))
	assert.Equal(t, 0, navigator.Depth())
}
