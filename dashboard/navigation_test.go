package dashboard_test

import (
	"testing"

	"github.com/Unaro/excel-analytics-sub001/dashboard"
	"github.com/Unaro/excel-analytics-sub001/hierarchy"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var navigationLevels = []hierarchy.Level{
	{ID: "l-region", ColumnName: "region", Order: 0},
	{ID: "l-v", ColumnName: "v", Order: 1},
}

func TestBuildHierarchy(t *testing.T) {
	computer := newComputer(t)

	response, err := computer.BuildHierarchy(dashboard.HierarchyRequest{
		Data:      rows(),
		Hierarchy: hierarchy.Request{Levels: navigationLevels},
	})
	require.NoError(t, err)

	assert.Equal(t, 3, response.TotalRecords)
	require.Len(t, response.Nodes, 2)
	assert.Equal(t, "North", response.Nodes[0].Value)
	assert.Equal(t, 2, response.Nodes[0].RecordCount)
	assert.Equal(t, "South", response.Nodes[1].Value)
}

func TestBuildHierarchyRejectsInvalidRequests(t *testing.T) {
	computer := newComputer(t)

	_, err := computer.BuildHierarchy(dashboard.HierarchyRequest{
		Data: rows(),
		Hierarchy: hierarchy.Request{
			Levels: []hierarchy.Level{{ID: "l-region", Order: 0}},
		},
	})
	var validationErr *dashboard.ValidationError
	require.ErrorAs(t, err, &validationErr)
	assert.Equal(t, "hierarchy.levels[0].columnName", validationErr.Fields[0].Path)

	_, err = computer.BuildHierarchy(dashboard.HierarchyRequest{
		Data: rows(),
		Hierarchy: hierarchy.Request{
			Levels: navigationLevels,
			ParentFilters: []hierarchy.FilterValue{
				{LevelID: "l-v", LevelIndex: 1, ColumnName: "v", Value: "40"},
			},
		},
	})
	assert.ErrorIs(t, err, hierarchy.ErrInvalidFilterPath)
}
