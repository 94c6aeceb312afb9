package dashboard

import (
	"github.com/Unaro/excel-analytics-sub001/dataset"
	"github.com/Unaro/excel-analytics-sub001/hierarchy"
)

// HierarchyRequest asks for one level of the drill-down tree over the given rows.
type HierarchyRequest struct {
	Data      []dataset.Row     `json:"data" validate:"max=100000"`
	Hierarchy hierarchy.Request `json:"hierarchy"`
}

func ValidateHierarchyRequest(request HierarchyRequest) error {
	return validateStruct(request)
}

// BuildHierarchy builds the nodes under the request's parent filters, sorted in the computer's
// display locale. A path that does not follow the level order fails with
// hierarchy.ErrInvalidFilterPath.
func (computer Computer) BuildHierarchy(request HierarchyRequest) (hierarchy.Response, error) {
	if err := ValidateHierarchyRequest(request); err != nil {
		return hierarchy.Response{}, err
	}

	return hierarchy.Build(request.Data, request.Hierarchy, computer.formatter.locale)
}
