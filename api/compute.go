package api

import (
	"errors"
	"net/http"
	"slices"
	"time"

	"github.com/Unaro/excel-analytics-sub001/dashboard"
	"github.com/Unaro/excel-analytics-sub001/db"
	"github.com/Unaro/excel-analytics-sub001/formula"
	"github.com/Unaro/excel-analytics-sub001/hierarchy"
	"github.com/mitchellh/hashstructure/v2"
	"hermannm.dev/devlog/log"
)

type DashboardRequest struct {
	dashboard.Request
	// Name of a stored table to compute over, in place of inline data.
	Table string `json:"table,omitempty"`
}

// Expects:
//   - body: JSON-encoded api.DashboardRequest
//
// Returns:
//   - JSON-encoded dashboard.Response
func (api AnalyticsAPI) ComputeDashboard(res http.ResponseWriter, req *http.Request) {
	start := time.Now()

	var request DashboardRequest
	if err := decodeJSONBody(req, &request); err != nil {
		sendClientError(res, err, "failed to parse dashboard request from request body")
		return
	}

	rows, err := api.resolveRows(req.Context(), request.Table, request.Data)
	if err != nil {
		sendRowsError(res, err)
		return
	}
	request.Data = rows

	response, err := api.computer.Compute(req.Context(), request.Request)
	if err != nil {
		sendComputationError(res, err, "failed to compute dashboard")
		return
	}

	observeDuration(computationDashboard, start)
	countDashboardFailures(response)
	sendJSON(res, response)
}

type GroupRequest struct {
	dashboard.GroupRequest
	// Name of a stored table to compute over, in place of inline data.
	Table string `json:"table,omitempty"`
}

// Expects:
//   - body: JSON-encoded api.GroupRequest
//
// Returns:
//   - JSON-encoded dashboard.GroupResponse
func (api AnalyticsAPI) ComputeGroup(res http.ResponseWriter, req *http.Request) {
	start := time.Now()

	var request GroupRequest
	if err := decodeJSONBody(req, &request); err != nil {
		sendClientError(res, err, "failed to parse group request from request body")
		return
	}

	rows, err := api.resolveRows(req.Context(), request.Table, request.Data)
	if err != nil {
		sendRowsError(res, err)
		return
	}
	request.Data = rows

	response, err := api.computer.ComputeGroup(req.Context(), request.GroupRequest)
	if err != nil {
		sendComputationError(res, err, "failed to compute group")
		return
	}

	observeDuration(computationGroup, start)
	countGroupFailures(response)
	sendJSON(res, response)
}

type HierarchyRequest struct {
	dashboard.HierarchyRequest
	// Name of a stored table to build nodes from, in place of inline data. Responses for stored
	// tables are cached until the table is replaced.
	Table string `json:"table,omitempty"`
}

type hierarchyCacheKey struct {
	Table   string
	Request hierarchy.Request
}

// Expects:
//   - body: JSON-encoded api.HierarchyRequest
//
// Returns:
//   - JSON-encoded hierarchy.Response
func (api AnalyticsAPI) BuildHierarchy(res http.ResponseWriter, req *http.Request) {
	start := time.Now()

	var request HierarchyRequest
	if err := decodeJSONBody(req, &request); err != nil {
		sendClientError(res, err, "failed to parse hierarchy request from request body")
		return
	}

	var cacheKey uint64
	cacheable := false
	if request.Table != "" {
		key, err := hashstructure.Hash(
			hierarchyCacheKey{Table: request.Table, Request: request.Hierarchy},
			hashstructure.FormatV2,
			nil,
		)
		if err != nil {
			log.ErrorCause(err, "failed to hash hierarchy request, skipping cache")
		} else {
			cacheKey, cacheable = key, true
			if cached, ok := api.hierarchies.Get(cacheKey); ok {
				sendJSON(res, cached)
				return
			}
		}
	}

	rows, err := api.resolveRows(req.Context(), request.Table, request.Data)
	if err != nil {
		sendRowsError(res, err)
		return
	}
	request.Data = rows

	response, err := api.computer.BuildHierarchy(request.HierarchyRequest)
	if err != nil {
		if errors.Is(err, hierarchy.ErrInvalidFilterPath) {
			sendClientError(res, err, "")
			return
		}
		sendComputationError(res, err, "failed to build hierarchy nodes")
		return
	}

	if cacheable {
		api.hierarchies.Add(cacheKey, response)
	}

	observeDuration(computationHierarchy, start)
	sendJSON(res, response)
}

type FormulaValidationRequest struct {
	Formula string `json:"formula"`
}

type FormulaValidationResponse struct {
	Valid bool   `json:"valid"`
	Error string `json:"error,omitempty"`
	// Sorted. Only present for valid formulas.
	Variables []string `json:"variables"`
	// Functions formulas may call, sorted.
	Functions []string `json:"functions"`
}

// Expects:
//   - body: JSON-encoded api.FormulaValidationRequest
//
// Returns:
//   - JSON-encoded api.FormulaValidationResponse
func (api AnalyticsAPI) ValidateFormula(res http.ResponseWriter, req *http.Request) {
	var request FormulaValidationRequest
	if err := decodeJSONBody(req, &request); err != nil {
		sendClientError(res, err, "failed to parse formula from request body")
		return
	}

	response := FormulaValidationResponse{
		Valid:     true,
		Variables: []string{},
		Functions: formula.FunctionNames(),
	}

	if err := formula.Validate(request.Formula); err != nil {
		response.Valid = false
		response.Error = err.Error()
		sendJSON(res, response)
		return
	}

	variables, err := formula.ExtractVariables(request.Formula)
	if err != nil {
		sendServerError(res, err, "failed to extract variables from valid formula")
		return
	}
	response.Variables = variables.Slice()
	slices.Sort(response.Variables)

	sendJSON(res, response)
}

func sendRowsError(res http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, db.ErrTableNotFound):
		sendError(res, http.StatusNotFound, err, "")
	case errors.Is(err, errNoDatabase):
		sendClientError(res, err, "")
	default:
		sendServerError(res, err, "failed to load dataset rows")
	}
}
