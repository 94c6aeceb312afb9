package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/Unaro/excel-analytics-sub001/dashboard"
	"hermannm.dev/devlog/log"
	"hermannm.dev/wrap"
)

type errorResponse struct {
	Error  string                 `json:"error"`
	Fields []dashboard.FieldError `json:"fields,omitempty"`
}

func sendClientError(res http.ResponseWriter, err error, message string) {
	sendError(res, http.StatusBadRequest, err, message)
}

func sendServerError(res http.ResponseWriter, err error, message string) {
	if err == nil {
		log.ErrorMessage(message)
	} else {
		log.ErrorCause(err, message)
	}
	sendError(res, http.StatusInternalServerError, err, message)
}

// Sends a 400 response listing every invalid field if err is a dashboard.ValidationError, and
// falls back to sendServerError otherwise.
func sendComputationError(res http.ResponseWriter, err error, message string) {
	var validationErr *dashboard.ValidationError
	if errors.As(err, &validationErr) {
		log.Debug("rejected invalid request", slog.String("error", validationErr.Error()))
		sendErrorResponse(res, http.StatusBadRequest, errorResponse{
			Error:  validationErr.Error(),
			Fields: validationErr.Fields,
		})
		return
	}

	sendServerError(res, err, message)
}

func sendError(res http.ResponseWriter, statusCode int, err error, message string) {
	if err != nil {
		if message == "" {
			message = err.Error()
		} else {
			message = wrap.Error(err, message).Error()
		}
	}

	sendErrorResponse(res, statusCode, errorResponse{Error: message})
}

func sendErrorResponse(res http.ResponseWriter, statusCode int, body errorResponse) {
	res.Header().Set("Content-Type", "application/json")
	res.WriteHeader(statusCode)

	if err := json.NewEncoder(res).Encode(body); err != nil {
		log.ErrorCause(err, "failed to serialize error response")
	}
}

func sendJSON(res http.ResponseWriter, value any) {
	sendJSONWithStatus(res, http.StatusOK, value)
}

func sendJSONWithStatus(res http.ResponseWriter, statusCode int, value any) {
	body, err := json.Marshal(value)
	if err != nil {
		sendServerError(res, err, "failed to serialize response")
		return
	}

	res.Header().Set("Content-Type", "application/json")
	res.WriteHeader(statusCode)
	if _, err := res.Write(body); err != nil {
		log.ErrorCause(err, "failed to write response")
	}
}

func decodeJSONBody(req *http.Request, target any) error {
	decoder := json.NewDecoder(req.Body)
	decoder.UseNumber()
	return decoder.Decode(target)
}
