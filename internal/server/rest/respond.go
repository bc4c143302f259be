package rest

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/dmitrijs2005/onboardkit/internal/common"
	"github.com/dmitrijs2005/onboardkit/internal/logging"
)

type errorResponse struct {
	Message string `json:"message"`
	Error   string `json:"error,omitempty"`
}

type messageResponse struct {
	Message string `json:"message"`
}

// StatusOf maps an error kind to its HTTP status.
func StatusOf(err error) int {
	switch common.KindOf(err) {
	case common.ErrorValidation:
		return http.StatusBadRequest
	case common.ErrorUnauthorized:
		return http.StatusUnauthorized
	case common.ErrorForbidden:
		return http.StatusForbidden
	case common.ErrorNotFound:
		return http.StatusNotFound
	case common.ErrorAlreadyExists, common.ErrVersionConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// responder writes error bodies. Internal detail is only attached in
// development mode.
type responder struct {
	logger  logging.Logger
	devMode bool
}

func (rs responder) error(w http.ResponseWriter, r *http.Request, err error) {
	status := StatusOf(err)
	body := errorResponse{Message: common.MessageOf(err)}

	if status >= http.StatusInternalServerError {
		rs.logger.Error(r.Context(), "request failed", "path", r.URL.Path, "status", status, "error", err,
			"request_id", RequestIDFromContext(r.Context()))
	}

	if rs.devMode {
		var ce *common.Error
		if errors.As(err, &ce) {
			if ce.Err != nil {
				body.Error = ce.Err.Error()
			}
		} else {
			body.Error = err.Error()
		}
	}

	writeJSON(w, status, body)
}

// decodeJSON reads a JSON body into dst. An empty body leaves dst untouched.
func decodeJSON(r *http.Request, dst any) error {
	if r.Body == nil {
		return nil
	}
	err := json.NewDecoder(r.Body).Decode(dst)
	if err == nil || errors.Is(err, io.EOF) {
		return nil
	}
	return common.Validation("Invalid request body")
}
