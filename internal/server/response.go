package server

import (
	"encoding/json"
	"net/http"

	"github.com/koustreak/clientbook/internal/errs"
	"github.com/koustreak/clientbook/internal/logger"
)

// ResponsePayload is the envelope of every JSON response.
type ResponsePayload struct {
	Errors  []string    `json:"errors,omitempty"`
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
}

type idResponse struct {
	ID int64 `json:"id"`
}

func writeResponse(rw http.ResponseWriter, payload ResponsePayload, statusCode int) {
	rw.Header().Set("Content-Type", "application/json")
	rw.WriteHeader(statusCode)
	_ = json.NewEncoder(rw).Encode(payload)
}

func writeData(rw http.ResponseWriter, data interface{}, statusCode int) {
	writeResponse(rw, ResponsePayload{Success: true, Data: data}, statusCode)
}

// writeError maps err to a status and logs server-side failures.
func writeError(rw http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		logger.FromContext(r.Context()).ErrorWith("request failed", err, map[string]interface{}{
			"kind": errs.KindOf(err).String(),
		})
	}
	writeResponse(rw, ResponsePayload{Errors: []string{err.Error()}}, status)
}

func statusFor(err error) int {
	switch errs.KindOf(err) {
	case errs.ErrKindNotFound:
		return http.StatusNotFound
	case errs.ErrKindConflict:
		return http.StatusConflict
	case errs.ErrKindInvalidInput:
		return http.StatusBadRequest
	case errs.ErrKindTimeout:
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}
