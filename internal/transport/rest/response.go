package rest

import (
	"encoding/json"
	"log/slog"
	"net/http"
)

// envelope is the body of every JSON response. error_code mirrors the HTTP
// status on failures and is 0 on success.
type envelope struct {
	ErrorCode int    `json:"error_code"`
	Status    string `json:"status"`
	Message   string `json:"message"`
	Data      any    `json:"data"`
}

func respond(w http.ResponseWriter, httpStatus int, message string, data any) {
	body := envelope{Status: "success", Message: message, Data: data}
	if httpStatus >= http.StatusBadRequest {
		body.Status = "error"
		body.ErrorCode = httpStatus
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(httpStatus)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		slog.Error("write response failed", "status", httpStatus, "error", err)
	}
}

func success(w http.ResponseWriter, data any) {
	respond(w, http.StatusOK, "", data)
}

func fail(w http.ResponseWriter, httpStatus int, message string) {
	respond(w, httpStatus, message, nil)
}

// failValidation names the offending request field in data.
func failValidation(w http.ResponseWriter, err *ValidationError) {
	respond(w, http.StatusBadRequest, err.Message, map[string]string{"field": err.Field})
}
