package common

import (
	"encoding/json"
	"net/http"

	chiMiddleware "github.com/go-chi/chi/v5/middleware"
)

type ErrorResponse struct {
	Error string `json:"error"`
}

// Envelope wraps every successful payload. TraceID echoes the request id so a
// client report can be matched against server logs.
type Envelope struct {
	Data    interface{} `json:"data"`
	TraceID string      `json:"traceId,omitempty"`
}

func RespondWithError(w http.ResponseWriter, code int, message string) {
	RespondWithJSON(w, code, ErrorResponse{Error: message})
}

// RespondWithDomainError picks the status from the error taxonomy.
func RespondWithDomainError(w http.ResponseWriter, err error) {
	RespondWithError(w, HTTPStatusFromError(err), PublicMessage(err))
}

func RespondWithData(w http.ResponseWriter, r *http.Request, code int, payload interface{}) {
	RespondWithJSON(w, code, Envelope{Data: payload, TraceID: chiMiddleware.GetReqID(r.Context())})
}

func RespondWithJSON(w http.ResponseWriter, code int, payload interface{}) {
	response, err := json.Marshal(payload)
	if err != nil {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"error": "Failed to marshal JSON response"}`))
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	w.Write(response)
}
