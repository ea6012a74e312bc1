package server

import (
	"encoding/json"
	"net/http"

	"github.com/inkwell-web/inkwell/internal/apiserver/service"
)

// errorBody is the standard error response format.
type errorBody struct {
	Success    bool     `json:"success"`
	StatusCode int      `json:"statusCode"`
	Errors     []string `json:"errors"`
}

// writeJSONError writes a consistent JSON error response.
func writeJSONError(w http.ResponseWriter, status int, messages ...string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(errorBody{StatusCode: status, Errors: messages})
}

// writeResult renders a service result: the payload on success, the error
// body on failure. Handlers forward the service's status code verbatim.
func writeResult[T any](w http.ResponseWriter, res service.Result[T]) {
	if !res.Success {
		writeJSONError(w, res.StatusCode, res.Errors...)
		return
	}
	if res.StatusCode == http.StatusNoContent {
		w.WriteHeader(http.StatusNoContent)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(res.StatusCode)
	_ = json.NewEncoder(w).Encode(res.Data)
}

// decodeJSON reads a JSON request body into dst with a size cap.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid request body")
		return false
	}
	return true
}
