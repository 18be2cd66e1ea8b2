package response

import (
	"encoding/json"
	"net/http"
)

// Envelope is the wire format shared by every JSON response this module
// produces: a success flag plus either payload data or a structured error.
type Envelope struct {
	Success bool       `json:"success"`
	Data    any        `json:"data,omitempty"`
	Error   *HTTPError `json:"error,omitempty"`
}

// JSON writes v as an application/json response with the given status.
// Encoding is performed directly to the response writer.
func JSON(w http.ResponseWriter, status int, v any) error {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	if status == 0 {
		status = http.StatusOK
	}
	w.WriteHeader(status)

	// 204 and 304 must not carry a body per HTTP spec.
	switch status {
	case http.StatusNoContent, http.StatusNotModified:
		return nil
	}

	return json.NewEncoder(w).Encode(v)
}

// OK writes a success envelope with the given payload and 200 OK status.
func OK(w http.ResponseWriter, data any) error {
	return JSON(w, http.StatusOK, Envelope{Success: true, Data: data})
}

// Fail writes a failure envelope carrying the structured error. The HTTP
// status comes from the error itself.
func Fail(w http.ResponseWriter, httpErr HTTPError) error {
	return JSON(w, httpErr.StatusCode(), Envelope{Success: false, Error: &httpErr})
}
