package api

import (
	"encoding/json/v2"
	"net/http"
)

// requestError is a request-level failure rendered in the GraphQL
// response envelope so clients can handle it with their normal error
// path.
type requestError struct {
	Errors []requestErrorEntry `json:"errors"`
}

type requestErrorEntry struct {
	Message    string         `json:"message"`
	Extensions map[string]any `json:"extensions,omitempty"`
}

// writeRequestError writes a GraphQL-shaped error response with the
// given HTTP status.
func (s *Server) writeRequestError(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	body := requestError{
		Errors: []requestErrorEntry{{
			Message:    message,
			Extensions: map[string]any{"code": code},
		}},
	}
	if err := json.MarshalWrite(w, body); err != nil {
		s.logger.Error("failed to write error response", "error", err)
	}
}
