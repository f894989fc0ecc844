package contentstore

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
)

// Error is a non-2xx answer from the content store. It marshals to JSON so
// handlers can attach it to error responses as-is.
type Error struct {
	StatusCode  int    `json:"statusCode"`
	Type        string `json:"type"`
	Description string `json:"description"`
}

func (e *Error) Error() string {
	if e.Type != "" {
		return fmt.Sprintf("contentstore: %d %s: %s", e.StatusCode, e.Type, e.Description)
	}
	return fmt.Sprintf("contentstore: %d: %s", e.StatusCode, e.Description)
}

// parseError understands both error shapes the API uses:
// {"error": {"type": ..., "description": ...}} and
// {"error": "Unauthorized", "message": ...}.
func parseError(status int, body []byte) *Error {
	e := &Error{StatusCode: status}

	var envelope struct {
		Error   json.RawMessage `json:"error"`
		Message string          `json:"message"`
	}
	if err := json.Unmarshal(body, &envelope); err == nil && len(envelope.Error) > 0 {
		var detail struct {
			Type        string `json:"type"`
			Description string `json:"description"`
		}
		var name string
		switch {
		case json.Unmarshal(envelope.Error, &detail) == nil:
			e.Type = detail.Type
			e.Description = detail.Description
		case json.Unmarshal(envelope.Error, &name) == nil:
			e.Type = name
			e.Description = envelope.Message
		}
	}

	if e.Description == "" {
		e.Description = strings.TrimSpace(string(body))
	}
	if e.Description == "" {
		e.Description = http.StatusText(status)
	}
	return e
}
