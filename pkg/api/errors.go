package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
)

// ErrUnauthorized is returned for any 401 on an authenticated call. The
// client's unauthorized handler has already run when callers see it.
var ErrUnauthorized = errors.New("api: unauthorized")

// Error is a non-2xx response that is not a 401.
type Error struct {
	Status    int
	Detail    string // server-provided message, empty if none was readable
	RequestID string
}

func (e *Error) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("api: %d %s: %s", e.Status, http.StatusText(e.Status), e.Detail)
	}
	return fmt.Sprintf("api: %d %s", e.Status, http.StatusText(e.Status))
}

// DetailOr returns the server detail when err is an *Error carrying one,
// otherwise fallback.
func DetailOr(err error, fallback string) string {
	var apiErr *Error
	if errors.As(err, &apiErr) && apiErr.Detail != "" {
		return apiErr.Detail
	}
	return fallback
}

// ParseDetail extracts a string "detail" field from an error body. Bodies
// where detail is a validation list or missing yield "".
func ParseDetail(body []byte) string {
	var payload struct {
		Detail json.RawMessage `json:"detail"`
	}
	if err := json.Unmarshal(body, &payload); err != nil || len(payload.Detail) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(payload.Detail, &s); err != nil {
		return ""
	}
	return s
}
