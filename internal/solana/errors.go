package solana

import (
	"fmt"
	"net/http"
)

// StatusError is returned when the provider answers with a non-2xx HTTP status.
type StatusError struct {
	Code int
	Body string
}

func newStatusError(code int, body []byte) *StatusError {
	return &StatusError{Code: code, Body: truncate(body, 256)}
}

// StatusText returns the canonical reason phrase for the status code.
func (e *StatusError) StatusText() string {
	if text := http.StatusText(e.Code); text != "" {
		return text
	}
	return fmt.Sprintf("status %d", e.Code)
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status %d: %s", e.Code, e.Body)
}

// retryableStatus reports whether a status may succeed on a later attempt.
func retryableStatus(code int) bool {
	return code == http.StatusTooManyRequests || code >= http.StatusInternalServerError
}
