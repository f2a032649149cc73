package backend

import (
	"fmt"
	"net/http"

	"github.com/pkg/errors"
)

// ErrNoPaidAppointment is returned when a chat is requested without a paid appointment
var ErrNoPaidAppointment = errors.New("no paid appointment")

// APIError is a non-2xx answer of the backend
type APIError struct {
	StatusCode int
	Code       string
	Message    string
}

func (e *APIError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("backend %d %s: %s", e.StatusCode, e.Code, e.Message)
	}
	return fmt.Sprintf("backend %d: %s", e.StatusCode, e.Message)
}

// Is lets errors.Is match the structured "no paid appointment" condition
func (e *APIError) Is(target error) bool {
	if target != ErrNoPaidAppointment {
		return false
	}
	return e.Code == "NO_PAID_APPOINTMENT" || e.StatusCode == http.StatusPaymentRequired
}

// IsUnauthorized reports whether err is a 401 or 403 answer
func IsUnauthorized(err error) bool {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode == http.StatusUnauthorized || apiErr.StatusCode == http.StatusForbidden
	}
	return false
}

// IsNotFound reports whether err is a 404 answer
func IsNotFound(err error) bool {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode == http.StatusNotFound
	}
	return false
}
