package apierror

import (
	"fmt"
	"strings"
)

type APIError struct {
	Code       string   `json:"code"`
	Message    string   `json:"message"`
	Details    string   `json:"details,omitempty"`
	Violations []string `json:"violations,omitempty"`
	HTTPStatus int      `json:"-"`
}

func (e *APIError) Error() string {
	if e == nil {
		return ""
	}

	if len(e.Violations) > 0 {
		return fmt.Sprintf("%s: %s (%s)", e.Code, e.Message, strings.Join(e.Violations, "; "))
	}

	if e.Details != "" {
		return fmt.Sprintf("%s: %s (%s)", e.Code, e.Message, e.Details)
	}

	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func New(code string, message string, details string, status int) *APIError {
	return &APIError{Code: code, Message: message, Details: details, HTTPStatus: status}
}

// NewValidation builds a 400 carrying every collected field violation, so
// the caller can fix all issues in one round trip.
func NewValidation(violations []string) *APIError {
	return &APIError{
		Code:       "VALIDATION_ERROR",
		Message:    "invalid request payload",
		Violations: violations,
		HTTPStatus: 400,
	}
}
