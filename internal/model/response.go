package model

type APIResponse struct {
	Success bool      `json:"success"`
	Data    any       `json:"data,omitempty"`
	Error   *APIError `json:"error,omitempty"`
	Meta    *Meta     `json:"_meta,omitempty"`
}

type APIError struct {
	Code       string   `json:"code"`
	Message    string   `json:"message"`
	Details    string   `json:"details,omitempty"`
	Violations []string `json:"violations,omitempty"`
}

// Meta carries response diagnostics attached to every auth response.
type Meta struct {
	ResponseTime string `json:"responseTime"`
}
