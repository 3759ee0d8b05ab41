package service

import (
	"regexp"
	"strings"

	"github.com/ssi-studios/auth-service/internal/model"
)

var (
	usernamePattern = regexp.MustCompile(`^[a-zA-Z0-9_]+$`)
	emailPattern    = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
)

// validateSignup collects every violation instead of failing on the first,
// so the caller can fix all issues in one round trip.
func validateSignup(req model.SignupRequest) []string {
	violations := make([]string, 0)

	username := strings.TrimSpace(req.Username)
	switch {
	case username == "":
		violations = append(violations, "username is required")
	case len(username) < 3:
		violations = append(violations, "username must be at least 3 characters")
	case len(username) > 30:
		violations = append(violations, "username must be at most 30 characters")
	case !usernamePattern.MatchString(username):
		violations = append(violations, "username may only contain letters, digits and underscores")
	}

	email := strings.TrimSpace(req.Email)
	switch {
	case email == "":
		violations = append(violations, "email is required")
	case !emailPattern.MatchString(email):
		violations = append(violations, "email is not a valid address")
	}

	switch {
	case req.Password == "":
		violations = append(violations, "password is required")
	case len(req.Password) < 8:
		violations = append(violations, "password must be at least 8 characters")
	case len(req.Password) > 128:
		violations = append(violations, "password must be at most 128 characters")
	}

	return violations
}

func validateLogin(identifier string, password string, hint string) []string {
	violations := make([]string, 0)
	if identifier == "" {
		violations = append(violations, "identifier is required")
	}
	if password == "" {
		violations = append(violations, "password is required")
	}
	switch hint {
	case "", string(model.ClassStandard), string(model.ClassElevated):
	default:
		violations = append(violations, `class_hint must be "standard" or "elevated"`)
	}
	return violations
}
