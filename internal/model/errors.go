package model

import "errors"

var (
	// Account related errors
	ErrAccountNotFound    = errors.New("account not found")
	ErrAccountExists      = errors.New("account already exists")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrAccountLocked      = errors.New("account temporarily locked")

	// Token related errors
	ErrInvalidToken = errors.New("invalid token")
	ErrStaleToken   = errors.New("stale refresh token")

	// Session related errors
	ErrSessionNotFound = errors.New("session not found")

	// Generic errors
	ErrUnauthorized = errors.New("unauthorized")
	ErrInvalidInput = errors.New("invalid input")
)
