package auth

import "errors"

var (
	// ErrInvalidCredentials covers both unknown accounts and wrong passwords.
	// Callers must not be able to tell the two apart.
	ErrInvalidCredentials = errors.New("auth: invalid credentials")

	// ErrInvalidToken covers every session token failure mode: bad signature,
	// malformed structure, unknown algorithm and expiry.
	ErrInvalidToken = errors.New("auth: invalid token")

	ErrUnauthorized = errors.New("auth: unauthorized")
	ErrNotFound     = errors.New("auth: not found")
	ErrInvalidInput = errors.New("auth: invalid input")
)
