// Package common holds error values shared by the server layers.
package common

import "errors"

var (

	// repository specific errors
	ErrorNotFound = errors.New("not found")
	ErrorConflict = errors.New("already exists")

	// service specific errors
	ErrorInternal     = errors.New("internal error")
	ErrorUnauthorized = errors.New("unauthorized")
	ErrorValidation   = errors.New("validation error")
	ErrorBadRequest   = errors.New("bad request")

	// token specific errors
	ErrInvalidToken = errors.New("invalid token")
	ErrTokenExpired = errors.New("token expired")
)
