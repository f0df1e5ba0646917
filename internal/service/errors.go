package service

import "errors"

// Domain failures; controllers map these onto HTTP statuses. Anything else
// bubbling out of a service is a store failure.
var (
	ErrInvalidArgument = errors.New("invalid argument")
	ErrNotFound        = errors.New("not found")
	ErrUnauthorized    = errors.New("unauthorized")
)
