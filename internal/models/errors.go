package models

import "errors"

// Domain errors shared by the store and service layers. Handlers map these
// to HTTP status codes; anything unrecognized becomes a generic 500.
var (
	ErrValidation         = errors.New("invalid request")
	ErrNotFound           = errors.New("not found")
	ErrEmailTaken         = errors.New("user already exists")
	ErrDuplicateReview    = errors.New("product already reviewed by this user")
	ErrForbidden          = errors.New("operation not permitted")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidSignature   = errors.New("invalid payment signature")
)
