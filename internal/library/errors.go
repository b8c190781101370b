package library

import "errors"

var (
	// ErrUnauthorized indicates the operation requires a signed-in caller.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrForbidden indicates the caller is signed in but does not own the resource.
	ErrForbidden = errors.New("forbidden")
	// ErrNotFound indicates the referenced video or user does not exist.
	ErrNotFound = errors.New("not found")
	// ErrInvalidInput indicates missing or malformed request fields.
	ErrInvalidInput = errors.New("invalid input")
	// ErrUpstream indicates the media host or the record store could not be reached.
	ErrUpstream = errors.New("upstream failure")
)
