package repository

import "errors"

var (
	// ErrEmptySource indicates neither upload bytes nor a location were given
	ErrEmptySource = errors.New("source has neither data nor location")

	// ErrLocalSourceDenied indicates a filesystem path was given where only remote sources are allowed
	ErrLocalSourceDenied = errors.New("local sources are not allowed")
)
