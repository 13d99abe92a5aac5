package util

import "errors"

// Sentinel errors for common failure modes
var (
	// ErrUnclassifiable indicates the classifier returned no usable result
	ErrUnclassifiable = errors.New("unclassifiable")

	// ErrNoExtension indicates a primary file has no file extension
	ErrNoExtension = errors.New("no file extension")

	// ErrConflict indicates a destination link conflict
	ErrConflict = errors.New("destination conflict")

	// ErrNotFound indicates a required resource was not found
	ErrNotFound = errors.New("not found")

	// ErrInvalidConfig indicates invalid configuration
	ErrInvalidConfig = errors.New("invalid configuration")

	// ErrPermission indicates a permission error
	ErrPermission = errors.New("permission denied")
)
