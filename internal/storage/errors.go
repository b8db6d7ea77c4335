package storage

import "errors"

// Storage errors.
var (
	// ErrUnsupportedDriver is returned for drivers other than sqlite,
	// postgres and mysql.
	ErrUnsupportedDriver = errors.New("unsupported storage driver")

	// ErrClosed is returned by operations on a closed store or persister.
	ErrClosed = errors.New("storage is closed")

	// ErrBadValue indicates a stored value that is not a layer id.
	ErrBadValue = errors.New("stored value is not a layer id")
)
