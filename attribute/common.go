package attribute

import (
	"errors"
)

var (
	// ErrTypeMismatch is returned when a value handed to a decorator does not implement Controller.
	ErrTypeMismatch = errors.New("value does not implement attribute.Controller")

	// ErrNotFound is returned when no attribute matches the requested ID or code.
	ErrNotFound = errors.New("attribute not found")

	// ErrInvalidQuery is returned by terminal operations when the accumulated criteria are malformed.
	ErrInvalidQuery = errors.New("invalid attribute query")

	// ErrUnknownOperation is returned by an Extender for extension names it does not know.
	ErrUnknownOperation = errors.New("unknown operation")

	// ErrInvalidExtension is returned when an extension is registered without a name or a function.
	ErrInvalidExtension = errors.New("extension needs a name and a function")

	ErrNilDatabaseConnection    = errors.New("database connection must not be nil")
	ErrEmptyTableName           = errors.New("empty table name supplied")
	ErrBuildingQueryFailed      = errors.New("building query failed")
	ErrQueryingAttributesFailed = errors.New("querying attributes failed")
	ErrScanningDBRowFailed      = errors.New("scanning db row failed")
)

// TotalCountUint is the number of attributes matching a search, ignoring the slice bounds.
type TotalCountUint = uint
