package store

import "errors"

var (
	// ErrUnavailable is returned when the backing store cannot be opened,
	// read or written.
	ErrUnavailable = errors.New("store unavailable")

	// ErrSheetNotFound is returned by Open for a sheet that does not exist.
	ErrSheetNotFound = errors.New("sheet not found")

	// ErrInvalidSheetName is returned for empty names or names the backend
	// cannot represent.
	ErrInvalidSheetName = errors.New("invalid sheet name")

	// ErrTxDone is returned when a finished transaction is used.
	ErrTxDone = errors.New("transaction already committed or rolled back")

	// ErrOutOfRange is returned when a cell address lies outside the table.
	ErrOutOfRange = errors.New("cell out of range")
)
