package reconcile

import "errors"

var (
	// ErrLabelCollision is returned when a column group label is already
	// present in the sheet.
	ErrLabelCollision = errors.New("column label collision")

	// ErrMalformedSchema is returned when the existing sheet cannot be
	// written positionally without corrupting other columns.
	ErrMalformedSchema = errors.New("malformed sheet schema")
)
