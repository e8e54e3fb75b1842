package eventstore

import (
	"errors"
	"fmt"
	"io/fs"
)

// ErrTableNotFound indicates a required table file is absent from the data directory.
var ErrTableNotFound = fmt.Errorf("table not found: %w", fs.ErrNotExist)

// SchemaError indicates a required column is missing from a table header.
type SchemaError struct {
	Table  string
	Column string
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("%s: missing required column %q", e.Table, e.Column)
}

// RowError indicates a value in a data row could not be parsed.
type RowError struct {
	Table  string
	Row    int
	Column string
	Err    error
}

func (e *RowError) Error() string {
	if e.Column != "" {
		return fmt.Sprintf("%s row %d: column %s: %v", e.Table, e.Row, e.Column, e.Err)
	}
	return fmt.Sprintf("%s row %d: %v", e.Table, e.Row, e.Err)
}

func (e *RowError) Unwrap() error { return e.Err }

// IsSchemaError reports whether err carries a *SchemaError.
func IsSchemaError(err error) bool {
	var se *SchemaError
	return errors.As(err, &se)
}
