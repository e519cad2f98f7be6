package codegen

import "fmt"

// SchemaError is a fatal assertion failure against the input document.
// ID names the failing schema or method so the caller can surface it.
type SchemaError struct {
	ID     string
	Reason string
}

func (e *SchemaError) Error() string {
	if e.ID == "" {
		return fmt.Sprintf("schema error: %s", e.Reason)
	}
	return fmt.Sprintf("schema error in %q: %s", e.ID, e.Reason)
}

func schemaErrorf(id, format string, args ...any) *SchemaError {
	return &SchemaError{ID: id, Reason: fmt.Sprintf(format, args...)}
}
