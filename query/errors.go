package query

import "fmt"

// InvalidQueryError reports a schema or structure violation found while
// planning a query. Path pinpoints where in the query tree the
// violation occurred, e.g. "filter.clauses[1].field".
type InvalidQueryError struct {
	Path   string
	Reason string
}

func (e *InvalidQueryError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("invalid query: %s", e.Reason)
	}
	return fmt.Sprintf("invalid query at %s: %s", e.Path, e.Reason)
}

func invalid(path, format string, args ...any) error {
	return &InvalidQueryError{Path: path, Reason: fmt.Sprintf(format, args...)}
}
