package pagination

import (
	"errors"
	"fmt"
)

var (
	ErrCountMismatch = errors.New("page count does not match results")
	ErrNoEndpoint    = errors.New("endpoint is required")
	ErrNoTotal       = errors.New("page has no total")
)

// CountMismatchError 页面 count 字段与实际结果数不一致
type CountMismatchError struct {
	Page    int
	Cursor  string
	Count   int
	Results int
}

func (e *CountMismatchError) Error() string {
	return fmt.Sprintf("page %d after cursor %q: count %d but %d results", e.Page, e.Cursor, e.Count, e.Results)
}

func (e *CountMismatchError) Unwrap() error { return ErrCountMismatch }
