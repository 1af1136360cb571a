package data

import (
	"database/sql"
	"errors"
	"fmt"
)

// ErrNoRows is wrapped by the error a read step returns when it was told to
// treat an empty result as a failure.
var ErrNoRows = errors.New("no results found")

// DefaultEmptyMessage is the message used by OnEmptyRaiseError without arguments.
const DefaultEmptyMessage = "no results found"

// NoRowsError reports an empty read result. Its message is the one given to
// OnEmptyRaiseError; errors.Is(err, ErrNoRows) holds.
type NoRowsError struct {
	Message string
}

func (e *NoRowsError) Error() string { return e.Message }

func (e *NoRowsError) Unwrap() error { return ErrNoRows }

// ScanFunc reads the current row of rows into an R.
type ScanFunc[R any] func(rows *sql.Rows) (R, error)

// ScanMap reads the current row into a map keyed by column name. Byte
// slices are returned as strings.
func ScanMap(rows *sql.Rows) (map[string]any, error) {
	cols, err := rows.Columns()
	if err != nil {
		return nil, err
	}
	values := make([]any, len(cols))
	ptrs := make([]any, len(cols))
	for i := range values {
		ptrs[i] = &values[i]
	}
	if err := rows.Scan(ptrs...); err != nil {
		return nil, err
	}
	row := make(map[string]any, len(cols))
	for i, c := range cols {
		if b, ok := values[i].([]byte); ok {
			row[c] = string(b)
			continue
		}
		row[c] = values[i]
	}
	return row, nil
}

func scanAll[R any](rows *sql.Rows, scan ScanFunc[R], limit int) ([]R, error) {
	defer rows.Close()
	out := make([]R, 0)
	for rows.Next() {
		r, err := scan(rows)
		if err != nil {
			return nil, fmt.Errorf("scan row %d: %w", len(out), err)
		}
		out = append(out, r)
		if limit > 0 && len(out) == limit {
			break
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// as asserts a pipeline value to the argument type a data step expects.
func as[A any](input any) (A, error) {
	var zero A
	if input == nil {
		return zero, nil
	}
	in, ok := input.(A)
	if !ok {
		return zero, fmt.Errorf("data: expected input %T, got %T", zero, input)
	}
	return in, nil
}
