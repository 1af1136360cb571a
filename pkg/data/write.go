package data

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/petrijr/stepflow/pkg/api"
)

// Table describes how records of type R map onto a SQL table.
type Table[R any] struct {
	Name string
	// Key is the primary key column. It must appear in Columns.
	Key string
	// Columns lists every written column, key included.
	Columns []string
	// Values returns the column values of r in Columns order.
	Values func(r R) []any
}

func (t Table[R]) validate() error {
	switch {
	case t.Name == "":
		return fmt.Errorf("data: table name required")
	case len(t.Columns) == 0:
		return fmt.Errorf("data: table %s: columns required", t.Name)
	case t.Values == nil:
		return fmt.Errorf("data: table %s: values func required", t.Name)
	case t.Key != "" && !slices.Contains(t.Columns, t.Key):
		return fmt.Errorf("data: table %s: key %q not in columns", t.Name, t.Key)
	}
	return nil
}

func (t Table[R]) insertSQL() string {
	return fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		t.Name, strings.Join(t.Columns, ", "), placeholders(len(t.Columns)))
}

// updateSQL sets every non-key column; the key value is bound last.
func (t Table[R]) updateSQL() string {
	sets := make([]string, 0, len(t.Columns))
	for _, c := range t.Columns {
		if c != t.Key {
			sets = append(sets, c+" = ?")
		}
	}
	return fmt.Sprintf("UPDATE %s SET %s WHERE %s = ?", t.Name, strings.Join(sets, ", "), t.Key)
}

// saveSQL is an upsert on the key column. SQLite and PostgreSQL share the
// ON CONFLICT syntax.
func (t Table[R]) saveSQL() string {
	sets := make([]string, 0, len(t.Columns))
	for _, c := range t.Columns {
		if c != t.Key {
			sets = append(sets, fmt.Sprintf("%s = excluded.%s", c, c))
		}
	}
	action := "DO NOTHING"
	if len(sets) > 0 {
		action = "DO UPDATE SET " + strings.Join(sets, ", ")
	}
	return fmt.Sprintf("%s ON CONFLICT (%s) %s", t.insertSQL(), t.Key, action)
}

// updateArgs reorders the values of r for updateSQL.
func (t Table[R]) updateArgs(values []any) []any {
	args := make([]any, 0, len(values))
	var key any
	for i, c := range t.Columns {
		if c == t.Key {
			key = values[i]
			continue
		}
		args = append(args, values[i])
	}
	return append(args, key)
}

func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}

// WriteAction selects the statement a write step runs.
type WriteAction int

const (
	// Insert adds new rows.
	Insert WriteAction = iota + 1
	// Update changes existing rows by key.
	Update
	// Save inserts or updates by key.
	Save
)

func (a WriteAction) String() string {
	switch a {
	case Insert:
		return "insert"
	case Update:
		return "update"
	case Save:
		return "save"
	default:
		return fmt.Sprintf("WriteAction(%d)", int(a))
	}
}

// WriteBuilder configures a step that maps its input to records and writes
// them. All records of one call are written in a single transaction, and
// the step succeeds with the mapped records (R for Map, []R for MapList).
//
//	step := data.Write[Order](db, ordersTable).
//	    Map(func(o Order) (OrderRow, error) { return toRow(o), nil }).
//	    Save().
//	    Build()
type WriteBuilder[A, R any] struct {
	db      *DB
	table   Table[R]
	mapOne  func(in A) (R, error)
	mapList func(in A) ([]R, error)
	action  WriteAction
	decide  func(in A, records []R) WriteAction
}

// Write starts a write step over db and table.
func Write[A, R any](db *DB, table Table[R]) *WriteBuilder[A, R] {
	if db == nil {
		panic("data: Write needs a database")
	}
	return &WriteBuilder[A, R]{db: db, table: table, action: Insert}
}

// Map maps the input to a single record.
func (b *WriteBuilder[A, R]) Map(fn func(in A) (R, error)) *WriteBuilder[A, R] {
	b.mapOne, b.mapList = fn, nil
	return b
}

// MapList maps the input to a list of records.
func (b *WriteBuilder[A, R]) MapList(fn func(in A) ([]R, error)) *WriteBuilder[A, R] {
	b.mapOne, b.mapList = nil, fn
	return b
}

// Insert writes with INSERT. This is the default.
func (b *WriteBuilder[A, R]) Insert() *WriteBuilder[A, R] { return b.with(Insert) }

// Update writes with UPDATE ... WHERE key = ?.
func (b *WriteBuilder[A, R]) Update() *WriteBuilder[A, R] { return b.with(Update) }

// Save writes with an upsert on the key column.
func (b *WriteBuilder[A, R]) Save() *WriteBuilder[A, R] { return b.with(Save) }

// Decide picks the action on every call from the input and mapped records.
func (b *WriteBuilder[A, R]) Decide(fn func(in A, records []R) WriteAction) *WriteBuilder[A, R] {
	b.decide = fn
	return b
}

func (b *WriteBuilder[A, R]) with(a WriteAction) *WriteBuilder[A, R] {
	b.action = a
	b.decide = nil
	return b
}

// Build returns the step. It panics on an invalid table or a missing mapping.
func (b *WriteBuilder[A, R]) Build() api.Step {
	if err := b.table.validate(); err != nil {
		panic(err.Error())
	}
	if b.mapOne == nil && b.mapList == nil {
		panic("data: write step needs Map or MapList")
	}
	needsKey := b.action != Insert || b.decide != nil
	if needsKey && b.table.Key == "" {
		panic(fmt.Sprintf("data: table %s: key required for update and save", b.table.Name))
	}
	return &writeStep[A, R]{cfg: *b}
}

type writeStep[A, R any] struct {
	cfg WriteBuilder[A, R]
}

func (s *writeStep[A, R]) Name() string { return "data.write" }

func (s *writeStep[A, R]) Execute(ctx context.Context, input any, _ api.FlowState) api.Outcome {
	in, err := as[A](input)
	if err != nil {
		return api.Error(err)
	}

	var (
		records []R
		result  any
	)
	if s.cfg.mapOne != nil {
		r, err := s.cfg.mapOne(in)
		if err != nil {
			return api.Error(err)
		}
		records, result = []R{r}, r
	} else {
		records, err = s.cfg.mapList(in)
		if err != nil {
			return api.Error(err)
		}
		result = records
	}

	action := s.cfg.action
	if s.cfg.decide != nil {
		action = s.cfg.decide(in, records)
	}
	if err := s.write(ctx, action, records); err != nil {
		return api.ErrorWithValue(err, result)
	}
	return api.Success(result)
}

func (s *writeStep[A, R]) write(ctx context.Context, action WriteAction, records []R) error {
	t := s.cfg.table
	var query string
	switch action {
	case Insert:
		query = t.insertSQL()
	case Update:
		query = t.updateSQL()
	case Save:
		query = t.saveSQL()
	default:
		return fmt.Errorf("data: unsupported write action %s", action)
	}

	return s.cfg.db.InTx(ctx, func(tx *Tx) error {
		for i, r := range records {
			values := t.Values(r)
			if len(values) != len(t.Columns) {
				return fmt.Errorf("data: table %s: record %d has %d values for %d columns", t.Name, i, len(values), len(t.Columns))
			}
			if action == Update {
				values = t.updateArgs(values)
			}
			if _, err := tx.Exec(ctx, query, values...); err != nil {
				return fmt.Errorf("%s %s record %d: %w", action, t.Name, i, err)
			}
		}
		return nil
	})
}
