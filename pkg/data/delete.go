package data

import (
	"context"
	"fmt"

	"github.com/petrijr/stepflow/pkg/api"
)

type deleteMode int

const (
	deleteByID deleteMode = iota + 1
	deleteByIDs
	deleteAll
	deleteWhere
)

// DeleteBuilder configures a step that deletes rows and succeeds with the
// number of rows affected (int64).
//
//	step := data.Delete[int](db, "orders", "id").ByID(func(id int) any { return id }).Build()
type DeleteBuilder[A any] struct {
	db    *DB
	table string
	key   string
	mode  deleteMode
	id    func(in A) any
	ids   func(in A) []any
	where func(in A) (string, []any, error)
}

// Delete starts a delete step on table, whose primary key column is key.
func Delete[A any](db *DB, table, key string) *DeleteBuilder[A] {
	if db == nil || table == "" {
		panic("data: Delete needs a database and a table")
	}
	return &DeleteBuilder[A]{db: db, table: table, key: key}
}

// ByID deletes the row whose key is returned by fn.
func (b *DeleteBuilder[A]) ByID(fn func(in A) any) *DeleteBuilder[A] {
	b.mode, b.id = deleteByID, fn
	return b
}

// ByIDs deletes every row whose key is in the list returned by fn.
func (b *DeleteBuilder[A]) ByIDs(fn func(in A) []any) *DeleteBuilder[A] {
	b.mode, b.ids = deleteByIDs, fn
	return b
}

// All deletes every row of the table.
func (b *DeleteBuilder[A]) All() *DeleteBuilder[A] {
	b.mode = deleteAll
	return b
}

// Where deletes the rows matching the condition returned by fn, written
// with '?' placeholders. An error from fn fails the step.
func (b *DeleteBuilder[A]) Where(fn func(in A) (cond string, args []any, err error)) *DeleteBuilder[A] {
	b.mode, b.where = deleteWhere, fn
	return b
}

// Build returns the step. It panics when no delete mode was chosen.
func (b *DeleteBuilder[A]) Build() api.Step {
	if b.mode == 0 {
		panic("data: delete step needs ByID, ByIDs, All or Where")
	}
	if (b.mode == deleteByID || b.mode == deleteByIDs) && b.key == "" {
		panic(fmt.Sprintf("data: table %s: key required to delete by id", b.table))
	}
	return &deleteStep[A]{cfg: *b}
}

type deleteStep[A any] struct {
	cfg DeleteBuilder[A]
}

func (s *deleteStep[A]) Name() string { return "data.delete" }

func (s *deleteStep[A]) Execute(ctx context.Context, input any, _ api.FlowState) api.Outcome {
	in, err := as[A](input)
	if err != nil {
		return api.Error(err)
	}

	var (
		query string
		args  []any
	)
	switch s.cfg.mode {
	case deleteByID:
		query = fmt.Sprintf("DELETE FROM %s WHERE %s = ?", s.cfg.table, s.cfg.key)
		args = []any{s.cfg.id(in)}
	case deleteByIDs:
		args = s.cfg.ids(in)
		if len(args) == 0 {
			return api.Success(int64(0))
		}
		query = fmt.Sprintf("DELETE FROM %s WHERE %s IN (%s)", s.cfg.table, s.cfg.key, placeholders(len(args)))
	case deleteAll:
		query = "DELETE FROM " + s.cfg.table
	case deleteWhere:
		var cond string
		cond, args, err = s.cfg.where(in)
		if err != nil {
			return api.Error(err)
		}
		query = fmt.Sprintf("DELETE FROM %s WHERE %s", s.cfg.table, cond)
	}

	res, err := s.cfg.db.Exec(ctx, query, args...)
	if err != nil {
		return api.Error(err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return api.Error(err)
	}
	return api.Success(n)
}
