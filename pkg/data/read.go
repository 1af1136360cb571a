package data

import (
	"context"
	"database/sql"

	"github.com/petrijr/stepflow/pkg/api"
)

// ReadBuilder configures a step that runs a SELECT and passes the rows on.
//
//	step := data.Read[int](db, scanOrder).
//	    Query("SELECT id, status FROM orders WHERE customer_id = ?", func(id int) ([]any, error) {
//	        return []any{id}, nil
//	    }).
//	    OnEmptyRaiseError().
//	    List().
//	    Build()
//
// A List step succeeds with []R, a Single step with R (or nil when there is
// no row and no empty-result error is configured).
type ReadBuilder[A, R any] struct {
	db      *DB
	scan    ScanFunc[R]
	query   string
	args    func(in A) ([]any, error)
	queryFn func(in A) (string, []any, error)
	single  bool
	onEmpty *string
}

// Read starts a read step over db. A is the step's input type and R the row type.
func Read[A, R any](db *DB, scan func(rows *sql.Rows) (R, error)) *ReadBuilder[A, R] {
	if db == nil || scan == nil {
		panic("data: Read needs a database and a scan function")
	}
	return &ReadBuilder[A, R]{db: db, scan: scan}
}

// Query sets the SQL text. args computes the placeholder values from the
// input and may be nil.
func (b *ReadBuilder[A, R]) Query(sql string, args func(in A) ([]any, error)) *ReadBuilder[A, R] {
	b.query = sql
	b.args = args
	return b
}

// QueryFunc computes both the SQL text and its arguments from the input.
func (b *ReadBuilder[A, R]) QueryFunc(fn func(in A) (string, []any, error)) *ReadBuilder[A, R] {
	b.queryFn = fn
	return b
}

// OnEmptyRaiseError turns an empty result into an Error outcome carrying a
// *NoRowsError. The message defaults to DefaultEmptyMessage.
func (b *ReadBuilder[A, R]) OnEmptyRaiseError(message ...string) *ReadBuilder[A, R] {
	msg := DefaultEmptyMessage
	if len(message) > 0 && message[0] != "" {
		msg = message[0]
	}
	b.onEmpty = &msg
	return b
}

// List makes the step return every row. This is the default.
func (b *ReadBuilder[A, R]) List() *ReadBuilder[A, R] {
	b.single = false
	return b
}

// Single makes the step return the first row only.
func (b *ReadBuilder[A, R]) Single() *ReadBuilder[A, R] {
	b.single = true
	return b
}

// Build returns the step. It panics when both Query and QueryFunc were
// configured, or neither.
func (b *ReadBuilder[A, R]) Build() api.Step {
	if b.query != "" && b.queryFn != nil {
		panic("data: can't configure both query text and query func")
	}
	if b.query == "" && b.queryFn == nil {
		panic("data: read step needs a query")
	}
	c := *b
	return &readStep[A, R]{cfg: c}
}

type readStep[A, R any] struct {
	cfg ReadBuilder[A, R]
}

func (s *readStep[A, R]) Name() string { return "data.read" }

func (s *readStep[A, R]) Execute(ctx context.Context, input any, _ api.FlowState) api.Outcome {
	in, err := as[A](input)
	if err != nil {
		return api.Error(err)
	}

	query, args := s.cfg.query, []any(nil)
	if s.cfg.queryFn != nil {
		query, args, err = s.cfg.queryFn(in)
	} else if s.cfg.args != nil {
		args, err = s.cfg.args(in)
	}
	if err != nil {
		return api.Error(err)
	}

	rows, err := s.cfg.db.Query(ctx, query, args...)
	if err != nil {
		return api.Error(err)
	}
	limit := 0
	if s.cfg.single {
		limit = 1
	}
	result, err := scanAll(rows, s.cfg.scan, limit)
	if err != nil {
		return api.Error(err)
	}

	if len(result) == 0 {
		if s.cfg.onEmpty != nil {
			return api.Error(&NoRowsError{Message: *s.cfg.onEmpty})
		}
		if s.cfg.single {
			return api.Success(nil)
		}
	}
	if s.cfg.single {
		return api.Success(result[0])
	}
	return api.Success(result)
}
