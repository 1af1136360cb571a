package data_test

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"testing"

	"github.com/petrijr/stepflow"
	"github.com/petrijr/stepflow/pkg/api"
	"github.com/petrijr/stepflow/pkg/data"
	"github.com/stretchr/testify/require"
)

type order struct {
	ID     int64
	Status string
	Total  int64
}

var ordersTable = data.Table[order]{
	Name:    "orders",
	Key:     "id",
	Columns: []string{"id", "status", "total"},
	Values:  func(o order) []any { return []any{o.ID, o.Status, o.Total} },
}

func scanOrder(rows *sql.Rows) (order, error) {
	var o order
	err := rows.Scan(&o.ID, &o.Status, &o.Total)
	return o, err
}

const ordersSchema = `CREATE TABLE orders (
	id     INTEGER PRIMARY KEY,
	status TEXT NOT NULL,
	total  INTEGER NOT NULL
)`

func newSQLite(t *testing.T) *data.DB {
	t.Helper()
	db, err := data.OpenSQLite(filepath.Join(t.TempDir(), "stepflow.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	_, err = db.Exec(context.Background(), ordersSchema)
	require.NoError(t, err)
	return db
}

func seed(t *testing.T, db *data.DB, orders ...order) {
	t.Helper()
	for _, o := range orders {
		_, err := db.Exec(context.Background(), "INSERT INTO orders (id, status, total) VALUES (?, ?, ?)", o.ID, o.Status, o.Total)
		require.NoError(t, err)
	}
}

func run(t *testing.T, step api.Step, input any) api.Outcome {
	t.Helper()
	return api.ExecuteStep(context.Background(), step, input, api.FlowState{})
}

func countOrders(t *testing.T, db *data.DB) int {
	t.Helper()
	var n int
	require.NoError(t, db.QueryRowContext(context.Background(), "SELECT COUNT(*) FROM orders").Scan(&n))
	return n
}

func TestRead_ListAndSingle(t *testing.T) {
	db := newSQLite(t)
	seed(t, db, order{1, "open", 10}, order{2, "open", 20}, order{3, "closed", 30})

	byStatus := data.Read[string](db, scanOrder).
		Query("SELECT id, status, total FROM orders WHERE status = ? ORDER BY id", func(s string) ([]any, error) {
			return []any{s}, nil
		}).
		Build()

	out := run(t, byStatus, "open")
	require.True(t, out.IsSuccess(), out.String())
	require.Equal(t, []order{{1, "open", 10}, {2, "open", 20}}, out.Value)

	out = run(t, byStatus, "missing")
	require.True(t, out.IsSuccess())
	require.Equal(t, []order{}, out.Value)

	byID := data.Read[int64](db, scanOrder).
		Query("SELECT id, status, total FROM orders WHERE id = ?", func(id int64) ([]any, error) {
			return []any{id}, nil
		}).
		Single().
		Build()

	require.Equal(t, api.Success(order{3, "closed", 30}), run(t, byID, int64(3)))
	require.Equal(t, api.Success(nil), run(t, byID, int64(99)))
}

func TestRead_OnEmptyRaiseError(t *testing.T) {
	db := newSQLite(t)

	step := data.Read[any](db, scanOrder).
		Query("SELECT id, status, total FROM orders", nil).
		OnEmptyRaiseError().
		Build()
	out := run(t, step, nil)
	require.True(t, out.IsError())
	require.True(t, errors.Is(out.Err, data.ErrNoRows))
	require.Equal(t, data.DefaultEmptyMessage, out.Err.Error())

	custom := data.Read[any](db, scanOrder).
		Query("SELECT id, status, total FROM orders", nil).
		OnEmptyRaiseError("no orders yet").
		Single().
		Build()
	out = run(t, custom, nil)
	var noRows *data.NoRowsError
	require.True(t, errors.As(out.Err, &noRows))
	require.Equal(t, "no orders yet", noRows.Message)
}

func TestRead_QueryFuncAndMap(t *testing.T) {
	db := newSQLite(t)
	seed(t, db, order{1, "open", 10}, order{2, "closed", 20})

	step := data.Read[map[string]any](db, data.ScanMap).
		QueryFunc(func(filter map[string]any) (string, []any, error) {
			if s, ok := filter["status"]; ok {
				return "SELECT id, status FROM orders WHERE status = ?", []any{s}, nil
			}
			return "SELECT id, status FROM orders ORDER BY id", nil, nil
		}).
		Build()

	out := run(t, step, map[string]any{"status": "closed"})
	require.Equal(t, []map[string]any{{"id": int64(2), "status": "closed"}}, out.Value)

	out = run(t, step, map[string]any{})
	require.Len(t, out.Value, 2)
}

func TestRead_BuildMisuse(t *testing.T) {
	db := newSQLite(t)
	require.Panics(t, func() { data.Read[any](db, scanOrder).Build() })
	require.Panics(t, func() {
		data.Read[any](db, scanOrder).
			Query("SELECT 1", nil).
			QueryFunc(func(any) (string, []any, error) { return "SELECT 1", nil, nil }).
			Build()
	})
	require.Panics(t, func() { data.Read[any, order](nil, scanOrder) })
}

func TestRead_WrongInputType(t *testing.T) {
	db := newSQLite(t)
	step := data.Read[int](db, scanOrder).Query("SELECT id, status, total FROM orders", nil).Build()
	out := run(t, step, "not an int")
	require.True(t, out.IsError())
}

func TestWrite_InsertUpdateSave(t *testing.T) {
	db := newSQLite(t)

	insert := data.Write[order](db, ordersTable).
		Map(func(o order) (order, error) { return o, nil }).
		Build()
	out := run(t, insert, order{1, "open", 10})
	require.Equal(t, api.Success(order{1, "open", 10}), out)

	// duplicate key
	out = run(t, insert, order{1, "open", 10})
	require.True(t, out.IsError())
	require.Equal(t, order{1, "open", 10}, out.Value)

	update := data.Write[order](db, ordersTable).
		Map(func(o order) (order, error) { return o, nil }).
		Update().
		Build()
	require.True(t, run(t, update, order{1, "paid", 15}).IsSuccess())

	save := data.Write[order](db, ordersTable).
		Map(func(o order) (order, error) { return o, nil }).
		Save().
		Build()
	require.True(t, run(t, save, order{1, "shipped", 15}).IsSuccess())
	require.True(t, run(t, save, order{2, "open", 5}).IsSuccess())

	all := data.Read[any](db, scanOrder).Query("SELECT id, status, total FROM orders ORDER BY id", nil).Build()
	require.Equal(t, []order{{1, "shipped", 15}, {2, "open", 5}}, run(t, all, nil).Value)
}

func TestWrite_MapListIsAtomic(t *testing.T) {
	db := newSQLite(t)
	seed(t, db, order{3, "open", 1})

	step := data.Write[int](db, ordersTable).
		MapList(func(n int) ([]order, error) {
			out := make([]order, 0, n)
			for i := 1; i <= n; i++ {
				out = append(out, order{ID: int64(i), Status: "new", Total: int64(i * 10)})
			}
			return out, nil
		}).
		Build()

	out := run(t, step, 2)
	require.True(t, out.IsSuccess())
	require.Len(t, out.Value, 2)
	require.Equal(t, 3, countOrders(t, db))

	// id 3 already exists, so nothing of this batch is kept
	db2 := newSQLite(t)
	seed(t, db2, order{3, "open", 1})
	failing := data.Write[int](db2, ordersTable).
		MapList(func(n int) ([]order, error) {
			return []order{{ID: 10, Status: "new"}, {ID: 3, Status: "dup"}}, nil
		}).
		Build()
	require.True(t, run(t, failing, 0).IsError())
	require.Equal(t, 1, countOrders(t, db2))
}

func TestWrite_Decide(t *testing.T) {
	db := newSQLite(t)
	seed(t, db, order{1, "open", 10})

	step := data.Write[order](db, ordersTable).
		Map(func(o order) (order, error) { return o, nil }).
		Decide(func(o order, _ []order) data.WriteAction {
			if o.ID == 0 {
				return data.Insert
			}
			return data.Update
		}).
		Build()

	require.True(t, run(t, step, order{1, "closed", 10}).IsSuccess())
	var status string
	require.NoError(t, db.QueryRowContext(context.Background(), "SELECT status FROM orders WHERE id = 1").Scan(&status))
	require.Equal(t, "closed", status)
}

func TestWrite_MapError(t *testing.T) {
	db := newSQLite(t)
	boom := errors.New("boom")
	step := data.Write[order](db, ordersTable).
		Map(func(order) (order, error) { return order{}, boom }).
		Build()
	out := run(t, step, order{})
	require.ErrorIs(t, out.Err, boom)
	require.Equal(t, 0, countOrders(t, db))
}

func TestWrite_BuildMisuse(t *testing.T) {
	db := newSQLite(t)
	require.Panics(t, func() { data.Write[order](db, ordersTable).Build() })

	noKey := ordersTable
	noKey.Key = ""
	require.Panics(t, func() {
		data.Write[order](db, noKey).Map(func(o order) (order, error) { return o, nil }).Save().Build()
	})
	require.NotPanics(t, func() {
		data.Write[order](db, noKey).Map(func(o order) (order, error) { return o, nil }).Build()
	})
}

func TestDelete(t *testing.T) {
	db := newSQLite(t)
	seed(t, db, order{1, "open", 1}, order{2, "open", 2}, order{3, "closed", 3}, order{4, "closed", 4})

	byID := data.Delete[int64](db, "orders", "id").ByID(func(id int64) any { return id }).Build()
	require.Equal(t, api.Success(int64(1)), run(t, byID, int64(1)))
	require.Equal(t, api.Success(int64(0)), run(t, byID, int64(1)))

	byIDs := data.Delete[[]any](db, "orders", "id").ByIDs(func(ids []any) []any { return ids }).Build()
	require.Equal(t, api.Success(int64(0)), run(t, byIDs, []any{}))
	require.Equal(t, api.Success(int64(1)), run(t, byIDs, []any{int64(2), int64(99)}))

	where := data.Delete[string](db, "orders", "").Where(func(s string) (string, []any, error) {
		return "status = ?", []any{s}, nil
	}).Build()
	require.Equal(t, api.Success(int64(2)), run(t, where, "closed"))

	seed(t, db, order{5, "x", 5}, order{6, "y", 6})
	all := data.Delete[any](db, "orders", "id").All().Build()
	require.Equal(t, api.Success(int64(2)), run(t, all, nil))
	require.Equal(t, 0, countOrders(t, db))
}

func TestDelete_BuildMisuse(t *testing.T) {
	db := newSQLite(t)
	require.Panics(t, func() { data.Delete[any](db, "orders", "id").Build() })
	require.Panics(t, func() { data.Delete[any](db, "orders", "").ByID(func(any) any { return 1 }).Build() })
	require.Panics(t, func() { data.Delete[any](nil, "orders", "id") })
}

func TestCustom(t *testing.T) {
	db := newSQLite(t)
	seed(t, db, order{1, "open", 10}, order{2, "open", 32})

	sum := data.Custom(db).
		When(func(_ context.Context, a data.Args) api.GateOutcome {
			return api.GateFromBool(a.Input != nil)
		}).
		Do(func(ctx context.Context, a data.Args) (any, error) {
			var total int64
			err := a.DB.QueryRowContext(ctx, "SELECT SUM(total) FROM orders WHERE status = ?", a.Input).Scan(&total)
			return total, err
		}).
		Build()

	require.Equal(t, api.Continue, sum.Gate(context.Background(), "open", api.FlowState{}))
	require.Equal(t, api.Skip, sum.Gate(context.Background(), nil, api.FlowState{}))
	require.Equal(t, api.Success(int64(42)), run(t, sum, "open"))

	passthrough := data.Custom(db).Do(func(context.Context, data.Args) (any, error) {
		return api.GoToEnd("done"), nil
	}).Build()
	require.Equal(t, api.Continue, passthrough.Gate(context.Background(), nil, api.FlowState{}))
	require.Equal(t, api.GoToEnd("done"), run(t, passthrough, nil))

	require.Panics(t, func() { data.Custom(db).Build() })
}

func TestPipelineWithDataSteps(t *testing.T) {
	db := newSQLite(t)

	p := stepflow.New("orders").
		Add(
			data.Write[order](db, ordersTable).Map(func(o order) (order, error) { return o, nil }).Build(),
			stepflow.TypedFunc(func(_ context.Context, o order) (int64, error) { return o.ID, nil }),
			data.Read[int64](db, scanOrder).
				Query("SELECT id, status, total FROM orders WHERE id = ?", func(id int64) ([]any, error) {
					return []any{id}, nil
				}).
				Single().
				Build(),
		).
		Build()

	out := p.Run(context.Background(), order{7, "open", 70})
	require.Equal(t, api.Success(order{7, "open", 70}), out)
}
