package data

import (
	"context"
	"fmt"

	"github.com/petrijr/stepflow/pkg/api"
	"github.com/petrijr/stepflow/pkg/config"
)

// RegisterSteps adds the database steps to reg, all bound to db:
//
//	sql.query   query, args (gjson paths into the input), single, on_empty
//	sql.exec    query, args; succeeds with the rows affected
//	sql.delete  table, key, and either by_id (a gjson path) or all: true
//
// Rows are returned as map[string]any keyed by column name.
func RegisterSteps(reg *config.Registry, db *DB) {
	reg.RegisterStep("sql.query", func(p config.Params) (api.Step, error) {
		return sqlQuery(db, p)
	})
	reg.RegisterStep("sql.exec", func(p config.Params) (api.Step, error) {
		return sqlExec(db, p)
	})
	reg.RegisterStep("sql.delete", func(p config.Params) (api.Step, error) {
		return sqlDelete(db, p)
	})
}

func sqlQuery(db *DB, p config.Params) (api.Step, error) {
	query, err := p.RequiredString("query")
	if err != nil {
		return nil, err
	}
	paths, err := p.Strings("args")
	if err != nil {
		return nil, err
	}
	single, err := p.Bool("single", false)
	if err != nil {
		return nil, err
	}

	b := Read[any](db, ScanMap).Query(query, argsFrom(paths))
	if single {
		b.Single()
	}
	if p.Has("on_empty") {
		msg, err := p.String("on_empty", DefaultEmptyMessage)
		if err != nil {
			return nil, err
		}
		b.OnEmptyRaiseError(msg)
	}
	return b.Build(), nil
}

func sqlExec(db *DB, p config.Params) (api.Step, error) {
	query, err := p.RequiredString("query")
	if err != nil {
		return nil, err
	}
	paths, err := p.Strings("args")
	if err != nil {
		return nil, err
	}
	args := argsFrom(paths)
	return Custom(db).Do(func(ctx context.Context, a Args) (any, error) {
		values, err := args(a.Input)
		if err != nil {
			return nil, err
		}
		res, err := a.DB.Exec(ctx, query, values...)
		if err != nil {
			return nil, err
		}
		return res.RowsAffected()
	}).Build(), nil
}

func sqlDelete(db *DB, p config.Params) (api.Step, error) {
	table, err := p.RequiredString("table")
	if err != nil {
		return nil, err
	}
	key, err := p.String("key", "id")
	if err != nil {
		return nil, err
	}
	all, err := p.Bool("all", false)
	if err != nil {
		return nil, err
	}
	path, err := p.String("by_id", "")
	if err != nil {
		return nil, err
	}

	b := Delete[any](db, table, key)
	switch {
	case all && path != "":
		return nil, fmt.Errorf("sql.delete: by_id and all are exclusive")
	case all:
		b.All()
	case path != "":
		b.Where(func(in any) (string, []any, error) {
			values, err := config.LookupAll(in, []string{path})
			if err != nil {
				return "", nil, err
			}
			return key + " = ?", values, nil
		})
	default:
		return nil, fmt.Errorf("sql.delete: by_id or all required")
	}
	return b.Build(), nil
}

func argsFrom(paths []string) func(in any) ([]any, error) {
	if len(paths) == 0 {
		return nil
	}
	return func(in any) ([]any, error) {
		return config.LookupAll(in, paths)
	}
}
