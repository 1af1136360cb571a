package data

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"
)

// Dialect captures the SQL differences between the supported databases.
type Dialect interface {
	// Name returns the database/sql driver name.
	Name() string
	// Rebind rewrites the '?' placeholders of query into the dialect's form.
	Rebind(query string) string
}

type sqliteDialect struct{}

func (sqliteDialect) Name() string               { return "sqlite" }
func (sqliteDialect) Rebind(query string) string { return query }

type postgresDialect struct{}

func (postgresDialect) Name() string { return "pgx" }

// Rebind turns '?' into $1, $2, ... skipping quoted literals and identifiers.
func (postgresDialect) Rebind(query string) string {
	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	var quote rune
	for _, r := range query {
		switch {
		case quote != 0:
			if r == quote {
				quote = 0
			}
		case r == '\'' || r == '"':
			quote = r
		case r == '?':
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

var (
	// SQLite uses modernc.org/sqlite (driver "sqlite").
	SQLite Dialect = sqliteDialect{}
	// Postgres uses github.com/jackc/pgx/v5/stdlib (driver "pgx").
	Postgres Dialect = postgresDialect{}
)

// ErrUnknownDriver is returned by Open for unsupported driver names.
var ErrUnknownDriver = errors.New("unknown database driver")

// DB is a database handle together with its dialect. Queries given to the
// steps in this package always use '?' placeholders.
type DB struct {
	*sql.DB
	dialect Dialect
}

// New wraps an open *sql.DB.
func New(db *sql.DB, dialect Dialect) *DB {
	return &DB{DB: db, dialect: dialect}
}

// Dialect returns the database dialect.
func (db *DB) Dialect() Dialect { return db.dialect }

// OpenSQLite opens a SQLite database.
//
//	db, err := data.OpenSQLite("file:app.db?_pragma=journal_mode(WAL)")
func OpenSQLite(dsn string) (*DB, error) {
	return open(SQLite, dsn)
}

// OpenPostgres opens a PostgreSQL database through pgx.
func OpenPostgres(dsn string) (*DB, error) {
	return open(Postgres, dsn)
}

// Open opens a database by driver name: "sqlite", or "postgres" (alias "pgx").
func Open(driver, dsn string) (*DB, error) {
	switch driver {
	case "sqlite", "sqlite3":
		return OpenSQLite(dsn)
	case "postgres", "postgresql", "pgx":
		return OpenPostgres(dsn)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownDriver, driver)
	}
}

func open(dialect Dialect, dsn string) (*DB, error) {
	db, err := sql.Open(dialect.Name(), dsn)
	if err != nil {
		return nil, err
	}
	return New(db, dialect), nil
}

// Exec runs a statement written with '?' placeholders.
func (db *DB) Exec(ctx context.Context, query string, args ...any) (sql.Result, error) {
	return db.DB.ExecContext(ctx, db.dialect.Rebind(query), args...)
}

// Query runs a query written with '?' placeholders.
func (db *DB) Query(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	return db.DB.QueryContext(ctx, db.dialect.Rebind(query), args...)
}

// InTx runs fn in a transaction, committing when it returns nil.
func (db *DB) InTx(ctx context.Context, fn func(tx *Tx) error) error {
	sqlTx, err := db.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	if err := fn(&Tx{tx: sqlTx, dialect: db.dialect}); err != nil {
		_ = sqlTx.Rollback() // best-effort
		return err
	}
	return sqlTx.Commit()
}

// Tx is a transaction that rebinds placeholders like DB.
type Tx struct {
	tx      *sql.Tx
	dialect Dialect
}

// Exec runs a statement inside the transaction.
func (tx *Tx) Exec(ctx context.Context, query string, args ...any) (sql.Result, error) {
	return tx.tx.ExecContext(ctx, tx.dialect.Rebind(query), args...)
}
