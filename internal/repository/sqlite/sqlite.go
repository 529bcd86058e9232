// Package sqlite implements the repository interfaces on SQLite.
//
// WHY modernc.org/sqlite?
// It is a pure Go translation of SQLite: no CGo, no C compiler, cross-compiles
// anywhere Go does. sqlx sits on top of database/sql to map rows onto the
// model structs by their `db` tags.
//
// CONNECTION SETTINGS (all passed through the DSN so every pooled connection
// gets them, not just the first one):
//   - foreign_keys(1)      SQLite ships with FK enforcement off.
//   - busy_timeout(5000)   wait up to 5s for a competing writer instead of
//     failing with SQLITE_BUSY.
//   - journal_mode(WAL)    readers keep reading while one writer writes.
//   - _txlock=immediate    every BEGIN takes the write lock up front. Two
//     concurrent verify calls therefore run one after the other, and the
//     second one sees the first one's committed flags.
package sqlite

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"embed"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-migrate/migrate/v4"
	migratesqlite "github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/jmoiron/sqlx"
	"github.com/rs/xid"
	"modernc.org/sqlite"

	"github.com/sakif/skillgig-backend/internal/repository"
)

//go:embed migrations/*.sql
var migrationFS embed.FS

var _ repository.Store = (*DB)(nil)

func init() {
	// SQLite's built-in lower() only folds ASCII. Tag matching must be
	// case-insensitive for any script, so register a Unicode-aware variant.
	sqlite.MustRegisterDeterministicScalarFunction("casefold", 1,
		func(_ *sqlite.FunctionContext, args []driver.Value) (driver.Value, error) {
			switch v := args[0].(type) {
			case string:
				return strings.ToLower(v), nil
			case []byte:
				return strings.ToLower(string(v)), nil
			default:
				return v, nil
			}
		},
	)
}

// DB is the SQLite-backed repository.Store.
//
// q is what every query runs against: the pool for a plain DB, or the open
// transaction for the DB handed to a WithTx callback. Repository methods never
// touch conn directly, so the same code works in and out of a transaction.
type DB struct {
	conn *sqlx.DB
	q    sqlx.ExtContext
	tx   *sqlx.Tx
}

// New opens the database at dbPath, applies pending migrations and returns
// the store.
//
// dbPath examples:
//   - "data/app.db" → file-based database (persistent)
//   - ":memory:"    → in-memory database (tests; lost on close)
//
// idleTimeout closes pooled connections that sat unused for that long.
// Zero keeps them open.
func New(dbPath string, idleTimeout time.Duration) (*DB, error) {
	conn, err := sql.Open("sqlite", dsn(dbPath))
	if err != nil {
		return nil, fmt.Errorf("sqlite: opening database: %w", err)
	}

	if isMemory(dbPath) {
		// Every new connection to ":memory:" is a brand new empty database,
		// so the pool must hold exactly one connection and never recycle it.
		conn.SetMaxOpenConns(1)
	} else if idleTimeout > 0 {
		conn.SetConnMaxIdleTime(idleTimeout)
	}

	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: pinging database: %w", err)
	}

	if err := runMigrations(conn); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: running migrations: %w", err)
	}

	return newDB(sqlx.NewDb(conn, "sqlite3")), nil
}

// newDB wraps an already-open connection pool. Tests use it with sqlmock.
func newDB(conn *sqlx.DB) *DB {
	return &DB{conn: conn, q: conn}
}

// Close closes the database connection pool.
func (db *DB) Close() error {
	return db.conn.Close()
}

// Ping checks the database is reachable.
func (db *DB) Ping(ctx context.Context) error {
	return db.conn.PingContext(ctx)
}

// WithTx runs fn in a transaction. See repository.Store.
func (db *DB) WithTx(ctx context.Context, fn func(tx repository.Store) error) (err error) {
	if db.tx != nil {
		return fn(db)
	}

	tx, err := db.conn.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("sqlite: beginning transaction: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
		if err != nil {
			if rbErr := tx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
				err = errors.Join(err, fmt.Errorf("sqlite: rolling back: %w", rbErr))
			}
			return
		}
		if cErr := tx.Commit(); cErr != nil {
			err = fmt.Errorf("sqlite: committing transaction: %w", cErr)
		}
	}()

	return fn(&DB{conn: db.conn, q: tx, tx: tx})
}

// runMigrations applies the embedded migrations with golang-migrate.
//
// The migrate instance is deliberately not closed: closing it would close the
// *sql.DB it was given, which is the pool the store keeps using.
func runMigrations(conn *sql.DB) error {
	src, err := iofs.New(migrationFS, "migrations")
	if err != nil {
		return fmt.Errorf("loading migration files: %w", err)
	}

	drv, err := migratesqlite.WithInstance(conn, &migratesqlite.Config{})
	if err != nil {
		return fmt.Errorf("creating migration driver: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", src, "sqlite", drv)
	if err != nil {
		return fmt.Errorf("creating migrator: %w", err)
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("applying migrations: %w", err)
	}
	return nil
}

func dsn(path string) string {
	sep := "?"
	if strings.Contains(path, "?") {
		sep = "&"
	}
	params := []string{
		"_pragma=foreign_keys(1)",
		"_pragma=busy_timeout(5000)",
		"_txlock=immediate",
		"_time_format=sqlite",
	}
	if !isMemory(path) {
		params = append(params, "_pragma=journal_mode(WAL)")
	}
	return path + sep + strings.Join(params, "&")
}

func isMemory(path string) bool {
	return path == ":memory:" || strings.Contains(path, "mode=memory")
}

func newID() string {
	return xid.New().String()
}

// now returns the current time in UTC. Stored timestamps are always UTC so
// that their text form sorts chronologically.
func now() time.Time {
	return time.Now().UTC()
}
