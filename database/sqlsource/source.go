package sqlsource

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	datagrid "github.com/gnemet/sqlgrid"
	"github.com/jmoiron/sqlx"
)

// ErrConnection is returned when the database cannot be opened or reached
var ErrConnection = errors.New("database connection failed")

// Driver names
const (
	DriverPostgres = "postgres"
	DriverMySQL    = "mysql"
	DriverSQLite   = "sqlite"
)

// Options tune the underlying connection pool
type Options struct {
	MaxConns    int
	IdleTimeout time.Duration
	AbsTimeout  time.Duration
}

// Source is a datagrid.DataSource over a database/sql pool. It is safe for
// concurrent use; each grid render only borrows connections for its queries.
type Source struct {
	db      *sqlx.DB
	dialect datagrid.Dialect
}

// Open connects to the database with the given driver and pool tuning.
// The driver package must be imported by the caller.
func Open(driver, dsn string, opts Options) (*Source, error) {
	db, err := sqlx.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to open database: %w", ErrConnection, err)
	}

	if opts.MaxConns > 0 {
		db.SetMaxOpenConns(opts.MaxConns)
		db.SetMaxIdleConns(max(1, opts.MaxConns/2))
	}
	if opts.AbsTimeout > 0 {
		db.SetConnMaxLifetime(opts.AbsTimeout)
	}
	if opts.IdleTimeout > 0 {
		db.SetConnMaxIdleTime(opts.IdleTimeout)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("%w: failed to ping database: %w", ErrConnection, err)
	}

	slog.Info("Database connected", "driver", driver, "max_conns", opts.MaxConns)
	return New(db), nil
}

// New wraps an open pool
func New(db *sqlx.DB) *Source {
	d := datagrid.DialectANSI
	if db.DriverName() == DriverMySQL {
		d = datagrid.DialectMySQL
	}
	return &Source{db: db, dialect: d}
}

// DB exposes the pool, e.g. for seeding
func (s *Source) DB() *sqlx.DB { return s.db }

func (s *Source) Close() error {
	return s.db.Close()
}

func (s *Source) Dialect() datagrid.Dialect { return s.dialect }

// Query runs query after rebinding its ? placeholders for the driver
func (s *Source) Query(ctx context.Context, query string, args ...any) (datagrid.Rows, error) {
	rows, err := s.db.QueryxContext(ctx, s.db.Rebind(query), args...)
	if err != nil {
		return nil, fmt.Errorf("query failed: %w", err)
	}
	cols, err := rows.Columns()
	if err != nil {
		rows.Close()
		return nil, fmt.Errorf("failed to read columns: %w", err)
	}
	return &resultRows{rows: rows, cols: cols}, nil
}

// Count runs a single-value COUNT query
func (s *Source) Count(ctx context.Context, query string, args ...any) (int, error) {
	var n int
	if err := s.db.GetContext(ctx, &n, s.db.Rebind(query), args...); err != nil {
		return 0, fmt.Errorf("count failed: %w", err)
	}
	return n, nil
}

type resultRows struct {
	rows *sqlx.Rows
	cols []string
	vals []string
	err  error
}

func (r *resultRows) Columns() []string { return r.cols }

func (r *resultRows) Next() bool {
	if r.err != nil || !r.rows.Next() {
		return false
	}
	values, err := r.rows.SliceScan()
	if err != nil {
		r.err = fmt.Errorf("scan failed: %w", err)
		return false
	}
	r.vals = make([]string, len(values))
	for i, v := range values {
		r.vals[i] = text(v)
	}
	return true
}

func (r *resultRows) Values() []string { return r.vals }

func (r *resultRows) Err() error {
	if r.err != nil {
		return r.err
	}
	return r.rows.Err()
}

func (r *resultRows) Close() error { return r.rows.Close() }

// text renders a scanned driver value the way it is shown in the grid
func text(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case []byte:
		return string(t)
	case string:
		return t
	case int64:
		return strconv.FormatInt(t, 10)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		if t {
			return "1"
		}
		return "0"
	case time.Time:
		if t.Hour() == 0 && t.Minute() == 0 && t.Second() == 0 && t.Nanosecond() == 0 {
			return t.Format("2006-01-02")
		}
		return t.Format("2006-01-02 15:04:05")
	default:
		return fmt.Sprint(t)
	}
}
