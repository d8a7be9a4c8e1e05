// Package pg stores the dataset in a PostgreSQL table through pgx.
package pg

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"throughput-bench/config"
	"throughput-bench/dataset"
)

// DSN builds a postgres:// URL for c.
func DSN(c config.Conn, sslmode string) string {
	if sslmode == "" {
		sslmode = "disable"
	}
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(c.User, c.Password),
		Host:     fmt.Sprintf("%s:%d", c.Host, c.Port),
		Path:     "/" + c.Database,
		RawQuery: url.Values{"sslmode": {sslmode}}.Encode(),
	}
	return u.String()
}

func Connect(ctx context.Context, c config.Conn, sslmode string, maxConns int32) (*pgxpool.Pool, error) {
	poolCfg, err := pgxpool.ParseConfig(DSN(c, sslmode))
	if err != nil {
		return nil, err
	}
	if maxConns <= 0 {
		maxConns = 10
	}
	poolCfg.MaxConns = maxConns
	poolCfg.MinConns = 2

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, err
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return pool, nil
}

// Table is a sink backed by one PostgreSQL table with TEXT columns.
type Table struct {
	Pool  *pgxpool.Pool
	Table string

	columns []string
}

// Open connects with cfg and returns a sink for cfg.Table.
func Open(ctx context.Context, cfg config.PostgresConfig) (*Table, error) {
	pool, err := Connect(ctx, cfg.Conn(), cfg.SSLMode, cfg.MaxConns)
	if err != nil {
		return nil, fmt.Errorf("connect postgres %s:%d: %w", cfg.Host, cfg.Port, err)
	}
	return &Table{Pool: pool, Table: cfg.Table}, nil
}

func quote(ident string) string {
	return pgx.Identifier{ident}.Sanitize()
}

func (t *Table) Name() string { return "PostgreSQL" }

func (t *Table) Ping(ctx context.Context) error {
	return t.Pool.Ping(ctx)
}

func (t *Table) Prepare(ctx context.Context, columns []string, replace bool) error {
	if len(columns) == 0 {
		return fmt.Errorf("table %s: no columns", t.Table)
	}

	if replace {
		if _, err := t.Pool.Exec(ctx, "DROP TABLE IF EXISTS "+quote(t.Table)); err != nil {
			return fmt.Errorf("drop table %s: %w", t.Table, err)
		}
	}

	defs := make([]string, len(columns))
	for i, c := range columns {
		defs[i] = quote(c) + " TEXT"
	}
	if _, err := t.Pool.Exec(ctx, t.createStatement(defs)); err != nil {
		return fmt.Errorf("create table %s: %w", t.Table, err)
	}

	if !replace {
		if _, err := t.Pool.Exec(ctx, "DELETE FROM "+quote(t.Table)); err != nil {
			return fmt.Errorf("clear table %s: %w", t.Table, err)
		}
	}

	t.columns = append([]string(nil), columns...)
	return nil
}

func (t *Table) createStatement(defs []string) string {
	return fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (%s)", quote(t.Table), strings.Join(defs, ", "))
}

// Insert streams records with COPY.
func (t *Table) Insert(ctx context.Context, records []dataset.Record) error {
	if len(t.columns) == 0 {
		return fmt.Errorf("table %s: insert before prepare", t.Table)
	}
	if len(records) == 0 {
		return nil
	}

	n, err := t.Pool.CopyFrom(ctx, pgx.Identifier{t.Table}, t.columns, pgx.CopyFromRows(t.rows(records)))
	if err != nil {
		return fmt.Errorf("copy into %s: %w", t.Table, err)
	}
	if int(n) != len(records) {
		return fmt.Errorf("copy into %s: wrote %d of %d rows", t.Table, n, len(records))
	}
	return nil
}

func (t *Table) rows(records []dataset.Record) [][]any {
	rows := make([][]any, len(records))
	for i, rec := range records {
		row := make([]any, len(t.columns))
		for j, c := range t.columns {
			if s, ok := dataset.Text(rec[c]); ok {
				row[j] = s
			}
		}
		rows[i] = row
	}
	return rows
}

func (t *Table) Lookup(ctx context.Context, field string, value any) error {
	query, args := t.lookupStatement(field, value)
	rows, err := t.Pool.Query(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("lookup %s: %w", field, err)
	}
	defer rows.Close()

	if rows.Next() {
		if _, err := rows.Values(); err != nil {
			return fmt.Errorf("scan %s: %w", field, err)
		}
	}
	return rows.Err()
}

func (t *Table) lookupStatement(field string, value any) (string, []any) {
	s, ok := dataset.Text(value)
	if !ok {
		return fmt.Sprintf("SELECT * FROM %s WHERE %s IS NULL LIMIT 1", quote(t.Table), quote(field)), nil
	}
	return fmt.Sprintf("SELECT * FROM %s WHERE %s = $1 LIMIT 1", quote(t.Table), quote(field)), []any{s}
}

func (t *Table) Clear(ctx context.Context) error {
	_, err := t.Pool.Exec(ctx, "DELETE FROM "+quote(t.Table))
	return err
}

func (t *Table) Count(ctx context.Context) (int64, error) {
	var n int64
	err := t.Pool.QueryRow(ctx, "SELECT COUNT(*) FROM "+quote(t.Table)).Scan(&n)
	return n, err
}

func (t *Table) Close() error {
	t.Pool.Close()
	return nil
}
