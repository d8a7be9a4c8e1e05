package sqlsink

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/jmoiron/sqlx"

	"throughput-bench/dataset"
)

// Table is a sink backed by one SQL table.
type Table struct {
	DB      *sqlx.DB
	Dialect Dialect
	Table   string

	// Mutex, when set, serialises writes and shares reads.
	Mutex *sync.RWMutex

	system  string
	columns []string
}

func New(db *sqlx.DB, system, table string, d Dialect) *Table {
	return &Table{DB: db, Dialect: d, Table: table, system: system}
}

func (t *Table) Name() string { return t.system }

func (t *Table) Ping(ctx context.Context) error {
	return t.DB.PingContext(ctx)
}

func (t *Table) Prepare(ctx context.Context, columns []string, replace bool) error {
	if len(columns) == 0 {
		return fmt.Errorf("table %s: no columns", t.Table)
	}
	t.lock()
	defer t.unlock()

	if replace {
		if _, err := t.DB.ExecContext(ctx, t.Dialect.DropTable(t.Table)); err != nil {
			return fmt.Errorf("drop table %s: %w", t.Table, err)
		}
	}

	defs := make([]string, len(columns))
	for i, c := range columns {
		defs[i] = t.Dialect.Quote(c) + " " + t.Dialect.TextType
	}
	create := t.Dialect.CreateTable(t.Table, strings.Join(defs, ", "), !replace)
	if _, err := t.DB.ExecContext(ctx, create); err != nil {
		return fmt.Errorf("create table %s: %w", t.Table, err)
	}

	if !replace {
		if _, err := t.DB.ExecContext(ctx, "DELETE FROM "+t.Dialect.Quote(t.Table)); err != nil {
			return fmt.Errorf("clear table %s: %w", t.Table, err)
		}
	}

	t.columns = append([]string(nil), columns...)
	return nil
}

// Insert writes records in multi-row statements inside one transaction.
func (t *Table) Insert(ctx context.Context, records []dataset.Record) error {
	if len(t.columns) == 0 {
		return fmt.Errorf("table %s: insert before prepare", t.Table)
	}
	if len(records) == 0 {
		return nil
	}
	t.lock()
	defer t.unlock()

	tx, err := t.DB.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	chunk := t.Dialect.rowsPerStatement(len(t.columns))
	for i := 0; i < len(records); i += chunk {
		end := i + chunk
		if end > len(records) {
			end = len(records)
		}
		query, args := t.insertStatement(records[i:end])
		if _, err := tx.ExecContext(ctx, tx.Rebind(query), args...); err != nil {
			return fmt.Errorf("insert batch at %d: %w", i, err)
		}
	}
	return tx.Commit()
}

func (t *Table) insertStatement(records []dataset.Record) (string, []any) {
	cols := make([]string, len(t.columns))
	for i, c := range t.columns {
		cols[i] = t.Dialect.Quote(c)
	}
	row := "(" + strings.TrimSuffix(strings.Repeat("?,", len(t.columns)), ",") + ")"

	var b strings.Builder
	fmt.Fprintf(&b, "INSERT INTO %s (%s) VALUES ", t.Dialect.Quote(t.Table), strings.Join(cols, ", "))

	args := make([]any, 0, len(records)*len(t.columns))
	for i, rec := range records {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(row)
		for _, c := range t.columns {
			args = append(args, textArg(rec[c]))
		}
	}
	return b.String(), args
}

func (t *Table) Lookup(ctx context.Context, field string, value any) error {
	if t.Mutex != nil {
		t.Mutex.RLock()
		defer t.Mutex.RUnlock()
	}

	where := t.Dialect.Quote(field) + " IS NULL"
	var args []any
	if s, ok := dataset.Text(value); ok {
		where = t.Dialect.Quote(field) + " = ?"
		args = append(args, s)
	}

	rows, err := t.DB.QueryxContext(ctx, t.DB.Rebind(t.Dialect.SelectOne(t.Table, where)), args...)
	if err != nil {
		return fmt.Errorf("lookup %s: %w", field, err)
	}
	defer rows.Close()

	if rows.Next() {
		if _, err := rows.SliceScan(); err != nil {
			return fmt.Errorf("scan %s: %w", field, err)
		}
	}
	return rows.Err()
}

func (t *Table) Clear(ctx context.Context) error {
	t.lock()
	defer t.unlock()
	_, err := t.DB.ExecContext(ctx, "DELETE FROM "+t.Dialect.Quote(t.Table))
	return err
}

func (t *Table) Count(ctx context.Context) (int64, error) {
	var n int64
	err := t.DB.GetContext(ctx, &n, "SELECT COUNT(*) FROM "+t.Dialect.Quote(t.Table))
	return n, err
}

func (t *Table) Close() error {
	return t.DB.Close()
}

func (t *Table) lock() {
	if t.Mutex != nil {
		t.Mutex.Lock()
	}
}

func (t *Table) unlock() {
	if t.Mutex != nil {
		t.Mutex.Unlock()
	}
}

func textArg(v any) any {
	s, ok := dataset.Text(v)
	if !ok {
		return nil
	}
	return s
}
