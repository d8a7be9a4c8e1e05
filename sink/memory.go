package sink

import (
	"context"
	"errors"
	"sync"

	"throughput-bench/dataset"
)

// Memory is an in-process sink. It measures harness overhead and serves
// as a dry run target when no database is available.
type Memory struct {
	mu       sync.Mutex
	name     string
	columns  []string
	prepared bool
	rows     []dataset.Record
	closed   bool
}

func NewMemory(name string) *Memory {
	if name == "" {
		name = "Memory"
	}
	return &Memory{name: name}
}

var errClosed = errors.New("sink is closed")

func (m *Memory) Name() string { return m.name }

func (m *Memory) Ping(context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return errClosed
	}
	return nil
}

func (m *Memory) Prepare(_ context.Context, columns []string, replace bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return errClosed
	}
	if replace || !m.prepared {
		m.columns = append([]string(nil), columns...)
	}
	m.rows = nil
	m.prepared = true
	return nil
}

func (m *Memory) Insert(ctx context.Context, records []dataset.Record) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return errClosed
	}
	if !m.prepared {
		return errors.New("insert before prepare")
	}
	m.rows = append(m.rows, records...)
	return nil
}

func (m *Memory) Lookup(ctx context.Context, field string, value any) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return errClosed
	}
	// linear scan, like an unindexed table
	for _, r := range m.rows {
		if r[field] == value {
			break
		}
	}
	return nil
}

func (m *Memory) Clear(context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rows = nil
	return nil
}

func (m *Memory) Count(context.Context) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return int64(len(m.rows)), nil
}

func (m *Memory) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}
