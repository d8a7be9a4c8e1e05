// Package lite opens SQLite databases as benchmark sinks.
//
//	driver=sqlite3 use github.com/mattn/go-sqlite3 (cgo)
//	driver=sqlite  use modernc.org/sqlite
package lite

import (
	"fmt"
	"net/url"
	"sync"

	"github.com/jmoiron/sqlx"

	_ "github.com/mattn/go-sqlite3"
	_ "modernc.org/sqlite"

	"throughput-bench/sqlsink"
)

// Pragma is the SQLite connection configuration.
//
// https://www.sqlite.org/pragma.html
type Pragma struct {
	WithMutex bool

	BusyTimeout       int
	Cache             string
	CacheSize         int
	FullSync          bool
	JournalMode       string
	MmapSize          int
	Synchronous       string
	TempStore         string
	WALAutoCheckpoint int
}

func (p Pragma) encode(driver string) string {
	switch driver {
	case "sqlite3":
		return p.encodeMattn()
	case "sqlite":
		return p.encodeModernc()
	}
	return ""
}

func (p Pragma) encodeMattn() string {
	val := url.Values{}

	if v := p.JournalMode; v != "" {
		val.Set("_journal_mode", v)
	}
	if v := p.Synchronous; v != "" {
		val.Set("_synchronous", v)
	}
	if v := p.CacheSize; v != 0 {
		val.Set("_cache_size", fmt.Sprintf("%d", v))
	}
	if v := p.BusyTimeout; v != 0 {
		val.Set("_busy_timeout", fmt.Sprintf("%d", v))
	}
	if p.FullSync {
		val.Set("_fullsync", "1")
	}
	if v := p.TempStore; v != "" {
		val.Set("_temp_store", v)
	}
	if v := p.MmapSize; v != 0 {
		val.Set("_mmap_size", fmt.Sprintf("%d", v))
	}
	if v := p.Cache; v != "" {
		val.Set("cache", v)
	}
	if v := p.WALAutoCheckpoint; v != 0 {
		val.Set("_wal_autocheckpoint", fmt.Sprintf("%d", v))
	}

	result, _ := url.QueryUnescape(val.Encode())
	return result
}

func (p Pragma) encodeModernc() string {
	val := url.Values{}

	if v := p.JournalMode; v != "" {
		val.Add("_pragma", fmt.Sprintf("journal_mode(%s)", v))
	}
	if v := p.Synchronous; v != "" {
		val.Add("_pragma", fmt.Sprintf("synchronous(%s)", v))
	}
	if v := p.CacheSize; v != 0 {
		val.Add("_pragma", fmt.Sprintf("cache_size(%d)", v))
	}
	if v := p.BusyTimeout; v != 0 {
		val.Add("_pragma", fmt.Sprintf("busy_timeout(%d)", v))
	}
	if p.FullSync {
		val.Add("_pragma", "fullfsync(1)")
	}
	if v := p.TempStore; v != "" {
		val.Add("_pragma", fmt.Sprintf("temp_store(%s)", v))
	}
	if v := p.MmapSize; v != 0 {
		val.Add("_pragma", fmt.Sprintf("mmap_size(%d)", v))
	}
	if v := p.Cache; v != "" {
		val.Set("cache", v)
	}
	if v := p.WALAutoCheckpoint; v != 0 {
		val.Add("_pragma", fmt.Sprintf("wal_autocheckpoint(%d)", v))
	}

	result, _ := url.QueryUnescape(val.Encode())
	return result
}

// DSN builds the driver-specific connection string for file.
func DSN(driver, file string, pragma Pragma) string {
	q := pragma.encode(driver)
	if q == "" {
		return file
	}
	return file + "?" + q
}

// Open connects to the SQLite file and returns a table sink.
func Open(driver, file, table string, pragma Pragma) (*sqlsink.Table, error) {
	switch driver {
	case "sqlite", "sqlite3":
	default:
		return nil, fmt.Errorf("unknown sqlite driver %q", driver)
	}

	db, err := sqlx.Connect(driver, DSN(driver, file, pragma))
	if err != nil {
		return nil, fmt.Errorf("connect sqlite %s: %w", file, err)
	}

	t := sqlsink.New(db, "SQLite", table, sqlsink.SQLite)
	if pragma.WithMutex {
		t.Mutex = &sync.RWMutex{}
	}
	return t, nil
}
