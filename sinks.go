package main

import (
	"context"
	"fmt"
	"strings"

	"throughput-bench/config"
	"throughput-bench/lite"
	"throughput-bench/mongo"
	"throughput-bench/mssql"
	"throughput-bench/my"
	"throughput-bench/pg"
	"throughput-bench/sink"
)

var sinkNames = []string{"postgres", "mysql", "sqlite", "sqlserver", "mongo", "memory"}

// displayName is the system name a sink reports results under.
func displayName(name string) string {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "postgres", "pg":
		return "PostgreSQL"
	case "mysql", "my":
		return "MySQL"
	case "sqlite", "lite":
		return "SQLite"
	case "sqlserver", "mssql":
		return "SQL Server"
	case "mongo", "mongodb":
		return "MongoDB"
	case "memory":
		return "Memory"
	}
	return name
}

// openSink connects to the sink called name using cfg.
func openSink(ctx context.Context, name string, cfg *config.Config) (sink.Sink, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "postgres", "pg":
		t, err := pg.Open(ctx, cfg.Postgres)
		if err != nil {
			return nil, err
		}
		return t, nil

	case "mysql", "my":
		t, err := my.Open(ctx, cfg.MySQL.Conn(), cfg.MySQL.Table)
		if err != nil {
			return nil, err
		}
		return t, nil

	case "sqlite", "lite":
		s := cfg.SQLite
		t, err := lite.Open(s.Driver, s.File, s.Table, lite.Pragma{
			WithMutex:   s.WithMutex,
			BusyTimeout: s.BusyTimeout,
			JournalMode: s.JournalMode,
			Synchronous: s.Synchronous,
		})
		if err != nil {
			return nil, err
		}
		return t, nil

	case "sqlserver", "mssql":
		t, err := mssql.Open(ctx, cfg.SQLServer)
		if err != nil {
			return nil, err
		}
		return t, nil

	case "mongo", "mongodb":
		c, err := mongo.Open(ctx, cfg.Mongo)
		if err != nil {
			return nil, err
		}
		return c, nil

	case "memory":
		return sink.NewMemory(""), nil
	}
	return nil, fmt.Errorf("unknown sink %q, want one of %s", name, strings.Join(sinkNames, ", "))
}
