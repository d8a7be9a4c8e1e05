// Package mssql stores the dataset in a SQL Server table.
package mssql

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/microsoft/go-mssqldb"

	"throughput-bench/config"
	"throughput-bench/sqlsink"
)

// URL builds a sqlserver:// connection string for database.
func URL(c config.Conn, database, encrypt string) string {
	q := url.Values{}
	q.Set("database", database)
	q.Set("TrustServerCertificate", "true")
	if encrypt != "" {
		q.Set("encrypt", encrypt)
	}
	u := url.URL{
		Scheme:   "sqlserver",
		User:     url.UserPassword(c.User, c.Password),
		Host:     fmt.Sprintf("%s:%d", c.Host, c.Port),
		RawQuery: q.Encode(),
	}
	return u.String()
}

func connect(ctx context.Context, dsn string) (*sqlx.DB, error) {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	db, err := sqlx.ConnectContext(ctx, "sqlserver", dsn)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(30 * time.Minute)
	return db, nil
}

// EnsureDatabase creates the configured database when it is missing.
func EnsureDatabase(ctx context.Context, cfg config.SQLServerConfig) error {
	db, err := connect(ctx, URL(cfg.Conn(), "master", cfg.Encrypt))
	if err != nil {
		return fmt.Errorf("connect sqlserver %s:%d: %w", cfg.Host, cfg.Port, err)
	}
	defer db.Close()

	var n int
	if err := db.GetContext(ctx, &n, "SELECT COUNT(*) FROM sys.databases WHERE name = @p1", cfg.Database); err != nil {
		return fmt.Errorf("check database %s: %w", cfg.Database, err)
	}
	if n > 0 {
		return nil
	}
	if _, err := db.ExecContext(ctx, "CREATE DATABASE "+sqlsink.Bracket(cfg.Database)); err != nil {
		return fmt.Errorf("create database %s: %w", cfg.Database, err)
	}
	return nil
}

// Open ensures the database exists and returns a sink for cfg.Table.
func Open(ctx context.Context, cfg config.SQLServerConfig) (*sqlsink.Table, error) {
	if err := EnsureDatabase(ctx, cfg); err != nil {
		return nil, err
	}
	db, err := connect(ctx, URL(cfg.Conn(), cfg.Database, cfg.Encrypt))
	if err != nil {
		return nil, fmt.Errorf("connect sqlserver %s/%s: %w", cfg.Host, cfg.Database, err)
	}
	return sqlsink.New(db, "SQL Server", cfg.Table, sqlsink.SQLServer), nil
}
