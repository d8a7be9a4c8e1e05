// Package my stores the dataset in a MySQL table.
package my

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/jmoiron/sqlx"

	"throughput-bench/config"
	"throughput-bench/sqlsink"
)

// DSN builds the go-sql-driver connection string for c.
func DSN(c config.Conn) string {
	cfg := mysql.NewConfig()
	cfg.User = c.User
	cfg.Passwd = c.Password
	cfg.Net = "tcp"
	cfg.Addr = fmt.Sprintf("%s:%d", c.Host, c.Port)
	cfg.DBName = c.Database
	cfg.ParseTime = true
	cfg.InterpolateParams = true
	cfg.AllowCleartextPasswords = true
	cfg.Timeout = 30 * time.Second
	return cfg.FormatDSN()
}

func Connect(ctx context.Context, c config.Conn) (*sql.DB, error) {
	db, err := sql.Open("mysql", DSN(c))
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(30 * time.Minute)

	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

// Open connects and returns a sink for table.
func Open(ctx context.Context, c config.Conn, table string) (*sqlsink.Table, error) {
	db, err := Connect(ctx, c)
	if err != nil {
		return nil, fmt.Errorf("connect mysql %s:%d: %w", c.Host, c.Port, err)
	}
	return sqlsink.New(sqlx.NewDb(db, "mysql"), "MySQL", table, sqlsink.MySQL), nil
}
