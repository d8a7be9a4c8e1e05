// Package config loads benchmark settings from the environment and an
// optional .env file.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Config holds all benchmark configuration
type Config struct {
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`
	MetricsAddr string `env:"METRICS_ADDR"`

	Dataset   DatasetConfig
	Bench     BenchConfig
	Postgres  PostgresConfig
	MySQL     MySQLConfig
	SQLite    SQLiteConfig
	SQLServer SQLServerConfig
	Mongo     MongoConfig
}

type DatasetConfig struct {
	CSV       string `env:"DATASET_CSV" envDefault:"data/olist_dataset.csv"`
	Synthetic int    `env:"DATASET_SYNTHETIC" envDefault:"0"`
}

// BenchConfig tunes the harness policy.
type BenchConfig struct {
	Backoff       time.Duration `env:"BENCH_BACKOFF" envDefault:"1s"`
	MaxFailures   int           `env:"BENCH_MAX_FAILURES" envDefault:"3"`
	ProgressEvery int           `env:"BENCH_PROGRESS_EVERY" envDefault:"100"`
	OpTimeout     time.Duration `env:"BENCH_OP_TIMEOUT" envDefault:"0s"`
	Sinks         []string      `env:"BENCH_SINKS" envSeparator:"," envDefault:"sqlserver,mongo"`
}

// Conn is a host/port/credentials tuple shared by the SQL sinks.
type Conn struct {
	Host     string
	Port     int
	User     string
	Password string
	Database string
}

type PostgresConfig struct {
	Host     string `env:"PG_HOST" envDefault:"localhost"`
	Port     int    `env:"PG_PORT" envDefault:"5432"`
	User     string `env:"PG_USER" envDefault:"postgres"`
	Password string `env:"PG_PASSWORD"`
	Database string `env:"PG_DB" envDefault:"bench"`
	SSLMode  string `env:"PG_SSL_MODE" envDefault:"disable"`
	Table    string `env:"PG_TABLE" envDefault:"olist_dataset"`
	MaxConns int32  `env:"PG_MAX_CONNS" envDefault:"10"`
}

func (p PostgresConfig) Conn() Conn {
	return Conn{Host: p.Host, Port: p.Port, User: p.User, Password: p.Password, Database: p.Database}
}

type MySQLConfig struct {
	Host     string `env:"MYSQL_HOST" envDefault:"localhost"`
	Port     int    `env:"MYSQL_PORT" envDefault:"3306"`
	User     string `env:"MYSQL_USER" envDefault:"root"`
	Password string `env:"MYSQL_PASSWORD"`
	Database string `env:"MYSQL_DB" envDefault:"bench"`
	Table    string `env:"MYSQL_TABLE" envDefault:"olist_dataset"`
}

func (m MySQLConfig) Conn() Conn {
	return Conn{Host: m.Host, Port: m.Port, User: m.User, Password: m.Password, Database: m.Database}
}

type SQLiteConfig struct {
	Driver      string `env:"SQLITE_DRIVER" envDefault:"sqlite"`
	File        string `env:"SQLITE_FILE" envDefault:"bench.db"`
	Table       string `env:"SQLITE_TABLE" envDefault:"olist_dataset"`
	JournalMode string `env:"SQLITE_JOURNAL_MODE" envDefault:"WAL"`
	Synchronous string `env:"SQLITE_SYNCHRONOUS" envDefault:"NORMAL"`
	BusyTimeout int    `env:"SQLITE_BUSY_TIMEOUT" envDefault:"5000"`
	WithMutex   bool   `env:"SQLITE_WITH_MUTEX" envDefault:"false"`
}

// SQLServerConfig keeps the variable names of the original .env files.
type SQLServerConfig struct {
	Host     string `env:"DB_SERVER" envDefault:"localhost"`
	Port     int    `env:"DB_PORT" envDefault:"1433"`
	User     string `env:"DB_USERNAME" envDefault:"sa"`
	Password string `env:"DB_PASSWORD"`
	Database string `env:"DB_NAME" envDefault:"bench"`
	Table    string `env:"DB_TABLE" envDefault:"olist_dataset"`
	Encrypt  string `env:"DB_ENCRYPT" envDefault:"disable"`
}

func (s SQLServerConfig) Conn() Conn {
	return Conn{Host: s.Host, Port: s.Port, User: s.User, Password: s.Password, Database: s.Database}
}

type MongoConfig struct {
	URI        string        `env:"MONGO_URI"`
	Host       string        `env:"MONGO_HOST" envDefault:"localhost"`
	Port       int           `env:"MONGO_PORT" envDefault:"27017"`
	User       string        `env:"MONGO_USER"`
	Password   string        `env:"MONGO_PASSWORD"`
	Database   string        `env:"MONGO_DB" envDefault:"bench"`
	Collection string        `env:"MONGO_COLLECTION" envDefault:"olist_dataset"`
	AuthSource string        `env:"MONGO_AUTH_SOURCE" envDefault:"admin"`
	Timeout    time.Duration `env:"MONGO_SERVER_SELECTION_TIMEOUT" envDefault:"2s"`
}

// ConnectionURI returns MONGO_URI when set, otherwise builds one from parts.
func (m MongoConfig) ConnectionURI() string {
	if m.URI != "" {
		return m.URI
	}
	u := url.URL{
		Scheme: "mongodb",
		Host:   fmt.Sprintf("%s:%d", m.Host, m.Port),
		Path:   "/" + m.Database,
	}
	if m.User != "" {
		u.User = url.UserPassword(m.User, m.Password)
	}
	if m.AuthSource != "" && m.User != "" {
		u.RawQuery = url.Values{"authSource": {m.AuthSource}}.Encode()
	}
	return u.String()
}

// Load reads envFile (if present) and parses the environment.
// A missing default file is ignored; a missing explicit file is an error.
func Load(envFile string, explicit bool) (*Config, error) {
	if envFile != "" {
		if err := godotenv.Overload(envFile); err != nil {
			if explicit || !errors.Is(err, fs.ErrNotExist) {
				return nil, fmt.Errorf("load %s: %w", envFile, err)
			}
		}
	}

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse environment: %w", err)
	}
	return cfg, nil
}

// Level maps LOG_LEVEL to a slog level.
func (c *Config) Level() slog.Level {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
