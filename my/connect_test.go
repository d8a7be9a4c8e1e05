package my

import (
	"testing"

	"github.com/go-sql-driver/mysql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"throughput-bench/config"
)

func TestDSN(t *testing.T) {
	dsn := DSN(config.Conn{Host: "db", Port: 3307, User: "bench", Password: "p@ss:word", Database: "olist"})

	cfg, err := mysql.ParseDSN(dsn)
	require.NoError(t, err)
	assert.Equal(t, "tcp", cfg.Net)
	assert.Equal(t, "db:3307", cfg.Addr)
	assert.Equal(t, "bench", cfg.User)
	assert.Equal(t, "p@ss:word", cfg.Passwd)
	assert.Equal(t, "olist", cfg.DBName)
	assert.True(t, cfg.ParseTime)
	assert.True(t, cfg.InterpolateParams)
}
