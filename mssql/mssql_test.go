package mssql

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"throughput-bench/config"
)

func TestURL(t *testing.T) {
	c := config.Conn{Host: "sql", Port: 1433, User: "sa", Password: "Str0ng#Pass"}

	u, err := url.Parse(URL(c, "olist", "disable"))
	require.NoError(t, err)

	assert.Equal(t, "sqlserver", u.Scheme)
	assert.Equal(t, "sql:1433", u.Host)
	pw, _ := u.User.Password()
	assert.Equal(t, "Str0ng#Pass", pw)
	assert.Equal(t, "olist", u.Query().Get("database"))
	assert.Equal(t, "disable", u.Query().Get("encrypt"))
	assert.Equal(t, "true", u.Query().Get("TrustServerCertificate"))
}

func TestURLWithoutEncrypt(t *testing.T) {
	u, err := url.Parse(URL(config.Conn{Host: "sql", Port: 1433}, "master", ""))
	require.NoError(t, err)
	assert.False(t, u.Query().Has("encrypt"))
}
