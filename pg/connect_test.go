package pg

import (
	"testing"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"throughput-bench/config"
	"throughput-bench/dataset"
)

func TestDSN(t *testing.T) {
	c := config.Conn{Host: "db", Port: 5433, User: "bench", Password: "p@ss/word", Database: "olist"}

	dsn := DSN(c, "")
	assert.Contains(t, dsn, "sslmode=disable")

	cfg, err := pgxpool.ParseConfig(DSN(c, "require"))
	require.NoError(t, err)
	assert.Equal(t, "db", cfg.ConnConfig.Host)
	assert.Equal(t, uint16(5433), cfg.ConnConfig.Port)
	assert.Equal(t, "p@ss/word", cfg.ConnConfig.Password)
	assert.Equal(t, "olist", cfg.ConnConfig.Database)
}

func TestStatements(t *testing.T) {
	tbl := &Table{Table: "olist", columns: []string{"id", "price"}}

	q, args := tbl.lookupStatement("price", 9.5)
	assert.Equal(t, `SELECT * FROM "olist" WHERE "price" = $1 LIMIT 1`, q)
	assert.Equal(t, []any{"9.5"}, args)

	q, args = tbl.lookupStatement("price", nil)
	assert.Equal(t, `SELECT * FROM "olist" WHERE "price" IS NULL LIMIT 1`, q)
	assert.Empty(t, args)

	assert.Equal(t, `CREATE TABLE IF NOT EXISTS "olist" ("a" TEXT)`, tbl.createStatement([]string{`"a" TEXT`}))
}

func TestRows(t *testing.T) {
	tbl := &Table{Table: "olist", columns: []string{"id", "price"}}

	rows := tbl.rows([]dataset.Record{
		{"id": int64(7), "price": nil},
		{"id": "007", "price": 1.25},
	})

	assert.Equal(t, [][]any{{"7", nil}, {"007", "1.25"}}, rows)
}

func TestInsertBeforePrepare(t *testing.T) {
	tbl := &Table{Table: "olist"}
	assert.ErrorContains(t, tbl.Insert(t.Context(), []dataset.Record{{"id": "1"}}), "insert before prepare")
}
