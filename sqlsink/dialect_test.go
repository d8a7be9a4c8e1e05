package sqlsink

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"throughput-bench/dataset"
)

func TestQuoting(t *testing.T) {
	assert.Equal(t, "`a``b`", Backtick("a`b"))
	assert.Equal(t, `"a""b"`, DoubleQuote(`a"b`))
	assert.Equal(t, "[a]]b]", Bracket("a]b"))
}

func TestSQLServerStatements(t *testing.T) {
	assert.Equal(t,
		"IF OBJECT_ID(N'olist', N'U') IS NOT NULL DROP TABLE [olist]",
		SQLServer.DropTable("olist"))
	assert.Equal(t,
		"IF OBJECT_ID(N'olist', N'U') IS NULL CREATE TABLE [olist] ([a] NVARCHAR(MAX))",
		SQLServer.CreateTable("olist", "[a] NVARCHAR(MAX)", true))
	assert.Equal(t,
		"SELECT TOP 1 * FROM [olist] WHERE [a] = ?",
		SQLServer.SelectOne("olist", "[a] = ?"))
}

func TestPortableStatements(t *testing.T) {
	assert.Equal(t, "DROP TABLE IF EXISTS `olist`", MySQL.DropTable("olist"))
	assert.Equal(t, `CREATE TABLE "olist" (x)`, SQLite.CreateTable("olist", "x", false))
	assert.Equal(t, `SELECT * FROM "olist" WHERE w LIMIT 1`, SQLite.SelectOne("olist", "w"))
}

func TestRowsPerStatement(t *testing.T) {
	assert.Equal(t, 333, SQLite.rowsPerStatement(3))
	assert.Equal(t, 1000, SQLServer.rowsPerStatement(1))
	assert.Equal(t, 40, SQLServer.rowsPerStatement(50))
	assert.Equal(t, 1, SQLite.rowsPerStatement(5000))
}

func TestInsertStatement(t *testing.T) {
	tbl := &Table{Dialect: MySQL, Table: "olist", columns: []string{"id", "price"}}

	query, args := tbl.insertStatement([]dataset.Record{
		{"id": int64(1), "price": 9.5},
		{"id": int64(2), "price": nil},
	})

	assert.Equal(t, "INSERT INTO `olist` (`id`, `price`) VALUES (?,?),(?,?)", query)
	assert.Equal(t, []any{"1", "9.5", "2", nil}, args)
}
