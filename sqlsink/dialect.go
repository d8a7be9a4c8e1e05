// Package sqlsink stores a dataset in a relational table through sqlx.
// Every column is text, matching how the dataset is loaded.
package sqlsink

import (
	"fmt"
	"strings"
)

// Dialect holds the statements that differ between SQL engines.
type Dialect struct {
	// Quote quotes an identifier.
	Quote func(ident string) string
	// TextType is the column type used for every field.
	TextType string
	// DropTable drops the table when it exists.
	DropTable func(table string) string
	// CreateTable creates the table, skipping it when ifNotExists and present.
	CreateTable func(table, columnDefs string, ifNotExists bool) string
	// SelectOne selects at most one row matching where.
	SelectOne func(table, where string) string
	// MaxParams bounds bind parameters per statement.
	MaxParams int
	// MaxRows bounds rows per multi-row INSERT, 0 for no limit.
	MaxRows int
}

func quoteWith(open, end string) func(string) string {
	return func(ident string) string {
		return open + strings.ReplaceAll(ident, end, end+end) + end
	}
}

// Backtick quoting, as used by MySQL.
var Backtick = quoteWith("`", "`")

// DoubleQuote is ANSI identifier quoting.
var DoubleQuote = quoteWith(`"`, `"`)

// Bracket quoting, as used by SQL Server.
var Bracket = quoteWith("[", "]")

func dropIfExists(quote func(string) string) func(string) string {
	return func(table string) string {
		return "DROP TABLE IF EXISTS " + quote(table)
	}
}

func createTable(quote func(string) string) func(string, string, bool) string {
	return func(table, defs string, ifNotExists bool) string {
		if ifNotExists {
			return fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (%s)", quote(table), defs)
		}
		return fmt.Sprintf("CREATE TABLE %s (%s)", quote(table), defs)
	}
}

func selectLimit(quote func(string) string) func(string, string) string {
	return func(table, where string) string {
		return fmt.Sprintf("SELECT * FROM %s WHERE %s LIMIT 1", quote(table), where)
	}
}

var MySQL = Dialect{
	Quote:       Backtick,
	TextType:    "LONGTEXT",
	DropTable:   dropIfExists(Backtick),
	CreateTable: createTable(Backtick),
	SelectOne:   selectLimit(Backtick),
	MaxParams:   65535,
}

var SQLite = Dialect{
	Quote:       DoubleQuote,
	TextType:    "TEXT",
	DropTable:   dropIfExists(DoubleQuote),
	CreateTable: createTable(DoubleQuote),
	SelectOne:   selectLimit(DoubleQuote),
	MaxParams:   999,
}

var SQLServer = Dialect{
	Quote:    Bracket,
	TextType: "NVARCHAR(MAX)",
	DropTable: func(table string) string {
		return fmt.Sprintf("IF OBJECT_ID(N'%s', N'U') IS NOT NULL DROP TABLE %s",
			strings.ReplaceAll(table, "'", "''"), Bracket(table))
	},
	CreateTable: func(table, defs string, ifNotExists bool) string {
		create := fmt.Sprintf("CREATE TABLE %s (%s)", Bracket(table), defs)
		if !ifNotExists {
			return create
		}
		return fmt.Sprintf("IF OBJECT_ID(N'%s', N'U') IS NULL %s",
			strings.ReplaceAll(table, "'", "''"), create)
	},
	SelectOne: func(table, where string) string {
		return fmt.Sprintf("SELECT TOP 1 * FROM %s WHERE %s", Bracket(table), where)
	},
	MaxParams: 2000,
	MaxRows:   1000,
}

// rowsPerStatement is how many rows of width columns fit one INSERT.
func (d Dialect) rowsPerStatement(width int) int {
	if width <= 0 {
		return 1
	}
	n := d.MaxParams / width
	if n < 1 {
		n = 1
	}
	if d.MaxRows > 0 && n > d.MaxRows {
		n = d.MaxRows
	}
	return n
}
