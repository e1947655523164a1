package database

import (
	"fmt"
	"strings"

	"github.com/koustreak/clientbook/internal/errs"
)

// Dialect controls which SQL placeholder and quoting style is emitted.
type Dialect int

const (
	// DialectPostgres uses $1, $2, … placeholders and "ident" quoting.
	DialectPostgres Dialect = iota

	// DialectMySQL uses ? placeholders and `ident` quoting.
	DialectMySQL

	// DialectSQLite uses ? placeholders and "ident" quoting.
	DialectSQLite
)

func (d Dialect) String() string {
	switch d {
	case DialectMySQL:
		return "mysql"
	case DialectSQLite:
		return "sqlite"
	default:
		return "postgres"
	}
}

// Placeholder returns the parameter placeholder for the 1-based index idx.
func (d Dialect) Placeholder(idx int) string {
	if d == DialectPostgres {
		return fmt.Sprintf("$%d", idx)
	}
	return "?"
}

// QuoteIdent quotes a possibly qualified identifier ("c.client_id").
func (d Dialect) QuoteIdent(name string) string {
	parts := strings.Split(name, ".")
	for i, p := range parts {
		if d == DialectMySQL {
			parts[i] = "`" + strings.ReplaceAll(p, "`", "``") + "`"
		} else {
			parts[i] = `"` + strings.ReplaceAll(p, `"`, `""`) + `"`
		}
	}
	return strings.Join(parts, ".")
}

// Rebind rewrites ? placeholders into the dialect's style. Statements are
// written once with ? and rebound per engine; quoted literals are skipped.
func (d Dialect) Rebind(sql string) string {
	if d != DialectPostgres {
		return sql
	}

	var sb strings.Builder
	sb.Grow(len(sql) + 8)
	idx := 1
	inQuote := false
	for _, r := range sql {
		switch {
		case r == '\'':
			inQuote = !inQuote
			sb.WriteRune(r)
		case r == '?' && !inQuote:
			sb.WriteString(d.Placeholder(idx))
			idx++
		default:
			sb.WriteRune(r)
		}
	}
	return sb.String()
}

// validOps is the allowlist of comparison operators for WHERE clauses.
// The operator position cannot be parameterized, so anything else is rejected.
var validOps = map[string]bool{
	"=":     true,
	"!=":    true,
	"<>":    true,
	"<":     true,
	">":     true,
	"<=":    true,
	">=":    true,
	"LIKE":  true,
	"ILIKE": true,
}

// SelectBuilder constructs a parameterized SELECT query using a fluent API.
// Values are never interpolated into the SQL string; they are always passed as args.
//
// Usage (Postgres):
//
//	sql, args, err := Select("client", DialectPostgres).
//	    As("c").
//	    Columns("c.client_id").
//	    Join("phone", "p", "p.client_id", "c.client_id").
//	    Where("p.number", "=", "5555551234").
//	    OrderBy("c.client_id", Asc).
//	    Limit(1).
//	    Build()
type SelectBuilder struct {
	table   string
	alias   string
	dialect Dialect
	columns []string
	joins   []joinClause
	where   []whereClause
	orderBy []orderClause
	limit   *int
	offset  *int
}

// SortDirection controls the ORDER BY direction.
type SortDirection bool

const (
	Asc  SortDirection = false
	Desc SortDirection = true
)

type whereClause struct {
	column string
	op     string
	value  any
}

type orderClause struct {
	column string
	dir    SortDirection
}

type joinClause struct {
	table string
	alias string
	left  string
	right string
}

// Select starts a new SelectBuilder for the given table and dialect.
func Select(table string, d Dialect) *SelectBuilder {
	return &SelectBuilder{table: table, dialect: d}
}

// As sets an alias for the FROM table.
func (b *SelectBuilder) As(alias string) *SelectBuilder {
	b.alias = alias
	return b
}

// Columns restricts the SELECT to the specified columns.
// If not called, SELECT * is used.
func (b *SelectBuilder) Columns(cols ...string) *SelectBuilder {
	b.columns = cols
	return b
}

// Join adds an inner join on left = right.
func (b *SelectBuilder) Join(table, alias, left, right string) *SelectBuilder {
	b.joins = append(b.joins, joinClause{table, alias, left, right})
	return b
}

// Where adds a WHERE condition. op must be one of the allowed comparison
// operators (=, !=, <, >, <=, >=, LIKE, ILIKE).
// Multiple calls are combined with AND.
func (b *SelectBuilder) Where(column, op string, value any) *SelectBuilder {
	b.where = append(b.where, whereClause{column, op, value})
	return b
}

// HasWhere reports whether any condition was added.
func (b *SelectBuilder) HasWhere() bool {
	return len(b.where) > 0
}

// OrderBy appends an ORDER BY clause for the given column and direction.
func (b *SelectBuilder) OrderBy(column string, dir SortDirection) *SelectBuilder {
	b.orderBy = append(b.orderBy, orderClause{column, dir})
	return b
}

// Limit sets the maximum number of rows to return.
func (b *SelectBuilder) Limit(n int) *SelectBuilder {
	b.limit = &n
	return b
}

// Offset sets the number of rows to skip (for pagination).
func (b *SelectBuilder) Offset(n int) *SelectBuilder {
	b.offset = &n
	return b
}

// Build produces the final SQL string and argument slice.
// Returns an invalid_input error if any WHERE operator is not in the allowlist.
func (b *SelectBuilder) Build() (string, []any, error) {
	q := b.dialect.QuoteIdent

	// --- column list ---
	cols := "*"
	if len(b.columns) > 0 {
		quoted := make([]string, len(b.columns))
		for i, c := range b.columns {
			quoted[i] = q(c)
		}
		cols = strings.Join(quoted, ", ")
	}

	var sb strings.Builder
	sb.WriteString("SELECT ")
	sb.WriteString(cols)
	sb.WriteString(" FROM ")
	sb.WriteString(b.tableRef(b.table, b.alias))

	// --- JOIN ---
	for _, j := range b.joins {
		fmt.Fprintf(&sb, " JOIN %s ON %s = %s", b.tableRef(j.table, j.alias), q(j.left), q(j.right))
	}

	var args []any
	argIdx := 1

	// --- WHERE ---
	if len(b.where) > 0 {
		parts := make([]string, 0, len(b.where))
		for _, w := range b.where {
			op := strings.ToUpper(w.op)
			if !validOps[op] {
				return "", nil, errs.Newf(errs.ErrKindInvalidInput, "unsupported WHERE operator: %q", w.op)
			}
			if op == "ILIKE" && b.dialect != DialectPostgres {
				return "", nil, errs.Newf(errs.ErrKindInvalidInput, "ILIKE is not supported by %s", b.dialect)
			}
			parts = append(parts, fmt.Sprintf("%s %s %s", q(w.column), op, b.dialect.Placeholder(argIdx)))
			args = append(args, w.value)
			argIdx++
		}
		sb.WriteString(" WHERE ")
		sb.WriteString(strings.Join(parts, " AND "))
	}

	// --- ORDER BY ---
	if len(b.orderBy) > 0 {
		parts := make([]string, len(b.orderBy))
		for i, o := range b.orderBy {
			dir := "ASC"
			if o.dir == Desc {
				dir = "DESC"
			}
			parts[i] = fmt.Sprintf("%s %s", q(o.column), dir)
		}
		sb.WriteString(" ORDER BY ")
		sb.WriteString(strings.Join(parts, ", "))
	}

	// --- LIMIT ---
	if b.limit != nil {
		fmt.Fprintf(&sb, " LIMIT %s", b.dialect.Placeholder(argIdx))
		args = append(args, *b.limit)
		argIdx++
	}

	// --- OFFSET ---
	if b.offset != nil {
		fmt.Fprintf(&sb, " OFFSET %s", b.dialect.Placeholder(argIdx))
		args = append(args, *b.offset)
	}

	return sb.String(), args, nil
}

func (b *SelectBuilder) tableRef(table, alias string) string {
	if alias == "" {
		return b.dialect.QuoteIdent(table)
	}
	return b.dialect.QuoteIdent(table) + " AS " + b.dialect.QuoteIdent(alias)
}
