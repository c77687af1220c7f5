package database

import "strings"

// Stmt is a compiled, parameterized statement. Values are never
// interpolated into SQL; they travel in Args, one per placeholder.
type Stmt struct {
	SQL   string
	Args  []any
	Binds []string // bind token of each arg, e.g. ":emp_no"
}

// Builder assembles a Stmt piece by piece.
//
// Usage:
//
//	var b database.Builder
//	b.Write("DELETE FROM ").Ident("employees").Write(" WHERE ")
//	b.Ident("emp_no").Write(" = ").Bind(":emp_no", 10001)
//	stmt := b.Build()
//	// DELETE FROM `employees` WHERE `emp_no` = ?   args: [10001]
type Builder struct {
	sb    strings.Builder
	args  []any
	binds []string
}

// Write appends raw SQL.
func (b *Builder) Write(sql string) *Builder {
	b.sb.WriteString(sql)
	return b
}

// Ident appends a quoted identifier.
func (b *Builder) Ident(name string) *Builder {
	b.sb.WriteString(QuoteIdent(name))
	return b
}

// Idents appends a comma-separated list of quoted identifiers.
func (b *Builder) Idents(names []string) *Builder {
	for i, n := range names {
		if i > 0 {
			b.sb.WriteString(", ")
		}
		b.Ident(n)
	}
	return b
}

// Bind appends a placeholder for value and records its bind token.
func (b *Builder) Bind(token string, value any) *Builder {
	b.sb.WriteString("?")
	b.args = append(b.args, value)
	b.binds = append(b.binds, token)
	return b
}

// Build returns the finished statement.
func (b *Builder) Build() Stmt {
	return Stmt{SQL: b.sb.String(), Args: b.args, Binds: b.binds}
}

// QuoteIdent wraps a MySQL identifier in backticks, doubling any embedded
// backtick. This safely handles reserved words and unusual names.
func QuoteIdent(name string) string {
	return "`" + strings.ReplaceAll(name, "`", "``") + "`"
}
