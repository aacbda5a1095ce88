// Package query builds parameterized PostgreSQL SELECT statements over a
// projected table.
package query

import (
	"fmt"
	"strings"
)

// Projection maps API field names onto alias-qualified columns of one table.
// Only projected fields may be filtered or sorted on.
type Projection struct {
	table   string
	alias   string
	columns map[string]string
	order   []string
}

// NewProjection starts a projection over table, referenced as alias.
func NewProjection(table, alias string) *Projection {
	return &Projection{
		table:   table,
		alias:   alias,
		columns: make(map[string]string),
	}
}

// Project maps column to field and appends it to the select list.
func (p *Projection) Project(column, field string) *Projection {
	qualified := p.alias + "." + column
	p.columns[field] = qualified
	p.order = append(p.order, qualified)
	return p
}

// From returns the "table alias" reference.
func (p *Projection) From() string {
	return fmt.Sprintf("%s %s", p.table, p.alias)
}

// Column returns the qualified column for field.
func (p *Projection) Column(field string) (string, bool) {
	col, ok := p.columns[field]
	return col, ok
}

// Columns returns the select list in projection order.
func (p *Projection) Columns() string {
	return strings.Join(p.order, ", ")
}
