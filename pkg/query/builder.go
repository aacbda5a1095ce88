package query

import (
	"fmt"
	"reflect"
	"strings"
)

// SortField is one ORDER BY term keyed by projected field name.
type SortField struct {
	Field      string `json:"field"`
	Descending bool   `json:"descending"`
}

// ParseSortFields parses "name,-created_at" into sort fields; a leading
// "-" sorts descending.
func ParseSortFields(s string) []SortField {
	var fields []SortField
	for part := range strings.SplitSeq(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		if after, ok := strings.CutPrefix(part, "-"); ok {
			fields = append(fields, SortField{Field: after, Descending: true})
			continue
		}
		fields = append(fields, SortField{Field: part})
	}
	return fields
}

// Builder accumulates WHERE conditions and ordering for a projection.
// Placeholders are numbered as arguments are added, so conditions may be
// appended in any order.
type Builder struct {
	projection  *Projection
	where       []string
	args        []any
	sort        []SortField
	defaultSort []SortField
}

// NewBuilder returns a Builder that falls back to defaultSort when no
// explicit ordering is requested.
func NewBuilder(p *Projection, defaultSort ...SortField) *Builder {
	return &Builder{projection: p, defaultSort: defaultSort}
}

func (b *Builder) bind(v any) string {
	b.args = append(b.args, v)
	return fmt.Sprintf("$%d", len(b.args))
}

// WhereEquals adds field = value. Nil pointers and empty strings are skipped.
func (b *Builder) WhereEquals(field string, value any) *Builder {
	v, ok := deref(value)
	if !ok {
		return b
	}
	if col, known := b.projection.Column(field); known {
		b.where = append(b.where, fmt.Sprintf("%s = %s", col, b.bind(v)))
	}
	return b
}

// WhereFold adds a case-insensitive equality on a text field.
func (b *Builder) WhereFold(field string, value *string) *Builder {
	if value == nil || *value == "" {
		return b
	}
	if col, known := b.projection.Column(field); known {
		b.where = append(b.where, fmt.Sprintf("LOWER(%s) = LOWER(%s)", col, b.bind(*value)))
	}
	return b
}

// WhereRange bounds field by optional inclusive from and exclusive to values.
func (b *Builder) WhereRange(field string, from, to any) *Builder {
	col, known := b.projection.Column(field)
	if !known {
		return b
	}
	if v, ok := deref(from); ok {
		b.where = append(b.where, fmt.Sprintf("%s >= %s", col, b.bind(v)))
	}
	if v, ok := deref(to); ok {
		b.where = append(b.where, fmt.Sprintf("%s < %s", col, b.bind(v)))
	}
	return b
}

// WhereSearch matches search against any of fields with ILIKE.
func (b *Builder) WhereSearch(search *string, fields ...string) *Builder {
	if search == nil || *search == "" {
		return b
	}

	pattern := "%" + escapeLike(*search) + "%"
	var ors []string
	for _, f := range fields {
		if col, known := b.projection.Column(f); known {
			ors = append(ors, fmt.Sprintf("%s::text ILIKE %s", col, b.bind(pattern)))
		}
	}
	if len(ors) > 0 {
		b.where = append(b.where, "("+strings.Join(ors, " OR ")+")")
	}
	return b
}

// OrderBy replaces the default ordering. Unknown fields are ignored.
func (b *Builder) OrderBy(fields []SortField) *Builder {
	b.sort = fields
	return b
}

// Build returns the unpaged SELECT.
func (b *Builder) Build() (string, []any) {
	return fmt.Sprintf("SELECT %s FROM %s%s%s",
		b.projection.Columns(), b.projection.From(), b.whereClause(), b.orderClause()), b.args
}

// BuildCount returns a COUNT(*) over the current conditions.
func (b *Builder) BuildCount() (string, []any) {
	return fmt.Sprintf("SELECT COUNT(*) FROM %s%s", b.projection.From(), b.whereClause()), b.args
}

// BuildPage returns the SELECT limited to one page. page is 1-based.
func (b *Builder) BuildPage(page, size int) (string, []any) {
	sql, args := b.Build()
	return fmt.Sprintf("%s LIMIT %d OFFSET %d", sql, size, (page-1)*size), args
}

// BuildSingle returns a SELECT of the row whose field equals id, combined
// with any conditions already added.
func (b *Builder) BuildSingle(field string, id any) (string, []any) {
	b.WhereEquals(field, id)
	return fmt.Sprintf("SELECT %s FROM %s%s",
		b.projection.Columns(), b.projection.From(), b.whereClause()), b.args
}

func (b *Builder) whereClause() string {
	if len(b.where) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(b.where, " AND ")
}

func (b *Builder) orderClause() string {
	fields := b.sort
	if len(fields) == 0 {
		fields = b.defaultSort
	}

	var terms []string
	for _, f := range fields {
		col, known := b.projection.Column(f.Field)
		if !known {
			continue
		}
		dir := "ASC"
		if f.Descending {
			dir = "DESC"
		}
		terms = append(terms, col+" "+dir)
	}
	if len(terms) == 0 {
		return ""
	}
	return " ORDER BY " + strings.Join(terms, ", ")
}

func deref(value any) (any, bool) {
	if value == nil {
		return nil, false
	}
	rv := reflect.ValueOf(value)
	if rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			return nil, false
		}
		rv = rv.Elem()
		value = rv.Interface()
	}
	if rv.Kind() == reflect.String {
		return rv.String(), rv.Len() > 0
	}

	switch v := value.(type) {
	case interface{ IsZero() bool }:
		return v, !v.IsZero()
	default:
		return v, true
	}
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, "%", `\%`, "_", `\_`).Replace(s)
}
