// Package sqlfilter compiles caller-supplied listing parameters into
// parameterized SQL. Sort and search identifiers are resolved through
// allow-lists so raw caller strings never reach the query text; all values
// flow through positional parameters.
package sqlfilter

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// Op is a comparison operator for a filter predicate.
type Op string

const (
	OpEq  Op = "="
	OpGte Op = ">="
	OpLte Op = "<="
)

// CoerceFunc validates and converts a raw query-string value. Returning an
// error drops the predicate without failing the request.
type CoerceFunc func(raw string) (any, error)

// Text trims whitespace and rejects empty values.
func Text(raw string) (any, error) {
	v := strings.TrimSpace(raw)
	if v == "" {
		return nil, fmt.Errorf("empty value")
	}
	return v, nil
}

// Float parses a decimal number.
func Float(raw string) (any, error) {
	v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil {
		return nil, fmt.Errorf("parse float %q: %w", raw, err)
	}
	return v, nil
}

// Date parses a YYYY-MM-DD value as midnight UTC.
func Date(raw string) (any, error) {
	t, err := time.Parse("2006-01-02", strings.TrimSpace(raw))
	if err != nil {
		return nil, fmt.Errorf("parse date %q: %w", raw, err)
	}
	return t, nil
}

// DateEndOfDay parses a YYYY-MM-DD value as the last instant of that day, so
// a <= bound includes the entire day.
func DateEndOfDay(raw string) (any, error) {
	v, err := Date(raw)
	if err != nil {
		return nil, err
	}
	t := v.(time.Time)
	return t.Add(24*time.Hour - time.Nanosecond), nil
}

// Filter declares one optional predicate: the query parameter it reads, the
// column it compares, the operator, and the value coercion.
type Filter struct {
	Param  string
	Column string
	Op     Op
	Coerce CoerceFunc
}

// Schema is the static description of a filterable collection. Table may
// include join clauses; Columns is the select list for the row query. Map
// keys are the caller-facing parameter values, map values the column
// literals interpolated into the query.
type Schema struct {
	Table         string
	Columns       string
	SortFields    map[string]string
	DefaultSort   string
	DefaultOrder  string
	SearchFields  map[string]string
	DefaultSearch string
	Filters       []Filter
}

type predicate struct {
	// expr holds one %d verb for the positional parameter number, assigned
	// at render time so row and count queries number independently.
	expr  string
	value any
}

// Query is a compiled predicate set plus sanitized sort state. Rows and
// Count render it into the two final queries.
type Query struct {
	schema     Schema
	predicates []predicate
	sortColumn string
	sortOrder  string
	applied    map[string]string
}

// Compile sanitizes sortBy/sortOrder/searchBy against the schema's
// allow-lists (silently falling back to defaults), then walks the schema's
// filters in declared order appending a predicate for each present,
// coercible parameter, and finally appends a case-insensitive substring
// search predicate when a search term is given.
func Compile(schema Schema, raw url.Values) *Query {
	q := &Query{
		schema:  schema,
		applied: make(map[string]string),
	}

	q.sortColumn = schema.DefaultSort
	if col, ok := schema.SortFields[raw.Get("sortBy")]; ok {
		q.sortColumn = col
		q.applied["sortBy"] = raw.Get("sortBy")
	}

	q.sortOrder = strings.ToUpper(schema.DefaultOrder)
	if q.sortOrder != "DESC" {
		q.sortOrder = "ASC"
	}
	switch strings.ToLower(raw.Get("sortOrder")) {
	case "asc":
		q.sortOrder = "ASC"
		q.applied["sortOrder"] = "asc"
	case "desc":
		q.sortOrder = "DESC"
		q.applied["sortOrder"] = "desc"
	}

	for _, f := range schema.Filters {
		rawVal := raw.Get(f.Param)
		if rawVal == "" {
			continue
		}
		coerce := f.Coerce
		if coerce == nil {
			coerce = Text
		}
		val, err := coerce(rawVal)
		if err != nil {
			continue
		}
		q.predicates = append(q.predicates, predicate{
			expr:  f.Column + " " + string(f.Op) + " $%d",
			value: val,
		})
		q.applied[f.Param] = rawVal
	}

	if term := strings.TrimSpace(raw.Get("search")); term != "" {
		searchColumn := schema.DefaultSearch
		if col, ok := schema.SearchFields[raw.Get("searchBy")]; ok {
			searchColumn = col
			q.applied["searchBy"] = raw.Get("searchBy")
		}
		if searchColumn != "" {
			q.predicates = append(q.predicates, predicate{
				expr:  searchColumn + " ILIKE $%d",
				value: "%" + term + "%",
			})
			q.applied["search"] = term
		}
	}

	return q
}

// where renders the predicate list with positional numbering starting at 1.
// Each call produces a fresh arg slice so callers can never share numbering.
func (q *Query) where() (string, []any) {
	if len(q.predicates) == 0 {
		return "", nil
	}
	clauses := make([]string, 0, len(q.predicates))
	args := make([]any, 0, len(q.predicates))
	for i, p := range q.predicates {
		clauses = append(clauses, fmt.Sprintf(p.expr, i+1))
		args = append(args, p.value)
	}
	return " WHERE " + strings.Join(clauses, " AND "), args
}

// Rows renders the paginated row query. Page and perPage are clamped to
// positive values; offset is (page-1)*perPage.
func (q *Query) Rows(page, perPage int) (string, []any) {
	if page < 1 {
		page = 1
	}
	if perPage < 1 {
		perPage = 1
	}

	where, args := q.where()
	sql := "SELECT " + q.schema.Columns + " FROM " + q.schema.Table + where +
		" ORDER BY " + q.sortColumn + " " + q.sortOrder +
		fmt.Sprintf(" LIMIT $%d OFFSET $%d", len(args)+1, len(args)+2)
	args = append(args, perPage, (page-1)*perPage)
	return sql, args
}

// Count renders the matching count query with its own positional numbering.
func (q *Query) Count() (string, []any) {
	where, args := q.where()
	return "SELECT count(*) FROM " + q.schema.Table + where, args
}

// AppliedFilters reports which caller parameters were honored, for echoing
// back in listing responses.
func (q *Query) AppliedFilters() map[string]string {
	out := make(map[string]string, len(q.applied))
	for k, v := range q.applied {
		out[k] = v
	}
	return out
}
