package postgres

import (
	"fmt"
	"strings"
)

// queryBuilderOption configures a queryBuilder, matching mpostgres's
// SQLQueryBuilderOption shape.
type queryBuilderOption func(b *queryBuilder)

// queryBuilder accumulates WHERE/ORDER BY/LIMIT/OFFSET clauses for a single
// query against table, grounded on mpostgres.SQLQueryBuilder — adapted to
// this package's own table/column names instead of the ledger's DTOs.
type queryBuilder struct {
	Table  string
	Params []any
	Where  []string
	Sorts  []string
	Limit  string
	Offset string
}

// newQueryBuilder returns a queryBuilder for table with opts applied.
func newQueryBuilder(table string, opts ...queryBuilderOption) *queryBuilder {
	b := &queryBuilder{Table: table}

	for _, opt := range opts {
		opt(b)
	}

	return b
}

// withFilter adds an equality filter on column, parameterised positionally.
func withFilter(column string, value any) queryBuilderOption {
	return func(b *queryBuilder) {
		b.Params = append(b.Params, value)
		b.Where = append(b.Where, fmt.Sprintf("%s = $%d", column, len(b.Params)))
	}
}

// withCaseInsensitiveFilter adds a lower(column) = lower($n) filter, used by
// Find's exact name matching.
func withCaseInsensitiveFilter(column string, value any) queryBuilderOption {
	return func(b *queryBuilder) {
		b.Params = append(b.Params, value)
		b.Where = append(b.Where, fmt.Sprintf("lower(%s) = lower($%d)", column, len(b.Params)))
	}
}

// withContainsFilter adds a lower(column) LIKE lower($n) substring filter.
func withContainsFilter(column string, value string) queryBuilderOption {
	return func(b *queryBuilder) {
		b.Params = append(b.Params, "%"+value+"%")
		b.Where = append(b.Where, fmt.Sprintf("lower(%s) LIKE lower($%d)", column, len(b.Params)))
	}
}

// selectSQL renders a "SELECT columns FROM table WHERE ..." statement.
func (b *queryBuilder) selectSQL(columns string) string {
	q := "SELECT " + columns + " FROM " + b.Table

	if len(b.Where) > 0 {
		q += " WHERE " + strings.Join(b.Where, " AND ")
	}

	if len(b.Sorts) > 0 {
		q += " ORDER BY " + strings.Join(b.Sorts, ", ")
	}

	if b.Limit != "" {
		q += " " + b.Limit
	}

	if b.Offset != "" {
		q += " " + b.Offset
	}

	return q
}
