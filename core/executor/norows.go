package executor

import (
	"database/sql"
	"errors"
	"strings"
)

// noRowsPhrases are the exact messages drivers use for an empty single-row
// result. Broad matches like "not found" would also catch missing tables or
// columns and must not be added here.
var noRowsPhrases = []string{
	"query returned no rows",
	"sql: no rows in result set",
	"no rows in result set",
	"expected one row, got 0",
}

// IsNoRows reports whether err means "the query matched zero rows" and
// nothing else.
func IsNoRows(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrNoRows) || errors.Is(err, sql.ErrNoRows) {
		return true
	}
	if k, ok := KindOf(err); ok && k == ParseError {
		return false
	}
	msg := strings.ToLower(err.Error())
	for _, p := range noRowsPhrases {
		if strings.Contains(msg, p) {
			return true
		}
	}
	return false
}
