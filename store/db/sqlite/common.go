package sqlite

import (
	"strings"
)

// joinAnd joins where-clause fragments with AND.
func joinAnd(conditions []string) string {
	return strings.Join(conditions, " AND ")
}

// joinComma joins set-clause fragments with commas.
func joinComma(fragments []string) string {
	return strings.Join(fragments, ", ")
}
