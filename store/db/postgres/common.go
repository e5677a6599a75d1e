package postgres

import (
	"fmt"
	"strings"
)

func placeholder(n int) string {
	return fmt.Sprintf("$%d", n)
}

func placeholders(n int) string {
	list := []string{}
	for i := 1; i <= n; i++ {
		list = append(list, placeholder(i))
	}
	return strings.Join(list, ", ")
}

func joinAnd(conds []string) string {
	return strings.Join(conds, " AND ")
}

func joinComma(parts []string) string {
	return strings.Join(parts, ", ")
}
