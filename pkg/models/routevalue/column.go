package routevalue

import "strings"

// Column names the column a predicate restricts. Table is the logic
// table name; it may be empty when the statement has a single table.
type Column struct {
	Table string
	Name  string
}

func NewColumn(table, name string) Column {
	return Column{Table: strings.ToLower(table), Name: strings.ToLower(name)}
}

func (c Column) String() string {
	if c.Table == "" {
		return c.Name
	}
	return c.Table + "." + c.Name
}
