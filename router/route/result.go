package route

import (
	"fmt"
	"strings"
)

type StatementType int

const (
	StatementSelect = StatementType(iota)
	StatementInsert
	StatementUpdate
	StatementDelete
)

func (s StatementType) String() string {
	switch s {
	case StatementSelect:
		return "SELECT"
	case StatementInsert:
		return "INSERT"
	case StatementUpdate:
		return "UPDATE"
	case StatementDelete:
		return "DELETE"
	}
	return "UNKNOWN"
}

// TableUnit maps a logic table onto the actual table of one route unit.
type TableUnit struct {
	LogicTable  string
	ActualTable string
}

// RouteUnit is one data source the statement executes on.
type RouteUnit struct {
	DataSource string
	TableUnits []TableUnit
}

// ActualTable returns the actual table of logicTable within the unit.
func (u RouteUnit) ActualTable(logicTable string) (string, bool) {
	for _, tu := range u.TableUnits {
		if tu.LogicTable == logicTable {
			return tu.ActualTable, true
		}
	}
	return "", false
}

func (u RouteUnit) String() string {
	tables := make([]string, 0, len(u.TableUnits))
	for _, tu := range u.TableUnits {
		tables = append(tables, tu.LogicTable+"->"+tu.ActualTable)
	}
	return fmt.Sprintf("%s[%s]", u.DataSource, strings.Join(tables, ", "))
}

// RoutingResult lists the route units of a statement. Units are
// duplicate-free and ordered by data node declaration order.
type RoutingResult struct {
	Units []RouteUnit
}

// DataSources returns the distinct data sources of the result in unit order.
func (r *RoutingResult) DataSources() []string {
	var res []string
	seen := map[string]struct{}{}
	for _, u := range r.Units {
		if _, ok := seen[u.DataSource]; ok {
			continue
		}
		seen[u.DataSource] = struct{}{}
		res = append(res, u.DataSource)
	}
	return res
}

// IsSingle reports whether the statement reaches exactly one unit.
func (r *RoutingResult) IsSingle() bool {
	return len(r.Units) == 1
}

func (r *RoutingResult) String() string {
	units := make([]string, 0, len(r.Units))
	for _, u := range r.Units {
		units = append(units, u.String())
	}
	return strings.Join(units, "; ")
}
