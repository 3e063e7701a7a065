package planner

import (
	"strings"

	"github.com/pg-sharding/lyx/lyx"
	"github.com/pg-sharding/shardcore/pkg/condition"
	"github.com/pg-sharding/shardcore/pkg/models/routevalue"
	"github.com/pg-sharding/shardcore/pkg/models/shardingerror"
	"github.com/pg-sharding/shardcore/router/route"
)

var ErrComplexQuery = shardingerror.New(shardingerror.SHARD_NOT_IMPLEMENTED, "too complex query to route")

// ParseStatement parses a single SQL statement into its routing view.
func ParseStatement(query string, params []any) (*route.Statement, error) {
	node, err := lyx.Parse(query)
	if err != nil {
		return nil, shardingerror.Wrap(shardingerror.SHARD_UNEXPECTED_EXPRESSION, err)
	}
	stmt, err := BuildStatement(node)
	if err != nil {
		return nil, err
	}
	stmt.Params = params
	return stmt, nil
}

// BuildStatement extracts tables and routing conditions of a parsed statement.
func BuildStatement(node lyx.Node) (*route.Statement, error) {
	switch q := node.(type) {
	case *lyx.Select:
		stmt := &route.Statement{Type: route.StatementSelect}
		x := &extractor{aliases: map[string]string{}}
		for _, fc := range q.FromClause {
			tables, err := x.fromClauseTables(fc)
			if err != nil {
				return nil, err
			}
			stmt.Tables = append(stmt.Tables, tables...)
		}
		conds, err := x.conditions(q.Where)
		if err != nil {
			return nil, err
		}
		stmt.Conditions = conds
		return stmt, nil
	case *lyx.Update:
		return modifyStatement(route.StatementUpdate, q.TableRef, q.Where)
	case *lyx.Delete:
		return modifyStatement(route.StatementDelete, q.TableRef, q.Where)
	case *lyx.Insert:
		return insertStatement(q)
	default:
		return nil, ErrComplexQuery
	}
}

// relation records the alias of rv and returns its logic table name.
func (x *extractor) relation(rv *lyx.RangeVar) string {
	table := strings.ToLower(rv.RelationName)
	if rv.Alias != "" {
		x.aliases[rv.Alias] = table
	}
	return table
}

func (x *extractor) fromClauseTables(n lyx.FromClauseNode) ([]string, error) {
	switch q := n.(type) {
	case *lyx.RangeVar:
		return []string{x.relation(q)}, nil
	case *lyx.JoinExpr:
		left, err := x.fromClauseTables(q.Larg)
		if err != nil {
			return nil, err
		}
		right, err := x.fromClauseTables(q.Rarg)
		if err != nil {
			return nil, err
		}
		return append(left, right...), nil
	default:
		return nil, ErrComplexQuery
	}
}

func modifyStatement(tp route.StatementType, ref any, where lyx.Node) (*route.Statement, error) {
	rv, ok := ref.(*lyx.RangeVar)
	if !ok {
		return nil, ErrComplexQuery
	}
	x := &extractor{aliases: map[string]string{}}
	table := x.relation(rv)
	conds, err := x.conditions(where)
	if err != nil {
		return nil, err
	}
	return &route.Statement{
		Type:       tp,
		Tables:     []string{table},
		Conditions: conds,
	}, nil
}

// insertStatement turns every VALUES row into one condition of equality
// predicates.
func insertStatement(q *lyx.Insert) (*route.Statement, error) {
	rv, ok := q.TableRef.(*lyx.RangeVar)
	if !ok {
		return nil, ErrComplexQuery
	}
	table := strings.ToLower(rv.RelationName)
	stmt := &route.Statement{Type: route.StatementInsert, Tables: []string{table}}

	values, ok := q.SubSelect.(*lyx.ValueClause)
	if !ok {
		return stmt, nil
	}
	for _, row := range values.Values {
		var preds []condition.Predicate
		for i, col := range q.Columns {
			if i >= len(row) {
				break
			}
			val, ok := valueExpr(row[i])
			if !ok {
				continue
			}
			preds = append(preds, &condition.ComparePredicate{
				Col:   routevalue.NewColumn(table, col),
				Op:    "=",
				Value: val,
			})
		}
		stmt.Conditions = append(stmt.Conditions, route.Condition{Predicates: preds})
	}
	return stmt, nil
}
