package planner

import (
	"strings"

	"github.com/pg-sharding/lyx/lyx"
	"github.com/pg-sharding/shardcore/pkg/condition"
	"github.com/pg-sharding/shardcore/pkg/models/routevalue"
	"github.com/pg-sharding/shardcore/pkg/shardlog"
	"github.com/pg-sharding/shardcore/router/route"
)

// maxBranches caps the disjunctive normal form. Wider WHERE clauses are
// routed as if unrestricted.
const maxBranches = 1024

var reversedOp = map[string]string{
	"=":  "=",
	"<":  ">",
	"<=": ">=",
	">":  "<",
	">=": "<=",
	"<>": "<>",
	"!=": "!=",
}

// extractor builds predicates of one statement. aliases maps FROM clause
// aliases onto logic table names.
type extractor struct {
	aliases map[string]string
}

// ExtractConditions converts a WHERE clause into OR-ed conditions of
// AND-ed predicates. Sub-expressions that cannot narrow routing (NOT,
// column-to-column comparisons, sub-selects) contribute no predicate. A
// nil result means the clause does not restrict routing at all.
func ExtractConditions(where lyx.Node) ([]route.Condition, error) {
	return (&extractor{}).conditions(where)
}

func (x *extractor) conditions(where lyx.Node) ([]route.Condition, error) {
	if where == nil {
		return nil, nil
	}
	if _, ok := where.(*lyx.AExprEmpty); ok {
		return nil, nil
	}

	branches, err := x.dnf(where)
	if err != nil {
		return nil, err
	}
	if branches == nil {
		shardlog.Zero.Debug().Msg("where clause is too wide to narrow routing")
		return nil, nil
	}

	res := make([]route.Condition, 0, len(branches))
	for _, b := range branches {
		res = append(res, route.Condition{Predicates: b})
	}
	return res, nil
}

// column resolves the qualifier of ref through the statement aliases.
func (x *extractor) column(ref *lyx.ColumnRef) routevalue.Column {
	table := ref.TableAlias
	if rel, ok := x.aliases[table]; ok {
		table = rel
	}
	return routevalue.NewColumn(table, ref.ColName)
}

func leaf(p condition.Predicate) [][]condition.Predicate {
	if p == nil {
		return [][]condition.Predicate{{}}
	}
	return [][]condition.Predicate{{p}}
}

// dnf returns the branches of expr. A nil result means the expansion
// exceeded maxBranches.
func (x *extractor) dnf(expr lyx.Node) ([][]condition.Predicate, error) {
	switch q := expr.(type) {
	case *lyx.AExprIn:
		return leaf(x.in(q)), nil
	case *lyx.AExprOp:
		switch strings.ToLower(q.Op) {
		case "or":
			left, err := x.dnf(q.Left)
			if err != nil || left == nil {
				return nil, err
			}
			right, err := x.dnf(q.Right)
			if err != nil || right == nil {
				return nil, err
			}
			if len(left)+len(right) > maxBranches {
				return nil, nil
			}
			return append(left, right...), nil
		case "and":
			left, err := x.dnf(q.Left)
			if err != nil || left == nil {
				return nil, err
			}
			right, err := x.dnf(q.Right)
			if err != nil || right == nil {
				return nil, err
			}
			if len(left)*len(right) > maxBranches {
				return nil, nil
			}
			res := make([][]condition.Predicate, 0, len(left)*len(right))
			for _, l := range left {
				for _, r := range right {
					branch := make([]condition.Predicate, 0, len(l)+len(r))
					branch = append(branch, l...)
					branch = append(branch, r...)
					res = append(res, branch)
				}
			}
			return res, nil
		case "between":
			return leaf(x.between(q)), nil
		}
		return leaf(x.comparison(q)), nil
	}
	return [][]condition.Predicate{{}}, nil
}

// comparison converts `col <op> value` or `value <op> col`. nil means the
// leaf cannot narrow routing.
func (x *extractor) comparison(op *lyx.AExprOp) condition.Predicate {
	sym := strings.TrimSpace(op.Op)
	if _, ok := reversedOp[sym]; !ok {
		return nil
	}

	colRef, colLeft := op.Left.(*lyx.ColumnRef)
	other := op.Right
	if !colLeft {
		var ok bool
		if colRef, ok = op.Right.(*lyx.ColumnRef); !ok {
			return nil
		}
		other = op.Left
		sym = reversedOp[sym]
	}

	val, ok := valueExpr(other)
	if !ok {
		return nil
	}
	return &condition.ComparePredicate{
		Col:   x.column(colRef),
		Op:    sym,
		Value: val,
	}
}

// in converts `col IN (v1, v2, ...)`. NOT IN and sub-selects do not narrow.
func (x *extractor) in(q *lyx.AExprIn) condition.Predicate {
	if !strings.EqualFold(q.Op, "in") {
		return nil
	}
	colRef, ok := q.Expr.(*lyx.ColumnRef)
	if !ok {
		return nil
	}
	list, ok := q.SubLink.(*lyx.AExprList)
	if !ok {
		return nil
	}
	values := make([]condition.Expr, 0, len(list.List))
	for _, n := range list.List {
		val, ok := valueExpr(n)
		if !ok {
			return nil
		}
		values = append(values, val)
	}
	return &condition.InPredicate{Col: x.column(colRef), Values: values}
}

// between converts `col BETWEEN low AND high`.
func (x *extractor) between(q *lyx.AExprOp) condition.Predicate {
	colRef, ok := q.Left.(*lyx.ColumnRef)
	if !ok {
		return nil
	}
	bounds, ok := q.Right.(*lyx.AExprList)
	if !ok || len(bounds.List) != 2 {
		return nil
	}
	low, ok := valueExpr(bounds.List[0])
	if !ok {
		return nil
	}
	high, ok := valueExpr(bounds.List[1])
	if !ok {
		return nil
	}
	return &condition.BetweenPredicate{Col: x.column(colRef), Low: low, High: high}
}

// valueExpr maps a constant, bind parameter or now() onto a condition
// operand.
func valueExpr(n lyx.Node) (condition.Expr, bool) {
	switch v := n.(type) {
	case *lyx.AExprIConst:
		return condition.Literal{Value: int64(v.Value)}, true
	case *lyx.AExprSConst:
		return condition.Literal{Value: v.Value}, true
	case *lyx.AExprNConst:
		return condition.Literal{Value: nil}, true
	case *lyx.ParamRef:
		return condition.ParamMarker{Index: v.Number - 1}, true
	case *lyx.FuncApplication:
		switch strings.ToLower(v.Name) {
		case "now", "current_timestamp":
			if len(v.Args) == 0 {
				return condition.NowFunc{}, true
			}
		}
	}
	return nil, false
}
