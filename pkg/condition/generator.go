package condition

import (
	"strings"
	"time"

	"github.com/pg-sharding/shardcore/pkg/models/routevalue"
	"github.com/pg-sharding/shardcore/pkg/models/shardingerror"
	"github.com/pg-sharding/shardcore/pkg/shardlog"
)

// Generator turns predicates into route values.
type Generator struct {
	// Now is called once per NOW() operand.
	Now func() time.Time
}

func NewGenerator() *Generator {
	return &Generator{Now: time.Now}
}

// Generate returns the route value of p. The boolean is false when the
// predicate cannot narrow routing (e.g. `<>`), in which case the column
// must be treated as unrestricted.
func (g *Generator) Generate(p Predicate, params []any) (routevalue.RouteValue, bool, error) {
	if p == nil {
		return nil, false, errNilPredicate
	}
	switch p.Kind() {
	case KindCompare:
		cp, ok := p.(*ComparePredicate)
		if !ok {
			return nil, false, errKindMismatch(p)
		}
		if cp == nil {
			return nil, false, errNilPredicate
		}
		return g.generateCompare(cp, params)
	case KindIn:
		ip, ok := p.(*InPredicate)
		if !ok {
			return nil, false, errKindMismatch(p)
		}
		if ip == nil {
			return nil, false, errNilPredicate
		}
		return g.generateIn(ip, params)
	case KindBetween:
		bp, ok := p.(*BetweenPredicate)
		if !ok {
			return nil, false, errKindMismatch(p)
		}
		if bp == nil {
			return nil, false, errNilPredicate
		}
		return g.generateBetween(bp, params)
	default:
		return nil, false, errKindMismatch(p)
	}
}

var errNilPredicate = shardingerror.New(shardingerror.SHARD_UNEXPECTED_EXPRESSION, "predicate must not be nil")

func errKindMismatch(p Predicate) error {
	return shardingerror.Newf(shardingerror.SHARD_UNEXPECTED_EXPRESSION, "predicate %T does not match kind %s", p, p.Kind())
}

func (g *Generator) generateCompare(p *ComparePredicate, params []any) (routevalue.RouteValue, bool, error) {
	op := strings.TrimSpace(p.Op)
	switch op {
	case "=", "<", "<=", ">", ">=":
	default:
		/* <>, != and friends do not narrow routing */
		shardlog.Zero.Debug().
			Str("column", p.Col.String()).
			Str("operator", op).
			Msg("operator is not routable, skipping")
		return nil, false, nil
	}

	v, err := g.resolve(p.Value, params)
	if err != nil {
		return nil, false, err
	}
	if v == nil {
		return nil, false, nil
	}

	if op == "=" {
		lv, err := routevalue.NewListRouteValue(p.Col, []any{v})
		if err != nil {
			return nil, false, err
		}
		return lv, true, nil
	}

	var r routevalue.Range
	switch op {
	case "<":
		r = routevalue.LessThan(v)
	case "<=":
		r = routevalue.AtMost(v)
	case ">":
		r = routevalue.GreaterThan(v)
	case ">=":
		r = routevalue.AtLeast(v)
	}
	rv, err := routevalue.NewRangeRouteValue(p.Col, r)
	if err != nil {
		return nil, false, err
	}
	return rv, true, nil
}

func (g *Generator) generateIn(p *InPredicate, params []any) (routevalue.RouteValue, bool, error) {
	values := make([]any, 0, len(p.Values))
	for _, e := range p.Values {
		v, err := g.resolve(e, params)
		if err != nil {
			return nil, false, err
		}
		/* NULL never matches IN */
		if v == nil {
			continue
		}
		values = append(values, v)
	}
	lv, err := routevalue.NewListRouteValue(p.Col, values)
	if err != nil {
		return nil, false, err
	}
	return lv, true, nil
}

func (g *Generator) generateBetween(p *BetweenPredicate, params []any) (routevalue.RouteValue, bool, error) {
	low, err := g.resolve(p.Low, params)
	if err != nil {
		return nil, false, err
	}
	high, err := g.resolve(p.High, params)
	if err != nil {
		return nil, false, err
	}
	if low == nil || high == nil {
		return nil, false, nil
	}
	rv, err := routevalue.NewRangeRouteValue(p.Col, routevalue.Range{
		Lower: routevalue.Bound{Value: low, Type: routevalue.Closed},
		Upper: routevalue.Bound{Value: high, Type: routevalue.Closed},
	})
	if err != nil {
		return nil, false, err
	}
	return rv, true, nil
}

func (g *Generator) resolve(e Expr, params []any) (any, error) {
	switch v := e.(type) {
	case Literal:
		return v.Value, nil
	case *Literal:
		if v == nil {
			return nil, errNilExpr
		}
		return v.Value, nil
	case ParamMarker:
		return resolveParam(v.Index, params)
	case *ParamMarker:
		if v == nil {
			return nil, errNilExpr
		}
		return resolveParam(v.Index, params)
	case NowFunc, *NowFunc:
		now := time.Now
		if g.Now != nil {
			now = g.Now
		}
		return now(), nil
	default:
		return nil, shardingerror.Newf(shardingerror.SHARD_UNEXPECTED_EXPRESSION, "expression %T cannot be used as a sharding value", e)
	}
}

var errNilExpr = shardingerror.New(shardingerror.SHARD_UNEXPECTED_EXPRESSION, "expression must not be nil")

func resolveParam(idx int, params []any) (any, error) {
	if idx < 0 || idx >= len(params) {
		return nil, shardingerror.Newf(shardingerror.SHARD_ROUTING_ERROR,
			"parameter index %d is out of range, %d parameters bound", idx, len(params))
	}
	return params[idx], nil
}
