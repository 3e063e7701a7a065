package condition

import (
	"github.com/pg-sharding/shardcore/pkg/models/routevalue"
)

// Expr is a value-producing operand of a predicate.
type Expr interface {
	iExpr()
}

type Literal struct {
	Value any
}

// ParamMarker refers to a bind parameter by 0-based position.
type ParamMarker struct {
	Index int
}

// NowFunc is NOW() / CURRENT_TIMESTAMP, evaluated when a route value is built.
type NowFunc struct{}

// ColumnExpr is a column reference used as an operand. It is never a
// valid routing value.
type ColumnExpr struct {
	Column routevalue.Column
}

func (Literal) iExpr()     {}
func (ParamMarker) iExpr() {}
func (NowFunc) iExpr()     {}
func (ColumnExpr) iExpr()  {}

type Kind int

const (
	KindCompare = Kind(iota)
	KindIn
	KindBetween
)

func (k Kind) String() string {
	switch k {
	case KindCompare:
		return "compare"
	case KindIn:
		return "in"
	case KindBetween:
		return "between"
	}
	return "unknown"
}

// Predicate restricts one column. Implemented by *ComparePredicate,
// *InPredicate and *BetweenPredicate.
type Predicate interface {
	Kind() Kind
	Column() routevalue.Column

	iPredicate()
}

type ComparePredicate struct {
	Col   routevalue.Column
	Op    string
	Value Expr
}

type InPredicate struct {
	Col    routevalue.Column
	Values []Expr
}

type BetweenPredicate struct {
	Col  routevalue.Column
	Low  Expr
	High Expr
}

func (p *ComparePredicate) Kind() Kind                { return KindCompare }
func (p *ComparePredicate) Column() routevalue.Column { return p.Col }
func (p *ComparePredicate) iPredicate()               {}

func (p *InPredicate) Kind() Kind                { return KindIn }
func (p *InPredicate) Column() routevalue.Column { return p.Col }
func (p *InPredicate) iPredicate()               {}

func (p *BetweenPredicate) Kind() Kind                { return KindBetween }
func (p *BetweenPredicate) Column() routevalue.Column { return p.Col }
func (p *BetweenPredicate) iPredicate()               {}

var (
	_ Predicate = &ComparePredicate{}
	_ Predicate = &InPredicate{}
	_ Predicate = &BetweenPredicate{}
)
