package merge

type Direction int

const (
	Asc Direction = iota
	Desc
)

// NullsOrder places NULLs relative to other values in the output order.
// NullsDefault treats NULL as larger than any value, so NULLs come last
// ascending and first descending.
type NullsOrder int

const (
	NullsDefault NullsOrder = iota
	NullsFirst
	NullsLast
)

type OrderByItem struct {
	Index     int
	Direction Direction
	Nulls     NullsOrder
}

type AggregationType int

const (
	AggSum AggregationType = iota
	AggCount
	AggAvg
	AggMin
	AggMax
)

func (t AggregationType) String() string {
	switch t {
	case AggSum:
		return "SUM"
	case AggCount:
		return "COUNT"
	case AggAvg:
		return "AVG"
	case AggMin:
		return "MIN"
	case AggMax:
		return "MAX"
	default:
		return "UNKNOWN"
	}
}

// Aggregation binds an aggregate function to its result column. AVG reads
// the per-target SUM and COUNT from the derived columns.
type Aggregation struct {
	Type              AggregationType
	Index             int
	DerivedSumIndex   int
	DerivedCountIndex int
}

type Dialect string

const (
	DialectPostgreSQL Dialect = "postgresql"
	DialectMySQL      Dialect = "mysql"
	DialectOpenGauss  Dialect = "opengauss"
	DialectH2         Dialect = "h2"
	DialectOracle     Dialect = "oracle"
	DialectSQLServer  Dialect = "sqlserver"
)

// Pagination describes the global window of a paginated statement.
//
// For LIMIT dialects Offset rows are skipped and at most RowCount rows
// follow. For Oracle Offset and RowCount are the row-number bounds
// (rownum > Offset, rownum < RowCount, each inclusive when flagged). For
// SQL Server RowCount is the TOP ceiling and Offset the row-number lower
// bound. A negative RowCount means no upper bound.
type Pagination struct {
	Offset            int64
	RowCount          int64
	OffsetInclusive   bool
	RowCountInclusive bool
	Dialect           Dialect
}

// Shape is what the merge needs to know about the statement.
type Shape struct {
	OrderBy      []OrderByItem
	GroupBy      []OrderByItem
	Aggregations []Aggregation
	Pagination   *Pagination
}

func (s *Shape) hasGroupBy() bool {
	return s != nil && len(s.GroupBy) > 0
}

func (s *Shape) hasOrderBy() bool {
	return s != nil && len(s.OrderBy) > 0
}

func (s *Shape) hasAggregations() bool {
	return s != nil && len(s.Aggregations) > 0
}

// effectiveOrderBy is ORDER BY, or the GROUP BY items when ORDER BY is empty.
func (s *Shape) effectiveOrderBy() []OrderByItem {
	if s.hasOrderBy() {
		return s.OrderBy
	}
	if s.hasGroupBy() {
		return s.GroupBy
	}
	return nil
}

// groupByIsOrderPrefix reports whether the GROUP BY columns, as a set, are
// the leading columns of the effective ORDER BY.
func (s *Shape) groupByIsOrderPrefix() bool {
	order := s.effectiveOrderBy()
	if len(order) < len(s.GroupBy) {
		return false
	}
	group := make(map[int]struct{}, len(s.GroupBy))
	for _, item := range s.GroupBy {
		group[item.Index] = struct{}{}
	}
	prefix := make(map[int]struct{}, len(s.GroupBy))
	for _, item := range order[:len(s.GroupBy)] {
		if _, ok := group[item.Index]; !ok {
			return false
		}
		prefix[item.Index] = struct{}{}
	}
	return len(prefix) == len(group)
}
