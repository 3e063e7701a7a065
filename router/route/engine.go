package route

import (
	"context"
	"strings"

	"github.com/pg-sharding/shardcore/pkg/condition"
	"github.com/pg-sharding/shardcore/pkg/models/routevalue"
	"github.com/pg-sharding/shardcore/pkg/models/rule"
	"github.com/pg-sharding/shardcore/pkg/models/shardingerror"
	"github.com/pg-sharding/shardcore/pkg/shardlog"
	"github.com/pg-sharding/shardcore/pkg/strategy"
	"github.com/pg-sharding/shardcore/router/routehint"
)

// Condition is a conjunction of predicates. A statement's conditions are
// OR-ed together.
type Condition struct {
	Predicates []condition.Predicate
}

// Statement is the routing view of one SQL statement.
type Statement struct {
	Type StatementType
	// Tables are the logic tables referenced by the statement, in order.
	Tables []string
	// Conditions are nil when the statement has no usable WHERE clause.
	// For INSERT there is one condition per inserted row.
	Conditions []Condition
	Params     []any
}

type Engine struct {
	rule      *rule.ShardingRule
	generator *condition.Generator
}

func NewEngine(r *rule.ShardingRule) *Engine {
	return &Engine{
		rule:      r,
		generator: condition.NewGenerator(),
	}
}

// NewEngineWithGenerator lets callers control how NOW() is evaluated.
func NewEngineWithGenerator(r *rule.ShardingRule, g *condition.Generator) *Engine {
	return &Engine{rule: r, generator: g}
}

func (e *Engine) Rule() *rule.ShardingRule {
	return e.rule
}

// Route routes a single-table statement.
func (e *Engine) Route(ctx context.Context, logicTable string, conds []Condition, params []any, stmtType StatementType) (*RoutingResult, error) {
	return e.RouteStatement(ctx, &Statement{
		Type:       stmtType,
		Tables:     []string{logicTable},
		Conditions: conds,
		Params:     params,
	})
}

func (e *Engine) RouteStatement(ctx context.Context, stmt *Statement) (*RoutingResult, error) {
	tables := make([]string, 0, len(stmt.Tables))
	seen := map[string]struct{}{}
	for _, t := range stmt.Tables {
		t = strings.ToLower(t)
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		tables = append(tables, t)
	}

	var (
		sharded   []*rule.TableRule
		broadcast []string
		plain     []string
	)
	for _, t := range tables {
		if tr, ok := e.rule.FindTableRule(t); ok {
			sharded = append(sharded, tr)
		} else if e.rule.IsBroadcastTable(t) {
			broadcast = append(broadcast, t)
		} else {
			plain = append(plain, t)
		}
	}

	var (
		res *RoutingResult
		err error
	)
	switch {
	case len(sharded) == 0 && len(plain) == 0 && len(broadcast) > 0:
		res = e.routeBroadcast(broadcast)
	case len(sharded) == 0:
		res = e.routeDefault(plain, broadcast)
	default:
		res, err = e.routeSharded(ctx, stmt, sharded)
		if err != nil {
			return nil, err
		}
		res, err = e.attachUnsharded(res, sharded[0].LogicTable, plain, broadcast)
		if err != nil {
			return nil, err
		}
	}

	shardlog.Zero.Debug().
		Strs("tables", tables).
		Str("statement", stmt.Type.String()).
		Int("units", len(res.Units)).
		Str("result", res.String()).
		Msg("statement routed")
	return res, nil
}

// routeBroadcast sends broadcast-only statements to every data source.
func (e *Engine) routeBroadcast(tables []string) *RoutingResult {
	res := &RoutingResult{}
	for _, ds := range e.rule.DataSources {
		res.Units = append(res.Units, RouteUnit{DataSource: ds, TableUnits: identityUnits(tables)})
	}
	return res
}

// routeDefault passes statements over unconfigured tables through to the
// default data source.
func (e *Engine) routeDefault(plain, broadcast []string) *RoutingResult {
	return &RoutingResult{Units: []RouteUnit{{
		DataSource: e.rule.DefaultDataSource,
		TableUnits: identityUnits(append(append([]string{}, plain...), broadcast...)),
	}}}
}

func identityUnits(tables []string) []TableUnit {
	res := make([]TableUnit, 0, len(tables))
	for _, t := range tables {
		res = append(res, TableUnit{LogicTable: t, ActualTable: t})
	}
	return res
}

func (e *Engine) attachUnsharded(res *RoutingResult, primary string, plain, broadcast []string) (*RoutingResult, error) {
	for i := range res.Units {
		if len(plain) > 0 && res.Units[i].DataSource != e.rule.DefaultDataSource {
			return nil, shardingerror.Newf(shardingerror.SHARD_ROUTING_ERROR,
				"unsharded table %s cannot be combined with sharded table %s on data source %s",
				plain[0], primary, res.Units[i].DataSource)
		}
		res.Units[i].TableUnits = append(res.Units[i].TableUnits, identityUnits(plain)...)
		res.Units[i].TableUnits = append(res.Units[i].TableUnits, identityUnits(broadcast)...)
	}
	return res, nil
}

func (e *Engine) routeSharded(ctx context.Context, stmt *Statement, sharded []*rule.TableRule) (*RoutingResult, error) {
	primary := sharded[0]

	names := make([]string, 0, len(sharded))
	for _, tr := range sharded {
		names = append(names, tr.LogicTable)
	}
	if len(sharded) == 1 || e.rule.AreBound(names...) {
		nodes, err := e.routeTable(ctx, stmt, primary, names)
		if err != nil {
			return nil, err
		}
		return e.bindUnits(primary, sharded[1:], nodes)
	}

	/* Unrelated sharded tables: intersect data sources and combine the actual tables. */
	perTable := make([][]rule.DataNode, 0, len(sharded))
	for _, tr := range sharded {
		nodes, err := e.routeTable(ctx, stmt, tr, []string{tr.LogicTable})
		if err != nil {
			return nil, err
		}
		perTable = append(perTable, nodes)
	}
	return cartesianUnits(sharded, perTable)
}

// bindUnits builds route units of the primary table and maps binding
// tables onto the actual table at the same position.
func (e *Engine) bindUnits(primary *rule.TableRule, bound []*rule.TableRule, nodes []rule.DataNode) (*RoutingResult, error) {
	res := &RoutingResult{}
	for _, dn := range nodes {
		unit := RouteUnit{
			DataSource: dn.DataSource,
			TableUnits: []TableUnit{{LogicTable: primary.LogicTable, ActualTable: dn.Table}},
		}
		idx := primary.ActualTableIndex(dn.DataSource, dn.Table)
		for _, tr := range bound {
			actual := tr.ActualTables(dn.DataSource)
			if idx < 0 || idx >= len(actual) {
				return nil, shardingerror.Newf(shardingerror.SHARD_NO_DATANODE,
					"binding table %s has no actual table for %s", tr.LogicTable, dn)
			}
			unit.TableUnits = append(unit.TableUnits, TableUnit{LogicTable: tr.LogicTable, ActualTable: actual[idx]})
		}
		res.Units = append(res.Units, unit)
	}
	return res, nil
}

func cartesianUnits(sharded []*rule.TableRule, perTable [][]rule.DataNode) (*RoutingResult, error) {
	res := &RoutingResult{}
	for _, ds := range dataSourcesOf(perTable[0]) {
		combos := [][]TableUnit{{}}
		for i, nodes := range perTable {
			var next [][]TableUnit
			for _, dn := range nodes {
				if dn.DataSource != ds {
					continue
				}
				for _, c := range combos {
					combo := append(append([]TableUnit{}, c...), TableUnit{LogicTable: sharded[i].LogicTable, ActualTable: dn.Table})
					next = append(next, combo)
				}
			}
			combos = next
		}
		for _, c := range combos {
			res.Units = append(res.Units, RouteUnit{DataSource: ds, TableUnits: c})
		}
	}
	if len(res.Units) == 0 {
		return nil, shardingerror.New(shardingerror.SHARD_NO_DATANODE, "sharded tables of the statement share no data source")
	}
	return res, nil
}

func dataSourcesOf(nodes []rule.DataNode) []string {
	var res []string
	seen := map[string]struct{}{}
	for _, dn := range nodes {
		if _, ok := seen[dn.DataSource]; ok {
			continue
		}
		seen[dn.DataSource] = struct{}{}
		res = append(res, dn.DataSource)
	}
	return res
}

// routeTable returns the data nodes of tr reached by the statement, in
// declaration order. Predicates qualified with any of tables apply.
func (e *Engine) routeTable(ctx context.Context, stmt *Statement, tr *rule.TableRule, tables []string) ([]rule.DataNode, error) {
	if hint, ok := routehint.FromContext(ctx).(*routehint.ShardingValuesRouteHint); ok {
		return e.routeByHint(tr, hint)
	}

	conds := stmt.Conditions
	if len(conds) == 0 {
		if stmt.Type == StatementInsert {
			if err := checkInsertKeys(tr, nil); err != nil {
				return nil, err
			}
		}
		return routeNodes(tr, nil, nil)
	}

	hit := map[rule.DataNode]struct{}{}
	alwaysFalse := 0
	for i, c := range conds {
		values, empty, err := e.conditionValues(tr, tables, c, stmt.Params)
		if err != nil {
			return nil, err
		}
		if stmt.Type == StatementInsert && !empty {
			if err := checkInsertKeys(tr, values); err != nil {
				return nil, err
			}
		}
		if empty {
			shardlog.Zero.Debug().
				Str("logic-table", tr.LogicTable).
				Int("condition", i).
				Msg("condition is always false, skipping")
			alwaysFalse++
			continue
		}
		nodes, err := routeNodes(tr, values, values)
		if err != nil {
			return nil, err
		}
		for _, dn := range nodes {
			hit[dn] = struct{}{}
		}
	}

	if alwaysFalse == len(conds) {
		/* the statement still runs to produce an empty result with proper metadata */
		return tr.DataNodes[:1], nil
	}
	return ordered(tr, hit), nil
}

// conditionValues converts the predicates on tr's sharding columns and
// intersects them per column. empty reports an always-false condition.
func (e *Engine) conditionValues(tr *rule.TableRule, tables []string, c Condition, params []any) ([]routevalue.RouteValue, bool, error) {
	columns := map[string]struct{}{}
	for _, col := range tr.ShardingColumns() {
		columns[col] = struct{}{}
	}
	accepted := map[string]struct{}{"": {}}
	for _, t := range tables {
		accepted[t] = struct{}{}
	}

	byColumn := map[string]routevalue.RouteValue{}
	var order []string
	for _, p := range c.Predicates {
		col := p.Column()
		if _, ok := columns[col.Name]; !ok {
			continue
		}
		if _, ok := accepted[col.Table]; !ok {
			continue
		}
		rv, ok, err := e.generator.Generate(p, params)
		if err != nil {
			return nil, false, err
		}
		if !ok {
			continue
		}
		prev, exists := byColumn[col.Name]
		if !exists {
			byColumn[col.Name] = rv
			order = append(order, col.Name)
			continue
		}
		merged, err := routevalue.Intersect(withColumn(prev, col.Name), withColumn(rv, col.Name))
		if err != nil {
			return nil, false, err
		}
		byColumn[col.Name] = merged
	}

	values := make([]routevalue.RouteValue, 0, len(order))
	for _, name := range order {
		rv := byColumn[name]
		if rv.IsEmpty() {
			return nil, true, nil
		}
		values = append(values, rv)
	}
	return values, false, nil
}

// withColumn drops the table qualifier so that predicates written with
// and without it intersect.
func withColumn(rv routevalue.RouteValue, name string) routevalue.RouteValue {
	switch v := rv.(type) {
	case *routevalue.ListRouteValue:
		return &routevalue.ListRouteValue{Col: routevalue.Column{Name: name}, Values: v.Values}
	case *routevalue.RangeRouteValue:
		c := *v
		c.Col = routevalue.Column{Name: name}
		return &c
	}
	return rv
}

func checkInsertKeys(tr *rule.TableRule, values []routevalue.RouteValue) error {
	for _, s := range []strategy.Strategy{tr.DatabaseStrategy, tr.TableStrategy} {
		for _, col := range s.ShardingColumns() {
			found := false
			for _, v := range values {
				if v.Column().Name == col {
					found = true
					break
				}
			}
			if !found {
				return shardingerror.Newf(shardingerror.SHARD_MISSING_SHARDING_KEY,
					"insert into %s does not provide sharding column %s", tr.LogicTable, col)
			}
		}
	}
	return nil
}

func (e *Engine) routeByHint(tr *rule.TableRule, hint *routehint.ShardingValuesRouteHint) ([]rule.DataNode, error) {
	dbVals, dbOk := hint.DatabaseValues(tr.LogicTable)
	tableVals, tableOk := hint.TableValues(tr.LogicTable)

	dbValues, err := hintValues(tr, tr.DatabaseStrategy, dbVals, dbOk, "database")
	if err != nil {
		return nil, err
	}
	tableValues, err := hintValues(tr, tr.TableStrategy, tableVals, tableOk, "table")
	if err != nil {
		return nil, err
	}
	return routeNodes(tr, dbValues, tableValues)
}

// hintValues tags hint values with every sharding column of s.
func hintValues(tr *rule.TableRule, s strategy.Strategy, vals []any, ok bool, axis string) ([]routevalue.RouteValue, error) {
	columns := s.ShardingColumns()
	if !ok {
		if len(columns) > 0 {
			return nil, shardingerror.Newf(shardingerror.SHARD_MISSING_HINT,
				"no %s sharding value hinted for table %s", axis, tr.LogicTable)
		}
		return nil, nil
	}
	if strategy.IsHint(s) {
		columns = []string{""}
	}

	res := make([]routevalue.RouteValue, 0, len(columns))
	for _, col := range columns {
		rv, err := routevalue.NewListRouteValue(routevalue.Column{Table: tr.LogicTable, Name: col}, vals)
		if err != nil {
			return nil, err
		}
		res = append(res, rv)
	}
	return res, nil
}

// routeNodes applies the database strategy, then the table strategy per
// surviving data source, keeping only declared data nodes.
func routeNodes(tr *rule.TableRule, dbValues, tableValues []routevalue.RouteValue) ([]rule.DataNode, error) {
	sources, err := tr.DatabaseStrategy.Shard(tr.DataSources(), dbValues)
	if err != nil {
		return nil, err
	}
	if len(sources) == 0 {
		return nil, shardingerror.Newf(shardingerror.SHARD_NO_DATANODE,
			"database strategy of %s selected no data source", tr.LogicTable)
	}

	hit := map[rule.DataNode]struct{}{}
	for _, ds := range sources {
		candidates := tr.ActualTables(ds)
		if len(candidates) == 0 {
			continue
		}
		tables, err := tr.TableStrategy.Shard(candidates, tableValues)
		if err != nil {
			return nil, err
		}
		if len(tables) == 0 {
			return nil, shardingerror.Newf(shardingerror.SHARD_NO_DATANODE,
				"table strategy of %s selected no table in data source %s", tr.LogicTable, ds)
		}
		for _, t := range tables {
			if tr.HasDataNode(ds, t) {
				hit[rule.DataNode{DataSource: ds, Table: t}] = struct{}{}
			}
		}
	}
	if len(hit) == 0 {
		return nil, shardingerror.Newf(shardingerror.SHARD_NO_DATANODE, "no data node of %s matched", tr.LogicTable)
	}
	return ordered(tr, hit), nil
}

func ordered(tr *rule.TableRule, hit map[rule.DataNode]struct{}) []rule.DataNode {
	res := make([]rule.DataNode, 0, len(hit))
	for _, dn := range tr.DataNodes {
		if _, ok := hit[dn]; ok {
			res = append(res, dn)
		}
	}
	return res
}
