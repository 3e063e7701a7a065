package rule

import (
	"strings"

	"github.com/pg-sharding/shardcore/pkg/config"
	"github.com/pg-sharding/shardcore/pkg/models/shardingerror"
	"github.com/pg-sharding/shardcore/pkg/strategy"
)

// TableRule describes how one logic table is split over data nodes.
type TableRule struct {
	LogicTable string
	DataNodes  []DataNode

	DatabaseStrategy strategy.Strategy
	TableStrategy    strategy.Strategy

	dataSources []string
	tables      map[string][]string
}

func NewTableRule(logicTable string, nodes []DataNode, dbStrategy, tableStrategy strategy.Strategy) *TableRule {
	tr := &TableRule{
		LogicTable:       strings.ToLower(logicTable),
		DataNodes:        nodes,
		DatabaseStrategy: dbStrategy,
		TableStrategy:    tableStrategy,
		tables:           map[string][]string{},
	}
	if tr.DatabaseStrategy == nil {
		tr.DatabaseStrategy = strategy.NoneStrategy{}
	}
	if tr.TableStrategy == nil {
		tr.TableStrategy = strategy.NoneStrategy{}
	}
	for _, dn := range nodes {
		if _, ok := tr.tables[dn.DataSource]; !ok {
			tr.dataSources = append(tr.dataSources, dn.DataSource)
		}
		tr.tables[dn.DataSource] = append(tr.tables[dn.DataSource], dn.Table)
	}
	return tr
}

// DataSources lists the data sources holding the table, in data node order.
func (tr *TableRule) DataSources() []string {
	return tr.dataSources
}

// ActualTables lists the table's physical tables within ds, in data node order.
func (tr *TableRule) ActualTables(ds string) []string {
	return tr.tables[ds]
}

func (tr *TableRule) HasDataNode(ds, table string) bool {
	return tr.ActualTableIndex(ds, table) >= 0
}

// ActualTableIndex returns the position of table among the actual tables
// of ds, or -1.
func (tr *TableRule) ActualTableIndex(ds, table string) int {
	for i, t := range tr.tables[ds] {
		if t == table {
			return i
		}
	}
	return -1
}

// ShardingColumns returns every column either strategy shards by.
func (tr *TableRule) ShardingColumns() []string {
	var res []string
	seen := map[string]struct{}{}
	for _, s := range []strategy.Strategy{tr.DatabaseStrategy, tr.TableStrategy} {
		for _, c := range s.ShardingColumns() {
			if _, ok := seen[c]; ok {
				continue
			}
			seen[c] = struct{}{}
			res = append(res, c)
		}
	}
	return res
}

// ShardingRule is the routing view of the whole configuration.
type ShardingRule struct {
	DataSources       []string
	DefaultDataSource string

	tableRules    map[string]*TableRule
	tableOrder    []string
	bindingGroups map[string][]string
	broadcast     map[string]struct{}
}

// NewShardingRule builds a rule from validated configuration. Table
// strategies missing from a table rule fall back to the configured
// defaults.
func NewShardingRule(cfg *config.ShardingCfg) (*ShardingRule, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	r := &ShardingRule{
		DataSources:       cfg.DataSources,
		DefaultDataSource: cfg.DefaultDataSource,
		tableRules:        map[string]*TableRule{},
		bindingGroups:     map[string][]string{},
		broadcast:         map[string]struct{}{},
	}
	if r.DefaultDataSource == "" {
		r.DefaultDataSource = cfg.DataSources[0]
	}

	declared := map[string]struct{}{}
	for _, ds := range cfg.DataSources {
		declared[ds] = struct{}{}
	}

	for _, t := range cfg.Tables {
		nodes, err := ParseDataNodes(t.DataNodes)
		if err != nil {
			return nil, err
		}
		for _, dn := range nodes {
			if _, ok := declared[dn.DataSource]; !ok {
				return nil, shardingerror.Newf(shardingerror.SHARD_INVALID_CONFIG,
					"data node %s of table %s refers to undeclared data source", dn, t.LogicTable)
			}
		}

		dbCfg := t.DatabaseStrategy
		if dbCfg == nil {
			dbCfg = cfg.DefaultDatabaseStrategy
		}
		tableCfg := t.TableStrategy
		if tableCfg == nil {
			tableCfg = cfg.DefaultTableStrategy
		}
		dbStrategy, err := strategy.NewStrategy(dbCfg)
		if err != nil {
			return nil, err
		}
		tableStrategy, err := strategy.NewStrategy(tableCfg)
		if err != nil {
			return nil, err
		}

		tr := NewTableRule(t.LogicTable, nodes, dbStrategy, tableStrategy)
		r.tableRules[tr.LogicTable] = tr
		r.tableOrder = append(r.tableOrder, tr.LogicTable)
	}

	for _, g := range cfg.BindingGroups {
		group := make([]string, 0, len(g))
		for _, t := range g {
			group = append(group, strings.ToLower(t))
		}
		if err := r.checkBindingGroup(group); err != nil {
			return nil, err
		}
		for _, t := range group {
			r.bindingGroups[t] = group
		}
	}

	for _, t := range cfg.BroadcastTables {
		r.broadcast[strings.ToLower(t)] = struct{}{}
	}
	return r, nil
}

// checkBindingGroup requires binding tables to share data sources and the
// number of actual tables per data source.
func (r *ShardingRule) checkBindingGroup(group []string) error {
	primary := r.tableRules[group[0]]
	for _, t := range group[1:] {
		tr := r.tableRules[t]
		if len(tr.DataSources()) != len(primary.DataSources()) {
			return errBinding(primary.LogicTable, t)
		}
		for i, ds := range primary.DataSources() {
			if tr.DataSources()[i] != ds || len(tr.ActualTables(ds)) != len(primary.ActualTables(ds)) {
				return errBinding(primary.LogicTable, t)
			}
		}
	}
	return nil
}

func errBinding(a, b string) error {
	return shardingerror.Newf(shardingerror.SHARD_INVALID_CONFIG,
		"binding tables %s and %s must have the same data node layout", a, b)
}

func (r *ShardingRule) FindTableRule(logicTable string) (*TableRule, bool) {
	tr, ok := r.tableRules[strings.ToLower(logicTable)]
	return tr, ok
}

// TableRules returns the table rules in configuration order.
func (r *ShardingRule) TableRules() []*TableRule {
	res := make([]*TableRule, 0, len(r.tableOrder))
	for _, t := range r.tableOrder {
		res = append(res, r.tableRules[t])
	}
	return res
}

func (r *ShardingRule) IsBroadcastTable(logicTable string) bool {
	_, ok := r.broadcast[strings.ToLower(logicTable)]
	return ok
}

// BindingGroup returns the binding group of logicTable, primary table first.
func (r *ShardingRule) BindingGroup(logicTable string) ([]string, bool) {
	g, ok := r.bindingGroups[strings.ToLower(logicTable)]
	return g, ok
}

// AreBound reports whether all tables belong to one binding group.
func (r *ShardingRule) AreBound(tables ...string) bool {
	if len(tables) < 2 {
		return false
	}
	g, ok := r.BindingGroup(tables[0])
	if !ok {
		return false
	}
	for _, t := range tables[1:] {
		other, ok := r.BindingGroup(t)
		if !ok || other[0] != g[0] {
			return false
		}
	}
	return true
}
