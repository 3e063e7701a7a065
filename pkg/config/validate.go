package config

import (
	"strings"

	"github.com/pg-sharding/shardcore/pkg/models/hashfunction"
	"github.com/pg-sharding/shardcore/pkg/models/shardingerror"
)

func errInvalid(format string, a ...any) error {
	return shardingerror.Newf(shardingerror.SHARD_INVALID_CONFIG, format, a...)
}

// Validate checks the configuration for structural errors. Data node
// expressions are checked when the sharding rule is built.
func (c *ShardingCfg) Validate() error {
	if len(c.DataSources) == 0 {
		return errInvalid("no data sources configured")
	}
	ds := map[string]struct{}{}
	for _, d := range c.DataSources {
		if d == "" {
			return errInvalid("empty data source name")
		}
		if _, ok := ds[d]; ok {
			return errInvalid("duplicate data source %q", d)
		}
		ds[d] = struct{}{}
	}
	if c.DefaultDataSource != "" {
		if _, ok := ds[c.DefaultDataSource]; !ok {
			return errInvalid("default data source %q is not declared", c.DefaultDataSource)
		}
	}

	if c.DefaultDatabaseStrategy != nil {
		if err := c.DefaultDatabaseStrategy.Validate(); err != nil {
			return err
		}
	}
	if c.DefaultTableStrategy != nil {
		if err := c.DefaultTableStrategy.Validate(); err != nil {
			return err
		}
	}

	tables := map[string]struct{}{}
	for _, t := range c.Tables {
		name := strings.ToLower(t.LogicTable)
		if name == "" {
			return errInvalid("table rule without logic table")
		}
		if _, ok := tables[name]; ok {
			return errInvalid("duplicate table rule for %q", name)
		}
		tables[name] = struct{}{}
		if strings.TrimSpace(t.DataNodes) == "" {
			return errInvalid("table %q has no data nodes", name)
		}
		for _, s := range []*StrategyCfg{t.DatabaseStrategy, t.TableStrategy} {
			if s == nil {
				continue
			}
			if err := s.Validate(); err != nil {
				return err
			}
		}
	}

	for _, g := range c.BindingGroups {
		if len(g) < 2 {
			return errInvalid("binding group %v must contain at least two tables", g)
		}
		for _, t := range g {
			if _, ok := tables[strings.ToLower(t)]; !ok {
				return errInvalid("binding table %q has no table rule", t)
			}
		}
	}
	for _, t := range c.BroadcastTables {
		if _, ok := tables[strings.ToLower(t)]; ok {
			return errInvalid("broadcast table %q must not have a table rule", t)
		}
	}

	if c.ExecuterCfg.PoolSize < 0 {
		return errInvalid("executer pool size must not be negative, got %d", c.ExecuterCfg.PoolSize)
	}
	return nil
}

func (s *StrategyCfg) Validate() error {
	switch s.Type {
	case StrategyStandard:
		if len(s.Columns) != 1 {
			return errInvalid("standard strategy needs exactly one sharding column, got %v", s.Columns)
		}
	case StrategyComplex:
		if len(s.Columns) == 0 {
			return errInvalid("complex strategy needs sharding columns")
		}
	case StrategyHint:
		if len(s.Columns) != 0 {
			return errInvalid("hint strategy takes no sharding columns")
		}
	case StrategyNone:
		return nil
	default:
		return errInvalid("unknown sharding strategy type %q", s.Type)
	}
	if s.Algorithm == nil {
		return errInvalid("%s strategy has no algorithm", s.Type)
	}
	return s.Algorithm.Validate()
}

func (a *AlgorithmCfg) Validate() error {
	switch a.Type {
	case AlgorithmMod:
		if a.Count <= 0 {
			return errInvalid("mod algorithm count must be positive, got %d", a.Count)
		}
	case AlgorithmHashMod:
		if a.Count <= 0 {
			return errInvalid("hash_mod algorithm count must be positive, got %d", a.Count)
		}
		if _, err := hashfunction.HashFunctionByName(a.HashFunction); err != nil {
			return err
		}
	case AlgorithmKeyRange:
		if len(a.KeyRanges) == 0 {
			return errInvalid("key_range algorithm has no key ranges")
		}
		if _, err := hashfunction.HashFunctionByName(a.HashFunction); err != nil {
			return err
		}
		for _, k := range a.KeyRanges {
			if k.LowerBound == nil || k.Shard == "" {
				return errInvalid("key range %q needs lower_bound and shard", k.ID)
			}
		}
	default:
		return errInvalid("unknown sharding algorithm type %q", a.Type)
	}
	return nil
}
