package strategy

import (
	"strings"

	"github.com/pg-sharding/shardcore/pkg/config"
	"github.com/pg-sharding/shardcore/pkg/models/routevalue"
	"github.com/pg-sharding/shardcore/pkg/models/shardingerror"
)

// Strategy narrows candidate targets (data sources or actual tables)
// using the route values of its sharding columns. A sharding column
// without a route value does not narrow.
type Strategy interface {
	ShardingColumns() []string
	Shard(candidates []string, values []routevalue.RouteValue) ([]string, error)
}

func valueFor(column string, values []routevalue.RouteValue) routevalue.RouteValue {
	for _, v := range values {
		if v.Column().Name == column {
			return v
		}
	}
	return nil
}

type StandardStrategy struct {
	Column    string
	Algorithm Algorithm
}

var _ Strategy = &StandardStrategy{}

func (s *StandardStrategy) ShardingColumns() []string {
	return []string{s.Column}
}

func (s *StandardStrategy) Shard(candidates []string, values []routevalue.RouteValue) ([]string, error) {
	v := valueFor(s.Column, values)
	if v == nil {
		return candidates, nil
	}
	return s.Algorithm.Shard(candidates, v)
}

// ComplexStrategy intersects the targets of each sharding column.
type ComplexStrategy struct {
	Columns   []string
	Algorithm Algorithm
}

var _ Strategy = &ComplexStrategy{}

func (s *ComplexStrategy) ShardingColumns() []string {
	return s.Columns
}

func (s *ComplexStrategy) Shard(candidates []string, values []routevalue.RouteValue) ([]string, error) {
	res := candidates
	for _, col := range s.Columns {
		v := valueFor(col, values)
		if v == nil {
			continue
		}
		targets, err := s.Algorithm.Shard(res, v)
		if err != nil {
			return nil, err
		}
		res = targets
	}
	return res, nil
}

// HintStrategy shards by values supplied through a route hint rather than
// by statement predicates. Without hint values every candidate is kept.
type HintStrategy struct {
	Algorithm Algorithm
}

var _ Strategy = &HintStrategy{}

func (s *HintStrategy) ShardingColumns() []string {
	return nil
}

func (s *HintStrategy) Shard(candidates []string, values []routevalue.RouteValue) ([]string, error) {
	if len(values) == 0 {
		return candidates, nil
	}
	var res []string
	seen := map[string]struct{}{}
	for _, v := range values {
		targets, err := s.Algorithm.Shard(candidates, v)
		if err != nil {
			return nil, err
		}
		for _, t := range targets {
			seen[t] = struct{}{}
		}
	}
	for _, c := range candidates {
		if _, ok := seen[c]; ok {
			res = append(res, c)
		}
	}
	return res, nil
}

// NoneStrategy never narrows.
type NoneStrategy struct{}

var _ Strategy = NoneStrategy{}

func (NoneStrategy) ShardingColumns() []string {
	return nil
}

func (NoneStrategy) Shard(candidates []string, _ []routevalue.RouteValue) ([]string, error) {
	return candidates, nil
}

// IsHint reports whether s takes its values from route hints only.
func IsHint(s Strategy) bool {
	_, ok := s.(*HintStrategy)
	return ok
}

// NewStrategy builds the strategy described by cfg. A nil cfg is
// NoneStrategy.
func NewStrategy(cfg *config.StrategyCfg) (Strategy, error) {
	if cfg == nil {
		return NoneStrategy{}, nil
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	columns := make([]string, 0, len(cfg.Columns))
	for _, c := range cfg.Columns {
		columns = append(columns, strings.ToLower(c))
	}

	switch cfg.Type {
	case config.StrategyNone:
		return NoneStrategy{}, nil
	case config.StrategyStandard:
		alg, err := NewAlgorithm(cfg.Algorithm)
		if err != nil {
			return nil, err
		}
		return &StandardStrategy{Column: columns[0], Algorithm: alg}, nil
	case config.StrategyComplex:
		alg, err := NewAlgorithm(cfg.Algorithm)
		if err != nil {
			return nil, err
		}
		return &ComplexStrategy{Columns: columns, Algorithm: alg}, nil
	case config.StrategyHint:
		alg, err := NewAlgorithm(cfg.Algorithm)
		if err != nil {
			return nil, err
		}
		return &HintStrategy{Algorithm: alg}, nil
	default:
		return nil, shardingerror.Newf(shardingerror.SHARD_INVALID_CONFIG, "unknown sharding strategy type %q", cfg.Type)
	}
}
