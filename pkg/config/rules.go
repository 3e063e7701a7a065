package config

type StrategyType string

const (
	StrategyStandard = StrategyType("standard")
	StrategyComplex  = StrategyType("complex")
	StrategyHint     = StrategyType("hint")
	StrategyNone     = StrategyType("none")
)

type AlgorithmType string

const (
	AlgorithmMod      = AlgorithmType("mod")
	AlgorithmHashMod  = AlgorithmType("hash_mod")
	AlgorithmKeyRange = AlgorithmType("key_range")
)

type KeyRangeCfg struct {
	ID         string `json:"id" toml:"id" yaml:"id"`
	LowerBound any    `json:"lower_bound" toml:"lower_bound" yaml:"lower_bound"`
	// Shard is the data source or actual table the key range routes to.
	Shard string `json:"shard" toml:"shard" yaml:"shard"`
}

type AlgorithmCfg struct {
	Type         AlgorithmType  `json:"type" toml:"type" yaml:"type"`
	Count        int            `json:"count" toml:"count" yaml:"count"`
	HashFunction string         `json:"hash_function" toml:"hash_function" yaml:"hash_function"`
	KeyRanges    []*KeyRangeCfg `json:"key_ranges" toml:"key_ranges" yaml:"key_ranges"`
}

type StrategyCfg struct {
	Type      StrategyType  `json:"type" toml:"type" yaml:"type"`
	Columns   []string      `json:"columns" toml:"columns" yaml:"columns"`
	Algorithm *AlgorithmCfg `json:"algorithm" toml:"algorithm" yaml:"algorithm"`
}

type TableRuleCfg struct {
	LogicTable string `json:"logic_table" toml:"logic_table" yaml:"logic_table"`
	// DataNodes is an inline expression such as ds_${0..1}.t_order_${0..3}.
	DataNodes        string       `json:"data_nodes" toml:"data_nodes" yaml:"data_nodes"`
	DatabaseStrategy *StrategyCfg `json:"database_strategy" toml:"database_strategy" yaml:"database_strategy"`
	TableStrategy    *StrategyCfg `json:"table_strategy" toml:"table_strategy" yaml:"table_strategy"`
}
