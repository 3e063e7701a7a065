package config

import "encoding/json"

type ExecuterCfg struct {
	// PoolSize bounds concurrently executing targets; 0 means unbounded.
	PoolSize int `json:"pool_size" toml:"pool_size" yaml:"pool_size"`
}

type ShardingCfg struct {
	LogLevel   string `json:"log_level" toml:"log_level" yaml:"log_level"`
	LogFile    string `json:"log_file" toml:"log_file" yaml:"log_file"`
	PrettyLogs bool   `json:"pretty_logs" toml:"pretty_logs" yaml:"pretty_logs"`

	DataSources       []string `json:"data_sources" toml:"data_sources" yaml:"data_sources"`
	DefaultDataSource string   `json:"default_data_source" toml:"default_data_source" yaml:"default_data_source"`

	DefaultDatabaseStrategy *StrategyCfg `json:"default_database_strategy" toml:"default_database_strategy" yaml:"default_database_strategy"`
	DefaultTableStrategy    *StrategyCfg `json:"default_table_strategy" toml:"default_table_strategy" yaml:"default_table_strategy"`

	Tables          []*TableRuleCfg `json:"tables" toml:"tables" yaml:"tables"`
	BindingGroups   [][]string      `json:"binding_groups" toml:"binding_groups" yaml:"binding_groups"`
	BroadcastTables []string        `json:"broadcast_tables" toml:"broadcast_tables" yaml:"broadcast_tables"`

	ExecuterCfg ExecuterCfg `json:"executer" toml:"executer" yaml:"executer"`
}

var cfgSharding ShardingCfg

// LoadShardingCfg loads and validates the sharding configuration from the specified file path.
//
// Parameters:
//   - cfgPath (string): The path of the configuration file.
//
// Returns:
//   - string: JSON-formatted config
//   - error: An error if any occurred during the loading process.
func LoadShardingCfg(cfgPath string) (string, error) {
	var scfg ShardingCfg
	if err := decodeFile(cfgPath, &scfg); err != nil {
		return "", err
	}
	if err := scfg.Validate(); err != nil {
		return "", err
	}

	configBytes, err := json.MarshalIndent(&scfg, "", "  ")
	if err != nil {
		return "", err
	}

	cfgSharding = scfg
	return string(configBytes), nil
}

// ShardingConfig returns a pointer to the last successfully loaded configuration.
func ShardingConfig() *ShardingCfg {
	return &cfgSharding
}
