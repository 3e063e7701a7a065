package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/pg-sharding/shardcore/pkg/config"
	"github.com/pg-sharding/shardcore/pkg/models/shardingerror"
	"github.com/stretchr/testify/assert"
)

const yamlCfg = `
log_level: debug
data_sources: [ds_0, ds_1]
default_data_source: ds_0
tables:
  - logic_table: t_order
    data_nodes: ds_${0..1}.t_order_${0..1}
    database_strategy:
      type: standard
      columns: [user_id]
      algorithm:
        type: mod
        count: 2
    table_strategy:
      type: standard
      columns: [order_id]
      algorithm:
        type: hash_mod
        count: 2
        hash_function: murmur
  - logic_table: t_order_item
    data_nodes: ds_${0..1}.t_order_item_${0..1}
binding_groups:
  - [t_order, t_order_item]
broadcast_tables: [t_config]
executer:
  pool_size: 8
`

const tomlCfg = `
data_sources = ["ds_0", "ds_1"]

[[tables]]
logic_table = "t_user"
data_nodes = "ds_${0..1}.t_user"

[tables.database_strategy]
type = "standard"
columns = ["user_id"]

[tables.database_strategy.algorithm]
type = "key_range"

[[tables.database_strategy.algorithm.key_ranges]]
id = "kr1"
lower_bound = 0
shard = "ds_0"

[[tables.database_strategy.algorithm.key_ranges]]
id = "kr2"
lower_bound = 1000
shard = "ds_1"
`

const jsonCfg = `{
  "data_sources": ["ds_0"],
  "default_table_strategy": {"type": "none"},
  "executer": {"pool_size": 0}
}`

func writeCfg(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	assert.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadShardingCfg(t *testing.T) {
	is := assert.New(t)

	t.Run("yaml", func(t *testing.T) {
		out, err := config.LoadShardingCfg(writeCfg(t, "rules.yaml", yamlCfg))
		is.NoError(err)
		is.Contains(out, `"logic_table": "t_order"`)

		cfg := config.ShardingConfig()
		is.Equal("debug", cfg.LogLevel)
		is.Equal([]string{"ds_0", "ds_1"}, cfg.DataSources)
		is.Len(cfg.Tables, 2)
		is.Equal(config.StrategyStandard, cfg.Tables[0].TableStrategy.Type)
		is.Equal("murmur", cfg.Tables[0].TableStrategy.Algorithm.HashFunction)
		is.Equal([][]string{{"t_order", "t_order_item"}}, cfg.BindingGroups)
		is.Equal(8, cfg.ExecuterCfg.PoolSize)
	})

	t.Run("toml", func(t *testing.T) {
		_, err := config.LoadShardingCfg(writeCfg(t, "rules.toml", tomlCfg))
		is.NoError(err)

		alg := config.ShardingConfig().Tables[0].DatabaseStrategy.Algorithm
		is.Equal(config.AlgorithmKeyRange, alg.Type)
		is.Len(alg.KeyRanges, 2)
		is.Equal(int64(1000), alg.KeyRanges[1].LowerBound)
	})

	t.Run("json", func(t *testing.T) {
		_, err := config.LoadShardingCfg(writeCfg(t, "rules.json", jsonCfg))
		is.NoError(err)
		is.Equal(config.StrategyNone, config.ShardingConfig().DefaultTableStrategy.Type)
	})

	t.Run("unknown suffix", func(t *testing.T) {
		_, err := config.LoadShardingCfg(writeCfg(t, "rules.ini", jsonCfg))
		is.Error(err)
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := config.LoadShardingCfg(filepath.Join(t.TempDir(), "nope.yaml"))
		is.Error(err)
	})
}

func TestValidate(t *testing.T) {
	is := assert.New(t)

	mod := func(count int) *config.StrategyCfg {
		return &config.StrategyCfg{
			Type:      config.StrategyStandard,
			Columns:   []string{"id"},
			Algorithm: &config.AlgorithmCfg{Type: config.AlgorithmMod, Count: count},
		}
	}

	for _, tt := range []struct {
		name string
		cfg  config.ShardingCfg
		ok   bool
	}{
		{
			name: "minimal",
			cfg:  config.ShardingCfg{DataSources: []string{"ds"}},
			ok:   true,
		},
		{
			name: "no data sources",
			cfg:  config.ShardingCfg{},
		},
		{
			name: "duplicate data source",
			cfg:  config.ShardingCfg{DataSources: []string{"ds", "ds"}},
		},
		{
			name: "unknown default data source",
			cfg:  config.ShardingCfg{DataSources: []string{"ds"}, DefaultDataSource: "other"},
		},
		{
			name: "zero mod count",
			cfg: config.ShardingCfg{
				DataSources: []string{"ds"},
				Tables:      []*config.TableRuleCfg{{LogicTable: "t", DataNodes: "ds.t_${0..1}", TableStrategy: mod(0)}},
			},
		},
		{
			name: "standard with two columns",
			cfg: config.ShardingCfg{
				DataSources:          []string{"ds"},
				DefaultTableStrategy: &config.StrategyCfg{Type: config.StrategyStandard, Columns: []string{"a", "b"}},
			},
		},
		{
			name: "binding table without rule",
			cfg: config.ShardingCfg{
				DataSources:   []string{"ds"},
				Tables:        []*config.TableRuleCfg{{LogicTable: "t", DataNodes: "ds.t_${0..1}", TableStrategy: mod(2)}},
				BindingGroups: [][]string{{"t", "u"}},
			},
		},
		{
			name: "broadcast table with rule",
			cfg: config.ShardingCfg{
				DataSources:     []string{"ds"},
				Tables:          []*config.TableRuleCfg{{LogicTable: "t", DataNodes: "ds.t"}},
				BroadcastTables: []string{"T"},
			},
		},
		{
			name: "unknown hash function",
			cfg: config.ShardingCfg{
				DataSources: []string{"ds"},
				DefaultDatabaseStrategy: &config.StrategyCfg{
					Type:      config.StrategyStandard,
					Columns:   []string{"id"},
					Algorithm: &config.AlgorithmCfg{Type: config.AlgorithmHashMod, Count: 2, HashFunction: "md5"},
				},
			},
		},
		{
			name: "negative pool",
			cfg:  config.ShardingCfg{DataSources: []string{"ds"}, ExecuterCfg: config.ExecuterCfg{PoolSize: -1}},
		},
	} {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.ok {
				is.NoError(err)
				return
			}
			is.Error(err)
			is.True(shardingerror.HasCode(err, shardingerror.SHARD_INVALID_CONFIG))
		})
	}
}
