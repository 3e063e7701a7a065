package config

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
	"github.com/pg-sharding/shardcore/pkg/models/shardingerror"
	"gopkg.in/yaml.v2"
)

type unmarshalFunc func(data []byte, target any) error

var decoders = map[string]unmarshalFunc{
	".toml": toml.Unmarshal,
	".yaml": yaml.Unmarshal,
	".yml":  yaml.Unmarshal,
	".json": json.Unmarshal,
}

// decodeFile reads path and decodes it into target, picking the format by
// the file name extension.
func decodeFile(path string, target any) error {
	decode, ok := decoders[filepath.Ext(path)]
	if !ok {
		return shardingerror.Newf(shardingerror.SHARD_INVALID_CONFIG,
			"unknown config format of %s, use .toml, .yaml or .json suffix in filename", path)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if err := decode(data, target); err != nil {
		return shardingerror.Wrap(shardingerror.SHARD_INVALID_CONFIG, err)
	}
	return nil
}
