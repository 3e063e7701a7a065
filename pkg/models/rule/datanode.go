package rule

import (
	"strings"

	"github.com/pg-sharding/shardcore/pkg/models/shardingerror"
)

// DataNode is one physical table in one data source.
type DataNode struct {
	DataSource string
	Table      string
}

func (d DataNode) String() string {
	return d.DataSource + "." + d.Table
}

// ParseDataNode parses "<data source>.<table>".
func ParseDataNode(s string) (DataNode, error) {
	ds, table, ok := strings.Cut(strings.TrimSpace(s), ".")
	if !ok || ds == "" || table == "" || strings.Contains(table, ".") {
		return DataNode{}, shardingerror.Newf(shardingerror.SHARD_INVALID_CONFIG, "invalid data node %q, expected <data source>.<table>", s)
	}
	return DataNode{DataSource: ds, Table: strings.ToLower(table)}, nil
}

// ParseDataNodes expands an inline data node expression.
func ParseDataNodes(expr string) ([]DataNode, error) {
	names, err := ExpandInline(expr)
	if err != nil {
		return nil, err
	}
	nodes := make([]DataNode, 0, len(names))
	seen := map[DataNode]struct{}{}
	for _, n := range names {
		dn, err := ParseDataNode(n)
		if err != nil {
			return nil, err
		}
		if _, ok := seen[dn]; ok {
			return nil, shardingerror.Newf(shardingerror.SHARD_INVALID_CONFIG, "duplicate data node %s", dn)
		}
		seen[dn] = struct{}{}
		nodes = append(nodes, dn)
	}
	return nodes, nil
}
