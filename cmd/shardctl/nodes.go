package main

import (
	"fmt"

	"github.com/pg-sharding/shardcore/pkg/config"
	"github.com/pg-sharding/shardcore/pkg/models/kr"
	"github.com/pg-sharding/shardcore/pkg/strategy"
	"github.com/spf13/cobra"
)

func newDataNodesCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "data-nodes",
		Short: "list the data nodes of every sharded table",
		RunE: func(cmd *cobra.Command, args []string) error {
			sr, err := opts.loadRule()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for _, tr := range sr.TableRules() {
				_, _ = fmt.Fprintf(out, "%s:", tr.LogicTable)
				for _, dn := range tr.DataNodes {
					_, _ = fmt.Fprintf(out, " %s", dn)
				}
				_, _ = fmt.Fprintln(out)
			}
			return nil
		},
	}
}

func newKeyRangesCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "key-ranges",
		Short: "print the predicate every key range covers",
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := opts.loadRule(); err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for _, t := range config.ShardingConfig().Tables {
				for _, s := range []*config.StrategyCfg{t.DatabaseStrategy, t.TableStrategy} {
					if s == nil || s.Algorithm == nil || s.Algorithm.Type != config.AlgorithmKeyRange || len(s.Columns) == 0 {
						continue
					}
					alg, err := strategy.NewAlgorithm(s.Algorithm)
					if err != nil {
						return err
					}
					set := alg.(*strategy.KeyRangeAlgorithm).KeyRanges
					for i, k := range set.KeyRanges() {
						_, _ = fmt.Fprintf(out, "%s %s -> %s: %s\n",
							t.LogicTable, k.ID, k.ShardID,
							kr.GetKRCondition(s.Columns[0], k, set.UpperBound(i), t.LogicTable))
					}
				}
			}
			return nil
		},
	}
}
