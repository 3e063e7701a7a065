package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/pg-sharding/shardcore/pkg/models/shardingerror"
	"github.com/pg-sharding/shardcore/router/planner"
	"github.com/pg-sharding/shardcore/router/route"
	"github.com/pg-sharding/shardcore/router/routehint"
	"github.com/spf13/cobra"
)

func newRouteCmd(opts *options) *cobra.Command {
	var (
		params     []string
		dbHints    []string
		tableHints []string
	)

	cmd := &cobra.Command{
		Use:   "route `query`",
		Short: "print the route units of a statement",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sr, err := opts.loadRule()
			if err != nil {
				return err
			}

			stmt, err := planner.ParseStatement(args[0], parseParams(params))
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			if len(dbHints) > 0 || len(tableHints) > 0 {
				hint := routehint.NewShardingValuesRouteHint()
				if err := addHints(dbHints, hint.AddDatabaseValue); err != nil {
					return err
				}
				if err := addHints(tableHints, hint.AddTableValue); err != nil {
					return err
				}
				ctx = routehint.WithHint(ctx, hint)
			}

			res, err := route.NewEngine(sr).RouteStatement(ctx, stmt)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			_, _ = fmt.Fprintf(out, "%s on %s: %d unit(s)\n", stmt.Type, strings.Join(stmt.Tables, ", "), len(res.Units))
			for _, u := range res.Units {
				_, _ = fmt.Fprintln(out, u.String())
			}
			return nil
		},
	}

	cmd.Flags().StringArrayVarP(&params, "param", "p", nil, "positional parameter value, repeatable")
	cmd.Flags().StringArrayVar(&dbHints, "hint-db", nil, "database hint as table=value, repeatable")
	cmd.Flags().StringArrayVar(&tableHints, "hint-table", nil, "table hint as table=value, repeatable")
	return cmd
}

// parseParams keeps integers as int64 and everything else as text.
func parseParams(raw []string) []any {
	params := make([]any, len(raw))
	for i, p := range raw {
		params[i] = parseValue(p)
	}
	return params
}

func parseValue(s string) any {
	if strings.EqualFold(s, "null") {
		return nil
	}
	if v, err := strconv.ParseInt(s, 10, 64); err == nil {
		return v
	}
	return s
}

func addHints(raw []string, add func(string, any) *routehint.ShardingValuesRouteHint) error {
	for _, h := range raw {
		table, value, ok := strings.Cut(h, "=")
		if !ok || table == "" {
			return shardingerror.Newf(shardingerror.SHARD_MISSING_HINT, "malformed hint %q, expected table=value", h)
		}
		add(table, parseValue(value))
	}
	return nil
}
