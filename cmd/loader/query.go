package main

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/WessleyAI/daytrip-loader/engine/domain"
	"github.com/WessleyAI/daytrip-loader/engine/graph"
	"github.com/spf13/cobra"
)

func newQueryCmd(a *app) *cobra.Command {
	var (
		where []string
		limit int
	)
	cmd := &cobra.Command{
		Use:   "query <collection>",
		Short: "Print records of a collection as JSON lines",
		Long: `Prints records whose properties match every --where condition.
Use key=value for a string and key:=value for a JSON literal, e.g.
  loader query customer --where country_name=Austria --where age:=41`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) (err error) {
			defer func() {
				if cerr := a.close(); err == nil {
					err = cerr
				}
			}()
			spec, err := domain.LookupCollection(args[0])
			if err != nil {
				return err
			}
			filter, err := parseWhere(where)
			if err != nil {
				return err
			}
			filter.Limit = limit

			ctx := cmd.Context()
			store, err := a.openStore(ctx)
			if err != nil {
				return err
			}
			rows, err := store.Query(ctx, spec.Name, filter)
			if err != nil {
				return err
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			for _, row := range rows {
				if err := enc.Encode(row); err != nil {
					return err
				}
			}
			return nil
		},
	}
	cmd.Flags().StringArrayVar(&where, "where", nil, "property condition, key=value or key:=json (repeatable)")
	cmd.Flags().IntVar(&limit, "limit", graph.DefaultQueryLimit, "maximum records to print")
	return cmd
}

func parseWhere(conds []string) (graph.Filter, error) {
	f := graph.Filter{Where: make(map[string]any, len(conds))}
	for _, c := range conds {
		key, value, ok := strings.Cut(c, "=")
		if !ok || key == "" {
			return f, fmt.Errorf("%w: %q is not key=value", graph.ErrInvalidFilter, c)
		}
		if k, isJSON := strings.CutSuffix(key, ":"); isJSON {
			var v any
			if err := json.Unmarshal([]byte(value), &v); err != nil {
				return f, fmt.Errorf("%w: %s: %v", graph.ErrInvalidFilter, k, err)
			}
			f.Where[k] = v
			continue
		}
		f.Where[key] = value
	}
	return f, nil
}
