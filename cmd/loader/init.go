package main

import (
	"fmt"

	"github.com/WessleyAI/daytrip-loader/engine/graph"
	"github.com/spf13/cobra"
)

func newInitCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Create missing collections and seed reference data",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) (err error) {
			defer func() {
				if cerr := a.close(); err == nil {
					err = cerr
				}
			}()
			ctx := cmd.Context()

			store, err := a.openStore(ctx)
			if err != nil {
				return err
			}
			created, err := graph.EnsureSchema(ctx, store, a.log)
			if err != nil {
				return err
			}
			seeded, err := graph.Seed(ctx, store, a.log)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "collections created: %d, reference records seeded: %d\n", len(created), seeded)
			return nil
		},
	}
}
