package main

import (
	"fmt"
	"time"

	"github.com/WessleyAI/daytrip-loader/engine/graph"
	"github.com/WessleyAI/daytrip-loader/engine/ingest"
	"github.com/spf13/cobra"
)

func newImportCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "import <file.json>",
		Short: "Stream a JSON array of travel orders into the graph",
		Long: `Reads the file one document at a time, validates every entity and
relationship, and upserts the valid ones. Rejected records are logged;
documents that cannot be processed at all go to the error log and, when
configured, to NATS. Interrupting stops reading and lets queued documents
finish.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) (err error) {
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
			if _, err := graph.EnsureSchema(ctx, store, a.log); err != nil {
				return err
			}
			sink, err := a.errorSink()
			if err != nil {
				return err
			}
			a.closers = append(a.closers, a.serveMetrics())

			p := ingest.NewProcessor(store, ingest.Options{Logger: a.log, WriteRate: a.cfg.WriteRate})
			s, err := ingest.RunFile(ctx, args[0], p, ingest.BatchOptions{
				Workers:   a.cfg.Workers,
				BatchSize: a.cfg.BatchSize,
				Logger:    a.log,
				Counters:  ingest.NewMetricsCounters(a.reg),
				Errors:    sink,
			})
			fmt.Fprintf(cmd.OutOrStdout(), "documents read: %d, processed: %d, errored: %d, records inserted: %d, rejected: %d, write failures: %d, elapsed: %s\n",
				s.Read, s.Processed, s.Errored, s.Inserted, s.Rejections, s.PersistFailures, s.Elapsed.Round(time.Millisecond))
			if s.Interrupted {
				a.log.Warn("import interrupted", "read", s.Read)
			}
			return err
		},
	}
}
