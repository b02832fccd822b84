// Command loader imports exported travel-order JSON into a Neo4j graph.
//
//	loader init                      create collections and reference data
//	loader import orders.json        stream a JSON array into the graph
//	loader query order --where key=o-1
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/WessleyAI/daytrip-loader/pkg/config"
	"github.com/WessleyAI/daytrip-loader/pkg/logging"
	"github.com/WessleyAI/daytrip-loader/pkg/metrics"
	"github.com/spf13/cobra"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "loader:", err)
		os.Exit(1)
	}
}

// app is the state shared by every subcommand once flags are parsed.
type app struct {
	cfg     config.Config
	log     *slog.Logger
	reg     *metrics.Registry
	closers []io.Closer
}

// close releases everything opened for the command. Subcommands defer it,
// since cobra skips post-run hooks when RunE fails.
func (a *app) close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		errs = append(errs, a.closers[i].Close())
	}
	a.closers = nil
	return errors.Join(errs...)
}

func newRootCmd() *cobra.Command {
	a := &app{reg: metrics.New()}
	var envFile string

	root := &cobra.Command{
		Use:           "loader",
		Short:         "Load travel-order JSON into a graph database",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(envFile, cmd.Flags())
			if err != nil {
				return err
			}
			log, closer, err := logging.New(logging.Options{Level: cfg.LogLevel, File: cfg.LogFile, Console: cmd.ErrOrStderr()})
			if err != nil {
				return err
			}
			a.cfg, a.log = cfg, log
			a.closers = append(a.closers, closer)
			log.Debug("config loaded", "config", cfg)
			return nil
		},
	}
	root.PersistentFlags().StringVar(&envFile, "env-file", ".env", "dotenv file read before the environment")
	config.RegisterFlags(root.PersistentFlags())

	root.AddCommand(newImportCmd(a), newInitCmd(a), newQueryCmd(a))
	return root
}
