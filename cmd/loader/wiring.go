package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/WessleyAI/daytrip-loader/engine/graph"
	"github.com/WessleyAI/daytrip-loader/engine/ingest"
	"github.com/WessleyAI/daytrip-loader/pkg/mid"
	"github.com/nats-io/nats.go"
	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
)

const serviceName = "daytrip-loader"

type closerFunc func() error

func (f closerFunc) Close() error { return f() }

// openStore connects to Neo4j, or returns an in-memory store for dry runs.
func (a *app) openStore(ctx context.Context) (graph.Store, error) {
	if a.cfg.DryRun {
		a.log.Info("dry run: writing to an in-memory store")
		return graph.NewMemory(), nil
	}
	driver, err := neo4j.NewDriverWithContext(a.cfg.Neo4jURL, neo4j.BasicAuth(a.cfg.Neo4jUser, a.cfg.Neo4jPass, ""))
	if err != nil {
		return nil, fmt.Errorf("neo4j connect: %w", err)
	}
	if err := driver.VerifyConnectivity(ctx); err != nil {
		driver.Close(context.WithoutCancel(ctx))
		return nil, fmt.Errorf("neo4j verify: %w", err)
	}
	a.closers = append(a.closers, closerFunc(func() error { return driver.Close(context.Background()) }))
	a.log.Info("connected to Neo4j", "url", a.cfg.Neo4jURL, "database", a.cfg.Neo4jDatabase)
	return graph.NewNeo4j(driver, a.cfg.Neo4jDatabase), nil
}

// errorSink builds the error channel from the configured outputs. It returns
// nil when none is configured.
func (a *app) errorSink() (ingest.ErrorSink, error) {
	var sinks ingest.MultiSink
	if a.cfg.ErrorLog != "" {
		s, err := ingest.OpenJSONLines(a.cfg.ErrorLog)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, s)
		sinks = append(sinks, s)
	}
	if a.cfg.NATSURL != "" {
		nc, err := nats.Connect(a.cfg.NATSURL, nats.Name(serviceName))
		if err != nil {
			return nil, fmt.Errorf("nats connect: %w", err)
		}
		a.closers = append(a.closers, closerFunc(nc.Drain))
		sinks = append(sinks, ingest.NATSErrorSink{Pub: nc, Subject: ingest.ErrorSubject})
		a.log.Info("publishing rejected documents", "subject", ingest.ErrorSubject)
	}
	switch len(sinks) {
	case 0:
		return nil, nil
	case 1:
		return sinks[0], nil
	}
	return sinks, nil
}

func (a *app) metricsHandler() http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/metrics", a.reg.Handler())
	return mid.Chain(mux,
		mid.Recover(a.log),
		mid.Logger(a.log),
		mid.Count(a.reg),
		mid.OTel(serviceName),
	)
}

// serveMetrics exposes /metrics until the returned closer is called.
func (a *app) serveMetrics() io.Closer {
	if a.cfg.MetricsPort == 0 {
		return closerFunc(func() error { return nil })
	}
	srv := &http.Server{Addr: fmt.Sprintf(":%d", a.cfg.MetricsPort), Handler: a.metricsHandler()}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.log.Error("metrics server", "error", err)
		}
	}()
	a.log.Info("serving metrics", "addr", srv.Addr)
	return closerFunc(func() error {
		ctx, cancel := context.WithTimeout(context.Background(), a.cfg.ShutdownTimeout)
		defer cancel()
		return srv.Shutdown(ctx)
	})
}
