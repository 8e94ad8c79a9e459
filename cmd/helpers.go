package main

import (
	"context"

	"github.com/acuityprep/blueprint-cli/internal/matcher"
	"github.com/acuityprep/blueprint-cli/internal/pipeline"
	"github.com/acuityprep/blueprint-cli/internal/store"
	"github.com/acuityprep/blueprint-cli/internal/taxonomy"
)

// engine bundles the shared taxonomy, matcher, and pipeline built from
// config. Commands construct it once per invocation.
type engine struct {
	Tax      *taxonomy.Store
	Matcher  *matcher.Matcher
	Pipeline *pipeline.Pipeline
}

func initEngine() (*engine, error) {
	tax, err := taxonomy.Load()
	if err != nil {
		return nil, err
	}

	m := matcher.New(tax, matcher.WithFuzzyThreshold(cfg.Matcher.FuzzyThreshold))

	p := pipeline.New(tax, m,
		pipeline.WithProxyBuckets(cfg.Proxy),
		pipeline.WithMaxConcurrent(cfg.Batch.MaxConcurrentRows),
	)

	return &engine{Tax: tax, Matcher: m, Pipeline: p}, nil
}

func initStore(ctx context.Context) (store.Store, error) {
	return store.Open(ctx, store.Config{
		Driver:      cfg.Store.Driver,
		DatabaseURL: cfg.Store.DatabaseURL,
		SQLitePath:  cfg.Store.SQLitePath,
	})
}
