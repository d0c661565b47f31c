package cmd

import (
	"context"
	"fmt"

	"github.com/atikulmunna/logpage/internal/aggregator"
	"github.com/atikulmunna/logpage/internal/excerpt"
	"github.com/atikulmunna/logpage/internal/hub"
	"github.com/atikulmunna/logpage/internal/publisher"
	"github.com/atikulmunna/logpage/internal/watcher"
	"golang.org/x/sync/errgroup"
)

// pipeline wires watcher -> publisher -> hub -> aggregator.
type pipeline struct {
	watcher   *watcher.Watcher
	publisher *publisher.Publisher
	hub       *hub.Hub
	agg       *aggregator.Aggregator
}

func newPipeline(patterns []string, renderer *excerpt.Renderer) (*pipeline, error) {
	w, err := watcher.New(patterns, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create watcher: %w", err)
	}
	if len(w.Paths()) == 0 {
		_ = w.Close()
		return nil, fmt.Errorf("no files matched the given patterns: %v", patterns)
	}

	state, err := publisher.NewState(cfg.Publish.State)
	if err != nil {
		_ = w.Close()
		return nil, fmt.Errorf("failed to load state: %w", err)
	}

	pub := publisher.New(publisher.Options{
		Renderer: renderer,
		State:    state,
		Dir:      cfg.Publish.Dir,
		Sources:  w.Paths(),
		Events:   w.Events,
		Interval: cfg.Publish.Interval,
		Logger:   logger,
	})

	h := hub.New(pub.Updates(), logger)
	_, stats := h.Subscribe()
	agg := aggregator.New(stats, h.Dropped, func() int { return len(w.Paths()) })

	return &pipeline{watcher: w, publisher: pub, hub: h, agg: agg}, nil
}

// run starts every stage in g. The publisher is the only stage that can fail.
func (p *pipeline) run(ctx context.Context, g *errgroup.Group) {
	g.Go(func() error {
		p.watcher.Start(ctx)
		return nil
	})
	g.Go(func() error {
		return p.publisher.Start(ctx)
	})
	g.Go(func() error {
		p.hub.Start(ctx)
		return nil
	})
	g.Go(func() error {
		p.agg.Start(ctx)
		return nil
	})
}
