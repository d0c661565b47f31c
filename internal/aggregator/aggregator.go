package aggregator

import (
	"context"
	"sync"
	"time"

	"github.com/atikulmunna/logpage/internal/model"
)

const window = time.Minute

// SourceStats describes the most recent render of one source.
type SourceStats struct {
	LastRender time.Time `json:"last_render"`
	LastError  string    `json:"last_error,omitempty"`
	Renders    int64     `json:"renders"`
	Failures   int64     `json:"failures"`
}

// Stats holds a point-in-time snapshot of render metrics.
type Stats struct {
	Uptime         string                 `json:"uptime"`
	TotalRenders   int64                  `json:"total_renders"`
	Failures       int64                  `json:"failures"`
	RecentRenders  int                    `json:"recent_renders"` // last minute
	DroppedUpdates int64                  `json:"dropped_updates"`
	SourcesWatched int                    `json:"sources_watched"`
	Sources        map[string]SourceStats `json:"sources"`
}

// Aggregator counts renders from published updates and request-time renders.
type Aggregator struct {
	mu        sync.RWMutex
	startTime time.Time
	total     int64
	failures  int64
	sources   map[string]*SourceStats
	recent    []time.Time
	dropped   func() int64
	fileCount func() int
	updates   <-chan model.Excerpt
}

// New creates an Aggregator. updates may be nil when only Observe is used;
// droppedFn and fileCountFn may be nil and then report zero.
func New(updates <-chan model.Excerpt, droppedFn func() int64, fileCountFn func() int) *Aggregator {
	if droppedFn == nil {
		droppedFn = func() int64 { return 0 }
	}
	if fileCountFn == nil {
		fileCountFn = func() int { return 0 }
	}
	return &Aggregator{
		startTime: time.Now(),
		sources:   make(map[string]*SourceStats),
		dropped:   droppedFn,
		fileCount: fileCountFn,
		updates:   updates,
	}
}

// Snapshot returns the current metrics.
func (a *Aggregator) Snapshot() Stats {
	a.mu.RLock()
	defer a.mu.RUnlock()

	sources := make(map[string]SourceStats, len(a.sources))
	for k, v := range a.sources {
		sources[k] = *v
	}

	cutoff := time.Now().Add(-window)
	var recent int
	for _, t := range a.recent {
		if t.After(cutoff) {
			recent++
		}
	}

	return Stats{
		Uptime:         time.Since(a.startTime).Truncate(time.Second).String(),
		TotalRenders:   a.total,
		Failures:       a.failures,
		RecentRenders:  recent,
		DroppedUpdates: a.dropped(),
		SourcesWatched: a.fileCount(),
		Sources:        sources,
	}
}

// Start consumes updates until the context is cancelled or updates close.
func (a *Aggregator) Start(ctx context.Context) {
	ticker := time.NewTicker(10 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case ex, ok := <-a.updates:
			if !ok {
				return
			}
			a.Observe(ex)
		case <-ticker.C:
			a.prune()
		}
	}
}

// Observe records one render. Safe for concurrent use.
func (a *Aggregator) Observe(ex model.Excerpt) {
	a.mu.Lock()
	defer a.mu.Unlock()

	s, ok := a.sources[ex.Source]
	if !ok {
		s = &SourceStats{}
		a.sources[ex.Source] = s
	}

	a.total++
	s.Renders++
	s.LastRender = ex.RenderedAt
	s.LastError = ex.Err
	if ex.Failed() {
		a.failures++
		s.Failures++
	}
	a.recent = append(a.recent, time.Now())
}

// prune drops timestamps that fell out of the window.
func (a *Aggregator) prune() {
	a.mu.Lock()
	defer a.mu.Unlock()

	cutoff := time.Now().Add(-window)
	i := 0
	for _, t := range a.recent {
		if t.After(cutoff) {
			a.recent[i] = t
			i++
		}
	}
	a.recent = a.recent[:i]
}
