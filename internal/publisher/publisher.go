package publisher

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/atikulmunna/logpage/internal/excerpt"
	"github.com/atikulmunna/logpage/internal/model"
	"github.com/atikulmunna/logpage/internal/watcher"
	"go.uber.org/zap"
)

// Publisher re-renders sources when they change and writes the fragments
// into an output directory for a static web server to include.
type Publisher struct {
	renderer *excerpt.Renderer
	state    *State
	dir      string
	sources  []string
	events   <-chan watcher.Event
	out      chan model.Excerpt
	interval time.Duration
	log      *zap.Logger
}

// Options configures a Publisher.
type Options struct {
	Renderer *excerpt.Renderer
	State    *State
	Dir      string
	Sources  []string             // rendered once at start
	Events   <-chan watcher.Event // subsequent changes
	Interval time.Duration        // state save period
	Logger   *zap.Logger
}

// New creates a Publisher.
func New(opts Options) *Publisher {
	if opts.Renderer == nil {
		opts.Renderer = excerpt.NewRenderer("")
	}
	if opts.Interval <= 0 {
		opts.Interval = 5 * time.Second
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	return &Publisher{
		renderer: opts.Renderer,
		state:    opts.State,
		dir:      opts.Dir,
		sources:  opts.Sources,
		events:   opts.Events,
		out:      make(chan model.Excerpt, 64),
		interval: opts.Interval,
		log:      opts.Logger,
	}
}

// Updates returns the channel of published excerpts, including failed renders.
func (p *Publisher) Updates() <-chan model.Excerpt {
	return p.out
}

// Start publishes every source, then republishes on change. Blocks until the
// context is cancelled or the event channel closes.
func (p *Publisher) Start(ctx context.Context) error {
	defer close(p.out)

	if err := os.MkdirAll(p.dir, 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}

	for _, src := range p.sources {
		p.publish(ctx, src)
	}

	saveTicker := time.NewTicker(p.interval)
	defer saveTicker.Stop()

	for {
		select {
		case <-ctx.Done():
			p.saveState()
			return nil

		case ev, ok := <-p.events:
			if !ok {
				p.saveState()
				return nil
			}
			p.publish(ctx, ev.Path)

		case <-saveTicker.C:
			p.saveState()
		}
	}
}

// publish renders one source and writes it if the fragment changed.
func (p *Publisher) publish(ctx context.Context, source string) {
	ex, err := p.renderer.Excerpt(source)
	if err != nil {
		p.log.Warn("source unavailable", zap.String("source", source), zap.Error(err))
		p.withdraw(source)
		p.emit(ctx, model.Excerpt{Source: source, RenderedAt: time.Now().UTC(), Err: err.Error()})
		return
	}

	if prev, ok := p.state.Get(source); ok && prev == ex.Digest {
		if _, err := os.Stat(p.Target(source)); err == nil {
			p.log.Debug("fragment unchanged", zap.String("source", source))
			return
		}
	}

	target := p.Target(source)
	if err := writeAtomic(target, []byte(ex.HTML)); err != nil {
		p.log.Error("write fragment failed", zap.String("target", target), zap.Error(err))
		p.emit(ctx, model.Excerpt{Source: source, RenderedAt: ex.RenderedAt, Err: err.Error()})
		return
	}
	p.state.Set(source, ex.Digest)
	p.log.Info("published fragment", zap.String("source", source), zap.String("target", target))
	p.emit(ctx, ex)
}

// withdraw removes a source's fragment and forgets its digest, so the host
// page stops including stale content and the next good render is republished.
func (p *Publisher) withdraw(source string) {
	p.state.Delete(source)
	target := p.Target(source)
	if err := os.Remove(target); err != nil && !errors.Is(err, fs.ErrNotExist) {
		p.log.Warn("remove stale fragment failed", zap.String("target", target), zap.Error(err))
	}
}

func (p *Publisher) emit(ctx context.Context, ex model.Excerpt) {
	select {
	case p.out <- ex:
	case <-ctx.Done():
	}
}

// Target returns the fragment path for a source: the parent directory name
// joined to the file name, e.g. cvs/index.html -> <dir>/cvs-index.html.
func (p *Publisher) Target(source string) string {
	parent := filepath.Base(filepath.Dir(source))
	name := filepath.Base(source)
	if parent == "." || parent == string(filepath.Separator) {
		return filepath.Join(p.dir, name)
	}
	return filepath.Join(p.dir, parent+"-"+name)
}

func (p *Publisher) saveState() {
	if err := p.state.Save(); err != nil {
		p.log.Warn("state save failed", zap.Error(err))
	}
}
