package server

import (
	"context"
	"embed"
	"errors"
	"html/template"
	"io/fs"
	"net/http"
	"net/http/pprof"
	"time"

	"github.com/atikulmunna/logpage/internal/aggregator"
	"github.com/atikulmunna/logpage/internal/excerpt"
	"github.com/atikulmunna/logpage/internal/hub"
	"github.com/atikulmunna/logpage/internal/model"
	"github.com/atikulmunna/logpage/internal/parser"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

//go:embed all:web
var webFS embed.FS

// Options configures the web server.
type Options struct {
	Addr       string
	Source     string
	Renderer   *excerpt.Renderer
	Hub        *hub.Hub // optional; enables live updates on /ws
	Aggregator *aggregator.Aggregator
	Pprof      bool
	Logger     *zap.Logger
}

// Server serves the host page and the excerpt endpoints.
type Server struct {
	engine   *gin.Engine
	opts     Options
	page     *template.Template
	log      *zap.Logger
	renderer *excerpt.Renderer
	agg      *aggregator.Aggregator
}

// pageData feeds web/index.html.
type pageData struct {
	Title     string
	Excerpt   template.HTML
	Available bool
}

// New creates the web server.
func New(opts Options) (*Server, error) {
	if opts.Renderer == nil {
		opts.Renderer = excerpt.NewRenderer("")
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Aggregator == nil {
		opts.Aggregator = aggregator.New(nil, nil, nil)
	}

	webContent, err := fs.Sub(webFS, "web")
	if err != nil {
		return nil, err
	}
	page, err := template.ParseFS(webContent, "index.html")
	if err != nil {
		return nil, err
	}

	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.RedirectTrailingSlash = false
	engine.RedirectFixedPath = false

	s := &Server{
		engine:   engine,
		opts:     opts,
		page:     page,
		log:      opts.Logger,
		renderer: opts.Renderer,
		agg:      opts.Aggregator,
	}
	s.setupRoutes(webContent)
	return s, nil
}

// Handler exposes the engine for tests and embedding.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// serveEmbedded writes a file from the embedded FS with the given content type.
func serveEmbedded(webContent fs.FS, name string, contentType string) gin.HandlerFunc {
	// Pre-read the file at startup so we don't read on every request.
	data, err := fs.ReadFile(webContent, name)
	return func(c *gin.Context) {
		if err != nil {
			c.String(http.StatusNotFound, "file not found: %s", name)
			return
		}
		c.Data(http.StatusOK, contentType, data)
	}
}

func (s *Server) setupRoutes(webContent fs.FS) {
	s.engine.GET("/", s.handlePage)
	s.engine.GET("/style.css", serveEmbedded(webContent, "style.css", "text/css; charset=utf-8"))
	s.engine.GET("/app.js", serveEmbedded(webContent, "app.js", "application/javascript; charset=utf-8"))

	s.engine.GET("/excerpt", s.handleFragment)
	s.engine.GET("/api/excerpt", s.handleAPIExcerpt)
	s.engine.GET("/api/stats", func(c *gin.Context) {
		c.JSON(http.StatusOK, s.agg.Snapshot())
	})
	s.engine.GET("/healthz", func(c *gin.Context) {
		stats := s.agg.Snapshot()
		c.JSON(http.StatusOK, gin.H{
			"status":          "ok",
			"uptime":          stats.Uptime,
			"source":          s.opts.Source,
			"total_renders":   stats.TotalRenders,
			"failures":        stats.Failures,
			"dropped_updates": stats.DroppedUpdates,
		})
	})

	s.engine.GET("/ws", s.handleWebSocket)

	if s.opts.Pprof {
		s.engine.GET("/debug/pprof/", gin.WrapF(pprof.Index))
		s.engine.GET("/debug/pprof/cmdline", gin.WrapF(pprof.Cmdline))
		s.engine.GET("/debug/pprof/profile", gin.WrapF(pprof.Profile))
		s.engine.GET("/debug/pprof/symbol", gin.WrapF(pprof.Symbol))
		s.engine.GET("/debug/pprof/trace", gin.WrapF(pprof.Trace))
		s.engine.GET("/debug/pprof/heap", gin.WrapH(pprof.Handler("heap")))
		s.engine.GET("/debug/pprof/goroutine", gin.WrapH(pprof.Handler("goroutine")))
	}
}

// render reads the source fresh and records the outcome.
func (s *Server) render() (model.Excerpt, error) {
	ex, err := s.renderer.Excerpt(s.opts.Source)
	if err != nil {
		s.agg.Observe(model.Excerpt{Source: s.opts.Source, RenderedAt: time.Now().UTC(), Err: err.Error()})
		return model.Excerpt{}, err
	}
	s.agg.Observe(ex)
	return ex, nil
}

// handlePage serves the host page. An unreadable source drops the excerpt
// section but the page is still served.
func (s *Server) handlePage(c *gin.Context) {
	data := pageData{Title: "Development"}

	ex, err := s.render()
	if err != nil {
		s.log.Warn("excerpt unavailable", zap.String("source", s.opts.Source), zap.Error(err))
	} else {
		data.Excerpt = template.HTML(ex.HTML) // trusted fragment
		data.Available = true
	}

	c.Header("Content-Type", "text/html; charset=utf-8")
	c.Status(http.StatusOK)
	if err := s.page.Execute(c.Writer, data); err != nil {
		s.log.Error("page template failed", zap.Error(err))
	}
}

func (s *Server) handleFragment(c *gin.Context) {
	ex, err := s.render()
	if err != nil {
		c.String(statusFor(err), "excerpt unavailable")
		return
	}
	c.Data(http.StatusOK, "text/html; charset=utf-8", []byte(ex.HTML))
}

func (s *Server) handleAPIExcerpt(c *gin.Context) {
	ex, err := s.render()
	if err != nil {
		c.JSON(statusFor(err), gin.H{"source": s.opts.Source, "error": err.Error()})
		return
	}

	entries, err := parser.ParseEntries(ex.HTML)
	if err != nil {
		s.log.Warn("entry parse failed", zap.Error(err))
	}
	c.JSON(http.StatusOK, gin.H{
		"source":      ex.Source,
		"html":        ex.HTML,
		"digest":      ex.Digest,
		"rendered_at": ex.RenderedAt,
		"entries":     entries,
	})
}

// statusFor maps a render error to an HTTP status.
func statusFor(err error) int {
	if errors.Is(err, fs.ErrNotExist) {
		return http.StatusNotFound
	}
	return http.StatusInternalServerError
}

// Start serves until the context is cancelled, then shuts down gracefully.
func (s *Server) Start(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.opts.Addr,
		Handler:           s.engine,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info("listening", zap.String("addr", s.opts.Addr), zap.String("source", s.opts.Source))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}
}
