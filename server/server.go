// Package server exposes the dashboard over HTTP and websocket.
package server

import (
	"context"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"html/template"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/rustyeddy/stockchart/dashboard"
	"github.com/rustyeddy/stockchart/market"
)

//go:embed templates/*.html
var templates embed.FS

const shutdownTimeout = 30 * time.Second

// Server serves the dashboard page, the JSON API and the live /ws channel.
type Server struct {
	src      dashboard.Source
	engine   *gin.Engine
	logger   *slog.Logger
	upgrader websocket.Upgrader
}

type Option func(*Server)

func WithLogger(l *slog.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.logger = l
		}
	}
}

// New builds a Server reading Price Tables from src.
func New(src dashboard.Source, opts ...Option) *Server {
	s := &Server{
		src:    src,
		logger: slog.Default(),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
	}
	for _, opt := range opts {
		opt(s)
	}

	s.engine = gin.New()
	s.engine.SetHTMLTemplate(template.Must(template.ParseFS(templates, "templates/*.html")))
	s.routes()
	return s
}

func (s *Server) routes() {
	r := s.engine
	r.Use(RequestID())
	r.Use(Logger(s.logger))
	r.Use(Recovery(s.logger))

	r.GET("/", s.index)
	r.GET("/healthz", s.health)
	r.GET("/ws", s.live)

	api := r.Group("/api")
	{
		api.GET("/controls", s.controls)
		api.GET("/view", s.view)
		api.GET("/table.csv", s.tableCSV)
	}
}

// Handler returns the http.Handler for tests and embedding.
func (s *Server) Handler() http.Handler { return s.engine }

// Config holds listener settings for Run.
type Config struct {
	Addr         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// Run serves until ctx is cancelled, then drains outstanding requests.
func (s *Server) Run(ctx context.Context, cfg Config) error {
	srv := &http.Server{
		Addr:         cfg.Addr,
		Handler:      s.engine,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}

	errc := make(chan error, 1)
	go func() {
		s.logger.Info("starting dashboard server", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errc <- err
		}
		close(errc)
	}()

	select {
	case err := <-errc:
		if err != nil {
			return fmt.Errorf("listen %s: %w", cfg.Addr, err)
		}
		return nil
	case <-ctx.Done():
	}

	s.logger.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	s.logger.Info("server exited")
	return nil
}

// StatusFor maps a page error to the HTTP status the API answers with.
func StatusFor(e *dashboard.ErrorView) int {
	if e == nil {
		return http.StatusOK
	}
	switch e.Kind {
	case dashboard.KindInput.String():
		return http.StatusBadRequest
	case dashboard.KindProvider.String():
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// ParseSelection reads a Selection from query parameters. Missing
// parameters take the control defaults; an explicit empty company list is
// kept empty.
func ParseSelection(c *gin.Context, names []string) (dashboard.Selection, error) {
	sel := dashboard.DefaultSelection(names)

	if v, ok := c.GetQuery("days"); ok {
		d, err := strconv.Atoi(v)
		if err != nil {
			return sel, badQuery("days", v)
		}
		sel.Days = d
	}
	if v, ok := c.GetQuery("ymin"); ok {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return sel, badQuery("ymin", v)
		}
		sel.YMin = f
	}
	if v, ok := c.GetQuery("ymax"); ok {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return sel, badQuery("ymax", v)
		}
		sel.YMax = f
	}
	if vs, ok := c.GetQueryArray("company"); ok {
		sel.Companies = []string{}
		for _, v := range vs {
			for _, name := range strings.Split(v, ",") {
				if name = strings.TrimSpace(name); name != "" {
					sel.Companies = append(sel.Companies, name)
				}
			}
		}
	}
	return sel, nil
}

func badQuery(param, value string) error {
	return &dashboard.Error{Kind: dashboard.KindInput, Err: fmt.Errorf("invalid %s: %q", param, value)}
}

func (s *Server) names() []string { return s.src.Registry().Names() }

func (s *Server) index(c *gin.Context) {
	c.HTML(http.StatusOK, "index.html", gin.H{
		"Controls":  dashboard.NewControls(s.names()),
		"Selection": dashboard.DefaultSelection(s.names()),
	})
}

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok", "tickers": len(s.src.Registry())})
}

func (s *Server) controls(c *gin.Context) {
	c.JSON(http.StatusOK, dashboard.NewControls(s.names()))
}

func (s *Server) view(c *gin.Context) {
	sel, err := ParseSelection(c, s.names())
	if err != nil {
		page := dashboard.Page{
			Controls: dashboard.NewControls(s.names()),
			Error:    dashboard.NewErrorView(err),
		}
		c.JSON(StatusFor(page.Error), page)
		return
	}

	page := dashboard.Build(c.Request.Context(), s.src, sel)
	if page.Failed() {
		s.logger.Warn("view failed",
			"kind", page.Error.Kind,
			"days", sel.Days,
			"request_id", c.GetString("request_id"),
		)
	} else {
		s.logger.Debug("view rendered",
			"days", sel.Days,
			"series", page.View.Chart.Series(),
			"request_id", c.GetString("request_id"),
		)
	}
	c.JSON(StatusFor(page.Error), page)
}

// tableCSV exports the Price Table for the selection, sorted by name.
func (s *Server) tableCSV(c *gin.Context) {
	sel, err := ParseSelection(c, s.names())
	if err == nil && (sel.Days < dashboard.MinDays || sel.Days > dashboard.MaxDays) {
		err = sel.Validate()
	}
	if err != nil {
		ev := dashboard.NewErrorView(err)
		c.JSON(StatusFor(ev), gin.H{"error": ev})
		return
	}

	t, err := s.src.Fetch(c.Request.Context(), sel.Days)
	if err != nil {
		ev := dashboard.NewErrorView(err)
		c.JSON(StatusFor(ev), gin.H{"error": ev})
		return
	}
	if _, ok := c.GetQueryArray("company"); ok {
		if t, err = t.Slice(sel.Companies); err != nil {
			ev := dashboard.NewErrorView(err)
			c.JSON(StatusFor(ev), gin.H{"error": ev})
			return
		}
	}

	c.Header("Content-Type", "text/csv; charset=utf-8")
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="stock-prices-%dd.csv"`, sel.Days))
	c.Status(http.StatusOK)
	if err := market.WriteCSV(c.Writer, t.SortedByName()); err != nil {
		s.logger.Error("write csv", "error", err)
	}
}

// live answers each Selection received on the socket with a fresh Page.
func (s *Server) live(c *gin.Context) {
	conn, err := s.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		s.logger.Warn("websocket upgrade", "error", err)
		return
	}
	defer conn.Close()
	conn.SetReadLimit(64 << 10)

	ctx := c.Request.Context()
	for {
		_, msg, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				s.logger.Debug("websocket closed", "error", err)
			}
			return
		}

		var page dashboard.Page
		var sel dashboard.Selection
		if err := json.Unmarshal(msg, &sel); err != nil {
			page = dashboard.Page{
				Controls: dashboard.NewControls(s.names()),
				Error: dashboard.NewErrorView(&dashboard.Error{
					Kind: dashboard.KindInput,
					Err:  fmt.Errorf("invalid selection: %w", err),
				}),
			}
		} else {
			page = dashboard.Build(ctx, s.src, sel)
		}

		if err := conn.WriteJSON(page); err != nil {
			s.logger.Debug("websocket write", "error", err)
			return
		}
	}
}
