// Package server is the HTML preview of the conversation renderer. It
// serves a conversation source as a page, renders posted snapshots to HTML
// fragments and exposes Prometheus metrics.
package server

import (
	"context"
	"errors"
	"html/template"
	"net/http"
	"net/netip"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/arogya-ai/chatview/chat"
	"github.com/arogya-ai/chatview/client"
	"github.com/arogya-ai/chatview/ui/avatar"
	"github.com/arogya-ai/chatview/ui/conversation"
	"github.com/arogya-ai/chatview/view"
)

// MaxBody caps POST /render payloads.
const MaxBody = "2M"

// Source returns the conversation served at "/".
type Source func() (chat.Snapshot, error)

// Prober checks whether an image locator loads. *client.Client implements
// it.
type Prober interface {
	Probe(ctx context.Context, src string) error
}

// Options configures the server.
type Options struct {
	Title        string
	Conversation conversation.Options
	Source       Source
	Prober       Prober
	ProbeTimeout time.Duration
	Logger       *zap.Logger
}

// Server is the preview HTTP server.
type Server struct {
	e       *echo.Echo
	opts    Options
	log     *zap.Logger
	cache   *avatar.Cache
	flight  singleflight.Group
	metrics *metrics
	// probeCtx bounds background probes to the server's lifetime.
	probeCtx    context.Context
	cancelProbe context.CancelFunc
}

// New builds the server and registers its routes.
func New(opts Options) *Server {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Title == "" {
		opts.Title = "chatview"
	}
	if opts.ProbeTimeout <= 0 {
		opts.ProbeTimeout = 5 * time.Second
	}
	ctx, cancel := context.WithCancel(context.Background())
	s := &Server{
		e:           echo.New(),
		opts:        opts,
		log:         opts.Logger,
		cache:       avatar.NewCache(),
		metrics:     newMetrics(),
		probeCtx:    ctx,
		cancelProbe: cancel,
	}
	s.e.HideBanner = true
	s.e.HidePort = true
	s.e.Renderer = newTemplates()
	s.e.Use(middleware.Recover())
	s.e.Use(middleware.Secure())
	s.e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogMethod:  true,
		LogURI:     true,
		LogStatus:  true,
		LogLatency: true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			s.log.Info("request",
				zap.String("method", v.Method),
				zap.String("uri", v.URI),
				zap.Int("status", v.Status),
				zap.Duration("latency", v.Latency),
			)
			return nil
		},
	}))
	s.RegisterRoutes(s.e)
	return s
}

// RegisterRoutes wires the handlers onto e.
func (s *Server) RegisterRoutes(e *echo.Echo) {
	e.GET("/", s.Page)
	e.POST("/render", s.Render, middleware.BodyLimit(MaxBody))
	e.GET("/healthz", s.Health)
	e.GET("/metrics", echo.WrapHandler(promhttp.HandlerFor(s.metrics.registry, promhttp.HandlerOpts{})))
}

// Echo exposes the underlying router, mainly for tests.
func (s *Server) Echo() *echo.Echo { return s.e }

// Start serves on addr until Shutdown.
func (s *Server) Start(addr string) error {
	s.log.Info("preview server listening", zap.String("addr", addr))
	if err := s.e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown stops the listener and cancels pending probes.
func (s *Server) Shutdown(ctx context.Context) error {
	s.cancelProbe()
	return s.e.Shutdown(ctx)
}

// Health reports liveness.
func (s *Server) Health(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

// Page renders the source conversation as a full HTML document. The query
// parameter loading=1 forces the typing indicator.
func (s *Server) Page(c echo.Context) error {
	snap := chat.Snapshot{}
	if s.opts.Source != nil {
		var err error
		snap, err = s.opts.Source()
		if err != nil {
			s.metrics.renders.WithLabelValues("page", "error").Inc()
			s.log.Error("load conversation", zap.Error(err))
			return echo.NewHTTPError(http.StatusInternalServerError, "conversation unavailable")
		}
	}
	if flag(c.QueryParam("loading")) {
		snap.Loading = true
	}
	body := s.render(snap, "page")
	return c.Render(http.StatusOK, "page", pageData{Title: s.opts.Title, Body: body})
}

// Render decodes a snapshot (a bare message list or an object with
// messages, loading and viewer) and returns the HTML fragment, or a full
// page when page=1.
func (s *Server) Render(c echo.Context) error {
	format := chat.FormatJSON
	if ct := c.Request().Header.Get(echo.HeaderContentType); strings.Contains(ct, "yaml") {
		format = chat.FormatYAML
	}
	snap, err := chat.Decode(c.Request().Body, format)
	if err != nil {
		s.metrics.renders.WithLabelValues("fragment", "bad_request").Inc()
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if flag(c.QueryParam("loading")) {
		snap.Loading = true
	}
	if flag(c.QueryParam("page")) {
		return c.Render(http.StatusOK, "page", pageData{Title: s.opts.Title, Body: s.render(snap, "page")})
	}
	return c.HTML(http.StatusOK, string(s.render(snap, "fragment")))
}

// render runs one pass and records it. Viewer avatars whose outcome is not
// known yet are shown with the initial underneath and probed in the
// background so later passes fall back on the server side too.
func (s *Server) render(snap chat.Snapshot, output string) template.HTML {
	start := time.Now()
	opts := s.opts.Conversation
	opts.Item.Probe = s.cache
	for _, err := range snap.Issues {
		s.log.Warn("message shown as plain text", zap.Error(err))
	}
	root := conversation.Render(snap.Messages, snap.Loading, snap.Viewer, opts)
	out := view.HTML(root)
	if v := snap.Viewer; v != nil {
		s.probe(strings.TrimSpace(v.AvatarImageURL))
	}

	s.metrics.latency.WithLabelValues(output).Observe(time.Since(start).Seconds())
	s.metrics.items.Observe(float64(len(snap.Messages)))
	s.metrics.renders.WithLabelValues(output, "ok").Inc()
	return template.HTML(out)
}

// probe resolves src once and reports whether a load was started.
// Concurrent requests for the same locator share one load. Only absolute
// http(s) locators are probed; anything else is left to the browser.
func (s *Server) probe(src string) bool {
	if src == "" || s.opts.Prober == nil || s.cache.State(src) != avatar.LoadUnknown {
		return false
	}
	if !probeable(src) {
		s.metrics.probes.WithLabelValues("skipped").Inc()
		return false
	}
	go func() {
		_, _, _ = s.flight.Do(src, func() (interface{}, error) {
			if s.cache.State(src) != avatar.LoadUnknown {
				return nil, nil
			}
			ctx, cancel := context.WithTimeout(s.probeCtx, s.opts.ProbeTimeout)
			defer cancel()
			err := s.opts.Prober.Probe(ctx, src)
			if s.probeCtx.Err() != nil {
				return nil, nil
			}
			if err != nil {
				s.cache.Set(src, avatar.LoadFailed)
				s.metrics.probes.WithLabelValues("failed").Inc()
				s.log.Info("viewer avatar unavailable", zap.String("url", src), zap.Error(err))
				return nil, nil
			}
			s.cache.Set(src, avatar.LoadOK)
			s.metrics.probes.WithLabelValues("ok").Inc()
			return nil, nil
		})
	}()
	return true
}

// probeable accepts absolute http(s) URLs whose host is not a loopback,
// private or link-local literal. Names resolving to such addresses are
// refused by the client's dialer.
func probeable(src string) bool {
	u, err := url.Parse(src)
	if err != nil || u.Host == "" {
		return false
	}
	switch strings.ToLower(u.Scheme) {
	case "http", "https":
	default:
		return false
	}
	host := strings.ToLower(u.Hostname())
	if host == "localhost" || strings.HasSuffix(host, ".localhost") {
		return false
	}
	if ip, err := netip.ParseAddr(host); err == nil {
		return client.PublicAddr(ip)
	}
	return true
}

// AvatarState reports what the server knows about src.
func (s *Server) AvatarState(src string) avatar.LoadState { return s.cache.State(src) }

func flag(v string) bool {
	b, err := strconv.ParseBool(v)
	return err == nil && b
}
