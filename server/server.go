// Package server exposes the dashboard over HTTP: the HTML page, the JSON view model, cache
// invalidation, health and Prometheus metrics.
package server

import (
	"context"
	"embed"
	"errors"
	"html/template"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/aouyang1/go-forecastboard/cache"
	"github.com/aouyang1/go-forecastboard/dashboard"
	"github.com/aouyang1/go-forecastboard/sheet"
	"github.com/gin-gonic/gin"
	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	RequestIDHeader = "X-Request-ID"

	requestIDKey = "requestID"
	version      = "1.0.0"
)

var (
	requestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "forecastboard_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"route", "method", "status"},
	)
	requestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "forecastboard_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"route"},
	)
)

//go:embed templates/*.html
var templateFS embed.FS

// Renderer produces the view of a mode.
type Renderer interface {
	Render(ctx context.Context, mode dashboard.Mode) (*dashboard.View, error)
}

// TabCache is the memoized tab store the server reports on and invalidates.
type TabCache interface {
	Clear()
	Len() int
	Keys() []cache.Key
	Stats() (hits, misses int64)
	InvalidateSource(src sheet.Source) int
}

type Server struct {
	renderer Renderer
	cache    TabCache
	engine   *gin.Engine
}

// New wires the routes. tabs may be nil, in which case invalidation is a no-op.
func New(renderer Renderer, tabs TabCache) *Server {
	s := &Server{
		renderer: renderer,
		cache:    tabs,
	}

	r := gin.New()
	r.Use(gin.Recovery(), requestID(), observe())
	r.SetHTMLTemplate(template.Must(
		template.New("").ParseFS(templateFS, "templates/*.html"),
	))

	r.GET("/", s.Page)
	r.GET("/health", s.Health)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := r.Group("/api/v1")
	{
		api.GET("/modes", s.Modes)
		api.GET("/view", s.View)
		api.GET("/cache", s.Cache)
		api.POST("/cache/invalidate", s.InvalidateCache)
	}

	s.engine = r
	return s
}

func (s *Server) Handler() http.Handler {
	return s.engine
}

// requestID propagates or assigns a request id and logs the request once served.
func requestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(RequestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		c.Set(requestIDKey, id)
		c.Header(RequestIDHeader, id)

		start := time.Now()
		c.Next()
		slog.Info("served request",
			"requestID", id,
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"duration", time.Since(start),
		)
	}
}

func observe() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		requestsTotal.WithLabelValues(route, c.Request.Method, strconv.Itoa(c.Writer.Status())).Inc()
		requestDuration.WithLabelValues(route).Observe(time.Since(start).Seconds())
	}
}

// writeJSON encodes v with go-json rather than gin's default encoder.
func writeJSON(c *gin.Context, status int, v interface{}) {
	b, err := json.Marshal(v)
	if err != nil {
		slog.Error("unable to encode response", "requestID", c.GetString(requestIDKey), "error", err)
		c.Data(http.StatusInternalServerError, "application/json; charset=utf-8", []byte(`{"error":"unable to encode response"}`))
		return
	}
	c.Data(status, "application/json; charset=utf-8", b)
}

func writeError(c *gin.Context, status int, err error) {
	writeJSON(c, status, gin.H{"error": err.Error()})
}

type HealthResponse struct {
	Status  string `json:"status"`
	Service string `json:"service"`
	Version string `json:"version"`
	Cache   int    `json:"cache"`
}

func (s *Server) Health(c *gin.Context) {
	resp := HealthResponse{
		Status:  "ok",
		Service: "forecastboard",
		Version: version,
	}
	if s.cache != nil {
		resp.Cache = s.cache.Len()
	}
	writeJSON(c, http.StatusOK, resp)
}

type CacheResponse struct {
	Entries []string `json:"entries"`
	Hits    int64    `json:"hits"`
	Misses  int64    `json:"misses"`
}

// Cache lists the cached tabs with the lookup counts since start.
func (s *Server) Cache(c *gin.Context) {
	resp := CacheResponse{Entries: []string{}}
	if s.cache != nil {
		for _, key := range s.cache.Keys() {
			resp.Entries = append(resp.Entries, key.String())
		}
		resp.Hits, resp.Misses = s.cache.Stats()
	}
	writeJSON(c, http.StatusOK, resp)
}

type ModeResponse struct {
	ID    dashboard.Mode `json:"id"`
	Label string         `json:"label"`
}

func (s *Server) Modes(c *gin.Context) {
	modes := make([]ModeResponse, 0, len(dashboard.Modes()))
	for _, m := range dashboard.Modes() {
		modes = append(modes, ModeResponse{ID: m, Label: m.Label()})
	}
	writeJSON(c, http.StatusOK, modes)
}

// render resolves the mode query parameter and runs one render pass.
func (s *Server) render(c *gin.Context) (*dashboard.View, int, error) {
	mode, err := dashboard.ParseMode(c.Query("mode"))
	if err != nil {
		return nil, http.StatusBadRequest, err
	}
	view, err := s.renderer.Render(c.Request.Context(), mode)
	if err != nil {
		if errors.Is(err, dashboard.ErrUnknownMode) {
			return nil, http.StatusBadRequest, err
		}
		slog.Error("unable to render view", "requestID", c.GetString(requestIDKey), "mode", mode, "error", err)
		return nil, http.StatusInternalServerError, err
	}
	return view, http.StatusOK, nil
}

func (s *Server) View(c *gin.Context) {
	view, status, err := s.render(c)
	if err != nil {
		writeError(c, status, err)
		return
	}
	writeJSON(c, status, view)
}

type InvalidateResponse struct {
	Invalidated int `json:"invalidated"`
}

// InvalidateCache drops the tabs of the given spreadsheet, optionally narrowed to one tab, or
// the whole cache when no spreadsheet is given.
func (s *Server) InvalidateCache(c *gin.Context) {
	spreadsheet := c.Query("spreadsheet")
	tab := c.Query("tab")
	if spreadsheet == "" && tab != "" {
		writeError(c, http.StatusBadRequest, errors.New("tab requires a spreadsheet"))
		return
	}
	if s.cache == nil {
		writeJSON(c, http.StatusOK, InvalidateResponse{})
		return
	}

	var n int
	if spreadsheet == "" {
		n = s.cache.Len()
		s.cache.Clear()
	} else {
		n = s.cache.InvalidateSource(sheet.Source{SpreadsheetID: spreadsheet, TabID: tab})
	}
	slog.Info("invalidated cache",
		"requestID", c.GetString(requestIDKey),
		"spreadsheet", spreadsheet,
		"tab", tab,
		"entries", n,
	)
	writeJSON(c, http.StatusOK, InvalidateResponse{Invalidated: n})
}
