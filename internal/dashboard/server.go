// Package dashboard serves the holder explorer: HTML pages, a JSON API and
// a websocket stream of store state.
package dashboard

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"holdermap/internal/observability"
	"holdermap/internal/storage"
	"holdermap/internal/tokenstore"
)

//go:embed templates/*.html
var templateFS embed.FS

const shutdownTimeout = 10 * time.Second

// Server is the dashboard HTTP server.
type Server struct {
	store     *tokenstore.Store
	snapshots storage.SnapshotStore
	logger    zerolog.Logger
	started   time.Time

	engine   *gin.Engine
	layouts  layoutCache
	upgrader websocket.Upgrader
}

// Option configures Server.
type Option func(*Server)

// WithSnapshotStore enables the history endpoint.
func WithSnapshotStore(ss storage.SnapshotStore) Option {
	return func(s *Server) {
		s.snapshots = ss
	}
}

// WithCheckOrigin overrides the websocket origin check.
func WithCheckOrigin(fn func(r *http.Request) bool) Option {
	return func(s *Server) {
		s.upgrader.CheckOrigin = fn
	}
}

// New creates a dashboard server over store.
func New(store *tokenstore.Store, logger zerolog.Logger, opts ...Option) (*Server, error) {
	s := &Server{
		store:   store,
		logger:  logger.With().Str("component", "dashboard").Logger(),
		started: time.Now(),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
		},
	}
	for _, opt := range opts {
		opt(s)
	}

	tmpl, err := template.New("").Funcs(templateFuncs).ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}
	s.engine = s.routes(tmpl)
	return s, nil
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.engine
}

func (s *Server) routes(tmpl *template.Template) *gin.Engine {
	r := gin.New()
	r.SetHTMLTemplate(tmpl)
	r.Use(gin.Recovery())
	r.Use(requestLogger(s.logger))
	r.Use(requestMetrics())

	r.GET("/", s.handleIndex)
	r.GET("/token", s.handleToken)

	r.GET("/health", func(c *gin.Context) {
		c.String(http.StatusOK, "ok")
	})
	r.GET("/status", s.handleStatus)
	r.GET("/metrics", gin.WrapH(observability.Handler()))
	r.GET("/ws", s.handleWS)

	api := r.Group("/api")
	{
		api.POST("/fetch", s.handleFetch)
		api.GET("/state", s.handleState)
		api.DELETE("/state/token", s.handleClearToken)
		api.DELETE("/state/error", s.handleClearError)
		api.PUT("/state/mint", s.handleSetMint)
		api.GET("/token", s.handleTokenView)
		api.GET("/recent", s.handleRecent)
		api.POST("/recent", s.handleAddRecent)
		api.DELETE("/recent", s.handleClearRecent)
		api.DELETE("/recent/:address", s.handleRemoveRecent)
		api.GET("/graph", s.handleGraph)
		api.GET("/graph.svg", s.handleGraphSVG)
		api.GET("/history/:mint", s.handleHistory)
	}
	return r
}

// Run serves on addr until ctx is done, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info().Str("addr", addr).Msg("starting HTTP server")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
		s.logger.Info().Msg("shutting down HTTP server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		return fmt.Errorf("http server: %w", err)
	}
}

// StatusResponse is the JSON response for /status.
type StatusResponse struct {
	Status         string    `json:"status"`
	Uptime         string    `json:"uptime"`
	Started        time.Time `json:"started"`
	MintAddress    string    `json:"mint_address,omitempty"`
	Loading        bool      `json:"loading"`
	HasTokenData   bool      `json:"has_token_data"`
	RecentSearches int       `json:"recent_searches"`
	History        bool      `json:"history_enabled"`
}

func (s *Server) handleStatus(c *gin.Context) {
	st := s.store.State()
	c.JSON(http.StatusOK, StatusResponse{
		Status:         "running",
		Uptime:         time.Since(s.started).Round(time.Second).String(),
		Started:        s.started,
		MintAddress:    st.MintAddress,
		Loading:        st.Loading,
		HasTokenData:   st.TokenData != nil,
		RecentSearches: len(st.RecentSearches),
		History:        s.snapshots != nil,
	})
}
