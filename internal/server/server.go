// Package server exposes the case service over HTTP (gin) and an optional
// gRPC health endpoint.
package server

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"

	"github.com/joseph-ayodele/case-analyzer/constants"
	"github.com/joseph-ayodele/case-analyzer/internal/entity"
	"github.com/joseph-ayodele/case-analyzer/internal/services/cases"
)

// CaseService is what the HTTP layer needs from services/cases.
type CaseService interface {
	AnalyzeUpload(ctx context.Context, u cases.Upload) (entity.AnalysisRecord, error)
	Get(ctx context.Context, caseID string) (entity.AnalysisRecord, error)
	List(ctx context.Context) ([]entity.AnalysisRecord, error)
	Export(ctx context.Context, from, to *time.Time) ([]byte, error)
}

type Handler struct {
	svc        CaseService
	gatherer   prometheus.Gatherer
	maxUpload  int64
	logger     *slog.Logger
	corsOrigin []string
}

type Option func(*Handler)

// WithGatherer serves /metrics from g instead of the default registry.
func WithGatherer(g prometheus.Gatherer) Option { return func(h *Handler) { h.gatherer = g } }

func WithMaxUpload(n int64) Option { return func(h *Handler) { h.maxUpload = n } }

func WithLogger(l *slog.Logger) Option { return func(h *Handler) { h.logger = l } }

func WithAllowedOrigins(origins ...string) Option {
	return func(h *Handler) { h.corsOrigin = origins }
}

// New builds the HTTP handler: gin routes wrapped in CORS.
func New(svc CaseService, opts ...Option) http.Handler {
	h := &Handler{
		svc:        svc,
		gatherer:   prometheus.DefaultGatherer,
		maxUpload:  constants.MaxUploadBytes,
		logger:     slog.Default(),
		corsOrigin: []string{"*"},
	}
	for _, o := range opts {
		o(h)
	}

	r := gin.New()
	r.MaxMultipartMemory = h.maxUpload
	r.Use(gin.Recovery(), requestID(), accessLog(h.logger))
	h.routes(r)

	c := cors.New(cors.Options{
		AllowedOrigins: h.corsOrigin,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Origin", "X-Requested-With", "Content-Type", "Accept", requestIDHeader},
		ExposedHeaders: []string{requestIDHeader},
	})
	return c.Handler(r)
}

func (h *Handler) routes(r *gin.Engine) {
	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(h.gatherer, promhttp.HandlerOpts{})))

	api := r.Group("/api")
	api.GET("/health", h.health)
	api.POST("/analyze", h.analyze)
	api.GET("/cases", h.listCases)
	api.GET("/cases/export.xlsx", h.exportCases)
	api.GET("/cases/:id", h.getCase)
}

// Server runs the HTTP handler until its context ends.
type Server struct {
	http   *http.Server
	logger *slog.Logger
}

func NewServer(addr string, handler http.Handler, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		http: &http.Server{
			Addr:              addr,
			Handler:           handler,
			ReadHeaderTimeout: 10 * time.Second,
		},
		logger: logger,
	}
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("http listening", "addr", s.http.Addr)
		if err := s.http.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	s.logger.Info("http shutting down")
	return s.http.Shutdown(shutdownCtx)
}
