// Package http exposes the report engine as a JSON and file-download API.
package http

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/cors"

	"rentaltax/internal/core"
	"rentaltax/internal/log"
	"rentaltax/internal/middleware/ratelimit"
	"rentaltax/internal/middleware/security"
	"rentaltax/internal/middleware/trace"
	"rentaltax/internal/ports"
	"rentaltax/internal/services"
	"rentaltax/internal/tenant"
)

// ReportAPI is the service surface the handlers call.
type ReportAPI interface {
	Aggregate(ctx context.Context, accountID, propertyID string, year int) (core.ScheduleEReport, error)
	GenerateSingle(ctx context.Context, accountID, propertyID string, year int) (*services.SingleReport, error)
	GenerateAndSaveSingle(ctx context.Context, accountID, propertyID string, year int) (core.GeneratedReport, error)
	RunBatch(ctx context.Context, accountID string, propertyIDs []string, year int) (*core.BatchResult, *core.GeneratedReport, error)
	List(ctx context.Context, accountID string) ([]core.ReportListItem, error)
	Download(ctx context.Context, accountID, reportID string) (*services.Artifact, error)
	Delete(ctx context.Context, accountID, reportID string) error
}

type Server struct {
	http.Server

	reports   ReportAPI
	publisher ports.BatchJobPublisher
	ready     func(context.Context) error
	logger    *log.Logger
	limiter   *ratelimit.Limiter
	tracer    *trace.Middleware
	clientIP  *security.ClientIP
	origins   []string
	proxies   []string
	devAcct   string
	newJobID  func() string
	now       func() time.Time

	shutdownOnce sync.Once
}

type Option func(*Server)

// WithPublisher enables asynchronous batch requests.
func WithPublisher(p ports.BatchJobPublisher) Option {
	return func(s *Server) { s.publisher = p }
}

// WithReadiness sets the check behind /readyz.
func WithReadiness(check func(context.Context) error) Option {
	return func(s *Server) { s.ready = check }
}

func WithLogger(l *log.Logger) Option {
	return func(s *Server) { s.logger = l }
}

// WithRateLimiter throttles report generation per account.
func WithRateLimiter(l *ratelimit.Limiter) Option {
	return func(s *Server) { s.limiter = l }
}

// WithTrustedProxies adds CIDRs whose forwarding headers name the client.
func WithTrustedProxies(cidrs []string) Option {
	return func(s *Server) { s.proxies = cidrs }
}

func WithCORSOrigins(origins []string) Option {
	return func(s *Server) { s.origins = origins }
}

// WithDevAccount serves requests lacking X-Account-ID as accountID. Only for
// local runs without a gateway.
func WithDevAccount(accountID string) Option {
	return func(s *Server) { s.devAcct = accountID }
}

func WithClock(now func() time.Time) Option {
	return func(s *Server) { s.now = now }
}

func NewServer(addr string, reports ReportAPI, opts ...Option) (*Server, error) {
	s := &Server{
		reports:  reports,
		ready:    func(context.Context) error { return nil },
		logger:   log.Wrap(nil, log.ComponentHTTP),
		newJobID: uuid.NewString,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.WithComponent(log.ComponentHTTP)
	clientIP, err := security.NewClientIP(s.proxies...)
	if err != nil {
		return nil, err
	}
	s.clientIP = clientIP
	s.tracer = trace.NewMiddleware(s.logger, s.clientIP.Extract)

	s.Server = http.Server{
		Addr:              addr,
		Handler:           s.routes(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		// batch generation over many properties can take a while
		WriteTimeout: 5 * time.Minute,
		IdleTimeout:  120 * time.Second,
	}
	return s, nil
}

func (s *Server) routes() http.Handler {
	api := http.NewServeMux()
	generate := s.generationLimit()

	api.HandleFunc("GET /api/properties/{id}/schedule-e", s.handlePreview)
	api.HandleFunc("GET /api/properties/{id}/schedule-e.pdf", s.handlePreviewPDF)
	api.Handle("POST /api/reports", generate(http.HandlerFunc(s.handleCreateReport)))
	api.Handle("POST /api/reports/batch", generate(http.HandlerFunc(s.handleCreateBatch)))
	api.HandleFunc("GET /api/reports", s.handleListReports)
	api.HandleFunc("GET /api/reports/{id}/download", s.handleDownload)
	api.HandleFunc("DELETE /api/reports/{id}", s.handleDeleteReport)

	var scoped http.Handler = tenant.Middleware(api)
	if s.devAcct != "" {
		scoped = tenant.LocalDevMiddleware(s.devAcct)(scoped)
	}

	root := http.NewServeMux()
	root.HandleFunc("GET /healthz", handleHealth)
	root.HandleFunc("GET /readyz", s.handleReady)
	root.Handle("/api/", scoped)

	var h http.Handler = root
	h = security.Headers(security.DefaultHeadersConfig())(h)
	h = log.RequestIDMiddleware(trace.RequestIDFromRequest)(h)
	h = log.Middleware(s.logger)(h)
	h = s.tracer.Handler(h)
	if len(s.origins) > 0 {
		h = cors.New(cors.Options{
			AllowedOrigins:   s.origins,
			AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodDelete},
			AllowedHeaders:   []string{"Content-Type", tenant.HeaderAccountID, trace.HeaderRequestID},
			ExposedHeaders:   []string{"Content-Disposition", trace.HeaderRequestID},
			AllowCredentials: true,
			MaxAge:           600,
		}).Handler(h)
	}
	return h
}

func (s *Server) generationLimit() func(http.Handler) http.Handler {
	if s.limiter == nil {
		return func(next http.Handler) http.Handler { return next }
	}
	return s.limiter.Middleware(func(r *http.Request) string {
		if id, ok := tenant.AccountID(r.Context()); ok {
			return "acct:" + id
		}
		return "ip:" + s.clientIP.Extract(r)
	}, func(w http.ResponseWriter, r *http.Request) {
		log.FromContext(r.Context()).WarnContext(r.Context(), "Rate limit exceeded",
			log.NewFields().WithHTTPRequest(r.Method, r.URL.Path, "", "").ToSlice()...)
		writeJSON(w, http.StatusTooManyRequests, errorBody{Error: "rate limit exceeded, please try again later"})
	})
}

// Shutdown drains in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	var err error
	s.shutdownOnce.Do(func() {
		err = s.Server.Shutdown(ctx)
	})
	return err
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()
	if err := s.ready(ctx); err != nil {
		log.FromContext(ctx).WarnContext(ctx, "Readiness check failed", log.NewFields().WithError(err).ToSlice()...)
		http.Error(w, "not ready", http.StatusServiceUnavailable)
		return
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}
