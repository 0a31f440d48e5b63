package http

import (
	"context"
	"html/template"
	"io/fs"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"driverlog/internal/cache"
	"driverlog/internal/core"
	"driverlog/internal/ledger"
	"driverlog/internal/log"
	"driverlog/internal/photostore"
	appweb "driverlog/web"
)

type Server struct {
	http.Server
	templates   *template.Template
	writer      ledger.RecordWriter
	deleter     ledger.RecordDeleter
	lister      ledger.RecordLister
	photos      photostore.PhotoStore
	rateLimiter *rateLimiter
	structLog   *log.StructuredLogger

	// Record collection cache; every aggregate view derives from it.
	recordsCache *cache.LRUCache[[]core.WorkRecord]
	cacheManager *cache.Manager

	shutdownOnce sync.Once
}

// NewServer configures routes and templates, returning a ready-to-run server.
// The photo store may be nil; photo endpoints then reply 503.
func NewServer(addr string, writer ledger.RecordWriter, deleter ledger.RecordDeleter, lister ledger.RecordLister, photos photostore.PhotoStore) *Server {
	mux := http.NewServeMux()

	s := &Server{
		Server: http.Server{
			Addr:    addr,
			Handler: mux,
		},
		writer:       writer,
		deleter:      deleter,
		lister:       lister,
		photos:       photos,
		rateLimiter:  newRateLimiter(),
		structLog:    log.NewStructuredLogger(log.New(log.Config{Level: slog.LevelInfo, Component: log.ComponentHTTP})),
		recordsCache: cache.NewLRUCache[[]core.WorkRecord](10, 5*time.Minute),
		cacheManager: cache.NewManager(),
	}

	s.cacheManager.Register(s.recordsCache)
	s.cacheManager.StartCleanup(10 * time.Minute)

	// Parse embedded templates at startup.
	t, err := template.ParseFS(appweb.TemplatesFS, "templates/*.html")
	if err != nil {
		slog.Warn("Failed parsing templates", "error", err)
	}
	s.templates = t

	// Static assets (served from embedded FS)
	if sub, err := fs.Sub(appweb.StaticFS, "static"); err == nil {
		static := http.StripPrefix("/static/", http.FileServer(http.FS(sub)))
		mux.Handle("/static/", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Cache-Control", "public, max-age=3600, immutable")
			static.ServeHTTP(w, r)
		}))
	} else {
		slog.Warn("Failed to mount embedded static FS", "error", err)
	}

	mux.HandleFunc("/", s.withSecurityHeaders(s.handleIndex))
	mux.HandleFunc("/healthz", handleHealth)
	mux.HandleFunc("/readyz", handleReady)
	mux.HandleFunc("/records", s.withSecurityHeaders(s.handleCreateRecord))
	mux.HandleFunc("/records/delete", s.withSecurityHeaders(s.handleDeleteRecord))
	mux.HandleFunc("/export.csv", s.withSecurityHeaders(s.handleExport))
	mux.HandleFunc("/photos/", s.withSecurityHeaders(s.handlePhoto))
	// UI partials
	mux.HandleFunc("/ui/dashboard", s.withSecurityHeaders(s.handleDashboard))
	mux.HandleFunc("/ui/history", s.withSecurityHeaders(s.handleHistory))

	return s
}

const recordsCacheKey = "records"

// records returns the live collection, via the cache when fresh.
func (s *Server) records(ctx context.Context) ([]core.WorkRecord, error) {
	if items, found := s.recordsCache.Get(recordsCacheKey); found {
		slog.DebugContext(ctx, "Records cache hit", "count", len(items))
		out := make([]core.WorkRecord, len(items))
		copy(out, items)
		return out, nil
	}

	if s.lister == nil {
		return nil, nil
	}
	// Small timeout so partials never hang.
	cctx, cancel := context.WithTimeout(ctx, 7*time.Second)
	defer cancel()
	items, err := s.lister.ListRecords(cctx)
	if err != nil {
		return nil, err
	}

	s.recordsCache.Set(recordsCacheKey, items)
	slog.DebugContext(ctx, "Records cached", "count", len(items))
	return items, nil
}

func (s *Server) invalidateRecords() {
	s.recordsCache.Delete(recordsCacheKey)
}

// Shutdown gracefully shuts down the server and cleanup routines.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error

	s.shutdownOnce.Do(func() {
		if s.cacheManager != nil {
			s.cacheManager.Stop()
		}
		if s.rateLimiter != nil {
			s.rateLimiter.stop()
		}
		shutdownErr = s.Server.Shutdown(ctx)
	})

	return shutdownErr
}

// withSecurityHeaders adds security headers, rate limiting, and request
// logging to responses.
func (s *Server) withSecurityHeaders(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		clientIP := extractClientIP(r)
		requestID := generateRequestID()
		ctx := context.WithValue(r.Context(), requestIDKey, requestID)
		r = r.WithContext(ctx)

		s.structLog.LogHTTPStart(ctx, r, clientIP, requestID)

		// Rate limit writes only.
		if r.Method == http.MethodPost && !s.rateLimiter.allow(clientIP) {
			slog.WarnContext(ctx, "Rate limit exceeded", "client_ip", clientIP, "method", r.Method, "url", r.URL.Path)
			w.Header().Set("Retry-After", "60")
			http.Error(w, "Rate limit exceeded. Please try again later.", http.StatusTooManyRequests)
			return
		}

		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("X-XSS-Protection", "1; mode=block")
		w.Header().Set("Content-Security-Policy", "default-src 'self'; script-src 'self' https://unpkg.com 'unsafe-eval'; style-src 'self' 'unsafe-inline'; img-src 'self' data:; connect-src 'self'")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")

		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next(rw, r)

		s.structLog.LogHTTPEnd(ctx, r, rw.statusCode, time.Since(start).Milliseconds(), clientIP, requestID)
	}
}

type contextKey string

const requestIDKey contextKey = "request_id"

// responseWriter wraps http.ResponseWriter to capture the status code.
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func handleReady(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}
