package app

import (
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/httprate"
	"github.com/unrolled/secure"

	"github.com/zippy-delivery/zippy-console/internal/connectivity"
	"github.com/zippy-delivery/zippy-console/internal/observability"
	"github.com/zippy-delivery/zippy-console/internal/shared"
)

const (
	defaultRequestTimeout = 30 * time.Second
	requestsPerMinute     = 60
)

// MiddlewareConfig aggregates dependencies shared by the middleware stack.
type MiddlewareConfig struct {
	Logger         *slog.Logger
	Config         *Config
	SessionManager *shared.SessionManager
	CSRFManager    *shared.CSRFManager
	Metrics        *observability.Metrics
	Connectivity   *connectivity.Monitor
}

// MiddlewareStack returns the console middleware chain in execution order.
func MiddlewareStack(cfg MiddlewareConfig) []func(http.Handler) http.Handler {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	timeout := defaultRequestTimeout
	if cfg.Config != nil && cfg.Config.AppRequestTimeout > 0 {
		timeout = cfg.Config.AppRequestTimeout
	}

	stack := []func(http.Handler) http.Handler{
		middleware.RealIP,
		middleware.RequestID,
		accessLog(logger),
		loadSession(cfg.SessionManager, logger),
		middleware.Recoverer,
		middleware.Timeout(timeout),
		secureHeaders(cfg.Config.IsProduction(), logger),
		middleware.Compress(5),
		httprate.Limit(requestsPerMinute, time.Minute, httprate.WithKeyFuncs(httprate.KeyByIP)),
		verifyCSRF(cfg.CSRFManager, logger),
	}
	if cfg.Metrics != nil {
		stack = append(stack, cfg.Metrics.Middleware)
	}
	if cfg.Connectivity != nil {
		stack = append(stack, connectivityNotices(cfg.Connectivity))
	}
	return stack
}

const connectivitySeenKey = "connectivity_seen"

// connectivityNotices queues each backend transition on the session the first
// time that session navigates after it. A new session is only told when the
// backend is currently offline.
func connectivityNotices(monitor *connectivity.Monitor) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sess := shared.SessionFromContext(r.Context())
			if sess == nil || r.Method != http.MethodGet || !pageRequest(r.URL.Path) {
				next.ServeHTTP(w, r)
				return
			}
			raw := sess.Get(connectivitySeenKey)
			var (
				notices []shared.FlashMessage
				latest  uint64
			)
			if seen, err := strconv.ParseUint(raw, 10, 64); err == nil {
				notices, latest = monitor.NoticesAfter(seen)
			} else {
				latest = monitor.Seq()
				if !monitor.Online() {
					notices = []shared.FlashMessage{connectivity.OfflineNotice}
				}
			}
			for _, n := range notices {
				sess.AddFlash(n)
			}
			if value := strconv.FormatUint(latest, 10); value != raw {
				sess.Set(connectivitySeenKey, value)
			}
			next.ServeHTTP(w, r)
		})
	}
}

func pageRequest(path string) bool {
	switch {
	case strings.HasPrefix(path, "/static/"), path == "/healthz", path == "/metrics":
		return false
	}
	return true
}

// accessLog writes one structured line per request.
func accessLog(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)
			logger.Info("http request",
				slog.String("request_id", middleware.GetReqID(r.Context())),
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
				slog.Int("status", ww.Status()),
				slog.Int("bytes", ww.BytesWritten()),
				slog.Duration("duration", time.Since(start)),
			)
		})
	}
}

// loadSession attaches the Redis session to the request context and commits
// it before the first byte of the response goes out.
func loadSession(sessions *shared.SessionManager, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sess, err := sessions.Load(r.Context(), r)
			if err != nil {
				logger.Error("load session", slog.Any("error", err))
				http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
				return
			}
			ctx := shared.ContextWithSession(r.Context(), sess)
			r = r.WithContext(ctx)

			cw := &committingWriter{ResponseWriter: w, commit: func() {
				if err := sessions.Commit(ctx, w, r, sess); err != nil {
					logger.Error("commit session", slog.Any("error", err))
				}
			}}
			next.ServeHTTP(cw, r)
			// Handlers that write nothing still persist session changes.
			cw.flush()
		})
	}
}

type committingWriter struct {
	http.ResponseWriter
	commit    func()
	committed bool
}

func (w *committingWriter) flush() {
	if !w.committed {
		w.WriteHeader(http.StatusOK)
	}
}

func (w *committingWriter) WriteHeader(status int) {
	if !w.committed {
		w.committed = true
		w.commit()
	}
	w.ResponseWriter.WriteHeader(status)
}

func (w *committingWriter) Write(data []byte) (int, error) {
	if !w.committed {
		w.WriteHeader(http.StatusOK)
	}
	return w.ResponseWriter.Write(data)
}

// secureHeaders applies the unrolled/secure policy. SSL redirects are only
// enforced in production.
func secureHeaders(production bool, logger *slog.Logger) func(http.Handler) http.Handler {
	policy := secure.New(secure.Options{
		FrameDeny:             true,
		ContentTypeNosniff:    true,
		BrowserXssFilter:      true,
		ReferrerPolicy:        "strict-origin-when-cross-origin",
		PermissionsPolicy:     "camera=(), geolocation=(), microphone=()",
		ContentSecurityPolicy: "default-src 'self'",
		SSLRedirect:           production,
		SSLProxyHeaders:       map[string]string{"X-Forwarded-Proto": "https"},
	})
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if err := policy.Process(w, r); err != nil {
				logger.Warn("secure headers blocked request", slog.Any("error", err))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// verifyCSRF rejects state-changing requests whose token does not match the
// session token.
func verifyCSRF(csrf *shared.CSRFManager, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if safeMethod(r.Method) {
				next.ServeHTTP(w, r)
				return
			}
			if err := csrf.VerifyToken(r.Context(), shared.SessionFromContext(r.Context()), shared.TokenFromRequest(r)); err != nil {
				logger.Warn("csrf validation failed", slog.String("path", r.URL.Path), slog.Any("error", err))
				http.Error(w, http.StatusText(http.StatusForbidden), http.StatusForbidden)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func safeMethod(method string) bool {
	switch method {
	case http.MethodGet, http.MethodHead, http.MethodOptions:
		return true
	}
	return false
}
