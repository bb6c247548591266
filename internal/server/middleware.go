package server

import (
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/time/rate"

	"github.com/loft/finassist/internal/whatsapp"
	"github.com/loft/finassist/logging"
)

// responseWriter wraps http.ResponseWriter to capture status code.
type responseWriter struct {
	http.ResponseWriter
	statusCode int
	bytes      int
}

func newResponseWriter(w http.ResponseWriter) *responseWriter {
	return &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *responseWriter) Write(b []byte) (int, error) {
	n, err := rw.ResponseWriter.Write(b)
	rw.bytes += n
	return n, err
}

// accessLog returns structured request logging middleware.
func accessLog(log zerolog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rw := newResponseWriter(w)

			next.ServeHTTP(rw, r)

			event := log.Info()
			if rw.statusCode >= 400 {
				event = log.Warn()
			}
			if rw.statusCode >= 500 {
				event = log.Error()
			}

			event.
				Str("method", r.Method).
				Str("path", r.URL.Path).
				Int("status", rw.statusCode).
				Int("bytes", rw.bytes).
				Dur("duration", time.Since(start)).
				Str("remote", r.RemoteAddr).
				Msg("request")
		})
	}
}

// tracing starts a server span per request, continuing propagated traces.
func tracing(tracerName string) func(http.Handler) http.Handler {
	tracer := otel.Tracer(tracerName)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := otel.GetTextMapPropagator().Extract(r.Context(), propagation.HeaderCarrier(r.Header))

			ctx, span := tracer.Start(ctx, r.Method+" "+r.URL.Path,
				trace.WithSpanKind(trace.SpanKindServer),
				trace.WithAttributes(
					attribute.String("http.request.method", r.Method),
					attribute.String("url.path", r.URL.Path),
				),
			)
			defer span.End()

			rw := newResponseWriter(w)
			next.ServeHTTP(rw, r.WithContext(ctx))

			span.SetAttributes(
				attribute.Int("http.response.status_code", rw.statusCode),
				attribute.Int("http.response_content_length", rw.bytes),
			)
		})
	}
}

// senderLimiter keeps one token bucket per WhatsApp sender.
type senderLimiter struct {
	perMinute int
	burst     int
	idle      time.Duration
	now       func() time.Time

	mu        sync.Mutex
	clients   map[string]*limitedClient
	lastSweep time.Time
}

type limitedClient struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

func newSenderLimiter(perMinute, burst int, now func() time.Time) *senderLimiter {
	return &senderLimiter{
		perMinute: perMinute,
		burst:     burst,
		idle:      3 * time.Minute,
		now:       now,
		clients:   make(map[string]*limitedClient),
		lastSweep: now(),
	}
}

// allow consumes a token for key. Idle buckets are dropped at most once a
// minute while serving requests.
func (l *senderLimiter) allow(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	if now.Sub(l.lastSweep) > time.Minute {
		for k, c := range l.clients {
			if now.Sub(c.lastSeen) > l.idle {
				delete(l.clients, k)
			}
		}
		l.lastSweep = now
	}

	c, ok := l.clients[key]
	if !ok {
		c = &limitedClient{limiter: rate.NewLimiter(rate.Limit(l.perMinute)/60.0, l.burst)}
		l.clients[key] = c
	}
	c.lastSeen = now

	return c.limiter.AllowN(now, 1)
}

func (l *senderLimiter) size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.clients)
}

// rateLimit throttles webhook calls per sender. The sender is the From form
// field, falling back to the remote address.
func rateLimit(l *senderLimiter, logger logging.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := r.RemoteAddr
			if err := r.ParseForm(); err == nil {
				if from := strings.TrimSpace(r.PostForm.Get("From")); from != "" {
					key = from
				}
			}

			if !l.allow(key) {
				logger.Warn("server.rate_limited", "sender", key)
				http.Error(w, "Rate limit exceeded", http.StatusTooManyRequests)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// twilioSignature rejects webhook calls whose X-Twilio-Signature does not
// match. publicBaseURL replaces scheme and host when the service sits behind
// a proxy.
func twilioSignature(authToken, publicBaseURL string, logger logging.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if err := r.ParseForm(); err != nil {
				http.Error(w, "Bad request", http.StatusBadRequest)
				return
			}

			fullURL := requestURL(r, publicBaseURL)
			if !whatsapp.ValidSignature(authToken, fullURL, r.PostForm, r.Header.Get(whatsapp.SignatureHeader)) {
				logger.Warn("server.signature.invalid", "url", fullURL, "remote", r.RemoteAddr)
				http.Error(w, "Invalid signature", http.StatusForbidden)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func requestURL(r *http.Request, publicBaseURL string) string {
	if publicBaseURL != "" {
		return strings.TrimRight(publicBaseURL, "/") + r.URL.RequestURI()
	}

	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	if fwd := r.Header.Get("X-Forwarded-Proto"); fwd != "" {
		scheme = fwd
	}

	return scheme + "://" + r.Host + r.URL.RequestURI()
}
