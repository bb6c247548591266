// Package server exposes the assistant over HTTP: the Twilio WhatsApp
// webhook, a health probe and the downloadable simulation assets.
package server

import (
	"context"
	"encoding/json"
	"encoding/xml"
	"errors"
	"io"
	"mime"
	"net/http"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog"

	"github.com/loft/finassist/artifact"
	"github.com/loft/finassist/core"
	"github.com/loft/finassist/flow"
	"github.com/loft/finassist/internal/config"
	"github.com/loft/finassist/logging"
)

// Handler turns an inbound message into a reply.
type Handler interface {
	Handle(ctx context.Context, identity, text string) string
}

// Sender delivers a reply outside the webhook response.
type Sender interface {
	Send(ctx context.Context, to, body string) ([]string, error)
}

// Options holds dependency + configuration overrides passed to New().
type Options struct {
	Logger    logging.Logger
	AccessLog zerolog.Logger
	// Assets, when set, are served under /assets/{name}.
	Assets artifact.Store
	// ReplyMode is config.ReplyModeTwiML or config.ReplyModeAPI; api needs Sender.
	ReplyMode string
	Sender    Sender
	// AuthToken enables X-Twilio-Signature checks when ValidateSignature is set.
	AuthToken         string
	ValidateSignature bool
	PublicBaseURL     string
	InboundPerMinute  int
	InboundBurst      int
	Now               func() time.Time
}

// Server routes HTTP requests to the channel handler.
type Server struct {
	handler   Handler
	opts      Options
	limiter   *senderLimiter
	router    chi.Router
	inflight  sync.WaitGroup
	logger    logging.Logger
	replyMode string
}

// New builds the router. Invalid combinations are configuration errors.
func New(h Handler, optFns ...func(o *Options)) (*Server, error) {
	if h == nil {
		return nil, core.ConfigErrorf("server.New", "message handler is required")
	}

	opts := Options{
		Logger:           logging.NoOpLogger{},
		AccessLog:        zerolog.Nop(),
		ReplyMode:        config.ReplyModeTwiML,
		InboundPerMinute: 30,
		InboundBurst:     5,
		Now:              time.Now,
	}
	for _, fn := range optFns {
		fn(&opts)
	}

	switch opts.ReplyMode {
	case config.ReplyModeTwiML:
	case config.ReplyModeAPI:
		if opts.Sender == nil {
			return nil, core.ConfigErrorf("server.New", "reply mode api needs a sender")
		}
	default:
		return nil, core.ConfigErrorf("server.New", "unknown reply mode %q", opts.ReplyMode)
	}
	if opts.ValidateSignature && opts.AuthToken == "" {
		return nil, core.ConfigErrorf("server.New", "signature validation needs the Twilio auth token")
	}
	if opts.InboundPerMinute < 1 || opts.InboundBurst < 1 {
		return nil, core.ConfigErrorf("server.New", "inbound rate limits must be at least 1")
	}

	s := &Server{
		handler:   h,
		opts:      opts,
		limiter:   newSenderLimiter(opts.InboundPerMinute, opts.InboundBurst, opts.Now),
		logger:    opts.Logger,
		replyMode: opts.ReplyMode,
	}
	s.router = s.routes()

	return s, nil
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)
	r.Use(accessLog(s.opts.AccessLog))
	r.Use(tracing(flow.TracerName))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-Id"},
		ExposedHeaders: []string{"X-Request-Id"},
		MaxAge:         300,
	}))

	r.Get("/health", s.health)

	r.Group(func(r chi.Router) {
		if s.opts.ValidateSignature {
			r.Use(twilioSignature(s.opts.AuthToken, s.opts.PublicBaseURL, s.logger))
		}
		r.Use(rateLimit(s.limiter, s.logger))
		r.Post("/receive_whatsapp", s.receiveWhatsApp)
	})

	if s.opts.Assets != nil {
		r.Get("/assets/{name}", s.asset)
	}

	return r
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) { s.router.ServeHTTP(w, r) }

// Wait blocks until replies sent in api mode have finished.
func (s *Server) Wait() { s.inflight.Wait() }

type healthResponse struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
	Message   string `json:"message"`
}

func (s *Server) health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, healthResponse{
		Status:    "ok",
		Timestamp: s.opts.Now().Format(time.RFC3339),
		Message:   "Service is running",
	})
}

type twiml struct {
	XMLName xml.Name `xml:"Response"`
	Message *string  `xml:"Message,omitempty"`
}

func (s *Server) receiveWhatsApp(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Bad request", http.StatusBadRequest)
		return
	}

	from := strings.TrimSpace(r.PostForm.Get("From"))
	body := strings.TrimSpace(r.PostForm.Get("Body"))

	if from == "" {
		s.logger.Warn("server.webhook.rejected", "reason", "missing From")
		http.Error(w, "Missing From", http.StatusBadRequest)
		return
	}

	s.logger.Info("server.webhook.received", "from", from, "message_sid", r.PostForm.Get("MessageSid"))

	if s.replyMode == config.ReplyModeAPI {
		s.inflight.Add(1)
		go func(ctx context.Context) {
			defer s.inflight.Done()
			reply := s.handler.Handle(ctx, from, body)
			if _, err := s.opts.Sender.Send(ctx, from, reply); err != nil {
				s.logger.Error("server.reply.failed", "to", from, "error", err.Error())
			}
		}(context.WithoutCancel(r.Context()))

		writeTwiML(w, nil)
		return
	}

	reply := s.handler.Handle(r.Context(), from, body)
	writeTwiML(w, &reply)
}

func (s *Server) asset(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")

	rc, err := s.opts.Assets.Open(r.Context(), name)
	if err != nil {
		if errors.Is(err, artifact.ErrNotFound) {
			http.NotFound(w, r)
			return
		}
		s.logger.Error("server.asset.failed", "name", name, "error", err.Error())
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	defer rc.Close()

	ctype := mime.TypeByExtension(filepath.Ext(name))
	if ctype == "" {
		ctype = "application/octet-stream"
	}
	w.Header().Set("Content-Type", ctype)
	w.Header().Set("Content-Disposition", `inline; filename="`+filepath.Base(name)+`"`)

	if _, err := io.Copy(w, rc); err != nil {
		s.logger.Warn("server.asset.interrupted", "name", name, "error", err.Error())
	}
}

func writeTwiML(w http.ResponseWriter, message *string) {
	out, err := xml.Marshal(twiml{Message: message})
	if err != nil {
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/xml")
	w.WriteHeader(http.StatusOK)
	_, _ = io.WriteString(w, xml.Header)
	_, _ = w.Write(out)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
