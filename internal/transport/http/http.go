// Package http implements the HTTP transport for ttsbroker.
//
// It serves POST /tts, the CORS preflight for every path, GET/POST /health
// for engines that report their backend's availability, and an optional Swagger UI.
// Every other method and path combination answers 404.
package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
	httpSwagger "github.com/swaggo/http-swagger/v2"

	"github.com/nadzzz/ttsbroker/internal/message"
	"github.com/nadzzz/ttsbroker/internal/observe"
	"github.com/nadzzz/ttsbroker/internal/prosody"
	"github.com/nadzzz/ttsbroker/internal/transport"
	"github.com/nadzzz/ttsbroker/internal/tts"
)

// DefaultMaxBodyBytes caps POST /tts bodies when no limit is configured.
const DefaultMaxBodyBytes = 1 << 20

// Fixed client-facing error messages. Details go to the log only.
const (
	msgMissingText = "Missing text parameter"
	msgBadRequest  = "Invalid request body"
	msgUnavailable = "Speech backend unavailable"
	msgSynthesis   = "Error generating speech"
	msgNotFound    = "Not found"
)

// HealthResponse is the body of /health.
type HealthResponse struct {
	Status        string `json:"status" example:"healthy"`
	GTTSAvailable bool   `json:"gtts_available" example:"true"`
}

// ttsPayload is the wire form of a POST /tts body.
type ttsPayload struct {
	Text     string `json:"text"`
	Language string `json:"language"`
	Voice    string `json:"voice"`
}

// Option configures a Transport.
type Option func(*Transport)

// WithMaxBodyBytes limits the size of request bodies.
func WithMaxBodyBytes(n int64) Option {
	return func(t *Transport) {
		if n > 0 {
			t.maxBody = n
		}
	}
}

// WithSwagger enables the Swagger UI at /swagger/.
func WithSwagger(enabled bool) Option {
	return func(t *Transport) { t.swagger = enabled }
}

// WithAvailability registers /health, reporting the engine's availability.
func WithAvailability(p tts.AvailabilityReporter) Option {
	return func(t *Transport) { t.reporter = p }
}

// WithMetrics wraps the router with tracing and request metrics.
func WithMetrics(m *observe.Metrics) Option {
	return func(t *Transport) { t.metrics = m }
}

// Transport implements transport.Transport over HTTP.
type Transport struct {
	addr     string
	maxBody  int64
	swagger  bool
	reporter tts.AvailabilityReporter // nil: /health is not served
	metrics  *observe.Metrics

	mu     sync.Mutex
	server *http.Server
	bound  net.Addr
}

// New creates a new HTTP transport bound to addr (host:port).
func New(addr string, opts ...Option) *Transport {
	t := &Transport{addr: addr, maxBody: DefaultMaxBodyBytes}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Name returns the transport identifier.
func (t *Transport) Name() string { return "http" }

// Addr returns the address the server is bound to, or nil before Listen.
func (t *Transport) Addr() net.Addr {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.bound
}

// Handler builds the router for the given request handler.
func (t *Transport) Handler(handler transport.Handler) http.Handler {
	mux := http.NewServeMux()

	// POST /tts: text in, audio out.
	mux.HandleFunc("POST /tts", func(w http.ResponseWriter, r *http.Request) {
		t.handleTTS(w, r, handler)
	})

	// OPTIONS on any path answers the CORS preflight.
	mux.HandleFunc("OPTIONS /", handlePreflight)

	if t.reporter != nil {
		mux.HandleFunc("GET /health", t.handleHealth)
		mux.HandleFunc("POST /health", t.handleHealth)
		// GET patterns also match HEAD.
		mux.HandleFunc("HEAD /health", handleNotFound)
	}

	if t.swagger {
		// Swagger UI: serves the generated OpenAPI docs.
		mux.Handle("GET /swagger/", httpSwagger.Handler(
			httpSwagger.URL("/swagger/doc.json"),
		))
	}

	// Catch-all so unsupported methods on known paths are 404, not 405.
	mux.HandleFunc("/", handleNotFound)

	var h http.Handler = mux
	if t.metrics != nil {
		h = observe.Middleware(t.metrics)(h)
	}
	return h
}

// Listen starts the HTTP server and routes incoming requests to the handler.
func (t *Transport) Listen(ctx context.Context, handler transport.Handler) error {
	lis, err := net.Listen("tcp", t.addr)
	if err != nil {
		return fmt.Errorf("http listen: %w", err)
	}

	srv := &http.Server{
		Handler:           t.Handler(handler),
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}
	t.mu.Lock()
	t.server = srv
	t.bound = lis.Addr()
	t.mu.Unlock()

	slog.Info("http transport listening", "addr", lis.Addr().String())

	go func() {
		<-ctx.Done()
		slog.Info("http transport shutting down")
		_ = t.Close()
	}()

	if err := srv.Serve(lis); !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("http serve: %w", err)
	}
	return nil
}

// Close gracefully shuts down the HTTP server.
func (t *Transport) Close() error {
	t.mu.Lock()
	srv := t.server
	t.mu.Unlock()
	if srv == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	return srv.Shutdown(ctx)
}

// handleTTS processes a POST /tts request.
//
// @Summary     Synthesize speech
// @Description Normalizes the text for natural pauses, picks a voice from the language code (or the explicit
// @Description voice), runs the configured speech engine and returns the audio. The say engine returns
// @Description 16-bit PCM WAV at 22050 Hz; the gtts engine returns MP3.
// @Tags        tts
// @Accept      json
// @Produce     audio/wav
// @Produce     audio/mpeg
// @Param       request  body      message.SynthesisRequest  true  "Text to speak"
// @Success     200      {file}    binary                    "Encoded audio"
// @Failure     400      {string}  string                    "Missing text parameter"
// @Failure     500      {string}  string                    "Malformed body or synthesis failure"
// @Router      /tts [post]
func (t *Transport) handleTTS(w http.ResponseWriter, r *http.Request, handler transport.Handler) {
	setCORSOrigin(w)
	reqID := uuid.NewString()
	w.Header().Set("X-Request-ID", reqID)
	logger := observe.Logger(r.Context(), "request_id", reqID)

	req, err := t.decode(w, r)
	if err != nil {
		logger.Warn("rejecting malformed body", "error", err)
		http.Error(w, msgBadRequest, http.StatusInternalServerError)
		return
	}
	req.ID = reqID
	if prosody.Blank(req.Text) {
		http.Error(w, msgMissingText, http.StatusBadRequest)
		return
	}

	art, err := handler(r.Context(), req)
	if err != nil {
		status, msg := errorResponse(err)
		http.Error(w, msg, status)
		return
	}

	w.Header().Set("Content-Type", art.MIMEType)
	w.Header().Set("Content-Length", strconv.Itoa(art.ByteLength()))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(art.Bytes); err != nil {
		logger.Warn("writing audio response", "error", err)
	}
}

// decode parses the body. JSON null, non-object values, wrong field types,
// trailing data and oversized bodies are all malformed.
func (t *Transport) decode(w http.ResponseWriter, r *http.Request) (*message.SynthesisRequest, error) {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, t.maxBody))

	var p *ttsPayload
	if err := dec.Decode(&p); err != nil {
		return nil, err
	}
	if p == nil {
		return nil, errors.New("body is null")
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return nil, errors.New("unexpected data after JSON object")
	}
	return &message.SynthesisRequest{Text: p.Text, Language: p.Language, Voice: p.Voice}, nil
}

// errorResponse maps a pipeline error to a status and fixed message.
func errorResponse(err error) (int, string) {
	switch {
	case errors.Is(err, tts.ErrEmptyText):
		return http.StatusBadRequest, msgMissingText
	case errors.Is(err, tts.ErrBackendUnavailable):
		return http.StatusInternalServerError, msgUnavailable
	default:
		return http.StatusInternalServerError, msgSynthesis
	}
}

// handleHealth reports backend availability.
//
// @Summary     Health check
// @Description Reports whether the speech backend's dependency is installed. Only served by engines that report it.
// @Tags        health
// @Produce     json
// @Success     200  {object}  HealthResponse
// @Router      /health [get]
// @Router      /health [post]
func (t *Transport) handleHealth(w http.ResponseWriter, _ *http.Request) {
	setCORSOrigin(w)
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(HealthResponse{
		Status:        "healthy",
		GTTSAvailable: t.reporter.Available(),
	})
}

// handlePreflight answers CORS preflight requests for any path.
func handlePreflight(w http.ResponseWriter, _ *http.Request) {
	h := w.Header()
	setCORSOrigin(w)
	h.Set("Access-Control-Allow-Methods", "POST, OPTIONS")
	h.Set("Access-Control-Allow-Headers", "Content-Type")
	h.Set("Content-Length", "0")
	w.WriteHeader(http.StatusOK)
}

func handleNotFound(w http.ResponseWriter, _ *http.Request) {
	setCORSOrigin(w)
	http.Error(w, msgNotFound, http.StatusNotFound)
}

func setCORSOrigin(w http.ResponseWriter) {
	w.Header().Set("Access-Control-Allow-Origin", "*")
}
