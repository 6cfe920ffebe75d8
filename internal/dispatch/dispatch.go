// Package dispatch implements the synthesis pipeline.
//
// The dispatcher receives a parsed request from a transport, normalizes the
// text, resolves a voice, runs the active speech engine and, when the engine's
// native container is not what clients are served, the transcoder. Every
// intermediate file lives in a per-request scratch space that is released
// before Handle returns, whatever the outcome.
package dispatch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"

	"github.com/nadzzz/ttsbroker/internal/message"
	"github.com/nadzzz/ttsbroker/internal/observe"
	"github.com/nadzzz/ttsbroker/internal/prosody"
	"github.com/nadzzz/ttsbroker/internal/scratch"
	"github.com/nadzzz/ttsbroker/internal/tts"
	"github.com/nadzzz/ttsbroker/internal/voice"
)

// Transcoder converts an engine's native output into the served format.
// *transcode.Transcoder satisfies it.
type Transcoder interface {
	Tool() string
	Target() tts.Format
	Transcode(ctx context.Context, space *scratch.Space, in string) (string, error)
}

// Option configures a Dispatcher.
type Option func(*Dispatcher)

// WithTranscoder converts engine output to the transcoder's target format.
// Without one, audio is served in the engine's native container.
func WithTranscoder(t Transcoder) Option {
	return func(d *Dispatcher) { d.transcoder = t }
}

// WithScratchDir sets the parent directory for per-request scratch spaces.
func WithScratchDir(dir string) Option {
	return func(d *Dispatcher) { d.scratchDir = dir }
}

// WithMetrics records pipeline metrics into m.
func WithMetrics(m *observe.Metrics) Option {
	return func(d *Dispatcher) { d.metrics = m }
}

// Dispatcher is the pipeline engine. It holds no per-request state and is
// safe for concurrent use.
type Dispatcher struct {
	synthesizer tts.Synthesizer
	resolver    *voice.Resolver
	transcoder  Transcoder // nil when the engine output is served as-is
	scratchDir  string
	metrics     *observe.Metrics
}

// New creates a Dispatcher around the active speech engine.
func New(synthesizer tts.Synthesizer, resolver *voice.Resolver, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		synthesizer: synthesizer,
		resolver:    resolver,
	}
	for _, opt := range opts {
		opt(d)
	}
	if d.resolver == nil {
		d.resolver = voice.NewResolver(nil)
	}
	if d.metrics == nil {
		// Metrics creation against a no-op provider cannot fail.
		d.metrics, _ = observe.NewMetrics(noop.NewMeterProvider())
	}
	return d
}

// Engine returns the active synthesizer.
func (d *Dispatcher) Engine() tts.Synthesizer {
	return d.synthesizer
}

// Handle runs req through the full pipeline and returns the encoded audio.
// This function is passed as the transport.Handler to each transport.
//
// Errors wrap tts.ErrEmptyText, tts.ErrBackendUnavailable, *tts.SynthesisError
// or *transcode.Error so callers can map them with errors.Is and errors.As.
func (d *Dispatcher) Handle(ctx context.Context, req *message.SynthesisRequest) (*message.AudioArtifact, error) {
	if req.ID == "" {
		req.ID = uuid.NewString()
	}
	engine := d.synthesizer.Name()

	ctx, span := observe.StartSpan(ctx, "dispatch.Handle")
	defer span.End()
	span.SetAttributes(
		attribute.String("request.id", req.ID),
		attribute.String("tts.engine", engine),
		attribute.String("tts.language", req.Language),
	)

	logger := observe.Logger(ctx, "request_id", req.ID, "engine", engine)

	art, err := d.handle(ctx, logger, req)
	if errors.Is(err, tts.ErrEmptyText) {
		logger.Warn("rejecting request without text")
		return nil, err
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		logger.Error("synthesis request failed", "text", req.Preview(), "error", err)
		return nil, err
	}
	d.metrics.AudioBytes.Record(ctx, int64(art.ByteLength()),
		metric.WithAttributes(attribute.String("mime_type", art.MIMEType)))
	return art, nil
}

func (d *Dispatcher) handle(ctx context.Context, logger *slog.Logger, req *message.SynthesisRequest) (*message.AudioArtifact, error) {
	start := time.Now()
	engine := d.synthesizer.Name()

	if prosody.Blank(req.Text) {
		return nil, tts.ErrEmptyText
	}
	if !tts.Available(d.synthesizer) {
		d.metrics.SynthesisRequests.Add(ctx, 1, metric.WithAttributes(
			attribute.String("engine", engine),
			attribute.String("status", "unavailable"),
		))
		return nil, fmt.Errorf("%s: %w", engine, tts.ErrBackendUnavailable)
	}

	space, err := scratch.New(d.scratchDir, "ttsbroker-"+req.ID)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := space.Release(); err != nil {
			logger.Warn("releasing scratch space", "error", err)
		}
	}()

	text := prosody.Normalize(req.Text)
	sel := d.resolver.Resolve(req.Language, req.Voice)
	logger.Info("synthesizing",
		"text", message.Preview(text),
		"language", sel.Language,
		"voice", sel.Voice,
	)

	synthStart := time.Now()
	res, err := d.synthesizer.Synthesize(ctx, text, tts.SynthesizeOpts{Voice: sel, Space: space})
	if err != nil {
		d.metrics.RecordSynthesis(ctx, engine, "error", time.Since(synthStart).Seconds())
		return nil, fmt.Errorf("synthesizing: %w", err)
	}
	d.metrics.RecordSynthesis(ctx, engine, "ok", time.Since(synthStart).Seconds())
	if res.FellBack {
		d.metrics.VoiceFallbacks.Add(ctx, 1, metric.WithAttributes(attribute.String("voice", sel.Voice)))
		logger.Info("requested voice unavailable, used default", "voice", sel.Voice)
	}

	path, format := res.Path, res.Format
	if d.transcoder != nil && format != d.transcoder.Target() {
		tcStart := time.Now()
		out, err := d.transcoder.Transcode(ctx, space, path)
		if err != nil {
			d.metrics.RecordTranscode(ctx, d.transcoder.Tool(), "error", time.Since(tcStart).Seconds())
			return nil, fmt.Errorf("transcoding: %w", err)
		}
		d.metrics.RecordTranscode(ctx, d.transcoder.Tool(), "ok", time.Since(tcStart).Seconds())
		space.Discard(path)
		path, format = out, d.transcoder.Target()
	}

	audio, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading audio: %w", err)
	}
	if len(audio) == 0 {
		return nil, &tts.SynthesisError{Backend: engine, Reason: "empty audio", ExitCode: 0, Cause: errors.New("engine wrote no data")}
	}

	art := &message.AudioArtifact{Bytes: audio, MIMEType: format.ContentType()}
	logger.Info("synthesis complete",
		"mime_type", art.MIMEType,
		"bytes", art.ByteLength(),
		"fell_back", res.FellBack,
		"duration", time.Since(start),
	)
	return art, nil
}
