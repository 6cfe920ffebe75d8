// Package transport defines the interface for pluggable request transports.
//
// Each transport (HTTP, gRPC health) implements this interface and is started
// by main with the dispatcher's handler. The dispatcher doesn't care how
// requests arrive; it only works with the Transport contract.
package transport

import (
	"context"

	"github.com/nadzzz/ttsbroker/internal/message"
)

// Handler is a function that turns a synthesis request into audio.
// The dispatcher provides this handler to each transport.
type Handler func(ctx context.Context, req *message.SynthesisRequest) (*message.AudioArtifact, error)

// Transport is the interface that every transport adapter must implement.
type Transport interface {
	// Name returns the transport identifier (e.g., "http", "grpc").
	Name() string

	// Listen starts accepting requests and dispatches them to the handler.
	// It blocks until the context is cancelled.
	Listen(ctx context.Context, handler Handler) error

	// Close gracefully shuts down the transport, draining in-flight work.
	Close() error
}
