// Package api provides interfaces for dependency injection
package api

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/RachelyGit283/Dummy-telementry-sub000/pkg/codec"
)

// ServerStarter defines the interface for starting the API server
type ServerStarter interface {
	// StartServer serves the codec over HTTP until ctx is cancelled
	StartServer(ctx context.Context, enc *codec.Encoder, dec *codec.Decoder, config ServerConfig) error
}

// ServerFactory creates server instances
type ServerFactory interface {
	// CreateServerStarter creates a server starter that registers metrics on reg
	CreateServerStarter(reg prometheus.Registerer, gatherer prometheus.Gatherer) ServerStarter
}
