// Package api provides factory implementations for dependency injection
package api

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/RachelyGit283/Dummy-telementry-sub000/pkg/codec"
)

// DefaultServerFactory is the default implementation of ServerFactory
type DefaultServerFactory struct{}

// NewServerFactory creates a new server factory
func NewServerFactory() ServerFactory {
	return &DefaultServerFactory{}
}

// CreateServerStarter creates a server starter
func (f *DefaultServerFactory) CreateServerStarter(reg prometheus.Registerer, gatherer prometheus.Gatherer) ServerStarter {
	return &DefaultServerStarter{registerer: reg, gatherer: gatherer}
}

// DefaultServerStarter is the default implementation of ServerStarter
type DefaultServerStarter struct {
	registerer prometheus.Registerer
	gatherer   prometheus.Gatherer
}

// StartServer starts the API server with the given configuration
func (s *DefaultServerStarter) StartServer(ctx context.Context, enc *codec.Encoder, dec *codec.Decoder, config ServerConfig) error {
	return StartServer(ctx, NewServer(enc, dec, config, NewMetrics(s.registerer), nil), s.gatherer)
}
