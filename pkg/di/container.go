// Package di provides dependency injection container
package di

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/RachelyGit283/Dummy-telementry-sub000/pkg/api"
)

// Container holds all the dependencies for the application
type Container struct {
	serverFactory api.ServerFactory
	registry      *prometheus.Registry
}

// NewContainer creates a new dependency injection container. Metrics go to
// a registry of its own that also carries the Go and process collectors.
func NewContainer() *Container {
	reg := prometheus.NewRegistry()
	reg.MustRegister(prometheus.NewGoCollector(), prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}))
	return &Container{
		serverFactory: api.NewServerFactory(),
		registry:      reg,
	}
}

// GetServerFactory returns the server factory
func (c *Container) GetServerFactory() api.ServerFactory {
	return c.serverFactory
}

// SetServerFactory allows overriding the server factory (for testing)
func (c *Container) SetServerFactory(factory api.ServerFactory) {
	c.serverFactory = factory
}

// Registry returns the metrics registry shared by the generator and the API
func (c *Container) Registry() *prometheus.Registry {
	return c.registry
}
