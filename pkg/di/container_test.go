package di

import (
	"context"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"

	"github.com/RachelyGit283/Dummy-telementry-sub000/pkg/api"
	"github.com/RachelyGit283/Dummy-telementry-sub000/pkg/codec"
)

type stubFactory struct{ starter *stubStarter }

func (f *stubFactory) CreateServerStarter(prometheus.Registerer, prometheus.Gatherer) api.ServerStarter {
	return f.starter
}

type stubStarter struct{ config api.ServerConfig }

func (s *stubStarter) StartServer(_ context.Context, _ *codec.Encoder, _ *codec.Decoder, config api.ServerConfig) error {
	s.config = config
	return nil
}

func TestContainer(t *testing.T) {
	c := NewContainer()
	assert.NotNil(t, c.GetServerFactory())
	assert.NotNil(t, c.Registry())

	families, err := c.Registry().Gather()
	assert.NoError(t, err)
	assert.NotEmpty(t, families)

	stub := &stubFactory{starter: &stubStarter{}}
	c.SetServerFactory(stub)
	starter := c.GetServerFactory().CreateServerStarter(c.Registry(), c.Registry())
	assert.NoError(t, starter.StartServer(context.Background(), nil, nil, api.ServerConfig{Port: 9}))
	assert.Equal(t, 9, stub.starter.config.Port)
}
