package server

import (
	"net/http"
	"testing"
	"time"

	"transit/pkg/config"
	"transit/pkg/logger"

	"github.com/stretchr/testify/assert"
)

func init() {
	logger.Init("error")
}

func TestNewServer(t *testing.T) {
	cfg := &config.Config{
		App: config.AppConfig{Name: "test-app"},
		HTTP: config.HTTPConfig{
			Port:         8080,
			ReadTimeout:  5 * time.Second,
			WriteTimeout: 5 * time.Second,
		},
		RateLimit: config.RateLimitConfig{
			Enabled: false,
		},
	}

	srv := New(cfg, http.NewServeMux())
	assert.NotNil(t, srv)
	assert.False(t, srv.Ready())

	// Лимитер должен быть nil, так как выключен
	assert.Nil(t, srv.RateLimiter())
}

func TestNewServer_WithRateLimiter(t *testing.T) {
	cfg := &config.Config{
		App:  config.AppConfig{Name: "test-app"},
		HTTP: config.HTTPConfig{Port: 8081},
		RateLimit: config.RateLimitConfig{
			Enabled:         true,
			Requests:        10,
			Window:          time.Second,
			Backend:         "memory",
			CleanupInterval: time.Minute,
		},
	}

	srv := NewWithOptions(cfg, http.NewServeMux(), nil)
	assert.NotNil(t, srv)
	assert.NotNil(t, srv.RateLimiter())

	assert.NoError(t, srv.RateLimiter().Close())
}
