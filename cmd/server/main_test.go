package main

import (
	"net/http"
	"testing"
	"time"

	"github.com/iho/cardledger/internal/infrastructure/config"
)

func TestBuildServer(t *testing.T) {
	cfg := &config.Config{
		HTTPPort:         "9090",
		HTTPReadTimeout:  5 * time.Second,
		HTTPWriteTimeout: 10 * time.Second,
		HTTPIdleTimeout:  60 * time.Second,
	}

	server := buildServer(cfg, http.NotFoundHandler())

	if server.Addr != ":9090" {
		t.Fatalf("expected addr :9090, got %s", server.Addr)
	}
	if server.ReadTimeout != 5*time.Second || server.WriteTimeout != 10*time.Second {
		t.Fatalf("unexpected timeouts: read=%v write=%v", server.ReadTimeout, server.WriteTimeout)
	}
}
