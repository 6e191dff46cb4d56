package tracing_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/tailored-agentic-units/imitation/internal/tracing"
)

func TestDefaultConfig(t *testing.T) {
	cfg := tracing.DefaultConfig("imitation")

	if cfg.ServiceName != "imitation" {
		t.Errorf("ServiceName = %s, want imitation", cfg.ServiceName)
	}
	if cfg.OTLPEndpoint != "127.0.0.1:4318" {
		t.Errorf("OTLPEndpoint = %s, want 127.0.0.1:4318", cfg.OTLPEndpoint)
	}
	if cfg.SampleRatio != 1.0 {
		t.Errorf("SampleRatio = %f, want 1.0", cfg.SampleRatio)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config should be valid: %v", err)
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*tracing.Config)
	}{
		{"empty service name", func(c *tracing.Config) { c.ServiceName = "" }},
		{"empty endpoint", func(c *tracing.Config) { c.OTLPEndpoint = "" }},
		{"negative ratio", func(c *tracing.Config) { c.SampleRatio = -0.5 }},
		{"ratio above one", func(c *tracing.Config) { c.SampleRatio = 1.5 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := tracing.DefaultConfig("imitation")
			tt.mutate(&cfg)

			if err := cfg.Validate(); err == nil {
				t.Error("expected validation error")
			}
			if _, err := tracing.SetupTracing(context.Background(), cfg, discard()); err == nil {
				t.Error("SetupTracing should reject an invalid config")
			}
		})
	}
}

func TestShutdownTracing(t *testing.T) {
	if err := tracing.ShutdownTracing(func(context.Context) error { return nil }, discard()); err != nil {
		t.Errorf("unexpected error: %v", err)
	}

	if err := tracing.ShutdownTracing(func(context.Context) error { return nil }, nil); err != nil {
		t.Errorf("unexpected error with nil logger: %v", err)
	}

	failing := func(context.Context) error { return errors.New("shutdown failed") }
	if err := tracing.ShutdownTracing(failing, discard()); err == nil {
		t.Error("expected error from failing shutdown")
	}
}

func TestSetupTracing_Collector(t *testing.T) {
	endpoint := os.Getenv("OTLP_ENDPOINT")
	if endpoint == "" {
		t.Skip("OTLP_ENDPOINT not set")
	}

	cfg := tracing.DefaultConfig("imitation-test")
	cfg.OTLPEndpoint = endpoint

	shutdown, err := tracing.SetupTracing(context.Background(), cfg, discard())
	if err != nil {
		t.Fatalf("SetupTracing() error = %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := shutdown(ctx); err != nil {
		t.Errorf("shutdown error = %v", err)
	}
}

func discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
