package telemetry

import (
	"context"
	"testing"
	"time"

	"go.uber.org/zap/zaptest"
)

func TestInitTracer(t *testing.T) {
	tests := []struct {
		name        string
		serviceName string
		endpoint    string
		wantErr     bool
	}{
		{
			name:        "valid configuration",
			serviceName: CLIServiceName,
			endpoint:    "localhost:4318",
			wantErr:     false,
		},
		{
			name:        "empty service name",
			serviceName: "",
			endpoint:    "localhost:4318",
			wantErr:     false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()

			tp, err := InitTracer(ctx, tt.serviceName, tt.endpoint)
			if (err != nil) != tt.wantErr {
				t.Errorf("InitTracer() error = %v, wantErr %v", err, tt.wantErr)
				return
			}

			if tp != nil {
				shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer shutdownCancel()
				if err := Shutdown(shutdownCtx, tp); err != nil {
					t.Errorf("Shutdown() error = %v", err)
				}
			}
		})
	}
}

func TestShutdown(t *testing.T) {
	t.Run("shutdown with nil provider", func(t *testing.T) {
		if err := Shutdown(context.Background(), nil); err != nil {
			t.Errorf("Shutdown() with nil provider should not error, got: %v", err)
		}
	})
}

func TestSetup(t *testing.T) {
	tests := []struct {
		name         string
		enabled      bool
		endpoint     string
		wantProvider bool
	}{
		{name: "disabled", enabled: false, endpoint: "localhost:4318"},
		{name: "enabled without endpoint", enabled: true, endpoint: ""},
		{name: "enabled", enabled: true, endpoint: "localhost:4318", wantProvider: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tp, shutdown := Setup(context.Background(), tt.enabled, tt.endpoint, ServerServiceName, zaptest.NewLogger(t))
			if (tp != nil) != tt.wantProvider {
				t.Errorf("Setup() provider = %v, want provider %v", tp, tt.wantProvider)
			}
			if shutdown == nil {
				t.Fatal("Setup() returned nil shutdown func")
			}
			shutdown()
		})
	}
}
