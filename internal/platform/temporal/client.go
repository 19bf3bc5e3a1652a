// Package temporal dials the Temporal frontend with tracing and structured logging.
package temporal

import (
	"errors"
	"log/slog"

	"go.opentelemetry.io/otel/trace"
	"go.temporal.io/sdk/client"
	temporalotel "go.temporal.io/sdk/contrib/opentelemetry"
	workerlog "go.temporal.io/sdk/log"
)

// ErrDisabled is returned by Dial when Temporal is switched off.
var ErrDisabled = errors.New("temporal disabled via TEMPORAL_DISABLED env")

// ClientConfig addresses a Temporal namespace.
type ClientConfig struct {
	Address   string
	Namespace string
	Disabled  bool
	Tracer    trace.Tracer
	Logger    *slog.Logger
}

// Options builds client options carrying the OpenTelemetry interceptor.
func Options(cfg ClientConfig) (client.Options, error) {
	address := cfg.Address
	if address == "" {
		address = client.DefaultHostPort
	}
	namespace := cfg.Namespace
	if namespace == "" {
		namespace = client.DefaultNamespace
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	tracingInterceptor, err := temporalotel.NewTracingInterceptor(temporalotel.TracerOptions{Tracer: cfg.Tracer})
	if err != nil {
		return client.Options{}, err
	}
	options := client.Options{
		HostPort:  address,
		Namespace: namespace,
		Logger:    workerlog.NewStructuredLogger(logger),
	}
	options.Interceptors = append(options.Interceptors, tracingInterceptor)
	return options, nil
}

// Dial connects to Temporal unless it is disabled.
func Dial(cfg ClientConfig) (client.Client, error) {
	if cfg.Disabled {
		return nil, ErrDisabled
	}
	options, err := Options(cfg)
	if err != nil {
		return nil, err
	}
	return client.Dial(options)
}
