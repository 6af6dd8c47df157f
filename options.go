package initargs

import (
	"errors"

	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// Option is a function that configures an Injector.
type Option func(*Injector) error

// WithLogger sets the logger. The default discards all output.
func WithLogger(logger *zap.Logger) Option {
	return func(in *Injector) error {
		if logger == nil {
			return errors.New("logger cannot be nil")
		}
		in.logger = logger
		return nil
	}
}

// WithMetrics records injection metrics into m.
func WithMetrics(m *Metrics) Option {
	return func(in *Injector) error {
		in.metrics = m
		return nil
	}
}

// WithTracerProvider sets the provider of the tracer used for spans around
// injection passes. The default is the global provider.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(in *Injector) error {
		if tp == nil {
			return errors.New("tracer provider cannot be nil")
		}
		in.tracer = tp.Tracer(instrumentationName)
		return nil
	}
}

// WithAsyncLimit limits how many async factories run at the same time.
// Zero or less means no limit.
func WithAsyncLimit(n int) Option {
	return func(in *Injector) error {
		in.asyncLimit = n
		return nil
	}
}
