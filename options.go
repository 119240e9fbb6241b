package protectedconfig

import (
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
)

// Option configures a Provider.
type Option func(*Provider)

// WithLogger sets the logger. Secrets are never logged.
func WithLogger(logger *zap.Logger) Option {
	return func(p *Provider) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// WithMeterProvider sets the OpenTelemetry meter provider used for operation
// counters. Defaults to the global provider.
func WithMeterProvider(mp metric.MeterProvider) Option {
	return func(p *Provider) {
		p.meterProvider = mp
	}
}

// WithEnvLookup replaces os.LookupEnv for seed and salt fallbacks.
func WithEnvLookup(lookup func(string) (string, bool)) Option {
	return func(p *Provider) {
		if lookup != nil {
			p.lookupEnv = lookup
		}
	}
}
