package protectedconfig

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const meterName = "github.com/illarion/protectedconfig"

var (
	outcomeOK    = metric.WithAttributes(attribute.String("outcome", "ok"))
	outcomeError = metric.WithAttributes(attribute.String("outcome", "error"))
)

type providerMetrics struct {
	encrypts metric.Int64Counter
	decrypts metric.Int64Counter
	rekeys   metric.Int64Counter
}

func newProviderMetrics(provider metric.MeterProvider) (providerMetrics, error) {
	if provider == nil {
		provider = otel.GetMeterProvider()
	}

	meter := provider.Meter(meterName)

	var (
		m   providerMetrics
		err error
	)

	m.encrypts, err = meter.Int64Counter(
		"protectedconfig.encrypt.operations",
		metric.WithDescription("Number of encrypt operations"),
		metric.WithUnit("{operation}"),
	)
	if err != nil {
		return providerMetrics{}, fmt.Errorf("create protectedconfig.encrypt.operations counter: %w", err)
	}

	m.decrypts, err = meter.Int64Counter(
		"protectedconfig.decrypt.operations",
		metric.WithDescription("Number of decrypt operations"),
		metric.WithUnit("{operation}"),
	)
	if err != nil {
		return providerMetrics{}, fmt.Errorf("create protectedconfig.decrypt.operations counter: %w", err)
	}

	m.rekeys, err = meter.Int64Counter(
		"protectedconfig.rekey.operations",
		metric.WithDescription("Number of key derivations"),
		metric.WithUnit("{operation}"),
	)
	if err != nil {
		return providerMetrics{}, fmt.Errorf("create protectedconfig.rekey.operations counter: %w", err)
	}

	return m, nil
}

func record(c metric.Int64Counter, err error) {
	if err != nil {
		c.Add(context.Background(), 1, outcomeError)
		return
	}
	c.Add(context.Background(), 1, outcomeOK)
}
