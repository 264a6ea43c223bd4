package dispatch

import (
	"context"

	"github.com/cassiomorais/checkout/internal/application/directory"
	"github.com/cassiomorais/checkout/internal/application/methods"
	purchaseApp "github.com/cassiomorais/checkout/internal/application/purchase"
	"github.com/cassiomorais/checkout/internal/application/subscription"
	domainErrors "github.com/cassiomorais/checkout/internal/domain/errors"
	"github.com/cassiomorais/checkout/internal/infrastructure/observability"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// Backend bundles the application services bound to one logical database.
type Backend struct {
	DatabaseID    string
	Directory     *directory.Directory
	Methods       *methods.Registry
	Purchases     *purchaseApp.Service
	Subscriptions *subscription.Service
}

// Fanout runs a call against an ordered list of backends, stopping at the
// first one that completes without error. Multi-tenant deployments share one
// function deployment across several logical databases this way.
type Fanout struct {
	backends []Backend
	tracer   trace.Tracer
	metrics  *observability.Metrics
	log      zerolog.Logger
}

func NewFanout(backends []Backend, metrics *observability.Metrics, log zerolog.Logger) *Fanout {
	return &Fanout{
		backends: backends,
		tracer:   otel.Tracer("dispatch"),
		metrics:  metrics,
		log:      log,
	}
}

// Backends exposes the configured backends in order.
func (f *Fanout) Backends() []Backend { return f.backends }

// Do tries fn on each backend in order and returns the first success. When
// every backend fails the last error is reported.
func (f *Fanout) Do(ctx context.Context, mode string, fn func(ctx context.Context, b Backend) (any, error)) (any, error) {
	ctx, span := f.tracer.Start(ctx, "dispatch."+mode)
	defer span.End()

	var lastErr error
	for _, b := range f.backends {
		span.SetAttributes(attribute.String("database", b.DatabaseID))
		out, err := fn(ctx, b)
		if err == nil {
			return out, nil
		}
		lastErr = err
		if f.metrics != nil {
			f.metrics.BackendFailovers.WithLabelValues(b.DatabaseID).Inc()
		}
		f.log.Warn().Err(err).
			Str("mode", mode).
			Str("database", b.DatabaseID).
			Msg("backend failed, trying next")
	}
	if lastErr == nil {
		lastErr = domainErrors.New(domainErrors.KindUnavailable, "no database backends configured")
	}
	return nil, lastErr
}
