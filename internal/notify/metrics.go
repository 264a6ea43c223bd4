package notify

import (
	"context"
	"errors"

	"github.com/prometheus/client_golang/prometheus"
)

// Instrumented wraps a Notifier and counts sends by outcome.
type Instrumented struct {
	next    Notifier
	counter *prometheus.CounterVec
}

func Instrument(next Notifier, counter *prometheus.CounterVec) *Instrumented {
	return &Instrumented{next: next, counter: counter}
}

func (i *Instrumented) Name() string { return i.next.Name() }

func (i *Instrumented) Send(ctx context.Context, msg Message) error {
	err := i.next.Send(ctx, msg)
	switch {
	case err == nil:
		i.counter.WithLabelValues(i.next.Name(), "sent").Inc()
	case errors.Is(err, ErrNotConfigured):
		i.counter.WithLabelValues(i.next.Name(), "not_configured").Inc()
	default:
		i.counter.WithLabelValues(i.next.Name(), "failed").Inc()
	}
	return err
}
