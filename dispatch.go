package comparator

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"
)

const instrumentationName = "github.com/fwojciec/comparator"

// Dispatcher sends a prompt to the providers selected by a mode and collects
// one result per provider.
type Dispatcher struct {
	providers map[ProviderKey]Provider
	timeout   time.Duration
	now       func() time.Time
	logger    *slog.Logger

	tracerProvider trace.TracerProvider
	meterProvider  metric.MeterProvider
	tracer         trace.Tracer
	calls          metric.Int64Counter
	latency        metric.Float64Histogram
}

// DispatcherOption configures a Dispatcher.
type DispatcherOption func(*Dispatcher)

// WithTimeout bounds each provider call. Zero means no limit beyond the
// caller's context.
func WithTimeout(d time.Duration) DispatcherOption {
	return func(disp *Dispatcher) {
		disp.timeout = d
	}
}

// WithClock sets the function used to timestamp results.
func WithClock(now func() time.Time) DispatcherOption {
	return func(d *Dispatcher) {
		d.now = now
	}
}

// WithLogger sets the logger for per-provider outcomes.
func WithLogger(l *slog.Logger) DispatcherOption {
	return func(d *Dispatcher) {
		d.logger = l
	}
}

// WithTracerProvider overrides the global tracer provider.
func WithTracerProvider(tp trace.TracerProvider) DispatcherOption {
	return func(d *Dispatcher) {
		d.tracerProvider = tp
	}
}

// WithMeterProvider overrides the global meter provider.
func WithMeterProvider(mp metric.MeterProvider) DispatcherOption {
	return func(d *Dispatcher) {
		d.meterProvider = mp
	}
}

// NewDispatcher creates a Dispatcher over providers. A later provider with
// the same key replaces an earlier one.
func NewDispatcher(providers []Provider, opts ...DispatcherOption) *Dispatcher {
	d := &Dispatcher{
		providers:      make(map[ProviderKey]Provider, len(providers)),
		now:            time.Now,
		logger:         slog.New(slog.DiscardHandler),
		tracerProvider: otel.GetTracerProvider(),
		meterProvider:  otel.GetMeterProvider(),
	}
	for _, p := range providers {
		d.providers[p.Key()] = p
	}
	for _, opt := range opts {
		opt(d)
	}

	d.tracer = d.tracerProvider.Tracer(instrumentationName)
	meter := d.meterProvider.Meter(instrumentationName)
	d.calls, _ = meter.Int64Counter("comparator.provider.calls",
		metric.WithDescription("Provider invocations by outcome"),
	)
	d.latency, _ = meter.Float64Histogram("comparator.provider.duration",
		metric.WithDescription("Provider invocation latency (ms)"),
		metric.WithUnit("ms"),
	)
	return d
}

// Dispatch validates prompt and invokes every provider selected by mode.
// With ModeBoth the calls run concurrently and Dispatch waits for all of
// them; a failing provider never cancels the others. Provider failures are
// reported inside the returned ResultSet. Only a *ValidationError is
// returned as an error.
func (d *Dispatcher) Dispatch(ctx context.Context, mode Mode, prompt Prompt) (ResultSet, error) {
	if err := prompt.Validate(); err != nil {
		return nil, err
	}
	keys := mode.Providers()
	if keys == nil {
		return nil, &ValidationError{Field: "mode", Err: ErrInvalidMode}
	}

	ctx, span := d.tracer.Start(ctx, "comparator.Dispatch",
		trace.WithAttributes(attribute.String("comparator.mode", string(mode))),
	)
	defer span.End()

	encoded := prompt.Encode()
	outcomes := make([]Outcome, len(keys))

	// A plain Group: no shared cancellation between siblings.
	var g errgroup.Group
	for i, key := range keys {
		g.Go(func() error {
			outcomes[i] = d.invoke(ctx, key, encoded)
			return nil
		})
	}
	_ = g.Wait()

	results := Merge(mode, outcomes)
	span.SetAttributes(attribute.Bool("comparator.partial", results.HasErrors()))
	return results, nil
}

func (d *Dispatcher) invoke(ctx context.Context, key ProviderKey, prompt string) (out Outcome) {
	out.Provider = key

	p, ok := d.providers[key]
	if !ok {
		out.Err = &ProviderError{Provider: key, Err: ErrNotConfigured}
		out.At = d.now()
		d.logger.Warn("provider not configured", "provider", key)
		return out
	}

	ctx, span := d.tracer.Start(ctx, "comparator.Invoke",
		trace.WithAttributes(attribute.String("comparator.provider", string(key))),
	)
	defer span.End()

	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			out.Response = ""
			out.Err = &ProviderError{Provider: key, Err: fmt.Errorf("panic: %v", r)}
		}
		out.At = d.now()
		d.record(ctx, span, out, time.Since(start))
	}()

	out.Model = p.Model()
	span.SetAttributes(attribute.String("comparator.model", out.Model))

	callCtx := ctx
	if d.timeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, d.timeout)
		defer cancel()
	}

	resp, err := p.Invoke(callCtx, prompt)
	if err != nil {
		out.Err = &ProviderError{Provider: key, Err: err}
		return out
	}
	out.Response = resp
	return out
}

func (d *Dispatcher) record(ctx context.Context, span trace.Span, out Outcome, elapsed time.Duration) {
	status := "ok"
	if out.Err != nil {
		status = "error"
		span.RecordError(out.Err)
	}
	attrs := metric.WithAttributes(
		attribute.String("comparator.provider", string(out.Provider)),
		attribute.String("comparator.status", status),
	)
	if d.calls != nil {
		d.calls.Add(ctx, 1, attrs)
	}
	if d.latency != nil {
		d.latency.Record(ctx, float64(elapsed.Milliseconds()), attrs)
	}

	if out.Err != nil {
		d.logger.Warn("provider call failed",
			"provider", out.Provider,
			"model", out.Model,
			"duration_ms", elapsed.Milliseconds(),
			"error", out.Err,
		)
		return
	}
	d.logger.Info("provider call",
		"provider", out.Provider,
		"model", out.Model,
		"duration_ms", elapsed.Milliseconds(),
		"chars", len(out.Response),
	)
}
