package otel

import (
	"context"
	"errors"
	"fmt"
	"time"

	goGate "github.com/MrEthical07/goGate"
	"github.com/MrEthical07/goGate/metrics/export/internaldefs"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

var (
	ErrNilMeter  = errors.New("nil meter")
	ErrNilSource = errors.New("nil metrics source")
)

const (
	storeUpName      = "gogate_store_up"
	storePingName    = "gogate_store_ping_seconds"
	defaultPingLimit = 500 * time.Millisecond
)

// Source is what the exporter reads on every collection. [*goGate.Engine]
// satisfies it.
type Source interface {
	MetricsSnapshot() goGate.MetricsSnapshot
	AuditDropped() uint64
	RotationMode() goGate.RotationMode
	Ping(ctx context.Context) (time.Duration, error)
}

// Option tunes an Exporter.
type Option func(*Exporter)

// WithPingTimeout bounds the store ping made on each collection. Zero or
// negative disables the ping and its two gauges.
func WithPingTimeout(d time.Duration) Option {
	return func(e *Exporter) { e.pingTimeout = d }
}

type counterView struct {
	id         goGate.MetricID
	instrument metric.Int64ObservableCounter
	attrs      metric.ObserveOption
}

type histogramView struct {
	id      goGate.MetricID
	buckets metric.Int64ObservableGauge
	count   metric.Int64ObservableGauge
}

// Exporter publishes engine metrics through asynchronous instruments.
//
// Reissue counters carry a "rotation" attribute with the engine's rotation
// mode. Histogram buckets are one gauge per histogram keyed by an "le"
// attribute. When enabled, a store ping per collection feeds gogate_store_up
// and gogate_store_ping_seconds.
type Exporter struct {
	source       Source
	pingTimeout  time.Duration
	registration metric.Registration

	counters     []counterView
	histograms   []histogramView
	auditDropped metric.Int64ObservableCounter
	storeUp      metric.Int64ObservableGauge
	storePing    metric.Float64ObservableGauge
}

// NewExporter registers instruments for engine on meter. Call Close to
// unregister them; the caller owns the MeterProvider.
func NewExporter(meter metric.Meter, source Source, opts ...Option) (*Exporter, error) {
	if meter == nil {
		return nil, ErrNilMeter
	}
	if source == nil {
		return nil, ErrNilSource
	}

	e := &Exporter{source: source, pingTimeout: defaultPingLimit}
	for _, opt := range opts {
		opt(e)
	}

	rotation := metric.WithAttributes(attribute.String("rotation", source.RotationMode().String()))
	var observables []metric.Observable

	for _, def := range internaldefs.CounterDefs {
		ins, err := meter.Int64ObservableCounter(def.Name, metric.WithDescription(def.Help))
		if err != nil {
			return nil, fmt.Errorf("create counter %s: %w", def.Name, err)
		}
		view := counterView{id: def.ID, instrument: ins}
		if isReissueCounter(def.ID) {
			view.attrs = rotation
		}
		e.counters = append(e.counters, view)
		observables = append(observables, ins)
	}

	for _, def := range internaldefs.HistogramDefs {
		buckets, err := meter.Int64ObservableGauge(def.Name+"_bucket",
			metric.WithDescription(def.Help+" Cumulative count per upper bound."))
		if err != nil {
			return nil, fmt.Errorf("create bucket gauge %s: %w", def.Name, err)
		}
		count, err := meter.Int64ObservableGauge(def.Name+"_count",
			metric.WithDescription(def.Help+" Total samples."))
		if err != nil {
			return nil, fmt.Errorf("create count gauge %s: %w", def.Name, err)
		}
		e.histograms = append(e.histograms, histogramView{id: def.ID, buckets: buckets, count: count})
		observables = append(observables, buckets, count)
	}

	dropped, err := meter.Int64ObservableCounter(internaldefs.AuditDroppedName,
		metric.WithDescription(internaldefs.AuditDroppedHelp))
	if err != nil {
		return nil, fmt.Errorf("create audit dropped counter: %w", err)
	}
	e.auditDropped = dropped
	observables = append(observables, dropped)

	if e.pingTimeout > 0 {
		e.storeUp, err = meter.Int64ObservableGauge(storeUpName,
			metric.WithDescription("1 when the session store answered the last ping, else 0."))
		if err != nil {
			return nil, fmt.Errorf("create store up gauge: %w", err)
		}
		e.storePing, err = meter.Float64ObservableGauge(storePingName,
			metric.WithDescription("Round trip of the last session store ping."),
			metric.WithUnit("s"))
		if err != nil {
			return nil, fmt.Errorf("create store ping gauge: %w", err)
		}
		observables = append(observables, e.storeUp, e.storePing)
	}

	e.registration, err = meter.RegisterCallback(e.observe, observables...)
	if err != nil {
		return nil, fmt.Errorf("register callback: %w", err)
	}
	return e, nil
}

func (e *Exporter) observe(ctx context.Context, o metric.Observer) error {
	snapshot := e.source.MetricsSnapshot()
	for _, c := range e.counters {
		if c.attrs != nil {
			o.ObserveInt64(c.instrument, int64(snapshot.Counters[c.id]), c.attrs)
			continue
		}
		o.ObserveInt64(c.instrument, int64(snapshot.Counters[c.id]))
	}

	for _, h := range e.histograms {
		cumulative := internaldefs.CumulativeBuckets(internaldefs.NormalizeBuckets(snapshot.Histograms[h.id]))
		for i, total := range cumulative {
			o.ObserveInt64(h.buckets, int64(total),
				metric.WithAttributes(attribute.String("le", bucketBound(i))))
		}
		o.ObserveInt64(h.count, int64(cumulative[len(cumulative)-1]))
	}

	o.ObserveInt64(e.auditDropped, int64(e.source.AuditDropped()))

	if e.pingTimeout <= 0 {
		return nil
	}
	pingCtx, cancel := context.WithTimeout(ctx, e.pingTimeout)
	defer cancel()
	d, err := e.source.Ping(pingCtx)
	if err != nil {
		o.ObserveInt64(e.storeUp, 0)
		return nil
	}
	o.ObserveInt64(e.storeUp, 1)
	o.ObserveFloat64(e.storePing, d.Seconds())
	return nil
}

// Close unregisters the callback. Safe on a nil Exporter.
func (e *Exporter) Close() error {
	if e == nil || e.registration == nil {
		return nil
	}
	return e.registration.Unregister()
}

func isReissueCounter(id goGate.MetricID) bool {
	switch id {
	case goGate.MetricReissueSuccess,
		goGate.MetricReissueFailure,
		goGate.MetricReissueSessionNotFound,
		goGate.MetricReissueMismatch:
		return true
	}
	return false
}

func bucketBound(i int) string {
	if i < len(internaldefs.HistogramUpperBounds) {
		return fmt.Sprintf("%g", internaldefs.HistogramUpperBounds[i])
	}
	return "+Inf"
}
