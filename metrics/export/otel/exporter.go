package otel

import (
	"context"
	"errors"
	"fmt"

	goConsole "github.com/MrEthical07/goConsole"
	"github.com/MrEthical07/goConsole/metrics/export/internaldefs"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

var (
	ErrNilMeter  = errors.New("nil meter")
	ErrNilSource = errors.New("nil metrics source")
)

// MetricsSource is what the exporter reads on each collection.
type MetricsSource interface {
	MetricsSnapshot() goConsole.MetricsSnapshot
	AuditDropped() uint64
}

// StateSource is implemented by sources that can also report the console
// state. [goConsole.Console] does; when the source does not, the session
// gauge is not registered.
type StateSource interface {
	Snapshot() goConsole.Snapshot
}

// outcome maps one console counter onto a labelled series of a shared
// instrument.
type outcome struct {
	id    goConsole.MetricID
	attrs metric.ObserveOption
}

func label(key, value string) metric.ObserveOption {
	return metric.WithAttributes(attribute.String(key, value))
}

var (
	loginOutcomes = []outcome{
		{goConsole.MetricLoginSuccess, label("outcome", "success")},
		{goConsole.MetricLoginFailure, label("outcome", "rejected")},
		{goConsole.MetricLoginUnreachable, label("outcome", "unreachable")},
	}
	profileReloadOutcomes = []outcome{
		{goConsole.MetricProfileReloaded, label("result", "ok")},
		{goConsole.MetricProfileReloadFailure, label("result", "failure")},
	}
)

type labelledCounter struct {
	instrument metric.Int64ObservableCounter
	series     []outcome
}

type observedCounter struct {
	id         goConsole.MetricID
	instrument metric.Int64ObservableCounter
}

type observedHistogram struct {
	id      goConsole.MetricID
	buckets [8]metric.Int64ObservableGauge
	count   metric.Int64ObservableGauge
}

// Exporter publishes console counters as OTel observable instruments.
type Exporter struct {
	source       MetricsSource
	registration metric.Registration
	counters     []observedCounter
	histograms   []observedHistogram
	auditDropped metric.Int64ObservableCounter

	logins         labelledCounter
	profileReloads labelledCounter
	denialRatio    metric.Float64ObservableGauge

	state    StateSource
	signedIn metric.Int64ObservableGauge
}

// NewOTelExporter registers instruments for console on meter.
func NewOTelExporter(meter metric.Meter, console *goConsole.Console) (*Exporter, error) {
	if console == nil {
		return nil, ErrNilSource
	}
	return NewOTelExporterFromSource(meter, console)
}

// NewOTelExporterFromSource registers instruments reading from source.
func NewOTelExporterFromSource(meter metric.Meter, source MetricsSource) (*Exporter, error) {
	if meter == nil {
		return nil, ErrNilMeter
	}
	if source == nil {
		return nil, ErrNilSource
	}

	exporter := &Exporter{
		source:     source,
		counters:   make([]observedCounter, 0, len(internaldefs.CounterDefs)),
		histograms: make([]observedHistogram, 0, len(internaldefs.HistogramDefs)),
	}

	observables := make([]metric.Observable, 0, len(internaldefs.CounterDefs)+len(internaldefs.HistogramDefs)*9+1)

	for _, def := range internaldefs.CounterDefs {
		ins, err := meter.Int64ObservableCounter(def.Name, metric.WithDescription(def.Help))
		if err != nil {
			return nil, fmt.Errorf("create observable counter %s: %w", def.Name, err)
		}
		exporter.counters = append(exporter.counters, observedCounter{id: def.ID, instrument: ins})
		observables = append(observables, ins)
	}

	for _, def := range internaldefs.HistogramDefs {
		h := observedHistogram{id: def.ID}
		for i := 0; i < len(internaldefs.HistogramBoundSuffix); i++ {
			name := def.Name + "_bucket_le_" + internaldefs.HistogramBoundSuffix[i]
			ins, err := meter.Int64ObservableGauge(name, metric.WithDescription("Cumulative histogram bucket count."))
			if err != nil {
				return nil, fmt.Errorf("create histogram bucket gauge %s: %w", name, err)
			}
			h.buckets[i] = ins
			observables = append(observables, ins)
		}
		countName := def.Name + "_count"
		countIns, err := meter.Int64ObservableGauge(countName, metric.WithDescription("Histogram total sample count."))
		if err != nil {
			return nil, fmt.Errorf("create histogram count gauge %s: %w", countName, err)
		}
		h.count = countIns
		observables = append(observables, countIns)
		exporter.histograms = append(exporter.histograms, h)
	}

	auditDropped, err := meter.Int64ObservableCounter(
		"goconsole_audit_dropped_total",
		metric.WithDescription("Audit events dropped because the dispatcher buffer was full."),
	)
	if err != nil {
		return nil, fmt.Errorf("create audit dropped counter: %w", err)
	}
	exporter.auditDropped = auditDropped
	observables = append(observables, auditDropped)

	exporter.logins, err = newLabelledCounter(meter, "goconsole_login_attempts_total",
		"Login attempts by outcome.", loginOutcomes)
	if err != nil {
		return nil, err
	}
	exporter.profileReloads, err = newLabelledCounter(meter, "goconsole_profile_reloads_total",
		"Profile reloads by result.", profileReloadOutcomes)
	if err != nil {
		return nil, err
	}
	exporter.denialRatio, err = meter.Float64ObservableGauge(
		"goconsole_guard_denials_per_login",
		metric.WithDescription("Guard denials divided by successful logins."),
	)
	if err != nil {
		return nil, fmt.Errorf("create guard denial ratio gauge: %w", err)
	}
	observables = append(observables, exporter.logins.instrument, exporter.profileReloads.instrument, exporter.denialRatio)

	if state, ok := source.(StateSource); ok {
		exporter.state = state
		exporter.signedIn, err = meter.Int64ObservableGauge(
			"goconsole_session_signed_in",
			metric.WithDescription("1 while a session is signed in, labelled with its role."),
		)
		if err != nil {
			return nil, fmt.Errorf("create session gauge: %w", err)
		}
		observables = append(observables, exporter.signedIn)
	}

	registration, err := meter.RegisterCallback(func(_ context.Context, observer metric.Observer) error {
		snapshot := exporter.source.MetricsSnapshot()
		for _, c := range exporter.counters {
			observer.ObserveInt64(c.instrument, int64(snapshot.Counters[c.id]))
		}
		for _, h := range exporter.histograms {
			cumulative := internaldefs.CumulativeBuckets(internaldefs.NormalizeBuckets(snapshot.Histograms[h.id]))
			for i := 0; i < len(cumulative); i++ {
				observer.ObserveInt64(h.buckets[i], int64(cumulative[i]))
			}
			observer.ObserveInt64(h.count, int64(cumulative[len(cumulative)-1]))
		}
		observer.ObserveInt64(exporter.auditDropped, int64(exporter.source.AuditDropped()))
		exporter.logins.observe(observer, snapshot)
		exporter.profileReloads.observe(observer, snapshot)
		observer.ObserveFloat64(exporter.denialRatio, denialsPerLogin(snapshot))
		if exporter.state != nil {
			observeSession(observer, exporter.signedIn, exporter.state.Snapshot())
		}
		return nil
	}, observables...)
	if err != nil {
		return nil, fmt.Errorf("register callback: %w", err)
	}

	exporter.registration = registration
	return exporter, nil
}

// Close unregisters the collection callback.
func (e *Exporter) Close() error {
	if e == nil || e.registration == nil {
		return nil
	}
	return e.registration.Unregister()
}

func newLabelledCounter(meter metric.Meter, name, help string, series []outcome) (labelledCounter, error) {
	ins, err := meter.Int64ObservableCounter(name, metric.WithDescription(help))
	if err != nil {
		return labelledCounter{}, fmt.Errorf("create observable counter %s: %w", name, err)
	}
	return labelledCounter{instrument: ins, series: series}, nil
}

func (l labelledCounter) observe(observer metric.Observer, snapshot goConsole.MetricsSnapshot) {
	for _, o := range l.series {
		observer.ObserveInt64(l.instrument, int64(snapshot.Counters[o.id]), o.attrs)
	}
}

// denialsPerLogin is zero until the first successful login.
func denialsPerLogin(snapshot goConsole.MetricsSnapshot) float64 {
	logins := snapshot.Counters[goConsole.MetricLoginSuccess]
	if logins == 0 {
		return 0
	}
	return float64(snapshot.Counters[goConsole.MetricGuardDenied]) / float64(logins)
}

func observeSession(observer metric.Observer, gauge metric.Int64ObservableGauge, snap goConsole.Snapshot) {
	if !snap.Authenticated() {
		observer.ObserveInt64(gauge, 0)
		return
	}
	observer.ObserveInt64(gauge, 1, label("role", string(snap.User.Role)))
}
