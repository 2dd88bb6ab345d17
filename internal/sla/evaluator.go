package sla

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/dreschagin/selfheal-core/internal/domain/valueobject"
	"github.com/dreschagin/selfheal-core/internal/ring"
	"github.com/dreschagin/selfheal-core/pkg/logger"
	"github.com/google/uuid"
)

const (
	eventLogCapacity    = 1000
	samplesPerMetricCap = 1000
	recoveryLookback    = time.Hour
	warningBandFactor   = 0.95
)

// Evaluator classifies metric samples against registered targets and keeps
// a bounded sample history plus an immutable event log. Events are handed
// to the onEvent callback outside the evaluator lock.
type Evaluator struct {
	log     *logger.Logger
	onEvent func(Event)
	now     func() time.Time

	mu         sync.RWMutex
	targets    map[string]Target
	samples    map[string]*ring.Buffer[Sample]
	lastStatus map[string]valueobject.SLAStatus
	events     *ring.Buffer[Event]
}

func NewEvaluator(log *logger.Logger, onEvent func(Event)) *Evaluator {
	if onEvent == nil {
		onEvent = func(Event) {}
	}
	return &Evaluator{
		log:        log,
		onEvent:    onEvent,
		now:        time.Now,
		targets:    make(map[string]Target),
		samples:    make(map[string]*ring.Buffer[Sample]),
		lastStatus: make(map[string]valueobject.SLAStatus),
		events:     ring.New[Event](eventLogCapacity),
	}
}

// AddTarget registers or replaces the target for a metric. Replacing a
// target affects future classifications only.
func (e *Evaluator) AddTarget(t Target) error {
	if t.MetricID == "" {
		return errors.New("sla target metric id cannot be empty")
	}
	if err := t.Polarity.Validate(); err != nil {
		return err
	}
	if t.Threshold <= 0 {
		return errors.New("sla target threshold must be positive")
	}
	if t.Severity == "" {
		t.Severity = valueobject.SeverityHigh
	}
	if err := t.Severity.Validate(); err != nil {
		return err
	}
	if t.WarningThreshold == 0 && t.Polarity == valueobject.HigherIsBetter {
		t.WarningThreshold = t.Threshold * warningBandFactor
	}

	e.mu.Lock()
	e.targets[t.MetricID] = t
	e.mu.Unlock()

	e.log.Info("SLA target registered", "metric_id", t.MetricID, "threshold", t.Threshold, "polarity", string(t.Polarity))
	return nil
}

// Targets returns a snapshot of the registered targets.
func (e *Evaluator) Targets() []Target {
	e.mu.RLock()
	defer e.mu.RUnlock()

	out := make([]Target, 0, len(e.targets))
	for _, t := range e.targets {
		out = append(out, t)
	}
	return out
}

// RecordSample classifies a sample against its metric's target. Samples for
// metrics without a registered target are ignored and reported with ok=false.
func (e *Evaluator) RecordSample(metricID string, value float64, ts time.Time) (Sample, bool) {
	if ts.IsZero() {
		ts = e.now()
	}

	e.mu.Lock()
	target, ok := e.targets[metricID]
	if !ok {
		e.mu.Unlock()
		return Sample{}, false
	}

	status := classify(target, value)
	sample := Sample{
		MetricID:  metricID,
		Value:     value,
		Status:    status,
		Timestamp: ts,
	}

	buf, ok := e.samples[metricID]
	if !ok {
		buf = ring.New[Sample](samplesPerMetricCap)
		e.samples[metricID] = buf
	}
	buf.Append(sample)

	previous := e.lastStatus[metricID]
	e.lastStatus[metricID] = status

	emitted := e.transitionEventsLocked(target, sample, previous)
	e.mu.Unlock()

	for _, ev := range emitted {
		e.onEvent(ev)
	}

	return sample, true
}

// transitionEventsLocked appends lifecycle events for a classified sample.
// Caller holds the write lock.
func (e *Evaluator) transitionEventsLocked(target Target, sample Sample, previous valueobject.SLAStatus) []Event {
	var emitted []Event

	switch sample.Status {
	case valueobject.SLABreached, valueobject.SLAWarning:
		if previous == sample.Status {
			return nil
		}
		eventType := EventBreach
		if sample.Status == valueobject.SLAWarning {
			eventType = EventWarning
		}
		ev := Event{
			ID:        uuid.New().String(),
			Type:      eventType,
			MetricID:  sample.MetricID,
			Value:     sample.Value,
			Threshold: target.Threshold,
			Severity:  target.Severity,
			Message:   fmt.Sprintf("%s: %s is %.2f against target %.2f", eventType, sample.MetricID, sample.Value, target.Threshold),
			Timestamp: sample.Timestamp,
		}
		e.events.Append(ev)
		emitted = append(emitted, ev)

	case valueobject.SLAMet:
		if previous == valueobject.SLAMet || previous == "" {
			return nil
		}
		if !e.hadViolationSinceLocked(sample.MetricID, sample.Timestamp.Add(-recoveryLookback)) {
			return nil
		}
		ev := Event{
			ID:        uuid.New().String(),
			Type:      EventRecovered,
			MetricID:  sample.MetricID,
			Value:     sample.Value,
			Threshold: target.Threshold,
			Severity:  valueobject.SeverityLow,
			Message:   fmt.Sprintf("sla_recovered: %s back within target %.2f", sample.MetricID, target.Threshold),
			Timestamp: sample.Timestamp,
		}
		e.events.Append(ev)
		emitted = append(emitted, ev)
	}

	return emitted
}

func (e *Evaluator) hadViolationSinceLocked(metricID string, since time.Time) bool {
	found := false
	e.events.Do(func(ev Event) {
		if found || ev.MetricID != metricID || ev.Timestamp.Before(since) {
			return
		}
		if ev.Type == EventBreach || ev.Type == EventWarning {
			found = true
		}
	})
	return found
}

// classify applies the polarity rule: higher-is-better metrics are met at or
// above the target with a 5% warning band below it; lower-is-better metrics
// are met at or below the target with an explicit warning threshold.
func classify(target Target, value float64) valueobject.SLAStatus {
	switch target.Polarity {
	case valueobject.HigherIsBetter:
		if value >= target.Threshold {
			return valueobject.SLAMet
		}
		if value >= target.WarningThreshold {
			return valueobject.SLAWarning
		}
		return valueobject.SLABreached
	default:
		if value <= target.Threshold {
			return valueobject.SLAMet
		}
		if target.WarningThreshold > 0 && value <= target.WarningThreshold {
			return valueobject.SLAWarning
		}
		return valueobject.SLABreached
	}
}

// ComplianceRate returns 100 * met / total over the window. metricID "" spans
// all metrics. An empty window counts as fully compliant.
func (e *Evaluator) ComplianceRate(metricID string, window time.Duration) float64 {
	e.mu.RLock()
	defer e.mu.RUnlock()

	cutoff := e.now().Add(-window)
	var total, met int

	count := func(buf *ring.Buffer[Sample]) {
		buf.Do(func(s Sample) {
			if s.Timestamp.Before(cutoff) {
				return
			}
			total++
			if s.Status == valueobject.SLAMet {
				met++
			}
		})
	}

	if metricID != "" {
		if buf, ok := e.samples[metricID]; ok {
			count(buf)
		}
	} else {
		for _, buf := range e.samples {
			count(buf)
		}
	}

	if total == 0 {
		return 100
	}
	return 100 * float64(met) / float64(total)
}

// ComplianceSummaries reports the per-metric compliance over the window.
func (e *Evaluator) ComplianceSummaries(window time.Duration) []ComplianceSummary {
	e.mu.RLock()
	defer e.mu.RUnlock()

	cutoff := e.now().Add(-window)
	out := make([]ComplianceSummary, 0, len(e.targets))

	for metricID := range e.targets {
		summary := ComplianceSummary{
			MetricID:    metricID,
			WindowHours: int(window.Hours()),
			Rate:        100,
		}
		if buf, ok := e.samples[metricID]; ok {
			buf.Do(func(s Sample) {
				if s.Timestamp.Before(cutoff) {
					return
				}
				summary.SampleCount++
				if s.Status == valueobject.SLAMet {
					summary.MetCount++
				}
			})
		}
		if summary.SampleCount > 0 {
			summary.Rate = 100 * float64(summary.MetCount) / float64(summary.SampleCount)
		}
		out = append(out, summary)
	}

	return out
}

// RecentEvents returns up to limit events, newest first.
func (e *Evaluator) RecentEvents(limit int) []Event {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.events.Newest(limit)
}

// Snapshot composes the evaluator's current state for status queries.
func (e *Evaluator) Snapshot(window time.Duration) Snapshot {
	snapshot := Snapshot{
		CurrentStatus: make(map[string]valueobject.SLAStatus),
	}

	e.mu.RLock()
	snapshot.TargetCount = len(e.targets)
	for metricID, status := range e.lastStatus {
		snapshot.CurrentStatus[metricID] = status
		switch status {
		case valueobject.SLABreached:
			snapshot.BreachedCount++
		case valueobject.SLAWarning:
			snapshot.WarningCount++
		}
	}
	for _, buf := range e.samples {
		snapshot.SampleCount += buf.Len()
	}
	e.mu.RUnlock()

	snapshot.ComplianceRate = e.ComplianceRate("", window)
	return snapshot
}

// PurgeOlderThan drops samples recorded before the cutoff and returns how
// many were removed. Used by the retention sweep.
func (e *Evaluator) PurgeOlderThan(cutoff time.Time) int {
	e.mu.Lock()
	defer e.mu.Unlock()

	removed := 0
	for metricID, buf := range e.samples {
		kept := ring.New[Sample](samplesPerMetricCap)
		buf.Do(func(s Sample) {
			if s.Timestamp.Before(cutoff) {
				removed++
				return
			}
			kept.Append(s)
		})
		e.samples[metricID] = kept
	}

	if removed > 0 {
		e.log.Info("SLA retention sweep completed", "removed_samples", removed)
	}
	return removed
}
