package sla

import (
	"time"

	"github.com/dreschagin/selfheal-core/internal/domain/valueobject"
)

type EventType string

const (
	EventBreach    EventType = "sla_breach"
	EventWarning   EventType = "sla_warning"
	EventRecovered EventType = "sla_recovered"
)

// Target defines the compliance thresholds for one tracked metric.
// For higher-is-better metrics the warning band is derived as Threshold*0.95
// when WarningThreshold is left zero.
type Target struct {
	MetricID         string
	Description      string
	Polarity         valueobject.MetricPolarity
	Threshold        float64
	WarningThreshold float64
	Severity         valueobject.Severity
	Unit             string
}

type Sample struct {
	MetricID  string
	Value     float64
	Status    valueobject.SLAStatus
	Timestamp time.Time
}

// Event is an immutable compliance transition fact.
type Event struct {
	ID        string
	Type      EventType
	MetricID  string
	Value     float64
	Threshold float64
	Severity  valueobject.Severity
	Message   string
	Timestamp time.Time
}

type ComplianceSummary struct {
	MetricID    string
	WindowHours int
	Rate        float64
	SampleCount int
	MetCount    int
}

type Snapshot struct {
	TargetCount    int
	SampleCount    int
	CurrentStatus  map[string]valueobject.SLAStatus
	BreachedCount  int
	WarningCount   int
	ComplianceRate float64
}
