package usecase

import (
	"reflect"
	"testing"
	"time"
)

func defaultOptions() RuntimeOptions {
	return RuntimeOptions{
		SLAEnabled:                true,
		SLACheckInterval:          60 * time.Second,
		FaultRecoveryEnabled:      true,
		MaxConcurrentRecoveries:   3,
		RecoveryTimeout:           5 * time.Minute,
		AlertChannels:             []string{"slack"},
		CriticalAlertChannels:     []string{"slack", "pagerduty"},
		DataRetentionDays:         30,
		MetricsCollectionInterval: 30 * time.Second,
	}
}

func TestRuntimeConfig_ApplyPartialRecognizedOptions(t *testing.T) {
	rc := NewRuntimeConfig(defaultOptions())

	applied, err := rc.ApplyPartial(map[string]interface{}{
		"slaEnabled":              false,
		"maxConcurrentRecoveries": float64(7), // JSON numbers arrive as float64
		"recoveryTimeout":         float64(120000),
		"alertChannels":           []interface{}{"email", "webhook"},
	})
	if err != nil {
		t.Fatalf("ApplyPartial() error = %v", err)
	}
	if len(applied) != 4 {
		t.Fatalf("expected 4 applied options, got %d", len(applied))
	}

	opts := rc.Snapshot()
	if opts.SLAEnabled {
		t.Error("expected slaEnabled false")
	}
	if opts.MaxConcurrentRecoveries != 7 {
		t.Errorf("expected maxConcurrentRecoveries 7, got %d", opts.MaxConcurrentRecoveries)
	}
	if opts.RecoveryTimeout != 2*time.Minute {
		t.Errorf("expected recoveryTimeout 2m, got %s", opts.RecoveryTimeout)
	}
	if !reflect.DeepEqual(opts.AlertChannels, []string{"email", "webhook"}) {
		t.Errorf("unexpected alertChannels: %v", opts.AlertChannels)
	}
}

func TestRuntimeConfig_ApplyPartialIgnoresUnknownKeys(t *testing.T) {
	rc := NewRuntimeConfig(defaultOptions())

	applied, err := rc.ApplyPartial(map[string]interface{}{
		"unknownOption": 42,
		"slaEnabled":    false,
	})
	if err != nil {
		t.Fatalf("ApplyPartial() error = %v", err)
	}
	if len(applied) != 1 {
		t.Errorf("expected only recognized keys applied, got %v", applied)
	}
}

func TestRuntimeConfig_ApplyPartialRejectsInvalidValues(t *testing.T) {
	tests := []struct {
		name    string
		partial map[string]interface{}
	}{
		{"non-bool slaEnabled", map[string]interface{}{"slaEnabled": "yes"}},
		{"zero maxConcurrentRecoveries", map[string]interface{}{"maxConcurrentRecoveries": 0}},
		{"negative recoveryTimeout", map[string]interface{}{"recoveryTimeout": -1}},
		{"non-list alertChannels", map[string]interface{}{"alertChannels": "slack"}},
		{"zero dataRetentionDays", map[string]interface{}{"dataRetentionDays": 0}},
		{"zero slaCheckInterval", map[string]interface{}{"slaCheckInterval": 0}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rc := NewRuntimeConfig(defaultOptions())
			if _, err := rc.ApplyPartial(tt.partial); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}

func TestRuntimeConfig_ChannelsForSeverity(t *testing.T) {
	rc := NewRuntimeConfig(defaultOptions())

	if got := rc.ChannelsFor("critical"); !reflect.DeepEqual(got, []string{"slack", "pagerduty"}) {
		t.Errorf("expected critical channels, got %v", got)
	}
	if got := rc.ChannelsFor("medium"); !reflect.DeepEqual(got, []string{"slack"}) {
		t.Errorf("expected default channels, got %v", got)
	}
}
