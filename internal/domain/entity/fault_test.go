package entity

import (
	"sync"
	"testing"
	"time"

	"github.com/dreschagin/selfheal-core/internal/domain/valueobject"
)

func newTestFault(t *testing.T) *Fault {
	t.Helper()
	fault, err := NewFault(
		"performance_degradation",
		"api",
		valueobject.SeverityHigh,
		"latency spike on checkout",
		map[string]float64{"response_time": 1250},
		[]string{"api"},
	)
	if err != nil {
		t.Fatalf("NewFault() error = %v", err)
	}
	return fault
}

func TestMergeDetection_MergesMetricsAndRefreshesDetectedAt(t *testing.T) {
	fault := newTestFault(t)
	before := fault.DetectedAt()

	later := before.Add(time.Minute)
	fault.MergeDetection(map[string]float64{"response_time": 2400, "error_rate": 7}, later)

	metrics := fault.Metrics()
	if metrics["response_time"] != 2400 {
		t.Errorf("expected merged response_time 2400, got %v", metrics["response_time"])
	}
	if metrics["error_rate"] != 7 {
		t.Errorf("expected merged error_rate 7, got %v", metrics["error_rate"])
	}
	if !fault.DetectedAt().Equal(later) {
		t.Errorf("expected detectedAt refreshed to %v, got %v", later, fault.DetectedAt())
	}

	// Более старое обнаружение не откатывает время назад
	fault.MergeDetection(map[string]float64{"response_time": 900}, before.Add(-time.Hour))
	if !fault.DetectedAt().Equal(later) {
		t.Errorf("expected detectedAt to stay %v, got %v", later, fault.DetectedAt())
	}
}

func TestTransitionTo_RejectsInvalidTransition(t *testing.T) {
	fault := newTestFault(t)

	if err := fault.TransitionTo(valueobject.FaultRecovered); err == nil {
		t.Error("expected error for detected -> recovered")
	}
	if err := fault.TransitionTo(valueobject.FaultAnalyzing); err != nil {
		t.Fatalf("TransitionTo(analyzing) error = %v", err)
	}
	if err := fault.TransitionTo(valueobject.FaultRecovering); err != nil {
		t.Fatalf("TransitionTo(recovering) error = %v", err)
	}
	if err := fault.MarkRecovered(time.Now()); err != nil {
		t.Fatalf("MarkRecovered() error = %v", err)
	}
	if fault.RecoveredAt() == nil {
		t.Error("expected recoveredAt to be set")
	}
	if fault.IsActive() {
		t.Error("expected recovered fault to be inactive")
	}
}

// Слияние повторных обнаружений идет из потока приема аномалий, пока
// оркестратор и status-запросы читают тот же сбой; проверяется под -race.
func TestFault_ConcurrentMergeAndRead(t *testing.T) {
	fault := newTestFault(t)

	var wg sync.WaitGroup
	start := make(chan struct{})

	wg.Add(1)
	go func() {
		defer wg.Done()
		<-start
		for i := 0; i < 200; i++ {
			fault.MergeDetection(
				map[string]float64{"response_time": float64(1000 + i)},
				time.Now().Add(time.Duration(i)*time.Millisecond),
			)
		}
	}()

	for g := 0; g < 4; g++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			for i := 0; i < 200; i++ {
				_ = fault.Metrics()
				_ = fault.DetectedAt()
				_ = fault.Status()
				_ = fault.IsActive()
			}
		}()
	}

	close(start)
	wg.Wait()

	if got := fault.Metrics()["response_time"]; got < 1000 {
		t.Errorf("expected merged response_time, got %v", got)
	}
}
