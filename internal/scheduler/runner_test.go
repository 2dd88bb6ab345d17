package scheduler

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/dreschagin/selfheal-core/pkg/logger"
)

func TestRunOnce_TracksSuccess(t *testing.T) {
	calls := 0
	runner := NewRunner("test", func(context.Context) error {
		calls++
		return nil
	}, time.Minute, logger.New("error"))

	if err := runner.RunOnce(context.Background()); err != nil {
		t.Fatalf("RunOnce() error = %v", err)
	}
	if calls != 1 {
		t.Fatalf("expected 1 call, got %d", calls)
	}

	snapshot := runner.Snapshot()
	if snapshot.RunCount != 1 {
		t.Errorf("expected run count 1, got %d", snapshot.RunCount)
	}
	if snapshot.LastError != "" {
		t.Errorf("expected no error, got %q", snapshot.LastError)
	}
	if snapshot.LastRunAt.IsZero() {
		t.Error("expected last run timestamp")
	}
}

func TestRunOnce_TracksFailureAndRecovers(t *testing.T) {
	fail := true
	runner := NewRunner("flaky", func(context.Context) error {
		if fail {
			return errors.New("boom")
		}
		return nil
	}, time.Minute, logger.New("error"))

	if err := runner.RunOnce(context.Background()); err == nil {
		t.Fatal("expected error from failing job")
	}
	if snapshot := runner.Snapshot(); snapshot.LastError == "" {
		t.Error("expected error to be recorded")
	}

	fail = false
	if err := runner.RunOnce(context.Background()); err != nil {
		t.Fatalf("RunOnce() error = %v", err)
	}
	if snapshot := runner.Snapshot(); snapshot.LastError != "" {
		t.Errorf("expected error to be cleared, got %q", snapshot.LastError)
	}
}

func TestStart_StopsOnContextCancel(t *testing.T) {
	done := make(chan struct{})
	runner := NewRunner("loop", func(context.Context) error { return nil }, 5*time.Millisecond, logger.New("error"))

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		runner.Start(ctx)
		close(done)
	}()

	time.Sleep(20 * time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("runner did not stop after context cancellation")
	}
}
