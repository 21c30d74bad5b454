package sync

import (
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/guarzo/sellsync/internal/ebay"
	"github.com/guarzo/sellsync/internal/storage"
)

func waitForJob(t *testing.T, r *Runner, id string) *Job {
	t.Helper()
	deadline := time.After(5 * time.Second)
	for {
		select {
		case <-deadline:
			t.Fatal("job did not finish in time")
		default:
		}
		if job, ok := r.Get(id); ok && job.State != JobRunning {
			return job
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestTriggerRunsJobToCompletion(t *testing.T) {
	client := &mockSource{fetch: func(_, _ int) (*ebay.TransactionsPage, error) {
		return singlePage(*rawTransaction("t-1", 10.00)), nil
	}}
	store := storage.NewMemory()
	svc, _ := newTestService(client, store)
	runner := NewRunner(svc, zerolog.Nop())

	job, err := runner.Trigger("token", Options{DaysBack: 7})
	if err != nil {
		t.Fatalf("Trigger returned error: %v", err)
	}
	if job.State != JobRunning {
		t.Errorf("initial state = %v, want running", job.State)
	}
	if job.DaysBack != 7 {
		t.Errorf("DaysBack = %d, want 7", job.DaysBack)
	}

	finished := waitForJob(t, runner, job.ID)
	if finished.State != JobCompleted {
		t.Errorf("final state = %v, want completed (error: %s)", finished.State, finished.Error)
	}
	if finished.Result == nil || finished.Result.NewTransactions != 1 {
		t.Errorf("Result = %+v, want 1 new transaction", finished.Result)
	}
	if finished.FinishedAt == nil {
		t.Error("FinishedAt not set")
	}
}

func TestTriggerFailsFastWhileActive(t *testing.T) {
	release := make(chan struct{})
	client := &mockSource{fetch: func(_, _ int) (*ebay.TransactionsPage, error) {
		<-release
		return singlePage(), nil
	}}
	store := storage.NewMemory()
	svc, _ := newTestService(client, store)
	runner := NewRunner(svc, zerolog.Nop())

	job, err := runner.Trigger("token", Options{})
	if err != nil {
		t.Fatalf("first Trigger returned error: %v", err)
	}

	// The run is asynchronous; wait for it to take the single-flight slot.
	deadline := time.After(5 * time.Second)
	for !svc.IsActive() {
		select {
		case <-deadline:
			t.Fatal("run never became active")
		default:
			time.Sleep(time.Millisecond)
		}
	}

	if _, err := runner.Trigger("token", Options{}); !errors.Is(err, ErrSyncInProgress) {
		t.Errorf("second Trigger error = %v, want ErrSyncInProgress", err)
	}

	close(release)
	waitForJob(t, runner, job.ID)
}

func TestTriggerMarksFailedRun(t *testing.T) {
	client := &mockSource{fetch: func(_, _ int) (*ebay.TransactionsPage, error) {
		return nil, &ebay.APIError{StatusCode: 401, Message: "invalid token"}
	}}
	store := storage.NewMemory()
	svc, _ := newTestService(client, store)
	runner := NewRunner(svc, zerolog.Nop())

	job, err := runner.Trigger("token", Options{})
	if err != nil {
		t.Fatalf("Trigger returned error: %v", err)
	}

	finished := waitForJob(t, runner, job.ID)
	if finished.State != JobFailed {
		t.Errorf("final state = %v, want failed", finished.State)
	}
	if finished.Result == nil || finished.Result.Success {
		t.Errorf("Result = %+v, want unsuccessful result", finished.Result)
	}
}

func TestGetUnknownJob(t *testing.T) {
	store := storage.NewMemory()
	svc, _ := newTestService(&mockSource{}, store)
	runner := NewRunner(svc, zerolog.Nop())

	if _, ok := runner.Get("nope"); ok {
		t.Error("Get returned a record for an unknown id")
	}
}
