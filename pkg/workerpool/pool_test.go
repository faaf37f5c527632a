package workerpool

import (
	"context"
	"runtime"
	"sync/atomic"
	"testing"

	"github.com/pkg/errors"
)

func TestWorkerCountFormula(t *testing.T) {
	cpus := runtime.NumCPU()
	want := cpus
	if want > maxWorkers {
		want = maxWorkers
	}

	if got := WorkerCount(1000000); got != want {
		t.Fatalf("WorkerCount(large) = %d, want %d", got, want)
	}
	if got := WorkerCount(1); got != 1 {
		t.Fatalf("WorkerCount(1) = %d, want 1", got)
	}
	if got := WorkerCount(0); got != 1 {
		t.Fatalf("WorkerCount(0) = %d, want floor of 1", got)
	}
}

func TestRunStoresResultsAtInputIndex(t *testing.T) {
	tasks := make([]Task, 20)
	for i := range tasks {
		i := i
		tasks[i] = Task{
			Name:        "pkg",
			VersionSpec: "1.0.0",
			Run: func(ctx context.Context) error {
				if i%5 == 0 {
					return errors.Errorf("task %d failed", i)
				}
				return nil
			},
		}
	}

	results := workerRun(tasks)
	for i, r := range results {
		wantSuccess := i%5 != 0
		if r.Success != wantSuccess {
			t.Fatalf("results[%d].Success = %v, want %v", i, r.Success, wantSuccess)
		}
	}
}

func TestRunAllTasksExecuteExactlyOnce(t *testing.T) {
	var counter int64
	tasks := make([]Task, 50)
	for i := range tasks {
		tasks[i] = Task{
			Name: "pkg",
			Run: func(ctx context.Context) error {
				atomic.AddInt64(&counter, 1)
				return nil
			},
		}
	}
	workerRun(tasks)
	if counter != int64(len(tasks)) {
		t.Fatalf("counter = %d, want %d", counter, len(tasks))
	}
}

func TestRunEmptyTaskList(t *testing.T) {
	results := workerRun(nil)
	if len(results) != 0 {
		t.Fatalf("expected no results for an empty task list, got %d", len(results))
	}
}

// workerRun calls Run without a progress bar, since progressbar writes to
// stderr and would make test output noisy.
func workerRun(tasks []Task) []TaskResult {
	return Run(context.Background(), tasks, false)
}
