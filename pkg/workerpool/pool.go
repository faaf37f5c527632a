// Package workerpool implements the Worker Pool (spec §4.5): a bounded set
// of goroutines pulling tasks from a shared atomic counter, where the
// calling goroutine itself participates as a worker after spawning the
// helpers. Grounded on the channel+waitgroup+atomic-counter shape of
// vjache-cie's parallel file-parsing pool, adapted from a push-via-channel
// job queue to a pull-via-atomic-index one, since the task list here is a
// fixed, pre-known slice rather than a streamed channel of work.
package workerpool

import (
	"context"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/fatih/color"
	"github.com/schollz/progressbar/v3"
)

// maxWorkers is the hard ceiling on concurrency regardless of dependency
// count or logical CPUs (§4.5).
const maxWorkers = 32

// Task is one unit of work: install a single dependency.
type Task struct {
	Name        string
	VersionSpec string
	Run         func(ctx context.Context) error
}

// TaskResult is the outcome of one Task, stored at its input index.
type TaskResult struct {
	Name         string
	Version      string
	Success      bool
	ErrorMessage string
	ElapsedMS    int64
}

// WorkerCount returns min(len(tasks), min(runtime.NumCPU(), maxWorkers)),
// the thread count formula from §4.5.
func WorkerCount(numTasks int) int {
	n := runtime.NumCPU()
	if n > maxWorkers {
		n = maxWorkers
	}
	if numTasks < n {
		n = numTasks
	}
	if n < 1 {
		n = 1
	}
	return n
}

// Run executes tasks with WorkerCount(len(tasks)) workers, one of which is
// the calling goroutine itself. Results are written to a pre-allocated
// slice at each task's input index (§4.5) so no output channel is needed
// and the caller can report results in input order regardless of
// completion order. showProgress, when true, shows a progress bar that
// each worker advances by one as it finishes a task; no goroutine samples
// the shared counter for it.
func Run(ctx context.Context, tasks []Task, showProgress bool) []TaskResult {
	results := make([]TaskResult, len(tasks))
	if len(tasks) == 0 {
		return results
	}

	var next int64
	var bar *progressbar.ProgressBar
	if showProgress {
		bar = progressbar.Default(int64(len(tasks)), "installing")
	}

	workers := WorkerCount(len(tasks))

	var wg sync.WaitGroup
	runWorker := func() {
		for {
			i := atomic.AddInt64(&next, 1) - 1
			if int(i) >= len(tasks) {
				return
			}
			results[i] = runOne(ctx, tasks[i])
			if bar != nil {
				bar.Add(1)
			}
		}
	}

	// Spawn workers-1 helpers; the calling goroutine is the last worker.
	for w := 1; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			runWorker()
		}()
	}
	runWorker()
	wg.Wait()

	if showProgress {
		reportFailures(results)
	}
	return results
}

func runOne(ctx context.Context, t Task) TaskResult {
	start := time.Now()
	err := t.Run(ctx)
	elapsed := time.Since(start).Milliseconds()

	if err != nil {
		return TaskResult{
			Name:         t.Name,
			Version:      t.VersionSpec,
			Success:      false,
			ErrorMessage: err.Error(),
			ElapsedMS:    elapsed,
		}
	}
	return TaskResult{
		Name:      t.Name,
		Version:   t.VersionSpec,
		Success:   true,
		ElapsedMS: elapsed,
	}
}

func reportFailures(results []TaskResult) {
	red := color.New(color.FgRed)
	for _, r := range results {
		if !r.Success {
			red.Printf("failed: %s: %s\n", r.Name, r.ErrorMessage)
		}
	}
}
