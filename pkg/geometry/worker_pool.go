package geometry

import (
	"runtime"
	"sync"

	"github.com/df07/go-swept-surface/pkg/model"
)

// BuildTask represents a surface build for the worker pool
type BuildTask struct {
	TaskID  int // For deterministic ordering
	Model   *model.Model
	Options SurfaceOptions
}

// BuildResult contains the result from building a surface
type BuildResult struct {
	TaskID  int
	Surface *Surface
	Error   error
}

// WorkerPool manages parallel surface builds
type WorkerPool struct {
	taskQueue   chan BuildTask
	resultQueue chan BuildResult
	numWorkers  int
	wg          sync.WaitGroup
}

// NewWorkerPool creates a worker pool with room for maxTasks queued builds.
// numWorkers <= 0 uses one worker per CPU.
func NewWorkerPool(numWorkers, maxTasks int) *WorkerPool {
	if numWorkers <= 0 {
		numWorkers = runtime.NumCPU()
	}
	return &WorkerPool{
		taskQueue:   make(chan BuildTask, maxTasks),
		resultQueue: make(chan BuildResult, maxTasks),
		numWorkers:  numWorkers,
	}
}

// Start begins all workers
func (wp *WorkerPool) Start() {
	for i := 0; i < wp.numWorkers; i++ {
		wp.wg.Add(1)
		go wp.run()
	}
}

// Stop waits for queued builds to finish, then closes the result queue
func (wp *WorkerPool) Stop() {
	close(wp.taskQueue) // No more tasks
	wp.wg.Wait()
	close(wp.resultQueue)
}

// SubmitTask submits a build to the worker pool
func (wp *WorkerPool) SubmitTask(task BuildTask) {
	wp.taskQueue <- task
}

// GetResult retrieves a completed build
func (wp *WorkerPool) GetResult() (BuildResult, bool) {
	result, ok := <-wp.resultQueue
	return result, ok
}

// NumWorkers returns the number of workers in the pool
func (wp *WorkerPool) NumWorkers() int {
	return wp.numWorkers
}

// run is the main worker loop
func (wp *WorkerPool) run() {
	defer wp.wg.Done()

	for task := range wp.taskQueue {
		surface, err := BuildSurface(task.Model, task.Options)
		wp.resultQueue <- BuildResult{TaskID: task.TaskID, Surface: surface, Error: err}
	}
}

// BuildAll builds every model in parallel. Results are in model order; the
// returned errors slice is nil when every build succeeded.
func BuildAll(models []*model.Model, opts SurfaceOptions, numWorkers int) ([]*Surface, []error) {
	pool := NewWorkerPool(numWorkers, len(models))
	pool.Start()
	for i, m := range models {
		pool.SubmitTask(BuildTask{TaskID: i, Model: m, Options: opts})
	}
	pool.Stop()

	surfaces := make([]*Surface, len(models))
	var errs []error
	for {
		result, ok := pool.GetResult()
		if !ok {
			break
		}
		surfaces[result.TaskID] = result.Surface
		if result.Error != nil {
			if errs == nil {
				errs = make([]error, len(models))
			}
			errs[result.TaskID] = result.Error
		}
	}
	return surfaces, errs
}
