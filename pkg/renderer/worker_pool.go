package renderer

import (
	"image"
	"runtime"
	"sync"

	"golang.org/x/image/vector"
)

// BandTask asks a worker to fill one horizontal band of the target
type BandTask struct {
	TaskID    int
	Band      image.Rectangle
	Target    *image.RGBA
	Triangles []screenTriangle // Painter's order, farthest first
}

// BandResult reports a finished band
type BandResult struct {
	TaskID int
	Filled int // Triangles that touched the band
}

// WorkerPool fills bands in parallel. Bands never overlap, so workers
// write to disjoint rows of the shared target.
type WorkerPool struct {
	taskQueue   chan BandTask
	resultQueue chan BandResult
	workers     []*Worker
	numWorkers  int
	wg          sync.WaitGroup
	startOnce   sync.Once
	stopOnce    sync.Once
}

// Worker owns a reusable path rasterizer
type Worker struct {
	ID          int
	rasterizer  *vector.Rasterizer
	taskQueue   chan BandTask
	resultQueue chan BandResult
}

// NewWorkerPool creates a worker pool with the specified number of workers
func NewWorkerPool(numWorkers int) *WorkerPool {
	if numWorkers <= 0 {
		numWorkers = runtime.NumCPU()
	}

	wp := &WorkerPool{
		taskQueue:   make(chan BandTask, numWorkers*4),
		resultQueue: make(chan BandResult, numWorkers*4),
		numWorkers:  numWorkers,
	}
	for i := 0; i < numWorkers; i++ {
		wp.workers = append(wp.workers, &Worker{
			ID:          i,
			rasterizer:  vector.NewRasterizer(0, 0),
			taskQueue:   wp.taskQueue,
			resultQueue: wp.resultQueue,
		})
	}
	return wp
}

// Start begins all workers. Calling it again has no effect.
func (wp *WorkerPool) Start() {
	wp.startOnce.Do(func() {
		for _, worker := range wp.workers {
			wp.wg.Add(1)
			go worker.run(&wp.wg)
		}
	})
}

// Stop waits for queued tasks to finish and shuts down all workers
func (wp *WorkerPool) Stop() {
	wp.stopOnce.Do(func() {
		close(wp.taskQueue)
		wp.wg.Wait()
		close(wp.resultQueue)
	})
}

// SubmitTask submits a band task to the worker pool
func (wp *WorkerPool) SubmitTask(task BandTask) {
	wp.taskQueue <- task
}

// GetResult retrieves a completed band result
func (wp *WorkerPool) GetResult() (BandResult, bool) {
	result, ok := <-wp.resultQueue
	return result, ok
}

// NumWorkers returns the number of workers in the pool
func (wp *WorkerPool) NumWorkers() int {
	return wp.numWorkers
}

func (w *Worker) run(wg *sync.WaitGroup) {
	defer wg.Done()
	for task := range w.taskQueue {
		filled := 0
		for i := range task.Triangles {
			if fillTriangle(w.rasterizer, task.Target, task.Band, &task.Triangles[i]) {
				filled++
			}
		}
		w.resultQueue <- BandResult{TaskID: task.TaskID, Filled: filled}
	}
}
