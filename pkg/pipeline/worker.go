package pipeline

import (
	"context"
	"sync"

	"therapy-notes/pkg/models"
)

// WorkerPool runs one stage's handler on a fixed number of goroutines.
type WorkerPool struct {
	name       string
	workers    int
	taskQueue  chan *models.PipelineMessage
	workerFunc func(context.Context, *models.PipelineMessage)
	wg         sync.WaitGroup
}

func NewWorkerPool(name string, workers int, workerFunc func(context.Context, *models.PipelineMessage)) *WorkerPool {
	if workers < 1 {
		workers = 1
	}
	return &WorkerPool{
		name:       name,
		workers:    workers,
		taskQueue:  make(chan *models.PipelineMessage, workers*2),
		workerFunc: workerFunc,
	}
}

func (wp *WorkerPool) Start(ctx context.Context) {
	for i := 0; i < wp.workers; i++ {
		wp.wg.Add(1)
		go wp.worker(ctx)
	}
}

// Submit blocks until a worker slot frees up or ctx is done. It reports
// whether msg was queued.
func (wp *WorkerPool) Submit(ctx context.Context, msg *models.PipelineMessage) bool {
	select {
	case wp.taskQueue <- msg:
		return true
	case <-ctx.Done():
		return false
	}
}

// Stop must only be called once no more Submit calls can happen.
func (wp *WorkerPool) Stop() {
	close(wp.taskQueue)
	wp.wg.Wait()
}

func (wp *WorkerPool) worker(ctx context.Context) {
	defer wp.wg.Done()

	for {
		select {
		case msg, ok := <-wp.taskQueue:
			if !ok {
				return
			}
			wp.workerFunc(ctx, msg)

		case <-ctx.Done():
			return
		}
	}
}
