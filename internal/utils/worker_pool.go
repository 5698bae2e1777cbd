package utils

import (
	"sync"

	"go.uber.org/zap"
)

// WorkerPool runs submitted jobs on a fixed set of goroutines. The event
// feed uses one pool with a worker per independent container so events for
// different guilds apply in parallel while each feed stays in arrival order.
type WorkerPool struct {
	jobs chan func()
	log  *zap.Logger
	wg   sync.WaitGroup
	stop sync.Once
}

// NewWorkerPool creates a pool with workerNum workers and a queue of
// queueSize pending jobs.
func NewWorkerPool(workerNum, queueSize int, log *zap.Logger) *WorkerPool {
	if log == nil {
		log = zap.NewNop()
	}
	p := &WorkerPool{
		jobs: make(chan func(), queueSize),
		log:  log,
	}
	for i := 0; i < workerNum; i++ {
		p.wg.Add(1)
		go p.worker(i)
	}
	return p
}

func (p *WorkerPool) worker(id int) {
	defer p.wg.Done()
	for job := range p.jobs {
		p.runJob(id, job)
	}
}

// runJob isolates a panicking job so it cannot take the worker down.
func (p *WorkerPool) runJob(id int, job func()) {
	defer func() {
		if r := recover(); r != nil {
			p.log.Error("worker recovered from panic",
				zap.Int("worker", id),
				zap.Any("panic", r))
		}
	}()
	job()
}

// Submit queues a job. When the queue is full this blocks until a worker
// frees a slot; jobs are queued, never rejected.
func (p *WorkerPool) Submit(job func()) {
	p.jobs <- job
}

// Stop closes the queue, lets the workers drain the remaining jobs and
// waits for them to exit.
func (p *WorkerPool) Stop() {
	p.stop.Do(func() {
		close(p.jobs)
	})
	p.wg.Wait()
}
