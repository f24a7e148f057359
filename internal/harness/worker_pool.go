package harness

import (
	"context"
	"errors"
	"runtime"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"
)

// ErrPoolClosed is returned by Run after Shutdown.
var ErrPoolClosed = errors.New("worker pool is shut down")

// WorkerPool runs interface calls on a fixed set of goroutines.
type WorkerPool struct {
	jobs            chan *job
	workerCount     int
	activeJobs      int
	activeJobsMutex sync.Mutex
	shutdown        chan struct{}
	once            sync.Once
	wg              sync.WaitGroup
}

type job struct {
	ctx  context.Context
	name string
	fn   func()
	done chan struct{} // closed when fn has returned
}

// NewWorkerPool starts workers goroutines. workers <= 0 uses 75% of the
// available CPUs, at least 2.
func NewWorkerPool(workers int) *WorkerPool {
	if workers <= 0 {
		workers = max(2, (runtime.NumCPU()*3)/4)
	}
	log.Infof("Initializing harness worker pool with %d workers", workers)

	p := &WorkerPool{
		jobs:        make(chan *job, workers*2),
		workerCount: workers,
		shutdown:    make(chan struct{}),
	}
	p.startWorkers()
	return p
}

func (p *WorkerPool) startWorkers() {
	for i := 0; i < p.workerCount; i++ {
		p.wg.Add(1)
		go func(workerID int) {
			defer p.wg.Done()
			log.Debugf("Worker %d started", workerID)
			for {
				select {
				case j := <-p.jobs:
					p.execute(workerID, j)
				case <-p.shutdown:
					log.Debugf("Worker %d shutting down", workerID)
					return
				}
			}
		}(i)
	}
}

func (p *WorkerPool) execute(workerID int, j *job) {
	defer close(j.done)
	if j.ctx.Err() != nil {
		return
	}

	p.activeJobsMutex.Lock()
	p.activeJobs++
	p.activeJobsMutex.Unlock()

	start := time.Now()
	j.fn()

	p.activeJobsMutex.Lock()
	p.activeJobs--
	p.activeJobsMutex.Unlock()

	log.Debugf("Worker %d finished %s in %v", workerID, j.name, time.Since(start))
}

// Run executes fn on a worker and waits for it. If ctx ends first, fn may
// still run later or not at all.
func (p *WorkerPool) Run(ctx context.Context, name string, fn func()) error {
	j := &job{ctx: ctx, name: name, fn: fn, done: make(chan struct{})}

	select {
	case <-p.shutdown:
		return ErrPoolClosed
	default:
	}

	select {
	case p.jobs <- j:
	case <-p.shutdown:
		return ErrPoolClosed
	case <-ctx.Done():
		return ctx.Err()
	}

	select {
	case <-j.done:
		return ctx.Err()
	case <-ctx.Done():
		return ctx.Err()
	case <-p.shutdown:
		select {
		case <-j.done:
			return ctx.Err()
		default:
			return ErrPoolClosed
		}
	}
}

// WorkerCount returns the number of workers.
func (p *WorkerPool) WorkerCount() int {
	return p.workerCount
}

// ActiveJobs returns the number of jobs currently executing.
func (p *WorkerPool) ActiveJobs() int {
	p.activeJobsMutex.Lock()
	defer p.activeJobsMutex.Unlock()
	return p.activeJobs
}

// QueueCapacity returns the job buffer size.
func (p *WorkerPool) QueueCapacity() int {
	return cap(p.jobs)
}

// Shutdown stops the workers after their current job.
func (p *WorkerPool) Shutdown() {
	p.once.Do(func() {
		close(p.shutdown)
		p.wg.Wait()
	})
}
