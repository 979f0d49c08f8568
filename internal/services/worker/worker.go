// Package worker runs process requests in the background for callers that
// pass a callback_url.
//
// Go Pattern: a buffered channel is the job queue and N goroutines read from
// it. Submit never blocks: when the queue is full the HTTP handler answers 503
// instead of holding the connection open.
package worker

import (
	"context"
	"fmt"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Shimizu-Technology/nfe-key-api/internal/models"
	"github.com/Shimizu-Technology/nfe-key-api/internal/services/invoice"
)

// Event names sent to callbacks.
const (
	EventCompleted = "process.completed"
	EventFailed    = "process.failed"
)

// DefaultJobTimeout bounds a single job, download and OCR included.
const DefaultJobTimeout = 5 * time.Minute

// DefaultShutdownGrace is how long Stop lets in-flight jobs run before
// cancelling them.
const DefaultShutdownGrace = 30 * time.Second

// ErrQueueFull is returned by Submit when no slot is free.
var ErrQueueFull = fmt.Errorf("job queue is full; try again later")

// Job is one queued process request.
type Job struct {
	ID          string
	Request     invoice.Request
	CallbackURL string
	CreatedAt   time.Time
}

// Processor is satisfied by *invoice.Processor.
type Processor interface {
	Process(ctx context.Context, req invoice.Request) (*invoice.Result, error)
}

// Notifier delivers the job outcome. Satisfied by *webhook.Service.
type Notifier interface {
	Deliver(ctx context.Context, url string, payload models.WebhookPayload) error
}

// Pool manages the worker goroutines.
type Pool struct {
	jobs       chan Job
	workers    int
	processor  Processor
	notifier   Notifier
	jobTimeout time.Duration
	grace      time.Duration

	wg       sync.WaitGroup
	stopping atomic.Bool

	ctx    context.Context
	cancel context.CancelFunc
}

// NewPool creates a worker pool. Call Start before submitting.
func NewPool(workers, queueSize int, proc Processor, notifier Notifier) *Pool {
	if workers < 1 {
		workers = 1
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Pool{
		jobs:       make(chan Job, queueSize),
		workers:    workers,
		processor:  proc,
		notifier:   notifier,
		jobTimeout: DefaultJobTimeout,
		grace:      DefaultShutdownGrace,
		ctx:        ctx,
		cancel:     cancel,
	}
}

// Start launches the worker goroutines.
func (p *Pool) Start() {
	log.Printf("🚀 Starting %d background workers", p.workers)
	for i := 0; i < p.workers; i++ {
		p.wg.Add(1)
		go p.worker(i)
	}
}

// Stop closes the queue and waits for in-flight jobs. They get up to the
// shutdown grace period to finish; after that their contexts are cancelled
// and Stop waits for them to return. Jobs still queued when Stop is called
// are dropped without a callback.
func (p *Pool) Stop() {
	log.Println("⏹️  Stopping workers...")
	p.stopping.Store(true)
	close(p.jobs)

	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(p.grace):
		log.Printf("⚠️  Jobs still running after %s, cancelling them", p.grace)
		p.cancel()
		<-done
	}
	p.cancel()
	log.Println("✅ All workers stopped")
}

// Submit adds a job to the queue without blocking.
func (p *Pool) Submit(job Job) error {
	select {
	case p.jobs <- job:
		log.Printf("📥 Job queued: %s", job.ID)
		return nil
	default:
		return ErrQueueFull
	}
}

// QueueSize returns the current number of jobs in the queue.
func (p *Pool) QueueSize() int {
	return len(p.jobs)
}

// WorkerCount returns the number of workers.
func (p *Pool) WorkerCount() int {
	return p.workers
}

func (p *Pool) worker(id int) {
	defer p.wg.Done()

	log.Printf("👷 Worker %d started", id)
	for job := range p.jobs {
		if p.stopping.Load() {
			log.Printf("👷 Worker %d dropping queued job %s", id, job.ID)
			continue
		}

		log.Printf("👷 Worker %d processing job: %s", id, job.ID)
		p.run(job)
	}
	log.Printf("👷 Worker %d stopped", id)
}

// run processes one job and reports the outcome to its callback.
func (p *Pool) run(job Job) {
	ctx, cancel := context.WithTimeout(p.ctx, p.jobTimeout)
	defer cancel()

	payload := models.WebhookPayload{JobID: job.ID}
	res, err := p.processor.Process(ctx, job.Request)
	if err != nil {
		log.Printf("❌ Job %s failed: %v", job.ID, err)
		body := models.ErrorFrom(err)
		payload.Event = EventFailed
		payload.Error = &body
	} else {
		log.Printf("✅ Job %s completed (key %s via %s)", job.ID, res.Key, res.Source)
		resp := res.Response()
		payload.Event = EventCompleted
		payload.Data = &resp
	}
	payload.Timestamp = time.Now().UTC()

	if job.CallbackURL == "" || p.notifier == nil {
		return
	}
	// Delivery has its own deadline, separate from the job.
	dctx, dcancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer dcancel()
	if err := p.notifier.Deliver(dctx, job.CallbackURL, payload); err != nil {
		log.Printf("⚠️  Callback for job %s failed: %v", job.ID, err)
	}
}
