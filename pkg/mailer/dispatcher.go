package mailer

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"
)

var (
	ErrQueueFull        = errors.New("mail queue is full")
	ErrDispatcherClosed = errors.New("mail dispatcher is closed")
)

// DeadLetterFunc receives jobs that could not be queued or delivered.
type DeadLetterFunc func(job EmailJob, err error)

// Dispatcher is a bounded in-process mail queue drained by a fixed set of workers.
// Enqueue never blocks the caller; jobs that cannot be queued or fail to send
// go to the dead-letter sink.
type Dispatcher struct {
	sender     Sender
	logger     *logrus.Logger
	deadLetter DeadLetterFunc
	jobs       chan EmailJob
	workers    int
	timeout    time.Duration

	mu      sync.RWMutex
	closed  bool
	started bool
	wg      sync.WaitGroup

	rejected atomic.Int64
}

type DispatcherOption func(*Dispatcher)

func WithQueueSize(n int) DispatcherOption {
	return func(d *Dispatcher) {
		if n > 0 {
			d.jobs = make(chan EmailJob, n)
		}
	}
}

func WithWorkers(n int) DispatcherOption {
	return func(d *Dispatcher) {
		if n > 0 {
			d.workers = n
		}
	}
}

// WithSendTimeout bounds a single delivery attempt.
func WithSendTimeout(t time.Duration) DispatcherOption {
	return func(d *Dispatcher) {
		if t > 0 {
			d.timeout = t
		}
	}
}

func WithDeadLetter(fn DeadLetterFunc) DispatcherOption {
	return func(d *Dispatcher) {
		if fn != nil {
			d.deadLetter = fn
		}
	}
}

func NewDispatcher(sender Sender, logger *logrus.Logger, opts ...DispatcherOption) *Dispatcher {
	d := &Dispatcher{
		sender:  sender,
		logger:  logger,
		jobs:    make(chan EmailJob, 64),
		workers: 1,
		timeout: 15 * time.Second,
	}
	d.deadLetter = d.logDeadLetter
	for _, opt := range opts {
		opt(d)
	}
	return d
}

func (d *Dispatcher) logDeadLetter(job EmailJob, err error) {
	if d.logger == nil {
		return
	}
	d.logger.WithError(err).WithFields(job.LogFields()).Error("email dead-lettered")
}

func (d *Dispatcher) reject(job EmailJob, err error) {
	d.rejected.Add(1)
	d.deadLetter(job, err)
}

// Pending is the number of queued jobs not yet picked up by a worker.
func (d *Dispatcher) Pending() int { return len(d.jobs) }

// DeadLettered counts jobs handed to the dead-letter sink since start.
func (d *Dispatcher) DeadLettered() int64 { return d.rejected.Load() }

// Start launches the workers. Calling it more than once has no effect.
func (d *Dispatcher) Start() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.started || d.closed {
		return
	}
	d.started = true
	for i := 0; i < d.workers; i++ {
		d.wg.Add(1)
		go d.work()
	}
}

func (d *Dispatcher) work() {
	defer d.wg.Done()
	for job := range d.jobs {
		ctx, cancel := context.WithTimeout(context.Background(), d.timeout)
		err := d.sender.Deliver(ctx, job)
		cancel()
		if err != nil {
			d.reject(job, err)
		}
	}
}

// Enqueue submits job without blocking.
func (d *Dispatcher) Enqueue(job EmailJob) error {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.closed {
		d.reject(job, ErrDispatcherClosed)
		return ErrDispatcherClosed
	}
	select {
	case d.jobs <- job:
		return nil
	default:
		d.reject(job, ErrQueueFull)
		return ErrQueueFull
	}
}

// Close stops accepting jobs and waits until the queued ones are processed.
func (d *Dispatcher) Close() {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return
	}
	d.closed = true
	close(d.jobs)
	started := d.started
	d.mu.Unlock()
	if started {
		d.wg.Wait()
	}
}
