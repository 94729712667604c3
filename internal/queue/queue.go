package queue

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// Handler processes one delivered job. A returned error triggers the queue's
// retry accounting unless the error is marked non-retryable.
type Handler func(ctx context.Context, jobID string) error

// nonRetryableError wraps an error whose cause will not change between
// delivery attempts (missing credentials, absent job record). The queue fails
// the job immediately instead of burning the remaining attempts.
type nonRetryableError struct {
	err error
}

func (e *nonRetryableError) Error() string { return e.err.Error() }
func (e *nonRetryableError) Unwrap() error { return e.err }

// NonRetryable marks err so the queue will not redeliver the job.
func NonRetryable(err error) error {
	if err == nil {
		return nil
	}
	return &nonRetryableError{err: err}
}

// IsNonRetryable reports whether err was marked with NonRetryable.
func IsNonRetryable(err error) bool {
	var nre *nonRetryableError
	return errors.As(err, &nre)
}

// Options configures delivery behavior. Zero values fall back to the
// defaults used in production: 3 attempts, 5s initial backoff (doubling),
// and retention of the last 100 completed / 200 failed executions.
type Options struct {
	Attempts           int
	InitialBackoff     time.Duration
	QueueSize          int
	CompletedRetention int
	FailedRetention    int
}

func (o Options) withDefaults() Options {
	if o.Attempts <= 0 {
		o.Attempts = 3
	}
	if o.InitialBackoff <= 0 {
		o.InitialBackoff = 5 * time.Second
	}
	if o.QueueSize <= 0 {
		o.QueueSize = 100
	}
	if o.CompletedRetention <= 0 {
		o.CompletedRetention = 100
	}
	if o.FailedRetention <= 0 {
		o.FailedRetention = 200
	}
	return o
}

// Execution records one finished delivery for observability.
type Execution struct {
	JobID      string
	Attempts   int
	Error      string
	FinishedAt time.Time
}

// Queue is an in-process, at-least-once delivery queue with a single serial
// worker. One job runs to completion (or to an exhausted retry budget) before
// the next is dequeued, so load on downstream services is bounded by the
// number of queue instances deployed, not coordinated here.
type Queue struct {
	opts    Options
	handler Handler
	jobs    chan string
	quit    chan struct{}
	wg      sync.WaitGroup
	logger  *logrus.Logger

	mu        sync.Mutex
	completed []Execution
	failed    []Execution
}

// New creates a Queue with the given options.
func New(opts Options, logger *logrus.Logger) *Queue {
	opts = opts.withDefaults()
	return &Queue{
		opts:   opts,
		jobs:   make(chan string, opts.QueueSize),
		quit:   make(chan struct{}),
		logger: logger,
	}
}

// OnDequeue registers the handler invoked once per delivery. Must be called
// before Start.
func (q *Queue) OnDequeue(h Handler) {
	q.handler = h
}

// Start launches the worker goroutine. It panics if no handler is registered.
func (q *Queue) Start(ctx context.Context) {
	if q.handler == nil {
		panic("queue: Start called before OnDequeue")
	}
	q.wg.Add(1)
	go func() {
		defer q.wg.Done()
		for {
			select {
			case jobID := <-q.jobs:
				q.process(ctx, jobID)
			case <-q.quit:
				return
			case <-ctx.Done():
				return
			}
		}
	}()
	q.logger.WithField("attempts", q.opts.Attempts).Info("Queue worker started")
}

// Enqueue submits a job id for asynchronous processing. It fails instead of
// blocking when the queue is full.
func (q *Queue) Enqueue(jobID string) error {
	select {
	case q.jobs <- jobID:
		q.logger.WithField("job_id", jobID).Info("Job enqueued")
		return nil
	default:
		return fmt.Errorf("queue is full, job %s could not be enqueued", jobID)
	}
}

// Stop shuts the worker down after its current job finishes.
func (q *Queue) Stop() {
	close(q.quit)
	q.wg.Wait()
	q.logger.Info("Queue worker stopped")
}

// process drives the retry loop for one job. Backoff doubles per attempt
// starting from InitialBackoff.
func (q *Queue) process(ctx context.Context, jobID string) {
	var lastErr error
	attempts := 0
	backoff := q.opts.InitialBackoff

	for attempts < q.opts.Attempts {
		attempts++
		lastErr = q.handler(ctx, jobID)
		if lastErr == nil {
			q.record(&q.completed, q.opts.CompletedRetention, Execution{
				JobID:      jobID,
				Attempts:   attempts,
				FinishedAt: time.Now(),
			})
			return
		}

		entry := q.logger.WithFields(logrus.Fields{"job_id": jobID, "attempt": attempts, "error": lastErr.Error()})
		if IsNonRetryable(lastErr) {
			entry.Error("Job failed with non-retryable error")
			break
		}
		if attempts >= q.opts.Attempts {
			entry.Error("Job failed, attempts exhausted")
			break
		}

		entry.WithField("backoff", backoff.String()).Warn("Job failed, will retry")
		if !q.sleep(ctx, backoff) {
			break
		}
		backoff *= 2
	}

	q.record(&q.failed, q.opts.FailedRetention, Execution{
		JobID:      jobID,
		Attempts:   attempts,
		Error:      lastErr.Error(),
		FinishedAt: time.Now(),
	})
}

// sleep waits out the backoff delay. It returns false when the queue is
// shutting down and the retry loop should stop early.
func (q *Queue) sleep(ctx context.Context, d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return true
	case <-q.quit:
		return false
	case <-ctx.Done():
		return false
	}
}

func (q *Queue) record(list *[]Execution, retention int, exec Execution) {
	q.mu.Lock()
	defer q.mu.Unlock()
	*list = append(*list, exec)
	if len(*list) > retention {
		*list = (*list)[len(*list)-retention:]
	}
}

// Completed returns a copy of the retained successful executions.
func (q *Queue) Completed() []Execution {
	q.mu.Lock()
	defer q.mu.Unlock()
	return append([]Execution(nil), q.completed...)
}

// Failed returns a copy of the retained failed executions.
func (q *Queue) Failed() []Execution {
	q.mu.Lock()
	defer q.mu.Unlock()
	return append([]Execution(nil), q.failed...)
}
