package queue

import (
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/openleague/matchday/pkg/log"
	"github.com/openleague/matchday/pkg/metrics"
	"github.com/openleague/matchday/pkg/registry"
)

// WorkerConfig holds worker pool configuration
type WorkerConfig struct {
	Queues       []string      // physical queue names, highest priority first
	Concurrency  int           // number of worker goroutines, default 1
	PollInterval time.Duration // idle poll interval, default 200ms
	RetryDelay   time.Duration // base redelivery delay, doubled per attempt, default 1s
}

// Worker pulls jobs off the durable queues and dispatches their envelopes
// through the handler registry. A retryable handler failure re-enqueues the
// job with backoff until max_retries is exhausted, after which the job is
// dead-lettered.
type Worker struct {
	queue        *Queue
	registry     *registry.Registry
	queues       []string
	concurrency  int
	pollInterval time.Duration
	retryDelay   time.Duration

	stopCh chan struct{}
	wg     sync.WaitGroup
	logger zerolog.Logger
}

// NewWorker creates a worker pool over the given queues
func NewWorker(q *Queue, reg *registry.Registry, cfg WorkerConfig) *Worker {
	concurrency := cfg.Concurrency
	if concurrency <= 0 {
		concurrency = 1
	}
	pollInterval := cfg.PollInterval
	if pollInterval <= 0 {
		pollInterval = 200 * time.Millisecond
	}
	retryDelay := cfg.RetryDelay
	if retryDelay <= 0 {
		retryDelay = time.Second
	}

	return &Worker{
		queue:        q,
		registry:     reg,
		queues:       cfg.Queues,
		concurrency:  concurrency,
		pollInterval: pollInterval,
		retryDelay:   retryDelay,
		stopCh:       make(chan struct{}),
		logger:       log.WithComponent("queue-worker"),
	}
}

// Start launches the worker goroutines
func (w *Worker) Start() {
	for i := 0; i < w.concurrency; i++ {
		w.wg.Add(1)
		go w.run()
	}
}

// Stop signals the workers and waits for in-flight jobs to finish
func (w *Worker) Stop() {
	close(w.stopCh)
	w.wg.Wait()
}

func (w *Worker) run() {
	defer w.wg.Done()

	for {
		select {
		case <-w.stopCh:
			return
		default:
		}

		job, err := w.queue.Dequeue(w.queues, time.Now().UTC())
		if err != nil {
			w.logger.Error().Err(err).Msg("dequeue failed")
		}
		if job == nil {
			select {
			case <-time.After(w.pollInterval):
			case <-w.stopCh:
				return
			}
			continue
		}

		w.process(job)
	}
}

// process runs one job to completion, retry or dead-letter
func (w *Worker) process(job *Job) {
	err := w.registry.Dispatch(job.Envelope)
	if err == nil {
		return
	}

	job.Attempts++
	job.Envelope.RetryCount = job.Attempts

	if job.Attempts >= job.MaxRetries {
		w.logger.Error().
			Str("job_id", job.ID).
			Str("event_id", job.Envelope.EventID).
			Str("event_type", job.Envelope.EventType).
			Int("attempts", job.Attempts).
			Err(err).
			Msg("job exhausted retries, dead-lettering")
		metrics.JobsDeadLetteredTotal.Inc()
		if dlErr := w.queue.DeadLetter(job, err.Error()); dlErr != nil {
			w.logger.Error().Str("job_id", job.ID).Err(dlErr).Msg("failed to dead-letter job")
		}
		return
	}

	delay := w.retryDelay << (job.Attempts - 1)
	job.RunAt = time.Now().UTC().Add(delay)
	job.LastError = err.Error()

	w.logger.Warn().
		Str("job_id", job.ID).
		Str("event_id", job.Envelope.EventID).
		Int("attempt", job.Attempts).
		Dur("retry_in", delay).
		Err(err).
		Msg("job failed, retrying")

	if reErr := w.queue.Enqueue(job); reErr != nil {
		w.logger.Error().Str("job_id", job.ID).Err(reErr).Msg("failed to re-enqueue job")
	}
}
