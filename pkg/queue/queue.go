package queue

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"time"

	bolt "go.etcd.io/bbolt"

	"github.com/openleague/matchday/pkg/event"
	"github.com/openleague/matchday/pkg/types"
)

var (
	// Bucket names
	bucketJobs        = []byte("jobs")
	bucketDeadLetters = []byte("dead_letters")
)

// Job is one asynchronous, retryable unit of work wrapping an envelope.
// The envelope's event ID never changes across retries; only the attempt
// counter moves.
type Job struct {
	ID         string          `json:"id"`
	Queue      string          `json:"queue"`
	Envelope   *event.Envelope `json:"envelope"`
	Attempts   int             `json:"attempts"`
	MaxRetries int             `json:"max_retries"`
	RunAt      time.Time       `json:"run_at"`
	EnqueuedAt time.Time       `json:"enqueued_at"`
	LastError  string          `json:"last_error,omitempty"`
}

// Name computes the physical queue name for a base name and priority.
// The "default" base is special-cased: the priority name is used directly,
// with normal mapping to "default" itself.
func Name(base string, priority types.Priority) string {
	if base == "default" {
		if priority == types.PriorityNormal {
			return "default"
		}
		return string(priority)
	}
	return fmt.Sprintf("%s-%s", base, priority)
}

// Names returns the physical queue names for a base in priority order,
// highest first
func Names(base string) []string {
	return []string{
		Name(base, types.PriorityHigh),
		Name(base, types.PriorityNormal),
		Name(base, types.PriorityLow),
	}
}

// Queue is a durable work queue on its own BoltDB file, kept separate from
// the event core's state store so queue traffic never interferes with
// domain transactions
type Queue struct {
	db *bolt.DB
}

// Open creates or opens the queue database in dataDir
func Open(dataDir string) (*Queue, error) {
	dbPath := filepath.Join(dataDir, "matchday-queue.db")

	db, err := bolt.Open(dbPath, 0600, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to open queue database: %w", err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		if _, err := tx.CreateBucketIfNotExists(bucketJobs); err != nil {
			return err
		}
		if _, err := tx.CreateBucketIfNotExists(bucketDeadLetters); err != nil {
			return err
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, err
	}

	return &Queue{db: db}, nil
}

// Close closes the queue database
func (q *Queue) Close() error {
	return q.db.Close()
}

// Ping verifies the queue is reachable before an enqueue is attempted
func (q *Queue) Ping() error {
	return q.db.View(func(tx *bolt.Tx) error {
		if tx.Bucket(bucketJobs) == nil {
			return fmt.Errorf("jobs bucket missing")
		}
		return nil
	})
}

// jobKey orders jobs within a queue by due time, then ID for uniqueness
func jobKey(job *Job) []byte {
	return []byte(fmt.Sprintf("%020d:%s", job.RunAt.UnixNano(), job.ID))
}

// Enqueue stores a job in its queue's sub-bucket
func (q *Queue) Enqueue(job *Job) error {
	return q.db.Update(func(tx *bolt.Tx) error {
		b, err := tx.Bucket(bucketJobs).CreateBucketIfNotExists([]byte(job.Queue))
		if err != nil {
			return err
		}
		data, err := json.Marshal(job)
		if err != nil {
			return err
		}
		return b.Put(jobKey(job), data)
	})
}

// Dequeue pops the first due job, scanning the given queues in order.
// Returns nil when nothing is due.
func (q *Queue) Dequeue(queues []string, now time.Time) (*Job, error) {
	var job *Job
	err := q.db.Update(func(tx *bolt.Tx) error {
		jobs := tx.Bucket(bucketJobs)
		for _, name := range queues {
			b := jobs.Bucket([]byte(name))
			if b == nil {
				continue
			}
			k, v := b.Cursor().First()
			if k == nil {
				continue
			}
			var j Job
			if err := json.Unmarshal(v, &j); err != nil {
				return err
			}
			if j.RunAt.After(now) {
				// Jobs are ordered by due time; nothing due in this queue
				continue
			}
			if err := b.Delete(k); err != nil {
				return err
			}
			job = &j
			return nil
		}
		return nil
	})
	return job, err
}

// Depth returns the number of pending jobs in a queue
func (q *Queue) Depth(queue string) (int, error) {
	count := 0
	err := q.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketJobs).Bucket([]byte(queue))
		if b == nil {
			return nil
		}
		count = b.Stats().KeyN
		return nil
	})
	return count, err
}

// Queues lists the physical queue names that currently exist
func (q *Queue) Queues() ([]string, error) {
	var names []string
	err := q.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketJobs).ForEachBucket(func(k []byte) error {
			names = append(names, string(k))
			return nil
		})
	})
	return names, err
}

// DeadLetter moves an exhausted job to the failed-jobs record for manual
// inspection
func (q *Queue) DeadLetter(job *Job, lastErr string) error {
	return q.db.Update(func(tx *bolt.Tx) error {
		job.LastError = lastErr
		data, err := json.Marshal(job)
		if err != nil {
			return err
		}
		return tx.Bucket(bucketDeadLetters).Put([]byte(job.ID), data)
	})
}

// ListDeadLetters returns every dead-lettered job
func (q *Queue) ListDeadLetters() ([]*Job, error) {
	var jobs []*Job
	err := q.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketDeadLetters).ForEach(func(k, v []byte) error {
			var j Job
			if err := json.Unmarshal(v, &j); err != nil {
				return err
			}
			jobs = append(jobs, &j)
			return nil
		})
	})
	return jobs, err
}
