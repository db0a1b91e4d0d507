package workers

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/yoockh/careerguide/internal/cache"
	"github.com/yoockh/careerguide/internal/extract"
	"github.com/yoockh/careerguide/internal/utils"
)

const (
	DefaultIngestStream = "ingest:stream"
	DefaultIngestGroup  = "ingest-workers"
	jobStatusTTL        = 7 * 24 * time.Hour
)

type JobStatus string

const (
	JobQueued  JobStatus = "queued"
	JobRunning JobStatus = "running"
	JobDone    JobStatus = "done"
	JobFailed  JobStatus = "failed"
)

// IngestJob is the redis-held state of one asynchronous ingestion.
type IngestJob struct {
	ID         string       `json:"job_id"`
	Kind       extract.Kind `json:"kind"`
	Merge      bool         `json:"merge"`
	Status     JobStatus    `json:"status"`
	RunID      string       `json:"run_id,omitempty"`
	ChunkCount int          `json:"chunk_count,omitempty"`
	Error      string       `json:"error,omitempty"`
	EnqueuedAt time.Time    `json:"enqueued_at"`
	UpdatedAt  time.Time    `json:"updated_at"`
}

// IngestQueue publishes ingestion jobs to a redis stream and tracks their
// status in the cache.
type IngestQueue struct {
	Redis  *redis.Client
	Jobs   cache.Cache
	Stream string
}

func NewIngestQueue(rdb *redis.Client, jobs cache.Cache) *IngestQueue {
	return &IngestQueue{Redis: rdb, Jobs: jobs, Stream: DefaultIngestStream}
}

func (q *IngestQueue) Enqueue(ctx context.Context, kind extract.Kind, merge bool) (*IngestJob, error) {
	const op = "IngestQueue.Enqueue"

	if q == nil || q.Redis == nil {
		return nil, utils.E(utils.CodeUnavailable, op, "background ingestion is not configured", nil)
	}

	now := time.Now().UTC()
	job := &IngestJob{
		ID:         uuid.NewString(),
		Kind:       kind,
		Merge:      merge,
		Status:     JobQueued,
		EnqueuedAt: now,
		UpdatedAt:  now,
	}
	if err := q.save(ctx, job); err != nil {
		return nil, utils.E(utils.CodeUnavailable, op, "failed to record job", err)
	}

	err := q.Redis.XAdd(ctx, &redis.XAddArgs{
		Stream: q.Stream,
		Values: map[string]any{
			"job_id": job.ID,
			"kind":   string(kind),
			"merge":  strconv.FormatBool(merge),
		},
	}).Err()
	if err != nil {
		return nil, utils.E(utils.CodeUnavailable, op, "failed to enqueue job", err)
	}
	return job, nil
}

func (q *IngestQueue) Status(ctx context.Context, jobID string) (*IngestJob, error) {
	const op = "IngestQueue.Status"

	if q == nil || q.Jobs == nil {
		return nil, utils.E(utils.CodeUnavailable, op, "background ingestion is not configured", nil)
	}

	var job IngestJob
	hit, err := q.Jobs.GetJSON(ctx, cache.JobKey(jobID), &job)
	if err != nil {
		return nil, utils.E(utils.CodeUnavailable, op, "failed to read job", err)
	}
	if !hit {
		return nil, utils.E(utils.CodeNotFound, op, "job not found", utils.ErrNotFound)
	}
	return &job, nil
}

func (q *IngestQueue) save(ctx context.Context, job *IngestJob) error {
	if q.Jobs == nil {
		return errors.New("job store is nil")
	}
	return q.Jobs.SetJSON(ctx, cache.JobKey(job.ID), job, jobStatusTTL)
}
