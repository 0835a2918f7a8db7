// Package queue is a redis-backed job queue for upload imports. Jobs are
// pushed to the head of a list and popped from the tail, so consumers see
// them in FIFO order across any number of worker processes.
package queue

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/google/uuid"
	redis "github.com/redis/go-redis/v9"

	"github.com/jarvis360/revenuecore/internal/config"
)

const keyImportJobs = "imports:jobs"

// Job is the wire payload of one queued import. Attempt counts deliveries:
// the first enqueue carries attempt 0, each retry increments it.
type Job struct {
	ID       string `json:"job_id"`
	UploadID int64  `json:"upload_id"`
	Attempt  int    `json:"attempt"`
}

type Queue struct {
	enabled bool
	client  *redis.Client
}

// New builds the queue from config. A blank redis address disables the queue
// and returns (nil, nil); callers must gate on Enabled.
func New(cfg config.Config) (*Queue, error) {
	addr := strings.TrimSpace(cfg.RedisAddr)
	if addr == "" {
		return nil, nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: strings.TrimSpace(cfg.RedisPassword),
		DB:       cfg.RedisDB,
	})

	return &Queue{enabled: true, client: client}, nil
}

func (q *Queue) Enabled() bool {
	return q != nil && q.enabled
}

// Enqueue pushes a first-delivery job for the upload.
func (q *Queue) Enqueue(ctx context.Context, uploadID snowflake.ID) error {
	return q.EnqueueJob(ctx, Job{UploadID: int64(uploadID)})
}

// EnqueueJob pushes a job as-is, assigning a job id when absent.
func (q *Queue) EnqueueJob(ctx context.Context, job Job) error {
	if !q.Enabled() {
		return errors.New("queue disabled")
	}
	if job.ID == "" {
		job.ID = uuid.NewString()
	}
	payload, err := json.Marshal(job)
	if err != nil {
		return err
	}
	return q.client.LPush(ctx, keyImportJobs, payload).Err()
}

// Dequeue blocks up to timeout for the next job. No job within the window
// yields (nil, nil).
func (q *Queue) Dequeue(ctx context.Context, timeout time.Duration) (*Job, error) {
	if !q.Enabled() {
		return nil, errors.New("queue disabled")
	}
	res, err := q.client.BRPop(ctx, timeout, keyImportJobs).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, err
	}
	// BRPOP returns [key, value].
	if len(res) < 2 {
		return nil, nil
	}
	var job Job
	if err := json.Unmarshal([]byte(res[1]), &job); err != nil {
		return nil, err
	}
	return &job, nil
}

// Len reports the number of jobs waiting.
func (q *Queue) Len(ctx context.Context) (int64, error) {
	if !q.Enabled() {
		return 0, nil
	}
	return q.client.LLen(ctx, keyImportJobs).Result()
}

// Close releases the underlying redis connection.
func (q *Queue) Close() error {
	if !q.Enabled() {
		return nil
	}
	return q.client.Close()
}
