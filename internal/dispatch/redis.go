package dispatch

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/cg505/ocflib/params"
	"github.com/redis/go-redis/v9"
)

// Redis key naming. All keys are prefixed to avoid collisions with
// other users of the same Redis instance.
const redisKeyPrefix = "dispatch:"

func jobKey(id string) string     { return redisKeyPrefix + "job:" + id }
func queueKey(name string) string { return redisKeyPrefix + "queue:" + name }
func statusKey(id string) string  { return redisKeyPrefix + "status:" + id }

// RedisStore implements Store on a shared Redis instance. Each job is a
// Hash; each queue is a Sorted Set scored by the job's RunAt time; the
// progress log is a List.
type RedisStore struct {
	client redis.UniversalClient
}

// NewRedisStore creates a Store backed by the given Redis client.
func NewRedisStore(client redis.UniversalClient) *RedisStore {
	return &RedisStore{client: client}
}

func (s *RedisStore) EnqueueJob(ctx context.Context, j *Job) error {
	key := jobKey(j.ID)

	exists, err := s.client.Exists(ctx, key).Result()
	if err != nil {
		return fmt.Errorf("dispatch/redis: enqueue check exists: %w", err)
	}
	if exists > 0 {
		return ErrJobAlreadyExists
	}

	pipe := s.client.TxPipeline()
	pipe.HSet(ctx, key, jobToMap(j))
	pipe.ZAdd(ctx, queueKey(j.Queue), redis.Z{
		Score:  float64(j.RunAt.UnixMilli()),
		Member: j.ID,
	})
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("dispatch/redis: enqueue job: %w", err)
	}
	return nil
}

// DequeueJobs claims due jobs. The ZRem is the claim: of several workers
// reading the same member, only the one whose ZRem returns 1 owns it.
func (s *RedisStore) DequeueJobs(ctx context.Context, queues []string, limit int) ([]*Job, error) {
	now := time.Now().UTC()
	var jobs []*Job

	for _, q := range queues {
		if len(jobs) >= limit {
			break
		}
		remaining := limit - len(jobs)

		ids, err := s.client.ZRangeByScore(ctx, queueKey(q), &redis.ZRangeBy{
			Min:   "-inf",
			Max:   strconv.FormatInt(now.UnixMilli(), 10),
			Count: int64(remaining),
		}).Result()
		if err != nil {
			return nil, fmt.Errorf("dispatch/redis: dequeue zrangebyscore: %w", err)
		}

		for _, id := range ids {
			removed, remErr := s.client.ZRem(ctx, queueKey(q), id).Result()
			if remErr != nil {
				return nil, fmt.Errorf("dispatch/redis: dequeue claim: %w", remErr)
			}
			if removed == 0 {
				continue // another worker got there first
			}

			key := jobKey(id)
			if err := s.client.HSet(ctx, key,
				"state", string(StateRunning),
				"started_at", now.Format(time.RFC3339Nano),
				"updated_at", now.Format(time.RFC3339Nano),
			).Err(); err != nil {
				return nil, fmt.Errorf("dispatch/redis: dequeue update: %w", err)
			}

			j, getErr := s.getJobByKey(ctx, key)
			if getErr != nil {
				return nil, getErr
			}
			jobs = append(jobs, j)
		}
	}
	return jobs, nil
}

func (s *RedisStore) GetJob(ctx context.Context, jobID string) (*Job, error) {
	return s.getJobByKey(ctx, jobKey(jobID))
}

func (s *RedisStore) UpdateJob(ctx context.Context, j *Job) error {
	key := jobKey(j.ID)

	exists, err := s.client.Exists(ctx, key).Result()
	if err != nil {
		return fmt.Errorf("dispatch/redis: update job exists: %w", err)
	}
	if exists == 0 {
		return ErrJobNotFound
	}

	clone := *j
	clone.UpdatedAt = time.Now().UTC()

	pipe := s.client.TxPipeline()
	pipe.HSet(ctx, key, jobToMap(&clone))
	// A job going back to pending or retrying must become dequeueable
	// again once its RunAt passes.
	if clone.State == StatePending || clone.State == StateRetrying {
		pipe.ZAdd(ctx, queueKey(clone.Queue), redis.Z{
			Score:  float64(clone.RunAt.UnixMilli()),
			Member: clone.ID,
		})
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("dispatch/redis: update job: %w", err)
	}
	return nil
}

func (s *RedisStore) AppendStatus(ctx context.Context, jobID string, line string) error {
	key := statusKey(jobID)
	pipe := s.client.TxPipeline()
	pipe.RPush(ctx, key, line)
	pipe.LTrim(ctx, key, -int64(params.ProgressLogMaxLines), -1)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("dispatch/redis: append status: %w", err)
	}
	return nil
}

func (s *RedisStore) GetStatus(ctx context.Context, jobID string) ([]string, error) {
	lines, err := s.client.LRange(ctx, statusKey(jobID), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("dispatch/redis: get status: %w", err)
	}
	return lines, nil
}

func (s *RedisStore) getJobByKey(ctx context.Context, key string) (*Job, error) {
	vals, err := s.client.HGetAll(ctx, key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrJobNotFound
		}
		return nil, fmt.Errorf("dispatch/redis: get job: %w", err)
	}
	if len(vals) == 0 {
		return nil, ErrJobNotFound
	}
	return mapToJob(vals), nil
}

func jobToMap(j *Job) map[string]interface{} {
	m := map[string]interface{}{
		"id":          j.ID,
		"name":        j.Name,
		"queue":       j.Queue,
		"payload":     string(j.Payload),
		"state":       string(j.State),
		"max_retries": strconv.Itoa(j.MaxRetries),
		"retry_count": strconv.Itoa(j.RetryCount),
		"last_error":  j.LastError,
		"result":      string(j.Result),
		"run_at":      j.RunAt.Format(time.RFC3339Nano),
		"created_at":  j.CreatedAt.Format(time.RFC3339Nano),
		"updated_at":  j.UpdatedAt.Format(time.RFC3339Nano),
	}
	if j.StartedAt != nil {
		m["started_at"] = j.StartedAt.Format(time.RFC3339Nano)
	}
	if j.CompletedAt != nil {
		m["completed_at"] = j.CompletedAt.Format(time.RFC3339Nano)
	}
	return m
}

func mapToJob(m map[string]string) *Job {
	maxRetries, _ := strconv.Atoi(m["max_retries"])
	retryCount, _ := strconv.Atoi(m["retry_count"])
	runAt, _ := time.Parse(time.RFC3339Nano, m["run_at"])
	createdAt, _ := time.Parse(time.RFC3339Nano, m["created_at"])
	updatedAt, _ := time.Parse(time.RFC3339Nano, m["updated_at"])

	j := &Job{
		ID:         m["id"],
		Name:       m["name"],
		Queue:      m["queue"],
		Payload:    []byte(m["payload"]),
		State:      State(m["state"]),
		MaxRetries: maxRetries,
		RetryCount: retryCount,
		LastError:  m["last_error"],
		Result:     []byte(m["result"]),
		RunAt:      runAt,
		CreatedAt:  createdAt,
		UpdatedAt:  updatedAt,
	}
	if v := m["started_at"]; v != "" {
		t, _ := time.Parse(time.RFC3339Nano, v)
		j.StartedAt = &t
	}
	if v := m["completed_at"]; v != "" {
		t, _ := time.Parse(time.RFC3339Nano, v)
		j.CompletedAt = &t
	}
	return j
}
