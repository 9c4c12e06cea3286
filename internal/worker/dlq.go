package worker

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

// DLQPrefix is prepended to a queue name to get its dead letter list,
// so receipt jobs end up in dlq:jobs:recibos.
const DLQPrefix = "dlq:"

// DeadJob is a job that will not be retried, kept with the reason it died.
type DeadJob struct {
	Queue    string          `json:"queue"`
	JobType  string          `json:"job_type"`
	Payload  json.RawMessage `json:"payload"`
	Attempts int             `json:"attempts"`
	Reason   string          `json:"reason"`
	DiedAt   time.Time       `json:"died_at"`
}

func bury(ctx context.Context, rdb *redis.Client, queue string, job Job, reason string) {
	dead := DeadJob{
		Queue:    queue,
		JobType:  job.Type,
		Payload:  job.Payload,
		Attempts: job.Attempts,
		Reason:   reason,
		DiedAt:   time.Now().UTC(),
	}
	data, err := json.Marshal(dead)
	if err != nil {
		log.Error().Err(err).Str("queue", queue).Msg("dlq: marshal")
		return
	}
	if err := rdb.LPush(ctx, DLQPrefix+queue, data).Err(); err != nil {
		// the job is lost at this point; the log line is all that remains of it
		log.Error().Err(err).Str("queue", queue).RawJSON("job", data).Msg("dlq: push failed")
		return
	}
	log.Warn().
		Str("queue", queue).
		Str("job_type", job.Type).
		Int("attempts", job.Attempts).
		Str("reason", reason).
		Msg("job moved to dead letter queue")
}

// DLQLength is reported by GET /health.
func DLQLength(ctx context.Context, rdb *redis.Client, queue string) (int64, error) {
	return rdb.LLen(ctx, DLQPrefix+queue).Result()
}

// PeekDLQ returns up to n dead jobs, newest first, leaving them in place.
// Entries that no longer decode are skipped.
func PeekDLQ(ctx context.Context, rdb *redis.Client, queue string, n int64) ([]DeadJob, error) {
	raw, err := rdb.LRange(ctx, DLQPrefix+queue, 0, n-1).Result()
	if err != nil {
		return nil, err
	}
	out := make([]DeadJob, 0, len(raw))
	for _, r := range raw {
		var d DeadJob
		if json.Unmarshal([]byte(r), &d) == nil {
			out = append(out, d)
		}
	}
	return out, nil
}
