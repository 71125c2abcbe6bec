package scheduler

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"time"

	"gearbox_backend/platform/config"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"
)

// reminderLead is how long before an estimate's validity deadline the owner
// gets a reminder email.
const reminderLead = 24 * time.Hour

type Client struct {
	client *asynq.Client
	queue  string
}

func NewClient(cfg config.SchedulerConfig) (*Client, error) {
	redisURL := cfg.GetRedisURL()
	if redisURL == "" {
		return nil, fmt.Errorf("redis url not configured")
	}

	opt, err := redisClientOpt(redisURL, cfg.GetRedisTLSInsecure())
	if err != nil {
		return nil, err
	}

	queue := cfg.GetAsynqQueueName()
	if queue == "" {
		queue = "default"
	}

	return &Client{
		client: asynq.NewClient(opt),
		queue:  queue,
	}, nil
}

func (c *Client) Close() error {
	if c == nil || c.client == nil {
		return nil
	}
	return c.client.Close()
}

// ScheduleExpiryReminder enqueues a reminder task to run shortly before the
// estimate's validity deadline. Deadlines closer than the lead time get the
// reminder immediately.
func (c *Client) ScheduleExpiryReminder(ctx context.Context, estimateID, requestID uuid.UUID, validUntil time.Time) error {
	if c == nil || c.client == nil {
		return nil
	}

	task, err := NewEstimateExpiryReminderTask(EstimateExpiryReminderPayload{
		EstimateID: estimateID.String(),
		RequestID:  requestID.String(),
	})
	if err != nil {
		return err
	}

	runAt := validUntil.Add(-reminderLead)
	if runAt.Before(time.Now()) {
		runAt = time.Now()
	}

	// Unique shares a lock with the sweep in cmd/scheduler, so an estimate
	// gets at most one queued reminder at a time.
	_, err = c.client.EnqueueContext(ctx, task,
		asynq.ProcessAt(runAt),
		asynq.Queue(c.queue),
		asynq.Unique(reminderLead),
	)
	if errors.Is(err, asynq.ErrDuplicateTask) {
		return nil
	}
	return err
}

func redisClientOpt(redisURL string, tlsInsecure bool) (asynq.RedisClientOpt, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return asynq.RedisClientOpt{}, err
	}

	var tlsConfig *tls.Config
	if opt.TLSConfig != nil {
		clone := opt.TLSConfig.Clone()
		if tlsInsecure {
			clone.InsecureSkipVerify = true
		}
		tlsConfig = clone
	} else if tlsInsecure {
		tlsConfig = &tls.Config{InsecureSkipVerify: true}
	}

	return asynq.RedisClientOpt{
		Addr:      opt.Addr,
		Password:  opt.Password,
		DB:        opt.DB,
		TLSConfig: tlsConfig,
	}, nil
}
