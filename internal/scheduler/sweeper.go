package scheduler

import (
	"context"
	"errors"
	"fmt"
	"time"

	estimatesrepo "gearbox_backend/internal/estimates/repository"
	"gearbox_backend/platform/config"
	"gearbox_backend/platform/logger"

	"github.com/hibiken/asynq"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ExpirySweeper periodically scans for pending estimates entering the
// reminder window and enqueues reminder tasks for them. It is the safety net
// for reminders that were never scheduled at estimate creation, e.g. when
// Redis was unavailable at the time.
type ExpirySweeper struct {
	client    *asynq.Client
	queue     string
	estimates *estimatesrepo.Repository
	log       *logger.Logger
}

func NewExpirySweeper(cfg config.SchedulerConfig, pool *pgxpool.Pool, log *logger.Logger) (*ExpirySweeper, error) {
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

	return &ExpirySweeper{
		client:    asynq.NewClient(opt),
		queue:     queue,
		estimates: estimatesrepo.New(pool),
		log:       log,
	}, nil
}

func (s *ExpirySweeper) Close() error {
	if s == nil || s.client == nil {
		return nil
	}
	return s.client.Close()
}

func (s *ExpirySweeper) Run(ctx context.Context) {
	if s == nil || s.client == nil || s.estimates == nil {
		return
	}

	ticker := time.NewTicker(10 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		expiring, err := s.estimates.ListPendingExpiring(ctx, reminderLead)
		if err != nil {
			s.log.Warn("expiry sweep failed", "error", err)
			continue
		}

		for _, est := range expiring {
			task, err := NewEstimateExpiryReminderTask(EstimateExpiryReminderPayload{
				EstimateID: est.ID.String(),
				RequestID:  est.RequestID.String(),
			})
			if err != nil {
				s.log.Warn("failed to build reminder task", "estimate_id", est.ID.String(), "error", err)
				continue
			}

			// Unique on the payload so repeated sweeps do not stack up
			// duplicate reminders for the same estimate.
			_, err = s.client.EnqueueContext(ctx, task,
				asynq.Queue(s.queue),
				asynq.Unique(reminderLead),
			)
			if err != nil && !errors.Is(err, asynq.ErrDuplicateTask) {
				s.log.Warn("failed to enqueue reminder task", "estimate_id", est.ID.String(), "error", err)
			}
		}
	}
}
