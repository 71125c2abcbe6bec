package scheduler

import (
	"context"
	"fmt"
	"time"

	estimatesrepo "gearbox_backend/internal/estimates/repository"
	"gearbox_backend/internal/events"
	requestsrepo "gearbox_backend/internal/requests/repository"
	"gearbox_backend/platform/config"
	"gearbox_backend/platform/logger"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Worker struct {
	server    *asynq.Server
	mux       *asynq.ServeMux
	estimates *estimatesrepo.Repository
	requests  *requestsrepo.Repository
	bus       events.Bus
	log       *logger.Logger
}

func NewWorker(cfg config.SchedulerConfig, pool *pgxpool.Pool, bus events.Bus, log *logger.Logger) (*Worker, error) {
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

	concurrency := cfg.GetAsynqConcurrency()
	if concurrency < 1 {
		concurrency = 10
	}

	server := asynq.NewServer(opt, asynq.Config{
		Concurrency: concurrency,
		Queues: map[string]int{
			queue: 1,
		},
	})

	mux := asynq.NewServeMux()
	w := &Worker{
		server:    server,
		mux:       mux,
		estimates: estimatesrepo.New(pool),
		requests:  requestsrepo.New(pool),
		bus:       bus,
		log:       log,
	}

	mux.HandleFunc(TaskEstimateExpiryReminder, w.handleEstimateExpiryReminder)

	return w, nil
}

func (w *Worker) Run(ctx context.Context) {
	if w == nil || w.server == nil {
		return
	}

	go func() {
		<-ctx.Done()
		w.server.Shutdown()
	}()

	if err := w.server.Run(w.mux); err != nil {
		w.log.Error("scheduler worker stopped", "error", err)
	}
}

// handleEstimateExpiryReminder fires the reminder event if the estimate is
// still pending and its validity deadline has not yet passed. Estimates that
// were decided or already expired in the meantime are skipped.
func (w *Worker) handleEstimateExpiryReminder(ctx context.Context, task *asynq.Task) error {
	if w.bus == nil {
		return nil
	}

	payload, err := ParseEstimateExpiryReminderPayload(task)
	if err != nil {
		return err
	}

	estimateID, err := uuid.Parse(payload.EstimateID)
	if err != nil {
		return err
	}

	est, err := w.estimates.GetByID(ctx, estimateID)
	if err != nil {
		return err
	}

	if est.Status != estimatesrepo.StatusPending {
		return nil
	}
	if est.ValidUntil == nil || time.Now().After(*est.ValidUntil) {
		return nil
	}

	req, err := w.requests.GetByID(ctx, est.RequestID)
	if err != nil {
		return err
	}

	w.bus.Publish(ctx, events.EstimateExpiryReminderDue{
		BaseEvent:  events.NewBaseEvent(),
		EstimateID: est.ID,
		RequestID:  est.RequestID,
		OwnerID:    req.OwnerID,
		ValidUntil: *est.ValidUntil,
	})

	return nil
}
