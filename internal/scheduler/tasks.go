package scheduler

import (
	"encoding/json"

	"github.com/hibiken/asynq"
)

const TaskEstimateExpiryReminder = "estimates.expiry.reminder"

type EstimateExpiryReminderPayload struct {
	EstimateID string `json:"estimateId"`
	RequestID  string `json:"requestId"`
}

func NewEstimateExpiryReminderTask(payload EstimateExpiryReminderPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskEstimateExpiryReminder, data), nil
}

func ParseEstimateExpiryReminderPayload(task *asynq.Task) (EstimateExpiryReminderPayload, error) {
	var payload EstimateExpiryReminderPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return EstimateExpiryReminderPayload{}, err
	}
	return payload, nil
}
