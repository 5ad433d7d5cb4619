package worker

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/hibiken/asynq"
	"github.com/katatrina/roxot-collector/internal/delivery"
	"github.com/rs/zerolog/log"
)

// PayloadDeliverEvent is one output record waiting in Redis to be POSTed.
type PayloadDeliverEvent struct {
	Request delivery.EventRequest `json:"request"`
}

func (distributor *RedisTaskDistributor) DistributeTaskDeliverEvent(
	ctx context.Context,
	payload *PayloadDeliverEvent,
	opts ...asynq.Option,
) error {
	jsonPayload, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal task payload: %w", err)
	}

	task := asynq.NewTask(TaskDeliverEvent, jsonPayload, opts...)
	info, err := distributor.client.EnqueueContext(ctx, task)
	if err != nil {
		return fmt.Errorf("failed to enqueue task: %w", err)
	}

	log.Debug().
		Str("type", task.Type()).
		Str("task_id", info.ID).
		Str("event", payload.Request.EventType).
		Str("publisher_id", payload.Request.PublisherID).
		Str("queue", info.Queue).
		Int("max_retry", info.MaxRetry).
		Msg("task enqueued")

	return nil
}

func (processor *RedisTaskProcessor) ProcessTaskDeliverEvent(
	ctx context.Context,
	task *asynq.Task,
) error {
	var payload PayloadDeliverEvent
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return fmt.Errorf("failed to unmarshal payload: %w", asynq.SkipRetry)
	}

	if err := processor.sender.SendEvent(ctx, payload.Request); err != nil {
		log.Warn().Err(err).Str("event", payload.Request.EventType).
			Str("publisher_id", payload.Request.PublisherID).Msg("failed to deliver event")
		return err
	}

	log.Info().Str("type", task.Type()).Str("event", payload.Request.EventType).
		Str("publisher_id", payload.Request.PublisherID).Msg("task processed")

	return nil
}
