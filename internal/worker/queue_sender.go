package worker

import (
	"context"

	"github.com/hibiken/asynq"
	"github.com/katatrina/roxot-collector/internal/delivery"
)

// QueueSender is a delivery.Sender that hands records to the task queue
// instead of posting them inline. The processor retries failed posts.
type QueueSender struct {
	distributor TaskDistributor
	maxRetry    int
}

func NewQueueSender(distributor TaskDistributor, maxRetry int) *QueueSender {
	return &QueueSender{
		distributor: distributor,
		maxRetry:    maxRetry,
	}
}

func (s *QueueSender) SendEvent(ctx context.Context, request delivery.EventRequest) error {
	return s.distributor.DistributeTaskDeliverEvent(ctx, &PayloadDeliverEvent{Request: request},
		asynq.MaxRetry(s.maxRetry),
		asynq.Queue(QueueDefault),
	)
}
