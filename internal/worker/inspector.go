package worker

import (
	"github.com/hibiken/asynq"
)

type TaskInspector interface {
	// PendingDeliveries reports tasks waiting in the delivery queue.
	PendingDeliveries() (int, error)
	Close() error
}

type RedisTaskInspector struct {
	inspector *asynq.Inspector
}

func NewTaskInspector(redisOpt asynq.RedisClientOpt) TaskInspector {
	return &RedisTaskInspector{
		inspector: asynq.NewInspector(redisOpt),
	}
}

func (i *RedisTaskInspector) PendingDeliveries() (int, error) {
	info, err := i.inspector.GetQueueInfo(QueueDefault)
	if err != nil {
		return 0, err
	}
	return info.Pending + info.Retry + info.Scheduled, nil
}

func (i *RedisTaskInspector) Close() error {
	return i.inspector.Close()
}
