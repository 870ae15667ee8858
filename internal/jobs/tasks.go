// Package jobs queues HR events for asynchronous processing. Transports that
// should not block on provisioning enqueue events here; a dedicated worker
// process drains the queue through the service layer.
package jobs

import (
	"context"
	"encoding/json"

	"github.com/hibiken/asynq"

	"github.com/Raoof128/ILAE/internal/domain"
	"github.com/Raoof128/ILAE/pkg/jmlerrors"
)

const (
	// QueueLifecycle holds lifecycle event tasks.
	QueueLifecycle = "lifecycle"
	// TaskProcessEvent is the task type for a single HR event.
	TaskProcessEvent = "jml:process_event"
)

// ProcessEventPayload is the queued form of an HR event.
type ProcessEventPayload struct {
	Event domain.HREvent `json:"event"`
}

// NewProcessEventTask wraps an event in an Asynq task.
func NewProcessEventTask(event domain.HREvent) (*asynq.Task, error) {
	data, err := json.Marshal(ProcessEventPayload{Event: event})
	if err != nil {
		return nil, jmlerrors.Wrap(err, jmlerrors.CodeInternal, "encode event task")
	}
	return asynq.NewTask(TaskProcessEvent, data, asynq.Queue(QueueLifecycle)), nil
}

// Client submits lifecycle tasks to the queue.
type Client struct {
	client *asynq.Client
}

func NewClient(redisOpts asynq.RedisClientOpt) *Client {
	return &Client{client: asynq.NewClient(redisOpts)}
}

// EnqueueEvent queues one event for background processing.
func (c *Client) EnqueueEvent(ctx context.Context, event domain.HREvent) (*asynq.TaskInfo, error) {
	task, err := NewProcessEventTask(event)
	if err != nil {
		return nil, err
	}
	info, err := c.client.EnqueueContext(ctx, task)
	if err != nil {
		return nil, jmlerrors.Wrap(err, jmlerrors.CodeUnavailable, "enqueue event task")
	}
	return info, nil
}

func (c *Client) Close() error { return c.client.Close() }
