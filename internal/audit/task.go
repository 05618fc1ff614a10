package audit

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/hibiken/asynq"

	"github.com/lumina-media/backoffice/internal/access"
)

// TypeRecordEvent is the asynq task type for deferred audit writes.
const TypeRecordEvent = "audit:record"

// QueueName is the asynq queue audit tasks are enqueued on.
const QueueName = "audit"

// NewRecordTask serialises an audit event into an asynq task.
func NewRecordTask(event access.AuditEvent) (*asynq.Task, error) {
	payload, err := json.Marshal(event)
	if err != nil {
		return nil, fmt.Errorf("audit: marshal event: %w", err)
	}
	return asynq.NewTask(TypeRecordEvent, payload, asynq.Queue(QueueName), asynq.MaxRetry(3)), nil
}

// AsyncRecorder hands audit events to the worker via asynq rather than
// writing them inline with the request.
type AsyncRecorder struct {
	client *asynq.Client
}

// NewAsyncRecorder wraps an asynq client.
func NewAsyncRecorder(client *asynq.Client) *AsyncRecorder {
	return &AsyncRecorder{client: client}
}

// Record enqueues the event for the worker.
func (r *AsyncRecorder) Record(ctx context.Context, event access.AuditEvent) error {
	if r == nil || r.client == nil {
		return errors.New("audit: async recorder not initialised")
	}
	task, err := NewRecordTask(event)
	if err != nil {
		return err
	}
	if _, err := r.client.EnqueueContext(ctx, task); err != nil {
		return fmt.Errorf("audit: enqueue: %w", err)
	}
	return nil
}

var _ Recorder = (*AsyncRecorder)(nil)

// TaskHandler consumes audit tasks on the worker and performs the insert.
// asynq retries a failed insert; that retry happens downstream of the
// original decision and never blocks it.
type TaskHandler struct {
	recorder Recorder
}

// NewTaskHandler builds the worker-side handler.
func NewTaskHandler(recorder Recorder) *TaskHandler {
	return &TaskHandler{recorder: recorder}
}

// ProcessTask implements asynq.Handler.
func (h *TaskHandler) ProcessTask(ctx context.Context, task *asynq.Task) error {
	var event access.AuditEvent
	if err := json.Unmarshal(task.Payload(), &event); err != nil {
		return fmt.Errorf("audit: unmarshal task: %w", err)
	}
	return h.recorder.Record(ctx, event)
}
