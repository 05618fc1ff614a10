package audit

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lumina-media/backoffice/internal/access"
)

type failingRecorder struct {
	err    error
	panics bool
	calls  int
}

func (f *failingRecorder) Record(ctx context.Context, event access.AuditEvent) error {
	f.calls++
	if f.panics {
		panic("storage gone")
	}
	return f.err
}

func TestBestEffortSwallowsErrors(t *testing.T) {
	inner := &failingRecorder{err: errors.New("connection refused")}
	sink := NewBestEffort(inner, nil)

	err := sink.Record(context.Background(), access.AuditEvent{Action: access.ActionAccessDenied, PagePath: "/admin/iam"})
	assert.NoError(t, err)
	assert.Equal(t, 1, inner.calls)
}

func TestBestEffortSwallowsPanics(t *testing.T) {
	inner := &failingRecorder{panics: true}
	sink := NewBestEffort(inner, nil)

	assert.NotPanics(t, func() {
		err := sink.Record(context.Background(), access.AuditEvent{Action: access.ActionAccessAllowed, PagePath: "/admin"})
		assert.NoError(t, err)
	})
}

func TestBestEffortDeliversAtMostOnce(t *testing.T) {
	inner := &failingRecorder{err: errors.New("timeout")}
	sink := NewBestEffort(inner, nil)

	_ = sink.Record(context.Background(), access.AuditEvent{Action: access.ActionAccessAllowed, PagePath: "/admin"})
	assert.Equal(t, 1, inner.calls, "no retry on failure")
}

func TestNewRecordTaskRoundTrip(t *testing.T) {
	event := access.AuditEvent{
		ID:         "e1",
		UserID:     7,
		UserEmail:  "editor@lumina.test",
		Department: access.DeptEditorial,
		PagePath:   "/admin/editorial",
		Action:     access.ActionAccessAllowed,
		IPAddress:  "203.0.113.9",
		OccurredAt: time.Date(2026, 3, 10, 10, 0, 0, 0, time.UTC),
	}

	task, err := NewRecordTask(event)
	require.NoError(t, err)
	assert.Equal(t, TypeRecordEvent, task.Type())

	var decoded access.AuditEvent
	require.NoError(t, json.Unmarshal(task.Payload(), &decoded))
	assert.Equal(t, event, decoded)
}

type memoryRecorder struct {
	events []access.AuditEvent
}

func (m *memoryRecorder) Record(ctx context.Context, event access.AuditEvent) error {
	m.events = append(m.events, event)
	return nil
}

func TestTaskHandlerProcessesEvent(t *testing.T) {
	event := access.AuditEvent{
		UserID:   3,
		PagePath: "/admin/iam/users",
		Action:   access.ActionAccessDenied,
	}
	task, err := NewRecordTask(event)
	require.NoError(t, err)

	store := &memoryRecorder{}
	handler := NewTaskHandler(store)
	require.NoError(t, handler.ProcessTask(context.Background(), task))
	require.Len(t, store.events, 1)
	assert.Equal(t, event, store.events[0])
}
