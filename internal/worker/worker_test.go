package worker

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"roomscout/internal/events"
	"roomscout/internal/history"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSheets struct {
	appendCalls int
	err         error
}

func (f *fakeSheets) AppendStay(ctx context.Context, stay *events.StayEventPayload) error {
	f.appendCalls++
	return f.err
}

func newTestDB(t *testing.T) *history.DB {
	t.Helper()
	db, err := history.New(filepath.Join(t.TempDir(), "history.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func testPayload() events.StayEventPayload {
	return events.StayEventPayload{
		RecordID:   100,
		Kind:       "booking",
		RoomID:     7,
		CustomerID: 42,
		StartDate:  "2026-09-15",
		EndDate:    "2026-09-18",
		HotelName:  "Grand",
		Price:      120.5,
	}
}

func TestEnqueueAndProcessSuccess(t *testing.T) {
	db := newTestDB(t)
	sheets := &fakeSheets{}
	w := NewMirrorWorker(db, sheets, nil, RetryPolicy{}, nil)
	ctx := context.Background()

	require.NoError(t, w.Enqueue(ctx, testPayload()))

	task, ok := w.tryLocalQueue()
	require.True(t, ok, "task should land in the in-memory queue without redis")

	w.processTask(ctx, &task)
	assert.Equal(t, 1, sheets.appendCalls)

	pending, err := db.GetPendingMirrorTasks(ctx, 10)
	require.NoError(t, err)
	assert.Empty(t, pending, "completed task must leave the queue")
}

func TestEnqueueRequiresRecordID(t *testing.T) {
	w := NewMirrorWorker(newTestDB(t), &fakeSheets{}, nil, RetryPolicy{}, nil)
	err := w.Enqueue(context.Background(), events.StayEventPayload{})
	assert.Error(t, err)
}

func TestProcessFailureSchedulesRetry(t *testing.T) {
	db := newTestDB(t)
	sheets := &fakeSheets{err: errors.New("sheets unavailable")}
	w := NewMirrorWorker(db, sheets, nil, RetryPolicy{MaxRetries: 5}, nil)
	ctx := context.Background()

	require.NoError(t, w.Enqueue(ctx, testPayload()))
	task, ok := w.tryLocalQueue()
	require.True(t, ok)

	w.processTask(ctx, &task)

	// Задача отложена в будущее, пока не видна поллеру
	pending, err := db.GetPendingMirrorTasks(ctx, 10)
	require.NoError(t, err)
	assert.Empty(t, pending)
}

func TestProcessUnknownTaskTypeFails(t *testing.T) {
	db := newTestDB(t)
	sheets := &fakeSheets{}
	w := NewMirrorWorker(db, sheets, nil, RetryPolicy{}, nil)
	ctx := context.Background()

	require.NoError(t, w.Enqueue(ctx, testPayload()))
	task, ok := w.tryLocalQueue()
	require.True(t, ok)
	task.TaskType = "unknown"

	w.processTask(ctx, &task)
	assert.Equal(t, 0, sheets.appendCalls)

	pending, err := db.GetPendingMirrorTasks(ctx, 10)
	require.NoError(t, err)
	assert.Empty(t, pending, "failed task must not be retried")
}

func TestRetryPolicyBackoff(t *testing.T) {
	policy := RetryPolicy{
		MaxRetries:    5,
		InitialDelay:  time.Second,
		MaxDelay:      10 * time.Second,
		BackoffFactor: 2,
	}

	assert.Equal(t, time.Second, policy.NextDelay(1))
	assert.Equal(t, 2*time.Second, policy.NextDelay(2))
	assert.Equal(t, 4*time.Second, policy.NextDelay(3))
	assert.Equal(t, 10*time.Second, policy.NextDelay(10), "delay is clamped at MaxDelay")
	assert.Equal(t, time.Second, policy.NextDelay(0), "attempt below 1 is treated as the first")
}
