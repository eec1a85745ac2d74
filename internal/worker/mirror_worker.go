package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"

	"roomscout/internal/events"
	"roomscout/internal/history"
	"roomscout/internal/models"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

const TaskAppendStay = "append_stay"

// SheetsClient is the slice of the Sheets service the worker needs.
type SheetsClient interface {
	AppendStay(ctx context.Context, stay *events.StayEventPayload) error
}

// MirrorWorker drains the mirror queue and appends confirmed stays to the
// configured spreadsheet. Tasks are persisted first, then scheduled via
// Redis when available, falling back to an in-memory channel, with the
// database poll as the net underneath both.
type MirrorWorker struct {
	db            *history.DB
	sheets        SheetsClient
	redis         *redis.Client
	retryPolicy   RetryPolicy
	queue         chan models.MirrorTask
	redisQueueKey string
	deadLetterKey string
	pollInterval  time.Duration
	batchSize     int
	logger        *zerolog.Logger
}

// NewMirrorWorker builds a worker with sane defaults.
func NewMirrorWorker(db *history.DB, sheets SheetsClient, redisClient *redis.Client, retry RetryPolicy, logger *zerolog.Logger) *MirrorWorker {
	if retry.MaxRetries == 0 {
		retry.MaxRetries = 5
	}
	if retry.InitialDelay == 0 {
		retry.InitialDelay = 2 * time.Second
	}
	if retry.MaxDelay == 0 {
		retry.MaxDelay = time.Minute
	}
	if retry.BackoffFactor == 0 {
		retry.BackoffFactor = 2
	}
	if logger == nil {
		l := zerolog.New(os.Stdout).With().Timestamp().Logger()
		logger = &l
	}

	return &MirrorWorker{
		db:            db,
		sheets:        sheets,
		redis:         redisClient,
		retryPolicy:   retry,
		queue:         make(chan models.MirrorTask, models.WorkerQueueSize),
		redisQueueKey: "mirror:queue",
		deadLetterKey: "mirror:deadletter",
		pollInterval:  2 * time.Second,
		batchSize:     20,
		logger:        logger,
	}
}

// Enqueue persists the stay and schedules it for mirroring.
func (w *MirrorWorker) Enqueue(ctx context.Context, stay events.StayEventPayload) error {
	if stay.RecordID == 0 {
		return errors.New("record id is required")
	}

	payloadBytes, err := json.Marshal(stay)
	if err != nil {
		return fmt.Errorf("encode payload: %w", err)
	}

	task := models.MirrorTask{
		TaskType:  TaskAppendStay,
		RecordID:  stay.RecordID,
		Payload:   string(payloadBytes),
		Status:    "pending",
		CreatedAt: time.Now(),
	}

	if err := w.db.CreateMirrorTask(ctx, &task); err != nil {
		return fmt.Errorf("persist mirror task: %w", err)
	}

	// Try redis first for durability.
	if w.redis != nil {
		if err := w.pushRedis(ctx, task); err != nil {
			w.logger.Warn().Err(err).Msg("mirror: redis push failed, fallback to memory queue")
		} else {
			return nil
		}
	}

	// Fallback to in-memory queue if redis missing or failed.
	select {
	case w.queue <- task:
	default:
		w.logger.Warn().Int64("task_id", task.ID).Msg("mirror: in-memory queue full, task left to polling")
	}

	return nil
}

// Start launches the main loop; stops when ctx is done.
func (w *MirrorWorker) Start(ctx context.Context) {
	w.logger.Info().Msg("mirror worker started")
	defer w.logger.Info().Msg("mirror worker stopped")

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		if t, ok := w.tryLocalQueue(); ok {
			w.processTask(ctx, &t)
			continue
		}

		if t, ok := w.tryRedis(ctx); ok {
			w.processTask(ctx, &t)
			continue
		}

		tasks, err := w.db.GetPendingMirrorTasks(ctx, w.batchSize)
		if err != nil {
			w.logger.Error().Err(err).Msg("mirror: fetch pending")
			time.Sleep(w.pollInterval)
			continue
		}
		if len(tasks) == 0 {
			time.Sleep(w.pollInterval)
			continue
		}

		for i := range tasks {
			w.processTask(ctx, &tasks[i])
		}
	}
}

func (w *MirrorWorker) tryLocalQueue() (models.MirrorTask, bool) {
	select {
	case t := <-w.queue:
		return t, true
	default:
		return models.MirrorTask{}, false
	}
}

func (w *MirrorWorker) tryRedis(ctx context.Context) (models.MirrorTask, bool) {
	if w.redis == nil {
		return models.MirrorTask{}, false
	}
	res, err := w.redis.BRPop(ctx, time.Second, w.redisQueueKey).Result()
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, redis.Nil) {
			return models.MirrorTask{}, false
		}
		w.logger.Error().Err(err).Msg("mirror: redis BRPOP error")
		return models.MirrorTask{}, false
	}
	if len(res) != 2 {
		return models.MirrorTask{}, false
	}
	var task models.MirrorTask
	if err := json.Unmarshal([]byte(res[1]), &task); err != nil {
		w.logger.Error().Err(err).Msg("mirror: decode redis task")
		return models.MirrorTask{}, false
	}
	return task, true
}

func (w *MirrorWorker) processTask(ctx context.Context, task *models.MirrorTask) {
	var stay events.StayEventPayload
	if err := json.Unmarshal([]byte(task.Payload), &stay); err != nil {
		w.failTask(ctx, task, fmt.Errorf("decode payload: %w", err))
		return
	}

	if task.TaskType != TaskAppendStay {
		w.failTask(ctx, task, fmt.Errorf("unknown task type: %s", task.TaskType))
		return
	}

	if err := w.sheets.AppendStay(ctx, &stay); err != nil {
		w.retryOrFail(ctx, task, err)
		return
	}

	if err := w.db.UpdateMirrorTaskStatus(ctx, task.ID, "completed", "", nil); err != nil {
		w.logger.Error().Err(err).Int64("task_id", task.ID).Msg("mirror: mark completed")
	}
}

func (w *MirrorWorker) retryOrFail(ctx context.Context, task *models.MirrorTask, cause error) {
	attempt := task.RetryCount + 1
	if attempt >= w.retryPolicy.MaxRetries {
		if err := w.db.UpdateMirrorTaskStatus(ctx, task.ID, "failed", cause.Error(), nil); err != nil {
			w.logger.Error().Err(err).Int64("task_id", task.ID).Msg("mirror: mark failed")
		}
		w.pushDeadLetter(ctx, task)
		return
	}

	nextTime := time.Now().Add(w.retryPolicy.NextDelay(attempt))
	if err := w.db.UpdateMirrorTaskStatus(ctx, task.ID, "retry", cause.Error(), &nextTime); err != nil {
		w.logger.Error().Err(err).Int64("task_id", task.ID).Msg("mirror: mark retry")
	}
}

func (w *MirrorWorker) failTask(ctx context.Context, task *models.MirrorTask, cause error) {
	if err := w.db.UpdateMirrorTaskStatus(ctx, task.ID, "failed", cause.Error(), nil); err != nil {
		w.logger.Error().Err(err).Int64("task_id", task.ID).Msg("mirror: mark failed")
	}
	w.pushDeadLetter(ctx, task)
}

func (w *MirrorWorker) pushRedis(ctx context.Context, task models.MirrorTask) error {
	if w.redis == nil {
		return errors.New("redis client is nil")
	}
	data, err := json.Marshal(task)
	if err != nil {
		return err
	}
	return w.redis.LPush(ctx, w.redisQueueKey, data).Err()
}

func (w *MirrorWorker) pushDeadLetter(ctx context.Context, task *models.MirrorTask) {
	if w.redis == nil {
		return
	}
	data, err := json.Marshal(task)
	if err != nil {
		w.logger.Error().Err(err).Int64("task_id", task.ID).Msg("mirror: encode deadletter")
		return
	}
	if err := w.redis.LPush(ctx, w.deadLetterKey, data).Err(); err != nil {
		w.logger.Error().Err(err).Int64("task_id", task.ID).Msg("mirror: deadletter push")
	}
}
