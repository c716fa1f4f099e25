package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/gofrs/uuid"
	"github.com/redis/go-redis/v9"
)

type JobType string

const (
	JobTypeTaskReminder JobType = "task_reminder"
	JobTypeMemberAdded  JobType = "member_added"
	JobTypeCleanup      JobType = "cleanup"
)

const (
	QueueDefault       = "default"
	QueueNotifications = "notifications"
)

type Job struct {
	ID        string                 `json:"id"`
	Type      JobType                `json:"type"`
	Payload   map[string]interface{} `json:"payload"`
	Attempts  int                    `json:"attempts"`
	MaxTries  int                    `json:"max_tries"`
	CreatedAt time.Time              `json:"created_at"`
}

type JobHandler func(ctx context.Context, job *Job) error

// Worker drains redis-backed job queues. Jobs are advisory: losing one
// on a redis outage never affects request correctness.
type Worker struct {
	client       *redis.Client
	concurrency  int
	pollInterval time.Duration
	queues       []string

	mu       sync.RWMutex
	handlers map[JobType]JobHandler

	wg     sync.WaitGroup
	cancel context.CancelFunc
}

type Config struct {
	Concurrency  int
	PollInterval time.Duration
	Queues       []string
}

func New(client *redis.Client, cfg Config) *Worker {
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 4
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = 5 * time.Second
	}
	if len(cfg.Queues) == 0 {
		cfg.Queues = []string{QueueDefault}
	}

	return &Worker{
		client:       client,
		concurrency:  cfg.Concurrency,
		pollInterval: cfg.PollInterval,
		queues:       cfg.Queues,
		handlers:     make(map[JobType]JobHandler),
	}
}

func (w *Worker) Register(jobType JobType, handler JobHandler) {
	w.mu.Lock()
	w.handlers[jobType] = handler
	w.mu.Unlock()
}

func NewJob(jobType JobType, payload map[string]interface{}) *Job {
	return &Job{
		ID:        uuid.Must(uuid.NewV4()).String(),
		Type:      jobType,
		Payload:   payload,
		MaxTries:  3,
		CreatedAt: time.Now(),
	}
}

func (w *Worker) Enqueue(ctx context.Context, queue string, job *Job) error {
	data, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("failed to marshal job: %w", err)
	}
	if err := w.client.LPush(ctx, queueKey(queue), data).Err(); err != nil {
		return fmt.Errorf("failed to enqueue job: %w", err)
	}
	return nil
}

func (w *Worker) Start(ctx context.Context) {
	ctx, w.cancel = context.WithCancel(ctx)

	for i := 0; i < w.concurrency; i++ {
		w.wg.Add(1)
		go w.run(ctx)
	}
}

func (w *Worker) Stop() {
	if w.cancel != nil {
		w.cancel()
	}
	w.wg.Wait()
}

func (w *Worker) run(ctx context.Context) {
	defer w.wg.Done()

	keys := make([]string, len(w.queues))
	for i, q := range w.queues {
		keys[i] = queueKey(q)
	}

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		result, err := w.client.BRPop(ctx, w.pollInterval, keys...).Result()
		if err != nil {
			if err == redis.Nil || ctx.Err() != nil {
				continue
			}
			log.Printf("worker: poll failed: %v", err)
			select {
			case <-ctx.Done():
				return
			case <-time.After(w.pollInterval):
			}
			continue
		}

		// BRPop returns [key, value].
		if len(result) < 2 {
			continue
		}
		w.process(ctx, result[0], []byte(result[1]))
	}
}

func (w *Worker) process(ctx context.Context, queue string, data []byte) {
	var job Job
	if err := json.Unmarshal(data, &job); err != nil {
		log.Printf("worker: dropping malformed job: %v", err)
		return
	}

	w.mu.RLock()
	handler, ok := w.handlers[job.Type]
	w.mu.RUnlock()
	if !ok {
		log.Printf("worker: no handler for job type %s, dropping job %s", job.Type, job.ID)
		return
	}

	job.Attempts++
	if err := handler(ctx, &job); err != nil {
		log.Printf("worker: job %s (%s) failed on attempt %d: %v", job.ID, job.Type, job.Attempts, err)
		if job.Attempts < job.MaxTries {
			if data, marshalErr := json.Marshal(&job); marshalErr == nil {
				if pushErr := w.client.LPush(ctx, queue, data).Err(); pushErr != nil {
					log.Printf("worker: failed to requeue job %s: %v", job.ID, pushErr)
				}
			}
		} else {
			log.Printf("worker: job %s (%s) exhausted %d attempts, dropping", job.ID, job.Type, job.MaxTries)
		}
		return
	}
}

func queueKey(queue string) string {
	return "jobs:" + queue
}
