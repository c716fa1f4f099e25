package worker

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func setupTestWorker(t *testing.T, cfg Config) (*Worker, *miniredis.Miniredis) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return New(client, cfg), mr
}

func waitFor(t *testing.T, timeout time.Duration, condition func() bool) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if condition() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("condition not met before timeout")
}

func TestWorker_ProcessesEnqueuedJob(t *testing.T) {
	w, _ := setupTestWorker(t, Config{
		Concurrency:  1,
		PollInterval: 100 * time.Millisecond,
		Queues:       []string{QueueDefault},
	})

	var processed atomic.Int64
	w.Register(JobTypeTaskReminder, func(ctx context.Context, job *Job) error {
		if job.Payload["task_id"] != "abc" {
			t.Errorf("unexpected payload: %v", job.Payload)
		}
		processed.Add(1)
		return nil
	})

	job := NewJob(JobTypeTaskReminder, map[string]interface{}{"task_id": "abc"})
	if err := w.Enqueue(context.Background(), QueueDefault, job); err != nil {
		t.Fatalf("Enqueue failed: %v", err)
	}

	w.Start(context.Background())
	defer w.Stop()

	waitFor(t, 2*time.Second, func() bool { return processed.Load() == 1 })
}

func TestWorker_RetriesUntilMaxTries(t *testing.T) {
	w, _ := setupTestWorker(t, Config{
		Concurrency:  1,
		PollInterval: 100 * time.Millisecond,
		Queues:       []string{QueueDefault},
	})

	var attempts atomic.Int64
	w.Register(JobTypeCleanup, func(ctx context.Context, job *Job) error {
		attempts.Add(1)
		return errors.New("still broken")
	})

	job := NewJob(JobTypeCleanup, nil)
	job.MaxTries = 3
	if err := w.Enqueue(context.Background(), QueueDefault, job); err != nil {
		t.Fatalf("Enqueue failed: %v", err)
	}

	w.Start(context.Background())
	defer w.Stop()

	waitFor(t, 3*time.Second, func() bool { return attempts.Load() == 3 })

	// Give it a moment to confirm no fourth attempt happens.
	time.Sleep(300 * time.Millisecond)
	if got := attempts.Load(); got != 3 {
		t.Errorf("Expected exactly 3 attempts, got %d", got)
	}
}

func TestWorker_DropsJobWithoutHandler(t *testing.T) {
	w, mr := setupTestWorker(t, Config{
		Concurrency:  1,
		PollInterval: 100 * time.Millisecond,
		Queues:       []string{QueueNotifications},
	})

	job := NewJob(JobTypeMemberAdded, map[string]interface{}{"user_id": "u1"})
	if err := w.Enqueue(context.Background(), QueueNotifications, job); err != nil {
		t.Fatalf("Enqueue failed: %v", err)
	}

	w.Start(context.Background())
	defer w.Stop()

	waitFor(t, 2*time.Second, func() bool {
		return len(mr.Keys()) == 0
	})
}

func TestWorker_StopIsIdempotentWithoutStart(t *testing.T) {
	w, _ := setupTestWorker(t, Config{})
	w.Stop()
}

func TestNewJob_Defaults(t *testing.T) {
	job := NewJob(JobTypeTaskReminder, map[string]interface{}{"k": "v"})

	if job.ID == "" {
		t.Error("Expected job to have an id")
	}
	if job.MaxTries != 3 {
		t.Errorf("Expected default MaxTries of 3, got %d", job.MaxTries)
	}
	if job.Attempts != 0 {
		t.Errorf("Expected zero attempts before processing, got %d", job.Attempts)
	}
}
