package async

import (
	"context"
	"sync"
	"testing"
	"time"
)

func TestQueueProcessesAllJobs(t *testing.T) {
	var mu sync.Mutex
	seen := map[string]int{}

	q := NewQueue(func(ctx context.Context, job Job) error {
		mu.Lock()
		seen[job.Path]++
		mu.Unlock()
		return nil
	}, nil, WithWorkers(2), WithQueueSize(8))

	paths := []string{"a.png", "b.png", "c.png", "d.png"}
	for _, p := range paths {
		if err := q.Enqueue(context.Background(), Job{SubjectRef: "dmytro", Path: p}); err != nil {
			t.Fatalf("enqueue %s: %v", p, err)
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	q.Shutdown(ctx)

	mu.Lock()
	defer mu.Unlock()
	for _, p := range paths {
		if seen[p] != 1 {
			t.Errorf("job %s processed %d times", p, seen[p])
		}
	}
}

func TestQueueShutdownDrains(t *testing.T) {
	var mu sync.Mutex
	processed := 0

	q := NewQueue(func(ctx context.Context, job Job) error {
		time.Sleep(10 * time.Millisecond)
		mu.Lock()
		processed++
		mu.Unlock()
		return nil
	}, nil, WithWorkers(1), WithQueueSize(16))

	for i := 0; i < 5; i++ {
		if err := q.Enqueue(context.Background(), Job{SubjectRef: "dmytro", Path: "x.png"}); err != nil {
			t.Fatalf("enqueue: %v", err)
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	q.Shutdown(ctx)

	mu.Lock()
	defer mu.Unlock()
	if processed != 5 {
		t.Errorf("processed = %d, want all 5 drained before shutdown returns", processed)
	}
}

func TestQueueEnqueueAfterShutdownIsNoop(t *testing.T) {
	q := NewQueue(func(ctx context.Context, job Job) error { return nil }, nil, WithWorkers(1))

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	q.Shutdown(ctx)

	if err := q.Enqueue(context.Background(), Job{Path: "late.png"}); err != nil {
		t.Fatalf("enqueue after shutdown: %v", err)
	}
}
