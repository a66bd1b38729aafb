package worker

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/MeKo-Tech/terrasynth/internal/types"
)

// mockGenerator simulates terrain generation for testing
type mockGenerator struct {
	delay     time.Duration
	failSeeds map[int64]bool // seeds that should fail
	callCount atomic.Int32
}

func (m *mockGenerator) Generate(ctx context.Context, req types.Request) (string, error) {
	m.callCount.Add(1)

	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case <-time.After(m.delay):
	}

	seed := int64(-1)
	if req.Seed != nil {
		seed = *req.Seed
	}
	if m.failSeeds != nil && m.failSeeds[seed] {
		return "", errors.New("simulated failure")
	}

	return fmt.Sprintf("/tmp/terrain_seed%d.json", seed), nil
}

func seedTask(seed int64) Task {
	s := seed
	return Task{Request: types.Request{
		Coordinates: &types.Coordinates{},
		Seed:        &s,
		Size:        4,
	}}
}

func TestPool_BasicExecution(t *testing.T) {
	gen := &mockGenerator{delay: 10 * time.Millisecond}

	pool := New(Config{
		Workers:   2,
		Generator: gen,
	})

	tasks := []Task{seedTask(1), seedTask(2), seedTask(3)}

	results := pool.Run(context.Background(), tasks)

	if len(results) != len(tasks) {
		t.Errorf("Expected %d results, got %d", len(tasks), len(results))
	}

	for _, r := range results {
		if r.Err != nil {
			t.Errorf("Unexpected error for %s: %v", r.Task.Label(), r.Err)
		}
		if r.Path == "" {
			t.Errorf("Expected path for %s, got empty", r.Task.Label())
		}
	}

	if gen.callCount.Load() != int32(len(tasks)) {
		t.Errorf("Expected %d generator calls, got %d", len(tasks), gen.callCount.Load())
	}
}

func TestPool_Parallelism(t *testing.T) {
	// Use a longer delay to ensure parallelism is tested
	gen := &mockGenerator{delay: 50 * time.Millisecond}

	pool := New(Config{
		Workers:   4,
		Generator: gen,
	})

	tasks := make([]Task, 8)
	for i := range tasks {
		tasks[i] = seedTask(int64(i))
	}

	start := time.Now()
	results := pool.Run(context.Background(), tasks)
	elapsed := time.Since(start)

	// With 4 workers and 8 tasks at 50ms each, should take ~100ms (2 batches)
	// Allow some margin for overhead
	maxExpected := 200 * time.Millisecond
	if elapsed > maxExpected {
		t.Errorf("Expected parallel execution in ~100ms, took %v", elapsed)
	}

	if len(results) != len(tasks) {
		t.Errorf("Expected %d results, got %d", len(tasks), len(results))
	}

	t.Logf("Processed %d tasks with %d workers in %v", len(tasks), 4, elapsed)
}

func TestPool_Failures(t *testing.T) {
	gen := &mockGenerator{
		delay:     time.Millisecond,
		failSeeds: map[int64]bool{2: true},
	}

	pool := New(Config{
		Workers:   2,
		Generator: gen,
	})

	results := pool.Run(context.Background(), []Task{seedTask(1), seedTask(2), seedTask(3)})

	var failed int
	for _, r := range results {
		if r.Err != nil {
			failed++
		}
	}
	if failed != 1 {
		t.Errorf("Expected 1 failure, got %d", failed)
	}
}

func TestPool_Progress(t *testing.T) {
	gen := &mockGenerator{delay: time.Millisecond}

	var lastCompleted, lastTotal atomic.Int32
	pool := New(Config{
		Workers:   2,
		Generator: gen,
		OnProgress: func(completed, total, failed int) {
			lastCompleted.Store(int32(completed))
			lastTotal.Store(int32(total))
		},
	})

	pool.Run(context.Background(), []Task{seedTask(1), seedTask(2), seedTask(3), seedTask(4)})

	if lastCompleted.Load() != 4 || lastTotal.Load() != 4 {
		t.Errorf("Expected final progress 4/4, got %d/%d", lastCompleted.Load(), lastTotal.Load())
	}
}

func TestPool_Cancellation(t *testing.T) {
	gen := &mockGenerator{delay: 30 * time.Millisecond}

	pool := New(Config{
		Workers:   1,
		Generator: gen,
	})

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(15 * time.Millisecond)
		cancel()
	}()

	tasks := make([]Task, 6)
	for i := range tasks {
		tasks[i] = seedTask(int64(i))
	}

	results := pool.Run(ctx, tasks)

	var cancelled int
	for _, r := range results {
		if errors.Is(r.Err, context.Canceled) {
			cancelled++
		}
	}
	if cancelled == 0 {
		t.Error("Expected at least one cancelled task")
	}
}

func TestPool_EmptyTasks(t *testing.T) {
	pool := New(Config{Workers: 2, Generator: &mockGenerator{}})
	if results := pool.Run(context.Background(), nil); results != nil {
		t.Errorf("Expected nil results for empty task list, got %v", results)
	}
}

func TestTaskLabel(t *testing.T) {
	task := seedTask(42)
	if got := task.Label(); got != "seed42_x0_y0_z0" {
		t.Errorf("Label() = %s, want seed42_x0_y0_z0", got)
	}

	if got := (Task{}).Label(); got != "seed-1_x0_y0_z0" {
		t.Errorf("Label() = %s, want seed-1_x0_y0_z0", got)
	}
}
