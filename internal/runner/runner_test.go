package runner

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func intID(n int) string { return strconv.Itoa(n) }

func fastOpts() Options {
	return Options{Workers: 4, MaxRetries: 3, RetryDelay: time.Millisecond, Name: "test"}
}

func TestRun_AllSucceed(t *testing.T) {
	tasks := []int{1, 2, 3, 4, 5}
	res := Run(context.Background(), tasks, intID, func(ctx context.Context, n int) (int, error) {
		return n * 10, nil
	}, fastOpts())

	if len(res.Failed) != 0 {
		t.Fatalf("expected no failures, got %v", res.Failed)
	}
	if len(res.Values) != 5 {
		t.Fatalf("expected 5 values, got %d", len(res.Values))
	}
	if res.Values["3"] != 30 {
		t.Errorf("expected value 30 for task 3, got %d", res.Values["3"])
	}
}

func TestRun_RetriesUntilSuccess(t *testing.T) {
	var attempts atomic.Int32
	res := Run(context.Background(), []int{1}, intID, func(ctx context.Context, n int) (string, error) {
		if attempts.Add(1) < 3 {
			return "", errors.New("transient")
		}
		return "ok", nil
	}, fastOpts())

	if len(res.Failed) != 0 {
		t.Fatalf("expected success after retries, got %v", res.Failed)
	}
	if got := attempts.Load(); got != 3 {
		t.Errorf("expected 3 attempts, got %d", got)
	}
	if res.Values["1"] != "ok" {
		t.Errorf("expected value ok, got %q", res.Values["1"])
	}
}

func TestRun_ExhaustedAttemptsKeepLastError(t *testing.T) {
	var attempts atomic.Int32
	res := Run(context.Background(), []int{1}, intID, func(ctx context.Context, n int) (string, error) {
		return "", fmt.Errorf("attempt %d failed", attempts.Add(1))
	}, fastOpts())

	if got := attempts.Load(); got != 3 {
		t.Errorf("expected 3 attempts, got %d", got)
	}
	err, ok := res.Failed["1"]
	if !ok {
		t.Fatal("expected task in Failed")
	}
	if err.Error() != "attempt 3 failed" {
		t.Errorf("expected last error kept, got %v", err)
	}
	if _, ok := res.Values["1"]; ok {
		t.Error("failed task must not appear in Values")
	}
}

func TestRun_EveryTaskInExactlyOneMap(t *testing.T) {
	tasks := []int{1, 2, 3, 4, 5, 6}
	res := Run(context.Background(), tasks, intID, func(ctx context.Context, n int) (int, error) {
		if n%2 == 0 {
			return 0, errors.New("even tasks fail")
		}
		return n, nil
	}, fastOpts())

	if len(res.Values)+len(res.Failed) != len(tasks) {
		t.Fatalf("expected %d outcomes, got %d values + %d failed",
			len(tasks), len(res.Values), len(res.Failed))
	}
	for _, n := range tasks {
		id := intID(n)
		_, inValues := res.Values[id]
		_, inFailed := res.Failed[id]
		if inValues == inFailed {
			t.Errorf("task %s: inValues=%v inFailed=%v, want exactly one", id, inValues, inFailed)
		}
	}
}

func TestRun_BoundsConcurrency(t *testing.T) {
	var mu sync.Mutex
	active, peak := 0, 0

	tasks := make([]int, 20)
	for i := range tasks {
		tasks[i] = i
	}

	opts := fastOpts()
	opts.Workers = 3
	Run(context.Background(), tasks, intID, func(ctx context.Context, n int) (int, error) {
		mu.Lock()
		active++
		if active > peak {
			peak = active
		}
		mu.Unlock()

		time.Sleep(5 * time.Millisecond)

		mu.Lock()
		active--
		mu.Unlock()
		return n, nil
	}, opts)

	if peak > 3 {
		t.Errorf("expected at most 3 concurrent tasks, saw %d", peak)
	}
}

func TestRun_ContextCancelledDuringRetryWait(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	opts := fastOpts()
	opts.RetryDelay = time.Minute

	var calls atomic.Int32
	done := make(chan Result[int])
	go func() {
		done <- Run(ctx, []int{1}, intID, func(ctx context.Context, n int) (int, error) {
			calls.Add(1)
			return 0, errors.New("fail")
		}, opts)
	}()

	// Let the first attempt fail, then cancel while it waits to retry.
	time.Sleep(20 * time.Millisecond)
	cancel()

	select {
	case res := <-done:
		err := res.Failed["1"]
		if err == nil {
			t.Fatal("expected failure for cancelled task")
		}
		if !errors.Is(err, context.Canceled) {
			t.Errorf("expected context.Canceled, got %v", err)
		}
		if calls.Load() != 1 {
			t.Errorf("expected 1 attempt before cancel, got %d", calls.Load())
		}
	case <-time.After(5 * time.Second):
		t.Fatal("run did not return after cancel")
	}
}

func TestRun_NoTasks(t *testing.T) {
	res := Run(context.Background(), nil, intID, func(ctx context.Context, n int) (int, error) {
		t.Fatal("fn must not be called")
		return 0, nil
	}, fastOpts())
	if len(res.Values) != 0 || len(res.Failed) != 0 {
		t.Errorf("expected empty result, got %+v", res)
	}
}
