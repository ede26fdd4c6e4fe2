package api

import (
	"context"
	"testing"
	"time"
)

func TestLimiterWindowBudget(t *testing.T) {
	l := NewLimiter(2, time.Minute, 1.0)

	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	now := start
	var slept time.Duration
	l.now = func() time.Time { return now }
	l.sleep = func(_ context.Context, d time.Duration) error {
		slept += d
		now = now.Add(d)
		return nil
	}
	ctx := context.Background()

	// budget 内的调用立即放行
	for i := 0; i < 2; i++ {
		if err := l.Wait(ctx); err != nil {
			t.Fatalf("Wait %d: %v", i, err)
		}
	}
	if slept != 0 {
		t.Fatalf("first 2 waits slept %v, should be immediate", slept)
	}

	// 第 N+1 次：挂起到窗口重置点，而不是等出一个令牌的间隔
	now = now.Add(10 * time.Second)
	if err := l.Wait(ctx); err != nil {
		t.Fatalf("Wait over budget: %v", err)
	}
	if want := 50 * time.Second; slept != want {
		t.Errorf("over-budget wait slept %v, want %v (until the window resets)", slept, want)
	}
	if !now.Equal(start.Add(time.Minute)) {
		t.Errorf("clock at %v, want window boundary %v", now, start.Add(time.Minute))
	}

	// 重置后的窗口有全新配额：上一条等到重置点的调用只占了一格
	if err := l.Wait(ctx); err != nil {
		t.Fatalf("Wait in fresh window: %v", err)
	}
	if slept != 50*time.Second {
		t.Errorf("fresh-window wait slept, total %v", slept)
	}
}

func TestLimiterRollingBudgetNeverExceeded(t *testing.T) {
	l := NewLimiter(3, time.Minute, 1.0)

	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	now := start
	l.now = func() time.Time { return now }
	l.sleep = func(_ context.Context, d time.Duration) error {
		now = now.Add(d)
		return nil
	}
	ctx := context.Background()

	// 连续请求 10 次，记录每次放行时刻；任意 60s 滚动区间内
	// 放行数不得超过预算——令牌桶的"burst+补充"模式会在这里翻车
	var admitted []time.Time
	for i := 0; i < 10; i++ {
		if err := l.Wait(ctx); err != nil {
			t.Fatalf("Wait %d: %v", i, err)
		}
		admitted = append(admitted, now)
	}
	for i := range admitted {
		count := 0
		for j := i; j < len(admitted); j++ {
			if admitted[j].Sub(admitted[i]) < time.Minute {
				count++
			}
		}
		if count > 3 {
			t.Fatalf("%d requests admitted within one rolling window starting at %v, budget is 3",
				count, admitted[i])
		}
	}
}

func TestLimiterBackoffSharedDeadline(t *testing.T) {
	l := NewLimiter(10, time.Minute, 1.0)

	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	var slept time.Duration
	l.now = func() time.Time { return now }
	l.sleep = func(_ context.Context, d time.Duration) error {
		slept += d
		now = now.Add(d)
		return nil
	}

	l.Handle429(10 * time.Second)
	if !l.InBackoff() {
		t.Fatal("expected backoff after 429")
	}
	if l.Backoffs() != 1 {
		t.Fatalf("Backoffs = %d, want 1", l.Backoffs())
	}

	// a shorter retry-after must not pull the shared deadline forward
	l.Handle429(1 * time.Second)
	if l.Backoffs() != 1 {
		t.Errorf("earlier deadline should not register a new backoff, got %d", l.Backoffs())
	}

	if err := l.Wait(context.Background()); err != nil {
		t.Fatalf("Wait: %v", err)
	}
	if slept != 10*time.Second {
		t.Errorf("slept %v, want the full 10s backoff", slept)
	}
	if l.InBackoff() {
		t.Error("backoff should be cleared after waiting it out")
	}
}

func TestLimiterDefaultBackoffUsesWindow(t *testing.T) {
	l := NewLimiter(5, 2*time.Second, 1.5)

	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	l.now = func() time.Time { return now }

	// no Retry-After header: back off window × multiplier
	l.Handle429(0)
	l.mu.Lock()
	deadline := l.backoffUntil
	l.mu.Unlock()
	if want := now.Add(3 * time.Second); !deadline.Equal(want) {
		t.Errorf("deadline = %v, want %v", deadline, want)
	}
}

func TestLimiterWaitCancellation(t *testing.T) {
	l := NewLimiter(10, time.Minute, 1.0)
	l.Handle429(time.Hour)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := l.Wait(ctx); err == nil {
		t.Error("Wait should honor context cancellation during backoff")
	}
}
