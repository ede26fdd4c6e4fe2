package api

import (
	"context"
	"sync"
	"time"
)

// Limiter 对单一上游端点做固定窗口限流 + 429 退避。
//
// 两层约束，调用方只需 Wait：
//  1. 窗口预算：每个窗口最多 MaxRequests 次；预算耗尽后，后续调用
//     挂起到窗口重置点（单一 windowReset 时刻，不是令牌桶——
//     令牌桶在任意滚动窗口内最多放行 burst + rate·window ≈ 两倍预算）
//  2. 共享退避：任一调用收到 429 后，所有调用都要等到同一 deadline——
//     单个"resume at T"值即可，不给每个等待者起独立计时器
//
// Wait 挂起而不是自旋：两种等待都以 timer 睡到目标时刻，睡醒重查，
// 均响应 ctx 取消。时钟与睡眠可注入，测试用假时钟即可度量挂起时长。
type Limiter struct {
	mu           sync.Mutex
	requestCount int
	windowReset  time.Time
	backoffUntil time.Time
	backoffs     int // 曾进入退避的总次数（观测用）

	max        int
	window     time.Duration
	multiplier float64

	now   func() time.Time
	sleep func(ctx context.Context, d time.Duration) error
}

// NewLimiter 创建限流器：maxRequests 次 / window 的固定窗口预算。
func NewLimiter(maxRequests int, window time.Duration, backoffMultiplier float64) *Limiter {
	if maxRequests <= 0 {
		maxRequests = 85
	}
	if window <= 0 {
		window = time.Minute
	}
	if backoffMultiplier <= 0 {
		backoffMultiplier = 1.0
	}
	return &Limiter{
		max:        maxRequests,
		window:     window,
		multiplier: backoffMultiplier,
		now:        time.Now,
		sleep:      sleepCtx,
	}
}

// Wait 阻塞到拿到一个请求槽位。顺序固定：先清退避，再占窗口配额。
func (l *Limiter) Wait(ctx context.Context) error {
	for {
		l.mu.Lock()
		now := l.now()

		if d := l.backoffUntil.Sub(now); d > 0 {
			l.mu.Unlock()
			if err := l.sleep(ctx, d); err != nil {
				return err
			}
			// 睡醒后重查：期间可能又有 429 推后了 deadline
			continue
		}

		if l.windowReset.IsZero() || !now.Before(l.windowReset) {
			l.requestCount = 0
			l.windowReset = now.Add(l.window)
		}
		if l.requestCount < l.max {
			l.requestCount++
			l.mu.Unlock()
			return nil
		}

		// 配额耗尽：睡到窗口重置点再重查
		d := l.windowReset.Sub(now)
		l.mu.Unlock()
		if err := l.sleep(ctx, d); err != nil {
			return err
		}
	}
}

// Handle429 记录一次服务端限流：设置全局退避 deadline。
// retryAfter 为 0 时退避 window × multiplier。deadline 只向后推，不提前。
func (l *Limiter) Handle429(retryAfter time.Duration) {
	if retryAfter <= 0 {
		retryAfter = time.Duration(float64(l.window) * l.multiplier)
	}
	deadline := l.now().Add(retryAfter)

	l.mu.Lock()
	defer l.mu.Unlock()
	if deadline.After(l.backoffUntil) {
		l.backoffUntil = deadline
		l.backoffs++
	}
}

// Backoffs 返回至今进入退避的次数。
func (l *Limiter) Backoffs() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.backoffs
}

// InBackoff 判断当前是否处于退避窗口内。
func (l *Limiter) InBackoff() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.backoffUntil.After(l.now())
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
