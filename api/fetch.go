package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"golang.org/x/sync/singleflight"
	"golang.org/x/time/rate"

	"github.com/rushteam/mediarec/core"
)

// Fetcher 是网络访问的统一入口：限流 + 退避 + 请求去重 + TTL 缓存。
//
// 它是整条链路唯一的同步点：所有召回源的抓取都经由同一个 Fetcher，
// 并发的相同请求按 (namespace, key) 合并成一次网络调用。
// 进程内构造一次、引用传递给所有 fetcher，测试中替换假传输/假时钟即可。
type Fetcher struct {
	Limiter *Limiter
	Cache   *Cache
	Logger  *slog.Logger

	group singleflight.Group

	// 退避日志限频：一次退避窗口里几十路并发都撞 429，只报一次就够了
	throttleLog rate.Sometimes
}

// NewFetcher 创建 Fetcher；logger 为 nil 时使用 slog 默认值。
func NewFetcher(limiter *Limiter, cache *Cache, logger *slog.Logger) *Fetcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Fetcher{
		Limiter:     limiter,
		Cache:       cache,
		Logger:      logger,
		throttleLog: rate.Sometimes{First: 1, Interval: 30 * time.Second},
	}
}

// FetchOptions 控制单次 CachedFetch 的缓存行为。
type FetchOptions struct {
	BypassCache bool
	TTL         time.Duration // 0 表示用缓存默认 TTL
}

// CachedFetch 返回缓存值或发起一次去重后的网络调用。
//
// 语义（按顺序）：
//  1. 缓存命中（未过期、签名有效）直接返回
//  2. 并发相同 (namespace, key) 合并为一次调用
//  3. 调用前等待限流槽位
//  4. 429 被完全吸收：记一次退避窗口、等待、自动重试一次；
//     连续第二个 429 以 core.ErrRateLimited 暴露，调用方据此提示用户而不是空转
//  5. 其他错误原样传播，成功结果写入缓存
func CachedFetch[T any](
	ctx context.Context,
	f *Fetcher,
	namespace, key string,
	fn func(ctx context.Context) (T, error),
	opts FetchOptions,
) (T, error) {
	var zero T

	if !opts.BypassCache {
		if cached, ok := f.Cache.GetTTL(namespace, key, opts.TTL); ok {
			if v, ok := cached.(T); ok {
				return v, nil
			}
		}
	}

	v, err, _ := f.group.Do(namespace+":"+key, func() (any, error) {
		result, err := fetchOnce(ctx, f, fn)
		if err != nil {
			return nil, err
		}
		f.Cache.Put(namespace, key, result)
		return result, nil
	})
	if err != nil {
		return zero, err
	}
	out, ok := v.(T)
	if !ok {
		return zero, fmt.Errorf("api: cached value for %s:%s has unexpected type %T", namespace, key, v)
	}
	return out, nil
}

// fetchOnce 执行限流等待 + 一次 429 吸收重试。
func fetchOnce[T any](ctx context.Context, f *Fetcher, fn func(ctx context.Context) (T, error)) (T, error) {
	var zero T

	if err := f.Limiter.Wait(ctx); err != nil {
		return zero, err
	}
	result, err := fn(ctx)
	if err == nil {
		return result, nil
	}

	var throttled *ThrottledError
	if !errors.As(err, &throttled) {
		return zero, err
	}

	// 吸收首个 429：退避、等待、重试一次
	f.Limiter.Handle429(throttled.RetryAfter)
	f.throttleLog.Do(func() {
		f.Logger.Warn("server throttled, backing off", "retry_after", throttled.RetryAfter)
	})

	if err := f.Limiter.Wait(ctx); err != nil {
		return zero, err
	}
	result, err = fn(ctx)
	if err == nil {
		return result, nil
	}
	if errors.As(err, &throttled) {
		f.Limiter.Handle429(throttled.RetryAfter)
		return zero, fmt.Errorf("retry after throttle: %w", core.ErrRateLimited)
	}
	return zero, err
}

// BatchFetch 对 id 列表做缓存分流 + 分批抓取。
//
// 已缓存的 id 直接取缓存；未缓存的按 batchSize 分批，每批一次网络调用，
// 结果逐 id 回填缓存。fn 返回 map[id]T，缺失的 id 视为上游无数据，跳过。
func BatchFetch[T any](
	ctx context.Context,
	f *Fetcher,
	namespace string,
	ids []int64,
	batchSize int,
	fn func(ctx context.Context, batch []int64) (map[int64]T, error),
) (map[int64]T, error) {
	if batchSize <= 0 {
		batchSize = 10
	}
	out := make(map[int64]T, len(ids))
	var missing []int64

	for _, id := range ids {
		key := strconv.FormatInt(id, 10)
		if cached, ok := f.Cache.Get(namespace, key); ok {
			if v, ok := cached.(T); ok {
				out[id] = v
				continue
			}
		}
		missing = append(missing, id)
	}

	for start := 0; start < len(missing); start += batchSize {
		end := min(start+batchSize, len(missing))
		batch := missing[start:end]

		batchKey := batchCacheKey(batch)
		fetched, err := CachedFetch(ctx, f, namespace+":batch", batchKey,
			func(ctx context.Context) (map[int64]T, error) {
				return fn(ctx, batch)
			}, FetchOptions{BypassCache: true})
		if err != nil {
			return nil, err
		}
		for id, v := range fetched {
			out[id] = v
			f.Cache.Put(namespace, strconv.FormatInt(id, 10), v)
		}
	}
	return out, nil
}

func batchCacheKey(ids []int64) string {
	key := ""
	for i, id := range ids {
		if i > 0 {
			key += ","
		}
		key += strconv.FormatInt(id, 10)
	}
	return key
}
