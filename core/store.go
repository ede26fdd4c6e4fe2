package core

import "context"

// Store 是持久化 KV 的领域接口。
//
// 设计原则：
//   - 定义在领域层（core），由基础设施层（store）实现
//   - 遵循依赖倒置原则：领域层定义接口，基础设施层实现接口
//
// 使用场景：
//   - 反馈/交互记录（feedback 包）
//   - 用户偏好设置
//
// 实现：
//   - store.MemoryStore（测试/开发）
//   - store.BadgerStore（桌面端本地持久化）
//   - store.RedisStore（外部 KV 后端）
type Store interface {
	// Name 返回存储后端名称（用于日志）
	Name() string

	// Get 读取单个 key 的值；key 不存在时返回 ErrStoreNotFound
	Get(ctx context.Context, key string) ([]byte, error)

	// Set 写入单个 key-value；ttl 为可选的秒级过期时间
	Set(ctx context.Context, key string, value []byte, ttl ...int) error

	// Delete 删除单个 key
	Delete(ctx context.Context, key string) error

	// Scan 返回指定前缀下的所有 key-value（旧版按作品分 key 的反馈布局靠它兜底读取）
	Scan(ctx context.Context, prefix string) (map[string][]byte, error)

	// Close 关闭连接/释放资源
	Close() error
}
