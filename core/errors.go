package core

import "errors"

// DomainError 是领域层的统一错误类型。
//
// 设计原则：
//   - 所有领域层错误都使用此类型
//   - 提供错误代码（Code）和消息（Message）
//   - 网络层必须用可区分的 Code 暴露限流/鉴权错误，上层据此决定提示用户还是重新登录
type DomainError struct {
	Code    string // 错误代码（如 "RATE_LIMITED", "UNAUTHENTICATED"）
	Message string // 错误消息
	Module  string // 模块名称（如 "api", "store", "filter"）
}

func (e *DomainError) Error() string {
	return e.Message
}

// NewDomainError 创建新的领域错误。
func NewDomainError(module, code, message string) *DomainError {
	return &DomainError{
		Module:  module,
		Code:    code,
		Message: message,
	}
}

// GetDomainError 获取 DomainError，支持 wrap 链；如果不是则返回 nil。
func GetDomainError(err error) *DomainError {
	if err == nil {
		return nil
	}
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr
	}
	return nil
}

// 错误代码常量
const (
	ErrorCodeRateLimited      = "RATE_LIMITED"      // 429 二次命中，调用方应提示用户稍后再试
	ErrorCodeUnauthenticated  = "UNAUTHENTICATED"   // 401/403，调用方应失效本地 token 并引导重新登录
	ErrorCodeGraphQL          = "GRAPHQL_ERROR"     // 响应携带 errors 数组
	ErrorCodeInvalidCandidate = "INVALID_CANDIDATE" // 候选缺少 id/标题/内容特征
	ErrorCodeNotFound         = "NOT_FOUND"         // 资源不存在
	ErrorCodeNotSupported     = "NOT_SUPPORTED"     // 操作不支持
	ErrorCodeUnavailable      = "UNAVAILABLE"       // 服务不可用
	ErrorCodeInvalidInput     = "INVALID_INPUT"     // 输入无效
)

// 模块名称常量
const (
	ModuleAPI      = "api"
	ModuleStore    = "store"
	ModuleFilter   = "filter"
	ModuleFeedback = "feedback"
	ModuleEngine   = "engine"
)

// 预定义错误
var (
	// ErrRateLimited 表示限流重试后仍被 429 拒绝。
	ErrRateLimited = NewDomainError(ModuleAPI, ErrorCodeRateLimited, "api: rate limited by server")

	// ErrUnauthenticated 表示 token 失效或权限不足。
	ErrUnauthenticated = NewDomainError(ModuleAPI, ErrorCodeUnauthenticated, "api: authentication required")

	// ErrStoreNotFound 表示 key 不存在。
	ErrStoreNotFound = NewDomainError(ModuleStore, ErrorCodeNotFound, "store: key not found")

	// ErrNoCandidates 表示全部召回源失败或过滤后无有效候选。
	ErrNoCandidates = NewDomainError(ModuleEngine, ErrorCodeUnavailable, "engine: no valid candidates produced")
)

func hasCode(err error, module, code string) bool {
	domainErr := GetDomainError(err)
	return domainErr != nil && domainErr.Module == module && domainErr.Code == code
}

// IsRateLimited 检查错误是否为限流错误。
func IsRateLimited(err error) bool {
	return hasCode(err, ModuleAPI, ErrorCodeRateLimited)
}

// IsUnauthenticated 检查错误是否为鉴权错误。
func IsUnauthenticated(err error) bool {
	return hasCode(err, ModuleAPI, ErrorCodeUnauthenticated)
}

// IsGraphQLError 检查错误是否来自响应的 errors 数组。
func IsGraphQLError(err error) bool {
	return hasCode(err, ModuleAPI, ErrorCodeGraphQL)
}

// IsInvalidCandidate 检查错误是否为候选校验失败。
func IsInvalidCandidate(err error) bool {
	return hasCode(err, ModuleFilter, ErrorCodeInvalidCandidate)
}

// IsStoreNotFound 检查错误是否为 key 不存在。
func IsStoreNotFound(err error) bool {
	return hasCode(err, ModuleStore, ErrorCodeNotFound)
}
