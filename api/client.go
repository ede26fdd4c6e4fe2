package api

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/goccy/go-json"

	"github.com/rushteam/mediarec/core"
)

// Transport 是 GraphQL 传输的抽象：发出一次查询，拿回 data 或类型化错误。
// 生产实现是 HTTPTransport；测试中替换为假传输即可覆盖限流/退避/缓存语义。
type Transport interface {
	Do(ctx context.Context, query string, variables map[string]any) (json.RawMessage, error)
}

// ThrottledError 表示服务端 429 限流响应。
// RetryAfter 为 0 表示响应未携带 Retry-After 头。
// 它只在网络层内部流转：cachedFetch 吸收一次并退避重试，二次命中才以
// core.ErrRateLimited 暴露给调用方。
type ThrottledError struct {
	RetryAfter time.Duration
}

func (e *ThrottledError) Error() string {
	return fmt.Sprintf("api: throttled by server (retry after %s)", e.RetryAfter)
}

// HTTPError 是非 2xx 且非 429/401/403 的一般 HTTP 失败，原样向上传播。
type HTTPError struct {
	Status int
	Body   string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("api: http %d: %s", e.Status, e.Body)
}

// graphQLRequest 是 GraphQL 请求载荷。
type graphQLRequest struct {
	Query     string         `json:"query"`
	Variables map[string]any `json:"variables,omitempty"`
}

// graphQLResponse 是 GraphQL 响应载荷。
type graphQLResponse struct {
	Data   json.RawMessage `json:"data"`
	Errors []graphQLError  `json:"errors,omitempty"`
}

type graphQLError struct {
	Message string `json:"message"`
	Status  int    `json:"status,omitempty"`
}

// HTTPTransport 通过 HTTPS POST {query, variables} 访问单一 GraphQL 端点，
// 用户态字段附带 Bearer token。
//
// 错误分类（调用方依赖这些区分）：
//   - 429            → *ThrottledError（携带 Retry-After）
//   - 401/403        → core.ErrUnauthenticated，调用方应失效缓存 token
//   - 其他非 2xx     → *HTTPError，原样传播，不重试
//   - errors 数组    → GRAPHQL_ERROR，取第一条 message
type HTTPTransport struct {
	Endpoint   string
	Token      string
	HTTPClient *http.Client
}

// NewHTTPTransport 创建默认传输。token 可为空（匿名只读查询）。
func NewHTTPTransport(endpoint, token string) *HTTPTransport {
	return &HTTPTransport{
		Endpoint: endpoint,
		Token:    token,
		HTTPClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

func (t *HTTPTransport) Do(ctx context.Context, query string, variables map[string]any) (json.RawMessage, error) {
	reqBody, err := json.Marshal(graphQLRequest{
		Query:     query,
		Variables: variables,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.Endpoint, bytes.NewReader(reqBody))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if t.Token != "" {
		req.Header.Set("Authorization", "Bearer "+t.Token)
	}

	resp, err := t.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		return nil, &ThrottledError{RetryAfter: parseRetryAfter(resp.Header.Get("Retry-After"))}
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return nil, core.ErrUnauthenticated
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		return nil, &HTTPError{Status: resp.StatusCode, Body: truncate(string(body), 256)}
	}

	var gqlResp graphQLResponse
	if err := json.Unmarshal(body, &gqlResp); err != nil {
		return nil, fmt.Errorf("unmarshal response: %w", err)
	}
	if len(gqlResp.Errors) > 0 {
		return nil, core.NewDomainError(core.ModuleAPI, core.ErrorCodeGraphQL, gqlResp.Errors[0].Message)
	}
	return gqlResp.Data, nil
}

func parseRetryAfter(h string) time.Duration {
	if h == "" {
		return 0
	}
	if secs, err := strconv.Atoi(h); err == nil && secs > 0 {
		return time.Duration(secs) * time.Second
	}
	return 0
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
