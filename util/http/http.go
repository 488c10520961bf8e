// Package http 对外部 HTTP 服务（AI 抠图后端等）的简单封装。
package http

import (
	"context"
	"time"
)

type IClient interface {
	DoHTTPRequest(ctx context.Context, requestParam *RequestParam) error
}

// RequestParam 一次请求的参数
//
// Body 支持 nil、io.Reader、[]byte，其它类型按 JSON 序列化。
// Response 为 *[]byte 时保存原始响应体，否则按 JSON 反序列化；为 nil 时丢弃响应体。
type RequestParam struct {
	RequestURI string
	Method     string
	Header     map[string]string
	Query      map[string]string
	Body       interface{}
	Response   interface{}

	Timeout time.Duration
}
