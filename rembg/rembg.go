// Package rembg 调用外部 AI 抠图服务。
//
// 所有后端都实现 Remover：输入编码后的图片字节，输出只保留主体、其余透明的 PNG 字节。
// Adapter 负责超时控制，并把后端的任何失败统一成 ErrAISegmentationFailed。
package rembg

import (
	"context"
	"errors"
	"fmt"
	"time"
)

type Remover interface {
	Remove(ctx context.Context, data []byte) ([]byte, error)
}

var ErrAISegmentationFailed = errors.New("AI background removal failed")

// FailedError AI 抠图失败，只保留可读的原因，不暴露后端的错误值
type FailedError struct {
	Backend string
	Reason  string
}

func (e *FailedError) Error() string {
	if e.Backend == "" {
		return fmt.Sprintf("%v: %s", ErrAISegmentationFailed, e.Reason)
	}
	return fmt.Sprintf("%v (%s): %s", ErrAISegmentationFailed, e.Backend, e.Reason)
}

func (e *FailedError) Is(target error) bool { return target == ErrAISegmentationFailed }

// Adapter 包装一个后端
type Adapter struct {
	name    string
	backend Remover
	timeout time.Duration
}

// NewAdapter timeout <= 0 表示只受调用方 ctx 控制
func NewAdapter(name string, backend Remover, timeout time.Duration) *Adapter {
	return &Adapter{name: name, backend: backend, timeout: timeout}
}

func (a *Adapter) Name() string { return a.name }

type result struct {
	data []byte
	err  error
}

// Remove 只调用一次后端，不重试
// ctx 取消或超时与后端失败同样处理，即使后端不理会 ctx 也会按时返回
func (a *Adapter) Remove(ctx context.Context, data []byte) ([]byte, error) {
	if a.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.timeout)
		defer cancel()
	}

	done := make(chan result, 1)
	go func() {
		out, err := a.backend.Remove(ctx, data)
		done <- result{data: out, err: err}
	}()

	select {
	case <-ctx.Done():
		return nil, a.fail(ctx.Err().Error())
	case r := <-done:
		if r.err != nil {
			return nil, a.fail(r.err.Error())
		}
		if len(r.data) == 0 {
			return nil, a.fail("empty result")
		}
		return r.data, nil
	}
}

func (a *Adapter) fail(reason string) error {
	return &FailedError{Backend: a.name, Reason: reason}
}

// Unavailable 没有配置 AI 后端时使用，总是失败
type Unavailable struct{}

func (Unavailable) Remove(context.Context, []byte) ([]byte, error) {
	return nil, errors.New("no AI backend configured")
}

const (
	BackendComfyUI = "comfyui"
	BackendServer  = "rembg"
	BackendNone    = "none"
)

// NewBackend 按名字创建后端
func NewBackend(name, baseURL string) (Remover, error) {
	switch name {
	case BackendComfyUI:
		if baseURL == "" {
			return nil, errors.New("comfyui backend requires a base url")
		}
		return NewBiRefNetRemBG(baseURL), nil
	case BackendServer:
		if baseURL == "" {
			return nil, errors.New("rembg backend requires a base url")
		}
		return NewServerRemBG(baseURL, nil), nil
	case BackendNone, "":
		return Unavailable{}, nil
	default:
		return nil, fmt.Errorf("unknown AI backend %q", name)
	}
}
