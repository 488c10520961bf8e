package rembg

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type removerFunc func(ctx context.Context, data []byte) ([]byte, error)

func (f removerFunc) Remove(ctx context.Context, data []byte) ([]byte, error) { return f(ctx, data) }

type backendError struct{ code int }

func (e *backendError) Error() string { return "onnx session crashed" }

func TestAdapter_Remove(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		backend    Remover
		timeout    time.Duration
		want       []byte
		wantReason string
	}{
		{
			name: "成功",
			backend: removerFunc(func(ctx context.Context, data []byte) ([]byte, error) {
				return append([]byte("out:"), data...), nil
			}),
			want: []byte("out:in"),
		},
		{
			name: "后端报错",
			backend: removerFunc(func(ctx context.Context, data []byte) ([]byte, error) {
				return nil, &backendError{code: 7}
			}),
			wantReason: "onnx session crashed",
		},
		{
			name: "空结果",
			backend: removerFunc(func(ctx context.Context, data []byte) ([]byte, error) {
				return []byte{}, nil
			}),
			wantReason: "empty result",
		},
		{
			name: "超时且后端不理会ctx",
			backend: removerFunc(func(ctx context.Context, data []byte) ([]byte, error) {
				time.Sleep(300 * time.Millisecond)
				return []byte("late"), nil
			}),
			timeout:    20 * time.Millisecond,
			wantReason: "context deadline exceeded",
		},
		{
			name:       "未配置后端",
			backend:    Unavailable{},
			wantReason: "no AI backend configured",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			a := NewAdapter("test", tt.backend, tt.timeout)
			got, err := a.Remove(context.Background(), []byte("in"))
			if tt.wantReason == "" {
				require.NoError(t, err)
				assert.Equal(t, tt.want, got)
				return
			}

			require.Error(t, err)
			assert.Nil(t, got)
			assert.ErrorIs(t, err, ErrAISegmentationFailed)

			var fe *FailedError
			require.ErrorAs(t, err, &fe)
			assert.Equal(t, "test", fe.Backend)
			assert.Equal(t, tt.wantReason, fe.Reason)

			// 不暴露后端的错误值
			var be *backendError
			assert.False(t, errors.As(err, &be))
		})
	}
}

func TestAdapter_CallerCancel(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	a := NewAdapter("test", removerFunc(func(ctx context.Context, data []byte) ([]byte, error) {
		cancel()
		<-ctx.Done()
		return nil, ctx.Err()
	}), 0)

	_, err := a.Remove(ctx, []byte("in"))
	assert.ErrorIs(t, err, ErrAISegmentationFailed)
	assert.Contains(t, err.Error(), "context canceled")
}

func TestNewBackend(t *testing.T) {
	t.Parallel()

	b, err := NewBackend(BackendComfyUI, "http://127.0.0.1:8188")
	require.NoError(t, err)
	assert.IsType(t, &BiRefNetRemBG{}, b)

	b, err = NewBackend(BackendServer, "http://127.0.0.1:7000")
	require.NoError(t, err)
	assert.IsType(t, &ServerRemBG{}, b)

	b, err = NewBackend(BackendNone, "")
	require.NoError(t, err)
	assert.IsType(t, Unavailable{}, b)

	_, err = NewBackend(BackendComfyUI, "")
	assert.Error(t, err)
	_, err = NewBackend("onnx", "")
	assert.Error(t, err)
}
