// Package server 抠图和换背景的 HTTP 接口。
package server

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/gamertechsdefi/morph-canvas/assets"
	"github.com/gamertechsdefi/morph-canvas/output"
	"github.com/gamertechsdefi/morph-canvas/pipeline"
)

type Server struct {
	pipeline  *pipeline.Pipeline
	assets    *assets.Store
	archive   *output.Archive
	maxUpload int64
	engine    *gin.Engine
}

// New archive 为 nil 时不保存结果
func New(p *pipeline.Pipeline, store *assets.Store, archive *output.Archive, maxUpload int64) *Server {
	s := &Server{
		pipeline:  p,
		assets:    store,
		archive:   archive,
		maxUpload: maxUpload,
	}

	r := gin.New()
	r.MaxMultipartMemory = maxUpload
	r.Use(gin.Recovery(), requestLogger(), limitBody(maxUpload))

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := r.Group("/api")
	api.POST("/upload", s.upload)
	api.POST("/test-bg-removal", s.testRemoval)
	api.POST("/tint", s.tint)
	api.GET("/backgrounds/:projectType", s.backgrounds)

	s.engine = r
	return s
}

func (s *Server) Handler() http.Handler { return s.engine }

// Run 阻塞直到 ctx 结束，然后优雅退出
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("http server listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		attrs := []any{
			"method", c.Request.Method,
			"path", c.FullPath(),
			"status", c.Writer.Status(),
			"latency", time.Since(start),
			"client_ip", c.ClientIP(),
		}
		if len(c.Errors) > 0 {
			attrs = append(attrs, "error", c.Errors.String())
		}
		if c.Writer.Status() >= http.StatusInternalServerError {
			slog.Error("request", attrs...)
			return
		}
		slog.Debug("request", attrs...)
	}
}

func limitBody(limit int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		if limit > 0 && c.Request.Body != nil {
			// multipart 头部也算在里面，多留 1 MiB
			c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, limit+1<<20)
		}
		c.Next()
	}
}

// readImage 读取表单里的 image 文件
func readImage(c *gin.Context) ([]byte, bool) {
	fh, err := c.FormFile("image")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "No file uploaded"})
		return nil, false
	}

	f, err := fh.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Cannot read uploaded file", "details": err.Error()})
		return nil, false
	}
	defer func() {
		_ = f.Close()
	}()

	data, err := io.ReadAll(f)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Cannot read uploaded file", "details": err.Error()})
		return nil, false
	}
	return data, true
}

func dataURL(png []byte) string {
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(png)
}

// keep 保存结果失败只记日志，不影响响应
func (s *Server) keep(tag string, data []byte) {
	if s.archive == nil {
		return
	}
	name, err := s.archive.Save(tag, data)
	if err != nil {
		slog.Warn("keep output", "error", err)
		return
	}
	slog.Debug("kept output", "name", name)
}
