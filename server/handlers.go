package server

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/gamertechsdefi/morph-canvas/assets"
	"github.com/gamertechsdefi/morph-canvas/compose"
	"github.com/gamertechsdefi/morph-canvas/pipeline"
	"github.com/gamertechsdefi/morph-canvas/pixel"
)

// statusFor 错误到 HTTP 状态码
func statusFor(err error) int {
	switch {
	case errors.Is(err, pixel.ErrDecode),
		errors.Is(err, compose.ErrInvalidTintFactor),
		errors.Is(err, assets.ErrInvalidName):
		return http.StatusBadRequest
	case errors.Is(err, assets.ErrAssetNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

func fail(c *gin.Context, msg string, err error, extra gin.H) {
	_ = c.Error(err)
	body := gin.H{"error": msg, "details": err.Error()}
	for k, v := range extra {
		body[k] = v
	}
	c.JSON(statusFor(err), body)
}

// upload 抠图后合成到所选背景上
func (s *Server) upload(c *gin.Context) {
	data, ok := readImage(c)
	if !ok {
		return
	}
	projectType := c.DefaultPostForm("projectType", assets.DefaultProjectType)
	backgroundChoice := c.DefaultPostForm("backgroundChoice", assets.DefaultBackground)

	res, err := s.pipeline.Remove(c.Request.Context(), data, pipeline.ModeRobust)
	if err != nil {
		fail(c, "Image processing failed", err, nil)
		return
	}
	if len(res.Data) == 0 {
		fail(c, "Image processing failed", &pipeline.EmptyResultError{Stage: "background removal"}, nil)
		return
	}

	background, err := s.assets.Load(projectType, backgroundChoice)
	if err != nil {
		fail(c, "Image processing failed", err, nil)
		return
	}

	out, err := s.pipeline.ApplyBackground(res.Data, background)
	if err != nil {
		fail(c, "Image processing failed", err, nil)
		return
	}

	slog.Info("image processed", "method", res.Method, "projectType", projectType, "background", backgroundChoice)
	s.keep("upload", out)
	c.JSON(http.StatusOK, gin.H{"processedImageUrl": dataURL(out)})
}

// testRemoval 只抠图，可以指定方式；不认识的方式按 robust 处理
func (s *Server) testRemoval(c *gin.Context) {
	data, ok := readImage(c)
	if !ok {
		return
	}
	method := c.DefaultPostForm("method", string(pipeline.ModeRobust))

	mode, err := pipeline.ParseMode(method)
	if err != nil {
		slog.Debug("unknown removal method, using robust", "method", method)
		mode = pipeline.ModeRobust
	}

	res, err := s.pipeline.Remove(c.Request.Context(), data, mode)
	if err != nil {
		fail(c, "Background removal failed", err, gin.H{"method": method, "success": false})
		return
	}

	body := gin.H{
		"processedImageUrl": dataURL(res.Data),
		"method":            method,
		"usedMethod":        res.Method,
		"success":           true,
	}
	if res.AIError != nil {
		body["aiError"] = res.AIError.Error()
	}
	s.keep(string(res.Method), res.Data)
	c.JSON(http.StatusOK, body)
}

// tint 表单参数 color（r,g,b 或 #rrggbb）和 factor，缺省用默认着色
func (s *Server) tint(c *gin.Context) {
	data, ok := readImage(c)
	if !ok {
		return
	}

	spec := compose.DefaultTint
	if v := c.PostForm("color"); v != "" {
		rgb, err := pixel.ParseRGB(v)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid tint color", "details": err.Error()})
			return
		}
		spec.Color = rgb
	}
	if v := c.PostForm("factor"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid tint factor", "details": err.Error()})
			return
		}
		spec.Factor = f
	}

	out, err := s.pipeline.ApplyTint(data, spec)
	if err != nil {
		fail(c, "Tint failed", err, nil)
		return
	}
	c.JSON(http.StatusOK, gin.H{"processedImageUrl": dataURL(out)})
}

func (s *Server) backgrounds(c *gin.Context) {
	names, err := s.assets.List(c.Param("projectType"))
	if err != nil {
		fail(c, "Cannot list backgrounds", err, nil)
		return
	}
	c.JSON(http.StatusOK, gin.H{"backgrounds": names})
}
