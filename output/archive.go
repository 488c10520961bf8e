// Package output 保存处理结果，并按保留时间定期清理。
package output

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/segmentio/ksuid"
)

// Archive 以 <ksuid>.png 的形式保存结果；ksuid 自带时间戳，清理时直接用它判断过期
type Archive struct {
	dir       string
	retention time.Duration
	now       func() time.Time
	cron      *cron.Cron
}

func NewArchive(dir string, retention time.Duration) (*Archive, error) {
	if err := os.MkdirAll(dir, os.ModePerm); err != nil {
		return nil, fmt.Errorf("create output dir: %w", err)
	}
	return &Archive{dir: dir, retention: retention, now: time.Now}, nil
}

func (a *Archive) Dir() string { return a.dir }

// Save 保存一张 PNG，返回文件名
func (a *Archive) Save(tag string, data []byte) (string, error) {
	id, err := ksuid.NewRandomWithTime(a.now())
	if err != nil {
		return "", fmt.Errorf("new ksuid: %w", err)
	}

	name := id.String() + ".png"
	if tag != "" {
		name = id.String() + "_" + tag + ".png"
	}
	if err := os.WriteFile(filepath.Join(a.dir, name), data, 0o644); err != nil {
		return "", fmt.Errorf("write output: %w", err)
	}
	return name, nil
}

// Prune 删除超过保留时间的文件，返回删除的个数
func (a *Archive) Prune() (int, error) {
	if a.retention <= 0 {
		return 0, nil
	}

	entries, err := os.ReadDir(a.dir)
	if err != nil {
		return 0, fmt.Errorf("read output dir: %w", err)
	}

	deadline := a.now().Add(-a.retention)
	removed := 0
	var errs []error
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		base := strings.TrimSuffix(e.Name(), filepath.Ext(e.Name()))
		id, err := ksuid.Parse(strings.SplitN(base, "_", 2)[0])
		if err != nil {
			// 不是我们生成的文件
			continue
		}
		if !id.Time().Before(deadline) {
			continue
		}
		if err := os.Remove(filepath.Join(a.dir, e.Name())); err != nil {
			errs = append(errs, err)
			continue
		}
		removed++
	}
	return removed, errors.Join(errs...)
}

// StartPruning 按 cron 表达式定期清理，例如 "@every 10m"
func (a *Archive) StartPruning(spec string) error {
	c := cron.New()
	_, err := c.AddFunc(spec, func() {
		n, err := a.Prune()
		if err != nil {
			slog.Error("prune outputs", "dir", a.dir, "error", err)
			return
		}
		if n > 0 {
			slog.Info("pruned outputs", "dir", a.dir, "removed", n)
		}
	})
	if err != nil {
		return fmt.Errorf("add prune job: %w", err)
	}
	c.Start()
	a.cron = c
	return nil
}

// Stop 停止定期清理，等待正在执行的任务结束
func (a *Archive) Stop() {
	if a.cron != nil {
		<-a.cron.Stop().Done()
	}
}
