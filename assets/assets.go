// Package assets 读取可选的背景图片，按 <root>/<projectType>/<name> 组织。
package assets

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
)

const (
	DefaultProjectType = "base"
	DefaultBackground  = "background1.png"
)

var (
	ErrAssetNotFound = errors.New("background image not found")
	ErrInvalidName   = errors.New("invalid asset name")
)

// NotFoundError 背景图片不存在
type NotFoundError struct {
	Path string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%v: %s", ErrAssetNotFound, e.Path)
}

func (e *NotFoundError) Is(target error) bool { return target == ErrAssetNotFound }

var imageExts = []string{".png", ".jpg", ".jpeg", ".gif", ".webp"}

type Store struct {
	root string
}

func NewStore(root string) *Store {
	return &Store{root: root}
}

func (s *Store) Root() string { return s.root }

// Path 校验名字并返回文件路径，不允许跳出 root
func (s *Store) Path(projectType, name string) (string, error) {
	if projectType == "" {
		projectType = DefaultProjectType
	}
	if name == "" {
		name = DefaultBackground
	}
	for _, part := range []string{projectType, name} {
		if !validName(part) {
			return "", fmt.Errorf("%w: %q", ErrInvalidName, part)
		}
	}
	return filepath.Join(s.root, projectType, name), nil
}

func validName(s string) bool {
	return s != "." && s != ".." && !strings.ContainsAny(s, `/\`) && !strings.Contains(s, "..")
}

// Load 读取背景图片的原始字节
func (s *Store) Load(projectType, name string) ([]byte, error) {
	p, err := s.Path(projectType, name)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(p) // #nosec G304 - name validated above
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, &NotFoundError{Path: p}
		}
		return nil, fmt.Errorf("read background: %w", err)
	}
	return data, nil
}

// List 列出某个 projectType 下的所有背景图片名
func (s *Store) List(projectType string) ([]string, error) {
	if !validName(projectType) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidName, projectType)
	}

	dir := filepath.Join(s.root, projectType)
	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, &NotFoundError{Path: dir}
		}
		return nil, fmt.Errorf("read asset dir: %w", err)
	}

	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if slices.Contains(imageExts, strings.ToLower(filepath.Ext(e.Name()))) {
			names = append(names, e.Name())
		}
	}
	slices.Sort(names)
	return names, nil
}
