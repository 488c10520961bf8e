package util

import (
	"context"
	"fmt"
	"os"
	"strings"

	nhttp "github.com/gamertechsdefi/morph-canvas/util/http"
)

// IsURL 是否为 http(s) 地址
func IsURL(s string) bool {
	return strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://")
}

// ReadImage 读取本地图片或下载远程图片的原始字节
func ReadImage(ctx context.Context, pathOrURL string) ([]byte, error) {
	if IsURL(pathOrURL) {
		return DownloadImage(ctx, nhttp.NewHTTPClient(), pathOrURL)
	}
	return OpenImage(pathOrURL)
}

// DownloadImage 下载图片
func DownloadImage(ctx context.Context, cli nhttp.IClient, url string) ([]byte, error) {
	var data []byte
	err := cli.DoHTTPRequest(ctx, &nhttp.RequestParam{
		RequestURI: url,
		Method:     "GET",
		Response:   &data,
	})
	if err != nil {
		return nil, fmt.Errorf("download image: %w", err)
	}
	return data, nil
}

// OpenImage 打开本地图片
func OpenImage(path string) ([]byte, error) {
	data, err := os.ReadFile(path) // #nosec G304 - user supplied input image
	if err != nil {
		return nil, fmt.Errorf("open image: %w", err)
	}
	return data, nil
}

// WriteImage 写出结果，path 为 "-" 时写到标准输出
func WriteImage(path string, data []byte) error {
	if path == "-" {
		_, err := os.Stdout.Write(data)
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write image: %w", err)
	}
	return nil
}
