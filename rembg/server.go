package rembg

import (
	"bytes"
	"context"
	"fmt"
	"mime/multipart"
	"strings"

	"github.com/segmentio/ksuid"

	nhttp "github.com/gamertechsdefi/morph-canvas/util/http"
)

const removePath = "api/remove"

// ServerRemBG 调用 rembg 自带的 HTTP 服务（rembg s）
//
//	curl -X POST "$BASE_URL/api/remove" -F "file=@my_image.png" -o out.png
type ServerRemBG struct {
	baseURL string
	cli     nhttp.IClient
}

func NewServerRemBG(baseURL string, cli nhttp.IClient) *ServerRemBG {
	if cli == nil {
		cli = nhttp.NewHTTPClient()
	}
	return &ServerRemBG{
		baseURL: strings.TrimRight(baseURL, "/") + "/",
		cli:     cli,
	}
}

func (s *ServerRemBG) Remove(ctx context.Context, data []byte) ([]byte, error) {
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)

	part, err := writer.CreateFormFile("file", ksuid.New().String()+".png")
	if err != nil {
		return nil, fmt.Errorf("create form file: %w", err)
	}
	if _, err := part.Write(data); err != nil {
		return nil, fmt.Errorf("write form file: %w", err)
	}
	_ = writer.Close()

	var out []byte
	reqParam := &nhttp.RequestParam{
		RequestURI: s.baseURL + removePath,
		Method:     "POST",
		Header:     map[string]string{"Content-Type": writer.FormDataContentType()},
		Body:       body,
		Response:   &out,
	}
	if err := s.cli.DoHTTPRequest(ctx, reqParam); err != nil {
		return nil, fmt.Errorf("do request: %w", err)
	}
	return out, nil
}
