package rembg

import (
	"bytes"
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"mime/multipart"
	"path"
	"strings"
	"time"

	"github.com/segmentio/ksuid"

	nhttp "github.com/gamertechsdefi/morph-canvas/util/http"
)

const (
	BiRefNetModel = "BiRefNet"

	uploadPath  = "api/upload/image"
	promptPath  = "api/prompt"
	historyPath = "api/history/"
	viewPath    = "api/view"

	defaultPollInterval = 500 * time.Millisecond
)

//go:embed workflow.json
var workflowData []byte

// BiRefNetRemBG 通过 ComfyUI 跑 BiRefNet 抠图工作流
// 上传图片 -> 提交 prompt -> 轮询 history -> 下载结果
type BiRefNetRemBG struct {
	baseURL      string
	clientID     string
	pollInterval time.Duration
	cli          nhttp.IClient
}

type BiRefNetOption func(b *BiRefNetRemBG)

func WithPollInterval(d time.Duration) BiRefNetOption {
	return func(b *BiRefNetRemBG) {
		if d > 0 {
			b.pollInterval = d
		}
	}
}

func WithHTTPClient(cli nhttp.IClient) BiRefNetOption {
	return func(b *BiRefNetRemBG) {
		b.cli = cli
	}
}

// NewBiRefNetRemBG baseURL 例如 http://192.168.4.188:8188/
func NewBiRefNetRemBG(baseURL string, opts ...BiRefNetOption) *BiRefNetRemBG {
	b := &BiRefNetRemBG{
		baseURL:      strings.TrimRight(baseURL, "/") + "/",
		clientID:     ksuid.New().String(),
		pollInterval: defaultPollInterval,
		cli:          nhttp.NewHTTPClient(),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

func (b *BiRefNetRemBG) Remove(ctx context.Context, data []byte) ([]byte, error) {
	uploaded, err := b.uploadImage(ctx, data)
	if err != nil {
		return nil, fmt.Errorf("upload image: %w", err)
	}

	promptID, err := b.prompt(ctx, uploaded)
	if err != nil {
		return nil, fmt.Errorf("queue prompt: %w", err)
	}

	out, err := b.waitOutput(ctx, promptID)
	if err != nil {
		return nil, fmt.Errorf("wait output: %w", err)
	}

	img, err := b.view(ctx, out)
	if err != nil {
		return nil, fmt.Errorf("download output: %w", err)
	}
	return img, nil
}

type imageRef struct {
	Name      string `json:"name,omitempty"`
	Filename  string `json:"filename,omitempty"`
	Subfolder string `json:"subfolder"`
	Type      string `json:"type"`
}

/*
	curl -X POST "$BASE_URL/api/upload/image" \
	  -F "image=@my_image.png" \
	  -F "type=input" \
	  -F "overwrite=true"

{"name": "my_image1.png", "subfolder": "", "type": "input"}%
*/
func (b *BiRefNetRemBG) uploadImage(ctx context.Context, data []byte) (*imageRef, error) {
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)

	// image 文件字段，文件名用 ksuid 避免覆盖别人的上传
	part, err := writer.CreateFormFile("image", ksuid.New().String()+".png")
	if err != nil {
		return nil, fmt.Errorf("create form file: %w", err)
	}
	if _, err := part.Write(data); err != nil {
		return nil, fmt.Errorf("write form file: %w", err)
	}

	// 其他字段
	_ = writer.WriteField("type", "input")
	_ = writer.WriteField("overwrite", "true")
	_ = writer.Close()

	resp := &imageRef{}
	reqParam := &nhttp.RequestParam{
		RequestURI: b.baseURL + uploadPath,
		Method:     "POST",
		Header:     map[string]string{"Content-Type": writer.FormDataContentType()},
		Body:       body,
		Response:   resp,
	}
	if err := b.cli.DoHTTPRequest(ctx, reqParam); err != nil {
		return nil, fmt.Errorf("do request: %w", err)
	}
	if resp.Name == "" {
		return nil, errors.New("upload response has no file name")
	}

	slog.Debug("comfyui image uploaded", "name", resp.Name, "subfolder", resp.Subfolder)
	return resp, nil
}

type promptResp struct {
	PromptID   string         `json:"prompt_id"`
	Number     int            `json:"number"`
	NodeErrors map[string]any `json:"node_errors"`
}

/*
	curl -X POST "http://192.168.4.188:8188/api/prompt" \
	  -H "Content-Type: application/json" \
	  -d '{"prompt": '"$(cat workflow.json)"', "client_id": "..."}'
*/
func (b *BiRefNetRemBG) prompt(ctx context.Context, uploaded *imageRef) (string, error) {
	wk, err := buildWorkflow(path.Join(uploaded.Subfolder, uploaded.Name))
	if err != nil {
		return "", err
	}

	resp := &promptResp{}
	reqParam := &nhttp.RequestParam{
		RequestURI: b.baseURL + promptPath,
		Method:     "POST",
		Header:     map[string]string{"Content-Type": "application/json"},
		Body:       map[string]any{"prompt": wk, "client_id": b.clientID},
		Response:   resp,
	}
	if err := b.cli.DoHTTPRequest(ctx, reqParam); err != nil {
		return "", fmt.Errorf("do request: %w", err)
	}
	if len(resp.NodeErrors) > 0 {
		return "", fmt.Errorf("workflow rejected: %v", resp.NodeErrors)
	}
	if resp.PromptID == "" {
		return "", errors.New("prompt response has no prompt_id")
	}

	slog.Debug("comfyui prompt queued", "prompt_id", resp.PromptID, "number", resp.Number)
	return resp.PromptID, nil
}

// buildWorkflow 把 LoadImage 节点的输入换成上传后的文件名
func buildWorkflow(imageName string) (map[string]any, error) {
	wk := map[string]map[string]any{}
	if err := json.Unmarshal(workflowData, &wk); err != nil {
		return nil, fmt.Errorf("unmarshal workflow data: %w", err)
	}

	out := make(map[string]any, len(wk))
	found := false
	for id, node := range wk {
		if node["class_type"] == "LoadImage" {
			inputs, _ := node["inputs"].(map[string]any)
			if inputs == nil {
				inputs = map[string]any{}
				node["inputs"] = inputs
			}
			inputs["image"] = imageName
			found = true
		}
		out[id] = node
	}
	if !found {
		return nil, errors.New("workflow has no LoadImage node")
	}
	return out, nil
}

type historyEntry struct {
	Status struct {
		StatusStr string `json:"status_str"`
		Completed bool   `json:"completed"`
	} `json:"status"`
	Outputs map[string]struct {
		Images []imageRef `json:"images"`
	} `json:"outputs"`
}

func (b *BiRefNetRemBG) waitOutput(ctx context.Context, promptID string) (*imageRef, error) {
	ticker := time.NewTicker(b.pollInterval)
	defer ticker.Stop()

	for {
		history := map[string]historyEntry{}
		reqParam := &nhttp.RequestParam{
			RequestURI: b.baseURL + historyPath + promptID,
			Method:     "GET",
			Response:   &history,
		}
		if err := b.cli.DoHTTPRequest(ctx, reqParam); err != nil {
			return nil, fmt.Errorf("get history: %w", err)
		}

		if entry, ok := history[promptID]; ok {
			if entry.Status.StatusStr == "error" {
				return nil, fmt.Errorf("prompt %s failed", promptID)
			}
			for _, out := range entry.Outputs {
				for _, img := range out.Images {
					if img.Type == "output" {
						return &img, nil
					}
				}
			}
			if entry.Status.Completed {
				return nil, fmt.Errorf("prompt %s completed without output image", promptID)
			}
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-ticker.C:
		}
	}
}

func (b *BiRefNetRemBG) view(ctx context.Context, img *imageRef) ([]byte, error) {
	var data []byte
	reqParam := &nhttp.RequestParam{
		RequestURI: b.baseURL + viewPath,
		Method:     "GET",
		Query: map[string]string{
			"filename":  img.Filename,
			"subfolder": img.Subfolder,
			"type":      img.Type,
		},
		Response: &data,
	}
	if err := b.cli.DoHTTPRequest(ctx, reqParam); err != nil {
		return nil, fmt.Errorf("do request: %w", err)
	}
	return data, nil
}
