package generators

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/hyeonnnnn/MBTIMatchplay/internal/interfaces"
)

const (
	comfyBaseURL       = "http://localhost:8188"
	comfyTimeout       = 300 * time.Second
	comfyPollInterval  = 1 * time.Second
	comfyMaxPollChecks = 300 // 5 minutes max wait time
)

// ComfyUIConfig configures the ComfyUI backend
type ComfyUIConfig struct {
	BaseURL      string
	Checkpoint   string
	Steps        int
	CFGScale     float64
	SamplerName  string
	Scheduler    string
	PollInterval time.Duration
}

// ComfyUIClient renders images through a ComfyUI server
type ComfyUIClient struct {
	httpClient *http.Client
	cfg        ComfyUIConfig
	logger     *zap.Logger
}

// Workflow represents a ComfyUI workflow keyed by node ID
type Workflow map[int]*WorkflowNode

// WorkflowNode represents a node in the workflow
type WorkflowNode struct {
	ClassType string                 `json:"class_type"`
	Inputs    map[string]interface{} `json:"inputs"`
}

// PromptRequest represents a prompt generation request
type PromptRequest struct {
	Prompt   Workflow `json:"prompt"`
	ClientID string   `json:"client_id"`
}

// HistoryItem represents one finished prompt in the history
type HistoryItem struct {
	Outputs map[string]struct {
		Images []ImageInfo `json:"images"`
	} `json:"outputs"`
}

// ImageInfo represents an image in history
type ImageInfo struct {
	Filename  string `json:"filename"`
	Subfolder string `json:"subfolder"`
	Type      string `json:"type"`
}

// NewComfyUIClient creates a new ComfyUI client
func NewComfyUIClient(cfg ComfyUIConfig, logger *zap.Logger) *ComfyUIClient {
	if cfg.BaseURL == "" {
		cfg.BaseURL = comfyBaseURL
	}
	if cfg.Steps == 0 {
		cfg.Steps = 8 // SDXL Turbo needs fewer steps
	}
	if cfg.CFGScale == 0 {
		cfg.CFGScale = 7.0
	}
	if cfg.SamplerName == "" {
		cfg.SamplerName = "euler"
	}
	if cfg.Scheduler == "" {
		cfg.Scheduler = "normal"
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = comfyPollInterval
	}

	return &ComfyUIClient{
		httpClient: &http.Client{Timeout: comfyTimeout},
		cfg:        cfg,
		logger:     logger.Named("comfyui"),
	}
}

// Name identifies the backend
func (c *ComfyUIClient) Name() string {
	return "comfyui"
}

// GenerateImage queues the workflow and waits for the first output image
func (c *ComfyUIClient) GenerateImage(ctx context.Context, req *interfaces.ImageRequest) (*interfaces.ImageResponse, error) {
	start := time.Now()

	promptID, err := c.queuePrompt(ctx, &PromptRequest{
		Prompt:   c.buildWorkflow(req),
		ClientID: uuid.NewString(),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to queue prompt: %w", err)
	}

	data, err := c.pollForResult(ctx, promptID)
	if err != nil {
		return nil, fmt.Errorf("failed to get result: %w", err)
	}

	return &interfaces.ImageResponse{
		ImageData:      data,
		Seed:           req.Seed,
		GenerationTime: time.Since(start).Milliseconds(),
	}, nil
}

// queuePrompt sends a prompt to the queue
func (c *ComfyUIClient) queuePrompt(ctx context.Context, req *PromptRequest) (string, error) {
	reqBody, err := json.Marshal(req)
	if err != nil {
		return "", err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+"/prompt", bytes.NewReader(reqBody))
	if err != nil {
		return "", err
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	bodyBytes, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("ComfyUI returned status %d: %s", resp.StatusCode, string(bodyBytes))
	}

	var result struct {
		PromptID json.RawMessage `json:"prompt_id"`
	}
	if err := json.Unmarshal(bodyBytes, &result); err != nil {
		return "", err
	}

	promptID := decodePromptID(result.PromptID)
	if promptID == "" {
		return "", fmt.Errorf("invalid response: missing prompt_id")
	}

	c.logger.Debug("prompt queued", zap.String("prompt_id", promptID))
	return promptID, nil
}

// decodePromptID accepts the ID as a JSON string or number
func decodePromptID(raw json.RawMessage) string {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err == nil {
		return n.String()
	}
	return ""
}

// pollForResult polls the prompt history until an image is available
func (c *ComfyUIClient) pollForResult(ctx context.Context, promptID string) ([]byte, error) {
	for attempt := 0; attempt < comfyMaxPollChecks; attempt++ {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(c.cfg.PollInterval):
		}

		item, err := c.getHistory(ctx, promptID)
		if err != nil {
			c.logger.Debug("history check failed", zap.String("prompt_id", promptID), zap.Error(err))
			continue
		}
		if item == nil {
			continue
		}

		for _, output := range item.Outputs {
			if len(output.Images) > 0 {
				img := output.Images[0]
				return c.getImage(ctx, img.Filename, img.Subfolder, img.Type)
			}
		}
		return nil, fmt.Errorf("prompt %s finished without images", promptID)
	}

	return nil, fmt.Errorf("timeout waiting for image generation")
}

// getHistory returns the history entry of promptID, nil while it is still running
func (c *ComfyUIClient) getHistory(ctx context.Context, promptID string) (*HistoryItem, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.cfg.BaseURL+"/history/"+url.PathEscape(promptID), nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("history returned status %d", resp.StatusCode)
	}

	var history map[string]HistoryItem
	if err := json.NewDecoder(resp.Body).Decode(&history); err != nil {
		return nil, err
	}

	item, ok := history[promptID]
	if !ok {
		return nil, nil
	}
	return &item, nil
}

// getImage downloads an output image
func (c *ComfyUIClient) getImage(ctx context.Context, filename, subfolder, folderType string) ([]byte, error) {
	q := url.Values{}
	q.Set("filename", filename)
	if subfolder != "" {
		q.Set("subfolder", subfolder)
	}
	if folderType != "" {
		q.Set("type", folderType)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.cfg.BaseURL+"/view?"+q.Encode(), nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("failed to get image: status %d", resp.StatusCode)
	}
	return io.ReadAll(resp.Body)
}

// buildWorkflow builds a text-to-image workflow for an SDXL checkpoint
func (c *ComfyUIClient) buildWorkflow(req *interfaces.ImageRequest) Workflow {
	width, height := req.Width, req.Height
	if width == 0 {
		width = 1024
	}
	if height == 0 {
		height = 1024
	}

	workflow := make(Workflow)

	// Load checkpoint (provides MODEL, CLIP and VAE)
	workflow[4] = &WorkflowNode{
		ClassType: "CheckpointLoaderSimple",
		Inputs: map[string]interface{}{
			"ckpt_name": c.cfg.Checkpoint,
		},
	}

	workflow[3] = &WorkflowNode{
		ClassType: "KSampler",
		Inputs: map[string]interface{}{
			"seed":         req.Seed,
			"steps":        c.cfg.Steps,
			"cfg":          c.cfg.CFGScale,
			"sampler_name": c.cfg.SamplerName,
			"scheduler":    c.cfg.Scheduler,
			"denoise":      1,
			"model":        []interface{}{4, 0},
			"positive":     []interface{}{6, 0},
			"negative":     []interface{}{7, 0},
			"latent_image": []interface{}{5, 0},
		},
	}

	workflow[5] = &WorkflowNode{
		ClassType: "EmptyLatentImage",
		Inputs: map[string]interface{}{
			"width":      width,
			"height":     height,
			"batch_size": 1,
		},
	}

	workflow[6] = &WorkflowNode{
		ClassType: "CLIPTextEncode",
		Inputs: map[string]interface{}{
			"text": req.Prompt,
			"clip": []interface{}{4, 1},
		},
	}

	workflow[7] = &WorkflowNode{
		ClassType: "CLIPTextEncode",
		Inputs: map[string]interface{}{
			"text": req.NegativePrompt,
			"clip": []interface{}{4, 1},
		},
	}

	workflow[8] = &WorkflowNode{
		ClassType: "VAEDecode",
		Inputs: map[string]interface{}{
			"samples": []interface{}{3, 0},
			"vae":     []interface{}{4, 2},
		},
	}

	workflow[9] = &WorkflowNode{
		ClassType: "SaveImage",
		Inputs: map[string]interface{}{
			"images":          []interface{}{8, 0},
			"filename_prefix": "matchplay_portrait",
		},
	}

	return workflow
}

// HealthCheck checks if ComfyUI is accessible
func (c *ComfyUIClient) HealthCheck(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.cfg.BaseURL+"/queue", nil)
	if err != nil {
		return err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("ComfyUI returned status %d", resp.StatusCode)
	}

	return nil
}
