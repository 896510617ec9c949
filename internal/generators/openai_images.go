package generators

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"time"

	"github.com/sashabaranov/go-openai"

	"github.com/hyeonnnnn/MBTIMatchplay/internal/interfaces"
)

// OpenAIImageConfig configures the OpenAI Images backend
type OpenAIImageConfig struct {
	APIKey  string
	BaseURL string
	Model   string
}

// OpenAIImageBackend renders images with the OpenAI Images API
type OpenAIImageBackend struct {
	client *openai.Client
	model  string
}

// NewOpenAIImageBackend creates the backend
func NewOpenAIImageBackend(cfg OpenAIImageConfig) *OpenAIImageBackend {
	config := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		config.BaseURL = cfg.BaseURL
	}
	if cfg.Model == "" {
		cfg.Model = openai.CreateImageModelDallE3
	}

	return &OpenAIImageBackend{
		client: openai.NewClientWithConfig(config),
		model:  cfg.Model,
	}
}

// Name identifies the backend
func (b *OpenAIImageBackend) Name() string {
	return "openai"
}

// GenerateImage requests one image as base64 JSON. The API has no seed, so
// req.Seed only takes part in cache keys.
func (b *OpenAIImageBackend) GenerateImage(ctx context.Context, req *interfaces.ImageRequest) (*interfaces.ImageResponse, error) {
	width, height := req.Width, req.Height
	if width == 0 || height == 0 {
		width, height = 1024, 1024
	}

	start := time.Now()
	resp, err := b.client.CreateImage(ctx, openai.ImageRequest{
		Prompt:         req.Prompt,
		Model:          b.model,
		N:              1,
		Size:           fmt.Sprintf("%dx%d", width, height),
		ResponseFormat: openai.CreateImageResponseFormatB64JSON,
	})
	if err != nil {
		return nil, fmt.Errorf("create image: %w", err)
	}
	if len(resp.Data) == 0 || resp.Data[0].B64JSON == "" {
		return nil, errors.New("create image: empty response")
	}

	data, err := base64.StdEncoding.DecodeString(resp.Data[0].B64JSON)
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}

	return &interfaces.ImageResponse{
		ImageData:      data,
		Seed:           req.Seed,
		GenerationTime: time.Since(start).Milliseconds(),
	}, nil
}
